//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Builds every package and the testbed binary.
func (Build) All() error {
	mg.Deps(Build.Tidy)
	if _, err := executeCmd("go", withArgs("build", "./..."), withStream()); err != nil {
		return err
	}
	_, err := executeCmd("go", withArgs("build", "-o", "bin/anima-skin", "."), withStream())
	return err
}

// Runs go mod tidy.
func (Build) Tidy() error {
	return goModTidy()
}
