//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Test mg.Namespace

// Runs the whole test suite with the race detector.
func (Test) All() error {
	_, err := executeCmd("go", withArgs("test", "-race", "-count=1", "./..."), withStream())
	return err
}

// Runs the combiner and skeleton tests only.
func (Test) Core() error {
	_, err := executeCmd("go", withArgs("test", "-count=1", "./engine/combiner/...", "./engine/skeleton/...", "./engine/meshbuilder/..."), withStream())
	return err
}
