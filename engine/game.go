package engine

import (
	"github.com/spaghettifunk/anima-skin/engine/systems"
)

type Game struct {
	ApplicationConfig *ApplicationConfig
	// Characters is set by the engine before FnInitialize runs.
	Characters   *systems.CharacterSystem
	State        interface{}
	FnBoot       Boot
	FnInitialize Initialize
	FnUpdate     Update
	FnShutdown   Shutdown
}

type Boot func() error
type Initialize func() error
type Update func(deltaTime float64) error
type Shutdown func() error
