package engine

import (
	"time"

	"github.com/spaghettifunk/anima-skin/engine/core"
)

type ApplicationConfig struct {
	// The application name used in logs.
	Name string
	// AssetsDir is watched for *.config.*, *.plan.* and cutout files.
	// Empty disables hot reload.
	AssetsDir string
	// ConfigPath points to the combiner config (TOML or YAML). Empty uses
	// the defaults.
	ConfigPath string
	// TickRate is the target duration of one tick.
	TickRate time.Duration
	// Workers bounds the characters combined in parallel.
	Workers  int
	LogLevel core.LogLevel
}
