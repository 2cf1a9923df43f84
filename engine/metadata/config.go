package metadata

import (
	"github.com/pkg/errors"
	"github.com/spaghettifunk/anima-skin/engine/core"
)

const (
	DefaultRootBoneName      = "Global"
	DefaultBindPoseTolerance = float32(1e-4)
	DefaultQueueSize         = 8
)

/**
 * @brief Configuration of a character combiner.
 */
type CombinerConfig struct {
	// RootBoneName names the skeleton root every unresolved bone falls back to.
	RootBoneName string `toml:"root_bone" yaml:"root_bone"`
	// BindPoseTolerance is the per element tolerance when matching bind poses.
	BindPoseTolerance float32 `toml:"bind_pose_tolerance" yaml:"bind_pose_tolerance"`
	// CacheBoneWeights keeps bone weight arrays keyed by vertex count
	// across passes.
	CacheBoneWeights bool `toml:"cache_bone_weights" yaml:"cache_bone_weights"`
	// AtlasResolution is used when a request does not carry one.
	AtlasResolution float32 `toml:"atlas_resolution" yaml:"atlas_resolution"`
	// QueueSize bounds the pending requests per character.
	QueueSize int    `toml:"queue_size" yaml:"queue_size"`
	LogLevel  string `toml:"log_level" yaml:"log_level"`
}

func DefaultCombinerConfig() *CombinerConfig {
	return &CombinerConfig{
		RootBoneName:      DefaultRootBoneName,
		BindPoseTolerance: DefaultBindPoseTolerance,
		CacheBoneWeights:  true,
		QueueSize:         DefaultQueueSize,
		LogLevel:          "info",
	}
}

func (c *CombinerConfig) Validate() error {
	if c.RootBoneName == "" {
		return errors.Wrap(core.ErrInvalidRequest, "root_bone must not be empty")
	}
	if c.BindPoseTolerance < 0 {
		return errors.Wrapf(core.ErrInvalidRequest, "bind_pose_tolerance must be >= 0, got %f", c.BindPoseTolerance)
	}
	if c.QueueSize < 1 {
		return errors.Wrapf(core.ErrInvalidRequest, "queue_size must be > 0, got %d", c.QueueSize)
	}
	if c.AtlasResolution < 0 {
		return errors.Wrapf(core.ErrInvalidRequest, "atlas_resolution must be >= 0, got %f", c.AtlasResolution)
	}
	return nil
}
