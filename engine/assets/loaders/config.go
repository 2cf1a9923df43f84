package loaders

import (
	"github.com/spaghettifunk/anima-skin/engine/metadata"
)

type ConfigLoader struct{}

// Load decodes a CombinerConfig over the defaults, so a file only needs the
// keys it changes.
func (cl *ConfigLoader) Load(path string) (*metadata.Resource, error) {
	cfg := metadata.DefaultCombinerConfig()
	size, err := decodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return newResource(metadata.ResourceTypeConfig, path, size, cfg), nil
}

func (cl *ConfigLoader) Unload(*metadata.Resource) error {
	return nil
}
