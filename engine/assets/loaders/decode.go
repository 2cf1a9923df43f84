package loaders

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/anima-skin/engine/metadata"
	"gopkg.in/yaml.v3"
)

// decodeFile reads path and decodes it into out as TOML or YAML depending
// on the file extension. It returns the file size.
func decodeFile(path string, out interface{}) (uint64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(out)
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(out)
		if err != nil && len(bytes.TrimSpace(data)) == 0 {
			// an empty yaml document decodes to nothing
			err = nil
		}
	default:
		return 0, errors.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	if err != nil {
		return 0, errors.Wrapf(err, "decoding %s", path)
	}
	return uint64(len(data)), nil
}

func resourceName(path string) string {
	base := filepath.Base(path)
	for ext := filepath.Ext(base); ext != ""; ext = filepath.Ext(base) {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

func newResource(t metadata.ResourceType, path string, size uint64, data interface{}) *metadata.Resource {
	return &metadata.Resource{
		Type:     t,
		Name:     resourceName(path),
		FullPath: path,
		DataSize: size,
		Data:     data,
	}
}
