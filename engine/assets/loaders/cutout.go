package loaders

import (
	"image"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/pkg/errors"
	"github.com/spaghettifunk/anima-skin/engine/core"
	"github.com/spaghettifunk/anima-skin/engine/metadata"
)

// CutoutLoader decodes occlusion cutout masks (png, bmp, tiff) named
// <character>.<part>.<ext>. Black red channel means cut out.
type CutoutLoader struct{}

func (cl *CutoutLoader) Load(path string) (*metadata.Resource, error) {
	character, part, err := cutoutNames(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding cutout %s", path)
	}
	var size uint64
	if st, err := f.Stat(); err == nil {
		size = uint64(st.Size())
	}
	cutout := &metadata.Cutout{Character: character, Part: part, Image: img}
	return newResource(metadata.ResourceTypeCutout, path, size, cutout), nil
}

func (cl *CutoutLoader) Unload(res *metadata.Resource) error {
	res.Data = nil
	return nil
}

// cutoutNames splits body.shirt.png into the character and part names.
func cutoutNames(path string) (string, string, error) {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	character, part, ok := strings.Cut(base, ".")
	if !ok || character == "" || part == "" {
		return "", "", errors.Wrapf(core.ErrInvalidRequest, "cutout %s is not named <character>.<part>", path)
	}
	return character, part, nil
}
