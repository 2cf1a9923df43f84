package assets

import "github.com/spaghettifunk/anima-skin/engine/metadata"

type Loader interface {
	Load(path string) (*metadata.Resource, error)
	Unload(*metadata.Resource) error
}
