package loaders

import (
	"github.com/pkg/errors"
	"github.com/spaghettifunk/anima-skin/engine/core"
	"github.com/spaghettifunk/anima-skin/engine/metadata"
)

type BakePlanLoader struct{}

func (bl *BakePlanLoader) Load(path string) (*metadata.Resource, error) {
	plan := metadata.NewBlendShapeBakePlan()
	size, err := decodeFile(path, plan)
	if err != nil {
		return nil, err
	}
	if plan.Shapes == nil {
		plan.Shapes = make(map[string]metadata.BlendShapeSetting)
	}
	for name, s := range plan.Shapes {
		if s.Value < 0 || s.Value > 1 {
			return nil, errors.Wrapf(core.ErrInvalidRequest, "%s: shape %q value %f outside [0,1]", path, name, s.Value)
		}
	}
	return newResource(metadata.ResourceTypeBakePlan, path, size, plan), nil
}

func (bl *BakePlanLoader) Unload(*metadata.Resource) error {
	return nil
}
