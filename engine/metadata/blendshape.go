package metadata

/**
 * @brief How a single blend shape is treated by a combine pass.
 */
type BlendShapeSetting struct {
	// Baked shapes are folded into the base geometry.
	Baked bool `toml:"baked" yaml:"baked"`
	// Value in 0..1, scaled to the 0..100 frame weight range.
	Value float32 `toml:"value" yaml:"value"`
}

/**
 * @brief Blend shape configuration for a character.
 */
type BlendShapeBakePlan struct {
	// Ignore drops every dynamic (non baked) blend shape.
	Ignore bool `toml:"ignore" yaml:"ignore"`
	// LoadAll reports weights for baked shapes as well.
	LoadAll bool                         `toml:"load_all" yaml:"load_all"`
	Shapes  map[string]BlendShapeSetting `toml:"shapes" yaml:"shapes"`
}

func NewBlendShapeBakePlan() *BlendShapeBakePlan {
	return &BlendShapeBakePlan{Shapes: make(map[string]BlendShapeSetting)}
}

func (p *BlendShapeBakePlan) Setting(name string) (BlendShapeSetting, bool) {
	if p == nil {
		return BlendShapeSetting{}, false
	}
	s, ok := p.Shapes[name]
	return s, ok
}

// IsBaked reports whether the shape is marked for baking.
func (p *BlendShapeBakePlan) IsBaked(name string) bool {
	s, ok := p.Setting(name)
	return ok && s.Baked
}

// HasBaking reports whether any shape is baked.
func (p *BlendShapeBakePlan) HasBaking() bool {
	if p == nil || p.Ignore {
		return false
	}
	for _, s := range p.Shapes {
		if s.Baked {
			return true
		}
	}
	return false
}

// IgnoresDynamic reports whether dynamic shapes are dropped. Only Ignore
// drops them; a plan without entries keeps every shape dynamic.
func (p *BlendShapeBakePlan) IgnoresDynamic() bool {
	return p != nil && p.Ignore
}
