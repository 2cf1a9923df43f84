package metadata

import "image"

type ResourceType int

/** @brief Resource types understood by the asset manager. */
const (
	ResourceTypeNone ResourceType = iota
	/** @brief Combiner configuration (CombinerConfig). */
	ResourceTypeConfig
	/** @brief Blend shape bake plan (BlendShapeBakePlan). */
	ResourceTypeBakePlan
	/** @brief Occlusion cutout mask (Cutout). */
	ResourceTypeCutout
)

func (t ResourceType) String() string {
	switch t {
	case ResourceTypeConfig:
		return "config"
	case ResourceTypeBakePlan:
		return "bake plan"
	case ResourceTypeCutout:
		return "cutout"
	}
	return "none"
}

/**
 * @brief A generic structure for a resource. All resource loaders
 * load data into these.
 */
type Resource struct {
	/** @brief The resource type. */
	Type ResourceType
	/** @brief The name of the resource, the file name without extension. */
	Name string
	/** @brief The full file path of the resource. */
	FullPath string
	/** @brief The size of the resource file in bytes. */
	DataSize uint64
	/** @brief The resource data. */
	Data interface{}
}

/**
 * @brief The occlusion cutout of one part of a character, loaded from a
 * <character>.<part> image. Vertices under a black pixel are cut out.
 */
type Cutout struct {
	Character string
	Part      string
	Image     image.Image
}
