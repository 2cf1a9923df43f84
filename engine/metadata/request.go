package metadata

import (
	"github.com/pkg/errors"
	"github.com/spaghettifunk/anima-skin/engine/core"
)

/**
 * @brief A pixel rectangle inside the texture atlas a part was packed into.
 */
type AtlasRegion struct {
	X, Y          float32
	Width, Height float32
}

func (r AtlasRegion) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

/**
 * @brief One part of a combine request.
 */
type PartEntry struct {
	Part *MeshPart
	// TargetSubMeshes maps each part submesh to a merged submesh, -1 drops it.
	TargetSubMeshes []int
	// Occlusion holds one bitmask per part submesh (nil keeps everything).
	// Bit i of word w keeps triangle w*32+i.
	Occlusion [][]uint32
	// AtlasRegion remaps UV0 when set.
	AtlasRegion *AtlasRegion
}

// OcclusionFor returns the mask of the given part submesh or nil.
func (e *PartEntry) OcclusionFor(subMesh int) []uint32 {
	if subMesh < 0 || subMesh >= len(e.Occlusion) {
		return nil
	}
	return e.Occlusion[subMesh]
}

/**
 * @brief The ordered list of parts merged into one mesh in a single pass.
 */
type CombineRequest struct {
	Parts []PartEntry
	// PreservedBones must survive as joints in addition to the parts'
	// animated bones.
	PreservedBones []int32
	// AtlasResolution is the atlas size in pixels used by AtlasRegion.
	AtlasResolution float32
	BlendShapes     *BlendShapeBakePlan
}

// TargetSubMeshCount is the highest target index plus one.
func (r *CombineRequest) TargetSubMeshCount() int {
	highest := -1
	for _, entry := range r.Parts {
		for _, target := range entry.TargetSubMeshes {
			if target > highest {
				highest = target
			}
		}
	}
	return highest + 1
}

func (r *CombineRequest) Validate() error {
	for i := range r.Parts {
		entry := &r.Parts[i]
		if entry.Part == nil {
			return errors.Wrapf(core.ErrInvalidRequest, "part entry %d is nil", i)
		}
		if err := entry.Part.Validate(); err != nil {
			return err
		}
		if len(entry.TargetSubMeshes) != entry.Part.SubMeshCount() {
			return errors.Wrapf(core.ErrInvalidRequest, "part %q: %d target submeshes for %d submeshes", entry.Part.Name, len(entry.TargetSubMeshes), entry.Part.SubMeshCount())
		}
		if len(entry.Occlusion) > entry.Part.SubMeshCount() {
			return errors.Wrapf(core.ErrInvalidRequest, "part %q: %d occlusion masks for %d submeshes", entry.Part.Name, len(entry.Occlusion), entry.Part.SubMeshCount())
		}
	}
	return nil
}
