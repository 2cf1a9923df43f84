package metadata

import (
	"image/color"

	"github.com/pkg/errors"
	"github.com/spaghettifunk/anima-skin/engine/core"
	"github.com/spaghettifunk/anima-skin/engine/math"
)

/** @brief The maximum number of bone influences per vertex. */
const MaxBoneInfluences = 4

/** @brief The number of texture coordinate channels. */
const UVChannelCount = 4

/**
 * @brief Up to four weighted bone influences of a single vertex. Indices
 * address the owning mesh's bone list.
 */
type BoneWeight struct {
	Indices [MaxBoneInfluences]int32
	Weights [MaxBoneInfluences]float32
}

/**
 * @brief The local pose of a bone as authored in a mesh part.
 */
type BoneTransform struct {
	Name       string
	Hash       int32
	ParentHash int32
	Position   math.Vec3
	Rotation   math.Quaternion
	Scale      math.Vec3
}

// NewBoneTransform hashes name and parentName. An empty parentName marks a
// bone without parent.
func NewBoneTransform(name, parentName string, position math.Vec3, rotation math.Quaternion, scale math.Vec3) BoneTransform {
	var parent int32
	if parentName != "" {
		parent = core.StringToHash(parentName)
	}
	return BoneTransform{
		Name:       name,
		Hash:       core.StringToHash(name),
		ParentHash: parent,
		Position:   position,
		Rotation:   rotation,
		Scale:      scale,
	}
}

/**
 * @brief A list of triangle indices. The length is a multiple of 3.
 */
type SubMesh struct {
	Triangles []uint32
}

/**
 * @brief One frame of a blend shape: per vertex deltas reached at Weight,
 * a threshold in [0,100].
 */
type BlendFrame struct {
	Weight        float32
	DeltaVertices []math.Vec3
	DeltaNormals  []math.Vec3
	DeltaTangents []math.Vec3
}

/**
 * @brief A named blend shape with frames ordered by ascending weight.
 */
type BlendShape struct {
	Name   string
	Frames []BlendFrame
}

/**
 * @brief One independently authored piece of a character (body, shirt,
 * hair). Owned by the caller and never modified by a combine pass.
 */
type MeshPart struct {
	Name string

	Vertices []math.Vec3
	Normals  []math.Vec3
	Tangents []math.Vec4
	Colors   []color.RGBA
	UV       [UVChannelCount][]math.Vec2

	BoneWeights []BoneWeight
	// BoneHashes and BindPoses are parallel; BoneWeight indices address them.
	BoneHashes []int32
	BindPoses  []math.Mat4
	// Bones holds the local poses the part was authored against.
	Bones []BoneTransform
	// AnimatedBones must survive as concrete joints when this part is used.
	AnimatedBones []int32

	SubMeshes   []SubMesh
	BlendShapes []BlendShape
}

func (p *MeshPart) VertexCount() int {
	return len(p.Vertices)
}

func (p *MeshPart) SubMeshCount() int {
	return len(p.SubMeshes)
}

// Validate checks the structural invariants a combine pass relies on.
func (p *MeshPart) Validate() error {
	n := len(p.Vertices)
	if n == 0 {
		return errors.Wrapf(core.ErrNoVertices, "part %q", p.Name)
	}
	if len(p.BoneHashes) != len(p.BindPoses) {
		return errors.Wrapf(core.ErrInvalidRequest, "part %q: %d bone hashes but %d bind poses", p.Name, len(p.BoneHashes), len(p.BindPoses))
	}
	if len(p.BoneWeights) != n {
		return errors.Wrapf(core.ErrInvalidRequest, "part %q: %d bone weights for %d vertices", p.Name, len(p.BoneWeights), n)
	}
	for _, channel := range []int{len(p.Normals), len(p.Tangents), len(p.Colors), len(p.UV[0]), len(p.UV[1]), len(p.UV[2]), len(p.UV[3])} {
		if channel != 0 && channel != n {
			return errors.Wrapf(core.ErrInvalidRequest, "part %q: channel length %d does not match %d vertices", p.Name, channel, n)
		}
	}
	bones := int32(len(p.BoneHashes))
	for v, bw := range p.BoneWeights {
		for k := 0; k < MaxBoneInfluences; k++ {
			if bw.Weights[k] == 0 {
				continue
			}
			if bw.Indices[k] < 0 || bw.Indices[k] >= bones {
				return errors.Wrapf(core.ErrInvalidRequest, "part %q: vertex %d references bone %d of %d", p.Name, v, bw.Indices[k], bones)
			}
		}
	}
	for i, sm := range p.SubMeshes {
		if len(sm.Triangles)%3 != 0 {
			return errors.Wrapf(core.ErrInvalidRequest, "part %q: submesh %d has %d indices", p.Name, i, len(sm.Triangles))
		}
		for _, idx := range sm.Triangles {
			if int(idx) >= n {
				return errors.Wrapf(core.ErrInvalidRequest, "part %q: submesh %d index %d out of range", p.Name, i, idx)
			}
		}
	}
	for _, shape := range p.BlendShapes {
		for f, frame := range shape.Frames {
			for _, channel := range []int{len(frame.DeltaVertices), len(frame.DeltaNormals), len(frame.DeltaTangents)} {
				if channel != 0 && channel != n {
					return errors.Wrapf(core.ErrInvalidRequest, "part %q: blend shape %q frame %d has %d deltas for %d vertices", p.Name, shape.Name, f, channel, n)
				}
			}
		}
	}
	return nil
}
