package metadata

import (
	"image/color"

	"github.com/google/uuid"
	"github.com/spaghettifunk/anima-skin/engine/math"
)

// Channels flags which optional vertex attributes a mesh carries.
type Channels uint16

const (
	ChannelNone    Channels = 0
	ChannelNormals Channels = 1 << iota
	ChannelTangents
	ChannelColors
	ChannelUV0
	ChannelUV1
	ChannelUV2
	ChannelUV3
	ChannelBlendShapes
)

// ChannelUV returns the flag of texture coordinate channel i.
func ChannelUV(i int) Channels {
	return ChannelUV0 << i
}

func (c Channels) Has(flag Channels) bool {
	return c&flag != 0
}

/**
 * @brief A surviving preserved bone, expressed relative to its nearest
 * preserved ancestor. Handed to animation retargeting.
 */
type Joint struct {
	Name       string
	Hash       int32
	ParentHash int32
	Position   math.Vec3
	Rotation   math.Quaternion
	Scale      math.Vec3
}

/**
 * @brief The output of a combine pass. Slices alias pooled storage of the
 * combiner and stay valid until the next pass; use Clone to keep them.
 */
type CombinedMesh struct {
	Name   string
	PassID uuid.UUID

	VertexCount int
	Channels    Channels

	Vertices []math.Vec3
	Normals  []math.Vec3
	Tangents []math.Vec4
	Colors   []color.RGBA
	UV       [UVChannelCount][]math.Vec2

	BoneWeights []BoneWeight
	BoneHashes  []int32
	BindPoses   []math.Mat4

	SubMeshes   []SubMesh
	BlendShapes []BlendShape
	// BlendShapeWeights holds the 0..100 weight to apply per shape name.
	BlendShapeWeights map[string]float32

	Bounds math.Bounds
	Joints []Joint
}

func (m *CombinedMesh) BoneCount() int {
	return len(m.BoneHashes)
}

func (m *CombinedMesh) TriangleCount() int {
	count := 0
	for _, sm := range m.SubMeshes {
		count += len(sm.Triangles) / 3
	}
	return count
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}

// Clone returns a deep copy that no longer shares storage with the combiner.
func (m *CombinedMesh) Clone() *CombinedMesh {
	out := *m
	out.Vertices = cloneSlice(m.Vertices)
	out.Normals = cloneSlice(m.Normals)
	out.Tangents = cloneSlice(m.Tangents)
	out.Colors = cloneSlice(m.Colors)
	for i := range m.UV {
		out.UV[i] = cloneSlice(m.UV[i])
	}
	out.BoneWeights = cloneSlice(m.BoneWeights)
	out.BoneHashes = cloneSlice(m.BoneHashes)
	out.BindPoses = cloneSlice(m.BindPoses)
	out.SubMeshes = make([]SubMesh, len(m.SubMeshes))
	for i, sm := range m.SubMeshes {
		out.SubMeshes[i].Triangles = cloneSlice(sm.Triangles)
	}
	out.BlendShapes = make([]BlendShape, len(m.BlendShapes))
	for i, shape := range m.BlendShapes {
		out.BlendShapes[i].Name = shape.Name
		out.BlendShapes[i].Frames = make([]BlendFrame, len(shape.Frames))
		for j, frame := range shape.Frames {
			out.BlendShapes[i].Frames[j] = BlendFrame{
				Weight:        frame.Weight,
				DeltaVertices: cloneSlice(frame.DeltaVertices),
				DeltaNormals:  cloneSlice(frame.DeltaNormals),
				DeltaTangents: cloneSlice(frame.DeltaTangents),
			}
		}
	}
	if m.BlendShapeWeights != nil {
		out.BlendShapeWeights = make(map[string]float32, len(m.BlendShapeWeights))
		for k, v := range m.BlendShapeWeights {
			out.BlendShapeWeights[k] = v
		}
	}
	out.Joints = cloneSlice(m.Joints)
	return &out
}
