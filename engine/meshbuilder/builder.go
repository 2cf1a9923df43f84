package meshbuilder

import (
	"image/color"

	"github.com/google/uuid"
	"github.com/spaghettifunk/anima-skin/engine/math"
	"github.com/spaghettifunk/anima-skin/engine/metadata"
)

// White is the neutral fill of a missing color channel.
var White = color.RGBA{R: 255, G: 255, B: 255, A: 255}

/**
 * @brief The triangle list of one merged submesh. TriangleCount is the
 * sizing total while parts are analyzed and the write cursor once the
 * buffers are prepared.
 */
type SubMeshTriangles struct {
	TriangleCount int
	Triangles     []uint32
}

/**
 * @brief Describes one output blend shape before its frames are pooled.
 */
type BlendShapeLayout struct {
	Name        string
	Weights     []float32
	HasNormals  bool
	HasTangents bool
}

/**
 * @brief Grow-only scratch buffers of the combined mesh. One builder is
 * owned by one character; its buffers are reused by every pass.
 */
type MeshBuilder struct {
	CacheBoneWeights bool

	Channels     metadata.Channels
	VertexCount  int
	SubMeshCount int
	BonesCount   int

	Vertices    []math.Vec3
	Normals     []math.Vec3
	Tangents    []math.Vec4
	Colors      []color.RGBA
	UV          [metadata.UVChannelCount][]math.Vec2
	BoneWeights []metadata.BoneWeight
	BoneHashes  []int32
	BindPoses   []math.Mat4
	SubMeshes   []SubMeshTriangles
	BlendShapes []metadata.BlendShape

	boneWeights map[int][]metadata.BoneWeight
	blendFrames map[string][]metadata.BlendFrame
}

func New(cacheBoneWeights bool) *MeshBuilder {
	return &MeshBuilder{
		CacheBoneWeights: cacheBoneWeights,
		blendFrames:      make(map[string][]metadata.BlendFrame),
	}
}

// Reset clears the counters of the previous pass. Buffers are kept.
func (b *MeshBuilder) Reset() {
	b.Channels = metadata.ChannelNone
	b.VertexCount = 0
	b.BonesCount = 0
	b.BlendShapes = b.BlendShapes[:0]
}

// AddSource accounts for the vertices and channels of a part.
func (b *MeshBuilder) AddSource(part *metadata.MeshPart) {
	n := part.VertexCount()
	b.VertexCount += n
	if len(part.Normals) > 0 {
		b.Channels |= metadata.ChannelNormals
	}
	if len(part.Tangents) > 0 {
		b.Channels |= metadata.ChannelTangents
	}
	if len(part.Colors) > 0 {
		b.Channels |= metadata.ChannelColors
	}
	for i := range part.UV {
		if len(part.UV[i]) > 0 {
			b.Channels |= metadata.ChannelUV(i)
		}
	}
}

func (b *MeshBuilder) PrepareSubMeshCount(count int) {
	b.SubMeshCount = count
	for len(b.SubMeshes) < count {
		b.SubMeshes = append(b.SubMeshes, SubMeshTriangles{})
	}
	for i := range b.SubMeshes {
		b.SubMeshes[i].TriangleCount = 0
	}
}

// AddTriangles adds to the sizing total of a merged submesh.
func (b *MeshBuilder) AddTriangles(subMesh, indices int) {
	b.SubMeshes[subMesh].TriangleCount += indices
}

// PrepareBuffers sizes every buffer for the accounted vertices and turns
// the submesh totals into write cursors.
func (b *MeshBuilder) PrepareBuffers() {
	for i := 0; i < b.SubMeshCount; i++ {
		sm := &b.SubMeshes[i]
		sm.Triangles = Grow(sm.Triangles, sm.TriangleCount)
		sm.TriangleCount = 0
	}

	if cached, ok := b.boneWeights[b.VertexCount]; ok {
		b.BoneWeights = cached
		delete(b.boneWeights, b.VertexCount)
	} else {
		b.BoneWeights = make([]metadata.BoneWeight, b.VertexCount)
	}

	b.Vertices = Grow(b.Vertices, b.VertexCount)
	if b.Channels.Has(metadata.ChannelNormals) {
		b.Normals = Grow(b.Normals, b.VertexCount)
	}
	if b.Channels.Has(metadata.ChannelTangents) {
		b.Tangents = Grow(b.Tangents, b.VertexCount)
	}
	if b.Channels.Has(metadata.ChannelColors) {
		b.Colors = Grow(b.Colors, b.VertexCount)
	}
	for i := range b.UV {
		if b.Channels.Has(metadata.ChannelUV(i)) {
			b.UV[i] = Grow(b.UV[i], b.VertexCount)
		}
	}
}

func (b *MeshBuilder) PrepareBones(count int) {
	b.BonesCount = count
	b.BoneHashes = Grow(b.BoneHashes, count)
	b.BindPoses = Grow(b.BindPoses, count)
}

// PrepareBlendShapes lays out the output blend shapes. Frame buffers are
// pooled by shape name, sized to the vertex count and zeroed.
func (b *MeshBuilder) PrepareBlendShapes(layouts []BlendShapeLayout) {
	b.BlendShapes = Grow(b.BlendShapes, len(layouts))
	if len(layouts) > 0 {
		b.Channels |= metadata.ChannelBlendShapes
	}
	for i, layout := range layouts {
		frames := Grow(b.blendFrames[layout.Name], len(layout.Weights))
		for j := range frames {
			f := &frames[j]
			f.Weight = layout.Weights[j]
			f.DeltaVertices = Grow(f.DeltaVertices, b.VertexCount)
			zero(f.DeltaVertices)
			if layout.HasNormals {
				f.DeltaNormals = Grow(f.DeltaNormals, b.VertexCount)
				zero(f.DeltaNormals)
			} else {
				f.DeltaNormals = f.DeltaNormals[:0]
			}
			if layout.HasTangents {
				f.DeltaTangents = Grow(f.DeltaTangents, b.VertexCount)
				zero(f.DeltaTangents)
			} else {
				f.DeltaTangents = f.DeltaTangents[:0]
			}
		}
		b.blendFrames[layout.Name] = frames
		b.BlendShapes[i] = metadata.BlendShape{Name: layout.Name, Frames: frames}
	}
}

// ReleaseBuffers hands the bone weight array back to the size keyed cache.
func (b *MeshBuilder) ReleaseBuffers() {
	if b.CacheBoneWeights {
		if b.boneWeights == nil {
			b.boneWeights = make(map[int][]metadata.BoneWeight, 50)
		}
		b.boneWeights[b.VertexCount] = b.BoneWeights
	}
	b.BoneWeights = nil
}

// CachedBoneWeights is the number of cached bone weight arrays.
func (b *MeshBuilder) CachedBoneWeights() int {
	return len(b.boneWeights)
}

// CachedBoneWeightEntries is the number of cached bone weight entries.
func (b *MeshBuilder) CachedBoneWeightEntries() int {
	entries := 0
	for size := range b.boneWeights {
		entries += size
	}
	return entries
}

// FillNeutral writes the neutral value of every present channel the part
// does not provide into [offset, offset+count).
func (b *MeshBuilder) FillNeutral(part *metadata.MeshPart, offset, count int) {
	end := offset + count
	if b.Channels.Has(metadata.ChannelNormals) && len(part.Normals) == 0 {
		zero(b.Normals[offset:end])
	}
	if b.Channels.Has(metadata.ChannelTangents) && len(part.Tangents) == 0 {
		zero(b.Tangents[offset:end])
	}
	if b.Channels.Has(metadata.ChannelColors) {
		if len(part.Colors) == 0 {
			fill(b.Colors[offset:end], White)
		} else {
			copy(b.Colors[offset:end], part.Colors)
		}
	}
	for i := range b.UV {
		if !b.Channels.Has(metadata.ChannelUV(i)) {
			continue
		}
		if len(part.UV[i]) == 0 {
			zero(b.UV[i][offset:end])
		} else {
			copy(b.UV[i][offset:end], part.UV[i])
		}
	}
}

// Mesh exposes the prepared buffers as a combined mesh. The slices alias
// the builder and stay valid until the next pass.
func (b *MeshBuilder) Mesh(name string, passID uuid.UUID) *metadata.CombinedMesh {
	mesh := &metadata.CombinedMesh{
		Name:        name,
		PassID:      passID,
		VertexCount: b.VertexCount,
		Channels:    b.Channels,
		Vertices:    b.Vertices[:b.VertexCount],
		BoneWeights: b.BoneWeights,
		BoneHashes:  b.BoneHashes[:b.BonesCount],
		BindPoses:   b.BindPoses[:b.BonesCount],
		SubMeshes:   make([]metadata.SubMesh, b.SubMeshCount),
		BlendShapes: b.BlendShapes,
	}
	if b.Channels.Has(metadata.ChannelNormals) {
		mesh.Normals = b.Normals[:b.VertexCount]
	}
	if b.Channels.Has(metadata.ChannelTangents) {
		mesh.Tangents = b.Tangents[:b.VertexCount]
	}
	if b.Channels.Has(metadata.ChannelColors) {
		mesh.Colors = b.Colors[:b.VertexCount]
	}
	for i := range b.UV {
		if b.Channels.Has(metadata.ChannelUV(i)) {
			mesh.UV[i] = b.UV[i][:b.VertexCount]
		}
	}
	for i := 0; i < b.SubMeshCount; i++ {
		sm := &b.SubMeshes[i]
		mesh.SubMeshes[i].Triangles = sm.Triangles[:sm.TriangleCount]
	}
	return mesh
}
