package combiner

import (
	"errors"
	"image/color"
	"testing"

	"github.com/google/uuid"
	"github.com/spaghettifunk/anima-skin/engine/core"
	"github.com/spaghettifunk/anima-skin/engine/math"
	"github.com/spaghettifunk/anima-skin/engine/metadata"
	"github.com/spaghettifunk/anima-skin/engine/skeleton"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var legBones = []string{"Global", "Hips", "Knee", "Foot"}

func TestSinglePartIdentityIsExact(t *testing.T) {
	c := newCombiner()
	p := newPart(t, flatRig(), "body", 30, legBones, func(v int) int { return v % 4 })
	req := &metadata.CombineRequest{
		Parts:          []metadata.PartEntry{entry(p)},
		PreservedBones: []int32{hipHash, kneeHash, footHash},
	}

	res, err := c.Combine(req)
	require.NoError(t, err)
	for i, m := range c.merger.Parts[0].ResolvedBoneMatrices {
		assert.Equal(t, math.NewMat4Identity(), m, "resolved matrix %d", i)
	}
	assert.Equal(t, p.Vertices, res.Mesh.Vertices)
	assert.Equal(t, p.Normals, res.Mesh.Normals)
	assert.Equal(t, p.Tangents, res.Mesh.Tangents)
	assert.Equal(t, 4, res.Mesh.BoneCount())
}

func TestSinglePartPosedSkeletonKeepsPositions(t *testing.T) {
	c := newCombiner()
	p := newPart(t, legRig(), "body", 30, legBones, func(v int) int { return v % 4 })
	req := &metadata.CombineRequest{
		Parts:          []metadata.PartEntry{entry(p)},
		PreservedBones: []int32{hipHash, kneeHash, footHash},
	}

	res, err := c.Combine(req)
	require.NoError(t, err)
	for i, m := range c.merger.Parts[0].ResolvedBoneMatrices {
		assert.True(t, m.Compare(math.NewMat4Identity(), tol), "resolved matrix %d = %v", i, m.Data)
	}
	for v := range p.Vertices {
		assert.True(t, res.Mesh.Vertices[v].Compare(p.Vertices[v], tol), "vertex %d: %v != %v", v, res.Mesh.Vertices[v], p.Vertices[v])
	}
}

func TestScenarioKneeCollapsesIntoHip(t *testing.T) {
	r := legRig()
	a := newPart(t, r, "body", 100, []string{"Global", "Hips"}, func(v int) int { return v % 2 })
	b := newPart(t, r, "trousers", 50, []string{"Global", "Hips", "Knee"}, func(v int) int { return v % 3 })

	c := newCombiner()
	res, err := c.Combine(&metadata.CombineRequest{
		Parts:          []metadata.PartEntry{entry(a), entry(b)},
		PreservedBones: []int32{hipHash},
	})
	require.NoError(t, err)

	mesh := res.Mesh
	assert.Equal(t, 2, mesh.BoneCount())
	assert.Equal(t, []int32{globalHash, hipHash}, mesh.BoneHashes)
	assert.Equal(t, 150, mesh.VertexCount)
	assert.Len(t, mesh.BoneWeights, 150)

	for v := 0; v < 50; v++ {
		if v%3 != 2 {
			continue
		}
		got := mesh.BoneWeights[100+v]
		assert.Equal(t, int32(1), got.Indices[0], "knee vertex %d must use the hip slot", v)
		assert.True(t, mesh.Vertices[100+v].Compare(b.Vertices[v], tol), "vertex %d moved: %v", v, mesh.Vertices[100+v])
	}

	g := c.Graph()
	assert.False(t, g.Updating())
	assert.False(t, g.HasBone(kneeHash))
	assert.True(t, g.BoneExists(hipHash))
	require.Len(t, res.Joints, 2)
	assert.Equal(t, hipHash, res.Joints[1].Hash)
}

func TestBindPoseTolerance(t *testing.T) {
	r := legRig()
	cases := []struct {
		name    string
		offset  float32
		bones   int
		hipSlot int32
	}{
		{name: "within tolerance", offset: 5e-5, bones: 2, hipSlot: 1},
		{name: "beyond tolerance", offset: 1e-3, bones: 3, hipSlot: 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := newPart(t, r, "a", 6, []string{"Global", "Hips"}, allTo(1))
			b := newPart(t, r, "b", 6, []string{"Global", "Hips"}, allTo(1))
			b.BindPoses[1].Data[12] += tc.offset

			c := newCombiner()
			res, err := c.Combine(&metadata.CombineRequest{
				Parts:          []metadata.PartEntry{entry(a), entry(b)},
				PreservedBones: []int32{hipHash},
			})
			require.NoError(t, err)
			assert.Equal(t, tc.bones, res.Mesh.BoneCount())
			assert.Equal(t, int32(1), res.Mesh.BoneWeights[0].Indices[0])
			assert.Equal(t, tc.hipSlot, res.Mesh.BoneWeights[6].Indices[0])
			if tc.bones == 3 {
				assert.Equal(t, []int32{globalHash, hipHash, hipHash}, res.Mesh.BoneHashes)
			}
		})
	}
}

func TestVertexCountIsSumOfParts(t *testing.T) {
	r := legRig()
	c := newCombiner()
	res, err := c.Combine(&metadata.CombineRequest{
		Parts: []metadata.PartEntry{
			entry(newPart(t, r, "a", 12, legBones, allTo(0))),
			entry(newPart(t, r, "b", 7, legBones, allTo(1))),
			entry(newPart(t, r, "c", 3, legBones, allTo(2))),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 22, res.Mesh.VertexCount)
	assert.Len(t, res.Mesh.Vertices, 22)
	assert.Len(t, res.Mesh.Normals, 22)
	require.Len(t, res.Mesh.SubMeshes, 1)
	assert.Len(t, res.Mesh.SubMeshes[0].Triangles, 12+6+3)
	// second part's indices are shifted past the first part
	assert.Equal(t, uint32(12), res.Mesh.SubMeshes[0].Triangles[12])
}

func occlusionRequest(t *testing.T, mask []uint32) (*metadata.CombineRequest, *metadata.MeshPart) {
	r := flatRig()
	first := newPart(t, r, "body", 6, legBones, allTo(0))
	second := newPart(t, r, "shirt", 12, legBones, allTo(0))
	e := entry(second, 1)
	e.Occlusion = [][]uint32{mask}
	return &metadata.CombineRequest{Parts: []metadata.PartEntry{entry(first, 0), e}}, second
}

func TestOcclusionAllZeroDropsEverything(t *testing.T) {
	req, _ := occlusionRequest(t, []uint32{0})
	res, err := newCombiner().Combine(req)
	require.NoError(t, err)
	require.Len(t, res.Mesh.SubMeshes, 2)
	assert.Len(t, res.Mesh.SubMeshes[0].Triangles, 6)
	assert.Empty(t, res.Mesh.SubMeshes[1].Triangles)
}

func TestOcclusionAllOnesKeepsEverything(t *testing.T) {
	req, part := occlusionRequest(t, []uint32{0xFFFFFFFF})
	res, err := newCombiner().Combine(req)
	require.NoError(t, err)
	want := make([]uint32, len(part.SubMeshes[0].Triangles))
	for i, idx := range part.SubMeshes[0].Triangles {
		want[i] = idx + 6
	}
	assert.Equal(t, want, res.Mesh.SubMeshes[1].Triangles)
}

func TestOcclusionPartialMask(t *testing.T) {
	req, _ := occlusionRequest(t, []uint32{0b0101})
	res, err := newCombiner().Combine(req)
	require.NoError(t, err)
	assert.Equal(t, []uint32{6, 7, 8, 12, 13, 14}, res.Mesh.SubMeshes[1].Triangles)
}

func TestDroppedSubMesh(t *testing.T) {
	p := newPart(t, flatRig(), "body", 6, legBones, allTo(0))
	res, err := newCombiner().Combine(&metadata.CombineRequest{Parts: []metadata.PartEntry{entry(p, -1)}})
	require.NoError(t, err)
	assert.Empty(t, res.Mesh.SubMeshes)
	assert.Equal(t, 6, res.Mesh.VertexCount)
}

func shapePart(t *testing.T, name string, vertices int, frames ...float32) *metadata.MeshPart {
	p := newPart(t, flatRig(), name, vertices, legBones, allTo(0))
	shape := metadata.BlendShape{Name: "smile"}
	for f, w := range frames {
		frame := metadata.BlendFrame{Weight: w, DeltaVertices: make([]math.Vec3, vertices)}
		for v := range frame.DeltaVertices {
			frame.DeltaVertices[v] = math.NewVec3(1, 2, 3).MulScalar(float32(f + 1))
		}
		shape.Frames = append(shape.Frames, frame)
	}
	p.BlendShapes = []metadata.BlendShape{shape}
	return p
}

func bakePlan(value float32) *metadata.BlendShapeBakePlan {
	plan := metadata.NewBlendShapeBakePlan()
	plan.Shapes["smile"] = metadata.BlendShapeSetting{Baked: true, Value: value}
	return plan
}

func TestBakeAtZeroLeavesVerticesUnchanged(t *testing.T) {
	p := shapePart(t, "face", 6, 100)
	res, err := newCombiner().Combine(&metadata.CombineRequest{Parts: []metadata.PartEntry{entry(p)}, BlendShapes: bakePlan(0)})
	require.NoError(t, err)
	assert.Equal(t, p.Vertices, res.Mesh.Vertices)
	assert.Empty(t, res.Mesh.BlendShapes)
}

func TestBakeAtOneAddsFrameOnce(t *testing.T) {
	p := shapePart(t, "face", 6, 100)
	res, err := newCombiner().Combine(&metadata.CombineRequest{Parts: []metadata.PartEntry{entry(p)}, BlendShapes: bakePlan(1)})
	require.NoError(t, err)
	for v := range p.Vertices {
		assert.Equal(t, p.Vertices[v].Add(math.NewVec3(1, 2, 3)), res.Mesh.Vertices[v])
	}
	assert.Empty(t, res.Mesh.BlendShapes)
	// source part is untouched
	assert.Equal(t, math.NewVec3(0, 1, 0), p.Vertices[0])
}

func TestBakeInterpolatesBetweenFrames(t *testing.T) {
	p := shapePart(t, "face", 3, 50, 100)
	res, err := newCombiner().Combine(&metadata.CombineRequest{Parts: []metadata.PartEntry{entry(p)}, BlendShapes: bakePlan(0.75)})
	require.NoError(t, err)
	// halfway between (1,2,3) and (2,4,6)
	want := p.Vertices[1].Add(math.NewVec3(1.5, 3, 4.5))
	assert.True(t, res.Mesh.Vertices[1].Compare(want, 1e-5), "got %v", res.Mesh.Vertices[1])
}

func TestBlendFrames(t *testing.T) {
	frames := []metadata.BlendFrame{{Weight: 40}, {Weight: 80}}
	cases := []struct {
		weight float32
		want   frameBlend
	}{
		{weight: 20, want: frameBlend{Frame: 0, FrameWeight: 0.5, Prev: -1}},
		{weight: 40, want: frameBlend{Frame: 0, FrameWeight: 1, Prev: -1}},
		{weight: 60, want: frameBlend{Frame: 1, FrameWeight: 0.5, Prev: 0, PrevWeight: 0.5}},
		{weight: 80, want: frameBlend{Frame: 1, FrameWeight: 1, Prev: 0, PrevWeight: 0}},
		{weight: 120, want: frameBlend{Frame: 1, FrameWeight: 1.5, Prev: -1}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, blendFrames(frames, tc.weight), "weight %v", tc.weight)
	}
}

func TestDynamicBlendShapesAreRetargeted(t *testing.T) {
	a := shapePart(t, "face", 6, 50, 100)
	b := shapePart(t, "beard", 3, 50, 100)
	res, err := newCombiner().Combine(&metadata.CombineRequest{Parts: []metadata.PartEntry{entry(a), entry(b)}})
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
	assert.True(t, res.Mesh.Channels.Has(metadata.ChannelBlendShapes))

	require.Len(t, res.Mesh.BlendShapes, 1)
	shape := res.Mesh.BlendShapes[0]
	assert.Equal(t, "smile", shape.Name)
	require.Len(t, shape.Frames, 2)
	assert.Equal(t, float32(100), shape.Frames[1].Weight)
	assert.Len(t, shape.Frames[1].DeltaVertices, 9)
	assert.Equal(t, math.NewVec3(2, 4, 6), shape.Frames[1].DeltaVertices[0])
	assert.Equal(t, math.NewVec3(2, 4, 6), shape.Frames[1].DeltaVertices[8])
	assert.Equal(t, a.Vertices, res.Mesh.Vertices[:6], "dynamic shapes do not move base vertices")
}

func TestFrameCountMismatchDegradesShape(t *testing.T) {
	a := shapePart(t, "face", 6, 50, 100)
	b := shapePart(t, "beard", 3, 100)
	res, err := newCombiner().Combine(&metadata.CombineRequest{Parts: []metadata.PartEntry{entry(a), entry(b)}})
	require.NoError(t, err)

	require.Len(t, res.Warnings, 1)
	assert.ErrorIs(t, res.Warnings[0], core.ErrInvalidMeshData)
	var invalid *core.InvalidMeshDataError
	require.True(t, errors.As(res.Warnings[0], &invalid))
	assert.Equal(t, "beard", invalid.Part)
	assert.Equal(t, 2, invalid.Expected)
	assert.Equal(t, 1, invalid.Got)

	frame := res.Mesh.BlendShapes[0].Frames[0]
	assert.Equal(t, math.NewVec3(1, 2, 3), frame.DeltaVertices[5])
	assert.Equal(t, math.Vec3{}, frame.DeltaVertices[6])
}

func TestIgnorePlanDropsDynamicShapes(t *testing.T) {
	a := shapePart(t, "face", 6, 100)
	plan := metadata.NewBlendShapeBakePlan()
	plan.Ignore = true
	res, err := newCombiner().Combine(&metadata.CombineRequest{Parts: []metadata.PartEntry{entry(a)}, BlendShapes: plan})
	require.NoError(t, err)
	assert.Empty(t, res.Mesh.BlendShapes)
	assert.Nil(t, res.Mesh.BlendShapeWeights)
}

func TestBlendShapeWeights(t *testing.T) {
	plan := metadata.NewBlendShapeBakePlan()
	plan.Shapes["blink"] = metadata.BlendShapeSetting{Value: 0.5}
	plan.Shapes["smile"] = metadata.BlendShapeSetting{Baked: true, Value: 1}
	plan.Shapes["frown"] = metadata.BlendShapeSetting{Value: 1}
	shapes := []metadata.BlendShape{{Name: "blink"}}

	assert.Equal(t, map[string]float32{"blink": 50}, blendShapeWeights(plan, shapes))
	plan.LoadAll = true
	assert.Equal(t, map[string]float32{"blink": 50, "smile": 100}, blendShapeWeights(plan, shapes))
	assert.Nil(t, blendShapeWeights(nil, shapes))
}

func TestAtlasRemap(t *testing.T) {
	r := flatRig()
	a := newPart(t, r, "body", 3, legBones, allTo(0))
	a.UV[0] = []math.Vec2{{X: 0.5, Y: 0.5}, {X: 0, Y: 0}, {X: 1, Y: 1}}
	b := newPart(t, r, "hair", 3, legBones, allTo(0))
	b.UV[0] = []math.Vec2{{X: 0.5, Y: 0.5}, {X: 0, Y: 0}, {X: 1, Y: 1}}

	ea := entry(a)
	ea.AtlasRegion = &metadata.AtlasRegion{X: 0, Y: 512, Width: 256, Height: 256}
	eb := entry(b)
	eb.AtlasRegion = &metadata.AtlasRegion{X: 10, Y: 10}

	res, err := newCombiner().Combine(&metadata.CombineRequest{Parts: []metadata.PartEntry{ea, eb}, AtlasResolution: 1024})
	require.NoError(t, err)
	uv := res.Mesh.UV[0]
	assert.Equal(t, math.Vec2{X: 0.125, Y: 0.625}, uv[0])
	assert.Equal(t, math.Vec2{X: 0, Y: 0.5}, uv[1])
	assert.Equal(t, math.Vec2{X: 0.25, Y: 0.75}, uv[2])
	assert.Equal(t, b.UV[0], uv[3:], "empty region leaves coordinates alone")
	assert.Equal(t, math.Vec2{X: 0.5, Y: 0.5}, a.UV[0][0], "source part is untouched")
}

func TestMissingChannelsGetNeutralFill(t *testing.T) {
	r := flatRig()
	a := newPart(t, r, "body", 3, legBones, allTo(0))
	a.Colors = []color.RGBA{{R: 200, A: 255}, {R: 200, A: 255}, {R: 200, A: 255}}
	b := newPart(t, r, "hair", 3, legBones, allTo(0))
	b.Normals = nil
	b.Tangents = nil

	res, err := newCombiner().Combine(&metadata.CombineRequest{Parts: []metadata.PartEntry{entry(a), entry(b)}})
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, res.Mesh.Colors[4])
	assert.Equal(t, color.RGBA{R: 200, A: 255}, res.Mesh.Colors[0])
	assert.Equal(t, math.Vec3{}, res.Mesh.Normals[4])
	assert.Equal(t, math.Vec4{}, res.Mesh.Tangents[4])
	assert.Len(t, res.Mesh.Colors, 6)
}

func TestBoundsCoverVertices(t *testing.T) {
	p := newPart(t, flatRig(), "body", 9, legBones, allTo(0))
	res, err := newCombiner().Combine(&metadata.CombineRequest{Parts: []metadata.PartEntry{entry(p)}})
	require.NoError(t, err)
	assert.Equal(t, math.BoundsFromPoints(p.Vertices), res.Mesh.Bounds)
}

func TestBoneWeightsReusedAcrossPasses(t *testing.T) {
	c := newCombiner()
	p := newPart(t, legRig(), "body", 12, legBones, allTo(1))
	req := &metadata.CombineRequest{Parts: []metadata.PartEntry{entry(p)}}

	first, err := c.Combine(req)
	require.NoError(t, err)
	weights := &first.Mesh.BoneWeights[0]
	assert.Equal(t, 1, c.CachedBoneWeights())

	second, err := c.Combine(req)
	require.NoError(t, err)
	assert.Same(t, weights, &second.Mesh.BoneWeights[0])
	assert.Equal(t, 12, c.CachedBoneWeightEntries())
	assert.Equal(t, uint64(2), c.Passes())
}

func TestCloneDetachesFromNextPass(t *testing.T) {
	c := newCombiner()
	p := newPart(t, flatRig(), "body", 6, legBones, allTo(0))
	req := &metadata.CombineRequest{Parts: []metadata.PartEntry{entry(p)}}
	res, err := c.Combine(req)
	require.NoError(t, err)
	kept := res.Mesh.Clone()

	p.Vertices[0] = math.NewVec3(9, 9, 9)
	_, err = c.Combine(req)
	require.NoError(t, err)
	assert.Equal(t, math.NewVec3(9, 9, 9), res.Mesh.Vertices[0], "result aliases the builder")
	assert.Equal(t, math.NewVec3(0, 1, 0), kept.Vertices[0])
	assert.NotEqual(t, uuid.Nil, res.Mesh.PassID)
}

func TestModifierMovesCollapsedBone(t *testing.T) {
	c := newCombiner()
	var calls int
	c.AddModifier(ModifierFunc("longer thigh", func(g *skeleton.BoneGraph) error {
		calls++
		assert.Equal(t, StateMergingSkeleton, c.State())
		return g.SetPositionRelative(kneeHash, math.NewVec3(0, 0.2, 0), 1)
	}))
	p := newPart(t, legRig(), "trousers", 6, []string{"Global", "Hips", "Knee"}, allTo(2))
	res, err := c.Combine(&metadata.CombineRequest{Parts: []metadata.PartEntry{entry(p)}, PreservedBones: []int32{hipHash}})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	// the moved knee no longer matches the hip bind pose
	mesh := res.Mesh
	require.Equal(t, []int32{globalHash, hipHash, hipHash}, mesh.BoneHashes)
	hip, err := c.Graph().WorldMatrix(hipHash)
	require.NoError(t, err)
	for v := range p.Vertices {
		require.Equal(t, int32(2), mesh.BoneWeights[v].Indices[0])
		skinned := mesh.Vertices[v].Transform(mesh.BindPoses[2]).Transform(hip)
		want := p.Vertices[v].Add(math.NewVec3(0, 0.2, 0))
		assert.True(t, skinned.Compare(want, tol), "vertex %d: %v != %v", v, skinned, want)
	}
}

func TestModifierMovesPreservedBone(t *testing.T) {
	c := newCombiner()
	c.AddModifier(ModifierFunc("taller", func(g *skeleton.BoneGraph) error {
		return g.SetPositionRelative(hipHash, math.NewVec3(0, 0.2, 0), 1)
	}))
	p := newPart(t, legRig(), "body", 9, []string{"Global", "Hips"}, allTo(1))
	res, err := c.Combine(&metadata.CombineRequest{Parts: []metadata.PartEntry{entry(p)}, PreservedBones: []int32{hipHash}})
	require.NoError(t, err)

	mesh := res.Mesh
	require.Equal(t, []int32{globalHash, hipHash}, mesh.BoneHashes)
	for v := range p.Vertices {
		want := p.Vertices[v].Add(math.NewVec3(0, 0.2, 0))
		assert.True(t, mesh.Vertices[v].Compare(want, tol), "vertex %d: %v != %v", v, mesh.Vertices[v], want)
	}

	g := c.Graph()
	root, err := g.WorldMatrix(g.RootHash())
	require.NoError(t, err)
	hip, err := g.WorldMatrix(hipHash)
	require.NoError(t, err)
	want := root.Mul(hip.Inverse())
	assert.True(t, mesh.BindPoses[1].Compare(want, tol), "bind pose %v != %v", mesh.BindPoses[1].Data, want.Data)
	assert.False(t, mesh.BindPoses[1].Compare(p.BindPoses[1], tol))

	// the combined mesh skinned by the current skeleton stays where it was baked
	for v := range p.Vertices {
		skinned := mesh.Vertices[v].Transform(mesh.BindPoses[1]).Transform(hip)
		assert.True(t, skinned.Compare(mesh.Vertices[v], tol), "vertex %d: %v", v, skinned)
	}
}

func TestReentrantCombineIsRejected(t *testing.T) {
	c := newCombiner()
	p := newPart(t, flatRig(), "body", 3, legBones, allTo(0))
	req := &metadata.CombineRequest{Parts: []metadata.PartEntry{entry(p)}}
	c.AddModifier(ModifierFunc("reenter", func(*skeleton.BoneGraph) error {
		_, err := c.Combine(req)
		return err
	}))

	_, err := c.Combine(req)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrPassInProgress)
	assert.Equal(t, StateIdle, c.State())
	assert.False(t, c.Graph().Updating(), "failed pass must still be closed")
}

func TestModifierMissingBoneIsFatal(t *testing.T) {
	c := newCombiner()
	missing := core.StringToHash("Tail")
	c.AddModifier(ModifierFunc("tail", func(g *skeleton.BoneGraph) error {
		return g.Set(missing, math.NewVec3Zero(), math.NewVec3One(), math.NewQuatIdentity())
	}))
	p := newPart(t, flatRig(), "body", 3, legBones, allTo(0))
	_, err := c.Combine(&metadata.CombineRequest{Parts: []metadata.PartEntry{entry(p)}})

	var mb *core.MissingBoneError
	require.True(t, errors.As(err, &mb))
	assert.Equal(t, missing, mb.Hash)
	assert.Equal(t, StateIdle, c.State())
}

func TestInvalidRequests(t *testing.T) {
	c := newCombiner()
	_, err := c.Combine(nil)
	assert.ErrorIs(t, err, core.ErrInvalidRequest)

	empty := &metadata.MeshPart{Name: "empty"}
	_, err = c.Combine(&metadata.CombineRequest{Parts: []metadata.PartEntry{{Part: empty}}})
	assert.ErrorIs(t, err, core.ErrNoVertices)

	p := newPart(t, flatRig(), "body", 3, legBones, allTo(0))
	p.BindPoses = p.BindPoses[:2]
	_, err = c.Combine(&metadata.CombineRequest{Parts: []metadata.PartEntry{entry(p)}})
	assert.ErrorIs(t, err, core.ErrInvalidRequest)

	q := newPart(t, flatRig(), "body", 3, legBones, allTo(0))
	_, err = c.Combine(&metadata.CombineRequest{Parts: []metadata.PartEntry{entry(q, 0, 1)}})
	assert.ErrorIs(t, err, core.ErrInvalidRequest)
	assert.Equal(t, StateIdle, c.State())
}

func TestEmptyRequest(t *testing.T) {
	res, err := newCombiner().Combine(&metadata.CombineRequest{})
	require.NoError(t, err)
	assert.Zero(t, res.Mesh.VertexCount)
	assert.Empty(t, res.Mesh.SubMeshes)
	require.Len(t, res.Joints, 1)
	assert.Equal(t, globalHash, res.Joints[0].Hash)
}
