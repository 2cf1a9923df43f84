package combiner

import (
	"testing"

	"github.com/spaghettifunk/anima-skin/engine/core"
	"github.com/spaghettifunk/anima-skin/engine/math"
	"github.com/spaghettifunk/anima-skin/engine/metadata"
	"github.com/spaghettifunk/anima-skin/engine/skeleton"
	"github.com/stretchr/testify/require"
)

const tol = float32(1e-4)

var (
	globalHash = core.StringToHash("Global")
	hipHash    = core.StringToHash("Hips")
	kneeHash   = core.StringToHash("Knee")
	footHash   = core.StringToHash("Foot")
)

// rig is a set of authored bone transforms keyed by name.
type rig map[string]metadata.BoneTransform

func legRig() rig {
	return rig{
		"Global": metadata.NewBoneTransform("Global", "", math.NewVec3Zero(), math.NewQuatIdentity(), math.NewVec3One()),
		"Hips":   metadata.NewBoneTransform("Hips", "Global", math.NewVec3(0, 1, 0), math.NewQuatFromAxisAngle(math.NewVec3(0, 1, 0), math.DegToRad(15), true), math.NewVec3One()),
		"Knee":   metadata.NewBoneTransform("Knee", "Hips", math.NewVec3(0.1, -0.5, 0), math.NewQuatFromAxisAngle(math.NewVec3(1, 0, 0), math.DegToRad(20), true), math.NewVec3One()),
		"Foot":   metadata.NewBoneTransform("Foot", "Knee", math.NewVec3(0, -0.45, 0.05), math.NewQuatIdentity(), math.NewVec3One()),
	}
}

// flatRig places every bone at the origin so every matrix is exactly identity.
func flatRig() rig {
	r := rig{}
	for name, bt := range legRig() {
		parent := ""
		switch name {
		case "Hips":
			parent = "Global"
		case "Knee":
			parent = "Hips"
		case "Foot":
			parent = "Knee"
		}
		r[name] = metadata.NewBoneTransform(bt.Name, parent, math.NewVec3Zero(), math.NewQuatIdentity(), math.NewVec3One())
	}
	return r
}

// bindPoses returns the inverse authoring world matrix of every named bone.
func (r rig) bindPoses(t *testing.T, names []string) []math.Mat4 {
	t.Helper()
	g := skeleton.New("Global")
	g.BeginPass()
	for _, name := range []string{"Global", "Hips", "Knee", "Foot"} {
		g.AddTransform(r[name])
	}
	out := make([]math.Mat4, len(names))
	for i, name := range names {
		w, err := g.WorldMatrix(core.StringToHash(name))
		require.NoError(t, err)
		out[i] = w.Inverse()
	}
	return out
}

// newPart builds a part whose vertex v is fully weighted to
// bones[boneOf(v)], with one triangle per three vertices.
func newPart(t *testing.T, r rig, name string, vertices int, bones []string, boneOf func(v int) int) *metadata.MeshPart {
	t.Helper()
	p := &metadata.MeshPart{
		Name:        name,
		Vertices:    make([]math.Vec3, vertices),
		Normals:     make([]math.Vec3, vertices),
		Tangents:    make([]math.Vec4, vertices),
		BoneWeights: make([]metadata.BoneWeight, vertices),
		BindPoses:   r.bindPoses(t, bones),
	}
	for _, b := range bones {
		p.Bones = append(p.Bones, r[b])
		p.BoneHashes = append(p.BoneHashes, core.StringToHash(b))
	}
	for v := 0; v < vertices; v++ {
		p.Vertices[v] = math.NewVec3(float32(v)*0.01, 1-float32(v)*0.02, float32(v%7)*0.03)
		p.Normals[v] = math.NewVec3(0, 1, 0)
		p.Tangents[v] = math.NewVec4(1, 0, 0, -1)
		p.BoneWeights[v] = metadata.BoneWeight{Indices: [4]int32{int32(boneOf(v))}, Weights: [4]float32{1}}
	}
	tris := make([]uint32, 0, vertices)
	for v := 0; v+2 < vertices; v += 3 {
		tris = append(tris, uint32(v), uint32(v+1), uint32(v+2))
	}
	p.SubMeshes = []metadata.SubMesh{{Triangles: tris}}
	return p
}

func allTo(bone int) func(int) int {
	return func(int) int { return bone }
}

func entry(p *metadata.MeshPart, targets ...int) metadata.PartEntry {
	if len(targets) == 0 {
		targets = []int{0}
	}
	return metadata.PartEntry{Part: p, TargetSubMeshes: targets}
}

func newCombiner() *Combiner {
	cfg := metadata.DefaultCombinerConfig()
	return New(cfg)
}
