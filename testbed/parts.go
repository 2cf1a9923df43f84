package testbed

import (
	"github.com/chewxy/math32"
	"github.com/spaghettifunk/anima-skin/engine/core"
	"github.com/spaghettifunk/anima-skin/engine/math"
	"github.com/spaghettifunk/anima-skin/engine/metadata"
	"github.com/spaghettifunk/anima-skin/engine/skeleton"
)

var legBones = []metadata.BoneTransform{
	metadata.NewBoneTransform("Global", "", math.NewVec3Zero(), math.NewQuatIdentity(), math.NewVec3One()),
	metadata.NewBoneTransform("Hips", "Global", math.NewVec3(0, 1, 0), math.NewQuatIdentity(), math.NewVec3One()),
	metadata.NewBoneTransform("Knee", "Hips", math.NewVec3(0, -0.5, 0), math.NewQuatIdentity(), math.NewVec3One()),
	metadata.NewBoneTransform("Foot", "Knee", math.NewVec3(0, -0.45, 0.05), math.NewQuatIdentity(), math.NewVec3One()),
}

// legPart builds a ring strip of rings*8 vertices running from the hips
// down to the foot, skinned to the nearest leg bone. inflate pushes the
// strip outwards so clothing sits over the body.
func legPart(name string, rings int, inflate float32) *metadata.MeshPart {
	const sides = 8
	n := rings * sides
	p := &metadata.MeshPart{
		Name:        name,
		Vertices:    make([]math.Vec3, 0, n),
		Normals:     make([]math.Vec3, 0, n),
		UV:          [metadata.UVChannelCount][]math.Vec2{make([]math.Vec2, 0, n)},
		BoneWeights: make([]metadata.BoneWeight, 0, n),
		Bones:       legBones,
	}
	for _, b := range legBones {
		p.BoneHashes = append(p.BoneHashes, b.Hash)
	}
	p.BindPoses = bindPoses(legBones)

	radius := 0.1 + inflate
	step := math.NewQuatFromAxisAngle(math.NewVec3Up(), 2*math32.Pi/sides, true)
	for r := 0; r < rings; r++ {
		v := float32(r) / float32(rings-1)
		y := 1 - 0.95*v
		bone := int32(1)
		switch {
		case y < 0.1:
			bone = 3
		case y < 0.55:
			bone = 2
		}
		dir := math.NewVec3(1, 0, 0)
		for s := 0; s < sides; s++ {
			p.Vertices = append(p.Vertices, dir.MulScalar(radius).Add(math.NewVec3(0, y, 0)))
			p.Normals = append(p.Normals, dir)
			p.UV[0] = append(p.UV[0], math.NewVec2(float32(s)/sides, 1-v))
			p.BoneWeights = append(p.BoneWeights, metadata.BoneWeight{Indices: [4]int32{bone}, Weights: [4]float32{1}})
			dir = step.Rotate(dir)
		}
	}

	var tris []uint32
	for r := 0; r+1 < rings; r++ {
		for s := 0; s < sides; s++ {
			a := uint32(r*sides + s)
			b := uint32(r*sides + (s+1)%sides)
			c := a + sides
			d := b + sides
			tris = append(tris, a, c, b, b, c, d)
		}
	}
	p.SubMeshes = []metadata.SubMesh{{Triangles: tris}}
	return p
}

// bindPoses computes the inverse world matrix of every bone in its
// authored pose.
func bindPoses(bones []metadata.BoneTransform) []math.Mat4 {
	g := skeleton.NewWithRoot(bones[0])
	g.BeginPass()
	for _, b := range bones[1:] {
		g.AddTransform(b)
	}
	out := make([]math.Mat4, len(bones))
	for i, b := range bones {
		w, err := g.WorldMatrix(b.Hash)
		if err != nil {
			core.LogError("bind pose of %s: %s", b.Name, err)
			w = math.NewMat4Identity()
		}
		out[i] = w.Inverse()
	}
	return out
}
