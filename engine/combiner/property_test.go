package combiner

import (
	"fmt"
	"testing"

	"github.com/spaghettifunk/anima-skin/engine/core"
	"github.com/spaghettifunk/anima-skin/engine/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

// randomPart builds a part on the leg rig with 1-4 influences per vertex,
// up to three submeshes and random occlusion masks.
func randomPart(t *testing.T, rnd *rand.Rand, name string) (metadata.PartEntry, int) {
	bones := legBones[:1+rnd.Intn(len(legBones))]
	vertices := 3 + rnd.Intn(60)
	p := newPart(t, legRig(), name, vertices, bones, allTo(0))
	for v := range p.BoneWeights {
		var bw metadata.BoneWeight
		influences := 1 + rnd.Intn(metadata.MaxBoneInfluences)
		for k := 0; k < influences; k++ {
			bw.Indices[k] = int32(rnd.Intn(len(bones)))
			bw.Weights[k] = 1 / float32(influences)
		}
		p.BoneWeights[v] = bw
	}

	p.SubMeshes = p.SubMeshes[:0]
	e := metadata.PartEntry{Part: p}
	before := 0
	for s := 0; s < 1+rnd.Intn(3); s++ {
		tris := make([]uint32, 3*rnd.Intn(50))
		for i := range tris {
			tris[i] = uint32(rnd.Intn(vertices))
		}
		p.SubMeshes = append(p.SubMeshes, metadata.SubMesh{Triangles: tris})
		target := rnd.Intn(4) - 1
		e.TargetSubMeshes = append(e.TargetSubMeshes, target)

		var mask []uint32
		if rnd.Intn(2) == 0 {
			mask = make([]uint32, rnd.Intn(3))
			for w := range mask {
				mask[w] = rnd.Uint32()
			}
		}
		e.Occlusion = append(e.Occlusion, mask)
		if target >= 0 {
			before += len(tris)
		}
	}
	return e, before
}

func TestRandomPassesKeepMeshInvariants(t *testing.T) {
	c := newCombiner()
	for seed := uint64(1); seed <= 25; seed++ {
		t.Run(fmt.Sprintf("seed %d", seed), func(t *testing.T) {
			rnd := rand.New(rand.NewSource(seed))
			req := &metadata.CombineRequest{}
			vertices, indices := 0, 0
			for i := 0; i < 1+rnd.Intn(4); i++ {
				e, before := randomPart(t, rnd, fmt.Sprintf("part%d", i))
				req.Parts = append(req.Parts, e)
				vertices += e.Part.VertexCount()
				indices += before
			}
			for _, name := range legBones[1:] {
				if rnd.Intn(2) == 0 {
					req.PreservedBones = append(req.PreservedBones, core.StringToHash(name))
				}
			}

			res, err := c.Combine(req)
			require.NoError(t, err)
			mesh := res.Mesh

			assert.Equal(t, vertices, mesh.VertexCount)
			assert.Len(t, mesh.Vertices, vertices)
			assert.Len(t, mesh.Normals, vertices)
			assert.Len(t, mesh.Tangents, vertices)
			assert.Len(t, mesh.BoneWeights, vertices)
			assert.Len(t, mesh.BindPoses, mesh.BoneCount())
			assert.LessOrEqual(t, mesh.TriangleCount()*3, indices, "occlusion never adds triangles")

			for s, sm := range mesh.SubMeshes {
				assert.Zero(t, len(sm.Triangles)%3, "submesh %d", s)
				for _, idx := range sm.Triangles {
					assert.Less(t, int(idx), vertices)
				}
			}
			for v, bw := range mesh.BoneWeights {
				for k := 0; k < metadata.MaxBoneInfluences; k++ {
					if bw.Weights[k] != 0 {
						assert.Less(t, int(bw.Indices[k]), mesh.BoneCount(), "vertex %d", v)
					}
				}
			}

			g := c.Graph()
			assert.False(t, g.Updating())
			for _, hash := range g.Hashes() {
				bone, ok := g.Bone(hash)
				require.True(t, ok)
				assert.True(t, bone.Preserved())
				if hash != g.RootHash() {
					assert.True(t, g.HasBone(bone.ParentHash), "bone %d has a dangling parent", hash)
				}
			}
			assert.Equal(t, StateIdle, c.State())
		})
	}
}
