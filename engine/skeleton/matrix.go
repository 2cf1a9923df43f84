package skeleton

import (
	"github.com/spaghettifunk/anima-skin/engine/core"
	"github.com/spaghettifunk/anima-skin/engine/math"
)

// parentID returns the arena id of the bone's parent, -1 for the root.
// An unknown parent resolves to the root.
func (g *BoneGraph) parentID(id int) int {
	b := &g.bones[id]
	if b.Hash == g.rootHash {
		return -1
	}
	if p, ok := g.index[b.ParentHash]; ok && p != id {
		return p
	}
	if root, ok := g.index[g.rootHash]; ok {
		return root
	}
	return -1
}

// updateMatrix brings the cached world matrix of a bone up to date. The
// ancestor chain is collected first and evaluated root-most first, so deep
// hierarchies never recurse.
func (g *BoneGraph) updateMatrix(id int) {
	var chain [32]int
	pending := chain[:0]
	for cur, steps := id, 0; cur >= 0 && steps <= len(g.bones); steps++ {
		if g.bones[cur].matrixStamp == g.stamp {
			break
		}
		pending = append(pending, cur)
		cur = g.parentID(cur)
	}
	for i := len(pending) - 1; i >= 0; i-- {
		g.calculateMatrix(pending[i])
	}
}

func (g *BoneGraph) calculateMatrix(id int) {
	b := &g.bones[id]
	if p := g.parentID(id); p >= 0 {
		parent := &g.bones[p]
		b.gPosition = b.Current.Position.Transform(parent.world)
		b.gScale = parent.gScale.Mul(b.Current.Scale)
		b.gRotation = parent.gRotation.Mul(b.Current.Rotation)
	} else {
		b.gPosition = b.Current.Position
		b.gRotation = b.Current.Rotation
		b.gScale = b.Current.Scale
	}
	b.world = math.NewMat4TRS(b.gPosition, b.gRotation, b.gScale)
	b.matrixStamp = g.stamp
}

// WorldMatrix returns the local to world matrix of a bone. The value is
// cached until the next pose write or pass.
func (g *BoneGraph) WorldMatrix(hash int32) (math.Mat4, error) {
	id, ok := g.index[hash]
	if !ok {
		return math.Mat4{}, &core.MissingBoneError{Hash: hash}
	}
	g.updateMatrix(id)
	return g.bones[id].world, nil
}

// RelativePosition returns the position of the bone in skeleton space.
func (g *BoneGraph) RelativePosition(hash int32) (math.Vec3, error) {
	id, ok := g.index[hash]
	if !ok {
		return math.Vec3{}, &core.MissingBoneError{Hash: hash}
	}
	g.updateMatrix(id)
	g.bones[id].AccessedFrame = g.frame
	return g.bones[id].gPosition, nil
}

// ForceUpdateMatrices recomputes every world matrix regardless of the cache.
func (g *BoneGraph) ForceUpdateMatrices() {
	g.invalidate()
	for id := range g.bones {
		g.updateMatrix(id)
	}
}
