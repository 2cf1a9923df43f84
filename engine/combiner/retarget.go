package combiner

import (
	"github.com/spaghettifunk/anima-skin/engine/math"
	"github.com/spaghettifunk/anima-skin/engine/metadata"
)

/**
 * @brief Moves vertices of one part from its bind space into the bind
 * space of the merged skeleton.
 */
type skinningContext struct {
	composed      []math.Mat4
	targetIndices []int32
}

func newSkinningContext(pb *PartBones) skinningContext {
	return skinningContext{composed: pb.Composed, targetIndices: pb.TargetBoneIndices}
}

// remapWeights rewrites the bone indices of a vertex into merged slots.
func (c *skinningContext) remapWeights(src metadata.BoneWeight) metadata.BoneWeight {
	out := metadata.BoneWeight{Weights: src.Weights}
	for k := 0; k < metadata.MaxBoneInfluences; k++ {
		idx := src.Indices[k]
		if idx >= 0 && int(idx) < len(c.targetIndices) {
			out.Indices[k] = c.targetIndices[idx]
		}
	}
	return out
}

// processVertex blends the position, normal and tangent of a vertex over
// its influences. A vertex without weight is passed through.
func (c *skinningContext) processVertex(bw metadata.BoneWeight, position, normal math.Vec3, tangent math.Vec4) (math.Vec3, math.Vec3, math.Vec4) {
	var p, n, t math.Vec3
	total := float32(0)
	for k := 0; k < metadata.MaxBoneInfluences; k++ {
		w := bw.Weights[k]
		if w == 0 {
			continue
		}
		m := c.composed[bw.Indices[k]]
		p = p.Add(position.Transform(m).MulScalar(w))
		n = n.Add(normal.TransformDirection(m).MulScalar(w))
		t = t.Add(tangent.ToVec3().TransformDirection(m).MulScalar(w))
		total += w
	}
	if total == 0 {
		return position, normal, tangent
	}
	return p, n, t.ToVec4(tangent.W)
}

// processDelta blends a blend shape delta over the influences of a vertex,
// treating it as a direction.
func (c *skinningContext) processDelta(bw metadata.BoneWeight, delta math.Vec3) math.Vec3 {
	var d math.Vec3
	total := float32(0)
	for k := 0; k < metadata.MaxBoneInfluences; k++ {
		w := bw.Weights[k]
		if w == 0 {
			continue
		}
		d = d.Add(delta.TransformDirection(c.composed[bw.Indices[k]]).MulScalar(w))
		total += w
	}
	if total == 0 {
		return delta
	}
	return d
}
