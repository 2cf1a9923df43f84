package combiner

import (
	"github.com/spaghettifunk/anima-skin/engine/core"
	"github.com/spaghettifunk/anima-skin/engine/math"
	"github.com/spaghettifunk/anima-skin/engine/meshbuilder"
	"github.com/spaghettifunk/anima-skin/engine/metadata"
)

/**
 * @brief The frames to mix for a baked weight: Frame scaled by
 * FrameWeight, plus Prev scaled by PrevWeight when Prev >= 0.
 */
type frameBlend struct {
	Frame       int
	FrameWeight float32
	Prev        int
	PrevWeight  float32
}

// blendFrames locates weight (0..100) among the frame thresholds. Past the
// last frame the last frame is extrapolated; below the first frame the
// first frame is scaled from zero.
func blendFrames(frames []metadata.BlendFrame, weight float32) frameBlend {
	idx := 0
	for idx < len(frames) && frames[idx].Weight < weight {
		idx++
	}
	switch {
	case idx >= len(frames):
		last := len(frames) - 1
		return frameBlend{Frame: last, FrameWeight: ratio(weight, frames[last].Weight), Prev: -1}
	case idx > 0:
		prev := frames[idx-1].Weight
		t := (weight - prev) / (frames[idx].Weight - prev)
		return frameBlend{Frame: idx, FrameWeight: t, Prev: idx - 1, PrevWeight: 1 - t}
	default:
		return frameBlend{Frame: 0, FrameWeight: ratio(weight, frames[0].Weight), Prev: -1}
	}
}

func ratio(weight, threshold float32) float32 {
	if threshold <= 0 {
		return 1
	}
	return weight / threshold
}

func addScaled(dst []math.Vec3, deltas []math.Vec3, scale float32) {
	for i := range deltas {
		dst[i] = dst[i].Add(deltas[i].MulScalar(scale))
	}
}

func addScaledTangents(dst []math.Vec4, deltas []math.Vec3, scale float32) {
	for i := range deltas {
		d := deltas[i].MulScalar(scale)
		dst[i] = math.Vec4{X: dst[i].X + d.X, Y: dst[i].Y + d.Y, Z: dst[i].Z + d.Z, W: dst[i].W}
	}
}

// bakeShape adds the interpolated deltas of shape at value (0..1) to the
// given buffers. Nil buffers are skipped.
func bakeShape(shape *metadata.BlendShape, value float32, vertices, normals []math.Vec3, tangents []math.Vec4) bool {
	weight := value * 100
	if weight <= 0 || len(shape.Frames) == 0 {
		return false
	}
	blend := blendFrames(shape.Frames, weight)
	apply := func(f *metadata.BlendFrame, scale float32) {
		addScaled(vertices, f.DeltaVertices, scale)
		if normals != nil {
			addScaled(normals, f.DeltaNormals, scale)
		}
		if tangents != nil {
			addScaledTangents(tangents, f.DeltaTangents, scale)
		}
	}
	apply(&shape.Frames[blend.Frame], blend.FrameWeight)
	if blend.Prev >= 0 {
		apply(&shape.Frames[blend.Prev], blend.PrevWeight)
	}
	return true
}

/**
 * @brief Decides per shape name whether a pass bakes, keeps or drops it and
 * lays out the dynamic output shapes.
 */
type blendShapePlanner struct {
	plan    *metadata.BlendShapeBakePlan
	layouts []meshbuilder.BlendShapeLayout
	index   map[string]int
}

func newBlendShapePlanner() *blendShapePlanner {
	return &blendShapePlanner{index: make(map[string]int)}
}

func (p *blendShapePlanner) reset(plan *metadata.BlendShapeBakePlan) {
	p.plan = plan
	p.layouts = p.layouts[:0]
	clear(p.index)
}

// baked reports whether the shape is folded into the base geometry (or
// dropped at zero value) instead of being kept as a dynamic shape.
func (p *blendShapePlanner) baked(name string) bool {
	return p.plan.HasBaking() && p.plan.IsBaked(name)
}

// bakeValue returns the value a shape is baked at and whether it bakes at all.
func (p *blendShapePlanner) bakeValue(name string) (float32, bool) {
	if !p.baked(name) {
		return 0, false
	}
	s, _ := p.plan.Setting(name)
	return s.Value, s.Value > 0
}

// analyze records the dynamic shapes of a part in first seen order.
func (p *blendShapePlanner) analyze(part *metadata.MeshPart) {
	if p.plan.IgnoresDynamic() {
		return
	}
	for i := range part.BlendShapes {
		shape := &part.BlendShapes[i]
		if p.baked(shape.Name) || len(shape.Frames) == 0 {
			continue
		}
		hasNormals := len(shape.Frames[0].DeltaNormals) > 0
		hasTangents := len(shape.Frames[0].DeltaTangents) > 0
		if idx, ok := p.index[shape.Name]; ok {
			p.layouts[idx].HasNormals = p.layouts[idx].HasNormals || hasNormals
			p.layouts[idx].HasTangents = p.layouts[idx].HasTangents || hasTangents
			continue
		}
		weights := make([]float32, len(shape.Frames))
		for f := range shape.Frames {
			weights[f] = shape.Frames[f].Weight
		}
		p.index[shape.Name] = len(p.layouts)
		p.layouts = append(p.layouts, meshbuilder.BlendShapeLayout{
			Name:        shape.Name,
			Weights:     weights,
			HasNormals:  hasNormals,
			HasTangents: hasTangents,
		})
	}
}

// dynamicIndex returns the output shape of name, or -1.
func (p *blendShapePlanner) dynamicIndex(name string) int {
	if idx, ok := p.index[name]; ok {
		return idx
	}
	return -1
}

// partBakes reports whether any shape of the part is baked at a value > 0.
func (p *blendShapePlanner) partBakes(part *metadata.MeshPart) bool {
	for i := range part.BlendShapes {
		if _, ok := p.bakeValue(part.BlendShapes[i].Name); ok {
			return true
		}
	}
	return false
}

// retargetShape writes the retargeted deltas of one part shape into the
// pooled output frames at offset. A frame count different from the output
// shape degrades only this shape.
func retargetShape(ctx *skinningContext, part *metadata.MeshPart, shape *metadata.BlendShape, out *metadata.BlendShape, offset int) error {
	if len(shape.Frames) != len(out.Frames) {
		return &core.InvalidMeshDataError{Shape: shape.Name, Part: part.Name, Expected: len(out.Frames), Got: len(shape.Frames)}
	}
	for f := range shape.Frames {
		src := &shape.Frames[f]
		dst := &out.Frames[f]
		for j := range src.DeltaVertices {
			dst.DeltaVertices[offset+j] = ctx.processDelta(part.BoneWeights[j], src.DeltaVertices[j])
		}
		if len(dst.DeltaNormals) > 0 {
			for j := range src.DeltaNormals {
				dst.DeltaNormals[offset+j] = ctx.processDelta(part.BoneWeights[j], src.DeltaNormals[j])
			}
		}
		if len(dst.DeltaTangents) > 0 {
			for j := range src.DeltaTangents {
				dst.DeltaTangents[offset+j] = ctx.processDelta(part.BoneWeights[j], src.DeltaTangents[j])
			}
		}
	}
	return nil
}
