package combiner

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/anima-skin/engine/core"
	"github.com/spaghettifunk/anima-skin/engine/math"
	"github.com/spaghettifunk/anima-skin/engine/meshbuilder"
	"github.com/spaghettifunk/anima-skin/engine/metadata"
	"github.com/spaghettifunk/anima-skin/engine/skeleton"
)

// State is the step a combine pass is in.
type State uint8

const (
	StateIdle State = iota
	StateMergingSkeleton
	StateCombining
	StateFinalizing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateMergingSkeleton:
		return "merging skeleton"
	case StateCombining:
		return "combining"
	case StateFinalizing:
		return "finalizing"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

/**
 * @brief Adjusts bone poses after the parts' bones are registered and
 * before the merged skeleton is built (shape driven bone changes).
 */
type SkeletonModifier interface {
	Name() string
	Modify(graph *skeleton.BoneGraph) error
}

type modifierFunc struct {
	name string
	fn   func(graph *skeleton.BoneGraph) error
}

func (m modifierFunc) Name() string {
	return m.name
}

func (m modifierFunc) Modify(graph *skeleton.BoneGraph) error {
	return m.fn(graph)
}

// ModifierFunc wraps fn as a named SkeletonModifier.
func ModifierFunc(name string, fn func(graph *skeleton.BoneGraph) error) SkeletonModifier {
	return modifierFunc{name: name, fn: fn}
}

/**
 * @brief The outcome of a combine pass. Mesh aliases the buffers of the
 * combiner until the next pass.
 */
type Result struct {
	Mesh   *metadata.CombinedMesh
	Joints []metadata.Joint
	// Warnings holds the shapes degraded by invalid mesh data.
	Warnings []error
	Duration time.Duration
}

/**
 * @brief Combines the parts of one character into a single skinned mesh.
 * A combiner owns the skeleton and buffers of its character and runs one
 * pass at a time.
 */
type Combiner struct {
	config    *metadata.CombinerConfig
	graph     *skeleton.BoneGraph
	builder   *meshbuilder.MeshBuilder
	merger    *BoneMerger
	shapes    *blendShapePlanner
	modifiers []SkeletonModifier
	state     State
	clock     *core.Clock
	passes    uint64
}

// New creates a combiner with a fresh skeleton rooted at the configured
// root bone. A nil config uses the defaults.
func New(config *metadata.CombinerConfig) *Combiner {
	if config == nil {
		config = metadata.DefaultCombinerConfig()
	}
	return NewWithGraph(config, skeleton.New(config.RootBoneName))
}

func NewWithGraph(config *metadata.CombinerConfig, graph *skeleton.BoneGraph) *Combiner {
	if config == nil {
		config = metadata.DefaultCombinerConfig()
	}
	return &Combiner{
		config:  config,
		graph:   graph,
		builder: meshbuilder.New(config.CacheBoneWeights),
		merger:  NewBoneMerger(config.BindPoseTolerance),
		shapes:  newBlendShapePlanner(),
		clock:   core.NewClock(),
	}
}

func (c *Combiner) Graph() *skeleton.BoneGraph {
	return c.graph
}

func (c *Combiner) State() State {
	return c.state
}

func (c *Combiner) Passes() uint64 {
	return c.passes
}

func (c *Combiner) CachedBoneWeights() int {
	return c.builder.CachedBoneWeights()
}

func (c *Combiner) CachedBoneWeightEntries() int {
	return c.builder.CachedBoneWeightEntries()
}

// AddModifier registers a modifier run on every pass, in order.
func (c *Combiner) AddModifier(m SkeletonModifier) {
	c.modifiers = append(c.modifiers, m)
}

// Combine runs one full pass. Calling it while a pass is running returns
// ErrPassInProgress; queuing is up to the caller.
func (c *Combiner) Combine(req *metadata.CombineRequest) (*Result, error) {
	if c.state != StateIdle {
		return nil, errors.Wrapf(core.ErrPassInProgress, "combiner is %s", c.state)
	}
	if req == nil {
		return nil, errors.Wrap(core.ErrInvalidRequest, "nil request")
	}
	if err := req.Validate(); err != nil {
		return nil, errors.Wrap(err, "validating request")
	}

	c.clock.Start()
	passID := uuid.New()
	result := &Result{}

	c.state = StateMergingSkeleton
	c.graph.BeginPass()
	defer func() {
		if c.graph.Updating() {
			c.graph.EndPass()
		}
		c.state = StateIdle
	}()

	if err := c.mergeSkeleton(req); err != nil {
		return nil, errors.Wrap(err, "merging skeleton")
	}

	c.state = StateCombining
	c.combine(req, result)

	c.state = StateFinalizing
	result.Mesh = c.finalize(req, passID)
	result.Joints = result.Mesh.Joints

	c.clock.Stop()
	result.Duration = c.clock.Elapsed()
	c.passes++
	core.LogDebug("pass %s: %d parts, %d vertices, %d bones, %d joints in %s",
		passID, len(req.Parts), result.Mesh.VertexCount, result.Mesh.BoneCount(), len(result.Joints), result.Duration)
	return result, nil
}

func (c *Combiner) mergeSkeleton(req *metadata.CombineRequest) error {
	for _, entry := range req.Parts {
		for _, bone := range entry.Part.Bones {
			// first part registering a bone wins
			if c.graph.HasBone(bone.Hash) && c.graph.AddedThisPass(bone.Hash) {
				continue
			}
			c.graph.AddTransform(bone)
		}
	}

	c.graph.ResetAll()
	for _, hash := range req.PreservedBones {
		c.graph.SetPreserved(hash)
	}
	for _, entry := range req.Parts {
		for _, hash := range entry.Part.AnimatedBones {
			c.graph.SetPreserved(hash)
		}
	}

	for _, m := range c.modifiers {
		if err := m.Modify(c.graph); err != nil {
			return errors.Wrapf(err, "skeleton modifier %q", m.Name())
		}
	}

	c.merger.Tolerance = c.config.BindPoseTolerance
	return c.merger.Merge(c.graph, req.Parts)
}

func (c *Combiner) combine(req *metadata.CombineRequest, result *Result) {
	b := c.builder
	b.Reset()
	b.PrepareSubMeshCount(req.TargetSubMeshCount())
	c.shapes.reset(req.BlendShapes)

	for _, entry := range req.Parts {
		part := entry.Part
		b.AddSource(part)
		c.shapes.analyze(part)
		for i, sm := range part.SubMeshes {
			target := entry.TargetSubMeshes[i]
			if target < 0 || len(sm.Triangles) == 0 {
				continue
			}
			if mask := entry.OcclusionFor(i); mask != nil {
				b.AddTriangles(target, 3*keptTriangles(mask, len(sm.Triangles)/3))
			} else {
				b.AddTriangles(target, len(sm.Triangles))
			}
		}
	}

	b.PrepareBuffers()
	b.PrepareBones(c.merger.BoneCount())
	copy(b.BoneHashes, c.merger.BoneHashes)
	copy(b.BindPoses, c.merger.BindPoses)
	b.PrepareBlendShapes(c.shapes.layouts)

	offset := 0
	for p := range req.Parts {
		entry := &req.Parts[p]
		part := entry.Part
		ctx := newSkinningContext(&c.merger.Parts[p])

		c.retargetPart(&ctx, part, offset)
		for i := range part.BlendShapes {
			shape := &part.BlendShapes[i]
			idx := c.shapes.dynamicIndex(shape.Name)
			if idx < 0 {
				continue
			}
			if err := retargetShape(&ctx, part, shape, &b.BlendShapes[idx], offset); err != nil {
				core.LogWarn("skipping blend shape: %s", err)
				result.Warnings = append(result.Warnings, err)
			}
		}
		b.FillNeutral(part, offset, part.VertexCount())
		c.assembleTriangles(entry, offset)
		offset += part.VertexCount()
	}
}

// retargetPart writes the part's skinned geometry at offset. Baked blend
// shapes are added to the copied base geometry before it is retargeted.
func (c *Combiner) retargetPart(ctx *skinningContext, part *metadata.MeshPart, offset int) {
	b := c.builder
	n := part.VertexCount()
	vertices := b.Vertices[offset : offset+n]
	copy(vertices, part.Vertices)

	var normals []math.Vec3
	if b.Channels.Has(metadata.ChannelNormals) {
		normals = b.Normals[offset : offset+n]
		if len(part.Normals) > 0 {
			copy(normals, part.Normals)
		} else {
			clear(normals)
		}
	}
	var tangents []math.Vec4
	if b.Channels.Has(metadata.ChannelTangents) {
		tangents = b.Tangents[offset : offset+n]
		if len(part.Tangents) > 0 {
			copy(tangents, part.Tangents)
		} else {
			clear(tangents)
		}
	}

	if c.shapes.partBakes(part) {
		var bakeNormals []math.Vec3
		if len(part.Normals) > 0 {
			bakeNormals = normals
		}
		var bakeTangents []math.Vec4
		if len(part.Tangents) > 0 {
			bakeTangents = tangents
		}
		for i := range part.BlendShapes {
			shape := &part.BlendShapes[i]
			if value, ok := c.shapes.bakeValue(shape.Name); ok {
				bakeShape(shape, value, vertices, bakeNormals, bakeTangents)
			}
		}
	}

	for j := 0; j < n; j++ {
		bw := part.BoneWeights[j]
		var normal math.Vec3
		var tangent math.Vec4
		if normals != nil {
			normal = normals[j]
		}
		if tangents != nil {
			tangent = tangents[j]
		}
		position, normal, tangent := ctx.processVertex(bw, vertices[j], normal, tangent)
		vertices[j] = position
		if normals != nil {
			normals[j] = normal
		}
		if tangents != nil {
			tangents[j] = tangent
		}
		b.BoneWeights[offset+j] = ctx.remapWeights(bw)
	}
}

func (c *Combiner) assembleTriangles(entry *metadata.PartEntry, offset int) {
	b := c.builder
	for i, sm := range entry.Part.SubMeshes {
		target := entry.TargetSubMeshes[i]
		if target < 0 || len(sm.Triangles) == 0 {
			continue
		}
		dst := &b.SubMeshes[target]
		if mask := entry.OcclusionFor(i); mask != nil {
			dst.TriangleCount = copyTrianglesMasked(dst.Triangles, sm.Triangles, dst.TriangleCount, uint32(offset), mask)
		} else {
			dst.TriangleCount = copyTriangles(dst.Triangles, sm.Triangles, dst.TriangleCount, uint32(offset))
		}
	}
}

func (c *Combiner) finalize(req *metadata.CombineRequest, passID uuid.UUID) *metadata.CombinedMesh {
	b := c.builder
	resolution := req.AtlasResolution
	if resolution <= 0 {
		resolution = c.config.AtlasResolution
	}
	if b.Channels.Has(metadata.ChannelUV0) {
		offset := 0
		for _, entry := range req.Parts {
			n := entry.Part.VertexCount()
			if entry.AtlasRegion != nil && len(entry.Part.UV[0]) > 0 {
				remapAtlasUV(b.UV[0][offset:offset+n], *entry.AtlasRegion, resolution)
			}
			offset += n
		}
	}

	mesh := b.Mesh("mesh-"+passID.String(), passID)
	mesh.Bounds = math.BoundsFromPoints(mesh.Vertices)
	mesh.BlendShapeWeights = blendShapeWeights(req.BlendShapes, mesh.BlendShapes)
	mesh.Joints = c.graph.Joints()

	b.ReleaseBuffers()
	c.graph.EndPass()
	return mesh
}

// blendShapeWeights returns the 0..100 weight of every dynamic shape of
// the mesh configured in plan, plus baked shapes when LoadAll is set.
func blendShapeWeights(plan *metadata.BlendShapeBakePlan, shapes []metadata.BlendShape) map[string]float32 {
	if plan == nil || plan.Ignore {
		return nil
	}
	present := make(map[string]bool, len(shapes))
	for _, shape := range shapes {
		present[shape.Name] = true
	}
	weights := make(map[string]float32)
	for name, setting := range plan.Shapes {
		if (setting.Baked && plan.LoadAll) || (!setting.Baked && present[name]) {
			weights[name] = setting.Value * 100
		}
	}
	return weights
}
