package skeleton

import (
	"github.com/spaghettifunk/anima-skin/engine/core"
	"github.com/spaghettifunk/anima-skin/engine/math"
	"github.com/spaghettifunk/anima-skin/engine/metadata"
)

// BoneState tags whether a bone survives the end of a pass.
type BoneState uint8

const (
	// BoneTransient bones are collapsed into their nearest preserved
	// ancestor when the pass ends.
	BoneTransient BoneState = iota
	// BonePreserved bones stay concrete joints of the output hierarchy.
	BonePreserved
)

func (s BoneState) String() string {
	if s == BonePreserved {
		return "preserved"
	}
	return "transient"
}

/**
 * @brief A local position, rotation and scale.
 */
type Pose struct {
	Position math.Vec3
	Rotation math.Quaternion
	Scale    math.Vec3
}

func IdentityPose() Pose {
	return Pose{
		Position: math.NewVec3Zero(),
		Rotation: math.NewQuatIdentity(),
		Scale:    math.NewVec3One(),
	}
}

func PoseFromTransform(t metadata.BoneTransform) Pose {
	return Pose{Position: t.Position, Rotation: t.Rotation, Scale: t.Scale}
}

/**
 * @brief One bone of the graph arena.
 */
type BonePose struct {
	Name       string
	Hash       int32
	ParentHash int32
	// Current is the pose after skeleton modifiers ran.
	Current Pose
	// Base is the authored pose restored at the start of every pass.
	Base  Pose
	State BoneState
	// AccessedFrame is the last frame the bone was registered or written.
	AccessedFrame int

	matrixStamp uint64
	world       math.Mat4
	gPosition   math.Vec3
	gRotation   math.Quaternion
	gScale      math.Vec3
}

func (b *BonePose) Preserved() bool {
	return b.State == BonePreserved
}

/**
 * @brief The skeleton of a single character. The graph is the context of a
 * combine pass: it is owned by one character and never shared.
 */
type BoneGraph struct {
	bones    []BonePose
	index    map[int32]int
	rootHash int32
	frame    int
	updating bool
	// stamp invalidates cached world matrices; it advances every frame and
	// on every pose write.
	stamp uint64
}

// New creates a graph holding a single preserved root bone.
func New(rootName string) *BoneGraph {
	return NewWithRoot(metadata.NewBoneTransform(rootName, "", math.NewVec3Zero(), math.NewQuatIdentity(), math.NewVec3One()))
}

func NewWithRoot(root metadata.BoneTransform) *BoneGraph {
	g := &BoneGraph{
		bones:    make([]BonePose, 0, 128),
		index:    make(map[int32]int, 128),
		rootHash: root.Hash,
		stamp:    1,
	}
	g.AddBone(0, root.Hash, PoseFromTransform(root))
	g.bones[0].Name = root.Name
	g.bones[0].State = BonePreserved
	return g
}

func (g *BoneGraph) RootHash() int32 {
	return g.rootHash
}

func (g *BoneGraph) Frame() int {
	return g.frame
}

func (g *BoneGraph) Updating() bool {
	return g.updating
}

// BeginPass opens a combine pass and advances the frame counter.
func (g *BoneGraph) BeginPass() {
	g.updating = true
	g.frame++
	g.invalidate()
}

func (g *BoneGraph) invalidate() {
	g.stamp++
}

func (g *BoneGraph) lookup(hash int32) (*BonePose, bool) {
	id, ok := g.index[hash]
	if !ok {
		return nil, false
	}
	return &g.bones[id], true
}

// AddBone registers a bone or refreshes an existing one. Both the base and
// the current pose are replaced and the bone is stamped with this frame.
func (g *BoneGraph) AddBone(parentHash, hash int32, pose Pose) {
	if b, ok := g.lookup(hash); ok {
		b.ParentHash = parentHash
		b.AccessedFrame = g.frame
		b.Base = pose
		b.Current = pose
		g.invalidate()
		return
	}
	g.index[hash] = len(g.bones)
	g.bones = append(g.bones, BonePose{
		Hash:          hash,
		ParentHash:    parentHash,
		Current:       pose,
		Base:          pose,
		State:         BoneTransient,
		AccessedFrame: g.frame,
	})
	g.invalidate()
}

// AddTransform registers a bone authored in a mesh part.
func (g *BoneGraph) AddTransform(t metadata.BoneTransform) {
	g.AddBone(t.ParentHash, t.Hash, PoseFromTransform(t))
	if b, ok := g.lookup(t.Hash); ok && t.Name != "" {
		b.Name = t.Name
	}
}

// EnsureBone makes sure the bone exists and carries t as its base pose.
// A bone created here is not counted as added this pass.
func (g *BoneGraph) EnsureBone(t metadata.BoneTransform) {
	b, ok := g.lookup(t.Hash)
	if !ok {
		g.AddTransform(t)
		b, _ = g.lookup(t.Hash)
		b.AccessedFrame = -1
		return
	}
	if t.Name != "" {
		b.Name = t.Name
	}
	b.ParentHash = t.ParentHash
	b.Base = PoseFromTransform(t)
	b.Current = b.Base
	g.invalidate()
}

func (g *BoneGraph) HasBone(hash int32) bool {
	_, ok := g.index[hash]
	return ok
}

// BoneExists reports whether the bone is present and preserved.
func (g *BoneGraph) BoneExists(hash int32) bool {
	b, ok := g.lookup(hash)
	return ok && b.Preserved()
}

func (g *BoneGraph) AddedThisPass(hash int32) bool {
	b, ok := g.lookup(hash)
	if !ok {
		core.LogDebug("AddedThisPass: bone %d not found", hash)
		return false
	}
	return b.AccessedFrame == g.frame
}

// RemoveBone drops a bone from the arena. Children keep their parent hash
// and fall back to the root when resolved.
func (g *BoneGraph) RemoveBone(hash int32) {
	id, ok := g.index[hash]
	if !ok || hash == g.rootHash {
		return
	}
	last := len(g.bones) - 1
	if id != last {
		g.bones[id] = g.bones[last]
		g.index[g.bones[id].Hash] = id
	}
	g.bones = g.bones[:last]
	delete(g.index, hash)
	g.invalidate()
}

func (g *BoneGraph) BoneCount() int {
	return len(g.bones)
}

// Hashes returns the hashes of every bone in arena order.
func (g *BoneGraph) Hashes() []int32 {
	out := make([]int32, len(g.bones))
	for i := range g.bones {
		out[i] = g.bones[i].Hash
	}
	return out
}

// Bone returns a copy of the record stored for hash.
func (g *BoneGraph) Bone(hash int32) (BonePose, bool) {
	b, ok := g.lookup(hash)
	if !ok {
		return BonePose{}, false
	}
	return *b, true
}

func (g *BoneGraph) State(hash int32) (BoneState, error) {
	b, ok := g.lookup(hash)
	if !ok {
		return BoneTransient, &core.MissingBoneError{Hash: hash}
	}
	return b.State, nil
}

// SetPreserved marks a single bone as preserved.
func (g *BoneGraph) SetPreserved(hash int32) {
	b, ok := g.lookup(hash)
	if !ok {
		core.LogError("SetPreserved: bone not found, hash %d", hash)
		return
	}
	b.State = BonePreserved
}

// SetPreservedHierarchy marks the bone and its ancestors as preserved,
// stopping at the first ancestor that already is.
func (g *BoneGraph) SetPreservedHierarchy(hash int32) {
	b, ok := g.lookup(hash)
	if !ok {
		core.LogError("SetPreservedHierarchy: bone not found, hash %d", hash)
		return
	}
	for steps := 0; steps <= len(g.bones); steps++ {
		if b.Preserved() {
			return
		}
		b.State = BonePreserved
		if b.Hash == g.rootHash {
			return
		}
		parent := b.ParentHash
		if b, ok = g.lookup(parent); !ok {
			core.LogError("SetPreservedHierarchy: bone not found, hash %d", parent)
			return
		}
	}
}

// ClearPreserved marks the bone transient again, optionally together with
// every preserved descendant.
func (g *BoneGraph) ClearPreserved(hash int32, recursive bool) {
	if _, ok := g.lookup(hash); !ok {
		core.LogError("ClearPreserved: bone not found, hash %d", hash)
		return
	}
	pending := []int32{hash}
	for len(pending) > 0 {
		h := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		b, ok := g.lookup(h)
		if !ok || !b.Preserved() {
			continue
		}
		b.State = BoneTransient
		if !recursive {
			continue
		}
		for i := range g.bones {
			if g.bones[i].ParentHash == h && g.bones[i].Hash != h {
				pending = append(pending, g.bones[i].Hash)
			}
		}
	}
}

// ResolvePreservedHash walks the parent chain of hash up to the first
// preserved bone. Unknown bones and broken chains resolve to the root.
func (g *BoneGraph) ResolvePreservedHash(hash int32) (int32, error) {
	b, err := g.findPreserved(hash)
	if err != nil {
		return 0, err
	}
	return b.Hash, nil
}

func (g *BoneGraph) findPreserved(hash int32) (*BonePose, error) {
	root, ok := g.lookup(g.rootHash)
	if !ok {
		return nil, &core.MissingBoneError{Hash: g.rootHash}
	}
	b, ok := g.lookup(hash)
	if !ok {
		return root, nil
	}
	for steps := 0; !b.Preserved(); steps++ {
		if steps > len(g.bones) {
			// cycle in the parent chain
			return root, nil
		}
		if b, ok = g.lookup(b.ParentHash); !ok {
			return root, nil
		}
	}
	return b, nil
}
