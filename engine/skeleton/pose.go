package skeleton

import (
	"github.com/spaghettifunk/anima-skin/engine/core"
	"github.com/spaghettifunk/anima-skin/engine/math"
)

// writable returns the bone a mutator may write. A missing bone yields nil
// without error; outside a pass only preserved bones can be written.
func (g *BoneGraph) writable(hash int32) (*BonePose, error) {
	b, ok := g.lookup(hash)
	if !ok {
		return nil, nil
	}
	if !g.updating && !b.Preserved() {
		return nil, core.ErrTransientBone
	}
	if g.updating {
		b.AccessedFrame = g.frame
	}
	g.invalidate()
	return b, nil
}

// Set replaces the current pose. Unlike the other setters it fails on a
// missing bone.
func (g *BoneGraph) Set(hash int32, position, scale math.Vec3, rotation math.Quaternion) error {
	if !g.HasBone(hash) {
		return &core.MissingBoneError{Hash: hash}
	}
	b, err := g.writable(hash)
	if err != nil {
		return err
	}
	b.Current = Pose{Position: position, Rotation: rotation, Scale: scale}
	return nil
}

// SetPosition is a no-op for a missing bone; level of detail and occlusion
// legitimately remove bones other code still addresses.
func (g *BoneGraph) SetPosition(hash int32, position math.Vec3) error {
	b, err := g.writable(hash)
	if b == nil {
		return err
	}
	b.Current.Position = position
	return nil
}

// SetPositionRelative moves the bone by delta*weight. No-op for a missing bone.
func (g *BoneGraph) SetPositionRelative(hash int32, delta math.Vec3, weight float32) error {
	b, err := g.writable(hash)
	if b == nil {
		return err
	}
	b.Current.Position = b.Current.Position.Add(delta.MulScalar(weight))
	return nil
}

// SetScale is a no-op for a missing bone.
func (g *BoneGraph) SetScale(hash int32, scale math.Vec3) error {
	b, err := g.writable(hash)
	if b == nil {
		return err
	}
	b.Current.Scale = scale
	return nil
}

// SetRotation is a no-op for a missing bone.
func (g *BoneGraph) SetRotation(hash int32, rotation math.Quaternion) error {
	b, err := g.writable(hash)
	if b == nil {
		return err
	}
	b.Current.Rotation = rotation
	return nil
}

// Lerp moves the pose toward the given one by weight. No-op for a missing
// bone.
func (g *BoneGraph) Lerp(hash int32, position, scale math.Vec3, rotation math.Quaternion, weight float32) error {
	b, err := g.writable(hash)
	if b == nil {
		return err
	}
	b.Current.Position = lerpVec3(b.Current.Position, position, weight)
	b.Current.Rotation = b.Current.Rotation.Slerp(rotation, weight)
	b.Current.Scale = lerpVec3(b.Current.Scale, scale, weight)
	return nil
}

// Morph applies a weighted offset: position is added, rotation is
// composed after the current one and scale multiplies the current one.
// No-op for a missing bone.
func (g *BoneGraph) Morph(hash int32, position, scale math.Vec3, rotation math.Quaternion, weight float32) error {
	b, err := g.writable(hash)
	if b == nil {
		return err
	}
	b.Current.Position = b.Current.Position.Add(position.MulScalar(weight))
	full := b.Current.Rotation.Mul(rotation)
	b.Current.Rotation = b.Current.Rotation.Slerp(full, weight)
	b.Current.Scale = lerpVec3(b.Current.Scale, scale.Mul(b.Current.Scale), weight)
	return nil
}

func lerpVec3(a, b math.Vec3, t float32) math.Vec3 {
	return math.NewVec3(math.Lerp(a.X, b.X, t), math.Lerp(a.Y, b.Y, t), math.Lerp(a.Z, b.Z, t))
}

func (g *BoneGraph) Position(hash int32) (math.Vec3, error) {
	b, ok := g.lookup(hash)
	if !ok {
		return math.Vec3{}, &core.MissingBoneError{Hash: hash}
	}
	b.AccessedFrame = g.frame
	return b.Current.Position, nil
}

func (g *BoneGraph) Scale(hash int32) (math.Vec3, error) {
	b, ok := g.lookup(hash)
	if !ok {
		return math.Vec3{}, &core.MissingBoneError{Hash: hash}
	}
	b.AccessedFrame = g.frame
	return b.Current.Scale, nil
}

func (g *BoneGraph) Rotation(hash int32) (math.Quaternion, error) {
	b, ok := g.lookup(hash)
	if !ok {
		return math.Quaternion{}, &core.MissingBoneError{Hash: hash}
	}
	b.AccessedFrame = g.frame
	return b.Current.Rotation, nil
}

// Reset restores the base pose and clears the preserved state.
func (g *BoneGraph) Reset(hash int32) bool {
	b, ok := g.lookup(hash)
	if !ok {
		core.LogDebug("Reset: bone not found, hash %d", hash)
		return false
	}
	b.State = BoneTransient
	b.Current = b.Base
	g.invalidate()
	return true
}

// ResetAll restores every base pose and marks every bone transient. The
// root stays preserved while a pass is open.
func (g *BoneGraph) ResetAll() {
	for i := range g.bones {
		g.bones[i].State = BoneTransient
		g.bones[i].Current = g.bones[i].Base
	}
	if g.updating {
		if root, ok := g.lookup(g.rootHash); ok {
			root.State = BonePreserved
		}
	}
	g.invalidate()
}

// Restore reports whether the bone carries a pose that can be applied.
// The graph has no separate scene node, so nothing is copied.
func (g *BoneGraph) Restore(hash int32) bool {
	if _, ok := g.lookup(hash); !ok {
		core.LogDebug("Restore: bone not found, hash %d", hash)
		return false
	}
	return true
}
