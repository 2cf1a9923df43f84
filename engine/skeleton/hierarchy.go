package skeleton

import (
	"github.com/spaghettifunk/anima-skin/engine/core"
	"github.com/spaghettifunk/anima-skin/engine/math"
	"github.com/spaghettifunk/anima-skin/engine/metadata"
)

// relativePose expresses the world pose of child relative to parent. Both
// must have up to date matrices.
func relativePose(parent, child *BonePose) Pose {
	return Pose{
		Position: child.gPosition.Transform(parent.world.Inverse()),
		Rotation: parent.gRotation.Inverse().Mul(child.gRotation),
		Scale:    child.gScale.Div(parent.gScale),
	}
}

// EndPass closes the pass and collapses the hierarchy: preserved bones
// whose parent is transient are reparented onto the nearest preserved
// ancestor, keeping their world pose, then every transient bone is dropped.
func (g *BoneGraph) EndPass() {
	g.updating = false
	for id := range g.bones {
		g.updateMatrix(id)
	}

	type reparent struct {
		id     int
		parent int32
		pose   Pose
	}
	var moves []reparent
	for id := range g.bones {
		b := &g.bones[id]
		if !b.Preserved() || b.Hash == g.rootHash {
			continue
		}
		if parent, ok := g.lookup(b.ParentHash); ok && parent.Preserved() {
			continue
		}
		np, err := g.findPreserved(b.ParentHash)
		if err != nil {
			core.LogError("EndPass: %s", err)
			continue
		}
		moves = append(moves, reparent{id: id, parent: np.Hash, pose: relativePose(np, b)})
	}
	for _, m := range moves {
		b := &g.bones[m.id]
		b.ParentHash = m.parent
		b.Current = m.pose
		b.Base = m.pose
	}

	kept := g.bones[:0]
	for _, b := range g.bones {
		if b.Preserved() {
			kept = append(kept, b)
		}
	}
	removed := len(g.bones) - len(kept)
	g.bones = kept
	clear(g.index)
	for id := range g.bones {
		g.index[g.bones[id].Hash] = id
	}
	g.invalidate()
	core.LogDebug("skeleton pass %d closed: %d bones kept, %d collapsed, %d reparented", g.frame, len(kept), removed, len(moves))
}

// Joints lists the preserved bones parents first, each with its pose
// relative to its nearest preserved ancestor.
func (g *BoneGraph) Joints() []metadata.Joint {
	rootID, ok := g.index[g.rootHash]
	if !ok {
		return nil
	}
	children := make(map[int32][]int, len(g.bones))
	for id := range g.bones {
		b := &g.bones[id]
		if !b.Preserved() || id == rootID {
			continue
		}
		parent, err := g.findPreserved(b.ParentHash)
		if err != nil || parent.Hash == b.Hash {
			continue
		}
		children[parent.Hash] = append(children[parent.Hash], id)
	}

	joints := make([]metadata.Joint, 0, len(g.bones))
	queue := []int{rootID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		b := &g.bones[id]
		g.updateMatrix(id)
		joint := metadata.Joint{Name: b.Name, Hash: b.Hash}
		if id == rootID {
			joint.Position = b.Current.Position
			joint.Rotation = b.Current.Rotation
			joint.Scale = b.Current.Scale
		} else {
			parent, _ := g.findPreserved(b.ParentHash)
			g.updateMatrix(g.index[parent.Hash])
			pose := relativePose(parent, b)
			joint.ParentHash = parent.Hash
			joint.Position = pose.Position
			joint.Rotation = pose.Rotation
			joint.Scale = pose.Scale
		}
		joints = append(joints, joint)
		queue = append(queue, children[b.Hash]...)
	}
	return joints
}

// TPoseCorrectedRotation re-expresses a T-pose rotation for a bone whose
// direct parent was collapsed into a preserved ancestor.
func (g *BoneGraph) TPoseCorrectedRotation(hash int32, tPose math.Quaternion) math.Quaternion {
	b, ok := g.lookup(hash)
	if !ok {
		core.LogError("TPoseCorrectedRotation: bone not found, hash %d", hash)
		return tPose
	}
	rotation := b.Current.Rotation
	parentHash, err := g.ResolvePreservedHash(b.ParentHash)
	if err != nil || parentHash == b.ParentHash {
		return tPose
	}
	immediateID, ok := g.index[b.ParentHash]
	if !ok {
		return tPose
	}
	parentID := g.index[parentHash]
	g.updateMatrix(immediateID)
	g.updateMatrix(parentID)
	offset := g.bones[parentID].gRotation.Inverse().Mul(g.bones[immediateID].gRotation)
	return tPose.Inverse().Mul(rotation).Mul(offset)
}
