package combiner

import (
	"github.com/pkg/errors"
	"github.com/spaghettifunk/anima-skin/engine/math"
	"github.com/spaghettifunk/anima-skin/engine/meshbuilder"
	"github.com/spaghettifunk/anima-skin/engine/metadata"
	"github.com/spaghettifunk/anima-skin/engine/skeleton"
)

/**
 * @brief The bone remapping of one part: the merged slot of every part
 * bone and the matrix taking part bind space into the current skeleton.
 */
type PartBones struct {
	TargetBoneIndices    []int32
	ResolvedBoneMatrices []math.Mat4
	// Composed holds ResolvedBoneMatrices[i] * InverseTargetMatrices[TargetBoneIndices[i]].
	Composed []math.Mat4
}

/**
 * @brief Builds the merged bone list of a pass. Bones collapse by their
 * preserved hash first and by bind pose within that hash second.
 */
type BoneMerger struct {
	Tolerance float32

	BoneHashes []int32
	// BindPoses are rebuilt from the current skeleton relative to the root,
	// so bone moves made before the merge end up in the combined vertices.
	BindPoses             []math.Mat4
	InverseTargetMatrices []math.Mat4
	Parts                 []PartBones

	// candidates holds the part bind of the first bone claiming each slot.
	candidates []math.Mat4
	buckets    map[int32][]int32
}

func NewBoneMerger(tolerance float32) *BoneMerger {
	return &BoneMerger{
		Tolerance: tolerance,
		buckets:   make(map[int32][]int32, 64),
	}
}

func (m *BoneMerger) reset(parts int) {
	m.BoneHashes = m.BoneHashes[:0]
	m.candidates = m.candidates[:0]
	clear(m.buckets)
	for len(m.Parts) < parts {
		m.Parts = append(m.Parts, PartBones{})
	}
	m.Parts = m.Parts[:parts]
}

// BoneCount is the number of merged slots.
func (m *BoneMerger) BoneCount() int {
	return len(m.BoneHashes)
}

// slot returns the merged slot of hash whose bind pose matches bind, adding
// a new slot when no slot of the bucket is within tolerance.
func (m *BoneMerger) slot(hash int32, bind math.Mat4) int32 {
	bucket := m.buckets[hash]
	for _, s := range bucket {
		if m.candidates[s].CompareAffine(bind, m.Tolerance) {
			return s
		}
	}
	s := int32(len(m.BoneHashes))
	m.BoneHashes = append(m.BoneHashes, hash)
	m.candidates = append(m.candidates, bind)
	m.buckets[hash] = append(bucket, s)
	return s
}

// world returns the world matrix of a part bone. A bone the graph does not
// know uses the matrix of the preserved bone it resolved to.
func world(graph *skeleton.BoneGraph, raw, resolved int32) (math.Mat4, error) {
	if graph.HasBone(raw) {
		return graph.WorldMatrix(raw)
	}
	return graph.WorldMatrix(resolved)
}

// Merge assigns every part bone a merged slot in first seen order and
// computes the matrices the retargeter composes.
func (m *BoneMerger) Merge(graph *skeleton.BoneGraph, entries []metadata.PartEntry) error {
	m.reset(len(entries))
	for p := range entries {
		part := entries[p].Part
		pb := &m.Parts[p]
		n := len(part.BoneHashes)
		pb.TargetBoneIndices = meshbuilder.Grow(pb.TargetBoneIndices, n)
		pb.ResolvedBoneMatrices = meshbuilder.Grow(pb.ResolvedBoneMatrices, n)

		for i, raw := range part.BoneHashes {
			merged, err := graph.ResolvePreservedHash(raw)
			if err != nil {
				return errors.Wrapf(err, "part %q bone %d", part.Name, i)
			}
			rawWorld, err := world(graph, raw, merged)
			if err != nil {
				return errors.Wrapf(err, "part %q bone %d", part.Name, i)
			}
			resolved := part.BindPoses[i].Mul(rawWorld)
			bind := part.BindPoses[i]
			if raw != merged {
				mergedWorld, err := graph.WorldMatrix(merged)
				if err != nil {
					return errors.Wrapf(err, "part %q bone %d", part.Name, i)
				}
				bind = resolved.Mul(mergedWorld.Inverse())
			}
			pb.ResolvedBoneMatrices[i] = resolved
			pb.TargetBoneIndices[i] = m.slot(merged, bind)
		}
	}

	root, err := graph.WorldMatrix(graph.RootHash())
	if err != nil {
		return errors.Wrap(err, "root bone")
	}
	m.BindPoses = meshbuilder.Grow(m.BindPoses, len(m.BoneHashes))
	m.InverseTargetMatrices = meshbuilder.Grow(m.InverseTargetMatrices, len(m.BoneHashes))
	for s, hash := range m.BoneHashes {
		w, err := graph.WorldMatrix(hash)
		if err != nil {
			return errors.Wrapf(err, "merged bone %d", s)
		}
		m.BindPoses[s] = root.Mul(w.Inverse())
		m.InverseTargetMatrices[s] = m.BindPoses[s].Mul(w).Inverse()
	}

	for p := range m.Parts {
		pb := &m.Parts[p]
		pb.Composed = meshbuilder.Grow(pb.Composed, len(pb.TargetBoneIndices))
		for i, target := range pb.TargetBoneIndices {
			pb.Composed[i] = pb.ResolvedBoneMatrices[i].Mul(m.InverseTargetMatrices[target])
		}
	}
	return nil
}
