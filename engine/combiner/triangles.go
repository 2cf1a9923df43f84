package combiner

import (
	"image"
	"math/bits"

	"github.com/chewxy/math32"
	"github.com/spaghettifunk/anima-skin/engine/math"
	"github.com/spaghettifunk/anima-skin/engine/metadata"
)

// TrianglesPerMaskWord is the number of triangles one occlusion word covers.
const TrianglesPerMaskWord = 32

// keptTriangles counts the set bits of mask that address one of the first
// triangles triangles. Words past the end of mask keep nothing.
func keptTriangles(mask []uint32, triangles int) int {
	kept := 0
	for w := 0; w*TrianglesPerMaskWord < triangles && w < len(mask); w++ {
		word := mask[w]
		if remaining := triangles - w*TrianglesPerMaskWord; remaining < TrianglesPerMaskWord {
			word &= (1 << uint(remaining)) - 1
		}
		kept += bits.OnesCount32(word)
	}
	return kept
}

// copyTriangles appends src shifted by offset at dst[cursor:] and returns
// the new cursor.
func copyTriangles(dst, src []uint32, cursor int, offset uint32) int {
	for i := range src {
		dst[cursor+i] = src[i] + offset
	}
	return cursor + len(src)
}

// copyTrianglesMasked copies the triangles whose mask bit is set. The
// source cursor steps one triangle at a time in lockstep with the mask bit,
// whether or not the triangle is kept.
func copyTrianglesMasked(dst, src []uint32, cursor int, offset uint32, mask []uint32) int {
	triangles := len(src) / 3
	source := 0
	for t := 0; t < triangles; t++ {
		word := t / TrianglesPerMaskWord
		if word < len(mask) && mask[word]&(1<<uint(t%TrianglesPerMaskWord)) != 0 {
			dst[cursor] = src[source] + offset
			dst[cursor+1] = src[source+1] + offset
			dst[cursor+2] = src[source+2] + offset
			cursor += 3
		}
		source += 3
	}
	return cursor
}

// BuildOcclusionMask builds the keep mask of a triangle list: a triangle is
// dropped only when all three of its vertices are cut out.
func BuildOcclusionMask(triangles []uint32, cutout []bool) []uint32 {
	count := len(triangles) / 3
	mask := make([]uint32, (count+TrianglesPerMaskWord-1)/TrianglesPerMaskWord)
	for t := 0; t < count; t++ {
		a, b, c := triangles[t*3], triangles[t*3+1], triangles[t*3+2]
		if cutout[a] && cutout[b] && cutout[c] {
			continue
		}
		mask[t/TrianglesPerMaskWord] |= 1 << uint(t%TrianglesPerMaskWord)
	}
	return mask
}

// VertexCutoutFromImage samples a cutout mask under every UV. A vertex is
// cut out where the red channel is zero. UV (0,0) is the bottom left pixel.
func VertexCutoutFromImage(uvs []math.Vec2, img image.Image) []bool {
	bounds := img.Bounds()
	uScale := float32(bounds.Dx() - 1)
	vScale := float32(bounds.Dy() - 1)
	cutout := make([]bool, len(uvs))
	for i, uv := range uvs {
		x := int(math32.Round(uScale * math.Clamp(uv.X, 0, 1)))
		y := int(math32.Round(vScale * (1 - math.Clamp(uv.Y, 0, 1))))
		r, _, _, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
		cutout[i] = r == 0
	}
	return cutout
}

// OcclusionFromCutout builds the occlusion masks of every submesh of part
// by sampling img under its first UV channel. A part without a full first
// UV channel cannot be sampled and gets no masks.
func OcclusionFromCutout(part *metadata.MeshPart, img image.Image) [][]uint32 {
	if img == nil || len(part.UV[0]) != part.VertexCount() {
		return nil
	}
	cutout := VertexCutoutFromImage(part.UV[0], img)
	masks := make([][]uint32, len(part.SubMeshes))
	for i, sm := range part.SubMeshes {
		masks[i] = BuildOcclusionMask(sm.Triangles, cutout)
	}
	return masks
}
