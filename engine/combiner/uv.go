package combiner

import (
	"github.com/spaghettifunk/anima-skin/engine/math"
	"github.com/spaghettifunk/anima-skin/engine/metadata"
)

// remapAtlasUV moves texture coordinates into the atlas rectangle region of
// an atlas of the given resolution. Empty regions are left alone.
func remapAtlasUV(uvs []math.Vec2, region metadata.AtlasRegion, resolution float32) bool {
	if region.Empty() || resolution <= 0 {
		return false
	}
	xMin := region.X / resolution
	xRange := region.Width / resolution
	yMin := region.Y / resolution
	yRange := region.Height / resolution
	for i := range uvs {
		uvs[i].X = xMin + xRange*uvs[i].X
		uvs[i].Y = yMin + yRange*uvs[i].Y
	}
	return true
}
