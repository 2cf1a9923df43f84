package math

// BoundsFromPoints computes the axis aligned bounds of points. Empty input
// yields zero bounds.
func BoundsFromPoints(points []Vec3) Bounds {
	if len(points) == 0 {
		return Bounds{}
	}
	min := points[0]
	max := points[0]
	for _, p := range points[1:] {
		min = min.Min(p)
		max = max.Max(p)
	}
	return Bounds{
		Center:  min.Add(max).MulScalar(0.5),
		Extents: Extents3D{Min: min, Max: max},
	}
}
