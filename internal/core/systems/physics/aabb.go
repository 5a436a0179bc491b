package physics

import "math"

// AABB is an axis-aligned bounding box. Planes use infinite bounds.
type AABB struct {
	Min, Max Vec2
}

func infiniteAABB() AABB {
	inf := math.Inf(1)
	return AABB{Min: Vec2{-inf, -inf}, Max: Vec2{inf, inf}}
}

// Overlaps reports whether the two boxes intersect or touch.
func (b AABB) Overlaps(other AABB) bool {
	return b.Min[0] <= other.Max[0] && b.Max[0] >= other.Min[0] &&
		b.Min[1] <= other.Max[1] && b.Max[1] >= other.Min[1]
}

func (b AABB) extend(p Vec2) AABB {
	return AABB{
		Min: Vec2{math.Min(b.Min[0], p[0]), math.Min(b.Min[1], p[1])},
		Max: Vec2{math.Max(b.Max[0], p[0]), math.Max(b.Max[1], p[1])},
	}
}
