// Package physics is a 2D rigid-body engine: bodies with plane, circle and
// convex shapes, group/mask collision filtering, prismatic constraints with
// limits, linear springs, an iterative Gauss-Seidel velocity solver and a
// semi-implicit Euler integrator, orchestrated by World.Step.
package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec2 is the vector type used across the engine.
type Vec2 = mgl64.Vec2

// V builds a Vec2.
func V(x, y float64) Vec2 { return Vec2{x, y} }

// Transform is a position plus rotation angle in radians.
type Transform struct {
	Pos   Vec2
	Angle float64
}

// Apply maps a point from the local frame of t into world space.
func (t Transform) Apply(p Vec2) Vec2 {
	return t.Pos.Add(rotate(p, t.Angle))
}

// ApplyInverse maps a world point into the local frame of t.
func (t Transform) ApplyInverse(p Vec2) Vec2 {
	return rotate(p.Sub(t.Pos), -t.Angle)
}

// Compose returns the world transform of a frame expressed in t's local space.
func (t Transform) Compose(local Transform) Transform {
	return Transform{Pos: t.Apply(local.Pos), Angle: t.Angle + local.Angle}
}

func rotate(v Vec2, angle float64) Vec2 {
	if angle == 0 {
		return v
	}
	return mgl64.Rotate2D(angle).Mul2x1(v)
}

// cross returns the z component of a × b.
func cross(a, b Vec2) float64 {
	return a[0]*b[1] - a[1]*b[0]
}

// crossSV returns s × v for a scalar angular quantity s.
func crossSV(s float64, v Vec2) Vec2 {
	return Vec2{-s * v[1], s * v[0]}
}

// perp rotates v by +90 degrees.
func perp(v Vec2) Vec2 {
	return Vec2{-v[1], v[0]}
}

// normalizeOr returns v scaled to unit length, or fallback when v is too
// short to normalize. The boolean reports whether v itself was usable.
func normalizeOr(v, fallback Vec2) (Vec2, bool) {
	l := v.Len()
	if l < epsilon || math.IsNaN(l) || math.IsInf(l, 0) {
		return fallback, false
	}
	return v.Mul(1 / l), true
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func finiteVec(v Vec2) bool {
	return finite(v[0]) && finite(v[1])
}

// Distance returns the euclidean distance between two points.
func Distance(a, b Vec2) float64 {
	return math.Hypot(b[0]-a[0], b[1]-a[1])
}

const epsilon = 1e-12

var (
	worldUp = Vec2{0, 1}
	zeroVec = Vec2{}
)
