package physics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func attach(t *testing.T, g Geometry, opts ...BodyOption) (*Body, *Shape) {
	t.Helper()
	b, err := NewBody(opts...)
	require.NoError(t, err)
	s := mustShape(t, g)
	require.NoError(t, b.AddShape(s, Vec2{}, 0))
	return b, s
}

func assertVec(t *testing.T, want, got Vec2) {
	t.Helper()
	assert.InDelta(t, want[0], got[0], 1e-9, "x")
	assert.InDelta(t, want[1], got[1], 1e-9, "y")
}

func TestNarrowphase_PlaneCircle(t *testing.T) {
	_, plane := attach(t, Plane{})
	_, circle := attach(t, mustCircle(t, 0.3), WithMass(1), WithPosition(Vec2{2, 0.25}))

	cs := narrowphase(plane, circle, nil)
	require.Len(t, cs, 1)
	assertVec(t, Vec2{0, 1}, cs[0].Normal)
	assert.InDelta(t, 0.05, cs[0].Depth, 1e-12)
	assertVec(t, Vec2{2, 0}, cs[0].PointA)
	assertVec(t, Vec2{2, -0.05}, cs[0].PointB)
	assertVec(t, Vec2{2, -0.025}, cs[0].Position())

	flipped := narrowphase(circle, plane, nil)
	require.Len(t, flipped, 1)
	assert.Same(t, circle, flipped[0].ShapeA)
	assertVec(t, Vec2{0, -1}, flipped[0].Normal)

	circle.Body().Position = Vec2{0, 0.3}
	assert.Empty(t, narrowphase(plane, circle, nil))
}

func TestNarrowphase_PlaneConvexVertexOrder(t *testing.T) {
	_, plane := attach(t, Plane{})
	_, box := attach(t, mustRect(t, 1, 0.5), WithMass(1), WithPosition(Vec2{0, 0.2}))

	cs := narrowphase(plane, box, nil)
	require.Len(t, cs, 2)
	for _, c := range cs {
		assertVec(t, Vec2{0, 1}, c.Normal)
		assert.InDelta(t, 0.05, c.Depth, 1e-12)
	}
	assert.InDelta(t, -0.5, cs[0].PointB[0], 1e-12)
	assert.InDelta(t, 0.5, cs[1].PointB[0], 1e-12)
}

func TestNarrowphase_TiltedPlane(t *testing.T) {
	_, plane := attach(t, Plane{}, WithAngle(-1.5707963267948966))
	_, circle := attach(t, mustCircle(t, 0.5), WithMass(1), WithPosition(Vec2{0.4, 3}))

	cs := narrowphase(plane, circle, nil)
	require.Len(t, cs, 1)
	assertVec(t, Vec2{1, 0}, cs[0].Normal)
	assert.InDelta(t, 0.1, cs[0].Depth, 1e-9)
}

func TestNarrowphase_CircleCircle(t *testing.T) {
	_, a := attach(t, mustCircle(t, 0.5), WithMass(1))
	_, b := attach(t, mustCircle(t, 0.5), WithMass(1), WithPosition(Vec2{0.8, 0}))

	cs := narrowphase(a, b, nil)
	require.Len(t, cs, 1)
	assertVec(t, Vec2{1, 0}, cs[0].Normal)
	assert.InDelta(t, 0.2, cs[0].Depth, 1e-12)
	assertVec(t, Vec2{0.5, 0}, cs[0].PointA)
	assertVec(t, Vec2{0.3, 0}, cs[0].PointB)

	b.Body().Position = Vec2{}
	cs = narrowphase(a, b, nil)
	require.Len(t, cs, 1)
	assertVec(t, Vec2{0, 1}, cs[0].Normal)
	assert.InDelta(t, 1.0, cs[0].Depth, 1e-12)
}

func TestNarrowphase_CircleConvex(t *testing.T) {
	_, circle := attach(t, mustCircle(t, 0.3), WithMass(1), WithPosition(Vec2{0, 0.7}))
	_, box := attach(t, mustRect(t, 1, 1), WithMass(1))

	cs := narrowphase(circle, box, nil)
	require.Len(t, cs, 1)
	assertVec(t, Vec2{0, -1}, cs[0].Normal)
	assert.InDelta(t, 0.1, cs[0].Depth, 1e-12)
	assertVec(t, Vec2{0, 0.4}, cs[0].PointA)
	assertVec(t, Vec2{0, 0.5}, cs[0].PointB)

	flipped := narrowphase(box, circle, nil)
	require.Len(t, flipped, 1)
	assert.Same(t, box, flipped[0].ShapeA)
	assertVec(t, Vec2{0, 1}, flipped[0].Normal)

	// vertex region
	circle.Body().Position = Vec2{0.7, 0.7}
	cs = narrowphase(circle, box, nil)
	require.Len(t, cs, 1)
	assertVec(t, Vec2{-0.7071067811865476, -0.7071067811865476}, cs[0].Normal)
	assert.InDelta(t, 0.3-0.28284271247461906, cs[0].Depth, 1e-9)

	// center inside the polygon
	circle.Body().Position = Vec2{0, 0.4}
	cs = narrowphase(circle, box, nil)
	require.Len(t, cs, 1)
	assertVec(t, Vec2{0, -1}, cs[0].Normal)
	assert.InDelta(t, 0.4, cs[0].Depth, 1e-12)

	circle.Body().Position = Vec2{2, 0}
	assert.Empty(t, narrowphase(circle, box, nil))
}

func TestNarrowphase_ConvexConvex(t *testing.T) {
	_, a := attach(t, mustRect(t, 1, 1), WithMass(1))
	_, b := attach(t, mustRect(t, 1, 1), WithMass(1), WithPosition(Vec2{0, 0.9}))

	cs := narrowphase(a, b, nil)
	require.Len(t, cs, 2)
	for _, c := range cs {
		assertVec(t, Vec2{0, 1}, c.Normal)
		assert.InDelta(t, 0.1, c.Depth, 1e-12)
		assert.InDelta(t, 0.5, c.PointA[1], 1e-12)
		assert.InDelta(t, 0.4, c.PointB[1], 1e-12)
	}
	assert.InDelta(t, -0.5, cs[0].PointB[0], 1e-12)
	assert.InDelta(t, 0.5, cs[1].PointB[0], 1e-12)

	b.Body().Position = Vec2{0, 1.1}
	assert.Empty(t, narrowphase(a, b, nil))
}

func TestNarrowphase_ConvexConvexClippedToReference(t *testing.T) {
	// the wide incident face is clipped to the small box's bottom face
	_, plank := attach(t, mustRect(t, 0.5, 0.5), WithMass(1), WithPosition(Vec2{0, 0.7}))
	_, floor := attach(t, mustRect(t, 4, 1), WithMass(1))

	cs := narrowphase(plank, floor, nil)
	require.Len(t, cs, 2)
	for _, c := range cs {
		assertVec(t, Vec2{0, -1}, c.Normal)
		assert.InDelta(t, 0.05, c.Depth, 1e-12)
		assert.InDelta(t, 0.45, c.PointA[1], 1e-12)
		assert.InDelta(t, 0.5, c.PointB[1], 1e-12)
	}
}

func TestNarrowphase_ConvexConvexReferenceOnB(t *testing.T) {
	// a diamond poking into a floor: the floor's top face is the reference
	_, diamond := attach(t, mustRect(t, 1, 1), WithMass(1),
		WithPosition(Vec2{0, 0.45 + math.Sqrt2/2}), WithAngle(math.Pi/4))
	_, floor := attach(t, mustRect(t, 4, 1), WithMass(1))

	cs := narrowphase(diamond, floor, nil)
	require.Len(t, cs, 1)
	assertVec(t, Vec2{0, -1}, cs[0].Normal)
	assert.InDelta(t, 0.05, cs[0].Depth, 1e-9)
	assertVec(t, Vec2{0, 0.45}, cs[0].PointA)
	assertVec(t, Vec2{0, 0.5}, cs[0].PointB)
}

func TestNarrowphase_Deterministic(t *testing.T) {
	_, a := attach(t, mustRect(t, 1, 1), WithMass(1))
	_, b := attach(t, mustRect(t, 1, 1), WithMass(1), WithPosition(Vec2{0, 1}))

	first := narrowphase(a, b, nil)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, narrowphase(a, b, nil))
	}
}
