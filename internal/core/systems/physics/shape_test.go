package physics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConvex_Validation(t *testing.T) {
	tests := []struct {
		name     string
		vertices []Vec2
		err      error
	}{
		{name: "two vertices", vertices: []Vec2{{0, 0}, {1, 0}}, err: ErrDegeneratePolygon},
		{name: "collinear", vertices: []Vec2{{0, 0}, {1, 0}, {2, 0}}, err: ErrDegeneratePolygon},
		{name: "duplicate vertex", vertices: []Vec2{{0, 0}, {0, 0}, {1, 1}}, err: ErrDegeneratePolygon},
		{name: "clockwise", vertices: []Vec2{{0, 0}, {0, 1}, {1, 0}}, err: ErrClockwisePolygon},
		{name: "non convex", vertices: []Vec2{{0, 0}, {2, 0}, {2, 2}, {1, 0.5}, {0, 2}}, err: ErrNonConvexPolygon},
		{name: "nan", vertices: []Vec2{{0, 0}, {1, 0}, {math.NaN(), 1}}, err: ErrInvalidVector},
		{name: "triangle", vertices: []Vec2{{0, 0}, {1, 0}, {1, 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewConvex(tt.vertices)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				assert.Nil(t, c)
				return
			}
			require.NoError(t, err)
			assert.Len(t, c.Vertices(), len(tt.vertices))
		})
	}
}

func TestConvex_MassProperties(t *testing.T) {
	tri, err := NewConvex([]Vec2{{0, 0}, {1, 0}, {1, 1}})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, tri.Area(), 1e-12)
	assert.InDelta(t, 2.0/3.0, tri.Centroid()[0], 1e-12)
	assert.InDelta(t, 1.0/3.0, tri.Centroid()[1], 1e-12)
	assert.InDelta(t, 1.0/9.0, tri.Inertia(1), 1e-12)

	box, err := NewRectangle(1, 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, box.Area(), 1e-12)
	assert.InDelta(t, (1+0.25)/12, box.Inertia(1), 1e-12)
	assert.InDelta(t, 0, box.Centroid().Len(), 1e-12)
}

func TestConvex_Normals(t *testing.T) {
	box, err := NewRectangle(2, 2)
	require.NoError(t, err)
	want := []Vec2{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}
	for i, n := range box.normals {
		assert.InDelta(t, want[i][0], n[0], 1e-12)
		assert.InDelta(t, want[i][1], n[1], 1e-12)
	}
}

func TestCircleAndRectangle_Validation(t *testing.T) {
	_, err := NewCircle(0)
	assert.ErrorIs(t, err, ErrInvalidRadius)
	_, err = NewCircle(math.Inf(1))
	assert.ErrorIs(t, err, ErrInvalidRadius)
	_, err = NewRectangle(1, -1)
	assert.ErrorIs(t, err, ErrInvalidSize)

	c, err := NewCircle(0.3)
	require.NoError(t, err)
	assert.InDelta(t, math.Pi*0.09, c.Area(), 1e-12)
	assert.InDelta(t, 0.045, c.Inertia(1), 1e-12)
}

func TestShape_OwnedByOneBody(t *testing.T) {
	circle, err := NewCircle(0.5)
	require.NoError(t, err)
	shape, err := NewShape(circle)
	require.NoError(t, err)
	assert.Equal(t, DefaultFilter(), shape.Filter)
	assert.Negative(t, shape.Friction)

	a, err := NewBody(WithMass(1))
	require.NoError(t, err)
	b, err := NewBody(WithMass(1))
	require.NoError(t, err)

	require.NoError(t, a.AddShape(shape, Vec2{}, 0))
	assert.ErrorIs(t, b.AddShape(shape, Vec2{}, 0), ErrShapeOwned)
	assert.ErrorIs(t, b.AddShape(nil, Vec2{}, 0), ErrNilShape)
	assert.Same(t, a, shape.Body())

	removed, err := a.RemoveShape(shape)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Nil(t, shape.Body())
	require.NoError(t, b.AddShape(shape, Vec2{}, 0))
}

func TestShape_WorldTransformAndAABB(t *testing.T) {
	box, err := NewRectangle(2, 1)
	require.NoError(t, err)
	shape, err := NewShape(box)
	require.NoError(t, err)
	body, err := NewBody(WithMass(1), WithPosition(Vec2{1, 1}), WithAngle(math.Pi/2))
	require.NoError(t, err)
	require.NoError(t, body.AddShape(shape, Vec2{1, 0}, 0))

	xf := shape.WorldTransform()
	assert.InDelta(t, 1, xf.Pos[0], 1e-12)
	assert.InDelta(t, 2, xf.Pos[1], 1e-12)

	aabb := shape.AABB()
	assert.InDelta(t, 0.5, aabb.Min[0], 1e-9)
	assert.InDelta(t, 1.5, aabb.Max[0], 1e-9)
	assert.InDelta(t, 1, aabb.Min[1], 1e-9)
	assert.InDelta(t, 3, aabb.Max[1], 1e-9)

	plane, err := NewShape(Plane{})
	require.NoError(t, err)
	assert.True(t, plane.AABB().Overlaps(aabb))
	far := AABB{Min: Vec2{1e9, -1e9}, Max: Vec2{1e9 + 1, -1e9 + 1}}
	assert.True(t, plane.AABB().Overlaps(far))
}

func TestCollisionFilter_CanCollide(t *testing.T) {
	const wheels, chassis, ground = 1, 2, 4
	wheel := CollisionFilter{Group: wheels, Mask: ground}
	body := CollisionFilter{Group: chassis, Mask: ground | chassis}
	floor := CollisionFilter{Group: ground, Mask: wheels | chassis}

	assert.True(t, wheel.CanCollide(floor))
	assert.True(t, floor.CanCollide(wheel))
	assert.True(t, body.CanCollide(floor))
	assert.False(t, wheel.CanCollide(body))
	assert.False(t, body.CanCollide(wheel))
	assert.False(t, wheel.CanCollide(wheel))
	assert.True(t, DefaultFilter().CanCollide(DefaultFilter()))
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "plane", KindPlane.String())
	assert.Equal(t, "circle", KindCircle.String())
	assert.Equal(t, "convex", KindConvex.String())
	assert.Equal(t, "unknown", Kind(42).String())
}
