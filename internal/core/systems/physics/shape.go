package physics

import (
	"math"
	"sync/atomic"
)

// Kind tags the geometry variant of a shape.
type Kind uint8

const (
	KindPlane Kind = iota
	KindCircle
	KindConvex
)

func (k Kind) String() string {
	switch k {
	case KindPlane:
		return "plane"
	case KindCircle:
		return "circle"
	case KindConvex:
		return "convex"
	default:
		return "unknown"
	}
}

// Geometry is the capability set every shape variant provides. All values
// are expressed in the shape's own local frame.
type Geometry interface {
	Kind() Kind
	Area() float64
	Centroid() Vec2
	// Inertia returns the moment of inertia about the centroid for the given mass.
	Inertia(mass float64) float64
	AABB(xf Transform) AABB
}

var (
	_ Geometry = Plane{}
	_ Geometry = (*Circle)(nil)
	_ Geometry = (*Convex)(nil)
)

// Plane is an infinite half-space. In its local frame the surface runs
// through the origin and the outward normal is +y.
type Plane struct{}

func (Plane) Kind() Kind               { return KindPlane }
func (Plane) Area() float64            { return 0 }
func (Plane) Centroid() Vec2           { return zeroVec }
func (Plane) Inertia(float64) float64  { return 0 }
func (Plane) AABB(Transform) AABB      { return infiniteAABB() }
func (Plane) normal(xf Transform) Vec2 { return rotate(worldUp, xf.Angle) }

// Circle is centered on its local origin.
type Circle struct {
	radius float64
}

func NewCircle(radius float64) (*Circle, error) {
	if !(radius > 0) || !finite(radius) {
		return nil, ErrInvalidRadius
	}
	return &Circle{radius: radius}, nil
}

func (c *Circle) Radius() float64 { return c.radius }

func (c *Circle) Kind() Kind     { return KindCircle }
func (c *Circle) Area() float64  { return math.Pi * c.radius * c.radius }
func (c *Circle) Centroid() Vec2 { return zeroVec }

func (c *Circle) Inertia(mass float64) float64 {
	return mass * c.radius * c.radius / 2
}

func (c *Circle) AABB(xf Transform) AABB {
	r := Vec2{c.radius, c.radius}
	return AABB{Min: xf.Pos.Sub(r), Max: xf.Pos.Add(r)}
}

// Convex is a convex polygon with counter-clockwise vertices.
type Convex struct {
	vertices []Vec2
	normals  []Vec2
	area     float64
	centroid Vec2
	// second moment of area about the local origin
	secondMoment float64
}

// NewConvex validates and copies the vertex list. Collinear vertices are
// accepted, duplicated or clockwise ones are not.
func NewConvex(vertices []Vec2) (*Convex, error) {
	n := len(vertices)
	if n < 3 {
		return nil, ErrDegeneratePolygon
	}
	verts := make([]Vec2, n)
	for i, v := range vertices {
		if !finiteVec(v) {
			return nil, ErrInvalidVector
		}
		verts[i] = v
	}

	normals := make([]Vec2, n)
	for i := 0; i < n; i++ {
		edge := verts[(i+1)%n].Sub(verts[i])
		if edge.Len() < 1e-9 {
			return nil, ErrDegeneratePolygon
		}
		normals[i], _ = normalizeOr(Vec2{edge[1], -edge[0]}, worldUp)
	}

	var area, cx, cy, moment float64
	for i := 0; i < n; i++ {
		p, q := verts[i], verts[(i+1)%n]
		c := cross(p, q)
		area += c / 2
		cx += (p[0] + q[0]) * c
		cy += (p[1] + q[1]) * c
		moment += c * (p.Dot(p) + p.Dot(q) + q.Dot(q))
	}
	if math.Abs(area) < 1e-12 {
		return nil, ErrDegeneratePolygon
	}
	if area < 0 {
		return nil, ErrClockwisePolygon
	}

	for i := 0; i < n; i++ {
		e1 := verts[(i+1)%n].Sub(verts[i])
		e2 := verts[(i+2)%n].Sub(verts[(i+1)%n])
		if cross(e1, e2) < -1e-12 {
			return nil, ErrNonConvexPolygon
		}
	}

	return &Convex{
		vertices:     verts,
		normals:      normals,
		area:         area,
		centroid:     Vec2{cx / (6 * area), cy / (6 * area)},
		secondMoment: moment / 12,
	}, nil
}

// NewRectangle builds a box of the given size centered on the local origin.
func NewRectangle(width, height float64) (*Convex, error) {
	if !(width > 0) || !(height > 0) || !finite(width) || !finite(height) {
		return nil, ErrInvalidSize
	}
	w, h := width/2, height/2
	return NewConvex([]Vec2{{-w, -h}, {w, -h}, {w, h}, {-w, h}})
}

// Vertices returns a copy of the local vertices.
func (c *Convex) Vertices() []Vec2 {
	return append([]Vec2(nil), c.vertices...)
}

func (c *Convex) Kind() Kind     { return KindConvex }
func (c *Convex) Area() float64  { return c.area }
func (c *Convex) Centroid() Vec2 { return c.centroid }

func (c *Convex) Inertia(mass float64) float64 {
	// second moment per unit area, shifted from the origin to the centroid
	perArea := c.secondMoment / c.area
	return mass * (perArea - c.centroid.Dot(c.centroid))
}

func (c *Convex) AABB(xf Transform) AABB {
	p := xf.Apply(c.vertices[0])
	box := AABB{Min: p, Max: p}
	for _, v := range c.vertices[1:] {
		box = box.extend(xf.Apply(v))
	}
	return box
}

func (c *Convex) worldVertices(xf Transform, dst []Vec2) []Vec2 {
	dst = dst[:0]
	for _, v := range c.vertices {
		dst = append(dst, xf.Apply(v))
	}
	return dst
}

var shapeIDs atomic.Uint64

// Shape attaches a geometry to a body with its own filter and material.
// A shape belongs to at most one body.
type Shape struct {
	id     uint64
	geom   Geometry
	offset Vec2
	angle  float64
	body   *Body

	Filter CollisionFilter
	// Friction overrides the world default when non-negative.
	Friction float64
}

type ShapeOption func(*Shape)

// WithFilter sets the collision group and mask.
func WithFilter(group, mask uint32) ShapeOption {
	return func(s *Shape) { s.Filter = CollisionFilter{Group: group, Mask: mask} }
}

// WithFriction sets a per-shape friction coefficient.
func WithFriction(mu float64) ShapeOption {
	return func(s *Shape) { s.Friction = mu }
}

func NewShape(geom Geometry, opts ...ShapeOption) (*Shape, error) {
	if geom == nil {
		return nil, ErrNilShape
	}
	s := &Shape{
		id:       shapeIDs.Add(1),
		geom:     geom,
		Filter:   DefaultFilter(),
		Friction: -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	if !finite(s.Friction) {
		return nil, ErrInvalidVector
	}
	return s, nil
}

func (s *Shape) ID() uint64         { return s.id }
func (s *Shape) Geometry() Geometry { return s.geom }
func (s *Shape) Kind() Kind         { return s.geom.Kind() }
func (s *Shape) Body() *Body        { return s.body }
func (s *Shape) Offset() Vec2       { return s.offset }
func (s *Shape) Angle() float64     { return s.angle }

// WorldTransform is the shape frame in world space. A detached shape
// reports its local frame.
func (s *Shape) WorldTransform() Transform {
	local := Transform{Pos: s.offset, Angle: s.angle}
	if s.body == nil {
		return local
	}
	return s.body.Transform().Compose(local)
}

func (s *Shape) AABB() AABB {
	return s.geom.AABB(s.WorldTransform())
}
