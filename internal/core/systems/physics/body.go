package physics

import (
	"fmt"
	"sync/atomic"
)

// BodyType distinguishes simulated bodies from immovable ones.
type BodyType uint8

const (
	Dynamic BodyType = iota
	Static
)

func (t BodyType) String() string {
	if t == Static {
		return "static"
	}
	return "dynamic"
}

const (
	DefaultDamping        = 0.1
	DefaultAngularDamping = 0.1
)

var bodyIDs atomic.Uint64

// Body is a rigid body. Its origin is the rotation reference: gravity and
// torques act about it, and it is the center of mass only when the shapes
// are balanced around it or AdjustCenterOfMass was called. The state fields
// are exported so step hooks can read positions and add forces; mass
// properties change only through AddShape, SetMass and SetDensity.
type Body struct {
	id uint64

	Position        Vec2
	Angle           float64
	Velocity        Vec2
	AngularVelocity float64

	// Force and AngularForce accumulate until the end of the next integration.
	Force        Vec2
	AngularForce float64

	Damping        float64
	AngularDamping float64

	typ           BodyType
	fixedRotation bool
	mass          float64
	invMass       float64
	inertia       float64
	invInertia    float64

	shapes []*Shape
	world  *World

	// solver accumulators
	vlambda Vec2
	wlambda float64
}

type bodyConfig struct {
	mass    float64
	hasMass bool
	typ     *BodyType
	body    Body
}

type BodyOption func(*bodyConfig)

// WithMass sets the body mass. Zero makes the body static.
func WithMass(mass float64) BodyOption {
	return func(c *bodyConfig) { c.mass, c.hasMass = mass, true }
}

func WithPosition(p Vec2) BodyOption {
	return func(c *bodyConfig) { c.body.Position = p }
}

func WithAngle(angle float64) BodyOption {
	return func(c *bodyConfig) { c.body.Angle = angle }
}

func WithVelocity(v Vec2) BodyOption {
	return func(c *bodyConfig) { c.body.Velocity = v }
}

func WithAngularVelocity(w float64) BodyOption {
	return func(c *bodyConfig) { c.body.AngularVelocity = w }
}

func WithDamping(d float64) BodyOption {
	return func(c *bodyConfig) { c.body.Damping = d }
}

func WithAngularDamping(d float64) BodyOption {
	return func(c *bodyConfig) { c.body.AngularDamping = d }
}

// WithFixedRotation keeps the body from rotating under any torque or contact.
func WithFixedRotation() BodyOption {
	return func(c *bodyConfig) { c.body.fixedRotation = true }
}

// WithType forces the body type. A dynamic body still needs a positive mass.
func WithType(t BodyType) BodyOption {
	return func(c *bodyConfig) { c.typ = &t }
}

// NewBody builds a body. Without WithMass, or with mass 0, the body is static.
func NewBody(opts ...BodyOption) (*Body, error) {
	cfg := bodyConfig{
		body: Body{
			Damping:        DefaultDamping,
			AngularDamping: DefaultAngularDamping,
		},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	b := cfg.body
	if !finiteVec(b.Position) || !finite(b.Angle) || !finiteVec(b.Velocity) || !finite(b.AngularVelocity) {
		return nil, ErrInvalidVector
	}
	if b.Damping < 0 || b.Damping > 1 || b.AngularDamping < 0 || b.AngularDamping > 1 {
		return nil, fmt.Errorf("%w: damping must be within [0, 1]", ErrInvalidConfig)
	}
	if cfg.mass < 0 || !finite(cfg.mass) {
		return nil, ErrInvalidMass
	}

	b.typ = Dynamic
	if cfg.mass == 0 {
		b.typ = Static
	}
	if cfg.typ != nil {
		b.typ = *cfg.typ
	}
	switch {
	case b.typ == Dynamic && cfg.mass == 0:
		return nil, ErrInvalidMass
	case b.typ == Static && cfg.hasMass && cfg.mass != 0:
		return nil, fmt.Errorf("%w: static body with non-zero mass", ErrInvalidMass)
	}

	b.id = bodyIDs.Add(1)
	b.mass = cfg.mass
	if b.typ == Static {
		b.Velocity, b.AngularVelocity = zeroVec, 0
	}
	b.updateMassProperties()
	return &b, nil
}

func (b *Body) ID() uint64           { return b.id }
func (b *Body) Type() BodyType       { return b.typ }
func (b *Body) IsStatic() bool       { return b.typ == Static }
func (b *Body) Mass() float64        { return b.mass }
func (b *Body) InvMass() float64     { return b.invMass }
func (b *Body) Inertia() float64     { return b.inertia }
func (b *Body) InvInertia() float64  { return b.invInertia }
func (b *Body) FixedRotation() bool  { return b.fixedRotation }
func (b *Body) World() *World        { return b.world }
func (b *Body) Transform() Transform { return Transform{Pos: b.Position, Angle: b.Angle} }

// Shapes returns the attached shapes in insertion order.
func (b *Body) Shapes() []*Shape {
	return append([]*Shape(nil), b.shapes...)
}

// AddShape attaches shape at the given local offset and angle and
// recomputes mass properties.
func (b *Body) AddShape(shape *Shape, offset Vec2, angle float64) error {
	if shape == nil {
		return ErrNilShape
	}
	if shape.body != nil {
		return ErrShapeOwned
	}
	if !finiteVec(offset) || !finite(angle) {
		return ErrInvalidVector
	}
	if b.world != nil && b.world.locked {
		return ErrWorldLocked
	}
	shape.body = b
	shape.offset = offset
	shape.angle = angle
	b.shapes = append(b.shapes, shape)
	b.updateMassProperties()
	return nil
}

// RemoveShape detaches shape. It reports whether the shape was attached.
func (b *Body) RemoveShape(shape *Shape) (bool, error) {
	if b.world != nil && b.world.locked {
		return false, ErrWorldLocked
	}
	for i, s := range b.shapes {
		if s == shape {
			b.shapes = append(b.shapes[:i], b.shapes[i+1:]...)
			shape.body = nil
			b.updateMassProperties()
			return true, nil
		}
	}
	return false, nil
}

// AABB is the union of the shape boxes.
func (b *Body) AABB() AABB {
	if len(b.shapes) == 0 {
		return AABB{Min: b.Position, Max: b.Position}
	}
	box := b.shapes[0].AABB()
	for _, s := range b.shapes[1:] {
		sb := s.AABB()
		box = box.extend(sb.Min).extend(sb.Max)
	}
	return box
}

// ToWorld maps a body-local point to world space.
func (b *Body) ToWorld(local Vec2) Vec2 {
	return b.Transform().Apply(local)
}

// ToLocal maps a world point into the body frame.
func (b *Body) ToLocal(world Vec2) Vec2 {
	return b.Transform().ApplyInverse(world)
}

// VelocityAt returns the velocity of the material point at world position p.
func (b *Body) VelocityAt(p Vec2) Vec2 {
	return b.Velocity.Add(crossSV(b.AngularVelocity, p.Sub(b.Position)))
}

// ApplyForce adds force at a world point, producing torque about the body origin.
func (b *Body) ApplyForce(force, point Vec2) {
	b.Force = b.Force.Add(force)
	b.AngularForce += cross(point.Sub(b.Position), force)
}

// KineticEnergy is the translational plus rotational kinetic energy.
func (b *Body) KineticEnergy() float64 {
	return 0.5*b.mass*b.Velocity.Dot(b.Velocity) + 0.5*b.inertia*b.AngularVelocity*b.AngularVelocity
}
