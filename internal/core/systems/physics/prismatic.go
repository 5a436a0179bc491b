package physics

import (
	"fmt"
	"math"
)

// limitSlop is how close to a translation limit the limit row switches on.
const limitSlop = 0.01

// Prismatic limit defaults. Limits start disabled.
const (
	DefaultLowerLimit = 0.0
	DefaultUpperLimit = 1.0
)

// PrismaticOptions configures a slider joint. LocalAxisA is expressed in
// body A's frame and is normalized on construction.
type PrismaticOptions struct {
	LocalAnchorA          Vec2
	LocalAnchorB          Vec2
	LocalAxisA            Vec2
	DisableRotationalLock bool
	// MaxForce bounds every row; zero selects DefaultMaxForce.
	MaxForce float64
}

// PrismaticConstraint lets body B slide along an axis fixed in body A.
// Unless the rotational lock is disabled the relative angle is held at the
// value it had on construction.
type PrismaticConstraint struct {
	constraintBase

	localAnchorA Vec2
	localAnchorB Vec2
	localAxisA   Vec2
	rotationLock bool
	maxForce     float64
	refAngle     float64

	lowerEnabled bool
	upperEnabled bool
	lowerLimit   float64
	upperLimit   float64

	perpRow, angleRow, lowerRow, upperRow equation
}

var _ Constraint = (*PrismaticConstraint)(nil)

func NewPrismaticConstraint(a, b *Body, opts PrismaticOptions) (*PrismaticConstraint, error) {
	base, err := newConstraintBase(a, b)
	if err != nil {
		return nil, err
	}
	if !finiteVec(opts.LocalAnchorA) || !finiteVec(opts.LocalAnchorB) {
		return nil, ErrInvalidVector
	}
	axis, ok := normalizeOr(opts.LocalAxisA, zeroVec)
	if !ok {
		return nil, ErrZeroAxis
	}
	maxForce := opts.MaxForce
	if maxForce == 0 {
		maxForce = DefaultMaxForce
	}
	if !validForce(maxForce) {
		return nil, fmt.Errorf("%w: max force %v", ErrInvalidConfig, opts.MaxForce)
	}

	return &PrismaticConstraint{
		constraintBase: base,
		localAnchorA:   opts.LocalAnchorA,
		localAnchorB:   opts.LocalAnchorB,
		localAxisA:     axis,
		rotationLock:   !opts.DisableRotationalLock,
		maxForce:       maxForce,
		refAngle:       b.Angle - a.Angle,
		lowerLimit:     DefaultLowerLimit,
		upperLimit:     DefaultUpperLimit,
	}, nil
}

func (c *PrismaticConstraint) LocalAnchorA() Vec2      { return c.localAnchorA }
func (c *PrismaticConstraint) LocalAnchorB() Vec2      { return c.localAnchorB }
func (c *PrismaticConstraint) LocalAxisA() Vec2        { return c.localAxisA }
func (c *PrismaticConstraint) RotationalLock() bool    { return c.rotationLock }
func (c *PrismaticConstraint) LowerLimitEnabled() bool { return c.lowerEnabled }
func (c *PrismaticConstraint) UpperLimitEnabled() bool { return c.upperEnabled }
func (c *PrismaticConstraint) LowerLimit() float64     { return c.lowerLimit }
func (c *PrismaticConstraint) UpperLimit() float64     { return c.upperLimit }

// EnableLowerLimit toggles the lower limit. Enabling fails when the
// resulting range would be empty.
func (c *PrismaticConstraint) EnableLowerLimit(enabled bool) error {
	return c.applyLimits(enabled, c.upperEnabled, c.lowerLimit, c.upperLimit)
}

func (c *PrismaticConstraint) EnableUpperLimit(enabled bool) error {
	return c.applyLimits(c.lowerEnabled, enabled, c.lowerLimit, c.upperLimit)
}

func (c *PrismaticConstraint) SetLowerLimit(v float64) error {
	return c.applyLimits(c.lowerEnabled, c.upperEnabled, v, c.upperLimit)
}

func (c *PrismaticConstraint) SetUpperLimit(v float64) error {
	return c.applyLimits(c.lowerEnabled, c.upperEnabled, c.lowerLimit, v)
}

// SetLimits assigns both limit values at once.
func (c *PrismaticConstraint) SetLimits(lower, upper float64) error {
	return c.applyLimits(c.lowerEnabled, c.upperEnabled, lower, upper)
}

// applyLimits commits the new limit state only if it is consistent.
func (c *PrismaticConstraint) applyLimits(lowerOn, upperOn bool, lower, upper float64) error {
	if !finite(lower) || !finite(upper) {
		return fmt.Errorf("%w: non-finite limit", ErrInvalidLimits)
	}
	if lowerOn && upperOn && lower > upper {
		return fmt.Errorf("%w: lower %v > upper %v", ErrInvalidLimits, lower, upper)
	}
	c.lowerEnabled, c.upperEnabled = lowerOn, upperOn
	c.lowerLimit, c.upperLimit = lower, upper
	return nil
}

type prismaticFrame struct {
	rA, rB Vec2
	d      Vec2
	axis   Vec2
	normal Vec2
}

func (c *PrismaticConstraint) frame() prismaticFrame {
	A, B := c.bodyA, c.bodyB
	rA := rotate(c.localAnchorA, A.Angle)
	rB := rotate(c.localAnchorB, B.Angle)
	d := B.Position.Add(rB).Sub(A.Position.Add(rA))
	t := rotate(c.localAxisA, A.Angle)
	return prismaticFrame{rA: rA, rB: rB, d: d, axis: t, normal: perp(t)}
}

// Translation is the anchor separation projected on the world axis.
func (c *PrismaticConstraint) Translation() float64 {
	f := c.frame()
	return f.d.Dot(f.axis)
}

// PerpendicularError is how far B's anchor has drifted off the axis.
func (c *PrismaticConstraint) PerpendicularError() float64 {
	f := c.frame()
	return f.d.Dot(f.normal)
}

func (c *PrismaticConstraint) appendEquations(out []*equation, h float64, cfg *Config) []*equation {
	f := c.frame()
	A, B := c.bodyA, c.bodyB
	impulse := c.maxForce * h
	arm := f.d.Add(f.rA)

	setup := func(eq *equation, lo, hi float64) {
		eq.reset(A, B)
		eq.minImpulse, eq.maxImpulse = lo, hi
		eq.stiffness, eq.relaxation = cfg.Stiffness, cfg.Relaxation
	}

	setup(&c.perpRow, -impulse, impulse)
	n := f.normal
	c.perpRow.setJacobian(n.Mul(-1), -cross(arm, n), n, cross(f.rB, n))
	c.perpRow.offset = f.d.Dot(n)
	out = append(out, &c.perpRow)

	if c.rotationLock {
		setup(&c.angleRow, -impulse, impulse)
		c.angleRow.setJacobian(zeroVec, -1, zeroVec, 1)
		c.angleRow.offset = B.Angle - A.Angle - c.refAngle
		out = append(out, &c.angleRow)
	}

	t := f.axis
	s := f.d.Dot(t)
	if c.lowerEnabled {
		setup(&c.lowerRow, 0, impulse)
		c.lowerRow.setJacobian(t.Mul(-1), -cross(arm, t), t, cross(f.rB, t))
		c.lowerRow.offset = s - c.lowerLimit
		if limitApproached(&c.lowerRow, h) {
			out = append(out, &c.lowerRow)
		}
	}
	if c.upperEnabled {
		setup(&c.upperRow, 0, impulse)
		c.upperRow.setJacobian(t, cross(arm, t), t.Mul(-1), -cross(f.rB, t))
		c.upperRow.offset = c.upperLimit - s
		if limitApproached(&c.upperRow, h) {
			out = append(out, &c.upperRow)
		}
	}
	return out
}

// limitApproached reports whether a one-sided limit row is violated now or
// would come within the slop during this step at the current rate.
func limitApproached(eq *equation, h float64) bool {
	gap := eq.offset
	if gap < limitSlop {
		return true
	}
	return gap+math.Min(0, eq.gw())*h < limitSlop
}
