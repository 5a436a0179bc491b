package physics

import "math"

// DefaultMaxForce bounds the force any joint row may apply.
const DefaultMaxForce = 1e6

// Constraint is a joint between two bodies solved as velocity rows. The
// set of implementations is closed: rows are produced by this package.
type Constraint interface {
	BodyA() *Body
	BodyB() *Body
	// CollideConnected reports whether contacts between the two bodies
	// are still generated.
	CollideConnected() bool
	SetCollideConnected(bool)

	// appendEquations adds the rows active for this step to out.
	appendEquations(out []*equation, h float64, cfg *Config) []*equation
	base() *constraintBase
}

type constraintBase struct {
	bodyA, bodyB     *Body
	collideConnected bool
	world            *World
}

func newConstraintBase(a, b *Body) (constraintBase, error) {
	if a == nil || b == nil {
		return constraintBase{}, ErrNilBody
	}
	if a == b {
		return constraintBase{}, ErrSameBody
	}
	return constraintBase{bodyA: a, bodyB: b, collideConnected: true}, nil
}

func (c *constraintBase) BodyA() *Body               { return c.bodyA }
func (c *constraintBase) BodyB() *Body               { return c.bodyB }
func (c *constraintBase) CollideConnected() bool     { return c.collideConnected }
func (c *constraintBase) SetCollideConnected(v bool) { c.collideConnected = v }

func (c *constraintBase) base() *constraintBase { return c }

func validForce(f float64) bool {
	return f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f)
}
