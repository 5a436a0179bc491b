package physics

// SpringOptions configures a linear spring. Anchors are body-local.
type SpringOptions struct {
	RestLength   float64 `yaml:"restLength" json:"restLength"`
	Stiffness    float64 `yaml:"stiffness" json:"stiffness"`
	Damping      float64 `yaml:"damping" json:"damping"`
	LocalAnchorA Vec2    `yaml:"localAnchorA" json:"localAnchorA"`
	LocalAnchorB Vec2    `yaml:"localAnchorB" json:"localAnchorB"`
}

// Spring is a damped linear spring between two body anchors. It is applied
// as an explicit force before the solver runs and takes no part in it.
type Spring struct {
	bodyA, bodyB *Body
	opts         SpringOptions
	world        *World
}

func NewSpring(a, b *Body, opts SpringOptions) (*Spring, error) {
	if a == nil || b == nil {
		return nil, ErrNilBody
	}
	if a == b {
		return nil, ErrSameBody
	}
	for _, v := range []float64{opts.RestLength, opts.Stiffness, opts.Damping} {
		if v < 0 || !finite(v) {
			return nil, ErrInvalidSpring
		}
	}
	if !finiteVec(opts.LocalAnchorA) || !finiteVec(opts.LocalAnchorB) {
		return nil, ErrInvalidVector
	}
	return &Spring{bodyA: a, bodyB: b, opts: opts}, nil
}

func (s *Spring) BodyA() *Body           { return s.bodyA }
func (s *Spring) BodyB() *Body           { return s.bodyB }
func (s *Spring) Options() SpringOptions { return s.opts }
func (s *Spring) RestLength() float64    { return s.opts.RestLength }
func (s *Spring) Stiffness() float64     { return s.opts.Stiffness }
func (s *Spring) Damping() float64       { return s.opts.Damping }

// Length is the current distance between the world anchors.
func (s *Spring) Length() float64 {
	return Distance(s.bodyA.ToWorld(s.opts.LocalAnchorA), s.bodyB.ToWorld(s.opts.LocalAnchorB))
}

// PotentialEnergy is the elastic energy stored at the current length.
func (s *Spring) PotentialEnergy() float64 {
	x := s.Length() - s.opts.RestLength
	return 0.5 * s.opts.Stiffness * x * x
}

// applyForce adds the spring force to both bodies. When the anchors
// coincide the direction falls back to the line between the body centers,
// then to +y, so the force is never NaN.
func (s *Spring) applyForce() {
	A, B := s.bodyA, s.bodyB
	wA := A.ToWorld(s.opts.LocalAnchorA)
	wB := B.ToWorld(s.opts.LocalAnchorB)

	r := wB.Sub(wA)
	length := r.Len()
	dir, ok := normalizeOr(r, zeroVec)
	if !ok {
		dir, _ = normalizeOr(B.Position.Sub(A.Position), worldUp)
	}

	u := B.VelocityAt(wB).Sub(A.VelocityAt(wA))
	f := -s.opts.Stiffness*(length-s.opts.RestLength) - s.opts.Damping*u.Dot(dir)
	force := dir.Mul(f)

	A.ApplyForce(force.Mul(-1), wA)
	B.ApplyForce(force, wB)
}
