package physics

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/zeusync/physics2d/internal/core/events/bus"
	"github.com/zeusync/physics2d/internal/core/observability/log"
	"github.com/zeusync/physics2d/pkg/generic"
)

// rowBuffer is per-step scratch space for solver rows.
type rowBuffer struct {
	contactRows []equation
	rows        []*equation
}

var worldIDs atomic.Uint64

var rowBuffers = generic.NewPool(
	func() *rowBuffer { return &rowBuffer{} },
	generic.WithReset(func(b *rowBuffer) {
		clear(b.rows)
		b.rows = b.rows[:0]
		b.contactRows = b.contactRows[:0]
	}),
)

// World owns bodies, constraints and springs and advances them in fixed
// steps. It is single-threaded: callers serialize all access, and
// membership changes are rejected while the collide, solve and integrate
// phases run.
type World struct {
	cfg    Config
	logger log.Log
	events bus.EventBus
	source string
	solver gsSolver

	bodies      []*Body
	constraints []Constraint
	springs     []*Spring

	contacts    []Contact
	activePairs []activePair
	pairBuf     []activePair

	time      float64
	stepCount uint64
	stepping  bool
	locked    bool
	profile   Profile
}

type WorldOption func(*World)

func WithLogger(l log.Log) WorldOption {
	return func(w *World) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithEventBus shares an existing bus. Event handlers still run inline.
func WithEventBus(b bus.EventBus) WorldOption {
	return func(w *World) {
		if b != nil {
			w.events = b
		}
	}
}

func NewWorld(cfg Config, opts ...WorldOption) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	w := &World{
		cfg:    cfg,
		logger: log.NewNop(),
		events: bus.New(),
		source: fmt.Sprintf("physics.world/%d", worldIDs.Add(1)),
		solver: gsSolver{iterations: cfg.Iterations, tolerance: cfg.Tolerance},
	}
	for _, opt := range opts {
		opt(w)
	}
	if cfg.Profiling {
		w.events.AddObserver(eventProfiler{w: w})
	}
	return w, nil
}

func (w *World) Config() Config       { return w.cfg }
func (w *World) Time() float64        { return w.time }
func (w *World) StepCount() uint64    { return w.stepCount }
func (w *World) Profile() Profile     { return w.profile }
func (w *World) Events() bus.EventBus { return w.events }

// Locked reports whether the step pipeline is currently between its
// external-force and integration phases.
func (w *World) Locked() bool { return w.locked }

func (w *World) Bodies() []*Body { return append([]*Body(nil), w.bodies...) }

func (w *World) Constraints() []Constraint {
	return append([]Constraint(nil), w.constraints...)
}

func (w *World) Springs() []*Spring { return append([]*Spring(nil), w.springs...) }

// Contacts returns the contacts found by the last step.
func (w *World) Contacts() []Contact { return append([]Contact(nil), w.contacts...) }

// SetGravity changes gravity between steps.
func (w *World) SetGravity(g Vec2) error {
	if !finiteVec(g) {
		return ErrInvalidVector
	}
	w.cfg.Gravity = g
	return nil
}

// SetDefaultFriction sets the friction used by shapes without their own.
func (w *World) SetDefaultFriction(mu float64) error {
	if mu < 0 || !finite(mu) {
		return fmt.Errorf("%w: default friction must be non-negative", ErrInvalidConfig)
	}
	w.cfg.DefaultFriction = mu
	return nil
}

// AddBody adds b and then fires addBody. Handler errors are returned but
// the body stays in the world.
func (w *World) AddBody(b *Body) error {
	if b == nil {
		return ErrNilBody
	}
	if w.locked {
		return ErrWorldLocked
	}
	if b.world != nil {
		return ErrAlreadyAdded
	}
	b.world = w
	w.bodies = append(w.bodies, b)
	w.logger.Debug("body added",
		log.Uint64("body_id", b.id),
		log.String("type", b.typ.String()),
		log.Int("shapes", len(b.shapes)),
	)
	return w.emit(EventAddBody, BodyEvent{Body: b})
}

// RemoveBody removes b together with every constraint and spring attached to it.
func (w *World) RemoveBody(b *Body) error {
	if b == nil {
		return ErrNilBody
	}
	if w.locked {
		return ErrWorldLocked
	}
	idx := indexOf(w.bodies, b)
	if idx < 0 || b.world != w {
		return ErrBodyNotFound
	}
	w.bodies = append(w.bodies[:idx], w.bodies[idx+1:]...)
	b.world = nil

	var errs []error
	for i := 0; i < len(w.constraints); {
		c := w.constraints[i]
		if c.BodyA() == b || c.BodyB() == b {
			w.constraints = append(w.constraints[:i], w.constraints[i+1:]...)
			c.base().world = nil
			errs = append(errs, w.emit(EventRemoveConstraint, ConstraintEvent{Constraint: c}))
			continue
		}
		i++
	}
	for i := 0; i < len(w.springs); {
		s := w.springs[i]
		if s.bodyA == b || s.bodyB == b {
			w.springs = append(w.springs[:i], w.springs[i+1:]...)
			s.world = nil
			errs = append(errs, w.emit(EventRemoveSpring, SpringEvent{Spring: s}))
			continue
		}
		i++
	}
	w.dropPairs(b)

	w.logger.Debug("body removed", log.Uint64("body_id", b.id))
	errs = append(errs, w.emit(EventRemoveBody, BodyEvent{Body: b}))
	return errors.Join(errs...)
}

func (w *World) AddConstraint(c Constraint) error {
	if c == nil {
		return fmt.Errorf("%w: nil constraint", ErrInvalidConfig)
	}
	if w.locked {
		return ErrWorldLocked
	}
	base := c.base()
	if base.world != nil {
		return ErrAlreadyAdded
	}
	if base.bodyA.world != w || base.bodyB.world != w {
		return ErrForeignBody
	}
	base.world = w
	w.constraints = append(w.constraints, c)
	w.logger.Debug("constraint added",
		log.Uint64("body_a", base.bodyA.id),
		log.Uint64("body_b", base.bodyB.id),
	)
	return w.emit(EventAddConstraint, ConstraintEvent{Constraint: c})
}

func (w *World) RemoveConstraint(c Constraint) error {
	if c == nil {
		return ErrNotFound
	}
	if w.locked {
		return ErrWorldLocked
	}
	idx := indexOf(w.constraints, c)
	if idx < 0 {
		return ErrNotFound
	}
	w.constraints = append(w.constraints[:idx], w.constraints[idx+1:]...)
	c.base().world = nil
	return w.emit(EventRemoveConstraint, ConstraintEvent{Constraint: c})
}

func (w *World) AddSpring(s *Spring) error {
	if s == nil {
		return fmt.Errorf("%w: nil spring", ErrInvalidConfig)
	}
	if w.locked {
		return ErrWorldLocked
	}
	if s.world != nil {
		return ErrAlreadyAdded
	}
	if s.bodyA.world != w || s.bodyB.world != w {
		return ErrForeignBody
	}
	s.world = w
	w.springs = append(w.springs, s)
	w.logger.Debug("spring added",
		log.Uint64("body_a", s.bodyA.id),
		log.Uint64("body_b", s.bodyB.id),
		log.Float64("rest_length", s.opts.RestLength),
	)
	return w.emit(EventAddSpring, SpringEvent{Spring: s})
}

func (w *World) RemoveSpring(s *Spring) error {
	if s == nil {
		return ErrNotFound
	}
	if w.locked {
		return ErrWorldLocked
	}
	idx := indexOf(w.springs, s)
	if idx < 0 {
		return ErrNotFound
	}
	w.springs = append(w.springs[:idx], w.springs[idx+1:]...)
	s.world = nil
	return w.emit(EventRemoveSpring, SpringEvent{Spring: s})
}

// Step advances the world by dt. Phases run strictly in order:
// external forces, springs, collide, build constraints, solve velocities,
// integrate positions, fire events. Errors returned by event handlers are
// joined and returned after the step has completed.
func (w *World) Step(dt float64) error {
	if !(dt > 0) || !finite(dt) {
		return ErrInvalidTimeStep
	}
	if w.stepping {
		return ErrStepInProgress
	}
	w.stepping = true
	defer func() { w.stepping = false }()

	timer := w.startTimer()
	counts := StepCounts{Bodies: len(w.bodies)}

	w.locked = true
	w.applyExternalForces(dt)
	timer.done(PhaseExternalForces)

	for _, s := range w.springs {
		s.applyForce()
	}
	timer.done(PhaseSprings)

	counts.PairsTested = w.collide()
	counts.Contacts = len(w.contacts)
	timer.done(PhaseCollide)

	buf := rowBuffers.Get()
	w.buildEquations(buf, dt)
	timer.done(PhaseBuildConstraints)

	stats := w.solver.solve(dt, buf.rows, w.bodies)
	rowBuffers.Put(buf)
	counts.Equations = stats.Equations
	counts.SolverIterations = stats.Iterations
	counts.SolverResidual = stats.Residual
	timer.done(PhaseSolveVelocities)

	w.integrate(dt)
	timer.done(PhaseIntegratePositions)
	w.locked = false

	for _, b := range w.bodies {
		b.Force, b.AngularForce = zeroVec, 0
	}
	w.time += dt
	w.stepCount++

	err := w.fireEvents(dt)
	timer.done(PhaseFireEvents)

	w.profile.LastCounts = counts
	timer.finish()
	return err
}

func (w *World) applyExternalForces(h float64) {
	g := w.cfg.Gravity
	for _, b := range w.bodies {
		if b.typ == Static {
			continue
		}
		b.Force = b.Force.Add(g.Mul(b.mass))
		if b.Damping > 0 {
			b.Velocity = b.Velocity.Mul(math.Pow(1-b.Damping, h))
		}
		if b.AngularDamping > 0 {
			b.AngularVelocity *= math.Pow(1-b.AngularDamping, h)
		}
	}
}

// collide runs the naive all-pairs broadphase followed by the narrowphase.
// It returns the number of shape pairs that reached the narrowphase.
func (w *World) collide() int {
	var skip map[shapePair]struct{}
	for _, c := range w.constraints {
		if c.CollideConnected() {
			continue
		}
		if skip == nil {
			skip = make(map[shapePair]struct{})
		}
		skip[bodyPairKey(c.BodyA(), c.BodyB())] = struct{}{}
	}

	clear(w.contacts)
	w.contacts = w.contacts[:0]
	tested := 0
	for i, a := range w.bodies {
		for _, b := range w.bodies[i+1:] {
			if a.typ == Static && b.typ == Static {
				continue
			}
			if _, ok := skip[bodyPairKey(a, b)]; ok {
				continue
			}
			for _, sa := range a.shapes {
				for _, sb := range b.shapes {
					if !sa.Filter.CanCollide(sb.Filter) {
						continue
					}
					if !sa.AABB().Overlaps(sb.AABB()) {
						continue
					}
					tested++
					w.contacts = narrowphase(sa, sb, w.contacts)
				}
			}
		}
	}
	return tested
}

func bodyPairKey(a, b *Body) shapePair {
	if a.id > b.id {
		a, b = b, a
	}
	return shapePair{a.id, b.id}
}

// buildEquations collects joint rows first, then one normal row per
// contact, then the friction rows bound to those normals.
func (w *World) buildEquations(buf *rowBuffer, h float64) {
	for _, c := range w.constraints {
		buf.rows = c.appendEquations(buf.rows, h, &w.cfg)
	}
	if len(w.contacts) == 0 {
		return
	}

	n := len(w.contacts)
	if cap(buf.contactRows) < 2*n {
		buf.contactRows = make([]equation, 0, 2*n)
	}
	buf.contactRows = buf.contactRows[:2*n]
	normals, frictions := buf.contactRows[:n], buf.contactRows[n:]

	for i, ct := range w.contacts {
		A, B := ct.BodyA, ct.BodyB
		ri := ct.PointA.Sub(A.Position)
		rj := ct.PointB.Sub(B.Position)

		eq := &normals[i]
		eq.reset(A, B)
		eq.setJacobian(ct.Normal.Mul(-1), -cross(ri, ct.Normal), ct.Normal, cross(rj, ct.Normal))
		eq.offset = -ct.Depth
		eq.minImpulse, eq.maxImpulse = 0, math.MaxFloat64
		eq.stiffness, eq.relaxation = w.cfg.Stiffness, w.cfg.Relaxation
		buf.rows = append(buf.rows, eq)
	}
	for i, ct := range w.contacts {
		mu := w.friction(ct.ShapeA, ct.ShapeB)
		if mu <= 0 {
			continue
		}
		A, B := ct.BodyA, ct.BodyB
		ri := ct.PointA.Sub(A.Position)
		rj := ct.PointB.Sub(B.Position)
		t := perp(ct.Normal)

		eq := &frictions[i]
		eq.reset(A, B)
		eq.setJacobian(t.Mul(-1), -cross(ri, t), t, cross(rj, t))
		eq.normal = &normals[i]
		eq.friction = mu
		eq.stiffness, eq.relaxation = w.cfg.FrictionStiffness, w.cfg.FrictionRelaxation
		buf.rows = append(buf.rows, eq)
	}
}

// friction is the geometric mean of both shape coefficients, each falling
// back to the world default.
func (w *World) friction(a, b *Shape) float64 {
	fa, fb := a.Friction, b.Friction
	if fa < 0 {
		fa = w.cfg.DefaultFriction
	}
	if fb < 0 {
		fb = w.cfg.DefaultFriction
	}
	return math.Sqrt(fa * fb)
}

// integrate is semi-implicit Euler: velocities first, then positions from
// the new velocities.
func (w *World) integrate(h float64) {
	for _, b := range w.bodies {
		if b.typ == Static {
			continue
		}
		v := b.Velocity.Add(b.Force.Mul(b.invMass * h))
		av := b.AngularVelocity + b.AngularForce*b.invInertia*h
		if b.fixedRotation {
			av = 0
		}
		if !finiteVec(v) || !finite(av) {
			w.logger.Warn("non-finite velocity discarded",
				log.Uint64("body_id", b.id),
				log.Uint64("step", w.stepCount),
			)
			b.Velocity, b.AngularVelocity = zeroVec, 0
			continue
		}
		b.Velocity, b.AngularVelocity = v, av
		b.Position = b.Position.Add(v.Mul(h))
		b.Angle += av * h
	}
}

func (w *World) fireEvents(dt float64) error {
	var errs []error
	begin, end := w.trackContacts()
	for _, e := range begin {
		errs = append(errs, w.emit(EventBeginContact, e))
	}
	for _, e := range end {
		errs = append(errs, w.emit(EventEndContact, e))
	}
	errs = append(errs, w.emit(EventPostStep, PostStepEvent{
		World: w,
		Step:  w.stepCount,
		Dt:    dt,
		Time:  w.time,
	}))
	return errors.Join(errs...)
}

func (w *World) dropPairs(b *Body) {
	kept := w.activePairs[:0]
	for _, p := range w.activePairs {
		if p.shapeA.body == b || p.shapeB.body == b {
			continue
		}
		kept = append(kept, p)
	}
	w.activePairs = kept
}

func indexOf[T comparable](items []T, v T) int {
	for i, it := range items {
		if it == v {
			return i
		}
	}
	return -1
}
