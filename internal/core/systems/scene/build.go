package scene

import (
	"github.com/pkg/errors"

	"github.com/zeusync/physics2d/internal/core/observability/log"
	"github.com/zeusync/physics2d/internal/core/systems/physics"
)

// Scene is a built world plus the handles callers need to drive it.
type Scene struct {
	Name        string
	World       *physics.World
	Bodies      map[string]*physics.Body
	Constraints []*physics.PrismaticConstraint
	Springs     []*physics.Spring
	MotorWheels []*physics.Body
}

// Body returns the named body or nil.
func (s *Scene) Body(name string) *physics.Body {
	return s.Bodies[name]
}

// Build creates a world from the description. Bodies are added in file
// order, then constraints, then springs.
func (f *File) Build(logger log.Log, opts ...physics.WorldOption) (*Scene, error) {
	if logger == nil {
		logger = log.NewNop()
	}
	world, err := physics.NewWorld(f.World, append([]physics.WorldOption{physics.WithLogger(logger)}, opts...)...)
	if err != nil {
		return nil, errors.Wrapf(err, "scene %s: world", f.Name)
	}

	sc := &Scene{
		Name:   f.Name,
		World:  world,
		Bodies: make(map[string]*physics.Body, len(f.Bodies)),
	}

	for i := range f.Bodies {
		spec := &f.Bodies[i]
		if spec.Name == "" {
			return nil, errors.Wrapf(ErrUnnamedBody, "scene %s: body #%d", f.Name, i)
		}
		if _, dup := sc.Bodies[spec.Name]; dup {
			return nil, errors.Wrapf(ErrDuplicateBody, "scene %s: body %s", f.Name, spec.Name)
		}
		body, err := spec.build()
		if err != nil {
			return nil, errors.Wrapf(err, "scene %s: body %s", f.Name, spec.Name)
		}
		if err := world.AddBody(body); err != nil {
			return nil, errors.Wrapf(err, "scene %s: add body %s", f.Name, spec.Name)
		}
		sc.Bodies[spec.Name] = body
	}

	for i := range f.Prismatics {
		spec := &f.Prismatics[i]
		c, err := spec.build(sc.Bodies)
		if err != nil {
			return nil, errors.Wrapf(err, "scene %s: prismatic %s-%s", f.Name, spec.BodyA, spec.BodyB)
		}
		if err := world.AddConstraint(c); err != nil {
			return nil, errors.Wrapf(err, "scene %s: add prismatic %s-%s", f.Name, spec.BodyA, spec.BodyB)
		}
		sc.Constraints = append(sc.Constraints, c)
	}

	for i := range f.Springs {
		spec := &f.Springs[i]
		a, b, err := resolvePair(sc.Bodies, spec.BodyA, spec.BodyB)
		if err != nil {
			return nil, errors.Wrapf(err, "scene %s: spring", f.Name)
		}
		s, err := physics.NewSpring(a, b, spec.SpringOptions)
		if err != nil {
			return nil, errors.Wrapf(err, "scene %s: spring %s-%s", f.Name, spec.BodyA, spec.BodyB)
		}
		if err := world.AddSpring(s); err != nil {
			return nil, errors.Wrapf(err, "scene %s: add spring %s-%s", f.Name, spec.BodyA, spec.BodyB)
		}
		sc.Springs = append(sc.Springs, s)
	}

	for _, name := range f.MotorWheels {
		b, ok := sc.Bodies[name]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownBody, "scene %s: motor wheel %s", f.Name, name)
		}
		sc.MotorWheels = append(sc.MotorWheels, b)
	}

	if f.Density > 0 {
		density := f.Density
		if _, err := world.OnAddBody(func(b *physics.Body) error {
			return b.SetDensity(density)
		}); err != nil {
			return nil, errors.Wrapf(err, "scene %s: density hook", f.Name)
		}
	}

	logger.Info("scene built",
		log.String("scene", f.Name),
		log.Int("bodies", len(sc.Bodies)),
		log.Int("constraints", len(sc.Constraints)),
		log.Int("springs", len(sc.Springs)),
	)
	return sc, nil
}

func (spec *BodySpec) build() (*physics.Body, error) {
	opts := []physics.BodyOption{
		physics.WithMass(spec.Mass),
		physics.WithPosition(spec.Position),
		physics.WithAngle(spec.Angle),
		physics.WithVelocity(spec.Velocity),
		physics.WithAngularVelocity(spec.AngularVelocity),
	}
	if spec.Damping != nil {
		opts = append(opts, physics.WithDamping(*spec.Damping))
	}
	if spec.AngularDamping != nil {
		opts = append(opts, physics.WithAngularDamping(*spec.AngularDamping))
	}
	if spec.FixedRotation {
		opts = append(opts, physics.WithFixedRotation())
	}

	body, err := physics.NewBody(opts...)
	if err != nil {
		return nil, err
	}
	for i := range spec.Shapes {
		shape, err := spec.Shapes[i].build()
		if err != nil {
			return nil, errors.Wrapf(err, "shape #%d", i)
		}
		if err := body.AddShape(shape, spec.Shapes[i].Offset, spec.Shapes[i].Angle); err != nil {
			return nil, errors.Wrapf(err, "shape #%d", i)
		}
	}
	if spec.AdjustCenterOfMass {
		if err := body.AdjustCenterOfMass(); err != nil {
			return nil, err
		}
	}
	return body, nil
}

// build always creates a fresh shape, so two bodies never share one.
func (spec *ShapeSpec) build() (*physics.Shape, error) {
	var (
		geom physics.Geometry
		err  error
	)
	switch spec.Type {
	case "plane":
		geom = physics.Plane{}
	case "circle":
		geom, err = physics.NewCircle(spec.Radius)
	case "rectangle":
		geom, err = physics.NewRectangle(spec.Width, spec.Height)
	case "convex":
		geom, err = physics.NewConvex(spec.Vertices)
	default:
		return nil, errors.Wrapf(ErrUnknownShapeType, "%q", spec.Type)
	}
	if err != nil {
		return nil, err
	}

	var opts []physics.ShapeOption
	if spec.Filter != nil {
		opts = append(opts, physics.WithFilter(spec.Filter.Group, spec.Filter.Mask))
	}
	if spec.Friction != nil {
		opts = append(opts, physics.WithFriction(*spec.Friction))
	}
	return physics.NewShape(geom, opts...)
}

func (spec *PrismaticSpec) build(bodies map[string]*physics.Body) (*physics.PrismaticConstraint, error) {
	a, b, err := resolvePair(bodies, spec.BodyA, spec.BodyB)
	if err != nil {
		return nil, err
	}
	c, err := physics.NewPrismaticConstraint(a, b, physics.PrismaticOptions{
		LocalAnchorA:          spec.LocalAnchorA,
		LocalAnchorB:          spec.LocalAnchorB,
		LocalAxisA:            spec.LocalAxisA,
		DisableRotationalLock: spec.DisableRotationalLock,
		MaxForce:              spec.MaxForce,
	})
	if err != nil {
		return nil, err
	}
	if spec.CollideConnected != nil {
		c.SetCollideConnected(*spec.CollideConnected)
	}

	// values first, then switch the limits on so the range is checked once
	switch {
	case spec.LowerLimit != nil && spec.UpperLimit != nil:
		err = c.SetLimits(*spec.LowerLimit, *spec.UpperLimit)
	case spec.LowerLimit != nil:
		err = c.SetLowerLimit(*spec.LowerLimit)
	case spec.UpperLimit != nil:
		err = c.SetUpperLimit(*spec.UpperLimit)
	}
	if err != nil {
		return nil, err
	}
	if err := c.EnableLowerLimit(spec.LowerLimitEnabled); err != nil {
		return nil, err
	}
	if err := c.EnableUpperLimit(spec.UpperLimitEnabled); err != nil {
		return nil, err
	}
	return c, nil
}

func resolvePair(bodies map[string]*physics.Body, nameA, nameB string) (*physics.Body, *physics.Body, error) {
	a, ok := bodies[nameA]
	if !ok {
		return nil, nil, errors.Wrapf(ErrUnknownBody, "%q", nameA)
	}
	b, ok := bodies[nameB]
	if !ok {
		return nil, nil, errors.Wrapf(ErrUnknownBody, "%q", nameB)
	}
	return a, b, nil
}
