package scene

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/zeusync/physics2d/internal/core/systems/physics"
)

// Collision groups shared by the built-in vehicle scenes.
const (
	GroupWheels  uint32 = 1
	GroupChassis uint32 = 2
	GroupGround  uint32 = 4
	GroupOther   uint32 = 8
)

const (
	suspensionRest      = 0.5
	suspensionStiffness = 100
	suspensionDamping   = 5
	wheelRadius         = 0.3
)

var builtins = map[string]func() *File{
	"fourwheel": FourWheel,
	"convoy":    Convoy,
}

// Builtin returns a fresh copy of a built-in scene by name.
func Builtin(name string) (*File, error) {
	fn, ok := builtins[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownScene, "%q", name)
	}
	return fn(), nil
}

// Names lists the built-in scenes in sorted order.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func vehicleWorld() physics.Config {
	cfg := physics.DefaultConfig()
	cfg.Gravity = physics.Vec2{0, -10}
	cfg.DefaultFriction = 100
	cfg.Profiling = true
	return cfg
}

func filter(group, mask uint32) *physics.CollisionFilter {
	return &physics.CollisionFilter{Group: group, Mask: mask}
}

func f64(v float64) *float64 { return &v }

func ground() BodySpec {
	mask := GroupWheels | GroupChassis | GroupOther
	return BodySpec{
		Name: "ground",
		Shapes: []ShapeSpec{
			{Type: "plane", Filter: filter(GroupGround, mask)},
			{Type: "rectangle", Width: 3, Height: 0.1, Filter: filter(GroupGround, mask)},
			{Type: "convex", Vertices: []physics.Vec2{{0, 0}, {1, 0}, {1, 1}}, Filter: filter(GroupGround, mask)},
		},
	}
}

func chassis(name string, pos physics.Vec2) BodySpec {
	return BodySpec{
		Name:     name,
		Mass:     1,
		Position: pos,
		Shapes: []ShapeSpec{{
			Type: "rectangle", Width: 1, Height: 0.5,
			Filter: filter(GroupChassis, GroupGround|GroupChassis|GroupOther),
		}},
	}
}

func wheel(name string, pos physics.Vec2) BodySpec {
	return BodySpec{
		Name:     name,
		Mass:     1,
		Position: pos,
		Shapes: []ShapeSpec{{
			Type: "circle", Radius: wheelRadius,
			Filter: filter(GroupWheels, GroupGround|GroupOther),
		}},
	}
}

func suspension(chassisName, wheelName string, anchor, axis physics.Vec2, lower, upper float64) PrismaticSpec {
	return PrismaticSpec{
		BodyA:                 chassisName,
		BodyB:                 wheelName,
		LocalAnchorA:          anchor,
		LocalAxisA:            axis,
		DisableRotationalLock: true,
		LowerLimitEnabled:     true,
		UpperLimitEnabled:     true,
		LowerLimit:            f64(lower),
		UpperLimit:            f64(upper),
	}
}

func spring(a, b string, anchorA physics.Vec2) SpringSpec {
	return SpringSpec{
		BodyA: a,
		BodyB: b,
		SpringOptions: physics.SpringOptions{
			RestLength:   suspensionRest,
			Stiffness:    suspensionStiffness,
			Damping:      suspensionDamping,
			LocalAnchorA: anchorA,
		},
	}
}

// FourWheel is a single chassis with four wheels, two hanging below and
// two riding above, each on a diagonal suspension axis.
func FourWheel() *File {
	cx, cy := -4.0, 1.0
	corners := []struct {
		name   string
		anchor physics.Vec2
		axis   physics.Vec2
		offset physics.Vec2
	}{
		{"wheel1", physics.Vec2{-0.5, -0.25}, physics.Vec2{1, 1}, physics.Vec2{-0.5, -0.5}},
		{"wheel2", physics.Vec2{0.5, -0.25}, physics.Vec2{-1, 1}, physics.Vec2{0.5, -0.5}},
		{"wheel3", physics.Vec2{-0.5, 0.25}, physics.Vec2{1, -1}, physics.Vec2{-0.5, 0.5}},
		{"wheel4", physics.Vec2{0.5, 0.25}, physics.Vec2{-1, -1}, physics.Vec2{0.5, 0.5}},
	}

	f := &File{
		Name:    "fourwheel",
		World:   vehicleWorld(),
		Density: 1,
		Bodies:  []BodySpec{ground(), chassis("chassis", physics.Vec2{cx, cy})},
	}
	for _, c := range corners {
		f.Bodies = append(f.Bodies, wheel(c.name, physics.Vec2{cx + c.offset[0], cy + c.offset[1]}))
		f.Prismatics = append(f.Prismatics, suspension("chassis", c.name, c.anchor, c.axis, -0.4, 0.2))
		f.Springs = append(f.Springs, spring("chassis", c.name, c.anchor))
		f.MotorWheels = append(f.MotorWheels, c.name)
	}
	return f
}

// Convoy is two chassis stacked on a vertical connector, with two wheels
// under the lower chassis and three on the upper one.
func Convoy() *File {
	return &File{
		Name:    "convoy",
		World:   vehicleWorld(),
		Density: 1,
		Bodies: []BodySpec{
			ground(),
			chassis("chassisA", physics.Vec2{-4, 1}),
			chassis("chassisB", physics.Vec2{-4, 2}),
			wheel("wheelA1", physics.Vec2{-4.5, 0.7}),
			wheel("wheelA2", physics.Vec2{-3.5, 0.7}),
			wheel("wheelB1", physics.Vec2{-4.5, 0.7}),
			wheel("wheelB2", physics.Vec2{-3.5, 0.7}),
			wheel("wheelB3", physics.Vec2{-4, 1.7}),
		},
		Prismatics: []PrismaticSpec{
			suspension("chassisA", "wheelA1", physics.Vec2{-0.5, -0.3}, physics.Vec2{0, 1}, -0.4, 0.2),
			suspension("chassisA", "wheelA2", physics.Vec2{0.5, -0.3}, physics.Vec2{0, 1}, -0.4, 0.2),
			suspension("chassisB", "wheelB1", physics.Vec2{-0.5, -0.3}, physics.Vec2{0, 1}, -0.4, 0.2),
			suspension("chassisB", "wheelB2", physics.Vec2{0.5, -0.3}, physics.Vec2{0, 1}, -0.4, 0.2),
			// the middle wheel starts 0.6 below its anchor
			suspension("chassisB", "wheelB3", physics.Vec2{0, 0.3}, physics.Vec2{0, 1}, -1.0, -0.6),
			{
				BodyA:             "chassisA",
				BodyB:             "chassisB",
				LocalAxisA:        physics.Vec2{0, 4},
				LowerLimitEnabled: true,
				UpperLimitEnabled: true,
			},
		},
		Springs: []SpringSpec{
			spring("chassisA", "wheelA1", physics.Vec2{-0.5, 0}),
			spring("chassisA", "wheelA2", physics.Vec2{0.5, 0}),
			spring("chassisB", "wheelB1", physics.Vec2{-0.5, 0}),
			spring("chassisB", "wheelB2", physics.Vec2{0.5, 0}),
			spring("chassisB", "wheelB3", physics.Vec2{}),
			{
				BodyA: "chassisA",
				BodyB: "chassisB",
				SpringOptions: physics.SpringOptions{
					RestLength: 2,
					Stiffness:  400,
					Damping:    10,
				},
			},
		},
		MotorWheels: []string{"wheelA1", "wheelA2", "wheelB1", "wheelB2", "wheelB3"},
	}
}
