package scene

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/physics2d/internal/core/systems/physics"
)

func TestBuiltin(t *testing.T) {
	assert.Equal(t, []string{"convoy", "fourwheel"}, Names())

	_, err := Builtin("tricycle")
	assert.ErrorIs(t, err, ErrUnknownScene)

	a, err := Builtin("fourwheel")
	require.NoError(t, err)
	b, err := Builtin("fourwheel")
	require.NoError(t, err)
	assert.NotSame(t, a, b)
}

func TestFourWheel_Build(t *testing.T) {
	sc, err := FourWheel().Build(nil)
	require.NoError(t, err)

	assert.Len(t, sc.Bodies, 6)
	assert.Len(t, sc.Constraints, 4)
	assert.Len(t, sc.Springs, 4)
	require.Len(t, sc.MotorWheels, 4)
	assert.True(t, sc.Body("ground").IsStatic())
	assert.Len(t, sc.Body("ground").Shapes(), 3)
	assert.Equal(t, 100.0, sc.World.Config().DefaultFriction)
	assert.True(t, sc.World.Config().Profiling)

	// each wheel owns its own shape
	seen := map[*physics.Shape]bool{}
	for _, w := range sc.MotorWheels {
		require.Len(t, w.Shapes(), 1)
		s := w.Shapes()[0]
		assert.False(t, seen[s])
		seen[s] = true
		assert.Equal(t, physics.CollisionFilter{Group: GroupWheels, Mask: GroupGround | GroupOther}, s.Filter)
	}

	for _, c := range sc.Constraints {
		assert.False(t, c.RotationalLock())
		assert.Equal(t, -0.4, c.LowerLimit())
		assert.Equal(t, 0.2, c.UpperLimit())
		assert.True(t, c.LowerLimitEnabled())
		assert.True(t, c.UpperLimitEnabled())
	}
	assert.InDelta(t, 1/math.Sqrt2, sc.Constraints[0].LocalAxisA()[0], 1e-12)
	assert.Equal(t, physics.Vec2{-4.5, 1.5}, sc.Body("wheel3").Position)
}

func TestConvoy_Build(t *testing.T) {
	sc, err := Convoy().Build(nil)
	require.NoError(t, err)

	assert.Len(t, sc.Bodies, 8)
	require.Len(t, sc.Constraints, 6)
	assert.Len(t, sc.Springs, 6)
	assert.Len(t, sc.MotorWheels, 5)
	assert.NotSame(t, sc.Body("chassisA").Shapes()[0], sc.Body("chassisB").Shapes()[0])

	middle := sc.Constraints[4]
	assert.Equal(t, -1.0, middle.LowerLimit())
	assert.Equal(t, -0.6, middle.UpperLimit())
	assert.InDelta(t, -0.6, middle.Translation(), 1e-12)

	// the connector switches both limits on but never sets them
	connector := sc.Constraints[5]
	assert.True(t, connector.RotationalLock())
	assert.True(t, connector.LowerLimitEnabled())
	assert.True(t, connector.UpperLimitEnabled())
	assert.Equal(t, physics.DefaultLowerLimit, connector.LowerLimit())
	assert.Equal(t, physics.DefaultUpperLimit, connector.UpperLimit())
	assert.Equal(t, physics.Vec2{0, 1}, connector.LocalAxisA())

	last := sc.Springs[5]
	assert.Equal(t, 2.0, last.RestLength())
	assert.Equal(t, 400.0, last.Stiffness())
}

func TestConvoy_AuthoredMiddleLimitsRejected(t *testing.T) {
	f := Convoy()
	f.Prismatics[4].LowerLimit = f64(1.0)
	f.Prismatics[4].UpperLimit = f64(0.6)

	_, err := f.Build(nil)
	require.ErrorIs(t, err, physics.ErrInvalidLimits)
	assert.Contains(t, err.Error(), "chassisB-wheelB3")
}

func TestBuild_DensityAppliesToLaterBodies(t *testing.T) {
	sc, err := FourWheel().Build(nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, sc.Body("chassis").Mass())

	crate, err := physics.NewBody(physics.WithMass(5), physics.WithPosition(physics.Vec2{3, 2}))
	require.NoError(t, err)
	box, err := physics.NewRectangle(2, 1)
	require.NoError(t, err)
	shape, err := physics.NewShape(box)
	require.NoError(t, err)
	require.NoError(t, crate.AddShape(shape, physics.Vec2{}, 0))

	require.NoError(t, sc.World.AddBody(crate))
	assert.InDelta(t, 2.0, crate.Mass(), 1e-12)
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *File)
		err    error
	}{
		{
			name:   "unknown shape type",
			mutate: func(f *File) { f.Bodies[1].Shapes[0].Type = "capsule" },
			err:    ErrUnknownShapeType,
		},
		{
			name:   "duplicate body",
			mutate: func(f *File) { f.Bodies[2].Name = "chassis" },
			err:    ErrDuplicateBody,
		},
		{
			name:   "unnamed body",
			mutate: func(f *File) { f.Bodies[2].Name = "" },
			err:    ErrUnnamedBody,
		},
		{
			name:   "unknown spring body",
			mutate: func(f *File) { f.Springs[0].BodyB = "wheel9" },
			err:    ErrUnknownBody,
		},
		{
			name:   "unknown motor wheel",
			mutate: func(f *File) { f.MotorWheels = append(f.MotorWheels, "wheel9") },
			err:    ErrUnknownBody,
		},
		{
			name:   "zero axis",
			mutate: func(f *File) { f.Prismatics[0].LocalAxisA = physics.Vec2{} },
			err:    physics.ErrZeroAxis,
		},
		{
			name:   "bad radius",
			mutate: func(f *File) { f.Bodies[2].Shapes[0].Radius = -1 },
			err:    physics.ErrInvalidRadius,
		},
		{
			name:   "bad world",
			mutate: func(f *File) { f.World.Iterations = 0 },
			err:    physics.ErrInvalidConfig,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := FourWheel()
			tt.mutate(f)
			_, err := f.Build(nil)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestLoadYAML(t *testing.T) {
	doc := `
name: drop
world:
  gravity: [0, -9.81]
bodies:
  - name: floor
    shapes:
      - type: plane
  - name: ball
    mass: 2
    position: [0, 3]
    damping: 0
    shapes:
      - type: circle
        radius: 0.5
        friction: 0.8
        filter: {group: 2, mask: 1}
springs:
  - bodyA: floor
    bodyB: ball
    restLength: 1
    stiffness: 20
`
	f, err := LoadYAML(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, physics.Vec2{0, -9.81}, f.World.Gravity)
	assert.Equal(t, physics.DefaultConfig().Iterations, f.World.Iterations)
	require.Len(t, f.Springs, 1)
	assert.Equal(t, 20.0, f.Springs[0].Stiffness)

	sc, err := f.Build(nil)
	require.NoError(t, err)
	ball := sc.Body("ball")
	assert.Equal(t, 2.0, ball.Mass())
	assert.Zero(t, ball.Damping)
	assert.Equal(t, 0.8, ball.Shapes()[0].Friction)
	assert.Equal(t, uint32(2), ball.Shapes()[0].Filter.Group)

	_, err = LoadYAML(strings.NewReader("name: x\nbogus: 1\n"))
	assert.Error(t, err)
}

func TestBuild_AdjustCenterOfMass(t *testing.T) {
	doc := `
name: lever
bodies:
  - name: arm
    mass: 1
    position: [0, 1]
    adjustCenterOfMass: true
    shapes:
      - type: rectangle
        width: 1
        height: 0.5
        offset: [1, 0]
  - name: stub
    mass: 1
    position: [0, 1]
    shapes:
      - type: rectangle
        width: 1
        height: 0.5
        offset: [1, 0]
`
	f, err := LoadYAML(strings.NewReader(doc))
	require.NoError(t, err)
	assert.True(t, f.Bodies[0].AdjustCenterOfMass)
	sc, err := f.Build(nil)
	require.NoError(t, err)

	arm := sc.Body("arm")
	assert.InDelta(t, 1, arm.Position[0], 1e-12)
	assert.InDelta(t, 0, arm.Shapes()[0].Offset().Len(), 1e-12)

	stub := sc.Body("stub")
	assert.Equal(t, physics.Vec2{0, 1}, stub.Position)
	assert.Equal(t, physics.Vec2{1, 0}, stub.Shapes()[0].Offset())
	assert.Greater(t, stub.Inertia(), arm.Inertia())
}

func TestLoadJSON(t *testing.T) {
	doc := `{
		"name": "slider",
		"world": {"iterations": 20},
		"bodies": [
			{"name": "base", "shapes": []},
			{"name": "cart", "mass": 1, "position": [0, 1], "shapes": [{"type": "rectangle", "width": 1, "height": 0.5}]}
		],
		"prismatics": [
			{"bodyA": "base", "bodyB": "cart", "localAxisA": [0, 1], "lowerLimitEnabled": true, "collideConnected": false}
		]
	}`
	f, err := LoadJSON(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, 20, f.World.Iterations)
	assert.Equal(t, physics.Vec2{0, -10}, f.World.Gravity)

	sc, err := f.Build(nil)
	require.NoError(t, err)
	require.Len(t, sc.Constraints, 1)
	assert.False(t, sc.Constraints[0].CollideConnected())
	assert.True(t, sc.Constraints[0].LowerLimitEnabled())
	assert.False(t, sc.Constraints[0].UpperLimitEnabled())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	var buf bytes.Buffer
	require.NoError(t, Convoy().EncodeYAML(&buf))
	path := filepath.Join(dir, "convoy.yaml")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	f, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Convoy(), f)

	_, err = LoadFile(filepath.Join(dir, "convoy.toml"))
	assert.Error(t, err)

	other := filepath.Join(dir, "scene.txt")
	require.NoError(t, os.WriteFile(other, []byte("name: x"), 0o600))
	_, err = LoadFile(other)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestBuiltinScenes_Simulate(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			f, err := Builtin(name)
			require.NoError(t, err)
			sc, err := f.Build(nil)
			require.NoError(t, err)

			for i := 0; i < 300; i++ {
				require.NoError(t, sc.World.Step(1.0/60))
			}
			for bodyName, b := range sc.Bodies {
				assert.False(t, math.IsNaN(b.Position[0]) || math.IsNaN(b.Position[1]), bodyName)
				if !b.IsStatic() {
					assert.Greater(t, b.Position[1], 0.0, bodyName)
					assert.Less(t, b.Position[1], 4.0, bodyName)
				}
			}
			assert.Equal(t, uint64(300), sc.World.Profile().Steps)
		})
	}
}
