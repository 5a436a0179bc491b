package scene

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/physics2d/internal/core/systems/physics"
)

// File describes a complete scene in YAML or JSON. Bodies are referenced
// by name from constraints, springs and the motor wheel list.
type File struct {
	Name  string         `yaml:"name" json:"name"`
	World physics.Config `yaml:"world" json:"world"`

	// Density is applied through an addBody hook to bodies added after the
	// scene is built. The scene's own bodies keep their authored masses.
	Density float64 `yaml:"density,omitempty" json:"density,omitempty"`

	Bodies      []BodySpec      `yaml:"bodies" json:"bodies"`
	Prismatics  []PrismaticSpec `yaml:"prismatics,omitempty" json:"prismatics,omitempty"`
	Springs     []SpringSpec    `yaml:"springs,omitempty" json:"springs,omitempty"`
	MotorWheels []string        `yaml:"motorWheels,omitempty" json:"motorWheels,omitempty"`
}

// BodySpec describes one body. A zero mass makes the body static.
type BodySpec struct {
	Name            string       `yaml:"name" json:"name"`
	Mass            float64      `yaml:"mass,omitempty" json:"mass,omitempty"`
	Position        physics.Vec2 `yaml:"position" json:"position"`
	Angle           float64      `yaml:"angle,omitempty" json:"angle,omitempty"`
	Velocity        physics.Vec2 `yaml:"velocity,omitempty" json:"velocity,omitempty"`
	AngularVelocity float64      `yaml:"angularVelocity,omitempty" json:"angularVelocity,omitempty"`
	Damping         *float64     `yaml:"damping,omitempty" json:"damping,omitempty"`
	AngularDamping  *float64     `yaml:"angularDamping,omitempty" json:"angularDamping,omitempty"`
	FixedRotation   bool         `yaml:"fixedRotation,omitempty" json:"fixedRotation,omitempty"`
	Shapes          []ShapeSpec  `yaml:"shapes" json:"shapes"`
	// AdjustCenterOfMass moves the origin onto the shape centroid after the
	// shapes are added. Anchors naming this body are read in the moved frame.
	AdjustCenterOfMass bool `yaml:"adjustCenterOfMass,omitempty" json:"adjustCenterOfMass,omitempty"`
}

// ShapeSpec describes one shape. Type is one of plane, circle, rectangle
// or convex; only the fields of that type are read.
type ShapeSpec struct {
	Type     string                   `yaml:"type" json:"type"`
	Radius   float64                  `yaml:"radius,omitempty" json:"radius,omitempty"`
	Width    float64                  `yaml:"width,omitempty" json:"width,omitempty"`
	Height   float64                  `yaml:"height,omitempty" json:"height,omitempty"`
	Vertices []physics.Vec2           `yaml:"vertices,omitempty" json:"vertices,omitempty"`
	Offset   physics.Vec2             `yaml:"offset,omitempty" json:"offset,omitempty"`
	Angle    float64                  `yaml:"angle,omitempty" json:"angle,omitempty"`
	Filter   *physics.CollisionFilter `yaml:"filter,omitempty" json:"filter,omitempty"`
	Friction *float64                 `yaml:"friction,omitempty" json:"friction,omitempty"`
}

// PrismaticSpec describes a prismatic constraint. Limit values left unset
// keep the engine defaults even when the limit is enabled.
type PrismaticSpec struct {
	BodyA                 string       `yaml:"bodyA" json:"bodyA"`
	BodyB                 string       `yaml:"bodyB" json:"bodyB"`
	LocalAnchorA          physics.Vec2 `yaml:"localAnchorA" json:"localAnchorA"`
	LocalAnchorB          physics.Vec2 `yaml:"localAnchorB" json:"localAnchorB"`
	LocalAxisA            physics.Vec2 `yaml:"localAxisA" json:"localAxisA"`
	DisableRotationalLock bool         `yaml:"disableRotationalLock,omitempty" json:"disableRotationalLock,omitempty"`
	MaxForce              float64      `yaml:"maxForce,omitempty" json:"maxForce,omitempty"`
	CollideConnected      *bool        `yaml:"collideConnected,omitempty" json:"collideConnected,omitempty"`

	LowerLimitEnabled bool     `yaml:"lowerLimitEnabled,omitempty" json:"lowerLimitEnabled,omitempty"`
	UpperLimitEnabled bool     `yaml:"upperLimitEnabled,omitempty" json:"upperLimitEnabled,omitempty"`
	LowerLimit        *float64 `yaml:"lowerLimit,omitempty" json:"lowerLimit,omitempty"`
	UpperLimit        *float64 `yaml:"upperLimit,omitempty" json:"upperLimit,omitempty"`
}

type SpringSpec struct {
	BodyA string `yaml:"bodyA" json:"bodyA"`
	BodyB string `yaml:"bodyB" json:"bodyB"`

	physics.SpringOptions `yaml:",inline"`
}

func newFile() *File {
	return &File{World: physics.DefaultConfig()}
}

// LoadYAML decodes a scene from r. World settings missing from the
// document keep their defaults.
func LoadYAML(r io.Reader) (*File, error) {
	f := newFile()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(f); err != nil {
		return nil, errors.Wrap(err, "failed to decode yaml scene")
	}
	return f, nil
}

// LoadJSON decodes a scene from r. World settings missing from the
// document keep their defaults.
func LoadJSON(r io.Reader) (*File, error) {
	f := newFile()
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(f); err != nil {
		return nil, errors.Wrap(err, "failed to decode json scene")
	}
	return f, nil
}

// LoadFile picks the decoder from the file extension.
func LoadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open scene %s", path)
	}
	defer fh.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(fh)
	case ".json":
		return LoadJSON(fh)
	default:
		return nil, errors.Wrapf(ErrUnknownFormat, "scene %s", path)
	}
}

// EncodeYAML writes f as a YAML document.
func (f *File) EncodeYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return errors.Wrap(err, "failed to encode yaml scene")
	}
	return errors.Wrap(enc.Close(), "failed to flush yaml scene")
}
