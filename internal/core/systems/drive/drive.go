package drive

import (
	"errors"
	"math"
	"strings"

	"github.com/zeusync/physics2d/internal/core/events/bus"
	"github.com/zeusync/physics2d/internal/core/systems/physics"
	"github.com/zeusync/physics2d/pkg/generic"
)

const (
	// DefaultTorque is the torque a pressed key applies to every wheel.
	DefaultTorque = 5.0
	// DefaultMaxPower caps angularVelocity * torque. Above it the wheel
	// stops receiving torque in the direction it already spins.
	DefaultMaxPower = 100.0
)

var (
	ErrUnknownKey = errors.New("unknown key")
	ErrNoWheels   = errors.New("motor has no wheels")
)

type Key uint8

const (
	KeyLeft Key = iota + 1
	KeyRight
)

func (k Key) String() string {
	switch k {
	case KeyLeft:
		return "left"
	case KeyRight:
		return "right"
	default:
		return "unknown"
	}
}

// ParseKey accepts "left" and "right" in any case.
func ParseKey(s string) (Key, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left":
		return KeyLeft, nil
	case "right":
		return KeyRight, nil
	default:
		return 0, ErrUnknownKey
	}
}

// Throttle holds the current engine torque. It is written by input
// handlers and read by the simulation goroutine.
type Throttle struct {
	value  *generic.AtomicValue[float64]
	torque float64
}

func NewThrottle(torque float64) *Throttle {
	return &Throttle{value: generic.NewAtomicValue(0.0), torque: math.Abs(torque)}
}

// Press sets the torque for a held key: left spins the wheels counter-clockwise.
func (t *Throttle) Press(k Key) error {
	switch k {
	case KeyLeft:
		t.Set(t.torque)
	case KeyRight:
		t.Set(-t.torque)
	default:
		return ErrUnknownKey
	}
	return nil
}

// Release drops the torque back to zero, whichever key was held.
func (t *Throttle) Release() { t.Set(0) }

func (t *Throttle) Set(torque float64) { t.value.Set(torque) }

func (t *Throttle) Torque() float64 { return t.value.Get() }

// Version changes on every Set, Press and Release, even when the torque
// stays the same.
func (t *Throttle) Version() uint64 { return t.value.Version() }

// Motor feeds the throttle torque into a set of wheels after every step.
type Motor struct {
	throttle *Throttle
	wheels   []*physics.Body
	maxPower float64
	sub      bus.Subscription
}

type MotorOption func(*Motor)

func WithMaxPower(p float64) MotorOption {
	return func(m *Motor) { m.maxPower = p }
}

// Attach subscribes a motor to w's postStep event. Torque added there acts
// during the following step.
func Attach(w *physics.World, throttle *Throttle, wheels []*physics.Body, opts ...MotorOption) (*Motor, error) {
	if len(wheels) == 0 {
		return nil, ErrNoWheels
	}
	m := &Motor{
		throttle: throttle,
		wheels:   append([]*physics.Body(nil), wheels...),
		maxPower: DefaultMaxPower,
	}
	for _, opt := range opts {
		opt(m)
	}

	sub, err := w.OnPostStep(func(physics.PostStepEvent) error {
		m.apply()
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.sub = sub
	return m, nil
}

func (m *Motor) apply() {
	torque := m.throttle.Torque()
	if torque == 0 {
		return
	}
	for _, w := range m.wheels {
		if w.AngularVelocity*torque < m.maxPower {
			w.AngularForce += torque
		}
	}
}

func (m *Motor) Wheels() []*physics.Body { return append([]*physics.Body(nil), m.wheels...) }

// Detach stops the motor. Calling it twice is safe.
func (m *Motor) Detach() error { return m.sub.Cancel() }
