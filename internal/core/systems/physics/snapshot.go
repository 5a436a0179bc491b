package physics

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// BodyState is the kinematic state of one body at the end of a step.
type BodyState struct {
	ID              uint64  `json:"id"`
	Static          bool    `json:"static"`
	Position        Vec2    `json:"position"`
	Angle           float64 `json:"angle"`
	Velocity        Vec2    `json:"velocity"`
	AngularVelocity float64 `json:"angularVelocity"`
}

// Snapshot is a copy of the world state that is safe to hand to other
// goroutines.
type Snapshot struct {
	Step     uint64      `json:"step"`
	Time     float64     `json:"time"`
	Bodies   []BodyState `json:"bodies"`
	Contacts int         `json:"contacts"`
}

func (w *World) Snapshot() Snapshot {
	s := Snapshot{
		Step:     w.stepCount,
		Time:     w.time,
		Bodies:   make([]BodyState, len(w.bodies)),
		Contacts: len(w.contacts),
	}
	for i, b := range w.bodies {
		s.Bodies[i] = BodyState{
			ID:              b.id,
			Static:          b.typ == Static,
			Position:        b.Position,
			Angle:           b.Angle,
			Velocity:        b.Velocity,
			AngularVelocity: b.AngularVelocity,
		}
	}
	return s
}

// Hash fingerprints the body states in order. IDs come from a process-wide
// counter and are left out so identical scenes hash equally.
func (s Snapshot) Hash() uint64 {
	d := xxhash.New()
	var buf [8]byte
	put := func(f float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
		_, _ = d.Write(buf[:])
	}
	put(float64(s.Step))
	for _, b := range s.Bodies {
		put(b.Position[0])
		put(b.Position[1])
		put(b.Angle)
		put(b.Velocity[0])
		put(b.Velocity[1])
		put(b.AngularVelocity)
	}
	return d.Sum64()
}
