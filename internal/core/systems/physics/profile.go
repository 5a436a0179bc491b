package physics

import (
	"time"

	"github.com/zeusync/physics2d/internal/core/events/bus"
)

// Phase identifies one stage of the step pipeline.
type Phase uint8

const (
	PhaseExternalForces Phase = iota
	PhaseSprings
	PhaseCollide
	PhaseBuildConstraints
	PhaseSolveVelocities
	PhaseIntegratePositions
	PhaseFireEvents
	phaseCount
)

var phaseNames = [phaseCount]string{
	"applyExternalForces",
	"applySprings",
	"collide",
	"buildConstraints",
	"solveVelocities",
	"integratePositions",
	"fireEvents",
}

func (p Phase) String() string {
	if p < phaseCount {
		return phaseNames[p]
	}
	return "unknown"
}

// Phases lists the pipeline stages in execution order.
func Phases() []Phase {
	out := make([]Phase, phaseCount)
	for i := range out {
		out[i] = Phase(i)
	}
	return out
}

// Metrics provides runtime metrics for a pipeline phase.
type Metrics struct {
	ExecutionCount       uint64
	TotalExecutionTime   time.Duration
	AverageExecutionTime time.Duration
	MaxExecutionTime     time.Duration
	MinExecutionTime     time.Duration
	LastExecutionTime    time.Duration
}

func (m *Metrics) record(d time.Duration) {
	m.ExecutionCount++
	m.TotalExecutionTime += d
	m.AverageExecutionTime = m.TotalExecutionTime / time.Duration(m.ExecutionCount)
	m.LastExecutionTime = d
	if d > m.MaxExecutionTime {
		m.MaxExecutionTime = d
	}
	if m.ExecutionCount == 1 || d < m.MinExecutionTime {
		m.MinExecutionTime = d
	}
}

// EventMetrics describes the deliveries of one world event type.
type EventMetrics struct {
	Published uint64
	Handlers  uint64
	Errors    uint64
	Delivery  Metrics
}

// Profile is collected only when Config.Profiling is set; the counters of
// the last step are always filled.
type Profile struct {
	Steps      uint64
	StepTime   Metrics
	Phases     [phaseCount]Metrics
	Events     [eventTypeCount]EventMetrics
	LastCounts StepCounts
}

// StepCounts describes the work done by the most recent step.
type StepCounts struct {
	Bodies           int
	PairsTested      int
	Contacts         int
	Equations        int
	SolverIterations int
	SolverResidual   float64
}

// Phase returns the metrics of one stage.
func (p Profile) Phase(ph Phase) Metrics {
	if ph >= phaseCount {
		return Metrics{}
	}
	return p.Phases[ph]
}

// Event returns the delivery metrics of a world event type.
func (p Profile) Event(eventType string) EventMetrics {
	if i := eventIndex(eventType); i >= 0 {
		return p.Events[i]
	}
	return EventMetrics{}
}

// eventProfiler records the deliveries of its world's events into the
// world profile. Events published on a shared bus by others are ignored.
type eventProfiler struct {
	w *World
}

func (o eventProfiler) OnDelivered(e bus.Event, handlers int, err error, took time.Duration) {
	if e.Source() != o.w.source {
		return
	}
	i := eventIndex(e.Type())
	if i < 0 {
		return
	}
	m := &o.w.profile.Events[i]
	m.Published++
	m.Handlers += uint64(handlers)
	if err != nil {
		m.Errors++
	}
	m.Delivery.record(took)
}

type phaseTimer struct {
	enabled bool
	profile *Profile
	start   time.Time
	mark    time.Time
}

func (w *World) startTimer() phaseTimer {
	t := phaseTimer{enabled: w.cfg.Profiling, profile: &w.profile}
	if t.enabled {
		t.start = time.Now()
		t.mark = t.start
	}
	return t
}

func (t *phaseTimer) done(ph Phase) {
	if !t.enabled {
		return
	}
	now := time.Now()
	t.profile.Phases[ph].record(now.Sub(t.mark))
	t.mark = now
}

func (t *phaseTimer) finish() {
	t.profile.Steps++
	if t.enabled {
		t.profile.StepTime.record(time.Since(t.start))
	}
}
