package runner

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/zeusync/physics2d/internal/core/events/bus"
	"github.com/zeusync/physics2d/internal/core/observability/log"
	"github.com/zeusync/physics2d/internal/core/systems/drive"
	"github.com/zeusync/physics2d/internal/core/systems/physics"
)

var (
	ErrInvalidRate    = errors.New("step rate must be positive and at most 1e9 Hz")
	ErrAlreadyRunning = errors.New("runner is already running")
)

// Config controls the stepping loop.
type Config struct {
	// Hz is the number of fixed steps per simulated second.
	Hz float64 `yaml:"hz" json:"hz"`
	// Steps stops the loop after that many steps. Zero runs until the
	// context is cancelled.
	Steps uint64 `yaml:"steps" json:"steps"`
	// Realtime paces steps against the wall clock instead of running flat out.
	Realtime bool `yaml:"realtime" json:"realtime"`
	// ReportInterval is the wall-clock period of the state summary log.
	ReportInterval time.Duration `yaml:"reportInterval" json:"reportInterval"`
}

func DefaultConfig() Config {
	return Config{
		Hz:             60,
		Realtime:       true,
		ReportInterval: 5 * time.Second,
	}
}

// Report summarizes a finished or running simulation.
type Report struct {
	Session  string                     `json:"session"`
	Steps    uint64                     `json:"steps"`
	SimTime  float64                    `json:"simTime"`
	WallTime time.Duration              `json:"wallTime"`
	Hash     uint64                     `json:"hash"`
	Counts   physics.StepCounts         `json:"counts"`
	StepTime physics.Metrics            `json:"stepTime"`
	Phases   map[string]physics.Metrics `json:"phases,omitempty"`
	// Events holds delivery metrics of the world events that had listeners.
	Events map[string]physics.EventMetrics `json:"events,omitempty"`
	Bus    bus.EventBusMetrics             `json:"bus"`
}

// frame is what one step publishes to readers.
type frame struct {
	snapshot physics.Snapshot
	profile  physics.Profile
	bus      bus.EventBusMetrics
}

// Runner owns a world and is the only goroutine that steps it. Other
// goroutines read published snapshots and write the throttle.
type Runner struct {
	id       string
	cfg      Config
	world    *physics.World
	throttle *drive.Throttle
	logger   log.Log

	latest  atomic.Pointer[frame]
	running atomic.Bool
	started time.Time
	elapsed atomic.Int64

	profiling bool
}

func New(world *physics.World, throttle *drive.Throttle, cfg Config, logger log.Log) (*Runner, error) {
	if !(cfg.Hz > 0) || time.Duration(float64(time.Second)/cfg.Hz) <= 0 {
		return nil, ErrInvalidRate
	}
	if throttle == nil {
		throttle = drive.NewThrottle(drive.DefaultTorque)
	}
	if logger == nil {
		logger = log.NewNop()
	}
	id := uuid.NewString()
	r := &Runner{
		id:       id,
		cfg:      cfg,
		world:    world,
		throttle: throttle,
		logger:   logger.With(log.String("component", "runner"), log.String("session", id)),

		profiling: world.Config().Profiling,
	}
	r.publish()
	return r, nil
}

func (r *Runner) ID() string                { return r.id }
func (r *Runner) Throttle() *drive.Throttle { return r.throttle }
func (r *Runner) Dt() float64               { return 1 / r.cfg.Hz }

func (r *Runner) period() time.Duration { return time.Duration(float64(time.Second) / r.cfg.Hz) }

// Latest returns the most recently published snapshot. Safe for
// concurrent use.
func (r *Runner) Latest() *physics.Snapshot { return &r.latest.Load().snapshot }

func (r *Runner) publish() {
	r.latest.Store(&frame{
		snapshot: r.world.Snapshot(),
		profile:  r.world.Profile(),
		bus:      r.world.Events().GetMetrics(),
	})
}

// Run steps the world until the step budget is spent or ctx is done.
// Cancellation is a normal stop and returns nil.
func (r *Runner) Run(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer r.running.Store(false)

	dt := r.Dt()
	r.started = time.Now()
	r.logger.Info("simulation started",
		log.Float64("dt", dt),
		log.Uint64("steps", r.cfg.Steps),
		log.Bool("realtime", r.cfg.Realtime),
		log.Int("bodies", len(r.world.Bodies())),
	)

	var tick <-chan time.Time
	if r.cfg.Realtime {
		ticker := time.NewTicker(r.period())
		defer ticker.Stop()
		tick = ticker.C
	}
	lastReport := r.started

	for done := uint64(0); r.cfg.Steps == 0 || done < r.cfg.Steps; done++ {
		if tick != nil {
			select {
			case <-ctx.Done():
				r.finish()
				return nil
			case <-tick:
			}
		} else if ctx.Err() != nil {
			r.finish()
			return nil
		}

		if err := r.world.Step(dt); err != nil {
			r.logger.Error("step failed", log.Uint64("step", r.world.StepCount()), log.Error(err))
			r.finish()
			return fmt.Errorf("step %d: %w", r.world.StepCount(), err)
		}
		r.publish()
		r.elapsed.Store(int64(time.Since(r.started)))

		if r.cfg.ReportInterval > 0 && time.Since(lastReport) >= r.cfg.ReportInterval {
			lastReport = time.Now()
			r.logSummary("simulation progress")
		}
	}
	r.finish()
	return nil
}

func (r *Runner) finish() {
	r.elapsed.Store(int64(time.Since(r.started)))
	r.logSummary("simulation stopped")
}

func (r *Runner) logSummary(msg string) {
	snap := r.Latest()
	r.logger.Info(msg,
		log.Uint64("step", snap.Step),
		log.Float64("sim_time", snap.Time),
		log.Duration("wall_time", time.Duration(r.elapsed.Load())),
		log.Int("contacts", snap.Contacts),
		log.Float64("throttle", r.throttle.Torque()),
	)
}

// Report describes the latest published state. Phase timings are present
// only when the world profiles.
func (r *Runner) Report() Report {
	f := r.latest.Load()
	rep := Report{
		Session:  r.id,
		Steps:    f.snapshot.Step,
		SimTime:  f.snapshot.Time,
		WallTime: time.Duration(r.elapsed.Load()),
		Hash:     f.snapshot.Hash(),
		Counts:   f.profile.LastCounts,
		StepTime: f.profile.StepTime,
		Bus:      f.bus,
	}
	if r.profiling {
		rep.Phases = make(map[string]physics.Metrics)
		for _, ph := range physics.Phases() {
			rep.Phases[ph.String()] = f.profile.Phase(ph)
		}
		rep.Events = make(map[string]physics.EventMetrics)
		for _, typ := range physics.EventTypes() {
			if m := f.profile.Event(typ); m.Published > 0 {
				rep.Events[typ] = m
			}
		}
	}
	return rep
}
