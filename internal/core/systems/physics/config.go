package physics

import "fmt"

// Config holds the world-wide simulation parameters.
type Config struct {
	Gravity         Vec2    `yaml:"gravity" json:"gravity"`
	DefaultFriction float64 `yaml:"defaultFriction" json:"defaultFriction"`

	// Iterations is the Gauss-Seidel iteration cap per step; the solve
	// stops early once the summed impulse change drops below Tolerance.
	Iterations int     `yaml:"iterations" json:"iterations"`
	Tolerance  float64 `yaml:"tolerance" json:"tolerance"`

	Stiffness          float64 `yaml:"stiffness" json:"stiffness"`
	Relaxation         float64 `yaml:"relaxation" json:"relaxation"`
	FrictionStiffness  float64 `yaml:"frictionStiffness" json:"frictionStiffness"`
	FrictionRelaxation float64 `yaml:"frictionRelaxation" json:"frictionRelaxation"`

	Profiling bool `yaml:"profiling" json:"profiling"`
}

func DefaultConfig() Config {
	return Config{
		Gravity:            Vec2{0, -10},
		DefaultFriction:    0.3,
		Iterations:         10,
		Tolerance:          1e-7,
		Stiffness:          1e6,
		Relaxation:         4,
		FrictionStiffness:  1e6,
		FrictionRelaxation: 4,
	}
}

func (c Config) Validate() error {
	switch {
	case !finiteVec(c.Gravity):
		return fmt.Errorf("%w: gravity must be finite", ErrInvalidConfig)
	case c.DefaultFriction < 0 || !finite(c.DefaultFriction):
		return fmt.Errorf("%w: default friction must be non-negative", ErrInvalidConfig)
	case c.Iterations <= 0:
		return fmt.Errorf("%w: iterations must be positive", ErrInvalidConfig)
	case c.Tolerance < 0 || !finite(c.Tolerance):
		return fmt.Errorf("%w: tolerance must be non-negative", ErrInvalidConfig)
	case !validForce(c.Stiffness) || !validForce(c.FrictionStiffness):
		return fmt.Errorf("%w: stiffness must be positive", ErrInvalidConfig)
	case c.Relaxation <= 0 || !finite(c.Relaxation) || c.FrictionRelaxation <= 0 || !finite(c.FrictionRelaxation):
		return fmt.Errorf("%w: relaxation must be positive", ErrInvalidConfig)
	}
	return nil
}
