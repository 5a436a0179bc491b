package physics

import "errors"

// Configuration errors. They are returned at construction or add time and
// are never corrected silently.
var (
	ErrDegeneratePolygon = errors.New("convex polygon needs at least 3 distinct vertices and a non-zero area")
	ErrClockwisePolygon  = errors.New("convex polygon vertices must be in counter-clockwise order")
	ErrNonConvexPolygon  = errors.New("polygon is not convex")
	ErrInvalidRadius     = errors.New("circle radius must be positive and finite")
	ErrInvalidSize       = errors.New("rectangle width and height must be positive and finite")
	ErrInvalidMass       = errors.New("dynamic body needs a positive finite mass")
	ErrInvalidDensity    = errors.New("density must be positive and finite")
	ErrInvalidLimits     = errors.New("lower limit must not exceed upper limit")
	ErrZeroAxis          = errors.New("constraint axis must be non-zero and finite")
	ErrInvalidSpring     = errors.New("spring rest length, stiffness and damping must be non-negative and finite")
	ErrInvalidVector     = errors.New("vector components must be finite")
	ErrInvalidConfig     = errors.New("invalid world configuration")
	ErrSameBody          = errors.New("constraint or spring needs two distinct bodies")
	ErrNilBody           = errors.New("body is nil")
	ErrNilShape          = errors.New("shape is nil")
	ErrShapeOwned        = errors.New("shape already belongs to a body")
)

// World membership and stepping errors.
var (
	ErrInvalidTimeStep = errors.New("time step must be positive and finite")
	ErrStepInProgress  = errors.New("world step already in progress")
	ErrWorldLocked     = errors.New("world is locked while the step pipeline runs")
	ErrAlreadyAdded    = errors.New("already added to a world")
	ErrBodyNotFound    = errors.New("body not found in world")
	ErrForeignBody     = errors.New("constraint or spring references a body outside the world")
	ErrNotFound        = errors.New("constraint or spring not found in world")
)
