package physics

// Collision group bits. Scenes define their own meaning for each bit.
const (
	DefaultCollisionGroup uint32 = 1
	AllGroups             uint32 = ^uint32(0)
)

// CollisionFilter decides which shape pairs are tested at all.
// Group is the set of bits the shape belongs to; Mask is the set of groups
// it is willing to collide with.
type CollisionFilter struct {
	Group uint32 `yaml:"group" json:"group"`
	Mask  uint32 `yaml:"mask" json:"mask"`
}

// DefaultFilter puts a shape in group 1 and lets it collide with everything.
func DefaultFilter() CollisionFilter {
	return CollisionFilter{Group: DefaultCollisionGroup, Mask: AllGroups}
}

// CanCollide is symmetric: both shapes must accept each other.
func (f CollisionFilter) CanCollide(other CollisionFilter) bool {
	return f.Group&other.Mask != 0 && other.Group&f.Mask != 0
}
