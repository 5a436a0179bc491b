package physics

// SetMass changes the mass of a dynamic body and recomputes its inertia.
func (b *Body) SetMass(mass float64) error {
	if b.typ == Static {
		return ErrInvalidMass
	}
	if !(mass > 0) || !finite(mass) {
		return ErrInvalidMass
	}
	b.mass = mass
	b.updateMassProperties()
	return nil
}

// SetDensity sets mass to density times the total shape area. Static bodies
// are left untouched. A dynamic body without any area cannot take a density.
func (b *Body) SetDensity(density float64) error {
	if !(density > 0) || !finite(density) {
		return ErrInvalidDensity
	}
	if b.typ == Static {
		return nil
	}
	mass := density * b.totalArea()
	if !(mass > 0) {
		return ErrInvalidMass
	}
	b.mass = mass
	b.updateMassProperties()
	return nil
}

// SetFixedRotation toggles rotation locking.
func (b *Body) SetFixedRotation(fixed bool) {
	b.fixedRotation = fixed
	b.updateMassProperties()
}

// AdjustCenterOfMass moves the body origin onto the area-weighted centroid
// of its shapes. The shapes keep their world placement and the body keeps
// its motion. Constraint and spring anchors are body-local, so call it
// before attaching them.
func (b *Body) AdjustCenterOfMass() error {
	if b.world != nil && b.world.locked {
		return ErrWorldLocked
	}
	total := b.totalArea()
	if total == 0 {
		return nil
	}
	var c Vec2
	for _, s := range b.shapes {
		area := s.geom.Area()
		c = c.Add(s.offset.Add(rotate(s.geom.Centroid(), s.angle)).Mul(area))
	}
	c = c.Mul(1 / total)
	if c == zeroVec {
		return nil
	}

	for _, s := range b.shapes {
		s.offset = s.offset.Sub(c)
	}
	shift := rotate(c, b.Angle)
	b.Position = b.Position.Add(shift)
	b.Velocity = b.Velocity.Add(crossSV(b.AngularVelocity, shift))
	b.updateMassProperties()
	return nil
}

func (b *Body) totalArea() float64 {
	var area float64
	for _, s := range b.shapes {
		area += s.geom.Area()
	}
	return area
}

// updateMassProperties distributes the body mass over its shapes by area
// and sums their inertia about the body origin.
func (b *Body) updateMassProperties() {
	if b.typ == Static {
		b.mass, b.invMass, b.inertia, b.invInertia = 0, 0, 0, 0
		return
	}

	total := b.totalArea()
	var inertia float64
	if total > 0 {
		for _, s := range b.shapes {
			area := s.geom.Area()
			if area == 0 {
				continue
			}
			m := b.mass * area / total
			c := s.offset.Add(rotate(s.geom.Centroid(), s.angle))
			inertia += s.geom.Inertia(m) + m*c.Dot(c)
		}
	}

	b.inertia = inertia
	b.invMass = 1 / b.mass
	b.invInertia = 0
	if inertia > 0 && !b.fixedRotation {
		b.invInertia = 1 / inertia
	}
}
