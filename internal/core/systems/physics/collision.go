package physics

// Contact is one contact point between two shapes. Normal is a unit vector
// pointing from A towards B; PointA and PointB lie on the surfaces of A and B.
type Contact struct {
	ShapeA, ShapeB *Shape
	BodyA, BodyB   *Body
	Normal         Vec2
	PointA         Vec2
	PointB         Vec2
	Depth          float64
}

// Position is the midpoint between the two surface points.
func (c Contact) Position() Vec2 {
	return c.PointA.Add(c.PointB).Mul(0.5)
}

func (c Contact) flipped() Contact {
	return Contact{
		ShapeA: c.ShapeB, ShapeB: c.ShapeA,
		BodyA: c.BodyB, BodyB: c.BodyA,
		Normal: c.Normal.Mul(-1),
		PointA: c.PointB, PointB: c.PointA,
		Depth: c.Depth,
	}
}

// referenceEdgeTolerance biases convex-convex reference edge selection
// towards shape A so near-equal separations do not flip between steps.
const referenceEdgeTolerance = 0.0005

// narrowphase appends the contacts between a and b to out. Pairs are
// dispatched with the lower Kind first and flipped back afterwards.
func narrowphase(a, b *Shape, out []Contact) []Contact {
	if a.Kind() > b.Kind() {
		start := len(out)
		out = narrowphase(b, a, out)
		for i := start; i < len(out); i++ {
			out[i] = out[i].flipped()
		}
		return out
	}

	xa, xb := a.WorldTransform(), b.WorldTransform()
	switch ga := a.geom.(type) {
	case Plane:
		switch gb := b.geom.(type) {
		case *Circle:
			return planeCircle(a, b, ga, gb, xa, xb, out)
		case *Convex:
			return planeConvex(a, b, ga, gb, xa, xb, out)
		}
	case *Circle:
		switch gb := b.geom.(type) {
		case *Circle:
			return circleCircle(a, b, ga, gb, xa, xb, out)
		case *Convex:
			return circleConvex(a, b, ga, gb, xa, xb, out)
		}
	case *Convex:
		if gb, ok := b.geom.(*Convex); ok {
			return convexConvex(a, b, ga, gb, xa, xb, out)
		}
	}
	return out
}

func newContact(a, b *Shape) Contact {
	return Contact{ShapeA: a, ShapeB: b, BodyA: a.body, BodyB: b.body}
}

func planeCircle(a, b *Shape, p Plane, c *Circle, xa, xb Transform, out []Contact) []Contact {
	n := p.normal(xa)
	dist := xb.Pos.Sub(xa.Pos).Dot(n)
	if dist >= c.radius {
		return out
	}
	ct := newContact(a, b)
	ct.Normal = n
	ct.PointA = xb.Pos.Sub(n.Mul(dist))
	ct.PointB = xb.Pos.Sub(n.Mul(c.radius))
	ct.Depth = c.radius - dist
	return append(out, ct)
}

// planeConvex emits one contact per penetrating vertex in vertex order.
func planeConvex(a, b *Shape, p Plane, c *Convex, xa, xb Transform, out []Contact) []Contact {
	n := p.normal(xa)
	for _, lv := range c.vertices {
		v := xb.Apply(lv)
		dist := v.Sub(xa.Pos).Dot(n)
		if dist >= 0 {
			continue
		}
		ct := newContact(a, b)
		ct.Normal = n
		ct.PointA = v.Sub(n.Mul(dist))
		ct.PointB = v
		ct.Depth = -dist
		out = append(out, ct)
	}
	return out
}

func circleCircle(a, b *Shape, ca, cb *Circle, xa, xb Transform, out []Contact) []Contact {
	d := xb.Pos.Sub(xa.Pos)
	r := ca.radius + cb.radius
	dist := d.Len()
	if dist >= r {
		return out
	}
	// concentric circles push apart along +y
	n, _ := normalizeOr(d, worldUp)
	ct := newContact(a, b)
	ct.Normal = n
	ct.PointA = xa.Pos.Add(n.Mul(ca.radius))
	ct.PointB = xb.Pos.Sub(n.Mul(cb.radius))
	ct.Depth = r - dist
	return append(out, ct)
}

// circleConvex finds the face of maximum separation, then resolves the
// vertex or face region the circle center lies in.
func circleConvex(a, b *Shape, circle *Circle, poly *Convex, xa, xb Transform, out []Contact) []Contact {
	center := xb.ApplyInverse(xa.Pos)
	r := circle.radius
	verts, normals := poly.vertices, poly.normals
	n := len(verts)

	best := 0
	separation := -1e300
	for i := 0; i < n; i++ {
		s := normals[i].Dot(center.Sub(verts[i]))
		if s > r {
			return out
		}
		if s > separation {
			separation, best = s, i
		}
	}

	v1, v2 := verts[best], verts[(best+1)%n]
	var normal, onPoly Vec2
	var depth float64

	switch {
	case separation < epsilon:
		// center inside the polygon
		normal = normals[best]
		onPoly = center.Sub(normal.Mul(separation))
		depth = r - separation
	case center.Sub(v1).Dot(v2.Sub(v1)) <= 0:
		d := center.Sub(v1)
		dist := d.Len()
		if dist > r {
			return out
		}
		normal, _ = normalizeOr(d, normals[best])
		onPoly = v1
		depth = r - dist
	case center.Sub(v2).Dot(v1.Sub(v2)) <= 0:
		d := center.Sub(v2)
		dist := d.Len()
		if dist > r {
			return out
		}
		normal, _ = normalizeOr(d, normals[best])
		onPoly = v2
		depth = r - dist
	default:
		normal = normals[best]
		onPoly = center.Sub(normal.Mul(separation))
		depth = r - separation
	}

	// normal points from the polygon to the circle; the contact wants A to B
	wn := rotate(normal, xb.Angle)
	ct := newContact(a, b)
	ct.Normal = wn.Mul(-1)
	ct.PointA = xa.Pos.Sub(wn.Mul(r))
	ct.PointB = xb.Apply(onPoly)
	ct.Depth = depth
	return append(out, ct)
}

// maxSeparation returns the edge of p1 with the largest separation from p2.
// Ties keep the lowest index.
func maxSeparation(p1 *Convex, x1 Transform, p2 *Convex, x2 Transform) (int, float64) {
	best, bestSep := 0, -1e300
	for i, ln := range p1.normals {
		n := rotate(ln, x1.Angle)
		v1 := x1.Apply(p1.vertices[i])
		sep := 1e300
		for _, lv := range p2.vertices {
			if s := n.Dot(x2.Apply(lv).Sub(v1)); s < sep {
				sep = s
			}
		}
		if sep > bestSep {
			best, bestSep = i, sep
		}
	}
	return best, bestSep
}

// clipSegment keeps the part of the segment behind the line n·p = offset.
func clipSegment(in [2]Vec2, normal Vec2, offset float64) ([2]Vec2, int) {
	var out [2]Vec2
	count := 0
	d0 := normal.Dot(in[0]) - offset
	d1 := normal.Dot(in[1]) - offset
	if d0 <= 0 {
		out[count] = in[0]
		count++
	}
	if d1 <= 0 {
		out[count] = in[1]
		count++
	}
	if d0*d1 < 0 && count < 2 {
		t := d0 / (d0 - d1)
		out[count] = in[0].Add(in[1].Sub(in[0]).Mul(t))
		count++
	}
	return out, count
}

// convexConvex uses the separating axis test to pick a reference face,
// then clips the most anti-parallel incident edge against its side planes.
func convexConvex(a, b *Shape, pa, pb *Convex, xa, xb Transform, out []Contact) []Contact {
	edgeA, sepA := maxSeparation(pa, xa, pb, xb)
	if sepA > 0 {
		return out
	}
	edgeB, sepB := maxSeparation(pb, xb, pa, xa)
	if sepB > 0 {
		return out
	}

	ref, inc := pa, pb
	xr, xi := xa, xb
	edge := edgeA
	flip := false
	if sepB > sepA+referenceEdgeTolerance {
		ref, inc = pb, pa
		xr, xi = xb, xa
		edge = edgeB
		flip = true
	}

	refNormal := rotate(ref.normals[edge], xr.Angle)
	incEdge, minDot := 0, 1e300
	for i, ln := range inc.normals {
		if d := refNormal.Dot(rotate(ln, xi.Angle)); d < minDot {
			incEdge, minDot = i, d
		}
	}
	incident := [2]Vec2{
		xi.Apply(inc.vertices[incEdge]),
		xi.Apply(inc.vertices[(incEdge+1)%len(inc.vertices)]),
	}

	v11 := xr.Apply(ref.vertices[edge])
	v12 := xr.Apply(ref.vertices[(edge+1)%len(ref.vertices)])
	tangent, _ := normalizeOr(v12.Sub(v11), perp(refNormal))
	normal := Vec2{tangent[1], -tangent[0]}
	front := normal.Dot(v11)
	side1 := -tangent.Dot(v11)
	side2 := tangent.Dot(v12)

	clip1, n1 := clipSegment(incident, tangent.Mul(-1), side1)
	if n1 < 2 {
		return out
	}
	clip2, n2 := clipSegment(clip1, tangent, side2)
	if n2 < 2 {
		return out
	}

	for _, p := range clip2 {
		sep := normal.Dot(p) - front
		if sep > 0 {
			continue
		}
		onRef := p.Sub(normal.Mul(sep))
		ct := newContact(a, b)
		ct.Depth = -sep
		if flip {
			ct.Normal = normal.Mul(-1)
			ct.PointA, ct.PointB = p, onRef
		} else {
			ct.Normal = normal
			ct.PointA, ct.PointB = onRef, p
		}
		out = append(out, ct)
	}
	return out
}
