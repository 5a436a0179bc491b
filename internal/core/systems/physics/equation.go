package physics

import "math"

// equation is one velocity constraint row between two bodies. G holds the
// Jacobian as [vA.x, vA.y, wA, vB.x, vB.y, wB]. Bounds are impulses.
type equation struct {
	bodyA, bodyB *Body
	G            [6]float64
	offset       float64 // Gq, the position error along the row

	minImpulse, maxImpulse float64
	stiffness, relaxation  float64
	enabled                bool

	// friction rows take their bound from a normal row
	normal   *equation
	friction float64

	// per-step solver values
	b, invC, eps float64
	lambda       float64
}

func (eq *equation) reset(a, b *Body) {
	*eq = equation{bodyA: a, bodyB: b, enabled: true}
}

func (eq *equation) setJacobian(linA Vec2, angA float64, linB Vec2, angB float64) {
	eq.G = [6]float64{linA[0], linA[1], angA, linB[0], linB[1], angB}
}

// spook returns the a, b and epsilon parameters of the SPOOK stabilization
// for the given time step.
func spook(stiffness, relaxation, h float64) (a, b, eps float64) {
	d := relaxation
	a = 4 / (h * (1 + 4*d))
	b = 4 * d / (1 + 4*d)
	eps = 4 / (h * h * stiffness * (1 + 4*d))
	return a, b, eps
}

// prepare computes the right-hand side and the inverse effective mass.
func (eq *equation) prepare(h float64) {
	a, b, eps := spook(eq.stiffness, eq.relaxation, h)
	eq.eps = eps
	eq.b = -a*eq.offset - b*eq.gw() - h*eq.giMf()

	c := eq.giMGt() + eps
	eq.invC = 0
	if c > 0 {
		eq.invC = 1 / c
	}
	eq.lambda = 0
}

func (eq *equation) gw() float64 {
	A, B, G := eq.bodyA, eq.bodyB, &eq.G
	return G[0]*A.Velocity[0] + G[1]*A.Velocity[1] + G[2]*A.AngularVelocity +
		G[3]*B.Velocity[0] + G[4]*B.Velocity[1] + G[5]*B.AngularVelocity
}

func (eq *equation) gwLambda() float64 {
	A, B, G := eq.bodyA, eq.bodyB, &eq.G
	return G[0]*A.vlambda[0] + G[1]*A.vlambda[1] + G[2]*A.wlambda +
		G[3]*B.vlambda[0] + G[4]*B.vlambda[1] + G[5]*B.wlambda
}

func (eq *equation) giMf() float64 {
	A, B, G := eq.bodyA, eq.bodyB, &eq.G
	return A.invMass*(G[0]*A.Force[0]+G[1]*A.Force[1]) + A.invInertia*G[2]*A.AngularForce +
		B.invMass*(G[3]*B.Force[0]+G[4]*B.Force[1]) + B.invInertia*G[5]*B.AngularForce
}

func (eq *equation) giMGt() float64 {
	A, B, G := eq.bodyA, eq.bodyB, &eq.G
	return A.invMass*(G[0]*G[0]+G[1]*G[1]) + A.invInertia*G[2]*G[2] +
		B.invMass*(G[3]*G[3]+G[4]*G[4]) + B.invInertia*G[5]*G[5]
}

func (eq *equation) addToWlambda(delta float64) {
	A, B, G := eq.bodyA, eq.bodyB, &eq.G
	A.vlambda = A.vlambda.Add(Vec2{G[0], G[1]}.Mul(A.invMass * delta))
	A.wlambda += A.invInertia * G[2] * delta
	B.vlambda = B.vlambda.Add(Vec2{G[3], G[4]}.Mul(B.invMass * delta))
	B.wlambda += B.invInertia * G[5] * delta
}

// iterate runs one projected Gauss-Seidel update and returns |delta|.
func (eq *equation) iterate() float64 {
	lo, hi := eq.minImpulse, eq.maxImpulse
	if eq.normal != nil {
		hi = eq.friction * eq.normal.lambda
		lo = -hi
	}
	delta := eq.invC * (eq.b - eq.gwLambda() - eq.eps*eq.lambda)
	next := eq.lambda + delta
	if next < lo {
		delta = lo - eq.lambda
	} else if next > hi {
		delta = hi - eq.lambda
	}
	eq.lambda += delta
	eq.addToWlambda(delta)
	return math.Abs(delta)
}
