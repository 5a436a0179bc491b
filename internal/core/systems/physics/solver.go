package physics

// SolverStats reports what the last velocity solve did.
type SolverStats struct {
	Equations  int
	Iterations int
	Residual   float64
}

// gsSolver is a projected Gauss-Seidel solver over velocity rows. Rows are
// visited in the order they were added, which keeps the result
// reproducible for identical input.
type gsSolver struct {
	iterations int
	tolerance  float64
}

func (s gsSolver) solve(h float64, rows []*equation, bodies []*Body) SolverStats {
	stats := SolverStats{Equations: len(rows)}
	for _, b := range bodies {
		b.vlambda, b.wlambda = zeroVec, 0
	}
	if len(rows) == 0 {
		return stats
	}

	for _, eq := range rows {
		eq.prepare(h)
	}

	tolSq := s.tolerance * s.tolerance
	for it := 0; it < s.iterations; it++ {
		var total float64
		for _, eq := range rows {
			total += eq.iterate()
		}
		stats.Iterations = it + 1
		stats.Residual = total
		if total*total < tolSq {
			break
		}
	}

	for _, b := range bodies {
		if b.typ == Static {
			continue
		}
		b.Velocity = b.Velocity.Add(b.vlambda)
		b.AngularVelocity += b.wlambda
	}
	return stats
}
