package domain

// Refine1UIP runs the explanation-refinement loop described in spec §4.1:
// given an initial explanation (a set of literals jointly inconsistent, or
// jointly sufficient to imply a target literal), it repeatedly replaces the
// most recently asserted non-decision literal by the literals its
// inferring writer produces, until at most one literal from the current
// decision level remains. It returns the resulting clause (negations of
// the explanation's literals, asserting-clause convention) with the
// first-UIP literal in position 0, and the level to backtrack to.
//
// This generalises the teacher's Solver.analyze (internal/sat/solver.go)
// from "reason clauses of Boolean variables" to "Explain callbacks of
// arbitrary registered writers", keeping the same trail-walking shape: a
// counter of not-yet-resolved current-level literals, walked backwards
// over the trail until it drops to zero.
func (s *Store) Refine1UIP(conflict []Literal) (learned []Literal, backtrackLevel int) {
	s.seen.clear()

	pending := 0 // literals from the current level not yet resolved
	learned = append(learned, Literal(0)) // placeholder for the UIP literal

	nextTrailIdx := len(s.trail) - 1
	level := s.DecisionLevel()

	scratch := conflict
	var uip Literal

	for {
		for _, q := range scratch {
			sv := q.SignedVar()
			v := sv.Variable()
			if s.seen.contains(v) {
				continue
			}
			s.seen.add(v)

			if s.levelOf[sv] == level {
				pending++
				continue
			}

			learned = append(learned, q.Negation())
			if lv := s.levelOf[sv]; lv > backtrackLevel {
				backtrackLevel = lv
			}
		}

		// Find the next seen, non-decision literal on the trail to
		// resolve against.
		var cause Cause
		for {
			ev := s.trail[nextTrailIdx]
			nextTrailIdx--
			sv := ev.Lit.SignedVar()
			v := sv.Variable()
			if s.seen.contains(v) {
				uip = ev.Lit
				cause = s.reasonOf[sv]
				break
			}
		}

		pending--
		if pending <= 0 {
			break
		}

		scratch = s.Explain(cause, uip, scratch[:0])
	}

	learned[0] = uip.Negation()
	return learned, backtrackLevel
}
