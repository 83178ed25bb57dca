package search

import "github.com/coreplan/cds/internal/domain"

// SolveAssumptions runs incremental solving under a temporary set of
// assumed literals (expanded spec §6's "solve_with_assumptions"): each
// assumption is pushed as its own decision level before search resumes
// normally, so the caller can probe "is the problem satisfiable if these
// literals also hold" without rebuilding the model.
//
// Must be called with the driver at decision level 0 (the natural state
// between top-level Solve calls); it backtracks there itself if not.
//
// On StatusUnsat it also returns an unsat core: a subset of assumptions
// that is jointly unsatisfiable with the rest of the problem. The core is
// extracted directly from the conflict clause's cited assumption
// negations rather than the real MARCO-style minimal-core search
// (model.MUSFinder performs that shrink when a caller specifically needs
// a minimal core); this is the same "any sound, not necessarily minimal,
// culprit set" contract MiniSat-family solve-under-assumptions APIs use.
func (d *Driver) SolveAssumptions(assumptions []domain.Literal) (Status, []domain.Literal) {
	if d.store.DecisionLevel() != 0 {
		d.backtrackTo(0)
	}

	for _, lit := range assumptions {
		if conflict := d.propagateAll(); conflict != nil {
			return StatusUnsat, d.assumptionCore(conflict, assumptions)
		}
		if d.store.Entails(lit) {
			continue // already implied by the problem plus earlier assumptions
		}
		if d.store.Entails(lit.Negation()) {
			return StatusUnsat, []domain.Literal{lit}
		}
		if d.store.Decide(lit) == domain.Conflict {
			return StatusUnsat, d.assumptionCore([]domain.Literal{lit}, assumptions)
		}
	}

	if conflict := d.propagateAll(); conflict != nil {
		return StatusUnsat, d.assumptionCore(conflict, assumptions)
	}

	status := d.Solve()
	if status == StatusUnsat {
		// The wider search exhausted every branch below the assumed
		// decisions: the whole assumption set is returned as the core,
		// without trying to narrow it.
		return StatusUnsat, append([]domain.Literal(nil), assumptions...)
	}
	return status, nil
}

// assumptionCore returns the subset of assumptions whose negation appears
// in conflict, i.e. the assumptions conflict analysis actually cited. If
// none are cited directly (the conflict arose purely from propagation
// consequences of the assumptions rather than naming them), every
// assumption is returned, including any not yet decided.
func (d *Driver) assumptionCore(conflict []domain.Literal, assumptions []domain.Literal) []domain.Literal {
	assumed := make(map[domain.Literal]bool, len(assumptions))
	for _, a := range assumptions {
		assumed[a] = true
	}

	var core []domain.Literal
	for _, lit := range conflict {
		if assumed[lit.Negation()] {
			core = append(core, lit.Negation())
		}
	}
	if len(core) > 0 {
		return core
	}
	return append([]domain.Literal(nil), assumptions...)
}
