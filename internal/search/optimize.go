package search

import "github.com/coreplan/cds/internal/domain"

// Optimizer drives repeated Solve calls to minimize an objective variable,
// tightening its upper bound after every improving solution until the
// search proves no better solution exists (spec §5.3's "branch and bound"
// optimization loop). The teacher has no equivalent (rhartert/yass only
// ever decides satisfiability); this is grounded on the same
// propagate/decide/conflict driver, reusing it as a subroutine the way
// OLM's resolver reuses its solve() for successive constraint sets
// (solve.go).
type Optimizer struct {
	store     *domain.Store
	objective domain.Variable

	best     int32
	hasBest  bool
	snapshot func() // called to record the current assignment as the incumbent
}

// NewOptimizer builds an optimizer that minimizes objective, calling
// onImprove (if non-nil) every time a strictly better solution is found so
// the caller can snapshot whatever assignment representation it needs.
func NewOptimizer(store *domain.Store, objective domain.Variable, onImprove func()) *Optimizer {
	return &Optimizer{store: store, objective: objective, snapshot: onImprove}
}

// Minimize runs d to exhaustion, using the Driver's onSolution hook to
// tighten the objective's upper bound after each solution and keep
// searching. It returns the best objective value found, or ok=false if no
// feasible solution was ever found.
func (o *Optimizer) Minimize(d *Driver) (best int32, ok bool) {
	d.onSolution = func() bool {
		v := o.store.UB(o.objective)
		o.best, o.hasBest = v, true
		if o.snapshot != nil {
			o.snapshot()
		}
		// Tighten strictly: the next solution must beat this one. This is
		// asserted as a root-level encoding fact (the driver is taken back
		// to level 0 first), matching the teacher's convention that
		// root-level tightenings use EncodingCause; if the root refutes it,
		// no better solution exists and the search stops.
		d.backtrackTo(0)
		return o.store.Set(domain.NewLiteral(domain.PosView(o.objective), v-1), domain.EncodingCause) != domain.Conflict
	}
	status := d.Solve()
	if status == StatusUnsat && !o.hasBest {
		return 0, false
	}
	return o.best, o.hasBest
}

// MinimizeWith is Minimize but stops early once the objective reaches
// target (a known or externally-supplied lower bound), useful when a
// portfolio worker (package portfolio) only needs to confirm or refute a
// candidate optimum shared by a sibling worker.
func (o *Optimizer) MinimizeWith(d *Driver, target int32) (best int32, ok bool) {
	d.onSolution = func() bool {
		v := o.store.UB(o.objective)
		o.best, o.hasBest = v, true
		if o.snapshot != nil {
			o.snapshot()
		}
		if v <= target {
			return false
		}
		d.backtrackTo(0)
		return o.store.Set(domain.NewLiteral(domain.PosView(o.objective), v-1), domain.EncodingCause) != domain.Conflict
	}
	status := d.Solve()
	if status == StatusUnsat && !o.hasBest {
		return 0, false
	}
	return o.best, o.hasBest
}
