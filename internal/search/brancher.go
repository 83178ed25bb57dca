// Package search implements the search driver of spec §5: the
// propagate/decide/conflict loop, variable-ordering branchers, restarts and
// optimization, generalised from the teacher's Solver.Search/Solver.Solve
// (rhartert/yass, internal/sat/solver.go).
package search

import (
	"github.com/coreplan/cds/internal/clauses"
	"github.com/coreplan/cds/internal/domain"
)

// Brancher decides the next literal to branch on, or reports that every
// variable is already fixed (spec §5.1 "decision selection").
type Brancher interface {
	// NextDecision returns the next literal to assert as a decision. ok is
	// false once every present variable is fixed, signalling a solution.
	NextDecision(store *domain.Store) (lit domain.Literal, ok bool)

	// Bump rewards a variable for appearing in a learned clause. Branchers
	// that do not use activity may ignore this.
	Bump(v domain.Variable)

	// Decay ages every variable's activity, called once per conflict.
	Decay()
}

func fixed(store *domain.Store, v domain.Variable) bool {
	return store.LB(v) >= store.UB(v)
}

// halfLiteral returns the decision literal that fixes v to the lower half of
// its current domain: ub(v) <= mid. This mirrors a CP solver's usual
// "assign to lower bound first, binary split on backtrack" policy rather
// than the teacher's pure Boolean true/false choice, since domain.Variable
// ranges over more than two values.
func halfLiteral(store *domain.Store, v domain.Variable) domain.Literal {
	lb, ub := store.LB(v), store.UB(v)
	mid := lb + (ub-lb)/2
	return domain.NewLiteral(domain.PosView(v), mid)
}

// ActivityBrancher orders variables by VSIDS-style activity, generalising
// the teacher's VarOrder (internal/sat/ordering.go) from Boolean variables
// to bounded integer ones: activity still drives which variable to split
// next, but the literal produced is a half-domain split rather than a
// truth assignment. The heap bookkeeping itself lives in
// internal/clauses.VarOrder, since the clause reasoner is what bumps
// activity on conflict (spec §4.2's VSIDS section).
type ActivityBrancher struct {
	order *clauses.VarOrder
}

// NewActivityBrancher returns a brancher tracking activity for exactly
// numVars variables (spec's variable 0 is never branched on; callers pass
// store.NumVariables()).
func NewActivityBrancher(numVars int, decay float64) *ActivityBrancher {
	return &ActivityBrancher{order: clauses.NewVarOrder(numVars, decay)}
}

func (b *ActivityBrancher) Bump(v domain.Variable) { b.order.Bump(v) }

func (b *ActivityBrancher) Decay() { b.order.Decay() }

func (b *ActivityBrancher) NextDecision(store *domain.Store) (domain.Literal, bool) {
	reinsert := make([]domain.Variable, 0, 8)
	defer func() {
		for _, v := range reinsert {
			b.order.Reinsert(v)
		}
	}()

	for {
		v, ok := b.order.PopMax()
		if !ok {
			return domain.Literal(0), false
		}
		if int(v) == 0 {
			continue
		}
		if fixed(store, v) || store.PresenceStatusOf(v) == domain.Absent {
			reinsert = append(reinsert, v) // may be a candidate again after a backtrack
			continue
		}
		reinsert = append(reinsert, v)
		return halfLiteral(store, v), true
	}
}

// FirstFailBrancher picks the unfixed variable with the smallest remaining
// domain, a classic CP heuristic the teacher's pure-SAT ordering has no
// equivalent for; grounded on the general "smallest domain first" strategy
// named in spec §5.1.
type FirstFailBrancher struct{ numVars int }

func NewFirstFailBrancher(numVars int) *FirstFailBrancher {
	return &FirstFailBrancher{numVars: numVars}
}

func (b *FirstFailBrancher) Bump(domain.Variable) {}
func (b *FirstFailBrancher) Decay()               {}

func (b *FirstFailBrancher) NextDecision(store *domain.Store) (domain.Literal, bool) {
	best := domain.Variable(-1)
	bestSize := int64(1) << 62
	for i := 1; i < b.numVars; i++ {
		v := domain.Variable(i)
		if fixed(store, v) || store.PresenceStatusOf(v) == domain.Absent {
			continue
		}
		size := int64(store.UB(v)) - int64(store.LB(v))
		if size < bestSize {
			bestSize, best = size, v
		}
	}
	if best < 0 {
		return domain.Literal(0), false
	}
	return halfLiteral(store, best), true
}

// LexicalBrancher picks the first unfixed variable in declaration order and
// fixes it to its lower bound, the simplest deterministic strategy named in
// spec §5.1, useful as a baseline and for reproducible test fixtures.
type LexicalBrancher struct{ numVars int }

func NewLexicalBrancher(numVars int) *LexicalBrancher { return &LexicalBrancher{numVars: numVars} }

func (b *LexicalBrancher) Bump(domain.Variable) {}
func (b *LexicalBrancher) Decay()               {}

func (b *LexicalBrancher) NextDecision(store *domain.Store) (domain.Literal, bool) {
	for i := 1; i < b.numVars; i++ {
		v := domain.Variable(i)
		if fixed(store, v) || store.PresenceStatusOf(v) == domain.Absent {
			continue
		}
		return domain.NewLiteral(domain.PosView(v), store.LB(v)), true
	}
	return domain.Literal(0), false
}

// EarliestStartTimeBrancher fixes the unfixed variable with the smallest
// lower bound first, the standard scheduling heuristic for activity start
// times on top of a difference-logy theory (spec §5.1 "earliest start
// time" strategy; no teacher equivalent, grounded on the same
// linear-scan-over-bounds shape as FirstFailBrancher).
type EarliestStartTimeBrancher struct{ numVars int }

func NewEarliestStartTimeBrancher(numVars int) *EarliestStartTimeBrancher {
	return &EarliestStartTimeBrancher{numVars: numVars}
}

func (b *EarliestStartTimeBrancher) Bump(domain.Variable) {}
func (b *EarliestStartTimeBrancher) Decay()               {}

func (b *EarliestStartTimeBrancher) NextDecision(store *domain.Store) (domain.Literal, bool) {
	best := domain.Variable(-1)
	bestLB := int32(1)<<31 - 1
	for i := 1; i < b.numVars; i++ {
		v := domain.Variable(i)
		if fixed(store, v) || store.PresenceStatusOf(v) == domain.Absent {
			continue
		}
		if lb := store.LB(v); lb < bestLB {
			bestLB, best = lb, v
		}
	}
	if best < 0 {
		return domain.Literal(0), false
	}
	return domain.NewLiteral(domain.PosView(best), store.LB(best)), true
}
