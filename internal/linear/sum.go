// Package linear implements the bound-consistency propagator for the
// "linear sum <= constant" normal form of spec §4.5. It has no teacher
// analogue; it is grounded on the same "registered writer, trail-cursor
// propagation, Explain via reconstructed justification" shape as
// internal/stn.Theory, since both are theories that cooperate with the
// domain store the way internal/sat/solver.go's clause engine does for
// Booleans.
package linear

import "github.com/coreplan/cds/internal/domain"

// term is one coefficient*variable addend of a normalised linear sum.
type term struct {
	coef int32
	v    domain.Variable
}

// Sum is one registered constraint "a1*x1 + a2*x2 + ... <= bound",
// optionally gated by a validity literal the way an STN edge is gated by
// its valid literal (spec §4.5's validity-scope rule).
type Sum struct {
	terms []term
	bound int32
	valid domain.Literal
}

// Theory propagates every registered Sum to bound-consistency: for each
// term, the tightest the others can be pushes a bound on the remaining
// one. This is the textbook "sum" global constraint's bound-consistency
// rule, applied per term on every call, which is simpler than STN's
// incremental expansion since a linear sum has no transitive chaining to
// exploit.
type Theory struct {
	store    *domain.Store
	writerID domain.WriterID
	sums     []Sum

	trailCursor int
	touched     map[domain.Variable]bool
}

// NewTheory registers a fresh linear-sum theory against store.
func NewTheory(store *domain.Store) *Theory {
	t := &Theory{store: store, touched: map[domain.Variable]bool{}}
	t.writerID = store.RegisterWriter(t)
	return t
}

// AddSum registers a new linear sum constraint and returns its index.
// Inferences carry the sum index in the high 16 bits of the Cause payload
// and the tightened term's index in the low 16 bits.
func (t *Theory) AddSum(terms map[domain.Variable]int32, bound int32, valid domain.Literal) int {
	s := Sum{bound: bound, valid: valid}
	for v, c := range terms {
		s.terms = append(s.terms, term{coef: c, v: v})
	}
	t.sums = append(t.sums, s)
	return len(t.sums) - 1
}

// OnBacktrack clamps the trail cursor to the store's restored trail, so
// events pushed after the backtrack are still seen by the next Propagate.
func (t *Theory) OnBacktrack(int) {
	if n := len(t.store.Trail()); t.trailCursor > n {
		t.trailCursor = n
	}
}

// maxContribution is the largest value a term can currently contribute to
// the sum (coef*ub(v) for positive coef, coef*lb(v) for negative coef), used
// to cheaply detect that a sum is already satisfied no matter how the
// remaining domains resolve.
func (t *Theory) maxContribution(tm term) int64 {
	if tm.coef >= 0 {
		return int64(tm.coef) * int64(t.store.UB(tm.v))
	}
	return int64(tm.coef) * int64(t.store.LB(tm.v))
}

// minContribution is the smallest value a term can currently contribute.
// Bound-consistency pruning of term i uses the OTHER terms' minContribution:
// term i can only be pruned as far as still leaves some way for the rest of
// the sum to reach that minimum and stay within bound.
func (t *Theory) minContribution(tm term) int64 {
	if tm.coef >= 0 {
		return int64(tm.coef) * int64(t.store.LB(tm.v))
	}
	return int64(tm.coef) * int64(t.store.UB(tm.v))
}

// Propagate re-checks every sum whenever any of its terms' variables
// changed since the last call. It is not incremental at the per-edge
// level like internal/stn.Theory (a linear sum has no useful notion of
// "propagator source"), but it is cheap enough to re-scan wholesale: each
// sum costs O(terms) per call, matching the textbook bound-consistency
// filtering algorithm for the sum global constraint.
func (t *Theory) Propagate() []domain.Literal {
	trail := t.store.Trail()
	if t.trailCursor > len(trail) {
		t.trailCursor = len(trail)
	}
	for k := range t.touched {
		delete(t.touched, k)
	}
	for _, ev := range trail[t.trailCursor:] {
		t.touched[ev.Lit.SignedVar().Variable()] = true
	}
	t.trailCursor = len(trail)

	for i := range t.sums {
		s := &t.sums[i]
		if !t.store.Entails(s.valid) {
			continue
		}
		if !t.anyTouched(s) {
			continue
		}

		var totalMax int64
		for _, tm := range s.terms {
			totalMax += t.maxContribution(tm)
		}
		if totalMax <= int64(s.bound) {
			continue // already satisfied regardless of remaining choices
		}

		var totalMin int64
		for _, tm := range s.terms {
			totalMin += t.minContribution(tm)
		}

		for ti, tm := range s.terms {
			slack := int64(s.bound) - (totalMin - t.minContribution(tm))
			if conflict := t.tighten(i, ti, tm, slack); conflict != nil {
				return conflict
			}
		}
	}
	return nil
}

func (t *Theory) anyTouched(s *Sum) bool {
	for _, tm := range s.terms {
		if t.touched[tm.v] {
			return true
		}
	}
	return false
}

// tighten derives and applies the bound implied on term ti's variable by
// the remaining slack in the sum, returning a conflict explanation if the
// implied bound would be infeasible.
func (t *Theory) tighten(sumIdx, termIdx int, tm term, slack int64) []domain.Literal {
	var lit domain.Literal
	if tm.coef > 0 {
		newUB := floorDiv(slack, int64(tm.coef))
		if newUB >= int64(t.store.UB(tm.v)) {
			return nil
		}
		lit = domain.NewLiteral(domain.PosView(tm.v), int32(newUB))
	} else if tm.coef < 0 {
		newNegUB := floorDiv(slack, int64(-tm.coef)) // bound on -lb(v)
		cur := t.store.BoundOf(domain.NegView(tm.v))
		if newNegUB >= int64(cur) {
			return nil
		}
		lit = domain.NewLiteral(domain.NegView(tm.v), int32(newNegUB))
	} else {
		return nil
	}

	payload := uint32(sumIdx)<<16 | uint32(termIdx)
	if t.store.Set(lit, domain.Cause{Writer: t.writerID, Payload: payload}) == domain.Conflict {
		return t.explainSum(sumIdx)
	}
	return nil
}

// floorDiv is integer division rounding toward negative infinity, needed
// because Go's / truncates toward zero and slack may be negative.
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// minContributionLit is the antecedent literal asserting the bound that
// produced tm's minContribution: lb(v) for a positive coefficient, ub(v)
// for a negative one, matching whichever bound Propagate actually read.
func (t *Theory) minContributionLit(tm term) domain.Literal {
	if tm.coef >= 0 {
		return domain.NewLiteral(domain.NegView(tm.v), -t.store.LB(tm.v))
	}
	return domain.NewLiteral(domain.PosView(tm.v), t.store.UB(tm.v))
}

// explainSum returns the current minimum-contribution bound of every term
// as the conflict seed: the other terms' bounds imply the tightening that
// failed, and the conflicting term's own bound is what it contradicts,
// matching the minContribution-based derivation in Propagate/tighten.
func (t *Theory) explainSum(sumIdx int) []domain.Literal {
	s := t.sums[sumIdx]
	var out []domain.Literal
	if !s.valid.IsTrue() {
		out = append(out, s.valid)
	}
	for _, tm := range s.terms {
		out = append(out, t.minContributionLit(tm))
	}
	return out
}

// Explain implements domain.Explainer: the justification for the bound
// placed on one term is the current minimum-contribution bound of every
// other term in the same sum, mirroring explainSum.
func (t *Theory) Explain(payload uint32, lit domain.Literal, out []domain.Literal) []domain.Literal {
	sumIdx, termIdx := int(payload>>16), int(payload&0xFFFF)
	s := t.sums[sumIdx]
	if !s.valid.IsTrue() {
		out = append(out, s.valid)
	}
	for i, tm := range s.terms {
		if i == termIdx {
			continue
		}
		out = append(out, t.minContributionLit(tm))
	}
	return out
}
