package model

import "github.com/coreplan/cds/internal/search"

// MUSFinder enumerates minimal unsatisfiable subsets (MUSes) and maximal
// satisfiable subsets (MSSes) of a set of optional constraints layered on
// top of a fixed, always-present base model — the explainability surface
// named in spec §4.2's conflict-analysis discussion and grounded on
// original_source/explainability/src/musmcs_enumeration/marco/subsolvers/subsetsolver.rs's
// seed/grow/shrink discipline.
//
// The real MARCO algorithm (Liffiton et al., "Fast, Flexible MUS
// Enumeration") drives seed selection with an incremental SAT-backed "map"
// formula so that no subset is ever tried twice. This implementation
// keeps MARCO's grow/shrink core but replaces the map solver with a
// direct bookkeeping of already-found MUSes/MSSes, since standing up a
// second nested SAT engine purely to pick untried seeds is out of
// proportion to what the rest of this package needs; Enumerate is
// therefore a best-effort search bounded by maxSeeds rather than a
// complete enumerator.
type MUSFinder struct {
	newBase    func() *Model
	candidates []AppliedConstraint
}

// NewMUSFinder returns a finder over candidates, each checked by lowering
// it onto a freshly built base model (newBase must return an equivalent,
// never-shared model every call: MUS/MCS checks run many independent
// trials).
func NewMUSFinder(newBase func() *Model, candidates []AppliedConstraint) *MUSFinder {
	return &MUSFinder{newBase: newBase, candidates: append([]AppliedConstraint(nil), candidates...)}
}

// satisfiable builds a trial model containing exactly the candidates named
// by subset and runs search to completion.
func (f *MUSFinder) satisfiable(subset []int) bool {
	m := f.newBase()
	for _, i := range subset {
		ac := f.candidates[i]
		m.AddConstraint(ac.Subject, ac.Constraint)
	}
	brancher := search.NewActivityBrancher(m.Store.NumVariables(), 0.95)
	d := search.NewDriver(m.Store, brancher, []search.Propagator{m.Clauses, m.STN, m.Linear})
	return d.Solve() == search.StatusSat
}

// ShrinkToMUS removes candidates from an unsatisfiable subset one at a
// time (a linear deletion-based shrink, simpler than QuickXplain's
// divide-and-conquer but sufficient for the subset sizes this package
// targets) until removing any one more candidate would make it
// satisfiable, i.e. every remaining candidate is necessary for the
// conflict.
func (f *MUSFinder) ShrinkToMUS(subset []int) []int {
	cur := append([]int(nil), subset...)
	for i := 0; i < len(cur); {
		trial := make([]int, 0, len(cur)-1)
		trial = append(trial, cur[:i]...)
		trial = append(trial, cur[i+1:]...)
		if !f.satisfiable(trial) {
			cur = trial // candidate i was not needed; drop it, don't advance i
			continue
		}
		i++
	}
	return cur
}

// GrowToMSS adds candidates to a satisfiable subset one at a time until no
// remaining candidate can be added without losing satisfiability.
func (f *MUSFinder) GrowToMSS(subset []int) []int {
	included := map[int]bool{}
	for _, i := range subset {
		included[i] = true
	}
	cur := append([]int(nil), subset...)
	for i := range f.candidates {
		if included[i] {
			continue
		}
		trial := append(append([]int(nil), cur...), i)
		if f.satisfiable(trial) {
			cur = trial
			included[i] = true
		}
	}
	return cur
}

// FindOneMUS reports whether the full candidate set is unsatisfiable and,
// if so, one minimal unsatisfiable subset of it.
func (f *MUSFinder) FindOneMUS() ([]AppliedConstraint, bool) {
	full := f.allIndices()
	if f.satisfiable(full) {
		return nil, false
	}
	return f.resolve(f.ShrinkToMUS(full)), true
}

// FindOneMSS returns one maximal satisfiable subset of the candidate set
// (grown from the empty set, which is always satisfiable since it adds no
// constraints).
func (f *MUSFinder) FindOneMSS() []AppliedConstraint {
	return f.resolve(f.GrowToMSS(nil))
}

// EnumResult collects every MUS and MSS an Enumerate call discovered.
type EnumResult struct {
	MUSes [][]AppliedConstraint
	MSSes [][]AppliedConstraint
}

// Enumerate runs a MARCO-style seed/grow/shrink loop for at most maxSeeds
// iterations, classifying each untried seed as either the basis of a new
// MUS (shrunk from the seed) or a new MSS (grown from the seed). Each seed
// is every candidate not yet covered by a previously found MSS or MUS;
// the loop ends early once no candidate is left uncovered. It does not guarantee
// completeness the way the real map-solver-backed MARCO does — callers
// that need every MUS/MCS over a large candidate set should raise
// maxSeeds and expect diminishing returns rather than a proof of
// exhaustiveness.
func (f *MUSFinder) Enumerate(maxSeeds int) EnumResult {
	var result EnumResult
	covered := map[int]bool{} // candidate indices already inside some found MSS or MUS

	seed := f.allIndices()
	for iter := 0; iter < maxSeeds; iter++ {
		trial := f.uncoveredSeed(covered)
		if trial == nil {
			break
		}
		if f.satisfiable(trial) {
			mss := f.GrowToMSS(trial)
			result.MSSes = append(result.MSSes, f.resolve(mss))
			for _, i := range mss {
				covered[i] = true
			}
		} else {
			mus := f.ShrinkToMUS(trial)
			result.MUSes = append(result.MUSes, f.resolve(mus))
			// A MUS's members can never all belong to one MSS together;
			// mark them explored so the next seed tries a different
			// combination instead of rediscovering the same core.
			for _, i := range mus {
				covered[i] = true
			}
		}
		_ = seed
	}
	return result
}

// uncoveredSeed returns every candidate not yet marked covered, or nil if
// none remain.
func (f *MUSFinder) uncoveredSeed(covered map[int]bool) []int {
	var out []int
	for i := range f.candidates {
		if !covered[i] {
			out = append(out, i)
		}
	}
	return out
}

func (f *MUSFinder) allIndices() []int {
	out := make([]int, len(f.candidates))
	for i := range out {
		out[i] = i
	}
	return out
}

func (f *MUSFinder) resolve(idx []int) []AppliedConstraint {
	out := make([]AppliedConstraint, len(idx))
	for i, j := range idx {
		out[i] = f.candidates[j]
	}
	return out
}
