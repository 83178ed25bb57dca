package clauses

import (
	"github.com/coreplan/cds/internal/domain"
	"github.com/rhartert/yagh"
)

// VarOrder is the VSIDS activity heap, kept unchanged in algorithm from the
// teacher's VarOrder (internal/sat/ordering.go) but scoring domain.Variable
// instead of a plain SAT variable index: search.ActivityBrancher embeds one
// of these rather than reimplementing the heap bookkeeping, since the
// clause reasoner is what actually bumps activity on conflict.
type VarOrder struct {
	order *yagh.IntMap[float64]

	scores []float64
	inc    float64
	decay  float64
}

// NewVarOrder returns a heap scoring numVars variables, all initially at
// zero activity.
func NewVarOrder(numVars int, decay float64) *VarOrder {
	vo := &VarOrder{
		order: yagh.New[float64](0),
		inc:   1,
		decay: decay,
	}
	vo.order.GrowBy(numVars)
	for v := 0; v < numVars; v++ {
		vo.scores = append(vo.scores, 0)
		vo.order.Put(v, 0)
	}
	return vo
}

// Bump increases v's activity, rescaling every score if it would overflow
// the teacher's 1e100 ceiling.
func (vo *VarOrder) Bump(v domain.Variable) {
	i := int(v)
	if i >= len(vo.scores) {
		return
	}
	vo.scores[i] += vo.inc
	if vo.order.Contains(i) {
		vo.order.Put(i, -vo.scores[i])
	}
	if vo.scores[i] > 1e100 {
		vo.inc *= 1e-100
		for j, s := range vo.scores {
			vo.scores[j] = s * 1e-100
			if vo.order.Contains(j) {
				vo.order.Put(j, -vo.scores[j])
			}
		}
	}
}

// Decay ages the bump increment, giving recently-bumped variables more
// relative weight, mirroring VarOrder.DecayScores.
func (vo *VarOrder) Decay() {
	vo.inc /= vo.decay
	if vo.inc > 1e100 {
		vo.inc *= 1e-100
		for i, s := range vo.scores {
			vo.scores[i] = s * 1e-100
		}
	}
}

// PopMax removes and returns the highest-activity variable still in the
// heap, or ok=false if it is empty. Callers that determine the popped
// variable is still a candidate (unfixed, present) must Reinsert it.
func (vo *VarOrder) PopMax() (v domain.Variable, ok bool) {
	next, found := vo.order.Pop()
	if !found {
		return 0, false
	}
	return domain.Variable(next.Elem), true
}

// Reinsert returns v to the set of candidates, e.g. after determining it
// was not actually eligible for the decision just requested.
func (vo *VarOrder) Reinsert(v domain.Variable) {
	i := int(v)
	vo.order.Put(i, -vo.scores[i])
}
