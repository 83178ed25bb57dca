package stn

import "github.com/coreplan/cds/internal/domain"

// pqEntry is one candidate (re)tightening waiting to be expanded, ordered
// by tightness so the theory always expands the currently-tightest bound
// first, per spec §4.3's "Dijkstra-style expansion keyed by tightening".
type pqEntry struct {
	bound int32
	sv    domain.SignedVar
}

// priorityQueue implements container/heap.Interface with lazy
// decrease-key: stale entries (superseded by a later, tighter push for the
// same signed variable) are left in place and discarded on pop by
// comparing against the store's current bound, exactly as
// lvlath/dijkstra.go does for its vertex frontier.
type priorityQueue []pqEntry

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].bound != pq[j].bound {
		return pq[i].bound < pq[j].bound
	}
	return pq[i].sv < pq[j].sv // deterministic tie-break, spec §4.3
}

func (pq priorityQueue) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }

func (pq *priorityQueue) Push(x any) { *pq = append(*pq, x.(pqEntry)) }

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}
