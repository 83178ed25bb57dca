package stn

import (
	"container/heap"

	"github.com/coreplan/cds/internal/domain"
)

// Theory is the difference-logic reasoner: a registered domain.Explainer
// that derives bound tightenings from a set of active difference edges.
type Theory struct {
	store    *domain.Store
	writerID domain.WriterID

	edges       []Edge
	propagators []propagator

	// bySource[sv] lists the propagators whose source view is sv, the
	// theory's equivalent of the clause reasoner's per-literal watch list.
	bySource [][]int32

	// byGuard[sv] lists the propagators whose Active or Valid literal has
	// signed variable sv and is not already TrueLiteral - the watch list
	// spec §4.3's "optionality" paragraph requires so that an edge whose
	// endpoint bound was tightened before its guard became entailed still
	// gets a chance to propagate once the guard catches up.
	byGuard [][]int32

	// pendingSeed holds propagators that became fully entailed (both Active
	// and Valid) at AddEdge time, after their source's bound was already
	// set - too late to have generated a trail event any propagator could
	// watch for, since the propagator didn't exist yet. Drained at the
	// start of the next Propagate call.
	pendingSeed []int32

	trailCursor int

	// pqueue is reused across Propagate calls; entries are lazily
	// invalidated by comparing against the store's current bound, per
	// lvlath/dijkstra.go's "lazy decrease-key" discipline.
	pqueue priorityQueue

	// pred[sv] records the propagator that produced sv's current bound
	// during the in-progress relaxation episode, used to reconstruct a
	// negative-cycle explanation. visited/relaxCount bound the
	// Bellman-Ford-style cycle detection: once a signed variable has been
	// relaxed more times than there are signed variables, a negative cycle
	// must exist. visited is cleared in O(1) at the start of each episode
	// via the teacher's generation-counter idiom (domain.GenSet, the
	// exported counterpart of conflict analysis's seenSet).
	pred       []int32
	relaxCount []int32
	visited    domain.GenSet
}

// NewTheory registers a fresh STN theory against store.
func NewTheory(store *domain.Store) *Theory {
	t := &Theory{store: store}
	t.writerID = store.RegisterWriter(t)
	return t
}

func (t *Theory) growTo(sv domain.SignedVar) {
	for domain.SignedVar(len(t.bySource)) <= sv {
		t.bySource = append(t.bySource, nil)
		t.byGuard = append(t.byGuard, nil)
		t.pred = append(t.pred, -1)
		t.relaxCount = append(t.relaxCount, 0)
	}
}

// AddEdge registers e and derives its two propagators, watching Active and
// Valid alongside the source bound (spec §4.3's "optionality" paragraph:
// "watching both the active- and valid-literals; when both become entailed
// the propagator is added to the active set"). If both are already
// entailed when the edge is added, the source's current bound is queued
// for immediate propagation on the next Propagate call, since no trail
// event for that bound exists for this brand-new propagator to watch.
func (t *Theory) AddEdge(e Edge) EdgeID {
	id := EdgeID(len(t.edges))
	t.edges = append(t.edges, e)

	src, dst := domain.PosView(e.Source), domain.PosView(e.Target)
	p1 := t.addPropagator(id, src, dst, e.Weight)
	p2 := t.addPropagator(id, domain.NegView(e.Target), domain.NegView(e.Source), e.Weight)

	t.watchGuard(e.Active, p1, p2)
	t.watchGuard(e.Valid, p1, p2)

	if t.store.Entails(e.Active) && t.store.Entails(e.Valid) {
		t.pendingSeed = append(t.pendingSeed, p1, p2)
	}

	return id
}

func (t *Theory) addPropagator(id EdgeID, src, dst domain.SignedVar, weight int32) int32 {
	t.growTo(src)
	t.growTo(dst)
	pid := int32(len(t.propagators))
	t.propagators = append(t.propagators, propagator{id: pid, edge: id, src: src, dst: dst, weight: weight})
	t.bySource[src] = append(t.bySource[src], pid)
	return pid
}

// watchGuard registers p1/p2 against lit's signed variable, unless lit is
// already TrueLiteral (an unconditional edge has nothing left to watch).
func (t *Theory) watchGuard(lit domain.Literal, p1, p2 int32) {
	if lit.IsTrue() {
		return
	}
	sv := lit.SignedVar()
	t.growTo(sv)
	t.byGuard[sv] = append(t.byGuard[sv], p1, p2)
}

// OnBacktrack satisfies search.Propagator: it clamps the propagation
// cursor to the store's restored trail right away, same as the clause
// database, so events pushed after the backtrack are still scanned.
func (t *Theory) OnBacktrack(int) {
	if n := len(t.store.Trail()); t.trailCursor > n {
		t.trailCursor = n
	}
}

// Propagate runs the incremental shortest-path expansion described in spec
// §4.3 to a fixed point, seeded from every trail event pushed since the
// last call. It returns a non-nil conflict explanation iff a negative
// cycle (or an ordinary domain-emptying tightening) was found.
func (t *Theory) Propagate() []domain.Literal {
	trail := t.store.Trail()
	if t.trailCursor > len(trail) {
		t.trailCursor = len(trail) // a backtrack happened since the last call
	}

	t.pqueue = t.pqueue[:0]
	t.visited.Clear()

	for _, pid := range t.pendingSeed {
		t.seedFromGuard(pid)
	}
	t.pendingSeed = t.pendingSeed[:0]

	for _, ev := range trail[t.trailCursor:] {
		sv := ev.Lit.SignedVar()
		if int(sv) < len(t.bySource) {
			heap.Push(&t.pqueue, pqEntry{bound: t.store.BoundOf(sv), sv: sv})
		}
		if int(sv) < len(t.byGuard) {
			for _, pid := range t.byGuard[sv] {
				t.seedFromGuard(pid)
			}
		}
	}
	t.trailCursor = len(trail)

	for len(t.pqueue) > 0 {
		cur := heap.Pop(&t.pqueue).(pqEntry)
		if cur.bound != t.store.BoundOf(cur.sv) {
			continue // stale: a tighter value has since been recorded
		}

		for _, pid := range t.bySource[cur.sv] {
			p := t.propagators[pid]
			e := t.edges[p.edge]
			if !t.store.Entails(e.Active) || !t.store.Entails(e.Valid) {
				continue
			}

			candidate := cur.bound + p.weight
			if candidate >= t.store.BoundOf(p.dst) {
				continue
			}

			t.growTo(p.dst)
			if !t.visited.Contains(int(p.dst)) {
				t.visited.Add(int(p.dst))
				t.relaxCount[p.dst] = 0
			}
			t.relaxCount[p.dst]++
			if int(t.relaxCount[p.dst]) > len(t.bySource) {
				return t.explainCycle(pid)
			}
			t.pred[p.dst] = pid

			lit := domain.NewLiteral(p.dst, candidate)
			switch t.store.Set(lit, domain.Cause{Writer: t.writerID, Payload: uint32(pid)}) {
			case domain.Conflict:
				return t.explainDomainConflict(pid, candidate)
			case domain.Tightened:
				heap.Push(&t.pqueue, pqEntry{bound: candidate, sv: p.dst})
			}
		}
	}

	return nil
}

// seedFromGuard pushes pid's source bound onto the queue if pid's edge is
// now fully entailed (both Active and Valid), so the main relaxation loop
// re-examines it against the source's current bound - which may already
// reflect a tightening recorded before the guard caught up.
func (t *Theory) seedFromGuard(pid int32) {
	p := t.propagators[pid]
	e := t.edges[p.edge]
	if !t.store.Entails(e.Active) || !t.store.Entails(e.Valid) {
		return
	}
	heap.Push(&t.pqueue, pqEntry{bound: t.store.BoundOf(p.src), sv: p.src})
}

// explainDomainConflict builds the conflict seed for an ordinary (non-
// cyclic) STN conflict: the propagator's premises together with the
// opposing bound they contradict.
func (t *Theory) explainDomainConflict(pid int32, candidate int32) []domain.Literal {
	p := t.propagators[pid]
	e := t.edges[p.edge]
	out := []domain.Literal{domain.NewLiteral(p.src, candidate-p.weight)}
	if !e.Active.IsTrue() {
		out = append(out, e.Active)
	}
	if !e.Valid.IsTrue() {
		out = append(out, e.Valid)
	}
	out = append(out, domain.NewLiteral(p.dst.Opposite(), t.store.BoundOf(p.dst.Opposite())))
	return out
}

// explainCycle reconstructs a negative cycle by walking predecessor
// pointers backwards from pid's destination. Because a cycle has been
// detected (len(bySource)+1 relaxations of the same node), walking
// len(bySource)+1 steps back from any node on the chain is guaranteed to
// revisit a node, per the standard Bellman-Ford negative-cycle argument.
func (t *Theory) explainCycle(pid int32) []domain.Literal {
	chain := []int32{pid}
	cur := t.propagators[pid].dst
	for i := 0; i < len(t.bySource)+1; i++ {
		pp := t.pred[cur]
		if pp < 0 {
			break
		}
		chain = append(chain, pp)
		cur = t.propagators[pp].src
	}

	seen := map[int32]bool{}
	var out []domain.Literal
	for _, id := range chain {
		if seen[id] {
			continue
		}
		seen[id] = true
		p := t.propagators[id]
		e := t.edges[p.edge]
		if !e.Active.IsTrue() {
			out = append(out, e.Active)
		}
		if !e.Valid.IsTrue() {
			out = append(out, e.Valid)
		}
	}
	return out
}

// Explain implements domain.Explainer: payload names the propagator that
// asserted lit, so the justification is its source literal plus the
// edge's active/valid gates, per spec §4.3's explain contract.
func (t *Theory) Explain(payload uint32, lit domain.Literal, out []domain.Literal) []domain.Literal {
	p := t.propagators[payload]
	e := t.edges[p.edge]
	out = append(out, domain.NewLiteral(p.src, lit.Bound()-p.weight))
	if !e.Active.IsTrue() {
		out = append(out, e.Active)
	}
	if !e.Valid.IsTrue() {
		out = append(out, e.Valid)
	}
	return out
}

// NumEdges reports the number of registered edges, used by tests and the
// diagnostic exporter.
func (t *Theory) NumEdges() int { return len(t.edges) }

// Edges exposes the registered edges in registration order.
func (t *Theory) Edges() []Edge { return t.edges }
