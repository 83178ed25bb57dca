package clauses

import (
	"sort"

	"github.com/coreplan/cds/internal/domain"
)

// watcher represents a clause attached to the watch list of a signed
// variable: it fires when that signed variable's bound tightens past neg's
// threshold, i.e. when neg becomes entailed (falsifying the clause literal
// neg.Negation()). guard is another literal of the clause; if it is
// already entailed the clause is satisfied and the watcher can be
// redeposited without inspecting the clause at all (teacher's fast-skip).
type watcher struct {
	clause *Clause
	neg    domain.Literal
	guard  domain.Literal
}

// Database is the clause reasoner of spec §4.2: clause storage, the
// two-watched-literals propagation loop, and activity-based learned-clause
// management. It is registered with a domain.Store as a writer so that its
// inferences can be explained during conflict analysis.
type Database struct {
	store *domain.Store

	writerID domain.WriterID
	byID     []*Clause // byID[c.id] == c for every live clause produced by this Database

	constraints []*Clause
	learnts     []*Clause

	clauseInc   float64
	clauseDecay float64

	watchers [][]watcher // indexed by int(domain.SignedVar)

	trailCursor int
	tmpWatchers []watcher // reused scratch, teacher's tmpWatchers idiom

	unsat bool
}

// NewDatabase registers a fresh clause reasoner against store.
func NewDatabase(store *domain.Store) *Database {
	db := &Database{
		store:       store,
		clauseInc:   1,
		clauseDecay: 0.999,
	}
	db.writerID = store.RegisterWriter(db)
	return db
}

// Unsat reports whether an empty clause has been derived (permanent
// top-level contradiction).
func (db *Database) Unsat() bool { return db.unsat }

func (db *Database) growWatchers(sv domain.SignedVar) {
	for domain.SignedVar(len(db.watchers)) <= sv {
		db.watchers = append(db.watchers, nil)
	}
}

func (db *Database) watch(c *Clause, neg domain.Literal, guard domain.Literal) {
	sv := neg.SignedVar()
	db.growWatchers(sv)
	db.watchers[sv] = append(db.watchers[sv], watcher{clause: c, neg: neg, guard: guard})
}

func (db *Database) unwatch(c *Clause, neg domain.Literal) {
	sv := neg.SignedVar()
	if int(sv) >= len(db.watchers) {
		return
	}
	list := db.watchers[sv]
	j := 0
	for i := range list {
		if list[i].clause != c {
			list[j] = list[i]
			j++
		}
	}
	db.watchers[sv] = list[:j]
}

// enqueue asserts lit with reason clause c (nil for a root-level fact),
// returning false iff lit is already refuted.
func (db *Database) enqueue(lit domain.Literal, c *Clause) bool {
	cause := domain.EncodingCause
	if c != nil {
		cause = domain.Cause{Writer: db.writerID, Payload: c.id}
	}
	return db.store.Set(lit, cause) != domain.Conflict
}

// nextID allocates c's payload token and reserves its slot in byID; newClause
// fills that slot once the Clause value exists.
func (db *Database) nextID() uint32 {
	id := uint32(len(db.byID))
	db.byID = append(db.byID, nil)
	return id
}

// AddClause registers a fixed (non-learnt) clause, canonicalising it in
// place. It must only be called at decision level 0.
func (db *Database) AddClause(lits []domain.Literal) {
	c, ok := newClause(db, db.store, lits, false)
	if c != nil {
		db.constraints = append(db.constraints, c)
	}
	if !ok {
		db.unsat = true
	}
}

// record adds a learned clause and immediately enqueues its asserting
// literal (literals[0]), per spec §4.2's "the clause is added ... and the
// search backtracks" step.
func (db *Database) record(lits []domain.Literal) *Clause {
	c, _ := newClause(db, db.store, lits, true)
	db.enqueue(lits[0], c)
	if c != nil {
		db.learnts = append(db.learnts, c)
	}
	return c
}

// Record is the exported entry point used by the search driver after
// conflict analysis produces an asserting clause.
func (db *Database) Record(lits []domain.Literal) { db.record(lits) }

// Propagate implements search.Propagator: it runs unit propagation to a
// fixed point and, on a falsified clause, returns its seed explanation
// directly (the negation of every one of its literals) rather than the
// raw *Clause, so the driver can treat every theory uniformly. Once
// AddClause has recorded an empty clause (see Unsat), every call reports
// the conflict [FalseLiteral].
func (db *Database) Propagate() []domain.Literal {
	if db.unsat {
		return []domain.Literal{domain.FalseLiteral}
	}
	c := db.propagate()
	if c == nil {
		return nil
	}
	return c.explainConflict(nil)
}

// OnBacktrack clamps the trail cursor to the store's (already-restored)
// trail length right away, so that events pushed after the backtrack and
// before the next propagate call (e.g. a learned clause's asserting
// literal) are still scanned.
func (db *Database) OnBacktrack(int) {
	if n := len(db.store.Trail()); db.trailCursor > n {
		db.trailCursor = n
	}
}

// propagate runs unit propagation to a fixed point against new trail
// events since the last call, mirroring the teacher's Solver.Propagate
// (internal/sat/solver.go) generalised to consume domain.Store's trail
// instead of an explicit propagation queue.
func (db *Database) propagate() *Clause {
	trail := db.store.Trail()
	if db.trailCursor > len(trail) {
		db.trailCursor = len(trail) // a backtrack happened since last call
	}

	for db.trailCursor < len(trail) {
		ev := trail[db.trailCursor]
		db.trailCursor++
		sv := ev.Lit.SignedVar()
		if int(sv) >= len(db.watchers) {
			continue
		}

		db.tmpWatchers = append(db.tmpWatchers[:0], db.watchers[sv]...)
		db.watchers[sv] = db.watchers[sv][:0]

		for i, w := range db.tmpWatchers {
			if !db.store.Entails(w.neg) {
				// This particular watcher's threshold was not actually
				// reached by this tightening (a different, looser,
				// watcher shares the signed variable); keep watching.
				db.watchers[sv] = append(db.watchers[sv], w)
				continue
			}
			if db.store.Entails(w.guard) {
				db.watchers[sv] = append(db.watchers[sv], w)
				continue
			}
			if w.clause.propagate(db, db.store, w.neg) {
				continue
			}

			db.watchers[sv] = append(db.watchers[sv], db.tmpWatchers[i+1:]...)
			db.trailCursor = len(db.store.Trail())
			return w.clause
		}
	}

	return nil
}

// Explain implements domain.Explainer: payload names the clause that
// asserted lit, so the explanation is simply its other literals' negations.
// Conflict seeds (a clause currently wholly falsified) never flow through
// here — Propagate returns the falsified clause's seed itself, mirroring
// the teacher's analyze starting from the conflicting clause rather than a
// Cause dispatch.
func (db *Database) Explain(payload uint32, lit domain.Literal, out []domain.Literal) []domain.Literal {
	c := db.byID[payload]
	if c.isLearnt() {
		db.BumpActivity(c) // resolved over during analysis, same as the teacher's analyze loop
	}
	return c.explainAssign(out)
}

// ExplainConflict returns the seed explanation for a clause that is
// currently falsified, the same seed Propagate returns, without going
// through Store.Explain/writer dispatch.
func ExplainConflict(c *Clause, out []domain.Literal) []domain.Literal {
	return c.explainConflict(out)
}

// Simplify removes satisfied clauses from both the constraint and learnt
// sets. Must only be called at decision level 0 with no pending
// propagation, mirroring the teacher's Solver.Simplify.
func (db *Database) Simplify() {
	db.simplifySet(&db.learnts)
	db.simplifySet(&db.constraints)
}

func (db *Database) simplifySet(set *[]*Clause) {
	list := *set
	j := 0
	for i := range list {
		if list[i].simplify(db.store) {
			list[i].delete(db)
		} else {
			list[j] = list[i]
			j++
		}
	}
	*set = list[:j]
}

// ReduceDB removes approximately half of the learned clauses, preferring
// lowest activity, keeping locked clauses regardless (spec §4.2).
func (db *Database) ReduceDB() {
	if len(db.learnts) == 0 {
		return
	}
	lim := db.clauseInc / float64(len(db.learnts))

	sort.Slice(db.learnts, func(i, j int) bool {
		return db.learnts[i].activity < db.learnts[j].activity
	})

	i, j := 0, 0
	for ; i < len(db.learnts)/2; i++ {
		if db.learnts[i].locked(db, db.store) || db.learnts[i].isProtected() {
			db.learnts[j] = db.learnts[i]
			j++
		} else {
			db.learnts[i].delete(db)
		}
	}
	for ; i < len(db.learnts); i++ {
		c := db.learnts[i]
		if !c.locked(db, db.store) && !c.isProtected() && c.activity < lim {
			c.delete(db)
		} else {
			db.learnts[j] = c
			j++
		}
	}
	db.learnts = db.learnts[:j]
}

// BumpActivity and Decay implement the clause-activity heuristic (spec
// §4.2), kept verbatim from the teacher's BumpClaActivity/DecayClaActivity.
func (db *Database) BumpActivity(c *Clause) {
	c.activity += db.clauseInc
	if c.activity > 1e100 {
		db.clauseInc *= 1e-100
		for _, l := range db.learnts {
			l.activity *= 1e-100
		}
	}
}

func (db *Database) Decay() { db.clauseInc *= db.clauseDecay }

// NumConstraints / NumLearnts report clause database sizes.
func (db *Database) NumConstraints() int { return len(db.constraints) }
func (db *Database) NumLearnts() int     { return len(db.learnts) }
