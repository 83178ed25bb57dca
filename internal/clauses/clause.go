// Package clauses implements the Boolean/clause reasoner of spec §4.2:
// two-watched-literal unit propagation, clause learning and activity-based
// clause database reduction, generalised from the teacher's pure-Boolean
// SAT solver (rhartert/yass, internal/sat + the newer sat/clauses.go) to
// operate over domain.Literal (bound-tightening claims) instead of plain
// Boolean literals.
package clauses

import (
	"strings"

	"github.com/coreplan/cds/internal/domain"
)

type status uint8

const (
	statusDeleted   status = 0b001
	statusLearnt    status = 0b010
	statusProtected status = 0b100
)

// Clause is a disjunction of literals stored in canonical order, kept in
// the same shape as the teacher's more advanced sat/clauses.go Clause:
// a two-watched-literal header (literals[0], literals[1]) plus activity
// and quality bookkeeping for learned clauses.
type Clause struct {
	activity float64

	// id is this clause's payload token within its owning Database, fixed
	// at creation time so Cause.Payload can name it without a lookup.
	id uint32

	// literals contains at least two entries for a live clause; nil once
	// Delete has been called.
	literals []domain.Literal

	// prevPos accelerates the search for a new watch by resuming from the
	// position the previous search stopped at (teacher's optimisation).
	prevPos int

	lbd        uint32
	statusMask status
}

func (c *Clause) isLearnt() bool    { return c.statusMask&statusLearnt != 0 }
func (c *Clause) isProtected() bool { return c.statusMask&statusProtected != 0 }
func (c *Clause) setProtected()     { c.statusMask |= statusProtected }
func (c *Clause) setUnprotected()   { c.statusMask &^= statusProtected }

// Literals exposes the clause's current literals (post-simplification).
func (c *Clause) Literals() []domain.Literal { return c.literals }

// newClause builds a Clause from tmp, performing root-level simplification
// (duplicate/tautology/false-literal removal) unless learnt is true, in
// which case tmp is assumed already canonical (the output of conflict
// analysis). Returns (nil, true) for a clause that is trivially satisfied
// or was unit-propagated directly, (nil, false) for an empty (unsat)
// clause.
func newClause(db *Database, store *domain.Store, tmp []domain.Literal, learnt bool) (*Clause, bool) {
	size := len(tmp)

	if !learnt {
		seen := map[domain.Literal]struct{}{}
		for i := size - 1; i >= 0; i-- {
			if _, ok := seen[tmp[i].Negation()]; ok {
				return nil, true // tautology
			}
			if _, ok := seen[tmp[i]]; ok {
				size--
				tmp[i], tmp[size] = tmp[size], tmp[i]
				continue
			}
			seen[tmp[i]] = struct{}{}

			switch {
			case store.Entails(tmp[i]):
				return nil, true // clause already satisfied
			case store.Entails(tmp[i].Negation()):
				size--
				tmp[i], tmp[size] = tmp[size], tmp[i]
			}
		}
		tmp = tmp[:size]
	}

	switch size {
	case 0:
		return nil, false
	case 1:
		return nil, db.enqueue(tmp[0], nil)
	default:
		c := &Clause{
			id:       db.nextID(),
			prevPos:  2,
			literals: append([]domain.Literal(nil), tmp...),
		}
		if learnt {
			c.statusMask |= statusLearnt
			// literals[0] is the asserting literal; move the false literal
			// falsified at the highest level into the second watch slot.
			maxLevel, wl := -2, 1
			for i := 1; i < len(c.literals); i++ {
				if lv := store.Level(c.literals[i].SignedVar().Opposite()); lv > maxLevel {
					maxLevel, wl = lv, i
				}
			}
			c.literals[wl], c.literals[1] = c.literals[1], c.literals[wl]
		}

		db.byID[c.id] = c
		db.watch(c, c.literals[0].Negation(), c.literals[1])
		db.watch(c, c.literals[1].Negation(), c.literals[0])
		return c, true
	}
}

func (c *Clause) locked(db *Database, store *domain.Store) bool {
	r := store.Reason(c.literals[0].SignedVar())
	return r.Writer == db.writerID && r.Payload == c.id
}

func (c *Clause) delete(db *Database) {
	c.statusMask |= statusDeleted
	db.unwatch(c, c.literals[0].Negation())
	db.unwatch(c, c.literals[1].Negation())
	c.literals = nil
}

// simplify drops already-false literals and reports whether the clause is
// now satisfied at the root and can be removed entirely.
func (c *Clause) simplify(store *domain.Store) bool {
	k := 0
	for _, lit := range c.literals {
		switch {
		case store.Entails(lit):
			return true
		case store.Entails(lit.Negation()):
			// discard
		default:
			c.literals[k] = lit
			k++
		}
	}
	c.literals = c.literals[:k]
	return false
}

// propagate is called when l has just become entailed, falsifying the
// clause literal l.Negation(). It restores the two-watched-literal invariant or enqueues /
// reports a conflict, exactly mirroring the teacher's Clause.Propagate.
func (c *Clause) propagate(db *Database, store *domain.Store, l domain.Literal) bool {
	opp := l.Negation()
	if c.literals[0] == opp {
		c.literals[0], c.literals[1] = c.literals[1], opp
	}

	if store.Entails(c.literals[0]) {
		db.watch(c, l, c.literals[0])
		return true
	}

	if c.prevPos >= len(c.literals) {
		c.prevPos = 2
	}
	for i, lit := range c.literals[c.prevPos:] {
		if !store.Entails(lit.Negation()) {
			c.prevPos += i
			c.literals[1], c.literals[c.prevPos] = lit, opp
			db.watch(c, lit.Negation(), c.literals[0])
			return true
		}
	}
	for i, lit := range c.literals[2:c.prevPos] {
		if !store.Entails(lit.Negation()) {
			c.prevPos = i + 2
			c.literals[1], c.literals[c.prevPos] = lit, opp
			db.watch(c, lit.Negation(), c.literals[0])
			return true
		}
	}

	db.watch(c, l, c.literals[0])
	return db.enqueue(c.literals[0], c)
}

// explainConflict appends the negation of every literal, for use as the
// seed explanation when this clause is currently falsified.
func (c *Clause) explainConflict(out []domain.Literal) []domain.Literal {
	for _, l := range c.literals {
		out = append(out, l.Negation())
	}
	return out
}

// explainAssign appends the negation of every literal but the asserted
// one (literals[0]), for use when this clause was the reason literals[0]
// was enqueued.
func (c *Clause) explainAssign(out []domain.Literal) []domain.Literal {
	for _, l := range c.literals[1:] {
		out = append(out, l.Negation())
	}
	return out
}

func (c *Clause) String() string {
	if len(c.literals) == 0 {
		return "Clause[]"
	}
	var sb strings.Builder
	sb.WriteString("Clause[")
	for i, l := range c.literals {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(l.String())
	}
	sb.WriteByte(']')
	return sb.String()
}
