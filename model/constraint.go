package model

import (
	"fmt"
	"strings"

	"github.com/coreplan/cds/internal/domain"
)

// Constraint limits which combinations of atoms a solution may contain,
// mirroring the OLM resolver's solver.Constraint
// (pkg/controller/registry/resolver/solver/constraints.go) but lowering
// straight into clause registrations instead of building a shared AIG.
type Constraint interface {
	String(subject Identifier) string
	lower(m *Model, subject Identifier)
}

// AppliedConstraint composes a single Constraint with the Identifier it
// applies to, the way solver.AppliedConstraint does, for diagnostics and
// MUS/MCS enumeration (model/mus.go).
type AppliedConstraint struct {
	Subject    Identifier
	Constraint Constraint
}

func (a AppliedConstraint) String() string { return a.Constraint.String(a.Subject) }

type mandatory struct{}

func (mandatory) String(subject Identifier) string { return fmt.Sprintf("%s is mandatory", subject) }

func (mandatory) lower(m *Model, subject Identifier) {
	disjunction{lits: []domain.Literal{m.litOf(subject)}}.post(m, domain.TrueLiteral)
}

// Mandatory returns a Constraint admitting only solutions where subject
// holds.
func Mandatory() Constraint { return mandatory{} }

type prohibited struct{}

func (prohibited) String(subject Identifier) string { return fmt.Sprintf("%s is prohibited", subject) }

func (prohibited) lower(m *Model, subject Identifier) {
	disjunction{lits: []domain.Literal{m.litOf(subject).Negation()}}.post(m, domain.TrueLiteral)
}

// Prohibited returns a Constraint rejecting every solution where subject
// holds.
func Prohibited() Constraint { return prohibited{} }

type dependency []Identifier

func (d dependency) String(subject Identifier) string {
	if len(d) == 0 {
		return fmt.Sprintf("%s has a dependency without any candidates to satisfy it", subject)
	}
	s := make([]string, len(d))
	for i, id := range d {
		s[i] = string(id)
	}
	return fmt.Sprintf("%s requires at least one of %s", subject, strings.Join(s, ", "))
}

func (d dependency) lower(m *Model, subject Identifier) {
	lits := []domain.Literal{m.litOf(subject).Negation()}
	for _, id := range d {
		lits = append(lits, m.litOf(id))
	}
	disjunction{lits: lits}.post(m, domain.TrueLiteral)
}

// Dependency returns a Constraint admitting subject only if at least one
// of ids also holds, earlier ids preferred by convention (the preference
// itself is advisory — ordering has no effect on which solutions are
// admitted).
func Dependency(ids ...Identifier) Constraint { return dependency(ids) }

type conflict Identifier

func (c conflict) String(subject Identifier) string {
	return fmt.Sprintf("%s conflicts with %s", subject, Identifier(c))
}

func (c conflict) lower(m *Model, subject Identifier) {
	disjunction{lits: []domain.Literal{
		m.litOf(subject).Negation(),
		m.litOf(Identifier(c)).Negation(),
	}}.post(m, domain.TrueLiteral)
}

// Conflict returns a Constraint forbidding subject and id from both
// holding at once.
func Conflict(id Identifier) Constraint { return conflict(id) }

type atMost struct {
	ids []Identifier
	n   int
}

func (c atMost) String(subject Identifier) string {
	s := make([]string, len(c.ids))
	for i, id := range c.ids {
		s[i] = string(id)
	}
	return fmt.Sprintf("%s permits at most %d of %s", subject, c.n, strings.Join(s, ", "))
}

// lower encodes "at most n of ids" with the sequential-counter encoding
// (Sinz 2005), the standard clause encoding for small cardinality bounds
// and the natural generalisation of the teacher's pure-clause database to
// cardinality constraints (the OLM resolver instead calls out to gini's
// CardSort, unavailable here since spec's non-goals exclude external
// solver delegation).
func (c atMost) lower(m *Model, subject Identifier) {
	n := c.n
	k := len(c.ids)
	if n >= k {
		return // vacuously satisfied
	}
	if n == 0 {
		for _, id := range c.ids {
			disjunction{lits: []domain.Literal{m.litOf(id).Negation()}}.post(m, domain.TrueLiteral)
		}
		return
	}

	// s[i][j] means "at least j+1 of ids[0..i] hold", for j in [0, n).
	s := make([][]Variable, k)
	for i := 0; i < k; i++ {
		s[i] = make([]Variable, n)
		for j := 0; j < n; j++ {
			s[i][j] = m.NewBoolAtom(Identifier(fmt.Sprintf("atmost$%s$%d$%d", subject, i, j)))
		}
	}

	xLit := func(i int) domain.Literal { return m.litOf(c.ids[i]) }
	sLit := func(i, j int) domain.Literal { return m.TrueLit(s[i][j]) }
	notSLit := func(i, j int) domain.Literal { return m.FalseLit(s[i][j]) }

	post := func(lits ...domain.Literal) {
		disjunction{lits: append([]domain.Literal(nil), lits...)}.post(m, domain.TrueLiteral)
	}

	post(xLit(0).Negation(), sLit(0, 0))
	for j := 1; j < n; j++ {
		post(notSLit(0, j))
	}
	for i := 1; i < k; i++ {
		post(xLit(i).Negation(), sLit(i, 0))
		post(notSLit(i-1, 0), sLit(i, 0))
		for j := 1; j < n; j++ {
			post(xLit(i).Negation(), notSLit(i-1, j-1), sLit(i, j))
			post(notSLit(i-1, j), sLit(i, j))
		}
		post(xLit(i).Negation(), notSLit(i-1, n-1))
	}
}

// AtMost returns a Constraint forbidding solutions where more than n of
// ids hold.
func AtMost(n int, ids ...Identifier) Constraint {
	return atMost{ids: ids, n: n}
}

// nfConstraint adapts an arbitrary NormalForm into a Constraint, so that
// individual posted expressions (e.g. one DIMACS clause) can be tracked as
// AppliedConstraints and handed to a MUSFinder the same way a builtin
// constraint is.
type nfConstraint struct{ nf NormalForm }

func (c nfConstraint) String(subject Identifier) string {
	return fmt.Sprintf("%s: %s", subject, c.nf.canonicalKey())
}

func (c nfConstraint) lower(m *Model, subject Identifier) {
	c.nf.post(m, domain.TrueLiteral)
}

// AsConstraint wraps nf so it can be registered via AddConstraint.
func AsConstraint(nf NormalForm) Constraint { return nfConstraint{nf: nf} }
