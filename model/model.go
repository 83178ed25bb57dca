// Package model is the reification and expression layer of spec §4.5: it
// turns named atoms and the five normal forms (disjunction, linear sum,
// difference, equality, table) into registrations against the core
// reasoners (internal/clauses, internal/stn, internal/linear), and caches
// the canonical boolean literal standing for each normalised expression so
// that asking for the same constraint twice reuses one atom instead of
// duplicating it (spec §4.5's "canonical-key hashing/reuse" rule).
//
// Shaped after the OLM dependency resolver's solver package
// (pkg/controller/registry/resolver/solver): Identifier and Variable play
// the same role as solver.Identifier/solver.Variable, and the builtin
// constraints in constraint.go mirror solver.Constraint's
// Mandatory/Prohibited/Dependency/Conflict/AtMost family. Unlike that
// package, lowering never builds a shared AIG (github.com/go-air/gini):
// every Constraint registers literals, clauses and edges directly against
// the domain store's writers, since the reasoners here are incremental and
// backtracking rather than a monolithic one-shot solve.
package model

import (
	"fmt"
	"sort"

	"github.com/coreplan/cds/internal/clauses"
	"github.com/coreplan/cds/internal/domain"
	"github.com/coreplan/cds/internal/linear"
	"github.com/coreplan/cds/internal/stn"
)

// Variable is a named handle into the domain store: an Identifier paired
// with the underlying domain.Variable, returned by Model's declaration
// methods so callers never have to juggle raw handles themselves.
type Variable struct {
	id Identifier
	v  domain.Variable
}

// Identifier returns the variable's name.
func (v Variable) Identifier() Identifier { return v.id }

// Handle returns the underlying domain.Variable, for callers that need to
// build a NormalForm directly.
func (v Variable) Handle() domain.Variable { return v.v }

// Model is the user-facing builder: it owns the domain store and the three
// theories that cooperate over it, and tracks every declared atom by name.
type Model struct {
	Store   *domain.Store
	Clauses *clauses.Database
	STN     *stn.Theory
	Linear  *linear.Theory

	byName     map[Identifier]Variable
	reifyCache map[string]domain.Literal

	constraints []AppliedConstraint
}

// New returns an empty model with its three theories registered against a
// fresh domain store, mirroring the teacher's NewSolver wiring a single
// Solver.clauseDB to a single trail (rhartert/yass, internal/sat/solver.go)
// generalised to spec §9's multi-theory store.
func New() *Model {
	store := domain.NewStore()
	return &Model{
		Store:      store,
		Clauses:    clauses.NewDatabase(store),
		STN:        stn.NewTheory(store),
		Linear:     linear.NewTheory(store),
		byName:     map[Identifier]Variable{},
		reifyCache: map[string]domain.Literal{},
	}
}

// NewBoolAtom declares a fresh Boolean atom (domain {0,1}) under id.
func (m *Model) NewBoolAtom(id Identifier) Variable {
	return m.declare(id, m.Store.NewBoolVariable(domain.TrueLiteral, string(id)))
}

// NewOptionalBoolAtom declares a Boolean atom whose very existence is
// conditional on presence, per spec §3's optional-variable model (e.g. "is
// this optional activity scheduled at all").
func (m *Model) NewOptionalBoolAtom(id Identifier, presence domain.Literal) Variable {
	return m.declare(id, m.Store.NewBoolVariable(presence, string(id)))
}

// NewIntAtom declares a bounded integer atom under id.
func (m *Model) NewIntAtom(id Identifier, lb, ub int32) Variable {
	return m.declare(id, m.Store.NewVariable(lb, ub, domain.TrueLiteral, string(id)))
}

func (m *Model) declare(id Identifier, v domain.Variable) Variable {
	vv := Variable{id: id, v: v}
	m.byName[id] = vv
	return vv
}

// Lookup returns the previously-declared variable named id.
func (m *Model) Lookup(id Identifier) (Variable, bool) {
	v, ok := m.byName[id]
	return v, ok
}

// TrueLit returns the literal asserting that v's Boolean atom holds
// (lb(v) >= 1), the convention every builtin Constraint uses to talk about
// "this atom is selected".
func (m *Model) TrueLit(v Variable) domain.Literal {
	return domain.NewLiteral(domain.NegView(v.v), -1)
}

// FalseLit returns the literal asserting that v's Boolean atom does not
// hold (ub(v) <= 0).
func (m *Model) FalseLit(v Variable) domain.Literal {
	return domain.NewLiteral(domain.PosView(v.v), 0)
}

// litOf resolves an Identifier to its "selected" literal, declaring it as
// a fresh Boolean atom on first use — mirroring the OLM resolver's
// litMapping.LitOf, which lazily allocates a z.Lit per Identifier the
// first time a constraint references it.
func (m *Model) litOf(id Identifier) domain.Literal {
	v, ok := m.byName[id]
	if !ok {
		v = m.NewBoolAtom(id)
	}
	return m.TrueLit(v)
}

// AddConstraint lowers constraint against subject and records it for
// later diagnosis (see Constraints).
func (m *Model) AddConstraint(subject Identifier, constraint Constraint) {
	constraint.lower(m, subject)
	m.constraints = append(m.constraints, AppliedConstraint{Subject: subject, Constraint: constraint})
}

// Constraints returns every constraint registered via AddConstraint, in
// registration order.
func (m *Model) Constraints() []AppliedConstraint { return m.constraints }

// Identifiers returns every declared atom's name in lexical order, for
// callers that need to print a solution deterministically.
func (m *Model) Identifiers() []Identifier {
	out := make([]Identifier, 0, len(m.byName))
	for id := range m.byName {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Post registers a NormalForm unconditionally (validity = TrueLiteral),
// the common case for spec §4.5's five normal forms when they are not
// being reified.
func (m *Model) Post(nf NormalForm) {
	nf.post(m, domain.TrueLiteral)
}

// PostIf registers nf as holding whenever validity is entailed, spec
// §4.5's validity-scope mechanism (an edge, clause or sum that only
// applies when some combination of presence and guard literals holds).
func (m *Model) PostIf(nf NormalForm, validity domain.Literal) {
	nf.post(m, validity)
}

func (m *Model) String() string {
	return fmt.Sprintf("model{vars=%d constraints=%d}", m.Store.NumVariables(), len(m.constraints))
}
