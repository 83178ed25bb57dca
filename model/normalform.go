package model

import (
	"fmt"
	"sort"

	"github.com/coreplan/cds/internal/domain"
	"github.com/coreplan/cds/internal/stn"
)

// stnEdge builds the STN edge representing "target - source <= weight",
// gated by valid (spec §4.5's validity-scope rule); Active is always
// TrueLiteral since a posted normal form is a permanent part of the
// model, never an edge whose own existence is further reified.
func stnEdge(m *Model, source, target domain.Variable, weight int32, valid domain.Literal) stn.Edge {
	return stn.Edge{Source: source, Target: target, Weight: weight, Active: domain.TrueLiteral, Valid: valid}
}

// NormalForm is one of spec §4.5's five normalised expression shapes.
// post registers it against the model's theories so that it holds
// whenever validity is entailed — TrueLiteral for an unconditional
// constraint, or a presence/guard literal for a scoped one.
type NormalForm interface {
	canonicalKey() string
	post(m *Model, validity domain.Literal)
}

// negatable is implemented by normal forms whose logical negation is
// itself expressible as a NormalForm, which is what makes full (two-way)
// reification possible for them. Table has no such counterpart (the
// negation of "one of these tuples holds" is not one of the five forms)
// so it only supports half reification.
type negatable interface {
	negated() NormalForm
}

// ReifyMode selects half (one-directional implication) or full
// (biconditional) reification, spec §4.5's "full vs half reification"
// rule.
type ReifyMode uint8

const (
	Half ReifyMode = iota
	Full
)

// Reify returns the canonical Boolean literal standing for nf, creating
// and posting a fresh reification atom on first use and reusing it on
// every subsequent call with an equal canonical key (spec §4.5's
// "canonical-key hashing/reuse" rule).
func (m *Model) Reify(nf NormalForm, mode ReifyMode) domain.Literal {
	key := nf.canonicalKey()
	if mode == Full {
		key = "full:" + key
	}
	if lit, ok := m.reifyCache[key]; ok {
		return lit
	}

	b := m.NewBoolAtom(Identifier(fmt.Sprintf("reif$%d", len(m.reifyCache))))
	lit := m.TrueLit(b)
	m.reifyCache[key] = lit

	nf.post(m, lit) // lit -> nf
	if mode == Full {
		if neg, ok := nf.(negatable); ok {
			neg.negated().post(m, lit.Negation()) // !lit -> !nf, i.e. nf -> lit
		}
	}
	return lit
}

// --- Disjunction: "l1 or l2 or ... or lk" -----------------------------

type disjunction struct{ lits []domain.Literal }

// Disjunction builds the "disjunction of literals" normal form, lowered
// directly to a clauses.Database registration.
func Disjunction(lits ...domain.Literal) NormalForm {
	cp := append([]domain.Literal(nil), lits...)
	return disjunction{lits: cp}
}

func (d disjunction) canonicalKey() string {
	sorted := append([]domain.Literal(nil), d.lits...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return fmt.Sprintf("or:%v", sorted)
}

func (d disjunction) post(m *Model, validity domain.Literal) {
	lits := append([]domain.Literal(nil), d.lits...)
	if !validity.IsTrue() {
		lits = append(lits, validity.Negation())
	}
	m.Clauses.AddClause(lits)
}

func (d disjunction) negated() NormalForm {
	neg := make([]domain.Literal, len(d.lits))
	for i, l := range d.lits {
		neg[i] = l.Negation()
	}
	return conjunction{lits: neg}
}

// conjunction is the negation of a disjunction: every literal must hold.
// It is not one of spec §4.5's named normal forms (it only ever arises as
// the negated() side of a disjunction during full reification) so it has
// no public constructor.
type conjunction struct{ lits []domain.Literal }

func (c conjunction) canonicalKey() string { return fmt.Sprintf("and:%v", c.lits) }

func (c conjunction) post(m *Model, validity domain.Literal) {
	for _, l := range c.lits {
		disjunction{lits: []domain.Literal{l}}.post(m, validity)
	}
}

// --- LinearSum: "sum(a_i * x_i) <= bound" ------------------------------

type linearSum struct {
	terms map[domain.Variable]int32
	bound int32
}

// LinearSum builds the "linear sum <= constant" normal form of spec §4.5:
// coefficients sharing a variable are combined, matching the spec's
// "coefficients combined" canonicalisation step.
func LinearSum(terms map[domain.Variable]int32, bound int32) NormalForm {
	cp := make(map[domain.Variable]int32, len(terms))
	for v, c := range terms {
		if c != 0 {
			cp[v] += c
		}
	}
	return linearSum{terms: cp, bound: bound}
}

func (s linearSum) canonicalKey() string {
	vars := make([]int, 0, len(s.terms))
	for v := range s.terms {
		vars = append(vars, int(v))
	}
	sort.Ints(vars)
	key := fmt.Sprintf("sum<=%d", s.bound)
	for _, v := range vars {
		key += fmt.Sprintf(":%d*%d", s.terms[domain.Variable(v)], v)
	}
	return key
}

func (s linearSum) post(m *Model, validity domain.Literal) {
	m.Linear.AddSum(s.terms, s.bound, validity)
}

func (s linearSum) negated() NormalForm {
	flipped := make(map[domain.Variable]int32, len(s.terms))
	for v, c := range s.terms {
		flipped[v] = -c
	}
	// sum <= bound negates to sum >= bound+1, i.e. -sum <= -(bound+1).
	return linearSum{terms: flipped, bound: -(s.bound + 1)}
}

// --- Difference: "x - y <= c" ------------------------------------------

type difference struct {
	x, y domain.Variable
	c    int32
}

// Difference builds the "x - y <= c" normal form, lowered to a single STN
// edge (spec §4.5).
func Difference(x, y domain.Variable, c int32) NormalForm {
	return difference{x: x, y: y, c: c}
}

func (d difference) canonicalKey() string {
	return fmt.Sprintf("diff:%d-%d<=%d", d.x, d.y, d.c)
}

func (d difference) post(m *Model, validity domain.Literal) {
	m.STN.AddEdge(stnEdge(m, d.y, d.x, d.c, validity))
}

func (d difference) negated() NormalForm {
	// x - y <= c negates to x - y >= c+1, i.e. y - x <= -(c+1).
	return difference{x: d.y, y: d.x, c: -(d.c + 1)}
}

// --- Equality: "x == y", lowered as a pair of opposed differences -----

type equality struct{ x, y domain.Variable }

// Equality builds the "equality of integer atoms" normal form: a pair of
// <= constraints in opposite directions (spec §4.5).
func Equality(x, y domain.Variable) NormalForm {
	return equality{x: x, y: y}
}

func (e equality) canonicalKey() string { return fmt.Sprintf("eq:%d=%d", e.x, e.y) }

func (e equality) post(m *Model, validity domain.Literal) {
	difference{x: e.x, y: e.y, c: 0}.post(m, validity)
	difference{x: e.y, y: e.x, c: 0}.post(m, validity)
}

func (e equality) negated() NormalForm { return inequality{e: e} }

// inequality is the negation of an Equality: x < y or x > y. It has no
// public constructor since spec §4.5 only names Equality as a normal
// form; this only ever arises from full-reifying one.
type inequality struct{ e equality }

func (n inequality) canonicalKey() string { return "neq:" + n.e.canonicalKey() }

func (n inequality) post(m *Model, validity domain.Literal) {
	lt := m.Reify(difference{x: n.e.x, y: n.e.y, c: -1}, Half) // x <= y-1
	gt := m.Reify(difference{x: n.e.y, y: n.e.x, c: -1}, Half) // y <= x-1
	disjunction{lits: []domain.Literal{lt, gt}}.post(m, validity)
}

// --- Table: one clause per allowed tuple, gated by a fresh selector ----

type table struct {
	vars   []domain.Variable
	tuples [][]int32
}

// Table builds the "table / in-table constraint" normal form of spec
// §4.5: each row of tuples gets a fresh selector atom; selecting a row
// forces every variable to that row's value, and at least one row must be
// selected whenever the constraint is in scope. Panics if any tuple's
// arity does not match len(vars); callers that build tuples from
// untrusted input should use TableChecked instead.
func Table(vars []domain.Variable, tuples [][]int32) NormalForm {
	if err := validateTableArity(vars, tuples); err != nil {
		panic(err)
	}
	return table{vars: append([]domain.Variable(nil), vars...), tuples: tuples}
}

// TableChecked is Table but reports a mismatched tuple arity as an
// *EncodingError instead of panicking, for the expanded spec §7 "eager,
// recoverable encoding error" path — the model itself remains usable
// afterwards for other constructions.
func TableChecked(subject Identifier, vars []domain.Variable, tuples [][]int32) (NormalForm, error) {
	if err := validateTableArity(vars, tuples); err != nil {
		return nil, NewEncodingError(subject, err.Error())
	}
	return table{vars: append([]domain.Variable(nil), vars...), tuples: tuples}, nil
}

func validateTableArity(vars []domain.Variable, tuples [][]int32) error {
	for i, tuple := range tuples {
		if len(tuple) != len(vars) {
			return fmt.Errorf("table row %d has %d values, want %d (one per variable)", i, len(tuple), len(vars))
		}
	}
	return nil
}

func (t table) canonicalKey() string {
	return fmt.Sprintf("table:%v:%v", t.vars, t.tuples)
}

func (t table) post(m *Model, validity domain.Literal) {
	selectors := make([]domain.Literal, 0, len(t.tuples))
	for ti, tuple := range t.tuples {
		sel := m.NewBoolAtom(Identifier(fmt.Sprintf("table$%s$%d", t.canonicalKey(), ti)))
		selLit := m.TrueLit(sel)
		selectors = append(selectors, selLit)

		for vi, v := range t.vars {
			val := tuple[vi]
			disjunction{lits: []domain.Literal{
				m.FalseLit(sel),
				domain.NewLiteral(domain.PosView(v), val),
			}}.post(m, domain.TrueLiteral)
			disjunction{lits: []domain.Literal{
				m.FalseLit(sel),
				domain.NewLiteral(domain.NegView(v), -val),
			}}.post(m, domain.TrueLiteral)
		}
	}
	disjunction{lits: selectors}.post(m, validity)
}
