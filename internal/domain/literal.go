// Package domain implements the single source of truth for the current
// partial assignment: the bound store, its trail, and the causal
// bookkeeping needed to refine explanations into asserting clauses.
package domain

import "fmt"

// Variable identifies an integer-valued entity with domain [lb, ub]. Like
// the teacher's sat.Literal, variables are small integer handles into dense
// arrays rather than pointers, so that trail entries stay cheap to create
// and undo.
type Variable int32

// ZeroVar is the reserved variable whose domain is always {0}. It is used
// to encode constants and offsets uniformly (spec §3).
const ZeroVar Variable = 0

// SignedVar is an oriented view of a Variable: its positive view (tracks
// the upper bound) or its negative view (tracks the negated lower bound).
// The encoding mirrors the teacher's PositiveLiteral/NegativeLiteral split
// (2*v for positive, 2*v+1 for negative) so that bound tightening on either
// view is a single operation over one flat index space.
type SignedVar int32

// PosView returns the signed variable tracking v's upper bound.
func PosView(v Variable) SignedVar { return SignedVar(v) * 2 }

// NegView returns the signed variable tracking v's negated lower bound.
func NegView(v Variable) SignedVar { return PosView(v) + 1 }

// Variable returns the variable underlying a signed variable.
func (s SignedVar) Variable() Variable { return Variable(s / 2) }

// IsPos reports whether s is the positive (upper-bound) view.
func (s SignedVar) IsPos() bool { return s&1 == 0 }

// Opposite returns the other view of the same variable.
func (s SignedVar) Opposite() SignedVar { return s ^ 1 }

func (s SignedVar) String() string {
	if s.IsPos() {
		return fmt.Sprintf("ub(%d)", s.Variable())
	}
	return fmt.Sprintf("-lb(%d)", s.Variable())
}

// Literal is a tightening claim "signed variable s has its tracked bound
// <= bound". Packing the two fields into an int64 keeps a trail entry a
// single scalar, in the spirit of the teacher's flat Literal encoding.
type Literal int64

const boundBits = 32

// NewLiteral builds the literal "s <= bound".
func NewLiteral(s SignedVar, bound int32) Literal {
	return Literal(int64(s)<<boundBits | int64(uint32(bound)))
}

// SignedVar returns the literal's signed variable.
func (l Literal) SignedVar() SignedVar { return SignedVar(l >> boundBits) }

// Bound returns the literal's bound constant.
func (l Literal) Bound() int32 { return int32(uint32(l)) }

// Negation returns the literal's syntactic negation: "s <= b" negates to
// "s >= b+1", i.e. "opposite(s) <= -(b+1)".
func (l Literal) Negation() Literal {
	return NewLiteral(l.SignedVar().Opposite(), -(l.Bound() + 1))
}

// Entails reports whether l is at least as tight as other: same signed
// variable, bound no looser.
func (l Literal) Entails(other Literal) bool {
	return l.SignedVar() == other.SignedVar() && l.Bound() <= other.Bound()
}

func (l Literal) String() string {
	return fmt.Sprintf("[%s <= %d]", l.SignedVar(), l.Bound())
}

// Reduced range bounds: comfortably below int32 extrema so that additive
// STN arithmetic (weight + bound) never overflows (spec §3).
const (
	MinDomainBound int32 = -(1 << 28)
	MaxDomainBound int32 = 1 << 28
)

// TrueLiteral and FalseLiteral are the reserved constant literals. They are
// both encoded over the zero variable's positive view, which is fixed to
// domain {0}: "ub(zero) <= 0" is always true, "ub(zero) <= -1" is always
// false (it would require the domain to be empty).
var (
	TrueLiteral  = NewLiteral(PosView(ZeroVar), 0)
	FalseLiteral = NewLiteral(PosView(ZeroVar), -1)
)

// IsTrue / IsFalse test against the two reserved constants.
func (l Literal) IsTrue() bool  { return l == TrueLiteral }
func (l Literal) IsFalse() bool { return l == FalseLiteral }
