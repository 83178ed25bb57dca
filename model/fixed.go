package model

import (
	"fmt"
	"math"

	"github.com/coreplan/cds/internal/domain"
)

// FixedVar is a fixed-point (scaled-integer) numeric atom: the underlying
// domain.Variable tracks the value multiplied by Denom, so a reasoner that
// only ever reasons about integers can still represent rationals with a
// known, fixed denominator. Grounded on original_source's
// model/src/types.rs rational/fixed-denominator representation, exposed
// here in the idiomatic-Go shape of "a plain struct wrapping the scaled
// handle" rather than a big.Rat, since every arithmetic operation on it
// (bounds, sums) stays in ordinary int32 once the denominator is fixed.
type FixedVar struct {
	Variable
	Denom int32
}

// NewFixedAtom declares a fixed-point atom under id, representing values in
// [lb, ub] (real-valued bounds) at a resolution of 1/denom. lb and ub are
// rounded to the nearest representable scaled value.
func (m *Model) NewFixedAtom(id Identifier, lb, ub float64, denom int32) FixedVar {
	v := m.NewIntAtom(id, scale(lb, denom), scale(ub, denom))
	return FixedVar{Variable: v, Denom: denom}
}

func scale(x float64, denom int32) int32 {
	return int32(math.Round(x * float64(denom)))
}

// Value reads f's current lower bound as a real number, dividing out the
// scale factor. Callers that want the upper bound can call UB and divide
// by Denom directly; Value is the common case of reading a fixed point
// after search has pinned lb == ub.
func (f FixedVar) Value(store *domain.Store) float64 {
	return float64(store.LB(f.Handle())) / float64(f.Denom)
}

// FixedSum builds the "sum(a_i * x_i) <= bound" normal form over a mix of
// fixed-point atoms sharing a common denominator, scaling bound to match.
// All terms must share the same Denom; FixedSum panics otherwise, since
// mixing denominators without rescaling would silently misweight terms
// (the kind of malformed expression the expanded spec §7's encoding-error
// policy exists for at the integer-only LinearSum layer, but FixedSum's
// single shared-denominator precondition is simple enough to assert
// directly rather than route through EncodingError).
func FixedSum(terms map[FixedVar]int32, bound float64) NormalForm {
	if len(terms) == 0 {
		return LinearSum(nil, 0)
	}
	var denom int32
	raw := make(map[domain.Variable]int32, len(terms))
	for fv, coef := range terms {
		if denom == 0 {
			denom = fv.Denom
		} else if fv.Denom != denom {
			panic(fmt.Sprintf("model: FixedSum terms must share one denominator, got %d and %d", denom, fv.Denom))
		}
		raw[fv.Handle()] = coef
	}
	return LinearSum(raw, scale(bound, denom))
}
