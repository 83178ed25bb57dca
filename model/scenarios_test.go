package model_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/coreplan/cds/internal/domain"
	"github.com/coreplan/cds/internal/search"
	"github.com/coreplan/cds/model"
)

func TestScenarios(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "model end-to-end scenarios")
}

func newDriver(m *model.Model) *search.Driver {
	brancher := search.NewActivityBrancher(m.Store.NumVariables(), 0.95)
	return search.NewDriver(m.Store, brancher, []search.Propagator{m.Clauses, m.STN, m.Linear})
}

var _ = Describe("Boolean-only reasoning", func() {
	It("derives b from a and a -> b, then becomes unsat under !b", func() {
		By("asserting a and a -> b")
		m := model.New()
		a := m.NewBoolAtom("a")
		b := m.NewBoolAtom("b")
		m.AddConstraint("a", model.Mandatory())
		m.Post(model.Disjunction(m.FalseLit(a), m.TrueLit(b))) // !a or b

		Expect(newDriver(m).Solve()).To(Equal(search.StatusSat))
		Expect(m.Store.LB(a.Handle())).To(BeNumerically(">=", 1))
		Expect(m.Store.LB(b.Handle())).To(BeNumerically(">=", 1))

		By("additionally asserting !b")
		m2 := model.New()
		a2 := m2.NewBoolAtom("a")
		b2 := m2.NewBoolAtom("b")
		m2.AddConstraint("a", model.Mandatory())
		m2.Post(model.Disjunction(m2.FalseLit(a2), m2.TrueLit(b2)))
		m2.AddConstraint("b", model.Prohibited())

		Expect(newDriver(m2).Solve()).To(Equal(search.StatusUnsat))
	})
})

var _ = Describe("Difference logic inconsistency", func() {
	It("proves unsat on a cycle a < b < c < a", func() {
		m := model.New()
		a := m.NewIntAtom("a", 0, 10)
		b := m.NewIntAtom("b", 0, 10)
		c := m.NewIntAtom("c", 0, 10)

		m.Post(model.Difference(a.Handle(), b.Handle(), -1)) // a < b
		m.Post(model.Difference(b.Handle(), c.Handle(), -1)) // b < c
		m.Post(model.Difference(c.Handle(), a.Handle(), -1)) // c < a

		Expect(newDriver(m).Solve()).To(Equal(search.StatusUnsat))
	})
})

var _ = Describe("Optimisation", func() {
	It("minimizes c to 7 under a < b < c and (b >= 6 or b >= 8)", func() {
		m := model.New()
		a := m.NewIntAtom("a", 0, 10)
		b := m.NewIntAtom("b", 0, 10)
		c := m.NewIntAtom("c", 0, 10)

		m.Post(model.Difference(a.Handle(), b.Handle(), -1))
		m.Post(model.Difference(b.Handle(), c.Handle(), -1))

		bGE6 := domain.NewLiteral(domain.NegView(b.Handle()), -6)
		bGE8 := domain.NewLiteral(domain.NegView(b.Handle()), -8)
		m.Post(model.Disjunction(bGE6, bGE8))

		opt := search.NewOptimizer(m.Store, c.Handle(), nil)
		best, ok := opt.Minimize(newDriver(m))
		Expect(ok).To(BeTrue())
		Expect(best).To(Equal(int32(7)))
	})

	It("minimizes a to 6 under (a >= 6 or a >= 8)", func() {
		m := model.New()
		a := m.NewIntAtom("a", 0, 10)

		aGE6 := domain.NewLiteral(domain.NegView(a.Handle()), -6)
		aGE8 := domain.NewLiteral(domain.NegView(a.Handle()), -8)
		m.Post(model.Disjunction(aGE6, aGE8))

		opt := search.NewOptimizer(m.Store, a.Handle(), nil)
		best, ok := opt.Minimize(newDriver(m))
		Expect(ok).To(BeTrue())
		Expect(best).To(Equal(int32(6)))
	})
})

var _ = Describe("Integer bound tightening through combined literal forms", func() {
	It("tightens x to [2, 8] under eight equivalent forms of the same two bounds", func() {
		m := model.New()
		x := m.NewIntAtom("x", 0, 10)
		v := x.Handle()

		assert := func(sv domain.SignedVar, bound int32) {
			Expect(m.Store.Set(domain.NewLiteral(sv, bound), domain.EncodingCause)).
				ToNot(Equal(domain.Conflict))
		}

		assert(domain.PosView(v), 8)   // x <= 8
		assert(domain.NegView(v), -2)  // 2 <= x
		assert(domain.NegView(v), -2)  // 1 < x, i.e. x >= 2
		assert(domain.PosView(v), 8)   // x < 9, i.e. x <= 8
		assert(domain.NegView(v), -2)  // x >= 2
		assert(domain.PosView(v), 8)   // 8 >= x
		assert(domain.NegView(v), -2)  // x > 1, i.e. x >= 2
		assert(domain.PosView(v), 8)   // 9 > x, i.e. x <= 8

		Expect(m.Store.LB(v)).To(Equal(int32(2)))
		Expect(m.Store.UB(v)).To(Equal(int32(8)))
	})
})

var _ = Describe("Booleans as integers", func() {
	It("projects a Boolean atom's truth onto the [0,1] integer domain", func() {
		m := model.New()
		a := m.NewBoolAtom("a")
		m.AddConstraint("a", model.Mandatory())
		Expect(newDriver(m).Solve()).To(Equal(search.StatusSat))
		Expect(m.Store.LB(a.Handle())).To(Equal(int32(1)))
		Expect(m.Store.UB(a.Handle())).To(Equal(int32(1)))

		m2 := model.New()
		a2 := m2.NewBoolAtom("a")
		m2.AddConstraint("a", model.Prohibited())
		Expect(newDriver(m2).Solve()).To(Equal(search.StatusSat))
		Expect(m2.Store.LB(a2.Handle())).To(Equal(int32(0)))
		Expect(m2.Store.UB(a2.Handle())).To(Equal(int32(0)))
	})
})
