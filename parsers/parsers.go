// Package parsers loads DIMACS-family files into the model package's
// reification layer, using the external github.com/rhartert/dimacs reader
// (kept from the teacher) against a model.Model builder instead of the
// teacher's own sat.Solver.
package parsers

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"

	"github.com/rhartert/dimacs"

	"github.com/coreplan/cds/internal/domain"
	"github.com/coreplan/cds/model"
)

func reader(filename string, gzipped bool) (io.ReadCloser, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	rc := io.ReadCloser(file)
	if gzipped {
		rc, err = gzip.NewReader(rc)
		if err != nil {
			return nil, err
		}
	}
	return rc, nil
}

// LoadDIMACS parses a DIMACS CNF file into m: one fresh Boolean atom per
// declared variable (named "v$1".."v$n" so the resulting model is
// self-describing without a side table), and one Disjunction normal form
// per clause.
func LoadDIMACS(filename string, gzipped bool, m *model.Model) error {
	reader, err := reader(filename, gzipped)
	if err != nil {
		return fmt.Errorf("error reading file %q: %s", filename, err)
	}
	defer reader.Close()

	b := &builder{m: m}
	return dimacs.ReadBuilder(reader, b)
}

// builder wraps a model.Model to implement dimacs.Builder.
type builder struct {
	m    *model.Model
	vars []model.Variable
}

func (b *builder) Problem(problem string, nVars int, nClauses int) error {
	if problem != "cnf" {
		return fmt.Errorf("not a CNF problem")
	}
	b.vars = make([]model.Variable, nVars)
	for i := 0; i < nVars; i++ {
		b.vars[i] = b.m.NewBoolAtom(model.Identifier(fmt.Sprintf("v$%d", i+1)))
	}
	return nil
}

func (b *builder) Clause(tmpClause []int) error {
	lits := make([]domain.Literal, len(tmpClause))
	for i, l := range tmpClause {
		if l < 0 {
			lits[i] = b.m.FalseLit(b.vars[-l-1])
		} else {
			lits[i] = b.m.TrueLit(b.vars[l-1])
		}
	}
	b.m.Post(model.Disjunction(lits...))
	return nil
}

func (b *builder) Comment(_ string) error {
	return nil // ignore comments
}

// CNF is a DIMACS formula kept as raw clauses (variable count plus one
// []int per clause, DIMACS sign convention), before it has been lowered
// against any particular model.Model. ReadCNF exists for callers like
// model.MUSFinder that need to re-lower the same clauses against a fresh
// model on every trial rather than once.
type CNF struct {
	NVars   int
	Clauses [][]int
}

// ReadCNF parses a DIMACS CNF file into a CNF value without touching a
// model.Model at all.
func ReadCNF(filename string, gzipped bool) (CNF, error) {
	r, err := reader(filename, gzipped)
	if err != nil {
		return CNF{}, fmt.Errorf("error reading file %q: %s", filename, err)
	}
	defer r.Close()

	cb := &cnfBuilder{}
	if err := dimacs.ReadBuilder(r, cb); err != nil {
		return CNF{}, err
	}
	return CNF{NVars: cb.nVars, Clauses: cb.clauses}, nil
}

type cnfBuilder struct {
	nVars   int
	clauses [][]int
}

func (b *cnfBuilder) Problem(problem string, nVars int, nClauses int) error {
	if problem != "cnf" {
		return fmt.Errorf("not a CNF problem")
	}
	b.nVars = nVars
	b.clauses = make([][]int, 0, nClauses)
	return nil
}

func (b *cnfBuilder) Clause(tmpClause []int) error {
	b.clauses = append(b.clauses, append([]int(nil), tmpClause...))
	return nil
}

func (b *cnfBuilder) Comment(_ string) error { return nil }

// ReadModels returns the list of models (if any) contained in the given
// file. Unlike LoadDIMACS this has no solver dependency: a models file is
// just literal polarities, one model per line.
func ReadModels(filename string) ([][]bool, error) {
	reader, err := reader(filename, false)
	if err != nil {
		return nil, fmt.Errorf("error reading file %q: %s", filename, err)
	}
	defer reader.Close()

	b := &modelBuilder{}
	if err := dimacs.ReadBuilder(reader, b); err != nil {
		return nil, err
	}

	return b.models, nil
}

// modelBuilder wraps a [][]bool accumulator to implement dimacs.Builder.
type modelBuilder struct {
	models [][]bool
}

func (b *modelBuilder) Problem(problem string, nVars int, nClauses int) error {
	return fmt.Errorf("model files should not have problem lines")
}

func (b *modelBuilder) Comment(_ string) error {
	return nil // ignore comments
}

func (b *modelBuilder) Clause(tmpClause []int) error {
	model := make([]bool, len(tmpClause))
	for i, l := range tmpClause {
		model[i] = l > 0
	}
	b.models = append(b.models, model)
	return nil
}
