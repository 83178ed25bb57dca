package model_test

import (
	"errors"
	"testing"

	"github.com/coreplan/cds/internal/domain"
	"github.com/coreplan/cds/model"
)

func TestTableChecked_RejectsMismatchedArity(t *testing.T) {
	m := model.New()
	x := m.NewIntAtom("x", 0, 5)
	y := m.NewIntAtom("y", 0, 5)
	vars := []domain.Variable{x.Handle(), y.Handle()}

	_, err := model.TableChecked("bad-table", vars, [][]int32{{1, 2}, {3}}) // second row has wrong arity
	if err == nil {
		t.Fatalf("TableChecked(): want an error for a mismatched-arity row, got nil")
	}

	var encErr *model.EncodingError
	if !errors.As(err, &encErr) {
		t.Fatalf("TableChecked(): want an *EncodingError, got %T", err)
	}
	if encErr.Subject != "bad-table" {
		t.Errorf("EncodingError.Subject: want %q, got %q", "bad-table", encErr.Subject)
	}
}

func TestTableChecked_AcceptsMatchingArity(t *testing.T) {
	m := model.New()
	x := m.NewIntAtom("x", 0, 5)
	y := m.NewIntAtom("y", 0, 5)
	vars := []domain.Variable{x.Handle(), y.Handle()}

	nf, err := model.TableChecked("good-table", vars, [][]int32{{1, 2}, {3, 4}})
	if err != nil {
		t.Fatalf("TableChecked(): unexpected error %s", err)
	}
	if nf == nil {
		t.Fatalf("TableChecked(): want a non-nil NormalForm on success")
	}
}
