// Package dimacs is a dependency-free DIMACS CNF reader targeting the core
// clause reasoner directly (internal/domain.Store + internal/clauses.Database),
// bypassing the model package's reification/naming layer entirely. It exists
// alongside the parsers package (which wraps the external
// github.com/rhartert/dimacs reader and builds a model.Model) as the fast
// path cmd/cds uses for "solve this raw CNF file" where no atom names, no
// reification cache, and no constraint bookkeeping are needed — only the
// bound trail and the clause database.
package dimacs

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/coreplan/cds/internal/clauses"
	"github.com/coreplan/cds/internal/domain"
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

// Instance is a raw CNF loaded straight onto a domain store: vars[i] is the
// domain.Variable standing for DIMACS variable i+1.
type Instance struct {
	Store   *domain.Store
	Clauses *clauses.Database
	Vars    []domain.Variable

	// RawClauses keeps a copy of every clause's literals (against the same
	// Vars, stable across Store.Clone) so a caller can rebuild an
	// equivalent Database on a cloned store, which portfolio.Run requires
	// since cloning a store does not clone the Databases registered against
	// it (internal/clauses.Database lives outside domain.Store's own
	// fields, only reachable through it for conflict explanation).
	RawClauses [][]domain.Literal
}

// LoadDIMACS parses the DIMACS CNF file at filename into a fresh Instance.
func LoadDIMACS(filename string, gzipped bool) (*Instance, error) {
	r, err := reader(filename, gzipped)
	if err != nil {
		return nil, fmt.Errorf("error reading file %q: %s", filename, err)
	}
	defer r.Close()

	store := domain.NewStore()
	db := clauses.NewDatabase(store)
	inst := &Instance{Store: store, Clauses: db}

	scanner := bufio.NewScanner(r)

	nVars := 0
	nClauses := 0
	for {
		if !scanner.Scan() {
			return nil, fmt.Errorf("header line not found")
		}
		line := scanner.Text()
		if line == "" || line[0] == 'c' {
			continue
		}
		parts := strings.Fields(line)
		if parts[1] != "cnf" {
			return nil, fmt.Errorf("instance of type %q are not supported", parts[1])
		}
		nVars, err = strconv.Atoi(parts[2])
		if err != nil {
			return nil, fmt.Errorf("could not parse header: %w", err)
		}
		nClauses, err = strconv.Atoi(parts[3])
		if err != nil {
			return nil, fmt.Errorf("could not parse header: %w", err)
		}
		break
	}

	inst.Vars = make([]domain.Variable, nVars)
	for i := 0; i < nVars; i++ {
		inst.Vars[i] = store.NewBoolVariable(domain.TrueLiteral, fmt.Sprintf("v%d", i+1))
	}

	litBuffer := make([]domain.Literal, 0, 32)
	for nClauses > 0 && scanner.Scan() {
		line := scanner.Text()
		if line == "" || line[0] == 'c' {
			continue
		}

		litBuffer = litBuffer[:0]
		parts := strings.Fields(line)
		for _, p := range parts {
			l, err := strconv.Atoi(p)
			if err != nil {
				return nil, err
			}
			switch {
			case l < 0:
				v := inst.Vars[-l-1]
				litBuffer = append(litBuffer, domain.NewLiteral(domain.PosView(v), 0))
			case l > 0:
				v := inst.Vars[l-1]
				litBuffer = append(litBuffer, domain.NewLiteral(domain.NegView(v), -1))
			default:
				// drop the trailing 0
			}
		}

		cp := append([]domain.Literal(nil), litBuffer...)
		db.AddClause(cp)
		inst.RawClauses = append(inst.RawClauses, cp)
		nClauses--
	}

	return inst, nil
}
