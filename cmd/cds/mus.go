package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coreplan/cds/internal/domain"
	"github.com/coreplan/cds/model"
	"github.com/coreplan/cds/parsers"
)

func newMUSCmd() *cobra.Command {
	var (
		gzipped  bool
		maxSeeds int
	)

	cmd := &cobra.Command{
		Use:   "mus <file.cnf>",
		Short: "enumerate minimal unsatisfiable subsets of a DIMACS CNF instance's clauses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cnf, err := parsers.ReadCNF(args[0], gzipped)
			if err != nil {
				return err
			}

			newBase := func() *model.Model {
				m := model.New()
				for i := 1; i <= cnf.NVars; i++ {
					m.NewBoolAtom(model.Identifier(fmt.Sprintf("v$%d", i)))
				}
				return m
			}

			base := newBase()
			candidates := make([]model.AppliedConstraint, len(cnf.Clauses))
			for i, raw := range cnf.Clauses {
				lits := make([]domain.Literal, len(raw))
				for j, l := range raw {
					v, _ := base.Lookup(model.Identifier(fmt.Sprintf("v$%d", abs(l))))
					if l < 0 {
						lits[j] = base.FalseLit(v)
					} else {
						lits[j] = base.TrueLit(v)
					}
				}
				subject := model.Identifier(fmt.Sprintf("clause$%d", i))
				candidates[i] = model.AppliedConstraint{Subject: subject, Constraint: model.AsConstraint(model.Disjunction(lits...))}
			}

			finder := model.NewMUSFinder(newBase, candidates)
			result := finder.Enumerate(maxSeeds)

			for _, mus := range result.MUSes {
				fmt.Println("MUS:")
				for _, ac := range mus {
					fmt.Println("  " + ac.String())
				}
			}
			for _, mss := range result.MSSes {
				fmt.Printf("MSS of size %d\n", len(mss))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&gzipped, "gzip", false, "the instance file is gzip-compressed")
	cmd.Flags().IntVar(&maxSeeds, "max-seeds", 8, "maximum number of seed subsets to explore")
	return cmd
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
