package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/coreplan/cds/internal/clauses"
	"github.com/coreplan/cds/internal/dimacs"
	"github.com/coreplan/cds/internal/domain"
	"github.com/coreplan/cds/internal/search"
	"github.com/coreplan/cds/portfolio"
)

func newSolveCmd() *cobra.Command {
	var (
		gzipped      bool
		timeout      time.Duration
		maxConflicts int64
		workers      int
		seed         int64
	)

	cmd := &cobra.Command{
		Use:   "solve <file.cnf>",
		Short: "solve a DIMACS CNF instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inst, err := dimacs.LoadDIMACS(args[0], gzipped)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			if timeout > 0 {
				var cancelTimeout context.CancelFunc
				ctx, cancelTimeout = context.WithTimeout(ctx, timeout)
				defer cancelTimeout()
			}

			var status search.Status
			var store *domain.Store

			if workers > 1 {
				res, err := portfolio.Run(ctx, inst.Store, func(s *domain.Store) (*clauses.Database, []search.Propagator) {
					db := clauses.NewDatabase(s)
					for _, lits := range inst.RawClauses {
						db.AddClause(append([]domain.Literal(nil), lits...))
					}
					return db, []search.Propagator{db}
				}, portfolio.Config{Workers: workers, Seed: seed})
				if err != nil {
					return err
				}
				status, store = res.Status, res.Store
			} else {
				brancher := search.NewActivityBrancher(inst.Store.NumVariables(), 0.95)
				driver := search.NewDriver(inst.Store, brancher, []search.Propagator{inst.Clauses},
					search.WithStopCondition(search.NewStopCondition(ctx, maxConflicts)))
				status, store = driver.Solve(), inst.Store
			}

			switch status {
			case search.StatusSat:
				fmt.Println("SAT")
				fmt.Println(formatModel(store, inst.Vars))
			case search.StatusUnsat:
				fmt.Println("UNSAT")
			default:
				log.Warn("search stopped before reaching a conclusion")
				fmt.Println("UNKNOWN")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&gzipped, "gzip", false, "the instance file is gzip-compressed")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "stop searching after this long (0 disables the limit)")
	cmd.Flags().Int64Var(&maxConflicts, "max-conflicts", 0, "stop searching after this many conflicts (0 disables the limit, ignored with --workers>1)")
	cmd.Flags().IntVar(&workers, "workers", 1, "run a portfolio of this many independent search workers")
	cmd.Flags().Int64Var(&seed, "seed", 1, "base random seed for portfolio workers")
	return cmd
}

func formatModel(store *domain.Store, vars []domain.Variable) string {
	var b strings.Builder
	for i, v := range vars {
		if i > 0 {
			b.WriteByte(' ')
		}
		if store.LB(v) >= 1 {
			fmt.Fprintf(&b, "%d", i+1)
		} else {
			fmt.Fprintf(&b, "-%d", i+1)
		}
	}
	return b.String()
}
