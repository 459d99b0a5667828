package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/proovit/proovit/internal/repository"
	"github.com/proovit/proovit/internal/service"
	"github.com/spf13/cobra"
)

func ReconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "List verified proofs whose streak update never landed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, database, err := openDB()
			if err != nil {
				return err
			}
			defer database.Close()

			location, err := cfg.Location()
			if err != nil {
				return err
			}

			reconcile := service.NewReconcileService(
				repository.NewProofRepository(database),
				repository.NewStreakRepository(database),
				location,
			)

			gaps, err := reconcile.Gaps(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(gaps) == 0 {
				fmt.Fprintln(out, "No streak gaps found")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "GOAL\tPROOF\tPROOF DAY\tSTREAK LAST DAY")
			for _, gap := range gaps {
				last := "-"
				if gap.Streak != nil && gap.Streak.LastProofDate != nil {
					last = gap.Streak.LastProofDate.String()
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", gap.Proof.GoalID, gap.Proof.ID, gap.ProofDay, last)
			}
			return w.Flush()
		},
	}
}
