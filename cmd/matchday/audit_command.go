package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"matchday/internal/config"
	"matchday/internal/logging"
	"matchday/internal/reconcile"
	"matchday/internal/store"
)

func newAuditCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Report reconciliation coverage per entity type and source",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				engine := reconcile.New(st, logging.NewNop())
				report, err := engine.Audit(cmd.Context())
				if err != nil {
					return fmt.Errorf("build audit report: %w", err)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, heading(out, "Coverage"))
				coverageRows := make([][]string, 0, len(report.Types))
				for _, tc := range report.Types {
					coverageRows = append(coverageRows, []string{
						string(tc.EntityType),
						strconv.Itoa(tc.Identities),
						strconv.Itoa(tc.Mapped),
						strconv.Itoa(tc.SingleSource),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Entity", "Identities", "Mapped", "Single-source"},
					coverageRows,
					[]columnAlignment{alignLeft, alignRight, alignRight, alignRight}))

				var sourceRows [][]string
				for _, tc := range report.Types {
					for _, source := range tc.Sources() {
						coverage := "-"
						if tc.Identities > 0 {
							coverage = fmt.Sprintf("%.1f%%", 100*float64(tc.BySource[source])/float64(tc.Identities))
						}
						sourceRows = append(sourceRows, []string{
							string(tc.EntityType),
							source,
							strconv.Itoa(tc.BySource[source]),
							coverage,
						})
					}
				}
				if len(sourceRows) > 0 {
					fmt.Fprintln(out)
					fmt.Fprintln(out, heading(out, "Per source"))
					fmt.Fprintln(out, renderTable(
						[]string{"Entity", "Source", "Identities", "Coverage"},
						sourceRows,
						[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight}))
				}

				fmt.Fprintln(out)
				fmt.Fprintf(out, "Total live identities: %d\n", report.TotalIdentities())
				fmt.Fprintf(out, "Pending reviews: %d\n", len(report.PendingReviews))
				if len(report.PendingReviews) > 0 {
					fmt.Fprintln(out, "Run `matchday review list` to inspect them.")
				}
				return nil
			})
		},
	}
}
