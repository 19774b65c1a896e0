package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"matchday/internal/config"
	"matchday/internal/identity"
	"matchday/internal/reconcile"
	"matchday/internal/store"
)

func newDedupeCommand(ctx *commandContext) *cobra.Command {
	var apply bool
	var threshold float64
	var entityTypeFlag string

	cmd := &cobra.Command{
		Use:   "dedupe",
		Short: "Find canonical identities that look like duplicates",
		Long: "Scans the live identities of every entity type for same-type pairs whose\n" +
			"names score at or above the dedupe threshold and whose known birth dates\n" +
			"do not conflict. Without --apply the pairs are only listed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var entityType identity.EntityType
			if entityTypeFlag != "" {
				parsed, ok := identity.ParseEntityType(entityTypeFlag)
				if !ok {
					return fmt.Errorf("unknown entity type %q", entityTypeFlag)
				}
				entityType = parsed
			}

			return ctx.withLockedStore(func(cfg *config.Config, st *store.Store) error {
				logger, err := ctx.newLogger(cfg)
				if err != nil {
					return err
				}
				if threshold <= 0 {
					threshold = cfg.Reconcile.DedupeThreshold
				}
				if threshold > 1 {
					return fmt.Errorf("name threshold %.3f outside (0, 1]", threshold)
				}

				engine := reconcile.New(st, logger)
				pairs, err := engine.FindDuplicates(cmd.Context(), entityType, threshold, cfg.Reconcile.MaxCandidates)
				if err != nil {
					return fmt.Errorf("scan for duplicates: %w", err)
				}

				out := cmd.OutOrStdout()
				if len(pairs) == 0 {
					fmt.Fprintln(out, "No duplicate identities found")
					return nil
				}

				rows := make([][]string, 0, len(pairs))
				for _, pair := range pairs {
					rows = append(rows, []string{
						string(pair.EntityType),
						strconv.FormatInt(pair.SurvivorID, 10),
						pair.Survivor,
						strconv.FormatInt(pair.LoserID, 10),
						pair.Loser,
						formatConfidence(pair.NameScore),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Entity", "Keep", "Name", "Merge", "Name", "Score"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignLeft, alignRight, alignLeft, alignRight}))

				if !apply {
					fmt.Fprintf(out, "\n%d candidate pair(s); rerun with --apply to merge\n", len(pairs))
					return nil
				}

				merged, err := engine.MergeDuplicates(cmd.Context(), logger, pairs)
				if err != nil {
					return fmt.Errorf("merge duplicates: %w", err)
				}
				fmt.Fprintf(out, "\nMerged %d identity pair(s)\n", merged)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "Merge the duplicate pairs instead of only listing them")
	cmd.Flags().Float64Var(&threshold, "name-threshold", 0, "Override the configured dedupe name threshold")
	cmd.Flags().StringVar(&entityTypeFlag, "entity-type", "", "Only scan identities of this entity type")
	return cmd
}
