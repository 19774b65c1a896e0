package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"matchday/internal/config"
	"matchday/internal/identity"
	"matchday/internal/reconcile"
	"matchday/internal/store"
)

func newReconcileCommand(ctx *commandContext) *cobra.Command {
	var showAll bool
	var autoThreshold float64
	var reviewFloor float64
	var entityType string

	cmd := &cobra.Command{
		Use:   "reconcile [file]",
		Short: "Resolve a batch of source records against the identity store",
		Long: "Reads a JSON array of source records from the given file (or stdin) and\n" +
			"resolves each into an existing identity, a review flag, or a new identity.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := readRecords(args)
			if err != nil {
				return err
			}
			if entityType != "" {
				records, err = filterRecords(records, entityType)
				if err != nil {
					return err
				}
			}

			return ctx.withLockedStore(func(cfg *config.Config, st *store.Store) error {
				logger, err := ctx.newLogger(cfg)
				if err != nil {
					return err
				}

				opts := reconcile.OptionsFromConfig(cfg)
				if autoThreshold > 0 {
					opts.AutoMergeThreshold = autoThreshold
				}
				if reviewFloor > 0 {
					opts.ReviewFloor = reviewFloor
				}

				engine := reconcile.New(st, logger)
				result, err := engine.Reconcile(cmd.Context(), records, opts)
				if err != nil {
					return fmt.Errorf("reconcile batch: %w", err)
				}
				printRunResult(cmd.OutOrStdout(), result, showAll)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&showAll, "all", false, "List every outcome, not just flags and skips")
	cmd.Flags().Float64Var(&autoThreshold, "auto-merge-threshold", 0, "Override the configured auto-merge threshold")
	cmd.Flags().Float64Var(&reviewFloor, "review-floor", 0, "Override the configured review floor")
	cmd.Flags().StringVar(&entityType, "entity-type", "", "Only process records of this entity type")
	return cmd
}

func filterRecords(records []identity.RawRecord, entityType string) ([]identity.RawRecord, error) {
	wanted, ok := identity.ParseEntityType(entityType)
	if !ok {
		return nil, fmt.Errorf("unknown entity type %q", entityType)
	}
	filtered := records[:0]
	for _, record := range records {
		if parsed, ok := identity.ParseEntityType(record.EntityType); ok && parsed == wanted {
			filtered = append(filtered, record)
		}
	}
	return filtered, nil
}

func readRecords(args []string) ([]identity.RawRecord, error) {
	var reader io.Reader = os.Stdin
	source := "stdin"
	if len(args) == 1 && args[0] != "-" {
		file, err := os.Open(args[0])
		if err != nil {
			return nil, fmt.Errorf("open records file: %w", err)
		}
		defer file.Close()
		reader = file
		source = args[0]
	}

	var records []identity.RawRecord
	decoder := json.NewDecoder(reader)
	if err := decoder.Decode(&records); err != nil {
		return nil, fmt.Errorf("parse records from %s: %w", source, err)
	}
	return records, nil
}

func printRunResult(out io.Writer, result *reconcile.Result, showAll bool) {
	summary := result.Summary()
	fmt.Fprintf(out, "Run %s finished in %s\n\n", result.RunID, result.Duration.Round(time.Millisecond))

	rows := [][]string{
		{"Auto-merged", strconv.Itoa(summary[reconcile.OutcomeAutoMerged])},
		{"Flagged for review", strconv.Itoa(summary[reconcile.OutcomeFlagged])},
		{"New identities", strconv.Itoa(summary[reconcile.OutcomeNewIdentity])},
		{"Already mapped", strconv.Itoa(summary[reconcile.OutcomeAlreadyMapped])},
		{"Skipped", strconv.Itoa(summary[reconcile.OutcomeSkipped])},
	}
	fmt.Fprintln(out, renderTable([]string{"Outcome", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))

	var detailRows [][]string
	for _, outcome := range result.Outcomes {
		if !showAll && outcome.Kind != reconcile.OutcomeFlagged && outcome.Kind != reconcile.OutcomeSkipped {
			continue
		}
		detailRows = append(detailRows, []string{
			outcome.Record,
			string(outcome.Kind),
			formatMasterID(outcome.MasterID),
			formatConfidence(outcome.Confidence),
			outcome.Detail,
		})
	}
	if len(detailRows) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderTable(
			[]string{"Record", "Outcome", "Master", "Confidence", "Detail"},
			detailRows,
			[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft}))
	}
}

func formatMasterID(id int64) string {
	if id == 0 {
		return "-"
	}
	return strconv.FormatInt(id, 10)
}

func formatConfidence(confidence float64) string {
	return strconv.FormatFloat(confidence, 'f', 3, 64)
}
