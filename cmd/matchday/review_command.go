package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"matchday/internal/config"
	"matchday/internal/store"
)

func newReviewCommand(ctx *commandContext) *cobra.Command {
	reviewCmd := &cobra.Command{
		Use:   "review",
		Short: "Inspect and resolve flagged mappings",
	}

	reviewCmd.AddCommand(newReviewListCommand(ctx))
	reviewCmd.AddCommand(newReviewApproveCommand(ctx))
	reviewCmd.AddCommand(newReviewRejectCommand(ctx))

	return reviewCmd
}

func newReviewListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List mappings awaiting review",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				pending, err := st.PendingReviews(cmd.Context())
				if err != nil {
					return fmt.Errorf("list pending reviews: %w", err)
				}
				out := cmd.OutOrStdout()
				if len(pending) == 0 {
					fmt.Fprintln(out, "Review queue is empty")
					return nil
				}

				rows := make([][]string, 0, len(pending))
				for _, review := range pending {
					birthDate := "-"
					if review.Snapshot.BirthDate != nil {
						birthDate = review.Snapshot.BirthDate.Format("2006-01-02")
					}
					rows = append(rows, []string{
						strconv.FormatInt(review.Mapping.ID, 10),
						string(review.Mapping.EntityType),
						review.Mapping.SourceName + "/" + review.Mapping.SourceID,
						review.Snapshot.FullName,
						birthDate,
						strconv.FormatInt(review.Mapping.MasterID, 10),
						formatConfidence(review.Mapping.Confidence),
						review.Snapshot.Detail,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Entity", "Record", "Name", "Born", "Master", "Confidence", "Detail"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft}))
				return nil
			})
		},
	}
}

func newReviewApproveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "approve <mapping-id>",
		Short: "Confirm a flagged mapping against its matched identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mappingID, err := parseMappingID(args[0])
			if err != nil {
				return err
			}
			return ctx.withLockedStore(func(cfg *config.Config, st *store.Store) error {
				if err := st.ConfirmReview(cmd.Context(), mappingID); err != nil {
					return fmt.Errorf("approve mapping %d: %w", mappingID, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Mapping %d confirmed\n", mappingID)
				return nil
			})
		},
	}
}

func newReviewRejectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reject <mapping-id>",
		Short: "Reject a flagged mapping and create a new identity for its record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mappingID, err := parseMappingID(args[0])
			if err != nil {
				return err
			}
			return ctx.withLockedStore(func(cfg *config.Config, st *store.Store) error {
				masterID, err := st.RejectReview(cmd.Context(), mappingID)
				if err != nil {
					return fmt.Errorf("reject mapping %d: %w", mappingID, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Mapping %d repointed to new identity %d\n", mappingID, masterID)
				return nil
			})
		},
	}
}

func parseMappingID(value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid mapping id %q", value)
	}
	return id, nil
}
