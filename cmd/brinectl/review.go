package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ahrav/go-brine/infrastructure/store"
	"github.com/ahrav/go-brine/internal/application"
)

func newReviewCmd(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Change stored reviews and republish the affected oyster",
	}
	cmd.AddCommand(newReviewDeleteCmd(root), newReviewWeightCmd(root))
	return cmd
}

func newReviewDeleteCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <review-id>",
		Short: "Delete a review and recompute its oyster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reviewID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid review id %q: %w", args[0], err)
			}
			return withReviewChange(cmd, root, application.ReviewDeleted,
				func(ctx context.Context, st *store.GormStore) (uuid.UUID, error) {
					return st.DeleteReview(ctx, reviewID)
				})
		},
	}
}

func newReviewWeightCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "weight <review-id> <quality-weight>",
		Short: "Set a review's community quality weight and recompute its oyster",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reviewID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid review id %q: %w", args[0], err)
			}
			weight, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid quality weight %q: %w", args[1], err)
			}
			if weight < 0 {
				return fmt.Errorf("quality weight must not be negative, got %g", weight)
			}
			return withReviewChange(cmd, root, application.ReviewVoteChanged,
				func(ctx context.Context, st *store.GormStore) (uuid.UUID, error) {
					return st.SetQualityWeight(ctx, reviewID, weight)
				})
		},
	}
}

// withReviewChange applies mutate to the store and then fires the matching
// review-change trigger for the oyster mutate reports.
func withReviewChange(
	cmd *cobra.Command,
	root *rootFlags,
	kind application.ChangeKind,
	mutate func(context.Context, *store.GormStore) (uuid.UUID, error),
) error {
	ctx := cmd.Context()

	e, err := setup(ctx, root)
	if err != nil {
		return err
	}
	defer e.close()

	st, closeDB, err := e.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	oysterID, err := mutate(ctx, st)
	if err != nil {
		return err
	}

	svc, err := e.newService(st)
	if err != nil {
		return err
	}
	result, err := svc.HandleReviewChange(ctx, application.ReviewChange{OysterID: oysterID, Kind: kind})
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), oysterResult{
		OysterID:   oysterID,
		Aggregates: result,
		Verdict:    e.rt.Engine.Scale().Describe(result.OverallScore).Rating,
	})
}
