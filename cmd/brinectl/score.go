package main

import (
	"github.com/spf13/cobra"

	"github.com/ahrav/go-brine/infrastructure/scoring"
	"github.com/ahrav/go-brine/internal/domain"
)

type scoreOutput struct {
	Name       string                 `json:"name,omitempty"`
	Aggregates domain.AggregateResult `json:"aggregates"`
	Band       scoring.Band           `json:"band"`
}

func newScoreCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "score <oyster.yaml>",
		Short: "Compute aggregates for an oyster described in a YAML file without touching the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer e.close()

			var entry oysterEntry
			if err := decodeYAMLFile(args[0], &entry); err != nil {
				return err
			}
			oyster := entry.toDomain()

			result, err := e.rt.Engine.Recompute(&oyster, entry.reviews(oyster.ID))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), scoreOutput{
				Name:       oyster.Name,
				Aggregates: result,
				Band:       e.rt.Engine.Scale().Describe(result.OverallScore),
			})
		},
	}
}
