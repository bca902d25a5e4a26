package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ahrav/go-brine/infrastructure/scoring"
)

func newDescribeCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "describe [score]",
		Short: "Map a published score to its verdict band, or list all bands",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer e.close()

			out := cmd.OutOrStdout()
			scale := e.rt.Engine.Scale()
			if len(args) == 0 {
				for _, b := range scale.Bands() {
					fmt.Fprintln(out, formatBand(b))
				}
				return nil
			}

			score, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid score %q: %w", args[0], err)
			}
			fmt.Fprintln(out, formatBand(scale.Describe(score)))
			return nil
		},
	}
}

func formatBand(b scoring.Band) string {
	return fmt.Sprintf("%-8s %s  score=%.2f min=%.2f  %s", b.Rating, b.Emoji, b.Score, b.Min, b.Meaning)
}
