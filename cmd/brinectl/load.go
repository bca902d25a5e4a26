package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type loadFlags struct {
	recompute bool
}

func newLoadCmd(root *rootFlags) *cobra.Command {
	f := &loadFlags{}

	cmd := &cobra.Command{
		Use:   "load <catalog.yaml>",
		Short: "Insert reviewers, oysters and reviews from a YAML catalog into the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd, root, f, args[0])
		},
	}
	cmd.Flags().BoolVar(&f.recompute, "recompute", false, "Recompute every loaded oyster after inserting")
	return cmd
}

func runLoad(cmd *cobra.Command, root *rootFlags, f *loadFlags, path string) error {
	ctx := cmd.Context()

	var cat catalogFile
	if err := decodeYAMLFile(path, &cat); err != nil {
		return err
	}

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

	for _, r := range cat.Reviewers {
		credibility := 1.0
		if r.Credibility != nil {
			credibility = *r.Credibility
		}
		if err := st.UpsertReviewer(ctx, r.ID, r.Name, credibility); err != nil {
			return err
		}
	}

	var oysters, reviews int
	ids := make([]string, 0, len(cat.Oysters))
	for _, entry := range cat.Oysters {
		o := entry.toDomain()
		if err := st.CreateOyster(ctx, &o); err != nil {
			return err
		}
		oysters++
		ids = append(ids, o.ID.String())

		for i, r := range entry.reviews(o.ID) {
			if entry.Reviews[i].Credibility != nil {
				if err := st.SetReviewerCredibility(ctx, r.ReviewerID, r.ReviewerCredibility); err != nil {
					return err
				}
			}
			if err := st.CreateReview(ctx, &r); err != nil {
				return err
			}
			reviews++
		}
	}
	e.log.Info("catalog loaded",
		zap.Int("reviewers", len(cat.Reviewers)),
		zap.Int("oysters", oysters),
		zap.Int("reviews", reviews),
	)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "loaded %d oysters, %d reviews, %d reviewers\n", oysters, reviews, len(cat.Reviewers))
	for _, id := range ids {
		fmt.Fprintln(out, id)
	}

	if !f.recompute {
		return nil
	}

	svc, err := e.newService(st)
	if err != nil {
		return err
	}
	report, err := svc.RecomputeAll(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "recomputed %d oysters, %d failed\n", len(report.Updated), len(report.Failed))
	if len(report.Failed) > 0 {
		return &exitErr{code: 2, msg: fmt.Sprintf("%d of %d oysters failed to recompute", len(report.Failed), report.Total())}
	}
	return nil
}
