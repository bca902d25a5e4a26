package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-brine/internal/testutils"
)

type generateFlags struct {
	oysters    int
	maxReviews int
	seed       int64
	out        string
}

func newGenerateCmd() *cobra.Command {
	f := &generateFlags{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic catalog that the load command accepts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if f.oysters < 0 || f.maxReviews < 0 {
				return fmt.Errorf("--oysters and --max-reviews must not be negative")
			}
			if !cmd.Flags().Changed("seed") {
				f.seed = time.Now().UnixNano()
			}
			return runGenerate(cmd.OutOrStdout(), f)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&f.oysters, "oysters", 50, "Number of oysters to generate")
	flags.IntVar(&f.maxReviews, "max-reviews", 12, "Maximum reviews per oyster")
	flags.Int64Var(&f.seed, "seed", 0, "Random seed (default: current time)")
	flags.StringVar(&f.out, "out", "", "Output file path (default: stdout)")
	return cmd
}

func runGenerate(stdout io.Writer, f *generateFlags) error {
	gen := testutils.GenerateCatalog(f.oysters, f.maxReviews, f.seed)

	cat := catalogFile{Oysters: make([]oysterEntry, 0, len(gen.Oysters))}
	for _, o := range gen.Oysters {
		cat.Oysters = append(cat.Oysters, newOysterEntry(o, gen.Reviews[o.ID]))
	}

	w := stdout
	if f.out != "" {
		fh, err := os.Create(filepath.Clean(f.out))
		if err != nil {
			return err
		}
		defer func() { _ = fh.Close() }()
		w = fh
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cat); err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	return enc.Close()
}
