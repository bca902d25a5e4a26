// Command brinectl recomputes and inspects published oyster aggregates.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

// exitErr carries a specific process exit code out of a command.
type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

type rootFlags struct {
	configPath string
	logMode    string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	f := &rootFlags{}

	root := &cobra.Command{
		Use:           "brinectl",
		Short:         "Recompute and inspect oyster rating aggregates",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "Path to YAML configuration (default: built-in defaults)")
	pf.StringVar(&f.logMode, "log-mode", "", "Log encoder: dev or prod (overrides config)")
	pf.StringVar(&f.logLevel, "log-level", "", "Minimum log level: debug, info, warn or error (overrides config)")

	root.AddCommand(
		newRecomputeCmd(f),
		newScoreCmd(f),
		newDescribeCmd(f),
		newLoadCmd(f),
		newReviewCmd(f),
		newConfigCmd(f),
		newGenerateCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var ee *exitErr
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, ee.msg)
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
