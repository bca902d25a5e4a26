package main

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-brine/infrastructure/middleware"
	"github.com/ahrav/go-brine/internal/application"
	"github.com/ahrav/go-brine/internal/domain"
	"github.com/ahrav/go-brine/internal/ports"
)

type recomputeFlags struct {
	all     bool
	oyster  string
	trace   bool
	metrics bool
}

// oysterResult is the output of a single-oyster recompute.
type oysterResult struct {
	OysterID   uuid.UUID              `json:"oyster_id"`
	Aggregates domain.AggregateResult `json:"aggregates"`
	Verdict    domain.Rating          `json:"verdict"`
}

func newRecomputeCmd(root *rootFlags) *cobra.Command {
	f := &recomputeFlags{}

	cmd := &cobra.Command{
		Use:   "recompute",
		Short: "Recompute published aggregates for one oyster or the whole catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRecompute(cmd, root, f)
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&f.all, "all", false, "Recompute every oyster")
	flags.StringVar(&f.oyster, "oyster", "", "Recompute a single oyster by ID")
	flags.BoolVar(&f.trace, "trace", false, "Write OpenTelemetry spans to stderr")
	flags.BoolVar(&f.metrics, "metrics", false, "Write Prometheus metrics to stderr when done")
	cmd.MarkFlagsMutuallyExclusive("all", "oyster")
	cmd.MarkFlagsOneRequired("all", "oyster")

	return cmd
}

func runRecompute(cmd *cobra.Command, root *rootFlags, f *recomputeFlags) error {
	ctx := cmd.Context()

	var oysterID uuid.UUID
	if f.oyster != "" {
		id, err := uuid.Parse(f.oyster)
		if err != nil {
			return fmt.Errorf("invalid oyster id %q: %w", f.oyster, err)
		}
		oysterID = id
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

	reg := prometheus.NewRegistry()
	metrics, err := middleware.NewPrometheusMetrics(reg, e.rt.Config.Telemetry.MetricsNamespace)
	if err != nil {
		return err
	}
	opts := []application.ServiceOption{application.WithMetrics(metrics)}

	var tracer trace.Tracer
	if f.trace || e.rt.Config.Telemetry.Tracing {
		tp, err := middleware.NewStdoutTracerProvider(ctx, cmd.ErrOrStderr(), "brinectl", version)
		if err != nil {
			return err
		}
		defer func() { _ = tp.Shutdown(context.Background()) }()
		tracer = tp.Tracer(middleware.TracerName)
		opts = append(opts, application.WithRecomputeDecorator(func(next ports.Recomputer) ports.Recomputer {
			return middleware.NewTracingRecomputer(next, tracer)
		}))
	}

	svc, err := e.newService(st, opts...)
	if err != nil {
		return err
	}

	if f.metrics {
		defer func() { _ = dumpMetrics(cmd.ErrOrStderr(), reg) }()
	}

	out := cmd.OutOrStdout()
	if !f.all {
		var rc ports.Recomputer = svc
		if tracer != nil {
			rc = middleware.NewTracingRecomputer(rc, tracer)
		}
		result, err := rc.RecomputeOyster(ctx, oysterID)
		if err != nil {
			return err
		}
		return writeJSON(out, oysterResult{
			OysterID:   oysterID,
			Aggregates: result,
			Verdict:    e.rt.Engine.Scale().Describe(result.OverallScore).Rating,
		})
	}

	report, err := svc.RecomputeAll(ctx)
	if report != nil {
		if werr := writeJSON(out, report); werr != nil && err == nil {
			err = werr
		}
	}
	if err != nil {
		return err
	}
	if len(report.Failed) > 0 {
		return &exitErr{
			code: 2,
			msg:  fmt.Sprintf("%d of %d oysters failed to recompute", len(report.Failed), report.Total()),
		}
	}
	return nil
}

func dumpMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
