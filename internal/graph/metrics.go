package graph

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("funblocks.graph")
	meter  = otel.Meter("funblocks.graph")
)

var (
	cycleTotal     metric.Int64Counter
	cycleBlocks    metric.Int64Histogram
	cycleDuration  metric.Float64Histogram
	metricsOnce    sync.Once
	metricsInitErr error
)

// initMetrics creates the instruments on first use.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		cycleTotal, err = meter.Int64Counter(
			"funblocks.propagation.cycles",
			metric.WithDescription("Completed propagation cycles"),
		)
		if err != nil {
			metricsInitErr = err
			return
		}

		cycleBlocks, err = meter.Int64Histogram(
			"funblocks.propagation.blocks",
			metric.WithDescription("Blocks refreshed per propagation cycle"),
		)
		if err != nil {
			metricsInitErr = err
			return
		}

		cycleDuration, err = meter.Float64Histogram(
			"funblocks.propagation.duration",
			metric.WithDescription("Duration of propagation cycles"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsInitErr = err
			return
		}
	})
	return metricsInitErr
}

func recordPropagationMetrics(ctx context.Context, duration time.Duration, refreshed int) {
	if err := initMetrics(); err != nil {
		return
	}
	cycleTotal.Add(ctx, 1)
	cycleBlocks.Record(ctx, int64(refreshed))
	cycleDuration.Record(ctx, duration.Seconds())
}

func startPropagationSpan(ctx context.Context, cycle uuid.UUID) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Graph.Propagate",
		trace.WithAttributes(
			attribute.String("funblocks.cycle_id", cycle.String()),
		),
	)
}

func endPropagationSpan(span trace.Span, refreshed, invalidated int) {
	if span == nil {
		return
	}
	span.SetAttributes(
		attribute.Int("funblocks.refreshed", refreshed),
		attribute.Int("funblocks.invalidated", invalidated),
	)
	span.End()
}
