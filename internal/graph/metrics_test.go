package graph

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

var (
	spanRecorder *tracetest.SpanRecorder
	metricReader *sdkmetric.ManualReader
)

func TestMain(m *testing.M) {
	spanRecorder = tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spanRecorder))
	metricReader = sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(metricReader))
	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)

	code := m.Run()

	_ = tp.Shutdown(context.Background())
	_ = mp.Shutdown(context.Background())
	os.Exit(code)
}

func TestPropagationSpan(t *testing.T) {
	g := newTestGraph(t)
	v, _ := g.AddValue(g.Root(), tInt, "1")
	neg, _ := g.AddFunction(g.Root(), "negate")
	mustConnect(t, g, out(v, 0), in(neg, 0))

	before := len(spanRecorder.Ended())
	g.Commit()
	spans := spanRecorder.Ended()[before:]
	require.Len(t, spans, 1, "nested edits share one cycle")

	span := spans[0]
	assert.Equal(t, "Graph.Propagate", span.Name())
	attrs := map[string]bool{}
	for _, kv := range span.Attributes() {
		attrs[string(kv.Key)] = true
	}
	assert.True(t, attrs["funblocks.cycle_id"])
	assert.True(t, attrs["funblocks.refreshed"])
	assert.True(t, attrs["funblocks.invalidated"])
}

func TestPropagationMetrics(t *testing.T) {
	g := newTestGraph(t)
	squareMap(t, g)

	var rm metricdata.ResourceMetrics
	require.NoError(t, metricReader.Collect(context.Background(), &rm))

	seen := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		if sm.Scope.Name != "funblocks.graph" {
			continue
		}
		for _, m := range sm.Metrics {
			seen[m.Name] = true
			if m.Name == "funblocks.propagation.cycles" {
				sum, ok := m.Data.(metricdata.Sum[int64])
				require.True(t, ok)
				require.NotEmpty(t, sum.DataPoints)
				assert.Positive(t, sum.DataPoints[0].Value)
			}
		}
	}
	assert.True(t, seen["funblocks.propagation.cycles"])
	assert.True(t, seen["funblocks.propagation.blocks"])
	assert.True(t, seen["funblocks.propagation.duration"])
}
