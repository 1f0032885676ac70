// Copyright (c) 2026 julianocosta89 and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package exportmetrics

import (
	"context"
	"errors"
	"testing"

	"github.com/julianocosta89/oteljavalab/builder"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type failingExporter struct {
	err error
}

func (e failingExporter) ExportSpans(context.Context, []sdktrace.ReadOnlySpan) error {
	return e.err
}

func (failingExporter) Shutdown(context.Context) error {
	return nil
}

func TestSpanExporter_ExportSpans(t *testing.T) {
	t.Run("will count exported spans as successful", func(t *testing.T) {
		t.Run("if the wrapped exporter succeeds", func(t *testing.T) {
			reg := prometheus.NewRegistry()
			inner := tracetest.NewInMemoryExporter()

			e, err := BuildSpanExporter(builder.BuilderOf(inner), reg, "memory").Build(context.Background())
			require.NoError(t, err)

			err = e.ExportSpans(context.Background(), tracetest.SpanStubs{{Name: "a"}, {Name: "b"}}.Snapshots())
			require.NoError(t, err)

			require.Len(t, inner.GetSpans(), 2)
			require.Equal(t, 2.0, testutil.ToFloat64(e.spans.WithLabelValues("memory", ResultSuccess)))
			require.Equal(t, 0.0, testutil.ToFloat64(e.spans.WithLabelValues("memory", ResultError)))
		})
	})

	t.Run("will count exported spans as failed", func(t *testing.T) {
		t.Run("if the wrapped exporter fails", func(t *testing.T) {
			reg := prometheus.NewRegistry()
			exportErr := errors.New("collector unavailable")

			e, err := BuildSpanExporter(
				builder.BuilderOf(failingExporter{err: exportErr}),
				reg,
				"otlp-grpc",
			).Build(context.Background())
			require.NoError(t, err)

			err = e.ExportSpans(context.Background(), tracetest.SpanStubs{{Name: "a"}}.Snapshots())
			require.ErrorIs(t, err, exportErr)

			require.Equal(t, 1.0, testutil.ToFloat64(e.spans.WithLabelValues("otlp-grpc", ResultError)))
		})
	})
}

func TestSpanExporter_Shutdown(t *testing.T) {
	t.Run("will count shutdowns", func(t *testing.T) {
		t.Run("every time it's called", func(t *testing.T) {
			reg := prometheus.NewRegistry()
			inner := tracetest.NewInMemoryExporter()

			e, err := BuildSpanExporter(builder.BuilderOf(inner), reg, "memory").Build(context.Background())
			require.NoError(t, err)

			require.NoError(t, e.Shutdown(context.Background()))
			require.NoError(t, e.Shutdown(context.Background()))
			require.Equal(t, 2.0, testutil.ToFloat64(e.shutdown))
		})
	})
}

func TestBuildSpanExporter(t *testing.T) {
	t.Run("will register its metrics", func(t *testing.T) {
		t.Run("with the given registry", func(t *testing.T) {
			reg := prometheus.NewRegistry()

			e, err := BuildSpanExporter(builder.BuilderOf(tracetest.NewNoopExporter()), reg, "noop").Build(context.Background())
			require.NoError(t, err)

			err = e.ExportSpans(context.Background(), tracetest.SpanStubs{{Name: "a"}}.Snapshots())
			require.NoError(t, err)

			n, err := testutil.GatherAndCount(reg, "span_exporter_spans_total", "span_exporter_export_duration_seconds")
			require.NoError(t, err)
			require.Equal(t, 2, n)
		})
	})
}
