// Copyright (c) 2026 julianocosta89 and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package exportmetrics counts span exports with Prometheus metrics.
package exportmetrics

import (
	"context"
	"time"

	"github.com/julianocosta89/oteljavalab/builder"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Namespace prefixes every metric name.
const Namespace = "span_exporter"

// Values of the result label.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// SpanExporter records how many spans the wrapped exporter handled and
// how long each export took, labelled by exporter name and result.
type SpanExporter struct {
	exporter sdktrace.SpanExporter
	name     string

	spans    *prometheus.CounterVec
	exports  *prometheus.HistogramVec
	shutdown prometheus.Counter
}

// BuildSpanExporter wraps the exporter built by exporterB. Metrics are
// registered with reg, so it panics if reg already holds them.
func BuildSpanExporter[E sdktrace.SpanExporter](
	exporterB builder.Builder[E],
	reg prometheus.Registerer,
	name string,
) builder.BuilderFunc[*SpanExporter] {
	return func(ctx context.Context) (*SpanExporter, error) {
		factory := promauto.With(reg)

		return &SpanExporter{
			exporter: builder.MustBuild(ctx, exporterB),
			name:     name,
			spans: factory.NewCounterVec(prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "spans_total",
				Help:      "Number of spans handed to the exporter.",
			}, []string{"exporter", "result"}),
			exports: factory.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "export_duration_seconds",
				Help:      "Duration of span exports.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"exporter", "result"}),
			shutdown: factory.NewCounter(prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "shutdowns_total",
				Help:      "Number of times the exporter was shut down.",
			}),
		}, nil
	}
}

// ExportSpans implements the [sdktrace.SpanExporter] interface.
func (e *SpanExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	start := time.Now()
	err := e.exporter.ExportSpans(ctx, spans)

	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	e.spans.WithLabelValues(e.name, result).Add(float64(len(spans)))
	e.exports.WithLabelValues(e.name, result).Observe(time.Since(start).Seconds())
	return err
}

// Shutdown implements the [sdktrace.SpanExporter] interface.
func (e *SpanExporter) Shutdown(ctx context.Context) error {
	e.shutdown.Inc()
	return e.exporter.Shutdown(ctx)
}

// Unwrap returns the wrapped exporter.
func (e *SpanExporter) Unwrap() sdktrace.SpanExporter {
	return e.exporter
}
