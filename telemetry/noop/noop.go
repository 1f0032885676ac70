// Copyright (c) 2026 julianocosta89 and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package noop provides span, metric and log exporters which discard everything.
package noop

import (
	"context"

	"github.com/julianocosta89/oteljavalab/builder"

	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// SpanExporter drops every span it's given.
type SpanExporter struct{}

// BuildSpanExporter returns a [builder.Builder] for a [SpanExporter].
func BuildSpanExporter() builder.BuilderFunc[SpanExporter] {
	return func(ctx context.Context) (SpanExporter, error) {
		return SpanExporter{}, nil
	}
}

// ExportSpans implements the [sdktrace.SpanExporter] interface.
func (SpanExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	return nil
}

// Shutdown implements the [sdktrace.SpanExporter] interface.
func (SpanExporter) Shutdown(ctx context.Context) error {
	return nil
}

// MetricExporter drops every collection it's given.
type MetricExporter struct{}

// BuildMetricExporter returns a [builder.Builder] for a [MetricExporter].
func BuildMetricExporter() builder.BuilderFunc[MetricExporter] {
	return func(ctx context.Context) (MetricExporter, error) {
		return MetricExporter{}, nil
	}
}

// Temporality implements the [sdkmetric.Exporter] interface.
func (MetricExporter) Temporality(kind sdkmetric.InstrumentKind) metricdata.Temporality {
	return sdkmetric.DefaultTemporalitySelector(kind)
}

// Aggregation implements the [sdkmetric.Exporter] interface.
func (MetricExporter) Aggregation(kind sdkmetric.InstrumentKind) sdkmetric.Aggregation {
	return sdkmetric.DefaultAggregationSelector(kind)
}

// Export implements the [sdkmetric.Exporter] interface.
func (MetricExporter) Export(ctx context.Context, rm *metricdata.ResourceMetrics) error {
	return nil
}

// ForceFlush implements the [sdkmetric.Exporter] interface.
func (MetricExporter) ForceFlush(ctx context.Context) error {
	return nil
}

// Shutdown implements the [sdkmetric.Exporter] interface.
func (MetricExporter) Shutdown(ctx context.Context) error {
	return nil
}

// LogExporter drops every record it's given.
type LogExporter struct{}

// BuildLogExporter returns a [builder.Builder] for a [LogExporter].
func BuildLogExporter() builder.BuilderFunc[LogExporter] {
	return func(ctx context.Context) (LogExporter, error) {
		return LogExporter{}, nil
	}
}

// Export implements the [sdklog.Exporter] interface.
func (LogExporter) Export(ctx context.Context, records []sdklog.Record) error {
	return nil
}

// ForceFlush implements the [sdklog.Exporter] interface.
func (LogExporter) ForceFlush(ctx context.Context) error {
	return nil
}

// Shutdown implements the [sdklog.Exporter] interface.
func (LogExporter) Shutdown(ctx context.Context) error {
	return nil
}
