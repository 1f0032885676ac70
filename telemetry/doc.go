// Copyright (c) 2026 julianocosta89 and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package telemetry sets up process-wide distributed tracing.
//
// A [Telemetry] owns everything needed to trace the process: the text map
// propagator, a tracer provider which batches spans to a [sdktrace.SpanExporter],
// the resource describing the process and a [slog.Logger] which forwards
// log records to the active span. It's built by [New] and made the process
// default by [Install]. Installation happens at most once per process; later
// attempts fail with [ErrGlobalDefaultAlreadySet] and leave the installed
// [Telemetry] in place.
//
// Metrics and log records are opt in through [WithMetricExporter] and
// [WithLogExporter]. Their providers share the resource of the tracer
// provider and are installed and shut down along with it.
//
// [InitTracer] does both with the defaults: W3C trace context propagation,
// resource detection without waiting on slow lookups, and a batching OTLP
// gRPC exporter configured by the standard OTEL_* environment variables.
package telemetry
