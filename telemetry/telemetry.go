// Copyright (c) 2026 julianocosta89 and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package telemetry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/julianocosta89/oteljavalab/builder"
	"github.com/julianocosta89/oteljavalab/config"
	"github.com/julianocosta89/oteljavalab/internal/try"
	"github.com/julianocosta89/oteljavalab/telemetry/noop"
	"github.com/julianocosta89/oteljavalab/telemetry/otlp"
	"github.com/julianocosta89/oteljavalab/telemetry/subscriber"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// instrumentationName scopes the log records emitted by [Telemetry.Logger].
const instrumentationName = "github.com/julianocosta89/oteljavalab/telemetry"

// Telemetry owns the trace export pipeline of a process, along with the
// metric and log pipelines sharing its resource.
type Telemetry struct {
	propagator     propagation.TextMapPropagator
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	loggerProvider *sdklog.LoggerProvider
	resource       *resource.Resource
	logger         *slog.Logger
	exporter       *trackedExporter
}

// trackedExporter remembers the result of Shutdown, which the batch span
// processor only reports to the global error handler.
type trackedExporter struct {
	sdktrace.SpanExporter

	mu          sync.Mutex
	shutdownErr error
}

func (e *trackedExporter) Shutdown(ctx context.Context) error {
	err := e.SpanExporter.Shutdown(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.shutdownErr = err
	return err
}

func (e *trackedExporter) err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shutdownErr
}

// Tracer returns a named tracer from the owned tracer provider.
func (t *Telemetry) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	return t.tracerProvider.Tracer(name, opts...)
}

// TracerProvider returns the owned tracer provider.
func (t *Telemetry) TracerProvider() *sdktrace.TracerProvider {
	return t.tracerProvider
}

// Meter returns a named meter from the owned meter provider.
func (t *Telemetry) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	return t.meterProvider.Meter(name, opts...)
}

// MeterProvider returns the owned meter provider. Without a metric
// exporter it has no readers and every measurement is dropped.
func (t *Telemetry) MeterProvider() *sdkmetric.MeterProvider {
	return t.meterProvider
}

// LoggerProvider returns the owned logger provider. Without a log
// exporter it has no processors.
func (t *Telemetry) LoggerProvider() *sdklog.LoggerProvider {
	return t.loggerProvider
}

// Propagator returns the text map propagator used for context propagation.
func (t *Telemetry) Propagator() propagation.TextMapPropagator {
	return t.propagator
}

// Resource returns the resource attached to every span.
func (t *Telemetry) Resource() *resource.Resource {
	return t.resource
}

// Logger returns the logger whose records are forwarded to the active span
// and, when a log exporter is configured, to the logger provider.
func (t *Telemetry) Logger() *slog.Logger {
	return t.logger
}

// ForceFlush exports all ended spans, collected metrics and emitted log
// records which haven't been exported yet.
func (t *Telemetry) ForceFlush(ctx context.Context) error {
	return errors.Join(
		t.tracerProvider.ForceFlush(ctx),
		t.meterProvider.ForceFlush(ctx),
		t.loggerProvider.ForceFlush(ctx),
	)
}

// Shutdown flushes all pending telemetry and stops every pipeline,
// including the exporters. Calling Shutdown more than once is safe.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	err := t.tracerProvider.Shutdown(ctx)
	err = errors.Join(err, t.exporter.err())

	mpErr := t.meterProvider.Shutdown(ctx)
	if errors.Is(mpErr, sdkmetric.ErrReaderShutdown) {
		mpErr = nil
	}
	return errors.Join(err, mpErr, t.loggerProvider.Shutdown(ctx))
}

type options struct {
	propagator     builder.Builder[propagation.TextMapPropagator]
	resource       builder.Builder[*resource.Resource]
	sampler        builder.Builder[sdktrace.Sampler]
	exporter       builder.Builder[sdktrace.SpanExporter]
	batch          []BatchOption
	metricExporter builder.Builder[sdkmetric.Exporter]
	metricInterval config.Reader[time.Duration]
	logExporter    builder.Builder[sdklog.Exporter]
	logHandler     builder.Builder[slog.Handler]
	redactKeys     config.Reader[[]string]
	fallbackToNoop bool
}

// Option configures [New].
type Option func(*options)

// WithPropagator overrides the default W3C trace context propagator.
func WithPropagator[P propagation.TextMapPropagator](b builder.Builder[P]) Option {
	return func(o *options) {
		o.propagator = builder.Map(b, func(_ context.Context, p P) (propagation.TextMapPropagator, error) {
			return p, nil
		})
	}
}

// WithResource overrides the default detected resource.
func WithResource(b builder.Builder[*resource.Resource]) Option {
	return func(o *options) {
		o.resource = b
	}
}

// WithSampler overrides the default parent based, always on, sampler.
func WithSampler[S sdktrace.Sampler](b builder.Builder[S]) Option {
	return func(o *options) {
		o.sampler = builder.Map(b, func(_ context.Context, s S) (sdktrace.Sampler, error) {
			return s, nil
		})
	}
}

// WithSpanExporter overrides the default OTLP gRPC exporter.
func WithSpanExporter[E sdktrace.SpanExporter](b builder.Builder[E]) Option {
	return func(o *options) {
		o.exporter = builder.Map(b, func(_ context.Context, e E) (sdktrace.SpanExporter, error) {
			return e, nil
		})
	}
}

// WithBatchOptions configures the batch span processor.
func WithBatchOptions(opts ...BatchOption) Option {
	return func(o *options) {
		o.batch = append(o.batch, opts...)
	}
}

// WithMetricExporter enables the metric pipeline. Collected metrics are
// pushed to the exporter periodically.
func WithMetricExporter[E sdkmetric.Exporter](b builder.Builder[E]) Option {
	return func(o *options) {
		o.metricExporter = builder.Map(b, func(_ context.Context, e E) (sdkmetric.Exporter, error) {
			return e, nil
		})
	}
}

// MetricInterval sets how often metrics are collected and exported.
func MetricInterval(d config.Reader[time.Duration]) Option {
	return func(o *options) {
		o.metricInterval = d
	}
}

// WithLogExporter enables the log pipeline. Every record written through
// [Telemetry.Logger] is also emitted, in batches, to the exporter.
func WithLogExporter[E sdklog.Exporter](b builder.Builder[E]) Option {
	return func(o *options) {
		o.logExporter = builder.Map(b, func(_ context.Context, e E) (sdklog.Exporter, error) {
			return e, nil
		})
	}
}

// WithLogHandler sets the handler which log records are written to after
// being forwarded to the active span. It defaults to JSON on stderr.
func WithLogHandler[H slog.Handler](b builder.Builder[H]) Option {
	return func(o *options) {
		o.logHandler = builder.Map(b, func(_ context.Context, h H) (slog.Handler, error) {
			return h, nil
		})
	}
}

// RedactLogAttrs masks attributes with the given keys in both log output
// and span events.
func RedactLogAttrs(keys config.Reader[[]string]) Option {
	return func(o *options) {
		o.redactKeys = keys
	}
}

// FallbackToNoop makes [New] use exporters which discard everything when
// a configured exporter fails to build, instead of failing.
func FallbackToNoop() Option {
	return func(o *options) {
		o.fallbackToNoop = true
	}
}

func defaultOptions() *options {
	return &options{
		propagator: builder.BuilderOf[propagation.TextMapPropagator](propagation.TraceContext{}),
		resource:   BuildResource(config.EmptyReader[string](), config.EmptyReader[time.Duration]()),
		sampler:    BuildParentBasedSampler(builder.BuilderOf(sdktrace.AlwaysSample())),
		exporter: builder.Map(otlp.BuildDefaultGrpcSpanExporter(), func(_ context.Context, e *otlptrace.Exporter) (sdktrace.SpanExporter, error) {
			return e, nil
		}),
		logHandler: subscriber.BuildHandler(
			builder.BuilderOf[io.Writer](os.Stderr),
			config.EmptyReader[string](),
			config.EmptyReader[slog.Level](),
		),
	}
}

// Build returns a [builder.Builder] for a [Telemetry]. Any failure,
// including a panic in one of the component builders, is returned as a
// [PipelineBuildError].
func Build(opts ...Option) builder.Builder[*Telemetry] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	return builder.BuilderFunc[*Telemetry](func(ctx context.Context) (_ *Telemetry, err error) {
		defer func() {
			if err != nil {
				err = &PipelineBuildError{Cause: err}
			}
		}()
		defer try.Recover(&err)

		propagator := builder.MustBuild(ctx, o.propagator)
		res := builder.MustBuild(ctx, o.resource)
		sampler := builder.MustBuild(ctx, o.sampler)
		handler := builder.MustBuild(ctx, o.logHandler)
		redactKeys := config.MustOr(ctx, nil, o.redactKeys)
		logger := slog.New(subscriber.Redact(subscriber.NewHandler(handler), redactKeys...))

		exporter, err := buildOrFallback[sdktrace.SpanExporter](ctx, o, logger, "span", o.exporter, noop.SpanExporter{})
		if err != nil {
			return nil, err
		}

		mp := sdkmetric.NewMeterProvider(sdkmetric.WithResource(res))
		if o.metricExporter != nil {
			metricExporter, err := buildOrFallback[sdkmetric.Exporter](ctx, o, logger, "metric", o.metricExporter, noop.MetricExporter{})
			if err != nil {
				_ = exporter.Shutdown(ctx)
				return nil, err
			}
			mp = builder.MustBuild(ctx, BuildMeterProvider(
				builder.BuilderOf(res),
				BuildPeriodicReader(builder.BuilderOf(metricExporter), o.metricInterval),
			))
		}

		lp := sdklog.NewLoggerProvider(sdklog.WithResource(res))
		if o.logExporter != nil {
			logExporter, err := buildOrFallback[sdklog.Exporter](ctx, o, logger, "log", o.logExporter, noop.LogExporter{})
			if err != nil {
				_ = exporter.Shutdown(ctx)
				_ = mp.Shutdown(ctx)
				return nil, err
			}
			lp = builder.MustBuild(ctx, BuildLoggerProvider(
				builder.BuilderOf(res),
				BuildBatchLogProcessor(builder.BuilderOf(logExporter)),
			))
			logger = slog.New(subscriber.Redact(
				subscriber.NewHandler(handler, subscriber.EmitTo(lp.Logger(instrumentationName))),
				redactKeys...,
			))
		}

		tracked := &trackedExporter{SpanExporter: exporter}
		tp := builder.MustBuild(ctx, BuildTracerProvider(
			builder.BuilderOf(res),
			builder.BuilderOf(sampler),
			BuildBatchSpanProcessor(builder.BuilderOf(tracked), o.batch...),
		))

		return &Telemetry{
			propagator:     propagator,
			tracerProvider: tp,
			meterProvider:  mp,
			loggerProvider: lp,
			resource:       res,
			logger:         logger,
			exporter:       tracked,
		}, nil
	})
}

// buildOrFallback builds an exporter with b, recovering panics. If that
// fails and fallback is enabled, it logs a warning and returns fallback.
func buildOrFallback[E any](
	ctx context.Context,
	o *options,
	logger *slog.Logger,
	signal string,
	b builder.Builder[E],
	fallback E,
) (E, error) {
	e, err := builder.Recover(b).Build(ctx)
	if err == nil {
		return e, nil
	}
	if !o.fallbackToNoop {
		return e, err
	}
	logger.WarnContext(
		ctx,
		"failed to build "+signal+" exporter, "+signal+"s will be discarded",
		slog.String("signal", signal),
		slog.Any("error", err),
	)
	return fallback, nil
}

// New builds a [Telemetry]. See [Build] for the error semantics.
func New(ctx context.Context, opts ...Option) (*Telemetry, error) {
	return Build(opts...).Build(ctx)
}
