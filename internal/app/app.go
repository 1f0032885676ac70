// Copyright (c) 2026 julianocosta89 and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package app wires the data processing service together from configuration.
package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/julianocosta89/oteljavalab/builder"
	"github.com/julianocosta89/oteljavalab/config"
	"github.com/julianocosta89/oteljavalab/internal/health"
	"github.com/julianocosta89/oteljavalab/internal/processing"
	"github.com/julianocosta89/oteljavalab/telemetry"
	"github.com/julianocosta89/oteljavalab/telemetry/detect"
	"github.com/julianocosta89/oteljavalab/telemetry/subscriber"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultServiceName is reported as service.name unless configured otherwise.
const DefaultServiceName = "data-processing"

type options struct {
	logOut         io.Writer
	telemetryOut   io.Writer
	registry       *telemetry.Registry
	exporterHealth *health.Binary
	metrics        *prometheus.Registry
}

// Option configures [Build].
type Option func(*options)

// LogOutput sets where log records are written. It defaults to stderr.
func LogOutput(w io.Writer) Option {
	return func(o *options) {
		o.logOut = w
	}
}

// TelemetryOutput sets where the stdout exporters write spans, metrics and
// log records. It defaults to stdout.
func TelemetryOutput(w io.Writer) Option {
	return func(o *options) {
		o.telemetryOut = w
	}
}

// InstallInto installs the telemetry into r instead of the process wide registry.
func InstallInto(r *telemetry.Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

// BuildTelemetry builds the tracing pipeline described by v, plus the
// metric and log pipelines when metrics.exporter or logs.exporter is set.
func BuildTelemetry(v *viper.Viper, opts ...Option) builder.Builder[*telemetry.Telemetry] {
	o := newOptions(opts...)

	return builder.BuilderFunc[*telemetry.Telemetry](func(ctx context.Context) (*telemetry.Telemetry, error) {
		var platform []detect.Detector
		if config.MustOr(ctx, false, config.Viper[bool](v, "tracing.resource.gcp")) {
			platform = append(platform, detect.GCP())
		}

		telOpts := []telemetry.Option{
			telemetry.WithResource(telemetry.BuildResource(
				config.Default(DefaultServiceName, config.Viper[string](v, "service.name")),
				config.Viper[time.Duration](v, "tracing.resource.detectTimeout"),
				platform...,
			)),
			telemetry.WithSampler(telemetry.BuildParentBasedSampler(
				telemetry.BuildTraceIDRatioBasedSampler(
					config.Default(1.0, config.Viper[float64](v, "tracing.sampler.ratio")),
				),
			)),
			telemetry.WithSpanExporter(buildSpanExporter(v, o)),
			telemetry.WithBatchOptions(
				telemetry.BatchTimeout(config.Viper[time.Duration](v, "tracing.batch.timeout")),
				telemetry.ExportTimeout(config.Viper[time.Duration](v, "tracing.batch.exportTimeout")),
				telemetry.MaxQueueSize(config.Viper[int](v, "tracing.batch.maxQueueSize")),
				telemetry.MaxExportBatchSize(config.Viper[int](v, "tracing.batch.maxExportBatchSize")),
			),
			telemetry.WithLogHandler(subscriber.BuildHandler(
				builder.BuilderOf(o.logOut),
				config.Viper[string](v, "logging.format"),
				config.Viper[slog.Level](v, "logging.level"),
			)),
			telemetry.RedactLogAttrs(config.Viper[[]string](v, "logging.redact")),
		}
		if metricsEnabled(ctx, v) {
			telOpts = append(
				telOpts,
				telemetry.WithMetricExporter(buildMetricExporter(v, o)),
				telemetry.MetricInterval(config.Viper[time.Duration](v, "metrics.interval")),
			)
		}
		if logsEnabled(ctx, v) {
			telOpts = append(telOpts, telemetry.WithLogExporter(buildLogExporter(v, o)))
		}
		if config.MustOr(ctx, false, config.Viper[bool](v, "tracing.fallbackToNoop")) {
			telOpts = append(telOpts, telemetry.FallbackToNoop())
		}

		return telemetry.New(ctx, telOpts...)
	})
}

// Build builds the service runtime. The HTTP and gRPC servers run side by
// side and the telemetry is installed for as long as they run.
func Build(v *viper.Viper, opts ...Option) builder.Builder[telemetry.Runtime[builder.MultiRuntime]] {
	o := newOptions(opts...)
	telB := builder.MemoizeBuilder(BuildTelemetry(v, append(opts[:len(opts):len(opts)], shareWith(o))...))

	httpB := builder.Bind(telB, func(tel *telemetry.Telemetry) builder.Builder[builder.Runtime] {
		return asRuntime(BuildHTTPRuntime(
			BuildTCPListener(config.Default(":8080", config.Viper[string](v, "http.addr"))),
			builder.BuilderOf(newHandler(tel, o)),
			ReadTimeout(config.Viper[time.Duration](v, "http.readTimeout")),
			WriteTimeout(config.Viper[time.Duration](v, "http.writeTimeout")),
		))
	})

	grpcB := builder.Bind(telB, func(tel *telemetry.Telemetry) builder.Builder[builder.Runtime] {
		return asRuntime(BuildGRPCRuntime(
			BuildTCPListener(config.Default(":9090", config.Viper[string](v, "grpc.addr"))),
			DefaultServiceName,
			otelgrpc.WithTracerProvider(tel.TracerProvider()),
			otelgrpc.WithMeterProvider(tel.MeterProvider()),
			otelgrpc.WithPropagators(tel.Propagator()),
		))
	})

	var rtOpts []telemetry.RuntimeOption
	if o.registry != nil {
		rtOpts = append(rtOpts, telemetry.InstallInto(o.registry))
	}
	return telemetry.BuildRuntime(telB, builder.BuildMultiRuntime(httpB, grpcB), rtOpts...)
}

func newHandler(tel *telemetry.Telemetry, o *options) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/process", processing.NewHandler(tel.Logger(), processing.WithMeterProvider(tel.MeterProvider())))
	mux.Handle("/health/liveness", health.NewHandler(health.And()))
	mux.Handle("/health/readiness", health.NewHandler(health.And(o.exporterHealth)))
	mux.Handle("/metrics", promhttp.HandlerFor(o.metrics, promhttp.HandlerOpts{}))

	return otelhttp.NewHandler(
		mux,
		DefaultServiceName,
		otelhttp.WithTracerProvider(tel.TracerProvider()),
		otelhttp.WithMeterProvider(tel.MeterProvider()),
		otelhttp.WithPropagators(tel.Propagator()),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

// shareWith makes the telemetry report into the same health metric and
// registry the HTTP handler serves.
func shareWith(shared *options) Option {
	return func(o *options) {
		o.exporterHealth = shared.exporterHealth
		o.metrics = shared.metrics
	}
}

func newOptions(opts ...Option) *options {
	o := &options{
		logOut:         os.Stderr,
		telemetryOut:   os.Stdout,
		exporterHealth: &health.Binary{},
		metrics:        prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func asRuntime[R builder.Runtime](b builder.Builder[R]) builder.Builder[builder.Runtime] {
	return builder.Map(b, func(_ context.Context, rt R) (builder.Runtime, error) {
		return rt, nil
	})
}
