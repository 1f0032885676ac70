// Copyright (c) 2026 julianocosta89 and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package app

import (
	"context"
	"io"
	"time"

	"github.com/julianocosta89/oteljavalab/builder"
	"github.com/julianocosta89/oteljavalab/config"
	"github.com/julianocosta89/oteljavalab/telemetry/noop"
	"github.com/julianocosta89/oteljavalab/telemetry/otlp"
	"github.com/julianocosta89/oteljavalab/telemetry/stdout"

	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// otlpTarget reads the collector settings of a signal, falling back to
// the ones configured for spans.
type otlpTarget struct {
	endpoint      config.Reader[string]
	allowInsecure config.Reader[bool]
	http          []otlp.RetryOption
}

func readOTLPTarget(v *viper.Viper, signal string) otlpTarget {
	return otlpTarget{
		endpoint: config.Or(
			config.Viper[string](v, signal+".otlp.endpoint"),
			config.Viper[string](v, "tracing.otlp.endpoint"),
		),
		allowInsecure: config.Or(
			config.Viper[bool](v, signal+".otlp.insecure"),
			config.Viper[bool](v, "tracing.otlp.insecure"),
		),
		http: []otlp.RetryOption{
			otlp.MaxRetries(config.Viper[int](v, "tracing.otlp.http.retryMax")),
			otlp.MinWaitDuration(config.Viper[time.Duration](v, "tracing.otlp.http.retryWaitMin")),
			otlp.MaxWaitDuration(config.Viper[time.Duration](v, "tracing.otlp.http.retryWaitMax")),
		},
	}
}

// metricsEnabled reports whether metrics.exporter names an exporter other
// than none, which is the default.
func metricsEnabled(ctx context.Context, v *viper.Viper) bool {
	return config.MustOr(ctx, ExporterNone, config.Viper[string](v, "metrics.exporter")) != ExporterNone
}

// logsEnabled reports whether logs.exporter names an exporter other than
// none, which is the default.
func logsEnabled(ctx context.Context, v *viper.Viper) bool {
	return config.MustOr(ctx, ExporterNone, config.Viper[string](v, "logs.exporter")) != ExporterNone
}

// buildMetricExporter selects the exporter named by metrics.exporter.
func buildMetricExporter(v *viper.Viper, o *options) builder.Builder[sdkmetric.Exporter] {
	return builder.BuilderFunc[sdkmetric.Exporter](func(ctx context.Context) (sdkmetric.Exporter, error) {
		name := config.MustOr(ctx, ExporterNone, config.Viper[string](v, "metrics.exporter"))

		exporterB, err := selectMetricExporter(v, name, o.telemetryOut)
		if err != nil {
			return nil, err
		}
		return builder.MustBuild(ctx, exporterB), nil
	})
}

func selectMetricExporter(v *viper.Viper, name string, out io.Writer) (builder.Builder[sdkmetric.Exporter], error) {
	target := readOTLPTarget(v, "metrics")

	switch name {
	case ExporterOTLPGrpc:
		return builder.BuilderFunc[sdkmetric.Exporter](func(ctx context.Context) (sdkmetric.Exporter, error) {
			if config.MustOr(ctx, "", target.endpoint) == "" {
				return builder.MustBuild(ctx, otlp.BuildDefaultGrpcMetricExporter()), nil
			}
			connB := otlp.BuildGrpcClientConn(target.endpoint, target.allowInsecure)
			return builder.MustBuild(ctx, otlp.BuildGrpcMetricExporter(connB)), nil
		}), nil
	case ExporterOTLPHttp:
		clientB := otlp.BuildRetryableHttpClient(target.http...)
		return asMetricExporter(otlp.BuildHttpMetricExporter(target.endpoint, target.allowInsecure, clientB)), nil
	case ExporterStdout:
		return stdout.BuildMetricExporter(
			builder.BuilderOf(out),
			config.Viper[bool](v, "metrics.stdout.pretty"),
		), nil
	case ExporterNone:
		return asMetricExporter(noop.BuildMetricExporter()), nil
	default:
		return nil, UnknownExporterError{Signal: "metric", Name: name}
	}
}

// buildLogExporter selects the exporter named by logs.exporter.
func buildLogExporter(v *viper.Viper, o *options) builder.Builder[sdklog.Exporter] {
	return builder.BuilderFunc[sdklog.Exporter](func(ctx context.Context) (sdklog.Exporter, error) {
		name := config.MustOr(ctx, ExporterNone, config.Viper[string](v, "logs.exporter"))

		exporterB, err := selectLogExporter(v, name, o.telemetryOut)
		if err != nil {
			return nil, err
		}
		return builder.MustBuild(ctx, exporterB), nil
	})
}

func selectLogExporter(v *viper.Viper, name string, out io.Writer) (builder.Builder[sdklog.Exporter], error) {
	target := readOTLPTarget(v, "logs")

	switch name {
	case ExporterOTLPGrpc:
		return builder.BuilderFunc[sdklog.Exporter](func(ctx context.Context) (sdklog.Exporter, error) {
			if config.MustOr(ctx, "", target.endpoint) == "" {
				return builder.MustBuild(ctx, otlp.BuildDefaultGrpcLogExporter()), nil
			}
			connB := otlp.BuildGrpcClientConn(target.endpoint, target.allowInsecure)
			return builder.MustBuild(ctx, otlp.BuildGrpcLogExporter(connB)), nil
		}), nil
	case ExporterOTLPHttp:
		clientB := otlp.BuildRetryableHttpClient(target.http...)
		return asLogExporter(otlp.BuildHttpLogExporter(target.endpoint, target.allowInsecure, clientB)), nil
	case ExporterStdout:
		return asLogExporter(stdout.BuildLogExporter(
			builder.BuilderOf(out),
			config.Viper[bool](v, "logs.stdout.pretty"),
		)), nil
	case ExporterNone:
		return asLogExporter(noop.BuildLogExporter()), nil
	default:
		return nil, UnknownExporterError{Signal: "log", Name: name}
	}
}

func asMetricExporter[E sdkmetric.Exporter](b builder.Builder[E]) builder.Builder[sdkmetric.Exporter] {
	return builder.Map(b, func(_ context.Context, e E) (sdkmetric.Exporter, error) {
		return e, nil
	})
}

func asLogExporter[E sdklog.Exporter](b builder.Builder[E]) builder.Builder[sdklog.Exporter] {
	return builder.Map(b, func(_ context.Context, e E) (sdklog.Exporter, error) {
		return e, nil
	})
}
