// Copyright (c) 2026 julianocosta89 and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/julianocosta89/oteljavalab/builder"
	"github.com/julianocosta89/oteljavalab/config"
	"github.com/julianocosta89/oteljavalab/telemetry/breaker"
	"github.com/julianocosta89/oteljavalab/telemetry/exportmetrics"
	"github.com/julianocosta89/oteljavalab/telemetry/gcp"
	"github.com/julianocosta89/oteljavalab/telemetry/noop"
	"github.com/julianocosta89/oteljavalab/telemetry/otlp"
	"github.com/julianocosta89/oteljavalab/telemetry/stdout"

	"github.com/spf13/viper"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Exporter names accepted under the tracing.exporter, metrics.exporter
// and logs.exporter keys. Only spans can be sent to [ExporterGCP].
const (
	ExporterOTLPGrpc = "otlp-grpc"
	ExporterOTLPHttp = "otlp-http"
	ExporterStdout   = "stdout"
	ExporterGCP      = "gcp"
	ExporterNone     = "none"
)

// UnknownExporterError is returned when an exporter key names an
// exporter which isn't supported for its signal.
type UnknownExporterError struct {
	Signal string
	Name   string
}

func (e UnknownExporterError) Error() string {
	signal := e.Signal
	if signal == "" {
		signal = "span"
	}
	return fmt.Sprintf("app: unknown %s exporter: %q", signal, e.Name)
}

// buildSpanExporter selects the exporter named by tracing.exporter and,
// when tracing.breaker.enabled is set, guards it with a circuit breaker
// whose state is reported to o.exporterHealth. Exports are always counted
// in o.metrics.
func buildSpanExporter(v *viper.Viper, o *options) builder.Builder[sdktrace.SpanExporter] {
	return builder.BuilderFunc[sdktrace.SpanExporter](func(ctx context.Context) (sdktrace.SpanExporter, error) {
		name := config.MustOr(ctx, ExporterOTLPGrpc, config.Viper[string](v, "tracing.exporter"))

		exporterB, err := selectSpanExporter(v, name, o.telemetryOut)
		if err != nil {
			return nil, err
		}

		if config.MustOr(ctx, false, config.Viper[bool](v, "tracing.breaker.enabled")) {
			exporterB = asSpanExporter(breaker.BuildSpanExporter(
				exporterB,
				breaker.Name(name),
				breaker.TripAfter(config.Viper[uint32](v, "tracing.breaker.failures")),
				breaker.OpenTimeout(config.Viper[time.Duration](v, "tracing.breaker.timeout")),
				breaker.ReportTo(o.exporterHealth),
			))
		}

		return builder.MustBuild(ctx, exportmetrics.BuildSpanExporter(exporterB, o.metrics, name)), nil
	})
}

func selectSpanExporter(v *viper.Viper, name string, out io.Writer) (builder.Builder[sdktrace.SpanExporter], error) {
	allowInsecure := config.Viper[bool](v, "tracing.otlp.insecure")
	endpoint := config.Viper[string](v, "tracing.otlp.endpoint")

	switch name {
	case ExporterOTLPGrpc:
		return builder.BuilderFunc[sdktrace.SpanExporter](func(ctx context.Context) (sdktrace.SpanExporter, error) {
			if config.MustOr(ctx, "", endpoint) == "" {
				return builder.MustBuild(ctx, otlp.BuildDefaultGrpcSpanExporter()), nil
			}
			connB := otlp.BuildGrpcClientConn(endpoint, allowInsecure)
			return builder.MustBuild(ctx, otlp.BuildGrpcSpanExporter(connB)), nil
		}), nil
	case ExporterOTLPHttp:
		clientB := otlp.BuildRetryableHttpClient(
			otlp.MaxRetries(config.Viper[int](v, "tracing.otlp.http.retryMax")),
			otlp.MinWaitDuration(config.Viper[time.Duration](v, "tracing.otlp.http.retryWaitMin")),
			otlp.MaxWaitDuration(config.Viper[time.Duration](v, "tracing.otlp.http.retryWaitMax")),
		)
		return asSpanExporter(otlp.BuildHttpSpanExporter(endpoint, allowInsecure, clientB)), nil
	case ExporterStdout:
		return asSpanExporter(stdout.BuildSpanExporter(
			builder.BuilderOf(out),
			config.Viper[bool](v, "tracing.stdout.pretty"),
		)), nil
	case ExporterGCP:
		return asSpanExporter(gcp.BuildSpanExporter(config.Viper[string](v, "tracing.gcp.projectId"))), nil
	case ExporterNone:
		return asSpanExporter(noop.BuildSpanExporter()), nil
	default:
		return nil, UnknownExporterError{Signal: "span", Name: name}
	}
}

func asSpanExporter[E sdktrace.SpanExporter](b builder.Builder[E]) builder.Builder[sdktrace.SpanExporter] {
	return builder.Map(b, func(_ context.Context, e E) (sdktrace.SpanExporter, error) {
		return e, nil
	})
}
