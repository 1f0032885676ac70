// Copyright (c) 2026 julianocosta89 and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package app

import (
	"context"
	"io"
	"testing"

	"github.com/julianocosta89/oteljavalab/builder"
	"github.com/julianocosta89/oteljavalab/telemetry"
	"github.com/julianocosta89/oteljavalab/telemetry/noop"
	"github.com/julianocosta89/oteljavalab/telemetry/otlp"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
)

func TestBuildMetricExporter(t *testing.T) {
	t.Run("will build the named exporter", func(t *testing.T) {
		t.Run("if it's otlp-http", func(t *testing.T) {
			v := newViper(t, map[string]any{
				"metrics.exporter":      ExporterOTLPHttp,
				"tracing.otlp.endpoint": "localhost:4318",
				"tracing.otlp.insecure": true,
			})

			exporter, err := builder.Recover(buildMetricExporter(v, newOptions())).Build(context.Background())
			require.NoError(t, err)
			defer exporter.Shutdown(context.Background())

			require.IsType(t, &otlpmetrichttp.Exporter{}, exporter)
		})

		t.Run("if it's otlp-grpc with an endpoint", func(t *testing.T) {
			v := newViper(t, map[string]any{
				"metrics.exporter":      ExporterOTLPGrpc,
				"metrics.otlp.endpoint": "localhost:4317",
				"metrics.otlp.insecure": true,
			})

			exporter, err := builder.Recover(buildMetricExporter(v, newOptions())).Build(context.Background())
			require.NoError(t, err)
			defer exporter.Shutdown(context.Background())

			require.IsType(t, &otlp.GrpcMetricExporter{}, exporter)
		})

		t.Run("if it's none", func(t *testing.T) {
			v := newViper(t, map[string]any{"metrics.exporter": ExporterNone})

			exporter, err := builder.Recover(buildMetricExporter(v, newOptions())).Build(context.Background())
			require.NoError(t, err)
			require.IsType(t, noop.MetricExporter{}, exporter)
		})
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the exporter is unknown", func(t *testing.T) {
			v := newViper(t, map[string]any{"metrics.exporter": "prometheus"})

			_, err := builder.Recover(buildMetricExporter(v, newOptions())).Build(context.Background())

			var uerr UnknownExporterError
			require.ErrorAs(t, err, &uerr)
			require.Equal(t, "metric", uerr.Signal)
			require.Equal(t, "prometheus", uerr.Name)
		})

		t.Run("if gcp is named", func(t *testing.T) {
			v := newViper(t, map[string]any{"metrics.exporter": ExporterGCP})

			_, err := builder.Recover(buildMetricExporter(v, newOptions())).Build(context.Background())

			var uerr UnknownExporterError
			require.ErrorAs(t, err, &uerr)
			require.EqualError(t, uerr, `app: unknown metric exporter: "gcp"`)
		})
	})
}

func TestBuildLogExporter(t *testing.T) {
	t.Run("will build the named exporter", func(t *testing.T) {
		t.Run("if it's stdout", func(t *testing.T) {
			v := newViper(t, map[string]any{"logs.exporter": ExporterStdout})

			exporter, err := builder.Recover(buildLogExporter(v, newOptions(TelemetryOutput(io.Discard)))).Build(context.Background())
			require.NoError(t, err)
			require.IsType(t, &stdoutlog.Exporter{}, exporter)
		})

		t.Run("if it's otlp-http", func(t *testing.T) {
			v := newViper(t, map[string]any{
				"logs.exporter":      ExporterOTLPHttp,
				"logs.otlp.endpoint": "localhost:4318",
			})

			exporter, err := builder.Recover(buildLogExporter(v, newOptions())).Build(context.Background())
			require.NoError(t, err)
			defer exporter.Shutdown(context.Background())

			require.IsType(t, &otlploghttp.Exporter{}, exporter)
		})

		t.Run("if it's otlp-grpc with an endpoint", func(t *testing.T) {
			v := newViper(t, map[string]any{
				"logs.exporter":         ExporterOTLPGrpc,
				"tracing.otlp.endpoint": "localhost:4317",
				"tracing.otlp.insecure": true,
			})

			exporter, err := builder.Recover(buildLogExporter(v, newOptions())).Build(context.Background())
			require.NoError(t, err)
			defer exporter.Shutdown(context.Background())

			require.IsType(t, &otlp.GrpcLogExporter{}, exporter)
		})
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the exporter is unknown", func(t *testing.T) {
			v := newViper(t, map[string]any{"logs.exporter": "loki"})

			_, err := builder.Recover(buildLogExporter(v, newOptions())).Build(context.Background())

			var uerr UnknownExporterError
			require.ErrorAs(t, err, &uerr)
			require.Equal(t, "log", uerr.Signal)
		})
	})
}

func TestBuildTelemetry_signals(t *testing.T) {
	t.Run("will return a PipelineBuildError", func(t *testing.T) {
		t.Run("if the metric exporter is unknown", func(t *testing.T) {
			v := newViper(t, map[string]any{
				"tracing.exporter": ExporterNone,
				"metrics.exporter": "statsd",
			})

			_, err := BuildTelemetry(v, LogOutput(io.Discard)).Build(context.Background())

			var perr *telemetry.PipelineBuildError
			require.ErrorAs(t, err, &perr)

			var uerr UnknownExporterError
			require.ErrorAs(t, err, &uerr)
		})
	})

	t.Run("will fall back to discarding log records", func(t *testing.T) {
		t.Run("if the log exporter is unknown and fallback is enabled", func(t *testing.T) {
			v := newViper(t, map[string]any{
				"tracing.exporter":       ExporterNone,
				"tracing.fallbackToNoop": true,
				"logs.exporter":          "loki",
			})

			tel, err := BuildTelemetry(v, LogOutput(io.Discard)).Build(context.Background())
			require.NoError(t, err)
			require.NoError(t, tel.Shutdown(context.Background()))
		})
	})
}
