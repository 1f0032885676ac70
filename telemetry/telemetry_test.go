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
	"sync/atomic"
	"testing"
	"time"

	"github.com/julianocosta89/oteljavalab/builder"
	"github.com/julianocosta89/oteljavalab/config"
	"github.com/julianocosta89/oteljavalab/internal/try"
	"github.com/julianocosta89/oteljavalab/telemetry/noop"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// mockExporter tracks shutdown calls for testing
type mockExporter struct {
	tracetest.InMemoryExporter
	shutdownCalled atomic.Bool
	shutdownErr    error
}

func (m *mockExporter) Shutdown(ctx context.Context) error {
	m.shutdownCalled.Store(true)
	return m.shutdownErr
}

type metricNamesExporter struct {
	noop.MetricExporter

	names chan string
}

func (e *metricNamesExporter) Export(ctx context.Context, rm *metricdata.ResourceMetrics) error {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			select {
			case e.names <- m.Name:
			default:
			}
		}
	}
	return nil
}

type logRecordsExporter struct {
	noop.LogExporter

	records chan sdklog.Record
}

func (e *logRecordsExporter) Export(ctx context.Context, records []sdklog.Record) error {
	for _, r := range records {
		select {
		case e.records <- r.Clone():
		default:
		}
	}
	return nil
}

func discardLogs() Option {
	return WithLogHandler(builder.BuilderOf(slog.NewTextHandler(io.Discard, nil)))
}

func testResource() Option {
	return WithResource(builder.BuilderOf(resource.NewSchemaless(semconv.ServiceName("telemetry-test"))))
}

func newTestTelemetry(t *testing.T, exporter sdktrace.SpanExporter, opts ...Option) *Telemetry {
	t.Helper()

	opts = append([]Option{
		WithSpanExporter(builder.BuilderOf(exporter)),
		discardLogs(),
		testResource(),
	}, opts...)

	tel, err := New(context.Background(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = tel.Shutdown(context.Background())
	})
	return tel
}

func TestNew(t *testing.T) {
	t.Run("will export ended spans", func(t *testing.T) {
		t.Run("if they are flushed", func(t *testing.T) {
			exporter := tracetest.NewInMemoryExporter()
			tel := newTestTelemetry(
				t,
				exporter,
				WithBatchOptions(
					BatchTimeout(config.ReaderOf(10*time.Millisecond)),
					MaxExportBatchSize(config.ReaderOf(8)),
				),
			)

			_, span := tel.Tracer("telemetry").Start(context.Background(), "process")
			span.End()

			err := tel.ForceFlush(context.Background())
			require.NoError(t, err)

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			require.Equal(t, "process", spans[0].Name)

			name, ok := spans[0].Resource.Set().Value(semconv.ServiceNameKey)
			require.True(t, ok)
			require.Equal(t, "telemetry-test", name.AsString())
		})
	})

	t.Run("will record log records as span events", func(t *testing.T) {
		t.Run("if they are logged within a span", func(t *testing.T) {
			exporter := tracetest.NewInMemoryExporter()
			tel := newTestTelemetry(t, exporter)

			ctx, span := tel.Tracer("telemetry").Start(context.Background(), "process")
			tel.Logger().InfoContext(ctx, "processing", slog.Int("items", 2))
			span.End()

			err := tel.ForceFlush(context.Background())
			require.NoError(t, err)

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			require.Len(t, spans[0].Events, 1)
			require.Equal(t, "processing", spans[0].Events[0].Name)
			require.Contains(t, spans[0].Events[0].Attributes, attribute.Int64("items", 2))
		})
	})

	t.Run("will redact log attributes", func(t *testing.T) {
		t.Run("if redaction keys are configured", func(t *testing.T) {
			exporter := tracetest.NewInMemoryExporter()
			tel := newTestTelemetry(t, exporter, RedactLogAttrs(config.ReaderOf([]string{"token"})))

			ctx, span := tel.Tracer("telemetry").Start(context.Background(), "process")
			tel.Logger().InfoContext(ctx, "authenticated", slog.String("token", "abc123"))
			span.End()

			err := tel.ForceFlush(context.Background())
			require.NoError(t, err)

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			require.Len(t, spans[0].Events, 1)
			require.Contains(t, spans[0].Events[0].Attributes, attribute.String("token", "****"))
		})
	})

	t.Run("will export recorded metrics", func(t *testing.T) {
		t.Run("if a metric exporter is configured", func(t *testing.T) {
			metrics := &metricNamesExporter{names: make(chan string, 8)}
			tel := newTestTelemetry(
				t,
				tracetest.NewNoopExporter(),
				WithMetricExporter(builder.BuilderOf(metrics)),
				MetricInterval(config.ReaderOf(time.Hour)),
			)

			counter, err := tel.Meter("telemetry").Int64Counter("processing.batches")
			require.NoError(t, err)
			counter.Add(context.Background(), 1)

			err = tel.ForceFlush(context.Background())
			require.NoError(t, err)
			require.Equal(t, "processing.batches", <-metrics.names)
		})
	})

	t.Run("will emit log records", func(t *testing.T) {
		t.Run("if a log exporter is configured", func(t *testing.T) {
			logs := &logRecordsExporter{records: make(chan sdklog.Record, 8)}
			tel := newTestTelemetry(
				t,
				tracetest.NewNoopExporter(),
				WithLogExporter(builder.BuilderOf(logs)),
				RedactLogAttrs(config.ReaderOf([]string{"token"})),
			)

			ctx, span := tel.Tracer("telemetry").Start(context.Background(), "process")
			tel.Logger().WarnContext(ctx, "authenticated", slog.String("token", "abc123"))
			span.End()

			err := tel.ForceFlush(context.Background())
			require.NoError(t, err)

			r := <-logs.records
			require.Equal(t, "authenticated", r.Body().AsString())
			require.Equal(t, log.SeverityWarn, r.Severity())
			require.Equal(t, span.SpanContext().TraceID(), r.TraceID())

			name, ok := r.Resource().Set().Value(semconv.ServiceNameKey)
			require.True(t, ok)
			require.Equal(t, "telemetry-test", name.AsString())

			var token string
			r.WalkAttributes(func(kv log.KeyValue) bool {
				if kv.Key == "token" {
					token = kv.Value.AsString()
				}
				return true
			})
			require.Equal(t, "****", token)
		})
	})

	t.Run("will use w3c trace context propagation", func(t *testing.T) {
		t.Run("if no propagator is configured", func(t *testing.T) {
			tel := newTestTelemetry(t, tracetest.NewNoopExporter())

			require.Equal(t, []string{"traceparent", "tracestate"}, tel.Propagator().Fields())
		})
	})

	t.Run("will detect the resource", func(t *testing.T) {
		t.Run("if no resource is configured", func(t *testing.T) {
			t.Setenv("OTEL_SERVICE_NAME", "detected-service")

			tel, err := New(
				context.Background(),
				WithSpanExporter(builder.BuilderOf(tracetest.NewNoopExporter())),
				discardLogs(),
			)
			require.NoError(t, err)
			defer tel.Shutdown(context.Background())

			name, ok := tel.Resource().Set().Value(semconv.ServiceNameKey)
			require.True(t, ok)
			require.Equal(t, "detected-service", name.AsString())

			_, ok = tel.Resource().Set().Value(semconv.TelemetrySDKNameKey)
			require.True(t, ok)
		})
	})

	t.Run("will return a PipelineBuildError", func(t *testing.T) {
		t.Run("if the exporter fails to build", func(t *testing.T) {
			buildErr := errors.New("failed to build exporter")

			_, err := New(
				context.Background(),
				WithSpanExporter(builder.BuilderFunc[*tracetest.InMemoryExporter](func(ctx context.Context) (*tracetest.InMemoryExporter, error) {
					return nil, buildErr
				})),
				discardLogs(),
				testResource(),
			)

			var perr *PipelineBuildError
			require.ErrorAs(t, err, &perr)
			require.ErrorIs(t, err, buildErr)
		})

		t.Run("if a builder panics", func(t *testing.T) {
			panicErr := errors.New("no sampler for you")

			_, err := New(
				context.Background(),
				WithSpanExporter(builder.BuilderOf(tracetest.NewNoopExporter())),
				WithSampler(builder.BuilderFunc[sdktrace.Sampler](func(ctx context.Context) (sdktrace.Sampler, error) {
					panic(panicErr)
				})),
				discardLogs(),
				testResource(),
			)

			var perr *PipelineBuildError
			require.ErrorAs(t, err, &perr)

			var panicked try.PanicError
			require.ErrorAs(t, err, &panicked)
			require.ErrorIs(t, err, panicErr)
		})

		t.Run("if a required config value is missing", func(t *testing.T) {
			_, err := New(
				context.Background(),
				WithSpanExporter(builder.BuilderOf(tracetest.NewNoopExporter())),
				WithSampler(BuildTraceIDRatioBasedSampler(config.EmptyReader[float64]())),
				discardLogs(),
				testResource(),
			)

			var perr *PipelineBuildError
			require.ErrorAs(t, err, &perr)
			require.ErrorIs(t, err, config.ErrValueNotSet)
		})

		t.Run("if the log exporter fails to build", func(t *testing.T) {
			buildErr := errors.New("failed to build log exporter")

			_, err := New(
				context.Background(),
				WithSpanExporter(builder.BuilderOf(tracetest.NewNoopExporter())),
				WithLogExporter(builder.BuilderFunc[*logRecordsExporter](func(ctx context.Context) (*logRecordsExporter, error) {
					return nil, buildErr
				})),
				discardLogs(),
				testResource(),
			)

			var perr *PipelineBuildError
			require.ErrorAs(t, err, &perr)
			require.ErrorIs(t, err, buildErr)
		})
	})

	t.Run("will fall back to the noop exporter", func(t *testing.T) {
		t.Run("if the exporter fails to build and fallback is enabled", func(t *testing.T) {
			tel, err := New(
				context.Background(),
				WithSpanExporter(builder.BuilderFunc[*tracetest.InMemoryExporter](func(ctx context.Context) (*tracetest.InMemoryExporter, error) {
					return nil, errors.New("collector misconfigured")
				})),
				FallbackToNoop(),
				discardLogs(),
				testResource(),
			)
			require.NoError(t, err)

			_, span := tel.Tracer("telemetry").Start(context.Background(), "dropped")
			span.End()

			require.NoError(t, tel.Shutdown(context.Background()))
		})

		t.Run("if the metric exporter fails to build and fallback is enabled", func(t *testing.T) {
			tel, err := New(
				context.Background(),
				WithSpanExporter(builder.BuilderOf(tracetest.NewNoopExporter())),
				WithMetricExporter(builder.BuilderFunc[*metricNamesExporter](func(ctx context.Context) (*metricNamesExporter, error) {
					return nil, errors.New("collector misconfigured")
				})),
				FallbackToNoop(),
				discardLogs(),
				testResource(),
			)
			require.NoError(t, err)

			counter, err := tel.Meter("telemetry").Int64Counter("dropped")
			require.NoError(t, err)
			counter.Add(context.Background(), 1)

			require.NoError(t, tel.Shutdown(context.Background()))
		})
	})
}

func TestTelemetry_Shutdown(t *testing.T) {
	t.Run("will return the exporter shutdown error", func(t *testing.T) {
		t.Run("if the exporter fails to shut down", func(t *testing.T) {
			shutdownErr := errors.New("failed to close connection")
			exporter := &mockExporter{shutdownErr: shutdownErr}

			tel := newTestTelemetry(t, exporter)

			err := tel.Shutdown(context.Background())
			require.ErrorIs(t, err, shutdownErr)
			require.True(t, exporter.shutdownCalled.Load())
		})
	})

	t.Run("will succeed", func(t *testing.T) {
		t.Run("if called more than once", func(t *testing.T) {
			exporter := &mockExporter{}
			tel := newTestTelemetry(
				t,
				exporter,
				WithMetricExporter(builder.BuilderOf(noop.MetricExporter{})),
				WithLogExporter(builder.BuilderOf(noop.LogExporter{})),
			)

			require.NoError(t, tel.Shutdown(context.Background()))
			require.NoError(t, tel.Shutdown(context.Background()))
		})
	})
}

func TestBuildTraceIDRatioBasedSampler(t *testing.T) {
	t.Run("will describe the configured ratio", func(t *testing.T) {
		sampler, err := BuildTraceIDRatioBasedSampler(config.ReaderOf(0.25)).Build(context.Background())
		require.NoError(t, err)
		require.Equal(t, "TraceIDRatioBased{0.25}", sampler.Description())
	})

	t.Run("will wrap the root sampler", func(t *testing.T) {
		sampler, err := BuildParentBasedSampler(BuildTraceIDRatioBasedSampler(config.ReaderOf(0.5))).Build(context.Background())
		require.NoError(t, err)
		require.Contains(t, sampler.Description(), "ParentBased{root:TraceIDRatioBased{0.5}")
	})
}
