// Copyright (c) 2026 julianocosta89 and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package breaker stops exporting spans to a collector which keeps failing.
//
// While the circuit is open, exports fail immediately with
// [gobreaker.ErrOpenState] instead of waiting on the collector, so the
// batch processor drops the batch and moves on.
package breaker

import (
	"context"
	"log/slog"
	"time"

	"github.com/julianocosta89/oteljavalab/builder"
	"github.com/julianocosta89/oteljavalab/config"
	"github.com/julianocosta89/oteljavalab/internal/health"

	"github.com/sony/gobreaker"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type options struct {
	name        string
	tripAfter   config.Reader[uint32]
	openTimeout config.Reader[time.Duration]
	maxRequests config.Reader[uint32]
	health      *health.Binary
	logger      *slog.Logger
}

// Option configures the circuit breaker.
type Option func(*options)

// Name identifies the breaker in logs.
func Name(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// TripAfter sets how many consecutive failed exports open the circuit.
// The default is 5.
func TripAfter(n config.Reader[uint32]) Option {
	return func(o *options) {
		o.tripAfter = n
	}
}

// OpenTimeout sets how long the circuit stays open before letting
// exports through again. The default is 1 minute.
func OpenTimeout(d config.Reader[time.Duration]) Option {
	return func(o *options) {
		o.openTimeout = d
	}
}

// MaxHalfOpenRequests sets how many exports may go through while the
// circuit is half open. The default is 1.
func MaxHalfOpenRequests(n config.Reader[uint32]) Option {
	return func(o *options) {
		o.maxRequests = n
	}
}

// ReportTo marks m unhealthy while the circuit is open.
func ReportTo(m *health.Binary) Option {
	return func(o *options) {
		o.health = m
	}
}

// Logger sets where state changes are logged. Without it the default
// [slog.Logger] at the time of the state change is used.
func Logger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func (o *options) log() *slog.Logger {
	l := o.logger
	if l == nil {
		l = slog.Default()
	}
	return l.With(slog.String("circuit_breaker", o.name))
}

// SpanExporter wraps a [sdktrace.SpanExporter] with a circuit breaker.
type SpanExporter struct {
	exporter sdktrace.SpanExporter
	cb       *gobreaker.CircuitBreaker
}

// BuildSpanExporter wraps the exporter built by exporterB with a circuit breaker.
func BuildSpanExporter[E sdktrace.SpanExporter](exporterB builder.Builder[E], opts ...Option) builder.BuilderFunc[*SpanExporter] {
	return func(ctx context.Context) (*SpanExporter, error) {
		o := &options{name: "span-exporter"}
		for _, opt := range opts {
			opt(o)
		}

		tripAfter := config.MustOr(ctx, 5, o.tripAfter)
		maxRequests := config.MustOr(ctx, 1, o.maxRequests)

		cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        o.name,
			MaxRequests: maxRequests,
			Timeout:     config.MustOr(ctx, time.Minute, o.openTimeout),
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= tripAfter
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				if o.health != nil {
					o.health.Set(to != gobreaker.StateOpen)
				}

				log := o.log()
				switch to {
				case gobreaker.StateOpen:
					log.Error("circuit has been opened, spans will be dropped")
				case gobreaker.StateHalfOpen:
					log.Warn("circuit is now half open", slog.Uint64("max_requests_allowed_through", uint64(maxRequests)))
				case gobreaker.StateClosed:
					log.Info("circuit has been closed")
				}
			},
		})

		return &SpanExporter{
			exporter: builder.MustBuild(ctx, exporterB),
			cb:       cb,
		}, nil
	}
}

// ExportSpans implements the [sdktrace.SpanExporter] interface.
func (e *SpanExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	_, err := e.cb.Execute(func() (interface{}, error) {
		return nil, e.exporter.ExportSpans(ctx, spans)
	})
	return err
}

// Shutdown implements the [sdktrace.SpanExporter] interface.
func (e *SpanExporter) Shutdown(ctx context.Context) error {
	return e.exporter.Shutdown(ctx)
}

// Unwrap returns the wrapped exporter.
func (e *SpanExporter) Unwrap() sdktrace.SpanExporter {
	return e.exporter
}

// Healthy implements the [health.Metric] interface. The exporter is
// unhealthy while the circuit is open.
func (e *SpanExporter) Healthy(context.Context) bool {
	return e.cb.State() != gobreaker.StateOpen
}

// State reports the current state of the circuit.
func (e *SpanExporter) State() gobreaker.State {
	return e.cb.State()
}
