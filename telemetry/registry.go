// Copyright (c) 2026 julianocosta89 and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/log/global"
)

// Registry makes a [Telemetry] the process default at most once.
//
// Installing sets the OpenTelemetry global propagator, error handler and
// the tracer, meter and logger providers as well as the default [slog.Logger]. Most programs use the
// process wide registry through [Install]. Separate registries are mainly
// useful in tests.
type Registry struct {
	installed atomic.Pointer[Telemetry]
}

// Install makes t the process default. Only the first call succeeds, all
// later calls return [ErrGlobalDefaultAlreadySet] and change nothing.
func (r *Registry) Install(t *Telemetry) error {
	if t == nil {
		return ErrNilTelemetry
	}
	if !r.installed.CompareAndSwap(nil, t) {
		return ErrGlobalDefaultAlreadySet
	}

	otel.SetTextMapPropagator(t.propagator)
	otel.SetTracerProvider(t.tracerProvider)
	otel.SetMeterProvider(t.meterProvider)
	global.SetLoggerProvider(t.loggerProvider)
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		t.logger.Error("opentelemetry sdk error", slog.Any("error", err))
	}))
	slog.SetDefault(t.logger)
	return nil
}

// Installed returns the installed [Telemetry], if any.
func (r *Registry) Installed() (*Telemetry, bool) {
	t := r.installed.Load()
	return t, t != nil
}

var defaultRegistry Registry

// Install makes t the process default using the process wide [Registry].
func Install(t *Telemetry) error {
	return defaultRegistry.Install(t)
}

// Installed returns the [Telemetry] installed by [Install] or [InitTracer].
func Installed() (*Telemetry, bool) {
	return defaultRegistry.Installed()
}

// InitTracer builds a [Telemetry] with opts and installs it as the process
// default. With no options every component uses its default.
//
// Build failures are returned as [PipelineBuildError]. If a [Telemetry] is
// already installed, the newly built one is shut down and
// [ErrGlobalDefaultAlreadySet] is returned.
func InitTracer(ctx context.Context, opts ...Option) (*Telemetry, error) {
	return initTracer(ctx, &defaultRegistry, opts...)
}

func initTracer(ctx context.Context, r *Registry, opts ...Option) (*Telemetry, error) {
	t, err := New(ctx, opts...)
	if err != nil {
		return nil, err
	}

	err = r.Install(t)
	if err != nil {
		return nil, errors.Join(err, t.Shutdown(ctx))
	}
	return t, nil
}
