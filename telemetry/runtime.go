// Copyright (c) 2026 julianocosta89 and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package telemetry

import (
	"context"
	"errors"

	"github.com/julianocosta89/oteljavalab/builder"
)

// Runtime installs a [Telemetry] for the lifetime of another [builder.Runtime].
type Runtime[R builder.Runtime] struct {
	registry  *Registry
	telemetry *Telemetry
	runtime   R
}

// RuntimeOption configures [BuildRuntime].
type RuntimeOption func(*runtimeOptions)

type runtimeOptions struct {
	registry *Registry
}

// InstallInto installs into r instead of the process wide [Registry].
func InstallInto(r *Registry) RuntimeOption {
	return func(ro *runtimeOptions) {
		ro.registry = r
	}
}

// BuildRuntime wraps the runtime built by runtimeBuilder so that the
// [Telemetry] is installed before it runs and shut down after it returns.
func BuildRuntime[R builder.Runtime](
	telemetryBuilder builder.Builder[*Telemetry],
	runtimeBuilder builder.Builder[R],
	opts ...RuntimeOption,
) builder.Builder[Runtime[R]] {
	return builder.BuilderFunc[Runtime[R]](func(ctx context.Context) (Runtime[R], error) {
		ro := &runtimeOptions{registry: &defaultRegistry}
		for _, opt := range opts {
			opt(ro)
		}

		tel := builder.MustBuild(ctx, telemetryBuilder)

		rt, err := builder.Recover(runtimeBuilder).Build(ctx)
		if err != nil {
			return Runtime[R]{}, errors.Join(err, tel.Shutdown(ctx))
		}
		return Runtime[R]{
			registry:  ro.registry,
			telemetry: tel,
			runtime:   rt,
		}, nil
	})
}

// Run implements the [builder.Runtime] interface.
//
// The shutdown error, if any, is joined with the error returned by the
// wrapped runtime.
func (r Runtime[R]) Run(ctx context.Context) (err error) {
	defer func() {
		// ctx is likely cancelled by now but pending spans still need flushing
		shutdownErr := r.telemetry.Shutdown(context.WithoutCancel(ctx))
		err = errors.Join(err, shutdownErr)
	}()

	err = r.registry.Install(r.telemetry)
	if err != nil {
		return err
	}
	return r.runtime.Run(ctx)
}
