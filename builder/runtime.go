// Copyright (c) 2026 julianocosta89 and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package builder

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/julianocosta89/oteljavalab/internal/try"

	"golang.org/x/sync/errgroup"
)

// Runtime represents a long running unit of work, e.g. an HTTP server.
type Runtime interface {
	Run(context.Context) error
}

// RuntimeFunc is a functional implementation of the [Runtime] interface.
type RuntimeFunc func(context.Context) error

// Run implements the [Runtime] interface.
func (f RuntimeFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// BuildError occurs when [Run] fails to build the [Runtime].
type BuildError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e BuildError) Error() string {
	return fmt.Sprintf("failed to build runtime: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e BuildError) Unwrap() error {
	return e.Cause
}

// RunError occurs when the [Runtime] given to [Run] returns an error.
type RunError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e RunError) Error() string {
	return fmt.Sprintf("failed to run runtime: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e RunError) Unwrap() error {
	return e.Cause
}

// Run builds the [Runtime] and runs it. Panics while building are recovered.
func Run[T Runtime](ctx context.Context, b Builder[T]) error {
	rt, err := Recover(b).Build(ctx)
	if err != nil {
		return BuildError{Cause: err}
	}

	err = rt.Run(ctx)
	if err != nil {
		return RunError{Cause: err}
	}
	return nil
}

// RecoverRuntime returns a [Runtime] which recovers any panic raised by rt.
func RecoverRuntime(rt Runtime) Runtime {
	return RuntimeFunc(func(ctx context.Context) (err error) {
		defer try.Recover(&err)

		return rt.Run(ctx)
	})
}

// NotifyOnSignal cancels the context given to rt when one of the signals
// is received.
func NotifyOnSignal(rt Runtime, signals ...os.Signal) Runtime {
	return RuntimeFunc(func(ctx context.Context) error {
		sigCtx, cancel := signal.NotifyContext(ctx, signals...)
		defer cancel()

		return rt.Run(sigCtx)
	})
}

// MultiRuntime runs several runtimes concurrently. The first one to fail
// cancels the others.
type MultiRuntime []Runtime

// Run implements the [Runtime] interface.
func (mr MultiRuntime) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, rt := range mr {
		g.Go(func() error {
			return rt.Run(gctx)
		})
	}
	return g.Wait()
}

// BuildMultiRuntime builds every runtime and combines them into a [MultiRuntime].
func BuildMultiRuntime(rbs ...Builder[Runtime]) Builder[MultiRuntime] {
	return BuilderFunc[MultiRuntime](func(ctx context.Context) (MultiRuntime, error) {
		mr := make(MultiRuntime, len(rbs))
		for i, rb := range rbs {
			mr[i] = MustBuild(ctx, rb)
		}
		return mr, nil
	})
}
