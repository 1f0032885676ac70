// Copyright (c) 2026 julianocosta89 and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package builder

import (
	"context"
	"sync"

	"github.com/julianocosta89/oteljavalab/internal/try"
)

// Builder represents anything which can construct a T.
type Builder[T any] interface {
	Build(context.Context) (T, error)
}

// BuilderFunc is a functional implementation of the [Builder] interface.
type BuilderFunc[T any] func(context.Context) (T, error)

// Build implements the [Builder] interface.
func (f BuilderFunc[T]) Build(ctx context.Context) (T, error) {
	return f(ctx)
}

// BuilderOf returns a [Builder] which always returns v.
func BuilderOf[T any](v T) Builder[T] {
	return BuilderFunc[T](func(ctx context.Context) (T, error) {
		return v, nil
	})
}

// MustBuild calls b.Build and panics with the returned error, if any.
// It's meant to be used inside of other builders so that errors
// bubble up to the outermost [Recover].
func MustBuild[T any](ctx context.Context, b Builder[T]) T {
	v, err := b.Build(ctx)
	if err != nil {
		panic(err)
	}
	return v
}

type memoizedBuilder[T any] struct {
	b    Builder[T]
	once sync.Once
	v    T
	err  error
}

func (m *memoizedBuilder[T]) Build(ctx context.Context) (T, error) {
	m.once.Do(func() {
		defer try.Recover(&m.err)

		m.v, m.err = m.b.Build(ctx)
	})
	return m.v, m.err
}

// MemoizeBuilder returns a [Builder] which only ever calls b.Build once.
// All subsequent calls return the result, value and error, of the first call.
// This is useful when a single component, e.g. a resource, is shared by
// multiple other builders.
func MemoizeBuilder[T any](b Builder[T]) Builder[T] {
	return &memoizedBuilder[T]{b: b}
}

// Map transforms the output of b using f.
func Map[A, B any](b Builder[A], f func(context.Context, A) (B, error)) Builder[B] {
	return BuilderFunc[B](func(ctx context.Context) (B, error) {
		a, err := b.Build(ctx)
		if err != nil {
			var zero B
			return zero, err
		}
		return f(ctx, a)
	})
}

// Bind uses the output of b to choose the next [Builder].
func Bind[A, B any](b Builder[A], f func(A) Builder[B]) Builder[B] {
	return BuilderFunc[B](func(ctx context.Context) (B, error) {
		a, err := b.Build(ctx)
		if err != nil {
			var zero B
			return zero, err
		}
		return f(a).Build(ctx)
	})
}

// Recover wraps b with panic recovery. A recovered panic is returned
// as a [try.PanicError] which unwraps to the panic value when that value
// is an error.
func Recover[T any](b Builder[T]) Builder[T] {
	return BuilderFunc[T](func(ctx context.Context) (_ T, err error) {
		defer try.Recover(&err)

		return b.Build(ctx)
	})
}
