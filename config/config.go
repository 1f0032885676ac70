// Copyright (c) 2026 julianocosta89 and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"context"
	"errors"
	"fmt"
)

// Value is a configuration value which may or may not be set.
type Value[T any] struct {
	v   T
	set bool
}

// ValueOf returns a set [Value] holding v.
func ValueOf[T any](v T) Value[T] {
	return Value[T]{v: v, set: true}
}

// Value returns the underlying value and whether it was set.
func (v Value[T]) Value() (T, bool) {
	return v.v, v.set
}

// Reader represents a source of a single configuration value.
type Reader[T any] interface {
	Read(context.Context) (Value[T], error)
}

// ReaderFunc is a functional implementation of the [Reader] interface.
type ReaderFunc[T any] func(context.Context) (Value[T], error)

// Read implements the [Reader] interface.
func (f ReaderFunc[T]) Read(ctx context.Context) (Value[T], error) {
	return f(ctx)
}

// ReaderOf returns a [Reader] which always returns v as set.
func ReaderOf[T any](v T) Reader[T] {
	return ReaderFunc[T](func(ctx context.Context) (Value[T], error) {
		return ValueOf(v), nil
	})
}

// EmptyReader returns a [Reader] which never has a value.
func EmptyReader[T any]() Reader[T] {
	return ReaderFunc[T](func(ctx context.Context) (Value[T], error) {
		return Value[T]{}, nil
	})
}

// ErrValueNotSet is returned by [Read] when the [Reader] has no value.
var ErrValueNotSet = errors.New("config: value not set")

// Read reads the value from r and returns [ErrValueNotSet] if it's unset.
func Read[T any](ctx context.Context, r Reader[T]) (T, error) {
	var zero T
	v, err := r.Read(ctx)
	if err != nil {
		return zero, err
	}
	val, ok := v.Value()
	if !ok {
		return zero, ErrValueNotSet
	}
	return val, nil
}

// Must is like [Read] but panics if an error occurs or the value is unset.
func Must[T any](ctx context.Context, r Reader[T]) T {
	v, err := Read(ctx, r)
	if err != nil {
		panic(err)
	}
	return v
}

// MustOr returns the value read from r or def if r is nil or unset.
// It panics if r fails to read.
func MustOr[T any](ctx context.Context, def T, r Reader[T]) T {
	if r == nil {
		return def
	}
	v, err := r.Read(ctx)
	if err != nil {
		panic(err)
	}
	val, ok := v.Value()
	if !ok {
		return def
	}
	return val
}

// Default returns a [Reader] which falls back to def when r is unset.
func Default[T any](def T, r Reader[T]) Reader[T] {
	return ReaderFunc[T](func(ctx context.Context) (Value[T], error) {
		v, err := r.Read(ctx)
		if err != nil {
			return Value[T]{}, err
		}
		if _, ok := v.Value(); ok {
			return v, nil
		}
		return ValueOf(def), nil
	})
}

// Or returns the first set value from rs. Readers are tried in order
// and the first error stops the search.
func Or[T any](rs ...Reader[T]) Reader[T] {
	return ReaderFunc[T](func(ctx context.Context) (Value[T], error) {
		for _, r := range rs {
			v, err := r.Read(ctx)
			if err != nil {
				return Value[T]{}, err
			}
			if _, ok := v.Value(); ok {
				return v, nil
			}
		}
		return Value[T]{}, nil
	})
}

// Map transforms a set value with f. Unset values stay unset.
func Map[A, B any](r Reader[A], f func(context.Context, A) (B, error)) Reader[B] {
	return ReaderFunc[B](func(ctx context.Context) (Value[B], error) {
		v, err := r.Read(ctx)
		if err != nil {
			return Value[B]{}, err
		}
		a, ok := v.Value()
		if !ok {
			return Value[B]{}, nil
		}
		b, err := f(ctx, a)
		if err != nil {
			return Value[B]{}, err
		}
		return ValueOf(b), nil
	})
}

// Bind uses a set value to choose the next [Reader].
func Bind[A, B any](r Reader[A], f func(context.Context, A) Reader[B]) Reader[B] {
	return ReaderFunc[B](func(ctx context.Context) (Value[B], error) {
		v, err := r.Read(ctx)
		if err != nil {
			return Value[B]{}, err
		}
		a, ok := v.Value()
		if !ok {
			return Value[B]{}, nil
		}
		return f(ctx, a).Read(ctx)
	})
}

// InvalidValueError occurs when a raw config value can't be
// converted into the requested type.
type InvalidValueError struct {
	Raw   string
	Cause error
}

// Error implements the [builtin.error] interface.
func (e InvalidValueError) Error() string {
	return fmt.Sprintf("invalid config value %q: %s", e.Raw, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e InvalidValueError) Unwrap() error {
	return e.Cause
}
