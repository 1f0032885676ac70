// Copyright (c) 2026 julianocosta89 and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"context"
	"os"
	"strconv"
	"time"
)

// Env reads the environment variable with the given name.
// An empty or missing variable is treated as unset.
func Env(name string) Reader[string] {
	return ReaderFunc[string](func(ctx context.Context) (Value[string], error) {
		v, ok := os.LookupEnv(name)
		if !ok || v == "" {
			return Value[string]{}, nil
		}
		return ValueOf(v), nil
	})
}

// BoolFromString parses the string value with [strconv.ParseBool].
func BoolFromString(r Reader[string]) Reader[bool] {
	return Map(r, func(ctx context.Context, s string) (bool, error) {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return false, InvalidValueError{Raw: s, Cause: err}
		}
		return b, nil
	})
}

// Int64FromString parses the string value as a base 10 int64.
func Int64FromString(r Reader[string]) Reader[int64] {
	return Map(r, func(ctx context.Context, s string) (int64, error) {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, InvalidValueError{Raw: s, Cause: err}
		}
		return n, nil
	})
}

// Float64FromString parses the string value as a float64.
func Float64FromString(r Reader[string]) Reader[float64] {
	return Map(r, func(ctx context.Context, s string) (float64, error) {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, InvalidValueError{Raw: s, Cause: err}
		}
		return f, nil
	})
}

// DurationFromString parses the string value with [time.ParseDuration].
func DurationFromString(r Reader[string]) Reader[time.Duration] {
	return Map(r, func(ctx context.Context, s string) (time.Duration, error) {
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, InvalidValueError{Raw: s, Cause: err}
		}
		return d, nil
	})
}
