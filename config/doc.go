// Copyright (c) 2026 julianocosta89 and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package config reads settings which may or may not be present.
//
// A [Reader] yields a [Value] which is either set or unset. Unset is not an
// error: it lets callers fall back to a default with [Default] or [MustOr],
// or to another source with [Or].
//
// Sampling ratio from the environment, defaulting to always sampling:
//
//	ratio := config.Default(1.0, config.Float64FromString(config.Env("SAMPLER_RATIO")))
//
// Collector endpoint from a config file, then the standard OTLP variable:
//
//	endpoint := config.Or(
//		config.Viper[string](v, "tracing.otlp.endpoint"),
//		config.Env("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"),
//	)
//
// [Read] reports an unset value as [ErrValueNotSet]. [Must] and [MustOr]
// panic instead and belong inside builders, which recover the panic.
package config
