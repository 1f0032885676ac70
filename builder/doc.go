// Copyright (c) 2026 julianocosta89 and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package builder provides the functional building blocks used to assemble
// the service and its telemetry pipeline.
//
// A [Builder] is a deferred constructor. Builders are composed with [Map] and
// [Bind], shared with [MemoizeBuilder], and forced with [MustBuild] inside
// other builders. A failure deep inside a composition panics through
// [MustBuild] and is turned back into an error at the top by [Recover].
//
//	tpB := builder.Map(resourceB, func(ctx context.Context, res *resource.Resource) (*sdktrace.TracerProvider, error) {
//	    return sdktrace.NewTracerProvider(sdktrace.WithResource(res)), nil
//	})
//
//	tp, err := builder.Recover(tpB).Build(ctx)
package builder
