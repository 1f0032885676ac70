// Copyright (c) 2026 julianocosta89 and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package stdout exports telemetry as JSON to an [io.Writer].
package stdout

import (
	"context"
	"io"

	"github.com/julianocosta89/oteljavalab/builder"
	"github.com/julianocosta89/oteljavalab/config"

	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// BuildSpanExporter builds a [stdouttrace.Exporter] writing to the output of writerB.
// Output is pretty printed when prettyPrint is set to true.
func BuildSpanExporter[W io.Writer](
	writerB builder.Builder[W],
	prettyPrint config.Reader[bool],
) builder.BuilderFunc[*stdouttrace.Exporter] {
	return func(ctx context.Context) (*stdouttrace.Exporter, error) {
		opts := []stdouttrace.Option{
			stdouttrace.WithWriter(builder.MustBuild(ctx, writerB)),
		}
		if config.MustOr(ctx, false, prettyPrint) {
			opts = append(opts, stdouttrace.WithPrettyPrint())
		}
		return stdouttrace.New(opts...)
	}
}

// BuildMetricExporter builds a stdoutmetric exporter writing to the output of writerB.
func BuildMetricExporter[W io.Writer](
	writerB builder.Builder[W],
	prettyPrint config.Reader[bool],
) builder.BuilderFunc[sdkmetric.Exporter] {
	return func(ctx context.Context) (sdkmetric.Exporter, error) {
		opts := []stdoutmetric.Option{
			stdoutmetric.WithWriter(builder.MustBuild(ctx, writerB)),
		}
		if config.MustOr(ctx, false, prettyPrint) {
			opts = append(opts, stdoutmetric.WithPrettyPrint())
		}
		return stdoutmetric.New(opts...)
	}
}

// BuildLogExporter builds a [stdoutlog.Exporter] writing to the output of writerB.
func BuildLogExporter[W io.Writer](
	writerB builder.Builder[W],
	prettyPrint config.Reader[bool],
) builder.BuilderFunc[*stdoutlog.Exporter] {
	return func(ctx context.Context) (*stdoutlog.Exporter, error) {
		opts := []stdoutlog.Option{
			stdoutlog.WithWriter(builder.MustBuild(ctx, writerB)),
		}
		if config.MustOr(ctx, false, prettyPrint) {
			opts = append(opts, stdoutlog.WithPrettyPrint())
		}
		return stdoutlog.New(opts...)
	}
}
