// Copyright (c) 2026 julianocosta89 and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package gcp exports spans to Google Cloud Trace.
package gcp

import (
	"context"

	"github.com/julianocosta89/oteljavalab/builder"
	"github.com/julianocosta89/oteljavalab/config"

	texporter "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/trace"
	"google.golang.org/api/option"
)

// BuildSpanExporter builds a Cloud Trace exporter for the given project.
// Telemetry of the underlying API client is always disabled so the
// exporter doesn't trace its own exports.
func BuildSpanExporter(
	projectID config.Reader[string],
	clientOpts ...option.ClientOption,
) builder.BuilderFunc[*texporter.Exporter] {
	return func(ctx context.Context) (*texporter.Exporter, error) {
		id, err := config.Read(ctx, projectID)
		if err != nil {
			return nil, err
		}

		opts := append([]option.ClientOption{option.WithTelemetryDisabled()}, clientOpts...)
		return texporter.New(
			texporter.WithProjectID(id),
			texporter.WithTraceClientOptions(opts),
		)
	}
}
