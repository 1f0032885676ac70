// Copyright (c) 2026 julianocosta89 and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otlp

import (
	"context"
	"errors"
	"net/http"

	"github.com/julianocosta89/oteljavalab/builder"
	"github.com/julianocosta89/oteljavalab/config"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"google.golang.org/grpc"
)

// BuildDefaultGrpcMetricExporter builds an OTLP gRPC metric exporter
// configured entirely by the library defaults and environment.
func BuildDefaultGrpcMetricExporter() builder.BuilderFunc[*otlpmetricgrpc.Exporter] {
	return func(ctx context.Context) (*otlpmetricgrpc.Exporter, error) {
		return otlpmetricgrpc.New(ctx)
	}
}

// GrpcMetricExporter is an OTLP gRPC metric exporter which owns its client connection.
type GrpcMetricExporter struct {
	*otlpmetricgrpc.Exporter

	conn *grpc.ClientConn
}

// Shutdown flushes the exporter and then closes the client connection.
func (e *GrpcMetricExporter) Shutdown(ctx context.Context) error {
	return errors.Join(e.Exporter.Shutdown(ctx), e.conn.Close())
}

// BuildGrpcMetricExporter builds an OTLP gRPC metric exporter over the
// connection built by grpcConnB. The connection is closed when the
// exporter is shut down.
func BuildGrpcMetricExporter(grpcConnB builder.Builder[*grpc.ClientConn]) builder.BuilderFunc[*GrpcMetricExporter] {
	return func(ctx context.Context) (*GrpcMetricExporter, error) {
		conn := builder.MustBuild(ctx, grpcConnB)

		exporter, err := otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithGRPCConn(conn))
		if err != nil {
			return nil, errors.Join(err, conn.Close())
		}
		return &GrpcMetricExporter{
			Exporter: exporter,
			conn:     conn,
		}, nil
	}
}

// BuildHttpMetricExporter builds an OTLP HTTP metric exporter. Like
// [BuildHttpSpanExporter], retrying is left to the client built by httpClientB.
func BuildHttpMetricExporter(
	endpoint config.Reader[string],
	allowInsecure config.Reader[bool],
	httpClientB builder.Builder[*http.Client],
) builder.BuilderFunc[*otlpmetrichttp.Exporter] {
	return func(ctx context.Context) (*otlpmetrichttp.Exporter, error) {
		opts := []otlpmetrichttp.Option{
			otlpmetrichttp.WithHTTPClient(builder.MustBuild(ctx, httpClientB)),
			otlpmetrichttp.WithRetry(otlpmetrichttp.RetryConfig{Enabled: false}),
		}
		if ep := config.MustOr(ctx, "", endpoint); ep != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(ep))
		}
		if config.MustOr(ctx, false, allowInsecure) {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		return otlpmetrichttp.New(ctx, opts...)
	}
}
