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

	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"google.golang.org/grpc"
)

// BuildDefaultGrpcLogExporter builds an OTLP gRPC log exporter configured
// entirely by the library defaults and environment.
func BuildDefaultGrpcLogExporter() builder.BuilderFunc[*otlploggrpc.Exporter] {
	return func(ctx context.Context) (*otlploggrpc.Exporter, error) {
		return otlploggrpc.New(ctx)
	}
}

// GrpcLogExporter is an OTLP gRPC log exporter which owns its client connection.
type GrpcLogExporter struct {
	*otlploggrpc.Exporter

	conn *grpc.ClientConn
}

// Shutdown flushes the exporter and then closes the client connection.
func (e *GrpcLogExporter) Shutdown(ctx context.Context) error {
	return errors.Join(e.Exporter.Shutdown(ctx), e.conn.Close())
}

// BuildGrpcLogExporter builds an OTLP gRPC log exporter over the connection
// built by grpcConnB.
func BuildGrpcLogExporter(grpcConnB builder.Builder[*grpc.ClientConn]) builder.BuilderFunc[*GrpcLogExporter] {
	return func(ctx context.Context) (*GrpcLogExporter, error) {
		conn := builder.MustBuild(ctx, grpcConnB)

		exporter, err := otlploggrpc.New(ctx, otlploggrpc.WithGRPCConn(conn))
		if err != nil {
			return nil, errors.Join(err, conn.Close())
		}
		return &GrpcLogExporter{
			Exporter: exporter,
			conn:     conn,
		}, nil
	}
}

// BuildHttpLogExporter builds an OTLP HTTP log exporter.
func BuildHttpLogExporter(
	endpoint config.Reader[string],
	allowInsecure config.Reader[bool],
	httpClientB builder.Builder[*http.Client],
) builder.BuilderFunc[*otlploghttp.Exporter] {
	return func(ctx context.Context) (*otlploghttp.Exporter, error) {
		opts := []otlploghttp.Option{
			otlploghttp.WithHTTPClient(builder.MustBuild(ctx, httpClientB)),
			otlploghttp.WithRetry(otlploghttp.RetryConfig{Enabled: false}),
		}
		if ep := config.MustOr(ctx, "", endpoint); ep != "" {
			opts = append(opts, otlploghttp.WithEndpoint(ep))
		}
		if config.MustOr(ctx, false, allowInsecure) {
			opts = append(opts, otlploghttp.WithInsecure())
		}
		return otlploghttp.New(ctx, opts...)
	}
}
