// Copyright (c) 2026 julianocosta89 and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otlp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/julianocosta89/oteljavalab/builder"
	"github.com/julianocosta89/oteljavalab/config"

	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

// BuildDefaultGrpcSpanExporter builds an OTLP gRPC exporter configured
// entirely by the library defaults and environment.
func BuildDefaultGrpcSpanExporter() builder.BuilderFunc[*otlptrace.Exporter] {
	return func(ctx context.Context) (*otlptrace.Exporter, error) {
		return otlptracegrpc.New(ctx)
	}
}

// BuildGrpcClientConn builds a gRPC client connection to target. The
// connection is established lazily. TLS with the system roots is used
// unless allowInsecure is set to true.
func BuildGrpcClientConn(
	target config.Reader[string],
	allowInsecure config.Reader[bool],
	opts ...grpc.DialOption,
) builder.BuilderFunc[*grpc.ClientConn] {
	return func(ctx context.Context) (*grpc.ClientConn, error) {
		creds := credentials.NewClientTLSFromCert(nil, "")
		if config.MustOr(ctx, false, allowInsecure) {
			creds = insecure.NewCredentials()
		}

		dialOpts := append([]grpc.DialOption{grpc.WithTransportCredentials(creds)}, opts...)
		return grpc.NewClient(config.Must(ctx, target), dialOpts...)
	}
}

// GrpcSpanExporter is an OTLP gRPC exporter which owns its client connection.
type GrpcSpanExporter struct {
	*otlptrace.Exporter

	conn *grpc.ClientConn
}

// Shutdown flushes the exporter and then closes the client connection.
func (e *GrpcSpanExporter) Shutdown(ctx context.Context) error {
	return errors.Join(e.Exporter.Shutdown(ctx), e.conn.Close())
}

// BuildGrpcSpanExporter builds an OTLP gRPC exporter over the connection
// built by grpcConnB. The connection is closed when the exporter is shut down.
func BuildGrpcSpanExporter(grpcConnB builder.Builder[*grpc.ClientConn]) builder.BuilderFunc[*GrpcSpanExporter] {
	return func(ctx context.Context) (*GrpcSpanExporter, error) {
		conn := builder.MustBuild(ctx, grpcConnB)

		exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
		if err != nil {
			return nil, errors.Join(err, conn.Close())
		}
		return &GrpcSpanExporter{
			Exporter: exporter,
			conn:     conn,
		}, nil
	}
}

// BuildHttpSpanExporter builds an OTLP HTTP exporter. Retrying is left to
// the [http.Client] built by httpClientB, see [BuildRetryableHttpClient].
func BuildHttpSpanExporter(
	endpoint config.Reader[string],
	allowInsecure config.Reader[bool],
	httpClientB builder.Builder[*http.Client],
) builder.BuilderFunc[*otlptrace.Exporter] {
	return func(ctx context.Context) (*otlptrace.Exporter, error) {
		opts := []otlptracehttp.Option{
			otlptracehttp.WithHTTPClient(builder.MustBuild(ctx, httpClientB)),
			otlptracehttp.WithRetry(otlptracehttp.RetryConfig{Enabled: false}),
		}
		if ep := config.MustOr(ctx, "", endpoint); ep != "" {
			opts = append(opts, otlptracehttp.WithEndpoint(ep))
		}
		if config.MustOr(ctx, false, allowInsecure) {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	}
}

type retryOptions struct {
	maxRetries config.Reader[int]
	waitMin    config.Reader[time.Duration]
	waitMax    config.Reader[time.Duration]
}

// RetryOption configures [BuildRetryableHttpClient].
type RetryOption func(*retryOptions)

// MaxRetries sets how many times a failed request is retried. The default is 2.
func MaxRetries(n config.Reader[int]) RetryOption {
	return func(ro *retryOptions) {
		ro.maxRetries = n
	}
}

// MinWaitDuration sets the minimum backoff between attempts. The default is 100ms.
func MinWaitDuration(d config.Reader[time.Duration]) RetryOption {
	return func(ro *retryOptions) {
		ro.waitMin = d
	}
}

// MaxWaitDuration sets the maximum backoff between attempts. The default is 5s.
func MaxWaitDuration(d config.Reader[time.Duration]) RetryOption {
	return func(ro *retryOptions) {
		ro.waitMax = d
	}
}

// BuildRetryableHttpClient builds an [http.Client] which retries requests
// failing with connection errors or retryable status codes.
func BuildRetryableHttpClient(opts ...RetryOption) builder.BuilderFunc[*http.Client] {
	return func(ctx context.Context) (*http.Client, error) {
		ro := &retryOptions{}
		for _, opt := range opts {
			opt(ro)
		}

		rc := &retryablehttp.Client{
			HTTPClient:   &http.Client{Transport: http.DefaultTransport},
			Logger:       nil,
			RetryWaitMin: config.MustOr(ctx, 100*time.Millisecond, ro.waitMin),
			RetryWaitMax: config.MustOr(ctx, 5*time.Second, ro.waitMax),
			RetryMax:     config.MustOr(ctx, 2, ro.maxRetries),
			RequestLogHook: func(_ retryablehttp.Logger, req *http.Request, attempt int) {
				if attempt == 0 {
					return
				}
				slog.DebugContext(
					req.Context(),
					"retrying otlp export",
					slog.String("url", req.URL.String()),
					slog.Int("attempt", attempt),
				)
			},
			CheckRetry:   retryablehttp.DefaultRetryPolicy,
			Backoff:      retryablehttp.DefaultBackoff,
			ErrorHandler: retryablehttp.PassthroughErrorHandler,
		}
		return rc.StandardClient(), nil
	}
}
