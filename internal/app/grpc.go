// Copyright (c) 2026 julianocosta89 and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package app

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"github.com/julianocosta89/oteljavalab/builder"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

type grpcServer interface {
	Serve(net.Listener) error
	GracefulStop()
}

// GRPCRuntime serves the gRPC health service until its context is cancelled.
type GRPCRuntime struct {
	ls     net.Listener
	grpc   grpcServer
	health *grpchealth.Server
}

// BuildGRPCRuntime builds a [GRPCRuntime] on the listener built by listenerB.
// The health service reports serviceName as serving while the runtime runs.
func BuildGRPCRuntime[L net.Listener](
	listenerB builder.Builder[L],
	serviceName string,
	otelOpts ...otelgrpc.Option,
) builder.Builder[*GRPCRuntime] {
	return builder.BuilderFunc[*GRPCRuntime](func(ctx context.Context) (*GRPCRuntime, error) {
		handlerOpts := append(
			[]otelgrpc.Option{otelgrpc.WithMessageEvents(otelgrpc.ReceivedEvents, otelgrpc.SentEvents)},
			otelOpts...,
		)
		s := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler(handlerOpts...)))

		healthServer := grpchealth.NewServer()
		healthServer.SetServingStatus(serviceName, grpc_health_v1.HealthCheckResponse_SERVING)
		grpc_health_v1.RegisterHealthServer(s, healthServer)

		return &GRPCRuntime{
			ls:     builder.MustBuild(ctx, listenerB),
			grpc:   s,
			health: healthServer,
		}, nil
	})
}

// Addr returns the address the runtime is listening on.
func (rt *GRPCRuntime) Addr() net.Addr {
	return rt.ls.Addr()
}

// Run implements the [builder.Runtime] interface.
func (rt *GRPCRuntime) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()

		slog.InfoContext(gctx, "shutting down grpc server")
		rt.health.Shutdown()
		rt.grpc.GracefulStop()
		return nil
	})
	g.Go(func() error {
		slog.InfoContext(gctx, "serving grpc", slog.String("addr", rt.ls.Addr().String()))
		return rt.grpc.Serve(rt.ls)
	})

	err := g.Wait()
	if err == nil || errors.Is(err, grpc.ErrServerStopped) {
		return nil
	}
	slog.ErrorContext(gctx, "grpc server encountered unexpected error", slog.Any("error", err))
	return err
}
