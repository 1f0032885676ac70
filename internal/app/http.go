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
	"net/http"
	"time"

	"github.com/julianocosta89/oteljavalab/builder"
	"github.com/julianocosta89/oteljavalab/config"

	"golang.org/x/sync/errgroup"
)

// BuildTCPListener listens for TCP connections on addr.
func BuildTCPListener(addr config.Reader[string]) builder.Builder[net.Listener] {
	return builder.BuilderFunc[net.Listener](func(ctx context.Context) (net.Listener, error) {
		var lc net.ListenConfig
		return lc.Listen(ctx, "tcp", config.Must(ctx, addr))
	})
}

type httpServerOptions struct {
	readTimeout       config.Reader[time.Duration]
	readHeaderTimeout config.Reader[time.Duration]
	writeTimeout      config.Reader[time.Duration]
	idleTimeout       config.Reader[time.Duration]
	shutdownTimeout   config.Reader[time.Duration]
}

// HTTPServerOption configures the HTTP server built by [BuildHTTPRuntime].
type HTTPServerOption func(*httpServerOptions)

// ReadTimeout sets the maximum duration for reading an entire request.
// The default is 5 seconds.
func ReadTimeout(d config.Reader[time.Duration]) HTTPServerOption {
	return func(o *httpServerOptions) {
		o.readTimeout = d
	}
}

// ReadHeaderTimeout sets the maximum duration for reading request headers.
// The default is 2 seconds.
func ReadHeaderTimeout(d config.Reader[time.Duration]) HTTPServerOption {
	return func(o *httpServerOptions) {
		o.readHeaderTimeout = d
	}
}

// WriteTimeout sets the maximum duration before timing out writes of the
// response. The default is 10 seconds.
func WriteTimeout(d config.Reader[time.Duration]) HTTPServerOption {
	return func(o *httpServerOptions) {
		o.writeTimeout = d
	}
}

// IdleTimeout sets how long keep-alive connections wait for the next request.
// The default is 120 seconds.
func IdleTimeout(d config.Reader[time.Duration]) HTTPServerOption {
	return func(o *httpServerOptions) {
		o.idleTimeout = d
	}
}

// ShutdownTimeout bounds the graceful shutdown. The default is 10 seconds.
func ShutdownTimeout(d config.Reader[time.Duration]) HTTPServerOption {
	return func(o *httpServerOptions) {
		o.shutdownTimeout = d
	}
}

// HTTPRuntime serves HTTP requests until its context is cancelled.
type HTTPRuntime struct {
	ls              net.Listener
	srv             *http.Server
	shutdownTimeout time.Duration
}

// BuildHTTPRuntime builds an [HTTPRuntime] serving the handler built by
// handlerB on the listener built by listenerB.
func BuildHTTPRuntime[L net.Listener, H http.Handler](
	listenerB builder.Builder[L],
	handlerB builder.Builder[H],
	opts ...HTTPServerOption,
) builder.Builder[HTTPRuntime] {
	return builder.BuilderFunc[HTTPRuntime](func(ctx context.Context) (HTTPRuntime, error) {
		o := &httpServerOptions{}
		for _, opt := range opts {
			opt(o)
		}

		srv := &http.Server{
			Handler:           builder.MustBuild(ctx, handlerB),
			ReadTimeout:       config.MustOr(ctx, 5*time.Second, o.readTimeout),
			ReadHeaderTimeout: config.MustOr(ctx, 2*time.Second, o.readHeaderTimeout),
			WriteTimeout:      config.MustOr(ctx, 10*time.Second, o.writeTimeout),
			IdleTimeout:       config.MustOr(ctx, 120*time.Second, o.idleTimeout),
		}

		return HTTPRuntime{
			ls:              builder.MustBuild(ctx, listenerB),
			srv:             srv,
			shutdownTimeout: config.MustOr(ctx, 10*time.Second, o.shutdownTimeout),
		}, nil
	})
}

// Addr returns the address the runtime is listening on.
func (r HTTPRuntime) Addr() net.Addr {
	return r.ls.Addr()
}

// Run implements the [builder.Runtime] interface. When ctx is cancelled
// the server stops accepting connections and waits for in-flight requests.
func (r HTTPRuntime) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.InfoContext(gctx, "serving http", slog.String("addr", r.ls.Addr().String()))
		return r.srv.Serve(r.ls)
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), r.shutdownTimeout)
		defer cancel()

		slog.InfoContext(shutdownCtx, "shutting down http server")
		return r.srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
