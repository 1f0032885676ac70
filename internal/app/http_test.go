// Copyright (c) 2026 julianocosta89 and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"testing"

	"github.com/julianocosta89/oteljavalab/builder"
	"github.com/julianocosta89/oteljavalab/internal/processing"

	"github.com/stretchr/testify/require"
)

func TestBuildTCPListener(t *testing.T) {
	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the address is invalid", func(t *testing.T) {
			ls, err := builder.Recover(BuildTCPListener(staticString("not an address"))).Build(context.Background())
			require.Error(t, err)
			require.Nil(t, ls)
		})
	})
}

func TestHTTPRuntime_Run(t *testing.T) {
	t.Run("will serve requests", func(t *testing.T) {
		t.Run("until the context is cancelled", func(t *testing.T) {
			ls, err := net.Listen("tcp", "127.0.0.1:0")
			require.NoError(t, err)

			handler := processing.NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)))
			rt, err := BuildHTTPRuntime(builder.BuilderOf(ls), builder.BuilderOf(handler)).Build(context.Background())
			require.NoError(t, err)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			errCh := make(chan error, 1)
			go func() {
				defer close(errCh)
				errCh <- rt.Run(ctx)
			}()

			resp, err := http.Post(
				"http://"+rt.Addr().String(),
				"application/json",
				strings.NewReader(`{"values":[1,2,3]}`),
			)
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var summary processing.Summary
			err = json.NewDecoder(resp.Body).Decode(&summary)
			require.NoError(t, err)
			require.Equal(t, 3, summary.Count)
			require.Equal(t, 2.0, summary.Mean)

			cancel()
			require.NoError(t, <-errCh)
		})
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the listener fails to accept", func(t *testing.T) {
			acceptErr := errors.New("failed to accept")
			ls := failingListener{err: acceptErr}

			rt, err := BuildHTTPRuntime(builder.BuilderOf[net.Listener](ls), builder.BuilderOf(http.NotFoundHandler())).Build(context.Background())
			require.NoError(t, err)

			err = rt.Run(context.Background())
			require.ErrorIs(t, err, acceptErr)
		})
	})
}

type failingListener struct {
	err error
}

func (l failingListener) Accept() (net.Conn, error) {
	return nil, l.err
}

func (failingListener) Close() error {
	return nil
}

func (failingListener) Addr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)}
}
