// Copyright (c) 2026 julianocosta89 and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otlp

import (
	"context"
	"testing"
	"time"

	"github.com/julianocosta89/oteljavalab/builder"
	"github.com/julianocosta89/oteljavalab/config"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"google.golang.org/grpc/connectivity"
)

func TestBuildHttpLogExporter(t *testing.T) {
	t.Run("will post log records to the collector", func(t *testing.T) {
		t.Run("if a record is emitted", func(t *testing.T) {
			addr, hits, path := newCollector(t)

			exporter, err := BuildHttpLogExporter(
				config.ReaderOf(addr),
				config.ReaderOf(true),
				BuildRetryableHttpClient(),
			).Build(context.Background())
			require.NoError(t, err)

			lp := sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exporter)))
			defer lp.Shutdown(context.Background())

			var record log.Record
			record.SetSeverity(log.SeverityInfo)
			record.SetBody(log.StringValue("summarized values"))
			lp.Logger("test").Emit(context.Background(), record)

			require.Equal(t, int64(1), hits.Load())
			require.Equal(t, "/v1/logs", path.Load())
		})
	})
}

func TestBuildGrpcLogExporter(t *testing.T) {
	t.Run("will close the client connection", func(t *testing.T) {
		t.Run("if the exporter is shut down", func(t *testing.T) {
			connB := builder.MemoizeBuilder(BuildGrpcClientConn(
				config.ReaderOf("localhost:4317"),
				config.ReaderOf(true),
			))

			exporter, err := BuildGrpcLogExporter(connB).Build(context.Background())
			require.NoError(t, err)

			conn, err := connB.Build(context.Background())
			require.NoError(t, err)

			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			err = exporter.Shutdown(ctx)
			require.NoError(t, err)
			require.Equal(t, connectivity.Shutdown, conn.GetState())
		})
	})
}

func TestBuildDefaultGrpcLogExporter(t *testing.T) {
	t.Run("will not connect eagerly", func(t *testing.T) {
		t.Run("if no collector is running", func(t *testing.T) {
			exporter, err := BuildDefaultGrpcLogExporter().Build(context.Background())
			require.NoError(t, err)

			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			require.NoError(t, exporter.Shutdown(ctx))
		})
	})
}
