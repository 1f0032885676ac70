// Copyright (c) 2026 julianocosta89 and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package telemetry

import (
	"context"
	"time"

	"github.com/julianocosta89/oteljavalab/builder"
	"github.com/julianocosta89/oteljavalab/config"
	"github.com/julianocosta89/oteljavalab/telemetry/detect"

	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// BuildResource detects the resource describing this process. Platform
// detectors, e.g. [detect.GCP], are merged before the standard detectors
// so they never override them. The detection budget defaults to zero,
// which skips every lookup that could block.
func BuildResource(
	serviceName config.Reader[string],
	budget config.Reader[time.Duration],
	platform ...detect.Detector,
) builder.Builder[*resource.Resource] {
	return builder.BuilderFunc[*resource.Resource](func(ctx context.Context) (*resource.Resource, error) {
		name := config.MustOr(ctx, "", serviceName)
		d := config.MustOr(ctx, 0, budget)

		detectors := append(append([]detect.Detector{}, platform...), detect.Defaults(name)...)
		return detect.Resource(ctx, d, detectors...), nil
	})
}

// BuildTraceIDRatioBasedSampler samples the given fraction of traces.
func BuildTraceIDRatioBasedSampler(ratio config.Reader[float64]) builder.Builder[sdktrace.Sampler] {
	return builder.BuilderFunc[sdktrace.Sampler](func(ctx context.Context) (sdktrace.Sampler, error) {
		sampler := sdktrace.TraceIDRatioBased(config.Must(ctx, ratio))

		return sampler, nil
	})
}

// BuildParentBasedSampler follows the sampling decision of the remote or
// local parent span and uses the root sampler for new traces.
func BuildParentBasedSampler[S sdktrace.Sampler](rootB builder.Builder[S]) builder.Builder[sdktrace.Sampler] {
	return builder.BuilderFunc[sdktrace.Sampler](func(ctx context.Context) (sdktrace.Sampler, error) {
		sampler := sdktrace.ParentBased(builder.MustBuild(ctx, rootB))

		return sampler, nil
	})
}

type batchOptions struct {
	batchTimeout       config.Reader[time.Duration]
	exportTimeout      config.Reader[time.Duration]
	maxQueueSize       config.Reader[int]
	maxExportBatchSize config.Reader[int]
}

// BatchOption configures the batch span processor. Any setting left unset
// falls back to the OTEL_BSP_* environment variables and then the SDK defaults.
type BatchOption func(*batchOptions)

// BatchTimeout sets the maximum delay before a partial batch is exported.
func BatchTimeout(d config.Reader[time.Duration]) BatchOption {
	return func(bo *batchOptions) {
		bo.batchTimeout = d
	}
}

// ExportTimeout sets how long a single export may take.
func ExportTimeout(d config.Reader[time.Duration]) BatchOption {
	return func(bo *batchOptions) {
		bo.exportTimeout = d
	}
}

// MaxQueueSize sets how many spans are buffered before new spans are dropped.
func MaxQueueSize(n config.Reader[int]) BatchOption {
	return func(bo *batchOptions) {
		bo.maxQueueSize = n
	}
}

// MaxExportBatchSize sets the maximum number of spans per export.
func MaxExportBatchSize(n config.Reader[int]) BatchOption {
	return func(bo *batchOptions) {
		bo.maxExportBatchSize = n
	}
}

func (bo *batchOptions) sdkOptions(ctx context.Context) []sdktrace.BatchSpanProcessorOption {
	var opts []sdktrace.BatchSpanProcessorOption
	if d, ok := readOptional(ctx, bo.batchTimeout); ok {
		opts = append(opts, sdktrace.WithBatchTimeout(d))
	}
	if d, ok := readOptional(ctx, bo.exportTimeout); ok {
		opts = append(opts, sdktrace.WithExportTimeout(d))
	}
	if n, ok := readOptional(ctx, bo.maxQueueSize); ok {
		opts = append(opts, sdktrace.WithMaxQueueSize(n))
	}
	if n, ok := readOptional(ctx, bo.maxExportBatchSize); ok {
		opts = append(opts, sdktrace.WithMaxExportBatchSize(n))
	}
	return opts
}

// BuildBatchSpanProcessor batches ended spans to the exporter built by exporterB.
func BuildBatchSpanProcessor[E sdktrace.SpanExporter](
	exporterBuilder builder.Builder[E],
	opts ...BatchOption,
) builder.Builder[sdktrace.SpanProcessor] {
	return builder.BuilderFunc[sdktrace.SpanProcessor](func(ctx context.Context) (sdktrace.SpanProcessor, error) {
		bo := &batchOptions{}
		for _, opt := range opts {
			opt(bo)
		}

		bsp := sdktrace.NewBatchSpanProcessor(
			builder.MustBuild(ctx, exporterBuilder),
			bo.sdkOptions(ctx)...,
		)

		return bsp, nil
	})
}

// BuildTracerProvider builds a [sdktrace.TracerProvider] from its parts.
func BuildTracerProvider[S sdktrace.Sampler, P sdktrace.SpanProcessor](
	resourceBuilder builder.Builder[*resource.Resource],
	samplerBuilder builder.Builder[S],
	spanProcessorBuilder builder.Builder[P],
) builder.Builder[*sdktrace.TracerProvider] {
	return builder.BuilderFunc[*sdktrace.TracerProvider](func(ctx context.Context) (*sdktrace.TracerProvider, error) {
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithResource(builder.MustBuild(ctx, resourceBuilder)),
			sdktrace.WithSampler(builder.MustBuild(ctx, samplerBuilder)),
			sdktrace.WithSpanProcessor(builder.MustBuild(ctx, spanProcessorBuilder)),
		)

		return tp, nil
	})
}

// BuildPeriodicReader collects metrics every interval and pushes them to
// the exporter built by exporterB. An unset interval falls back to
// OTEL_METRIC_EXPORT_INTERVAL and then the SDK default.
func BuildPeriodicReader[E sdkmetric.Exporter](
	exporterB builder.Builder[E],
	interval config.Reader[time.Duration],
) builder.Builder[*sdkmetric.PeriodicReader] {
	return builder.BuilderFunc[*sdkmetric.PeriodicReader](func(ctx context.Context) (*sdkmetric.PeriodicReader, error) {
		var opts []sdkmetric.PeriodicReaderOption
		if d, ok := readOptional(ctx, interval); ok {
			opts = append(opts, sdkmetric.WithInterval(d))
		}

		pr := sdkmetric.NewPeriodicReader(builder.MustBuild(ctx, exporterB), opts...)

		return pr, nil
	})
}

// BuildMeterProvider builds a [sdkmetric.MeterProvider] from its parts.
func BuildMeterProvider[R sdkmetric.Reader](
	resourceBuilder builder.Builder[*resource.Resource],
	readerBuilder builder.Builder[R],
) builder.Builder[*sdkmetric.MeterProvider] {
	return builder.BuilderFunc[*sdkmetric.MeterProvider](func(ctx context.Context) (*sdkmetric.MeterProvider, error) {
		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(builder.MustBuild(ctx, resourceBuilder)),
			sdkmetric.WithReader(builder.MustBuild(ctx, readerBuilder)),
		)

		return mp, nil
	})
}

// BuildBatchLogProcessor batches emitted log records to the exporter built by exporterB.
func BuildBatchLogProcessor[E sdklog.Exporter](
	exporterB builder.Builder[E],
) builder.Builder[*sdklog.BatchProcessor] {
	return builder.BuilderFunc[*sdklog.BatchProcessor](func(ctx context.Context) (*sdklog.BatchProcessor, error) {
		bp := sdklog.NewBatchProcessor(builder.MustBuild(ctx, exporterB))

		return bp, nil
	})
}

// BuildLoggerProvider builds a [sdklog.LoggerProvider] from its parts.
func BuildLoggerProvider[P sdklog.Processor](
	resourceBuilder builder.Builder[*resource.Resource],
	processorBuilder builder.Builder[P],
) builder.Builder[*sdklog.LoggerProvider] {
	return builder.BuilderFunc[*sdklog.LoggerProvider](func(ctx context.Context) (*sdklog.LoggerProvider, error) {
		lp := sdklog.NewLoggerProvider(
			sdklog.WithResource(builder.MustBuild(ctx, resourceBuilder)),
			sdklog.WithProcessor(builder.MustBuild(ctx, processorBuilder)),
		)

		return lp, nil
	})
}

func readOptional[T any](ctx context.Context, r config.Reader[T]) (T, bool) {
	var zero T
	if r == nil {
		return zero, false
	}
	v, err := r.Read(ctx)
	if err != nil {
		panic(err)
	}
	return v.Value()
}
