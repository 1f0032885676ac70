// Copyright (c) 2026 julianocosta89 and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package detect

import (
	"context"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/contrib/detectors/gcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"golang.org/x/sync/errgroup"
)

// UnknownServiceName is used for service.name when nothing else provides one.
const UnknownServiceName = "unknown_service"

// Detector discovers a subset of resource attributes.
type Detector struct {
	// Name identifies the detector in logs.
	Name string

	// Immediate options only read in-process state and always run.
	Immediate []resource.Option

	// Deferred options may block and only run within the detection budget.
	Deferred []resource.Option
}

// Detect runs the detector. Deferred options are given at most budget to
// complete, after which their result is dropped. Failures are logged at
// debug level and result in fewer attributes, never in an error.
func (d Detector) Detect(ctx context.Context, budget time.Duration) *resource.Resource {
	res := d.detect(ctx, d.Immediate)
	if len(d.Deferred) == 0 || budget <= 0 {
		return res
	}

	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	// buffered so the goroutine can always exit even after we stop waiting
	deferredCh := make(chan *resource.Resource, 1)
	go func() {
		deferredCh <- d.detect(ctx, d.Deferred)
	}()

	select {
	case <-ctx.Done():
		slog.DebugContext(
			ctx,
			"resource detector exceeded its budget",
			slog.String("detector", d.Name),
			slog.Duration("budget", budget),
		)
		return res
	case deferred := <-deferredCh:
		return Merge(res, deferred)
	}
}

func (d Detector) detect(ctx context.Context, opts []resource.Option) *resource.Resource {
	if len(opts) == 0 {
		return resource.Empty()
	}

	res, err := resource.New(ctx, opts...)
	if err != nil {
		slog.DebugContext(
			ctx,
			"resource detector returned a partial result",
			slog.String("detector", d.Name),
			slog.Any("error", err),
		)
	}
	if res == nil {
		return resource.Empty()
	}
	return res
}

// OS detects os.type and, within budget, os.description.
func OS() Detector {
	return Detector{
		Name:      "os",
		Immediate: []resource.Option{resource.WithOSType()},
		Deferred:  []resource.Option{resource.WithOSDescription()},
	}
}

// Process detects process.* attributes. process.owner requires a user
// lookup and is deferred.
func Process() Detector {
	return Detector{
		Name: "process",
		Immediate: []resource.Option{
			resource.WithProcessPID(),
			resource.WithProcessExecutableName(),
			resource.WithProcessExecutablePath(),
			resource.WithProcessCommandArgs(),
			resource.WithProcessRuntimeName(),
			resource.WithProcessRuntimeVersion(),
			resource.WithProcessRuntimeDescription(),
		},
		Deferred: []resource.Option{resource.WithProcessOwner()},
	}
}

// SDK provides service.name from OTEL_SERVICE_NAME. If that's unset the
// fallback is used and, if that is empty too, [UnknownServiceName].
func SDK(fallback string) Detector {
	serviceName := resource.StringDetector("", semconv.ServiceNameKey, func() (string, error) {
		if name := os.Getenv("OTEL_SERVICE_NAME"); name != "" {
			return name, nil
		}
		if fallback != "" {
			return fallback, nil
		}
		return UnknownServiceName, nil
	})

	return Detector{
		Name:      "sdk",
		Immediate: []resource.Option{resource.WithDetectors(serviceName)},
	}
}

// Env reads OTEL_RESOURCE_ATTRIBUTES and OTEL_SERVICE_NAME.
func Env() Detector {
	return Detector{
		Name:      "env",
		Immediate: []resource.Option{resource.WithFromEnv()},
	}
}

// Telemetry reports the telemetry.sdk.* identity of the OpenTelemetry SDK.
func Telemetry() Detector {
	return Detector{
		Name:      "telemetry",
		Immediate: []resource.Option{resource.WithTelemetrySDK()},
	}
}

// GCP detects Google Cloud platform attributes. It queries the metadata
// server so it's entirely deferred.
func GCP() Detector {
	return Detector{
		Name:     "gcp",
		Deferred: []resource.Option{resource.WithDetectors(gcp.NewDetector())},
	}
}

// Defaults returns the five standard detectors in merge order.
func Defaults(serviceName string) []Detector {
	return []Detector{
		OS(),
		Process(),
		SDK(serviceName),
		Env(),
		Telemetry(),
	}
}

// Resource runs all detectors concurrently, each bounded by budget, and
// merges their results left to right.
func Resource(ctx context.Context, budget time.Duration, detectors ...Detector) *resource.Resource {
	results := make([]*resource.Resource, len(detectors))

	var g errgroup.Group
	for i, d := range detectors {
		g.Go(func() error {
			results[i] = d.Detect(ctx, budget)
			return nil
		})
	}
	// detectors never return errors
	_ = g.Wait()

	return Merge(results...)
}

// Merge combines resources left to right. On key collision the value from
// the later resource wins. The schema URL is the last non-empty schema URL,
// so unlike [resource.Merge] this never fails on conflicting schemas.
func Merge(rs ...*resource.Resource) *resource.Resource {
	var schemaURL string
	var attrs []attribute.KeyValue
	for _, r := range rs {
		if r == nil {
			continue
		}
		if u := r.SchemaURL(); u != "" {
			schemaURL = u
		}
		attrs = append(attrs, r.Attributes()...)
	}
	return resource.NewWithAttributes(schemaURL, attrs...)
}
