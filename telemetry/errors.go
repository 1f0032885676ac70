// Copyright (c) 2026 julianocosta89 and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package telemetry

import (
	"errors"
)

// ErrGlobalDefaultAlreadySet is returned when a [Telemetry] has already
// been installed as the process default.
var ErrGlobalDefaultAlreadySet = errors.New("telemetry: global default subscriber already set")

// ErrNilTelemetry is returned when installing a nil [Telemetry].
var ErrNilTelemetry = errors.New("telemetry: nil telemetry")

// PipelineBuildError occurs when any part of the trace export pipeline
// fails to build.
type PipelineBuildError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e *PipelineBuildError) Error() string {
	return "telemetry: failed to build trace pipeline: " + e.Cause.Error()
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e *PipelineBuildError) Unwrap() error {
	return e.Cause
}
