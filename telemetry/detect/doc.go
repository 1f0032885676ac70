// Copyright (c) 2026 julianocosta89 and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package detect builds the resource descriptor attached to every exported span.
//
// Five detectors are merged, left to right, in a fixed order:
//
//  1. OS: operating system type and description
//  2. Process: pid, executable, command line, Go runtime and owner
//  3. SDK: service.name provided by the SDK (OTEL_SERVICE_NAME or a fallback)
//  4. Env: attributes from OTEL_RESOURCE_ATTRIBUTES
//  5. Telemetry: telemetry.sdk.* identity of the OpenTelemetry library
//
// When two detectors report the same attribute key the later detector wins.
//
// Each detector separates lookups which only read in-process state from lookups
// which may block (syscalls, user lookups, cloud metadata servers). The
// latter are bounded by a detection budget. A zero budget, the default,
// skips them so that resource detection never delays startup.
package detect
