// Copyright (c) 2026 julianocosta89 and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package otlp builds exporters which ship spans, metrics and log records
// to an OTLP collector.
//
// The BuildDefaultGrpc* builders leave every setting to the exporter
// library, which reads the standard OTEL_EXPORTER_OTLP_* environment
// variables and otherwise targets localhost:4317.
package otlp
