// Copyright (c) 2026 julianocosta89 and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package subscriber bridges log/slog records into the active trace and,
// optionally, into an OpenTelemetry log pipeline.
package subscriber

import (
	"context"
	"log/slog"
	"math"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/trace"
)

// SeverityKey is the span event attribute holding the record level.
const SeverityKey = attribute.Key("log.severity")

// Handler is a [slog.Handler] which forwards records to the span found
// in the record context, if any, and then to an inner handler.
//
// Records logged within a recording span are added to that span as events.
// Records at [slog.LevelError] or above also mark the span as failed.
// When the span context is valid, the record given to the inner handler
// carries an "otel" group with the trace_id and span_id.
type Handler struct {
	inner   slog.Handler
	emitter log.Logger
	attrs   []attribute.KeyValue
	prefix  string
}

// HandlerOption configures a [Handler].
type HandlerOption func(*Handler)

// EmitTo makes the [Handler] also emit every record to l, where the log
// SDK correlates it with the span found in the record context.
func EmitTo(l log.Logger) HandlerOption {
	return func(h *Handler) {
		h.emitter = l
	}
}

// NewHandler returns a [Handler] forwarding to inner.
func NewHandler(inner slog.Handler, opts ...HandlerOption) *Handler {
	h := &Handler{inner: inner}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// New is shorthand for slog.New(NewHandler(inner)).
func New(inner slog.Handler) *slog.Logger {
	return slog.New(NewHandler(inner))
}

// Enabled implements the [slog.Handler] interface.
func (h *Handler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return h.inner.Enabled(ctx, lvl)
}

// Handle implements the [slog.Handler] interface.
func (h *Handler) Handle(ctx context.Context, record slog.Record) error {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		h.addEvent(span, record)
	}
	if h.emitter != nil {
		h.emit(ctx, record)
	}

	spanCtx := span.SpanContext()
	if !spanCtx.IsValid() {
		return h.inner.Handle(ctx, record)
	}

	r := record.Clone()
	r.AddAttrs(
		slog.Group(
			"otel",
			slog.String("trace_id", spanCtx.TraceID().String()),
			slog.String("span_id", spanCtx.SpanID().String()),
		),
	)
	return h.inner.Handle(ctx, r)
}

func (h *Handler) addEvent(span trace.Span, record slog.Record) {
	attrs := make([]attribute.KeyValue, 0, 1+len(h.attrs)+record.NumAttrs())
	attrs = append(attrs, SeverityKey.String(record.Level.String()))
	attrs = append(attrs, h.attrs...)
	record.Attrs(func(a slog.Attr) bool {
		attrs = appendAttr(attrs, h.prefix, a)
		return true
	})

	opts := []trace.EventOption{trace.WithAttributes(attrs...)}
	if !record.Time.IsZero() {
		opts = append(opts, trace.WithTimestamp(record.Time))
	}
	span.AddEvent(record.Message, opts...)

	if record.Level >= slog.LevelError {
		span.SetStatus(codes.Error, record.Message)
	}
}

// Severity maps a [slog.Level] onto the OpenTelemetry severity range.
// The four named slog levels land on DEBUG, INFO, WARN and ERROR.
func Severity(lvl slog.Level) log.Severity {
	return log.Severity(lvl + 9)
}

func (h *Handler) emit(ctx context.Context, record slog.Record) {
	severity := Severity(record.Level)
	if !h.emitter.Enabled(ctx, log.EnabledParameters{Severity: severity}) {
		return
	}

	var r log.Record
	r.SetTimestamp(record.Time)
	r.SetObservedTimestamp(time.Now())
	r.SetSeverity(severity)
	r.SetSeverityText(record.Level.String())
	r.SetBody(log.StringValue(record.Message))

	attrs := slices.Clone(h.attrs)
	record.Attrs(func(a slog.Attr) bool {
		attrs = appendAttr(attrs, h.prefix, a)
		return true
	})
	for _, kv := range attrs {
		r.AddAttributes(log.KeyValueFromAttribute(kv))
	}
	h.emitter.Emit(ctx, r)
}

// WithAttrs implements the [slog.Handler] interface.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}

	next := &Handler{
		inner:   h.inner.WithAttrs(attrs),
		emitter: h.emitter,
		attrs:   slices.Clone(h.attrs),
		prefix:  h.prefix,
	}
	for _, a := range attrs {
		next.attrs = appendAttr(next.attrs, h.prefix, a)
	}
	return next
}

// WithGroup implements the [slog.Handler] interface.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	return &Handler{
		inner:   h.inner.WithGroup(name),
		emitter: h.emitter,
		attrs:   h.attrs,
		prefix:  h.prefix + name + ".",
	}
}

func appendAttr(attrs []attribute.KeyValue, prefix string, a slog.Attr) []attribute.KeyValue {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return attrs
	}

	key := prefix + a.Key
	v := a.Value
	switch v.Kind() {
	case slog.KindGroup:
		groupPrefix := prefix
		if a.Key != "" {
			groupPrefix = key + "."
		}
		for _, ga := range v.Group() {
			attrs = appendAttr(attrs, groupPrefix, ga)
		}
		return attrs
	case slog.KindString:
		return append(attrs, attribute.String(key, v.String()))
	case slog.KindInt64:
		return append(attrs, attribute.Int64(key, v.Int64()))
	case slog.KindUint64:
		u := v.Uint64()
		if u > math.MaxInt64 {
			return append(attrs, attribute.String(key, v.String()))
		}
		return append(attrs, attribute.Int64(key, int64(u)))
	case slog.KindFloat64:
		return append(attrs, attribute.Float64(key, v.Float64()))
	case slog.KindBool:
		return append(attrs, attribute.Bool(key, v.Bool()))
	case slog.KindDuration:
		return append(attrs, attribute.String(key, v.Duration().String()))
	case slog.KindTime:
		return append(attrs, attribute.String(key, v.Time().Format(time.RFC3339Nano)))
	default:
		return append(attrs, attribute.String(key, v.String()))
	}
}
