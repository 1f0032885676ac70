// Copyright (c) 2026 julianocosta89 and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package subscriber

import (
	"context"
	"log/slog"
)

// Redacted replaces the value of every redacted attribute.
const Redacted = "****"

// RedactHandler is a [slog.Handler] which replaces the values of
// attributes with one of the configured keys before passing the record
// on. Keys are matched at any group depth.
type RedactHandler struct {
	inner slog.Handler
	keys  map[string]struct{}
}

// Redact wraps inner so attributes with one of the given keys are never
// written. Redact returns inner unchanged when no keys are given.
func Redact(inner slog.Handler, keys ...string) slog.Handler {
	if len(keys) == 0 {
		return inner
	}

	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return &RedactHandler{inner: inner, keys: set}
}

// Enabled implements the [slog.Handler] interface.
func (h *RedactHandler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return h.inner.Enabled(ctx, lvl)
}

// Handle implements the [slog.Handler] interface.
func (h *RedactHandler) Handle(ctx context.Context, record slog.Record) error {
	attrs := make([]slog.Attr, 0, record.NumAttrs())
	record.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, h.redact(a))
		return true
	})

	r := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	r.AddAttrs(attrs...)
	return h.inner.Handle(ctx, r)
}

// WithAttrs implements the [slog.Handler] interface.
func (h *RedactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = h.redact(a)
	}
	return &RedactHandler{inner: h.inner.WithAttrs(redacted), keys: h.keys}
}

// WithGroup implements the [slog.Handler] interface.
func (h *RedactHandler) WithGroup(name string) slog.Handler {
	return &RedactHandler{inner: h.inner.WithGroup(name), keys: h.keys}
}

func (h *RedactHandler) redact(a slog.Attr) slog.Attr {
	if _, ok := h.keys[a.Key]; ok {
		return slog.String(a.Key, Redacted)
	}

	a.Value = a.Value.Resolve()
	if a.Value.Kind() != slog.KindGroup {
		return a
	}

	group := a.Value.Group()
	redacted := make([]slog.Attr, len(group))
	for i, ga := range group {
		redacted[i] = h.redact(ga)
	}
	return slog.Attr{Key: a.Key, Value: slog.GroupValue(redacted...)}
}
