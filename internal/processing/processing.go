// Copyright (c) 2026 julianocosta89 and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package processing implements the data processing endpoint.
package processing

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/julianocosta89/oteljavalab/internal/processing"

// ErrNoValues is returned when there's nothing to summarize.
var ErrNoValues = errors.New("processing: no values to summarize")

// ErrOverflow is returned when the sum of the values is not a finite number.
var ErrOverflow = errors.New("processing: sum of values overflows")

// Request is the body accepted by [Handler].
type Request struct {
	Values []float64 `json:"values"`
}

// Summary describes a batch of values.
type Summary struct {
	Count int     `json:"count"`
	Sum   float64 `json:"sum"`
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// Response is written by [Handler]. Every accepted batch gets a new ID
// which is also recorded on the request span.
type Response struct {
	BatchID uuid.UUID `json:"batchId"`
	Summary
}

// Summarize computes the [Summary] of values. The span it records is a
// child of the span in ctx and comes from the same provider.
func Summarize(ctx context.Context, values []float64) (Summary, error) {
	tracer := trace.SpanFromContext(ctx).TracerProvider().Tracer(instrumentationName)
	_, span := tracer.Start(ctx, "Summarize")
	defer span.End()

	span.SetAttributes(attribute.Int("processing.values.count", len(values)))
	if len(values) == 0 {
		span.SetStatus(codes.Error, ErrNoValues.Error())
		return Summary{}, ErrNoValues
	}

	s := Summary{
		Count: len(values),
		Min:   math.Inf(1),
		Max:   math.Inf(-1),
	}
	for _, v := range values {
		s.Sum += v
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	if math.IsInf(s.Sum, 0) {
		span.SetStatus(codes.Error, ErrOverflow.Error())
		return Summary{}, ErrOverflow
	}
	s.Mean = s.Sum / float64(s.Count)
	return s, nil
}

// ResultKey is the attribute telling how a batch counted by [Handler] ended.
const ResultKey = attribute.Key("processing.result")

// Handler serves POST requests whose body is a [Request] and responds with its [Summary].
type Handler struct {
	log     *slog.Logger
	batches metric.Int64Counter
}

// HandlerOption configures a [Handler].
type HandlerOption func(*handlerOptions)

type handlerOptions struct {
	meterProvider metric.MeterProvider
}

// WithMeterProvider sets the provider of the batch counter. It defaults
// to the global meter provider.
func WithMeterProvider(mp metric.MeterProvider) HandlerOption {
	return func(ho *handlerOptions) {
		ho.meterProvider = mp
	}
}

// NewHandler returns a [Handler]. Records are logged through the default
// [slog.Logger] when log is nil.
func NewHandler(log *slog.Logger, opts ...HandlerOption) *Handler {
	ho := &handlerOptions{}
	for _, opt := range opts {
		opt(ho)
	}
	if ho.meterProvider == nil {
		ho.meterProvider = otel.GetMeterProvider()
	}
	if log == nil {
		log = slog.Default()
	}

	batches, err := ho.meterProvider.Meter(instrumentationName).Int64Counter(
		"processing.batches",
		metric.WithDescription("Number of batches received, by result."),
		metric.WithUnit("{batch}"),
	)
	if err != nil {
		otel.Handle(err)
		batches = noop.Int64Counter{}
	}
	return &Handler{log: log, batches: batches}
}

func (h *Handler) count(ctx context.Context, result string) {
	h.batches.Add(ctx, 1, metric.WithAttributes(ResultKey.String(result)))
}

// ServeHTTP implements the [http.Handler] interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	span := trace.SpanFromContext(ctx)

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	var req Request
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		span.RecordError(err)
		h.log.WarnContext(ctx, "failed to decode request", slog.Any("error", err))
		h.count(ctx, "invalid")
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	summary, err := Summarize(ctx, req.Values)
	if errors.Is(err, ErrNoValues) || errors.Is(err, ErrOverflow) {
		span.SetStatus(codes.Error, err.Error())
		h.log.WarnContext(ctx, "rejected batch", slog.Any("error", err))
		h.count(ctx, "rejected")
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if err != nil {
		h.log.ErrorContext(ctx, "failed to summarize values", slog.Any("error", err))
		h.count(ctx, "failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.count(ctx, "ok")

	resp := Response{BatchID: uuid.New(), Summary: summary}
	span.SetAttributes(attribute.String("processing.batch.id", resp.BatchID.String()))

	h.log.InfoContext(
		ctx,
		"summarized values",
		slog.String("batch_id", resp.BatchID.String()),
		slog.Int("count", summary.Count),
		slog.Float64("mean", summary.Mean),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	err = json.NewEncoder(w).Encode(resp)
	if err != nil {
		h.log.ErrorContext(ctx, "failed to write response", slog.Any("error", err))
	}
}
