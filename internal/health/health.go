// Copyright (c) 2026 julianocosta89 and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package health reports whether parts of the service are able to do their job.
package health

import (
	"context"
	"net/http"
	"sync/atomic"
)

// Metric represents anything that can report its health status.
type Metric interface {
	Healthy(context.Context) bool
}

// Binary is a [Metric] which is either healthy or not.
// The zero value is healthy.
type Binary struct {
	unhealthy atomic.Bool
}

// Set records whether the metric is healthy.
func (m *Binary) Set(healthy bool) {
	m.unhealthy.Store(!healthy)
}

// Healthy implements the [Metric] interface.
func (m *Binary) Healthy(context.Context) bool {
	return !m.unhealthy.Load()
}

// AndMetric is healthy when all of its metrics are healthy.
type AndMetric []Metric

// And joins metrics with the logical and operator. An empty
// [AndMetric] is always healthy.
func And(metrics ...Metric) AndMetric {
	return AndMetric(metrics)
}

// Healthy implements the [Metric] interface.
func (m AndMetric) Healthy(ctx context.Context) bool {
	for _, metric := range m {
		if !metric.Healthy(ctx) {
			return false
		}
	}
	return true
}

// NewHandler responds with 200 while m is healthy and 503 otherwise.
func NewHandler(m Metric) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Healthy(r.Context()) {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	})
}
