// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package metrics wraps the Prometheus collectors emitted by the capture
// pipeline and the store: how many calls were captured, how long they
// took, and how many store operations ran, each broken down by
// provider/model and outcome.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds the process's Sentinel collectors. Construct one with
// New and share it across the capture pipeline and store; it is safe for
// concurrent use (every field is itself concurrency-safe).
type Registry struct {
	CapturesTotal      *prometheus.CounterVec
	CaptureLatencyMS   *prometheus.HistogramVec
	StoreOpsTotal      *prometheus.CounterVec
	RegressionFailures prometheus.Counter
}

// New registers and returns a fresh Registry against reg. Pass
// prometheus.DefaultRegisterer for process-wide metrics, or a fresh
// prometheus.NewRegistry() in tests to avoid collisions with other
// packages' collectors.
func New(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		CapturesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_captures_total",
			Help: "Total captured model calls by provider, model, and outcome.",
		}, []string{"provider", "model", "outcome"}),

		CaptureLatencyMS: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sentinel_capture_latency_ms",
			Help:    "Captured call latency in milliseconds.",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}, []string{"provider", "model"}),

		StoreOpsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_store_operations_total",
			Help: "Total store operations by kind and outcome.",
		}, []string{"operation", "outcome"}),

		RegressionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_regression_failures_total",
			Help: "Total regression check records that failed fingerprint comparison.",
		}),
	}
}

// ObserveCapture records one captured call's outcome and latency.
func (r *Registry) ObserveCapture(provider, model, outcome string, latencyMS int) {
	r.CapturesTotal.WithLabelValues(provider, model, outcome).Inc()
	r.CaptureLatencyMS.WithLabelValues(provider, model).Observe(float64(latencyMS))
}

// ObserveStoreOp records one store operation's outcome.
func (r *Registry) ObserveStoreOp(operation, outcome string) {
	r.StoreOpsTotal.WithLabelValues(operation, outcome).Inc()
}
