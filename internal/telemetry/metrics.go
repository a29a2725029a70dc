/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "timeline"

var (
	// StepChanges counts active step changes by what caused them.
	StepChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "step_changes_total",
		Help:      "Active step changes, by source (tick or select).",
	}, []string{"source"})

	// StepIndex is the index of the active step.
	StepIndex = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "step_index",
		Help:      "Index of the active step.",
	})

	// Playing is 1 while the timeline auto-advances.
	Playing = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "playing",
		Help:      "Whether the timeline is auto-advancing (1) or paused (0).",
	})

	// WebsocketClients is the number of connected websocket clients.
	WebsocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "websocket_clients",
		Help:      "Connected websocket clients.",
	})

	// APIRequestsTotal counts HTTP requests.
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "endpoint", "status"})

	// APIRequestDuration observes HTTP request latency.
	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "api_request_duration_seconds",
		Help:      "HTTP request latency by method, route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "endpoint", "status"})

	// APIActiveConnections is the number of in-flight HTTP requests.
	APIActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "api_active_connections",
		Help:      "In-flight HTTP requests.",
	})
)

// RecordStep updates the step metrics for a change caused by source.
func RecordStep(source string, index int) {
	StepChanges.WithLabelValues(source).Inc()
	StepIndex.Set(float64(index))
}

// RecordPlayback updates the playing gauge.
func RecordPlayback(playing bool) {
	if playing {
		Playing.Set(1)
		return
	}
	Playing.Set(0)
}

// Handler exposes metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
