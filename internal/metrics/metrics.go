// Versewatch - Star Citizen Telemetry Tracker
// Copyright 2026 Versewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/versewatch/versewatch

// Package metrics exposes Prometheus instrumentation for the ingestion
// pipeline, the WebSocket fan-out and the notifier handoff.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsIngested counts ingestion outcomes. result is "new" or "duplicate".
	EventsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "versewatch_events_ingested_total",
			Help: "Total number of ingested events by outcome",
		},
		[]string{"result"},
	)

	// IngestErrors counts ingestion failures that surfaced to the caller.
	IngestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "versewatch_ingest_errors_total",
			Help: "Total number of failed ingestion attempts",
		},
		[]string{"reason"}, // "validation", "store", "dedup_resolution"
	)

	// IPChangesRecorded counts player IP address changes written to the audit trail.
	IPChangesRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "versewatch_ip_changes_recorded_total",
			Help: "Total number of player IP address changes audited",
		},
	)

	// IPTrackingErrors counts IP bookkeeping failures (never fatal to ingestion).
	IPTrackingErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "versewatch_ip_tracking_errors_total",
			Help: "Total number of failed IP bookkeeping attempts",
		},
	)

	// HTTPRequests counts API requests by method, route pattern and status.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "versewatch_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPDuration observes request latency by method and route pattern.
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "versewatch_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// HTTPActiveRequests is the number of requests currently in flight.
	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "versewatch_http_active_requests",
			Help: "Current number of in-flight HTTP requests",
		},
	)

	// WSClients is the number of currently connected WebSocket clients.
	WSClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "versewatch_websocket_clients",
			Help: "Current number of connected WebSocket clients",
		},
	)

	// Deliveries counts per-member fan-out results. status is "sent" or "dropped".
	Deliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "versewatch_deliveries_total",
			Help: "Total number of per-subscriber event deliveries by status",
		},
		[]string{"status"},
	)

	// NotifierEnqueued counts events handed off to the notifier loop.
	NotifierEnqueued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "versewatch_notifier_enqueued_total",
			Help: "Total number of events enqueued for the notifier",
		},
	)

	// NotifierDropped counts events that could not be handed off.
	NotifierDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "versewatch_notifier_dropped_total",
			Help: "Total number of events dropped at the notifier handoff",
		},
	)

	// NotifierSends counts chat messages by outcome. status is "sent" or "failed".
	NotifierSends = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "versewatch_notifier_sends_total",
			Help: "Total number of notifier channel sends by status",
		},
		[]string{"status"},
	)
)
