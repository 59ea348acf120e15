// Watchlog - Bounded Watch-History Logger for YouTube
// Copyright 2026 The Watchlog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchlog/watchlog

// Package metrics provides Prometheus instrumentation for the intake
// pipeline, the catalog client, the persistent stores, and the websocket hub.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pipeline metrics

	// IntakeEvents counts intake events by outcome:
	// logged, suppressed, fallback, fetch_failed, storage_failed.
	IntakeEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watchlog_intake_events_total",
			Help: "Total intake events processed, by outcome",
		},
		[]string{"outcome"},
	)

	IntakeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "watchlog_intake_duration_seconds",
			Help:    "End-to-end intake pipeline duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Catalog client metrics

	CatalogRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watchlog_catalog_requests_total",
			Help: "Total catalog API requests, by operation and result",
		},
		[]string{"operation", "result"},
	)

	CatalogRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "watchlog_catalog_primary_retries_total",
			Help: "Total retry attempts for the primary video lookup",
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "watchlog_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Category cache metrics

	CategoryCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "watchlog_category_cache_hits_total",
			Help: "Total category name cache hits",
		},
	)

	CategoryCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "watchlog_category_cache_misses_total",
			Help: "Total category name cache misses",
		},
	)

	// Store metrics

	LogSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "watchlog_log_entries",
			Help: "Current number of entries in the watch log",
		},
	)

	LogEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "watchlog_log_evictions_total",
			Help: "Total entries evicted from the watch log (FIFO on capacity)",
		},
	)

	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watchlog_store_errors_total",
			Help: "Total persistent store errors, by store",
		},
		[]string{"store"},
	)

	// WebSocket metrics

	WebSocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "watchlog_websocket_clients",
			Help: "Current number of connected websocket clients",
		},
	)

	NotificationsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "watchlog_notifications_dropped_total",
			Help: "Notifications dropped because a client send buffer was full",
		},
	)
)
