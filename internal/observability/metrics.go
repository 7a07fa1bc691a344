// Package observability owns the Prometheus collectors exported on /metrics.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "rest_between_sets"

var (
	storeOperationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "store",
		Name:      "operation_duration_seconds",
		Help:      "Latency of document gateway operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"driver", "operation"})

	storeOperationErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "store",
		Name:      "operation_errors_total",
		Help:      "Document gateway operations that returned an error, by kind.",
	}, []string{"driver", "operation", "kind"})

	paginationExpansions = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "pagination",
		Name:      "expansions",
		Help:      "Refetches needed to fill one owner-scoped page.",
		Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
	}, []string{"collection"})

	relationshipOps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "relationships",
		Name:      "operations_total",
		Help:      "Link, unlink and cascade operations by outcome.",
	}, []string{"operation", "outcome"})

	eventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "events",
		Name:      "published_total",
		Help:      "Lifecycle events handed to the broker, by topic and outcome.",
	}, []string{"topic", "outcome"})

	lastWriteGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "store",
		Name:      "last_write_timestamp_seconds",
		Help:      "Unix timestamp of the most recent successful write.",
	})
)

func init() {
	prometheus.MustRegister(
		storeOperationDuration,
		storeOperationErrors,
		paginationExpansions,
		relationshipOps,
		eventsPublished,
		lastWriteGauge,
	)
}

// ObserveStoreOperation records latency and, when kind is non-empty, a failure.
func ObserveStoreOperation(driver, operation string, elapsed time.Duration, kind string) {
	storeOperationDuration.WithLabelValues(driver, operation).Observe(elapsed.Seconds())
	if kind != "" {
		storeOperationErrors.WithLabelValues(driver, operation, kind).Inc()
	}
}

// RecordWrite updates the write watermark.
func RecordWrite(ts time.Time) {
	if ts.IsZero() {
		return
	}
	lastWriteGauge.Set(float64(ts.Unix()))
}

// RecordPaginationExpansions observes how many times a page was refetched.
func RecordPaginationExpansions(collection string, n int) {
	paginationExpansions.WithLabelValues(collection).Observe(float64(n))
}

// RecordRelationship counts a relationship operation outcome.
func RecordRelationship(operation, outcome string) {
	relationshipOps.WithLabelValues(operation, outcome).Inc()
}

// RecordEventPublished counts a publish attempt.
func RecordEventPublished(topic string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	eventsPublished.WithLabelValues(topic, outcome).Inc()
}
