// Package metrics exports ledger and HTTP metrics to Prometheus.
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector implements ledger.MetricsCollector on top of Prometheus vectors.
type Collector struct {
	operationDuration *prometheus.HistogramVec
	operationResults  *prometheus.CounterVec
	cacheLookups      *prometheus.CounterVec
	errors            *prometheus.CounterVec
	transactions      *prometheus.CounterVec
	volume            *prometheus.CounterVec
	replays           *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewCollector registers every metric with reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		operationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ledger_operation_duration_seconds",
			Help:    "Latency distribution of ledger operations",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"operation"}),
		operationResults: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_operations_total",
			Help: "Ledger operations, labeled by result",
		}, []string{"operation", "result"}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_cache_lookups_total",
			Help: "Balance cache lookups, labeled by hit or miss",
		}, []string{"cache", "result"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_errors_total",
			Help: "Ledger errors by operation and error class",
		}, []string{"operation", "type"}),
		transactions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_transactions_total",
			Help: "Committed balance-changing transactions",
		}, []string{"type"}),
		volume: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_transaction_volume_minor_units_total",
			Help: "Committed transaction volume in minor currency units",
		}, []string{"type"}),
		replays: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_idempotent_replays_total",
			Help: "Requests answered from a previously recorded outcome",
		}, []string{"operation"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_http_requests_total",
			Help: "Total HTTP requests processed, labeled by status code",
		}, []string{"method", "endpoint", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ledger_http_request_duration_seconds",
			Help:    "Latency distribution of HTTP requests",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"method", "endpoint"}),
	}
}

func (c *Collector) RecordOperationDuration(operation string, d time.Duration) {
	c.operationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func (c *Collector) RecordOperationResult(operation, result string) {
	c.operationResults.WithLabelValues(operation, result).Inc()
}

func (c *Collector) RecordCacheHit(cache string) {
	c.cacheLookups.WithLabelValues(cache, "hit").Inc()
}

func (c *Collector) RecordCacheMiss(cache string) {
	c.cacheLookups.WithLabelValues(cache, "miss").Inc()
}

func (c *Collector) RecordError(operation, errType string) {
	c.errors.WithLabelValues(operation, errType).Inc()
}

func (c *Collector) RecordTransaction(txType string, amount int64) {
	c.transactions.WithLabelValues(txType).Inc()
	if amount > 0 {
		c.volume.WithLabelValues(txType).Add(float64(amount))
	}
}

func (c *Collector) RecordIdempotentReplay(operation string) {
	c.replays.WithLabelValues(operation).Inc()
}

// Middleware records request counts and latency per route pattern.
func (c *Collector) Middleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		start := time.Now()
		err := ctx.Next()

		endpoint := ctx.Route().Path
		status := ctx.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		c.httpRequests.WithLabelValues(ctx.Method(), endpoint, strconv.Itoa(status)).Inc()
		c.httpDuration.WithLabelValues(ctx.Method(), endpoint).Observe(time.Since(start).Seconds())
		return err
	}
}
