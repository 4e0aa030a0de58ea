// Package metrics exposes Prometheus collectors for the sync engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SyncCollector records run-level and account-level engine outcomes.
type SyncCollector struct {
	registry      *prometheus.Registry
	runDuration   *prometheus.HistogramVec
	accountsTotal *prometheus.CounterVec
	videosTotal   *prometheus.CounterVec
}

// NewSyncCollector constructs a collector with default histograms/counters.
func NewSyncCollector() (*SyncCollector, error) {
	registry := prometheus.NewRegistry()

	runDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "videosync",
		Subsystem: "engine",
		Name:      "run_duration_seconds",
		Help:      "Latency distribution for full sync runs.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"trigger"})

	accountsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "videosync",
		Subsystem: "engine",
		Name:      "accounts_total",
		Help:      "Total accounts processed, by outcome.",
	}, []string{"platform", "outcome"})

	videosTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "videosync",
		Subsystem: "engine",
		Name:      "videos_total",
		Help:      "Total videos written, by action.",
	}, []string{"platform", "action"})

	if err := registry.Register(runDuration); err != nil {
		return nil, err
	}
	if err := registry.Register(accountsTotal); err != nil {
		return nil, err
	}
	if err := registry.Register(videosTotal); err != nil {
		return nil, err
	}

	return &SyncCollector{
		registry:      registry,
		runDuration:   runDuration,
		accountsTotal: accountsTotal,
		videosTotal:   videosTotal,
	}, nil
}

// Handler returns an HTTP handler for exposing Prometheus metrics.
func (c *SyncCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveRun records the duration of a completed run.
func (c *SyncCollector) ObserveRun(manual bool, d time.Duration) {
	if c == nil {
		return
	}
	trigger := "scheduled"
	if manual {
		trigger = "manual"
	}
	c.runDuration.WithLabelValues(trigger).Observe(d.Seconds())
}

// AccountSynced records one processed account.
func (c *SyncCollector) AccountSynced(platform string, failed bool) {
	if c == nil {
		return
	}
	outcome := "ok"
	if failed {
		outcome = "failed"
	}
	c.accountsTotal.WithLabelValues(platform, outcome).Inc()
}

// VideosWritten records videos committed for an account.
func (c *SyncCollector) VideosWritten(platform, action string, n int) {
	if c == nil || n == 0 {
		return
	}
	c.videosTotal.WithLabelValues(platform, action).Add(float64(n))
}
