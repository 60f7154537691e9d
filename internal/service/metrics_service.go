package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Noel-Teens/pms-server/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP traffic, the
// report cache and the paperwork workflow.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	versionsSubmitted prometheus.Counter
	versionsPruned    prometheus.Counter
	reviews           *prometheus.CounterVec
	notifications     *prometheus.CounterVec
	mailDeliveries    *prometheus.CounterVec

	cacheHitCount  uint64
	cacheMissCount uint64
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	versionsSubmitted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "versions_submitted_total",
		Help: "Versions accepted by the submission workflow",
	})

	versionsPruned := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "versions_pruned_total",
		Help: "Versions removed by the retention manager",
	})

	reviews := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reviews_total",
		Help: "Review decisions by target status",
	}, []string{"status"})

	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_emitted_total",
		Help: "Lifecycle notifications persisted",
	}, []string{"event"})

	mailDeliveries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_mail_deliveries_total",
		Help: "Notification e-mail delivery attempts by outcome",
	}, []string{"outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(
		requestDuration, requestTotal,
		cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		versionsSubmitted, versionsPruned, reviews, notifications, mailDeliveries,
		goroutines,
	)

	return &MetricsService{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		cacheLatency:      cacheLatency,
		cacheWrite:        cacheWrite,
		cacheHitRatio:     cacheHitRatio,
		cacheHits:         cacheHits,
		cacheMisses:       cacheMisses,
		versionsSubmitted: versionsSubmitted,
		versionsPruned:    versionsPruned,
		reviews:           reviews,
		notifications:     notifications,
		mailDeliveries:    mailDeliveries,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// VersionSubmitted counts an accepted submission.
func (m *MetricsService) VersionSubmitted() {
	if m == nil {
		return
	}
	m.versionsSubmitted.Inc()
}

// VersionsPruned counts versions removed by retention.
func (m *MetricsService) VersionsPruned(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.versionsPruned.Add(float64(n))
}

// ReviewRecorded counts a review decision.
func (m *MetricsService) ReviewRecorded(status models.PaperworkStatus) {
	if m == nil {
		return
	}
	m.reviews.WithLabelValues(string(status)).Inc()
}

// NotificationEmitted counts a persisted notification.
func (m *MetricsService) NotificationEmitted(event models.NotificationEvent) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(string(event)).Inc()
}

// MailDelivery counts an e-mail attempt; outcome is "sent" or "failed".
func (m *MetricsService) MailDelivery(outcome string) {
	if m == nil {
		return
	}
	m.mailDeliveries.WithLabelValues(outcome).Inc()
}
