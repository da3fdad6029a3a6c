package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	loginDuration   prometheus.Observer
	loginTotal      *prometheus.CounterVec
	sessionHits     prometheus.Counter
	sessionMisses   prometheus.Counter
}

// NewMetricsService registers the service's collectors.
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

	loginDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "upstream_login_duration_seconds",
		Help:    "Duration of full upstream login flows",
		Buckets: []float64{0.5, 1, 2, 4, 8, 16},
	})

	loginTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_logins_total",
		Help: "Total upstream login attempts",
	}, []string{"outcome"})

	sessionHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "session_cache_hits_total",
		Help: "Total session cache hits",
	})

	sessionMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "session_cache_misses_total",
		Help: "Total session cache misses",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, loginDuration, loginTotal, sessionHits, sessionMisses, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		loginDuration:   loginDuration,
		loginTotal:      loginTotal,
		sessionHits:     sessionHits,
		sessionMisses:   sessionMisses,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records one served request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := []string{method, path, fmt.Sprintf("%d", status)}
	s.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(labels...).Inc()
}

// ObserveLogin records one upstream login attempt.
func (s *MetricsService) ObserveLogin(duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	s.loginDuration.Observe(duration.Seconds())
	s.loginTotal.WithLabelValues(outcome).Inc()
}

// ObserveSessionLookup records a session cache hit or miss.
func (s *MetricsService) ObserveSessionLookup(hit bool) {
	if hit {
		s.sessionHits.Inc()
		return
	}
	s.sessionMisses.Inc()
}
