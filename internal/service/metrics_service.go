package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP traffic and approval decisions.
type MetricsService struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestDuration  *prometheus.HistogramVec
	requestTotal     *prometheus.CounterVec
	decisions        *prometheus.CounterVec
	decisionDuration *prometheus.HistogramVec
	stepFailures     *prometheus.CounterVec
}

// NewMetricsService registers core Prometheus collectors.
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

	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rotation_request_decisions_total",
		Help: "Rotation request decisions by outcome",
	}, []string{"decision", "outcome"})

	decisionDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "approval_duration_seconds",
		Help:    "Duration of approval and rejection workflows",
		Buckets: prometheus.DefBuckets,
	}, []string{"decision"})

	stepFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "approval_step_failures_total",
		Help: "Approval workflow steps that failed after the request was approved",
	}, []string{"stage"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, decisions, decisionDuration, stepFailures, goroutines)

	return &MetricsService{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		decisions:        decisions,
		decisionDuration: decisionDuration,
		stepFailures:     stepFailures,
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

// Registry returns the underlying registry.
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

// ObserveApprovalDecision counts a decision attempt and its duration.
func (m *MetricsService) ObserveApprovalDecision(decision, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(decision, outcome).Inc()
	m.decisionDuration.WithLabelValues(decision).Observe(duration.Seconds())
}

// IncApprovalStepFailure counts a failed post-approval stage.
func (m *MetricsService) IncApprovalStepFailure(stage string) {
	if m == nil {
		return
	}
	m.stepFailures.WithLabelValues(stage).Inc()
}
