package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *MetricsService) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rec.Code, rec.Body.String()
}

func TestMetricsServiceApprovalCollectors(t *testing.T) {
	m := NewMetricsService()
	m.ObserveApprovalDecision("approved", "success", 120*time.Millisecond)
	m.ObserveApprovalDecision("approved", "success", 80*time.Millisecond)
	m.ObserveApprovalDecision("rejected", "failed", time.Millisecond)
	m.IncApprovalStepFailure(StageCreateRotations)
	m.ObserveHTTPRequest(http.MethodPost, "/api/v1/rotation-requests/:id/approve", http.StatusOK, 10*time.Millisecond)

	code, body := scrape(t, m)
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, `rotation_request_decisions_total{decision="approved",outcome="success"} 2`)
	require.Contains(t, body, `rotation_request_decisions_total{decision="rejected",outcome="failed"} 1`)
	require.Contains(t, body, `approval_step_failures_total{stage="create_rotations"} 1`)
	require.Contains(t, body, `approval_duration_seconds_count{decision="approved"} 2`)
	require.Contains(t, body, `http_requests_total{method="POST",path="/api/v1/rotation-requests/:id/approve",status="200"} 1`)
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.ObserveApprovalDecision("approved", "success", time.Second)
	m.IncApprovalStepFailure(StageCreateEnrollments)
	m.ObserveHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Second)

	code, _ := scrape(t, m)
	require.Equal(t, http.StatusServiceUnavailable, code)
}
