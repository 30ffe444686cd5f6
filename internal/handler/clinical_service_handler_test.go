package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rotation-portal-api/internal/dto"
	"github.com/noah-isme/rotation-portal-api/internal/models"
)

type catalogMock struct {
	query dto.ClinicalServiceQuery
}

func (m *catalogMock) List(ctx context.Context, query dto.ClinicalServiceQuery) ([]models.ClinicalService, error) {
	m.query = query
	return []models.ClinicalService{{ID: "svc-1", Name: "Cardiología", Active: true}}, nil
}

func TestClinicalServiceHandlerList(t *testing.T) {
	catalog := &catalogMock{}
	h := NewClinicalServiceHandler(catalog)

	c, w := newTestContext(http.MethodGet, "/clinical-services?search=%20cardio%20", "", coordinator)
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cardio", catalog.query.Search)
	assert.NotContains(t, w.Body.String(), "normalized")
}

func TestMetricsHandlerReady(t *testing.T) {
	h := NewMetricsHandler(nil, map[string]ReadinessCheck{
		"postgres": func(ctx context.Context) error { return nil },
	})
	c, w := newTestContext(http.MethodGet, "/ready", "", nil)
	h.Ready(c)
	require.Equal(t, http.StatusOK, w.Code)

	h = NewMetricsHandler(nil, map[string]ReadinessCheck{
		"postgres": func(ctx context.Context) error { return nil },
		"redis":    func(ctx context.Context) error { return errors.New("connection refused") },
	})
	c, w = newTestContext(http.MethodGet, "/ready", "", nil)
	h.Ready(c)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")

	c, w = newTestContext(http.MethodGet, "/metrics", "", nil)
	h.Prometheus(c)
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}
