package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/rotation-portal-api/internal/dto"
	"github.com/noah-isme/rotation-portal-api/internal/models"
	"github.com/noah-isme/rotation-portal-api/pkg/response"
)

type clinicalServiceLister interface {
	List(ctx context.Context, query dto.ClinicalServiceQuery) ([]models.ClinicalService, error)
}

// ClinicalServiceHandler exposes the clinical service catalog.
type ClinicalServiceHandler struct {
	catalog clinicalServiceLister
}

// NewClinicalServiceHandler constructs the handler.
func NewClinicalServiceHandler(catalog clinicalServiceLister) *ClinicalServiceHandler {
	return &ClinicalServiceHandler{catalog: catalog}
}

// List godoc
// @Summary List active clinical services
// @Tags ClinicalServices
// @Produce json
// @Param search query string false "Name fragment"
// @Success 200 {object} response.Envelope
// @Router /clinical-services [get]
func (h *ClinicalServiceHandler) List(c *gin.Context) {
	services, err := h.catalog.List(c.Request.Context(), dto.ClinicalServiceQuery{Search: strings.TrimSpace(c.Query("search"))})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, services, nil)
}
