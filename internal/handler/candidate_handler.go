package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/rotation-portal-api/internal/dto"
	"github.com/noah-isme/rotation-portal-api/internal/models"
	appErrors "github.com/noah-isme/rotation-portal-api/pkg/errors"
	"github.com/noah-isme/rotation-portal-api/pkg/response"
)

type candidateService interface {
	UpdateField(ctx context.Context, candidateID string, req dto.UpdateCandidateFieldRequest, operatorID string) (*models.Candidate, error)
	Remove(ctx context.Context, candidateID, operatorID string) error
}

// CandidateHandler exposes roster corrections for pending requests.
type CandidateHandler struct {
	service candidateService
}

// NewCandidateHandler constructs the handler.
func NewCandidateHandler(service candidateService) *CandidateHandler {
	return &CandidateHandler{service: service}
}

// Update godoc
// @Summary Correct a single candidate field
// @Tags Candidates
// @Accept json
// @Produce json
// @Param id path string true "Candidate ID"
// @Param payload body dto.UpdateCandidateFieldRequest true "Field and new value"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /candidates/{id} [patch]
func (h *CandidateHandler) Update(c *gin.Context) {
	operatorID, ok := requireOperator(c)
	if !ok {
		return
	}
	var req dto.UpdateCandidateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid candidate update payload"))
		return
	}
	candidate, err := h.service.UpdateField(c.Request.Context(), c.Param("id"), req, operatorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, candidate, nil)
}

// Delete godoc
// @Summary Remove a candidate from a pending request
// @Tags Candidates
// @Param id path string true "Candidate ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /candidates/{id} [delete]
func (h *CandidateHandler) Delete(c *gin.Context) {
	operatorID, ok := requireOperator(c)
	if !ok {
		return
	}
	if err := h.service.Remove(c.Request.Context(), c.Param("id"), operatorID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
