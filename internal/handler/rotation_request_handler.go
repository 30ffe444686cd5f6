package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/rotation-portal-api/internal/dto"
	"github.com/noah-isme/rotation-portal-api/internal/models"
	appErrors "github.com/noah-isme/rotation-portal-api/pkg/errors"
	"github.com/noah-isme/rotation-portal-api/pkg/response"
)

type rotationRequestReader interface {
	List(ctx context.Context, query dto.RotationRequestQuery) ([]models.RotationRequestSummary, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.RotationRequestDetail, error)
}

type approvalWorkflow interface {
	Approve(ctx context.Context, requestID, operatorID string) (*dto.ApprovalResult, error)
	Reject(ctx context.Context, requestID, operatorID, reason string) (*dto.RejectResult, error)
	ResumeApproval(ctx context.Context, requestID, operatorID string) (*dto.ApprovalResult, error)
}

// RotationRequestHandler exposes the review queue and decision endpoints.
type RotationRequestHandler struct {
	requests  rotationRequestReader
	approvals approvalWorkflow
}

// NewRotationRequestHandler constructs the handler.
func NewRotationRequestHandler(requests rotationRequestReader, approvals approvalWorkflow) *RotationRequestHandler {
	return &RotationRequestHandler{requests: requests, approvals: approvals}
}

// List godoc
// @Summary List rotation requests
// @Tags RotationRequests
// @Produce json
// @Param status query string false "Comma separated statuses (pending, approved, rejected)"
// @Param trainingCenterId query string false "Training center ID"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /rotation-requests [get]
func (h *RotationRequestHandler) List(c *gin.Context) {
	query := dto.RotationRequestQuery{
		TrainingCenterID: strings.TrimSpace(c.Query("trainingCenterId")),
		Page:             queryInt(c, "page"),
		PageSize:         queryInt(c, "pageSize"),
	}
	if rawStatus := c.Query("status"); rawStatus != "" {
		for _, part := range strings.Split(rawStatus, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			query.Status = append(query.Status, models.RequestStatus(part))
		}
	}
	items, pagination, err := h.requests.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get rotation request detail with roster
// @Tags RotationRequests
// @Produce json
// @Param id path string true "Rotation request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /rotation-requests/{id} [get]
func (h *RotationRequestHandler) Get(c *gin.Context) {
	detail, err := h.requests.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Approve godoc
// @Summary Approve a pending rotation request
// @Description Materializes the roster into enrollments and rotation assignments. Cleanup problems are reported in meta.warnings.
// @Tags RotationRequests
// @Produce json
// @Param id path string true "Rotation request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /rotation-requests/{id}/approve [post]
func (h *RotationRequestHandler) Approve(c *gin.Context) {
	operatorID, ok := requireOperator(c)
	if !ok {
		return
	}
	result, err := h.approvals.Approve(c.Request.Context(), c.Param("id"), operatorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.WithWarnings(c, result, result.Warnings)
}

// Resume godoc
// @Summary Resume an approval left incomplete
// @Tags RotationRequests
// @Produce json
// @Param id path string true "Rotation request ID"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /rotation-requests/{id}/resume [post]
func (h *RotationRequestHandler) Resume(c *gin.Context) {
	operatorID, ok := requireOperator(c)
	if !ok {
		return
	}
	result, err := h.approvals.ResumeApproval(c.Request.Context(), c.Param("id"), operatorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.WithWarnings(c, result, result.Warnings)
}

// Reject godoc
// @Summary Reject a pending rotation request
// @Tags RotationRequests
// @Accept json
// @Produce json
// @Param id path string true "Rotation request ID"
// @Param payload body dto.RejectRequest true "Rejection reason"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /rotation-requests/{id}/reject [post]
func (h *RotationRequestHandler) Reject(c *gin.Context) {
	operatorID, ok := requireOperator(c)
	if !ok {
		return
	}
	var req dto.RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid rejection payload"))
		return
	}
	result, err := h.approvals.Reject(c.Request.Context(), c.Param("id"), operatorID, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

func queryInt(c *gin.Context, key string) int {
	value, err := strconv.Atoi(strings.TrimSpace(c.Query(key)))
	if err != nil {
		return 0
	}
	return value
}
