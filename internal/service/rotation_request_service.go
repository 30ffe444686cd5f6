package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/rotation-portal-api/internal/dto"
	"github.com/noah-isme/rotation-portal-api/internal/models"
	appErrors "github.com/noah-isme/rotation-portal-api/pkg/errors"
)

const (
	defaultRequestPageSize = 20
	maxRequestPageSize     = 100
)

type rotationRequestReader interface {
	GetSummary(ctx context.Context, id string) (*models.RotationRequestSummary, error)
	List(ctx context.Context, filter models.RotationRequestFilter) ([]models.RotationRequestSummary, int, error)
}

type rosterReader interface {
	ListByRequest(ctx context.Context, requestID string) ([]models.Candidate, error)
}

// RotationRequestService serves the review queue read model.
type RotationRequestService struct {
	requests   rotationRequestReader
	candidates rosterReader
	logger     *zap.Logger
}

// NewRotationRequestService constructs the service.
func NewRotationRequestService(requests rotationRequestReader, candidates rosterReader, logger *zap.Logger) *RotationRequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RotationRequestService{requests: requests, candidates: candidates, logger: logger}
}

// List returns requests matching the query with pagination metadata.
func (s *RotationRequestService) List(ctx context.Context, query dto.RotationRequestQuery) ([]models.RotationRequestSummary, *models.Pagination, error) {
	for _, status := range query.Status {
		if !status.Valid() {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown request status: "+string(status))
		}
	}
	page := query.Page
	if page < 1 {
		page = 1
	}
	size := query.PageSize
	if size <= 0 {
		size = defaultRequestPageSize
	}
	if size > maxRequestPageSize {
		size = maxRequestPageSize
	}
	items, total, err := s.requests.List(ctx, models.RotationRequestFilter{
		Status:           query.Status,
		TrainingCenterID: query.TrainingCenterID,
		Page:             page,
		PageSize:         size,
	})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rotation requests")
	}
	return items, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a request with its current roster.
func (s *RotationRequestService) Get(ctx context.Context, id string) (*models.RotationRequestDetail, error) {
	summary, err := s.requests.GetSummary(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "rotation request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rotation request")
	}
	candidates, err := s.candidates.ListByRequest(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load candidates")
	}
	if candidates == nil {
		candidates = []models.Candidate{}
	}
	return &models.RotationRequestDetail{RotationRequestSummary: *summary, Candidates: candidates}, nil
}
