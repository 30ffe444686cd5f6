package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/rotation-portal-api/internal/dto"
	"github.com/noah-isme/rotation-portal-api/internal/models"
	appErrors "github.com/noah-isme/rotation-portal-api/pkg/errors"
)

const (
	candidateDateLayout = "2006-01-02"
	candidateTimeLayout = "15:04"
)

type candidateStore interface {
	GetByID(ctx context.Context, id string) (*models.Candidate, error)
	UpdateField(ctx context.Context, id, column string, value interface{}) error
	Delete(ctx context.Context, id string) error
}

type requestReader interface {
	GetByID(ctx context.Context, id string) (*models.RotationRequest, error)
}

// CandidateService applies operator corrections to the roster of pending requests.
type CandidateService struct {
	candidates candidateStore
	requests   requestReader
	audit      auditLogger
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewCandidateService constructs the service.
func NewCandidateService(candidates candidateStore, requests requestReader, audit auditLogger, validate *validator.Validate, logger *zap.Logger) *CandidateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CandidateService{candidates: candidates, requests: requests, audit: audit, validator: validate, logger: logger}
}

// UpdateField changes a single whitelisted field of a candidate whose request is still pending.
func (s *CandidateService) UpdateField(ctx context.Context, candidateID string, req dto.UpdateCandidateFieldRequest, operatorID string) (*models.Candidate, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid candidate update payload")
	}
	field, ok := models.EditableCandidateFields[req.Field]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("field %s is not editable", req.Field))
	}
	value, err := parseCandidateValue(field, req.Value)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("invalid value for %s", req.Field))
	}

	candidate, err := s.loadEditable(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if err := checkDateRange(candidate, req.Field, value); err != nil {
		return nil, err
	}

	if err := s.candidates.UpdateField(ctx, candidate.ID, field.Column, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "request is no longer pending")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update candidate")
	}
	updated, err := s.candidates.GetByID(ctx, candidate.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload candidate")
	}

	s.emitAudit(ctx, operatorID, models.AuditActionCandidateUpdate, candidate, updated)
	return updated, nil
}

// Remove deletes a candidate from a pending request.
func (s *CandidateService) Remove(ctx context.Context, candidateID, operatorID string) error {
	candidate, err := s.loadEditable(ctx, candidateID)
	if err != nil {
		return err
	}
	if err := s.candidates.Delete(ctx, candidate.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "request is no longer pending")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove candidate")
	}
	s.emitAudit(ctx, operatorID, models.AuditActionCandidateDelete, candidate, nil)
	return nil
}

// loadEditable returns the candidate when its parent request accepts roster changes.
func (s *CandidateService) loadEditable(ctx context.Context, candidateID string) (*models.Candidate, error) {
	candidate, err := s.candidates.GetByID(ctx, candidateID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "candidate not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load candidate")
	}
	request, err := s.requests.GetByID(ctx, candidate.RequestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "rotation request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rotation request")
	}
	if request.Status != models.RequestStatusPending {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("roster is locked, request is %s", request.Status))
	}
	return candidate, nil
}

func (s *CandidateService) emitAudit(ctx context.Context, operatorID, action string, before, after *models.Candidate) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		UserID:     &operatorID,
		Action:     action,
		Resource:   "candidate",
		ResourceID: &before.ID,
		IPAddress:  "system",
		UserAgent:  "candidate-service",
	}
	log.OldValues, _ = json.Marshal(before)
	if after != nil {
		log.NewValues, _ = json.Marshal(after)
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

// parseCandidateValue converts the raw input into the column value. Empty dates clear the column.
func parseCandidateValue(field models.CandidateField, raw string) (interface{}, error) {
	value := strings.TrimSpace(raw)
	switch field.Kind {
	case models.CandidateFieldDate:
		if value == "" {
			return nil, nil
		}
		parsed, err := time.Parse(candidateDateLayout, value)
		if err != nil {
			return nil, fmt.Errorf("expected YYYY-MM-DD: %w", err)
		}
		return parsed, nil
	case models.CandidateFieldTime:
		if value == "" {
			return "", nil
		}
		parsed, err := time.Parse(candidateTimeLayout, value)
		if err != nil {
			return nil, fmt.Errorf("expected HH:MM: %w", err)
		}
		return parsed.Format(candidateTimeLayout), nil
	default:
		if field.Required && value == "" {
			return nil, errors.New("value is required")
		}
		return value, nil
	}
}

func checkDateRange(candidate *models.Candidate, field string, value interface{}) error {
	date, ok := value.(time.Time)
	if !ok {
		return nil
	}
	switch field {
	case "startDate":
		if candidate.EndDate != nil && date.After(*candidate.EndDate) {
			return appErrors.Clone(appErrors.ErrValidation, "startDate must not be after endDate")
		}
	case "endDate":
		if candidate.StartDate != nil && date.Before(*candidate.StartDate) {
			return appErrors.Clone(appErrors.ErrValidation, "endDate must not be before startDate")
		}
	}
	return nil
}
