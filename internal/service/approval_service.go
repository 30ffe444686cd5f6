package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/rotation-portal-api/internal/dto"
	"github.com/noah-isme/rotation-portal-api/internal/models"
	"github.com/noah-isme/rotation-portal-api/internal/repository"
	appErrors "github.com/noah-isme/rotation-portal-api/pkg/errors"
)

// Approval stages reported in APPROVAL_STEP_FAILED details and step failure metrics.
const (
	StageLoadRoster        = "load_roster"
	StageCreateEnrollments = "create_enrollments"
	StageResolveServices   = "resolve_services"
	StageCreateRotations   = "create_rotations"
	StageCleanupCandidates = "cleanup_candidates"
	StageDeleteCandidates  = "delete_candidates"
)

// CleanupIncompleteWarning is attached to approvals whose roster could not be discarded.
const CleanupIncompleteWarning = "enrollments created, cleanup incomplete"

const defaultApprovalLockTTL = 2 * time.Minute

type rotationRequestStore interface {
	GetByID(ctx context.Context, id string) (*models.RotationRequest, error)
	Transition(ctx context.Context, params repository.TransitionParams) error
}

type rosterStore interface {
	ListByRequest(ctx context.Context, requestID string) ([]models.Candidate, error)
	DeleteByRequest(ctx context.Context, requestID string) (int, error)
	DeletePendingByRequest(ctx context.Context, requestID string) (int, error)
}

type trainingCenterReader interface {
	GetByID(ctx context.Context, id string) (*models.TrainingCenter, error)
}

type enrollmentStore interface {
	CreateBatch(ctx context.Context, enrollments []models.Enrollment) error
	ListBySourceRequest(ctx context.Context, requestID string) ([]models.Enrollment, error)
}

type rotationAssignmentStore interface {
	CreateBatch(ctx context.Context, assignments []models.RotationAssignment) error
	EnrollmentsWithAssignment(ctx context.Context, enrollmentIDs []string) (map[string]bool, error)
}

type serviceResolver interface {
	Resolve(ctx context.Context, names []string) (*CatalogResolution, error)
}

type approvalLocker interface {
	Acquire(ctx context.Context, requestID string, ttl time.Duration) (string, bool, error)
	Release(ctx context.Context, requestID, token string) error
}

type decisionPublisher interface {
	Publish(ctx context.Context, event dto.DecisionEvent) error
}

type approvalRecorder interface {
	ObserveApprovalDecision(decision, outcome string, duration time.Duration)
	IncApprovalStepFailure(stage string)
}

// ApprovalStores groups the persistence collaborators of the approval workflow.
type ApprovalStores struct {
	Requests        rotationRequestStore
	Candidates      rosterStore
	TrainingCenters trainingCenterReader
	Enrollments     enrollmentStore
	Rotations       rotationAssignmentStore
}

// ApprovalService drives rotation requests from pending to a terminal state and materializes
// approved rosters into enrollments and rotation assignments.
type ApprovalService struct {
	requests   rotationRequestStore
	candidates rosterStore
	centers    trainingCenterReader
	enroll     enrollmentStore
	rotations  rotationAssignmentStore
	catalog    serviceResolver
	audit      auditLogger
	locks      approvalLocker
	lockTTL    time.Duration
	publisher  decisionPublisher
	metrics    approvalRecorder
	logger     *zap.Logger
	now        func() time.Time
}

// ApprovalServiceOption configures the service.
type ApprovalServiceOption func(*ApprovalService)

// WithApprovalLock serializes decisions per request through locker.
func WithApprovalLock(locker approvalLocker, ttl time.Duration) ApprovalServiceOption {
	return func(s *ApprovalService) {
		if locker == nil {
			return
		}
		s.locks = locker
		if ttl > 0 {
			s.lockTTL = ttl
		}
	}
}

// WithDecisionPublisher notifies training centers about terminal decisions.
func WithDecisionPublisher(publisher decisionPublisher) ApprovalServiceOption {
	return func(s *ApprovalService) {
		if publisher != nil {
			s.publisher = publisher
		}
	}
}

// WithApprovalMetrics records decision outcomes.
func WithApprovalMetrics(recorder approvalRecorder) ApprovalServiceOption {
	return func(s *ApprovalService) {
		if recorder != nil {
			s.metrics = recorder
		}
	}
}

// WithApprovalClock overrides the decision timestamp source.
func WithApprovalClock(now func() time.Time) ApprovalServiceOption {
	return func(s *ApprovalService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewApprovalService constructs the service with defaults.
func NewApprovalService(stores ApprovalStores, catalog serviceResolver, audit auditLogger, logger *zap.Logger, opts ...ApprovalServiceOption) *ApprovalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &ApprovalService{
		requests:   stores.Requests,
		candidates: stores.Candidates,
		centers:    stores.TrainingCenters,
		enroll:     stores.Enrollments,
		rotations:  stores.Rotations,
		catalog:    catalog,
		audit:      audit,
		lockTTL:    defaultApprovalLockTTL,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Approve marks a pending request approved, then creates one enrollment and one rotation
// assignment per candidate and discards the roster. Steps run strictly in order. A failure after
// the status write leaves the request approved and is reported with the failing stage.
func (s *ApprovalService) Approve(ctx context.Context, requestID, operatorID string) (*dto.ApprovalResult, error) {
	if strings.TrimSpace(operatorID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "operator is required")
	}
	release, err := s.lock(ctx, requestID)
	if err != nil {
		return nil, err
	}
	defer release()

	started := time.Now()
	request, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !request.Status.CanTransitionTo(models.RequestStatusApproved) {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("request is already %s", request.Status))
	}
	if _, err := s.loadRoster(ctx, request.ID); err != nil {
		return nil, err
	}
	center := s.loadCenter(ctx, request.TrainingCenterID)

	decidedAt := s.now()
	err = s.requests.Transition(ctx, repository.TransitionParams{
		ID:          request.ID,
		Status:      models.RequestStatusApproved,
		RespondedBy: operatorID,
		RespondedAt: decidedAt,
	})
	if err != nil {
		s.observeDecision(models.RequestStatusApproved, "failed", started)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "request already processed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark request approved")
	}

	// Roster edits are only accepted while pending, so the roster read after the status write is
	// the one being approved.
	candidates, err := s.candidates.ListByRequest(ctx, request.ID)
	if err != nil {
		s.observeDecision(models.RequestStatusApproved, "partial", started)
		return nil, s.stepFailure(request.ID, StageLoadRoster, err)
	}
	result, err := s.materialize(ctx, request, center, candidates, nil, nil)
	if err != nil {
		s.observeDecision(models.RequestStatusApproved, "partial", started)
		return nil, err
	}

	s.emitAudit(ctx, operatorID, models.AuditActionRequestApprove, request, result)
	s.publish(ctx, dto.DecisionEvent{
		RequestID:          request.ID,
		TrainingCenterID:   request.TrainingCenterID,
		Decision:           models.RequestStatusApproved,
		EnrollmentsCreated: result.EnrollmentsCreated,
		DecidedBy:          operatorID,
		DecidedAt:          decidedAt,
	})
	s.observeDecision(models.RequestStatusApproved, "success", started)
	s.logger.Info("rotation request approved",
		zap.String("request_id", request.ID),
		zap.String("operator_id", operatorID),
		zap.Int("enrollments_created", result.EnrollmentsCreated),
		zap.Int("rotations_created", result.RotationsCreated),
		zap.Bool("cleanup_incomplete", result.CleanupIncomplete),
	)
	return result, nil
}

// ResumeApproval re-runs the materialization of an approved request whose roster was left behind
// by a failed or interrupted approval. Candidates already enrolled from this request and
// enrollments already placed are skipped, so repeated calls never duplicate records.
func (s *ApprovalService) ResumeApproval(ctx context.Context, requestID, operatorID string) (*dto.ApprovalResult, error) {
	if strings.TrimSpace(operatorID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "operator is required")
	}
	release, err := s.lock(ctx, requestID)
	if err != nil {
		return nil, err
	}
	defer release()

	request, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != models.RequestStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "only approved requests can be resumed")
	}
	candidates, err := s.loadRoster(ctx, request.ID)
	if err != nil {
		return nil, err
	}
	center := s.loadCenter(ctx, request.TrainingCenterID)

	existing, err := s.enroll.ListBySourceRequest(ctx, request.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load existing enrollments")
	}
	enrolled := make(map[string]string, len(existing))
	enrollmentIDs := make([]string, 0, len(existing))
	for _, e := range existing {
		enrolled[nationalKey(e.NationalID)] = e.ID
		enrollmentIDs = append(enrollmentIDs, e.ID)
	}
	placed, err := s.rotations.EnrollmentsWithAssignment(ctx, enrollmentIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load existing rotations")
	}

	result, err := s.materialize(ctx, request, center, candidates, enrolled, placed)
	if err != nil {
		return nil, err
	}
	s.emitAudit(ctx, operatorID, models.AuditActionRequestResume, request, result)
	s.logger.Info("rotation request approval resumed",
		zap.String("request_id", request.ID),
		zap.String("operator_id", operatorID),
		zap.Int("enrollments_created", result.EnrollmentsCreated),
		zap.Int("rotations_created", result.RotationsCreated),
	)
	return result, nil
}

// Reject discards the roster of a pending request and marks it rejected with reason.
func (s *ApprovalService) Reject(ctx context.Context, requestID, operatorID, reason string) (*dto.RejectResult, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rejection reason is required")
	}
	if strings.TrimSpace(operatorID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "operator is required")
	}
	release, err := s.lock(ctx, requestID)
	if err != nil {
		return nil, err
	}
	defer release()

	started := time.Now()
	request, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !request.Status.CanTransitionTo(models.RequestStatusRejected) {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("request is already %s", request.Status))
	}

	removed, err := s.candidates.DeletePendingByRequest(ctx, request.ID)
	if errors.Is(err, sql.ErrNoRows) {
		s.observeDecision(models.RequestStatusRejected, "failed", started)
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "request already processed")
	}
	if err != nil {
		s.observeDecision(models.RequestStatusRejected, "failed", started)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove candidates, request left pending").
			WithDetail("stage", StageDeleteCandidates).
			WithDetail("requestId", request.ID)
	}

	decidedAt := s.now()
	err = s.requests.Transition(ctx, repository.TransitionParams{
		ID:              request.ID,
		Status:          models.RequestStatusRejected,
		RespondedBy:     operatorID,
		RespondedAt:     decidedAt,
		RejectionReason: &reason,
	})
	if err != nil {
		s.observeDecision(models.RequestStatusRejected, "failed", started)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "request already processed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark request rejected")
	}

	result := &dto.RejectResult{RequestID: request.ID, CandidatesRemoved: removed}
	s.emitAudit(ctx, operatorID, models.AuditActionRequestReject, request, map[string]interface{}{
		"reason":            reason,
		"candidatesRemoved": removed,
	})
	s.publish(ctx, dto.DecisionEvent{
		RequestID:        request.ID,
		TrainingCenterID: request.TrainingCenterID,
		Decision:         models.RequestStatusRejected,
		Reason:           reason,
		DecidedBy:        operatorID,
		DecidedAt:        decidedAt,
	})
	s.observeDecision(models.RequestStatusRejected, "success", started)
	s.logger.Info("rotation request rejected",
		zap.String("request_id", request.ID),
		zap.String("operator_id", operatorID),
		zap.Int("candidates_removed", removed),
	)
	return result, nil
}

// materialize runs steps 2 to 5 of an approval. enrolled maps national ids to enrollments that
// already exist for the request and placed marks enrollments that already have a rotation.
func (s *ApprovalService) materialize(ctx context.Context, request *models.RotationRequest, center *models.TrainingCenter, candidates []models.Candidate, enrolled map[string]string, placed map[string]bool) (*dto.ApprovalResult, error) {
	result := &dto.ApprovalResult{RequestID: request.ID}

	enrollmentByNationalID := make(map[string]string, len(candidates))
	for key, id := range enrolled {
		enrollmentByNationalID[key] = id
	}
	pending := make([]models.Enrollment, 0, len(candidates))
	for _, candidate := range candidates {
		if _, ok := enrollmentByNationalID[nationalKey(candidate.NationalID)]; ok {
			continue
		}
		pending = append(pending, buildEnrollment(request, center, candidate))
	}
	if err := s.enroll.CreateBatch(ctx, pending); err != nil {
		return nil, s.stepFailure(request.ID, StageCreateEnrollments, err)
	}
	for _, e := range pending {
		enrollmentByNationalID[nationalKey(e.NationalID)] = e.ID
	}
	result.EnrollmentsCreated = len(pending)

	names := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		names = append(names, candidate.DesiredService)
	}
	services, err := s.catalog.Resolve(ctx, names)
	if err != nil {
		return nil, s.stepFailure(request.ID, StageResolveServices, err)
	}
	result.ServicesCreated = services.Created

	assignments := make([]models.RotationAssignment, 0, len(candidates))
	for _, candidate := range candidates {
		enrollmentID, ok := enrollmentByNationalID[nationalKey(candidate.NationalID)]
		if !ok {
			s.logger.Warn("no enrollment for candidate, rotation skipped",
				zap.String("request_id", request.ID),
				zap.String("candidate_id", candidate.ID),
			)
			result.SkippedCandidates = append(result.SkippedCandidates, candidate.ID)
			continue
		}
		if placed[enrollmentID] {
			continue
		}
		assignments = append(assignments, buildRotation(request, candidate, enrollmentID, services.Lookup(candidate.DesiredService)))
	}
	if err := s.rotations.CreateBatch(ctx, assignments); err != nil {
		return nil, s.stepFailure(request.ID, StageCreateRotations, err)
	}
	result.RotationsCreated = len(assignments)

	if _, err := s.candidates.DeleteByRequest(ctx, request.ID); err != nil {
		s.logger.Warn("approved request roster not discarded",
			zap.String("request_id", request.ID),
			zap.Error(err),
		)
		s.incStepFailure(StageCleanupCandidates)
		result.CleanupIncomplete = true
		result.Warnings = append(result.Warnings, CleanupIncompleteWarning)
	}
	return result, nil
}

func (s *ApprovalService) stepFailure(requestID, stage string, err error) error {
	s.logger.Error("request approved with incomplete materialization",
		zap.String("request_id", requestID),
		zap.String("stage", stage),
		zap.Error(err),
	)
	s.incStepFailure(stage)
	return appErrors.Wrap(err, appErrors.ErrApprovalStep.Code, appErrors.ErrApprovalStep.Status, fmt.Sprintf("approval step %s failed, request is approved with incomplete materialization", stage)).
		WithDetail("stage", stage).
		WithDetail("requestId", requestID)
}

func (s *ApprovalService) loadRequest(ctx context.Context, id string) (*models.RotationRequest, error) {
	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "rotation request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rotation request")
	}
	return request, nil
}

// loadRoster returns the non-empty roster of a request. Duplicate national ids are refused since
// they would collapse into one enrollment.
func (s *ApprovalService) loadRoster(ctx context.Context, requestID string) ([]models.Candidate, error) {
	candidates, err := s.candidates.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load candidates")
	}
	if len(candidates) == 0 {
		return nil, appErrors.ErrEmptyRoster
	}
	seen := make(map[string]struct{}, len(candidates))
	for _, candidate := range candidates {
		key := nationalKey(candidate.NationalID)
		if key == "" {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("candidate %s has no national id", candidate.ID))
		}
		if _, dup := seen[key]; dup {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("national id %s appears more than once in the roster", key))
		}
		seen[key] = struct{}{}
	}
	return candidates, nil
}

// loadCenter returns nil when the center cannot be read; enrollments then use docent contacts.
func (s *ApprovalService) loadCenter(ctx context.Context, id string) *models.TrainingCenter {
	if s.centers == nil || id == "" {
		return nil
	}
	center, err := s.centers.GetByID(ctx, id)
	if err != nil {
		s.logger.Warn("training center unavailable, using docent contacts",
			zap.String("training_center_id", id),
			zap.Error(err),
		)
		return nil
	}
	return center
}

func (s *ApprovalService) lock(ctx context.Context, requestID string) (func(), error) {
	if s.locks == nil {
		return func() {}, nil
	}
	token, ok, err := s.locks.Acquire(ctx, requestID, s.lockTTL)
	if err != nil {
		s.logger.Warn("approval lock unavailable, relying on conditional status write",
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return func() {}, nil
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrConflict, "request is being processed")
	}
	return func() {
		if err := s.locks.Release(context.WithoutCancel(ctx), requestID, token); err != nil {
			s.logger.Warn("failed to release approval lock", zap.String("request_id", requestID), zap.Error(err))
		}
	}, nil
}

func (s *ApprovalService) emitAudit(ctx context.Context, operatorID, action string, request *models.RotationRequest, values interface{}) {
	if s.audit == nil {
		return
	}
	oldValues, _ := json.Marshal(map[string]interface{}{"status": request.Status})
	newValues, err := json.Marshal(values)
	if err != nil {
		s.logger.Warn("failed to encode audit values", zap.Error(err))
	}
	log := &models.AuditLog{
		UserID:     &operatorID,
		Action:     action,
		Resource:   "rotation_request",
		ResourceID: &request.ID,
		OldValues:  oldValues,
		NewValues:  newValues,
		IPAddress:  "system",
		UserAgent:  "approval-service",
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func (s *ApprovalService) publish(ctx context.Context, event dto.DecisionEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish decision event",
			zap.String("request_id", event.RequestID),
			zap.String("decision", string(event.Decision)),
			zap.Error(err),
		)
	}
}

func (s *ApprovalService) observeDecision(decision models.RequestStatus, outcome string, started time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveApprovalDecision(string(decision), outcome, time.Since(started))
}

func (s *ApprovalService) incStepFailure(stage string) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncApprovalStepFailure(stage)
}

func buildEnrollment(request *models.RotationRequest, center *models.TrainingCenter, c models.Candidate) models.Enrollment {
	start, end := rotationWindow(request, c)
	enrollment := models.Enrollment{
		SourceRequestID:  request.ID,
		TrainingCenterID: request.TrainingCenterID,
		NationalID:       nationalKey(c.NationalID),
		FirstName:        c.FirstName,
		LastName:         c.LastName,
		Email:            c.Email,
		Phone:            c.Phone,
		Career:           c.Career,
		Level:            c.Level,
		ContactName:      c.DocentName,
		ContactEmail:     c.DocentEmail,
		ContactPhone:     c.DocentPhone,
		ScheduleStart:    c.ScheduleStart,
		ScheduleEnd:      c.ScheduleEnd,
		RotationStart:    start,
		RotationEnd:      end,
		Status:           models.EnrollmentStatusInRotation,
		Active:           true,
	}
	if center != nil {
		enrollment.ContactName = firstNonBlank(center.ContactName, c.DocentName)
		enrollment.ContactEmail = firstNonBlank(center.ContactEmail, c.DocentEmail)
		enrollment.ContactPhone = firstNonBlank(center.ContactPhone, c.DocentPhone)
	}
	return enrollment
}

func buildRotation(request *models.RotationRequest, c models.Candidate, enrollmentID string, serviceID *string) models.RotationAssignment {
	start, end := rotationWindow(request, c)
	return models.RotationAssignment{
		EnrollmentID:      enrollmentID,
		ClinicalServiceID: serviceID,
		StartDate:         start,
		EndDate:           end,
		ScheduleStart:     c.ScheduleStart,
		ScheduleEnd:       c.ScheduleEnd,
		Status:            models.RotationAssignmentActive,
		Notes:             strings.TrimSpace(request.Comments),
	}
}

// rotationWindow uses the candidate's own dates only when both ends are present.
func rotationWindow(request *models.RotationRequest, c models.Candidate) (time.Time, time.Time) {
	if c.StartDate != nil && c.EndDate != nil {
		return *c.StartDate, *c.EndDate
	}
	return request.StartDate, request.EndDate
}

func nationalKey(nationalID string) string {
	return strings.TrimSpace(nationalID)
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
