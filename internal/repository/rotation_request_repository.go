package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/rotation-portal-api/internal/models"
)

const rotationRequestColumns = `r.id, r.training_center_id, r.specialty, r.start_date, r.end_date, r.comments, r.status,
       r.responded_at, r.responded_by, r.rejection_reason, r.created_at`

// RotationRequestRepository persists rotation requests.
type RotationRequestRepository struct {
	db *sqlx.DB
}

// NewRotationRequestRepository constructs the repository.
func NewRotationRequestRepository(db *sqlx.DB) *RotationRequestRepository {
	return &RotationRequestRepository{db: db}
}

// GetByID fetches a request by identifier.
func (r *RotationRequestRepository) GetByID(ctx context.Context, id string) (*models.RotationRequest, error) {
	query := `SELECT ` + rotationRequestColumns + ` FROM rotation_requests r WHERE r.id = $1`
	var request models.RotationRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// GetSummary fetches a request joined with its training center name and roster size.
func (r *RotationRequestRepository) GetSummary(ctx context.Context, id string) (*models.RotationRequestSummary, error) {
	query := `SELECT ` + rotationRequestColumns + `,
       COALESCE(tc.name, '') AS training_center_name,
       (SELECT COUNT(*) FROM request_candidates c WHERE c.request_id = r.id) AS candidate_count
	FROM rotation_requests r
	LEFT JOIN training_centers tc ON tc.id = r.training_center_id
	WHERE r.id = $1`
	var summary models.RotationRequestSummary
	if err := r.db.GetContext(ctx, &summary, query, id); err != nil {
		return nil, err
	}
	return &summary, nil
}

// List returns requests matching the filter, oldest pending first.
func (r *RotationRequestRepository) List(ctx context.Context, filter models.RotationRequestFilter) ([]models.RotationRequestSummary, int, error) {
	args := make([]interface{}, 0, 4)
	conditions := make([]string, 0, 2)
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("r.status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.TrainingCenterID != "" {
		args = append(args, filter.TrainingCenterID)
		conditions = append(conditions, fmt.Sprintf("r.training_center_id = $%d", len(args)))
	}
	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s,
       COALESCE(tc.name, '') AS training_center_name,
       (SELECT COUNT(*) FROM request_candidates c WHERE c.request_id = r.id) AS candidate_count
	FROM rotation_requests r
	LEFT JOIN training_centers tc ON tc.id = r.training_center_id%s
	ORDER BY r.created_at ASC LIMIT %d OFFSET %d`, rotationRequestColumns, clause, size, offset)

	var requests []models.RotationRequestSummary
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list rotation requests: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM rotation_requests r"+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count rotation requests: %w", err)
	}
	return requests, total, nil
}

// TransitionParams groups the columns written by a terminal transition.
type TransitionParams struct {
	ID              string
	Status          models.RequestStatus
	RespondedBy     string
	RespondedAt     time.Time
	RejectionReason *string
}

// Transition moves a pending request to a terminal status. It returns sql.ErrNoRows when the
// request is missing or no longer pending, so concurrent deciders cannot both succeed.
func (r *RotationRequestRepository) Transition(ctx context.Context, params TransitionParams) error {
	if !models.RequestStatusPending.CanTransitionTo(params.Status) {
		return fmt.Errorf("transition rotation request: illegal target status %q", params.Status)
	}
	const query = `UPDATE rotation_requests
	SET status = :status, responded_by = :responded_by, responded_at = :responded_at, rejection_reason = :rejection_reason
	WHERE id = :id AND status = :pending`
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":               params.ID,
		"status":           params.Status,
		"responded_by":     params.RespondedBy,
		"responded_at":     params.RespondedAt,
		"rejection_reason": params.RejectionReason,
		"pending":          models.RequestStatusPending,
	})
	if err != nil {
		return fmt.Errorf("transition rotation request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rotation request transition rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
