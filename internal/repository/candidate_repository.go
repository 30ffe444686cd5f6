package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/rotation-portal-api/internal/models"
)

const candidateColumns = `id, request_id, national_id, first_name, last_name, email, phone, desired_service,
       start_date, end_date, schedule_start, schedule_end, career, level, docent_name, docent_email, docent_phone, created_at`

// pendingParentGuard restricts roster writes to candidates whose request is still pending.
const pendingParentGuard = `EXISTS (SELECT 1 FROM rotation_requests r WHERE r.id = request_candidates.request_id AND r.status = 'pending')`

// CandidateRepository persists the roster attached to pending requests.
type CandidateRepository struct {
	db *sqlx.DB
}

// NewCandidateRepository constructs the repository.
func NewCandidateRepository(db *sqlx.DB) *CandidateRepository {
	return &CandidateRepository{db: db}
}

// ListByRequest returns the roster of a request in submission order.
func (r *CandidateRepository) ListByRequest(ctx context.Context, requestID string) ([]models.Candidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM request_candidates WHERE request_id = $1 ORDER BY created_at ASC, id ASC`
	var candidates []models.Candidate
	if err := r.db.SelectContext(ctx, &candidates, query, requestID); err != nil {
		return nil, fmt.Errorf("list request candidates: %w", err)
	}
	return candidates, nil
}

// GetByID fetches one roster entry.
func (r *CandidateRepository) GetByID(ctx context.Context, id string) (*models.Candidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM request_candidates WHERE id = $1`
	var candidate models.Candidate
	if err := r.db.GetContext(ctx, &candidate, query, id); err != nil {
		return nil, err
	}
	return &candidate, nil
}

// UpdateField writes a single whitelisted column. Returns sql.ErrNoRows when the candidate is
// gone or its request left the pending state.
func (r *CandidateRepository) UpdateField(ctx context.Context, id, column string, value interface{}) error {
	if !isEditableCandidateColumn(column) {
		return fmt.Errorf("update candidate field: column %q is not editable", column)
	}
	query := fmt.Sprintf(`UPDATE request_candidates SET %s = $2 WHERE id = $1 AND %s`, column, pendingParentGuard)
	result, err := r.db.ExecContext(ctx, query, id, value)
	if err != nil {
		return fmt.Errorf("update candidate field: %w", err)
	}
	return expectAffected(result, "update candidate field")
}

// Delete hard-deletes one roster entry of a pending request.
func (r *CandidateRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM request_candidates WHERE id = $1 AND ` + pendingParentGuard
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete candidate: %w", err)
	}
	return expectAffected(result, "delete candidate")
}

// DeleteByRequest removes the whole roster of a request and reports how many rows went away.
func (r *CandidateRepository) DeleteByRequest(ctx context.Context, requestID string) (int, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM request_candidates WHERE request_id = $1`, requestID)
	if err != nil {
		return 0, fmt.Errorf("delete request candidates: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check deleted candidates: %w", err)
	}
	return int(rows), nil
}

// DeletePendingByRequest removes the roster only while its request is still pending. The pending
// check and the delete run as one statement; sql.ErrNoRows means the request left pending first.
func (r *CandidateRepository) DeletePendingByRequest(ctx context.Context, requestID string) (int, error) {
	const query = `WITH parent AS (
		SELECT id FROM rotation_requests WHERE id = $1 AND status = 'pending' FOR UPDATE
	), deleted AS (
		DELETE FROM request_candidates WHERE request_id IN (SELECT id FROM parent) RETURNING 1
	)
	SELECT (SELECT COUNT(*) FROM parent) AS pending, (SELECT COUNT(*) FROM deleted) AS removed`
	var outcome struct {
		Pending int `db:"pending"`
		Removed int `db:"removed"`
	}
	if err := r.db.GetContext(ctx, &outcome, query, requestID); err != nil {
		return 0, fmt.Errorf("delete pending request candidates: %w", err)
	}
	if outcome.Pending == 0 {
		return 0, sql.ErrNoRows
	}
	return outcome.Removed, nil
}

func isEditableCandidateColumn(column string) bool {
	for _, field := range models.EditableCandidateFields {
		if field.Column == column {
			return true
		}
	}
	return false
}

func expectAffected(result sql.Result, op string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows: %w", op, err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
