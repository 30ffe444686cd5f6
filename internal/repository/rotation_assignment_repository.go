package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/rotation-portal-api/internal/models"
)

// RotationAssignmentRepository persists placements of enrollments into clinical services.
type RotationAssignmentRepository struct {
	db *sqlx.DB
}

// NewRotationAssignmentRepository constructs the repository.
func NewRotationAssignmentRepository(db *sqlx.DB) *RotationAssignmentRepository {
	return &RotationAssignmentRepository{db: db}
}

// CreateBatch persists all assignments in one statement.
func (r *RotationAssignmentRepository) CreateBatch(ctx context.Context, assignments []models.RotationAssignment) error {
	if len(assignments) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range assignments {
		a := &assignments[i]
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		if a.Status == "" {
			a.Status = models.RotationAssignmentActive
		}
	}
	const query = `INSERT INTO rotation_assignments
	(id, enrollment_id, clinical_service_id, start_date, end_date, schedule_start, schedule_end, status, notes, created_at)
	VALUES (:id, :enrollment_id, :clinical_service_id, :start_date, :end_date, :schedule_start, :schedule_end, :status, :notes, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignments); err != nil {
		return fmt.Errorf("create rotation assignments: %w", err)
	}
	return nil
}

// EnrollmentsWithAssignment reports which of the given enrollments already have a placement.
func (r *RotationAssignmentRepository) EnrollmentsWithAssignment(ctx context.Context, enrollmentIDs []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(enrollmentIDs))
	if len(enrollmentIDs) == 0 {
		return existing, nil
	}
	const query = `SELECT DISTINCT enrollment_id FROM rotation_assignments WHERE enrollment_id = ANY($1)`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, pq.Array(enrollmentIDs)); err != nil {
		return nil, fmt.Errorf("find assigned enrollments: %w", err)
	}
	for _, id := range ids {
		existing[id] = true
	}
	return existing, nil
}
