package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/rotation-portal-api/internal/models"
)

// EnrollmentRepository handles persistence of enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// CreateBatch persists all enrollments in one statement, filling ids and defaults in place.
func (r *EnrollmentRepository) CreateBatch(ctx context.Context, enrollments []models.Enrollment) error {
	if len(enrollments) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range enrollments {
		e := &enrollments[i]
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		if e.Status == "" {
			e.Status = models.EnrollmentStatusInRotation
		}
	}
	const query = `INSERT INTO enrollments
	(id, source_request_id, training_center_id, national_id, first_name, last_name, email, phone, career, level,
	 contact_name, contact_email, contact_phone, schedule_start, schedule_end, rotation_start, rotation_end, status, active, created_at)
	VALUES (:id, :source_request_id, :training_center_id, :national_id, :first_name, :last_name, :email, :phone, :career, :level,
	 :contact_name, :contact_email, :contact_phone, :schedule_start, :schedule_end, :rotation_start, :rotation_end, :status, :active, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollments); err != nil {
		return fmt.Errorf("create enrollments: %w", err)
	}
	return nil
}

// ListBySourceRequest returns enrollments materialized from a request.
func (r *EnrollmentRepository) ListBySourceRequest(ctx context.Context, requestID string) ([]models.Enrollment, error) {
	const query = `SELECT id, source_request_id, training_center_id, national_id, first_name, last_name, email, phone, career, level,
       contact_name, contact_email, contact_phone, schedule_start, schedule_end, rotation_start, rotation_end, status, active, created_at
	FROM enrollments WHERE source_request_id = $1`
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, requestID); err != nil {
		return nil, fmt.Errorf("list request enrollments: %w", err)
	}
	return enrollments, nil
}
