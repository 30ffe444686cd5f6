package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/rotation-portal-api/internal/models"
)

// TrainingCenterRepository reads training centers maintained by the admin screens.
type TrainingCenterRepository struct {
	db *sqlx.DB
}

// NewTrainingCenterRepository constructs the repository.
func NewTrainingCenterRepository(db *sqlx.DB) *TrainingCenterRepository {
	return &TrainingCenterRepository{db: db}
}

// GetByID fetches a training center with its contact fields.
func (r *TrainingCenterRepository) GetByID(ctx context.Context, id string) (*models.TrainingCenter, error) {
	const query = `SELECT id, name, COALESCE(contact_name, '') AS contact_name, COALESCE(contact_email, '') AS contact_email,
       COALESCE(contact_phone, '') AS contact_phone FROM training_centers WHERE id = $1`
	var center models.TrainingCenter
	if err := r.db.GetContext(ctx, &center, query, id); err != nil {
		return nil, err
	}
	return &center, nil
}
