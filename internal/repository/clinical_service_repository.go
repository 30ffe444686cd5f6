package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/rotation-portal-api/internal/models"
)

// ErrDuplicateServiceName signals that a concurrent writer already created an active service
// with one of the normalized names being inserted.
var ErrDuplicateServiceName = errors.New("clinical service name already exists")

// likeEscaper makes LIKE wildcards and the escape character in a search term match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

const uniqueViolation = "23505"

// ClinicalServiceRepository persists the clinical service catalog. Uniqueness of active names
// is enforced by the partial unique index on normalized_name.
type ClinicalServiceRepository struct {
	db *sqlx.DB
}

// NewClinicalServiceRepository constructs the repository.
func NewClinicalServiceRepository(db *sqlx.DB) *ClinicalServiceRepository {
	return &ClinicalServiceRepository{db: db}
}

// FindByNormalizedNames returns active services whose normalized name is in keys, in one round trip.
func (r *ClinicalServiceRepository) FindByNormalizedNames(ctx context.Context, keys []string) ([]models.ClinicalService, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	const query = `SELECT id, name, normalized_name, active, created_at FROM clinical_services
	WHERE active = TRUE AND normalized_name = ANY($1)`
	var services []models.ClinicalService
	if err := r.db.SelectContext(ctx, &services, query, pq.Array(keys)); err != nil {
		return nil, fmt.Errorf("find clinical services by name: %w", err)
	}
	return services, nil
}

// CreateBatch inserts all services in a single statement. The statement is atomic: on a unique
// violation nothing is inserted and ErrDuplicateServiceName is returned.
func (r *ClinicalServiceRepository) CreateBatch(ctx context.Context, services []models.ClinicalService) error {
	if len(services) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range services {
		svc := &services[i]
		if svc.ID == "" {
			svc.ID = uuid.NewString()
		}
		if svc.CreatedAt.IsZero() {
			svc.CreatedAt = now
		}
		if svc.NormalizedName == "" {
			svc.NormalizedName = models.NormalizeServiceName(svc.Name)
		}
	}
	const query = `INSERT INTO clinical_services (id, name, normalized_name, active, created_at)
	VALUES (:id, :name, :normalized_name, :active, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, services); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("create clinical services: %w", ErrDuplicateServiceName)
		}
		return fmt.Errorf("create clinical services: %w", err)
	}
	return nil
}

// List returns active catalog entries, optionally filtered by a name fragment.
func (r *ClinicalServiceRepository) List(ctx context.Context, search string) ([]models.ClinicalService, error) {
	query := `SELECT id, name, normalized_name, active, created_at FROM clinical_services WHERE active = TRUE`
	args := make([]interface{}, 0, 1)
	if key := models.NormalizeServiceName(search); key != "" {
		args = append(args, "%"+likeEscaper.Replace(key)+"%")
		query += ` AND normalized_name LIKE $1 ESCAPE '\'`
	}
	query += " ORDER BY name ASC"
	var services []models.ClinicalService
	if err := r.db.SelectContext(ctx, &services, query, args...); err != nil {
		return nil, fmt.Errorf("list clinical services: %w", err)
	}
	return services, nil
}
