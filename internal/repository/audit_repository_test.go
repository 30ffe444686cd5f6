package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rotation-portal-api/internal/models"
)

func TestAuditRepositoryCreateAuditLog(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	operator := "op-1"
	log := &models.AuditLog{UserID: &operator, Action: models.AuditActionRequestApprove, Resource: "rotation_request", NewValues: []byte(`{}`)}
	require.NoError(t, repo.CreateAuditLog(context.Background(), log))
	require.NotEmpty(t, log.ID)
	require.False(t, log.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTrainingCenterRepositoryGetByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTrainingCenterRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM training_centers WHERE id = $1")).
		WithArgs("center-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "contact_name", "contact_email", "contact_phone"}).
			AddRow("center-1", "Universidad", "", "practicas@uni.cl", ""))

	center, err := repo.GetByID(context.Background(), "center-1")
	require.NoError(t, err)
	require.Equal(t, "practicas@uni.cl", center.ContactEmail)
	require.NoError(t, mock.ExpectationsWereMet())
}
