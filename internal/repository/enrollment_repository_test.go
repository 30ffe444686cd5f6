package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rotation-portal-api/internal/models"
)

func TestEnrollmentRepositoryCreateBatch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollments")).
		WillReturnResult(sqlmock.NewResult(0, 2))

	enrollments := []models.Enrollment{
		{SourceRequestID: "req-1", NationalID: "11.111.111-1", Active: true},
		{SourceRequestID: "req-1", NationalID: "22.222.222-2", Active: true},
	}
	require.NoError(t, repo.CreateBatch(context.Background(), enrollments))
	require.NotEmpty(t, enrollments[0].ID)
	require.NotEqual(t, enrollments[0].ID, enrollments[1].ID)
	require.Equal(t, models.EnrollmentStatusInRotation, enrollments[1].Status)

	require.NoError(t, repo.CreateBatch(context.Background(), nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCreateBatchError(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollments")).
		WillReturnError(errors.New("connection refused"))
	err := repo.CreateBatch(context.Background(), []models.Enrollment{{SourceRequestID: "req-1", NationalID: "1"}})
	require.ErrorContains(t, err, "create enrollments")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryListBySourceRequest(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "source_request_id", "national_id", "rotation_start", "status", "active"}).
		AddRow("enr-1", "req-1", "11.111.111-1", time.Now(), "in_rotation", true)
	mock.ExpectQuery(regexp.QuoteMeta("FROM enrollments WHERE source_request_id = $1")).
		WithArgs("req-1").
		WillReturnRows(rows)

	enrollments, err := repo.ListBySourceRequest(context.Background(), "req-1")
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	require.Equal(t, "11.111.111-1", enrollments[0].NationalID)
	require.NoError(t, mock.ExpectationsWereMet())
}
