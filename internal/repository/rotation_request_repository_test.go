package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rotation-portal-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var requestColumns = []string{"id", "training_center_id", "specialty", "start_date", "end_date", "comments", "status", "responded_at", "responded_by", "rejection_reason", "created_at"}

func TestRotationRequestRepositoryGetByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRotationRequestRepository(db)

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(requestColumns).
		AddRow("req-1", "center-1", "Medicina", start, start.AddDate(0, 3, 0), "", "pending", nil, nil, nil, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM rotation_requests r WHERE r.id = $1")).
		WithArgs("req-1").
		WillReturnRows(rows)

	req, err := repo.GetByID(context.Background(), "req-1")
	require.NoError(t, err)
	require.Equal(t, models.RequestStatusPending, req.Status)
	require.Equal(t, start, req.StartDate)
	require.Nil(t, req.RespondedBy)

	mock.ExpectQuery(regexp.QuoteMeta("FROM rotation_requests r WHERE r.id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRotationRequestRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRotationRequestRepository(db)

	columns := append(append([]string{}, requestColumns...), "training_center_name", "candidate_count")
	rows := sqlmock.NewRows(columns).
		AddRow("req-1", "center-1", "Medicina", time.Now(), time.Now(), "", "pending", nil, nil, nil, time.Now(), "Universidad", 3)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE r.status IN ($1) AND r.training_center_id = $2") + ".*" + regexp.QuoteMeta("ORDER BY r.created_at ASC LIMIT 10 OFFSET 10")).
		WithArgs("pending", "center-1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM rotation_requests r WHERE r.status IN ($1)")).
		WithArgs("pending", "center-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	list, total, err := repo.List(context.Background(), models.RotationRequestFilter{
		Status:           []models.RequestStatus{models.RequestStatusPending},
		TrainingCenterID: "center-1",
		Page:             2,
		PageSize:         10,
	})
	require.NoError(t, err)
	require.Equal(t, 11, total)
	require.Len(t, list, 1)
	require.Equal(t, "Universidad", list[0].TrainingCenterName)
	require.Equal(t, 3, list[0].CandidateCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRotationRequestRepositoryTransition(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRotationRequestRepository(db)

	reason := "no capacity"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE rotation_requests") + ".*" + regexp.QuoteMeta("WHERE id = ? AND status = ?")).
		WithArgs("rejected", "op-1", sqlmock.AnyArg(), reason, "req-1", "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Transition(context.Background(), TransitionParams{
		ID:              "req-1",
		Status:          models.RequestStatusRejected,
		RespondedBy:     "op-1",
		RespondedAt:     time.Now(),
		RejectionReason: &reason,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRotationRequestRepositoryTransitionGuardsPending(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRotationRequestRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE rotation_requests")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.Transition(context.Background(), TransitionParams{ID: "req-1", Status: models.RequestStatusApproved, RespondedBy: "op-1", RespondedAt: time.Now()})
	require.ErrorIs(t, err, sql.ErrNoRows)

	err = repo.Transition(context.Background(), TransitionParams{ID: "req-1", Status: models.RequestStatusPending})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
