package persistmatchselection

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "gradmatch-workers/internal/common/errors"
	"gradmatch-workers/internal/common/logger"
	"gradmatch-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	h := NewHandler(LoadConfig(), db, logger.NewTestLogger(t))
	h.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return h, mock
}

func testMatch() *models.Match {
	return &models.Match{
		ID:           "m-1",
		CandidateRef: "c1",
		Program:      models.Program{ID: "p1", Name: "MSc CS"},
		University:   models.University{ID: "u1", Name: "Alpha University"},
		OverallScore: 0.74,
		Category:     models.CategoryTarget,
	}
}

func TestExecute_Success(t *testing.T) {
	h, mock := setupHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("m-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`INSERT INTO match_selections`).
		WithArgs(
			sqlmock.AnyArg(),
			"m-1",
			"c1",
			"p1",
			"u1",
			"target",
			0.74,
			sqlmock.AnyArg(),
			"selected",
			"2026-03-01T12:00:00Z",
		).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	mock.ExpectExec(`INSERT INTO audit_log`).
		WithArgs("match_selected", "match_selection", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	out, err := h.Execute(context.Background(), &Input{MatchID: "m-1", CandidateID: "c1", Match: testMatch()})
	require.NoError(t, err)

	_, parseErr := uuid.Parse(out.SelectionID)
	assert.NoError(t, parseErr)
	assert.Equal(t, "selected", out.SelectionStatus)
	assert.Equal(t, "2026-03-01T12:00:00Z", out.SelectedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_Duplicate(t *testing.T) {
	h, mock := setupHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("m-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err := h.Execute(context.Background(), &Input{MatchID: "m-1", CandidateID: "c1"})
	require.Error(t, err)

	stdErr := apperrors.Normalize(err)
	assert.Equal(t, apperrors.ErrCodeDuplicateSelection, stdErr.Code)
	assert.False(t, stdErr.Retryable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_UniqueViolationIsDuplicate(t *testing.T) {
	h, mock := setupHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT EXISTS`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`INSERT INTO match_selections`).
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	_, err := h.Execute(context.Background(), &Input{MatchID: "m-1"})
	assert.Equal(t, apperrors.ErrCodeDuplicateSelection, apperrors.Normalize(err).Code)
}

func TestExecute_InsertFailureIsRetryable(t *testing.T) {
	h, mock := setupHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT EXISTS`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`INSERT INTO match_selections`).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := h.Execute(context.Background(), &Input{MatchID: "m-1"})
	stdErr := apperrors.Normalize(err)
	assert.Equal(t, apperrors.ErrCodeSelectionPersistFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
	assert.Contains(t, stdErr.Details, "connection reset")
}

func TestExecute_AuditFailureIsIgnored(t *testing.T) {
	h, mock := setupHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT EXISTS`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`INSERT INTO match_selections`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	mock.ExpectExec(`INSERT INTO audit_log`).
		WillReturnError(errors.New("audit table missing"))

	_, err := h.Execute(context.Background(), &Input{MatchID: "m-1"})
	assert.NoError(t, err)
}

func TestExecute_Validation(t *testing.T) {
	h, _ := setupHandler(t)

	_, err := h.Execute(context.Background(), &Input{MatchID: " "})
	assert.Equal(t, apperrors.ErrorCode("BUSINESS_RULE_VIOLATION"), apperrors.Normalize(err).Code)

	_, err = h.Execute(context.Background(), &Input{MatchID: "m-2", Match: testMatch()})
	assert.Contains(t, apperrors.Normalize(err).Details, "does not belong")
}
