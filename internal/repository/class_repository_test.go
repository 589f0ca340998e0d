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

	"github.com/ortegadev/autoescuela-api/internal/models"
)

func newClassRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestClassRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newClassRepoMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	date := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	class := &models.ClassSession{
		SubjectID:   1,
		ProfessorID: 2,
		ClassDate:   date,
		StartsAt:    date.Add(9 * time.Hour),
		EndsAt:      date.Add(11 * time.Hour),
		MaxCapacity: 12,
	}

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO class_sessions (subject_id, professor_id, schedule_id, class_date, starts_at, ends_at,")).
		WithArgs(int64(1), int64(2), nil, date, class.StartsAt, class.EndsAt,
			12, 12, models.ClassStatusOpen, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	require.NoError(t, repo.Create(context.Background(), class))
	require.Equal(t, int64(7), class.ID)
	require.Equal(t, 12, class.AvailableCapacity)
	require.NoError(t, mock.ExpectationsWereMet())
}

// Deleting a class is a single DELETE on class_sessions; the reservations
// rows go with it through the ON DELETE CASCADE foreign key on
// reservations.class_id (scripts/schema.sql), so no second statement runs.
func TestClassRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newClassRepoMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM class_sessions WHERE id = $1")).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), 7))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newClassRepoMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM class_sessions WHERE id = $1")).
		WithArgs(int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), 99)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryAssignToSchedule(t *testing.T) {
	db, mock, cleanup := newClassRepoMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE class_sessions SET schedule_id = $1, updated_at = $2 WHERE id IN ($3,$4)")).
		WithArgs(int64(5), sqlmock.AnyArg(), int64(1), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	affected, err := repo.AssignToSchedule(context.Background(), []int64{1, 2}, 5)
	require.NoError(t, err)
	require.Equal(t, int64(2), affected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryUnassignMissing(t *testing.T) {
	db, mock, cleanup := newClassRepoMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE class_sessions SET schedule_id = NULL, updated_at = $2 WHERE id = $1")).
		WithArgs(int64(42), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Unassign(context.Background(), 42)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryRoster(t *testing.T) {
	db, mock, cleanup := newClassRepoMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	rows := sqlmock.NewRows([]string{"reservation_id", "student_name", "document", "attended"}).
		AddRow(55, "Ana Ruiz", "11222333", true).
		AddRow(56, "Luis Mora", "44555666", nil)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE res.class_id = $1 AND res.status = $2")).
		WithArgs(int64(10), models.ReservationStatusActive).
		WillReturnRows(rows)

	entries, err := repo.Roster(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "Ana Ruiz", entries[0].StudentName)
	require.Nil(t, entries[1].Attended)
	require.NoError(t, mock.ExpectationsWereMet())
}
