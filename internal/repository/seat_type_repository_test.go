package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSeatTypeRepo(t *testing.T) (*SeatTypeRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSeatTypeRepo(db), mock
}

func TestDeleteByIDAndLibrary(t *testing.T) {
	countRow := func(n int) *sqlmock.Rows {
		return sqlmock.NewRows([]string{"count"}).AddRow(n)
	}

	t.Run("deletes unreferenced type", func(t *testing.T) {
		repo, mock := newSeatTypeRepo(t)
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM seats WHERE seat_type_id = \\? AND library_id = \\?").
			WithArgs(uint64(10), uint64(2)).WillReturnRows(countRow(0))
		mock.ExpectExec("DELETE FROM seat_types").
			WithArgs(uint64(10), uint64(2)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.DeleteByIDAndLibrary(context.Background(), 10, 2))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("type in use is a conflict", func(t *testing.T) {
		repo, mock := newSeatTypeRepo(t)
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM seats WHERE seat_type_id = \\? AND library_id = \\?").
			WithArgs(uint64(10), uint64(2)).WillReturnRows(countRow(3))

		assert.ErrorIs(t, repo.DeleteByIDAndLibrary(context.Background(), 10, 2), ErrConflict)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	// A type belonging to another library must look absent, even when
	// seats of that other library still reference it.
	t.Run("foreign type id is not found", func(t *testing.T) {
		repo, mock := newSeatTypeRepo(t)
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM seats WHERE seat_type_id = \\? AND library_id = \\?").
			WithArgs(uint64(10), uint64(99)).WillReturnRows(countRow(0))
		mock.ExpectExec("DELETE FROM seat_types").
			WithArgs(uint64(10), uint64(99)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.DeleteByIDAndLibrary(context.Background(), 10, 99), ErrSeatTypeNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
