package repositories

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestCoachReorderCommits(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE coaches SET order_index = \$1`).WithArgs(0, 3).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE coaches SET order_index = \$1`).WithArgs(1, 1).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := NewPostgresCoachRepository(db)
	require.NoError(t, repo.Reorder(context.Background(), []int{3, 1}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCoachReorderUnknownIDRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE coaches SET order_index = \$1`).WithArgs(0, 3).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE coaches SET order_index = \$1`).WithArgs(1, 99).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	repo := NewPostgresCoachRepository(db)
	err = repo.Reorder(context.Background(), []int{3, 99})
	require.ErrorIs(t, err, ErrCoachNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
