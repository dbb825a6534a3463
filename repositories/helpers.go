package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"
)

const dateLayout = "2006-01-02"

func checkAffectedRows(result sql.Result, notFoundError error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundError
	}
	return nil
}

// isPQCode проверяет код ошибки Postgres (23505 unique_violation, 23514 check_violation и т.д.)
func isPQCode(err error, code string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == code
	}
	return false
}

// stringList гарантирует, что в TEXT[] уходит '{}', а не NULL.
func stringList(s []string) interface{} {
	if s == nil {
		return pq.Array([]string{})
	}
	return pq.Array(s)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func dateString(t sql.NullTime) *string {
	if !t.Valid {
		return nil
	}
	s := t.Time.Format(dateLayout)
	return &s
}

// rollback откатывает транзакцию, если она ещё не завершена.
func rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		slog.Default().Error("failed to rollback transaction", slog.Any("error", err))
	}
}
