package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// SQLExecutor это общий подинтерфейс *sql.DB и *sql.Tx. Методы репозиториев,
// участвующие в check-then-write последовательностях, принимают его явно,
// чтобы проверка и запись выполнялись в одном снапшоте транзакции.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// ErrTransient помечает сбои уровня хранилища (deadlock, serialization
// failure, таймаут), которые вызывающий может повторить целиком на уровне
// запроса. Внутри репозиториев повторов нет.
var ErrTransient = errors.New("transient datastore failure")

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

// wrapTransient переводит ошибки сериализации/deadlock и отменённые контексты
// в ErrTransient; остальное возвращает как есть.
func wrapTransient(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return fmt.Errorf("%w: %v", ErrTransient, err)
		}
	}
	return err
}
