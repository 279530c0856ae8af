package repositories

import (
	"context"
	"database/sql"
	"fmt"
)

// TxManager выполняет fn внутри одной транзакции. Каждая мутирующая операция
// ядра (заявка, решение по заявке, регистрация на турнир) укладывается ровно
// в один вызов WithinTx: либо применяется целиком, либо откатывается целиком.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(exec SQLExecutor) error) error
}

type sqlTxManager struct {
	db *sql.DB
}

func NewSQLTxManager(db *sql.DB) TxManager {
	return &sqlTxManager{db: db}
}

func (m *sqlTxManager) WithinTx(ctx context.Context, fn func(exec SQLExecutor) error) (txErr error) {
	tx, err := m.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return wrapTransient(fmt.Errorf("failed to begin transaction: %w", err))
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if txErr != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				txErr = fmt.Errorf("%w (rollback also failed: %v)", txErr, rbErr)
			}
		} else {
			if cErr := tx.Commit(); cErr != nil {
				txErr = wrapTransient(fmt.Errorf("failed to commit transaction: %w", cErr))
			}
		}
	}()

	txErr = wrapTransient(fn(tx))
	return txErr
}
