package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"streamnotifier/pkg/logger"
)

// Manager runs a unit of work inside a single database transaction.
type Manager interface {
	ExecuteInTransaction(ctx context.Context, name string, fn func(tx QueryExecuter) error) error
}

type TxManager struct {
	db  *sql.DB
	log logger.Logger
}

func NewManager(db *Postgres, log logger.Logger) (*TxManager, error) {
	if db == nil || db.DB == nil {
		return nil, errors.New("postgres.NewManager: db must be non-nil")
	}
	return &TxManager{db: db.DB, log: log}, nil
}

// ExecuteInTransaction commits when fn returns nil and rolls back otherwise,
// including when fn panics.
func (m *TxManager) ExecuteInTransaction(
	ctx context.Context,
	name string,
	fn func(tx QueryExecuter) error,
) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", name, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if fnErr := fn(tx); fnErr != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			m.log.Errorw("transaction rollback failed", "tx", name, "error", rbErr)
		}
		return fmt.Errorf("%s: %w", name, fnErr)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", name, err)
	}
	return nil
}

// HandleError annotates an error raised by one step of a named transaction.
func HandleError(txName, step string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %w", txName, step, err)
}
