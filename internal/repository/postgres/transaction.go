package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"group-chat/internal/domain"
)

// DBTX is the subset of *sql.DB and *sql.Tx used by the repositories
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxManager manages database transactions
type TxManager struct {
	db *sql.DB
}

// NewTxManager creates a new transaction manager
func NewTxManager(db *sql.DB) *TxManager {
	return &TxManager{db: db}
}

// WithTx executes a function within a database transaction
// If the function returns an error, the transaction is rolled back
// Otherwise, the transaction is committed
func (tm *TxManager) WithTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := tm.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx err: %w, rb err: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// WithinTx implements domain.TxRunner by binding fresh repositories to the transaction
func (tm *TxManager) WithinTx(ctx context.Context, fn func(repos domain.Repositories) error) error {
	return tm.WithTx(ctx, func(tx *sql.Tx) error {
		return fn(NewRepositories(tx))
	})
}

// NewRepositories binds every chat repository to the same handle
func NewRepositories(db DBTX) domain.Repositories {
	return domain.Repositories{
		Rooms:       NewRoomRepository(db),
		Memberships: NewMembershipRepository(db),
		Messages:    NewMessageRepository(db),
	}
}
