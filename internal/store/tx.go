package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

type contextKey string

const (
	contextKeyTransaction contextKey = "shop:transaction"
	contextKeyUserLock    contextKey = "shop:user_lock"
)

// TxFromContext retrieves the transaction carried by ctx
func TxFromContext(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(contextKeyTransaction).(*sql.Tx)
	return tx, ok
}

// TxManager runs functions inside database transactions
type TxManager struct {
	db    *sql.DB
	locks *userLocks
}

// NewTxManager creates a transaction manager for db
func NewTxManager(db *sql.DB) *TxManager {
	return &TxManager{
		db:    db,
		locks: newUserLocks(),
	}
}

// WithTransaction executes fn within a transaction.
// Commits when fn returns nil, rolls back on error or panic. A call made with a
// context that already carries a transaction joins it.
func (m *TxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := TxFromContext(ctx); ok {
		return fn(ctx)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, contextKeyTransaction, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed: %w, rollback failed: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// WithUserTransaction holds userID's lock for the whole transaction.
// Re-entering for the same user with the returned context does not lock again.
func (m *TxManager) WithUserTransaction(ctx context.Context, userID int64, fn func(ctx context.Context) error) error {
	if held, ok := ctx.Value(contextKeyUserLock).(int64); ok && held == userID {
		return m.WithTransaction(ctx, fn)
	}

	unlock := m.locks.lock(userID)
	defer unlock()

	return m.WithTransaction(context.WithValue(ctx, contextKeyUserLock, userID), fn)
}

// userLocks is a set of per-user mutexes that are dropped once unused
type userLocks struct {
	mu    sync.Mutex
	locks map[int64]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[int64]*userLock)}
}

func (l *userLocks) lock(userID int64) func() {
	l.mu.Lock()
	ul, ok := l.locks[userID]
	if !ok {
		ul = &userLock{}
		l.locks[userID] = ul
	}
	ul.refs++
	l.mu.Unlock()

	ul.mu.Lock()

	return func() {
		ul.mu.Unlock()

		l.mu.Lock()
		ul.refs--
		if ul.refs == 0 {
			delete(l.locks, userID)
		}
		l.mu.Unlock()
	}
}
