package store

import (
	"context"
	"math/rand"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type contextKey int

const (
	transactionKey contextKey = iota
)

type Tx struct {
	txID int64
	tx   *gorm.DB
}

// Commit commits the transaction carried by the context, if any.
func Commit(ctx context.Context) (context.Context, error) {
	tx, ok := ctx.Value(transactionKey).(*Tx)
	if !ok {
		return ctx, nil
	}

	newCtx := context.WithValue(ctx, transactionKey, nil)
	return newCtx, tx.Commit()
}

// Rollback rolls back the transaction carried by the context, if any.
func Rollback(ctx context.Context) (context.Context, error) {
	tx, ok := ctx.Value(transactionKey).(*Tx)
	if !ok {
		return ctx, nil
	}

	newCtx := context.WithValue(ctx, transactionKey, nil)
	return newCtx, tx.Rollback()
}

// FromContext returns the gorm handle of the transaction carried by the
// context, or nil when the caller did not open one.
func FromContext(ctx context.Context) *gorm.DB {
	if tx, found := ctx.Value(transactionKey).(*Tx); found && tx != nil {
		return tx.tx
	}
	return nil
}

func newTransactionContext(ctx context.Context, db *gorm.DB) (context.Context, error) {
	// reuse the transaction if the caller already opened one
	if tx, found := ctx.Value(transactionKey).(*Tx); found && tx != nil {
		return ctx, nil
	}

	conn := db.Session(&gorm.Session{Context: ctx})
	tx := conn.Begin()
	if tx.Error != nil {
		return ctx, tx.Error
	}

	t := &Tx{txID: rand.Int63(), tx: tx}
	zap.S().Named("store").Debugw("transaction started", "tx_id", t.txID)
	return context.WithValue(ctx, transactionKey, t), nil
}

func (t *Tx) Commit() error {
	if err := t.tx.Commit().Error; err != nil {
		zap.S().Named("store").Errorw("failed to commit transaction", "tx_id", t.txID, "error", err)
		return err
	}
	zap.S().Named("store").Debugw("transaction committed", "tx_id", t.txID)
	return nil
}

func (t *Tx) Rollback() error {
	if err := t.tx.Rollback().Error; err != nil {
		zap.S().Named("store").Errorw("failed to rollback transaction", "tx_id", t.txID, "error", err)
		return err
	}
	zap.S().Named("store").Debugw("transaction rolled back", "tx_id", t.txID)
	return nil
}
