package service

import (
	"context"
	"sync/atomic"
	"time"

	"gorm.io/gorm"
)

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// opTimeout bounds every remote call made by a service operation. Deadline
// hits surface as domainerr transient, never as a business rejection.
var opTimeout atomic.Int64

func init() { opTimeout.Store(int64(5 * time.Second)) }

// SetOpTimeout overrides the per-operation timeout (wired from config at
// startup).
func SetOpTimeout(d time.Duration) {
	if d > 0 {
		opTimeout.Store(int64(d))
	}
}

func opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(opTimeout.Load()))
}
