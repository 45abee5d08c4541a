package dbx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/dmitrijs2005/fintrack/internal/common"
)

// TxRunner runs a unit of work atomically.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error
}

// RunnerOptions bound a serializable transaction.
type RunnerOptions struct {
	// MaxWait bounds acquiring a pooled connection.
	MaxWait time.Duration
	// Timeout bounds the whole unit including retries.
	Timeout time.Duration
	// Retries is how many times a serialization failure is retried.
	Retries uint64
}

// Runner executes units of work in SERIALIZABLE transactions.
//
// A unit that fails with a serialization failure or deadlock is rolled back
// and re-run with exponential backoff. When retries are exhausted the error
// wraps common.ErrorConflict; when the deadline passes it wraps
// common.ErrorTimeout.
type Runner struct {
	db         *sql.DB
	opts       RunnerOptions
	newBackOff func() backoff.BackOff
}

func NewRunner(db *sql.DB, opts RunnerOptions) *Runner {
	return &Runner{
		db:   db,
		opts: opts,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 20 * time.Millisecond
			b.MaxInterval = 500 * time.Millisecond
			return b
		},
	}
}

func (r *Runner) InTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error {
	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	var lastErr error
	op := func() error {
		err := r.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		lastErr = err
		if IsSerializationFailure(err) {
			return err
		}
		return backoff.Permanent(err)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(r.newBackOff(), r.opts.Retries), ctx)
	err := backoff.Retry(op, b)
	if err == nil {
		return nil
	}

	if lastErr == nil {
		lastErr = err
	}
	switch {
	case errors.Is(lastErr, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", common.ErrorTimeout, lastErr)
	case IsSerializationFailure(lastErr):
		return fmt.Errorf("%w: %w", common.ErrorConflict, lastErr)
	}
	return lastErr
}

func (r *Runner) runOnce(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error {
	acquireCtx := ctx
	if r.opts.MaxWait > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, r.opts.MaxWait)
		defer cancel()
	}

	conn, err := r.db.Conn(acquireCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: acquire connection: %w", common.ErrorTimeout, err)
		}
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	return WithTx(ctx, conn, &sql.TxOptions{Isolation: sql.LevelSerializable}, fn)
}
