package db

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"
)

const (
	pgCodeUniqueViolation = "23505"
	pgCodeDeadlock        = "40P01"
	pgCodeSerialization   = "40001"
)

// IsUniqueViolation reports whether the provided error references a Postgres
// unique violation. When constraintName is provided, the helper matches the
// specific constraint.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != pgCodeUniqueViolation {
			return false
		}
		if constraintName == "" {
			return true
		}
		return pgErr.ConstraintName == constraintName
	}
	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed")
}

// IsRetryableConflict reports whether the error is a deadlock or
// serialization failure worth re-running the transaction for.
func IsRetryableConflict(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgCodeDeadlock || pgErr.Code == pgCodeSerialization
	}
	msg := err.Error()
	return strings.Contains(msg, "deadlock detected") || strings.Contains(msg, "could not serialize access")
}

// txRunner matches the Client transaction surface.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// WithTxRetry runs fn inside a transaction, retrying deadlocks and
// serialization conflicts up to attempts times with jittered backoff.
// Non-conflict errors propagate immediately.
func WithTxRetry(ctx context.Context, runner txRunner, attempts int, fn func(tx *gorm.DB) error) error {
	if attempts <= 0 {
		attempts = 3
	}
	backoff := retry.WithMaxRetries(uint64(attempts-1), retry.NewConstant(25*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := runner.WithTx(ctx, fn)
		if err == nil {
			return nil
		}
		if IsRetryableConflict(err) {
			time.Sleep(time.Duration(rand.Intn(20)) * time.Millisecond)
			return retry.RetryableError(err)
		}
		return err
	})
}
