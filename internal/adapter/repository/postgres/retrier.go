package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/iho/digipay/internal/domain"
)

// Retrier re-runs an operation with exponential backoff while it fails
// with a storage conflict.
type Retrier struct {
	maxRetries      int
	initialInterval time.Duration
	maxInterval     time.Duration
	maxElapsedTime  time.Duration
}

// NewRetrier creates a new retrier. maxRetries of zero disables retries.
func NewRetrier(maxRetries int) *Retrier {
	return &Retrier{
		maxRetries:      maxRetries,
		initialInterval: 50 * time.Millisecond,
		maxInterval:     1 * time.Second,
		maxElapsedTime:  10 * time.Second,
	}
}

// Retry executes an operation with exponential backoff on retryable errors.
func (r *Retrier) Retry(ctx context.Context, operation func() error) error {
	if r.maxRetries <= 0 {
		return operation()
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initialInterval
	b.MaxInterval = r.maxInterval
	b.MaxElapsedTime = r.maxElapsedTime

	retryCount := 0

	return backoff.Retry(func() error {
		err := operation()
		if err == nil {
			return nil
		}

		if !isRetryableError(err) {
			return backoff.Permanent(err)
		}

		retryCount++
		if retryCount > r.maxRetries {
			return backoff.Permanent(err)
		}

		zerolog.Ctx(ctx).Warn().
			Err(err).
			Int("retry", retryCount).
			Msg("storage conflict, retrying")

		return err
	}, backoff.WithContext(b, ctx))
}

// isRetryableError reports whether err is a storage conflict, either
// already mapped or still a raw PostgreSQL error.
func isRetryableError(err error) bool {
	if errors.Is(err, domain.ErrStorageConflict) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrDeadlock, pgErrSerializationFailure:
			return true
		}
	}
	return false
}
