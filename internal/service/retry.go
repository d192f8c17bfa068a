package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/hotel-booking-engine/internal/model"
)

// RetryPolicy bounds the internal retries of operations that failed on
// lock contention.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// DefaultRetryPolicy is used when a zero policy is configured.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, Backoff: 25 * time.Millisecond}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = DefaultRetryPolicy.MaxAttempts
	}
	if p.Backoff < 0 {
		p.Backoff = 0
	}
	return p
}

// withRetry runs fn until it succeeds, fails with a non-retryable error
// or the policy is exhausted.  The final contention error reports the
// number of attempts made.
func withRetry(ctx context.Context, p RetryPolicy, op string, log *zap.Logger, fn func() error) error {
	p = p.normalized()
	var err error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err = fn(); err == nil || !model.IsRetryable(err) {
			return err
		}
		log.Warn("contention, retrying", zap.String("op", op), zap.Int("attempt", attempt), zap.Error(err))
		if attempt == p.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(p.Backoff * time.Duration(attempt)):
		}
	}
	cause := err
	var ce *model.ContentionError
	if errors.As(err, &ce) && ce.Err != nil {
		cause = ce.Err
	}
	return &model.ContentionError{Op: op, Attempts: p.MaxAttempts, Err: cause}
}
