package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy describes a bounded, fixed-interval retry budget. MaxAttempts is the
// number of retries after the first failure; a negative value means unlimited.
type Policy struct {
	Interval    time.Duration
	MaxAttempts int
}

// Backoff builds the backoff strategy for the policy, bound to ctx so a
// cancellation interrupts the wait.
func (p Policy) Backoff(ctx context.Context) backoff.BackOff {
	var b backoff.BackOff = backoff.NewConstantBackOff(p.Interval)
	if p.MaxAttempts >= 0 {
		b = backoff.WithMaxRetries(b, uint64(p.MaxAttempts))
	}
	return backoff.WithContext(b, ctx)
}

// Run executes fn under the policy. fn is retried after each failure until it
// succeeds, returns a backoff.PermanentError, or the budget is exhausted.
// onRetry, if non-nil, is invoked before each wait with the failure and the
// retries remaining (-1 when unlimited).
func Run(ctx context.Context, policy Policy, fn func() error, onRetry func(err error, remaining int)) error {
	remaining := policy.MaxAttempts

	operation := func() error {
		err := fn()
		if err == nil {
			return nil
		}
		if _, ok := err.(*backoff.PermanentError); ok {
			return err
		}
		if onRetry != nil && (policy.MaxAttempts < 0 || remaining > 0) {
			onRetry(err, remaining)
		}
		if remaining > 0 {
			remaining--
		}
		return err
	}

	return backoff.Retry(operation, policy.Backoff(ctx))
}

// Permanent marks err as non-retryable for Run.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
