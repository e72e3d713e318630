package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	logger "github.com/sirupsen/logrus"
)

const (
	DefaultAttempts = 5
	DefaultBackoff  = time.Second
)

var errInvalidPolicy = errors.New("invalid retry policy")

// Policy configures Do. Backoff is fixed between attempts.
type Policy struct {
	Attempts  int
	Backoff   time.Duration
	Clock     clockwork.Clock
	Retryable func(error) bool
}

// DefaultPolicy retries every error but context cancellation five times, one second apart.
func DefaultPolicy(clock clockwork.Clock) Policy {
	return Policy{
		Attempts:  DefaultAttempts,
		Backoff:   DefaultBackoff,
		Clock:     clock,
		Retryable: func(err error) bool { return !IsContextError(err) },
	}
}

// Validate checks the policy can drive Do.
func (p Policy) Validate() error {
	if p.Attempts < 1 {
		return fmt.Errorf("%w: attempts must be at least 1", errInvalidPolicy)
	}
	if p.Backoff < 0 {
		return fmt.Errorf("%w: backoff cannot be negative", errInvalidPolicy)
	}
	if p.Clock == nil {
		return fmt.Errorf("%w: clock is required", errInvalidPolicy)
	}
	return nil
}

// Do calls fn until it succeeds, returns a non retryable error or runs out of attempts.
// The error after the last attempt wraps the last failure.
func Do[T any](ctx context.Context, policy Policy, operation string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := policy.Validate(); err != nil {
		return zero, err
	}
	retryable := policy.Retryable
	if retryable == nil {
		retryable = func(err error) bool { return !IsContextError(err) }
	}

	var lastErr error
	for attempt := 1; attempt <= policy.Attempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !retryable(err) {
			return zero, err
		}
		if attempt == policy.Attempts {
			break
		}

		logger.Warnf("Attempt %d/%d of %s failed, retrying in %s: %v",
			attempt, policy.Attempts, operation, policy.Backoff, err)

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-policy.Clock.After(policy.Backoff):
		}
	}
	return zero, fmt.Errorf("%s failed after %d attempts: %w", operation, policy.Attempts, lastErr)
}

// IsContextError reports whether err comes from a cancelled or expired context.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
