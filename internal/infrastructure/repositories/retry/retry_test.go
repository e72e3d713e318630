//go:build unit

package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/updatebot/internal/infrastructure/repositories/retry"
)

func quickPolicy(attempts int) retry.Policy {
	return retry.Policy{Attempts: attempts, Backoff: time.Millisecond, Clock: clockwork.NewRealClock()}
}

func TestDo(t *testing.T) {
	t.Parallel()

	t.Run("should return the first successful result", func(t *testing.T) {
		t.Parallel()

		// given
		calls := 0

		// when
		result, err := retry.Do(context.Background(), quickPolicy(3), "read", func(context.Context) (string, error) {
			calls++
			if calls < 3 {
				return "", errors.New("connection reset")
			}
			return "main", nil
		})

		// then
		require.NoError(t, err)
		assert.Equal(t, "main", result)
		assert.Equal(t, 3, calls)
	})

	t.Run("should wrap the last failure once attempts run out", func(t *testing.T) {
		t.Parallel()

		// given
		last := errors.New("connection reset")
		calls := 0

		// when
		_, err := retry.Do(context.Background(), quickPolicy(2), "read", func(context.Context) (int, error) {
			calls++
			return 0, last
		})

		// then
		require.ErrorIs(t, err, last)
		assert.Contains(t, err.Error(), "read failed after 2 attempts")
		assert.Equal(t, 2, calls)
	})

	t.Run("should stop on a non retryable error", func(t *testing.T) {
		t.Parallel()

		// given
		final := errors.New("not found")
		policy := quickPolicy(5)
		policy.Retryable = func(err error) bool { return !errors.Is(err, final) }
		calls := 0

		// when
		_, err := retry.Do(context.Background(), policy, "read", func(context.Context) (int, error) {
			calls++
			return 0, final
		})

		// then
		require.ErrorIs(t, err, final)
		assert.Equal(t, 1, calls)
	})

	t.Run("should not retry a cancelled context", func(t *testing.T) {
		t.Parallel()

		// given
		calls := 0

		// when
		_, err := retry.Do(context.Background(), quickPolicy(5), "read", func(context.Context) (int, error) {
			calls++
			return 0, context.Canceled
		})

		// then
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})

	t.Run("should wait the backoff on the policy clock", func(t *testing.T) {
		t.Parallel()

		// given
		clock := clockwork.NewFakeClock()
		policy := retry.DefaultPolicy(clock)
		calls := 0
		done := make(chan error, 1)

		// when
		go func() {
			_, err := retry.Do(context.Background(), policy, "read", func(context.Context) (int, error) {
				calls++
				if calls == 1 {
					return 0, errors.New("bad gateway")
				}
				return 1, nil
			})
			done <- err
		}()
		require.NoError(t, clock.BlockUntilContext(context.Background(), 1))
		clock.Advance(retry.DefaultBackoff)
		err := <-done

		// then
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("should reject an invalid policy", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name   string
			policy retry.Policy
		}{
			{name: "should require one attempt", policy: retry.Policy{Clock: clockwork.NewRealClock()}},
			{name: "should refuse a negative backoff", policy: retry.Policy{
				Attempts: 1, Backoff: -time.Second, Clock: clockwork.NewRealClock(),
			}},
			{name: "should require a clock", policy: retry.Policy{Attempts: 1}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				// given, when
				_, err := retry.Do(context.Background(), tt.policy, "read", func(context.Context) (int, error) {
					return 1, nil
				})

				// then
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid retry policy")
			})
		}
	})
}
