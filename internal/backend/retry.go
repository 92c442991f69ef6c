package backend

import (
	"context"
	"time"
)

// Policy is a per-screen retry decision. The zero value performs exactly one
// attempt.
type Policy struct {
	Attempts  int
	Backoff   time.Duration
	Retryable func(error) bool
}

// NoRetry runs the call once.
var NoRetry = Policy{Attempts: 1}

// RetryNetwork retries transport failures only.
func RetryNetwork(attempts int, backoff time.Duration) Policy {
	return Policy{
		Attempts: attempts,
		Backoff:  backoff,
		Retryable: func(err error) bool {
			return IsKind(err, KindNetwork)
		},
	}
}

// Retry runs fn under the policy. Backoff doubles after each failed attempt.
func Retry[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error)) (T, error) {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	wait := p.Backoff
	var (
		out T
		err error
	)
	for i := 0; i < attempts; i++ {
		out, err = fn(ctx)
		if err == nil {
			return out, nil
		}
		if i == attempts-1 || p.Retryable == nil || !p.Retryable(err) {
			break
		}
		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return out, ctx.Err()
			case <-timer.C:
			}
			wait *= 2
		}
	}
	return out, err
}
