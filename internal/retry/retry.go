package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"
)

// Policy configures the backoff schedule.
type Policy struct {
	Attempts  int           // total attempts, including the first
	BaseDelay time.Duration // backoff ceiling before the second attempt, doubled after each retry
}

// DefaultPolicy is 5 attempts starting at 300ms with full jitter.
var DefaultPolicy = Policy{Attempts: 5, BaseDelay: 300 * time.Millisecond}

// Result is the tagged outcome of a single remote call: either Value or Err.
// Transport adapters build it at the boundary so callers never inspect payload
// shape to detect failure.
type Result[T any] struct {
	Value T
	Err   error
}

// Ok returns a successful Result.
func Ok[T any](v T) Result[T] { return Result[T]{Value: v} }

// Fail returns a failed Result.
func Fail[T any](err error) Result[T] { return Result[T]{Err: err} }

// From adapts a conventional (value, error) pair into a Result.
func From[T any](v T, err error) Result[T] {
	if err != nil {
		return Fail[T](err)
	}
	return Ok(v)
}

// permanentError marks an error that must not be retried.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so Do returns it immediately. Do unwraps it before
// returning, so callers see the original error.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// delayHinter is an error that carries a server-requested wait, such as an
// HTTP Retry-After header.
type delayHinter interface {
	RetryDelay() time.Duration
}

// Retrier executes remote operations with exponential backoff and full jitter.
// Wrapped operations may run more than once and must be safe to repeat.
type Retrier struct {
	policy Policy
	logger *slog.Logger

	jitter func(ceiling time.Duration) time.Duration
	sleep  func(ctx context.Context, d time.Duration) error
}

// New returns a Retrier. Non-positive policy fields fall back to DefaultPolicy.
func New(policy Policy, logger *slog.Logger) *Retrier {
	if policy.Attempts <= 0 {
		policy.Attempts = DefaultPolicy.Attempts
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = DefaultPolicy.BaseDelay
	}
	return &Retrier{
		policy: policy,
		logger: logger,
		jitter: fullJitter,
		sleep:  sleepCtx,
	}
}

// Policy returns the effective policy.
func (r *Retrier) Policy() Policy {
	return r.policy
}

// Do runs op until it succeeds or the policy's attempts are exhausted, and
// returns the last error unchanged. Context cancellation is never retried.
// When the last error asks for a longer wait than the backoff, Do waits that
// long instead.
func Do[T any](ctx context.Context, r *Retrier, op func(ctx context.Context) Result[T]) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= r.policy.Attempts; attempt++ {
		if attempt > 1 {
			delay := r.jitter(r.backoff(attempt))
			var hint delayHinter
			if errors.As(lastErr, &hint) && hint.RetryDelay() > delay {
				delay = hint.RetryDelay()
			}
			r.logger.Warn("retrying remote call",
				"attempt", attempt,
				"max_attempts", r.policy.Attempts,
				"delay", delay,
				"error", lastErr,
			)
			if err := r.sleep(ctx, delay); err != nil {
				return zero, fmt.Errorf("retry cancelled: %w", err)
			}
		}

		res := op(ctx)
		if res.Err == nil {
			return res.Value, nil
		}

		var perm *permanentError
		if errors.As(res.Err, &perm) {
			return zero, perm.err
		}
		if errors.Is(res.Err, context.Canceled) || errors.Is(res.Err, context.DeadlineExceeded) {
			return zero, res.Err
		}
		lastErr = res.Err
	}

	return zero, lastErr
}

// Run is Do for operations without a result value.
func Run(ctx context.Context, r *Retrier, op func(ctx context.Context) error) error {
	_, err := Do(ctx, r, func(ctx context.Context) Result[struct{}] {
		return From(struct{}{}, op(ctx))
	})
	return err
}

// Call is Do for conventional (value, error) operations. Errors matching
// any of final are returned at once without a retry.
func Call[T any](ctx context.Context, r *Retrier, op func(ctx context.Context) (T, error), final ...error) (T, error) {
	return Do(ctx, r, func(ctx context.Context) Result[T] {
		v, err := op(ctx)
		for _, f := range final {
			if errors.Is(err, f) {
				return Fail[T](Permanent(err))
			}
		}
		return From(v, err)
	})
}

// backoff returns the jitter ceiling before the given attempt:
// BaseDelay * 2^(attempt-2) for attempt >= 2.
func (r *Retrier) backoff(attempt int) time.Duration {
	delay := r.policy.BaseDelay
	for i := 2; i < attempt; i++ {
		delay *= 2
	}
	return delay
}

// fullJitter draws a delay uniformly from [0, ceiling].
func fullJitter(ceiling time.Duration) time.Duration {
	if ceiling <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(ceiling) + 1))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
