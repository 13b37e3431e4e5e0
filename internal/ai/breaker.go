package ai

import (
	"context"
	"log/slog"

	"github.com/sony/gobreaker"
)

var _ LLMProvider = (*BreakerProvider)(nil)

// BreakerProvider stops calling a failing LLM after consecutive failures and
// probes it again once the breaker's timeout elapses.
type BreakerProvider struct {
	inner LLMProvider
	cb    *gobreaker.CircuitBreaker
}

// NewBreakerProvider wraps inner with a circuit breaker that opens after
// maxFailures consecutive failures. Zero defaults to 5.
func NewBreakerProvider(inner LLMProvider, maxFailures uint32, logger *slog.Logger) *BreakerProvider {
	if maxFailures == 0 {
		maxFailures = 5
	}
	settings := gobreaker.Settings{
		Name: "llm",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	}
	return &BreakerProvider{inner: inner, cb: gobreaker.NewCircuitBreaker(settings)}
}

// Complete delegates to the wrapped provider unless the breaker is open, in
// which case it fails fast with gobreaker.ErrOpenState.
func (b *BreakerProvider) Complete(ctx context.Context, req CompletionRequest) (Completion, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.Complete(ctx, req)
	})
	if err != nil {
		return Completion{}, err
	}
	return out.(Completion), nil
}
