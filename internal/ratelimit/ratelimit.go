package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amishk599/jobfeed/internal/ai"
	"github.com/amishk599/jobfeed/internal/model"
)

// GapLimiter enforces a minimum delay between calls sharing the same key.
type GapLimiter struct {
	mu       sync.Mutex
	next     map[string]time.Time // key: backend name, value: earliest next slot
	minDelay time.Duration
	now      func() time.Time
}

// NewGapLimiter creates a limiter that spaces calls to the same backend at
// least minDelay apart. A zero delay never blocks.
func NewGapLimiter(minDelay time.Duration) *GapLimiter {
	return &GapLimiter{
		next:     make(map[string]time.Time),
		minDelay: minDelay,
		now:      time.Now,
	}
}

// Wait blocks until the caller's slot for key arrives. Slots are reserved
// under the lock, so concurrent callers queue up instead of firing together.
func (r *GapLimiter) Wait(ctx context.Context, key string) error {
	if r.minDelay <= 0 {
		return ctx.Err()
	}

	r.mu.Lock()
	now := r.now()
	slot := now
	if next, ok := r.next[key]; ok && next.After(now) {
		slot = next
	}
	r.next[key] = slot.Add(r.minDelay)
	r.mu.Unlock()

	remaining := slot.Sub(now)
	if remaining <= 0 {
		return nil
	}

	t := time.NewTimer(remaining)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", key, ctx.Err())
	case <-t.C:
		return nil
	}
}

var _ ai.LLMProvider = (*RateLimitedProvider)(nil)

// RateLimitedProvider waits for the limiter before delegating to the wrapped
// LLM provider.
type RateLimitedProvider struct {
	inner   ai.LLMProvider
	limiter *GapLimiter
	key     string
}

// NewRateLimitedProvider wraps an LLMProvider. Providers hitting the same
// upstream should share one limiter instance and key.
func NewRateLimitedProvider(inner ai.LLMProvider, limiter *GapLimiter, key string) *RateLimitedProvider {
	return &RateLimitedProvider{inner: inner, limiter: limiter, key: key}
}

// Complete waits for a slot, then delegates.
func (p *RateLimitedProvider) Complete(ctx context.Context, req ai.CompletionRequest) (ai.Completion, error) {
	if err := p.limiter.Wait(ctx, p.key); err != nil {
		return ai.Completion{}, err
	}
	return p.inner.Complete(ctx, req)
}

var _ model.Scanner = (*RateLimitedScanner)(nil)

// RateLimitedScanner waits for the limiter before delegating a scan.
type RateLimitedScanner struct {
	inner   model.Scanner
	limiter *GapLimiter
	key     string
}

// NewRateLimitedScanner wraps a Scanner.
func NewRateLimitedScanner(inner model.Scanner, limiter *GapLimiter, key string) *RateLimitedScanner {
	return &RateLimitedScanner{inner: inner, limiter: limiter, key: key}
}

// ScanJob waits for a slot, then delegates.
func (s *RateLimitedScanner) ScanJob(ctx context.Context, job model.Job) (model.Job, error) {
	if err := s.limiter.Wait(ctx, s.key); err != nil {
		return model.Job{}, err
	}
	return s.inner.ScanJob(ctx, job)
}
