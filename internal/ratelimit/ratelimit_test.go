package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/amishk599/jobfeed/internal/ai"
	"github.com/amishk599/jobfeed/internal/model"
)

func TestWait_SameKey_EnforcesMinDelay(t *testing.T) {
	limiter := NewGapLimiter(100 * time.Millisecond)
	ctx := context.Background()

	// First call should return immediately.
	if err := limiter.Wait(ctx, "llm"); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	start := time.Now()
	if err := limiter.Wait(ctx, "llm"); err != nil {
		t.Fatalf("second wait: %v", err)
	}
	elapsed := time.Since(start)

	// Should have waited at least ~100ms (allow 80ms for timer jitter).
	if elapsed < 80*time.Millisecond {
		t.Errorf("expected >= 80ms wait, got %v", elapsed)
	}
}

func TestWait_DifferentKeys_NoCrossBlocking(t *testing.T) {
	limiter := NewGapLimiter(200 * time.Millisecond)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "llm"); err != nil {
		t.Fatalf("llm wait: %v", err)
	}

	start := time.Now()
	if err := limiter.Wait(ctx, "scan"); err != nil {
		t.Fatalf("scan wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("expected scan wait to be near-instant, got %v", elapsed)
	}
}

func TestWait_ConcurrentCallersAreSpaced(t *testing.T) {
	limiter := NewGapLimiter(50 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := limiter.Wait(ctx, "llm"); err != nil {
				t.Errorf("wait: %v", err)
			}
		}()
	}
	wg.Wait()

	// Three callers need slots at 0, 50ms and 100ms.
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("expected >= 80ms for three queued callers, got %v", elapsed)
	}
}

func TestWait_ZeroDelayNeverBlocks(t *testing.T) {
	limiter := NewGapLimiter(0)
	for i := 0; i < 3; i++ {
		if err := limiter.Wait(context.Background(), "llm"); err != nil {
			t.Fatalf("wait: %v", err)
		}
	}
}

func TestWait_ContextCancellation(t *testing.T) {
	limiter := NewGapLimiter(5 * time.Second)

	if err := limiter.Wait(context.Background(), "llm"); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := limiter.Wait(ctx, "llm"); err == nil {
		t.Fatal("expected error from cancelled context, got nil")
	}
}

type recordingProvider struct {
	calls int
}

func (p *recordingProvider) Complete(_ context.Context, _ ai.CompletionRequest) (ai.Completion, error) {
	p.calls++
	return ai.Completion{Text: "No"}, nil
}

func TestRateLimitedProvider_WaitsBeforeDelegating(t *testing.T) {
	limiter := NewGapLimiter(100 * time.Millisecond)
	inner := &recordingProvider{}
	provider := NewRateLimitedProvider(inner, limiter, "llm")
	ctx := context.Background()

	if _, err := provider.Complete(ctx, ai.CompletionRequest{}); err != nil {
		t.Fatalf("first call: %v", err)
	}

	start := time.Now()
	if _, err := provider.Complete(ctx, ai.CompletionRequest{}); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("inner calls = %d, want 2", inner.calls)
	}
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("expected >= 80ms wait on second call, got %v", elapsed)
	}
}

type recordingScanner struct {
	called bool
}

func (s *recordingScanner) ScanJob(_ context.Context, job model.Job) (model.Job, error) {
	s.called = true
	job.Description = "scanned"
	return job, nil
}

func TestRateLimitedScanner_CancelledSkipsInner(t *testing.T) {
	limiter := NewGapLimiter(5 * time.Second)
	inner := &recordingScanner{}
	scanner := NewRateLimitedScanner(inner, limiter, "scan")

	if _, err := scanner.ScanJob(context.Background(), model.Job{ID: "j1"}); err != nil {
		t.Fatalf("first scan: %v", err)
	}
	inner.called = false

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := scanner.ScanJob(ctx, model.Job{ID: "j1"}); err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if inner.called {
		t.Error("inner scanner called despite cancelled wait")
	}
}
