package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/sony/gobreaker"
)

func TestBreakerProvider_OpensAfterConsecutiveFailures(t *testing.T) {
	boom := errors.New("upstream down")
	inner := &mockProvider{errs: []error{boom, boom, boom, boom}}
	b := NewBreakerProvider(inner, 2, discardLogger())

	for i := 0; i < 2; i++ {
		if _, err := b.Complete(context.Background(), CompletionRequest{}); !errors.Is(err, boom) {
			t.Fatalf("call %d err = %v, want upstream error", i, err)
		}
	}

	_, err := b.Complete(context.Background(), CompletionRequest{})
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("err = %v, want ErrOpenState", err)
	}
	if inner.calls != 2 {
		t.Errorf("inner calls = %d, want 2 (open breaker fails fast)", inner.calls)
	}
}

func TestBreakerProvider_PassesThroughSuccess(t *testing.T) {
	b := NewBreakerProvider(&mockProvider{responses: []string{"No"}}, 0, discardLogger())
	got, err := b.Complete(context.Background(), CompletionRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Text != "No" {
		t.Errorf("Text = %q, want No", got.Text)
	}
}
