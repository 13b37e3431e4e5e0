package ai

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/amishk599/jobfeed/internal/retry"
)

// mockProvider is a stub LLMProvider for testing.
type mockProvider struct {
	responses []string
	errs      []error
	calls     int
	lastReq   CompletionRequest
}

func (m *mockProvider) Complete(_ context.Context, req CompletionRequest) (Completion, error) {
	i := m.calls
	m.calls++
	m.lastReq = req
	if i < len(m.errs) && m.errs[i] != nil {
		return Completion{}, m.errs[i]
	}
	text := ""
	if i < len(m.responses) {
		text = m.responses[i]
	} else if len(m.responses) > 0 {
		text = m.responses[len(m.responses)-1]
	}
	return Completion{Text: text, InputTokens: 1_000_000, OutputTokens: 0}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClassifier(p LLMProvider) *LLMClassifier {
	retrier := retry.New(retry.Policy{Attempts: 3, BaseDelay: time.Millisecond}, discardLogger())
	return NewLLMClassifier(p, retrier, ExclusionTemplate, DefaultRates, discardLogger())
}

func TestClassify_Answers(t *testing.T) {
	tests := []struct {
		answer      string
		wantExclude bool
	}{
		{"Yes", true},
		{" yes\n", true},
		{"Yes.", true},
		{"No", false},
		{"no", false},
		{"Maybe", false},
		{"", false},
		{"Yesterday", false},
	}
	for _, tt := range tests {
		t.Run(tt.answer, func(t *testing.T) {
			c := newTestClassifier(&mockProvider{responses: []string{tt.answer}})
			v, err := c.Classify(context.Background(), "no java", "Engineer", "We use Java.")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if v.Exclude != tt.wantExclude {
				t.Errorf("Exclude = %v, want %v", v.Exclude, tt.wantExclude)
			}
		})
	}
}

func TestClassify_PromptAndSampling(t *testing.T) {
	p := &mockProvider{responses: []string{"No"}}
	c := newTestClassifier(p)

	_, err := c.Classify(context.Background(), "Exclude senior roles", "Senior Go Engineer", "Lead a team.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"Exclude senior roles", `Job Title: "Senior Go Engineer"`, "Lead a team."} {
		if !strings.Contains(p.lastReq.User, want) {
			t.Errorf("user prompt missing %q:\n%s", want, p.lastReq.User)
		}
	}
	if p.lastReq.System != SystemPrompt {
		t.Error("system prompt not sent")
	}
	if p.lastReq.MaxTokens != 1 || p.lastReq.Temperature != 0 {
		t.Errorf("sampling = %+v", p.lastReq)
	}
}

func TestClassify_CostFromUsage(t *testing.T) {
	c := newTestClassifier(&mockProvider{responses: []string{"No"}})
	v, err := c.Classify(context.Background(), "p", "t", "d")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.InputTokens != 1_000_000 || v.Cost != 0.5 {
		t.Errorf("verdict = %+v, want 1M input tokens costing 0.5", v)
	}
}

func TestClassify_RetriesProviderErrors(t *testing.T) {
	p := &mockProvider{errs: []error{errors.New("timeout"), errors.New("timeout")}, responses: []string{"Yes"}}
	c := newTestClassifier(p)

	v, err := c.Classify(context.Background(), "p", "t", "d")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.Exclude || p.calls != 3 {
		t.Errorf("Exclude = %v calls = %d, want true after 3 calls", v.Exclude, p.calls)
	}
}

func TestClassify_ProviderErrorAfterRetries(t *testing.T) {
	boom := errors.New("network error")
	p := &mockProvider{errs: []error{boom, boom, boom}}
	c := newTestClassifier(p)

	_, err := c.Classify(context.Background(), "p", "t", "d")
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped provider error", err)
	}
}

func TestRates_Cost(t *testing.T) {
	if got := DefaultRates.Cost(1_000_000, 0); got != 0.5 {
		t.Errorf("Cost(1M, 0) = %v, want 0.5", got)
	}
	if got := DefaultRates.Cost(0, 1_000_000); got != 1.5 {
		t.Errorf("Cost(0, 1M) = %v, want 1.5", got)
	}
	if got := DefaultRates.Cost(0, 0); got != 0 {
		t.Errorf("Cost(0, 0) = %v, want 0", got)
	}
}
