package ai

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/amishk599/jobfeed/internal/retry"
)

// Verdict is the outcome of one semantic classification.
type Verdict struct {
	Exclude      bool
	Billed       bool   // an LLM call was made and should be metered
	Answer       string // trimmed model output
	InputTokens  int64
	OutputTokens int64
	Cost         float64
}

// SemanticClassifier decides whether a job description violates a user's
// free-text policy.
type SemanticClassifier interface {
	Classify(ctx context.Context, policy, title, description string) (Verdict, error)
}

var _ SemanticClassifier = (*LLMClassifier)(nil)

// LLMClassifier asks an LLM for a one-token Yes/No exclusion answer.
type LLMClassifier struct {
	provider LLMProvider
	retrier  *retry.Retrier
	tmpl     *template.Template
	rates    Rates
	logger   *slog.Logger
}

// NewLLMClassifier creates a classifier. Calls to provider go through retrier.
func NewLLMClassifier(provider LLMProvider, retrier *retry.Retrier, tmpl *template.Template, rates Rates, logger *slog.Logger) *LLMClassifier {
	return &LLMClassifier{
		provider: provider,
		retrier:  retrier,
		tmpl:     tmpl,
		rates:    rates,
		logger:   logger,
	}
}

// Classify renders the exclusion prompt and interprets the answer.
// Only a "yes" answer excludes; any other output includes the job.
func (c *LLMClassifier) Classify(ctx context.Context, policy, title, description string) (Verdict, error) {
	var promptBuf bytes.Buffer
	if err := c.tmpl.Execute(&promptBuf, struct {
		Policy      string
		Title       string
		Description string
	}{Policy: policy, Title: title, Description: description}); err != nil {
		return Verdict{}, fmt.Errorf("render prompt: %w", err)
	}

	req := CompletionRequest{
		System:      SystemPrompt,
		User:        promptBuf.String(),
		Temperature: 0,
		TopP:        1,
		MaxTokens:   1,
	}
	completion, err := retry.Do(ctx, c.retrier, func(ctx context.Context) retry.Result[Completion] {
		return retry.From(c.provider.Complete(ctx, req))
	})
	if err != nil {
		return Verdict{}, fmt.Errorf("llm complete: %w", err)
	}

	answer := strings.TrimSpace(completion.Text)
	exclude := isExclusion(answer)
	if !exclude && !strings.EqualFold(answer, "no") {
		c.logger.Warn("unexpected classifier answer, including job", "answer", answer)
	}

	return Verdict{
		Exclude:      exclude,
		Billed:       true,
		Answer:       answer,
		InputTokens:  completion.InputTokens,
		OutputTokens: completion.OutputTokens,
		Cost:         c.rates.Cost(completion.InputTokens, completion.OutputTokens),
	}, nil
}

// isExclusion reports whether answer is the exclusion token. The comparison
// ignores case and a trailing period.
func isExclusion(answer string) bool {
	return strings.EqualFold(strings.TrimSuffix(answer, "."), "yes")
}
