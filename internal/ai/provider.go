package ai

import "context"

// CompletionRequest is one chat-style completion call.
type CompletionRequest struct {
	System           string
	User             string
	Temperature      float64
	TopP             float64
	MaxTokens        int
	FrequencyPenalty float64
	PresencePenalty  float64
}

// Completion is the text returned by the model plus the tokens it billed.
type Completion struct {
	Text         string
	InputTokens  int64
	OutputTokens int64
}

// LLMProvider sends a completion request to an LLM.
type LLMProvider interface {
	Complete(ctx context.Context, req CompletionRequest) (Completion, error)
}
