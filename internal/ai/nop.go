package ai

import "context"

var _ SemanticClassifier = (*NopClassifier)(nil)

// NopClassifier is used when ai.enabled is false.
// It includes every job and bills nothing.
type NopClassifier struct{}

// NewNopClassifier returns a NopClassifier.
func NewNopClassifier() *NopClassifier {
	return &NopClassifier{}
}

// Classify always includes the job.
func (NopClassifier) Classify(context.Context, string, string, string) (Verdict, error) {
	return Verdict{}, nil
}
