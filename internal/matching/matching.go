// Package matching decides whether a freshly ingested job reaches the user's
// feed or is hidden by the user's advanced matching policy.
package matching

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amishk599/jobfeed/internal/ai"
	"github.com/amishk599/jobfeed/internal/filter"
	"github.com/amishk599/jobfeed/internal/model"
	"github.com/amishk599/jobfeed/internal/retry"
)

// PolicyStore loads the inputs of a decision. Both lookups return
// model.ErrNotFound when the record does not exist.
type PolicyStore interface {
	GetProfile(ctx context.Context, userID string) (*model.Profile, error)
	GetAdvancedMatching(ctx context.Context, userID string) (*model.AdvancedMatchingConfig, error)
}

// UsageRecorder receives one increment per billed LLM call. Record must not
// block on the metering write.
type UsageRecorder interface {
	Record(ctx context.Context, inc model.UsageIncrement)
}

// Filter applies entitlement, the company deny-list and the semantic stage,
// in that order.
type Filter struct {
	classifier ai.SemanticClassifier
	recorder   UsageRecorder
	logger     *slog.Logger
}

// NewFilter creates a Filter.
func NewFilter(classifier ai.SemanticClassifier, recorder UsageRecorder, logger *slog.Logger) *Filter {
	return &Filter{
		classifier: classifier,
		recorder:   recorder,
		logger:     logger,
	}
}

// Decide returns the status job should be stored with. A nil profile or
// config means the feature is off for the user and the job is new.
//
// A semantic stage failure includes the job; the error is logged, not
// returned.
func (f *Filter) Decide(ctx context.Context, job model.Job, cfg *model.AdvancedMatchingConfig, profile *model.Profile, now time.Time) model.JobStatus {
	logger := f.logger.With("job_id", job.ID, "user_id", job.UserID)

	if !profile.HasAdvancedMatching(now) {
		logger.Debug("advanced matching not enabled")
		return model.StatusNew
	}
	if cfg == nil {
		logger.Debug("advanced matching config not found")
		return model.StatusNew
	}

	if filter.NewCompanyDenyList(cfg.BlacklistedCompanies).Excludes(job) {
		logger.Info("job excluded by company name", "company", job.CompanyName)
		return model.StatusExcluded
	}

	if !job.HasDescription() {
		return model.StatusNew
	}

	verdict, err := f.classifier.Classify(ctx, cfg.Prompt, job.Title, job.Description)
	if err != nil {
		logger.Error("semantic classification failed, including job", "error", err)
		return model.StatusNew
	}

	if verdict.Billed {
		logger.Debug("llm usage",
			"answer", verdict.Answer,
			"input_tokens", verdict.InputTokens,
			"output_tokens", verdict.OutputTokens,
			"cost", verdict.Cost,
		)
		f.recorder.Record(ctx, model.UsageIncrement{
			UserID:       job.UserID,
			Cost:         verdict.Cost,
			InputTokens:  verdict.InputTokens,
			OutputTokens: verdict.OutputTokens,
		})
	}

	if verdict.Exclude {
		logger.Info("job excluded by semantic filter")
		return model.StatusExcluded
	}
	logger.Debug("job passed advanced matching")
	return model.StatusNew
}

// Matcher loads the user's profile and policy and runs the Filter. Both
// lookups go through the retrier; a missing record is not retried.
type Matcher struct {
	store   PolicyStore
	filter  *Filter
	retrier *retry.Retrier
}

// NewMatcher creates a Matcher.
func NewMatcher(store PolicyStore, f *Filter, retrier *retry.Retrier) *Matcher {
	return &Matcher{store: store, filter: f, retrier: retrier}
}

// Classify returns the status for a job about to be inserted. Only storage
// failures other than a missing record are returned as errors.
func (m *Matcher) Classify(ctx context.Context, job model.Job, now time.Time) (model.JobStatus, error) {
	profile, err := retry.Call(ctx, m.retrier, func(ctx context.Context) (*model.Profile, error) {
		return m.store.GetProfile(ctx, job.UserID)
	}, model.ErrNotFound)
	if errors.Is(err, model.ErrNotFound) {
		return model.StatusNew, nil
	}
	if err != nil {
		return "", fmt.Errorf("classifying job %s: %w", job.ID, err)
	}
	// The config is only needed once the user is entitled.
	if !profile.HasAdvancedMatching(now) {
		return model.StatusNew, nil
	}

	cfg, err := retry.Call(ctx, m.retrier, func(ctx context.Context) (*model.AdvancedMatchingConfig, error) {
		return m.store.GetAdvancedMatching(ctx, job.UserID)
	}, model.ErrNotFound)
	if errors.Is(err, model.ErrNotFound) {
		return model.StatusNew, nil
	}
	if err != nil {
		return "", fmt.Errorf("classifying job %s: %w", job.ID, err)
	}

	return m.filter.Decide(ctx, job, cfg, profile, now), nil
}
