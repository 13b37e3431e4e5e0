package metering

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/amishk599/jobfeed/internal/model"
)

// Recorder meters usage in the background. A metering failure never reaches
// the caller; it is logged and dropped. Increments are not idempotent, so each
// one is attempted exactly once.
type Recorder struct {
	meter   Meter
	timeout time.Duration
	logger  *slog.Logger

	wg sync.WaitGroup
}

// NewRecorder creates a Recorder. Each record gets its own timeout,
// detached from the caller's cancellation.
func NewRecorder(meter Meter, timeout time.Duration, logger *slog.Logger) *Recorder {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Recorder{
		meter:   meter,
		timeout: timeout,
		logger:  logger,
	}
}

// Record schedules inc and returns immediately.
func (r *Recorder) Record(ctx context.Context, inc model.UsageIncrement) {
	ctx = context.WithoutCancel(ctx)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		if err := r.meter.IncrementUsage(ctx, inc); err != nil {
			r.logger.Error("failed to record llm usage",
				"user_id", inc.UserID,
				"cost", inc.Cost,
				"error", err,
			)
			return
		}
		r.logger.Debug("recorded llm usage",
			"user_id", inc.UserID,
			"input_tokens", inc.InputTokens,
			"output_tokens", inc.OutputTokens,
		)
	}()
}

// Wait blocks until every scheduled record has finished.
func (r *Recorder) Wait() {
	r.wg.Wait()
}
