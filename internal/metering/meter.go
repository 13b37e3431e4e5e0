// Package metering records per-user LLM usage for billing and reporting.
package metering

import (
	"context"

	"github.com/amishk599/jobfeed/internal/model"
	"github.com/amishk599/jobfeed/internal/store"
)

// Meter accumulates usage per user.
type Meter interface {
	IncrementUsage(ctx context.Context, inc model.UsageIncrement) error
	GetUsage(ctx context.Context, userID string) (model.Usage, error)
}

var _ Meter = (*store.SQLiteStore)(nil)

// NopMeter discards increments and reports zero usage. Dry runs use it.
type NopMeter struct{}

func (NopMeter) IncrementUsage(context.Context, model.UsageIncrement) error { return nil }
func (NopMeter) GetUsage(context.Context, string) (model.Usage, error)      { return model.Usage{}, nil }
