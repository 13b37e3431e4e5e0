package store

import (
	"context"

	"github.com/amishk599/jobfeed/internal/model"
)

// NopSink is a no-op job sink used by dry-run ingestion. It never reports a
// job as existing and never persists, so every record is classified.
type NopSink struct{}

func NewNopSink() *NopSink { return &NopSink{} }

func (NopSink) JobExists(context.Context, string, int64, string) (bool, error) { return false, nil }
func (NopSink) InsertJob(context.Context, model.Job) (bool, error)             { return true, nil }
