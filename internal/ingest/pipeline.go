// Package ingest stores freshly scraped postings in a user's feed.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/amishk599/jobfeed/internal/model"
	"github.com/amishk599/jobfeed/internal/retry"
)

// Sink is where ingested jobs are stored.
type Sink interface {
	JobExists(ctx context.Context, userID string, siteID int64, externalID string) (bool, error)
	InsertJob(ctx context.Context, job model.Job) (bool, error)
}

// Classifier picks the initial status of a job.
type Classifier interface {
	Classify(ctx context.Context, job model.Job, now time.Time) (model.JobStatus, error)
}

// Result summarizes one run.
type Result struct {
	Received   int
	Invalid    int
	Duplicates int
	New        int
	Excluded   int
}

// Pipeline runs fetch → dedup → classify → insert → notify for one user.
type Pipeline struct {
	sink       Sink
	classifier Classifier
	notifier   model.Notifier
	retrier    *retry.Retrier
	logger     *slog.Logger
	now        func() time.Time
	newID      func() string
}

// NewPipeline creates a pipeline wired with all its dependencies. Sink calls
// go through retrier.
func NewPipeline(sink Sink, classifier Classifier, notifier model.Notifier, retrier *retry.Retrier, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		sink:       sink,
		classifier: classifier,
		notifier:   notifier,
		retrier:    retrier,
		logger:     logger,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Run ingests every record of src. Jobs already known by (siteId,
// externalId) are skipped; invalid records are logged and skipped. Jobs that
// land in the feed as new are passed to the notifier.
func (p *Pipeline) Run(ctx context.Context, sess model.Session, src Source) (Result, error) {
	records, err := src.Records(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("ingesting for %s: %w", sess.UserID, err)
	}

	res := Result{Received: len(records)}
	var visible []model.Job
	for _, rec := range records {
		if err := rec.validate(); err != nil {
			p.logger.Warn("skipping invalid record", "site_id", rec.SiteID, "external_id", rec.ExternalID, "error", err)
			res.Invalid++
			continue
		}

		exists, err := retry.Call(ctx, p.retrier, func(ctx context.Context) (bool, error) {
			return p.sink.JobExists(ctx, sess.UserID, rec.SiteID, rec.ExternalID)
		})
		if err != nil {
			return res, fmt.Errorf("ingesting for %s: %w", sess.UserID, err)
		}
		if exists {
			res.Duplicates++
			continue
		}

		now := p.now()
		job := rec.job(sess.UserID)
		job.ID = p.newID()
		job.CreatedAt = now
		job.UpdatedAt = now

		status, err := p.classifier.Classify(ctx, job, now)
		if err != nil {
			return res, fmt.Errorf("ingesting for %s: %w", sess.UserID, err)
		}
		job.Status = status

		// A repeated insert of the same (site, external id) is a no-op.
		inserted, err := retry.Call(ctx, p.retrier, func(ctx context.Context) (bool, error) {
			return p.sink.InsertJob(ctx, job)
		})
		if err != nil {
			return res, fmt.Errorf("ingesting for %s: %w", sess.UserID, err)
		}
		if !inserted {
			res.Duplicates++
			continue
		}

		if status == model.StatusExcluded {
			res.Excluded++
			continue
		}
		res.New++
		visible = append(visible, job)
	}

	if len(visible) > 0 {
		if err := p.notifier.Notify(visible); err != nil {
			return res, fmt.Errorf("ingesting for %s: notifying: %w", sess.UserID, err)
		}
	}

	p.logger.Info("ingested jobs",
		"user_id", sess.UserID,
		"received", res.Received,
		"invalid", res.Invalid,
		"duplicates", res.Duplicates,
		"new", res.New,
		"excluded", res.Excluded,
	)
	return res, nil
}
