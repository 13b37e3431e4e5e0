// Package feed serves a user's paged job feed with per-status counters and
// the status moves made from it.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/amishk599/jobfeed/internal/cursor"
	"github.com/amishk599/jobfeed/internal/model"
	"github.com/amishk599/jobfeed/internal/retry"
)

// DefaultPageSize is the number of jobs fetched per page.
const DefaultPageSize = 30

// ErrScanUnavailable is returned by ScanJob when no scanner is configured.
var ErrScanUnavailable = errors.New("job scanning is not configured")

// Store is the storage layer the feed reads and updates.
type Store interface {
	ListPage(ctx context.Context, userID string, status model.JobStatus, limit int, after *cursor.Key) ([]model.Job, error)
	CountByStatus(ctx context.Context, userID string, status model.JobStatus) (int, error)
	GetJob(ctx context.Context, userID, jobID string) (model.Job, error)
	SetStatus(ctx context.Context, userID, jobID string, status model.JobStatus, now time.Time) error
	ChangeAllStatus(ctx context.Context, userID string, from, to model.JobStatus, now time.Time) (int64, error)
	UpdateDescription(ctx context.Context, userID, jobID, description string) error
}

// Page is one page of a status listing plus the committed counters of
// every tab.
type Page struct {
	Jobs          []model.Job
	New           int
	Applied       int
	Archived      int
	NextPageToken string // empty on the last page
}

// Counters returns the page's tab counters.
func (p Page) Counters() Counters {
	return Counters{New: p.New, Applied: p.Applied, Archived: p.Archived}
}

// Service implements feed operations on top of a Store. Every storage call
// goes through the retrier.
type Service struct {
	store   Store
	scanner model.Scanner
	retrier *retry.Retrier
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates a Service. scanner may be nil, which disables ScanJob.
func NewService(store Store, scanner model.Scanner, retrier *retry.Retrier, logger *slog.Logger) *Service {
	return &Service{
		store:   store,
		scanner: scanner,
		retrier: retrier,
		logger:  logger,
		now:     time.Now,
	}
}

// do runs op through the retrier. A missing row is final and not retried.
func do[T any](ctx context.Context, r *retry.Retrier, op func(ctx context.Context) (T, error)) (T, error) {
	return retry.Call(ctx, r, op, model.ErrNotFound)
}

// ListJobs returns up to limit jobs with status, newest first, starting after
// the continuation token when one is given. NextPageToken is set exactly when
// the page is full. The counters are queried concurrently with the page.
func (s *Service) ListJobs(ctx context.Context, sess model.Session, status model.JobStatus, limit int, after string) (Page, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	var afterKey *cursor.Key
	if after != "" {
		k, err := cursor.Decode(after)
		if err != nil {
			return Page{}, fmt.Errorf("listing %s jobs: %w", status, err)
		}
		afterKey = &k
	}

	var page Page
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		jobs, err := do(gctx, s.retrier, func(ctx context.Context) ([]model.Job, error) {
			return s.store.ListPage(ctx, sess.UserID, status, limit, afterKey)
		})
		page.Jobs = jobs
		return err
	})
	counters := map[model.JobStatus]*int{
		model.StatusNew:      &page.New,
		model.StatusApplied:  &page.Applied,
		model.StatusArchived: &page.Archived,
	}
	for st, dst := range counters {
		g.Go(func() error {
			n, err := do(gctx, s.retrier, func(ctx context.Context) (int, error) {
				return s.store.CountByStatus(ctx, sess.UserID, st)
			})
			*dst = n
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return Page{}, err
	}

	if len(page.Jobs) == limit {
		last := page.Jobs[len(page.Jobs)-1]
		page.NextPageToken = cursor.Encode(cursor.Key{ID: last.ID, UpdatedAt: last.UpdatedAt})
	}

	s.logger.Debug("listed jobs",
		"user_id", sess.UserID,
		"status", status,
		"count", len(page.Jobs),
		"has_more", page.NextPageToken != "",
	)
	return page, nil
}

// GetJob returns one of the user's jobs.
func (s *Service) GetJob(ctx context.Context, sess model.Session, jobID string) (model.Job, error) {
	return do(ctx, s.retrier, func(ctx context.Context) (model.Job, error) {
		return s.store.GetJob(ctx, sess.UserID, jobID)
	})
}

// UpdateJobStatus moves one job to status. Moves into or out of the excluded
// status are rejected before storage is touched for writing.
func (s *Service) UpdateJobStatus(ctx context.Context, sess model.Session, jobID string, status model.JobStatus) error {
	if !status.IsUserReachable() {
		return fmt.Errorf("%w: cannot move job %s to %s", model.ErrTransitionNotAllowed, jobID, status)
	}
	job, err := s.GetJob(ctx, sess, jobID)
	if err != nil {
		return fmt.Errorf("updating status of job %s: %w", jobID, err)
	}
	if err := model.CheckTransition(job.Status, status); err != nil {
		return fmt.Errorf("updating status of job %s: %w", jobID, err)
	}

	now := s.now()
	err = retry.Run(ctx, s.retrier, func(ctx context.Context) error {
		err := s.store.SetStatus(ctx, sess.UserID, jobID, status, now)
		if errors.Is(err, model.ErrNotFound) {
			return retry.Permanent(err)
		}
		return err
	})
	if err != nil {
		return err
	}
	s.logger.Info("job status updated", "user_id", sess.UserID, "job_id", jobID, "from", job.Status, "status", status)
	return nil
}

// ChangeAllJobsStatus moves every job of the user in status from to status to
// and returns the number of jobs moved.
func (s *Service) ChangeAllJobsStatus(ctx context.Context, sess model.Session, from, to model.JobStatus) (int64, error) {
	if err := model.CheckTransition(from, to); err != nil {
		return 0, fmt.Errorf("moving all %s jobs: %w", from, err)
	}
	now := s.now()
	n, err := do(ctx, s.retrier, func(ctx context.Context) (int64, error) {
		return s.store.ChangeAllStatus(ctx, sess.UserID, from, to, now)
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("moved all jobs", "user_id", sess.UserID, "from", from, "status", to, "count", n)
	return n, nil
}

// ScanJob fetches the description of a job through the scanner and stores
// it. The returned job carries the description.
func (s *Service) ScanJob(ctx context.Context, sess model.Session, job model.Job) (model.Job, error) {
	if s.scanner == nil {
		return job, ErrScanUnavailable
	}
	scanned, err := s.scanner.ScanJob(ctx, job)
	if err != nil {
		return job, err
	}
	err = retry.Run(ctx, s.retrier, func(ctx context.Context) error {
		err := s.store.UpdateDescription(ctx, sess.UserID, job.ID, scanned.Description)
		if errors.Is(err, model.ErrNotFound) {
			return retry.Permanent(err)
		}
		return err
	})
	if err != nil {
		return job, fmt.Errorf("storing description of job %s: %w", job.ID, err)
	}
	s.logger.Info("job scanned", "user_id", sess.UserID, "job_id", job.ID, "description_len", len(scanned.Description))
	return scanned, nil
}
