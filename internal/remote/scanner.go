package remote

import (
	"context"
	"fmt"

	"github.com/amishk599/jobfeed/internal/model"
	"github.com/amishk599/jobfeed/internal/retry"
)

// ScanFunction is the hosted function that fetches a posting and extracts
// its description.
const ScanFunction = "scan-job-description"

var _ model.Scanner = (*JobScanner)(nil)

// JobScanner is the scan collaborator backed by a hosted function.
type JobScanner struct {
	client  *Client
	retrier *retry.Retrier
}

// NewJobScanner returns a scanner that calls ScanFunction through retrier.
func NewJobScanner(client *Client, retrier *retry.Retrier) *JobScanner {
	return &JobScanner{client: client, retrier: retrier}
}

type scanRequest struct {
	JobID string `json:"jobId"`
	URL   string `json:"url"`
}

type scanResponse struct {
	Job struct {
		ID          string `json:"id"`
		Description string `json:"description"`
	} `json:"job"`
}

// ScanJob returns job with its description filled in by the hosted function.
func (s *JobScanner) ScanJob(ctx context.Context, job model.Job) (model.Job, error) {
	resp, err := retry.Do(ctx, s.retrier, func(ctx context.Context) retry.Result[scanResponse] {
		return Invoke[scanResponse](ctx, s.client, ScanFunction, scanRequest{JobID: job.ID, URL: job.ExternalURL})
	})
	if err != nil {
		return job, fmt.Errorf("scanning job %s: %w", job.ID, err)
	}
	job.Description = resp.Job.Description
	return job, nil
}
