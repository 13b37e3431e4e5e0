package model

import (
	"context"
	"time"
)

// JobType is the work arrangement advertised by a posting.
type JobType string

const (
	JobTypeRemote JobType = "remote"
	JobTypeHybrid JobType = "hybrid"
	JobTypeOnsite JobType = "onsite"
)

// Job is a posting scraped from an external job site and owned by one user.
// (SiteID, ExternalID) is unique per user.
type Job struct {
	ID          string    // opaque identity
	UserID      string    // owning user
	SiteID      int64     // source site
	ExternalID  string    // dedup key within a site
	ExternalURL string    // direct link to the posting
	Title       string
	CompanyName string
	CompanyLogo string
	Location    string
	Salary      string
	Tags        []string
	JobType     JobType
	Description string // empty until the scan step fills it in
	Status      JobStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasDescription reports whether the scan step has populated the description.
func (j Job) HasDescription() bool {
	return j.Description != ""
}

// Session is the explicit request context every core operation runs under.
type Session struct {
	UserID string
}

// Scanner enriches a job lacking a description with one.
type Scanner interface {
	ScanJob(ctx context.Context, job Job) (Job, error)
}

// Notifier sends notifications for jobs that reached the user's feed.
type Notifier interface {
	Notify(jobs []Job) error
}
