package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/amishk599/jobfeed/internal/model"
)

// Record is one scraped posting as delivered by the external scraper.
type Record struct {
	SiteID      int64    `json:"siteId"`
	ExternalID  string   `json:"externalId"`
	ExternalURL string   `json:"externalUrl"`
	Title       string   `json:"title"`
	CompanyName string   `json:"companyName"`
	CompanyLogo string   `json:"companyLogo,omitempty"`
	Location    string   `json:"location,omitempty"`
	Salary      string   `json:"salary,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	JobType     string   `json:"jobType,omitempty"`
	Description string   `json:"description,omitempty"`
}

// validate reports the first missing required field.
func (r Record) validate() error {
	switch {
	case strings.TrimSpace(r.ExternalID) == "":
		return fmt.Errorf("missing externalId")
	case strings.TrimSpace(r.Title) == "":
		return fmt.Errorf("missing title")
	}
	return nil
}

// job converts the record into a job of userID. Identity, status and
// timestamps are set by the pipeline.
func (r Record) job(userID string) model.Job {
	return model.Job{
		UserID:      userID,
		SiteID:      r.SiteID,
		ExternalID:  r.ExternalID,
		ExternalURL: r.ExternalURL,
		Title:       strings.TrimSpace(r.Title),
		CompanyName: strings.TrimSpace(r.CompanyName),
		CompanyLogo: r.CompanyLogo,
		Location:    r.Location,
		Salary:      r.Salary,
		Tags:        r.Tags,
		JobType:     model.JobType(strings.ToLower(r.JobType)),
		Description: strings.TrimSpace(r.Description),
	}
}

// Source yields a batch of scraped records.
type Source interface {
	Records(ctx context.Context) ([]Record, error)
}

// ReaderSource decodes a JSON array of records from a reader.
type ReaderSource struct {
	r    io.Reader
	name string
}

// NewReaderSource returns a Source reading from r. name labels errors.
func NewReaderSource(r io.Reader, name string) *ReaderSource {
	return &ReaderSource{r: r, name: name}
}

// Records decodes the whole input.
func (s *ReaderSource) Records(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var records []Record
	if err := json.NewDecoder(s.r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding records from %s: %w", s.name, err)
	}
	return records, nil
}
