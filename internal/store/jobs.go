package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/amishk599/jobfeed/internal/cursor"
	"github.com/amishk599/jobfeed/internal/model"
)

const jobColumns = `id, user_id, site_id, external_id, external_url, title, company_name,
	company_logo, location, salary, tags, job_type, description, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (model.Job, error) {
	var (
		j       model.Job
		tags    string
		jobType string
		status  string
		created int64
		updated int64
	)
	if err := row.Scan(
		&j.ID, &j.UserID, &j.SiteID, &j.ExternalID, &j.ExternalURL, &j.Title, &j.CompanyName,
		&j.CompanyLogo, &j.Location, &j.Salary, &tags, &jobType, &j.Description, &status,
		&created, &updated,
	); err != nil {
		return model.Job{}, err
	}
	if err := json.Unmarshal([]byte(tags), &j.Tags); err != nil {
		return model.Job{}, fmt.Errorf("decoding tags of job %s: %w", j.ID, err)
	}
	j.JobType = model.JobType(jobType)
	j.Status = model.JobStatus(status)
	j.CreatedAt = time.Unix(0, created).UTC()
	j.UpdatedAt = time.Unix(0, updated).UTC()
	return j, nil
}

// InsertJob stores a new job. It returns false without error when the user
// already has a job with the same (site_id, external_id).
func (s *SQLiteStore) InsertJob(ctx context.Context, job model.Job) (bool, error) {
	tags := job.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return false, fmt.Errorf("encoding tags of job %s: %w", job.ID, err)
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO jobs (`+jobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, site_id, external_id) DO NOTHING`,
		job.ID, job.UserID, job.SiteID, job.ExternalID, job.ExternalURL, job.Title, job.CompanyName,
		job.CompanyLogo, job.Location, job.Salary, string(tagsJSON), string(job.JobType), job.Description,
		string(job.Status), job.CreatedAt.UnixNano(), job.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return false, fmt.Errorf("inserting job %s: %w", job.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("inserting job %s: %w", job.ID, err)
	}
	return n == 1, nil
}

// JobExists reports whether the user already has the posting (siteID, externalID).
func (s *SQLiteStore) JobExists(ctx context.Context, userID string, siteID int64, externalID string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM jobs WHERE user_id = ? AND site_id = ? AND external_id = ?",
		userID, siteID, externalID,
	).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking job %d/%s: %w", siteID, externalID, err)
	}
	return true, nil
}

// GetJob returns one job of the user, or model.ErrNotFound.
func (s *SQLiteStore) GetJob(ctx context.Context, userID, jobID string) (model.Job, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+jobColumns+" FROM jobs WHERE user_id = ? AND id = ?", userID, jobID)
	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Job{}, fmt.Errorf("job %s: %w", jobID, model.ErrNotFound)
	}
	if err != nil {
		return model.Job{}, fmt.Errorf("getting job %s: %w", jobID, err)
	}
	return j, nil
}

// ListPage returns up to limit jobs with the given status in strictly
// decreasing (updated_at, id) order, starting strictly after the key when
// after is non-nil.
func (s *SQLiteStore) ListPage(ctx context.Context, userID string, status model.JobStatus, limit int, after *cursor.Key) ([]model.Job, error) {
	query := "SELECT " + jobColumns + " FROM jobs WHERE user_id = ? AND status = ?"
	args := []any{userID, string(status)}
	if after != nil {
		ts := after.UpdatedAt.UnixNano()
		query += " AND (updated_at < ? OR (updated_at = ? AND id < ?))"
		args = append(args, ts, ts, after.ID)
	}
	query += " ORDER BY updated_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing %s jobs: %w", status, err)
	}
	defer rows.Close()

	jobs := make([]model.Job, 0, limit)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("listing %s jobs: %w", status, err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing %s jobs: %w", status, err)
	}
	return jobs, nil
}

// CountByStatus returns the committed number of the user's jobs in status.
func (s *SQLiteStore) CountByStatus(ctx context.Context, userID string, status model.JobStatus) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM jobs WHERE user_id = ? AND status = ?", userID, string(status),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting %s jobs: %w", status, err)
	}
	return n, nil
}

// SetStatus overwrites status and updated_at of one job in a single statement.
func (s *SQLiteStore) SetStatus(ctx context.Context, userID, jobID string, status model.JobStatus, now time.Time) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE jobs SET status = ?, updated_at = ? WHERE user_id = ? AND id = ?",
		string(status), now.UnixNano(), userID, jobID,
	)
	if err != nil {
		return fmt.Errorf("updating status of job %s: %w", jobID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating status of job %s: %w", jobID, err)
	}
	if n == 0 {
		return fmt.Errorf("job %s: %w", jobID, model.ErrNotFound)
	}
	return nil
}

// ChangeAllStatus moves every job of the user in status from to status to
// and returns how many rows changed.
func (s *SQLiteStore) ChangeAllStatus(ctx context.Context, userID string, from, to model.JobStatus, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE jobs SET status = ?, updated_at = ? WHERE user_id = ? AND status = ?",
		string(to), now.UnixNano(), userID, string(from),
	)
	if err != nil {
		return 0, fmt.Errorf("moving %s jobs to %s: %w", from, to, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("moving %s jobs to %s: %w", from, to, err)
	}
	return n, nil
}

// UpdateDescription stores the scanned description of a job. The job's
// position in the feed is unchanged.
func (s *SQLiteStore) UpdateDescription(ctx context.Context, userID, jobID, description string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE jobs SET description = ? WHERE user_id = ? AND id = ?", description, userID, jobID)
	if err != nil {
		return fmt.Errorf("updating description of job %s: %w", jobID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating description of job %s: %w", jobID, err)
	}
	if n == 0 {
		return fmt.Errorf("job %s: %w", jobID, model.ErrNotFound)
	}
	return nil
}
