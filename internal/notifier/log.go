package notifier

import (
	"log/slog"

	"github.com/amishk599/jobfeed/internal/model"
)

var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes jobs that reached the feed to the logger.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each job via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs one line per job. It never fails.
func (n *LogNotifier) Notify(jobs []model.Job) error {
	for _, j := range jobs {
		args := []any{"user_id", j.UserID, "job_id", j.ID, "company", j.CompanyName, "title", j.Title, "location", j.Location, "url", j.ExternalURL}
		if j.Salary != "" {
			args = append(args, "salary", j.Salary)
		}
		if j.JobType != "" {
			args = append(args, "job_type", j.JobType)
		}
		n.logger.Info("new job in feed", args...)
	}
	return nil
}
