package notifier

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/amishk599/jobfeed/internal/model"
)

func TestLogNotifier_Notify_zeroJobs(t *testing.T) {
	n := NewLogNotifier(discardLogger())
	if err := n.Notify(nil); err != nil {
		t.Errorf("Notify(nil) = %v, want nil", err)
	}
	if err := n.Notify([]model.Job{}); err != nil {
		t.Errorf("Notify([]) = %v, want nil", err)
	}
}

func TestLogNotifier_Notify_logsEachJob(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))
	jobs := []model.Job{
		{ID: "1", CompanyName: "Acme", Title: "Engineer", Location: "Remote", ExternalURL: "https://example.com/1", Salary: "$100k"},
		{ID: "2", CompanyName: "Beta", Title: "Developer", Location: "US", ExternalURL: "https://example.com/2"},
	}
	if err := n.Notify(jobs); err != nil {
		t.Fatalf("Notify(jobs) = %v, want nil", err)
	}

	out := buf.String()
	if got := strings.Count(out, "new job in feed"); got != 2 {
		t.Errorf("logged %d lines, want 2:\n%s", got, out)
	}
	for _, want := range []string{"company=Acme", "salary=$100k", "url=https://example.com/2"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}
