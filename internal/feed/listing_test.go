package feed

import (
	"errors"
	"testing"

	"github.com/amishk599/jobfeed/internal/model"
)

func listed(id string, status model.JobStatus, description string) model.Job {
	return model.Job{ID: id, UserID: "u1", Title: "Job " + id, Status: status, Description: description}
}

func newJobs(ids ...string) []model.Job {
	jobs := make([]model.Job, 0, len(ids))
	for _, id := range ids {
		jobs = append(jobs, listed(id, model.StatusNew, "desc "+id))
	}
	return jobs
}

// loadedListing returns a Listing on the new tab after one initial page.
func loadedListing(t *testing.T, batch int, policy ReconcilePolicy, page Page) *Listing {
	t.Helper()
	l := NewListing(batch, policy)
	req := l.Activate(model.StatusNew)
	if !l.Apply(req, page) {
		t.Fatal("Apply of the current request was dropped")
	}
	return l
}

func TestListing_InitialLoad(t *testing.T) {
	l := NewListing(2, ReconcileIgnore)
	req := l.Activate(model.StatusNew)

	if req.Status != model.StatusNew || req.Limit != 2 || req.Append || req.After != "" {
		t.Errorf("request = %+v", req)
	}
	if l.State() != LoadingInitial || !l.Loading() {
		t.Errorf("state = %v, want loading", l.State())
	}

	l.Apply(req, Page{Jobs: newJobs("a", "b"), New: 3, Applied: 1, NextPageToken: "tok-b"})

	if l.State() != Loaded || len(l.Jobs()) != 2 || !l.HasMore() || l.NextPageToken() != "tok-b" {
		t.Errorf("state = %v jobs = %d hasMore = %v token = %q", l.State(), len(l.Jobs()), l.HasMore(), l.NextPageToken())
	}
	if got := l.Counters(); got != (Counters{New: 3, Applied: 1}) {
		t.Errorf("counters = %+v", got)
	}
	if sel, ok := l.Selected(); !ok || sel.ID != "a" {
		t.Errorf("selected = %v %v, want first job", sel.ID, ok)
	}
}

func TestListing_LastPageHasNoMore(t *testing.T) {
	l := loadedListing(t, 2, ReconcileIgnore, Page{Jobs: newJobs("a"), New: 1})
	if l.HasMore() {
		t.Error("HasMore() = true on a page without token")
	}
	if _, ok := l.LoadMore(); ok {
		t.Error("LoadMore() started without a token")
	}
}

func TestListing_DropsResponsesOfInactiveTab(t *testing.T) {
	l := NewListing(30, ReconcileIgnore)
	stale := l.Activate(model.StatusNew)
	current := l.Activate(model.StatusApplied)

	if l.Apply(stale, Page{Jobs: newJobs("a", "b"), New: 2}) {
		t.Fatal("response of the new tab applied to the applied tab")
	}
	if len(l.Jobs()) != 0 || l.State() != LoadingInitial {
		t.Errorf("dropped response changed state: jobs = %d state = %v", len(l.Jobs()), l.State())
	}
	if l.Fail(stale, errors.New("boom")) {
		t.Error("failure of the inactive tab was recorded")
	}

	applied := []model.Job{listed("c", model.StatusApplied, "x")}
	if !l.Apply(current, Page{Jobs: applied, Applied: 1}) {
		t.Fatal("current response dropped")
	}
	if l.Status() != model.StatusApplied || len(l.Jobs()) != 1 {
		t.Errorf("status = %s jobs = %d", l.Status(), len(l.Jobs()))
	}
}

func TestListing_DropsResponsesOfReloadedTab(t *testing.T) {
	l := NewListing(30, ReconcileIgnore)
	first := l.Activate(model.StatusNew)
	l.Reload()

	if l.Apply(first, Page{Jobs: newJobs("a")}) {
		t.Error("response issued before the reload was applied")
	}
}

func TestListing_NeedsBackfill(t *testing.T) {
	tests := []struct {
		name string
		page Page
		want bool
	}{
		{"below half with token", Page{Jobs: newJobs("a"), NextPageToken: "t"}, true},
		{"empty with token", Page{NextPageToken: "t"}, true},
		{"exactly half", Page{Jobs: newJobs("a", "b"), NextPageToken: "t"}, false},
		{"no token", Page{Jobs: newJobs("a")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := loadedListing(t, 4, ReconcileIgnore, tt.page)
			if got := l.NeedsBackfill(); got != tt.want {
				t.Errorf("NeedsBackfill() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestListing_BackfillIsExclusiveWithLoadMore(t *testing.T) {
	l := loadedListing(t, 4, ReconcileIgnore, Page{Jobs: newJobs("a"), NextPageToken: "t"})

	req, ok := l.Backfill()
	if !ok || !req.Append || req.After != "t" {
		t.Fatalf("Backfill() = %+v, %v", req, ok)
	}
	if l.NeedsBackfill() {
		t.Error("NeedsBackfill() = true while a fetch is in flight")
	}
	if _, ok := l.Backfill(); ok {
		t.Error("second Backfill() started while loading")
	}
	if _, ok := l.LoadMore(); ok {
		t.Error("LoadMore() started while loading")
	}

	l.Apply(req, Page{Jobs: newJobs("b", "c", "d", "e"), NextPageToken: "t2"})
	if got := len(l.Jobs()); got != 5 {
		t.Errorf("jobs = %d, want 5 after append", got)
	}
	if l.NeedsBackfill() {
		t.Error("NeedsBackfill() = true above half a batch")
	}
}

func TestListing_FailedBackfillWaitsForLoadMore(t *testing.T) {
	l := loadedListing(t, 4, ReconcileIgnore, Page{Jobs: newJobs("a"), NextPageToken: "t"})
	req, _ := l.Backfill()

	boom := errors.New("network down")
	l.Fail(req, boom)

	if !errors.Is(l.Err(), boom) {
		t.Errorf("Err() = %v, want %v", l.Err(), boom)
	}
	if l.NeedsBackfill() {
		t.Error("failed backfill retried automatically")
	}
	if _, ok := l.LoadMore(); !ok {
		t.Error("LoadMore() refused after a failed backfill")
	}
	if l.Err() != nil {
		t.Error("LoadMore() did not clear the error")
	}
}

func TestListing_OptimisticMove(t *testing.T) {
	l := loadedListing(t, 30, ReconcileIgnore, Page{Jobs: newJobs("a", "b", "c"), New: 3, Applied: 1, Archived: 2})

	m, err := l.MoveJob("a", model.StatusApplied)
	if err != nil {
		t.Fatalf("MoveJob: %v", err)
	}
	if m.From != model.StatusNew || m.To != model.StatusApplied {
		t.Errorf("move = %+v", m)
	}
	if got := l.Counters(); got != (Counters{New: 2, Applied: 2, Archived: 2}) {
		t.Errorf("counters = %+v, want new 2 applied 2 archived 2", got)
	}
	for _, j := range l.Jobs() {
		if j.ID == "a" {
			t.Error("moved job still listed")
		}
	}
	if sel, _ := l.Selected(); sel.ID != "b" {
		t.Errorf("selected = %q, want next job b", sel.ID)
	}
	if !l.Stale() {
		t.Error("Stale() = false with an unconfirmed move")
	}

	l.ConfirmMove(m)
	if l.Stale() {
		t.Error("Stale() = true after confirmation")
	}
}

func TestListing_AppendKeepsCountersOfMovesInFlight(t *testing.T) {
	tests := []struct {
		name    string
		confirm bool // confirm the move before the page arrives
	}{
		{"move pending", false},
		{"move confirmed while fetching", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := loadedListing(t, 2, ReconcileIgnore, Page{Jobs: newJobs("a", "b"), New: 10, NextPageToken: "tok-b"})
			req, ok := l.LoadMore()
			if !ok {
				t.Fatal("LoadMore() = false")
			}
			m, err := l.MoveJob("a", model.StatusApplied)
			if err != nil {
				t.Fatalf("MoveJob: %v", err)
			}
			if tt.confirm {
				l.ConfirmMove(m)
			}

			// Totals computed by the server before the move landed.
			l.Apply(req, Page{Jobs: newJobs("c"), New: 10, NextPageToken: "tok-c"})
			l.ConfirmMove(m)
			if got := l.Counters(); got != (Counters{New: 9, Applied: 1}) {
				t.Errorf("counters = %+v, want new 9 applied 1", got)
			}

			// Nothing moved during the next fetch, so its totals win.
			req, _ = l.LoadMore()
			l.Apply(req, Page{Jobs: newJobs("d"), New: 8, Applied: 2})
			if got := l.Counters(); got != (Counters{New: 8, Applied: 2}) {
				t.Errorf("counters = %+v, want server totals new 8 applied 2", got)
			}
		})
	}
}

func TestListing_MoveRejectedIgnore(t *testing.T) {
	l := loadedListing(t, 30, ReconcileIgnore, Page{Jobs: newJobs("a", "b"), New: 2})
	m, _ := l.MoveJob("a", model.StatusArchived)

	if _, ok := l.FailMove(m); ok {
		t.Error("ignore policy issued a reload")
	}
	if !l.Stale() {
		t.Error("Stale() = false after a rejected move")
	}
	// No rollback.
	if got := l.Counters(); got.New != 1 || got.Archived != 1 {
		t.Errorf("counters = %+v, want optimistic values kept", got)
	}

	req := l.Reload()
	l.Apply(req, Page{Jobs: newJobs("a", "b"), New: 2})
	if l.Stale() {
		t.Error("Stale() = true after a full reload")
	}
}

func TestListing_MoveRejectedReload(t *testing.T) {
	l := loadedListing(t, 30, ReconcileReload, Page{Jobs: newJobs("a", "b"), New: 2})
	m, _ := l.MoveJob("a", model.StatusArchived)

	req, ok := l.FailMove(m)
	if !ok || req.Append || req.Status != model.StatusNew {
		t.Fatalf("FailMove() = %+v, %v, want a full reload", req, ok)
	}
	if l.State() != LoadingInitial {
		t.Errorf("state = %v, want loading", l.State())
	}
}

func TestListing_MoveErrors(t *testing.T) {
	l := loadedListing(t, 30, ReconcileIgnore, Page{Jobs: newJobs("a"), New: 1})

	if _, err := l.MoveJob("zzz", model.StatusApplied); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("unknown job err = %v, want ErrNotFound", err)
	}
	if _, err := l.MoveJob("a", model.StatusExcluded); !errors.Is(err, model.ErrTransitionNotAllowed) {
		t.Errorf("move to excluded err = %v, want ErrTransitionNotAllowed", err)
	}
	if _, err := l.MoveJob("a", model.StatusNew); !errors.Is(err, model.ErrTransitionNotAllowed) {
		t.Errorf("move to same status err = %v, want ErrTransitionNotAllowed", err)
	}
	if got := l.Counters(); got.New != 1 {
		t.Errorf("counters changed by rejected moves: %+v", got)
	}
}

func TestListing_SelectAndScan(t *testing.T) {
	jobs := []model.Job{listed("a", model.StatusNew, "has one"), listed("b", model.StatusNew, "")}
	l := loadedListing(t, 30, ReconcileIgnore, Page{Jobs: jobs, New: 2})

	if _, scan := l.Select("a"); scan {
		t.Error("scan requested for a job with a description")
	}

	job, scan := l.Select("b")
	if !scan || job.ID != "b" {
		t.Fatalf("Select(b) = %q, %v, want scan", job.ID, scan)
	}
	if !l.Scanning() {
		t.Error("Scanning() = false during scan")
	}
	if _, again := l.Select("b"); again {
		t.Error("second scan requested while scanning")
	}

	job.Description = "scanned text"
	l.ScanDone(job)

	if l.Scanning() {
		t.Error("Scanning() = true after scan")
	}
	sel, _ := l.Selected()
	if sel.Description != "scanned text" {
		t.Errorf("selected description = %q", sel.Description)
	}
	if l.Jobs()[1].Description != "scanned text" {
		t.Error("scanned job not patched into the list")
	}
}

func TestListing_ScanFailed(t *testing.T) {
	l := loadedListing(t, 30, ReconcileIgnore, Page{Jobs: []model.Job{listed("a", model.StatusNew, "")}, New: 1})
	l.Select("a")
	l.ScanFailed("a")

	if l.Scanning() {
		t.Error("Scanning() = true after failure")
	}
	if _, scan := l.Select("a"); !scan {
		t.Error("scan not retried on reselect")
	}
}

func TestParseReconcilePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    ReconcilePolicy
		wantErr bool
	}{
		{"", ReconcileIgnore, false},
		{"ignore", ReconcileIgnore, false},
		{"reload", ReconcileReload, false},
		{"rollback", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseReconcilePolicy(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseReconcilePolicy(%q) = %v, %v", tt.in, got, err)
		}
	}
}
