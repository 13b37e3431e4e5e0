package feed

import (
	"fmt"
	"slices"

	"github.com/amishk599/jobfeed/internal/model"
)

// LoadState is the fetch state of the active tab.
type LoadState int

const (
	Idle LoadState = iota
	LoadingInitial
	Loaded
	LoadingMore
)

func (s LoadState) String() string {
	switch s {
	case Idle:
		return "idle"
	case LoadingInitial:
		return "loading"
	case Loaded:
		return "loaded"
	case LoadingMore:
		return "loading more"
	}
	return fmt.Sprintf("LoadState(%d)", int(s))
}

// ReconcilePolicy says what a Listing does when the server rejects an
// optimistic move.
type ReconcilePolicy int

const (
	// ReconcileIgnore keeps the local state, marked stale, until the next
	// full reload.
	ReconcileIgnore ReconcilePolicy = iota
	// ReconcileReload issues a fresh initial fetch of the active tab.
	ReconcileReload
)

// ParseReconcilePolicy converts a config value to a ReconcilePolicy.
func ParseReconcilePolicy(s string) (ReconcilePolicy, error) {
	switch s {
	case "", "ignore":
		return ReconcileIgnore, nil
	case "reload":
		return ReconcileReload, nil
	}
	return 0, fmt.Errorf("unknown reconcile policy %q (want ignore or reload)", s)
}

// Counters are the per-status totals shown on the tabs.
type Counters struct {
	New      int
	Applied  int
	Archived int
}

// Of returns the counter for status; zero for uncounted statuses.
func (c Counters) Of(status model.JobStatus) int {
	switch status {
	case model.StatusNew:
		return c.New
	case model.StatusApplied:
		return c.Applied
	case model.StatusArchived:
		return c.Archived
	}
	return 0
}

func (c *Counters) add(status model.JobStatus, delta int) {
	switch status {
	case model.StatusNew:
		c.New += delta
	case model.StatusApplied:
		c.Applied += delta
	case model.StatusArchived:
		c.Archived += delta
	}
}

// FetchRequest is a page fetch issued by a Listing. The caller performs it
// and hands the result back with Apply or Fail.
type FetchRequest struct {
	Status model.JobStatus
	After  string
	Limit  int
	Append bool

	gen   uint64
	moves uint64
}

// Move is an optimistic status change awaiting server confirmation.
type Move struct {
	JobID string
	From  model.JobStatus
	To    model.JobStatus

	gen uint64
}

// Listing is the client-side state of the paged feed for one tab at a time.
// It performs no I/O: every transition that needs the server returns a
// request for the caller to execute. Not safe for concurrent use.
type Listing struct {
	batchSize int
	policy    ReconcilePolicy

	status    model.JobStatus
	gen       uint64
	state     LoadState
	jobs      []model.Job
	nextToken string
	hasMore   bool
	counters  Counters
	fetchErr  error

	pending  map[string]Move
	moves    uint64 // optimistic moves made so far
	rejected bool

	selectedID string
	scanningID string
}

// NewListing creates a Listing fetching batchSize jobs per page.
func NewListing(batchSize int, policy ReconcilePolicy) *Listing {
	if batchSize <= 0 {
		batchSize = DefaultPageSize
	}
	return &Listing{
		batchSize: batchSize,
		policy:    policy,
		status:    model.StatusNew,
		pending:   make(map[string]Move),
	}
}

// Activate switches to status and starts a full reload. Responses to
// requests issued before the switch are dropped.
func (l *Listing) Activate(status model.JobStatus) FetchRequest {
	l.gen++
	l.status = status
	l.state = LoadingInitial
	l.jobs = nil
	l.nextToken = ""
	l.hasMore = true
	l.fetchErr = nil
	l.pending = make(map[string]Move)
	l.rejected = false
	l.selectedID = ""
	l.scanningID = ""
	return FetchRequest{Status: status, Limit: l.batchSize, gen: l.gen}
}

// Reload starts a full reload of the active tab.
func (l *Listing) Reload() FetchRequest {
	return l.Activate(l.status)
}

func (l *Listing) current(gen uint64, status model.JobStatus) bool {
	return gen == l.gen && status == l.status
}

// Apply stores the result of req. It reports false, leaving the Listing
// untouched, when req belongs to a tab that is no longer active.
func (l *Listing) Apply(req FetchRequest, page Page) bool {
	if !l.current(req.gen, req.Status) {
		return false
	}
	if req.Append {
		l.jobs = append(l.jobs, page.Jobs...)
	} else {
		l.jobs = slices.Clone(page.Jobs)
		if len(l.jobs) > 0 {
			l.selectedID = l.jobs[0].ID
		}
	}
	l.nextToken = page.NextPageToken
	l.hasMore = page.NextPageToken != ""
	// Server totals of an appended page may predate moves made while it was
	// in flight or still unconfirmed; the local totals already count those.
	if !req.Append || (len(l.pending) == 0 && req.moves == l.moves) {
		l.counters = page.Counters()
	}
	l.fetchErr = nil
	l.state = Loaded
	return true
}

// Fail records a failed fetch. A failed backfill is not retried
// automatically; LoadMore retries it.
func (l *Listing) Fail(req FetchRequest, err error) bool {
	if !l.current(req.gen, req.Status) {
		return false
	}
	l.fetchErr = err
	if req.Append {
		l.state = Loaded
	} else {
		l.state = Idle
	}
	return true
}

// NeedsBackfill reports whether the loaded jobs fell below half a batch
// while more pages exist and no fetch is in flight.
func (l *Listing) NeedsBackfill() bool {
	return l.state == Loaded &&
		l.fetchErr == nil &&
		len(l.jobs) < l.batchSize/2 &&
		l.hasMore &&
		l.nextToken != ""
}

// Backfill starts the automatic fetch of the next page if NeedsBackfill.
func (l *Listing) Backfill() (FetchRequest, bool) {
	if !l.NeedsBackfill() {
		return FetchRequest{}, false
	}
	return l.nextPage(), true
}

// LoadMore starts a user-requested fetch of the next page. It does nothing
// while another fetch is in flight or when no page is left.
func (l *Listing) LoadMore() (FetchRequest, bool) {
	if l.state != Loaded || !l.hasMore || l.nextToken == "" {
		return FetchRequest{}, false
	}
	return l.nextPage(), true
}

func (l *Listing) nextPage() FetchRequest {
	l.state = LoadingMore
	l.fetchErr = nil
	return FetchRequest{Status: l.status, After: l.nextToken, Limit: l.batchSize, Append: true, gen: l.gen, moves: l.moves}
}

// MoveJob optimistically moves a loaded job to status to: the job leaves the
// list and the counters shift by one before the server is asked. The caller
// sends the returned Move and reports back with ConfirmMove or FailMove.
func (l *Listing) MoveJob(jobID string, to model.JobStatus) (Move, error) {
	i := l.indexOf(jobID)
	if i < 0 {
		return Move{}, fmt.Errorf("job %s: %w", jobID, model.ErrNotFound)
	}
	from := l.jobs[i].Status
	if err := model.CheckTransition(from, to); err != nil {
		return Move{}, err
	}

	l.jobs = slices.Delete(l.jobs, i, i+1)
	l.counters.add(from, -1)
	l.counters.add(to, 1)

	if l.selectedID == jobID {
		l.selectedID = ""
		if len(l.jobs) > 0 {
			l.selectedID = l.jobs[min(i, len(l.jobs)-1)].ID
		}
	}
	if l.scanningID == jobID {
		l.scanningID = ""
	}

	m := Move{JobID: jobID, From: from, To: to, gen: l.gen}
	l.pending[jobID] = m
	l.moves++
	return m, nil
}

// ConfirmMove records that the server accepted m.
func (l *Listing) ConfirmMove(m Move) {
	if m.gen != l.gen {
		return
	}
	delete(l.pending, m.JobID)
}

// FailMove records that the server rejected m. The optimistic change is not
// rolled back; the Listing stays stale until the next reload. Under
// ReconcileReload the reload is returned for the caller to run.
func (l *Listing) FailMove(m Move) (FetchRequest, bool) {
	if m.gen != l.gen {
		return FetchRequest{}, false
	}
	delete(l.pending, m.JobID)
	l.rejected = true
	if l.policy == ReconcileReload {
		return l.Reload(), true
	}
	return FetchRequest{}, false
}

// Select marks jobID as the selected job. It reports true when the job has
// no description yet and a scan should start; the caller runs it and
// reports back with ScanDone or ScanFailed.
func (l *Listing) Select(jobID string) (model.Job, bool) {
	i := l.indexOf(jobID)
	if i < 0 {
		return model.Job{}, false
	}
	l.selectedID = jobID
	job := l.jobs[i]
	if job.HasDescription() || l.scanningID == jobID {
		return job, false
	}
	l.scanningID = jobID
	return job, true
}

// ScanDone patches the scanned job into the list.
func (l *Listing) ScanDone(job model.Job) {
	if l.scanningID == job.ID {
		l.scanningID = ""
	}
	if i := l.indexOf(job.ID); i >= 0 {
		l.jobs[i] = job
	}
}

// ScanFailed clears the scanning flag of jobID.
func (l *Listing) ScanFailed(jobID string) {
	if l.scanningID == jobID {
		l.scanningID = ""
	}
}

func (l *Listing) indexOf(jobID string) int {
	return slices.IndexFunc(l.jobs, func(j model.Job) bool { return j.ID == jobID })
}

// Status returns the active tab.
func (l *Listing) Status() model.JobStatus { return l.status }

// Jobs returns the loaded jobs in feed order. The slice must not be modified.
func (l *Listing) Jobs() []model.Job { return l.jobs }

// Counters returns the tab counters, including optimistic moves.
func (l *Listing) Counters() Counters { return l.counters }

// State returns the fetch state.
func (l *Listing) State() LoadState { return l.state }

// Loading reports whether a fetch is in flight.
func (l *Listing) Loading() bool {
	return l.state == LoadingInitial || l.state == LoadingMore
}

// HasMore reports whether another page may exist.
func (l *Listing) HasMore() bool { return l.hasMore }

// NextPageToken returns the token of the next page, empty on the last page.
func (l *Listing) NextPageToken() string { return l.nextToken }

// Err returns the error of the last failed fetch, cleared by the next
// successful one.
func (l *Listing) Err() error { return l.fetchErr }

// Stale reports whether the local state may diverge from the server: a move
// is unconfirmed, or one was rejected since the last full reload.
func (l *Listing) Stale() bool { return len(l.pending) > 0 || l.rejected }

// Selected returns the selected job.
func (l *Listing) Selected() (model.Job, bool) {
	i := l.indexOf(l.selectedID)
	if i < 0 {
		return model.Job{}, false
	}
	return l.jobs[i], true
}

// Scanning reports whether the selected job is being scanned.
func (l *Listing) Scanning() bool {
	return l.scanningID != "" && l.scanningID == l.selectedID
}
