package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/amishk599/jobfeed/internal/feed"
	"github.com/amishk599/jobfeed/internal/model"
)

// callTimeout bounds every remote call issued from the TUI, retries included.
const callTimeout = 2 * time.Minute

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// pageLoadedMsg is sent when a page fetch completes.
type pageLoadedMsg struct {
	req  feed.FetchRequest
	page feed.Page
	err  error
}

// moveDoneMsg is sent when the server answers an optimistic move.
type moveDoneMsg struct {
	move feed.Move
	err  error
}

// scanDoneMsg is sent when an async scan completes.
type scanDoneMsg struct {
	jobID string
	job   model.Job
	err   error
}

type spinnerTickMsg struct{}

func fetchCmd(api FeedAPI, sess model.Session, req feed.FetchRequest) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		page, err := api.ListJobs(ctx, sess, req.Status, req.Limit, req.After)
		return pageLoadedMsg{req: req, page: page, err: err}
	}
}

func moveCmd(api FeedAPI, sess model.Session, m feed.Move) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		err := api.UpdateJobStatus(ctx, sess, m.JobID, m.To)
		return moveDoneMsg{move: m, err: err}
	}
}

func scanCmd(api FeedAPI, sess model.Session, job model.Job) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		scanned, err := api.ScanJob(ctx, sess, job)
		return scanDoneMsg{jobID: job.ID, job: scanned, err: err}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg {
		return spinnerTickMsg{}
	})
}
