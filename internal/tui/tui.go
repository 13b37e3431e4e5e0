package tui

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobfeed/internal/feed"
	"github.com/amishk599/jobfeed/internal/model"
)

// Lines per job item in the list view (title + subtitle + blank separator).
const jobItemHeight = 3

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

// FeedAPI is the subset of feed.Service the TUI drives.
type FeedAPI interface {
	ListJobs(ctx context.Context, sess model.Session, status model.JobStatus, limit int, after string) (feed.Page, error)
	UpdateJobStatus(ctx context.Context, sess model.Session, jobID string, status model.JobStatus) error
	ScanJob(ctx context.Context, sess model.Session, job model.Job) (model.Job, error)
}

type feedModel struct {
	api     FeedAPI
	sess    model.Session
	listing *feed.Listing

	listViewport   viewport.Model
	detailViewport viewport.Model
	cursor         int
	width          int
	height         int
	ready          bool

	view            viewState
	showDescription bool

	userErr *model.UserError
	frame   int
	ticking bool
}

func newModel(api FeedAPI, sess model.Session, pageSize int, policy feed.ReconcilePolicy) feedModel {
	return feedModel{
		api:     api,
		sess:    sess,
		listing: feed.NewListing(pageSize, policy),
		ticking: true, // Init starts the first tick
	}
}

func (m feedModel) Init() tea.Cmd {
	req := m.listing.Activate(model.StatusNew)
	return tea.Batch(fetchCmd(m.api, m.sess, req), tickCmd())
}

func (m feedModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		return m, nil

	case pageLoadedMsg:
		if msg.err != nil {
			if m.listing.Fail(msg.req, msg.err) {
				m.setError("Failed to load jobs", msg.err)
			}
			m.refresh()
			return m, nil
		}
		if !m.listing.Apply(msg.req, msg.page) {
			return m, nil
		}
		if !msg.req.Append {
			m.cursor = 0
			m.listViewport.SetYOffset(0)
		}
		m.refresh()
		cmd := m.backfill()
		return m, cmd

	case moveDoneMsg:
		if msg.err != nil {
			m.setError("Failed to update job status", msg.err)
			if req, ok := m.listing.FailMove(msg.move); ok {
				m.view = viewList
				cmd := m.fetch(req)
				return m, cmd
			}
			m.refresh()
			return m, nil
		}
		m.listing.ConfirmMove(msg.move)
		m.refresh()
		return m, nil

	case scanDoneMsg:
		if msg.err != nil {
			m.listing.ScanFailed(msg.jobID)
			m.setError("Failed to scan job", msg.err)
		} else {
			m.listing.ScanDone(msg.job)
		}
		m.refresh()
		return m, nil

	case spinnerTickMsg:
		if !m.busy() {
			m.ticking = false
			return m, nil
		}
		m.frame = (m.frame + 1) % len(spinnerFrames)
		m.refresh()
		return m, tickCmd()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
		m.userErr = nil
		if m.view == viewDetail {
			return m.updateDetailView(msg)
		}
		return m.updateListView(msg)
	}

	return m, nil
}

func (m feedModel) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "right", "l":
		return m.switchTab(1)
	case "shift+tab", "left", "h":
		return m.switchTab(-1)
	case "1":
		return m.activate(model.StatusNew)
	case "2":
		return m.activate(model.StatusApplied)
	case "3":
		return m.activate(model.StatusArchived)
	case "r":
		cmd := m.fetch(m.listing.Reload())
		return m, cmd
	case "up", "k":
		m.moveCursor(-1)
		m.refresh()
		return m, nil
	case "down", "j":
		m.moveCursor(1)
		m.refresh()
		var cmd tea.Cmd
		if m.cursor == len(m.listing.Jobs())-1 {
			cmd = m.loadMore()
		}
		return m, cmd
	case "G", "end":
		m.cursor = max(len(m.listing.Jobs())-1, 0)
		m.refresh()
		cmd := m.loadMore()
		return m, cmd
	case "enter":
		return m.openDetailView()
	case "a":
		return m.move(model.StatusApplied)
	case "x":
		return m.move(model.StatusArchived)
	case "n":
		return m.move(model.StatusNew)
	case "o":
		if jobs := m.listing.Jobs(); len(jobs) > 0 {
			openURL(jobs[m.cursor].ExternalURL)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.listViewport, cmd = m.listViewport.Update(msg)
	return m, cmd
}

func (m feedModel) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace":
		m.view = viewList
		m.refresh()
		return m, nil
	case "o":
		if job, ok := m.listing.Selected(); ok {
			openURL(job.ExternalURL)
		}
		return m, nil
	case "d":
		if job, ok := m.listing.Selected(); ok && job.HasDescription() {
			m.showDescription = !m.showDescription
			m.refresh()
			m.detailViewport.SetYOffset(0)
		}
		return m, nil
	case "a":
		return m.moveSelected(model.StatusApplied)
	case "x":
		return m.moveSelected(model.StatusArchived)
	case "n":
		return m.moveSelected(model.StatusNew)
	}

	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

func (m feedModel) switchTab(delta int) (tea.Model, tea.Cmd) {
	tabs := model.CountedStatuses
	i := 0
	for k, s := range tabs {
		if s == m.listing.Status() {
			i = k
		}
	}
	return m.activate(tabs[(i+delta+len(tabs))%len(tabs)])
}

func (m feedModel) activate(status model.JobStatus) (tea.Model, tea.Cmd) {
	m.view = viewList
	m.cursor = 0
	m.listViewport.SetYOffset(0)
	cmd := m.fetch(m.listing.Activate(status))
	return m, cmd
}

func (m feedModel) openDetailView() (tea.Model, tea.Cmd) {
	jobs := m.listing.Jobs()
	if len(jobs) == 0 {
		return m, nil
	}
	job, needsScan := m.listing.Select(jobs[m.cursor].ID)
	m.view = viewDetail
	m.showDescription = false
	m.detailViewport = viewport.New(max(m.width-4, 20), max(m.height-4, 5))
	m.refresh()
	if needsScan {
		cmd := tea.Batch(scanCmd(m.api, m.sess, job), m.startTick())
		return m, cmd
	}
	return m, nil
}

func (m feedModel) move(to model.JobStatus) (tea.Model, tea.Cmd) {
	jobs := m.listing.Jobs()
	if len(jobs) == 0 {
		return m, nil
	}
	return m.moveJob(jobs[m.cursor].ID, to)
}

func (m feedModel) moveSelected(to model.JobStatus) (tea.Model, tea.Cmd) {
	job, ok := m.listing.Selected()
	if !ok {
		return m, nil
	}
	m.view = viewList
	return m.moveJob(job.ID, to)
}

func (m feedModel) moveJob(jobID string, to model.JobStatus) (tea.Model, tea.Cmd) {
	mv, err := m.listing.MoveJob(jobID, to)
	if err != nil {
		if !errors.Is(err, model.ErrTransitionNotAllowed) {
			m.setError("Failed to update job status", err)
		}
		return m, nil
	}
	m.cursor = clamp(m.cursor, 0, max(len(m.listing.Jobs())-1, 0))
	m.refresh()
	cmd := tea.Batch(moveCmd(m.api, m.sess, mv), m.backfill())
	return m, cmd
}

// fetch issues req and keeps the spinner running until it lands.
func (m *feedModel) fetch(req feed.FetchRequest) tea.Cmd {
	m.refresh()
	return tea.Batch(fetchCmd(m.api, m.sess, req), m.startTick())
}

func (m *feedModel) backfill() tea.Cmd {
	req, ok := m.listing.Backfill()
	if !ok {
		return nil
	}
	return m.fetch(req)
}

func (m *feedModel) loadMore() tea.Cmd {
	req, ok := m.listing.LoadMore()
	if !ok {
		return nil
	}
	return m.fetch(req)
}

func (m *feedModel) startTick() tea.Cmd {
	if m.ticking {
		return nil
	}
	m.ticking = true
	return tickCmd()
}

func (m feedModel) busy() bool {
	return m.listing.Loading() || m.listing.Scanning()
}

func (m *feedModel) setError(title string, err error) {
	m.userErr = &model.UserError{Title: title, Err: err}
}

func (m *feedModel) moveCursor(delta int) {
	m.cursor = clamp(m.cursor+delta, 0, max(len(m.listing.Jobs())-1, 0))

	cursorTop := m.cursor * jobItemHeight
	cursorBottom := cursorTop + jobItemHeight - 1
	vp := &m.listViewport
	if cursorTop < vp.YOffset {
		vp.SetYOffset(cursorTop)
	} else if cursorBottom >= vp.YOffset+vp.Height {
		vp.SetYOffset(cursorBottom - vp.Height + 1)
	}
}

func (m *feedModel) recalcLayout() {
	// Tabs (1 line) + border top/bottom (2) + status bar (1) = 4 lines overhead.
	w := max(m.width-4, 20)
	h := max(m.height-4, 5)
	if !m.ready {
		m.listViewport = viewport.New(w, h)
		m.detailViewport = viewport.New(w, h)
		m.ready = true
	} else {
		m.listViewport.Width = w
		m.listViewport.Height = h
		m.detailViewport.Width = w
		m.detailViewport.Height = h
	}
	m.refresh()
}

// refresh re-renders viewport contents from the listing.
func (m *feedModel) refresh() {
	m.cursor = clamp(m.cursor, 0, max(len(m.listing.Jobs())-1, 0))
	m.listViewport.SetContent(m.renderJobs())
	m.detailViewport.SetContent(m.renderDetail())
}

func (m feedModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	var body string
	if m.view == viewDetail {
		body = borderStyle.Width(m.width - 2).Render(m.detailViewport.View())
	} else {
		body = borderStyle.Width(m.width - 2).Render(m.listViewport.View())
	}
	return m.renderTabs() + "\n" + body + "\n" + m.renderStatusBar()
}

func (m feedModel) renderTabs() string {
	counters := m.listing.Counters()
	var tabs []string
	for i, s := range model.CountedStatuses {
		label := fmt.Sprintf("%d %s (%d)", i+1, tabLabel(s), counters.Of(s))
		if s == m.listing.Status() {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	if m.busy() {
		row += " " + spinnerStyle.Render(spinnerFrames[m.frame])
	}
	return row
}

func (m feedModel) renderStatusBar() string {
	if m.userErr != nil {
		return errorBarStyle.Width(m.width).Render(" " + m.userErr.Error())
	}
	text := " tab switch  ↑/↓ cursor  enter detail  a apply  x archive  n new  G more  r reload  o open  q quit"
	if m.view == viewDetail {
		text = " a apply  x archive  n new  d desc  o open  esc back  ↑/↓ scroll  q quit"
	}
	if m.listing.Stale() {
		text += "  (r to resync)"
	}
	return statusBarStyle.Width(m.width).Render(text)
}

func (m feedModel) renderJobs() string {
	jobs := m.listing.Jobs()
	if len(jobs) == 0 {
		switch {
		case m.listing.Loading():
			return "  Loading jobs..."
		case m.listing.Err() != nil:
			return "  (could not load jobs, press r to retry)"
		}
		return "  (no jobs)"
	}

	var b strings.Builder
	for i, j := range jobs {
		titleSt := jobTitleStyle
		subtitleSt := jobSubtitleStyle
		prefix := "  "
		if i == m.cursor {
			titleSt = selectedJobTitleStyle
			subtitleSt = selectedJobSubtitleStyle
			prefix = "> "
		}

		b.WriteString(prefix)
		b.WriteString(titleSt.Render(j.Title))
		b.WriteByte('\n')

		sub := j.CompanyName
		if j.Location != "" {
			sub += " · " + j.Location
		}
		sub += " · " + j.CreatedAt.Format("2006-01-02")
		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(sub))
		b.WriteByte('\n')

		if i < len(jobs)-1 {
			b.WriteByte('\n')
		}
	}
	switch {
	case m.listing.State() == feed.LoadingMore:
		b.WriteString("\n\n  Loading more...")
	case m.listing.Err() != nil:
		b.WriteString("\n\n  (press G to retry loading more)")
	}
	return b.String()
}

func (m feedModel) renderDetail() string {
	j, ok := m.listing.Selected()
	if !ok || m.view != viewDetail {
		return ""
	}
	var b strings.Builder
	b.WriteString(detailTitleStyle.Render(j.Title) + "\n")

	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(detailValueStyle.Render(value))
		b.WriteByte('\n')
	}
	addField("Company", j.CompanyName)
	addField("Location", j.Location)
	addField("Salary", j.Salary)
	addField("Type", string(j.JobType))
	if len(j.Tags) > 0 {
		addField("Tags", strings.Join(j.Tags, ", "))
	}
	addField("Status", string(j.Status))
	addField("Added", j.CreatedAt.Format("2006-01-02 15:04"))
	b.WriteByte('\n')
	addField("URL", j.ExternalURL)

	wrapWidth := max(m.width-8, 20)
	b.WriteByte('\n')
	switch {
	case m.listing.Scanning():
		b.WriteString(descHintStyle.Render("  "+spinnerStyle.Render(spinnerFrames[m.frame])+" Scanning job...") + "\n")
	case !j.HasDescription():
		b.WriteString(descHintStyle.Render("  no description available") + "\n")
	case m.showDescription:
		fill := strings.Repeat("─", max(wrapWidth-len("── Job Description "), 3))
		b.WriteString(descDividerStyle.Render("── Job Description "+fill) + "\n\n")
		b.WriteString(descBodyStyle.Render(wordWrap(j.Description, wrapWidth)) + "\n")
	default:
		b.WriteString(descHintStyle.Render("  press d to read job description") + "\n")
	}
	return b.String()
}

func tabLabel(s model.JobStatus) string {
	switch s {
	case model.StatusNew:
		return "New"
	case model.StatusApplied:
		return "Applied"
	case model.StatusArchived:
		return "Archived"
	}
	return string(s)
}

func wordWrap(text string, width int) string {
	var out []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			if len(line)+1+len(w) <= width {
				line += " " + w
			} else {
				out = append(out, line)
				line = w
			}
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	if url == "" {
		return
	}
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

// Run launches the interactive feed browser for sess.
func Run(api FeedAPI, sess model.Session, pageSize int, policy feed.ReconcilePolicy) error {
	p := tea.NewProgram(newModel(api, sess, pageSize, policy), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
