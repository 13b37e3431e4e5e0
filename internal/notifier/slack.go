package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/jobfeed/internal/model"
)

var _ model.Notifier = (*SlackNotifier)(nil)

// SlackNotifier posts jobs that reached the feed to a Slack Incoming Webhook.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger

	gap   time.Duration // pause between consecutive messages
	sleep func(time.Duration)
}

// NewSlackNotifier returns a notifier that posts one Block Kit message per job.
func NewSlackNotifier(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
		gap:        500 * time.Millisecond,
		sleep:      time.Sleep,
	}
}

// Notify sends every job. It returns an error only when all messages fail;
// individual failures are logged.
func (s *SlackNotifier) Notify(jobs []model.Job) error {
	if len(jobs) == 0 {
		return nil
	}

	failures := 0
	for i, j := range jobs {
		if i > 0 {
			s.sleep(s.gap)
		}
		if err := s.send(j); err != nil {
			s.logger.Error("slack notification failed", "job_id", j.ID, "company", j.CompanyName, "error", err)
			failures++
		}
	}

	if failures == len(jobs) {
		return fmt.Errorf("all %d slack notifications failed", failures)
	}
	s.logger.Info("slack notifications complete", "sent", len(jobs)-failures, "failed", failures)
	return nil
}

// send posts one job, retrying once when Slack rate limits the webhook.
func (s *SlackNotifier) send(j model.Job) error {
	body, err := json.Marshal(buildPayload(j))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	status, retryAfter, err := s.post(body)
	if err != nil {
		return err
	}
	if status == http.StatusTooManyRequests {
		s.logger.Warn("slack rate limited, retrying", "retry_after", retryAfter)
		s.sleep(retryAfter)
		if status, _, err = s.post(body); err != nil {
			return fmt.Errorf("retry: %w", err)
		}
	}
	if status != http.StatusOK {
		return &model.HTTPError{StatusCode: status, Err: fmt.Errorf("slack webhook rejected message")}
	}
	return nil
}

func (s *SlackNotifier) post(body []byte) (int, time.Duration, error) {
	resp, err := s.httpClient.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, 0, fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	retryAfter := time.Second
	if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
		retryAfter = time.Duration(secs) * time.Second
	}
	return resp.StatusCode, retryAfter, nil
}

// Block Kit payload types.

type slackPayload struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string         `json:"type"`
	Text     *slackText     `json:"text,omitempty"`
	Fields   []slackText    `json:"fields,omitempty"`
	Elements []slackElement `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackElement struct {
	Type  string    `json:"type"`
	Text  slackText `json:"text"`
	URL   string    `json:"url"`
	Style string    `json:"style"`
}

// SendTestMessage sends a sample job to verify the integration.
func SendTestMessage(n model.Notifier) error {
	return n.Notify([]model.Job{{
		ID:          "test-001",
		Title:       "Test notification",
		CompanyName: "jobfeed",
		Location:    "Everywhere",
		ExternalURL: "https://example.com/jobs/test-001",
		JobType:     model.JobTypeRemote,
	}})
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func buildPayload(j model.Job) slackPayload {
	fields := []slackText{
		{Type: "mrkdwn", Text: "*Company:*\n" + orDash(j.CompanyName)},
		{Type: "mrkdwn", Text: "*Location:*\n" + orDash(j.Location)},
		{Type: "mrkdwn", Text: "*Salary:*\n" + orDash(j.Salary)},
		{Type: "mrkdwn", Text: "*Type:*\n" + orDash(string(j.JobType))},
	}

	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: j.CompanyName + ": " + j.Title},
		},
		{Type: "section", Fields: fields},
	}

	if len(j.Tags) > 0 {
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: "*Tags:* " + strings.Join(j.Tags, ", ")},
		})
	}

	if j.ExternalURL != "" {
		blocks = append(blocks, slackBlock{
			Type: "actions",
			Elements: []slackElement{{
				Type:  "button",
				Text:  slackText{Type: "plain_text", Text: "View job"},
				URL:   j.ExternalURL,
				Style: "primary",
			}},
		})
	}
	blocks = append(blocks, slackBlock{Type: "divider"})

	return slackPayload{Blocks: blocks}
}
