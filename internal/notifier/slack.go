package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jobrisk/jobrisk/internal/model"
)

// Ensure SlackReporter implements model.Reporter.
var _ model.Reporter = (*SlackReporter)(nil)

// SlackReporter posts run summaries to a Slack channel via Incoming Webhooks.
type SlackReporter struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSlackReporter returns a reporter that posts each summary to Slack via webhook.
func NewSlackReporter(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackReporter {
	return &SlackReporter{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Report sends sum as one Block Kit message. A 429 is retried once after
// Retry-After.
func (s *SlackReporter) Report(ctx context.Context, sum model.RunSummary) error {
	body, err := json.Marshal(buildPayload(sum))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	status, retryAfter, err := s.post(ctx, body)
	if err != nil {
		return err
	}

	if status == http.StatusTooManyRequests {
		s.logger.Warn("slack rate limited, retrying", "retry_after_secs", retryAfter)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(retryAfter) * time.Second):
		}

		status, _, err = s.post(ctx, body)
		if err != nil {
			return fmt.Errorf("post to slack (retry): %w", err)
		}
		if status != http.StatusOK {
			return fmt.Errorf("slack returned %d on retry", status)
		}
		s.logger.Info("slack report sent", "run_id", sum.RunID, "retried", true)
		return nil
	}

	if status != http.StatusOK {
		return fmt.Errorf("slack returned %d", status)
	}
	s.logger.Info("slack report sent", "run_id", sum.RunID)
	return nil
}

func (s *SlackReporter) post(ctx context.Context, body []byte) (status, retryAfterSecs int, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return 0, 0, fmt.Errorf("building slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	secs, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
	if secs <= 0 {
		secs = 1
	}
	return resp.StatusCode, secs, nil
}

// Block Kit payload types.

type slackPayload struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string      `json:"type"`
	Text     *slackText  `json:"text,omitempty"`
	Fields   []slackText `json:"fields,omitempty"`
	Elements []slackText `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func buildPayload(s model.RunSummary) slackPayload {
	icon, status := "✅", "finished"
	switch {
	case s.Aborted:
		icon, status = "🛑", "aborted"
	case s.Cancelled:
		icon, status = "⏸️", "cancelled"
	}

	duration := s.FinishedAt.Sub(s.StartedAt).Round(time.Second)

	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: fmt.Sprintf("%s %s/%s %s", icon, s.Source, s.Category, status)},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*New listings:*\n" + humanize.Comma(int64(s.Saved))},
				{Type: "mrkdwn", Text: "*Already known:*\n" + humanize.Comma(int64(s.SkippedDuplicate))},
			},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*Failed:*\n" + humanize.Comma(int64(s.Failed))},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Pages:*\n%d read, %d skipped", s.Pages, s.PagesSkipped)},
			},
		},
	}

	if s.Error != "" {
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: "*Error:* `" + s.Error + "`"},
		})
	}

	blocks = append(blocks,
		slackBlock{
			Type: "context",
			Elements: []slackText{
				{Type: "mrkdwn", Text: fmt.Sprintf("run %s · %s", s.RunID, duration)},
			},
		},
		slackBlock{Type: "divider"},
	)

	return slackPayload{Blocks: blocks}
}
