package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jobrisk/jobrisk/internal/model"
)

// DefaultChannel is the pub/sub channel run events go to.
const DefaultChannel = "jobrisk:runs"

// Ensure RedisPublisher implements model.Reporter.
var _ model.Reporter = (*RedisPublisher)(nil)

// RedisPublisher publishes each run summary as a JSON event on a pub/sub
// channel, for dashboards and other services to pick up.
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
	logger  *slog.Logger
}

func NewRedisPublisher(rdb *redis.Client, channel string, logger *slog.Logger) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{rdb: rdb, channel: channel, logger: logger}
}

type runEvent struct {
	Event            string    `json:"event"`
	RunID            string    `json:"run_id"`
	Source           string    `json:"source"`
	Category         string    `json:"category"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
	Pages            int       `json:"pages"`
	PagesSkipped     int       `json:"pages_skipped"`
	Analyzed         int       `json:"analyzed"`
	Saved            int       `json:"saved"`
	SkippedDuplicate int       `json:"skipped_duplicate"`
	Refreshed        int       `json:"refreshed"`
	Failed           int       `json:"failed"`
	Cancelled        bool      `json:"cancelled"`
	Aborted          bool      `json:"aborted"`
	Error            string    `json:"error,omitempty"`
}

func newRunEvent(s model.RunSummary) runEvent {
	return runEvent{
		Event:            "RUN_FINISHED",
		RunID:            s.RunID,
		Source:           s.Source,
		Category:         s.Category,
		StartedAt:        s.StartedAt,
		FinishedAt:       s.FinishedAt,
		Pages:            s.Pages,
		PagesSkipped:     s.PagesSkipped,
		Analyzed:         s.Analyzed,
		Saved:            s.Saved,
		SkippedDuplicate: s.SkippedDuplicate,
		Refreshed:        s.Refreshed,
		Failed:           s.Failed,
		Cancelled:        s.Cancelled,
		Aborted:          s.Aborted,
		Error:            s.Error,
	}
}

func (p *RedisPublisher) Report(ctx context.Context, s model.RunSummary) error {
	event, err := json.Marshal(newRunEvent(s))
	if err != nil {
		return fmt.Errorf("marshal run event: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.channel, event).Err(); err != nil {
		return fmt.Errorf("publishing run %s to %s: %w", s.RunID, p.channel, err)
	}
	p.logger.Debug("run event published", "run_id", s.RunID, "channel", p.channel)
	return nil
}
