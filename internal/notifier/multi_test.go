package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jobrisk/jobrisk/internal/model"
)

type recordingReporter struct {
	got []model.RunSummary
	err error
}

func (r *recordingReporter) Report(_ context.Context, s model.RunSummary) error {
	r.got = append(r.got, s)
	return r.err
}

func TestMulti_ReportsToAllAndJoinsErrors(t *testing.T) {
	failing := &recordingReporter{err: errors.New("webhook down")}
	ok := &recordingReporter{}

	err := Multi{failing, ok}.Report(context.Background(), sampleSummary())
	if err == nil || err.Error() != "webhook down" {
		t.Errorf("err = %v, want webhook down", err)
	}
	if len(failing.got) != 1 || len(ok.got) != 1 {
		t.Error("every reporter should receive the summary")
	}
}

func TestSendTestMessage(t *testing.T) {
	r := &recordingReporter{}
	if err := SendTestMessage(context.Background(), r); err != nil {
		t.Fatalf("SendTestMessage: %v", err)
	}
	if len(r.got) != 1 || r.got[0].Source != "test" || r.got[0].RunID == "" {
		t.Errorf("got %+v", r.got)
	}
}

func TestRunEventJSON(t *testing.T) {
	s := sampleSummary()
	s.Error = ""
	raw, err := json.Marshal(newRunEvent(s))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if fields["event"] != "RUN_FINISHED" || fields["run_id"] != s.RunID || fields["saved"] != float64(1200) {
		t.Errorf("event = %v", fields)
	}
	if _, ok := fields["error"]; ok {
		t.Error("empty error should be omitted")
	}
}

// Runs only when JOBRISK_TEST_REDIS_URL points at a disposable Redis.
func TestRedisPublisher_Report(t *testing.T) {
	url := os.Getenv("JOBRISK_TEST_REDIS_URL")
	if url == "" {
		t.Skip("JOBRISK_TEST_REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("ParseURL: %v", err)
	}
	rdb := redis.NewClient(opts)
	t.Cleanup(func() { rdb.Close() })

	ctx := context.Background()
	sub := rdb.Subscribe(ctx, "jobrisk:test:runs")
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	p := NewRedisPublisher(rdb, "jobrisk:test:runs", discardLogger())
	if err := p.Report(ctx, sampleSummary()); err != nil {
		t.Fatalf("Report: %v", err)
	}

	select {
	case msg := <-sub.Channel():
		var ev runEvent
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			t.Fatalf("Unmarshal: %v", err)
		}
		if ev.RunID != sampleSummary().RunID {
			t.Errorf("run_id = %q", ev.RunID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}
}
