package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jobrisk/jobrisk/internal/model"
)

const minimalConfig = `
sources:
  - name: asako
    enabled: true
    categories:
      - name: emploi
        pages: 3
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	t.Setenv("JOBRISK_TEST_WEBHOOK", "https://hooks.slack.com/services/T000/B000/XXX")
	path := writeConfig(t, `
sources:
  - name: asako
    enabled: true
    categories:
      - name: emploi
        pages: 3
      - name: cdd
  - name: portaljob
    enabled: false
    base_url: https://mirror.example.mg
    identity: link_and_source
    categories:
      - name: liste
        pages: 2
fetch:
  timeout: 10s
  attempts: 5
  retry_delay: 500ms
courtesy:
  page_delay: 2s
store:
  driver: postgres
  dsn: postgres://jobrisk@localhost/jobrisk
duplicates:
  refresh: true
schedule:
  spec: "0 */4 * * *"
  timezone: UTC
notification:
  type: slack
  webhook_url: ${JOBRISK_TEST_WEBHOOK}
enrich:
  enabled: true
  max_chars: 300
defaults:
  location: Toamasina
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Sources) != 2 || len(cfg.EnabledSources()) != 1 {
		t.Fatalf("Sources = %+v", cfg.Sources)
	}
	asako := cfg.Sources[0]
	if asako.Categories[0].Pages != 3 || asako.Categories[1].Pages != 1 {
		t.Errorf("category pages = %+v, want 3 and default 1", asako.Categories)
	}
	pj, ok := cfg.Source("portaljob")
	if !ok || pj.Identity != model.IdentityLinkAndSource || pj.BaseURL != "https://mirror.example.mg" {
		t.Errorf("portaljob = %+v", pj)
	}
	if cfg.Fetch.Timeout != 10*time.Second || cfg.Fetch.Attempts != 5 || cfg.Fetch.RetryDelay != 500*time.Millisecond {
		t.Errorf("Fetch = %+v", cfg.Fetch)
	}
	if cfg.Courtesy.PageDelay != 2*time.Second || cfg.Courtesy.CategoryDelay != 3*time.Second {
		t.Errorf("Courtesy = %+v", cfg.Courtesy)
	}
	if cfg.Store.Driver != "postgres" || !cfg.Duplicates.Refresh {
		t.Errorf("Store = %+v, Duplicates = %+v", cfg.Store, cfg.Duplicates)
	}
	if cfg.Schedule.Spec != "0 */4 * * *" || cfg.Schedule.Location != time.UTC {
		t.Errorf("Schedule = %+v", cfg.Schedule)
	}
	if cfg.Notification.WebhookURL != "https://hooks.slack.com/services/T000/B000/XXX" {
		t.Errorf("webhook not expanded from env: %q", cfg.Notification.WebhookURL)
	}
	if !cfg.Enrich.Enabled || cfg.Enrich.MaxChars != 300 {
		t.Errorf("Enrich = %+v", cfg.Enrich)
	}
	if cfg.Defaults.Location != "Toamasina" {
		t.Errorf("Defaults = %+v", cfg.Defaults)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Fetch.Timeout != 20*time.Second || cfg.Fetch.Attempts != 3 || cfg.Fetch.RetryDelay != 2*time.Second {
		t.Errorf("Fetch = %+v", cfg.Fetch)
	}
	if cfg.Courtesy.PageDelay != 1500*time.Millisecond || cfg.Courtesy.CategoryDelay != 3*time.Second {
		t.Errorf("Courtesy = %+v", cfg.Courtesy)
	}
	if cfg.Store.Driver != "sqlite" || cfg.Store.DSN != "jobrisk.db" {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.Schedule.Spec != "@every 6h" || cfg.Schedule.Location.String() != "Indian/Antananarivo" {
		t.Errorf("Schedule = %+v", cfg.Schedule)
	}
	if cfg.Notification.Type != "log" || cfg.Redis.Channel != "jobrisk:runs" {
		t.Errorf("Notification = %+v, Redis = %+v", cfg.Notification, cfg.Redis)
	}
	if cfg.Duplicates.Refresh {
		t.Error("refresh must be off by default")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err == nil {
		t.Fatal("Load: expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "sources: [broken")); err == nil {
		t.Fatal("Load: expected error for invalid YAML")
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"no enabled source", `
sources:
  - name: asako
    categories: [{name: emploi}]
`, "at least one source must be enabled"},
		{"unknown source", `
sources:
  - name: indeed
    enabled: true
    categories: [{name: jobs}]
`, "unknown source"},
		{"bad identity", minimalConfig + `    identity: title
`, "identity"},
		{"negative pages", `
sources:
  - name: asako
    enabled: true
    categories: [{name: emploi, pages: -1}]
`, "pages must be >= 1"},
		{"no categories", `
sources:
  - name: asako
    enabled: true
`, "at least one category"},
		{"bad duration", minimalConfig + `fetch:
  timeout: soon
`, "fetch.timeout"},
		{"zero timeout", minimalConfig + `fetch:
  timeout: 0s
`, "fetch.timeout must be positive"},
		{"bad cron", minimalConfig + `schedule:
  spec: "every day"
`, "schedule.spec"},
		{"bad timezone", minimalConfig + `schedule:
  timezone: Mars/Olympus
`, "schedule.timezone"},
		{"postgres without dsn", minimalConfig + `store:
  driver: postgres
`, "store.dsn is required"},
		{"unknown driver", minimalConfig + `store:
  driver: mongo
`, "store.driver"},
		{"slack without webhook", minimalConfig + `notification:
  type: slack
`, "webhook_url is required"},
		{"slack bad webhook", minimalConfig + `notification:
  type: slack
  webhook_url: https://example.com/hook
`, "must start with https://hooks.slack.com/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatalf("Load: expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}
