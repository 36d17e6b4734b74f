package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"
	_ "time/tzdata" // schedule.timezone must resolve on hosts without zoneinfo

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/jobrisk/jobrisk/internal/fetch"
	"github.com/jobrisk/jobrisk/internal/model"
	"github.com/jobrisk/jobrisk/internal/normalize"
	"github.com/jobrisk/jobrisk/internal/notifier"
	"github.com/jobrisk/jobrisk/internal/source"
)

// Config is the root configuration for jobrisk.
type Config struct {
	Sources      []SourceConfig
	Fetch        FetchConfig
	Courtesy     CourtesyConfig
	Store        StoreConfig
	Duplicates   DuplicatesConfig
	Schedule     ScheduleConfig
	Redis        RedisConfig
	Notification NotificationConfig
	Enrich       EnrichConfig
	Defaults     normalize.Defaults
}

// SourceConfig describes one job board and the categories to read from it.
type SourceConfig struct {
	Name       string             `yaml:"name"`
	BaseURL    string             `yaml:"base_url"` // empty uses the source's default
	Enabled    bool               `yaml:"enabled"`
	Identity   model.IdentityRule `yaml:"identity"` // empty uses the source's default
	Categories []CategoryConfig   `yaml:"categories"`
}

// CategoryConfig is one category path and how many pages to read.
type CategoryConfig struct {
	Name  string `yaml:"name"`
	Pages int    `yaml:"pages"`
}

type FetchConfig struct {
	Timeout    time.Duration // per attempt
	Attempts   int
	RetryDelay time.Duration
	UserAgent  string
}

// CourtesyConfig holds the pauses that keep us polite to the sites.
type CourtesyConfig struct {
	PageDelay     time.Duration
	CategoryDelay time.Duration
}

type StoreConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "postgres"
	DSN    string `yaml:"dsn"`    // file path for sqlite, connection URL for postgres
}

// DuplicatesConfig controls what happens to a listing that is already stored.
type DuplicatesConfig struct {
	Refresh bool `yaml:"refresh"`
}

type ScheduleConfig struct {
	Spec     string
	Location *time.Location
}

// RedisConfig enables the cross-process run lock and run event publishing.
type RedisConfig struct {
	URL     string `yaml:"url"`
	Channel string `yaml:"channel"`
}

// NotificationConfig controls which reporter is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

type EnrichConfig struct {
	Enabled  bool `yaml:"enabled"`
	MaxChars int  `yaml:"max_chars"`
}

const (
	defaultPageDelay     = 1500 * time.Millisecond
	defaultCategoryDelay = 3 * time.Second
	defaultScheduleSpec  = "@every 6h"
	defaultTimezone      = "Indian/Antananarivo"
	defaultSQLitePath    = "jobrisk.db"
	slackWebhookPrefix   = "https://hooks.slack.com/"
)

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	Sources      []SourceConfig     `yaml:"sources"`
	Fetch        rawFetchConfig     `yaml:"fetch"`
	Courtesy     rawCourtesyConfig  `yaml:"courtesy"`
	Store        StoreConfig        `yaml:"store"`
	Duplicates   DuplicatesConfig   `yaml:"duplicates"`
	Schedule     rawScheduleConfig  `yaml:"schedule"`
	Redis        RedisConfig        `yaml:"redis"`
	Notification NotificationConfig `yaml:"notification"`
	Enrich       EnrichConfig       `yaml:"enrich"`
	Defaults     rawDefaultsConfig  `yaml:"defaults"`
}

type rawFetchConfig struct {
	Timeout    string `yaml:"timeout"`
	Attempts   int    `yaml:"attempts"`
	RetryDelay string `yaml:"retry_delay"`
	UserAgent  string `yaml:"user_agent"`
}

type rawCourtesyConfig struct {
	PageDelay     string `yaml:"page_delay"`
	CategoryDelay string `yaml:"category_delay"`
}

type rawScheduleConfig struct {
	Spec     string `yaml:"spec"`
	Timezone string `yaml:"timezone"`
}

type rawDefaultsConfig struct {
	Company  string `yaml:"company"`
	Location string `yaml:"location"`
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse is Load for config text already in memory.
func Parse(data []byte) (*Config, error) {
	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	timeout, err := durationOr(raw.Fetch.Timeout, fetch.DefaultTimeout, "fetch.timeout")
	if err != nil {
		return nil, err
	}
	retryDelay, err := durationOr(raw.Fetch.RetryDelay, fetch.DefaultRetryDelay, "fetch.retry_delay")
	if err != nil {
		return nil, err
	}
	pageDelay, err := durationOr(raw.Courtesy.PageDelay, defaultPageDelay, "courtesy.page_delay")
	if err != nil {
		return nil, err
	}
	categoryDelay, err := durationOr(raw.Courtesy.CategoryDelay, defaultCategoryDelay, "courtesy.category_delay")
	if err != nil {
		return nil, err
	}

	attempts := raw.Fetch.Attempts
	if attempts == 0 {
		attempts = fetch.DefaultAttempts
	}

	tz := raw.Schedule.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("parse schedule.timezone %q: %w", tz, err)
	}
	spec := raw.Schedule.Spec
	if spec == "" {
		spec = defaultScheduleSpec
	}

	for i := range raw.Sources {
		for j := range raw.Sources[i].Categories {
			if raw.Sources[i].Categories[j].Pages == 0 {
				raw.Sources[i].Categories[j].Pages = 1
			}
		}
	}

	st := raw.Store
	if st.Driver == "" {
		st.Driver = "sqlite"
	}
	if st.Driver == "sqlite" && st.DSN == "" {
		st.DSN = defaultSQLitePath
	}

	if raw.Redis.Channel == "" {
		raw.Redis.Channel = notifier.DefaultChannel
	}
	if raw.Notification.Type == "" {
		raw.Notification.Type = "log"
	}
	if raw.Enrich.MaxChars == 0 {
		raw.Enrich.MaxChars = normalize.MaxDescription
	}

	cfg := &Config{
		Sources: raw.Sources,
		Fetch: FetchConfig{
			Timeout:    timeout,
			Attempts:   attempts,
			RetryDelay: retryDelay,
			UserAgent:  raw.Fetch.UserAgent,
		},
		Courtesy: CourtesyConfig{
			PageDelay:     pageDelay,
			CategoryDelay: categoryDelay,
		},
		Store:        st,
		Duplicates:   raw.Duplicates,
		Schedule:     ScheduleConfig{Spec: spec, Location: loc},
		Redis:        raw.Redis,
		Notification: raw.Notification,
		Enrich:       raw.Enrich,
		Defaults: normalize.Defaults{
			Company:  raw.Defaults.Company,
			Location: raw.Defaults.Location,
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func durationOr(s string, def time.Duration, key string) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", key, s, err)
	}
	return d, nil
}

// EnabledSources returns the sources with enabled set, in file order.
func (c *Config) EnabledSources() []SourceConfig {
	var out []SourceConfig
	for _, s := range c.Sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

// Source returns the configuration of the named source, enabled or not.
func (c *Config) Source(name string) (SourceConfig, bool) {
	for _, s := range c.Sources {
		if s.Name == name {
			return s, true
		}
	}
	return SourceConfig{}, false
}

func validate(cfg *Config) error {
	known := source.Names()
	seen := make(map[string]bool)
	for _, s := range cfg.Sources {
		if !slices.Contains(known, s.Name) {
			return fmt.Errorf("sources: unknown source %q (known: %s)", s.Name, strings.Join(known, ", "))
		}
		if seen[s.Name] {
			return fmt.Errorf("sources: %q listed twice", s.Name)
		}
		seen[s.Name] = true
		if s.Identity != "" && !s.Identity.Valid() {
			return fmt.Errorf("sources[%s].identity %q must be link, link_or_title_company or link_and_source", s.Name, s.Identity)
		}
		if s.Enabled && len(s.Categories) == 0 {
			return fmt.Errorf("sources[%s]: at least one category is required", s.Name)
		}
		for _, c := range s.Categories {
			if c.Pages < 1 {
				return fmt.Errorf("sources[%s].categories[%s].pages must be >= 1, got %d", s.Name, c.Name, c.Pages)
			}
		}
	}
	if len(cfg.EnabledSources()) == 0 {
		return fmt.Errorf("at least one source must be enabled")
	}

	if cfg.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be positive, got %v", cfg.Fetch.Timeout)
	}
	if cfg.Fetch.Attempts < 1 {
		return fmt.Errorf("fetch.attempts must be >= 1, got %d", cfg.Fetch.Attempts)
	}
	if cfg.Fetch.RetryDelay < 0 || cfg.Courtesy.PageDelay < 0 || cfg.Courtesy.CategoryDelay < 0 {
		return fmt.Errorf("fetch.retry_delay and courtesy delays must not be negative")
	}

	if _, err := cron.ParseStandard(cfg.Schedule.Spec); err != nil {
		return fmt.Errorf("schedule.spec %q: %w", cfg.Schedule.Spec, err)
	}

	switch cfg.Store.Driver {
	case "sqlite":
	case "postgres":
		if cfg.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required when driver is \"postgres\"")
		}
	default:
		return fmt.Errorf("store.driver must be sqlite or postgres, got %q", cfg.Store.Driver)
	}

	switch cfg.Notification.Type {
	case "log":
	case "slack":
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, slackWebhookPrefix) {
			return fmt.Errorf("notification.webhook_url must start with %s", slackWebhookPrefix)
		}
	default:
		return fmt.Errorf("notification.type must be log or slack, got %q", cfg.Notification.Type)
	}

	if cfg.Enrich.MaxChars < 0 {
		return fmt.Errorf("enrich.max_chars must not be negative")
	}

	return nil
}
