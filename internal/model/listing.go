package model

import (
	"context"
	"time"
)

// RiskLevel is the three-tier label derived from a risk score.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// Field keys used in RawFields.
const (
	FieldTitle        = "title"
	FieldLink         = "link"
	FieldCompany      = "company"
	FieldDate         = "date"
	FieldDeadline     = "deadline"
	FieldContractType = "contract_type"
	FieldSector       = "sector"
	FieldJobTitle     = "job_title"
	FieldLocation     = "location"
	FieldDescription  = "description"
	FieldUrgent       = "urgent"
	FieldReference    = "reference"
)

// RawFields is an extracted, not yet normalized listing: field key -> text.
type RawFields map[string]string

// Listing is the unit of persisted data.
type Listing struct {
	ID           int64
	Title        string
	Link         string
	Company      string
	DatePosted   time.Time  // calendar date, midnight in the normalizer's location
	Deadline     *time.Time // nil when the source gives none or it cannot be parsed
	ContractType string
	Sector       string
	JobTitle     string
	Location     string
	Description  string
	Reference    string
	IsUrgent     bool
	RiskScore    float64
	RiskLevel    RiskLevel
	Suggestions  []string
	Source       string
	ScrapedAt    time.Time
	IsActive     bool
}

// IdentityRule decides which fields make two listings the same.
type IdentityRule string

const (
	IdentityLink               IdentityRule = "link"
	IdentityLinkOrTitleCompany IdentityRule = "link_or_title_company"
	IdentityLinkAndSource      IdentityRule = "link_and_source"
)

// Valid reports whether r is a known identity rule.
func (r IdentityRule) Valid() bool {
	switch r {
	case IdentityLink, IdentityLinkOrTitleCompany, IdentityLinkAndSource:
		return true
	}
	return false
}

// IdentityQuery is a lookup of an existing listing under a given rule.
type IdentityQuery struct {
	Rule    IdentityRule
	Link    string
	Title   string
	Company string
	Source  string
}

// ListFilter narrows a ListingStore.List call. Zero values match everything.
type ListFilter struct {
	ActiveOnly bool
	Level      RiskLevel
	Source     string
	Limit      int
}

// ExtractResult is what a Source returns for one page of markup.
type ExtractResult struct {
	Records  []RawFields
	Strategy string // name of the container strategy that produced Records
	Skipped  int    // containers that could not be read
}

// Outcome is the result of persisting one listing.
type Outcome int

const (
	OutcomeInserted Outcome = iota
	OutcomeSkippedDuplicate
	OutcomeRefreshed
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInserted:
		return "inserted"
	case OutcomeSkippedDuplicate:
		return "skipped_duplicate"
	case OutcomeRefreshed:
		return "refreshed"
	default:
		return "failed"
	}
}

// RunSummary is reported after each ingestion run.
type RunSummary struct {
	RunID            string
	Source           string
	Category         string
	Pages            int
	StartedAt        time.Time
	FinishedAt       time.Time
	Analyzed         int
	Saved            int
	SkippedDuplicate int
	Refreshed        int
	Failed           int
	PagesSkipped     int
	Cancelled        bool
	Aborted          bool
	Error            string
}

// Fetcher retrieves the raw markup of a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Source turns one site's listing pages into raw records.
type Source interface {
	Name() string
	PageURL(category string, page int) string
	Extract(markup string) (ExtractResult, error)
	Identity() IdentityRule
}

// ListingStore is the durable record set. Insert must return an error wrapping
// ErrDuplicate on a unique-constraint violation, and errors wrapping
// ErrConnectionLost when the store itself is unreachable.
type ListingStore interface {
	Exists(ctx context.Context, q IdentityQuery) (bool, error)
	Insert(ctx context.Context, l *Listing) error
	Refresh(ctx context.Context, q IdentityQuery, l Listing) (int64, error)
	List(ctx context.Context, f ListFilter) ([]Listing, error)
	Count(ctx context.Context) (int, error)
	DeactivateStale(ctx context.Context, seenBefore time.Time) (int64, error)
	Close() error
}

// Reporter receives the summary of every finished run.
type Reporter interface {
	Report(ctx context.Context, s RunSummary) error
}
