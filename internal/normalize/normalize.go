// Package normalize canonicalizes raw extracted fields into a Listing:
// dates, deadlines, length caps and defaults.
package normalize

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jobrisk/jobrisk/internal/model"
)

// Storage caps, in characters.
const (
	MaxTitle        = 200
	MaxLink         = 500
	MaxCompany      = 100
	MaxContractType = 50
	MaxSector       = 100
	MaxJobTitle     = 100
	MaxLocation     = 100
	MaxDescription  = 500
	MaxReference    = 50
)

// Defaults fill fields the source did not expose.
type Defaults struct {
	Company     string
	Location    string
	Unspecified string // contract type, sector and job title
}

// DefaultDefaults are the values used when none are configured.
var DefaultDefaults = Defaults{
	Company:     "Non spécifié",
	Location:    "Antananarivo",
	Unspecified: "Non spécifié",
}

// Normalizer turns RawFields into Listing-shaped fields. It never fails.
type Normalizer struct {
	defaults Defaults
	now      func() time.Time
}

// NewNormalizer returns a normalizer. A nil now uses time.Now; empty defaults
// fall back to DefaultDefaults.
func NewNormalizer(defaults Defaults, now func() time.Time) *Normalizer {
	if now == nil {
		now = time.Now
	}
	if defaults.Company == "" {
		defaults.Company = DefaultDefaults.Company
	}
	if defaults.Location == "" {
		defaults.Location = DefaultDefaults.Location
	}
	if defaults.Unspecified == "" {
		defaults.Unspecified = DefaultDefaults.Unspecified
	}
	return &Normalizer{defaults: defaults, now: now}
}

// Normalize builds a Listing from raw without score, suggestions or
// persistence bookkeeping.
func (n *Normalizer) Normalize(raw model.RawFields, source string) model.Listing {
	now := n.now()
	title := Truncate(raw[model.FieldTitle], MaxTitle)

	return model.Listing{
		Title:        title,
		Link:         Truncate(raw[model.FieldLink], MaxLink),
		Company:      orDefault(Truncate(raw[model.FieldCompany], MaxCompany), n.defaults.Company),
		DatePosted:   ParseDate(raw[model.FieldDate], now),
		Deadline:     ParseDeadline(raw[model.FieldDeadline], now.Location()),
		ContractType: orDefault(Truncate(raw[model.FieldContractType], MaxContractType), n.defaults.Unspecified),
		Sector:       orDefault(Truncate(raw[model.FieldSector], MaxSector), n.defaults.Unspecified),
		JobTitle:     orDefault(Truncate(raw[model.FieldJobTitle], MaxJobTitle), n.defaults.Unspecified),
		Location:     orDefault(Truncate(raw[model.FieldLocation], MaxLocation), n.defaults.Location),
		Description:  Truncate(raw[model.FieldDescription], MaxDescription),
		Reference:    Truncate(raw[model.FieldReference], MaxReference),
		IsUrgent:     parseFlag(raw[model.FieldUrgent]),
		Source:       source,
	}
}

// Truncate collapses whitespace and caps s at max characters (runes).
func Truncate(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:max]))
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func parseFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "oui", "yes", "true", "1", "urgent":
		return true
	}
	return false
}
