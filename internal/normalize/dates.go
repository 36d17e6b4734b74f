package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// dateRule recognises one idiom and turns it into a calendar date relative to today.
type dateRule struct {
	name  string
	parse func(text string, today time.Time) (time.Time, bool)
}

var (
	daysAgoRe      = regexp.MustCompile(`il y a\s+(\d+)|(\d+)\s+days?\s+ago`)
	dayMonthYearRe = regexp.MustCompile(`(\d{1,2})\s+([\p{L}.]+)\s+(\d{4})`)
	deadlineRe     = regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{4})`)
)

// Rules are tried in order; the first that recognises the text wins.
var dateRules = []dateRule{
	{"today", func(text string, today time.Time) (time.Time, bool) {
		if strings.Contains(text, "aujourd") || strings.Contains(text, "today") {
			return today, true
		}
		return time.Time{}, false
	}},
	{"yesterday", func(text string, today time.Time) (time.Time, bool) {
		if strings.Contains(text, "hier") || strings.Contains(text, "yesterday") {
			return today.AddDate(0, 0, -1), true
		}
		return time.Time{}, false
	}},
	{"days_ago", func(text string, today time.Time) (time.Time, bool) {
		m := daysAgoRe.FindStringSubmatch(text)
		if m == nil {
			return time.Time{}, false
		}
		raw := m[1]
		if raw == "" {
			raw = m[2]
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return time.Time{}, false
		}
		return today.AddDate(0, 0, -n), true
	}},
	{"day_month_year", func(text string, today time.Time) (time.Time, bool) {
		m := dayMonthYearRe.FindStringSubmatch(text)
		if m == nil {
			return time.Time{}, false
		}
		month, ok := monthFromName(m[2])
		if !ok {
			return time.Time{}, false
		}
		day, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[3])
		return calendarDate(year, month, day, today.Location())
	}},
}

// monthPrefixes maps the start of a French or English month name to its month.
// juin/juil share three letters, so the four-letter forms come first.
var monthPrefixes = []struct {
	prefix string
	month  time.Month
}{
	{"juin", time.June},
	{"juil", time.July},
	{"jun", time.June},
	{"jul", time.July},
	{"jan", time.January},
	{"fév", time.February},
	{"fev", time.February},
	{"feb", time.February},
	{"mar", time.March},
	{"avr", time.April},
	{"apr", time.April},
	{"mai", time.May},
	{"may", time.May},
	{"aoû", time.August},
	{"aou", time.August},
	{"aug", time.August},
	{"sep", time.September},
	{"oct", time.October},
	{"nov", time.November},
	{"déc", time.December},
	{"dec", time.December},
}

func monthFromName(name string) (time.Month, bool) {
	name = strings.TrimSuffix(strings.ToLower(name), ".")
	for _, mp := range monthPrefixes {
		if strings.HasPrefix(name, mp.prefix) {
			return mp.month, true
		}
	}
	return 0, false
}

// calendarDate rejects impossible dates such as 31 February instead of
// letting time.Date roll them over.
func calendarDate(year int, month time.Month, day int, loc *time.Location) (time.Time, bool) {
	t := time.Date(year, month, day, 0, 0, 0, 0, loc)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// ParseDate turns a posting-date text into a calendar date. Anything it does
// not recognise becomes today.
func ParseDate(text string, now time.Time) time.Time {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return today
	}
	for _, r := range dateRules {
		if d, ok := r.parse(text, today); ok {
			return d
		}
	}
	return today
}

// ParseDeadline accepts DD/MM/YYYY, optionally behind a "Date limite :" label.
// It returns nil for anything else.
func ParseDeadline(text string, loc *time.Location) *time.Time {
	m := deadlineRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if month < 1 || month > 12 {
		return nil
	}
	t, ok := calendarDate(year, time.Month(month), day, loc)
	if !ok {
		return nil
	}
	return &t
}
