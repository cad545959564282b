// Package dates turns the free-text date strings found in the event catalog
// ("March 15-16, 2025", "February 28, 2025", "TBD 2025") into comparable
// calendar dates, classifies them as past or upcoming and orders events for
// display.
//
// Nothing in this package returns an error for malformed input. Text without
// a recognizable month resolves to a synthetic date a hundred years out, so
// such entries sort after every real upcoming event.
package dates

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// FallbackYears is how far past the extracted year an unparseable date is
// placed.
const FallbackYears = 100

// maxDayDigits bounds the day number handed to time.Date. Longer runs are
// treated as if no day was present.
const maxDayDigits = 6

// jsSpace mirrors the whitespace class of ECMAScript regular expressions,
// which is wider than RE2's \s.
const jsSpace = `[\t\n\v\f\r \x{00a0}\x{1680}\x{2000}-\x{200a}\x{2028}\x{2029}\x{202f}\x{205f}\x{3000}\x{feff}]`

var (
	yearPattern = regexp.MustCompile(`(\d{4})`)
	dayPattern  = regexp.MustCompile(`(\w+)` + jsSpace + `+(\d+)`)

	monthNames = [...]string{
		"january", "february", "march", "april", "may", "june",
		"july", "august", "september", "october", "november", "december",
	}
	monthPattern = regexp.MustCompile(`(` + strings.Join(monthNames[:], "|") + `)`)
)

// Resolved is the outcome of resolving one date string.
type Resolved struct {
	// Instant is local midnight of the resolved calendar day.
	Instant time.Time
	// SourceText is the text that was resolved.
	SourceText string
	// IsFallback is set when no month name was found and the far-future
	// placeholder was substituted.
	IsFallback bool
}

// Day returns the instant formatted as YYYY-MM-DD.
func (r Resolved) Day() string {
	return r.Instant.Format(time.DateOnly)
}

// extractYear returns the first run of four digits, if any.
func extractYear(text string) (int, bool) {
	m := yearPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	y, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return y, true
}

// lookupMonth finds the leftmost full English month name, ignoring case.
func lookupMonth(text string) (time.Month, bool) {
	m := monthPattern.FindStringSubmatch(strings.ToLower(text))
	if m == nil {
		return 0, false
	}
	for i, name := range monthNames {
		if name == m[1] {
			return time.January + time.Month(i), true
		}
	}
	return 0, false
}

// extractDay takes the number from the first "<word> <number>" pair. This is
// not anchored to the month: "Top 10 Event, May 5, 2025" yields 10.
func extractDay(text string) int {
	m := dayPattern.FindStringSubmatch(text)
	if m == nil || len(m[2]) > maxDayDigits {
		return 1
	}
	d, err := strconv.Atoi(m[2])
	if err != nil {
		return 1
	}
	return d
}

// resolve does the actual work for Engine.Resolve. currentYear is used when
// the text carries no four-digit year.
func resolve(text string, currentYear int, loc *time.Location) Resolved {
	year, ok := extractYear(text)
	if !ok {
		year = currentYear
	}

	month, ok := lookupMonth(text)
	if !ok {
		return Resolved{
			Instant:    time.Date(year+FallbackYears, time.January, 1, 0, 0, 0, 0, loc),
			SourceText: text,
			IsFallback: true,
		}
	}

	// Day overflow ("February 31") is left to time.Date normalization.
	return Resolved{
		Instant:    time.Date(year, month, extractDay(text), 0, 0, 0, 0, loc),
		SourceText: text,
	}
}
