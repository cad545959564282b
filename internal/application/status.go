// Package application derives the "applications open / closed" badge shown on
// hackathon and conference cards from an optional deadline string.
package application

import (
	"net/url"
	"strings"
	"time"

	dps "github.com/markusmobius/go-dateparser"

	"canconf/internal/model"
)

// Status is the application state of an event.
type Status string

const (
	StatusOpen    Status = "open"
	StatusClosed  Status = "closed"
	StatusUnknown Status = "unknown"
)

// displayLayout renders deadlines the en-CA short way, e.g. "Mar 15, 2025".
const displayLayout = "Jan 2, 2006"

var strictLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.DateOnly,
}

// ParseDeadline parses an ISO-8601 style deadline. Date-only and zone-less
// values are read in loc. Anything else goes through a lenient natural
// language parser anchored at now.
func ParseDeadline(deadline string, now time.Time, loc *time.Location) (time.Time, bool) {
	deadline = strings.TrimSpace(deadline)
	if deadline == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range strictLayouts {
		if t, err := time.ParseInLocation(layout, deadline, loc); err == nil {
			return t, true
		}
	}

	dt, err := dps.Parse(&dps.Configuration{CurrentTime: now.In(loc)}, deadline)
	if err != nil || dt.Time.IsZero() {
		return time.Time{}, false
	}
	return dt.Time, true
}

// Evaluator computes statuses in a fixed location.
type Evaluator struct {
	Location *time.Location
}

// Status reports open when the deadline is strictly after now, closed
// otherwise, and unknown when the deadline is missing or unreadable.
func (e Evaluator) Status(deadline string, now time.Time) Status {
	t, ok := ParseDeadline(deadline, now, e.Location)
	if !ok {
		return StatusUnknown
	}
	if t.After(now) {
		return StatusOpen
	}
	return StatusClosed
}

// IsOpen reports whether applications are still being accepted.
func (e Evaluator) IsOpen(deadline string, now time.Time) bool {
	return e.Status(deadline, now) == StatusOpen
}

// FormatDeadline renders a deadline as "Mar 15, 2025". Unreadable input is
// returned unchanged; empty input yields "".
func (e Evaluator) FormatDeadline(deadline string, now time.Time) string {
	if strings.TrimSpace(deadline) == "" {
		return ""
	}
	t, ok := ParseDeadline(deadline, now, e.Location)
	if !ok {
		return deadline
	}
	if e.Location != nil {
		t = t.In(e.Location)
	}
	return t.Format(displayLayout)
}

// Describe is the one-line summary used in correction reports, e.g.
// "Open (closes Mar 15, 2025)".
func (e Evaluator) Describe(deadline string, now time.Time) string {
	switch e.Status(deadline, now) {
	case StatusOpen:
		return "Open (closes " + e.FormatDeadline(deadline, now) + ")"
	case StatusClosed:
		return "Closed (closed " + e.FormatDeadline(deadline, now) + ")"
	default:
		return "Unknown"
	}
}

// ShouldDisplay reports whether a status badge belongs on the card. Meetups
// never show one and conferences only when a deadline is set. A blank but
// non-empty deadline still counts as set and renders as unknown.
func ShouldDisplay(t model.EventType, deadline string) bool {
	switch t {
	case model.TypeMeetup:
		return false
	case model.TypeConference:
		return deadline != ""
	default:
		return true
	}
}

// IssueURL builds a GitHub "new issue" link pre-filled with a data
// correction report for eventName.
func IssueURL(repoURL, eventName, statusText string) string {
	title := "Application Status Incorrect: " + eventName
	body := "**Event Name:** " + eventName + "\n\n" +
		"**Current Status:** " + statusText + "\n\n" +
		"**Issue Description:**\n" +
		"The application status for this event appears to be incorrect.\n\n" +
		"**Correct Information:**\n" +
		"<!-- Please provide the correct application deadline or status -->\n\n" +
		"**Source:**\n" +
		"<!-- Please provide a source/link where the correct information can be verified -->\n\n" +
		"---\n" +
		"*This issue was created via the CanConf website's error reporting feature.*"

	q := url.Values{}
	q.Set("title", title)
	q.Set("body", body)
	q.Set("labels", "data-correction")
	return strings.TrimRight(repoURL, "/") + "/issues/new?" + q.Encode()
}
