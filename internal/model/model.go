package model

import "time"

// EventType is the closed set of event kinds listed in the directory.
type EventType string

const (
	TypeConference EventType = "conference"
	TypeHackathon  EventType = "hackathon"
	TypeMeetup     EventType = "meetup"
)

// Valid reports whether t is one of the known event kinds.
func (t EventType) Valid() bool {
	switch t {
	case TypeConference, TypeHackathon, TypeMeetup:
		return true
	default:
		return false
	}
}

// Event is a single directory entry as it appears in the catalog JSON.
//
// Date is free-form human text ("March 15-16, 2025") and is the only field
// the date engine looks at. Everything else is passed through untouched.
type Event struct {
	// ID is optional in the source data; the catalog derives a stable one
	// when it is missing.
	ID string `json:"id,omitempty"`

	Name     string    `json:"name" validate:"required"`
	Date     string    `json:"date"`
	Location string    `json:"location"`
	Website  string    `json:"website" validate:"omitempty,url"`
	Province string    `json:"province" validate:"omitempty,len=2,uppercase"`
	Type     EventType `json:"type" validate:"required,oneof=conference hackathon meetup"`
	Tags     []string  `json:"tags"`

	IsStudentFocused bool `json:"isStudentFocused"`

	// ApplicationDeadline is an optional ISO-8601-ish timestamp. Only the
	// application status logic reads it.
	ApplicationDeadline string `json:"applicationDeadline,omitempty"`
}

// Clone returns a copy of e that shares no slices with it.
func (e Event) Clone() Event {
	if e.Tags != nil {
		tags := make([]string, len(e.Tags))
		copy(tags, e.Tags)
		e.Tags = tags
	}
	return e
}

// Occurrence represents a single concrete instance of an imported calendar
// event (after recurrence expansion and timezone normalization).
type Occurrence struct {
	SourceID string // calendar source ID
	UID      string // iCalendar UID

	// InstanceKey uniquely identifies a single occurrence of a recurring
	// event, derived from the local start time.
	InstanceKey string

	Summary     string
	Description string
	Location    string
	URL         string

	AllDay bool

	// Start / End are in the configured display timezone.
	Start time.Time
	End   time.Time
}
