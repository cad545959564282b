// Package filter narrows an already ordered event list by province, free-text
// query and event type. Every function preserves input order.
package filter

import (
	"strings"

	"canconf/internal/model"
)

// AllProvinces is the province value that disables province filtering.
const AllProvinces = "ALL"

// Criteria selects events. Zero fields match everything.
type Criteria struct {
	Province string
	Query    string
	Type     model.EventType
}

// Apply returns the events matching every criterion, in input order.
func Apply(events []model.Event, c Criteria) []model.Event {
	province := strings.ToUpper(strings.TrimSpace(c.Province))
	query := strings.ToLower(strings.TrimSpace(c.Query))

	out := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if province != "" && province != AllProvinces && ev.Province != province {
			continue
		}
		if c.Type != "" && ev.Type != c.Type {
			continue
		}
		if query != "" && !Matches(ev, query) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// ByProvince keeps events in the given province; "" and "ALL" keep all.
func ByProvince(events []model.Event, province string) []model.Event {
	return Apply(events, Criteria{Province: province})
}

// Search keeps events whose text fields contain query, ignoring case.
func Search(events []model.Event, query string) []model.Event {
	return Apply(events, Criteria{Query: query})
}

// Matches reports whether a lowercase query appears in the event's name,
// location, province, type or any tag.
func Matches(ev model.Event, query string) bool {
	if query == "" {
		return true
	}
	fields := []string{ev.Name, ev.Location, ev.Province, string(ev.Type)}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}
	for _, tag := range ev.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

// Split groups events by type for the two-column listing.
type Split struct {
	Conferences []model.Event
	Hackathons  []model.Event
	Meetups     []model.Event
}

// SplitByType partitions events by type, preserving order within each group.
func SplitByType(events []model.Event) Split {
	var s Split
	for _, ev := range events {
		switch ev.Type {
		case model.TypeConference:
			s.Conferences = append(s.Conferences, ev)
		case model.TypeHackathon:
			s.Hackathons = append(s.Hackathons, ev)
		case model.TypeMeetup:
			s.Meetups = append(s.Meetups, ev)
		}
	}
	return s
}
