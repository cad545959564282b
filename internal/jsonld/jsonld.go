// Package jsonld provides typed structs for the schema.org JSON-LD block that
// search engines read from the directory page.
package jsonld

import (
	"encoding/json"
	"strings"

	"canconf/internal/model"
)

const (
	SchemaContext = "https://schema.org"

	OfflineAttendance = "https://schema.org/OfflineEventAttendanceMode"
	EventScheduled    = "https://schema.org/EventScheduled"
)

// ItemList is a schema.org ItemList of events.
type ItemList struct {
	Context       string      `json:"@context"`
	Type          string      `json:"@type"`
	Name          string      `json:"name"`
	Description   string      `json:"description"`
	NumberOfItems int         `json:"numberOfItems"`
	Items         []ListEvent `json:"itemListElement"`
}

// ListEvent is a schema.org Event positioned inside an ItemList.
type ListEvent struct {
	Type                string       `json:"@type"`
	Position            int          `json:"position"`
	Name                string       `json:"name"`
	Description         string       `json:"description"`
	StartDate           string       `json:"startDate"`
	Location            Place        `json:"location"`
	URL                 string       `json:"url,omitempty"`
	EventAttendanceMode string       `json:"eventAttendanceMode"`
	EventStatus         string       `json:"eventStatus"`
	Organizer           Organization `json:"organizer"`
	Keywords            string       `json:"keywords"`
	Audience            *Audience    `json:"audience,omitempty"`
}

// Place represents a schema.org Place.
type Place struct {
	Type    string        `json:"@type"`
	Name    string        `json:"name"`
	Address PostalAddress `json:"address"`
}

// PostalAddress represents a schema.org PostalAddress.
type PostalAddress struct {
	Type            string `json:"@type"`
	AddressLocality string `json:"addressLocality"`
	AddressRegion   string `json:"addressRegion"`
	AddressCountry  string `json:"addressCountry"`
}

// Organization represents a schema.org Organization.
type Organization struct {
	Type string `json:"@type"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// Audience represents a schema.org Audience.
type Audience struct {
	Type         string `json:"@type"`
	AudienceType string `json:"audienceType"`
}

// NewItemList builds the directory listing for events in the given order.
// The start date is the catalog's free-text date, as published on the page.
func NewItemList(events []model.Event) *ItemList {
	list := &ItemList{
		Context:       SchemaContext,
		Type:          "ItemList",
		Name:          "Canadian Tech Events",
		Description:   "List of tech conferences and hackathons in Canada",
		NumberOfItems: len(events),
		Items:         make([]ListEvent, 0, len(events)),
	}
	for i, ev := range events {
		list.Items = append(list.Items, newListEvent(i+1, ev))
	}
	return list
}

func newListEvent(position int, ev model.Event) ListEvent {
	locality, _, _ := strings.Cut(ev.Location, ", ")
	item := ListEvent{
		Type:        "Event",
		Position:    position,
		Name:        ev.Name,
		Description: string(ev.Type) + " in " + ev.Location,
		StartDate:   ev.Date,
		Location: Place{
			Type: "Place",
			Name: ev.Location,
			Address: PostalAddress{
				Type:            "PostalAddress",
				AddressLocality: locality,
				AddressRegion:   ev.Province,
				AddressCountry:  "CA",
			},
		},
		URL:                 ev.Website,
		EventAttendanceMode: OfflineAttendance,
		EventStatus:         EventScheduled,
		Organizer: Organization{
			Type: "Organization",
			Name: ev.Name,
			URL:  ev.Website,
		},
		Keywords: strings.Join(ev.Tags, ", "),
	}
	if ev.IsStudentFocused {
		item.Audience = &Audience{Type: "Audience", AudienceType: "Students"}
	}
	return item
}

// Marshal renders the list as indented JSON, ready for a
// <script type="application/ld+json"> block.
func (l *ItemList) Marshal() ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}
