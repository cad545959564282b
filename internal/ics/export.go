package ics

import (
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"canconf/internal/catalog"
	"canconf/internal/dates"
	"canconf/internal/model"
)

const productID = "-//CanConf//Canadian Tech Events//EN"

// Export renders events as an iCalendar feed of all-day VEVENTs on their
// resolved start day. Events whose date text could not be read are left
// out; the far-future placeholder is not a real date.
func Export(events []model.Event, eng *dates.Engine) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName("Canadian Tech Events")

	stamp := eng.Now().UTC()
	for _, ev := range events {
		r := eng.Resolve(ev.Date)
		if r.IsFallback {
			continue
		}

		id := ev.ID
		if id == "" {
			id = catalog.DeriveID(ev)
		}
		vev := cal.AddEvent(id + "@canconf")
		vev.SetDtStampTime(stamp)
		vev.SetAllDayStartAt(r.Instant)
		vev.SetAllDayEndAt(r.Instant.AddDate(0, 0, 1))
		vev.SetSummary(ev.Name)
		vev.SetDescription(describe(ev))
		if ev.Location != "" {
			vev.SetLocation(ev.Location)
		}
		if ev.Website != "" {
			vev.SetURL(ev.Website)
		}
		vev.AddCategory(string(ev.Type))
	}
	return cal.Serialize()
}

func describe(ev model.Event) string {
	var b strings.Builder
	b.WriteString(string(ev.Type))
	if ev.Location != "" {
		b.WriteString(" in ")
		b.WriteString(ev.Location)
	}
	b.WriteString(" (")
	b.WriteString(ev.Date)
	b.WriteString(")")
	if len(ev.Tags) > 0 {
		b.WriteString("\nTags: ")
		b.WriteString(strings.Join(ev.Tags, ", "))
	}
	return b.String()
}

// exportDay is the date layout ToEvents writes so that imported events
// resolve through the same date engine as hand-written ones.
const exportDay = "January 2, 2006"

// formatDay renders t as catalog date text, e.g. "March 5, 2025".
func formatDay(t time.Time) string {
	return t.Format(exportDay)
}
