// Package scrape finds Canadian hackathons on the MLH season listing that
// are not yet in the catalog.
package scrape

import (
	"context"
	"strings"

	"canconf/internal/catalog"
	appLog "canconf/internal/log"
	"canconf/internal/metrics"
	"canconf/internal/model"
)

// DefaultURL is the MLH season listing.
const DefaultURL = "https://mlh.io/seasons/2026/events"

var hackathonTags = []string{"hackathon", "student", "mlh", "canada", "programming", "competition"}

// ExtractProvince returns the two-letter province code named in a location,
// or "".
func ExtractProvince(location string) string {
	p, _ := model.ProvinceFromLocation(location)
	return string(p)
}

// IsCanadian reports whether a location mentions Canada or names a province.
func IsCanadian(location string) bool {
	if strings.TrimSpace(location) == "" {
		return false
	}
	if strings.Contains(strings.ToLower(location), "canada") {
		return true
	}
	return ExtractProvince(location) != ""
}

// BuildEvent turns a scraped card into a catalog hackathon. An empty website
// becomes defaultWebsite.
func BuildEvent(raw RawEvent, defaultWebsite string) model.Event {
	loc := strings.TrimSpace(raw.Location)
	website := strings.TrimSpace(raw.Website)
	if website == "" {
		website = defaultWebsite
	}
	return model.Event{
		Name:             strings.TrimSpace(raw.Name),
		Date:             strings.TrimSpace(raw.Date),
		Location:         loc,
		Website:          website,
		Province:         ExtractProvince(loc),
		Type:             model.TypeHackathon,
		Tags:             append([]string(nil), hackathonTags...),
		IsStudentFocused: true,
	}
}

// Run renders pageURL, extracts the cards and returns the Canadian events
// whose normalized name is not already in existing (which may be nil).
func Run(ctx context.Context, r Renderer, pageURL string, existing *catalog.Catalog) ([]model.Event, error) {
	if pageURL == "" {
		pageURL = DefaultURL
	}

	html, err := r.Render(ctx, pageURL)
	if err != nil {
		metrics.ScrapeRunsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	cards, err := ExtractCards(html, pageURL)
	if err != nil {
		metrics.ScrapeRunsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	out := make([]model.Event, 0)
	for _, card := range cards {
		if !IsCanadian(card.Location) {
			continue
		}
		if existing != nil && existing.HasName(card.Name) {
			continue
		}
		ev := BuildEvent(card, pageURL)
		if err := catalog.Validate(ev); err != nil {
			appLog.Warn("scrape: dropping invalid event", "name", ev.Name, "reason", err.Error())
			continue
		}
		out = append(out, ev)
	}

	metrics.ScrapeRunsTotal.WithLabelValues("ok").Inc()
	metrics.ScrapeEventsNew.Set(float64(len(out)))
	appLog.Info("scrape completed", "url", pageURL, "cards", len(cards), "new", len(out))
	return out, nil
}

var _ Renderer = ChromeRenderer{}
