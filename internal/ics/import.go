package ics

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"canconf/internal/config"
	appLog "canconf/internal/log"
	"canconf/internal/model"
)

// SourcesFromConfig converts configured feeds into fetch sources, skipping
// entries without a URL.
func SourcesFromConfig(feeds []config.ICSConfig) []Source {
	out := make([]Source, 0, len(feeds))
	for _, f := range feeds {
		if strings.TrimSpace(f.URL) == "" {
			continue
		}
		out = append(out, Source{
			ID:       f.SourceID(),
			URL:      f.URL,
			Province: strings.ToUpper(f.Province),
		})
	}
	return out
}

// ToEvents turns occurrences into meetup records. Only the first occurrence
// of each series is kept, so a weekly meetup shows up once with its next
// date. Occurrences are expected in start order, as ExpandOccurrences
// returns them.
func ToEvents(occs []model.Occurrence, sources []Source) []model.Event {
	provinceBySource := make(map[string]string, len(sources))
	for _, s := range sources {
		provinceBySource[s.ID] = s.Province
	}

	seen := make(map[string]struct{}, len(occs))
	out := make([]model.Event, 0, len(occs))
	for _, occ := range occs {
		name := strings.TrimSpace(occ.Summary)
		if name == "" {
			continue
		}
		key := occ.SourceID + "|" + occ.UID
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		province := provinceBySource[occ.SourceID]
		if p, ok := model.ProvinceFromLocation(occ.Location); ok {
			province = string(p)
		}

		ev := model.Event{
			ID:       uuid.NewSHA1(uuid.NameSpaceURL, []byte("canconf:ics:"+key)).String(),
			Name:     name,
			Date:     formatDay(occ.Start),
			Location: strings.TrimSpace(occ.Location),
			Province: province,
			Type:     model.TypeMeetup,
			Tags:     []string{"meetup", occ.SourceID},
		}
		if isWebURL(occ.URL) {
			ev.Website = occ.URL
		}
		out = append(out, ev)
	}
	return out
}

func isWebURL(s string) bool {
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://")
}

// Importer pulls meetups from ICS feeds.
type Importer struct {
	Fetcher  *Fetcher
	Sources  []Source
	Location *time.Location
	// Horizon bounds recurring series; zero means 90 days.
	Horizon time.Duration
}

// NewImporter wires an Importer from configuration.
func NewImporter(cfg *config.Config) *Importer {
	loc, _ := cfg.Location()
	return &Importer{
		Fetcher:  NewFetcher(cfg.CacheDir, nil),
		Sources:  SourcesFromConfig(cfg.ICS),
		Location: loc,
		Horizon:  time.Duration(cfg.HorizonDays) * 24 * time.Hour,
	}
}

// Import fetches, parses and expands every source, returning one meetup per
// series that has an occurrence between the start of now's day and the
// horizon. Per-source failures are logged; an error is returned only when
// every source failed.
func (im *Importer) Import(ctx context.Context, now time.Time) ([]model.Event, error) {
	if len(im.Sources) == 0 {
		return nil, nil
	}
	loc := im.Location
	if loc == nil {
		loc = time.Local
	}
	horizon := im.Horizon
	if horizon <= 0 {
		horizon = 90 * 24 * time.Hour
	}

	results, errs := im.Fetcher.FetchAll(ctx, im.Sources)
	if len(results) == 0 && len(errs) > 0 {
		return nil, fmt.Errorf("ics import: %w", errors.Join(errs...))
	}

	var parsed []ParsedEvent
	for _, res := range results {
		evs, err := ParseICS(res.Source, res.Body, loc)
		if err != nil {
			appLog.Error("ics parse failed", err, "id", res.Source.ID)
			continue
		}
		parsed = append(parsed, evs...)
	}

	local := now.In(loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	expanded, err := ExpandOccurrences(parsed, ExpandConfig{
		DisplayLocation: loc,
		RangeStart:      dayStart,
		RangeEnd:        dayStart.Add(horizon),
	})
	if err != nil {
		return nil, err
	}

	events := ToEvents(expanded.Occurrences, im.Sources)
	appLog.Info("ics import completed", "sources", len(im.Sources), "fetched", len(results), "events", len(events))
	return events, nil
}
