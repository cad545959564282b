package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"canconf/internal/application"
	"canconf/internal/catalog"
	"canconf/internal/config"
	"canconf/internal/dates"
	"canconf/internal/filter"
	"canconf/internal/model"
)

var fixture = []model.Event{
	{Name: "Collision", Date: "June 17-20, 2024", Location: "Toronto, ON", Province: "ON", Type: model.TypeConference},
	{Name: "Web Summit Vancouver", Date: "May 27-30, 2025", Location: "Vancouver, BC", Province: "BC", Type: model.TypeConference},
	{Name: "Hack the North", Date: "September 12-14, 2025", Location: "Waterloo, ON", Province: "ON", Type: model.TypeHackathon, ApplicationDeadline: "2025-07-15T23:59:59-04:00"},
	{Name: "Toronto Tech Week", Date: "June 1, 2025", Location: "Toronto, ON", Province: "ON", Type: model.TypeConference},
	{Name: "nwHacks", Date: "TBD 2026", Location: "Vancouver, BC", Province: "BC", Type: model.TypeHackathon},
	{Name: "Go Halifax", Date: "June 5, 2025", Location: "Halifax, NS", Province: "NS", Type: model.TypeMeetup},
}

type testEvents struct {
	Tab           string `json:"tab"`
	ReferenceDate string `json:"reference_date"`
	UpcomingCount int    `json:"upcoming_count"`
	PastCount     int    `json:"past_count"`
	Count         int    `json:"count"`
	Events        []struct {
		Name         string `json:"name"`
		ResolvedDate string `json:"resolved_date"`
		IsFallback   bool   `json:"is_fallback"`
		Application  struct {
			Status    application.Status `json:"status"`
			Visible   bool               `json:"visible"`
			ReportURL string             `json:"report_url"`
		} `json:"application"`
	} `json:"events"`
}

func (te testEvents) names() []string {
	out := make([]string, 0, len(te.Events))
	for _, e := range te.Events {
		out = append(out, e.Name)
	}
	return out
}

// newTestServer returns a server whose clock reads *now.
func newTestServer(t *testing.T, now *atomic.Pointer[time.Time]) *Server {
	t.Helper()
	eng := dates.New(
		dates.WithLocation(time.UTC),
		dates.WithClock(dates.ClockFunc(func() time.Time { return *now.Load() })),
	)
	return NewServer(config.DefaultConfig(), catalog.New(fixture), eng)
}

func clockAt(day string) *atomic.Pointer[time.Time] {
	t, err := time.Parse(time.DateOnly, day)
	if err != nil {
		panic(err)
	}
	t = t.Add(10 * time.Hour)
	var p atomic.Pointer[time.Time]
	p.Store(&t)
	return &p
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func getEvents(t *testing.T, h http.Handler, target string) testEvents {
	t.Helper()
	rec := get(t, h, target)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out testEvents
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, clockAt("2025-06-01"))
	rec := get(t, s.Handler(), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestEvents_Upcoming(t *testing.T) {
	s := newTestServer(t, clockAt("2025-06-01"))
	got := getEvents(t, s.Handler(), "/api/events")

	assert.Equal(t, "upcoming", got.Tab)
	assert.Equal(t, "2025-06-01", got.ReferenceDate)
	assert.Equal(t, 4, got.UpcomingCount)
	assert.Equal(t, 2, got.PastCount)
	assert.Equal(t, 4, got.Count)
	assert.Equal(t, []string{"Toronto Tech Week", "Go Halifax", "Hack the North", "nwHacks"}, got.names())

	htn := got.Events[2]
	assert.Equal(t, "2025-09-12", htn.ResolvedDate)
	assert.Equal(t, application.StatusOpen, htn.Application.Status)
	assert.True(t, htn.Application.Visible)
	assert.Contains(t, htn.Application.ReportURL, "/issues/new?")

	meetup := got.Events[1]
	assert.False(t, meetup.Application.Visible)
	assert.Equal(t, application.StatusUnknown, meetup.Application.Status)

	assert.True(t, got.Events[3].IsFallback)
}

func TestEvents_Past(t *testing.T) {
	s := newTestServer(t, clockAt("2025-06-01"))
	got := getEvents(t, s.Handler(), "/api/events?tab=PAST")
	assert.Equal(t, "past", got.Tab)
	assert.Equal(t, []string{"Web Summit Vancouver", "Collision"}, got.names())
}

func TestEvents_Filters(t *testing.T) {
	s := newTestServer(t, clockAt("2025-06-01"))
	h := s.Handler()

	assert.Equal(t, []string{"Hack the North"}, getEvents(t, h, "/api/events?province=ON&type=hackathon").names())
	assert.Equal(t, []string{"Go Halifax"}, getEvents(t, h, "/api/events?q=halifax").names())
	assert.Equal(t, []string{"Toronto Tech Week", "Go Halifax", "Hack the North", "nwHacks"}, getEvents(t, h, "/api/events?province=ALL").names())

	filtered := getEvents(t, h, "/api/events?tab=past&province=BC")
	assert.Equal(t, []string{"Web Summit Vancouver"}, filtered.names())
	assert.Equal(t, 2, filtered.PastCount)
	assert.Equal(t, 1, filtered.Count)
}

func TestEvents_BadRequest(t *testing.T) {
	s := newTestServer(t, clockAt("2025-06-01"))
	assert.Equal(t, http.StatusBadRequest, get(t, s.Handler(), "/api/events?tab=later").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, s.Handler(), "/api/events?type=party").Code)
}

func TestEvents_DayRollover(t *testing.T) {
	now := clockAt("2025-06-01")
	s := newTestServer(t, now)
	h := s.Handler()

	first := getEvents(t, h, "/api/events")
	assert.Equal(t, "Toronto Tech Week", first.Events[0].Name)

	// Past midnight the event dated yesterday moves to the past tab.
	next := now.Load().Add(15 * time.Hour)
	now.Store(&next)

	second := getEvents(t, h, "/api/events")
	assert.Equal(t, "2025-06-02", second.ReferenceDate)
	assert.Equal(t, "Go Halifax", second.Events[0].Name)
	assert.Equal(t, 3, second.PastCount)
}

func TestSetCatalog(t *testing.T) {
	s := newTestServer(t, clockAt("2025-06-01"))
	h := s.Handler()
	require.Len(t, getEvents(t, h, "/api/events").Events, 4)

	s.SetCatalog(catalog.New([]model.Event{
		{Name: "Only One", Date: "July 1, 2025", Type: model.TypeMeetup},
	}))
	assert.Equal(t, 1, s.Catalog().Len())
	assert.Equal(t, []string{"Only One"}, getEvents(t, h, "/api/events").names())

	s.SetCatalog(nil)
	assert.Empty(t, getEvents(t, h, "/api/events").Events)
}

func TestICS(t *testing.T) {
	s := newTestServer(t, clockAt("2025-06-01"))
	rec := get(t, s.Handler(), "/api/events.ics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/calendar"))

	body := rec.Body.String()
	assert.Equal(t, 3, strings.Count(body, "BEGIN:VEVENT"))
	assert.Contains(t, body, "SUMMARY:Hack the North")
	assert.NotContains(t, body, "Collision")
}

func TestStructuredData(t *testing.T) {
	s := newTestServer(t, clockAt("2025-06-01"))
	rec := get(t, s.Handler(), "/api/structured-data")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "application/ld+json"))

	var doc struct {
		Type          string `json:"@type"`
		NumberOfItems int    `json:"numberOfItems"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "ItemList", doc.Type)
	assert.Equal(t, len(fixture), doc.NumberOfItems)
}

func TestProvincesAndMetrics(t *testing.T) {
	s := newTestServer(t, clockAt("2025-06-01"))

	rec := get(t, s.Handler(), "/api/provinces")
	require.Equal(t, http.StatusOK, rec.Code)
	var provinces []model.ProvinceInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &provinces))
	assert.Len(t, provinces, 13)

	rec = get(t, s.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "canconf_catalog_events")
}

func TestServe_Shutdown(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Listen = "127.0.0.1:0"
	s := NewServer(cfg, catalog.New(fixture), dates.New())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	assert.NoError(t, s.Serve(ctx))
}

func TestEvents_ResponseCache(t *testing.T) {
	now := clockAt("2025-06-01")
	s := newTestServer(t, now)
	h := s.Handler()
	require.Len(t, getEvents(t, h, "/api/events").Events, 4)

	// Bypass SetCatalog so the cache is not dropped.
	s.catMu.Lock()
	s.cat = catalog.New(nil)
	s.catMu.Unlock()
	assert.Len(t, getEvents(t, h, "/api/events").Events, 4)

	later := now.Load().Add(defaultCacheTTL + time.Second)
	now.Store(&later)
	assert.Empty(t, getEvents(t, h, "/api/events").Events)
}

func TestEvents_CatalogSwapDuringBuildIsNotCached(t *testing.T) {
	now := clockAt("2025-06-01")
	s := newTestServer(t, now)
	h := s.Handler()

	oldCat, gen := s.snapshot()
	stale := s.buildEvents(oldCat, tabUpcoming, filter.Criteria{}, *now.Load())
	require.Len(t, stale.Events, 4)

	s.SetCatalog(catalog.New(nil))
	assert.False(t, s.storeEvents("upcoming||||2025-06-01", gen, stale, *now.Load()))
	assert.Empty(t, getEvents(t, h, "/api/events").Events)
}
