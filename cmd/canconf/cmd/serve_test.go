package cmd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"canconf/internal/catalog"
	"canconf/internal/config"
	"canconf/internal/dates"
	"canconf/internal/ics"
	"canconf/internal/metrics"
	"canconf/internal/model"
	"canconf/internal/web"
)

var rustFeed = strings.Join([]string{
	"BEGIN:VCALENDAR",
	"VERSION:2.0",
	"PRODID:-//test//EN",
	"BEGIN:VEVENT",
	"UID:rust-1",
	"DTSTAMP:20250101T000000Z",
	"DTSTART;VALUE=DATE:20250120",
	"SUMMARY:Rust Montréal",
	"LOCATION:Montréal, Québec",
	"END:VEVENT",
	"END:VCALENDAR",
	"",
}, "\r\n")

func newTestRefresher(t *testing.T, feedURL string) (*refresher, *web.Server) {
	t.Helper()
	metrics.Init("test")

	cfg := config.DefaultConfig()
	cfg.CacheDir = t.TempDir()
	if feedURL != "" {
		cfg.ICS = []config.ICSConfig{{ID: "rust", URL: feedURL, Province: "QC"}}
	}
	loc, err := cfg.Location()
	require.NoError(t, err)

	engine := dates.New(
		dates.WithLocation(loc),
		dates.WithClock(dates.FixedClock(time.Date(2025, time.January, 10, 9, 0, 0, 0, loc))),
	)
	base := catalog.New([]model.Event{{
		Name:     "Collision",
		Date:     "June 17-20, 2025",
		Location: "Toronto, ON",
		Province: "ON",
		Type:     model.TypeConference,
	}})
	srv := web.NewServer(cfg, catalog.New(nil), engine)
	return &refresher{base: base, importer: ics.NewImporter(cfg), server: srv, engine: engine}, srv
}

func TestRefresherMergesImportedMeetups(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/calendar")
		_, _ = w.Write([]byte(rustFeed))
	}))
	defer ts.Close()

	r, srv := newTestRefresher(t, ts.URL)
	r.run(context.Background())

	cat := srv.Catalog()
	assert.Equal(t, 2, cat.Len())
	assert.True(t, cat.HasName("Collision"))
	assert.True(t, cat.HasName("Rust Montréal"))

	events := cat.Events()
	assert.Equal(t, model.TypeMeetup, events[1].Type)
	assert.Equal(t, "QC", events[1].Province)
}

func TestRefresherKeepsCatalogWhenEveryFeedFails(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	r, srv := newTestRefresher(t, ts.URL)
	r.run(context.Background())

	assert.Equal(t, 0, srv.Catalog().Len())
}

func TestRefresherWithoutFeeds(t *testing.T) {
	r, srv := newTestRefresher(t, "")
	r.run(context.Background())

	assert.Equal(t, 1, srv.Catalog().Len())
}

func TestServeRejectsBadSchedule(t *testing.T) {
	path := writeCatalog(t)

	_, err := run(t, nil, "serve", "--catalog", path, "--listen", "127.0.0.1:0", "--config", writeConfig(t, "refresh: \"not a schedule\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid refresh schedule")
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}
