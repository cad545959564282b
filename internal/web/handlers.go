package web

import (
	"net/http"
	"strings"
	"time"

	"canconf/internal/application"
	"canconf/internal/catalog"
	"canconf/internal/filter"
	"canconf/internal/ics"
	"canconf/internal/jsonld"
	"canconf/internal/model"
)

type tab string

const (
	tabUpcoming tab = "upcoming"
	tabPast     tab = "past"
)

// eventsResponse is the JSON shape of /api/events.
type eventsResponse struct {
	Tab           tab        `json:"tab"`
	ReferenceDate string     `json:"reference_date"`
	UpcomingCount int        `json:"upcoming_count"`
	PastCount     int        `json:"past_count"`
	Count         int        `json:"count"`
	Events        []eventDTO `json:"events"`
}

// eventDTO is a catalog record plus what the page derives from it.
type eventDTO struct {
	model.Event
	ResolvedDate string         `json:"resolved_date"`
	IsFallback   bool           `json:"is_fallback"`
	Application  applicationDTO `json:"application"`
}

type applicationDTO struct {
	Status       application.Status `json:"status"`
	Visible      bool               `json:"visible"`
	DeadlineText string             `json:"deadline_text,omitempty"`
	Summary      string             `json:"summary"`
	ReportURL    string             `json:"report_url"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleEvents returns one tab of the directory.
//
// GET /api/events?tab=upcoming|past&province=ON&q=hack&type=hackathon
//
// The full catalog is partitioned against the server clock, the tab is
// sorted (earliest first for upcoming, latest first for past) and only then
// filtered, so filters never change relative order.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	t := tab(strings.ToLower(q.Get("tab")))
	switch t {
	case "":
		t = tabUpcoming
	case tabUpcoming, tabPast:
	default:
		writeError(w, http.StatusBadRequest, "tab must be upcoming or past")
		return
	}

	criteria := filter.Criteria{
		Province: q.Get("province"),
		Query:    q.Get("q"),
		Type:     model.EventType(strings.ToLower(q.Get("type"))),
	}
	if criteria.Type != "" && !criteria.Type.Valid() {
		writeError(w, http.StatusBadRequest, "unknown event type")
		return
	}

	now := s.engine.Now()
	key := string(t) + "|" + criteria.Province + "|" + criteria.Query + "|" + string(criteria.Type) + "|" + now.Format(time.DateOnly)
	cat, gen := s.snapshot()

	s.cacheMu.RLock()
	ce, ok := s.cache[key]
	s.cacheMu.RUnlock()
	if ok && ce.gen == gen && now.Sub(ce.updatedAt) < s.cacheTTL {
		writeJSON(w, http.StatusOK, ce.resp)
		return
	}

	resp := s.buildEvents(cat, t, criteria, now)
	s.storeEvents(key, gen, resp, now)
	writeJSON(w, http.StatusOK, resp)
}

// storeEvents caches resp unless the catalog it was built from has been
// replaced in the meantime.
func (s *Server) storeEvents(key string, gen uint64, resp eventsResponse, now time.Time) bool {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.gen.Load() != gen {
		return false
	}
	s.cache[key] = cachedEvents{resp: resp, gen: gen, updatedAt: now}
	return true
}

func (s *Server) buildEvents(cat *catalog.Catalog, t tab, c filter.Criteria, now time.Time) eventsResponse {
	upcoming, past := s.engine.Partition(cat.Events(), now)

	var list []model.Event
	if t == tabPast {
		list = s.engine.SortByDate(past, false)
	} else {
		list = s.engine.SortByDate(upcoming, true)
	}
	list = filter.Apply(list, c)

	dtos := make([]eventDTO, 0, len(list))
	for _, ev := range list {
		dtos = append(dtos, s.toDTO(ev, now))
	}
	return eventsResponse{
		Tab:           t,
		ReferenceDate: now.Format(time.DateOnly),
		UpcomingCount: len(upcoming),
		PastCount:     len(past),
		Count:         len(dtos),
		Events:        dtos,
	}
}

func (s *Server) toDTO(ev model.Event, now time.Time) eventDTO {
	res := s.engine.Resolve(ev.Date)
	summary := s.status.Describe(ev.ApplicationDeadline, now)
	return eventDTO{
		Event:        ev,
		ResolvedDate: res.Day(),
		IsFallback:   res.IsFallback,
		Application: applicationDTO{
			Status:       s.status.Status(ev.ApplicationDeadline, now),
			Visible:      application.ShouldDisplay(ev.Type, ev.ApplicationDeadline),
			DeadlineText: s.status.FormatDeadline(ev.ApplicationDeadline, now),
			Summary:      summary,
			ReportURL:    application.IssueURL(s.cfg.IssueRepoURL, ev.Name, summary),
		},
	}
}

// handleICS exports the upcoming tab as an iCalendar feed.
func (s *Server) handleICS(w http.ResponseWriter, _ *http.Request) {
	upcoming := s.engine.Upcoming(s.Catalog().Events(), s.engine.Now())
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="canconf.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(ics.Export(upcoming, s.engine)))
}

// handleStructuredData serves the schema.org ItemList for the whole catalog
// in catalog order.
func (s *Server) handleStructuredData(w http.ResponseWriter, _ *http.Request) {
	data, err := jsonld.NewItemList(s.Catalog().Events()).Marshal()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to render structured data")
		return
	}
	w.Header().Set("Content-Type", "application/ld+json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleProvinces(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, model.Provinces)
}
