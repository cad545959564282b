// Package web serves the directory over HTTP.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"canconf/internal/application"
	"canconf/internal/catalog"
	"canconf/internal/config"
	"canconf/internal/dates"
	appLog "canconf/internal/log"
	"canconf/internal/metrics"
)

const (
	defaultCacheTTL = 30 * time.Second
	shutdownTimeout = 15 * time.Second
)

// Server provides the read-only directory API.
type Server struct {
	cfg    *config.Config
	engine *dates.Engine
	status application.Evaluator
	router chi.Router

	catMu sync.RWMutex
	cat   *catalog.Catalog
	// gen counts catalog swaps; cached responses carry the generation they
	// were built from.
	gen atomic.Uint64

	// Rendered /api/events responses, keyed by normalized query and the
	// reference day so a cached tab never outlives midnight.
	cacheMu  sync.RWMutex
	cache    map[string]cachedEvents
	cacheTTL time.Duration
}

type cachedEvents struct {
	resp      eventsResponse
	gen       uint64
	updatedAt time.Time
}

// NewServer builds a Server around an initial catalog. The engine supplies
// both the clock and the zone "today" is decided in.
func NewServer(cfg *config.Config, cat *catalog.Catalog, engine *dates.Engine) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if engine == nil {
		engine = dates.New()
	}
	s := &Server{
		cfg:      cfg,
		engine:   engine,
		status:   application.Evaluator{Location: engine.Location()},
		cache:    make(map[string]cachedEvents),
		cacheTTL: defaultCacheTTL,
	}
	s.SetCatalog(cat)
	s.router = s.routes()
	return s
}

// Handler returns the router with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Catalog returns the catalog currently served.
func (s *Server) Catalog() *catalog.Catalog {
	cat, _ := s.snapshot()
	return cat
}

func (s *Server) snapshot() (*catalog.Catalog, uint64) {
	s.catMu.RLock()
	defer s.catMu.RUnlock()
	return s.cat, s.gen.Load()
}

// SetCatalog swaps the served catalog and drops cached responses.
func (s *Server) SetCatalog(cat *catalog.Catalog) {
	if cat == nil {
		cat = catalog.New(nil)
	}
	s.catMu.Lock()
	s.cat = cat
	s.gen.Add(1)
	s.catMu.Unlock()

	s.cacheMu.Lock()
	s.cache = make(map[string]cachedEvents)
	s.cacheMu.Unlock()

	s.recordCatalogMetrics(cat)
}

func (s *Server) recordCatalogMetrics(cat *catalog.Catalog) {
	events := cat.Events()
	upcoming, past := s.engine.Partition(events, s.engine.Now())
	metrics.CatalogEvents.WithLabelValues(string(tabUpcoming)).Set(float64(len(upcoming)))
	metrics.CatalogEvents.WithLabelValues(string(tabPast)).Set(float64(len(past)))

	fallback := 0
	for _, ev := range events {
		if s.engine.Resolve(ev.Date).IsFallback {
			fallback++
		}
	}
	metrics.FallbackDates.Set(float64(fallback))
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(metrics.HTTPMiddleware)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/events", s.handleEvents)
		r.Get("/events.ics", s.handleICS)
		r.Get("/structured-data", s.handleStructuredData)
		r.Get("/provinces", s.handleProvinces)
	})
	return r
}

// requestLogger writes one log line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		appLog.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", chimiddleware.GetReqID(r.Context()),
		)
	})
}

// Serve listens on cfg.Listen until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Listen,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	appLog.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
