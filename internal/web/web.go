package web

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"townfeed/internal/config"
	"townfeed/internal/feed"
	appLog "townfeed/internal/log"
	"townfeed/internal/model"
)

// cacheTTL bounds how stale the served feed may get between scheduled
// refreshes (e.g. when the cron expression is very sparse).
const cacheTTL = 30 * time.Minute

// Server exposes the aggregated feed over HTTP:
//
//	/health       liveness (always unauthenticated)
//	/api/events   JSON feed
//	/calendar.ics iCalendar rendering of the same feed
//	/metrics      prometheus metrics
type Server struct {
	cfg  *config.Config
	feed *feed.Feed
	loc  *time.Location
	mux  *http.ServeMux

	mu       sync.RWMutex
	cached   []model.Event
	cachedAt time.Time
}

func NewServer(cfg *config.Config, f *feed.Feed) *Server {
	s := &Server{
		cfg:  cfg,
		feed: f,
		loc:  cfg.Location(),
		mux:  http.NewServeMux(),
	}
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/events", s.handleEvents)
	s.mux.HandleFunc("/calendar.ics", s.handleICS)
	s.mux.Handle("/metrics", promhttp.Handler())
	return s
}

// Handler returns the mux, wrapped in basic auth when configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// Refresh regenerates the feed against the current moment, replaces the
// cache and returns the fresh list. Called by the scheduler and by
// request handlers when the cache has gone stale.
func (s *Server) Refresh() []model.Event {
	now := time.Now().In(s.loc)
	events := s.feed.Events(now)

	s.mu.Lock()
	s.cached = events
	s.cachedAt = now
	s.mu.Unlock()

	appLog.Info("feed refreshed", "events", len(events))
	return events
}

func (s *Server) snapshot() []model.Event {
	s.mu.RLock()
	events, at := s.cached, s.cachedAt
	s.mu.RUnlock()

	if events == nil || time.Since(at) > cacheTTL {
		return s.Refresh()
	}
	return events
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	events := s.snapshot()

	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(struct {
		GeneratedAt time.Time     `json:"generatedAt"`
		Events      []model.Event `json:"events"`
	}{
		GeneratedAt: time.Now().In(s.loc),
		Events:      events,
	})
	if err != nil {
		appLog.Error("failed to encode events response", err)
	}
}

func (s *Server) handleICS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	events := s.snapshot()
	now := time.Now().In(s.loc)

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//townfeed//feed//EN")

	for _, ev := range events {
		ve := cal.AddEvent(eventUID(ev))
		ve.SetDtStampTime(now)
		ve.SetStartAt(ev.Start)
		ve.SetSummary(ev.Title)
		if ev.Description != "" {
			ve.SetDescription(ev.Description)
		}
		if ev.Location != "" {
			ve.SetLocation(ev.Location)
		}
		ve.SetURL(ev.SourceURL)
		if ev.Category != "" {
			ve.SetProperty(ical.ComponentPropertyCategories, ev.Category)
		}
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	if _, err := w.Write([]byte(cal.Serialize())); err != nil {
		appLog.Error("failed to write ics response", err)
	}
}

// eventUID derives a stable per-occurrence UID from the identity key.
func eventUID(ev model.Event) string {
	sum := sha256.Sum256([]byte(ev.Key()))
	return hex.EncodeToString(sum[:8]) + "@townfeed"
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="townfeed", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
