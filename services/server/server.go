package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"rostat-backend/services/events"
	"rostat-backend/services/logbook"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Server republishes the cached club data over HTTP. handlers stay thin,
// every response comes straight out of the logbook and events query APIs.
type Server struct {
	logbook *logbook.Service
	events  *events.Service
}

type Options struct {
	Logbook *logbook.Service
	// optional, the calendar endpoint 404s without it
	Events *events.Service
}

func NewServer(options Options) *Server {
	return &Server{
		logbook: options.Logbook,
		events:  options.Events,
	}
}

func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/api/seasons", s.handleSeasons)
	r.Get("/api/trips", s.handleTrips)
	r.Get("/api/members", s.handleMembers)
	r.Get("/api/permissions", s.handlePermissions)
	r.Get("/calendar.ics", s.handleCalendar)
	r.Post("/api/invalidate", s.handleInvalidate)
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.InfoContext(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", chimiddleware.GetReqID(r.Context()),
		)
	})
}

func writeJson(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		slog.Error("failed to encode response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJson(w, status, map[string]string{"error": message})
}

func (s *Server) handleSeasons(w http.ResponseWriter, r *http.Request) {
	writeJson(w, http.StatusOK, map[string]any{
		"seasons": s.logbook.Seasons(),
		"current": s.logbook.CurrentSeason(),
	})
}

func (s *Server) handleTrips(w http.ResponseWriter, r *http.Request) {
	season := s.logbook.CurrentSeason()
	if raw := r.URL.Query().Get("season"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "season must be a year")
			return
		}
		season = parsed
	}

	ledger, err := s.logbook.Trips(r.Context(), season)
	if err != nil {
		var invalid logbook.InvalidSeasonError
		if errors.As(err, &invalid) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "failed to fetch trips", "season", season, "err", err)
		writeError(w, http.StatusBadGateway, "upstream fetch failed")
		return
	}

	writeJson(w, http.StatusOK, map[string]any{
		"season": ledger.Season(),
		"trips":  ledger.Trips(),
	})
}

func (s *Server) handleMembers(w http.ResponseWriter, r *http.Request) {
	dir, err := s.logbook.Members(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to fetch members", "err", err)
		writeError(w, http.StatusBadGateway, "upstream fetch failed")
		return
	}
	writeJson(w, http.StatusOK, dir.All())
}

func (s *Server) handlePermissions(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	dir, err := s.logbook.Members(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to fetch members", "err", err)
		writeError(w, http.StatusBadGateway, "upstream fetch failed")
		return
	}

	member, ok := dir.GetMemberByName(name)
	if !ok {
		writeError(w, http.StatusNotFound, "no member by that name")
		return
	}
	writeJson(w, http.StatusOK, map[string]any{
		"id":          member.ID,
		"name":        member.Name,
		"memberType":  member.MemberType,
		"permissions": member.Permissions,
		"boatAdmin":   member.BoatAdmin,
		"systemAdmin": member.SystemAdmin,
	})
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		writeError(w, http.StatusNotFound, "event calendar is not configured")
		return
	}

	stored, err := s.events.Events(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to read events", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to read events")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(formatCalendar(stored))
	if err != nil {
		slog.Error("failed to write calendar", "err", err)
	}
}

func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	s.logbook.InvalidateCaches()
	writeJson(w, http.StatusOK, map[string]string{"status": "ok"})
}
