// Package web serves the boarding pass UI and a small JSON API on top of the
// refresh scheduler.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/example/shuttle-pass/internal/application/usecases"
	"github.com/example/shuttle-pass/internal/domain/history"
	"github.com/example/shuttle-pass/internal/domain/reservation"
	"github.com/example/shuttle-pass/internal/internaltypes"
)

const (
	defaultRecentLimit = 20
	shutdownTimeout    = 5 * time.Second
)

// Scheduler runs refresh and nearby cycles one at a time. Touch marks user
// activity.
type Scheduler interface {
	Refresh(ctx context.Context) (usecases.Report, error)
	Nearby(ctx context.Context) (usecases.NearbyReport, error)
	Touch()
}

// Schedules reads the timetable without reserving anything.
type Schedules interface {
	FetchSchedule(ctx context.Context, date string, offline bool) ([]reservation.Resource, error)
}

type Stats interface {
	Statistics(ctx context.Context) (history.Statistics, error)
}

type BoardingLog interface {
	Recent(ctx context.Context, limit int) ([]reservation.LoggedBoarding, error)
}

// Deps are the collaborators of a Server. Log may be nil.
type Deps struct {
	Scheduler    Scheduler
	Schedules    Schedules
	Stats        Stats
	Log          BoardingLog
	Sessions     *SessionManager
	PasswordHash string
	Templates    *template.Template
	Logger       *slog.Logger
	Now          func() time.Time
}

type Server struct {
	addr string
	deps Deps

	mu     sync.Mutex
	latest *usecases.Report
}

func New(addr string, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Server{addr: addr, deps: deps}
}

// Publish stores rep as the pass shown on the home page. It is meant as the
// background refresh callback.
func (s *Server) Publish(rep usecases.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = &rep
}

// withdraw drops the stored pass after a failed refresh.
func (s *Server) withdraw() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = nil
}

func (s *Server) latestReport() *usecases.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.HandleFunc("/login", s.handleLogin)
	mux.HandleFunc("POST /logout", s.handleLogout)

	mux.Handle("GET /{$}", s.requireAuth(s.handleHome))
	mux.Handle("POST /refresh", s.requireAuth(s.handleRefresh))
	mux.Handle("POST /api/boarding", s.requireAuth(s.handleBoarding))
	mux.Handle("POST /api/nearby", s.requireAuth(s.handleNearby))
	mux.Handle("GET /api/schedule", s.requireAuth(s.handleSchedule))
	mux.Handle("GET /api/stats", s.requireAuth(s.handleStats))
	mux.Handle("GET /api/recent", s.requireAuth(s.handleRecent))
	return s.logging(mux)
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.deps.Logger.Info("listening", "addr", s.addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.deps.Logger.Debug("request", "method", r.Method, "path", r.URL.Path, "took", time.Since(start))
	})
}

func (s *Server) requireAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.deps.Sessions.Valid(r) {
			if strings.HasPrefix(r.URL.Path, "/api/") {
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: "login required"})
				return
			}
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		s.deps.Scheduler.Touch()
		next(w, r)
	})
}

type loginData struct{ Error string }

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.render(w, http.StatusOK, "login.html", loginData{})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		err := bcrypt.CompareHashAndPassword([]byte(s.deps.PasswordHash), []byte(r.FormValue("password")))
		if err != nil {
			s.render(w, http.StatusUnauthorized, "login.html", loginData{Error: "Invalid password"})
			return
		}
		if err := s.deps.Sessions.Set(w, r, s.deps.Now()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, "/", http.StatusFound)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.deps.Sessions.Clear(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

type homeData struct {
	Report *usecases.Report
	Recent []reservation.LoggedBoarding
	Error  string
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.renderHome(w, r, homeData{Report: s.latestReport()})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	rep, err := s.deps.Scheduler.Refresh(r.Context())
	if err != nil {
		s.withdraw()
		s.renderHome(w, r, homeData{Error: describe(err)})
		return
	}
	s.Publish(rep)
	s.renderHome(w, r, homeData{Report: &rep})
}

func (s *Server) renderHome(w http.ResponseWriter, r *http.Request, data homeData) {
	if s.deps.Log != nil {
		recent, err := s.deps.Log.Recent(r.Context(), 5)
		if err != nil {
			s.deps.Logger.Warn("recent boardings", "err", err)
		}
		data.Recent = recent
	}
	s.render(w, http.StatusOK, "home.html", data)
}

type boardingBody struct {
	CycleID   string                     `json:"cycle_id"`
	Direction string                     `json:"direction"`
	Minutes   int                        `json:"minutes_until"`
	Result    reservation.BoardingResult `json:"result"`
	Trace     []string                   `json:"trace"`
}

type nearbyCard struct {
	Route     string                      `json:"route"`
	Departure string                      `json:"departure"`
	Minutes   int                         `json:"minutes_until"`
	Result    *reservation.BoardingResult `json:"result,omitempty"`
	Error     string                      `json:"error,omitempty"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) handleBoarding(w http.ResponseWriter, r *http.Request) {
	rep, err := s.deps.Scheduler.Refresh(r.Context())
	if err != nil {
		s.withdraw()
		s.writeError(w, err)
		return
	}
	s.Publish(rep)
	writeJSON(w, http.StatusOK, boardingBody{
		CycleID:   rep.CycleID,
		Direction: rep.Direction.String(),
		Minutes:   rep.Candidate.TimeDifference,
		Result:    rep.Outcome.Result,
		Trace:     traceNames(rep.Outcome.Trace),
	})
}

func (s *Server) handleNearby(w http.ResponseWriter, r *http.Request) {
	rep, err := s.deps.Scheduler.Nearby(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	cards := make([]nearbyCard, 0, len(rep.Cards))
	for _, c := range rep.Cards {
		card := nearbyCard{
			Route:     c.Candidate.ResourceName,
			Departure: c.Candidate.Slot.TimeOfDay,
			Minutes:   c.Candidate.TimeDifference,
		}
		if c.Err != nil {
			card.Error = describe(c.Err)
		} else {
			res := c.Outcome.Result
			card.Result = &res
		}
		cards = append(cards, card)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"cycle_id":  rep.CycleID,
		"direction": rep.Direction.String(),
		"cards":     cards,
	})
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = s.deps.Now().Format(reservation.DateLayout)
	} else if _, err := time.Parse(reservation.DateLayout, date); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "date must be YYYY-MM-DD"})
		return
	}
	offline, _ := strconv.ParseBool(r.URL.Query().Get("offline"))
	resources, err := s.deps.Schedules.FetchSchedule(r.Context(), date, offline)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": date, "resources": resources})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.deps.Stats.Statistics(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	if s.deps.Log == nil {
		writeJSON(w, http.StatusOK, []reservation.LoggedBoarding{})
		return
	}
	limit := defaultRecentLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}
	entries, err := s.deps.Log.Recent(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.deps.Logger.Warn("request failed", "err", err)
	}
	writeJSON(w, code, errorBody{Error: describe(err)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, context.Canceled):
		return http.StatusConflict
	case errors.Is(err, internaltypes.ErrNotFound):
		return http.StatusPreconditionFailed
	case errors.Is(err, reservation.ErrNoDeparture):
		return http.StatusNotFound
	case errors.Is(err, reservation.ErrAuthInvalid),
		errors.Is(err, reservation.ErrTransport),
		errors.Is(err, reservation.ErrDecode),
		errors.Is(err, reservation.ErrReservationFailed),
		errors.Is(err, reservation.ErrNoMatchingReservation):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func describe(err error) string {
	if errors.Is(err, internaltypes.ErrNotFound) {
		return "No saved credentials. Run `shuttlepass login` first."
	}
	return reservation.Describe(err)
}

func traceNames(states []usecases.State) []string {
	out := make([]string, len(states))
	for i, st := range states {
		out[i] = st.String()
	}
	return out
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) render(w http.ResponseWriter, code int, name string, data any) {
	w.Header().Set("content-type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if err := s.deps.Templates.ExecuteTemplate(w, name, data); err != nil {
		s.deps.Logger.Error("render", "template", name, "err", err)
	}
}
