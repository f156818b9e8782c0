package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/shuttle-pass/internal/application/usecases"
	"github.com/example/shuttle-pass/internal/domain/history"
	"github.com/example/shuttle-pass/internal/domain/reservation"
	"github.com/example/shuttle-pass/internal/internaltypes"
)

type fakeScheduler struct {
	rep     usecases.Report
	err     error
	nearby  usecases.NearbyReport
	touches atomic.Int32
}

func (f *fakeScheduler) Refresh(context.Context) (usecases.Report, error) { return f.rep, f.err }
func (f *fakeScheduler) Nearby(context.Context) (usecases.NearbyReport, error) {
	return f.nearby, nil
}
func (f *fakeScheduler) Touch() { f.touches.Add(1) }

type fakeSchedules struct {
	gotDate     string
	gotOffline  bool
	scheduleErr error
}

func (f *fakeSchedules) FetchSchedule(_ context.Context, date string, offline bool) ([]reservation.Resource, error) {
	f.gotDate, f.gotOffline = date, offline
	return []reservation.Resource{{ID: 2, Name: "Route A"}}, f.scheduleErr
}

type fakeStats struct{}

func (fakeStats) Statistics(context.Context) (history.Statistics, error) {
	return history.Statistics{ValidCount: 4}, nil
}

type fakeLog struct{ entries []reservation.LoggedBoarding }

func (f fakeLog) Recent(_ context.Context, limit int) ([]reservation.LoggedBoarding, error) {
	return f.entries[:min(limit, len(f.entries))], nil
}

func newTestServer(t *testing.T) (*Server, *fakeScheduler, *fakeSchedules) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	tmpl, err := ParseTemplates()
	require.NoError(t, err)

	sched := &fakeScheduler{rep: usecases.Report{
		CycleID:   "c-1",
		Direction: reservation.Outbound,
		Candidate: reservation.Candidate{ResourceName: "Route A", Slot: reservation.Slot{TimeOfDay: "08:30"}, TimeDifference: 9},
		Outcome: usecases.Outcome{
			Result: reservation.BoardingResult{RouteName: "Route A", DepartureTime: "2024-05-06 08:30", Code: "QR-42"},
			Trace:  []usecases.State{usecases.StateSelecting, usecases.StateFutureBranch, usecases.StateQRLookup, usecases.StateDone},
		},
	}}
	schedules := &fakeSchedules{}
	srv := New("127.0.0.1:0", Deps{
		Scheduler:    sched,
		Schedules:    schedules,
		Stats:        fakeStats{},
		Log:          fakeLog{entries: []reservation.LoggedBoarding{{AcquiredAt: time.Now(), BoardingResult: reservation.BoardingResult{Code: "OLD-1"}}}},
		Sessions:     NewSessionManager(securecookie.GenerateRandomKey(32), securecookie.GenerateRandomKey(32)),
		PasswordHash: string(hash),
		Templates:    tmpl,
		Now:          func() time.Time { return time.Date(2024, 5, 6, 8, 21, 0, 0, time.UTC) },
	})
	return srv, sched, schedules
}

func login(t *testing.T, h http.Handler) *http.Cookie {
	t.Helper()
	form := url.Values{"password": {"hunter2"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusFound, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func do(h http.Handler, method, target string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthzNeedsNoSession(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := do(srv.Routes(), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
}

func TestRequiresLogin(t *testing.T) {
	srv, sched, _ := newTestServer(t)
	h := srv.Routes()

	rec := do(h, http.MethodPost, "/api/boarding", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(h, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Equal(t, int32(0), sched.touches.Load())
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	srv, _, _ := newTestServer(t)
	form := url.Values{"password": {"nope"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid password")
	assert.Empty(t, rec.Result().Cookies())
}

func TestBoardingAPI(t *testing.T) {
	srv, sched, _ := newTestServer(t)
	h := srv.Routes()
	cookie := login(t, h)

	rec := do(h, http.MethodPost, "/api/boarding", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var body boardingBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "QR-42", body.Result.Code)
	assert.Equal(t, "outbound", body.Direction)
	assert.Equal(t, 9, body.Minutes)
	assert.Equal(t, []string{"selecting", "future", "qr-lookup", "done"}, body.Trace)
	assert.Equal(t, int32(1), sched.touches.Load())

	home := do(h, http.MethodGet, "/", cookie)
	assert.Equal(t, http.StatusOK, home.Code)
	assert.Contains(t, home.Body.String(), "QR-42")
	assert.Contains(t, home.Body.String(), "OLD-1")
}

func TestBoardingAPIErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("select: %w", reservation.ErrNoDeparture), http.StatusNotFound},
		{fmt.Errorf("login: %w", internaltypes.ErrNotFound), http.StatusPreconditionFailed},
		{fmt.Errorf("reserve: %w", reservation.ErrReservationFailed), http.StatusBadGateway},
		{context.Canceled, http.StatusConflict},
	}
	for _, tc := range tests {
		t.Run(tc.err.Error(), func(t *testing.T) {
			srv, sched, _ := newTestServer(t)
			sched.err = tc.err
			h := srv.Routes()
			rec := do(h, http.MethodPost, "/api/boarding", login(t, h))
			assert.Equal(t, tc.code, rec.Code)
			var body errorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestFailedRefreshHidesPreviousCode(t *testing.T) {
	srv, sched, _ := newTestServer(t)
	h := srv.Routes()
	cookie := login(t, h)

	rec := do(h, http.MethodPost, "/refresh", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "QR-42")

	sched.err = fmt.Errorf("qr code: %w", reservation.ErrTransport)
	rec = do(h, http.MethodPost, "/refresh", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "QR-42")
	assert.Contains(t, rec.Body.String(), reservation.Describe(reservation.ErrTransport))

	rec = do(h, http.MethodGet, "/", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "QR-42")
}

func TestNearbyAPIReportsCardsIndependently(t *testing.T) {
	srv, sched, _ := newTestServer(t)
	sched.nearby = usecases.NearbyReport{
		Direction: reservation.Return,
		Cards: []usecases.Card{
			{Candidate: reservation.Candidate{ResourceName: "A"}, Outcome: usecases.Outcome{Result: reservation.BoardingResult{Code: "C-1"}}},
			{Candidate: reservation.Candidate{ResourceName: "B"}, Err: reservation.ErrTransport},
		},
	}
	h := srv.Routes()
	rec := do(h, http.MethodPost, "/api/nearby", login(t, h))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Direction string       `json:"direction"`
		Cards     []nearbyCard `json:"cards"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "return", body.Direction)
	require.Len(t, body.Cards, 2)
	assert.Equal(t, "C-1", body.Cards[0].Result.Code)
	assert.Nil(t, body.Cards[1].Result)
	assert.Equal(t, reservation.Describe(reservation.ErrTransport), body.Cards[1].Error)
}

func TestScheduleAPI(t *testing.T) {
	srv, _, schedules := newTestServer(t)
	h := srv.Routes()
	cookie := login(t, h)

	rec := do(h, http.MethodGet, "/api/schedule", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2024-05-06", schedules.gotDate)
	assert.False(t, schedules.gotOffline)

	rec = do(h, http.MethodGet, "/api/schedule?date=2024-05-07&offline=true", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2024-05-07", schedules.gotDate)
	assert.True(t, schedules.gotOffline)

	rec = do(h, http.MethodGet, "/api/schedule?date=tomorrow", cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatsAndRecentAPI(t *testing.T) {
	srv, _, _ := newTestServer(t)
	h := srv.Routes()
	cookie := login(t, h)

	rec := do(h, http.MethodGet, "/api/stats", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"valid_count":4`)

	rec = do(h, http.MethodGet, "/api/recent?limit=1", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "OLD-1")

	rec = do(h, http.MethodGet, "/api/recent?limit=zero", cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogoutClearsCookie(t *testing.T) {
	srv, _, _ := newTestServer(t)
	h := srv.Routes()
	rec := do(h, http.MethodPost, "/logout", login(t, h))
	assert.Equal(t, http.StatusFound, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}
