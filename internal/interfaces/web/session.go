package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/securecookie"
)

const (
	sessionName   = "shuttlepass_session"
	sessionMaxAge = 14 * 24 * time.Hour
)

// SessionManager keeps the UI login in a signed and encrypted cookie. There is
// a single owner, so the cookie only records when the login happened.
type SessionManager struct{ sc *securecookie.SecureCookie }

func NewSessionManager(hashKey, blockKey []byte) *SessionManager {
	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(int(sessionMaxAge.Seconds()))
	return &SessionManager{sc: sc}
}

func (s *SessionManager) Set(w http.ResponseWriter, r *http.Request, now time.Time) error {
	value := map[string]string{"iat": strconv.FormatInt(now.Unix(), 10)}
	encoded, err := s.sc.Encode(sessionName, value)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
		MaxAge:   int(sessionMaxAge.Seconds()),
	})
	return nil
}

func (s *SessionManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name: sessionName, Value: "", Path: "/", MaxAge: -1,
		HttpOnly: true, SameSite: http.SameSiteLaxMode,
	})
}

// Valid reports whether r carries a session cookie this manager issued.
func (s *SessionManager) Valid(r *http.Request) bool {
	c, err := r.Cookie(sessionName)
	if err != nil {
		return false
	}
	value := map[string]string{}
	if err := s.sc.Decode(sessionName, c.Value, &value); err != nil {
		return false
	}
	return value["iat"] != ""
}
