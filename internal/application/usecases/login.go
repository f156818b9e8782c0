package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/shuttle-pass/internal/domain/reservation"
	"github.com/example/shuttle-pass/internal/domain/user"
	"github.com/example/shuttle-pass/internal/internaltypes"
)

type LoginService struct {
	Auth   reservation.Authenticator
	Store  CredentialStore
	Logger *slog.Logger
}

// Login authenticates and, only on success, remembers the credentials for
// later silent logins.
func (s LoginService) Login(ctx context.Context, username, password string) (reservation.Session, error) {
	if username == "" || password == "" {
		return reservation.Session{}, fmt.Errorf("login: %w: username and password are required", reservation.ErrAuthInvalid)
	}
	sess, err := s.Auth.Login(ctx, username, password)
	if err != nil {
		return reservation.Session{}, err
	}
	if err := s.Store.Save(ctx, user.Credentials{Username: username, Password: password, UpdatedAt: time.Now().UTC()}); err != nil {
		return reservation.Session{}, fmt.Errorf("save credentials: %w", err)
	}
	logger(s.Logger).Info("logged in", "user", username)
	return sess, nil
}

// SilentLogin logs in again with the stored credentials. Every cycle gets a
// fresh session.
func (s LoginService) SilentLogin(ctx context.Context) (reservation.Session, error) {
	c, err := s.Store.Load(ctx)
	if err != nil {
		return reservation.Session{}, fmt.Errorf("load credentials: %w", err)
	}
	if !c.Complete() {
		return reservation.Session{}, fmt.Errorf("load credentials: %w", internaltypes.ErrNotFound)
	}
	return s.Auth.Login(ctx, c.Username, c.Password)
}

// Logout forgets the stored credentials.
func (s LoginService) Logout(ctx context.Context) error {
	return s.Store.Clear(ctx)
}

func logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l
}
