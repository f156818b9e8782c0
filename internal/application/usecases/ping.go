package usecases

import (
	"context"
	"fmt"
	"time"
)

// PingProvider checks that the stored credentials still log in.
type PingProvider struct {
	Login LoginService
}

// Execute returns how long the login round trip took.
func (u PingProvider) Execute(ctx context.Context) (time.Duration, error) {
	if u.Login.Auth == nil || u.Login.Store == nil {
		return 0, fmt.Errorf("login service is not configured")
	}
	start := time.Now()
	if _, err := u.Login.SilentLogin(ctx); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}
