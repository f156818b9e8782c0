package user

import (
	"strings"
	"time"
)

// Credentials are the provider login stored for silent re-login.
type Credentials struct {
	Username string
	Password string

	UpdatedAt time.Time
}

func (c Credentials) Complete() bool {
	return strings.TrimSpace(c.Username) != "" && c.Password != ""
}
