package usecases

import (
	"context"
	"fmt"

	"github.com/example/shuttle-pass/internal/domain/user"
	"github.com/example/shuttle-pass/internal/infrastructure/crypto"
)

// CredentialStore persists the single user's login for silent re-login.
// Load returns internaltypes.ErrNotFound when nothing is stored.
type CredentialStore interface {
	Load(ctx context.Context) (user.Credentials, error)
	Save(ctx context.Context, c user.Credentials) error
	Clear(ctx context.Context) error
}

// EncryptedCredentials seals the password before it reaches a store that keeps
// columns in plaintext, such as Postgres.
type EncryptedCredentials struct {
	Store CredentialStore
	AEAD  *crypto.AEAD
}

func (s EncryptedCredentials) Load(ctx context.Context) (user.Credentials, error) {
	c, err := s.Store.Load(ctx)
	if err != nil {
		return user.Credentials{}, err
	}
	if c.Password != "" {
		pt, err := s.AEAD.DecryptString(c.Password)
		if err != nil {
			return user.Credentials{}, fmt.Errorf("decrypt stored password: %w", err)
		}
		c.Password = pt
	}
	return c, nil
}

func (s EncryptedCredentials) Save(ctx context.Context, c user.Credentials) error {
	if c.Password != "" {
		sealed, err := s.AEAD.EncryptToString(c.Password)
		if err != nil {
			return err
		}
		c.Password = sealed
	}
	return s.Store.Save(ctx, c)
}

func (s EncryptedCredentials) Clear(ctx context.Context) error {
	return s.Store.Clear(ctx)
}
