// Package credstore keeps the user's credentials in a single sealed file.
package credstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/example/shuttle-pass/internal/domain/user"
	"github.com/example/shuttle-pass/internal/infrastructure/crypto"
	"github.com/example/shuttle-pass/internal/internaltypes"
)

const (
	storeDirMode = 0o700
	fileMode     = 0o600
)

type record struct {
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FileStore seals the credentials as JSON with AES-GCM.
type FileStore struct {
	path string
	aead *crypto.AEAD
	mu   sync.RWMutex
}

func NewFileStore(path string, aead *crypto.AEAD) *FileStore {
	return &FileStore{path: filepath.Clean(path), aead: aead}
}

func (s *FileStore) Load(ctx context.Context) (user.Credentials, error) {
	if err := ctx.Err(); err != nil {
		return user.Credentials{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	sealed, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return user.Credentials{}, internaltypes.ErrNotFound
		}
		return user.Credentials{}, fmt.Errorf("read credentials: %w", err)
	}
	plain, err := s.aead.Open(sealed)
	if err != nil {
		return user.Credentials{}, fmt.Errorf("open credentials (wrong key?): %w", err)
	}
	var r record
	if err := json.Unmarshal(plain, &r); err != nil {
		return user.Credentials{}, fmt.Errorf("decode credentials: %w", err)
	}
	return user.Credentials{Username: r.Username, Password: r.Password, UpdatedAt: r.UpdatedAt}, nil
}

func (s *FileStore) Save(ctx context.Context, c user.Credentials) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	plain, err := json.Marshal(record{Username: c.Username, Password: c.Password, UpdatedAt: c.UpdatedAt})
	if err != nil {
		return err
	}
	sealed, err := s.aead.Seal(plain)
	if err != nil {
		return fmt.Errorf("seal credentials: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), storeDirMode); err != nil {
		return fmt.Errorf("create credentials directory: %w", err)
	}
	if err := os.WriteFile(s.path, sealed, fileMode); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

// Clear is a no-op when nothing is stored.
func (s *FileStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete credentials: %w", err)
	}
	return nil
}
