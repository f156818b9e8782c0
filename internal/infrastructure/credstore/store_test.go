package credstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/shuttle-pass/internal/domain/user"
	"github.com/example/shuttle-pass/internal/infrastructure/crypto"
	"github.com/example/shuttle-pass/internal/internaltypes"
)

func newAEAD(t *testing.T) *crypto.AEAD {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	a, err := crypto.New(key)
	require.NoError(t, err)
	return a
}

func TestFileStoreRoundTripAndPermissions(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sub", "credentials.enc")
	store := NewFileStore(path, newAEAD(t))
	ctx := context.Background()

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, internaltypes.ErrNotFound)

	want := user.Credentials{Username: "alice", Password: "secret", UpdatedAt: time.Date(2024, 5, 6, 8, 0, 0, 0, time.UTC)}
	require.NoError(t, store.Save(ctx, want))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(fileMode), info.Mode().Perm())

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFileStoreWrongKey(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "credentials.enc")
	require.NoError(t, NewFileStore(path, newAEAD(t)).Save(context.Background(), user.Credentials{Username: "a", Password: "b"}))

	_, err := NewFileStore(path, newAEAD(t)).Load(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, internaltypes.ErrNotFound)
}

func TestFileStoreClearIsIdempotent(t *testing.T) {
	t.Parallel()

	store := NewFileStore(filepath.Join(t.TempDir(), "credentials.enc"), newAEAD(t))
	ctx := context.Background()
	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Save(ctx, user.Credentials{Username: "a", Password: "b"}))
	require.NoError(t, store.Clear(ctx))
	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, internaltypes.ErrNotFound)
}
