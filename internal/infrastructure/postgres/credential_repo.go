package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/shuttle-pass/internal/domain/user"
	"github.com/example/shuttle-pass/internal/internaltypes"
)

// CredentialRepo keeps the single credentials row. Wrap it in
// usecases.EncryptedCredentials; the password column is stored as given.
type CredentialRepo struct{ pool *pgxpool.Pool }

func NewCredentialRepo(pool *pgxpool.Pool) *CredentialRepo { return &CredentialRepo{pool: pool} }

func (r *CredentialRepo) Load(ctx context.Context) (user.Credentials, error) {
	row := r.pool.QueryRow(ctx, `SELECT username, password_enc, updated_at FROM credentials WHERE id=1`)
	var c user.Credentials
	if err := row.Scan(&c.Username, &c.Password, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.Credentials{}, internaltypes.ErrNotFound
		}
		return user.Credentials{}, err
	}
	return c, nil
}

func (r *CredentialRepo) Save(ctx context.Context, c user.Credentials) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO credentials (id, username, password_enc, updated_at) VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET username=EXCLUDED.username, password_enc=EXCLUDED.password_enc, updated_at=EXCLUDED.updated_at
	`, c.Username, c.Password, c.UpdatedAt)
	return err
}

func (r *CredentialRepo) Clear(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM credentials WHERE id=1`)
	return err
}
