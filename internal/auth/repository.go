package auth

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	GetCredentialsByEmail(ctx context.Context, email string) (*Credentials, error)
	CreateExternalUser(ctx context.Context, id, email, name string) (*Credentials, error)
	TouchLastActive(ctx context.Context, id string) error
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) GetCredentialsByEmail(ctx context.Context, email string) (*Credentials, error) {
	var c Credentials
	err := r.db.GetContext(ctx, &c,
		`SELECT id, email, name, password_hash FROM users WHERE email = $1`, email)
	if err == sql.ErrNoRows {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateExternalUser inserts a minimal password-less account for an identity
// verified by an external provider.
func (r *postgresRepository) CreateExternalUser(ctx context.Context, id, email, name string) (*Credentials, error) {
	query := `
        INSERT INTO users (id, name, email, age)
        VALUES ($1, $2, $3, 18)
        RETURNING id, email, name, password_hash
    `
	var c Credentials
	if err := r.db.GetContext(ctx, &c, query, id, name, email); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *postgresRepository) TouchLastActive(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET last_active_at = NOW() WHERE id = $1`, id)
	return err
}
