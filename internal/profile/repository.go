package profile

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type Repository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	ListUsers(ctx context.Context, skip, limit int) ([]*User, error)
	UpdateUser(ctx context.Context, user *User) error
	DeleteUser(ctx context.Context, id string) error
	SetPreferences(ctx context.Context, id string, minAge, maxAge int) error
	AddPhoto(ctx context.Context, id, url string) error
	TouchLastActive(ctx context.Context, id string) error
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

const userColumns = `id, name, surname, email, phone, password_hash, age, country, gender,
	interests, photos, bio, international_mode, min_age_preference, max_age_preference,
	created_at, updated_at, last_active_at`

func (r *postgresRepository) CreateUser(ctx context.Context, user *User) error {
	query := `
        INSERT INTO users (id, name, surname, email, phone, password_hash, age, country,
                           gender, interests, photos, bio, international_mode,
                           min_age_preference, max_age_preference)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
        RETURNING created_at, updated_at, last_active_at
    `
	err := r.db.QueryRowxContext(ctx, query,
		user.ID, user.Name, user.Surname, user.Email, user.Phone, user.PasswordHash,
		user.Age, user.Country, user.Gender, user.Interests, user.Photos,
		user.Bio, user.InternationalMode,
		user.MinAgePreference, user.MaxAgePreference,
	).Scan(&user.CreatedAt, &user.UpdatedAt, &user.LastActiveAt)

	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		return ErrEmailTaken
	}
	return err
}

func (r *postgresRepository) GetUser(ctx context.Context, id string) (*User, error) {
	var u User
	err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *postgresRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *postgresRepository) ListUsers(ctx context.Context, skip, limit int) ([]*User, error) {
	var users []*User
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC OFFSET $1 LIMIT $2`
	if err := r.db.SelectContext(ctx, &users, query, skip, limit); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *postgresRepository) UpdateUser(ctx context.Context, user *User) error {
	query := `
        UPDATE users
        SET name = $2, surname = $3, age = $4, country = $5, interests = $6,
            photos = $7, bio = $8, international_mode = $9,
            updated_at = NOW(), last_active_at = NOW()
        WHERE id = $1
        RETURNING updated_at, last_active_at
    `
	err := r.db.QueryRowxContext(ctx, query,
		user.ID, user.Name, user.Surname, user.Age, user.Country,
		user.Interests, user.Photos, user.Bio, user.InternationalMode,
	).Scan(&user.UpdatedAt, &user.LastActiveAt)

	if err == sql.ErrNoRows {
		return ErrUserNotFound
	}
	return err
}

func (r *postgresRepository) DeleteUser(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *postgresRepository) SetPreferences(ctx context.Context, id string, minAge, maxAge int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET min_age_preference = $2, max_age_preference = $3, updated_at = NOW()
         WHERE id = $1`,
		id, minAge, maxAge)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *postgresRepository) AddPhoto(ctx context.Context, id, url string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET photos = array_append(photos, $2), updated_at = NOW() WHERE id = $1`,
		id, url)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *postgresRepository) TouchLastActive(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET last_active_at = NOW() WHERE id = $1`, id)
	return err
}
