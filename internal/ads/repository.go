package ads

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	CreateAd(ctx context.Context, ad *Ad) error
	GetAd(ctx context.Context, id string) (*Ad, error)
	ListAds(ctx context.Context, skip, limit int) ([]*Ad, error)
	UpdateAd(ctx context.Context, ad *Ad) error
	DeleteAd(ctx context.Context, id string) error
	SetArchived(ctx context.Context, id string, archived bool) error
	ListTargetedForUser(ctx context.Context, userID string, skip, limit int) ([]*TargetedAd, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

const adColumns = `id, owner_id, title, description, image_url, target_interests,
	archived, created_at, updated_at`

func (r *postgresRepository) CreateAd(ctx context.Context, ad *Ad) error {
	query := `
        INSERT INTO ads (id, owner_id, title, description, image_url, target_interests)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING created_at, updated_at
    `
	return r.db.QueryRowxContext(ctx, query,
		ad.ID, ad.OwnerID, ad.Title, ad.Description, ad.ImageURL, ad.TargetInterests,
	).Scan(&ad.CreatedAt, &ad.UpdatedAt)
}

func (r *postgresRepository) GetAd(ctx context.Context, id string) (*Ad, error) {
	var ad Ad
	err := r.db.GetContext(ctx, &ad, `SELECT `+adColumns+` FROM ads WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, ErrAdNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ad, nil
}

func (r *postgresRepository) ListAds(ctx context.Context, skip, limit int) ([]*Ad, error) {
	var ads []*Ad
	query := `SELECT ` + adColumns + ` FROM ads ORDER BY created_at DESC OFFSET $1 LIMIT $2`
	if err := r.db.SelectContext(ctx, &ads, query, skip, limit); err != nil {
		return nil, err
	}
	return ads, nil
}

func (r *postgresRepository) UpdateAd(ctx context.Context, ad *Ad) error {
	query := `
        UPDATE ads
        SET title = $2, description = $3, image_url = $4, target_interests = $5,
            updated_at = NOW()
        WHERE id = $1
        RETURNING updated_at
    `
	err := r.db.QueryRowxContext(ctx, query,
		ad.ID, ad.Title, ad.Description, ad.ImageURL, ad.TargetInterests,
	).Scan(&ad.UpdatedAt)

	if err == sql.ErrNoRows {
		return ErrAdNotFound
	}
	return err
}

func (r *postgresRepository) DeleteAd(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM ads WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAdNotFound
	}
	return nil
}

func (r *postgresRepository) SetArchived(ctx context.Context, id string, archived bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE ads SET archived = $2, updated_at = NOW() WHERE id = $1`, id, archived)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAdNotFound
	}
	return nil
}

// ListTargetedForUser returns non-archived ads whose target interests overlap
// the user's interests, most relevant first. The ordering is deterministic:
// overlap count, then recency, then id.
func (r *postgresRepository) ListTargetedForUser(ctx context.Context, userID string, skip, limit int) ([]*TargetedAd, error) {
	query := `
        SELECT a.id, a.owner_id, a.title, a.description, a.image_url,
               a.target_interests, a.archived, a.created_at, a.updated_at,
               (SELECT COUNT(*) FROM unnest(a.target_interests) t
                WHERE t = ANY(u.interests)) AS shared_count
        FROM ads a, users u
        WHERE u.id = $1
          AND a.archived = FALSE
          AND a.target_interests && u.interests
        ORDER BY shared_count DESC, a.created_at DESC, a.id ASC
        OFFSET $2 LIMIT $3
    `

	rows, err := r.db.QueryxContext(ctx, query, userID, skip, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var targeted []*TargetedAd
	for rows.Next() {
		var (
			ad     Ad
			shared int
		)
		err := rows.Scan(
			&ad.ID, &ad.OwnerID, &ad.Title, &ad.Description, &ad.ImageURL,
			&ad.TargetInterests, &ad.Archived, &ad.CreatedAt, &ad.UpdatedAt,
			&shared,
		)
		if err != nil {
			return nil, err
		}
		targeted = append(targeted, &TargetedAd{Ad: &ad, SharedInterestCount: shared})
	}

	return targeted, rows.Err()
}
