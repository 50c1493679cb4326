package matching

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type Repository interface {
	// Profiles (read-only view over the users table)
	GetProfile(ctx context.Context, id string) (*Profile, error)
	ListProfiles(ctx context.Context, excludeID string) ([]*Profile, error)
	GetRelations(ctx context.Context, userID string) (*RelationSet, error)

	// Like / dislike transitions
	RecordLike(ctx context.Context, likerID, targetID string) (*LikeResult, error)
	RecordDislike(ctx context.Context, actorID, targetID string) error

	// Match registry
	GetMatch(ctx context.Context, matchID string) (*Match, error)
	ListMatchesForUser(ctx context.Context, userID string, skip, limit int) ([]*MatchItem, error)
	Unmatch(ctx context.Context, userA, userB string) (bool, error)
	GetChatForMatch(ctx context.Context, matchID string) (*ChatInfo, error)

	// Stats
	CountUserStats(ctx context.Context, userID string) (*UserStats, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

const profileColumns = `id, name, surname, email, age, country, gender, interests, photos, bio,
	international_mode, min_age_preference, max_age_preference, last_active_at`

func (r *postgresRepository) GetProfile(ctx context.Context, id string) (*Profile, error) {
	var p Profile
	query := `SELECT ` + profileColumns + ` FROM users WHERE id = $1`

	err := r.db.GetContext(ctx, &p, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return &p, nil
}

func (r *postgresRepository) ListProfiles(ctx context.Context, excludeID string) ([]*Profile, error) {
	var profiles []*Profile
	query := `SELECT ` + profileColumns + ` FROM users WHERE id <> $1 ORDER BY id`

	if err := r.db.SelectContext(ctx, &profiles, query, excludeID); err != nil {
		return nil, err
	}

	return profiles, nil
}

func (r *postgresRepository) GetRelations(ctx context.Context, userID string) (*RelationSet, error) {
	rel := &RelationSet{
		Matched:       make(map[string]bool),
		LikesGiven:    make(map[string]bool),
		LikesReceived: make(map[string]bool),
		DislikesGiven: make(map[string]bool),
	}

	var matched []string
	query := `
        SELECT CASE WHEN user1_id = $1 THEN user2_id ELSE user1_id END
        FROM matches
        WHERE user1_id = $1 OR user2_id = $1
    `
	if err := r.db.SelectContext(ctx, &matched, query, userID); err != nil {
		return nil, err
	}
	for _, id := range matched {
		rel.Matched[id] = true
	}

	var given []string
	if err := r.db.SelectContext(ctx, &given,
		`SELECT target_id FROM likes WHERE liker_id = $1`, userID); err != nil {
		return nil, err
	}
	for _, id := range given {
		rel.LikesGiven[id] = true
	}

	var received []string
	if err := r.db.SelectContext(ctx, &received,
		`SELECT liker_id FROM likes WHERE target_id = $1`, userID); err != nil {
		return nil, err
	}
	for _, id := range received {
		rel.LikesReceived[id] = true
	}

	var disliked []string
	if err := r.db.SelectContext(ctx, &disliked,
		`SELECT target_id FROM dislikes WHERE actor_id = $1`, userID); err != nil {
		return nil, err
	}
	for _, id := range disliked {
		rel.DislikesGiven[id] = true
	}

	return rel, nil
}

// RecordLike appends the like edge and, when it completes a mutual pair,
// creates the match in the same transaction. The pair-scoped advisory lock
// serializes concurrent mutual likes, so exactly one of the two calls
// observes reciprocity and creates the match.
func (r *postgresRepository) RecordLike(ctx context.Context, likerID, targetID string) (*LikeResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := lockPairTx(ctx, tx, likerID, targetID); err != nil {
		return nil, err
	}

	// A recorded dislike is terminal for this direction.
	var disliked bool
	err = tx.GetContext(ctx, &disliked,
		`SELECT EXISTS(SELECT 1 FROM dislikes WHERE actor_id = $1 AND target_id = $2)`,
		likerID, targetID)
	if err != nil {
		return nil, err
	}
	if disliked {
		return nil, ErrDisliked
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO likes (liker_id, target_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		likerID, targetID)
	if err != nil {
		return nil, err
	}

	var reciprocal bool
	err = tx.GetContext(ctx, &reciprocal,
		`SELECT EXISTS(SELECT 1 FROM likes WHERE liker_id = $1 AND target_id = $2)`,
		targetID, likerID)
	if err != nil {
		return nil, err
	}

	if !reciprocal {
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		return &LikeResult{}, nil
	}

	match, created, err := r.createMatchTx(ctx, tx, likerID, targetID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &LikeResult{Matched: true, Created: created, Match: match}, nil
}

// createMatchTx inserts the match for the ordered pair, snapshotting display
// names and shared interests at this instant. Returns created=false when a
// concurrent or earlier call already materialized the match.
func (r *postgresRepository) createMatchTx(ctx context.Context, tx *sqlx.Tx, userA, userB string) (*Match, bool, error) {
	user1, user2 := orderPair(userA, userB)

	type snapshot struct {
		ID        string         `db:"id"`
		Name      string         `db:"name"`
		Surname   string         `db:"surname"`
		Interests pq.StringArray `db:"interests"`
	}
	var snaps []snapshot
	err := tx.SelectContext(ctx, &snaps,
		`SELECT id, name, surname, interests FROM users WHERE id IN ($1, $2) ORDER BY id`,
		user1, user2)
	if err != nil {
		return nil, false, err
	}
	if len(snaps) != 2 {
		return nil, false, ErrUserNotFound
	}

	displayName := func(s snapshot) string {
		if s.Surname == "" {
			return s.Name
		}
		return s.Name + " " + s.Surname
	}

	match := &Match{
		ID:              uuid.NewString(),
		User1ID:         user1,
		User2ID:         user2,
		User1Name:       displayName(snaps[0]),
		User2Name:       displayName(snaps[1]),
		SharedInterests: SharedInterests(snaps[0].Interests, snaps[1].Interests),
	}
	if match.SharedInterests == nil {
		match.SharedInterests = pq.StringArray{}
	}

	query := `
        INSERT INTO matches (id, user1_id, user2_id, user1_name, user2_name, shared_interests)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (user1_id, user2_id) DO NOTHING
        RETURNING created_at
    `
	err = tx.QueryRowxContext(ctx, query,
		match.ID, match.User1ID, match.User2ID,
		match.User1Name, match.User2Name, match.SharedInterests,
	).Scan(&match.CreatedAt)

	if err == sql.ErrNoRows {
		// Lost the race (or re-like after mutual): return the existing match.
		existing, getErr := r.getMatchByPairTx(ctx, tx, user1, user2)
		if getErr != nil {
			return nil, false, getErr
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return match, true, nil
}

func (r *postgresRepository) getMatchByPairTx(ctx context.Context, tx *sqlx.Tx, user1, user2 string) (*Match, error) {
	var m Match
	err := tx.GetContext(ctx, &m,
		`SELECT id, user1_id, user2_id, user1_name, user2_name, shared_interests, created_at
         FROM matches WHERE user1_id = $1 AND user2_id = $2`,
		user1, user2)
	if err == sql.ErrNoRows {
		return nil, ErrMatchNotFound
	}
	return &m, err
}

func (r *postgresRepository) RecordDislike(ctx context.Context, actorID, targetID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := lockPairTx(ctx, tx, actorID, targetID); err != nil {
		return err
	}

	user1, user2 := orderPair(actorID, targetID)

	var matched bool
	err = tx.GetContext(ctx, &matched,
		`SELECT EXISTS(SELECT 1 FROM matches WHERE user1_id = $1 AND user2_id = $2)`,
		user1, user2)
	if err != nil {
		return err
	}
	if matched {
		// A user never holds both a match and a dislike against the same
		// counterpart; unmatch first.
		return ErrAlreadyMatched
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO dislikes (actor_id, target_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		actorID, targetID)
	if err != nil {
		return err
	}

	// A dislike is terminal: drop the actor's own like edge so a later
	// reciprocal like from the target can no longer complete a match.
	_, err = tx.ExecContext(ctx,
		`DELETE FROM likes WHERE liker_id = $1 AND target_id = $2`,
		actorID, targetID)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *postgresRepository) GetMatch(ctx context.Context, matchID string) (*Match, error) {
	var m Match
	err := r.db.GetContext(ctx, &m,
		`SELECT id, user1_id, user2_id, user1_name, user2_name, shared_interests, created_at
         FROM matches WHERE id = $1`,
		matchID)
	if err == sql.ErrNoRows {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, err
	}

	return &m, nil
}

func (r *postgresRepository) ListMatchesForUser(ctx context.Context, userID string, skip, limit int) ([]*MatchItem, error) {
	query := `
        SELECT m.id, m.user1_id, m.user2_id, m.user1_name, m.user2_name,
               m.shared_interests, m.created_at,
               u.id, u.name, u.surname, u.email, u.age, u.country, u.gender,
               u.interests, u.photos, u.bio, u.international_mode,
               u.min_age_preference, u.max_age_preference, u.last_active_at,
               c.id, c.match_id, c.created_at
        FROM matches m
        JOIN users u ON u.id = CASE WHEN m.user1_id = $1 THEN m.user2_id ELSE m.user1_id END
        LEFT JOIN chats c ON c.match_id = m.id
        WHERE m.user1_id = $1 OR m.user2_id = $1
        ORDER BY m.created_at DESC
        OFFSET $2 LIMIT $3
    `

	rows, err := r.db.QueryxContext(ctx, query, userID, skip, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*MatchItem
	for rows.Next() {
		var (
			m         Match
			other     Profile
			chatID    sql.NullString
			chatMatch sql.NullString
			chatAt    sql.NullTime
		)

		err := rows.Scan(
			&m.ID, &m.User1ID, &m.User2ID, &m.User1Name, &m.User2Name,
			&m.SharedInterests, &m.CreatedAt,
			&other.ID, &other.Name, &other.Surname, &other.Email, &other.Age,
			&other.Country, &other.Gender, &other.Interests, &other.Photos,
			&other.Bio, &other.InternationalMode,
			&other.MinAgePreference, &other.MaxAgePreference, &other.LastActiveAt,
			&chatID, &chatMatch, &chatAt,
		)
		if err != nil {
			return nil, err
		}

		item := &MatchItem{Match: &m, OtherUser: &other}
		if chatID.Valid {
			item.Chat = &ChatInfo{ID: chatID.String, MatchID: chatMatch.String, CreatedAt: chatAt.Time}
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

// Unmatch removes the match, its chat (FK cascade) and both like edges as a
// single atomic unit, returning the pair to a clean slate.
func (r *postgresRepository) Unmatch(ctx context.Context, userA, userB string) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	if err := lockPairTx(ctx, tx, userA, userB); err != nil {
		return false, err
	}

	user1, user2 := orderPair(userA, userB)

	res, err := tx.ExecContext(ctx,
		`DELETE FROM matches WHERE user1_id = $1 AND user2_id = $2`,
		user1, user2)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM likes
         WHERE (liker_id = $1 AND target_id = $2) OR (liker_id = $2 AND target_id = $1)`,
		userA, userB)
	if err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}

	return true, nil
}

func (r *postgresRepository) GetChatForMatch(ctx context.Context, matchID string) (*ChatInfo, error) {
	var c ChatInfo
	err := r.db.GetContext(ctx, &c,
		`SELECT id, match_id, created_at FROM chats WHERE match_id = $1`, matchID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *postgresRepository) CountUserStats(ctx context.Context, userID string) (*UserStats, error) {
	var stats UserStats
	query := `
        SELECT
            (SELECT COUNT(*) FROM matches WHERE user1_id = u.id OR user2_id = u.id) AS matches_count,
            (SELECT COUNT(*) FROM likes WHERE liker_id = u.id)  AS likes_given,
            (SELECT COUNT(*) FROM likes WHERE target_id = u.id) AS likes_received,
            u.last_active_at
        FROM users u
        WHERE u.id = $1
    `

	row := r.db.QueryRowxContext(ctx, query, userID)
	err := row.Scan(&stats.MatchesCount, &stats.LikesGiven, &stats.LikesReceived, &stats.LastActive)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("count user stats: %w", err)
	}

	return &stats, nil
}

// orderPair normalizes an unordered user pair so (A,B) and (B,A) address the
// same match row.
func orderPair(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}

// lockPairTx serializes all like/dislike/unmatch transactions touching the
// same unordered pair. Under read committed, two simultaneous first likes in
// opposite directions would each miss the other's uncommitted row and neither
// would create the match; the advisory lock is released with the transaction.
func lockPairTx(ctx context.Context, tx *sqlx.Tx, a, b string) error {
	user1, user2 := orderPair(a, b)
	_, err := tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock(hashtext($1), hashtext($2))`,
		user1, user2)
	return err
}
