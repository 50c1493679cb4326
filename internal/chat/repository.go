package chat

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type Repository interface {
	CreateForMatch(ctx context.Context, chat *Chat) (*Chat, error)
	GetChat(ctx context.Context, chatID string) (*Chat, error)
	ListChatsForUser(ctx context.Context, userID string, skip, limit int) ([]*ChatSummary, error)

	InsertMessage(ctx context.Context, msg *Message) error
	GetMessage(ctx context.Context, messageID string) (*Message, error)
	ListMessages(ctx context.Context, chatID string, skip, limit int) ([]*Message, error)
	MarkRead(ctx context.Context, chatID, readerID string) (int64, error)

	UpsertReaction(ctx context.Context, reaction *Reaction) error
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

// CreateForMatch inserts the chat for a match. The unique constraint on
// match_id makes this idempotent: losing the race returns the existing chat.
func (r *postgresRepository) CreateForMatch(ctx context.Context, chat *Chat) (*Chat, error) {
	query := `
        INSERT INTO chats (id, match_id, user1_id, user2_id)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (match_id) DO NOTHING
        RETURNING created_at
    `
	err := r.db.QueryRowxContext(ctx, query,
		chat.ID, chat.MatchID, chat.User1ID, chat.User2ID,
	).Scan(&chat.CreatedAt)

	if err == sql.ErrNoRows {
		var existing Chat
		err := r.db.GetContext(ctx, &existing,
			`SELECT id, match_id, user1_id, user2_id, created_at FROM chats WHERE match_id = $1`,
			chat.MatchID)
		if err != nil {
			return nil, err
		}
		return &existing, nil
	}
	if err != nil {
		return nil, err
	}

	return chat, nil
}

func (r *postgresRepository) GetChat(ctx context.Context, chatID string) (*Chat, error) {
	var c Chat
	err := r.db.GetContext(ctx, &c,
		`SELECT id, match_id, user1_id, user2_id, created_at FROM chats WHERE id = $1`,
		chatID)
	if err == sql.ErrNoRows {
		return nil, ErrChatNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *postgresRepository) ListChatsForUser(ctx context.Context, userID string, skip, limit int) ([]*ChatSummary, error) {
	query := `
        SELECT c.id, c.match_id, c.user1_id, c.user2_id, c.created_at,
               (SELECT COUNT(*) FROM messages m
                WHERE m.chat_id = c.id AND m.sender_id <> $1 AND m.read = FALSE) AS unread
        FROM chats c
        WHERE c.user1_id = $1 OR c.user2_id = $1
        ORDER BY c.created_at DESC
        OFFSET $2 LIMIT $3
    `

	rows, err := r.db.QueryxContext(ctx, query, userID, skip, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []*ChatSummary
	for rows.Next() {
		var (
			c      Chat
			unread int
		)
		if err := rows.Scan(&c.ID, &c.MatchID, &c.User1ID, &c.User2ID, &c.CreatedAt, &unread); err != nil {
			return nil, err
		}
		summaries = append(summaries, &ChatSummary{Chat: &c, UnreadCount: unread})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, s := range summaries {
		last, err := r.lastMessage(ctx, s.Chat.ID)
		if err != nil {
			return nil, err
		}
		s.LastMessage = last
	}

	return summaries, nil
}

func (r *postgresRepository) lastMessage(ctx context.Context, chatID string) (*Message, error) {
	var m Message
	err := r.db.GetContext(ctx, &m,
		`SELECT id, chat_id, sender_id, content, image_url, read, created_at
         FROM messages WHERE chat_id = $1
         ORDER BY created_at DESC LIMIT 1`,
		chatID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *postgresRepository) InsertMessage(ctx context.Context, msg *Message) error {
	query := `
        INSERT INTO messages (id, chat_id, sender_id, content, image_url)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING created_at
    `
	return r.db.QueryRowxContext(ctx, query,
		msg.ID, msg.ChatID, msg.SenderID, msg.Content, msg.ImageURL,
	).Scan(&msg.CreatedAt)
}

func (r *postgresRepository) GetMessage(ctx context.Context, messageID string) (*Message, error) {
	var m Message
	err := r.db.GetContext(ctx, &m,
		`SELECT id, chat_id, sender_id, content, image_url, read, created_at
         FROM messages WHERE id = $1`,
		messageID)
	if err == sql.ErrNoRows {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *postgresRepository) ListMessages(ctx context.Context, chatID string, skip, limit int) ([]*Message, error) {
	var messages []*Message
	query := `
        SELECT id, chat_id, sender_id, content, image_url, read, created_at
        FROM messages
        WHERE chat_id = $1
        ORDER BY created_at ASC
        OFFSET $2 LIMIT $3
    `
	if err := r.db.SelectContext(ctx, &messages, query, chatID, skip, limit); err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return messages, nil
	}

	ids := make([]string, len(messages))
	byID := make(map[string]*Message, len(messages))
	for i, m := range messages {
		ids[i] = m.ID
		byID[m.ID] = m
	}

	var reactions []*Reaction
	err := r.db.SelectContext(ctx, &reactions,
		`SELECT message_id, user_id, emoji, created_at
         FROM reactions WHERE message_id = ANY($1)
         ORDER BY created_at ASC`,
		pq.Array(ids))
	if err != nil {
		return nil, err
	}
	for _, re := range reactions {
		if m, ok := byID[re.MessageID]; ok {
			m.Reactions = append(m.Reactions, re)
		}
	}

	return messages, nil
}

func (r *postgresRepository) MarkRead(ctx context.Context, chatID, readerID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE messages SET read = TRUE
         WHERE chat_id = $1 AND sender_id <> $2 AND read = FALSE`,
		chatID, readerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UpsertReaction stores the user's reaction, replacing any previous emoji
// from the same user on the same message.
func (r *postgresRepository) UpsertReaction(ctx context.Context, reaction *Reaction) error {
	query := `
        INSERT INTO reactions (message_id, user_id, emoji)
        VALUES ($1, $2, $3)
        ON CONFLICT (message_id, user_id)
        DO UPDATE SET emoji = EXCLUDED.emoji, created_at = NOW()
        RETURNING created_at
    `
	return r.db.QueryRowxContext(ctx, query,
		reaction.MessageID, reaction.UserID, reaction.Emoji,
	).Scan(&reaction.CreatedAt)
}
