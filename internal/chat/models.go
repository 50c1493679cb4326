package chat

import (
	"time"
)

// Chat is the single conversation attached to a match. Participants are
// denormalized from the match so access checks never need a join.
type Chat struct {
	ID        string    `json:"id" db:"id"`
	MatchID   string    `json:"matchId" db:"match_id"`
	User1ID   string    `json:"user1Id" db:"user1_id"`
	User2ID   string    `json:"user2Id" db:"user2_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

func (c *Chat) HasParticipant(userID string) bool {
	return c.User1ID == userID || c.User2ID == userID
}

// OtherParticipant returns the counterpart of userID in the chat.
func (c *Chat) OtherParticipant(userID string) string {
	if c.User1ID == userID {
		return c.User2ID
	}
	return c.User1ID
}

type Message struct {
	ID        string      `json:"id" db:"id"`
	ChatID    string      `json:"chatId" db:"chat_id"`
	SenderID  string      `json:"senderId" db:"sender_id"`
	Content   string      `json:"content" db:"content"`
	ImageURL  *string     `json:"imageUrl,omitempty" db:"image_url"`
	Read      bool        `json:"read" db:"read"`
	CreatedAt time.Time   `json:"createdAt" db:"created_at"`
	Reactions []*Reaction `json:"reactions,omitempty" db:"-"`
}

// Reaction is one user's emoji on a message. A user holds at most one
// reaction per message; a new emoji replaces the previous one.
type Reaction struct {
	MessageID string    `json:"messageId" db:"message_id"`
	UserID    string    `json:"userId" db:"user_id"`
	Emoji     string    `json:"emoji" db:"emoji"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// ChatSummary is one element of a user's chat list.
type ChatSummary struct {
	Chat        *Chat    `json:"chat"`
	LastMessage *Message `json:"lastMessage,omitempty"`
	UnreadCount int      `json:"unreadCount"`
}

// ChatDetail is the response shape of GET /chats/{chatId}.
type ChatDetail struct {
	Chat     *Chat      `json:"chat"`
	Messages []*Message `json:"messages"`
}
