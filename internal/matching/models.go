package matching

import (
	"time"

	"github.com/lib/pq"
)

// Profile is the read-only view of a user the matching engine works with.
// Interests are stored normalized (lowercase, deduplicated); see interests.go.
type Profile struct {
	ID                string         `json:"id" db:"id"`
	Name              string         `json:"name" db:"name"`
	Surname           string         `json:"surname" db:"surname"`
	Email             string         `json:"-" db:"email"`
	Age               int            `json:"age" db:"age"`
	Country           string         `json:"country" db:"country"`
	Gender            string         `json:"gender" db:"gender"`
	Interests         pq.StringArray `json:"interests" db:"interests"`
	Photos            pq.StringArray `json:"photos" db:"photos"`
	Bio               string         `json:"bio" db:"bio"`
	InternationalMode bool           `json:"internationalMode" db:"international_mode"`
	MinAgePreference  int            `json:"minAgePreference" db:"min_age_preference"`
	MaxAgePreference  int            `json:"maxAgePreference" db:"max_age_preference"`
	LastActiveAt      time.Time      `json:"lastActiveAt" db:"last_active_at"`
}

// DisplayName is the name shown to the other side of a match.
func (p *Profile) DisplayName() string {
	if p.Surname == "" {
		return p.Name
	}
	return p.Name + " " + p.Surname
}

// RelationSet holds the like/dislike/match edges of one user, loaded fresh
// per operation (the store is the source of truth, nothing is cached
// in-process across requests).
type RelationSet struct {
	Matched       map[string]bool
	LikesGiven    map[string]bool
	LikesReceived map[string]bool
	DislikesGiven map[string]bool
}

// Match is immutable after creation except for deletion via unmatch.
// Display names and the shared-interest snapshot are denormalized at
// creation time so the match survives later profile edits.
type Match struct {
	ID              string         `json:"id" db:"id"`
	User1ID         string         `json:"user1Id" db:"user1_id"`
	User2ID         string         `json:"user2Id" db:"user2_id"`
	User1Name       string         `json:"user1Name" db:"user1_name"`
	User2Name       string         `json:"user2Name" db:"user2_name"`
	SharedInterests pq.StringArray `json:"sharedInterests" db:"shared_interests"`
	CreatedAt       time.Time      `json:"createdAt" db:"created_at"`
}

// OtherUserID returns the counterpart of userID in the match.
func (m *Match) OtherUserID(userID string) string {
	if m.User1ID == userID {
		return m.User2ID
	}
	return m.User1ID
}

// Involves reports whether userID is one of the two matched users.
func (m *Match) Involves(userID string) bool {
	return m.User1ID == userID || m.User2ID == userID
}

// ChatInfo is the minimal view of a chat the matching module needs when
// joining matches to their chats. The chat module owns the full entity.
type ChatInfo struct {
	ID        string    `json:"id" db:"id"`
	MatchID   string    `json:"matchId" db:"match_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// MatchDetail is the response shape of GET /matches/{matchId}.
type MatchDetail struct {
	Match *Match     `json:"match"`
	Users []*Profile `json:"users"`
	Chat  *ChatInfo  `json:"chat"`
}

// MatchItem is one element of a user's match list.
type MatchItem struct {
	Match     *Match    `json:"match"`
	OtherUser *Profile  `json:"otherUser"`
	Chat      *ChatInfo `json:"chat"`
}

// LikeResult is what the storage layer reports after the like transaction.
type LikeResult struct {
	Matched bool   // a mutual pair exists after this like
	Created bool   // this call created the match row
	Match   *Match // set when Matched
}

// UserStats is the aggregate view served by GET /users/{id}/stats.
type UserStats struct {
	MatchesCount  int       `json:"matchesCount"`
	LikesGiven    int       `json:"likesGiven"`
	LikesReceived int       `json:"likesReceived"`
	LastActive    time.Time `json:"lastActive"`
}
