package matching_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/heartsync/heartsync-backend/internal/matching"
)

// memoryRepository is an in-memory matching.Repository with the same edge
// semantics as the postgres implementation: a dislike by the liker blocks a
// like and withdraws the actor's own like edge, a reciprocal like creates at
// most one match per unordered pair, and unmatch removes the match together
// with both like edges.
type memoryRepository struct {
	mu       sync.Mutex
	profiles map[string]*matching.Profile
	likes    map[string]map[string]bool // liker -> target
	dislikes map[string]map[string]bool // actor -> target
	matches  map[string]*matching.Match // by match id
	chats    map[string]*matching.ChatInfo
	nextID   int
}

func newMemoryRepository(profiles ...*matching.Profile) *memoryRepository {
	repo := &memoryRepository{
		profiles: make(map[string]*matching.Profile),
		likes:    make(map[string]map[string]bool),
		dislikes: make(map[string]map[string]bool),
		matches:  make(map[string]*matching.Match),
		chats:    make(map[string]*matching.ChatInfo),
	}
	for _, p := range profiles {
		repo.profiles[p.ID] = p
	}
	return repo
}

func (r *memoryRepository) GetProfile(_ context.Context, id string) (*matching.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.profiles[id]
	if !ok {
		return nil, matching.ErrUserNotFound
	}
	return p, nil
}

func (r *memoryRepository) ListProfiles(_ context.Context, excludeID string) ([]*matching.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*matching.Profile
	for id, p := range r.profiles {
		if id != excludeID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryRepository) GetRelations(_ context.Context, userID string) (*matching.RelationSet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rel := &matching.RelationSet{
		Matched:       make(map[string]bool),
		LikesGiven:    make(map[string]bool),
		LikesReceived: make(map[string]bool),
		DislikesGiven: make(map[string]bool),
	}
	for target := range r.likes[userID] {
		rel.LikesGiven[target] = true
	}
	for liker, targets := range r.likes {
		if targets[userID] {
			rel.LikesReceived[liker] = true
		}
	}
	for target := range r.dislikes[userID] {
		rel.DislikesGiven[target] = true
	}
	for _, m := range r.matches {
		if m.Involves(userID) {
			rel.Matched[m.OtherUserID(userID)] = true
		}
	}
	return rel, nil
}

func (r *memoryRepository) RecordLike(_ context.Context, likerID, targetID string) (*matching.LikeResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.dislikes[likerID][targetID] {
		return nil, matching.ErrDisliked
	}

	if r.likes[likerID] == nil {
		r.likes[likerID] = make(map[string]bool)
	}
	r.likes[likerID][targetID] = true

	if !r.likes[targetID][likerID] {
		return &matching.LikeResult{}, nil
	}

	if existing := r.matchForPairLocked(likerID, targetID); existing != nil {
		return &matching.LikeResult{Matched: true, Created: false, Match: existing}, nil
	}

	liker := r.profiles[likerID]
	target := r.profiles[targetID]
	u1, u2 := liker, target
	if u2.ID < u1.ID {
		u1, u2 = u2, u1
	}

	r.nextID++
	match := &matching.Match{
		ID:              fmt.Sprintf("match-%d", r.nextID),
		User1ID:         u1.ID,
		User2ID:         u2.ID,
		User1Name:       u1.DisplayName(),
		User2Name:       u2.DisplayName(),
		SharedInterests: pq.StringArray(matching.SharedInterests(u1.Interests, u2.Interests)),
		CreatedAt:       time.Now(),
	}
	r.matches[match.ID] = match

	return &matching.LikeResult{Matched: true, Created: true, Match: match}, nil
}

func (r *memoryRepository) RecordDislike(_ context.Context, actorID, targetID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.matchForPairLocked(actorID, targetID) != nil {
		return matching.ErrAlreadyMatched
	}
	if r.dislikes[actorID] == nil {
		r.dislikes[actorID] = make(map[string]bool)
	}
	r.dislikes[actorID][targetID] = true
	if r.likes[actorID] != nil {
		delete(r.likes[actorID], targetID)
	}
	return nil
}

func (r *memoryRepository) GetMatch(_ context.Context, matchID string) (*matching.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.matches[matchID]
	if !ok {
		return nil, matching.ErrMatchNotFound
	}
	return m, nil
}

func (r *memoryRepository) ListMatchesForUser(_ context.Context, userID string, skip, limit int) ([]*matching.MatchItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var items []*matching.MatchItem
	for _, m := range r.matches {
		if !m.Involves(userID) {
			continue
		}
		items = append(items, &matching.MatchItem{
			Match:     m,
			OtherUser: r.profiles[m.OtherUserID(userID)],
			Chat:      r.chats[m.ID],
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Match.ID < items[j].Match.ID })

	if skip >= len(items) {
		return []*matching.MatchItem{}, nil
	}
	end := len(items)
	if limit > 0 && skip+limit < end {
		end = skip + limit
	}
	return items[skip:end], nil
}

func (r *memoryRepository) Unmatch(_ context.Context, userA, userB string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	match := r.matchForPairLocked(userA, userB)
	if match == nil {
		return false, nil
	}
	delete(r.matches, match.ID)
	delete(r.chats, match.ID)
	delete(r.likes[userA], userB)
	delete(r.likes[userB], userA)
	return true, nil
}

func (r *memoryRepository) GetChatForMatch(_ context.Context, matchID string) (*matching.ChatInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.chats[matchID], nil
}

func (r *memoryRepository) CountUserStats(_ context.Context, userID string) (*matching.UserStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.profiles[userID]; !ok {
		return nil, matching.ErrUserNotFound
	}

	stats := &matching.UserStats{LastActive: r.profiles[userID].LastActiveAt}
	stats.LikesGiven = len(r.likes[userID])
	for _, targets := range r.likes {
		if targets[userID] {
			stats.LikesReceived++
		}
	}
	for _, m := range r.matches {
		if m.Involves(userID) {
			stats.MatchesCount++
		}
	}
	return stats, nil
}

func (r *memoryRepository) matchForPairLocked(a, b string) *matching.Match {
	for _, m := range r.matches {
		if m.Involves(a) && m.Involves(b) {
			return m
		}
	}
	return nil
}

// fakeBootstrapper records chat creations and can be told to fail.
type fakeBootstrapper struct {
	mu    sync.Mutex
	repo  *memoryRepository
	fail  error
	calls int
}

func (b *fakeBootstrapper) CreateForMatch(_ context.Context, matchID string, _ [2]string) (*matching.ChatInfo, error) {
	b.mu.Lock()
	b.calls++
	fail := b.fail
	b.mu.Unlock()
	if fail != nil {
		return nil, fail
	}
	chat := &matching.ChatInfo{ID: "chat-" + matchID, MatchID: matchID, CreatedAt: time.Now()}
	b.repo.mu.Lock()
	b.repo.chats[matchID] = chat
	b.repo.mu.Unlock()
	return chat, nil
}

type publishedEvent struct {
	Room    string
	Event   string
	Payload interface{}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *fakePublisher) Publish(roomID, event string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Room: roomID, Event: event, Payload: payload})
}

func (p *fakePublisher) eventsNamed(event string) []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []publishedEvent
	for _, e := range p.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

type fakeNotifier struct {
	matches []*matching.Match
}

func (n *fakeNotifier) MatchCreated(_ context.Context, match *matching.Match) {
	n.matches = append(n.matches, match)
}

type fakeStatsCache struct {
	mu            sync.Mutex
	entries       map[string]*matching.UserStats
	invalidations []string
}

func newFakeStatsCache() *fakeStatsCache {
	return &fakeStatsCache{entries: make(map[string]*matching.UserStats)}
}

func (c *fakeStatsCache) Get(_ context.Context, userID string) (*matching.UserStats, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.entries[userID]
	return s, ok
}

func (c *fakeStatsCache) Set(_ context.Context, userID string, stats *matching.UserStats) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[userID] = stats
}

func (c *fakeStatsCache) Invalidate(_ context.Context, userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
	c.invalidations = append(c.invalidations, userID)
}
