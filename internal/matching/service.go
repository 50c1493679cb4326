package matching

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/heartsync/heartsync-backend/internal/config"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrMatchNotFound  = errors.New("match not found")
	ErrSelfAction     = errors.New("cannot target yourself")
	ErrNotPairable    = errors.New("users are not compatible")
	ErrDisliked       = errors.New("target was previously disliked")
	ErrAlreadyMatched = errors.New("users are already matched")
	ErrNotMatched     = errors.New("users are not matched")
	ErrNotParticipant = errors.New("user is not a participant of this match")
)

// ChatBootstrapError reports a match that was committed but whose chat could
// not be created. The match survives; the chat can be repaired afterwards.
type ChatBootstrapError struct {
	Match *Match
	Err   error
}

func (e *ChatBootstrapError) Error() string {
	return fmt.Sprintf("match %s created but chat bootstrap failed: %v", e.Match.ID, e.Err)
}

func (e *ChatBootstrapError) Unwrap() error { return e.Err }

// ChatBootstrapper creates the conversation attached to a fresh match.
// Implemented by the chat service.
type ChatBootstrapper interface {
	CreateForMatch(ctx context.Context, matchID string, participants [2]string) (*ChatInfo, error)
}

// Publisher pushes events to connected clients. Implemented by the realtime
// hub; delivery is best-effort.
type Publisher interface {
	Publish(roomID, event string, payload interface{})
}

// MatchNotifier sends out-of-band notifications (email, SMS) for new matches.
type MatchNotifier interface {
	MatchCreated(ctx context.Context, match *Match)
}

type Service interface {
	Suggestions(ctx context.Context, viewerID string, skip, limit int) ([]*RankedCandidate, error)
	Like(ctx context.Context, likerID, targetID string) (*LikeResult, error)
	Dislike(ctx context.Context, actorID, targetID string) error
	Unmatch(ctx context.Context, actorID, targetID string) error
	GetMatch(ctx context.Context, matchID, viewerID string) (*MatchDetail, error)
	ListMatches(ctx context.Context, userID string, skip, limit int) ([]*MatchItem, error)
	EnsureChat(ctx context.Context, matchID, viewerID string) (*ChatInfo, error)
	Stats(ctx context.Context, userID string) (*UserStats, error)
}

type service struct {
	repo      Repository
	filter    *Filter
	ranker    *Ranker
	cfg       config.MatchingConfig
	chats     ChatBootstrapper
	publisher Publisher
	notifier  MatchNotifier
	stats     StatsCache
}

func NewService(
	repo Repository,
	cfg config.MatchingConfig,
	chats ChatBootstrapper,
	publisher Publisher,
	notifier MatchNotifier,
	stats StatsCache,
) Service {
	filter := NewFilter(cfg)
	return &service{
		repo:      repo,
		filter:    filter,
		ranker:    NewRanker(repo, filter),
		cfg:       cfg,
		chats:     chats,
		publisher: publisher,
		notifier:  notifier,
		stats:     stats,
	}
}

func (s *service) Suggestions(ctx context.Context, viewerID string, skip, limit int) ([]*RankedCandidate, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 || limit > s.cfg.SuggestionMaxLimit {
		limit = s.cfg.SuggestionMaxLimit
	}

	start := time.Now()
	ranked, err := s.ranker.Rank(ctx, viewerID, skip, limit)
	if err != nil {
		return nil, err
	}
	rankingDuration.Observe(time.Since(start).Seconds())

	return ranked, nil
}

func (s *service) Like(ctx context.Context, likerID, targetID string) (*LikeResult, error) {
	if likerID == targetID {
		return nil, ErrSelfAction
	}

	liker, err := s.repo.GetProfile(ctx, likerID)
	if err != nil {
		return nil, err
	}
	target, err := s.repo.GetProfile(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if !s.filter.Pairable(liker, target) {
		return nil, ErrNotPairable
	}

	result, err := s.repo.RecordLike(ctx, likerID, targetID)
	if err != nil {
		return nil, err
	}
	likesRecorded.Inc()
	s.invalidateStats(ctx, likerID, targetID)

	if !result.Matched {
		return result, nil
	}

	if result.Created {
		matchesCreated.Inc()
		s.announceMatch(ctx, result.Match)

		if _, err := s.bootstrapChat(ctx, result.Match); err != nil {
			chatBootstrapFailures.Inc()
			log.Printf("⚠️ chat bootstrap failed for match %s: %v", result.Match.ID, err)
			return result, &ChatBootstrapError{Match: result.Match, Err: err}
		}
	}

	return result, nil
}

func (s *service) Dislike(ctx context.Context, actorID, targetID string) error {
	if actorID == targetID {
		return ErrSelfAction
	}

	if _, err := s.repo.GetProfile(ctx, actorID); err != nil {
		return err
	}
	if _, err := s.repo.GetProfile(ctx, targetID); err != nil {
		return err
	}

	if err := s.repo.RecordDislike(ctx, actorID, targetID); err != nil {
		return err
	}
	dislikesRecorded.Inc()

	return nil
}

func (s *service) Unmatch(ctx context.Context, actorID, targetID string) error {
	if actorID == targetID {
		return ErrSelfAction
	}

	removed, err := s.repo.Unmatch(ctx, actorID, targetID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotMatched
	}
	unmatchesRecorded.Inc()

	s.invalidateStats(ctx, actorID, targetID)
	if s.publisher != nil {
		payload := map[string]string{"userId": actorID, "otherUserId": targetID}
		s.publisher.Publish("user:"+actorID, "unmatch", payload)
		s.publisher.Publish("user:"+targetID, "unmatch", payload)
	}

	return nil
}

func (s *service) GetMatch(ctx context.Context, matchID, viewerID string) (*MatchDetail, error) {
	match, err := s.repo.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !match.Involves(viewerID) {
		return nil, ErrNotParticipant
	}

	user1, err := s.repo.GetProfile(ctx, match.User1ID)
	if err != nil {
		return nil, err
	}
	user2, err := s.repo.GetProfile(ctx, match.User2ID)
	if err != nil {
		return nil, err
	}

	chat, err := s.repo.GetChatForMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	return &MatchDetail{Match: match, Users: []*Profile{user1, user2}, Chat: chat}, nil
}

func (s *service) ListMatches(ctx context.Context, userID string, skip, limit int) ([]*MatchItem, error) {
	if _, err := s.repo.GetProfile(ctx, userID); err != nil {
		return nil, err
	}
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 || limit > s.cfg.ListMaxLimit {
		limit = s.cfg.ListMaxLimit
	}

	return s.repo.ListMatchesForUser(ctx, userID, skip, limit)
}

// EnsureChat is the repair path for matches whose chat bootstrap failed: it
// creates the missing chat, or returns the existing one.
func (s *service) EnsureChat(ctx context.Context, matchID, viewerID string) (*ChatInfo, error) {
	match, err := s.repo.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !match.Involves(viewerID) {
		return nil, ErrNotParticipant
	}

	chat, err := s.repo.GetChatForMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if chat != nil {
		return chat, nil
	}

	return s.bootstrapChat(ctx, match)
}

func (s *service) Stats(ctx context.Context, userID string) (*UserStats, error) {
	if s.stats != nil {
		if cached, ok := s.stats.Get(ctx, userID); ok {
			return cached, nil
		}
	}

	stats, err := s.repo.CountUserStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.stats != nil {
		s.stats.Set(ctx, userID, stats)
	}

	return stats, nil
}

func (s *service) bootstrapChat(ctx context.Context, match *Match) (*ChatInfo, error) {
	if s.chats == nil {
		return nil, errors.New("chat service unavailable")
	}
	return s.chats.CreateForMatch(ctx, match.ID, [2]string{match.User1ID, match.User2ID})
}

func (s *service) announceMatch(ctx context.Context, match *Match) {
	if s.publisher != nil {
		s.publisher.Publish("user:"+match.User1ID, "new_match", match)
		s.publisher.Publish("user:"+match.User2ID, "new_match", match)
	}
	if s.notifier != nil {
		s.notifier.MatchCreated(ctx, match)
	}
}

func (s *service) invalidateStats(ctx context.Context, userIDs ...string) {
	if s.stats == nil {
		return
	}
	for _, id := range userIDs {
		s.stats.Invalidate(ctx, id)
	}
}
