package matching_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartsync/heartsync-backend/internal/matching"
)

type serviceHarness struct {
	repo      *memoryRepository
	chats     *fakeBootstrapper
	publisher *fakePublisher
	notifier  *fakeNotifier
	stats     *fakeStatsCache
	svc       matching.Service
}

func newServiceHarness(t *testing.T, profiles ...*matching.Profile) *serviceHarness {
	t.Helper()

	repo := newMemoryRepository(profiles...)
	h := &serviceHarness{
		repo:      repo,
		chats:     &fakeBootstrapper{repo: repo},
		publisher: &fakePublisher{},
		notifier:  &fakeNotifier{},
		stats:     newFakeStatsCache(),
	}
	h.svc = matching.NewService(repo, testMatchingConfig(), h.chats, h.publisher, h.notifier, h.stats)
	return h
}

func TestServiceLike(t *testing.T) {
	ctx := context.Background()

	t.Run("one-directional like creates no match", func(t *testing.T) {
		h := newServiceHarness(t,
			seedProfile("alice", "female", 28, "US"),
			seedProfile("bob", "male", 30, "US"),
		)

		result, err := h.svc.Like(ctx, "alice", "bob")
		require.NoError(t, err)
		assert.False(t, result.Matched)
		assert.False(t, result.Created)
		assert.Nil(t, result.Match)
		assert.Zero(t, h.chats.calls)
		assert.Empty(t, h.publisher.events)
	})

	t.Run("mutual like creates match, chat and announcements", func(t *testing.T) {
		h := newServiceHarness(t,
			seedProfile("alice", "female", 28, "US", "hiking", "music"),
			seedProfile("bob", "male", 30, "US", "music"),
		)

		_, err := h.svc.Like(ctx, "alice", "bob")
		require.NoError(t, err)

		result, err := h.svc.Like(ctx, "bob", "alice")
		require.NoError(t, err)
		require.True(t, result.Matched)
		require.True(t, result.Created)
		require.NotNil(t, result.Match)
		assert.Equal(t, []string{"music"}, []string(result.Match.SharedInterests))

		assert.Equal(t, 1, h.chats.calls)
		chat, err := h.repo.GetChatForMatch(ctx, result.Match.ID)
		require.NoError(t, err)
		assert.NotNil(t, chat)

		events := h.publisher.eventsNamed("new_match")
		require.Len(t, events, 2)
		rooms := []string{events[0].Room, events[1].Room}
		assert.ElementsMatch(t, []string{"user:alice", "user:bob"}, rooms)

		require.Len(t, h.notifier.matches, 1)
		assert.Equal(t, result.Match.ID, h.notifier.matches[0].ID)
	})

	t.Run("re-like after match returns the existing match without a second chat", func(t *testing.T) {
		h := newServiceHarness(t,
			seedProfile("alice", "female", 28, "US"),
			seedProfile("bob", "male", 30, "US"),
		)

		_, err := h.svc.Like(ctx, "alice", "bob")
		require.NoError(t, err)
		first, err := h.svc.Like(ctx, "bob", "alice")
		require.NoError(t, err)
		require.True(t, first.Created)

		again, err := h.svc.Like(ctx, "bob", "alice")
		require.NoError(t, err)
		assert.True(t, again.Matched)
		assert.False(t, again.Created)
		assert.Equal(t, first.Match.ID, again.Match.ID)
		assert.Equal(t, 1, h.chats.calls, "no second bootstrap")
		assert.Len(t, h.publisher.eventsNamed("new_match"), 2, "no re-announcement")
	})

	t.Run("self like is rejected", func(t *testing.T) {
		h := newServiceHarness(t, seedProfile("alice", "female", 28, "US"))

		_, err := h.svc.Like(ctx, "alice", "alice")
		assert.ErrorIs(t, err, matching.ErrSelfAction)
	})

	t.Run("unknown users are rejected", func(t *testing.T) {
		h := newServiceHarness(t, seedProfile("alice", "female", 28, "US"))

		_, err := h.svc.Like(ctx, "alice", "ghost")
		assert.ErrorIs(t, err, matching.ErrUserNotFound)

		_, err = h.svc.Like(ctx, "ghost", "alice")
		assert.ErrorIs(t, err, matching.ErrUserNotFound)
	})

	t.Run("incompatible pair is rejected", func(t *testing.T) {
		h := newServiceHarness(t,
			seedProfile("alice", "female", 28, "US"),
			seedProfile("carol", "female", 27, "US"),
		)

		_, err := h.svc.Like(ctx, "alice", "carol")
		assert.ErrorIs(t, err, matching.ErrNotPairable)
	})

	t.Run("liking a disliked target is rejected", func(t *testing.T) {
		h := newServiceHarness(t,
			seedProfile("alice", "female", 28, "US"),
			seedProfile("bob", "male", 30, "US"),
		)

		require.NoError(t, h.svc.Dislike(ctx, "alice", "bob"))
		_, err := h.svc.Like(ctx, "alice", "bob")
		assert.ErrorIs(t, err, matching.ErrDisliked)
	})
}

func TestServiceLikeChatBootstrapFailure(t *testing.T) {
	ctx := context.Background()

	h := newServiceHarness(t,
		seedProfile("alice", "female", 28, "US"),
		seedProfile("bob", "male", 30, "US"),
	)
	h.chats.fail = errors.New("chat store down")

	_, err := h.svc.Like(ctx, "alice", "bob")
	require.NoError(t, err)

	result, err := h.svc.Like(ctx, "bob", "alice")
	require.Error(t, err)

	var bootErr *matching.ChatBootstrapError
	require.ErrorAs(t, err, &bootErr)
	assert.Equal(t, result.Match.ID, bootErr.Match.ID)

	// The match itself was committed and announced.
	require.NotNil(t, result)
	assert.True(t, result.Created)
	assert.Len(t, h.publisher.eventsNamed("new_match"), 2)

	// Repair path: EnsureChat creates the missing chat once the store recovers.
	h.chats.fail = nil
	chat, err := h.svc.EnsureChat(ctx, result.Match.ID, "alice")
	require.NoError(t, err)
	require.NotNil(t, chat)
	assert.Equal(t, result.Match.ID, chat.MatchID)

	// Idempotent: a second repair returns the same chat without another call.
	calls := h.chats.calls
	again, err := h.svc.EnsureChat(ctx, result.Match.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, chat.ID, again.ID)
	assert.Equal(t, calls, h.chats.calls)
}

func TestServiceEnsureChatAuthorization(t *testing.T) {
	ctx := context.Background()

	h := newServiceHarness(t,
		seedProfile("alice", "female", 28, "US"),
		seedProfile("bob", "male", 30, "US"),
		seedProfile("eve", "female", 26, "US"),
	)

	_, err := h.svc.Like(ctx, "alice", "bob")
	require.NoError(t, err)
	result, err := h.svc.Like(ctx, "bob", "alice")
	require.NoError(t, err)

	_, err = h.svc.EnsureChat(ctx, result.Match.ID, "eve")
	assert.ErrorIs(t, err, matching.ErrNotParticipant)

	_, err = h.svc.EnsureChat(ctx, "no-such-match", "alice")
	assert.ErrorIs(t, err, matching.ErrMatchNotFound)
}

func TestServiceDislike(t *testing.T) {
	ctx := context.Background()

	t.Run("dislike while matched is rejected", func(t *testing.T) {
		h := newServiceHarness(t,
			seedProfile("alice", "female", 28, "US"),
			seedProfile("bob", "male", 30, "US"),
		)

		_, err := h.svc.Like(ctx, "alice", "bob")
		require.NoError(t, err)
		_, err = h.svc.Like(ctx, "bob", "alice")
		require.NoError(t, err)

		err = h.svc.Dislike(ctx, "alice", "bob")
		assert.ErrorIs(t, err, matching.ErrAlreadyMatched)
	})

	t.Run("self dislike is rejected", func(t *testing.T) {
		h := newServiceHarness(t, seedProfile("alice", "female", 28, "US"))
		assert.ErrorIs(t, h.svc.Dislike(ctx, "alice", "alice"), matching.ErrSelfAction)
	})

	t.Run("dislike withdraws the actor's earlier like", func(t *testing.T) {
		h := newServiceHarness(t,
			seedProfile("alice", "female", 28, "US"),
			seedProfile("bob", "male", 30, "US"),
		)

		_, err := h.svc.Like(ctx, "alice", "bob")
		require.NoError(t, err)
		require.NoError(t, h.svc.Dislike(ctx, "alice", "bob"))

		// Bob's reciprocal like must not resurrect alice's withdrawn like
		// into a match.
		result, err := h.svc.Like(ctx, "bob", "alice")
		require.NoError(t, err)
		assert.False(t, result.Matched)
		assert.False(t, result.Created)
		assert.Nil(t, result.Match)
		assert.Zero(t, h.chats.calls)
		assert.Empty(t, h.publisher.eventsNamed("new_match"))
	})
}

// Like/dislike/unmatch transactions on the same pair are serialized (the
// repository takes a pair-scoped advisory lock), so simultaneous first likes
// in opposite directions produce exactly one match and one chat.
func TestServiceSimultaneousMutualLikes(t *testing.T) {
	ctx := context.Background()

	h := newServiceHarness(t,
		seedProfile("alice", "female", 28, "US"),
		seedProfile("bob", "male", 30, "US"),
	)

	results := make([]*matching.LikeResult, 2)
	errs := make([]error, 2)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		results[0], errs[0] = h.svc.Like(ctx, "alice", "bob")
	}()
	go func() {
		defer wg.Done()
		results[1], errs[1] = h.svc.Like(ctx, "bob", "alice")
	}()
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	created := 0
	for _, r := range results {
		if r.Created {
			created++
			require.NotNil(t, r.Match)
		}
	}
	assert.Equal(t, 1, created, "exactly one of the two likes creates the match")
	assert.Equal(t, 1, h.chats.calls)
}

func TestServiceUnmatch(t *testing.T) {
	ctx := context.Background()

	h := newServiceHarness(t,
		seedProfile("alice", "female", 28, "US"),
		seedProfile("bob", "male", 30, "US"),
	)

	_, err := h.svc.Like(ctx, "alice", "bob")
	require.NoError(t, err)
	result, err := h.svc.Like(ctx, "bob", "alice")
	require.NoError(t, err)

	require.NoError(t, h.svc.Unmatch(ctx, "alice", "bob"))

	_, err = h.repo.GetMatch(ctx, result.Match.ID)
	assert.ErrorIs(t, err, matching.ErrMatchNotFound)

	events := h.publisher.eventsNamed("unmatch")
	require.Len(t, events, 2)

	// Both like edges are gone: a fresh pair of likes matches again.
	_, err = h.svc.Like(ctx, "alice", "bob")
	require.NoError(t, err)
	fresh, err := h.svc.Like(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.True(t, fresh.Created, "unmatch cleared the old like edges")

	assert.ErrorIs(t, h.svc.Unmatch(ctx, "alice", "eve"), matching.ErrNotMatched)
}

func TestServiceGetMatch(t *testing.T) {
	ctx := context.Background()

	h := newServiceHarness(t,
		seedProfile("alice", "female", 28, "US"),
		seedProfile("bob", "male", 30, "US"),
		seedProfile("eve", "female", 26, "US"),
	)

	_, err := h.svc.Like(ctx, "alice", "bob")
	require.NoError(t, err)
	result, err := h.svc.Like(ctx, "bob", "alice")
	require.NoError(t, err)

	detail, err := h.svc.GetMatch(ctx, result.Match.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, result.Match.ID, detail.Match.ID)
	require.Len(t, detail.Users, 2)
	require.NotNil(t, detail.Chat)

	_, err = h.svc.GetMatch(ctx, result.Match.ID, "eve")
	assert.ErrorIs(t, err, matching.ErrNotParticipant)
}

func TestServiceSuggestionsClampsLimit(t *testing.T) {
	ctx := context.Background()

	profiles := []*matching.Profile{seedProfile("viewer", "female", 28, "US")}
	for _, id := range []string{"m1", "m2", "m3"} {
		profiles = append(profiles, seedProfile(id, "male", 30, "US"))
	}
	h := newServiceHarness(t, profiles...)

	ranked, err := h.svc.Suggestions(ctx, "viewer", 0, 0)
	require.NoError(t, err)
	assert.Len(t, ranked, 3, "zero limit falls back to the configured maximum")

	ranked, err = h.svc.Suggestions(ctx, "viewer", -5, 2)
	require.NoError(t, err)
	assert.Len(t, ranked, 2, "negative skip is treated as zero")
}

func TestServiceStatsCache(t *testing.T) {
	ctx := context.Background()

	h := newServiceHarness(t,
		seedProfile("alice", "female", 28, "US"),
		seedProfile("bob", "male", 30, "US"),
	)

	stats, err := h.svc.Stats(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, stats.LikesGiven)

	// Populated on first read.
	cached, ok := h.stats.Get(ctx, "alice")
	require.True(t, ok)
	assert.Equal(t, stats, cached)

	// Serve a poisoned cache entry to prove the read path hits the cache.
	h.stats.Set(ctx, "alice", &matching.UserStats{LikesGiven: 99, LastActive: time.Now()})
	stats, err = h.svc.Stats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 99, stats.LikesGiven)

	// A like invalidates both sides.
	_, err = h.svc.Like(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Contains(t, h.stats.invalidations, "alice")
	assert.Contains(t, h.stats.invalidations, "bob")

	stats, err = h.svc.Stats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.LikesGiven, "recomputed after invalidation")
}
