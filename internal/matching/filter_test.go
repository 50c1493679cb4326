package matching_test

import (
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/heartsync/heartsync-backend/internal/config"
	"github.com/heartsync/heartsync-backend/internal/matching"
)

func testMatchingConfig() config.MatchingConfig {
	return config.MatchingConfig{
		OppositeGenderOnly: true,
		LikedTierCrossover: false,
		MalePreferences:    config.PreferenceRule{DefaultMin: 30, DefaultMax: 80, FloorMin: 31, CeilMax: 100},
		FemalePreferences:  config.PreferenceRule{DefaultMin: 18, DefaultMax: 25, FloorMin: 18, CeilMax: 24},
		SuggestionMaxLimit: 20,
		ListMaxLimit:       50,
	}
}

// seedProfile builds a profile with a wide-open age window; tests narrow it
// where the window itself is under test.
func seedProfile(id, gender string, age int, country string, interests ...string) *matching.Profile {
	return &matching.Profile{
		ID:               id,
		Name:             id,
		Age:              age,
		Country:          country,
		Gender:           gender,
		Interests:        pq.StringArray(interests),
		MinAgePreference: 18,
		MaxAgePreference: 100,
	}
}

func TestFilterPairable(t *testing.T) {
	f := matching.NewFilter(testMatchingConfig())

	alice := seedProfile("alice", "female", 28, "US")
	bob := seedProfile("bob", "male", 30, "US")

	t.Run("opposite genders in the same country pair", func(t *testing.T) {
		assert.True(t, f.Pairable(alice, bob))
		assert.True(t, f.Pairable(bob, alice), "pairability is symmetric")
	})

	t.Run("self is never pairable", func(t *testing.T) {
		assert.False(t, f.Pairable(alice, alice))
	})

	t.Run("same gender rejected when opposite-only is on", func(t *testing.T) {
		carol := seedProfile("carol", "female", 27, "US")
		assert.False(t, f.Pairable(alice, carol))
	})

	t.Run("same gender allowed when opposite-only is off", func(t *testing.T) {
		cfg := testMatchingConfig()
		cfg.OppositeGenderOnly = false
		open := matching.NewFilter(cfg)
		carol := seedProfile("carol", "female", 27, "US")
		assert.True(t, open.Pairable(alice, carol))
	})

	t.Run("age window must hold in both directions", func(t *testing.T) {
		picky := seedProfile("picky", "male", 30, "US")
		picky.MinAgePreference = 30
		picky.MaxAgePreference = 35
		assert.False(t, f.Pairable(picky, alice), "candidate below viewer's window")
		assert.False(t, f.Pairable(alice, picky), "reciprocal check applies to the viewer too")

		alice35 := seedProfile("alice35", "female", 32, "US")
		assert.True(t, f.Pairable(picky, alice35))
	})

	t.Run("different countries reject unless one side is international", func(t *testing.T) {
		pierre := seedProfile("pierre", "male", 30, "FR")
		assert.False(t, f.Pairable(alice, pierre))

		pierre.InternationalMode = true
		assert.True(t, f.Pairable(alice, pierre), "candidate opted in")

		pierre.InternationalMode = false
		roamer := seedProfile("roamer", "female", 28, "US")
		roamer.InternationalMode = true
		assert.True(t, f.Pairable(roamer, pierre), "viewer opted in")
	})
}

func TestFilterEligible(t *testing.T) {
	f := matching.NewFilter(testMatchingConfig())

	viewer := seedProfile("viewer", "female", 28, "US")
	candidate := seedProfile("candidate", "male", 30, "US")

	empty := func() *matching.RelationSet {
		return &matching.RelationSet{
			Matched:       map[string]bool{},
			LikesGiven:    map[string]bool{},
			LikesReceived: map[string]bool{},
			DislikesGiven: map[string]bool{},
		}
	}

	assert.True(t, f.Eligible(viewer, candidate, empty()))

	rel := empty()
	rel.Matched[candidate.ID] = true
	assert.False(t, f.Eligible(viewer, candidate, rel), "already matched")

	rel = empty()
	rel.LikesGiven[candidate.ID] = true
	assert.False(t, f.Eligible(viewer, candidate, rel), "already liked")

	rel = empty()
	rel.DislikesGiven[candidate.ID] = true
	assert.False(t, f.Eligible(viewer, candidate, rel), "already disliked")

	rel = empty()
	rel.LikesReceived[candidate.ID] = true
	assert.True(t, f.Eligible(viewer, candidate, rel), "an incoming like does not gate eligibility")
}

func TestFilterLikedTierAccepts(t *testing.T) {
	t.Run("crossover off only checks the viewer's window", func(t *testing.T) {
		f := matching.NewFilter(testMatchingConfig())

		viewer := seedProfile("viewer", "female", 28, "US")
		viewer.MinAgePreference = 25
		viewer.MaxAgePreference = 35

		assert.True(t, f.LikedTierAccepts(viewer, seedProfile("in", "male", 30, "US")))
		assert.False(t, f.LikedTierAccepts(viewer, seedProfile("young", "male", 22, "US")))
		assert.False(t, f.LikedTierAccepts(viewer, seedProfile("old", "male", 40, "US")))
	})

	t.Run("crossover on requires the gendered age pairing", func(t *testing.T) {
		cfg := testMatchingConfig()
		cfg.LikedTierCrossover = true
		f := matching.NewFilter(cfg)

		youngMan := seedProfile("youngMan", "male", 22, "US")
		olderWoman := seedProfile("olderWoman", "female", 34, "US")
		peerWoman := seedProfile("peerWoman", "female", 23, "US")

		assert.True(t, f.LikedTierAccepts(youngMan, olderWoman))
		assert.True(t, f.LikedTierAccepts(olderWoman, youngMan))
		assert.False(t, f.LikedTierAccepts(youngMan, peerWoman), "a peer is not a crossover liker")
		assert.False(t, f.LikedTierAccepts(peerWoman, youngMan), "viewer outside the crossover cohorts")
	})
}
