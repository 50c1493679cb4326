package matching

import (
	"context"
	"sort"
)

// Tier is the priority bucket a candidate lands in. Lower tiers are shown
// first: confirmed matches, then people who already liked the viewer, then
// cold candidates ordered by interest overlap.
type Tier string

const (
	TierMatched   Tier = "matched"
	TierLiked     Tier = "liked"
	TierPotential Tier = "potential"
)

var tierOrder = map[Tier]int{
	TierMatched:   1,
	TierLiked:     2,
	TierPotential: 3,
}

// RankedCandidate is one entry of the ordered suggestion list.
type RankedCandidate struct {
	User                *Profile `json:"user"`
	Tier                Tier     `json:"tier"`
	SharedInterestCount int      `json:"sharedInterestCount"`
	MatchPercentage     int      `json:"matchPercentage"`
}

// Ranker produces the ordered candidate list for a viewer. It is read-only:
// all state is loaded through the repository at call time and nothing is
// mutated or cached.
type Ranker struct {
	repo   Repository
	filter *Filter
}

func NewRanker(repo Repository, filter *Filter) *Ranker {
	return &Ranker{repo: repo, filter: filter}
}

// Rank returns the viewer's candidates ordered by tier, then by interest
// overlap. Skip/limit paginate the merged sequence across tiers, not each
// tier separately. Fails with ErrUserNotFound for an unknown viewer.
func (r *Ranker) Rank(ctx context.Context, viewerID string, skip, limit int) ([]*RankedCandidate, error) {
	viewer, err := r.repo.GetProfile(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	rel, err := r.repo.GetRelations(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	candidates, err := r.repo.ListProfiles(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	ranked := make([]*RankedCandidate, 0, len(candidates))
	for _, cand := range candidates {
		tier, ok := r.classify(viewer, cand, rel)
		if !ok {
			continue
		}
		shared := SharedInterestCount(viewer.Interests, cand.Interests)
		ranked = append(ranked, &RankedCandidate{
			User:                cand,
			Tier:                tier,
			SharedInterestCount: shared,
			MatchPercentage:     MatchPercentage(shared, len(viewer.Interests)),
		})
	}

	// Stable total order: tier, then overlap, then id for determinism.
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if tierOrder[a.Tier] != tierOrder[b.Tier] {
			return tierOrder[a.Tier] < tierOrder[b.Tier]
		}
		if a.MatchPercentage != b.MatchPercentage {
			return a.MatchPercentage > b.MatchPercentage
		}
		if a.SharedInterestCount != b.SharedInterestCount {
			return a.SharedInterestCount > b.SharedInterestCount
		}
		return a.User.ID < b.User.ID
	})

	return paginate(ranked, skip, limit), nil
}

// classify assigns the candidate to a tier, or reports that the candidate is
// not shown at all.
func (r *Ranker) classify(viewer, cand *Profile, rel *RelationSet) (Tier, bool) {
	switch {
	case rel.Matched[cand.ID]:
		return TierMatched, true

	case rel.LikesReceived[cand.ID]:
		// An incoming like the viewer has not answered yet. Dislikes still
		// hide the liker; the secondary tier filter may narrow further.
		if rel.DislikesGiven[cand.ID] {
			return "", false
		}
		if !r.filter.LikedTierAccepts(viewer, cand) {
			return "", false
		}
		return TierLiked, true

	default:
		if !r.filter.Eligible(viewer, cand, rel) {
			return "", false
		}
		return TierPotential, true
	}
}

func paginate(ranked []*RankedCandidate, skip, limit int) []*RankedCandidate {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(ranked) {
		return []*RankedCandidate{}
	}
	end := len(ranked)
	if limit > 0 && skip+limit < end {
		end = skip + limit
	}
	return ranked[skip:end]
}
