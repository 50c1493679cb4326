package matching

import "github.com/heartsync/heartsync-backend/internal/config"

// Filter decides whether a candidate may be shown to a viewer. It is a pure
// predicate over the two profiles and the viewer's relation set; callers load
// current state first, the filter never touches storage.
type Filter struct {
	cfg config.MatchingConfig
}

func NewFilter(cfg config.MatchingConfig) *Filter {
	return &Filter{cfg: cfg}
}

// Eligible is the full eligibility check used when ranking cold candidates:
// the candidate must be pairable with the viewer and must not already be
// matched, liked or disliked by the viewer.
func (f *Filter) Eligible(viewer, candidate *Profile, rel *RelationSet) bool {
	if rel.Matched[candidate.ID] || rel.LikesGiven[candidate.ID] || rel.DislikesGiven[candidate.ID] {
		return false
	}
	return f.Pairable(viewer, candidate)
}

// Pairable checks the attribute-only rules: identity, reciprocal age windows,
// gender pairing and geography. It is used directly when recording a like,
// where an existing like edge must not make the pair ineligible.
func (f *Filter) Pairable(viewer, candidate *Profile) bool {
	if viewer.ID == candidate.ID {
		return false
	}
	if !ageWithinWindow(candidate.Age, viewer) || !ageWithinWindow(viewer.Age, candidate) {
		return false
	}
	if f.cfg.OppositeGenderOnly && !oppositeGenders(viewer.Gender, candidate.Gender) {
		return false
	}
	return geographyCompatible(viewer, candidate)
}

// LikedTierAccepts applies the tier-2 rules to an incoming liker: the liker
// must fall inside the viewer's own age window, and, when the crossover
// option is on, satisfy the gendered age-crossover rule. This is a secondary
// filter, not the full eligibility gate.
func (f *Filter) LikedTierAccepts(viewer, liker *Profile) bool {
	if !ageWithinWindow(liker.Age, viewer) {
		return false
	}
	if !f.cfg.LikedTierCrossover {
		return true
	}
	return crossoverPair(viewer, liker)
}

func ageWithinWindow(age int, of *Profile) bool {
	return age >= of.MinAgePreference && age <= of.MaxAgePreference
}

func oppositeGenders(a, b string) bool {
	return (a == "male" && b == "female") || (a == "female" && b == "male")
}

// geographyCompatible: same country, unless either side opted into
// international matching.
func geographyCompatible(a, b *Profile) bool {
	return a.InternationalMode || b.InternationalMode || a.Country == b.Country
}

// crossoverPair highlights likes arriving from outside the viewer's cohort:
// a young man liked by an older woman, or an older woman liked by a young man.
func crossoverPair(viewer, liker *Profile) bool {
	if viewer.Gender == "male" && viewer.Age < 25 {
		return liker.Gender == "female" && liker.Age > 30
	}
	if viewer.Gender == "female" && viewer.Age > 30 {
		return liker.Gender == "male" && liker.Age < 25
	}
	return false
}
