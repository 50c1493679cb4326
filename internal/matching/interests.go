package matching

import "strings"

// Interest handling. Interests are free-form strings supplied by users and
// advertisers; comparisons are only meaningful after normalization.

// NormalizeInterests lowercases, trims and deduplicates an interest list,
// preserving first-seen order.
func NormalizeInterests(interests []string) []string {
	seen := make(map[string]bool, len(interests))
	out := make([]string, 0, len(interests))

	for _, interest := range interests {
		norm := strings.ToLower(strings.TrimSpace(interest))
		if norm == "" || seen[norm] {
			continue
		}
		seen[norm] = true
		out = append(out, norm)
	}

	return out
}

// SharedInterests returns the interests present in both normalized sets,
// in the order they appear in a.
func SharedInterests(a, b []string) []string {
	set := make(map[string]bool, len(b))
	for _, interest := range b {
		set[interest] = true
	}

	var shared []string
	for _, interest := range a {
		if set[interest] {
			shared = append(shared, interest)
		}
	}
	return shared
}

// SharedInterestCount is the size of the intersection of two normalized sets.
func SharedInterestCount(a, b []string) int {
	return len(SharedInterests(a, b))
}

// MatchPercentage scales the shared-interest count against the viewer's own
// interest count to 0-100. A viewer with no interests scores 0 against
// everyone; there is nothing to divide by.
func MatchPercentage(sharedCount, viewerInterestCount int) int {
	if viewerInterestCount == 0 {
		return 0
	}
	return sharedCount * 100 / viewerInterestCount
}
