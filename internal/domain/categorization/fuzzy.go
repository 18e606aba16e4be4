package categorization

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions"
)

// maxSuggestionDistance is the largest edit distance offered as a typo correction.
const maxSuggestionDistance = 2

type suggestion struct {
	name     string
	distance int
	order    int
}

// SuggestCategories returns configured categories close to name, best first.
// Subsequence matches ("fod" in "food") and small typos ("fodo") are both offered.
func SuggestCategories(name string, cfg *Config, limit int) []string {
	name = transactions.NormalizeCategory(name)
	if name == "" || cfg == nil {
		return nil
	}

	names := cfg.Names()
	byName := make(map[string]*suggestion)

	for _, rank := range fuzzy.RankFindFold(name, names) {
		byName[rank.Target] = &suggestion{name: rank.Target, distance: rank.Distance, order: rank.OriginalIndex}
	}
	for i, candidate := range names {
		if _, ok := byName[candidate]; ok {
			continue
		}
		if d := fuzzy.LevenshteinDistance(name, candidate); d <= maxSuggestionDistance {
			byName[candidate] = &suggestion{name: candidate, distance: d, order: i}
		}
	}

	results := make([]*suggestion, 0, len(byName))
	for _, s := range byName {
		if s.name == name {
			continue
		}
		results = append(results, s)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].distance != results[j].distance {
			return results[i].distance < results[j].distance
		}
		return results[i].order < results[j].order
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	out := make([]string, len(results))
	for i, s := range results {
		out[i] = s.name
	}
	return out
}
