package search

import (
	"sort"
	"strings"

	"github.com/flowlens/flowlens/pkg/models"
)

// shortExpressionLimit is the length under which a matched expression earns
// the precision bonus; short captures are usually the tightest ones.
const shortExpressionLimit = 50

// Dedupe collapses raw matches that share (field, expression, match index),
// keeping the occurrence found by the earliest, most specific pattern. The
// result is ordered by pattern priority, ties by match index.
func Dedupe(raw []RawMatch) []models.Match {
	sorted := make([]RawMatch, len(raw))
	copy(sorted, raw)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})

	seen := make(map[matchKey]struct{}, len(sorted))

	var unique []models.Match

	for _, m := range sorted {
		key := matchKey{field: m.Field, expression: m.Expression, index: m.MatchIndex}
		if _, dup := seen[key]; dup {
			continue
		}

		seen[key] = struct{}{}
		unique = append(unique, m.Match)
	}

	return unique
}

type matchKey struct {
	field      string
	expression string
	index      int
}

// Score computes the relevance of one node result for final ordering. Higher
// is more relevant.
func Score(result models.SearchResult, searchTerm string) int {
	score := len(result.Matches) * 10

	if strings.Contains(strings.ToLower(result.NodeName), strings.ToLower(searchTerm)) {
		score += 50
	}

	for _, match := range result.Matches {
		switch {
		case match.Expression == searchTerm:
			score += 30
		case strings.EqualFold(match.Expression, searchTerm):
			score += 25
		case strings.Contains(match.Expression, searchTerm):
			score += 15
		default:
			score += 5
		}

		if len(match.Expression) < shortExpressionLimit {
			score += 5
		}
	}

	return score
}

// RankResults orders node results by descending score. The sort is stable:
// equal scores keep document order.
func RankResults(results []models.SearchResult, searchTerm string) {
	sort.SliceStable(results, func(i, j int) bool {
		return Score(results[i], searchTerm) > Score(results[j], searchTerm)
	})
}
