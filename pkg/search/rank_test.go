package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowlens/flowlens/pkg/models"
)

func TestDedupe_KeepsHighestPriorityOccurrence(t *testing.T) {
	t.Parallel()

	raw := []RawMatch{
		{
			Match:    models.Match{Field: "parameters.value", Expression: "$json.user", Context: "fallback", MatchIndex: 0},
			Priority: 4,
		},
		{
			Match:    models.Match{Field: "parameters.value", Expression: "$json.user", Context: "specific", MatchIndex: 0},
			Priority: 1,
		},
	}

	unique := Dedupe(raw)

	require.Len(t, unique, 1)
	assert.Equal(t, "specific", unique[0].Context)
}

func TestDedupe_DistinctOccurrencesSurvive(t *testing.T) {
	t.Parallel()

	raw := []RawMatch{
		{Match: models.Match{Field: "parameters.a", Expression: "$json.user", MatchIndex: 0}, Priority: 0},
		{Match: models.Match{Field: "parameters.b", Expression: "$json.user", MatchIndex: 1}, Priority: 0},
		{Match: models.Match{Field: "parameters.a", Expression: "user = fetch()", MatchIndex: 2}, Priority: 5},
	}

	unique := Dedupe(raw)

	assert.Len(t, unique, 3)
}

func TestDedupe_Empty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Dedupe(nil))
}

func TestScore_MatchCountAndNameBonus(t *testing.T) {
	t.Parallel()

	base := models.SearchResult{
		NodeName: "Transform",
		Matches: []models.Match{
			{Expression: strings.Repeat("x", 60)},
		},
	}

	// One match, no name hit, no expression relation, long expression.
	assert.Equal(t, 15, Score(base, "userId"))

	named := base
	named.NodeName = "Update userId field"
	assert.Equal(t, 65, Score(named, "userId"))
}

func TestScore_ExpressionRelationTiers(t *testing.T) {
	t.Parallel()

	longTail := strings.Repeat("y", 50)

	tests := []struct {
		name       string
		expression string
		expected   int
	}{
		{"exact", "userId", 10 + 30 + 5},
		{"case insensitive equal", "USERID", 10 + 25 + 5},
		{"contains", "{{ $json.userId }}" + longTail, 10 + 15},
		{"unrelated", "something else entirely" + longTail, 10 + 5},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			result := models.SearchResult{
				NodeName: "Transform",
				Matches:  []models.Match{{Expression: testCase.expression}},
			}

			assert.Equal(t, testCase.expected, Score(result, "userId"))
		})
	}
}

func TestScore_ShortExpressionBonus(t *testing.T) {
	t.Parallel()

	short := models.SearchResult{
		NodeName: "Transform",
		Matches:  []models.Match{{Expression: "{{ $json.userId }}"}},
	}

	// Contains tier plus the short-expression bonus.
	assert.Equal(t, 10+15+5, Score(short, "userId"))
}

func TestRankResults_DescendingWithStableTies(t *testing.T) {
	t.Parallel()

	weak := models.SearchResult{
		NodeName: "HTTP Request",
		Matches:  []models.Match{{Expression: strings.Repeat("z", 60)}},
	}
	strong := models.SearchResult{
		NodeName: "Set userId",
		Matches:  []models.Match{{Expression: "userId"}},
	}
	tiedFirst := models.SearchResult{
		NodeName: "Webhook",
		NodeID:   "first",
		Matches:  []models.Match{{Expression: strings.Repeat("z", 60)}},
	}
	tiedSecond := models.SearchResult{
		NodeName: "Slack",
		NodeID:   "second",
		Matches:  []models.Match{{Expression: strings.Repeat("z", 60)}},
	}

	results := []models.SearchResult{weak, tiedFirst, strong, tiedSecond}
	RankResults(results, "userId")

	require.Len(t, results, 4)
	assert.Equal(t, "Set userId", results[0].NodeName)
	// Equal scores keep document order.
	assert.Equal(t, "HTTP Request", results[1].NodeName)
	assert.Equal(t, "first", results[2].NodeID)
	assert.Equal(t, "second", results[3].NodeID)
}
