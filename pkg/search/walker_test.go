package search

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestWalker(term string, scriptNode bool) *Walker {
	return NewWalker("Test Node", scriptNode, PatternsFor(term, scriptNode), discardLogger())
}

func TestWalker_NestedFieldPath(t *testing.T) {
	t.Parallel()

	walker := newTestWalker("token", false)
	walker.Walk(map[string]any{
		"headers": map[string]any{
			"Authorization": "Bearer {{ $json.token }}",
		},
	}, "parameters")

	matches := walker.Matches()
	require.Len(t, matches, 1)
	assert.Equal(t, "parameters.headers.Authorization", matches[0].Field)
	assert.Equal(t, "Bearer {{ $json.token }}", matches[0].Expression)
	assert.Equal(t, "Bearer {{ $json.token }}", matches[0].FullValue)
	assert.Equal(t, "Node: Test Node", matches[0].Context)
}

func TestWalker_ArrayIndexInPath(t *testing.T) {
	t.Parallel()

	walker := newTestWalker("userId", false)
	walker.Walk(map[string]any{
		"values": map[string]any{
			"string": []any{
				map[string]any{"name": "id", "value": "={{ $json.userId }}"},
			},
		},
	}, "parameters")

	matches := walker.Matches()
	require.Len(t, matches, 1)
	assert.Equal(t, "parameters.values.string[0].value", matches[0].Field)
}

func TestWalker_StringInsideArrayMatched(t *testing.T) {
	t.Parallel()

	walker := newTestWalker("orders", false)
	walker.Walk(map[string]any{
		"topics": []any{"users", "orders", "payments"},
	}, "parameters")

	matches := walker.Matches()
	require.Len(t, matches, 1)
	assert.Equal(t, "parameters.topics[1]", matches[0].Field)
}

func TestWalker_IgnoresNonStringScalarsAndBlankStrings(t *testing.T) {
	t.Parallel()

	walker := newTestWalker("42", false)
	walker.Walk(map[string]any{
		"count":   float64(42),
		"enabled": true,
		"label":   "   ",
		"note":    "answer is 42",
	}, "parameters")

	matches := walker.Matches()
	require.Len(t, matches, 1)
	assert.Equal(t, "parameters.note", matches[0].Field)
}

func TestWalker_OnlyOneMatchPerStringLeaf(t *testing.T) {
	t.Parallel()

	// "$json.status" satisfies several declarative patterns at once; the
	// walker must emit a single match, attributed to the highest-priority one.
	walker := newTestWalker("status", false)
	walker.Walk(map[string]any{
		"value": "{{ $json.status }}",
	}, "parameters")

	matches := walker.Matches()
	require.Len(t, matches, 1)
	assert.Equal(t, 0, matches[0].Priority)
	assert.Equal(t, 0, matches[0].MatchIndex)
}

func TestWalker_MatchIndexMonotonicAcrossTrees(t *testing.T) {
	t.Parallel()

	walker := newTestWalker("acme", false)
	walker.Walk(map[string]any{"url": "https://acme.example.com"}, "parameters")
	walker.Walk(map[string]any{"account": "acme"}, "credentials")

	matches := walker.Matches()
	require.Len(t, matches, 2)
	assert.Equal(t, "parameters.url", matches[0].Field)
	assert.Equal(t, 0, matches[0].MatchIndex)
	assert.Equal(t, "credentials.account", matches[1].Field)
	assert.Equal(t, 1, matches[1].MatchIndex)
}

func TestWalker_CyclicSubtreeSkipped(t *testing.T) {
	t.Parallel()

	cyclic := map[string]any{}
	cyclic["self"] = cyclic

	walker := newTestWalker("token", false)
	walker.Walk(map[string]any{
		"loop":  cyclic,
		"value": "{{ $json.token }}",
	}, "parameters")

	matches := walker.Matches()
	require.Len(t, matches, 1)
	assert.Equal(t, "parameters.value", matches[0].Field)
}

func TestWalker_DepthCeiling(t *testing.T) {
	t.Parallel()

	nest := func(levels int) map[string]any {
		tree := map[string]any{"needle": "uses secretValue here"}
		for range levels {
			tree = map[string]any{"wrap": tree}
		}

		return tree
	}

	reachable := newTestWalker("secretValue", false)
	reachable.Walk(nest(8), "parameters")
	assert.Len(t, reachable.Matches(), 1)

	tooDeep := newTestWalker("secretValue", false)
	tooDeep.Walk(nest(12), "parameters")
	assert.Empty(t, tooDeep.Matches())
}

func TestWalker_ScriptBodyNarrowedToLine(t *testing.T) {
	t.Parallel()

	var script strings.Builder
	for i := range 10 {
		script.WriteString(fmt.Sprintf("const padding%d = %d;\n", i, i))
	}

	script.WriteString("  function processData(items) {\n")
	script.WriteString("  return items;\n}\n")
	body := script.String()
	require.Greater(t, len(body), scriptBodyThreshold)

	walker := NewWalker("Transform", true, PatternsFor("processData", true), discardLogger())
	walker.Walk(map[string]any{"jsCode": body}, "parameters")

	matches := walker.Matches()
	require.Len(t, matches, 1)

	match := matches[0]
	assert.Equal(t, "function processData(items) {", match.Expression)
	assert.Equal(t, body, match.FullValue)
	assert.Equal(t, "Code Node: Transform (Line 11)", match.Context)
}

func TestWalker_ShortScriptValueKeepsFullExpression(t *testing.T) {
	t.Parallel()

	walker := NewWalker("Transform", true, PatternsFor("processData", true), discardLogger())
	walker.Walk(map[string]any{"jsCode": "return processData(items);"}, "parameters")

	matches := walker.Matches()
	require.Len(t, matches, 1)
	assert.Equal(t, "return processData(items);", matches[0].Expression)
	assert.Equal(t, "Node: Transform", matches[0].Context)
}
