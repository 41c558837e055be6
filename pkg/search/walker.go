package search

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/flowlens/flowlens/pkg/models"
)

const (
	// maxWalkDepth caps descent into nested parameter objects so adversarial
	// documents cannot drive unbounded recursion. Descent past the ceiling
	// stops silently.
	maxWalkDepth = 10

	// scriptBodyThreshold is the string length above which a script node's
	// value is treated as a multi-line body and narrowed to its best
	// matching line.
	scriptBodyThreshold = 100
)

// RawMatch is a match as emitted by the walker, before deduplication.
// Priority is the index of the pattern that found it.
type RawMatch struct {
	models.Match

	Priority int
}

// Walker collects raw matches across one node's parameter and credential
// trees. The match index is monotonic across all trees walked by the same
// Walker, which keeps ordering stable when a node has both.
type Walker struct {
	patterns   []Pattern
	scriptNode bool
	nodeName   string
	logger     *slog.Logger
	matchIndex int
	seen       map[string]struct{}
	matches    []RawMatch
}

func NewWalker(nodeName string, scriptNode bool, patterns []Pattern, logger *slog.Logger) *Walker {
	return &Walker{
		patterns:   patterns,
		scriptNode: scriptNode,
		nodeName:   nodeName,
		logger:     logger,
		seen:       make(map[string]struct{}),
	}
}

// Walk traverses one tree depth-first. Keys are visited in sorted order so
// match indices are deterministic regardless of map iteration.
func (w *Walker) Walk(tree map[string]any, rootPath string) {
	w.walkMap(tree, rootPath, maxWalkDepth)
}

// Matches returns everything collected so far.
func (w *Walker) Matches() []RawMatch {
	return w.matches
}

func (w *Walker) walkMap(obj map[string]any, path string, depth int) {
	if depth <= 0 || obj == nil {
		return
	}

	keys := make([]string, 0, len(obj))
	for key := range obj {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		currentPath := key
		if path != "" {
			currentPath = path + "." + key
		}

		w.walkValue(obj[key], currentPath, depth)
	}
}

func (w *Walker) walkValue(value any, path string, depth int) {
	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) != "" {
			w.matchString(v, path)
		}
	case map[string]any:
		// Reference cycles cannot survive a canonical serialization; a tree
		// that fails to serialize is skipped rather than traversed.
		if _, err := json.Marshal(v); err != nil {
			w.logger.Warn("Skipping unserializable parameter subtree", "path", path)

			return
		}

		w.walkMap(v, path, depth-1)
	case []any:
		for i, item := range v {
			w.walkValue(item, fmt.Sprintf("%s[%d]", path, i), depth-1)
		}
	default:
		// Non-string scalars carry no expression text.
	}
}

// matchString applies every pattern in priority order to one string leaf.
// For long script bodies the match is narrowed to its first matching line,
// with a 1-based line number recorded in the context. A (path, text) pair is
// emitted at most once no matter how many patterns hit it.
func (w *Walker) matchString(value, path string) {
	for priority, pattern := range w.patterns {
		if !pattern.RE.MatchString(value) {
			continue
		}

		expression := value
		context := "Node: " + w.nodeName
		matchKey := path + "-" + value

		if w.scriptNode && len(value) > scriptBodyThreshold {
			if line, number, ok := firstMatchingLine(value, pattern.RE); ok {
				expression = line
				context = fmt.Sprintf("Code Node: %s (Line %d)", w.nodeName, number)
				matchKey = path + "-" + line
			}
		}

		if _, dup := w.seen[matchKey]; dup {
			continue
		}

		w.seen[matchKey] = struct{}{}

		w.matches = append(w.matches, RawMatch{
			Match: models.Match{
				Field:      path,
				Expression: expression,
				FullValue:  value,
				Context:    context,
				MatchIndex: w.matchIndex,
			},
			Priority: priority,
		})
		w.matchIndex++
	}
}

func firstMatchingLine(value string, re *regexp.Regexp) (string, int, bool) {
	lines := strings.Split(value, "\n")
	for i, line := range lines {
		if re.MatchString(line) {
			return strings.TrimSpace(line), i + 1, true
		}
	}

	return "", 0, false
}
