// Package search locates variable and expression usages inside workflow node
// parameter trees.
package search

import (
	"fmt"
	"regexp"
)

// Pattern is one compiled search pattern with a stable kind label. Pattern
// order is a behavioral contract: the priority index of the first pattern
// that matched decides which contextualization survives deduplication.
type Pattern struct {
	RE   *regexp.Regexp
	Kind string
}

// Escape returns the search term quoted for literal use inside a pattern.
func Escape(term string) string {
	return regexp.QuoteMeta(term)
}

// scriptPatternSpecs match identifier usages inside embedded script bodies:
// declarations, calls, property and bracket access, class and module syntax.
var scriptPatternSpecs = []struct {
	kind   string
	format string
}{
	{"script-function-decl", `function\s+%s\s*\(`},
	{"script-const-decl", `const\s+%s\s*=`},
	{"script-let-decl", `let\s+%s\s*=`},
	{"script-var-decl", `var\s+%s\s*=`},
	{"script-method-call", `\.%s\s*\(`},
	{"script-property-access", `\.%s\b`},
	{"script-assignment", `%s\s*=\s*`},
	{"script-invocation", `%s\s*\(`},
	{"script-bracket-access", `\[['"]%s['"]\]`},
	{"script-object-key", `%s\s*:`},
	{"script-class-decl", `class\s+%s\b`},
	{"script-constructor", `new\s+%s\s*\(`},
	{"script-import", `import.*%s`},
	{"script-export", `export.*%s`},
}

// declarativePatternSpecs match n8n's templating and node-reference
// syntaxes in short expression parameters.
var declarativePatternSpecs = []struct {
	kind   string
	format string
}{
	{"exact-word", `\b%s\b`},
	{"node-reference-quote", `\$\(['"]%s['"]\)`},
	{"node-reference-bracket", `\$node\[['"]%s['"]\]`},
	{"json-path-direct", `\$json\.%s`},
	{"property-access", `%s\.[\w.\[\]]+`},
	{"property-contains", `\.[\w.]*%s[\w.]*`},
	{"node-reference-bare", `\$\(%s\)`},
	{"expression-block", `\{\{[^}]*%s[^}]*\}\}`},
	{"interpolation", `\$\{%s\}`},
	{"json-path-contains", `\$json\..*%s.*`},
	{"items-reference", `\$items\[[^\]]*\].*%s.*`},
	{"input-reference", `\$input.*%s.*`},
}

// PatternsFor builds the ordered pattern battery for one search term. For
// script-bearing nodes the script family comes first; for declarative nodes
// the families flip.
func PatternsFor(term string, scriptNode bool) []Pattern {
	escaped := Escape(term)

	script := compileFamily(escaped, scriptPatternSpecs)
	declarative := compileFamily(escaped, declarativePatternSpecs)

	if scriptNode {
		return append(script, declarative...)
	}

	return append(declarative, script...)
}

func compileFamily(escaped string, specs []struct {
	kind   string
	format string
},
) []Pattern {
	patterns := make([]Pattern, 0, len(specs))
	for _, spec := range specs {
		patterns = append(patterns, Pattern{
			RE:   regexp.MustCompile(`(?i)` + fmt.Sprintf(spec.format, escaped)),
			Kind: spec.kind,
		})
	}

	return patterns
}
