package parser

import (
	"strings"

	"github.com/heefoo/loomgraph/internal/syntax"
)

const variadicParam = "..."

// paramStyle lists the parameter node kinds of a language.
type paramStyle struct {
	params   map[string]bool // rendered verbatim
	variadic map[string]bool // rendered as "..."
	wrappers map[string]bool // may wrap a variadic pattern, as in `...args: T[]`
}

func kindSet(kinds ...string) map[string]bool {
	set := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		set[k] = true
	}
	return set
}

// render returns the display signature of a parameter list. A missing list
// renders as "()". A lone parameter node (an arrow function's bare
// identifier) renders as a one-element list.
func (p paramStyle) render(t *syntax.Tree, list syntax.NodeID) string {
	if list == syntax.NoNode {
		return "()"
	}
	if p.params[t.Kind(list)] || p.variadic[t.Kind(list)] {
		return "(" + p.param(t, list) + ")"
	}

	var parts []string
	for _, c := range t.NamedChildren(list) {
		kind := t.Kind(c)
		if p.params[kind] || p.variadic[kind] {
			parts = append(parts, p.param(t, c))
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (p paramStyle) param(t *syntax.Tree, n syntax.NodeID) string {
	if p.variadic[t.Kind(n)] {
		return variadicParam
	}
	if !p.wrappers[t.Kind(n)] {
		return t.Text(n)
	}
	for _, c := range t.NamedChildren(n) {
		if p.variadic[t.Kind(c)] {
			return variadicParam
		}
	}
	return t.Text(n)
}

// ParameterCount returns the number of parameters a rendered signature
// lists. Commas nested in brackets or string literals do not count.
func ParameterCount(sig string) int {
	inner := strings.TrimSpace(sig)
	inner = strings.TrimPrefix(inner, "(")
	inner = strings.TrimSuffix(inner, ")")
	if strings.TrimSpace(inner) == "" {
		return 0
	}

	count, depth := 1, 0
	var quote rune
	for _, r := range inner {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'' || r == '`':
			quote = r
		case r == '(' || r == '[' || r == '{' || r == '<':
			depth++
		case r == ')' || r == ']' || r == '}' || r == '>':
			if depth > 0 {
				depth--
			}
		case r == ',' && depth == 0:
			count++
		}
	}
	return count
}
