package parser

import (
	"strings"

	"github.com/heefoo/loomgraph/internal/syntax"
)

// docStyle describes how a language marks documentation blocks.
type docStyle struct {
	comments    []string // node kinds that are comments
	markers     []string // openers that make a comment a doc block
	transparent func(t *syntax.Tree, n syntax.NodeID) bool
}

// intent returns the cleaned documentation block attached to target, or ""
// when there is none.
func (d docStyle) intent(t *syntax.Tree, target syntax.NodeID) string {
	for _, sib := range t.PrevSiblings(target) {
		kind := t.Kind(sib)
		if d.isComment(kind) {
			return d.clean(t.Text(sib))
		}
		if d.transparent != nil && d.transparent(t, sib) {
			continue
		}
		return ""
	}
	return ""
}

func (d docStyle) isComment(kind string) bool {
	for _, c := range d.comments {
		if kind == c {
			return true
		}
	}
	return false
}

// clean strips the doc marker and returns the remaining lines joined with
// single spaces. Lines starting with @ are directives and are dropped.
func (d docStyle) clean(text string) string {
	text = strings.TrimSpace(text)
	opened := false
	for _, m := range d.markers {
		if strings.HasPrefix(text, m) {
			text = text[len(m):]
			opened = true
			break
		}
	}
	if !opened {
		return ""
	}
	text = strings.TrimSuffix(text, "*/")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimLeft(line, "*"))
		if line == "" || strings.HasPrefix(line, "@") {
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, " ")
}

// docstring returns the cleaned leading string literal of a Python block.
func docstring(t *syntax.Tree, block syntax.NodeID) string {
	for _, stmt := range t.NamedChildren(block) {
		switch t.Kind(stmt) {
		case "comment":
			continue
		case "expression_statement":
			str := t.Child(stmt, "string")
			if str == syntax.NoNode || len(t.NamedChildren(stmt)) != 1 {
				return ""
			}
			return cleanDocstring(t.Text(str))
		}
		return ""
	}
	return ""
}

func cleanDocstring(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimLeft(text, "rRuUbBfF")
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(text, q) && strings.HasSuffix(text, q) && len(text) >= 2*len(q) {
			text = text[len(q) : len(text)-len(q)]
			break
		}
	}

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, " ")
}
