package parser

import (
	"strings"

	"github.com/heefoo/loomgraph/internal/syntax"
)

const (
	reasonTemplate = "Template string with interpolation"
	reasonDynamic  = "Dynamic value (variable or expression)"
)

var domQueryMethods = map[string]bool{
	"getElementById":   true,
	"querySelector":    true,
	"querySelectorAll": true,
}

// memberShape names the fields of a member access node.
type memberShape struct {
	object   string
	property string
}

// callStyle describes the call-like node shapes of a language.
type callStyle struct {
	calls       map[string]bool   // call node kinds
	constructs  map[string]string // construction node kind -> field holding the type
	callee      string            // field of the call holding the callee
	arguments   string            // field of the call holding the arguments
	identifiers map[string]bool   // bare names
	receivers   map[string]bool   // `this` and friends, ends a receiver chain
	members     map[string]memberShape
	scoped      map[string]bool   // `a::b` names, rendered as `a.b`
	templated   map[string]string // `f<T>` callee kind -> field holding the name
	domQueries  bool
}

// callResolver scans bodies for call-like expressions and records candidate
// edges. It keeps no state between scans.
type callResolver struct {
	style   callStyle
	methods bool
	x       *extraction
}

// resolve records every call found under body with caller as the source.
// Subtrees for which stop returns true are not scanned.
func (r *callResolver) resolve(caller string, body syntax.NodeID, stop func(syntax.NodeID) bool) {
	if body == syntax.NoNode {
		return
	}
	t := r.x.tree
	truncated := false
	t.Walk(body, r.x.opts.MaxDepth, func(n syntax.NodeID, depth int) bool {
		if n != body && stop != nil && stop(n) {
			return false
		}
		kind := t.Kind(n)
		if r.style.calls[kind] {
			r.call(caller, n)
		} else if field, ok := r.style.constructs[kind]; ok {
			r.construct(caller, n, field)
		}
		if depth == r.x.opts.MaxDepth && len(t.Children(n)) > 0 {
			truncated = true
		}
		return true
	})
	if truncated {
		r.x.log.WithField("caller", caller).Debug("call scan reached depth limit")
	}
}

func (r *callResolver) call(caller string, n syntax.NodeID) {
	t := r.x.tree
	callee := t.Field(n, r.style.callee)
	if callee == syntax.NoNode {
		return
	}
	kind := t.Kind(callee)

	switch {
	case r.style.identifiers[kind]:
		r.x.result.relate(caller, t.Text(callee), RelCalls, nil)

	case r.style.scoped[kind]:
		r.x.result.relate(caller, scopedName(t.Text(callee)), RelCalls, nil)

	case r.style.templated[kind] != "":
		name := t.Field(callee, r.style.templated[kind])
		if name != syntax.NoNode {
			r.x.result.relate(caller, scopedName(t.Text(name)), RelCalls, nil)
		}

	default:
		shape, ok := r.style.members[kind]
		if !ok {
			return
		}
		prop := t.Field(callee, shape.property)
		if prop == syntax.NoNode {
			return
		}
		method := t.Text(prop)
		r.x.result.relate(caller, method, RelCalls, nil)

		if r.style.domQueries && domQueryMethods[method] {
			r.domReference(caller, method, n)
		}
		if r.methods {
			r.methodCall(caller, method, t.Field(callee, shape.object), n)
		}
	}
}

func (r *callResolver) methodCall(caller, method string, object, call syntax.NodeID) {
	path := r.objectPath(object)
	if len(path) == 0 {
		return
	}
	r.x.result.relate(caller, method, RelMethodCall, Metadata{
		"method":           method,
		"object_path":      path,
		"full_expression":  strings.Join(append(append([]string{}, path...), method), "."),
		"immediate_object": path[len(path)-1],
		"line":             r.x.tree.StartLine(call),
		"verifiable":       true,
	})
}

// objectPath returns the receiver chain of a member call, outermost first:
// `a.b.c()` yields [a b]. The chain stops at anything that is not a name or
// a member access, keeping what was collected so far.
func (r *callResolver) objectPath(object syntax.NodeID) []string {
	t := r.x.tree
	var reversed []string
	for cur := object; cur != syntax.NoNode; {
		kind := t.Kind(cur)
		if r.style.identifiers[kind] || r.style.receivers[kind] {
			reversed = append(reversed, t.Text(cur))
			break
		}
		shape, ok := r.style.members[kind]
		if !ok {
			break
		}
		reversed = append(reversed, t.FieldText(cur, shape.property))
		cur = t.Field(cur, shape.object)
	}

	path := make([]string, 0, len(reversed))
	for i := len(reversed) - 1; i >= 0; i-- {
		path = append(path, reversed[i])
	}
	return path
}

func (r *callResolver) construct(caller string, n syntax.NodeID, field string) {
	name := r.typeName(r.x.tree.Field(n, field))
	if name == "" {
		return
	}
	r.x.result.relate(caller, name, RelCalls, nil)
	r.x.result.relate(caller, "constructor", RelCalls, nil)
}

// typeName reduces a constructed type expression to its final name:
// `new ns.Widget()` and `new ns::Widget<T>()` both give Widget.
func (r *callResolver) typeName(n syntax.NodeID) string {
	t := r.x.tree
	for n != syntax.NoNode {
		kind := t.Kind(n)
		if shape, ok := r.style.members[kind]; ok {
			n = t.Field(n, shape.property)
			continue
		}
		switch kind {
		case "qualified_identifier", "template_type", "template_function":
			n = t.Field(n, "name")
		case "identifier", "type_identifier", "property_identifier":
			return t.Text(n)
		default:
			return ""
		}
	}
	return ""
}

func (r *callResolver) domReference(caller, method string, call syntax.NodeID) {
	t := r.x.tree
	arg := syntax.NoNode
	for _, c := range t.NamedChildren(t.Field(call, r.style.arguments)) {
		if t.Kind(c) != "comment" {
			arg = c
			break
		}
	}
	if arg == syntax.NoNode {
		return
	}

	text := t.Text(arg)
	line := t.StartLine(call)
	switch t.Kind(arg) {
	case "string":
		r.staticDOMReference(caller, method, strings.Trim(text, `'"`), line)
	case "template_string":
		if t.HasChild(arg, "template_substitution") || strings.Contains(text, "${") {
			r.unverifiableDOMReference(caller, method, text, reasonTemplate, line)
			return
		}
		r.staticDOMReference(caller, method, strings.Trim(text, "`"), line)
	default:
		r.unverifiableDOMReference(caller, method, text, reasonDynamic, line)
	}
}

func (r *callResolver) staticDOMReference(caller, method, selector string, line int) {
	id := elementID(method, selector)
	if id == "" {
		return
	}
	r.x.result.relate(caller, id, RelDOMReference, Metadata{
		"method":     method,
		"selector":   selector,
		"line":       line,
		"verifiable": true,
	})
}

func (r *callResolver) unverifiableDOMReference(caller, method, raw, reason string, line int) {
	r.x.result.relate(caller, raw, RelDOMReference, Metadata{
		"method":     method,
		"selector":   raw,
		"line":       line,
		"verifiable": false,
		"reason":     reason,
	})
}

// elementID extracts the element id a DOM query targets. Selectors that do
// not start with an id (`.cls`, `div`) give "".
func elementID(method, selector string) string {
	if method == "getElementById" {
		return selector
	}
	if !strings.HasPrefix(selector, "#") {
		return ""
	}
	id := selector[1:]
	if fields := strings.Fields(id); len(fields) > 0 {
		id = fields[0]
	}
	if i := strings.IndexAny(id, ".[:>"); i >= 0 {
		id = id[:i]
	}
	return id
}

func scopedName(name string) string {
	return strings.ReplaceAll(name, "::", ".")
}
