package parser

import (
	"regexp"
	"strings"

	"github.com/heefoo/loomgraph/internal/syntax"
)

var (
	recoveredBase = regexp.MustCompile(`(?:public|private|protected)\s+(\w+)`)
	// The start of an error node that swallowed the type name, as in
	// `AHero : public`.
	recoveredHead = regexp.MustCompile(`^(\w+)\s*:\s*(?:public|private|protected)\b`)
)

// recoveredType is a class or struct the grammar misread because an export
// macro sits between the keyword and the name:
//
//	UCLASS()
//	class MYGAME_API AHero : public ACharacter { ... };
//
// The keyword and macro become a bodiless class_specifier and the rest lands
// in one of three shapes:
//
//   - a function_definition whose declarator is the type name, followed by
//     an ERROR holding the base clause;
//   - a function_definition led by an ERROR holding `AHero : public`, whose
//     declarator is the first base;
//   - with several bases, a declaration whose init_declarator carries the
//     body as an initializer_list.
type recoveredType struct {
	name     syntax.NodeID
	isStruct bool
	bases    []string
	body     syntax.NodeID // NoNode if the body is missing
}

// recoverMisparsedType returns the type hidden in a misparsed function
// definition or declaration. It declines, returning false, when n does not
// have one of those shapes.
func recoverMisparsedType(t *syntax.Tree, n syntax.NodeID) (recoveredType, bool) {
	kind := t.Kind(n)
	if kind != "function_definition" && kind != "declaration" {
		return recoveredType{}, false
	}
	spec := t.Child(n, "class_specifier", "struct_specifier")
	if spec == syntax.NoNode || t.Field(spec, "body") != syntax.NoNode {
		return recoveredType{}, false
	}

	rt := recoveredType{
		name:     syntax.NoNode,
		isStruct: t.Kind(spec) == "struct_specifier",
		bases:    []string{},
		body:     syntax.NoNode,
	}
	decl := t.Field(n, "declarator")
	lead := t.Child(n, syntax.KindError)
	switch {
	case lead != syntax.NoNode && startsBefore(t, lead, decl) &&
		recoveredHead.MatchString(strings.TrimSpace(t.Text(lead))):
		rt.name = t.Child(lead, "identifier")
	case kind == "function_definition" && t.Kind(decl) == "identifier":
		rt.name = decl
	}
	if rt.name == syntax.NoNode {
		return recoveredType{}, false
	}

	if kind == "function_definition" {
		rt.body = t.Field(n, "body")
	} else {
		for _, d := range t.FieldAll(n, "declarator") {
			if v := t.Field(d, "value"); t.Kind(d) == "init_declarator" && t.Kind(v) == "initializer_list" {
				rt.body = v
				break
			}
		}
		if rt.body == syntax.NoNode {
			return recoveredType{}, false
		}
	}

	// Bases are read from the raw text between the name and the body, which
	// the grammar splits across error nodes and declarators.
	end := t.Node(n).EndByte
	if rt.body != syntax.NoNode {
		end = t.Node(rt.body).StartByte
	}
	if start := t.Node(rt.name).EndByte; start < end {
		for _, m := range recoveredBase.FindAllStringSubmatch(string(t.Source[start:end]), -1) {
			rt.bases = append(rt.bases, m[1])
		}
	}
	return rt, true
}

func startsBefore(t *syntax.Tree, a, b syntax.NodeID) bool {
	return b == syntax.NoNode || t.Node(a).StartByte < t.Node(b).StartByte
}
