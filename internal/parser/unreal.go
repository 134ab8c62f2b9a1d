package parser

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/heefoo/loomgraph/internal/syntax"
)

// Unreal Engine reflection macros.
var (
	ueTypeMacros      = []string{"UCLASS", "USTRUCT", "UINTERFACE", "UENUM"}
	ueFunctionMacros  = []string{"UFUNCTION", "UMETHOD"}
	uePropertyMacros  = []string{"UPROPERTY"}
	ueGeneratedMacros = []string{"GENERATED_BODY", "GENERATED_UCLASS_BODY", "GENERATED_USTRUCT_BODY"}
)

// ueLinesAbove is how many source lines above a type are searched for its
// reflection macro.
const ueLinesAbove = 5

var ueMacroArgs = regexp.MustCompile(`^(\w+)\s*\(([^)]*)\)`)

// unrealSpecifiers are the reflection macros attached to a declaration.
type unrealSpecifiers struct {
	isUClass    bool
	isUStruct   bool
	isUFunction bool
	isUProperty bool
	specifiers  []string
}

func (u *unrealSpecifiers) add(spec string) {
	for _, s := range u.specifiers {
		if s == spec {
			return
		}
	}
	u.specifiers = append(u.specifiers, spec)
}

func (u unrealSpecifiers) list() []string {
	return nonNil(u.specifiers)
}

// apply records text if it starts with a reflection macro and reports
// whether it did.
func (u *unrealSpecifiers) apply(text string) bool {
	macro := leadingMacro(text)
	switch {
	case macro == "":
		return false
	case macro == "USTRUCT":
		u.isUStruct = true
	case hasString(ueTypeMacros, macro):
		u.isUClass = true
	case hasString(ueFunctionMacros, macro):
		u.isUFunction = true
	case hasString(uePropertyMacros, macro):
		u.isUProperty = true
	case hasString(ueGeneratedMacros, macro):
		return true
	default:
		return false
	}
	u.add(macroSpecifier(text))
	return true
}

// leadingMacro returns the identifier text starts with when it is followed
// by an argument list.
func leadingMacro(text string) string {
	m := ueMacroArgs.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return ""
	}
	return m[1]
}

// macroSpecifier normalizes `UFUNCTION( BlueprintCallable )` style text to
// the macro with its raw argument list.
func macroSpecifier(text string) string {
	text = strings.TrimSpace(text)
	if m := ueMacroArgs.FindStringSubmatch(text); m != nil {
		return m[1] + "(" + m[2] + ")"
	}
	name, _, _ := strings.Cut(text, "(")
	return strings.TrimSpace(name)
}

// bareUnrealMacro reports whether text is a reflection macro call and
// nothing else, returning the call without a trailing semicolon.
func bareUnrealMacro(text string) (string, bool) {
	text = strings.TrimSpace(text)
	m := ueMacroArgs.FindStringSubmatch(text)
	if m == nil || !isUnrealMacro(m[1]) {
		return "", false
	}
	if rest := strings.TrimSpace(text[len(m[0]):]); rest != "" && rest != ";" {
		return "", false
	}
	return m[0], true
}

func isUnrealMacro(name string) bool {
	return hasString(ueTypeMacros, name) || hasString(ueFunctionMacros, name) ||
		hasString(uePropertyMacros, name) || hasString(ueGeneratedMacros, name)
}

// readUnrealSpecifiers collects the reflection macros of the declaration at
// anchor: the run of macro statements directly before it, the start of its
// own text, and for types the few source lines above it.
func readUnrealSpecifiers(t *syntax.Tree, anchor syntax.NodeID, isType bool) unrealSpecifiers {
	var u unrealSpecifiers
	for _, sib := range t.PrevSiblings(anchor) {
		if t.Kind(sib) == "comment" {
			continue
		}
		if !ueMacroStatement(t, sib) || !u.apply(t.Text(sib)) {
			break
		}
	}
	u.apply(t.Text(anchor))

	if isType {
		for _, line := range linesAbove(t.Source, t.Node(anchor).StartByte, ueLinesAbove) {
			line = strings.TrimSpace(line)
			if macro := leadingMacro(line); hasString(ueTypeMacros, macro) {
				u.apply(line)
			}
		}
	}
	return u
}

// ueMacroStatement reports whether n is a statement the grammar built out of
// a bare reflection macro such as `UFUNCTION(BlueprintCallable)`.
func ueMacroStatement(t *syntax.Tree, n syntax.NodeID) bool {
	switch t.Kind(n) {
	case "expression_statement", "declaration", "field_declaration", syntax.KindError:
		return isUnrealMacro(leadingMacro(t.Text(n)))
	}
	return false
}

// linesAbove returns up to n source lines preceding the line containing
// offset, in source order.
func linesAbove(src []byte, offset uint32, n int) []string {
	if int(offset) > len(src) {
		return nil
	}
	lineStart := bytes.LastIndexByte(src[:offset], '\n') + 1
	if lineStart == 0 {
		return nil
	}
	end := lineStart - 1
	start := end
	for i := 0; i < n && start >= 0; i++ {
		start = bytes.LastIndexByte(src[:start], '\n')
	}
	return strings.Split(string(src[start+1:end]), "\n")
}

func hasString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
