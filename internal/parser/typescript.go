package parser

import (
	"path/filepath"
	"strings"

	"github.com/heefoo/loomgraph/internal/syntax"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// TypeScriptExtractor handles .ts and .tsx files. It shares the JavaScript
// walk and adds interfaces, type aliases, enums and namespaces.
type TypeScriptExtractor struct {
	treeExtractor
}

func NewTypeScriptExtractor(opts Options) *TypeScriptExtractor {
	e := &TypeScriptExtractor{}
	e.treeExtractor = treeExtractor{
		lang:       LangTypeScript,
		extensions: []string{".ts", ".tsx"},
		entryFiles: []string{"index.ts", "index.tsx"},
		opts:       opts.withDefaults(),
		grammar:    typeScriptGrammar,
		extract:    func(x *extraction) { newJSExtraction(x).run() },
	}
	return e
}

func typeScriptGrammar(path string) *sitter.Language {
	if strings.EqualFold(filepath.Ext(path), ".tsx") {
		return tsx.GetLanguage()
	}
	return typescript.GetLanguage()
}

func (j *jsExtraction) interfaceDecl(n syntax.NodeID, scope Scope, exp exportInfo) {
	name := j.t.FieldText(n, "name")
	if name == "" {
		return
	}
	qn := scope.Qualify(name)

	var properties, methods, extends []string
	for _, m := range j.t.NamedChildren(j.t.Field(n, "body")) {
		switch j.t.Kind(m) {
		case "property_signature":
			properties = append(properties, j.t.FieldText(m, "name"))
		case "method_signature":
			methods = append(methods, j.t.FieldText(m, "name"))
		}
	}
	if clause := j.t.Child(n, "extends_type_clause", "extends_clause"); clause != syntax.NoNode {
		for _, c := range j.t.NamedChildren(clause) {
			extends = append(extends, j.t.Text(c))
		}
	}

	meta := Metadata{
		"properties":        nonNil(properties),
		"methods":           nonNil(methods),
		"extends":           nonNil(extends),
		"exported":          exp.exported,
		"is_default_export": exp.isDefault,
	}
	j.emit(j.entity(n, qn, KindInterface, jsDoc.intent(j.t, exp.docTarget(n)), meta))
	j.result.relate(j.module, qn, RelContains, nil)
	j.exportRelation(qn, name, exp)
}

func (j *jsExtraction) typeAlias(n syntax.NodeID, scope Scope, exp exportInfo) {
	name := j.t.FieldText(n, "name")
	if name == "" {
		return
	}
	qn := scope.Qualify(name)
	meta := Metadata{
		"definition": j.t.FieldText(n, "value"),
		"exported":   exp.exported,
	}
	j.emit(j.entity(n, qn, KindType, jsDoc.intent(j.t, exp.docTarget(n)), meta))
	j.result.relate(j.module, qn, RelContains, nil)
	j.exportRelation(qn, name, exp)
}

func (j *jsExtraction) enumDecl(n syntax.NodeID, scope Scope, exp exportInfo) {
	name := j.t.FieldText(n, "name")
	if name == "" {
		return
	}
	qn := scope.Qualify(name)

	var members []string
	for _, m := range j.t.NamedChildren(j.t.Field(n, "body")) {
		switch j.t.Kind(m) {
		case "property_identifier", "string":
			members = append(members, unquote(j.t.Text(m)))
		case "enum_assignment":
			members = append(members, unquote(j.t.FieldText(m, "name")))
		}
	}

	meta := Metadata{
		"members":  nonNil(members),
		"is_const": j.t.HasChild(n, "const"),
		"exported": exp.exported,
	}
	j.emit(j.entity(n, qn, KindEnum, jsDoc.intent(j.t, exp.docTarget(n)), meta))
	j.result.relate(j.module, qn, RelContains, nil)
	j.exportRelation(qn, name, exp)
}

// namespace walks the body of `namespace A.B { ... }` or
// `declare module "x" { ... }` inside a nested scope.
func (j *jsExtraction) namespace(f frame, w *worklist) {
	name := unquote(j.t.FieldText(f.node, "name"))
	body := j.t.Field(f.node, "body")
	if body == syntax.NoNode {
		return
	}
	w.pushChildren(body, f.scope.EnterNamespace(name), f.depth)
}
