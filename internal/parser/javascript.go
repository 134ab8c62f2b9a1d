package parser

import (
	"strings"

	"github.com/heefoo/loomgraph/internal/syntax"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

// JavaScriptExtractor handles .js, .mjs, .cjs and .jsx files.
type JavaScriptExtractor struct {
	treeExtractor
}

func NewJavaScriptExtractor(opts Options) *JavaScriptExtractor {
	e := &JavaScriptExtractor{}
	e.treeExtractor = treeExtractor{
		lang:       LangJavaScript,
		extensions: []string{".js", ".mjs", ".cjs", ".jsx"},
		entryFiles: []string{"index.js", "index.mjs", "index.cjs", "index.jsx"},
		opts:       opts.withDefaults(),
		grammar:    func(string) *sitter.Language { return javascript.GetLanguage() },
		extract:    func(x *extraction) { newJSExtraction(x).run() },
	}
	return e
}

// jsKind classifies the statement-level node kinds of JavaScript and
// TypeScript.
type jsKind int

const (
	jsOther jsKind = iota
	jsFunction
	jsClass
	jsVariable
	jsImport
	jsExport
	jsInterface
	jsTypeAlias
	jsEnum
	jsNamespace
)

func classifyJS(kind string) jsKind {
	switch kind {
	case "function_declaration", "generator_function_declaration":
		return jsFunction
	case "class_declaration", "abstract_class_declaration":
		return jsClass
	case "lexical_declaration", "variable_declaration":
		return jsVariable
	case "import_statement":
		return jsImport
	case "export_statement":
		return jsExport
	case "interface_declaration":
		return jsInterface
	case "type_alias_declaration":
		return jsTypeAlias
	case "enum_declaration":
		return jsEnum
	case "internal_module", "module":
		return jsNamespace
	}
	return jsOther
}

var jsFunctionValues = kindSet("arrow_function", "function_expression", "function", "generator_function")

var jsParams = paramStyle{
	params:   kindSet("identifier", "assignment_pattern", "object_pattern", "array_pattern", "required_parameter", "optional_parameter"),
	variadic: kindSet("rest_pattern"),
	wrappers: kindSet("required_parameter", "optional_parameter"),
}

var jsCalls = callStyle{
	calls:       kindSet("call_expression"),
	constructs:  map[string]string{"new_expression": "constructor"},
	callee:      "function",
	arguments:   "arguments",
	identifiers: kindSet("identifier"),
	receivers:   kindSet("this", "super"),
	members:     map[string]memberShape{"member_expression": {object: "object", property: "property"}},
	domQueries:  true,
}

var jsDoc = docStyle{
	comments: []string{"comment"},
	markers:  []string{"/**"},
	transparent: func(t *syntax.Tree, n syntax.NodeID) bool {
		switch t.Kind(n) {
		case "decorator", "accessibility_modifier", ";":
			return true
		}
		return false
	},
}

// exportInfo says how a declaration was reached through an export
// statement.
type exportInfo struct {
	exported  bool
	isDefault bool
	stmt      syntax.NodeID
}

var notExported = exportInfo{stmt: syntax.NoNode}

// docTarget is the node whose preceding comment documents decl.
func (e exportInfo) docTarget(decl syntax.NodeID) syntax.NodeID {
	if e.stmt != syntax.NoNode {
		return e.stmt
	}
	return decl
}

type jsExtraction struct {
	*extraction
	t     *syntax.Tree
	calls *callResolver
}

func newJSExtraction(x *extraction) *jsExtraction {
	return &jsExtraction{extraction: x, t: x.tree, calls: x.resolver(jsCalls)}
}

func (j *jsExtraction) run() {
	root := j.t.Root()
	j.emitModule("")
	j.calls.resolve(j.module, root, j.ownedByDeclaration)

	w := j.worklist()
	w.pushChildren(root, NewScope(j.module, "."), 0)
	for f, ok := w.pop(); ok; f, ok = w.pop() {
		switch classifyJS(j.t.Kind(f.node)) {
		case jsFunction:
			j.function(f.node, f.scope, notExported)
		case jsClass:
			j.class(f.node, f.scope, notExported)
		case jsVariable:
			j.variable(f, notExported, w)
		case jsImport:
			j.importStatement(f.node)
		case jsExport:
			j.exportStatement(f, w)
		case jsInterface:
			j.interfaceDecl(f.node, f.scope, notExported)
		case jsTypeAlias:
			j.typeAlias(f.node, f.scope, notExported)
		case jsEnum:
			j.enumDecl(f.node, f.scope, notExported)
		case jsNamespace:
			j.namespace(f, w)
		default:
			w.pushChildren(f.node, f.scope, f.depth)
		}
	}
}

// ownedByDeclaration reports whether the calls under n belong to an emitted
// declaration rather than to the module.
func (j *jsExtraction) ownedByDeclaration(n syntax.NodeID) bool {
	switch classifyJS(j.t.Kind(n)) {
	case jsFunction, jsClass:
		return j.t.FieldText(n, "name") != ""
	}
	if !jsFunctionValues[j.t.Kind(n)] {
		return false
	}
	decl := j.t.Parent(n)
	return j.t.Kind(decl) == "variable_declarator" &&
		j.t.Field(decl, "value") == n &&
		j.t.Kind(j.t.Field(decl, "name")) == "identifier"
}

func (j *jsExtraction) function(n syntax.NodeID, scope Scope, exp exportInfo) {
	name := j.t.FieldText(n, "name")
	if name == "" {
		return
	}
	qn := scope.Qualify(name)

	meta := Metadata{
		"signature":         jsParams.render(j.t, j.t.Field(n, "parameters")),
		"is_async":          j.t.HasChild(n, "async"),
		"is_generator":      j.t.Kind(n) == "generator_function_declaration",
		"exported":          exp.exported,
		"is_default_export": exp.isDefault,
	}
	if rt := returnType(j.t, n); rt != "" {
		meta["return_type"] = rt
	}
	j.emit(j.entity(n, qn, KindFunction, jsDoc.intent(j.t, exp.docTarget(n)), meta))
	j.result.relate(j.module, qn, RelContains, nil)
	j.exportRelation(qn, name, exp)
	j.calls.resolve(qn, j.t.Field(n, "body"), nil)
}

func (j *jsExtraction) exportRelation(qn, name string, exp exportInfo) {
	if exp.exported {
		j.result.relate(j.module, qn, RelExports, Metadata{"name": name, "is_default": exp.isDefault})
	}
}

// returnType reads a TypeScript return annotation (`: T`).
func returnType(t *syntax.Tree, n syntax.NodeID) string {
	rt := t.FieldText(n, "return_type")
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(rt), ":"))
}

// variable handles `const f = () => ...` functions and `require()` imports.
// Other initializers are walked for nested declarations.
func (j *jsExtraction) variable(f frame, exp exportInfo, w *worklist) {
	var rest []syntax.NodeID
	for _, decl := range j.t.ChildrenOfKind(f.node, "variable_declarator") {
		name := j.t.Field(decl, "name")
		value := j.t.Field(decl, "value")
		switch {
		case jsFunctionValues[j.t.Kind(value)] && j.t.Kind(name) == "identifier":
			j.variableFunction(f.node, name, value, f.scope, exp)
		case requireSource(j.t, value) != "":
			j.require(name, requireSource(j.t, value))
		case value != syntax.NoNode:
			rest = append(rest, value)
		}
	}
	for i := len(rest) - 1; i >= 0; i-- {
		w.push(rest[i], f.scope, f.depth+1)
	}
}

func (j *jsExtraction) variableFunction(stmt, nameNode, value syntax.NodeID, scope Scope, exp exportInfo) {
	name := j.t.Text(nameNode)
	qn := scope.Qualify(name)

	params := j.t.Field(value, "parameters")
	if params == syntax.NoNode {
		params = j.t.Field(value, "parameter")
	}
	meta := Metadata{
		"signature":         jsParams.render(j.t, params),
		"is_async":          j.t.HasChild(value, "async"),
		"is_arrow":          j.t.Kind(value) == "arrow_function",
		"exported":          exp.exported,
		"is_default_export": exp.isDefault,
	}
	if rt := returnType(j.t, value); rt != "" {
		meta["return_type"] = rt
	}
	j.emit(j.entity(stmt, qn, KindFunction, jsDoc.intent(j.t, exp.docTarget(stmt)), meta))
	j.result.relate(j.module, qn, RelContains, nil)
	j.exportRelation(qn, name, exp)
	j.calls.resolve(qn, j.t.Field(value, "body"), nil)
}

// requireSource returns the module path of a `require('x')` call, or "".
func requireSource(t *syntax.Tree, n syntax.NodeID) string {
	if t.Kind(n) != "call_expression" {
		return ""
	}
	fn := t.Field(n, "function")
	if t.Kind(fn) != "identifier" || t.Text(fn) != "require" {
		return ""
	}
	args := t.NamedChildren(t.Field(n, "arguments"))
	if len(args) == 0 || t.Kind(args[0]) != "string" {
		return ""
	}
	return unquote(t.Text(args[0]))
}

func (j *jsExtraction) require(name syntax.NodeID, source string) {
	specs := []ImportSpecifier{}
	switch j.t.Kind(name) {
	case "identifier":
		specs = append(specs, ImportSpecifier{Name: j.t.Text(name), Type: SpecDefault})
	case "object_pattern":
		for _, p := range j.t.NamedChildren(name) {
			switch j.t.Kind(p) {
			case "shorthand_property_identifier_pattern":
				specs = append(specs, ImportSpecifier{Name: j.t.Text(p), Type: SpecNamed})
			case "pair_pattern":
				local := j.t.Field(p, "value")
				if j.t.Kind(local) == "assignment_pattern" {
					local = j.t.Field(local, "left")
				}
				specs = append(specs, ImportSpecifier{
					Name:     j.t.Text(local),
					Type:     SpecNamed,
					Original: j.t.FieldText(p, "key"),
				})
			}
		}
	}
	j.result.relate(j.module, source, RelImports, Metadata{"specifiers": specs, "style": "commonjs"})
}

func (j *jsExtraction) importStatement(n syntax.NodeID) {
	source := unquote(j.t.FieldText(n, "source"))
	specs := []ImportSpecifier{}

	for _, clause := range j.t.NamedChildren(n) {
		switch j.t.Kind(clause) {
		case "import_clause":
			specs = append(specs, j.importClause(clause)...)
		case "import_require_clause":
			// import x = require('y')
			if source == "" {
				source = unquote(j.t.FieldText(clause, "source"))
			}
			if id := j.t.Child(clause, "identifier"); id != syntax.NoNode {
				specs = append(specs, ImportSpecifier{Name: j.t.Text(id), Type: SpecDefault})
			}
		}
	}
	if source == "" {
		return
	}
	j.result.relate(j.module, source, RelImports, Metadata{"specifiers": specs})
}

func (j *jsExtraction) importClause(clause syntax.NodeID) []ImportSpecifier {
	var specs []ImportSpecifier
	for _, c := range j.t.NamedChildren(clause) {
		switch j.t.Kind(c) {
		case "identifier":
			specs = append(specs, ImportSpecifier{Name: j.t.Text(c), Type: SpecDefault})
		case "namespace_import":
			if id := j.t.Child(c, "identifier"); id != syntax.NoNode {
				specs = append(specs, ImportSpecifier{Name: j.t.Text(id), Type: SpecNamespace})
			}
		case "named_imports":
			for _, s := range j.t.ChildrenOfKind(c, "import_specifier") {
				name := unquote(j.t.FieldText(s, "name"))
				if alias := j.t.FieldText(s, "alias"); alias != "" {
					specs = append(specs, ImportSpecifier{Name: alias, Type: SpecNamed, Original: name})
				} else {
					specs = append(specs, ImportSpecifier{Name: name, Type: SpecNamed})
				}
			}
		}
	}
	return specs
}

func (j *jsExtraction) exportStatement(f frame, w *worklist) {
	n := f.node
	exp := exportInfo{exported: true, isDefault: j.t.HasChild(n, "default"), stmt: n}

	if decl := j.t.Field(n, "declaration"); decl != syntax.NoNode {
		switch classifyJS(j.t.Kind(decl)) {
		case jsFunction:
			j.function(decl, f.scope, exp)
		case jsClass:
			j.class(decl, f.scope, exp)
		case jsVariable:
			j.variable(frame{node: decl, scope: f.scope, depth: f.depth + 1}, exp, w)
		case jsInterface:
			j.interfaceDecl(decl, f.scope, exp)
		case jsTypeAlias:
			j.typeAlias(decl, f.scope, exp)
		case jsEnum:
			j.enumDecl(decl, f.scope, exp)
		default:
			w.push(decl, f.scope, f.depth+1)
		}
		return
	}

	source := unquote(j.t.FieldText(n, "source"))
	if clause := j.t.Child(n, "export_clause"); clause != syntax.NoNode {
		for _, spec := range j.t.ChildrenOfKind(clause, "export_specifier") {
			original := unquote(j.t.FieldText(spec, "name"))
			name := original
			if alias := j.t.FieldText(spec, "alias"); alias != "" {
				name = unquote(alias)
			}
			if source != "" {
				j.result.relate(j.module, source, RelReExports, Metadata{"name": name, "original": original})
			} else {
				j.result.relate(j.module, j.module+"."+original, RelExports, Metadata{
					"name":       name,
					"original":   original,
					"is_default": false,
				})
			}
		}
		return
	}

	if source != "" {
		// export * from './x', export * as ns from './x'
		name := "*"
		if ns := j.t.Child(n, "namespace_export"); ns != syntax.NoNode {
			if id := j.t.Child(ns, "identifier"); id != syntax.NoNode {
				name = j.t.Text(id)
			}
		}
		j.result.relate(j.module, source, RelReExports, Metadata{"name": name, "original": "*"})
		return
	}

	value := j.t.Field(n, "value")
	if j.t.FieldText(value, "name") != "" {
		// export default class App {} may parse as a named expression.
		switch j.t.Kind(value) {
		case "class":
			j.class(value, f.scope, exp)
			return
		case "function", "function_expression", "generator_function":
			j.function(value, f.scope, exp)
			return
		}
	}
	if exp.isDefault && j.t.Kind(value) == "identifier" {
		name := j.t.Text(value)
		j.result.relate(j.module, j.module+"."+name, RelExports, Metadata{
			"name":       name,
			"original":   name,
			"is_default": true,
		})
		return
	}
	if value != syntax.NoNode {
		w.push(value, f.scope, f.depth+1)
	}
}

func (j *jsExtraction) class(n syntax.NodeID, scope Scope, exp exportInfo) {
	name := j.t.FieldText(n, "name")
	if name == "" {
		return
	}
	qn := scope.Qualify(name)
	body := j.t.Field(n, "body")
	bases, implements := j.heritage(n)

	var methods, fields []string
	var members, initializers []syntax.NodeID
	for _, m := range j.t.NamedChildren(body) {
		switch j.t.Kind(m) {
		case "method_definition", "method_signature", "abstract_method_signature":
			if mn := j.t.FieldText(m, "name"); mn != "" {
				methods = append(methods, mn)
				members = append(members, m)
			}
		case "field_definition", "public_field_definition":
			fn := j.fieldName(m)
			if fn == "" {
				continue
			}
			if jsFunctionValues[j.t.Kind(j.t.Field(m, "value"))] {
				methods = append(methods, fn)
				members = append(members, m)
			} else {
				fields = append(fields, fn)
				if v := j.t.Field(m, "value"); v != syntax.NoNode {
					initializers = append(initializers, v)
				}
			}
		case "class_static_block":
			initializers = append(initializers, m)
		}
	}

	meta := Metadata{
		"bases":             nonNil(bases),
		"methods":           nonNil(methods),
		"fields":            nonNil(fields),
		"exported":          exp.exported,
		"is_default_export": exp.isDefault,
		"is_abstract":       j.t.Kind(n) == "abstract_class_declaration",
	}
	if len(implements) > 0 {
		meta["implements"] = implements
	}
	j.emit(j.entity(n, qn, KindClass, jsDoc.intent(j.t, exp.docTarget(n)), meta))
	j.result.relate(j.module, qn, RelContains, nil)
	j.exportRelation(qn, name, exp)

	owner := scope.EnterType(qn)
	for _, m := range members {
		j.method(m, owner)
	}
	// Field initializers and static blocks run as part of the class.
	for _, init := range initializers {
		j.calls.resolve(qn, init, nil)
	}
}

// heritage returns the extended and implemented types of a class.
func (j *jsExtraction) heritage(n syntax.NodeID) (bases, implements []string) {
	h := j.t.Child(n, "class_heritage")
	if h == syntax.NoNode {
		return nil, nil
	}
	ext := j.t.Child(h, "extends_clause")
	impl := j.t.Child(h, "implements_clause")
	if ext == syntax.NoNode && impl == syntax.NoNode {
		// JavaScript: class_heritage holds the base expression directly.
		for _, c := range j.t.NamedChildren(h) {
			if j.t.Kind(c) != "comment" {
				bases = append(bases, j.t.Text(c))
			}
		}
		return bases, nil
	}
	if ext != syntax.NoNode {
		values := j.t.FieldAll(ext, "value")
		if len(values) == 0 {
			values = j.t.NamedChildren(ext)
		}
		for _, v := range values {
			if j.t.Kind(v) != "type_arguments" {
				bases = append(bases, j.t.Text(v))
			}
		}
	}
	for _, c := range j.t.NamedChildren(impl) {
		implements = append(implements, j.t.Text(c))
	}
	return bases, implements
}

func (j *jsExtraction) fieldName(m syntax.NodeID) string {
	if name := j.t.FieldText(m, "property"); name != "" {
		return name
	}
	return j.t.FieldText(m, "name")
}

func (j *jsExtraction) method(m syntax.NodeID, owner Scope) {
	fn := m
	name := j.t.FieldText(m, "name")
	switch j.t.Kind(m) {
	case "field_definition", "public_field_definition":
		fn = j.t.Field(m, "value")
		name = j.fieldName(m)
	}
	qn := owner.Qualify(name)

	params := j.t.Field(fn, "parameters")
	if params == syntax.NoNode {
		params = j.t.Field(fn, "parameter")
	}
	meta := Metadata{
		"signature": jsParams.render(j.t, params),
		"is_async":  j.t.HasChild(fn, "async"),
		"is_static": j.t.HasChild(m, "static"),
	}
	switch {
	case j.t.HasChild(m, "get"):
		meta["accessor"] = "get"
	case j.t.HasChild(m, "set"):
		meta["accessor"] = "set"
	}
	if mod := j.t.Child(m, "accessibility_modifier"); mod != syntax.NoNode {
		meta["visibility"] = j.t.Text(mod)
	} else if strings.HasPrefix(name, "#") {
		meta["visibility"] = "private"
	}
	if j.t.Kind(m) == "abstract_method_signature" || j.t.HasChild(m, "abstract") {
		meta["is_abstract"] = true
	}
	if j.t.Kind(m) == "method_signature" || j.t.Kind(m) == "abstract_method_signature" {
		meta["is_declaration"] = true
	}
	if fn != m {
		meta["is_arrow"] = j.t.Kind(fn) == "arrow_function"
	}
	if rt := returnType(j.t, fn); rt != "" {
		meta["return_type"] = rt
	}

	j.emit(j.entity(m, qn, KindMethod, jsDoc.intent(j.t, m), meta))
	j.result.relate(qn, owner.Owner(), RelMemberOf, nil)
	j.calls.resolve(qn, j.t.Field(fn, "body"), nil)
}

func unquote(s string) string {
	return strings.Trim(strings.TrimSpace(s), "'\"`")
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
