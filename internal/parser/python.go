package parser

import (
	"strings"

	"github.com/heefoo/loomgraph/internal/syntax"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// PythonExtractor handles .py and .pyw files. A package's __init__.py is
// named after its directory.
type PythonExtractor struct {
	treeExtractor
}

func NewPythonExtractor(opts Options) *PythonExtractor {
	e := &PythonExtractor{}
	e.treeExtractor = treeExtractor{
		lang:       LangPython,
		extensions: []string{".py", ".pyw"},
		entryFiles: []string{"__init__.py"},
		opts:       opts.withDefaults(),
		grammar:    func(string) *sitter.Language { return python.GetLanguage() },
		extract:    func(x *extraction) { newPyExtraction(x).run() },
	}
	return e
}

type pyKind int

const (
	pyOther pyKind = iota
	pyFunction
	pyClass
	pyDecorated
	pyImport
	pyFromImport
)

func classifyPy(kind string) pyKind {
	switch kind {
	case "function_definition":
		return pyFunction
	case "class_definition":
		return pyClass
	case "decorated_definition":
		return pyDecorated
	case "import_statement":
		return pyImport
	case "import_from_statement", "future_import_statement":
		return pyFromImport
	}
	return pyOther
}

var pyParams = paramStyle{
	params:   kindSet("identifier", "typed_parameter", "default_parameter", "typed_default_parameter"),
	variadic: kindSet("list_splat_pattern", "dictionary_splat_pattern"),
	wrappers: kindSet("typed_parameter"),
}

var pyCalls = callStyle{
	calls:       kindSet("call"),
	callee:      "function",
	arguments:   "arguments",
	identifiers: kindSet("identifier"),
	members:     map[string]memberShape{"attribute": {object: "object", property: "attribute"}},
}

type pyExtraction struct {
	*extraction
	t     *syntax.Tree
	calls *callResolver
}

func newPyExtraction(x *extraction) *pyExtraction {
	return &pyExtraction{extraction: x, t: x.tree, calls: x.resolver(pyCalls)}
}

func (p *pyExtraction) run() {
	root := p.t.Root()
	p.emitModule(docstring(p.t, root))

	w := p.worklist()
	w.pushChildren(root, NewScope(p.module, "."), 0)
	for f, ok := w.pop(); ok; f, ok = w.pop() {
		n := f.node
		switch classifyPy(p.t.Kind(n)) {
		case pyFunction:
			p.function(n, f.scope, nil)
		case pyClass:
			p.class(f, nil, w)
		case pyDecorated:
			def := p.t.Field(n, "definition")
			switch classifyPy(p.t.Kind(def)) {
			case pyFunction:
				p.function(def, f.scope, p.decorators(n))
			case pyClass:
				p.class(frame{node: def, scope: f.scope, depth: f.depth + 1}, p.decorators(n), w)
			}
		case pyImport:
			p.importStatement(n)
		case pyFromImport:
			p.fromImport(n)
		default:
			w.pushChildren(n, f.scope, f.depth)
		}
	}
}

func (p *pyExtraction) decorators(n syntax.NodeID) []string {
	var out []string
	for _, d := range p.t.ChildrenOfKind(n, "decorator") {
		out = append(out, strings.TrimSpace(strings.TrimPrefix(p.t.Text(d), "@")))
	}
	return out
}

func (p *pyExtraction) function(n syntax.NodeID, scope Scope, decorators []string) {
	name := p.t.FieldText(n, "name")
	if name == "" {
		return
	}
	qn := scope.Qualify(name)
	body := p.t.Field(n, "body")

	meta := Metadata{
		"signature":  pyParams.render(p.t, p.t.Field(n, "parameters")),
		"is_async":   p.t.HasChild(n, "async"),
		"decorators": nonNil(decorators),
	}
	if rt := p.t.FieldText(n, "return_type"); rt != "" {
		meta["return_type"] = rt
	}
	p.emit(p.entity(n, qn, KindFunction, docstring(p.t, body), meta))
	p.result.relate(p.container(scope), qn, RelContains, nil)
	p.calls.resolve(qn, body, nil)
}

func (p *pyExtraction) class(f frame, decorators []string, w *worklist) {
	n := f.node
	name := p.t.FieldText(n, "name")
	if name == "" {
		return
	}
	qn := f.scope.Qualify(name)
	body := p.t.Field(n, "body")

	bases := []string{}
	for _, b := range p.t.NamedChildren(p.t.Field(n, "superclasses")) {
		switch p.t.Kind(b) {
		case "keyword_argument", "comment", "list_splat", "dictionary_splat":
		default:
			bases = append(bases, p.t.Text(b))
		}
	}

	type member struct {
		node       syntax.NodeID
		decorators []string
	}
	var methods []string
	var members []member
	var nested []syntax.NodeID
	for _, c := range p.t.NamedChildren(body) {
		def, decs := c, []string(nil)
		if p.t.Kind(c) == "decorated_definition" {
			def, decs = p.t.Field(c, "definition"), p.decorators(c)
		}
		switch p.t.Kind(def) {
		case "function_definition":
			if mn := p.t.FieldText(def, "name"); mn != "" {
				methods = append(methods, mn)
				members = append(members, member{node: def, decorators: decs})
			}
		case "class_definition":
			nested = append(nested, def)
		}
	}

	meta := Metadata{
		"bases":      bases,
		"methods":    nonNil(methods),
		"decorators": nonNil(decorators),
	}
	p.emit(p.entity(n, qn, KindClass, docstring(p.t, body), meta))
	p.result.relate(p.container(f.scope), qn, RelContains, nil)

	owner := f.scope.EnterType(qn)
	for _, m := range members {
		p.method(m.node, owner, m.decorators)
	}
	for i := len(nested) - 1; i >= 0; i-- {
		w.push(nested[i], owner, f.depth+1)
	}
}

func (p *pyExtraction) method(n syntax.NodeID, owner Scope, decorators []string) {
	qn := owner.Qualify(p.t.FieldText(n, "name"))
	body := p.t.Field(n, "body")

	meta := Metadata{
		"signature":      pyParams.render(p.t, p.t.Field(n, "parameters")),
		"is_async":       p.t.HasChild(n, "async"),
		"is_static":      hasDecorator(decorators, "staticmethod"),
		"is_classmethod": hasDecorator(decorators, "classmethod"),
		"is_property":    hasDecorator(decorators, "property"),
		"decorators":     nonNil(decorators),
	}
	if rt := p.t.FieldText(n, "return_type"); rt != "" {
		meta["return_type"] = rt
	}
	p.emit(p.entity(n, qn, KindMethod, docstring(p.t, body), meta))
	p.result.relate(qn, owner.Owner(), RelMemberOf, nil)
	p.calls.resolve(qn, body, nil)
}

func hasDecorator(decorators []string, name string) bool {
	for _, d := range decorators {
		base, _, _ := strings.Cut(d, "(")
		if base == name {
			return true
		}
	}
	return false
}

// importStatement handles `import a.b` and `import a.b as c`, one edge per
// imported module.
func (p *pyExtraction) importStatement(n syntax.NodeID) {
	for _, c := range p.t.FieldAll(n, "name") {
		switch p.t.Kind(c) {
		case "dotted_name":
			name := p.t.Text(c)
			p.result.relate(p.module, name, RelImports, Metadata{
				"style":      "import",
				"specifiers": []ImportSpecifier{{Name: name, Type: SpecNamespace}},
			})
		case "aliased_import":
			name := p.t.FieldText(c, "name")
			alias := p.t.FieldText(c, "alias")
			p.result.relate(p.module, name, RelImports, Metadata{
				"style":      "import",
				"alias":      alias,
				"specifiers": []ImportSpecifier{{Name: alias, Type: SpecNamespace, Original: name}},
			})
		}
	}
}

// fromImport handles `from x import a, b as c` and `from . import y`.
// Relative module paths keep their leading dots.
func (p *pyExtraction) fromImport(n syntax.NodeID) {
	module := p.t.FieldText(n, "module_name")
	if p.t.Kind(n) == "future_import_statement" {
		module = "__future__"
	}
	if module == "" {
		return
	}

	specs := []ImportSpecifier{}
	if p.t.HasChild(n, "wildcard_import") {
		specs = append(specs, ImportSpecifier{Name: "*", Type: SpecNamespace})
	}
	for _, c := range p.t.FieldAll(n, "name") {
		switch p.t.Kind(c) {
		case "dotted_name":
			specs = append(specs, ImportSpecifier{Name: p.t.Text(c), Type: SpecNamed})
		case "aliased_import":
			specs = append(specs, ImportSpecifier{
				Name:     p.t.FieldText(c, "alias"),
				Type:     SpecNamed,
				Original: p.t.FieldText(c, "name"),
			})
		}
	}
	p.result.relate(p.module, module, RelImports, Metadata{"style": "from", "specifiers": specs})
}
