package parser

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/heefoo/loomgraph/internal/syntax"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/cpp"
)

// CppExtractor handles C and C++ sources and headers, including Unreal
// Engine reflection macros.
type CppExtractor struct {
	treeExtractor
}

func NewCppExtractor(opts Options) *CppExtractor {
	e := &CppExtractor{}
	e.treeExtractor = treeExtractor{
		lang:       LangCPP,
		extensions: []string{".h", ".hpp", ".hxx", ".h++", ".c", ".cpp", ".cc", ".cxx", ".c++"},
		opts:       opts.withDefaults(),
		grammar:    func(string) *sitter.Language { return cpp.GetLanguage() },
		extract:    func(x *extraction) { newCppExtraction(x).run() },
	}
	return e
}

type cppKind int

const (
	cppOther cppKind = iota
	cppInclude
	cppNamespace
	cppType
	cppEnum
	cppFunction
	cppDeclaration
)

func classifyCpp(kind string) cppKind {
	switch kind {
	case "preproc_include":
		return cppInclude
	case "namespace_definition":
		return cppNamespace
	case "class_specifier", "struct_specifier", "union_specifier":
		return cppType
	case "enum_specifier":
		return cppEnum
	case "function_definition":
		return cppFunction
	case "declaration":
		return cppDeclaration
	}
	return cppOther
}

var cppParams = paramStyle{
	params:   kindSet("parameter_declaration", "optional_parameter_declaration"),
	variadic: kindSet("variadic_parameter", "variadic_parameter_declaration"),
}

var cppCalls = callStyle{
	calls:       kindSet("call_expression"),
	constructs:  map[string]string{"new_expression": "type"},
	callee:      "function",
	arguments:   "arguments",
	identifiers: kindSet("identifier"),
	receivers:   kindSet("this"),
	members:     map[string]memberShape{"field_expression": {object: "argument", property: "field"}},
	scoped:      kindSet("qualified_identifier"),
	templated:   map[string]string{"template_function": "name"},
}

var cppDoc = docStyle{
	comments: []string{"comment"},
	markers:  []string{"/**", "/*!"},
	transparent: func(t *syntax.Tree, n syntax.NodeID) bool {
		switch t.Kind(n) {
		case "attribute_declaration", "attribute_specifier", "preproc_call", ";":
			return true
		}
		return ueMacroStatement(t, n)
	},
}

var (
	pureVirtual = regexp.MustCompile(`=\s*0\s*;?\s*$`)
	// Words before a declarator that are not part of the return type.
	cppSpecifierWords = []string{"virtual", "static", "inline", "explicit", "constexpr", "friend", "extern"}
)

type cppExtraction struct {
	*extraction
	t     *syntax.Tree
	calls *callResolver
}

func newCppExtraction(x *extraction) *cppExtraction {
	return &cppExtraction{extraction: x, t: x.tree, calls: x.resolver(cppCalls)}
}

func (c *cppExtraction) run() {
	c.emitModule("")

	w := c.worklist()
	w.pushChildren(c.t.Root(), NewScope(c.module, "::"), 0)
	for f, ok := w.pop(); ok; f, ok = w.pop() {
		switch classifyCpp(c.t.Kind(f.node)) {
		case cppInclude:
			c.include(f.node)
		case cppNamespace:
			c.namespace(f, w)
		case cppType:
			c.typeDecl(f, w)
		case cppEnum:
			c.enumDecl(f)
		case cppFunction:
			if rt, ok := recoverMisparsedType(c.t, f.node); ok {
				c.recovered(f, rt, w)
				continue
			}
			c.function(f)
		case cppDeclaration:
			if rt, ok := recoverMisparsedType(c.t, f.node); ok {
				c.recovered(f, rt, w)
				continue
			}
			if !c.prototype(f) {
				w.pushChildren(f.node, f.scope, f.depth)
			}
		default:
			w.pushChildren(f.node, f.scope, f.depth)
		}
	}
}

func (c *cppExtraction) include(n syntax.NodeID) {
	path := c.t.Field(n, "path")
	if path == syntax.NoNode {
		return
	}
	target := strings.Trim(strings.TrimSpace(c.t.Text(path)), `"<>`)
	c.result.relate(c.module, target, RelImports, Metadata{
		"style":     "include",
		"is_system": c.t.Kind(path) == "system_lib_string",
	})
}

func (c *cppExtraction) namespace(f frame, w *worklist) {
	scope := f.scope
	name := c.t.FieldText(f.node, "name")
	if name == "" {
		scope = scope.EnterNamespace("")
	}
	for _, part := range strings.Split(name, "::") {
		if part = strings.TrimSpace(part); part != "" {
			scope = scope.EnterNamespace(part)
		}
	}
	if body := c.t.Field(f.node, "body"); body != syntax.NoNode {
		w.pushChildren(body, scope, f.depth)
	}
}

// anchor climbs from a specifier to the statement that carries its
// comments and macros: `template <..> class X {}` or `class X {} x;`.
func (c *cppExtraction) anchor(n syntax.NodeID) syntax.NodeID {
	for {
		parent := c.t.Parent(n)
		switch c.t.Kind(parent) {
		case "template_declaration", "declaration", "field_declaration", "type_definition":
			n = parent
		default:
			return n
		}
	}
}

func (c *cppExtraction) isTemplate(anchor syntax.NodeID) bool {
	return c.t.Kind(anchor) == "template_declaration" || c.t.Kind(c.t.Parent(anchor)) == "template_declaration"
}

// cppMember is a method found while scanning a class body. declarator is
// a function_declarator, or the call_expression of a member the grammar
// misread as a call statement.
type cppMember struct {
	node       syntax.NodeID
	declarator syntax.NodeID
	name       string
	returnType string // set when the declared type ended up in an error node
	visibility string
	isTemplate bool
	macros     []string // reflection macros that preceded the member
}

// cppBody is what a class body scan collects before the class is emitted.
type cppBody struct {
	methods    []string
	fields     []string
	properties []string
	members    []cppMember
	nested     []syntax.NodeID
}

func (c *cppExtraction) typeDecl(f frame, w *worklist) {
	n := f.node
	nameNode := c.t.Field(n, "name")
	body := c.t.Field(n, "body")
	if nameNode == syntax.NoNode || body == syntax.NoNode {
		// Forward declarations and anonymous types.
		if body != syntax.NoNode {
			w.pushChildren(body, f.scope, f.depth)
		}
		return
	}
	name := stripTemplateArgs(c.t.Text(nameNode))
	qn := f.scope.Qualify(name)
	anchor := c.anchor(n)
	isStruct := c.t.Kind(n) != "class_specifier"

	defaultVisibility := "private"
	if isStruct {
		defaultVisibility = "public"
	}
	scanned := c.scanBody(body, defaultVisibility)
	ue := readUnrealSpecifiers(c.t, anchor, true)

	meta := Metadata{
		"bases":         c.bases(n),
		"methods":       nonNil(scanned.methods),
		"fields":        nonNil(scanned.fields),
		"namespace":     f.scope.Namespace(),
		"is_struct":     isStruct,
		"is_template":   c.isTemplate(anchor),
		"is_uclass":     ue.isUClass,
		"ue_specifiers": ue.list(),
		"language":      string(c.lang),
	}
	if isStruct {
		meta["is_ustruct"] = ue.isUStruct
	}
	if c.t.Kind(n) == "union_specifier" {
		meta["is_union"] = true
	}
	if len(scanned.properties) > 0 {
		meta["ue_properties"] = scanned.properties
	}

	c.emit(c.entity(n, qn, KindClass, cppDoc.intent(c.t, anchor), meta))
	c.result.relate(c.container(f.scope), qn, RelContains, nil)
	c.emitMembers(qn, f, scanned, w)
}

// recovered emits a class rebuilt from a misparsed function definition.
func (c *cppExtraction) recovered(f frame, rt recoveredType, w *worklist) {
	qn := f.scope.Qualify(c.t.Text(rt.name))
	c.log.WithField("type", qn).Debug("recovered misparsed type declaration")

	var scanned cppBody
	if rt.body != syntax.NoNode {
		visibility := "private"
		if rt.isStruct {
			visibility = "public"
		}
		scanned = c.scanBody(rt.body, visibility)
	}
	ue := readUnrealSpecifiers(c.t, f.node, true)

	meta := Metadata{
		"bases":         rt.bases,
		"methods":       nonNil(scanned.methods),
		"fields":        nonNil(scanned.fields),
		"namespace":     f.scope.Namespace(),
		"is_struct":     rt.isStruct,
		"is_uclass":     true,
		"recovered":     true,
		"ue_specifiers": ue.list(),
		"language":      string(c.lang),
	}
	if rt.isStruct {
		meta["is_ustruct"] = ue.isUStruct
	}
	if len(scanned.properties) > 0 {
		meta["ue_properties"] = scanned.properties
	}

	c.emit(c.entity(f.node, qn, KindClass, cppDoc.intent(c.t, f.node), meta))
	c.result.relate(c.container(f.scope), qn, RelContains, nil)
	c.emitMembers(qn, f, scanned, w)
}

func (c *cppExtraction) bases(n syntax.NodeID) []string {
	bases := []string{}
	clause := c.t.Child(n, "base_class_clause")
	for _, b := range c.t.NamedChildren(clause) {
		switch c.t.Kind(b) {
		case "type_identifier", "qualified_identifier", "template_type":
			bases = append(bases, c.t.Text(b))
		case "base_class_specifier":
			if ty := c.t.Child(b, "type_identifier", "qualified_identifier", "template_type"); ty != syntax.NoNode {
				bases = append(bases, c.t.Text(ty))
			}
		}
	}
	return bases
}

// bodyScan walks the members of a class body in source order. Reflection
// macros and stray return types are held until the member they belong to.
type bodyScan struct {
	c           *cppExtraction
	t           *syntax.Tree
	visibility  string
	macros      []string
	pendingType string
	out         cppBody
}

// scanBody sorts the members of a class body. Access specifiers change the
// visibility of the members after them. Error nodes, access labels and
// designators left by misparses are walked through.
func (c *cppExtraction) scanBody(body syntax.NodeID, visibility string) cppBody {
	s := &bodyScan{c: c, t: c.t, visibility: visibility}
	s.items(c.t.Children(body))
	return s.out
}

func (s *bodyScan) items(nodes []syntax.NodeID) {
	for _, n := range nodes {
		s.item(n)
	}
}

func (s *bodyScan) item(n syntax.NodeID) {
	t := s.t
	kind := t.Kind(n)
	switch kind {
	case "expression_statement", "declaration", "field_declaration", "function_declarator",
		"call_expression", "field_initializer", syntax.KindError:
		if macro, ok := bareUnrealMacro(t.Text(n)); ok {
			s.macros = append(s.macros, macro)
			return
		}
	}

	switch kind {
	case "access_specifier":
		s.visibility = strings.TrimSpace(strings.TrimSuffix(t.Text(n), ":"))
	case "labeled_statement":
		s.accessLabel(n, t.Field(n, "label"))
	case "initializer_pair":
		s.accessLabel(n, t.Field(n, "designator"))
	case syntax.KindError, "field_initializer_list":
		s.items(t.Children(n))
	case "identifier":
		// Only reached inside error nodes.
		if text := t.Text(n); isAccessKeyword(text) {
			s.visibility = text
		} else {
			s.pendingType = text
		}
	case "primitive_type", "type_identifier", "sized_type_specifier", "template_type", "qualified_identifier":
		s.pendingType = t.Text(n)
	case "template_declaration":
		inner := t.Child(n, "function_definition", "declaration", "field_declaration",
			"class_specifier", "struct_specifier")
		switch t.Kind(inner) {
		case "class_specifier", "struct_specifier":
			s.nested(inner)
		case "function_definition", "declaration", "field_declaration":
			s.member(inner, true)
		}
	case "function_definition", "declaration", "field_declaration":
		s.member(n, false)
	case "function_declarator":
		if name := memberName(t, t.Field(n, "declarator")); name != "" {
			s.addMethod(cppMember{node: n, declarator: n, name: name, returnType: s.pendingType})
		}
	case "expression_statement":
		if call := t.Child(n, "call_expression"); call != syntax.NoNode {
			s.callMember(n, call)
		}
	case "call_expression":
		s.callMember(n, n)
	case "class_specifier", "struct_specifier", "union_specifier", "enum_specifier":
		s.nested(n)
	}
}

// accessLabel handles `public:` read as a statement label or designator,
// with the following member nested under it.
func (s *bodyScan) accessLabel(n, label syntax.NodeID) {
	text := s.t.Text(label)
	if !isAccessKeyword(text) {
		return
	}
	s.visibility = text
	for _, c := range s.t.Children(n) {
		if c != label {
			s.item(c)
		}
	}
}

func (s *bodyScan) member(m syntax.NodeID, isTemplate bool) {
	t := s.t
	for _, e := range t.ChildrenOfKind(m, syntax.KindError) {
		s.items(t.Children(e))
	}

	if fd := functionDeclarator(t, m); fd != syntax.NoNode {
		name := memberName(t, t.Field(fd, "declarator"))
		if name == "" {
			s.reset()
			return
		}
		returnType := ""
		if t.Field(m, "type") == syntax.NoNode {
			returnType = s.pendingType
		}
		s.addMethod(cppMember{node: m, declarator: fd, name: name, returnType: returnType, isTemplate: isTemplate})
		return
	}

	if ty := t.Field(m, "type"); s.c.isNestedType(ty) {
		s.out.nested = append(s.out.nested, ty)
	}
	isProperty := readUnrealSpecifiers(t, m, false).isUProperty || s.hasMacro(uePropertyMacros)
	for _, field := range fieldNames(t, m) {
		s.out.fields = append(s.out.fields, field)
		if isProperty {
			s.out.properties = append(s.out.properties, field)
		}
	}
	s.reset()
}

// callMember handles a declaration the grammar read as a call statement,
// such as a constructor `AHero();` in a misparsed body.
func (s *bodyScan) callMember(n, call syntax.NodeID) {
	fn := s.t.Field(call, "function")
	if s.t.Kind(fn) != "identifier" || isUnrealMacro(s.t.Text(fn)) {
		s.reset()
		return
	}
	s.addMethod(cppMember{node: n, declarator: call, name: s.t.Text(fn), returnType: s.pendingType})
}

func (s *bodyScan) addMethod(m cppMember) {
	m.visibility = s.visibility
	for _, macro := range s.macros {
		if hasString(ueFunctionMacros, leadingMacro(macro)) {
			m.macros = append(m.macros, macro)
		}
	}
	s.out.methods = append(s.out.methods, m.name)
	s.out.members = append(s.out.members, m)
	s.reset()
}

func (s *bodyScan) nested(n syntax.NodeID) {
	if s.c.isNestedType(n) {
		s.out.nested = append(s.out.nested, n)
	}
	s.reset()
}

func (s *bodyScan) hasMacro(names []string) bool {
	for _, macro := range s.macros {
		if hasString(names, leadingMacro(macro)) {
			return true
		}
	}
	return false
}

func (s *bodyScan) reset() {
	s.macros = nil
	s.pendingType = ""
}

func isAccessKeyword(s string) bool {
	return s == "public" || s == "private" || s == "protected"
}

func (c *cppExtraction) isNestedType(n syntax.NodeID) bool {
	switch c.t.Kind(n) {
	case "class_specifier", "struct_specifier", "union_specifier", "enum_specifier":
		return c.t.Field(n, "body") != syntax.NoNode && c.t.Field(n, "name") != syntax.NoNode
	}
	return false
}

func (c *cppExtraction) emitMembers(owner string, f frame, body cppBody, w *worklist) {
	scope := f.scope.EnterType(owner)
	for _, m := range body.members {
		c.method(m, scope)
	}
	for i := len(body.nested) - 1; i >= 0; i-- {
		w.push(body.nested[i], scope, f.depth+1)
	}
}

func (c *cppExtraction) method(m cppMember, owner Scope) {
	qn := owner.Qualify(m.name)
	isDefinition := c.t.Kind(m.node) == "function_definition"
	ue := readUnrealSpecifiers(c.t, m.node, false)
	for _, macro := range m.macros {
		ue.apply(macro)
	}
	words := c.prefixWords(m.node, m.declarator)
	returnType := m.returnType
	if returnType == "" {
		returnType = c.returnType(m.node, m.declarator)
	}

	meta := Metadata{
		"signature":       c.memberSignature(m.declarator),
		"return_type":     returnType,
		"visibility":      m.visibility,
		"is_virtual":      hasString(words, "virtual") || c.t.HasChild(m.node, "virtual_function_specifier"),
		"is_static":       hasString(words, "static"),
		"is_const":        isConstMethod(c.t, m.declarator),
		"is_pure_virtual": !isDefinition && pureVirtual.MatchString(c.t.Text(m.node)),
		"is_declaration":  !isDefinition,
		"is_template":     m.isTemplate,
		"is_override":     hasVirtualSpecifier(c.t, m.declarator, "override"),
		"is_ufunction":    ue.isUFunction,
		"ue_specifiers":   ue.list(),
		"language":        string(c.lang),
	}
	c.emit(c.entity(m.node, qn, KindMethod, cppDoc.intent(c.t, m.node), meta))
	c.result.relate(qn, owner.Owner(), RelMemberOf, nil)
	if isDefinition {
		c.calls.resolve(qn, c.t.Field(m.node, "body"), nil)
	}
}

func (c *cppExtraction) memberSignature(d syntax.NodeID) string {
	if c.t.Kind(d) != "call_expression" {
		return cppParams.render(c.t, c.t.Field(d, "parameters"))
	}
	var parts []string
	for _, a := range c.t.NamedChildren(c.t.Field(d, "arguments")) {
		parts = append(parts, c.t.Text(a))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// function handles a function definition outside any class body: a free
// function, or a method defined out of class as `Owner::name`.
func (c *cppExtraction) function(f frame) {
	n := f.node
	fd := functionDeclarator(c.t, n)
	if fd == syntax.NoNode {
		return
	}
	nameNode := c.t.Field(fd, "declarator")
	if c.t.Kind(nameNode) == "qualified_identifier" {
		c.outOfClassMethod(f, fd, nameNode)
		return
	}
	name := memberName(c.t, nameNode)
	if name == "" {
		return
	}
	c.freeFunction(f, fd, name, true)
}

// prototype handles a top-level function declaration and reports whether
// the declaration was one.
func (c *cppExtraction) prototype(f frame) bool {
	fd := functionDeclarator(c.t, f.node)
	if fd == syntax.NoNode {
		return false
	}
	nameNode := c.t.Field(fd, "declarator")
	if c.t.Kind(nameNode) == "qualified_identifier" {
		return true
	}
	if name := memberName(c.t, nameNode); name != "" {
		c.freeFunction(f, fd, name, false)
	}
	return true
}

func (c *cppExtraction) freeFunction(f frame, fd syntax.NodeID, name string, isDefinition bool) {
	n := f.node
	qn := f.scope.Qualify(name)
	anchor := c.anchor(n)
	words := c.prefixWords(n, fd)

	meta := Metadata{
		"signature":      cppParams.render(c.t, c.t.Field(fd, "parameters")),
		"return_type":    c.returnType(n, fd),
		"namespace":      f.scope.Namespace(),
		"is_static":      hasString(words, "static"),
		"is_inline":      hasString(words, "inline"),
		"is_template":    c.isTemplate(anchor),
		"is_declaration": !isDefinition,
		"language":       string(c.lang),
	}
	c.emit(c.entity(n, qn, KindFunction, cppDoc.intent(c.t, anchor), meta))
	c.result.relate(c.container(f.scope), qn, RelContains, nil)
	if isDefinition {
		c.calls.resolve(qn, c.t.Field(n, "body"), nil)
	}
}

func (c *cppExtraction) outOfClassMethod(f frame, fd, nameNode syntax.NodeID) {
	parts := splitScoped(c.t.Text(nameNode))
	if len(parts) < 2 {
		return
	}
	scope := f.scope
	for _, ns := range parts[:len(parts)-2] {
		scope = scope.EnterNamespace(stripTemplateArgs(ns))
	}
	owner := scope.Qualify(stripTemplateArgs(parts[len(parts)-2]))
	qn := owner + "." + parts[len(parts)-1]
	anchor := c.anchor(f.node)

	meta := Metadata{
		"signature":                  cppParams.render(c.t, c.t.Field(fd, "parameters")),
		"return_type":                c.returnType(f.node, fd),
		"is_const":                   isConstMethod(c.t, fd),
		"is_template":                c.isTemplate(anchor),
		"is_out_of_class_definition": true,
		"language":                   string(c.lang),
	}
	c.emit(c.entity(f.node, qn, KindMethod, cppDoc.intent(c.t, anchor), meta))
	c.result.relate(qn, owner, RelMemberOf, nil)
	c.calls.resolve(qn, c.t.Field(f.node, "body"), nil)
}

func (c *cppExtraction) enumDecl(f frame) {
	n := f.node
	nameNode := c.t.Field(n, "name")
	body := c.t.Field(n, "body")
	if nameNode == syntax.NoNode || body == syntax.NoNode {
		return
	}
	qn := f.scope.Qualify(c.t.Text(nameNode))
	anchor := c.anchor(n)

	members := []string{}
	for _, e := range c.t.ChildrenOfKind(body, "enumerator") {
		if name := c.t.FieldText(e, "name"); name != "" {
			members = append(members, name)
		}
	}
	ue := readUnrealSpecifiers(c.t, anchor, true)
	meta := Metadata{
		"members":       members,
		"namespace":     f.scope.Namespace(),
		"is_scoped":     c.t.HasChild(n, "class") || c.t.HasChild(n, "struct"),
		"ue_specifiers": ue.list(),
		"language":      string(c.lang),
	}
	c.emit(c.entity(n, qn, KindEnum, cppDoc.intent(c.t, anchor), meta))
	c.result.relate(c.container(f.scope), qn, RelContains, nil)
}

// returnType is the declared type of a function, with pointer and reference
// declarators folded in. Constructors and other untyped declarations fall
// back to the specifier-free text before the declarator, then to void.
func (c *cppExtraction) returnType(n, fd syntax.NodeID) string {
	if ty := c.t.Field(n, "type"); ty != syntax.NoNode {
		rt := c.t.Text(ty)
		for d := c.t.Field(n, "declarator"); d != syntax.NoNode && d != fd; d = innerDeclarator(c.t, d) {
			switch c.t.Kind(d) {
			case "pointer_declarator":
				rt += "*"
			case "reference_declarator":
				rt += "&"
			}
		}
		return rt
	}
	var kept []string
	for _, w := range c.prefixWords(n, fd) {
		if !hasString(cppSpecifierWords, w) {
			kept = append(kept, w)
		}
	}
	if len(kept) == 0 {
		return "void"
	}
	return strings.Join(kept, " ")
}

// prefixWords splits the source between the start of n and its declarator
// into words. Error nodes before the declarator belong to other members and
// are skipped.
func (c *cppExtraction) prefixWords(n, fd syntax.NodeID) []string {
	start, end := c.t.Node(n).StartByte, c.t.Node(fd).StartByte
	for _, e := range c.t.ChildrenOfKind(n, syntax.KindError) {
		if errEnd := c.t.Node(e).EndByte; errEnd <= end && errEnd > start {
			start = errEnd
		}
	}
	if end <= start {
		return nil
	}
	return strings.Fields(string(c.t.Source[start:end]))
}

// functionDeclarator finds the function declarator of a declaration through
// pointer, reference and attribute wrappers.
func functionDeclarator(t *syntax.Tree, n syntax.NodeID) syntax.NodeID {
	for d := t.Field(n, "declarator"); d != syntax.NoNode; d = innerDeclarator(t, d) {
		switch t.Kind(d) {
		case "function_declarator":
			return d
		case "pointer_declarator", "reference_declarator", "attributed_declarator":
		default:
			return syntax.NoNode
		}
	}
	return syntax.NoNode
}

func innerDeclarator(t *syntax.Tree, d syntax.NodeID) syntax.NodeID {
	if inner := t.Field(d, "declarator"); inner != syntax.NoNode {
		return inner
	}
	named := t.NamedChildren(d)
	if len(named) == 0 {
		return syntax.NoNode
	}
	return named[len(named)-1]
}

// memberName is the local name a function declarator declares.
func memberName(t *syntax.Tree, n syntax.NodeID) string {
	switch t.Kind(n) {
	case "identifier", "field_identifier", "destructor_name", "operator_name", "operator_cast":
		return t.Text(n)
	case "template_function", "template_method":
		return t.FieldText(n, "name")
	}
	return ""
}

// fieldNames lists the data members a field declaration declares. Misparsed
// bodies hold plain declarations instead.
func fieldNames(t *syntax.Tree, n syntax.NodeID) []string {
	if t.Kind(n) != "field_declaration" && t.Kind(n) != "declaration" {
		return nil
	}
	var names []string
	for _, d := range t.FieldAll(n, "declarator") {
		for d != syntax.NoNode && t.Kind(d) != "field_identifier" && t.Kind(d) != "identifier" {
			switch t.Kind(d) {
			case "pointer_declarator", "reference_declarator", "array_declarator", "init_declarator", "bitfield_clause":
				d = innerDeclarator(t, d)
			default:
				d = syntax.NoNode
			}
		}
		if d != syntax.NoNode {
			names = append(names, t.Text(d))
		}
	}
	return names
}

func isConstMethod(t *syntax.Tree, fd syntax.NodeID) bool {
	for _, q := range t.ChildrenOfKind(fd, "type_qualifier") {
		if t.Text(q) == "const" {
			return true
		}
	}
	return false
}

func hasVirtualSpecifier(t *syntax.Tree, fd syntax.NodeID, word string) bool {
	for _, s := range t.ChildrenOfKind(fd, "virtual_specifier") {
		if t.Text(s) == word {
			return true
		}
	}
	return false
}

// splitScoped splits `a::B<c::d>::m` on top-level "::" only.
func splitScoped(name string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(name); i++ {
		switch name[i] {
		case '<':
			depth++
		case '>':
			depth--
		case ':':
			if depth == 0 && i+1 < len(name) && name[i+1] == ':' {
				parts = append(parts, strings.TrimSpace(name[start:i]))
				start = i + 2
				i++
			}
		}
	}
	return append(parts, strings.TrimSpace(name[start:]))
}

func stripTemplateArgs(name string) string {
	if i := strings.IndexByte(name, '<'); i >= 0 {
		name = name[:i]
	}
	return strings.TrimFunc(name, unicode.IsSpace)
}
