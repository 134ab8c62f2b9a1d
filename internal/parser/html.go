package parser

import (
	"fmt"
	"strings"

	"github.com/heefoo/loomgraph/internal/syntax"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/html"
)

// maxElementCode caps the code stored for a DOM element.
const maxElementCode = 200

// HTMLExtractor records elements that carry an id, so that DOM references
// found in scripts have something to point at.
type HTMLExtractor struct {
	treeExtractor
}

func NewHTMLExtractor(opts Options) *HTMLExtractor {
	e := &HTMLExtractor{}
	e.treeExtractor = treeExtractor{
		lang:       LangHTML,
		extensions: []string{".html", ".htm"},
		opts:       opts.withDefaults(),
		grammar:    func(string) *sitter.Language { return html.GetLanguage() },
		extract:    func(x *extraction) { (&htmlExtraction{extraction: x, t: x.tree}).run() },
	}
	return e
}

type htmlExtraction struct {
	*extraction
	t *syntax.Tree
}

// htmlAttr is one attribute in source order.
type htmlAttr struct {
	name  string
	value string
}

func (h *htmlExtraction) run() {
	h.emitModule("")

	w := h.worklist()
	w.pushChildren(h.t.Root(), NewScope(h.module, "#"), 0)
	for f, ok := w.pop(); ok; f, ok = w.pop() {
		switch h.t.Kind(f.node) {
		case "element":
			h.element(f.node)
		case "script_element":
			h.script(f.node)
			continue
		case "style_element":
			continue
		}
		w.pushChildren(f.node, f.scope, f.depth)
	}
}

func (h *htmlExtraction) element(n syntax.NodeID) {
	tag := h.t.Child(n, "start_tag", "self_closing_tag")
	if tag == syntax.NoNode {
		return
	}
	attrs := h.attributes(tag)
	id := attrValue(attrs, "id")
	if id == "" {
		return
	}
	tagName := strings.ToLower(h.t.Text(h.t.Child(tag, "tag_name")))
	name := h.module + "#" + id

	attributes := make(map[string]string, len(attrs))
	for _, a := range attrs {
		attributes[a.name] = a.value
	}
	meta := Metadata{
		"element_id": id,
		"tag_name":   tagName,
		"classes":    nonNil(strings.Fields(attrValue(attrs, "class"))),
		"attributes": attributes,
		"language":   string(h.lang),
	}

	e := h.entity(n, name, KindDOMElement, fmt.Sprintf("DOM element <%s> with id=%q", tagName, id), meta)
	e.Code = truncateRunes(e.Code, maxElementCode)
	h.emit(e)
	h.result.relate(h.module, name, RelContains, nil)
}

func (h *htmlExtraction) script(n syntax.NodeID) {
	tag := h.t.Child(n, "start_tag")
	if src := attrValue(h.attributes(tag), "src"); src != "" {
		h.result.relate(h.module, src, RelImports, Metadata{"import_type": "script"})
	}
}

func (h *htmlExtraction) attributes(tag syntax.NodeID) []htmlAttr {
	var attrs []htmlAttr
	for _, a := range h.t.ChildrenOfKind(tag, "attribute") {
		name := strings.ToLower(h.t.Text(h.t.Child(a, "attribute_name")))
		if name == "" {
			continue
		}
		value := ""
		if v := h.t.Child(a, "attribute_value"); v != syntax.NoNode {
			value = h.t.Text(v)
		} else if q := h.t.Child(a, "quoted_attribute_value"); q != syntax.NoNode {
			value = strings.Trim(h.t.Text(q), `"'`)
		}
		attrs = append(attrs, htmlAttr{name: name, value: value})
	}
	return attrs
}

func attrValue(attrs []htmlAttr, name string) string {
	for _, a := range attrs {
		if a.name == name {
			return strings.TrimSpace(a.value)
		}
	}
	return ""
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
