package syntax

import (
	"bytes"
	"fmt"
)

// Builder assembles a Tree by hand. It is used to reproduce grammar shapes
// that are awkward to trigger from real source, such as misparses.
type Builder struct {
	tree *Tree
}

// NewBuilder starts a tree whose root of the given kind spans all of source.
func NewBuilder(rootKind, source string) *Builder {
	b := &Builder{tree: &Tree{Source: []byte(source)}}
	b.tree.Nodes = append(b.tree.Nodes, b.node(rootKind, "", NoNode, 0, len(source)))
	return b
}

func (b *Builder) Root() NodeID { return 0 }

// Tree returns the built tree. The builder must not be used afterwards.
func (b *Builder) Tree() *Tree { return b.tree }

// Add appends a named child covering source[start:end].
func (b *Builder) Add(parent NodeID, kind string, start, end int) NodeID {
	return b.AddField(parent, "", kind, start, end)
}

// AddField appends a named child stored under field.
func (b *Builder) AddField(parent NodeID, field, kind string, start, end int) NodeID {
	if !b.tree.valid(parent) {
		panic(fmt.Sprintf("syntax.Builder: invalid parent %d", parent))
	}
	id := NodeID(len(b.tree.Nodes))
	b.tree.Nodes = append(b.tree.Nodes, b.node(kind, field, parent, start, end))
	b.tree.Nodes[parent].Children = append(b.tree.Nodes[parent].Children, id)
	return id
}

// AddText appends a child covering the first occurrence of text inside the
// parent's span, after the parent's last child.
func (b *Builder) AddText(parent NodeID, kind, text string) NodeID {
	return b.AddFieldText(parent, "", kind, text)
}

// AddFieldText is AddText with a field name.
func (b *Builder) AddFieldText(parent NodeID, field, kind, text string) NodeID {
	p := b.tree.Node(parent)
	from := int(p.StartByte)
	if n := len(p.Children); n > 0 {
		from = int(b.tree.Nodes[p.Children[n-1]].EndByte)
	}
	idx := bytes.Index(b.tree.Source[from:p.EndByte], []byte(text))
	if idx < 0 {
		panic(fmt.Sprintf("syntax.Builder: %q not found under %s", text, p.Kind))
	}
	start := from + idx
	return b.AddField(parent, field, kind, start, start+len(text))
}

func (b *Builder) node(kind, field string, parent NodeID, start, end int) Node {
	return Node{
		Kind:      kind,
		Field:     field,
		Named:     true,
		StartByte: uint32(start),
		EndByte:   uint32(end),
		StartRow:  uint32(bytes.Count(b.tree.Source[:start], []byte("\n"))),
		EndRow:    uint32(bytes.Count(b.tree.Source[:end], []byte("\n"))),
		Parent:    parent,
	}
}
