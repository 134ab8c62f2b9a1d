package syntax

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// Parse runs the tree-sitter grammar over src and converts the result into an
// arena Tree.
func Parse(ctx context.Context, lang *sitter.Language, src []byte) (*Tree, error) {
	if lang == nil {
		return nil, fmt.Errorf("syntax: no grammar")
	}

	p := sitter.NewParser()
	defer p.Close()
	p.SetLanguage(lang)

	st, err := p.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, ErrNoTree
	}
	defer st.Close()

	root := st.RootNode()
	if root == nil {
		return nil, ErrNoTree
	}
	return FromSitter(root, src), nil
}

// FromSitter copies a tree-sitter subtree into an arena. Node IDs are
// assigned in pre-order, so the root is always 0.
func FromSitter(root *sitter.Node, src []byte) *Tree {
	t := &Tree{Source: src}

	type frame struct {
		node   *sitter.Node
		parent NodeID
		field  string
	}
	stack := []frame{{node: root, parent: NoNode}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := f.node
		id := NodeID(len(t.Nodes))
		t.Nodes = append(t.Nodes, Node{
			Kind:      n.Type(),
			Field:     f.field,
			Named:     n.IsNamed(),
			StartByte: n.StartByte(),
			EndByte:   n.EndByte(),
			StartRow:  n.StartPoint().Row,
			EndRow:    n.EndPoint().Row,
			Parent:    f.parent,
		})
		if f.parent != NoNode {
			t.Nodes[f.parent].Children = append(t.Nodes[f.parent].Children, id)
		}

		count := int(n.ChildCount())
		for i := count - 1; i >= 0; i-- {
			child := n.Child(i)
			if child == nil {
				continue
			}
			stack = append(stack, frame{node: child, parent: id, field: n.FieldNameForChild(i)})
		}
	}
	return t
}
