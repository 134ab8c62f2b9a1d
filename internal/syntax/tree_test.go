package syntax

import (
	"context"
	"strings"
	"testing"

	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJavaScript(t *testing.T) {
	src := "function greet(name) {\n  return name;\n}\n"
	tree, err := Parse(context.Background(), javascript.GetLanguage(), []byte(src))
	require.NoError(t, err)

	root := tree.Root()
	assert.Equal(t, "program", tree.Kind(root))
	assert.Equal(t, NoNode, tree.Parent(root))

	fn := tree.Child(root, "function_declaration")
	require.NotEqual(t, NoNode, fn)
	assert.Equal(t, "greet", tree.FieldText(fn, "name"))
	assert.Equal(t, 1, tree.StartLine(fn))
	assert.Equal(t, 3, tree.EndLine(fn))

	params := tree.Field(fn, "parameters")
	assert.Equal(t, "formal_parameters", tree.Kind(params))
	assert.Equal(t, "(name)", tree.Text(params))
	assert.Equal(t, fn, tree.Parent(params))
}

func TestPreorderIDs(t *testing.T) {
	src := "a(); b(); c();"
	tree, err := Parse(context.Background(), javascript.GetLanguage(), []byte(src))
	require.NoError(t, err)

	// Every child has a larger ID than its parent and siblings keep source order.
	for id := range tree.Nodes {
		n := tree.Nodes[id]
		last := uint32(0)
		for _, c := range n.Children {
			assert.Greater(t, int(c), id)
			assert.GreaterOrEqual(t, tree.Nodes[c].StartByte, last)
			last = tree.Nodes[c].StartByte
		}
	}

	var callees []string
	tree.Walk(tree.Root(), -1, func(n NodeID, _ int) bool {
		if tree.Kind(n) == "call_expression" {
			callees = append(callees, tree.FieldText(n, "function"))
		}
		return true
	})
	assert.Equal(t, []string{"a", "b", "c"}, callees)
}

func TestWalkDepthBound(t *testing.T) {
	src := "f(" + strings.Repeat("[", 200) + strings.Repeat("]", 200) + ");"
	tree, err := Parse(context.Background(), javascript.GetLanguage(), []byte(src))
	require.NoError(t, err)

	deepest := 0
	tree.Walk(tree.Root(), 10, func(_ NodeID, depth int) bool {
		if depth > deepest {
			deepest = depth
		}
		return true
	})
	assert.Equal(t, 10, deepest)

	assert.Equal(t, NoNode, tree.Find(tree.Root(), 2, "array"))
	assert.NotEqual(t, NoNode, tree.Find(tree.Root(), -1, "array"))
}

func TestSiblingsAndFields(t *testing.T) {
	b := NewBuilder("translation_unit", "x y z")
	root := b.Root()
	x := b.AddText(root, "identifier", "x")
	y := b.AddFieldText(root, "name", "identifier", "y")
	z := b.AddText(root, "comment", "z")
	tree := b.Tree()

	assert.Equal(t, []NodeID{y, x}, tree.PrevSiblings(z))
	assert.Empty(t, tree.PrevSiblings(x))
	assert.Equal(t, y, tree.Field(root, "name"))
	assert.Equal(t, "y", tree.FieldText(root, "name"))
	assert.Equal(t, z, tree.Child(root, "comment"))
	assert.Equal(t, []NodeID{x, y}, tree.ChildrenOfKind(root, "identifier"))
	assert.True(t, tree.Contains(root, z))
	assert.False(t, tree.Contains(x, z))
}

func TestBuilderRows(t *testing.T) {
	b := NewBuilder("program", "line one\nline two\nline three")
	n := b.AddText(b.Root(), "word", "three")
	tree := b.Tree()

	assert.Equal(t, 3, tree.StartLine(n))
	assert.Equal(t, 3, tree.EndLine(n))
	assert.Equal(t, 1, tree.StartLine(tree.Root()))
	assert.Equal(t, 3, tree.EndLine(tree.Root()))
}

func TestInvalidIDs(t *testing.T) {
	tree := &Tree{}
	assert.Equal(t, NoNode, tree.Root())
	assert.Equal(t, "", tree.Kind(NoNode))
	assert.Equal(t, "", tree.Text(42))
	assert.Nil(t, tree.Children(NoNode))
	assert.Equal(t, 0, tree.StartLine(NoNode))
}
