// Package syntax holds concrete syntax trees as flat node arenas.
//
// Nodes refer to each other through NodeID indices instead of pointers, so a
// Tree can be walked with explicit worklists, built by hand in tests, and
// shared read-only between goroutines.
package syntax

import "errors"

// NodeID indexes a node inside its Tree.
type NodeID int32

// NoNode is returned by lookups that find nothing.
const NoNode NodeID = -1

// KindError is the kind the grammar gives to unparseable regions.
const KindError = "ERROR"

// ErrNoTree is returned when the provider yields no root node.
var ErrNoTree = errors.New("syntax: provider returned no tree")

// Node is one concrete syntax node.
type Node struct {
	Kind      string
	Field     string // field name under the parent, empty if none
	Named     bool
	StartByte uint32
	EndByte   uint32
	StartRow  uint32 // 0-based
	EndRow    uint32 // 0-based
	Parent    NodeID
	Children  []NodeID
}

// Tree is an arena of nodes plus the source they cover. Node 0 is the root.
type Tree struct {
	Nodes  []Node
	Source []byte
}

func (t *Tree) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(t.Nodes)
}

// Root returns the root node, or NoNode for an empty tree.
func (t *Tree) Root() NodeID {
	if len(t.Nodes) == 0 {
		return NoNode
	}
	return 0
}

// Len returns the number of nodes.
func (t *Tree) Len() int { return len(t.Nodes) }

// Node returns a copy of the node record.
func (t *Tree) Node(id NodeID) Node {
	if !t.valid(id) {
		return Node{Parent: NoNode}
	}
	return t.Nodes[id]
}

func (t *Tree) Kind(id NodeID) string {
	if !t.valid(id) {
		return ""
	}
	return t.Nodes[id].Kind
}

func (t *Tree) IsNamed(id NodeID) bool {
	return t.valid(id) && t.Nodes[id].Named
}

func (t *Tree) IsError(id NodeID) bool {
	return t.Kind(id) == KindError
}

// Text returns the source covered by id.
func (t *Tree) Text(id NodeID) string {
	if !t.valid(id) {
		return ""
	}
	n := t.Nodes[id]
	if int(n.EndByte) > len(t.Source) || n.StartByte > n.EndByte {
		return ""
	}
	return string(t.Source[n.StartByte:n.EndByte])
}

// StartLine is the 1-based first line of id.
func (t *Tree) StartLine(id NodeID) int {
	if !t.valid(id) {
		return 0
	}
	return int(t.Nodes[id].StartRow) + 1
}

// EndLine is the 1-based last line of id.
func (t *Tree) EndLine(id NodeID) int {
	if !t.valid(id) {
		return 0
	}
	return int(t.Nodes[id].EndRow) + 1
}

func (t *Tree) Parent(id NodeID) NodeID {
	if !t.valid(id) {
		return NoNode
	}
	return t.Nodes[id].Parent
}

func (t *Tree) Children(id NodeID) []NodeID {
	if !t.valid(id) {
		return nil
	}
	return t.Nodes[id].Children
}

// NamedChildren returns the children that are named grammar nodes.
func (t *Tree) NamedChildren(id NodeID) []NodeID {
	var out []NodeID
	for _, c := range t.Children(id) {
		if t.Nodes[c].Named {
			out = append(out, c)
		}
	}
	return out
}

// Child returns the first child whose kind is one of kinds.
func (t *Tree) Child(id NodeID, kinds ...string) NodeID {
	for _, c := range t.Children(id) {
		for _, k := range kinds {
			if t.Nodes[c].Kind == k {
				return c
			}
		}
	}
	return NoNode
}

// HasChild reports whether id has a direct child of the given kind.
func (t *Tree) HasChild(id NodeID, kind string) bool {
	return t.Child(id, kind) != NoNode
}

// ChildrenOfKind returns every direct child whose kind is one of kinds.
func (t *Tree) ChildrenOfKind(id NodeID, kinds ...string) []NodeID {
	var out []NodeID
	for _, c := range t.Children(id) {
		for _, k := range kinds {
			if t.Nodes[c].Kind == k {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// Field returns the first child stored under the given field name.
func (t *Tree) Field(id NodeID, name string) NodeID {
	for _, c := range t.Children(id) {
		if t.Nodes[c].Field == name {
			return c
		}
	}
	return NoNode
}

// FieldAll returns every child stored under the given field name.
func (t *Tree) FieldAll(id NodeID, name string) []NodeID {
	var out []NodeID
	for _, c := range t.Children(id) {
		if t.Nodes[c].Field == name {
			out = append(out, c)
		}
	}
	return out
}

// FieldText is Text(Field(id, name)).
func (t *Tree) FieldText(id NodeID, name string) string {
	return t.Text(t.Field(id, name))
}

// PrevSiblings returns the siblings before id, nearest first.
func (t *Tree) PrevSiblings(id NodeID) []NodeID {
	parent := t.Parent(id)
	if parent == NoNode {
		return nil
	}
	siblings := t.Nodes[parent].Children
	var out []NodeID
	for i := len(siblings) - 1; i >= 0; i-- {
		if siblings[i] == id {
			for j := i - 1; j >= 0; j-- {
				out = append(out, siblings[j])
			}
			return out
		}
	}
	return nil
}

// Find returns the first descendant of id, in pre-order, whose kind is one of
// kinds. The search never goes deeper than maxDepth levels below id.
func (t *Tree) Find(id NodeID, maxDepth int, kinds ...string) NodeID {
	found := NoNode
	t.Walk(id, maxDepth, func(n NodeID, _ int) bool {
		if found != NoNode {
			return false
		}
		if n != id {
			for _, k := range kinds {
				if t.Nodes[n].Kind == k {
					found = n
					return false
				}
			}
		}
		return true
	})
	return found
}

// Contains reports whether inner lies inside outer (or is outer).
func (t *Tree) Contains(outer, inner NodeID) bool {
	for n := inner; n != NoNode; n = t.Parent(n) {
		if n == outer {
			return true
		}
	}
	return false
}
