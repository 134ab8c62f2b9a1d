package syntax

// Walk visits id and its descendants in pre-order with an explicit stack.
// visit receives each node with its depth below id and returns false to
// skip that node's children. Nodes deeper than maxDepth are not visited;
// a maxDepth below zero means no bound.
func (t *Tree) Walk(id NodeID, maxDepth int, visit func(n NodeID, depth int) bool) {
	if !t.valid(id) {
		return
	}
	type entry struct {
		node  NodeID
		depth int
	}
	stack := []entry{{node: id}}
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if maxDepth >= 0 && e.depth > maxDepth {
			continue
		}
		if !visit(e.node, e.depth) {
			continue
		}
		children := t.Nodes[e.node].Children
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, entry{node: children[i], depth: e.depth + 1})
		}
	}
}
