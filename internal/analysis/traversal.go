package analysis

import (
	"github.com/perftree/perftree/internal/tree"
	"github.com/perftree/perftree/pkg/model"
)

// Re-exported so callers of this package don't need to import pkg/model just
// to name a traversal order.
const (
	PreOrder   = model.PreOrder
	PostOrder  = model.PostOrder
	LevelOrder = model.LevelOrder
)

// Visitor is called once per visited node, in the requested order. Returning
// false halts the traversal immediately (the remaining nodes, including
// siblings of the current node, are not visited).
type Visitor func(n *tree.TreeNode) bool

// Traverse walks t's nodes (including the synthetic root) in the given order,
// visiting each node's children in insertion order.
func Traverse(t *tree.PerformanceTree, order model.TraversalOrder, visit Visitor) {
	switch order {
	case PostOrder:
		traversePostOrder(t.Root(), visit)
	case LevelOrder:
		traverseLevelOrder(t.Root(), visit)
	default:
		traversePreOrder(t.Root(), visit)
	}
}

func traversePreOrder(n *tree.TreeNode, visit Visitor) bool {
	if !visit(n) {
		return false
	}
	for _, c := range n.Children() {
		if !traversePreOrder(c, visit) {
			return false
		}
	}
	return true
}

func traversePostOrder(n *tree.TreeNode, visit Visitor) bool {
	for _, c := range n.Children() {
		if !traversePostOrder(c, visit) {
			return false
		}
	}
	return visit(n)
}

func traverseLevelOrder(root *tree.TreeNode, visit Visitor) {
	queue := []*tree.TreeNode{root}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if !visit(n) {
			return
		}
		queue = append(queue, n.Children()...)
	}
}
