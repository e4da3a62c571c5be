package analysis

import "github.com/perftree/perftree/internal/tree"

// FilterCriteria describes one node's public attributes as seen by a Filter
// predicate: function/library identity, both counters, and tree depth.
type FilterCriteria struct {
	FunctionName     string
	LibraryName      string
	SelfSamples      int64
	InclusiveSamples int64
	Depth            int
}

// Predicate decides whether a node passes a Filter.
type Predicate func(FilterCriteria) bool

// Filter returns every non-root node for which pred reports true, visited in
// pre-order (so the result preserves a stable, deterministic order).
func Filter(t *tree.PerformanceTree, pred Predicate) []*tree.TreeNode {
	var out []*tree.TreeNode
	Traverse(t, PreOrder, func(n *tree.TreeNode) bool {
		if n.IsRoot() {
			return true
		}
		if pred(FilterCriteria{
			FunctionName:     n.Frame.FunctionName,
			LibraryName:      n.Frame.LibraryName,
			SelfSamples:      n.Self(),
			InclusiveSamples: n.Inclusive(),
			Depth:            n.Depth,
		}) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// MinSelfSamples returns a Predicate matching nodes whose self sample count
// is at least min.
func MinSelfSamples(min int64) Predicate {
	return func(c FilterCriteria) bool { return c.SelfSamples >= min }
}

// MinInclusiveSamples returns a Predicate matching nodes whose inclusive
// sample count is at least min.
func MinInclusiveSamples(min int64) Predicate {
	return func(c FilterCriteria) bool { return c.InclusiveSamples >= min }
}

// ByLibrary returns a Predicate matching nodes belonging to libraryName.
func ByLibrary(libraryName string) Predicate {
	return func(c FilterCriteria) bool { return c.LibraryName == libraryName }
}
