// Package analysis implements the read-only queries over a finalized
// PerformanceTree: hotspot ranking, workload-balance statistics, predicate
// filtering and the three traversal orders. None of these mutate the tree;
// all are safe for concurrent callers once the tree is frozen.
package analysis

import (
	"sort"

	"github.com/perftree/perftree/internal/tree"
)

// Hotspot is one ranked entry returned by FindHotspots/FindTotalHotspots.
type Hotspot struct {
	FunctionName     string
	LibraryName      string
	SelfSamples      int64
	InclusiveSamples int64
	SelfPercentage   float64
	TotalPercentage  float64
}

// FindHotspots returns the topN nodes ranked by descending self sample count,
// ties broken by insertion order (pre-order visitation order). If topN
// exceeds the number of nodes, every non-root node is returned with no
// padding.
func FindHotspots(t *tree.PerformanceTree, topN int) []Hotspot {
	return rankedHotspots(t, topN, func(n *tree.TreeNode) int64 { return n.Self() })
}

// FindTotalHotspots returns the topN nodes ranked by descending inclusive
// sample count, ties broken by insertion order.
func FindTotalHotspots(t *tree.PerformanceTree, topN int) []Hotspot {
	return rankedHotspots(t, topN, func(n *tree.TreeNode) int64 { return n.Inclusive() })
}

func rankedHotspots(t *tree.PerformanceTree, topN int, key func(*tree.TreeNode) int64) []Hotspot {
	if topN < 0 {
		topN = 0
	}

	var nodes []*tree.TreeNode
	Traverse(t, PreOrder, func(n *tree.TreeNode) bool {
		if !n.IsRoot() {
			nodes = append(nodes, n)
		}
		return true
	})

	// sort.SliceStable preserves insertion order for equal keys, matching the
	// "ties broken by insertion order" rule.
	sort.SliceStable(nodes, func(i, j int) bool {
		return key(nodes[i]) > key(nodes[j])
	})

	if topN < len(nodes) {
		nodes = nodes[:topN]
	}

	total := t.TotalSamples()
	out := make([]Hotspot, len(nodes))
	for i, n := range nodes {
		out[i] = Hotspot{
			FunctionName:     n.Frame.FunctionName,
			LibraryName:      n.Frame.LibraryName,
			SelfSamples:      n.Self(),
			InclusiveSamples: n.Inclusive(),
			SelfPercentage:   percentage(n.Self(), total),
			TotalPercentage:  percentage(n.Inclusive(), total),
		}
	}
	return out
}

func percentage(part, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total) * 100.0
}
