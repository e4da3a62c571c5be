package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perftree/perftree/internal/tree"
)

// RequireValidTree fails the test immediately if tr violates any of its
// counting or structural invariants.
func RequireValidTree(t *testing.T, tr *tree.PerformanceTree) {
	t.Helper()
	require.NoError(t, tr.Validate())
}

// PathCounts is the counter snapshot for one root-to-node path.
type PathCounts struct {
	Self           int64
	Inclusive      int64
	PerProcessSelf map[int]int64
	PerProcessIncl map[int]int64
}

// CounterSnapshot flattens a tree into path-keyed counters, erasing sibling
// order, so two trees built by different concurrency models can be compared
// for counter equivalence.
func CounterSnapshot(tr *tree.PerformanceTree) map[string]PathCounts {
	out := make(map[string]PathCounts)
	var walk func(n *tree.TreeNode, path string)
	walk = func(n *tree.TreeNode, path string) {
		if !n.IsRoot() {
			path = path + "/" + n.Frame.Key()
			selfByPid := make(map[int]int64)
			inclByPid := make(map[int]int64)
			for _, pid := range n.ProcessIDs() {
				selfByPid[pid] = n.ProcessSelf(pid)
				inclByPid[pid] = n.ProcessInclusive(pid)
			}
			out[path] = PathCounts{
				Self:           n.Self(),
				Inclusive:      n.Inclusive(),
				PerProcessSelf: selfByPid,
				PerProcessIncl: inclByPid,
			}
		}
		for _, c := range n.Children() {
			walk(c, path)
		}
	}
	walk(tr.Root(), "")
	return out
}

// AssertCounterEquivalent checks that two trees agree on totals and on the
// counters of every root-to-node path, regardless of sibling order.
func AssertCounterEquivalent(t *testing.T, want, got *tree.PerformanceTree, label string) {
	t.Helper()
	assert.Equal(t, want.TotalSamples(), got.TotalSamples(), "%s: total samples", label)
	assert.Equal(t, want.NodeCount(), got.NodeCount(), "%s: node count", label)
	assert.Equal(t, CounterSnapshot(want), CounterSnapshot(got), "%s: per-path counters", label)
}
