package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perftree/perftree/internal/tree"
	"github.com/perftree/perftree/pkg/model"
)

func frame(fn string) model.Frame {
	return model.Frame{FunctionName: fn, LibraryName: "libtest.so"}
}

func stack(pid int, fns ...string) model.CallStack {
	frames := make([]model.Frame, len(fns))
	for i, fn := range fns {
		frames[len(fns)-1-i] = frame(fn)
	}
	return model.CallStack{Frames: frames, ProcessID: pid, DurationUs: 100}
}

// scenarioTree builds a small two-process tree: process 0 emits
// [main, compute, kernel]; process 1 emits [main, compute, kernel] and
// [main, io].
func scenarioTree() *tree.PerformanceTree {
	t := tree.New(model.Both, model.ContextFree)
	t.Insert(stack(0, "main", "compute", "kernel"))
	t.Insert(stack(1, "main", "compute", "kernel"))
	t.Insert(stack(1, "main", "io"))
	return t
}

func TestFindHotspots_TopTwoBySelf(t *testing.T) {
	tr := scenarioTree()
	hotspots := FindHotspots(tr, 2)
	require.Len(t, hotspots, 2)

	assert.Equal(t, "kernel", hotspots[0].FunctionName)
	assert.Equal(t, int64(2), hotspots[0].SelfSamples)
	assert.InDelta(t, 66.7, hotspots[0].SelfPercentage, 0.1)

	assert.Equal(t, "io", hotspots[1].FunctionName)
	assert.Equal(t, int64(1), hotspots[1].SelfSamples)
	assert.InDelta(t, 33.3, hotspots[1].SelfPercentage, 0.1)
}

func TestFindHotspots_TopNExceedsNodeCount(t *testing.T) {
	tr := scenarioTree()
	hotspots := FindHotspots(tr, 1000)
	// main, compute, kernel, io: 4 non-root nodes, no padding.
	assert.Len(t, hotspots, 4)
}

func TestFindTotalHotspots_RanksByInclusive(t *testing.T) {
	tr := scenarioTree()
	hotspots := FindTotalHotspots(tr, 1)
	require.Len(t, hotspots, 1)
	assert.Equal(t, "main", hotspots[0].FunctionName)
	assert.Equal(t, int64(3), hotspots[0].InclusiveSamples)
}

func TestAnalyzeBalance_UnevenProcessLoads(t *testing.T) {
	tr := tree.New(model.Exclusive, model.ContextFree)
	counts := []int{100, 80, 60, 40}
	for pid, n := range counts {
		for i := 0; i < n; i++ {
			tr.Insert(stack(pid, "work"))
		}
	}

	b := AnalyzeBalance(tr)
	assert.Equal(t, float64(70), b.Mean)
	assert.Equal(t, int64(100), b.Max)
	assert.Equal(t, int64(40), b.Min)
	assert.Equal(t, 0, b.MostLoadedProcess)
	assert.Equal(t, 3, b.LeastLoadedProcess)
	assert.InDelta(t, 0.4286, b.ImbalanceFactor, 0.001)
}

func TestAnalyzeBalance_ProcessExecutionTimes(t *testing.T) {
	tr := tree.New(model.Both, model.ContextFree)
	tr.SetTimePerSample(1000.0)
	tr.Insert(stack(0, "main", "work"))
	tr.Insert(stack(0, "main", "work"))
	tr.Insert(stack(1, "main", "work"))

	b := AnalyzeBalance(tr)
	require.Equal(t, []int{0, 1}, b.ProcessIDs)
	assert.Equal(t, []float64{2000.0, 1000.0}, b.ProcessTimesUs)
}

func TestAnalyzeBalance_EmptyTree(t *testing.T) {
	tr := tree.New(model.Both, model.ContextFree)
	b := AnalyzeBalance(tr)
	assert.Empty(t, b.ProcessIDs)
	assert.Equal(t, float64(0), b.Mean)
	assert.Equal(t, float64(0), b.ImbalanceFactor)
}

func TestFilter_ByLibraryAndMinSelf(t *testing.T) {
	tr := scenarioTree()
	matches := Filter(tr, MinSelfSamples(2))
	require.Len(t, matches, 1)
	assert.Equal(t, "kernel", matches[0].Frame.FunctionName)

	libMatches := Filter(tr, ByLibrary("libtest.so"))
	assert.Len(t, libMatches, 4)
}

func TestTraverse_PreOrderVisitsParentBeforeChild(t *testing.T) {
	tr := scenarioTree()
	var order []string
	Traverse(tr, PreOrder, func(n *tree.TreeNode) bool {
		if !n.IsRoot() {
			order = append(order, n.Frame.FunctionName)
		}
		return true
	})
	assert.Equal(t, []string{"main", "compute", "kernel", "io"}, order)
}

func TestTraverse_PostOrderVisitsChildrenBeforeParent(t *testing.T) {
	tr := scenarioTree()
	var order []string
	Traverse(tr, PostOrder, func(n *tree.TreeNode) bool {
		if !n.IsRoot() {
			order = append(order, n.Frame.FunctionName)
		}
		return true
	})
	assert.Equal(t, []string{"kernel", "compute", "io", "main"}, order)
}

func TestTraverse_HaltsOnFalseReturn(t *testing.T) {
	tr := scenarioTree()
	var visited []string
	Traverse(tr, PreOrder, func(n *tree.TreeNode) bool {
		if n.IsRoot() {
			return true
		}
		visited = append(visited, n.Frame.FunctionName)
		return n.Frame.FunctionName != "main"
	})
	assert.Equal(t, []string{"main"}, visited)
}
