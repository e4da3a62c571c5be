package tree

import (
	"fmt"
	"sync/atomic"

	perrors "github.com/perftree/perftree/pkg/errors"
	"github.com/perftree/perftree/pkg/model"
)

// PerformanceTree is the merged, per-process-aggregated call-context tree
// produced by a Tree Builder. It is safe for concurrent Insert calls from any
// of the four concurrency models; Validate and the read-only analysis nodes
// expect it to be quiescent (no Insert in flight).
type PerformanceTree struct {
	root            *TreeNode
	countMode       model.SampleCountMode
	buildMode       model.BuildMode
	totalSamples    atomic.Int64
	timePerSampleUs float64
}

// New creates an empty PerformanceTree with a synthetic root node.
func New(countMode model.SampleCountMode, buildMode model.BuildMode) *PerformanceTree {
	return &PerformanceTree{
		root:      NewRoot(),
		countMode: countMode,
		buildMode: buildMode,
	}
}

// Root returns the tree's synthetic root node.
func (t *PerformanceTree) Root() *TreeNode { return t.root }

// CountMode returns the sample-count mode the tree was built with.
func (t *PerformanceTree) CountMode() model.SampleCountMode { return t.countMode }

// BuildMode returns the recursion-handling mode the tree was built with.
func (t *PerformanceTree) BuildMode() model.BuildMode { return t.buildMode }

// TotalSamples returns the total number of samples inserted into the tree.
func (t *PerformanceTree) TotalSamples() int64 { return t.totalSamples.Load() }

// SetTimePerSample records the sampling interval in microseconds, the factor
// that converts a node's sample counts into estimated execution time. Set
// once by the builder before any reads.
func (t *PerformanceTree) SetTimePerSample(us float64) { t.timePerSampleUs = us }

// TimePerSampleUs returns the sampling interval in microseconds.
func (t *PerformanceTree) TimePerSampleUs() float64 { return t.timePerSampleUs }

// ProcessExecutionTimeUs estimates how long processID spent executing,
// summing self samples across every node and scaling by the sampling
// interval.
func (t *PerformanceTree) ProcessExecutionTimeUs(processID int) float64 {
	var selfSum int64
	t.ForEach(func(n *TreeNode) bool {
		selfSum += n.ProcessSelf(processID)
		return true
	})
	return float64(selfSum) * t.timePerSampleUs
}

// NodeCount returns the number of nodes in the tree, excluding the synthetic root.
func (t *PerformanceTree) NodeCount() int {
	count := 0
	t.ForEach(func(n *TreeNode) bool {
		if !n.IsRoot() {
			count++
		}
		return true
	})
	return count
}

// MaxDepth returns the depth of the deepest node in the tree (root = 0).
func (t *PerformanceTree) MaxDepth() int {
	max := 0
	t.ForEach(func(n *TreeNode) bool {
		if n.Depth > max {
			max = n.Depth
		}
		return true
	})
	return max
}

// ProcessCount returns the number of distinct process ids that contributed
// samples anywhere in the tree.
func (t *PerformanceTree) ProcessCount() int {
	seen := make(map[int]bool)
	t.ForEach(func(n *TreeNode) bool {
		for _, id := range n.ProcessIDs() {
			seen[id] = true
		}
		return true
	})
	return len(seen)
}

// ForEach walks every node in the tree, including the synthetic root, in
// pre-order. Visitation stops early if visit returns false.
func (t *PerformanceTree) ForEach(visit func(n *TreeNode) bool) {
	var walk func(n *TreeNode) bool
	walk = func(n *TreeNode) bool {
		if !visit(n) {
			return false
		}
		for _, c := range n.Children() {
			if !walk(c) {
				return false
			}
		}
		return true
	}
	walk(t.root)
}

// FindByName returns every node (across the whole tree) matching functionName
// and, if libraryName is non-empty, also matching libraryName.
func (t *PerformanceTree) FindByName(functionName, libraryName string) []*TreeNode {
	var out []*TreeNode
	t.ForEach(func(n *TreeNode) bool {
		if n.IsRoot() {
			return true
		}
		if n.Frame.FunctionName == functionName && (libraryName == "" || n.Frame.LibraryName == libraryName) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// NodesAtDepth returns every node at exactly the given depth.
func (t *PerformanceTree) NodesAtDepth(depth int) []*TreeNode {
	var out []*TreeNode
	t.ForEach(func(n *TreeNode) bool {
		if n.Depth == depth && !n.IsRoot() {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Leaves returns every node with no children.
func (t *PerformanceTree) Leaves() []*TreeNode {
	var out []*TreeNode
	t.ForEach(func(n *TreeNode) bool {
		if !n.IsRoot() && len(n.Children()) == 0 {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Insert folds one sample's call stack into the tree, shared by every
// concurrency model. Frames are stored deepest-first (leaf at index 0);
// insertion walks outermost to innermost so the root's children are the
// outermost frames of each sample.
//
// In ContextFree mode, recursion does not grow the tree: before descending,
// the frame is matched against the current node's ancestor chain (nearest
// first), and a match folds the frame onto that ancestor instead of creating
// a new child. The folded frame still counts as a pass-through for inclusive
// purposes. A->A->A therefore folds into one child of root with self = 1,
// inclusive = 3, and mutual recursion like A->B->A folds the second A back
// onto the first. ContextAware never folds: every stack position gets its
// own child node even if it repeats an ancestor's frame, so inclusive and
// self-per-node both stay in lockstep with frame occurrences.
func (t *PerformanceTree) Insert(stack model.CallStack) {
	if len(stack.Frames) == 0 {
		return
	}

	current := t.root
	for i := len(stack.Frames) - 1; i >= 0; i-- {
		frame := stack.Frames[i]
		if anc := t.foldTarget(current, frame); anc != nil {
			current = anc
		} else {
			child, _ := current.GetOrCreateChild(frame)
			current = child
		}
		if t.countMode == model.Inclusive || t.countMode == model.Both {
			current.AddInclusive(stack.ProcessID, 1)
		}
	}

	if t.countMode == model.Exclusive || t.countMode == model.Both {
		current.AddSelf(stack.ProcessID, 1)
	}
	t.totalSamples.Add(1)
}

// foldTarget returns the nearest node on current's ancestor chain (current
// included, root excluded) whose frame matches, or nil when the frame should
// descend into a child. Only ContextFree folds; ContextAware always returns
// nil. Walking the chain touches no locks: a node's Frame and Parent are
// immutable once created.
func (t *PerformanceTree) foldTarget(current *TreeNode, frame model.Frame) *TreeNode {
	if t.buildMode != model.ContextFree {
		return nil
	}
	key := frame.Key()
	for n := current; !n.IsRoot(); n = n.Parent {
		if n.Frame.Key() == key {
			return n
		}
	}
	return nil
}

// Validate checks the tree's structural and counting invariants:
//
//   - inclusive >= self for every node
//   - inclusive = self + sum(children.inclusive)
//   - sum(self over all nodes) = total samples
//   - siblings are unique by (function_name, library_name)
//   - per-process counters sum to the node's aggregate counter
//
// Acyclicity (single path from root) holds by construction: nodes are only
// reachable through GetOrCreateChild, which never introduces a second parent.
//
// The root sentinel carries no frame and no counters of its own (Insert never
// advances into it), so the counter checks only apply to real nodes.
//
// The inclusive-decomposition check only runs under ContextAware. Under
// ContextFree, direct recursion folds several stack frames onto one node;
// inclusive then counts frame occurrences rather than distinct child
// pass-throughs, so a folded node's ancestors can legitimately report more
// children-inclusive than their own inclusive (see Insert's A->A->A example).
// inclusive >= self still holds unconditionally.
func (t *PerformanceTree) Validate() error {
	var selfSum int64
	seen := make(map[*TreeNode]bool)

	var walk func(n *TreeNode) error
	walk = func(n *TreeNode) error {
		if seen[n] {
			return perrors.NewInvariantViolation("tree: node visited twice, graph is not a tree")
		}
		seen[n] = true

		children := n.Children()

		if t.countMode != model.Exclusive && !n.IsRoot() {
			if n.Inclusive() < n.Self() {
				return perrors.NewInvariantViolation(fmt.Sprintf(
					"tree: node %q inclusive (%d) < self (%d)", n.Frame, n.Inclusive(), n.Self()))
			}
			if t.buildMode == model.ContextAware {
				var childInclusive int64
				for _, c := range children {
					childInclusive += c.Inclusive()
				}
				if n.Inclusive() != n.Self()+childInclusive {
					return perrors.NewInvariantViolation(fmt.Sprintf(
						"tree: node %q inclusive (%d) != self (%d) + children inclusive (%d)",
						n.Frame, n.Inclusive(), n.Self(), childInclusive))
				}
			}
		}

		seenKeys := make(map[string]bool, len(children))
		for _, c := range children {
			key := c.Frame.Key()
			if seenKeys[key] {
				return perrors.NewInvariantViolation(fmt.Sprintf(
					"tree: duplicate sibling key %q under %q", key, n.Frame))
			}
			seenKeys[key] = true
		}

		for _, id := range n.ProcessIDs() {
			if t.countMode != model.Exclusive && t.buildMode == model.ContextAware {
				var childProcessInclusive int64
				for _, c := range children {
					childProcessInclusive += c.ProcessInclusive(id)
				}
				if n.ProcessInclusive(id) != n.ProcessSelf(id)+childProcessInclusive {
					return perrors.NewInvariantViolation(fmt.Sprintf(
						"tree: node %q process %d inclusive != self + children inclusive", n.Frame, id))
				}
			}
		}

		if !n.IsRoot() {
			var processSelf, processInclusive int64
			for _, id := range n.ProcessIDs() {
				processSelf += n.ProcessSelf(id)
				processInclusive += n.ProcessInclusive(id)
			}
			if processSelf != n.Self() || processInclusive != n.Inclusive() {
				return perrors.NewInvariantViolation(fmt.Sprintf(
					"tree: node %q per-process counters do not sum to its aggregate counters", n.Frame))
			}
		}

		if t.countMode != model.Inclusive {
			selfSum += n.Self()
		}

		for _, c := range children {
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(t.root); err != nil {
		return err
	}

	if t.countMode != model.Inclusive && selfSum != t.totalSamples.Load() {
		return perrors.NewInvariantViolation(fmt.Sprintf(
			"tree: sum of self counts (%d) != total samples (%d)", selfSum, t.totalSamples.Load()))
	}

	return t.validatePerProcessTotals()
}

// validatePerProcessTotals checks that per-process self counters across every
// node sum to the tree's aggregate self count.
func (t *PerformanceTree) validatePerProcessTotals() error {
	if t.countMode == model.Inclusive {
		return nil
	}
	perProcessSum := make(map[int]int64)
	var walk func(n *TreeNode)
	walk = func(n *TreeNode) {
		for _, id := range n.ProcessIDs() {
			perProcessSum[id] += n.ProcessSelf(id)
		}
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(t.root)

	var total int64
	for _, v := range perProcessSum {
		total += v
	}
	if total != t.totalSamples.Load() {
		return perrors.NewInvariantViolation(fmt.Sprintf(
			"tree: per-process self totals (%d) != total samples (%d)", total, t.totalSamples.Load()))
	}
	return nil
}
