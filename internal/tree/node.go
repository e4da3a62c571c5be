// Package tree implements the merged per-process call-context tree: TreeNode,
// PerformanceTree, and the pairwise Merge used by the thread-local-merge
// concurrency model.
package tree

import (
	"sync"
	"sync/atomic"

	"github.com/perftree/perftree/pkg/model"
)

// TreeNode is one call-context in the merged tree. Every builder concurrency
// model shares this type: the aggregate counters are always atomic so that
// readers never need to know which model built the tree. mu guards the child
// list, the child index and the per-process counter map. Creating or looking
// up a child takes it, and so does every counter update: AddSelf and
// AddInclusive find the per-process counters under mu before their atomic
// adds. Only the aggregate counter adds themselves are lock-free.
type TreeNode struct {
	Frame    model.Frame
	Parent   *TreeNode
	Depth    int

	selfCount      atomic.Int64
	inclusiveCount atomic.Int64

	mu           sync.Mutex
	children     []*TreeNode
	childIndex   map[string]*TreeNode
	perProcess   map[int]*processCounters
}

type processCounters struct {
	self      atomic.Int64
	inclusive atomic.Int64
}

// NewRoot creates the synthetic root node of a PerformanceTree. The root
// carries no frame of its own; its children are the outermost frames of every
// sample.
func NewRoot() *TreeNode {
	return &TreeNode{
		Depth:      0,
		childIndex: make(map[string]*TreeNode),
		perProcess: make(map[int]*processCounters),
	}
}

func newChild(parent *TreeNode, frame model.Frame) *TreeNode {
	return &TreeNode{
		Frame:      frame,
		Parent:     parent,
		Depth:      parent.Depth + 1,
		childIndex: make(map[string]*TreeNode),
		perProcess: make(map[int]*processCounters),
	}
}

// FindChild looks up an existing child by its sibling-uniqueness key, holding
// the structural lock for the lookup only. Safe to call concurrently with
// inserts; a nil result can be out of date once the lock is released, so
// find-or-insert goes through GetOrCreateChild instead.
func (n *TreeNode) FindChild(frame model.Frame) *TreeNode {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.childIndex[frame.Key()]
}

// GetOrCreateChild returns the existing child matching frame, or creates and
// registers a new one. This is the single structural mutation point shared by
// every builder concurrency model; the mutex held here is the "short
// per-parent structural lock" the lock-free model relies on.
func (n *TreeNode) GetOrCreateChild(frame model.Frame) (child *TreeNode, created bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	key := frame.Key()
	if existing, ok := n.childIndex[key]; ok {
		return existing, false
	}
	child = newChild(n, frame)
	n.childIndex[key] = child
	n.children = append(n.children, child)
	return child, true
}

// Children returns a snapshot slice of this node's children in insertion
// order. Traversal and analysis code use this rather than reaching into the
// unexported slice so that iteration never races with concurrent inserts.
func (n *TreeNode) Children() []*TreeNode {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]*TreeNode, len(n.children))
	copy(out, n.children)
	return out
}

// AddSelf atomically adds delta samples to this node's self counter, both the
// aggregate counter and the per-process counter for processID.
func (n *TreeNode) AddSelf(processID int, delta int64) {
	n.selfCount.Add(delta)
	n.process(processID).self.Add(delta)
}

// AddInclusive atomically adds delta samples to this node's inclusive
// counter, both the aggregate counter and the per-process counter.
func (n *TreeNode) AddInclusive(processID int, delta int64) {
	n.inclusiveCount.Add(delta)
	n.process(processID).inclusive.Add(delta)
}

func (n *TreeNode) process(processID int) *processCounters {
	n.mu.Lock()
	defer n.mu.Unlock()
	pc, ok := n.perProcess[processID]
	if !ok {
		pc = &processCounters{}
		n.perProcess[processID] = pc
	}
	return pc
}

// Self returns the aggregate self sample count.
func (n *TreeNode) Self() int64 { return n.selfCount.Load() }

// Inclusive returns the aggregate inclusive sample count.
func (n *TreeNode) Inclusive() int64 { return n.inclusiveCount.Load() }

// ProcessSelf returns the self sample count attributed to processID.
func (n *TreeNode) ProcessSelf(processID int) int64 {
	n.mu.Lock()
	pc, ok := n.perProcess[processID]
	n.mu.Unlock()
	if !ok {
		return 0
	}
	return pc.self.Load()
}

// ProcessInclusive returns the inclusive sample count attributed to processID.
func (n *TreeNode) ProcessInclusive(processID int) int64 {
	n.mu.Lock()
	pc, ok := n.perProcess[processID]
	n.mu.Unlock()
	if !ok {
		return 0
	}
	return pc.inclusive.Load()
}

// ProcessIDs returns the set of process IDs that contributed samples to this node.
func (n *TreeNode) ProcessIDs() []int {
	n.mu.Lock()
	defer n.mu.Unlock()
	ids := make([]int, 0, len(n.perProcess))
	for id := range n.perProcess {
		ids = append(ids, id)
	}
	return ids
}

// ExecutionTimeUs estimates the time processID spent in this exact
// call-context: its self sample count scaled by the sampling interval.
func (n *TreeNode) ExecutionTimeUs(processID int, timePerSampleUs float64) float64 {
	return float64(n.ProcessSelf(processID)) * timePerSampleUs
}

// IsRoot reports whether this is the tree's synthetic root.
func (n *TreeNode) IsRoot() bool {
	return n.Parent == nil
}
