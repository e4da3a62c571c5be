package model

import "fmt"

// BuildMode controls how recursive calls are folded when inserting a sample
// into the call tree.
type BuildMode int

const (
	// ContextFree collapses direct recursion: repeated occurrences of the same
	// (function_name, library_name) along a single sample's call chain share one
	// tree node rather than growing a new child per recursion depth.
	ContextFree BuildMode = iota
	// ContextAware keeps each recursion depth as a distinct child node, keyed by
	// (parent node, function_name, library_name) with no collapsing.
	ContextAware
)

// String implements fmt.Stringer.
func (m BuildMode) String() string {
	switch m {
	case ContextFree:
		return "ContextFree"
	case ContextAware:
		return "ContextAware"
	default:
		return "Unknown"
	}
}

// ParseBuildMode parses the WorkflowBuilder / CLI string form of BuildMode.
func ParseBuildMode(s string) (BuildMode, error) {
	switch s {
	case "ContextFree", "context_free", "":
		return ContextFree, nil
	case "ContextAware", "context_aware":
		return ContextAware, nil
	default:
		return ContextFree, fmt.Errorf("model: unknown build mode %q", s)
	}
}

// SampleCountMode selects which counters a Tree Builder maintains and updates.
type SampleCountMode int

const (
	// Exclusive tracks only each node's self sample count.
	Exclusive SampleCountMode = iota
	// Inclusive tracks only each node's inclusive sample count.
	Inclusive
	// Both tracks self and inclusive sample counts together.
	Both
)

// String implements fmt.Stringer.
func (m SampleCountMode) String() string {
	switch m {
	case Exclusive:
		return "Exclusive"
	case Inclusive:
		return "Inclusive"
	case Both:
		return "Both"
	default:
		return "Unknown"
	}
}

// ParseSampleCountMode parses the WorkflowBuilder / CLI string form.
func ParseSampleCountMode(s string) (SampleCountMode, error) {
	switch s {
	case "Exclusive", "exclusive":
		return Exclusive, nil
	case "Inclusive", "inclusive":
		return Inclusive, nil
	case "Both", "both", "":
		return Both, nil
	default:
		return Both, fmt.Errorf("model: unknown sample count mode %q", s)
	}
}

// ConcurrencyModel selects which Tree Builder concurrency strategy builds the tree.
type ConcurrencyModel int

const (
	// Serial builds the tree with a single goroutine, no synchronization.
	Serial ConcurrencyModel = iota
	// FineGrainedLock builds the tree concurrently with a per-node mutex.
	FineGrainedLock
	// ThreadLocalMerge builds per-worker private trees, reduced pairwise.
	ThreadLocalMerge
	// LockFree builds the tree using atomic counters and a short per-parent
	// structural lock only around child insertion.
	LockFree
)

// String implements fmt.Stringer.
func (m ConcurrencyModel) String() string {
	switch m {
	case Serial:
		return "Serial"
	case FineGrainedLock:
		return "FineGrainedLock"
	case ThreadLocalMerge:
		return "ThreadLocalMerge"
	case LockFree:
		return "LockFree"
	default:
		return "Unknown"
	}
}

// ParseConcurrencyModel parses the WorkflowBuilder / CLI string form.
func ParseConcurrencyModel(s string) (ConcurrencyModel, error) {
	switch s {
	case "Serial", "serial", "":
		return Serial, nil
	case "FineGrainedLock", "fine_grained_lock", "finegrainedlock":
		return FineGrainedLock, nil
	case "ThreadLocalMerge", "thread_local_merge", "threadlocalmerge":
		return ThreadLocalMerge, nil
	case "LockFree", "lock_free", "lockfree":
		return LockFree, nil
	default:
		return Serial, fmt.Errorf("model: unknown concurrency model %q", s)
	}
}

// NodeState is the lifecycle state of a DataflowNode.
// Legal transitions: PENDING -> READY -> RUNNING -> {COMPLETED, FAILED, CACHED};
// Reset() always returns a node to PENDING. No other transition is permitted.
type NodeState int

const (
	StatePending NodeState = iota
	StateReady
	StateRunning
	StateCompleted
	StateFailed
	StateCached
)

// String implements fmt.Stringer.
func (s NodeState) String() string {
	switch s {
	case StatePending:
		return "PENDING"
	case StateReady:
		return "READY"
	case StateRunning:
		return "RUNNING"
	case StateCompleted:
		return "COMPLETED"
	case StateFailed:
		return "FAILED"
	case StateCached:
		return "CACHED"
	default:
		return "UNKNOWN"
	}
}

// TraversalOrder selects the order in which internal/analysis.Traverse visits nodes.
type TraversalOrder int

const (
	PreOrder TraversalOrder = iota
	PostOrder
	LevelOrder
)

// String implements fmt.Stringer.
func (o TraversalOrder) String() string {
	switch o {
	case PreOrder:
		return "preorder"
	case PostOrder:
		return "postorder"
	case LevelOrder:
		return "levelorder"
	default:
		return "unknown"
	}
}
