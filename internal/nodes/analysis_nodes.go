package nodes

import (
	"context"
	"strings"

	"github.com/perftree/perftree/internal/analysis"
	"github.com/perftree/perftree/internal/dataflow"
	"github.com/perftree/perftree/internal/tree"
	perrors "github.com/perftree/perftree/pkg/errors"
	"github.com/perftree/perftree/pkg/model"
)

func requireTree(inputs map[string]any) (*tree.PerformanceTree, error) {
	v, ok := inputs["tree"]
	if !ok {
		return nil, perrors.NewInvalidArgument("node: missing required input \"tree\"")
	}
	tr, ok := v.(*tree.PerformanceTree)
	if !ok {
		return nil, perrors.NewInvalidArgument("node: input \"tree\" is not a *tree.PerformanceTree")
	}
	return tr, nil
}

// HotspotNode finds the top-N self-time or inclusive-time hotspots in a
// PerformanceTree.
//
// Inputs: tree. Outputs: hotspots ([]analysis.Hotspot), summary (map[string]any).
type HotspotNode struct {
	dataflow.BaseNode
	TopN      int
	Inclusive bool
}

// NewHotspotNode builds a HotspotNode named name reporting the top topN
// functions. inclusive selects ranking by inclusive time rather than self time.
func NewHotspotNode(name string, topN int, inclusive bool) *HotspotNode {
	return &HotspotNode{
		BaseNode: dataflow.BaseNode{
			NodeName: name,
			Inputs:   map[string]string{"tree": "PerformanceTree"},
			Outputs:  map[string]string{"hotspots": "[]Hotspot", "summary": "map"},
		},
		TopN:      topN,
		Inclusive: inclusive,
	}
}

// Execute implements dataflow.Node.
func (n *HotspotNode) Execute(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	tr, err := requireTree(inputs)
	if err != nil {
		return nil, err
	}

	var hotspots []analysis.Hotspot
	mode := "exclusive"
	if n.Inclusive {
		mode = "inclusive"
		hotspots = analysis.FindTotalHotspots(tr, n.TopN)
	} else {
		hotspots = analysis.FindHotspots(tr, n.TopN)
	}

	summary := map[string]any{
		"total_samples":  tr.TotalSamples(),
		"hotspot_count":  len(hotspots),
		"mode":           mode,
		"top_function":   "",
		"top_percentage": 0.0,
	}
	if len(hotspots) > 0 {
		summary["top_function"] = hotspots[0].FunctionName
		if n.Inclusive {
			summary["top_percentage"] = hotspots[0].TotalPercentage
		} else {
			summary["top_percentage"] = hotspots[0].SelfPercentage
		}
	}

	return map[string]any{"hotspots": hotspots, "summary": summary}, nil
}

// CacheKey implements dataflow.Node.
func (n *HotspotNode) CacheKey(inputs map[string]any) string {
	return dataflow.DefaultCacheKey("HotspotNode", n.NodeName, n.Inputs, n.Outputs, inputs)
}

// BalanceNode analyzes per-process workload imbalance.
//
// Inputs: tree. Outputs: balance (analysis.Balance), summary (map[string]any).
type BalanceNode struct {
	dataflow.BaseNode
}

// NewBalanceNode builds a BalanceNode named name.
func NewBalanceNode(name string) *BalanceNode {
	return &BalanceNode{
		BaseNode: dataflow.BaseNode{
			NodeName: name,
			Inputs:   map[string]string{"tree": "PerformanceTree"},
			Outputs:  map[string]string{"balance": "Balance", "summary": "map"},
		},
	}
}

// Execute implements dataflow.Node.
func (n *BalanceNode) Execute(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	tr, err := requireTree(inputs)
	if err != nil {
		return nil, err
	}

	balance := analysis.AnalyzeBalance(tr)
	summary := map[string]any{
		"process_count":    len(balance.ProcessIDs),
		"mean_samples":     balance.Mean,
		"imbalance_factor": balance.ImbalanceFactor,
		"most_loaded":      balance.MostLoadedProcess,
		"least_loaded":     balance.LeastLoadedProcess,
		"is_balanced":      balance.ImbalanceFactor < 0.1,
	}
	return map[string]any{"balance": balance, "summary": summary}, nil
}

// CacheKey implements dataflow.Node.
func (n *BalanceNode) CacheKey(inputs map[string]any) string {
	return dataflow.DefaultCacheKey("BalanceNode", n.NodeName, n.Inputs, n.Outputs, inputs)
}

// FilterNode selects tree nodes matching a combination of sample-count
// bounds, a wildcard function-name pattern, a library name, and an optional
// custom predicate.
//
// Inputs: tree. Outputs: nodes ([]*tree.TreeNode), count (int).
type FilterNode struct {
	dataflow.BaseNode
	MinInclusiveSamples *int64
	MaxInclusiveSamples *int64
	MinSelfSamples      *int64
	FunctionPattern     string
	LibraryName         string
	Predicate           func(*tree.TreeNode) bool
}

// NewFilterNode builds an unconfigured FilterNode named name; set its fields
// before use.
func NewFilterNode(name string) *FilterNode {
	return &FilterNode{
		BaseNode: dataflow.BaseNode{
			NodeName: name,
			Inputs:   map[string]string{"tree": "PerformanceTree"},
			Outputs:  map[string]string{"nodes": "[]TreeNode", "count": "int"},
		},
	}
}

// matchesWildcard implements '*'-wildcard matching for FunctionPattern:
// zero wildcards means an exact match, one wildcard splits the pattern into
// a required prefix/suffix.
func matchesWildcard(text, pattern string) bool {
	if !strings.Contains(pattern, "*") {
		return text == pattern
	}
	parts := strings.Split(pattern, "*")
	if len(parts) == 2 {
		return strings.HasPrefix(text, parts[0]) && strings.HasSuffix(text, parts[1])
	}
	if parts[0] != "" && !strings.HasPrefix(text, parts[0]) {
		return false
	}
	if last := parts[len(parts)-1]; last != "" && !strings.HasSuffix(text, last) {
		return false
	}
	return true
}

// Execute implements dataflow.Node.
func (n *FilterNode) Execute(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	tr, err := requireTree(inputs)
	if err != nil {
		return nil, err
	}

	var matched []*tree.TreeNode
	tr.ForEach(func(node *tree.TreeNode) bool {
		if node.IsRoot() {
			return true
		}
		if n.MinInclusiveSamples != nil && node.Inclusive() < *n.MinInclusiveSamples {
			return true
		}
		if n.MaxInclusiveSamples != nil && node.Inclusive() > *n.MaxInclusiveSamples {
			return true
		}
		if n.MinSelfSamples != nil && node.Self() < *n.MinSelfSamples {
			return true
		}
		if n.FunctionPattern != "" && !matchesWildcard(node.Frame.FunctionName, n.FunctionPattern) {
			return true
		}
		if n.LibraryName != "" && node.Frame.LibraryName != n.LibraryName {
			return true
		}
		if n.Predicate != nil && !n.Predicate(node) {
			return true
		}
		matched = append(matched, node)
		return true
	})

	return map[string]any{"nodes": matched, "count": len(matched)}, nil
}

// CacheKey implements dataflow.Node.
func (n *FilterNode) CacheKey(inputs map[string]any) string {
	return dataflow.DefaultCacheKey("FilterNode", n.NodeName, n.Inputs, n.Outputs, inputs)
}

// TraversalNode walks a PerformanceTree in a configured order, collecting
// whatever Visitor returns (nil results are skipped) and optionally stopping
// early via StopCondition.
//
// Inputs: tree. Outputs: results ([]any), visited_count (int).
type TraversalNode struct {
	dataflow.BaseNode
	Visitor       func(*tree.TreeNode) any
	Order         model.TraversalOrder
	StopCondition func(*tree.TreeNode) bool
}

// NewTraversalNode builds a TraversalNode named name walking in order.
func NewTraversalNode(name string, order model.TraversalOrder, visitor func(*tree.TreeNode) any) *TraversalNode {
	return &TraversalNode{
		BaseNode: dataflow.BaseNode{
			NodeName: name,
			Inputs:   map[string]string{"tree": "PerformanceTree"},
			Outputs:  map[string]string{"results": "[]any", "visited_count": "int"},
		},
		Visitor: visitor,
		Order:   order,
	}
}

// Execute implements dataflow.Node.
func (n *TraversalNode) Execute(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	tr, err := requireTree(inputs)
	if err != nil {
		return nil, err
	}

	visitor := n.Visitor
	if visitor == nil {
		visitor = func(node *tree.TreeNode) any { return node }
	}

	var results []any
	visited := 0
	analysis.Traverse(tr, n.Order, func(node *tree.TreeNode) bool {
		visited++
		if v := visitor(node); v != nil {
			results = append(results, v)
		}
		if n.StopCondition != nil && n.StopCondition(node) {
			return false
		}
		return true
	})

	return map[string]any{"results": results, "visited_count": visited}, nil
}

// CacheKey implements dataflow.Node.
func (n *TraversalNode) CacheKey(inputs map[string]any) string {
	return dataflow.DefaultCacheKey("TraversalNode", n.NodeName, n.Inputs, n.Outputs, inputs)
}
