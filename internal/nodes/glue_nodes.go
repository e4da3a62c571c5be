package nodes

import (
	"context"
	"sort"

	"github.com/perftree/perftree/internal/dataflow"
	"github.com/perftree/perftree/internal/tree"
)

// TransformNode is a general-purpose node applying an arbitrary function to
// its inputs. Used to reshape one node's outputs into the port names another
// node expects, or to compute a derived value without a dedicated node type.
type TransformNode struct {
	dataflow.BaseNode
	Transform func(inputs map[string]any) (map[string]any, error)
}

// NewTransformNode builds a TransformNode named name with the given port
// schema and transform function.
func NewTransformNode(name string, inputPorts, outputPorts map[string]string, transform func(map[string]any) (map[string]any, error)) *TransformNode {
	return &TransformNode{
		BaseNode:  dataflow.BaseNode{NodeName: name, Inputs: inputPorts, Outputs: outputPorts},
		Transform: transform,
	}
}

// Execute implements dataflow.Node.
func (n *TransformNode) Execute(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	return n.Transform(inputs)
}

// CacheKey implements dataflow.Node.
func (n *TransformNode) CacheKey(inputs map[string]any) string {
	return dataflow.DefaultCacheKey("TransformNode", n.NodeName, n.Inputs, n.Outputs, inputs)
}

// MergeNode combines several named inputs into a single "merged" map, either
// via a custom MergeFunction or (by default) a plain dict merge.
//
// Outputs: merged (map[string]any), keys ([]string, sorted).
type MergeNode struct {
	dataflow.BaseNode
	MergeFunction func(inputs map[string]any) any
}

// NewMergeNode builds a MergeNode named name accepting the given ports.
func NewMergeNode(name string, ports []string, mergeFn func(map[string]any) any) *MergeNode {
	inputs := make(map[string]string, len(ports))
	for _, p := range ports {
		inputs[p] = "any"
	}
	return &MergeNode{
		BaseNode:      dataflow.BaseNode{NodeName: name, Inputs: inputs, Outputs: map[string]string{"merged": "map", "keys": "[]string"}},
		MergeFunction: mergeFn,
	}
}

// Execute implements dataflow.Node.
func (n *MergeNode) Execute(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	var merged any
	if n.MergeFunction != nil {
		merged = n.MergeFunction(inputs)
	} else {
		copied := make(map[string]any, len(inputs))
		for k, v := range inputs {
			copied[k] = v
		}
		merged = copied
	}

	keys := make([]string, 0, len(inputs))
	for k := range inputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return map[string]any{"merged": merged, "keys": keys}, nil
}

// CacheKey implements dataflow.Node.
func (n *MergeNode) CacheKey(inputs map[string]any) string {
	return dataflow.DefaultCacheKey("MergeNode", n.NodeName, n.Inputs, n.Outputs, inputs)
}

// CustomNode wraps an arbitrary execute function, for one-off analysis steps
// that don't warrant a dedicated node type.
type CustomNode struct {
	dataflow.BaseNode
	ExecuteFn func(ctx context.Context, inputs map[string]any) (map[string]any, error)
}

// NewCustomNode builds a CustomNode named name with the given port schema.
func NewCustomNode(name string, inputPorts, outputPorts map[string]string, fn func(context.Context, map[string]any) (map[string]any, error)) *CustomNode {
	return &CustomNode{
		BaseNode:  dataflow.BaseNode{NodeName: name, Inputs: inputPorts, Outputs: outputPorts},
		ExecuteFn: fn,
	}
}

// Execute implements dataflow.Node.
func (n *CustomNode) Execute(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	return n.ExecuteFn(ctx, inputs)
}

// CacheKey implements dataflow.Node.
func (n *CustomNode) CacheKey(inputs map[string]any) string {
	return dataflow.DefaultCacheKey("CustomNode", n.NodeName, n.Inputs, n.Outputs, inputs)
}

// AggregateNode reduces a PerformanceTree's nodes to a single value, or to
// one value per group when GroupBy is set.
//
// Inputs: tree. Outputs: aggregated (any, or map[string]any when grouped),
// groups (map[string][]*tree.TreeNode, empty when ungrouped).
type AggregateNode struct {
	dataflow.BaseNode
	AggregateFn func([]*tree.TreeNode) any
	GroupBy     func(*tree.TreeNode) string
	FilterFn    func(*tree.TreeNode) bool
}

// NewAggregateNode builds an AggregateNode named name.
func NewAggregateNode(name string, aggregateFn func([]*tree.TreeNode) any) *AggregateNode {
	return &AggregateNode{
		BaseNode: dataflow.BaseNode{
			NodeName: name,
			Inputs:   map[string]string{"tree": "PerformanceTree"},
			Outputs:  map[string]string{"aggregated": "any", "groups": "map"},
		},
		AggregateFn: aggregateFn,
	}
}

// Execute implements dataflow.Node.
func (n *AggregateNode) Execute(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	tr, err := requireTree(inputs)
	if err != nil {
		return nil, err
	}

	var nodes []*tree.TreeNode
	tr.ForEach(func(node *tree.TreeNode) bool {
		if node.IsRoot() {
			return true
		}
		if n.FilterFn == nil || n.FilterFn(node) {
			nodes = append(nodes, node)
		}
		return true
	})

	groups := make(map[string][]*tree.TreeNode)
	var aggregated any

	if n.GroupBy != nil {
		for _, node := range nodes {
			key := n.GroupBy(node)
			groups[key] = append(groups[key], node)
		}
		perGroup := make(map[string]any, len(groups))
		for key, groupNodes := range groups {
			perGroup[key] = n.AggregateFn(groupNodes)
		}
		aggregated = perGroup
	} else {
		aggregated = n.AggregateFn(nodes)
	}

	return map[string]any{"aggregated": aggregated, "groups": groups}, nil
}

// CacheKey implements dataflow.Node.
func (n *AggregateNode) CacheKey(inputs map[string]any) string {
	return dataflow.DefaultCacheKey("AggregateNode", n.NodeName, n.Inputs, n.Outputs, inputs)
}
