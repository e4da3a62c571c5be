// Package nodes provides the ready-to-use dataflow.Node implementations
// WorkflowBuilder wires into a graph: loading sample data, running the
// analysis package's hotspot/balance/filter/traversal helpers, and a handful
// of general-purpose glue nodes (transform, merge, aggregate, custom,
// report) for composing them.
package nodes

import (
	"context"

	"github.com/perftree/perftree/internal/builder"
	"github.com/perftree/perftree/internal/dataflow"
	"github.com/perftree/perftree/internal/reader"
	"github.com/perftree/perftree/pkg/model"
	"github.com/perftree/perftree/pkg/utils"
)

// LoadNode is a source node (no inputs) that builds a PerformanceTree from a
// set of SampleReaders using a TreeBuilder.
//
// Outputs:
//   - tree: *tree.PerformanceTree
//   - builder: *builder.TreeBuilder that built the tree. The BuildSummary of
//     the build is discarded and cannot be read from this output.
type LoadNode struct {
	dataflow.BaseNode
	Config   model.BuildConfig
	Readers  []reader.SampleReader
	Resolver reader.OffsetResolver
	Logger   utils.Logger
}

// NewLoadNode builds a LoadNode named name reading from readers.
func NewLoadNode(name string, cfg model.BuildConfig, readers []reader.SampleReader, logger utils.Logger) *LoadNode {
	return &LoadNode{
		BaseNode: dataflow.BaseNode{
			NodeName: name,
			Inputs:   map[string]string{},
			Outputs:  map[string]string{"tree": "PerformanceTree", "builder": "TreeBuilder"},
		},
		Config:  cfg,
		Readers: readers,
		Logger:  logger,
	}
}

// Execute implements dataflow.Node.
func (n *LoadNode) Execute(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	b := builder.New(n.Config, n.Logger)
	if n.Resolver != nil {
		b.LoadLibraryMaps(n.Resolver)
	}

	if _, err := b.BuildFromFilesParallel(ctx, n.Readers); err != nil {
		return nil, err
	}
	tr, err := b.Tree()
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"tree":    tr,
		"builder": b,
	}, nil
}

// CacheKey implements dataflow.Node.
func (n *LoadNode) CacheKey(inputs map[string]any) string {
	return dataflow.DefaultCacheKey("LoadNode", n.NodeName, n.Inputs, n.Outputs, inputs)
}
