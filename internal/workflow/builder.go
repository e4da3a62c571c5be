// Package workflow provides WorkflowBuilder, a fluent facade over
// internal/dataflow and internal/nodes: LoadData/FindHotspots/
// AnalyzeBalance/FilterNodes/Traverse/Transform/Custom chain together,
// auto-connecting each analysis step to the loaded tree unless told
// otherwise, and Build/Execute hand the assembled graph to internal/executor.
package workflow

import (
	"context"
	"fmt"

	"github.com/perftree/perftree/internal/dataflow"
	"github.com/perftree/perftree/internal/executor"
	"github.com/perftree/perftree/internal/nodes"
	"github.com/perftree/perftree/internal/reader"
	"github.com/perftree/perftree/internal/tree"
	perrors "github.com/perftree/perftree/pkg/errors"
	"github.com/perftree/perftree/pkg/model"
	"github.com/perftree/perftree/pkg/utils"
)

// WorkflowBuilder assembles a dataflow.Graph one step at a time. Errors
// encountered mid-chain are stuck on the builder and surface from Build (or
// Execute); this lets callers chain method calls without checking an error
// after every step.
type WorkflowBuilder struct {
	graph      *dataflow.Graph
	logger     utils.Logger
	ids        map[string]string // lowercase registered name -> node id
	loadID     string
	currentID  string
	currentOut string // output port on currentID most recently produced, for auto-connect
	err        error
}

// New creates an empty WorkflowBuilder for a graph named name.
func New(name string, logger utils.Logger) *WorkflowBuilder {
	return &WorkflowBuilder{
		graph:  dataflow.NewGraph(name),
		logger: logger,
		ids:    make(map[string]string),
	}
}

func (w *WorkflowBuilder) fail(err error) *WorkflowBuilder {
	if w.err == nil {
		w.err = err
	}
	return w
}

func (w *WorkflowBuilder) register(name string, id string) {
	w.ids[lower(name)] = id
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// autoConnectTree wires targetID's "tree" input port to the load node if one
// exists, else to the current node if its last output was itself a tree.
// Hotspot/balance/filter/traverse steps all connect through here.
func (w *WorkflowBuilder) autoConnectTree(targetID string) {
	if w.err != nil {
		return
	}
	if w.loadID != "" {
		if err := w.graph.Connect(w.loadID, targetID, "tree"); err != nil {
			w.fail(err)
		}
		return
	}
	if w.currentID != "" && w.currentOut == "tree" {
		if err := w.graph.Connect(w.currentID, targetID, "tree"); err != nil {
			w.fail(err)
		}
	}
}

// LoadData adds a LoadNode reading from readers and marks it as the
// workflow's load node: every subsequent tree-consuming step auto-connects to
// it unless the caller calls Connect explicitly.
func (w *WorkflowBuilder) LoadData(name string, cfg model.BuildConfig, readers []reader.SampleReader, resolver reader.OffsetResolver) *WorkflowBuilder {
	if w.err != nil {
		return w
	}
	n := nodes.NewLoadNode(name, cfg, readers, w.logger)
	n.Resolver = resolver
	id := w.graph.AddNode(n)
	w.register(name, id)
	w.loadID = id
	w.currentID = id
	w.currentOut = "tree"
	return w
}

// FindHotspots adds a HotspotNode and auto-connects it to the load node (or
// current tree-producing node).
func (w *WorkflowBuilder) FindHotspots(name string, topN int, inclusive bool) *WorkflowBuilder {
	if w.err != nil {
		return w
	}
	n := nodes.NewHotspotNode(name, topN, inclusive)
	id := w.graph.AddNode(n)
	w.register(name, id)
	w.autoConnectTree(id)
	w.currentID = id
	w.currentOut = "hotspots"
	return w
}

// AnalyzeBalance adds a BalanceNode and auto-connects it to the load node (or
// current tree-producing node).
func (w *WorkflowBuilder) AnalyzeBalance(name string) *WorkflowBuilder {
	if w.err != nil {
		return w
	}
	n := nodes.NewBalanceNode(name)
	id := w.graph.AddNode(n)
	w.register(name, id)
	w.autoConnectTree(id)
	w.currentID = id
	w.currentOut = "balance"
	return w
}

// FilterNodes adds a FilterNode, configured by configure, and auto-connects
// it to the load node (or current tree-producing node).
func (w *WorkflowBuilder) FilterNodes(name string, configure func(*nodes.FilterNode)) *WorkflowBuilder {
	if w.err != nil {
		return w
	}
	n := nodes.NewFilterNode(name)
	if configure != nil {
		configure(n)
	}
	id := w.graph.AddNode(n)
	w.register(name, id)
	w.autoConnectTree(id)
	w.currentID = id
	w.currentOut = "nodes"
	return w
}

// Traverse adds a TraversalNode and auto-connects it to the load node (or
// current tree-producing node).
func (w *WorkflowBuilder) Traverse(name string, order model.TraversalOrder, visitor func(*tree.TreeNode) any) *WorkflowBuilder {
	if w.err != nil {
		return w
	}
	n := nodes.NewTraversalNode(name, order, visitor)
	id := w.graph.AddNode(n)
	w.register(name, id)
	w.autoConnectTree(id)
	w.currentID = id
	w.currentOut = "results"
	return w
}

// Transform adds a TransformNode. Unlike the analysis steps, it never
// auto-connects: its inputs are wired explicitly via Connect, since its port
// schema is caller-defined.
func (w *WorkflowBuilder) Transform(name string, inputPorts, outputPorts map[string]string, fn func(map[string]any) (map[string]any, error)) *WorkflowBuilder {
	if w.err != nil {
		return w
	}
	n := nodes.NewTransformNode(name, inputPorts, outputPorts, fn)
	id := w.graph.AddNode(n)
	w.register(name, id)
	w.currentID = id
	w.currentOut = ""
	return w
}

// Custom adds a CustomNode running fn, with no auto-connection.
func (w *WorkflowBuilder) Custom(name string, inputPorts, outputPorts map[string]string, fn func(context.Context, map[string]any) (map[string]any, error)) *WorkflowBuilder {
	if w.err != nil {
		return w
	}
	n := nodes.NewCustomNode(name, inputPorts, outputPorts, fn)
	id := w.graph.AddNode(n)
	w.register(name, id)
	w.currentID = id
	w.currentOut = ""
	return w
}

// AddNode registers an arbitrary dataflow.Node under name, with no
// auto-connection.
func (w *WorkflowBuilder) AddNode(name string, node dataflow.Node) *WorkflowBuilder {
	if w.err != nil {
		return w
	}
	id := w.graph.AddNode(node)
	w.register(name, id)
	w.currentID = id
	w.currentOut = ""
	return w
}

// Connect wires sourceName's output port to targetName's input port, using
// the same port name on both ends. Both names must have been registered by a
// prior builder call.
func (w *WorkflowBuilder) Connect(sourceName, targetName, port string) *WorkflowBuilder {
	return w.ConnectPorts(sourceName, port, targetName, port)
}

// ConnectPorts wires sourceName.sourcePort to targetName.targetPort.
func (w *WorkflowBuilder) ConnectPorts(sourceName, sourcePort, targetName, targetPort string) *WorkflowBuilder {
	if w.err != nil {
		return w
	}
	srcID, ok := w.ids[lower(sourceName)]
	if !ok {
		return w.fail(perrors.NewGraphSchemaError(fmt.Sprintf("workflow: unknown node %q", sourceName)))
	}
	dstID, ok := w.ids[lower(targetName)]
	if !ok {
		return w.fail(perrors.NewGraphSchemaError(fmt.Sprintf("workflow: unknown node %q", targetName)))
	}
	if err := w.graph.ConnectPorts(srcID, sourcePort, dstID, targetPort); err != nil {
		return w.fail(err)
	}
	return w
}

// GetNode returns the node registered under name.
func (w *WorkflowBuilder) GetNode(name string) (dataflow.Node, bool) {
	id, ok := w.ids[lower(name)]
	if !ok {
		return nil, false
	}
	return w.graph.Node(id)
}

// NodeID returns the graph id assigned to the node registered under name.
func (w *WorkflowBuilder) NodeID(name string) (string, bool) {
	id, ok := w.ids[lower(name)]
	return id, ok
}

// Build returns the assembled graph, or the first error encountered while
// building it.
func (w *WorkflowBuilder) Build() (*dataflow.Graph, error) {
	if w.err != nil {
		return nil, w.err
	}
	return w.graph, nil
}

// Execute builds the graph and runs it with exec. If exec is nil, a
// SequentialExecutor is used.
func (w *WorkflowBuilder) Execute(ctx context.Context, exec executor.Executor) (*executor.Report, error) {
	g, err := w.Build()
	if err != nil {
		return nil, err
	}
	if exec == nil {
		exec = executor.NewSequentialExecutor(w.logger)
	}
	return exec.Execute(ctx, g)
}
