// Package executor runs a dataflow.Graph to completion using one of three
// scheduling strategies: Sequential, Parallel and Caching. All
// three share the node lifecycle state machine (PENDING -> READY -> RUNNING
// -> {COMPLETED, FAILED, CACHED}) stored on the graph itself.
package executor

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/perftree/perftree/internal/dataflow"
	perrors "github.com/perftree/perftree/pkg/errors"
	"github.com/perftree/perftree/pkg/model"
	"github.com/perftree/perftree/pkg/utils"
)

var tracer = otel.Tracer("github.com/perftree/perftree/internal/executor")

// NodeResult captures the outcome of executing one node.
type NodeResult struct {
	NodeID   string
	Outputs  map[string]any
	Err      error
	State    model.NodeState
	Cached   bool
	Duration time.Duration
}

// Report is the outcome of running an entire graph.
type Report struct {
	Order   []string
	Results map[string]NodeResult
}

// Failed reports whether any node in the run ended in StateFailed.
func (r *Report) Failed() bool {
	for _, res := range r.Results {
		if res.State == model.StateFailed {
			return true
		}
	}
	return false
}

// Errors collects every node failure, in run order.
func (r *Report) Errors() []error {
	var errs []error
	for _, id := range r.Order {
		if res := r.Results[id]; res.Err != nil {
			errs = append(errs, res.Err)
		}
	}
	return errs
}

// Executor runs a dataflow graph and returns a per-node report.
type Executor interface {
	Execute(ctx context.Context, g *dataflow.Graph) (*Report, error)
}

// defaultClock returns clock if set, otherwise a RealClock. Executors accept
// a nil Clock field and fall back to this at Execute time.
func defaultClock(clock utils.Clock) utils.Clock {
	if clock == nil {
		return utils.NewRealClock()
	}
	return clock
}

// gatherInputs assembles nodeID's input map from the outputs already produced
// by its predecessors, following the port wiring recorded on each edge.
func gatherInputs(g *dataflow.Graph, nodeID string, outputs map[string]map[string]any) map[string]any {
	inputs := make(map[string]any)
	for _, e := range g.Edges() {
		if e.TargetID != nodeID {
			continue
		}
		if src, ok := outputs[e.SourceID]; ok {
			if v, ok := src[e.SourcePort]; ok {
				inputs[e.TargetPort] = v
			}
		}
	}
	return inputs
}

// runNode executes a single node, recording a trace span and updating its
// lifecycle state on g. It never returns an error itself; failures are
// reported through the returned NodeResult so callers can decide whether to
// stop or continue (sequential vs. "join then raise" parallel policy).
//
// clock is injected (rather than calling time.Now/time.Since directly) so
// executor tests can drive node durations with utils.MockClock instead of
// sleeping real wall-clock time.
func runNode(ctx context.Context, g *dataflow.Graph, nodeID string, inputs map[string]any, logger utils.Logger, clock utils.Clock) NodeResult {
	node, ok := g.Node(nodeID)
	if !ok {
		err := perrors.NewGraphSchemaError(fmt.Sprintf("executor: unknown node %q", nodeID))
		return NodeResult{NodeID: nodeID, Err: err, State: model.StateFailed}
	}

	g.SetState(nodeID, model.StateReady)
	ctx, span := tracer.Start(ctx, "dataflow.node.execute", oteltrace.WithAttributes(
		attribute.String("node.id", nodeID),
		attribute.String("node.name", node.Name()),
	))
	defer span.End()

	g.SetState(nodeID, model.StateRunning)
	start := clock.Now()
	outputs, err := node.Execute(ctx, inputs)
	duration := clock.Since(start)

	if err != nil {
		wrapped := perrors.NewNodeExecutionError(node.Name(), err)
		span.RecordError(wrapped)
		span.SetStatus(codes.Error, wrapped.Error())
		g.SetState(nodeID, model.StateFailed)
		if logger != nil {
			logger.Error("node %q failed: %v", node.Name(), err)
		}
		return NodeResult{NodeID: nodeID, Err: wrapped, State: model.StateFailed, Duration: duration}
	}

	g.SetState(nodeID, model.StateCompleted)
	return NodeResult{NodeID: nodeID, Outputs: outputs, State: model.StateCompleted, Duration: duration}
}
