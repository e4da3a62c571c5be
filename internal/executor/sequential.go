package executor

import (
	"context"

	"github.com/perftree/perftree/internal/dataflow"
	"github.com/perftree/perftree/pkg/utils"
)

// SequentialExecutor runs every node, one at a time, in topological order.
// It stops at the first failing node: downstream nodes never run and stay
// PENDING, mirroring the fail-fast behavior of a straight-line script.
type SequentialExecutor struct {
	Logger utils.Logger
	Clock  utils.Clock
}

// NewSequentialExecutor builds a SequentialExecutor logging through logger
// (nil is accepted and treated as silent).
func NewSequentialExecutor(logger utils.Logger) *SequentialExecutor {
	return &SequentialExecutor{Logger: logger, Clock: utils.NewRealClock()}
}

// Execute implements Executor.
func (e *SequentialExecutor) Execute(ctx context.Context, g *dataflow.Graph) (*Report, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	order, err := g.TopologicalSort()
	if err != nil {
		return nil, err
	}

	clock := defaultClock(e.Clock)
	timer := utils.NewTimer("sequential", utils.WithClock(clock), utils.WithLogger(e.Logger))

	report := &Report{Order: order, Results: make(map[string]NodeResult, len(order))}
	outputs := make(map[string]map[string]any, len(order))

	for _, id := range order {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		inputs := gatherInputs(g, id, outputs)
		pt := timer.Start(id)
		result := runNode(ctx, g, id, inputs, e.Logger, clock)
		pt.Stop()
		report.Results[id] = result
		if result.Err != nil {
			timer.PrintSummary()
			return report, result.Err
		}
		outputs[id] = result.Outputs
	}
	timer.PrintSummary()
	return report, nil
}
