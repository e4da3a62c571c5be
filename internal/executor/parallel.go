package executor

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/perftree/perftree/internal/dataflow"
	"github.com/perftree/perftree/pkg/utils"
)

// ParallelExecutor runs each topological parallel group
// (dataflow.Graph.ParallelGroups) concurrently, bounded by MaxWorkers, and
// runs groups themselves one after another since a later group may consume
// an earlier group's outputs.
//
// Failure policy is "join then raise": every node
// that started in a group runs to completion before any error is surfaced,
// so one node's failure never starves or cancels a sibling already running.
// A failed group still stops the overall run, since every later group could
// depend on the failed node's output.
type ParallelExecutor struct {
	MaxWorkers int
	Logger     utils.Logger
	Clock      utils.Clock
}

// NewParallelExecutor builds a ParallelExecutor bounded to maxWorkers
// concurrent node executions per group (0 means hardware concurrency).
func NewParallelExecutor(maxWorkers int, logger utils.Logger) *ParallelExecutor {
	return &ParallelExecutor{MaxWorkers: maxWorkers, Logger: logger, Clock: utils.NewRealClock()}
}

func (e *ParallelExecutor) workerLimit() int {
	if e.MaxWorkers > 0 {
		return e.MaxWorkers
	}
	n := runtime.NumCPU()
	if n < 1 {
		n = 1
	}
	return n
}

// Execute implements Executor.
func (e *ParallelExecutor) Execute(ctx context.Context, g *dataflow.Graph) (*Report, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	groups, err := g.ParallelGroups()
	if err != nil {
		return nil, err
	}

	var order []string
	for _, grp := range groups {
		order = append(order, grp...)
	}
	report := &Report{Order: order, Results: make(map[string]NodeResult, len(order))}

	outputs := make(map[string]map[string]any, len(order))
	var mu sync.Mutex

	clock := defaultClock(e.Clock)
	timer := utils.NewTimer("parallel", utils.WithClock(clock), utils.WithLogger(e.Logger))

	for groupIdx, group := range groups {
		groupName := fmt.Sprintf("group-%d", groupIdx)
		pt := timer.Start(groupName)
		var eg errgroup.Group
		eg.SetLimit(e.workerLimit())

		for _, id := range group {
			id := id
			mu.Lock()
			inputs := gatherInputs(g, id, outputs)
			mu.Unlock()

			eg.Go(func() error {
				result := runNode(ctx, g, id, inputs, e.Logger, clock)
				mu.Lock()
				report.Results[id] = result
				outputs[id] = result.Outputs
				mu.Unlock()
				return result.Err
			})
		}

		// eg.Wait blocks until every node in this group has finished (the
		// "join"), then we inspect results for the "raise": errgroup.Group's
		// own first-error short-circuit never reaches here since plain
		// errgroup.Group (unlike WithContext) carries no cancellation signal.
		_ = eg.Wait()
		pt.Stop()
		if groupErr := collectGroupErrors(report, group); groupErr != nil {
			timer.PrintSummary()
			return report, groupErr
		}
	}
	timer.PrintSummary()
	return report, nil
}

func collectGroupErrors(report *Report, group []string) error {
	var errs []error
	for _, id := range group {
		if res, ok := report.Results[id]; ok && res.Err != nil {
			errs = append(errs, res.Err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}
