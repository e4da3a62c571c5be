package builder

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/perftree/perftree/internal/reader"
	"github.com/perftree/perftree/pkg/model"
)

// buildLockFree reads every file's full stack set up front, then fans the
// individual call stacks out round-robin across workers rather than
// partitioning whole files. Distinct readers commonly share the same hot
// call paths (e.g. every process calling the same runtime init routine), so
// interleaving stacks this way deliberately maximizes contention on a small
// set of hot nodes, the case internal/tree.TreeNode's atomic aggregate
// counters are built for. The insert path still takes locks: every frame's
// child lookup goes through GetOrCreateChild's per-parent mutex, and every
// counter update takes the node's mutex to find its per-process counters.
func (b *TreeBuilder) buildLockFree(ctx context.Context, readers []reader.SampleReader) (BuildSummary, error) {
	summary := BuildSummary{}

	var allStacks []model.CallStack
	for _, r := range readers {
		stacks, err := reader.ReadAll(ctx, r)
		r.Close()
		if err != nil {
			summary.FilesFailed++
			summary.Errors = append(summary.Errors, err)
			b.logger.Warn("builder: reader failed: %v", err)
			continue
		}
		summary.FilesSucceeded++
		allStacks = append(allStacks, stacks...)
	}

	workers := b.numThreads()
	if workers < 1 {
		workers = 1
	}

	var next atomic.Int64
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := next.Add(1) - 1
				if int(i) >= len(allStacks) {
					return
				}
				b.tr.Insert(allStacks[i])
			}
		}()
	}
	wg.Wait()

	return b.finishSummary(summary, readers)
}
