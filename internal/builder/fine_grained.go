package builder

import (
	"context"
	"sync"

	"github.com/perftree/perftree/internal/reader"
	"github.com/perftree/perftree/pkg/parallel"
)

// buildFineGrained drains every reader concurrently, inserting directly into
// the shared tree. internal/tree.TreeNode.GetOrCreateChild takes a per-node
// mutex only around the find-or-create step, so concurrent insertions from
// different goroutines serialize at whichever node they happen to share,
// never at the tree as a whole. Best suited to deep trees with many distinct
// call paths, where contention at any single node stays low.
//
// Draining itself is dispatched through a pkg/parallel.WorkerPool, one task
// per reader, bounded to numThreads() concurrent workers.
func (b *TreeBuilder) buildFineGrained(ctx context.Context, readers []reader.SampleReader) (BuildSummary, error) {
	workers := b.numThreads()
	if workers > len(readers) && len(readers) > 0 {
		workers = len(readers)
	}
	if workers < 1 {
		workers = 1
	}

	pool := parallel.NewWorkerPool[reader.SampleReader, struct{}](
		parallel.DefaultPoolConfig().WithWorkers(workers),
	)

	var mu sync.Mutex
	summary := BuildSummary{}

	pool.ExecuteFunc(ctx, readers, func(ctx context.Context, r reader.SampleReader) (struct{}, error) {
		err := b.drainInto(ctx, r, b.tr)
		mu.Lock()
		if err != nil {
			summary.FilesFailed++
			summary.Errors = append(summary.Errors, err)
			b.logger.Warn("builder: reader failed: %v", err)
		} else {
			summary.FilesSucceeded++
		}
		mu.Unlock()
		return struct{}{}, err
	})

	return b.finishSummary(summary, readers)
}
