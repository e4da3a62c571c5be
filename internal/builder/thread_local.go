package builder

import (
	"context"
	"sync"

	"github.com/perftree/perftree/internal/reader"
	"github.com/perftree/perftree/internal/tree"
)

// buildThreadLocal shards readers across workers, each building its own
// private PerformanceTree with zero synchronization, then tournament-reduces
// the private trees pairwise into the builder's shared tree. This eliminates
// contention entirely during construction at the cost of the reduction
// phase. Best suited to many independent input files.
func (b *TreeBuilder) buildThreadLocal(ctx context.Context, readers []reader.SampleReader) (BuildSummary, error) {
	workers := b.numThreads()
	if workers > len(readers) && len(readers) > 0 {
		workers = len(readers)
	}
	if workers < 1 {
		workers = 1
	}

	shards := shardReaders(readers, workers)
	localTrees := make([]*tree.PerformanceTree, len(shards))
	summaries := make([]BuildSummary, len(shards))

	var wg sync.WaitGroup
	for i, shard := range shards {
		wg.Add(1)
		go func(i int, shard []reader.SampleReader) {
			defer wg.Done()
			local := tree.New(b.cfg.CountMode, b.cfg.Mode)
			s := BuildSummary{}
			for _, r := range shard {
				if err := b.drainInto(ctx, r, local); err != nil {
					s.FilesFailed++
					s.Errors = append(s.Errors, err)
					continue
				}
				s.FilesSucceeded++
			}
			localTrees[i] = local
			summaries[i] = s
		}(i, shard)
	}
	wg.Wait()

	merged := tree.MergeAll(localTrees, b.cfg.CountMode, b.cfg.Mode)
	b.absorb(merged)

	summary := BuildSummary{}
	for _, s := range summaries {
		summary.FilesSucceeded += s.FilesSucceeded
		summary.FilesFailed += s.FilesFailed
		summary.Errors = append(summary.Errors, s.Errors...)
	}
	return b.finishSummary(summary, readers)
}

// absorb merges src's counters into the builder's own tree, leaving src's
// topology untouched. Used after a thread-local reduction so repeated calls
// to BuildFromFilesParallel accumulate onto the same builder tree rather than
// replacing it.
func (b *TreeBuilder) absorb(src *tree.PerformanceTree) {
	if b.tr.TotalSamples() == 0 {
		b.tr = src
	} else {
		b.tr = tree.Merge(b.tr, src)
	}
	b.tr.SetTimePerSample(b.cfg.TimePerSampleUs)
}

// shardReaders splits readers into up to n roughly-equal contiguous shards.
func shardReaders(readers []reader.SampleReader, n int) [][]reader.SampleReader {
	if n <= 0 {
		n = 1
	}
	if n > len(readers) {
		n = len(readers)
	}
	if n == 0 {
		return nil
	}
	shards := make([][]reader.SampleReader, n)
	chunk := (len(readers) + n - 1) / n
	for i := 0; i < n; i++ {
		start := i * chunk
		end := start + chunk
		if start > len(readers) {
			start = len(readers)
		}
		if end > len(readers) {
			end = len(readers)
		}
		shards[i] = readers[start:end]
	}
	return shards
}
