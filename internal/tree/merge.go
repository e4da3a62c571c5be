package tree

import "github.com/perftree/perftree/pkg/model"

// Merge combines two PerformanceTrees built with the same count/build mode
// into a new tree, matching nodes positionally by the (parent, frame key)
// path and summing their counters. This is the pairwise reduction step
// MergeAll applies, which the thread-local-merge concurrency model uses to
// fold per-worker private trees into one result.
func Merge(a, b *PerformanceTree) *PerformanceTree {
	out := New(a.countMode, a.buildMode)
	out.timePerSampleUs = a.timePerSampleUs
	mergeSubtree(out.root, a.root)
	mergeSubtree(out.root, b.root)
	out.totalSamples.Store(a.totalSamples.Load() + b.totalSamples.Load())
	return out
}

// mergeSubtree copies src's counters and descendants onto dst, creating
// matching children in dst as needed.
func mergeSubtree(dst *TreeNode, src *TreeNode) {
	if !src.IsRoot() {
		for _, id := range src.ProcessIDs() {
			dst.AddSelf(id, src.ProcessSelf(id))
			dst.AddInclusive(id, src.ProcessInclusive(id))
		}
	}

	for _, srcChild := range src.Children() {
		dstChild, _ := dst.GetOrCreateChild(srcChild.Frame)
		mergeSubtree(dstChild, srcChild)
	}
}

// MergeAll tournament-reduces a slice of trees pairwise into one. Order does
// not affect the result: merging is commutative and associative because it
// only sums counters keyed by (path, process id).
func MergeAll(trees []*PerformanceTree, countMode model.SampleCountMode, buildMode model.BuildMode) *PerformanceTree {
	if len(trees) == 0 {
		return New(countMode, buildMode)
	}
	round := trees
	for len(round) > 1 {
		next := make([]*PerformanceTree, 0, (len(round)+1)/2)
		for i := 0; i < len(round); i += 2 {
			if i+1 < len(round) {
				next = append(next, Merge(round[i], round[i+1]))
			} else {
				next = append(next, round[i])
			}
		}
		round = next
	}
	return round[0]
}
