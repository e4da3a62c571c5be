package analysis

import (
	"math"
	"sort"

	"github.com/perftree/perftree/internal/tree"
)

// Balance is the workload-distribution summary produced by AnalyzeBalance.
// ProcessSamples and ProcessIDs share an index: ProcessSamples[i] is the
// total self sample count for ProcessIDs[i].
type Balance struct {
	ProcessIDs         []int
	ProcessSamples     []int64
	ProcessTimesUs     []float64
	Mean               float64
	StdDev             float64
	Min                int64
	Max                int64
	MostLoadedProcess  int
	LeastLoadedProcess int
	ImbalanceFactor    float64
}

// AnalyzeBalance sums per-process self-sample counts across every node in t
// and derives the workload-distribution statistics. Process ids are sorted
// ascending so repeated calls on the same tree are deterministic.
func AnalyzeBalance(t *tree.PerformanceTree) Balance {
	totals := make(map[int]int64)
	Traverse(t, PreOrder, func(n *tree.TreeNode) bool {
		for _, pid := range n.ProcessIDs() {
			totals[pid] += n.ProcessSelf(pid)
		}
		return true
	})

	ids := make([]int, 0, len(totals))
	for pid := range totals {
		ids = append(ids, pid)
	}
	sort.Ints(ids)

	samples := make([]int64, len(ids))
	timesUs := make([]float64, len(ids))
	for i, pid := range ids {
		samples[i] = totals[pid]
		timesUs[i] = float64(totals[pid]) * t.TimePerSampleUs()
	}

	b := Balance{ProcessIDs: ids, ProcessSamples: samples, ProcessTimesUs: timesUs}
	if len(samples) == 0 {
		return b
	}

	var sum int64
	b.Min = samples[0]
	b.Max = samples[0]
	b.MostLoadedProcess = ids[0]
	b.LeastLoadedProcess = ids[0]
	for i, s := range samples {
		sum += s
		if s > b.Max {
			b.Max = s
			b.MostLoadedProcess = ids[i]
		}
		if s < b.Min {
			b.Min = s
			b.LeastLoadedProcess = ids[i]
		}
	}
	b.Mean = float64(sum) / float64(len(samples))

	var variance float64
	for _, s := range samples {
		d := float64(s) - b.Mean
		variance += d * d
	}
	variance /= float64(len(samples))
	b.StdDev = math.Sqrt(variance)

	if b.Mean > 0 {
		b.ImbalanceFactor = (float64(b.Max) - b.Mean) / b.Mean
	}
	return b
}
