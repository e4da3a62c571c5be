package builder

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perftree/perftree/internal/reader"
	"github.com/perftree/perftree/internal/testutil"
	"github.com/perftree/perftree/internal/tree"
	"github.com/perftree/perftree/pkg/model"
)

func readersFor(groups [][]model.CallStack) []reader.SampleReader {
	out := make([]reader.SampleReader, len(groups))
	for i, g := range groups {
		out[i] = reader.NewSliceReader(g)
	}
	return out
}

func TestBuildFromFiles_TwoProcessCounting(t *testing.T) {
	b := New(model.DefaultBuildConfig(), nil)
	fixture := testutil.TwoProcessStacks()
	readers := readersFor([][]model.CallStack{fixture[:1], fixture[1:]})

	summary, err := b.BuildFromFiles(context.Background(), readers)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.FilesSucceeded)
	assert.Equal(t, 0, summary.FilesFailed)

	b.SetDebugValidation(true)
	tr, err := b.Tree()
	require.NoError(t, err)
	require.NoError(t, tr.Validate())

	assert.Equal(t, int64(3), tr.TotalSamples())
	main := tr.Root().FindChild(testutil.Frame("main"))
	require.NotNil(t, main)
	assert.Equal(t, int64(3), main.Inclusive())
	assert.Equal(t, int64(0), main.Self())

	compute := main.FindChild(testutil.Frame("compute"))
	require.NotNil(t, compute)
	assert.Equal(t, int64(2), compute.Inclusive())

	kernel := compute.FindChild(testutil.Frame("kernel"))
	require.NotNil(t, kernel)
	assert.Equal(t, int64(2), kernel.Self())
	assert.Equal(t, int64(2), kernel.Inclusive())

	io := main.FindChild(testutil.Frame("io"))
	require.NotNil(t, io)
	assert.Equal(t, int64(1), io.Self())
}

func TestBuildFromFiles_ZeroSuccessAborts(t *testing.T) {
	b := New(model.DefaultBuildConfig(), nil)
	// A reader with no data at all succeeds trivially (zero stacks is not a
	// failure); simulate a genuine failure via a context already cancelled.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	readers := readersFor([][]model.CallStack{{testutil.Stack(0, "main")}})
	_, err := b.BuildFromFiles(ctx, readers)
	require.Error(t, err)
}

func TestBuildFromFiles_EmptyInputYieldsRootOnlyTree(t *testing.T) {
	b := New(model.DefaultBuildConfig(), nil)
	tr, err := b.Tree()
	require.NoError(t, err)
	assert.Equal(t, int64(0), tr.TotalSamples())
	assert.Equal(t, 0, tr.NodeCount())
}

func TestConcurrencyModelEquivalence(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	functionPool := []string{"alpha", "beta", "gamma", "delta", "epsilon", "zeta", "eta", "theta"}

	const numFiles = 4
	const stacksPerFile = 500
	groups := make([][]model.CallStack, numFiles)
	for f := 0; f < numFiles; f++ {
		stacks := make([]model.CallStack, stacksPerFile)
		for i := 0; i < stacksPerFile; i++ {
			depth := 1 + rng.Intn(8)
			fns := make([]string, depth)
			for d := 0; d < depth; d++ {
				fns[d] = functionPool[rng.Intn(len(functionPool))]
			}
			stacks[i] = testutil.Stack(f, fns...)
		}
		groups[f] = stacks
	}

	buildWith := func(m model.ConcurrencyModel) *tree.PerformanceTree {
		cfg := model.DefaultBuildConfig()
		cfg.Concurrency = m
		cfg.NumThreads = 4
		b := New(cfg, nil)
		_, err := b.BuildFromFilesParallel(context.Background(), readersFor(groups))
		require.NoError(t, err)
		tr, err := b.Tree()
		require.NoError(t, err)
		return tr
	}

	serial := buildWith(model.Serial)
	require.NoError(t, serial.Validate())

	for _, m := range []model.ConcurrencyModel{model.FineGrainedLock, model.ThreadLocalMerge, model.LockFree} {
		parallel := buildWith(m)
		require.NoError(t, parallel.Validate())
		testutil.AssertCounterEquivalent(t, serial, parallel, m.String())
	}
}
