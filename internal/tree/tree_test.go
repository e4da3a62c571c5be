package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perftree/perftree/pkg/model"
)

func frame(fn string) model.Frame {
	return model.Frame{FunctionName: fn, LibraryName: "libtest.so"}
}

func stack(processID int, fns ...string) model.CallStack {
	frames := make([]model.Frame, len(fns))
	// fns given outermost-first for test readability; CallStack wants leaf-first.
	for i, fn := range fns {
		frames[len(fns)-1-i] = frame(fn)
	}
	return model.CallStack{Frames: frames, ProcessID: processID, DurationUs: 100}
}

func TestInsert_SingleStack(t *testing.T) {
	tr := New(model.Both, model.ContextFree)
	tr.Insert(stack(0, "main", "foo", "bar"))

	main := tr.Root().FindChild(frame("main"))
	require.NotNil(t, main)
	foo := main.FindChild(frame("foo"))
	require.NotNil(t, foo)
	bar := foo.FindChild(frame("bar"))
	require.NotNil(t, bar)

	assert.Equal(t, int64(1), bar.Self())
	assert.Equal(t, int64(1), bar.Inclusive())
	assert.Equal(t, int64(0), foo.Self())
	assert.Equal(t, int64(1), foo.Inclusive())
	assert.Equal(t, int64(1), main.Inclusive())
	assert.Equal(t, int64(1), tr.TotalSamples())
	require.NoError(t, tr.Validate())
}

func TestInsert_SiblingUniqueness(t *testing.T) {
	tr := New(model.Both, model.ContextFree)
	tr.Insert(stack(0, "main", "foo"))
	tr.Insert(stack(0, "main", "bar"))

	main := tr.Root().FindChild(frame("main"))
	require.NotNil(t, main)
	assert.Len(t, main.Children(), 2)
	assert.Equal(t, int64(2), main.Inclusive())
	require.NoError(t, tr.Validate())
}

func TestInsert_ContextFreeCollapsesRecursion(t *testing.T) {
	tr := New(model.Both, model.ContextFree)
	tr.Insert(stack(0, "main", "recurse", "recurse", "recurse"))

	main := tr.Root().FindChild(frame("main"))
	require.NotNil(t, main)
	recurse := main.FindChild(frame("recurse"))
	require.NotNil(t, recurse)

	assert.Empty(t, recurse.Children())
	assert.Equal(t, int64(1), recurse.Self())
	assert.Equal(t, int64(3), recurse.Inclusive())
	require.NoError(t, tr.Validate())
}

func TestInsert_ContextFreeFoldsIndirectRecursion(t *testing.T) {
	tr := New(model.Both, model.ContextFree)
	tr.Insert(stack(0, "main", "alpha", "beta", "alpha"))

	main := tr.Root().FindChild(frame("main"))
	require.NotNil(t, main)
	alpha := main.FindChild(frame("alpha"))
	require.NotNil(t, alpha)
	beta := alpha.FindChild(frame("beta"))
	require.NotNil(t, beta)

	// The innermost alpha folds onto its ancestor instead of growing a new
	// node under beta.
	assert.Nil(t, beta.FindChild(frame("alpha")))
	assert.Empty(t, beta.Children())

	assert.Equal(t, int64(1), alpha.Self())
	assert.Equal(t, int64(2), alpha.Inclusive())
	assert.Equal(t, int64(0), beta.Self())
	assert.Equal(t, int64(1), beta.Inclusive())
	require.NoError(t, tr.Validate())
}

func TestInsert_ContextFreeRewindsToFoldedAncestor(t *testing.T) {
	tr := New(model.Both, model.ContextFree)
	tr.Insert(stack(0, "main", "alpha", "beta", "alpha", "gamma"))

	main := tr.Root().FindChild(frame("main"))
	require.NotNil(t, main)
	alpha := main.FindChild(frame("alpha"))
	require.NotNil(t, alpha)

	// After folding the recursive alpha, the frames beneath it continue from
	// the ancestor: gamma is a child of alpha, not of beta.
	gamma := alpha.FindChild(frame("gamma"))
	require.NotNil(t, gamma)
	assert.Equal(t, int64(1), gamma.Self())

	beta := alpha.FindChild(frame("beta"))
	require.NotNil(t, beta)
	assert.Empty(t, beta.Children())
	require.NoError(t, tr.Validate())
}

func TestInsert_ContextAwareKeepsRecursionDepth(t *testing.T) {
	tr := New(model.Both, model.ContextAware)
	tr.Insert(stack(0, "main", "recurse", "recurse", "recurse"))

	main := tr.Root().FindChild(frame("main"))
	require.NotNil(t, main)
	r1 := main.FindChild(frame("recurse"))
	require.NotNil(t, r1)
	r2 := r1.FindChild(frame("recurse"))
	require.NotNil(t, r2)
	r3 := r2.FindChild(frame("recurse"))
	require.NotNil(t, r3)

	assert.Equal(t, int64(1), r3.Self())
	assert.Equal(t, int64(0), r1.Self())
	assert.Equal(t, int64(1), r1.Inclusive())
	require.NoError(t, tr.Validate())
}

func TestInsert_PerProcessCounters(t *testing.T) {
	tr := New(model.Both, model.ContextFree)
	tr.Insert(stack(0, "main", "foo"))
	tr.Insert(stack(1, "main", "foo"))
	tr.Insert(stack(1, "main", "foo"))

	main := tr.Root().FindChild(frame("main"))
	foo := main.FindChild(frame("foo"))

	assert.Equal(t, int64(1), foo.ProcessSelf(0))
	assert.Equal(t, int64(2), foo.ProcessSelf(1))
	assert.Equal(t, int64(3), foo.Self())
	require.NoError(t, tr.Validate())
}

func TestMergeAll_SumsCounters(t *testing.T) {
	a := New(model.Both, model.ContextFree)
	a.Insert(stack(0, "main", "foo"))
	b := New(model.Both, model.ContextFree)
	b.Insert(stack(1, "main", "foo"))
	b.Insert(stack(1, "main", "bar"))

	merged := MergeAll([]*PerformanceTree{a, b}, model.Both, model.ContextFree)
	require.NoError(t, merged.Validate())
	assert.Equal(t, int64(3), merged.TotalSamples())

	main := merged.Root().FindChild(frame("main"))
	require.NotNil(t, main)
	assert.Len(t, main.Children(), 2)
	assert.Equal(t, int64(3), main.Inclusive())
}

func TestExecutionTime_ScalesSelfSamples(t *testing.T) {
	tr := New(model.Both, model.ContextFree)
	tr.SetTimePerSample(500.0)
	tr.Insert(stack(0, "main", "foo"))
	tr.Insert(stack(1, "main", "foo"))
	tr.Insert(stack(1, "main", "foo"))

	foo := tr.Root().FindChild(frame("main")).FindChild(frame("foo"))
	require.NotNil(t, foo)

	assert.Equal(t, 500.0, foo.ExecutionTimeUs(0, tr.TimePerSampleUs()))
	assert.Equal(t, 1000.0, foo.ExecutionTimeUs(1, tr.TimePerSampleUs()))
	assert.Equal(t, 500.0, tr.ProcessExecutionTimeUs(0))
	assert.Equal(t, 1000.0, tr.ProcessExecutionTimeUs(1))
}

func TestMerge_KeepsTimePerSample(t *testing.T) {
	a := New(model.Both, model.ContextFree)
	a.SetTimePerSample(250.0)
	a.Insert(stack(0, "main"))
	b := New(model.Both, model.ContextFree)
	b.SetTimePerSample(250.0)
	b.Insert(stack(0, "main"))

	merged := Merge(a, b)
	assert.Equal(t, 250.0, merged.TimePerSampleUs())
	assert.Equal(t, 500.0, merged.ProcessExecutionTimeUs(0))
}

func TestValidate_DetectsInclusiveLessThanSelf(t *testing.T) {
	tr := New(model.Both, model.ContextFree)
	tr.Insert(stack(0, "main"))
	tr.Root().FindChild(frame("main")).inclusiveCount.Store(0)
	tr.Root().FindChild(frame("main")).selfCount.Store(5)

	err := tr.Validate()
	assert.Error(t, err)
}
