// Package builder constructs a PerformanceTree from sample streams using one
// of four pluggable concurrency models: Serial, FineGrainedLock,
// ThreadLocalMerge and LockFree. All four models insert call stacks into a
// internal/tree.PerformanceTree with identical counting semantics; they
// differ only in how they parallelize across input files.
package builder

import (
	"context"
	"runtime"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/perftree/perftree/internal/reader"
	"github.com/perftree/perftree/internal/tree"
	perrors "github.com/perftree/perftree/pkg/errors"
	"github.com/perftree/perftree/pkg/model"
	"github.com/perftree/perftree/pkg/utils"
)

var tracer = otel.Tracer("github.com/perftree/perftree/internal/builder")

// BuildSummary reports how many sample files a bulk ingest succeeded or
// failed on. BuildFromFiles aborts with an error if FilesSucceeded is zero
// and at least one file was attempted.
type BuildSummary struct {
	FilesSucceeded int
	FilesFailed    int
	Errors         []error
}

// TreeBuilder owns the PerformanceTree under construction, the active
// concurrency model, and the thread count used by the parallel models.
type TreeBuilder struct {
	cfg        model.BuildConfig
	tr         *tree.PerformanceTree
	resolver   reader.OffsetResolver
	logger     utils.Logger
	debugCheck bool

	mu        sync.Mutex
	finalized bool
}

// New creates a TreeBuilder configured per cfg. A nil logger is treated as
// silent (utils.NullLogger).
func New(cfg model.BuildConfig, logger utils.Logger) *TreeBuilder {
	if logger == nil {
		logger = &utils.NullLogger{}
	}
	tr := tree.New(cfg.CountMode, cfg.Mode)
	tr.SetTimePerSample(cfg.TimePerSampleUs)
	return &TreeBuilder{
		cfg:    cfg,
		tr:     tr,
		logger: logger,
	}
}

// SetNumThreads overrides the worker count the parallel concurrency models
// use. 0 means auto-detect (runtime.NumCPU()).
func (b *TreeBuilder) SetNumThreads(n int) {
	b.cfg.NumThreads = n
}

// SetConcurrencyModel switches which model build_from_files_parallel uses.
func (b *TreeBuilder) SetConcurrencyModel(m model.ConcurrencyModel) {
	b.cfg.Concurrency = m
}

// SetDebugValidation enables invariant checking when Tree() finalizes the
// build. Disabled by default: production builds should not pay for an O(n)
// walk of every node on every Tree() call.
func (b *TreeBuilder) SetDebugValidation(enabled bool) {
	b.debugCheck = enabled
}

// LoadLibraryMaps registers the OffsetResolver used to resolve raw addresses
// encountered while decoding sample files. This delegates entirely to the
// injected collaborator; the builder itself never parses library maps.
func (b *TreeBuilder) LoadLibraryMaps(resolver reader.OffsetResolver) {
	b.resolver = resolver
}

// Resolver returns the currently registered OffsetResolver, or nil.
func (b *TreeBuilder) Resolver() reader.OffsetResolver {
	return b.resolver
}

func (b *TreeBuilder) numThreads() int {
	if b.cfg.NumThreads > 0 {
		return b.cfg.NumThreads
	}
	n := runtime.NumCPU()
	if n < 1 {
		n = 1
	}
	return n
}

// Insert folds one sample observation directly into the tree under
// construction. Safe to call concurrently: internal/tree.TreeNode guards its
// own structural mutations and counters.
func (b *TreeBuilder) Insert(stack model.CallStack) error {
	if err := stack.Validate(); err != nil {
		return perrors.NewInvalidArgument(err.Error())
	}
	b.mu.Lock()
	finalized := b.finalized
	b.mu.Unlock()
	if finalized {
		return perrors.NewInvalidArgument("builder: cannot insert after Tree() has finalized the build")
	}
	b.tr.Insert(stack)
	return nil
}

// BuildFromFiles drains each reader sequentially, inserting every call stack
// it yields. Per-reader errors are counted rather than aborting immediately;
// the call only returns an error if every reader failed.
func (b *TreeBuilder) BuildFromFiles(ctx context.Context, readers []reader.SampleReader) (BuildSummary, error) {
	summary := BuildSummary{}
	for _, r := range readers {
		if err := b.drainInto(ctx, r, b.tr); err != nil {
			summary.FilesFailed++
			summary.Errors = append(summary.Errors, err)
			b.logger.Warn("builder: reader failed: %v", err)
			continue
		}
		summary.FilesSucceeded++
	}
	return b.finishSummary(summary, readers)
}

// BuildFromFilesParallel ingests readers using the builder's configured
// concurrency model. Serial falls back to BuildFromFiles. Emits one trace
// span per call, tagged with the model and file count, mirroring
// internal/executor's per-node span convention.
func (b *TreeBuilder) BuildFromFilesParallel(ctx context.Context, readers []reader.SampleReader) (BuildSummary, error) {
	ctx, span := tracer.Start(ctx, "builder.build_from_files_parallel", oteltrace.WithAttributes(
		attribute.String("concurrency_model", b.cfg.Concurrency.String()),
		attribute.Int("file_count", len(readers)),
	))
	defer span.End()

	var summary BuildSummary
	var err error
	switch b.cfg.Concurrency {
	case model.FineGrainedLock:
		summary, err = b.buildFineGrained(ctx, readers)
	case model.ThreadLocalMerge:
		summary, err = b.buildThreadLocal(ctx, readers)
	case model.LockFree:
		summary, err = b.buildLockFree(ctx, readers)
	default:
		summary, err = b.BuildFromFiles(ctx, readers)
	}

	span.SetAttributes(
		attribute.Int("files_succeeded", summary.FilesSucceeded),
		attribute.Int("files_failed", summary.FilesFailed),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return summary, err
}

func (b *TreeBuilder) finishSummary(summary BuildSummary, readers []reader.SampleReader) (BuildSummary, error) {
	if len(readers) > 0 && summary.FilesSucceeded == 0 {
		return summary, perrors.NewIOFailure("builder: every sample reader failed", joinErrors(summary.Errors))
	}
	b.logger.Info("builder: build complete: %d succeeded, %d failed", summary.FilesSucceeded, summary.FilesFailed)
	return summary, nil
}

func (b *TreeBuilder) drainInto(ctx context.Context, r reader.SampleReader, into *tree.PerformanceTree) error {
	defer r.Close()
	stacks, err := reader.ReadAll(ctx, r)
	if err != nil {
		return err
	}
	for _, s := range stacks {
		into.Insert(s)
	}
	return nil
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return errs[0]
}

// Tree finalizes and returns the built PerformanceTree. When debug
// validation is enabled, the tree's counting and structural invariants are
// checked and an InvariantViolation error is returned if any fail.
func (b *TreeBuilder) Tree() (*tree.PerformanceTree, error) {
	b.mu.Lock()
	b.finalized = true
	b.mu.Unlock()

	if b.debugCheck {
		if err := b.tr.Validate(); err != nil {
			return nil, err
		}
	}
	return b.tr, nil
}
