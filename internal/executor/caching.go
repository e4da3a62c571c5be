package executor

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/perftree/perftree/internal/dataflow"
	perrors "github.com/perftree/perftree/pkg/errors"
	"github.com/perftree/perftree/pkg/model"
	"github.com/perftree/perftree/pkg/utils"
)

// DefaultMaxCacheEntries bounds a CachingExecutor's LRU when the caller does
// not specify one.
const DefaultMaxCacheEntries = 128

// CachingExecutor runs nodes in topological order like SequentialExecutor,
// but skips a node's Execute call whenever an LRU lookup on
// Node.CacheKey(inputs) already holds its outputs. ForceRecompute disables
// lookups, but cache entries are still refreshed after each execution.
type CachingExecutor struct {
	ForceRecompute bool
	Logger         utils.Logger
	Clock          utils.Clock

	mu     sync.Mutex
	cache  *lru.Cache[string, map[string]any]
	hits   int
	misses int
}

// NewCachingExecutor builds a CachingExecutor with an LRU of maxEntries
// (DefaultMaxCacheEntries if <= 0).
func NewCachingExecutor(maxEntries int, logger utils.Logger) *CachingExecutor {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxCacheEntries
	}
	cache, _ := lru.New[string, map[string]any](maxEntries)
	return &CachingExecutor{Logger: logger, cache: cache, Clock: utils.NewRealClock()}
}

// Stats returns the cumulative hit/miss counts across every Execute call
// made on this executor.
func (e *CachingExecutor) Stats() (hits, misses int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hits, e.misses
}

// Purge empties the cache and resets hit/miss counters.
func (e *CachingExecutor) Purge() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache.Purge()
	e.hits = 0
	e.misses = 0
}

// Execute implements Executor.
func (e *CachingExecutor) Execute(ctx context.Context, g *dataflow.Graph) (*Report, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	order, err := g.TopologicalSort()
	if err != nil {
		return nil, err
	}

	report := &Report{Order: order, Results: make(map[string]NodeResult, len(order))}
	outputs := make(map[string]map[string]any, len(order))

	clock := defaultClock(e.Clock)
	timer := utils.NewTimer("caching", utils.WithClock(clock), utils.WithLogger(e.Logger))

	for _, id := range order {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		node, ok := g.Node(id)
		if !ok {
			err := perrors.NewGraphSchemaError("executor: unknown node " + id)
			return report, err
		}
		inputs := gatherInputs(g, id, outputs)
		key := node.CacheKey(inputs)
		pt := timer.Start(id)
		g.SetState(id, model.StateReady)

		if !e.ForceRecompute {
			if cached, ok := e.lookup(key); ok {
				g.SetState(id, model.StateCached)
				result := NodeResult{NodeID: id, Outputs: cached, State: model.StateCached, Cached: true}
				report.Results[id] = result
				outputs[id] = cached
				pt.Stop()
				if e.Logger != nil {
					e.Logger.Debug("node %q cache hit", node.Name())
				}
				continue
			}
		}
		e.recordMiss()

		result := runNode(ctx, g, id, inputs, e.Logger, clock)
		pt.Stop()
		report.Results[id] = result
		if result.Err != nil {
			timer.PrintSummary()
			return report, result.Err
		}
		outputs[id] = result.Outputs
		e.store(key, result.Outputs)
	}
	timer.PrintSummary()
	return report, nil
}

func (e *CachingExecutor) lookup(key string) (map[string]any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.cache.Get(key)
	if ok {
		e.hits++
	}
	return v, ok
}

func (e *CachingExecutor) recordMiss() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.misses++
}

func (e *CachingExecutor) store(key string, outputs map[string]any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache.Add(key, outputs)
}
