// Package dataflow models the typed node/edge analysis DAG: ports, edges,
// topological scheduling and parallel-group planning. Execution itself lives
// in internal/executor; this package only models and validates the graph
// shape.
package dataflow

import (
	"context"
	"fmt"
	"reflect"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// Node is the interface every analysis subtask implements.
//
// Execute must be side-effect-free with respect to node configuration: the
// caching executor relies on CacheKey producing the same value before and
// after a run.
type Node interface {
	// Name is this node's human-readable, not-necessarily-unique label.
	Name() string
	// InputPorts returns the input port name -> type tag mapping.
	InputPorts() map[string]string
	// OutputPorts returns the output port name -> type tag mapping.
	OutputPorts() map[string]string
	// Execute runs the node given a map of input port name to value and
	// returns a map of output port name to produced value.
	Execute(ctx context.Context, inputs map[string]any) (map[string]any, error)
	// CacheKey returns a deterministic key for this node's configuration and
	// the given inputs, used by the caching executor.
	CacheKey(inputs map[string]any) string
}

// BaseNode is embedded by concrete node implementations in internal/nodes to
// supply the boilerplate Name/InputPorts/OutputPorts/CacheKey plumbing every
// node needs.
type BaseNode struct {
	NodeName string
	Inputs   map[string]string
	Outputs  map[string]string
}

// Name implements Node.
func (b *BaseNode) Name() string { return b.NodeName }

// InputPorts implements Node.
func (b *BaseNode) InputPorts() map[string]string { return b.Inputs }

// OutputPorts implements Node.
func (b *BaseNode) OutputPorts() map[string]string { return b.Outputs }

// DefaultCacheKey computes the default deterministic key: a hash of
// (class name, node name, sorted port names, per-input value
// representation). className should be the concrete node's type name (e.g.
// "HotspotNode"); concrete nodes pass it through to DefaultCacheKey.
//
// Values that can't be rendered deterministically (anything without a
// %v-stable representation, e.g. a live *tree.PerformanceTree pointer)
// fall back to an identity-based token, which is stable within a single run
// but not across runs.
func DefaultCacheKey(className, nodeName string, inputPorts, outputPorts map[string]string, inputs map[string]any) string {
	h := xxhash.New()
	fmt.Fprintf(h, "%s|%s|%s|%s", className, nodeName, sortedPairs(inputPorts), sortedPairs(outputPorts))

	keys := make([]string, 0, len(inputs))
	for k := range inputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(h, "|%s:%s", k, valueToken(inputs[k]))
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

func sortedPairs(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := ""
	for i, k := range keys {
		if i > 0 {
			out += ","
		}
		out += k + "=" + m[k]
	}
	return out
}

// cacheable is implemented by values that know how to render a stable,
// content-addressed token for CacheKey purposes (e.g. a PerformanceTree
// wrapper keyed by a content hash computed at load time).
type cacheable interface {
	CacheToken() string
}

func valueToken(v any) string {
	if c, ok := v.(cacheable); ok {
		return c.CacheToken()
	}
	switch t := v.(type) {
	case string, int, int32, int64, float32, float64, bool:
		return fmt.Sprintf("%v", t)
	}

	// Not canonically serializable (e.g. a live tree/graph pointer): fall
	// back to an identity-based token. Using the underlying pointer value
	// itself (not the address of the local interface copy) keeps the token
	// stable across repeated calls with the same object, so re-executing an
	// unchanged graph hits the cache.
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		if rv.IsNil() {
			return "nil"
		}
		return fmt.Sprintf("id:%#x", rv.Pointer())
	default:
		return fmt.Sprintf("%v", v)
	}
}
