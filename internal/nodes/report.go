package nodes

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/perftree/perftree/internal/analysis"
	"github.com/perftree/perftree/internal/dataflow"
	"github.com/perftree/perftree/internal/store"
)

// ReportNode renders a human-readable text summary from whichever of
// "hotspots" and "balance" are wired in; either port may be left
// unconnected. This is the terminal node workflow presets attach to produce
// a final artifact.
//
// When Store is set, Execute also persists a store.RunRecord under Store; a
// nil Store (the default) means the node renders the report and persists
// nothing.
//
// Inputs: hotspots ([]analysis.Hotspot, optional), balance (analysis.Balance, optional).
// Outputs: report (string), run_id (string, empty unless Store is set).
type ReportNode struct {
	dataflow.BaseNode
	Title       string
	Store       store.Store
	CacheHits   int
	CacheMisses int
}

// NewReportNode builds a ReportNode named name with heading title.
func NewReportNode(name, title string) *ReportNode {
	return &ReportNode{
		BaseNode: dataflow.BaseNode{
			NodeName: name,
			Inputs:   map[string]string{"hotspots": "[]Hotspot", "balance": "Balance"},
			Outputs:  map[string]string{"report": "string", "run_id": "string"},
		},
		Title: title,
	}
}

// Execute implements dataflow.Node.
func (n *ReportNode) Execute(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "=== %s ===\n", n.Title)

	var hotspots []analysis.Hotspot
	var hasHotspots bool
	if raw, ok := inputs["hotspots"]; ok {
		if hs, ok := raw.([]analysis.Hotspot); ok {
			hotspots, hasHotspots = hs, true
			fmt.Fprintf(&b, "\nTop hotspots:\n")
			for i, h := range hs {
				fmt.Fprintf(&b, "  %d. %s (%s) self=%.2f%% total=%.2f%%\n",
					i+1, h.FunctionName, h.LibraryName, h.SelfPercentage, h.TotalPercentage)
			}
		}
	}

	var bal analysis.Balance
	var hasBalance bool
	if raw, ok := inputs["balance"]; ok {
		if b2, ok := raw.(analysis.Balance); ok {
			bal, hasBalance = b2, true
			fmt.Fprintf(&b, "\nWorkload balance:\n")
			fmt.Fprintf(&b, "  mean=%.2f stddev=%.2f min=%d max=%d imbalance=%.4f\n",
				bal.Mean, bal.StdDev, bal.Min, bal.Max, bal.ImbalanceFactor)
			fmt.Fprintf(&b, "  most loaded: process %d, least loaded: process %d\n",
				bal.MostLoadedProcess, bal.LeastLoadedProcess)
		}
	}

	out := map[string]any{"report": b.String(), "run_id": ""}
	if n.Store == nil {
		return out, nil
	}

	rec := &store.RunRecord{WorkflowName: n.Title, CacheHits: n.CacheHits, CacheMisses: n.CacheMisses}
	if hasHotspots {
		if raw, err := json.Marshal(hotspots); err == nil {
			rec.Hotspots = raw
		}
	}
	if hasBalance {
		if raw, err := json.Marshal(bal); err == nil {
			rec.Balance = raw
		}
	}
	id, err := n.Store.SaveRun(ctx, rec)
	if err != nil {
		return nil, err
	}
	out["run_id"] = id
	return out, nil
}

// CacheKey implements dataflow.Node.
func (n *ReportNode) CacheKey(inputs map[string]any) string {
	return dataflow.DefaultCacheKey("ReportNode", n.NodeName, n.Inputs, n.Outputs, inputs)
}
