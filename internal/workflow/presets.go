package workflow

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/perftree/perftree/internal/analysis"
	"github.com/perftree/perftree/internal/dataflow"
	"github.com/perftree/perftree/internal/nodes"
	"github.com/perftree/perftree/internal/reader"
	"github.com/perftree/perftree/pkg/model"
	"github.com/perftree/perftree/pkg/utils"
)

// Preset bundles a pre-wired graph and the builder it came from, so callers
// can still look up individual nodes by name (e.g. to read one node's outputs
// from the execution report) after the fact.
type Preset struct {
	Name    string
	Builder *WorkflowBuilder
	Graph   *dataflow.Graph
}

// BasicAnalysis builds the bread-and-butter workflow: load the tree once,
// analyze balance and hotspots off of it in parallel, then render a single
// text report.
func BasicAnalysis(cfg model.BuildConfig, readers []reader.SampleReader, resolver reader.OffsetResolver, topN int, logger utils.Logger) (*Preset, error) {
	b := New("BasicAnalysis", logger)
	b.LoadData("LoadTree", cfg, readers, resolver)
	b.AnalyzeBalance("BalanceAnalysis")
	b.FindHotspots("HotspotAnalysis", topN, false)

	b.AddNode("GenerateReport", nodes.NewReportNode("GenerateReport", "PerfTree Basic Analysis Report"))
	b.Connect("BalanceAnalysis", "GenerateReport", "balance")
	b.Connect("HotspotAnalysis", "GenerateReport", "hotspots")

	g, err := b.Build()
	if err != nil {
		return nil, err
	}
	return &Preset{Name: "BasicAnalysis", Builder: b, Graph: g}, nil
}

// Dataset is one labeled input to ComparativeAnalysis: its own sample readers
// and an optional shared library-map resolver.
type Dataset struct {
	Label    string
	Readers  []reader.SampleReader
	Resolver reader.OffsetResolver
}

// branchInfo names the balance/hotspot node pair produced for one dataset in
// ComparativeAnalysis.
type branchInfo struct {
	label       string
	balanceNode string
	hotspotNode string
}

// ComparativeAnalysis builds one load/balance/hotspot pipeline per dataset,
// fanning into a single comparison report.
func ComparativeAnalysis(cfg model.BuildConfig, datasets []Dataset, topN int, logger utils.Logger) (*Preset, error) {
	b := New("ComparativeAnalysis", logger)

	var branches []branchInfo

	for _, ds := range datasets {
		loadName := fmt.Sprintf("LoadTree_%s", ds.Label)
		balanceName := fmt.Sprintf("BalanceAnalysis_%s", ds.Label)
		hotspotName := fmt.Sprintf("HotspotAnalysis_%s", ds.Label)

		// Each dataset gets its own load node; LoadData overwrites loadID
		// every time it's called, so balance/hotspot always auto-connect to
		// the dataset they were added right after.
		b.LoadData(loadName, cfg, ds.Readers, ds.Resolver)
		b.AnalyzeBalance(balanceName)
		b.FindHotspots(hotspotName, topN, false)

		branches = append(branches, branchInfo{label: ds.Label, balanceNode: balanceName, hotspotNode: hotspotName})
	}
	if b.err != nil {
		return nil, b.err
	}

	compare := newCompareNode(branches)
	b.AddNode("CompareResults", compare)
	for _, br := range branches {
		b.ConnectPorts(br.balanceNode, "balance", "CompareResults", "balance_"+br.label)
		b.ConnectPorts(br.hotspotNode, "hotspots", "CompareResults", "hotspots_"+br.label)
	}

	g, err := b.Build()
	if err != nil {
		return nil, err
	}
	return &Preset{Name: "ComparativeAnalysis", Builder: b, Graph: g}, nil
}

// newCompareNode builds a CustomNode with one balance_<label>/hotspots_<label>
// input pair per branch and a single "report" text output.
func newCompareNode(branches []branchInfo) *nodes.CustomNode {
	inputs := make(map[string]string, len(branches)*2)
	labels := make([]string, 0, len(branches))
	for _, br := range branches {
		inputs["balance_"+br.label] = "Balance"
		inputs["hotspots_"+br.label] = "[]Hotspot"
		labels = append(labels, br.label)
	}
	sort.Strings(labels)

	fn := func(ctx context.Context, in map[string]any) (map[string]any, error) {
		var out strings.Builder
		out.WriteString("=== Comparative Analysis Report ===\n\n")
		out.WriteString("## Workload Balance Comparison\n")
		for _, label := range labels {
			if v, ok := in["balance_"+label]; ok {
				bal := v.(analysis.Balance)
				fmt.Fprintf(&out, "  %-20s mean=%-10.2f imbalance=%.4f\n", label, bal.Mean, bal.ImbalanceFactor)
			}
		}
		out.WriteString("\n## Top Hotspots Comparison\n")
		for _, label := range labels {
			if v, ok := in["hotspots_"+label]; ok {
				hs := v.([]analysis.Hotspot)
				fmt.Fprintf(&out, "\n### %s\n", label)
				for i, h := range hs {
					if i >= 5 {
						break
					}
					fmt.Fprintf(&out, "  %d. %s: %.2f%%\n", i+1, h.FunctionName, h.SelfPercentage)
				}
			}
		}
		return map[string]any{"report": out.String()}, nil
	}

	return nodes.NewCustomNode("CompareResults", inputs, map[string]string{"report": "string"}, fn)
}

// HotspotFocused ranks hotspots by both self and inclusive time, filters out
// anything below sampleThreshold inclusive samples, and renders a combined
// report.
func HotspotFocused(cfg model.BuildConfig, readers []reader.SampleReader, resolver reader.OffsetResolver, sampleThreshold int64, logger utils.Logger) (*Preset, error) {
	b := New("HotspotFocused", logger)
	b.LoadData("LoadTree", cfg, readers, resolver)

	b.FindHotspots("SelfHotspots", 20, false)
	b.FindHotspots("TotalHotspots", 20, true)

	b.FilterNodes("SignificantNodes", func(f *nodes.FilterNode) {
		f.MinInclusiveSamples = &sampleThreshold
	})

	b.Custom("GenerateReport",
		map[string]string{"self_hotspots": "[]Hotspot", "total_hotspots": "[]Hotspot", "significant_count": "int"},
		map[string]string{"report": "string"},
		formatHotspotFocusedReport)
	b.ConnectPorts("SelfHotspots", "hotspots", "GenerateReport", "self_hotspots")
	b.ConnectPorts("TotalHotspots", "hotspots", "GenerateReport", "total_hotspots")
	b.ConnectPorts("SignificantNodes", "count", "GenerateReport", "significant_count")

	g, err := b.Build()
	if err != nil {
		return nil, err
	}
	return &Preset{Name: "HotspotFocused", Builder: b, Graph: g}, nil
}

func formatHotspotFocusedReport(ctx context.Context, in map[string]any) (map[string]any, error) {
	var out strings.Builder
	out.WriteString("=== Hotspot-Focused Analysis Report ===\n\n")

	if v, ok := in["self_hotspots"]; ok {
		out.WriteString("## Top Hotspots by Self Time (Exclusive)\n")
		for i, h := range v.([]analysis.Hotspot) {
			fmt.Fprintf(&out, "  %d. %s (%s) self=%.2f%% total=%.2f%%\n",
				i+1, h.FunctionName, h.LibraryName, h.SelfPercentage, h.TotalPercentage)
		}
		out.WriteString("\n")
	}
	if v, ok := in["total_hotspots"]; ok {
		out.WriteString("## Top Hotspots by Total Time (Inclusive)\n")
		for i, h := range v.([]analysis.Hotspot) {
			fmt.Fprintf(&out, "  %d. %s (%s) total=%.2f%% self=%.2f%%\n",
				i+1, h.FunctionName, h.LibraryName, h.TotalPercentage, h.SelfPercentage)
		}
		out.WriteString("\n")
	}
	if v, ok := in["significant_count"]; ok {
		fmt.Fprintf(&out, "## Nodes above threshold: %d\n", v.(int))
	}

	return map[string]any{"report": out.String()}, nil
}
