package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/perftree/perftree/internal/analysis"
	"github.com/perftree/perftree/internal/executor"
	"github.com/perftree/perftree/internal/reader"
	"github.com/perftree/perftree/internal/storage"
	"github.com/perftree/perftree/internal/store"
	"github.com/perftree/perftree/internal/workflow"
	"github.com/perftree/perftree/pkg/compression"
	"github.com/perftree/perftree/pkg/model"
	"github.com/perftree/perftree/pkg/writer"
)

var (
	inputFiles   []string
	topN         int
	concurrency  string
	numThreads   int
	storeDSN     string
	reportFile   string
	exportKey    string
)

// exportRecord is the JSON shape persisted by --export; it bundles the
// rendered report with the structured hotspot/balance outputs so a
// downstream consumer doesn't have to re-parse the text report.
type exportRecord struct {
	Report   string             `json:"report"`
	Hotspots []analysis.Hotspot `json:"hotspots"`
	Balance  analysis.Balance   `json:"balance"`
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Merge collapsed-stack sample files into a tree and report hotspots/balance",
	RunE:  runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringArrayVarP(&inputFiles, "input", "i", nil, "Collapsed-stack sample file (repeatable)")
	analyzeCmd.Flags().IntVarP(&topN, "top", "n", 20, "Number of top hotspots to report")
	analyzeCmd.Flags().StringVar(&concurrency, "concurrency", "", "Concurrency model: Serial, FineGrainedLock, ThreadLocalMerge, LockFree")
	analyzeCmd.Flags().IntVar(&numThreads, "threads", 0, "Worker thread count for parallel concurrency models (0 = auto)")
	analyzeCmd.Flags().StringVar(&storeDSN, "store", "", "sqlite DSN to persist this run's summary under (empty disables persistence)")
	analyzeCmd.Flags().StringVarP(&reportFile, "output", "o", "", "Write the rendered report to this file instead of stdout")
	analyzeCmd.Flags().StringVar(&exportKey, "export", "", "Storage key to archive a compressed JSON export of this run under (empty disables export)")
	analyzeCmd.MarkFlagRequired("input")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	log := GetLogger()

	buildMode, err := model.ParseBuildMode(cfg.Analysis.Mode)
	if err != nil {
		return err
	}
	countMode, err := model.ParseSampleCountMode(cfg.Analysis.CountMode)
	if err != nil {
		return err
	}

	buildCfg := model.BuildConfig{
		Mode:            buildMode,
		CountMode:       countMode,
		TimePerSampleUs: cfg.Analysis.TimePerSampleUs,
		NumThreads:      numThreads,
	}
	if concurrency != "" {
		m, err := model.ParseConcurrencyModel(concurrency)
		if err != nil {
			return err
		}
		buildCfg.Concurrency = m
	} else {
		m, err := model.ParseConcurrencyModel(cfg.Analysis.Concurrency)
		if err != nil {
			return err
		}
		buildCfg.Concurrency = m
	}

	readers, closeAll, err := openCollapsedReaders(inputFiles, buildCfg.TimePerSampleUs)
	if err != nil {
		return err
	}
	defer closeAll()

	preset, err := workflow.BasicAnalysis(buildCfg, readers, nil, topN, log)
	if err != nil {
		return fmt.Errorf("analyze: failed to build workflow: %w", err)
	}

	maxCacheSize := cfg.Executor.MaxCacheSize
	exec := executor.NewCachingExecutor(maxCacheSize, log)

	ctx := context.Background()
	report, err := exec.Execute(ctx, preset.Graph)
	if err != nil {
		return fmt.Errorf("analyze: workflow execution failed: %w", err)
	}

	reportNodeID, ok := preset.Builder.NodeID("GenerateReport")
	if !ok {
		return fmt.Errorf("analyze: workflow has no GenerateReport node")
	}
	reportText, _ := report.Results[reportNodeID].Outputs["report"].(string)
	if err := writeReport(reportText); err != nil {
		return err
	}

	hotspots, balance := collectAnalysisOutputs(preset, report)

	if storeDSN != "" {
		if err := persistRun(ctx, storeDSN, preset.Name, exec, hotspots, balance); err != nil {
			log.Warn("analyze: failed to persist run history: %v", err)
		}
	}

	if exportKey != "" {
		if err := exportRun(ctx, reportText, hotspots, balance); err != nil {
			log.Warn("analyze: failed to export run artifact: %v", err)
		} else {
			log.Info("analyze: exported run artifact under %s", exportKey)
		}
	}

	return nil
}

// collectAnalysisOutputs pulls the structured hotspot/balance values out of
// the executed workflow's node results.
func collectAnalysisOutputs(preset *workflow.Preset, report *executor.Report) ([]analysis.Hotspot, analysis.Balance) {
	var hotspots []analysis.Hotspot
	var balance analysis.Balance
	if id, ok := preset.Builder.NodeID("HotspotAnalysis"); ok {
		hotspots, _ = report.Results[id].Outputs["hotspots"].([]analysis.Hotspot)
	}
	if id, ok := preset.Builder.NodeID("BalanceAnalysis"); ok {
		balance, _ = report.Results[id].Outputs["balance"].(analysis.Balance)
	}
	return hotspots, balance
}

// exportRun archives a compressed JSON bundle of the run (rendered report
// plus structured hotspot/balance outputs) under --export's storage key.
func exportRun(ctx context.Context, reportText string, hotspots []analysis.Hotspot, balance analysis.Balance) error {
	rec := exportRecord{Report: reportText, Hotspots: hotspots, Balance: balance}

	comp := compression.Default()
	defer compression.Close(comp)

	var buf bytes.Buffer
	w := writer.NewCompressedWriter[exportRecord](comp)
	if err := w.Write(rec, &buf); err != nil {
		return err
	}

	st, err := storage.NewStorage(cfg.Storage)
	if err != nil {
		return err
	}
	return st.Put(ctx, exportKey, &buf)
}

func writeReport(text string) error {
	if reportFile == "" {
		fmt.Print(text)
		return nil
	}
	return os.WriteFile(reportFile, []byte(text), 0o644)
}

func persistRun(ctx context.Context, dsn, workflowName string, exec *executor.CachingExecutor, hotspots []analysis.Hotspot, balance analysis.Balance) error {
	db, err := store.Open(dsn)
	if err != nil {
		return err
	}
	s := store.NewGormStore(db)
	hits, misses := exec.Stats()
	rec := &store.RunRecord{
		WorkflowName: workflowName,
		CacheHits:    hits,
		CacheMisses:  misses,
	}
	if raw, err := json.Marshal(hotspots); err == nil {
		rec.Hotspots = raw
	}
	if raw, err := json.Marshal(balance); err == nil {
		rec.Balance = raw
	}
	id, err := s.SaveRun(ctx, rec)
	if err != nil {
		return err
	}
	GetLogger().Info("analyze: persisted run %s to %s", id, dsn)
	return nil
}

func openCollapsedReaders(paths []string, timePerSampleUs float64) ([]reader.SampleReader, func(), error) {
	readers := make([]reader.SampleReader, 0, len(paths))
	for pid, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("analyze: failed to open %s: %w", path, err)
		}
		readers = append(readers, reader.NewCollapsedReader(f, pid, timePerSampleUs))
	}
	closeAll := func() {
		for _, r := range readers {
			r.Close()
		}
	}
	return readers, closeAll, nil
}
