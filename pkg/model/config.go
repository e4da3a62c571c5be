package model

// BuildConfig configures a single Tree Builder run: which files to load, which
// concurrency model builds the tree, and how counters are tracked.
type BuildConfig struct {
	Mode            BuildMode
	CountMode       SampleCountMode
	Concurrency     ConcurrencyModel
	NumThreads      int     // 0 means auto-detect (runtime.NumCPU).
	TimePerSampleUs float64 // estimated wall-clock cost per sample, used to convert sample counts into time.
}

// DefaultBuildConfig returns the zero-value-safe defaults WorkflowBuilder.LoadData uses.
func DefaultBuildConfig() BuildConfig {
	return BuildConfig{
		Mode:            ContextFree,
		CountMode:       Both,
		Concurrency:     Serial,
		NumThreads:      0,
		TimePerSampleUs: 1000.0,
	}
}
