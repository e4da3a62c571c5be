package telemetry

import (
	"strconv"

	"go.opentelemetry.io/otel/sdk/trace"
)

// newSampler maps the OTEL_TRACES_SAMPLER name onto an SDK sampler. An
// unrecognized or empty name samples everything: perftree runs are short
// batch jobs, not long-lived servers, so dropping spans by default would
// mostly hide the one build the operator cared about.
func newSampler(cfg *Config) trace.Sampler {
	switch cfg.Sampler {
	case "always_off":
		return trace.NeverSample()
	case "traceidratio":
		return trace.TraceIDRatioBased(samplerRatio(cfg.SamplerArg))
	case "parentbased_always_on":
		return trace.ParentBased(trace.AlwaysSample())
	case "parentbased_always_off":
		return trace.ParentBased(trace.NeverSample())
	case "parentbased_traceidratio":
		return trace.ParentBased(trace.TraceIDRatioBased(samplerRatio(cfg.SamplerArg)))
	default:
		return trace.AlwaysSample()
	}
}

// samplerRatio parses OTEL_TRACES_SAMPLER_ARG, clamping to [0, 1] and
// falling back to 1.0 on anything unparseable.
func samplerRatio(s string) float64 {
	ratio, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 1.0
	}
	if ratio < 0 {
		return 0
	}
	if ratio > 1 {
		return 1.0
	}
	return ratio
}
