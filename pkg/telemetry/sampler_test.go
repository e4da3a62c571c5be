package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/sdk/trace"
)

func TestNewSampler(t *testing.T) {
	tests := []struct {
		name     string
		sampler  string
		arg      string
		expected trace.Sampler
	}{
		{"default samples everything", "", "", trace.AlwaysSample()},
		{"unknown name samples everything", "bogus", "", trace.AlwaysSample()},
		{"always_off", "always_off", "", trace.NeverSample()},
		{"ratio", "traceidratio", "0.5", trace.TraceIDRatioBased(0.5)},
		{"parent based on", "parentbased_always_on", "", trace.ParentBased(trace.AlwaysSample())},
		{"parent based ratio", "parentbased_traceidratio", "0.1", trace.ParentBased(trace.TraceIDRatioBased(0.1))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newSampler(&Config{Sampler: tt.sampler, SamplerArg: tt.arg})
			assert.Equal(t, tt.expected.Description(), got.Description())
		})
	}
}

func TestSamplerRatio_Clamping(t *testing.T) {
	assert.Equal(t, 1.0, samplerRatio(""))
	assert.Equal(t, 1.0, samplerRatio("not-a-number"))
	assert.Equal(t, 0.0, samplerRatio("-2"))
	assert.Equal(t, 1.0, samplerRatio("7"))
	assert.Equal(t, 0.25, samplerRatio("0.25"))
}
