package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{
		"OTEL_ENABLED", "OTEL_SERVICE_NAME", "OTEL_SERVICE_VERSION",
		"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_PROTOCOL",
		"OTEL_EXPORTER_OTLP_HEADERS", "OTEL_EXPORTER_OTLP_INSECURE",
		"OTEL_TRACES_SAMPLER", "OTEL_TRACES_SAMPLER_ARG",
		"OTEL_RESOURCE_ATTRIBUTES",
	} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "perftree", cfg.ServiceName)
	assert.Equal(t, "dev", cfg.ServiceVersion)
	assert.Equal(t, "grpc", cfg.Protocol)
	assert.Empty(t, cfg.Headers)
}

func TestFromEnv_Populated(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "TRUE")
	t.Setenv("OTEL_SERVICE_NAME", "perftree-ci")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "https://collector:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "Authorization=Bearer abc=def, X-Tenant=perf")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "true")
	t.Setenv("OTEL_TRACES_SAMPLER", "traceidratio")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.25")

	cfg := FromEnv()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "perftree-ci", cfg.ServiceName)
	assert.Equal(t, "https://collector:4317", cfg.Endpoint)
	// Values keep their embedded '=' characters.
	assert.Equal(t, "Bearer abc=def", cfg.Headers["Authorization"])
	assert.Equal(t, "perf", cfg.Headers["X-Tenant"])
	assert.True(t, cfg.Insecure)
	assert.Equal(t, "traceidratio", cfg.Sampler)
	assert.Equal(t, "0.25", cfg.SamplerArg)
}

func TestEnvPairs_MalformedEntriesDropped(t *testing.T) {
	t.Setenv("OTEL_RESOURCE_ATTRIBUTES", "ok=1,,=nokey,bare,  spaced = v ")
	pairs := envPairs("OTEL_RESOURCE_ATTRIBUTES")
	assert.Equal(t, map[string]string{"ok": "1", "spaced": "v"}, pairs)
}
