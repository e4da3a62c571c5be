package telemetry

import (
	"os"
	"strings"
)

// Config is the tracing bootstrap configuration, read entirely from the
// standard OTEL_* environment variables so that deployments never need a
// perftree-specific config file just to point spans at a collector.
type Config struct {
	Enabled        bool              // OTEL_ENABLED
	ServiceName    string            // OTEL_SERVICE_NAME, default "perftree"
	ServiceVersion string            // OTEL_SERVICE_VERSION, default "dev"
	Endpoint       string            // OTEL_EXPORTER_OTLP_ENDPOINT
	Protocol       string            // OTEL_EXPORTER_OTLP_PROTOCOL: grpc (default) or http/protobuf
	Headers        map[string]string // OTEL_EXPORTER_OTLP_HEADERS, "k=v,k2=v2"
	Insecure       bool              // OTEL_EXPORTER_OTLP_INSECURE
	Sampler        string            // OTEL_TRACES_SAMPLER
	SamplerArg     string            // OTEL_TRACES_SAMPLER_ARG
	ResourceAttrs  map[string]string // OTEL_RESOURCE_ATTRIBUTES, "k=v,k2=v2"
}

// FromEnv reads the tracing configuration from the environment.
func FromEnv() *Config {
	return &Config{
		Enabled:        envBool("OTEL_ENABLED"),
		ServiceName:    envOr("OTEL_SERVICE_NAME", "perftree"),
		ServiceVersion: envOr("OTEL_SERVICE_VERSION", "dev"),
		Endpoint:       os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		Protocol:       envOr("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"),
		Headers:        envPairs("OTEL_EXPORTER_OTLP_HEADERS"),
		Insecure:       envBool("OTEL_EXPORTER_OTLP_INSECURE"),
		Sampler:        os.Getenv("OTEL_TRACES_SAMPLER"),
		SamplerArg:     os.Getenv("OTEL_TRACES_SAMPLER_ARG"),
		ResourceAttrs:  envPairs("OTEL_RESOURCE_ATTRIBUTES"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string) bool {
	return strings.EqualFold(os.Getenv(key), "true")
}

// envPairs parses "k1=v1,k2=v2" into a map. Values may contain '='; only the
// first one separates key from value. Malformed entries are dropped.
func envPairs(key string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(os.Getenv(key), ",") {
		pair = strings.TrimSpace(pair)
		eq := strings.Index(pair, "=")
		if eq <= 0 {
			continue
		}
		k := strings.TrimSpace(pair[:eq])
		v := strings.TrimSpace(pair[eq+1:])
		if k != "" {
			out[k] = v
		}
	}
	return out
}
