package observability

import (
	"strconv"
	"strings"

	"github.com/smallbiznis/copilot-insights/internal/config"
	"github.com/spf13/viper"
)

const defaultServiceName = "copilot-insights"

// Config is the logging and OpenTelemetry setup shared by the server and the
// ingestion commands.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64
}

// LoadConfig overlays the OTEL_*, LOG_* and deployment env vars on the app config.
func LoadConfig(cfg config.Config) Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("DEPLOYMENT_ENV", cfg.Environment)
	v.SetDefault("SERVICE_VERSION", cfg.AppVersion)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTLPEndpoint)
	v.SetDefault("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")

	protocol := lowerTrim(v.GetString("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL"))
	if protocol == "" {
		protocol = lowerTrim(v.GetString("OTEL_EXPORTER_OTLP_PROTOCOL"))
	}

	return Config{
		ServiceName:          firstNonEmpty(cfg.AppName, defaultServiceName),
		Environment:          strings.TrimSpace(v.GetString("DEPLOYMENT_ENV")),
		Version:              strings.TrimSpace(v.GetString("SERVICE_VERSION")),
		LogLevel:             firstNonEmpty(lowerTrim(v.GetString("LOG_LEVEL")), "info"),
		LogFormat:            firstNonEmpty(lowerTrim(v.GetString("LOG_FORMAT")), "json"),
		OtelEnabled:          v.GetBool("OTEL_ENABLED"),
		OtelExporterEndpoint: strings.TrimSpace(v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT")),
		OtelExporterProtocol: protocol,
		OtelSamplingRatio:    samplingRatio(v.GetString("OTEL_SAMPLING_RATIO")),
	}
}

// Debug is true for a debug log level or any development environment.
func (c Config) Debug() bool {
	if lowerTrim(c.LogLevel) == "debug" {
		return true
	}
	switch lowerTrim(c.Environment) {
	case "dev", "development", "local", "test":
		return true
	}
	return false
}

// samplingRatio parses a ratio in [0, 1]. Anything else gives 0.1.
func samplingRatio(raw string) float64 {
	ratio, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || ratio < 0 || ratio > 1 {
		return 0.1
	}
	return ratio
}

func lowerTrim(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
