package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"lettercount/internal/gate"
	"lettercount/internal/logging"
	"lettercount/internal/otel"
	"lettercount/internal/scan"

	"gopkg.in/yaml.v3"
)

const defaultDebounce = 100 * time.Millisecond

type configSource string

const (
	sourceDefault configSource = "default"
	sourceFile    configSource = "file"
	sourceEnv     configSource = "env"
)

// Config is the resolved runtime configuration. Pattern and Workers are fixed;
// only the ambient settings below them can be changed.
type Config struct {
	SourceDir   string
	ResultDir   string
	Pattern     string
	Workers     int
	Debounce    time.Duration
	LogLevel    logging.Level
	MetricsFile string
	OTel        OTelConfig
	Sources     map[string]configSource
}

type OTelConfig struct {
	Enabled            bool
	Endpoint           string
	ServiceName        string
	ResourceAttributes map[string]string
}

type fileConfig struct {
	LogLevel    string         `yaml:"log_level"`
	Debounce    string         `yaml:"debounce"`
	MetricsFile string         `yaml:"metrics_file"`
	OTel        fileOTelConfig `yaml:"otel"`
}

type fileOTelConfig struct {
	Enabled            *bool             `yaml:"enabled"`
	Endpoint           string            `yaml:"endpoint"`
	ServiceName        string            `yaml:"service_name"`
	ResourceAttributes map[string]string `yaml:"resource_attributes"`
}

func defaultConfig(sourceDir, resultDir string) Config {
	cfg := Config{
		SourceDir: sourceDir,
		ResultDir: resultDir,
		Pattern:   scan.DefaultPattern,
		Workers:   gate.DefaultSize,
		Debounce:  defaultDebounce,
		LogLevel:  logging.LevelInfo,
		OTel: OTelConfig{
			Endpoint:    otel.DefaultHTTPEndpoint,
			ServiceName: otel.DefaultServiceName,
		},
		Sources: make(map[string]configSource),
	}
	for _, key := range []string{"log-level", "debounce", "metrics-file", "otel-enabled", "otel-endpoint", "otel-service-name", "otel-resource-attributes"} {
		cfg.Sources[key] = sourceDefault
	}
	return cfg
}

// loadConfig resolves defaults, then the optional YAML file, then the
// LETTERCOUNT_* environment.
func loadConfig(args parsedArgs) (Config, error) {
	cfg := defaultConfig(args.SourceDir, args.ResultDir)

	if args.ConfigPath != "" {
		file, err := readConfigFile(args.ConfigPath)
		if err != nil {
			return Config{}, err
		}
		if err := applyFileConfig(&cfg, file); err != nil {
			return Config{}, fmt.Errorf("config file %s: %w", args.ConfigPath, err)
		}
	}

	if err := applyEnvConfig(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readConfigFile(path string) (fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, err
	}
	return decodeFileConfig(data)
}

func decodeFileConfig(data []byte) (fileConfig, error) {
	var file fileConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return fileConfig{}, nil
		}
		return fileConfig{}, fmt.Errorf("decode config: %w", err)
	}
	return file, nil
}

func applyFileConfig(cfg *Config, file fileConfig) error {
	if raw := strings.TrimSpace(file.LogLevel); raw != "" {
		level, ok := logging.ParseLevel(raw)
		if !ok {
			return fmt.Errorf("invalid log_level %q", raw)
		}
		cfg.LogLevel = level
		cfg.Sources["log-level"] = sourceFile
	}
	if raw := strings.TrimSpace(file.Debounce); raw != "" {
		debounce, err := parseDebounce(raw)
		if err != nil {
			return fmt.Errorf("invalid debounce: %w", err)
		}
		cfg.Debounce = debounce
		cfg.Sources["debounce"] = sourceFile
	}
	if raw := strings.TrimSpace(file.MetricsFile); raw != "" {
		cfg.MetricsFile = raw
		cfg.Sources["metrics-file"] = sourceFile
	}
	if file.OTel.Enabled != nil {
		cfg.OTel.Enabled = *file.OTel.Enabled
		cfg.Sources["otel-enabled"] = sourceFile
	}
	if raw := otel.NormalizeEndpoint(file.OTel.Endpoint); raw != "" {
		cfg.OTel.Endpoint = raw
		cfg.Sources["otel-endpoint"] = sourceFile
	}
	if raw := strings.TrimSpace(file.OTel.ServiceName); raw != "" {
		cfg.OTel.ServiceName = raw
		cfg.Sources["otel-service-name"] = sourceFile
	}
	if len(file.OTel.ResourceAttributes) > 0 {
		cfg.OTel.ResourceAttributes = file.OTel.ResourceAttributes
		cfg.Sources["otel-resource-attributes"] = sourceFile
	}
	return nil
}

func applyEnvConfig(cfg *Config) error {
	if raw := strings.TrimSpace(os.Getenv("LETTERCOUNT_LOG_LEVEL")); raw != "" {
		level, ok := logging.ParseLevel(raw)
		if !ok {
			return fmt.Errorf("invalid LETTERCOUNT_LOG_LEVEL %q", raw)
		}
		cfg.LogLevel = level
		cfg.Sources["log-level"] = sourceEnv
	}
	if raw := strings.TrimSpace(os.Getenv("LETTERCOUNT_DEBOUNCE")); raw != "" {
		debounce, err := parseDebounce(raw)
		if err != nil {
			return fmt.Errorf("invalid LETTERCOUNT_DEBOUNCE: %w", err)
		}
		cfg.Debounce = debounce
		cfg.Sources["debounce"] = sourceEnv
	}
	if raw := strings.TrimSpace(os.Getenv("LETTERCOUNT_METRICS_FILE")); raw != "" {
		cfg.MetricsFile = raw
		cfg.Sources["metrics-file"] = sourceEnv
	}
	if raw := strings.TrimSpace(os.Getenv("LETTERCOUNT_OTEL_ENABLED")); raw != "" {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid LETTERCOUNT_OTEL_ENABLED %q", raw)
		}
		cfg.OTel.Enabled = enabled
		cfg.Sources["otel-enabled"] = sourceEnv
	}
	if raw := otel.NormalizeEndpoint(os.Getenv("LETTERCOUNT_OTEL_ENDPOINT")); raw != "" {
		cfg.OTel.Endpoint = raw
		cfg.Sources["otel-endpoint"] = sourceEnv
	}
	if raw := strings.TrimSpace(os.Getenv("LETTERCOUNT_OTEL_SERVICE_NAME")); raw != "" {
		cfg.OTel.ServiceName = raw
		cfg.Sources["otel-service-name"] = sourceEnv
	}
	if attrs := otel.ParseResourceAttributes(os.Getenv("LETTERCOUNT_OTEL_RESOURCE_ATTRIBUTES")); attrs != nil {
		cfg.OTel.ResourceAttributes = attrs
		cfg.Sources["otel-resource-attributes"] = sourceEnv
	}
	return nil
}

// parseDebounce accepts a Go duration ("150ms") or a bare millisecond count.
func parseDebounce(raw string) (time.Duration, error) {
	if millis, err := strconv.Atoi(raw); err == nil {
		if millis <= 0 {
			return 0, fmt.Errorf("must be > 0")
		}
		return time.Duration(millis) * time.Millisecond, nil
	}
	debounce, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if debounce <= 0 {
		return 0, fmt.Errorf("must be > 0")
	}
	return debounce, nil
}

func (cfg Config) sourceFields() map[string]string {
	fields := make(map[string]string, len(cfg.Sources))
	for key, source := range cfg.Sources {
		fields[key] = string(source)
	}
	return fields
}

func (cfg Config) sdkOptions(serviceVersion string) otel.SDKOptions {
	return otel.SDKOptions{
		Enabled:            cfg.OTel.Enabled,
		HTTPEndpoint:       cfg.OTel.Endpoint,
		ServiceName:        cfg.OTel.ServiceName,
		ServiceVersion:     serviceVersion,
		ResourceAttributes: cfg.OTel.ResourceAttributes,
	}
}
