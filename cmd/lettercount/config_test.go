package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"lettercount/internal/gate"
	"lettercount/internal/logging"
	"lettercount/internal/otel"
	"lettercount/internal/scan"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LETTERCOUNT_LOG_LEVEL",
		"LETTERCOUNT_DEBOUNCE",
		"LETTERCOUNT_METRICS_FILE",
		"LETTERCOUNT_OTEL_ENABLED",
		"LETTERCOUNT_OTEL_ENDPOINT",
		"LETTERCOUNT_OTEL_SERVICE_NAME",
		"LETTERCOUNT_OTEL_RESOURCE_ATTRIBUTES",
	} {
		t.Setenv(key, "")
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lettercount.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := loadConfig(parsedArgs{SourceDir: "in", ResultDir: "out"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Pattern != scan.DefaultPattern || cfg.Workers != gate.DefaultSize {
		t.Fatalf("unexpected fixed settings: %q %d", cfg.Pattern, cfg.Workers)
	}
	if cfg.Debounce != defaultDebounce || cfg.LogLevel != logging.LevelInfo {
		t.Fatalf("unexpected defaults: %v %q", cfg.Debounce, cfg.LogLevel)
	}
	if cfg.OTel.Enabled || cfg.OTel.Endpoint != otel.DefaultHTTPEndpoint {
		t.Fatalf("unexpected otel defaults: %#v", cfg.OTel)
	}
	if cfg.Sources["log-level"] != sourceDefault {
		t.Fatalf("expected default source, got %q", cfg.Sources["log-level"])
	}
}

func TestLoadConfigFile(t *testing.T) {
	clearConfigEnv(t)
	path := writeConfigFile(t, `
log_level: debug
debounce: 250ms
metrics_file: /tmp/lettercount.prom
otel:
  enabled: true
  endpoint: http://collector:4318/
  service_name: counter
  resource_attributes:
    deployment.environment: test
`)

	cfg, err := loadConfig(parsedArgs{ConfigPath: path})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != logging.LevelDebug || cfg.Debounce != 250*time.Millisecond {
		t.Fatalf("unexpected file values: %q %v", cfg.LogLevel, cfg.Debounce)
	}
	if cfg.MetricsFile != "/tmp/lettercount.prom" {
		t.Fatalf("unexpected metrics file %q", cfg.MetricsFile)
	}
	if !cfg.OTel.Enabled || cfg.OTel.Endpoint != "collector:4318" || cfg.OTel.ServiceName != "counter" {
		t.Fatalf("unexpected otel values: %#v", cfg.OTel)
	}
	if cfg.OTel.ResourceAttributes["deployment.environment"] != "test" {
		t.Fatalf("unexpected resource attributes: %#v", cfg.OTel.ResourceAttributes)
	}
	if cfg.Sources["debounce"] != sourceFile {
		t.Fatalf("expected file source, got %q", cfg.Sources["debounce"])
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	clearConfigEnv(t)
	path := writeConfigFile(t, "log_level: debug\ndebounce: 250ms\n")
	t.Setenv("LETTERCOUNT_LOG_LEVEL", "error")
	t.Setenv("LETTERCOUNT_DEBOUNCE", "40")
	t.Setenv("LETTERCOUNT_OTEL_ENABLED", "true")
	t.Setenv("LETTERCOUNT_OTEL_RESOURCE_ATTRIBUTES", "team=docs, bad, region=eu")

	cfg, err := loadConfig(parsedArgs{ConfigPath: path})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != logging.LevelError || cfg.Debounce != 40*time.Millisecond {
		t.Fatalf("expected env overrides, got %q %v", cfg.LogLevel, cfg.Debounce)
	}
	if !cfg.OTel.Enabled {
		t.Fatalf("expected otel enabled from env")
	}
	if len(cfg.OTel.ResourceAttributes) != 2 || cfg.OTel.ResourceAttributes["region"] != "eu" {
		t.Fatalf("unexpected resource attributes: %#v", cfg.OTel.ResourceAttributes)
	}
	if cfg.Sources["log-level"] != sourceEnv {
		t.Fatalf("expected env source, got %q", cfg.Sources["log-level"])
	}
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name string
		file string
		env  map[string]string
		want string
	}{
		{name: "unknown key", file: "workers: 8\n", want: "workers"},
		{name: "bad level", file: "log_level: loud\n", want: "log_level"},
		{name: "bad debounce", file: "debounce: soon\n", want: "debounce"},
		{name: "zero debounce env", env: map[string]string{"LETTERCOUNT_DEBOUNCE": "0"}, want: "LETTERCOUNT_DEBOUNCE"},
		{name: "bad otel flag", env: map[string]string{"LETTERCOUNT_OTEL_ENABLED": "maybe"}, want: "LETTERCOUNT_OTEL_ENABLED"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearConfigEnv(t)
			for key, value := range tc.env {
				t.Setenv(key, value)
			}
			args := parsedArgs{}
			if tc.file != "" {
				args.ConfigPath = writeConfigFile(t, tc.file)
			}
			_, err := loadConfig(args)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in error, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	clearConfigEnv(t)
	if _, err := loadConfig(parsedArgs{ConfigPath: filepath.Join(t.TempDir(), "missing.yaml")}); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestDecodeFileConfigEmpty(t *testing.T) {
	file, err := decodeFileConfig(nil)
	if err != nil {
		t.Fatalf("decode empty: %v", err)
	}
	if file.LogLevel != "" || file.OTel.Enabled != nil {
		t.Fatalf("expected zero config, got %#v", file)
	}
}
