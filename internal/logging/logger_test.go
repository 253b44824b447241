package logging

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	logglobal "go.opentelemetry.io/otel/log/global"
	lognoop "go.opentelemetry.io/otel/log/noop"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

func TestLoggerRecordsHistory(t *testing.T) {
	logger := New(Options{Level: LevelInfo})

	logger.Info("processed a.txt: 3 letters", map[string]string{"file": "a.txt"})

	entries := logger.History().Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Level != LevelInfo {
		t.Fatalf("expected info level, got %q", entry.Level)
	}
	if entry.Message != "processed a.txt: 3 letters" {
		t.Fatalf("unexpected message %q", entry.Message)
	}
	if entry.Fields["file"] != "a.txt" {
		t.Fatalf("expected field file=a.txt, got %v", entry.Fields)
	}
	if entry.Time.IsZero() || entry.Time.Location() != time.UTC {
		t.Fatalf("expected a UTC timestamp, got %v", entry.Time)
	}
}

func TestLoggerFiltersByLevel(t *testing.T) {
	var output bytes.Buffer
	logger := New(Options{Level: LevelWarning, Output: &output})

	logger.Info("info", nil)
	logger.Warn("warn", nil)

	entries := logger.History().Entries()
	if len(entries) != 1 || entries[0].Level != LevelWarning {
		t.Fatalf("expected only the warning, got %#v", entries)
	}
	if strings.Count(output.String(), "\n") != 1 {
		t.Fatalf("expected one printed line, got %q", output.String())
	}
	if logger.Enabled(LevelInfo) || !logger.Enabled(LevelError) {
		t.Fatal("unexpected Enabled result for warning threshold")
	}
}

func TestLoggerDefaultsUnknownLevelToInfo(t *testing.T) {
	logger := New(Options{Level: "loud"})
	if logger.Enabled(LevelDebug) || !logger.Enabled(LevelInfo) {
		t.Fatal("expected info threshold for an unknown level")
	}
}

func TestLoggerWithMergesFields(t *testing.T) {
	base := New(Options{Level: LevelDebug})
	logger := base.With(map[string]string{"component": "watcher"})

	logger.Debug("armed", map[string]string{"dir": "/in"})
	base.Debug("plain", nil)

	entries := base.History().Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries in the shared history, got %d", len(entries))
	}
	if entries[0].Fields["component"] != "watcher" || entries[0].Fields["dir"] != "/in" {
		t.Fatalf("expected merged fields, got %v", entries[0].Fields)
	}
	if entries[1].Fields != nil {
		t.Fatalf("expected base logger to stay without fields, got %v", entries[1].Fields)
	}
}

func TestLoggerOutputFormat(t *testing.T) {
	var output bytes.Buffer
	logger := New(Options{Level: LevelInfo, Output: &output})

	logger.Error("error processing b.txt: boom", map[string]string{
		"file":  "b.txt",
		"error": "boom",
	})

	line := output.String()
	if !strings.HasPrefix(line, "time=") || !strings.HasSuffix(line, "\n") {
		t.Fatalf("expected a timestamped line, got %q", line)
	}
	if !strings.Contains(line, ` level=error msg="error processing b.txt: boom" error="boom" file="b.txt"`) {
		t.Fatalf("unexpected output %q", line)
	}
}

func TestLoggerConcurrentWritesKeepLinesWhole(t *testing.T) {
	var output bytes.Buffer
	logger := New(Options{Level: LevelInfo, Output: &output, HistorySize: 1000})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				logger.Info("entry", nil)
			}
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(output.String(), "\n"), "\n")
	if len(lines) != 400 {
		t.Fatalf("expected 400 lines, got %d", len(lines))
	}
	for _, line := range lines {
		if !strings.HasSuffix(line, `level=info msg="entry"`) {
			t.Fatalf("interleaved line %q", line)
		}
	}
	if got := len(logger.History().Entries()); got != 400 {
		t.Fatalf("expected 400 entries, got %d", got)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		" INFO ":  LevelInfo,
		"warn":    LevelWarning,
		"warning": LevelWarning,
		"error":   LevelError,
	}
	for raw, expected := range cases {
		level, ok := ParseLevel(raw)
		if !ok || level != expected {
			t.Fatalf("parse %q: expected %q, got %q (ok=%v)", raw, expected, level, ok)
		}
	}
	if _, ok := ParseLevel("loud"); ok {
		t.Fatalf("expected unknown level to be rejected")
	}
}

func TestHistoryKeepsNewestEntries(t *testing.T) {
	logger := New(Options{Level: LevelInfo, HistorySize: 2})
	logger.Info("first", nil)
	logger.Info("second", nil)
	logger.Info("third", nil)

	entries := logger.History().Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Message != "second" || entries[1].Message != "third" {
		t.Fatalf("expected second, third; got %q, %q", entries[0].Message, entries[1].Message)
	}
}

type testLogExporter struct {
	mu      sync.Mutex
	records []sdklog.Record
}

func (exporter *testLogExporter) Export(_ context.Context, records []sdklog.Record) error {
	exporter.mu.Lock()
	defer exporter.mu.Unlock()
	for _, record := range records {
		exporter.records = append(exporter.records, record.Clone())
	}
	return nil
}

func (exporter *testLogExporter) Shutdown(context.Context) error {
	return nil
}

func (exporter *testLogExporter) ForceFlush(context.Context) error {
	return nil
}

func (exporter *testLogExporter) snapshot() []sdklog.Record {
	exporter.mu.Lock()
	defer exporter.mu.Unlock()
	records := make([]sdklog.Record, len(exporter.records))
	copy(records, exporter.records)
	return records
}

func TestLoggerEmitsOTelLogRecord(t *testing.T) {
	exporter := &testLogExporter{}
	provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exporter)))
	logglobal.SetLoggerProvider(provider)
	t.Cleanup(func() {
		_ = provider.Shutdown(context.Background())
		logglobal.SetLoggerProvider(lognoop.NewLoggerProvider())
	})

	logger := New(Options{Level: LevelInfo}).With(map[string]string{
		"test_id": "otel-log",
	})
	logger.Warn("operation was cancelled", map[string]string{"file": "c.txt"})

	var record *sdklog.Record
	records := exporter.snapshot()
	for idx := range records {
		entry := &records[idx]
		entry.WalkAttributes(func(attr otellog.KeyValue) bool {
			if attr.Key == "test_id" && attr.Value.AsString() == "otel-log" {
				record = entry
				return false
			}
			return true
		})
		if record != nil {
			break
		}
	}
	if record == nil {
		t.Fatalf("expected log record with test_id=otel-log, got %d records", len(records))
	}
	if record.Severity() != otellog.SeverityWarn {
		t.Fatalf("expected severity warn, got %v", record.Severity())
	}
	if record.Body().AsString() != "operation was cancelled" {
		t.Fatalf("unexpected body %q", record.Body().AsString())
	}
}
