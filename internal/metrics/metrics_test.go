package metrics

import (
	"strings"
	"testing"
)

func TestRegistryCounts(t *testing.T) {
	registry := &Registry{}
	registry.RecordProcessed(3)
	registry.RecordProcessed(0)
	registry.IncFailed()
	registry.IncCancelled()
	registry.IncCancelled()
	registry.IncDuplicates()

	snapshot := registry.Snapshot()
	expected := Snapshot{Processed: 2, Failed: 1, Cancelled: 2, Duplicates: 1, Letters: 3}
	if snapshot != expected {
		t.Fatalf("expected %+v, got %+v", expected, snapshot)
	}
	if snapshot.Fields()["cancelled"] != "2" {
		t.Fatalf("unexpected fields %v", snapshot.Fields())
	}
}

func TestNilRegistryIsSafe(t *testing.T) {
	var registry *Registry
	registry.RecordProcessed(1)
	registry.IncFailed()
	if registry.Snapshot() != (Snapshot{}) {
		t.Fatalf("expected empty snapshot")
	}
	if err := registry.WritePrometheus(&strings.Builder{}); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestWritePrometheus(t *testing.T) {
	registry := &Registry{}
	registry.RecordProcessed(7)

	var out strings.Builder
	if err := registry.WritePrometheus(&out); err != nil {
		t.Fatalf("write: %v", err)
	}
	text := out.String()
	if !strings.Contains(text, "lettercount_files_processed_total 1\n") {
		t.Fatalf("missing processed counter:\n%s", text)
	}
	if !strings.Contains(text, "lettercount_letters_total 7\n") {
		t.Fatalf("missing letters counter:\n%s", text)
	}
}
