package metrics

import (
	"fmt"
	"io"
	"sync/atomic"
)

// Registry counts pipeline outcomes. A nil Registry ignores all updates.
type Registry struct {
	processed  atomic.Int64
	failed     atomic.Int64
	cancelled  atomic.Int64
	duplicates atomic.Int64
	letters    atomic.Int64
}

type Snapshot struct {
	Processed  int64
	Failed     int64
	Cancelled  int64
	Duplicates int64
	Letters    int64
}

func (r *Registry) RecordProcessed(letters int) {
	if r == nil {
		return
	}
	r.processed.Add(1)
	r.letters.Add(int64(letters))
}

func (r *Registry) IncFailed() {
	if r == nil {
		return
	}
	r.failed.Add(1)
}

func (r *Registry) IncCancelled() {
	if r == nil {
		return
	}
	r.cancelled.Add(1)
}

func (r *Registry) IncDuplicates() {
	if r == nil {
		return
	}
	r.duplicates.Add(1)
}

func (r *Registry) Snapshot() Snapshot {
	if r == nil {
		return Snapshot{}
	}
	return Snapshot{
		Processed:  r.processed.Load(),
		Failed:     r.failed.Load(),
		Cancelled:  r.cancelled.Load(),
		Duplicates: r.duplicates.Load(),
		Letters:    r.letters.Load(),
	}
}

// Fields renders the snapshot as log context.
func (s Snapshot) Fields() map[string]string {
	return map[string]string{
		"processed":  fmt.Sprint(s.Processed),
		"failed":     fmt.Sprint(s.Failed),
		"cancelled":  fmt.Sprint(s.Cancelled),
		"duplicates": fmt.Sprint(s.Duplicates),
		"letters":    fmt.Sprint(s.Letters),
	}
}

// WritePrometheus writes the counters in the Prometheus text format.
func (r *Registry) WritePrometheus(writer io.Writer) error {
	if r == nil {
		return nil
	}
	snapshot := r.Snapshot()
	counters := []struct {
		name  string
		help  string
		value int64
	}{
		{"lettercount_files_processed_total", "Files counted and written", snapshot.Processed},
		{"lettercount_files_failed_total", "Files that failed to process", snapshot.Failed},
		{"lettercount_files_cancelled_total", "Files abandoned while waiting for a slot", snapshot.Cancelled},
		{"lettercount_files_duplicate_total", "Events dropped because the file was already pending", snapshot.Duplicates},
		{"lettercount_letters_total", "Letters counted across processed files", snapshot.Letters},
	}
	for _, counter := range counters {
		if _, err := fmt.Fprintf(writer, "# HELP %s %s\n# TYPE %s counter\n%s %d\n",
			counter.name, counter.help, counter.name, counter.name, counter.value); err != nil {
			return err
		}
	}
	return nil
}
