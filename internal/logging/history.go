package logging

import "sync"

// History keeps the last entries a logger recorded, oldest first. Tests read
// it to assert on what was logged without parsing output.
type History struct {
	mutex   sync.Mutex
	limit   int
	entries []Entry
}

func newHistory(limit int) *History {
	if limit <= 0 {
		limit = 1
	}
	return &History{limit: limit, entries: make([]Entry, 0, limit)}
}

func (history *History) record(entry Entry) {
	history.mutex.Lock()
	defer history.mutex.Unlock()
	if len(history.entries) == history.limit {
		copy(history.entries, history.entries[1:])
		history.entries = history.entries[:history.limit-1]
	}
	history.entries = append(history.entries, entry)
}

// Entries returns a copy of the recorded entries.
func (history *History) Entries() []Entry {
	if history == nil {
		return nil
	}
	history.mutex.Lock()
	defer history.mutex.Unlock()
	if len(history.entries) == 0 {
		return nil
	}
	return append([]Entry(nil), history.entries...)
}
