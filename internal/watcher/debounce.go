package watcher

import (
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

type debounceEntry struct {
	timer *time.Timer
	event Event
}

type debouncer struct {
	duration time.Duration
	entries  map[string]debounceEntry
}

func newDebouncer(duration time.Duration) *debouncer {
	return &debouncer{
		duration: duration,
		entries:  make(map[string]debounceEntry),
	}
}

// schedule merges event into the pending entry for path and restarts its
// timer. It reports whether an earlier event was folded in.
func (debouncer *debouncer) schedule(path string, event Event, flush func(string)) bool {
	if debouncer == nil {
		return false
	}
	entry, pending := debouncer.entries[path]
	if pending {
		event.Op |= entry.event.Op
	}
	entry.event = event
	if entry.timer == nil {
		entry.timer = time.AfterFunc(debouncer.duration, func() {
			flush(path)
		})
	} else {
		entry.timer.Reset(debouncer.duration)
	}
	debouncer.entries[path] = entry
	return pending
}

func (debouncer *debouncer) pop(path string) (Event, bool) {
	if debouncer == nil {
		return Event{}, false
	}
	entry, ok := debouncer.entries[path]
	if !ok {
		return Event{}, false
	}
	delete(debouncer.entries, path)
	return entry.event, true
}

func (debouncer *debouncer) pending() int {
	if debouncer == nil {
		return 0
	}
	return len(debouncer.entries)
}

// drain stops every timer and returns the pending events ordered by path.
func (debouncer *debouncer) drain() []Event {
	if debouncer == nil {
		return nil
	}
	events := make([]Event, 0, len(debouncer.entries))
	for _, entry := range debouncer.entries {
		if entry.timer != nil {
			entry.timer.Stop()
		}
		events = append(events, entry.event)
	}
	debouncer.entries = nil
	sort.Slice(events, func(i, j int) bool { return events[i].Path < events[j].Path })
	return events
}

func (debouncer *debouncer) stop() {
	if debouncer == nil {
		return
	}
	for _, entry := range debouncer.entries {
		if entry.timer != nil {
			entry.timer.Stop()
		}
	}
	debouncer.entries = nil
}

func (watcher *Watcher) handleEvent(event fsnotify.Event) {
	watcher.eventsSeen.Add(1)
	if !watcher.accepts(event) {
		watcher.eventsFiltered.Add(1)
		return
	}

	watcher.mutex.Lock()
	defer watcher.mutex.Unlock()
	if watcher.closed || watcher.debouncer == nil {
		return
	}
	entry := Event{
		Path:      event.Name,
		Op:        event.Op & watchedOps,
		Timestamp: time.Now().UTC(),
	}
	if watcher.debouncer.schedule(event.Name, entry, watcher.flush) {
		watcher.eventsCoalesced.Add(1)
	}
}

// flush runs when a path has been quiet for the debounce window.
func (watcher *Watcher) flush(path string) {
	watcher.mutex.Lock()
	if watcher.closed || watcher.debouncer == nil {
		watcher.mutex.Unlock()
		return
	}
	event, ok := watcher.debouncer.pop(path)
	if !ok {
		watcher.mutex.Unlock()
		return
	}
	if event.Op&fsnotify.Create == 0 {
		watcher.mutex.Unlock()
		watcher.eventsFiltered.Add(1)
		return
	}
	watcher.senders.Add(1)
	watcher.mutex.Unlock()

	watcher.deliver(event)
}
