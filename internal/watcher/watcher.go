package watcher

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"lettercount/internal/logging"
	"lettercount/internal/scan"

	"github.com/fsnotify/fsnotify"
)

const (
	defaultDebounce    = 100 * time.Millisecond
	defaultBufferSize  = 64
	maxRestartAttempts = 3
	restartBaseDelay   = 200 * time.Millisecond
)

// watchedOps are the operations that may announce a new or growing file.
const watchedOps = fsnotify.Create | fsnotify.Write

// New arms a watch on dir. Events are available immediately on Events.
func New(dir string, options Options) (*Watcher, error) {
	if dir == "" {
		return nil, errors.New("directory is required")
	}
	if !filepath.IsAbs(dir) {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, err
		}
		dir = abs
	}
	dir = filepath.Clean(dir)

	pattern := options.Pattern
	if pattern == "" {
		pattern = scan.DefaultPattern
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("watch pattern %q: %w", pattern, err)
	}

	debounce := options.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	bufferSize := options.BufferSize
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}

	logger := options.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	source, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := source.Add(dir); err != nil {
		_ = source.Close()
		return nil, err
	}

	instance := &Watcher{
		dir:          dir,
		pattern:      pattern,
		watcher:      source,
		debouncer:    newDebouncer(debounce),
		events:       make(chan fsnotify.Event, 16),
		errors:       make(chan error, 4),
		output:       make(chan Event, bufferSize),
		done:         make(chan struct{}),
		logger:       logger.With(map[string]string{"component": "watcher"}),
		errorHandler: options.ErrorHandler,
	}

	instance.startForwarder(source)
	go instance.run()
	instance.logger.Debug("watch armed", map[string]string{
		"dir":     dir,
		"pattern": pattern,
	})
	return instance, nil
}

// Events delivers one Event per newly created matching file. After Close it
// yields the remaining pending events and is then closed.
func (watcher *Watcher) Events() <-chan Event {
	if watcher == nil {
		ch := make(chan Event)
		close(ch)
		return ch
	}
	return watcher.output
}

func (watcher *Watcher) Dir() string {
	if watcher == nil {
		return ""
	}
	return watcher.dir
}

// Close disables the subscription. Debounced paths that carry a create, and
// events that were waiting for the consumer, are still handed to Events; the
// channel is closed once they have all been received.
func (watcher *Watcher) Close() error {
	if watcher == nil {
		return nil
	}

	watcher.mutex.Lock()
	if watcher.closed {
		watcher.mutex.Unlock()
		return nil
	}
	watcher.closed = true
	pending := watcher.debouncer.drain()
	watcher.debouncer = nil
	source := watcher.watcher
	watcher.mutex.Unlock()

	watcher.restartMutex.Lock()
	if watcher.restartTimer != nil {
		watcher.restartTimer.Stop()
		watcher.restartTimer = nil
	}
	watcher.restartMutex.Unlock()

	close(watcher.done)
	watcher.senders.Wait()

	watcher.mutex.Lock()
	pending = append(pending, watcher.leftover...)
	watcher.leftover = nil
	watcher.mutex.Unlock()

	remaining := make([]Event, 0, len(pending))
	for _, event := range pending {
		if event.Op&fsnotify.Create == 0 {
			watcher.eventsFiltered.Add(1)
			continue
		}
		remaining = append(remaining, event)
	}
	if len(remaining) == 0 {
		close(watcher.output)
	} else {
		go watcher.handOff(remaining)
	}

	watcher.logger.Debug("watch closed", map[string]string{
		"dir":     watcher.dir,
		"pending": strconv.Itoa(len(remaining)),
	})
	if source == nil {
		return nil
	}
	return source.Close()
}

// handOff delivers the events left at Close and then closes the output.
func (watcher *Watcher) handOff(events []Event) {
	defer close(watcher.output)
	for _, event := range events {
		watcher.output <- event
		watcher.eventsDelivered.Add(1)
	}
}

func (watcher *Watcher) run() {
	for {
		select {
		case event := <-watcher.events:
			watcher.handleEvent(event)
		case err := <-watcher.errors:
			watcher.handleError(err)
		case <-watcher.done:
			return
		}
	}
}

func (watcher *Watcher) startForwarder(source *fsnotify.Watcher) {
	if source == nil {
		return
	}

	go func() {
		for {
			select {
			case event, ok := <-source.Events:
				if !ok {
					return
				}
				select {
				case watcher.events <- event:
				case <-watcher.done:
					return
				}
			case err, ok := <-source.Errors:
				if !ok {
					return
				}
				select {
				case watcher.errors <- err:
				case <-watcher.done:
					return
				}
			case <-watcher.done:
				return
			}
		}
	}()
}

// accepts reports whether a raw fsnotify event concerns a matching file
// directly inside the watched directory.
func (watcher *Watcher) accepts(event fsnotify.Event) bool {
	if event.Op&watchedOps == 0 {
		return false
	}
	if filepath.Clean(filepath.Dir(event.Name)) != watcher.dir {
		return false
	}
	return scan.Matches(watcher.pattern, event.Name)
}

// deliver hands a coalesced event to the consumer, blocking until it is
// taken. If the watcher closes first the event is kept for Close. The caller
// registers as a sender before calling.
func (watcher *Watcher) deliver(event Event) {
	defer watcher.senders.Done()

	select {
	case watcher.output <- event:
		watcher.eventsDelivered.Add(1)
	case <-watcher.done:
		watcher.mutex.Lock()
		watcher.leftover = append(watcher.leftover, event)
		watcher.mutex.Unlock()
	}
}

func (watcher *Watcher) logWarn(message string, fields map[string]string) {
	if watcher == nil || watcher.logger == nil {
		return
	}
	watcher.logger.Warn(message, fields)
}

// Metrics reports current watcher stats.
func (watcher *Watcher) Metrics() Metrics {
	if watcher == nil {
		return Metrics{}
	}
	watcher.restartMutex.Lock()
	restartAttempts := watcher.restartAttempts
	watcher.restartMutex.Unlock()
	return Metrics{
		EventsSeen:      watcher.eventsSeen.Load(),
		EventsFiltered:  watcher.eventsFiltered.Load(),
		EventsCoalesced: watcher.eventsCoalesced.Load(),
		EventsDelivered: watcher.eventsDelivered.Load(),
		Errors:          watcher.errorCount.Load(),
		RestartAttempts: restartAttempts,
	}
}

// Fields renders the metrics as log context.
func (metrics Metrics) Fields() map[string]string {
	return map[string]string{
		"events_seen":      strconv.FormatUint(metrics.EventsSeen, 10),
		"events_filtered":  strconv.FormatUint(metrics.EventsFiltered, 10),
		"events_coalesced": strconv.FormatUint(metrics.EventsCoalesced, 10),
		"events_delivered": strconv.FormatUint(metrics.EventsDelivered, 10),
		"errors":           strconv.FormatUint(metrics.Errors, 10),
		"restart_attempts": strconv.Itoa(metrics.RestartAttempts),
	}
}
