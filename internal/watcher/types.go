package watcher

import (
	"sync"
	"sync/atomic"
	"time"

	"lettercount/internal/logging"

	"github.com/fsnotify/fsnotify"
)

// Event is a coalesced change for one file.
type Event struct {
	Path      string
	Op        fsnotify.Op
	Timestamp time.Time
}

// Options controls watcher behavior.
type Options struct {
	Logger       *logging.Logger
	Pattern      string
	Debounce     time.Duration
	BufferSize   int
	ErrorHandler func(error)
}

// Metrics reports watcher counters.
type Metrics struct {
	EventsSeen      uint64
	EventsFiltered  uint64
	EventsCoalesced uint64
	EventsDelivered uint64
	Errors          uint64
	RestartAttempts int
}

// Watcher is the fsnotify-backed directory watcher.
type Watcher struct {
	dir             string
	pattern         string
	watcher         *fsnotify.Watcher
	mutex           sync.Mutex
	debouncer       *debouncer
	events          chan fsnotify.Event
	errors          chan error
	output          chan Event
	done            chan struct{}
	closed          bool
	leftover        []Event
	senders         sync.WaitGroup
	logger          *logging.Logger
	errorHandler    func(error)
	restartMutex    sync.Mutex
	restartTimer    *time.Timer
	restartAttempts int
	eventsSeen      atomic.Uint64
	eventsFiltered  atomic.Uint64
	eventsCoalesced atomic.Uint64
	eventsDelivered atomic.Uint64
	errorCount      atomic.Uint64
}
