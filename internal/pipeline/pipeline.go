// Package pipeline dispatches source files through the gate to the processor.
//
// Files found by the initial scan and files announced by the watcher take the
// same route: Submit records the path as pending, waits for a gate slot and
// hands the path to the processor. A path that is already pending is dropped.
package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"sync"

	"lettercount/internal/gate"
	"lettercount/internal/logging"
	"lettercount/internal/metrics"
	"lettercount/internal/processor"
	"lettercount/internal/watcher"

	"golang.org/x/sync/errgroup"
)

// Handler processes one source file. *processor.Processor implements it.
type Handler interface {
	Process(ctx context.Context, source string) processor.Result
}

type Options struct {
	Gate    *gate.Gate
	Handler Handler
	Logger  *logging.Logger
	Metrics *metrics.Registry
}

type Pipeline struct {
	gate    *gate.Gate
	handler Handler
	logger  *logging.Logger
	metrics *metrics.Registry

	group   errgroup.Group
	mutex   sync.Mutex
	pending map[string]struct{}
}

func New(options Options) (*Pipeline, error) {
	if options.Handler == nil {
		return nil, errors.New("pipeline handler is required")
	}
	g := options.Gate
	if g == nil {
		g = gate.New(gate.DefaultSize)
	}
	logger := options.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Pipeline{
		gate:    g,
		handler: options.Handler,
		logger:  logger,
		metrics: options.Metrics,
		pending: make(map[string]struct{}),
	}, nil
}

// Submit schedules path and returns without waiting for it. It reports false
// when the path is already queued or in flight. Cancelling ctx abandons the
// attempt only while it still waits for the gate. Paths are compared in
// absolute form, so relative scan results and watcher events meet.
func (pipeline *Pipeline) Submit(ctx context.Context, path string) bool {
	key := pathKey(path)

	pipeline.mutex.Lock()
	if _, ok := pipeline.pending[key]; ok {
		pipeline.mutex.Unlock()
		pipeline.metrics.IncDuplicates()
		pipeline.logger.Debug("file already queued", map[string]string{"file": filepath.Base(key)})
		return false
	}
	pipeline.pending[key] = struct{}{}
	pipeline.mutex.Unlock()

	pipeline.group.Go(func() error {
		defer pipeline.forget(key)
		pipeline.dispatch(ctx, key)
		return nil
	})
	return true
}

func (pipeline *Pipeline) dispatch(ctx context.Context, path string) {
	release, err := pipeline.gate.Acquire(ctx)
	if err != nil {
		pipeline.metrics.IncCancelled()
		fields := map[string]string{"file": filepath.Base(path)}
		if !errors.Is(err, context.Canceled) {
			fields["error"] = err.Error()
		}
		pipeline.logger.Warn("operation was cancelled", fields)
		return
	}
	defer release()

	result := pipeline.handler.Process(ctx, path)
	if result.Err != nil {
		pipeline.metrics.IncFailed()
		return
	}
	pipeline.metrics.RecordProcessed(result.Letters)
}

func pathKey(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

func (pipeline *Pipeline) forget(path string) {
	pipeline.mutex.Lock()
	delete(pipeline.pending, path)
	pipeline.mutex.Unlock()
}

// SubmitAll schedules every path in order.
func (pipeline *Pipeline) SubmitAll(ctx context.Context, paths []string) int {
	accepted := 0
	for _, path := range paths {
		if pipeline.Submit(ctx, path) {
			accepted++
		}
	}
	return accepted
}

// Consume submits every event until events is closed. Once ctx is done the
// remaining events are still submitted, so each one ends with a cancellation
// notice instead of disappearing; the caller closes the source to let Consume
// return. Consume must return before Wait is called.
func (pipeline *Pipeline) Consume(ctx context.Context, events <-chan watcher.Event) {
	for {
		select {
		case <-ctx.Done():
			for event := range events {
				pipeline.Submit(ctx, event.Path)
			}
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			pipeline.Submit(ctx, event.Path)
		}
	}
}

// Pending reports how many paths are queued or in flight.
func (pipeline *Pipeline) Pending() int {
	pipeline.mutex.Lock()
	defer pipeline.mutex.Unlock()
	return len(pipeline.pending)
}

// Wait blocks until every submitted attempt has finished.
func (pipeline *Pipeline) Wait() error {
	return pipeline.group.Wait()
}
