package main

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"lettercount/internal/logging"
)

type shutdownPhase struct {
	name string
	stop func(context.Context) error
}

// shutdownCoordinator runs named stop phases once, in registration order.
// A failing phase does not prevent later phases from running.
type shutdownCoordinator struct {
	logger *logging.Logger
	once   sync.Once
	phases []shutdownPhase
}

func newShutdownCoordinator(logger *logging.Logger) *shutdownCoordinator {
	return &shutdownCoordinator{
		logger: logger,
	}
}

func (coordinator *shutdownCoordinator) Add(name string, stop func(context.Context) error) {
	if coordinator == nil || stop == nil {
		return
	}
	coordinator.phases = append(coordinator.phases, shutdownPhase{
		name: name,
		stop: stop,
	})
}

func (coordinator *shutdownCoordinator) Run(ctx context.Context) error {
	if coordinator == nil {
		return nil
	}
	var runErr error
	coordinator.once.Do(func() {
		for _, phase := range coordinator.phases {
			started := time.Now()
			err := phase.stop(ctx)
			fields := map[string]string{
				"phase":       phase.name,
				"duration_ms": strconv.FormatInt(time.Since(started).Milliseconds(), 10),
			}
			if err != nil {
				runErr = errors.Join(runErr, err)
				fields["error"] = err.Error()
				coordinator.logger.Warn("shutdown phase failed", fields)
				continue
			}
			coordinator.logger.Debug("shutdown phase finished", fields)
		}
	})
	return runErr
}
