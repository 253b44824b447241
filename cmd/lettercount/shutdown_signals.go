package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"sync/atomic"

	"lettercount/internal/logging"
)

const quitKey = 'q'

// shutdownTrigger cancels the run context on the first request and logs
// repeated requests once.
type shutdownTrigger struct {
	logger       *logging.Logger
	cancel       context.CancelFunc
	started      atomic.Bool
	loggedRepeat atomic.Bool
}

func newShutdownTrigger(logger *logging.Logger, cancel context.CancelFunc) *shutdownTrigger {
	return &shutdownTrigger{logger: logger, cancel: cancel}
}

func (trigger *shutdownTrigger) fire(source string, fields map[string]string) {
	if fields == nil {
		fields = map[string]string{}
	}
	fields["source"] = source
	if trigger.started.CompareAndSwap(false, true) {
		trigger.logger.Info("shutdown requested", fields)
		if trigger.cancel != nil {
			trigger.cancel()
		}
		return
	}
	if trigger.loggedRepeat.CompareAndSwap(false, true) {
		trigger.logger.Info("shutdown already in progress; ignoring request", fields)
	}
}

func (trigger *shutdownTrigger) Started() bool {
	return trigger.started.Load()
}

func watchShutdownSignals(trigger *shutdownTrigger, signalCh <-chan os.Signal) func() {
	if signalCh == nil {
		return func() {}
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case sig, ok := <-signalCh:
				if !ok {
					return
				}
				fields := map[string]string{}
				if sig != nil {
					fields["signal"] = sig.String()
				}
				trigger.fire("signal", fields)
			}
		}
	}()

	return func() {
		close(done)
	}
}

// watchQuitKey fires the trigger when a 'q' is read from input. Other input
// is ignored. The reader stops at EOF or on a read error without firing.
func watchQuitKey(trigger *shutdownTrigger, input io.Reader) <-chan struct{} {
	done := make(chan struct{})
	if input == nil {
		close(done)
		return done
	}

	go func() {
		defer close(done)
		reader := bufio.NewReader(input)
		for {
			r, _, err := reader.ReadRune()
			if err != nil {
				if !errors.Is(err, io.EOF) {
					trigger.logger.Warn("console input stopped", map[string]string{"error": err.Error()})
				} else {
					trigger.logger.Debug("console input closed", nil)
				}
				return
			}
			if r == quitKey {
				trigger.fire("console", nil)
				return
			}
		}
	}()
	return done
}
