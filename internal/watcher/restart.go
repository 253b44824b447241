package watcher

import (
	"time"

	"github.com/fsnotify/fsnotify"
)

func (watcher *Watcher) handleError(err error) {
	if err == nil {
		return
	}
	watcher.errorCount.Add(1)
	watcher.logWarn("watcher error", map[string]string{
		"dir":   watcher.dir,
		"error": err.Error(),
	})
	watcher.scheduleRestart(err)
}

func restartDelay(attempt int) time.Duration {
	return restartBaseDelay * time.Duration(1<<attempt)
}

func (watcher *Watcher) isClosed() bool {
	watcher.mutex.Lock()
	defer watcher.mutex.Unlock()
	return watcher.closed
}

func (watcher *Watcher) scheduleRestart(err error) {
	if watcher == nil || watcher.isClosed() {
		return
	}
	watcher.restartMutex.Lock()
	if watcher.restartTimer != nil {
		watcher.restartMutex.Unlock()
		return
	}
	if watcher.restartAttempts >= maxRestartAttempts {
		watcher.restartMutex.Unlock()
		watcher.notifyError(err)
		return
	}
	delay := restartDelay(watcher.restartAttempts)
	watcher.restartAttempts++
	watcher.restartTimer = time.AfterFunc(delay, watcher.performRestart)
	watcher.restartMutex.Unlock()
}

func (watcher *Watcher) performRestart() {
	restartErr := watcher.restart()

	watcher.restartMutex.Lock()
	watcher.restartTimer = nil
	if restartErr == nil {
		watcher.restartAttempts = 0
		watcher.restartMutex.Unlock()
		return
	}
	watcher.restartMutex.Unlock()

	watcher.logWarn("watcher restart failed", map[string]string{
		"dir":   watcher.dir,
		"error": restartErr.Error(),
	})
	watcher.scheduleRestart(restartErr)
}

func (watcher *Watcher) notifyError(err error) {
	if watcher == nil || watcher.errorHandler == nil || err == nil {
		return
	}
	watcher.errorHandler(err)
}

// restart swaps in a fresh fsnotify watcher on the same directory.
func (watcher *Watcher) restart() error {
	if watcher.isClosed() {
		return nil
	}

	replacement, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := replacement.Add(watcher.dir); err != nil {
		_ = replacement.Close()
		return err
	}

	watcher.mutex.Lock()
	if watcher.closed {
		watcher.mutex.Unlock()
		_ = replacement.Close()
		return nil
	}
	previous := watcher.watcher
	watcher.watcher = replacement
	watcher.mutex.Unlock()

	watcher.startForwarder(replacement)
	if previous != nil {
		_ = previous.Close()
	}
	watcher.logger.Info("watcher restarted", map[string]string{"dir": watcher.dir})
	return nil
}
