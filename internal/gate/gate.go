// Package gate bounds how many file operations run at once.
//
// Acquire blocks until a slot is free or the context ends. A successful
// Acquire returns a release function that must be called once the guarded
// work finishes; calling it again is a no-op.
package gate

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// DefaultSize is the number of concurrent file operations.
const DefaultSize = 4

type Gate struct {
	sem      *semaphore.Weighted
	size     int64
	inFlight atomic.Int64
	peak     atomic.Int64
	waiting  atomic.Int64
}

func New(size int) *Gate {
	if size <= 0 {
		size = DefaultSize
	}
	return &Gate{
		sem:  semaphore.NewWeighted(int64(size)),
		size: int64(size),
	}
}

// Acquire waits for a slot. On cancellation it returns ctx.Err() and holds
// nothing; an already cancelled ctx fails even when a slot is free.
func (gate *Gate) Acquire(ctx context.Context) (func(), error) {
	if gate == nil {
		return func() {}, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	gate.waiting.Add(1)
	err := gate.sem.Acquire(ctx, 1)
	gate.waiting.Add(-1)
	if err != nil {
		return nil, err
	}

	current := gate.inFlight.Add(1)
	gate.recordPeak(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			gate.inFlight.Add(-1)
			gate.sem.Release(1)
		})
	}, nil
}

func (gate *Gate) recordPeak(current int64) {
	for {
		peak := gate.peak.Load()
		if current <= peak || gate.peak.CompareAndSwap(peak, current) {
			return
		}
	}
}

func (gate *Gate) Size() int {
	if gate == nil {
		return 0
	}
	return int(gate.size)
}

// InFlight reports holders past the gate.
func (gate *Gate) InFlight() int {
	if gate == nil {
		return 0
	}
	return int(gate.inFlight.Load())
}

// Waiting reports callers blocked in Acquire.
func (gate *Gate) Waiting() int {
	if gate == nil {
		return 0
	}
	return int(gate.waiting.Load())
}

// Peak reports the highest InFlight value observed.
func (gate *Gate) Peak() int {
	if gate == nil {
		return 0
	}
	return int(gate.peak.Load())
}
