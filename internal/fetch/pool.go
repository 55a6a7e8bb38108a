package fetch

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// DefaultPoolSize caps simultaneous in-flight fetches.
const DefaultPoolSize = 100

// Pool bounds concurrent fetches. Waiters are admitted in FIFO order, one
// per released slot.
//
// Thread-safety: Pool is safe for concurrent use.
type Pool struct {
	size     int64
	sem      *semaphore.Weighted
	inFlight atomic.Int64
	peak     atomic.Int64
}

// NewPool creates a pool with the given capacity. Sizes below one use
// DefaultPoolSize.
func NewPool(size int) *Pool {
	if size < 1 {
		size = DefaultPoolSize
	}
	return &Pool{size: int64(size), sem: semaphore.NewWeighted(int64(size))}
}

// Size returns the pool capacity.
func (p *Pool) Size() int {
	return int(p.size)
}

// Acquire blocks until a slot is free or ctx is done.
func (p *Pool) Acquire(ctx context.Context) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	n := p.inFlight.Add(1)
	for {
		peak := p.peak.Load()
		if n <= peak || p.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	return nil
}

// Release frees a slot taken by Acquire.
func (p *Pool) Release() {
	p.inFlight.Add(-1)
	p.sem.Release(1)
}

// InFlight returns the number of held slots.
func (p *Pool) InFlight() int {
	return int(p.inFlight.Load())
}

// Peak returns the highest InFlight value observed.
func (p *Pool) Peak() int {
	return int(p.peak.Load())
}
