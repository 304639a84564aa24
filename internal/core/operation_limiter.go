package core

// operation_limiter.go bounds the number of analyze and import operations
// running at once in one process.
//
// Slots are handed out through a buffered channel. A caller that cannot get a
// slot within maxWait fails with ErrTooManyOperations. WaitForDrain lets the
// server finish in-flight imports before shutting down.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrTooManyOperations is returned when all slots stay occupied for longer
// than the limiter's wait time. Clients should retry after a short delay.
var ErrTooManyOperations = errors.New("too many concurrent operations, please try again later")

const (
	// DefaultMaxConcurrentOperations is the default slot count.
	DefaultMaxConcurrentOperations = 4
	// DefaultMaxWaitTime is how long Acquire waits for a slot.
	DefaultMaxWaitTime = 30 * time.Second
)

// OperationLimiter is a counting semaphore over pipeline operations.
type OperationLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
	active  atomic.Int32
}

// NewOperationLimiter creates a limiter with maxConcurrent slots.
// Non-positive arguments select the defaults.
func NewOperationLimiter(maxConcurrent int, maxWait time.Duration) *OperationLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentOperations
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}
	return &OperationLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire takes a slot, waiting at most the limiter's wait time.
// The caller must call Release once the operation ends.
func (l *OperationLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManyOperations
	}
}

// Release returns a slot taken by Acquire.
func (l *OperationLimiter) Release() {
	l.active.Add(-1)
	<-l.slots
}

// Run executes fn while holding a slot.
func (l *OperationLimiter) Run(ctx context.Context, fn func(context.Context) error) error {
	if err := l.Acquire(ctx); err != nil {
		return err
	}
	defer l.Release()
	return fn(ctx)
}

// ActiveCount returns the number of operations holding a slot.
func (l *OperationLimiter) ActiveCount() int {
	return int(l.active.Load())
}

// MaxConcurrent returns the slot count.
func (l *OperationLimiter) MaxConcurrent() int {
	return cap(l.slots)
}

// WaitForDrain blocks until no operation holds a slot or ctx is done.
func (l *OperationLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for l.ActiveCount() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// LimiterStatus is a point-in-time view of a limiter for health output.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state.
func (l *OperationLimiter) Status() LimiterStatus {
	return LimiterStatus{
		Active:        l.ActiveCount(),
		Available:     cap(l.slots) - len(l.slots),
		MaxConcurrent: cap(l.slots),
	}
}
