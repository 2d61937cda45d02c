package lock

import (
	"context"
	"sync/atomic"
	"time"
)

// TimeLock is a one-shot wait point with a timeout option.
// A waiter arms it, the other side releases it with Unlock.
type TimeLock struct {
	l      chan struct{}
	locked int32
}

// NewLock returns new lock (mutex) with a timeout option.
func NewLock() *TimeLock {
	return &TimeLock{l: make(chan struct{}, 1)}
}

// Arm marks the lock as held without blocking so that
// an Unlock call made before the wait is not lost.
func (tl *TimeLock) Arm() { atomic.CompareAndSwapInt32(&tl.locked, 0, 1) }

// Lock unconditionally blocks the execution until Unlock.
func (tl *TimeLock) Lock() {
	if tl.released() {
		return
	}
	tl.Arm()
	<-tl.l
}

// LockFor blocks the execution at most for the given period of time
// or until the context is done. It returns false if Unlock wasn't called.
func (tl *TimeLock) LockFor(ctx context.Context, d time.Duration) bool {
	if tl.released() {
		return true
	}
	tl.Arm()
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-tl.l:
		return true
	case <-t.C:
	case <-ctx.Done():
	}
	if !atomic.CompareAndSwapInt32(&tl.locked, 1, 0) {
		// Unlock won the race
		<-tl.l
		return true
	}
	return false
}

// released consumes an Unlock made after Arm but before the wait.
func (tl *TimeLock) released() bool {
	select {
	case <-tl.l:
		return true
	default:
		return false
	}
}

// Unlock removes the current block if any.
func (tl *TimeLock) Unlock() {
	if !atomic.CompareAndSwapInt32(&tl.locked, 1, 0) {
		return
	}
	select {
	case tl.l <- struct{}{}:
	default:
	}
}

// IsLocked tells if someone waits for Unlock.
func (tl *TimeLock) IsLocked() bool { return atomic.LoadInt32(&tl.locked) == 1 }
