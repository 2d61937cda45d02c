// Package exchange hands decoded frames from a decoder goroutine
// over to the render loop.
//
// The decoder writes into its own buffer between Lock and Unlock,
// Unlock swaps it with the ready buffer and the render loop swaps
// the ready buffer into its read buffer on ConsumeLatestFrame.
// Nobody ever copies pixels here and nobody writes into a buffer
// somebody else can see.
//
//	decoder        ready         render
//	 write  <-->  (latest)  <-->  read
//	      Unlock         Consume
package exchange

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ldelaprade/VideoZoomGPU/pkg/lock"
	"github.com/ldelaprade/VideoZoomGPU/pkg/logger"
	"github.com/ldelaprade/VideoZoomGPU/pkg/video"
)

var (
	ErrBusy     = errors.New("exchange: frame is already locked")
	ErrClosed   = errors.New("exchange: closed")
	ErrNoFormat = errors.New("exchange: no format")
)

// DefaultTeardownWait is how long Close waits for the decoder to finish its frame.
const DefaultTeardownWait = 2 * time.Second

type Exchange struct {
	mu    sync.Mutex
	desc  *video.Descriptor
	write *video.Frame
	ready *video.Frame
	read  *video.Frame

	fresh  bool // ready holds a frame nobody consumed
	locked bool // the decoder is inside a Lock/Unlock span
	closed bool
	gen    uint64

	span *lock.TimeLock
	log  *logger.Logger

	published atomic.Uint64
	consumed  atomic.Uint64
	dropped   atomic.Uint64
}

// Stats is a snapshot of the exchange counters.
type Stats struct {
	Published  uint64
	Consumed   uint64
	Dropped    uint64
	Generation uint64
}

func New(log *logger.Logger) *Exchange {
	return &Exchange{
		span: lock.NewLock(),
		log:  log.Extend(log.With().Str("m", "exchange")),
	}
}

// Reset installs new buffers described by desc.
// It should be called by the format callback, that is outside of
// Lock/Unlock spans. A frame held by the reader stays valid.
func (e *Exchange) Reset(desc *video.Descriptor) error {
	var frames [3]*video.Frame
	for i := range frames {
		f, err := video.NewFrame(desc)
		if err != nil {
			return err
		}
		frames[i] = f
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	if e.locked {
		return fmt.Errorf("reset during the frame write: %w", ErrBusy)
	}
	e.desc = desc
	e.write, e.ready, e.read = frames[0], frames[1], frames[2]
	e.fresh = false
	e.log.Debug().Msgf("buffers: %v", desc)
	return nil
}

// Release drops all the buffers, the exchange stays usable after the next Reset.
func (e *Exchange) Release() {
	e.mu.Lock()
	e.release()
	e.mu.Unlock()
}

func (e *Exchange) release() {
	e.desc = nil
	e.write, e.ready, e.read = nil, nil, nil
	e.fresh = false
}

// Descriptor returns the current frame description or nil.
func (e *Exchange) Descriptor() *video.Descriptor {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.desc
}

// Lock gives the decoder writable planes in Y, U, V (or single packed) order.
func (e *Exchange) Lock() ([][]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch {
	case e.closed:
		return nil, ErrClosed
	case e.write == nil:
		return nil, ErrNoFormat
	case e.locked:
		return nil, ErrBusy
	}
	e.locked = true
	return e.write.Buffers(), nil
}

// Unlock publishes the frame written since Lock as the latest one.
// An unconsumed previous frame is dropped.
func (e *Exchange) Unlock() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.locked {
		return
	}
	e.locked = false
	if e.closed {
		e.span.Unlock()
		return
	}
	e.gen++
	e.write.Seq = e.gen
	if e.fresh {
		e.dropped.Add(1)
	}
	e.write, e.ready = e.ready, e.write
	e.fresh = true
	e.published.Add(1)
}

// Display is the decoder's "picture is due" hook.
// The render loop runs on its own clock so there is nothing to do.
func (e *Exchange) Display() {}

// ConsumeLatestFrame returns the newest complete frame if there is one
// since the last call. The frame is valid until the next call.
func (e *Exchange) ConsumeLatestFrame() (*video.Frame, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.fresh {
		return nil, false
	}
	e.read, e.ready = e.ready, e.read
	e.fresh = false
	e.consumed.Add(1)
	return e.read, true
}

// Generation returns the number of the last published frame.
func (e *Exchange) Generation() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gen
}

func (e *Exchange) Stats() Stats {
	return Stats{
		Published:  e.published.Load(),
		Consumed:   e.consumed.Load(),
		Dropped:    e.dropped.Load(),
		Generation: e.Generation(),
	}
}

// Close stops accepting frames, waits for the decoder to leave
// an active Lock/Unlock span and frees the buffers.
// The buffers are freed even when the wait fails.
func (e *Exchange) Close(ctx context.Context) (err error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	inFlight := e.locked
	if inFlight {
		e.span.Arm()
	}
	e.mu.Unlock()

	if inFlight {
		e.log.Debug().Msg("waiting for the last frame")
		if !e.span.LockFor(ctx, DefaultTeardownWait) {
			err = fmt.Errorf("decoder didn't finish the frame: %w", ErrBusy)
		}
	}

	e.mu.Lock()
	e.release()
	e.mu.Unlock()
	return err
}
