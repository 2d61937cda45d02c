// Package decoder defines how frame sources talk to the viewer.
//
// A decoder runs on its own goroutine. It first agrees on a format
// with Format (and Confirm when it can't use the format it was offered),
// then writes every picture between Lock and Unlock.
package decoder

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/ldelaprade/VideoZoomGPU/pkg/video"
)

var (
	ErrNotOpen = errors.New("decoder: no media")
	ErrBadSeek = errors.New("decoder: position is out of [0, 1]")
)

// Callbacks are called by a decoder from its goroutine.
type Callbacks interface {
	// Format takes a proposed format and may overwrite it,
	// the returned pitches and lines describe the planes for the agreed one.
	Format(tag *video.FourCC, w, h *int) (pitches, lines []int, err error)
	// Confirm tells the format the decoder will actually write.
	Confirm(tag video.FourCC) (pitches, lines []int, err error)
	Lock() ([][]byte, error)
	Unlock()
	Display()
	Cleanup()
}

// Player is the media control of a decoder.
type Player interface {
	Open(path string) error
	Play() error
	Pause()
	Stop()
	// Seek jumps to a position in [0, 1] of the media duration.
	Seek(pos float64) error
	Position() float64
	Paused() bool
	// Err returns fatal playback errors.
	Err() <-chan error
	Close() error
}

// Runner keeps a playback loop goroutine.
type Runner struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	paused atomic.Bool
	errs   chan error
}

func NewRunner() *Runner { return &Runner{errs: make(chan error, 1)} }

// Start runs loop unless it's running already.
// A loop error other than cancellation goes to Err.
func (r *Runner) Start(loop func(ctx context.Context) error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done != nil {
		select {
		case <-r.done:
		default:
			return
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	r.cancel, r.done = cancel, done
	go func() {
		defer close(done)
		if err := loop(ctx); err != nil && !errors.Is(err, context.Canceled) {
			select {
			case r.errs <- err:
			default:
			}
		}
	}()
}

// Stop cancels the loop and waits for it.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done == nil {
		return false
	}
	select {
	case <-r.done:
		return false
	default:
		return true
	}
}

func (r *Runner) Pause(p bool)      { r.paused.Store(p) }
func (r *Runner) Paused() bool      { return r.paused.Load() }
func (r *Runner) Err() <-chan error { return r.errs }

// ValidPosition checks a seek position.
func ValidPosition(pos float64) bool { return pos >= 0 && pos <= 1 }
