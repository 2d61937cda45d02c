package viewport

import (
	"sync"
	"sync/atomic"
)

// Viewport publishes State values between the input goroutine (writer)
// and the render loop (reader). Readers always get a whole state.
type Viewport struct {
	mu    sync.Mutex // serializes writers
	state atomic.Pointer[State]
	lim   Limits
}

func New(lim Limits) *Viewport {
	if !lim.valid() {
		lim = DefaultLimits
	}
	v := &Viewport{lim: lim}
	v.state.Store(&State{lim: lim})
	return v
}

// Initialize sets the source dimensions, centers the view and resets the zoom.
// Calling it again with the same dimensions keeps the current state.
func (v *Viewport) Initialize(w, h int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if cur := v.state.Load(); cur.Initialized() && cur.sameSource(w, h) {
		return nil
	}
	s, err := NewState(w, h, v.lim)
	if err != nil {
		return err
	}
	v.state.Store(&s)
	return nil
}

// Reset forgets the source, i.e. after the media was closed.
func (v *Viewport) Reset() {
	v.mu.Lock()
	v.state.Store(&State{lim: v.lim})
	v.mu.Unlock()
}

func (v *Viewport) ZoomAtPoint(factor, px, py float64) {
	v.update(func(s State) State { return s.WithZoomAt(factor, px, py) })
}

func (v *Viewport) PanBy(dx, dy float64) {
	v.update(func(s State) State { return s.WithPan(dx, dy) })
}

// Snapshot returns the current state.
func (v *Viewport) Snapshot() State { return *v.state.Load() }

func (v *Viewport) CropRect() Rect { return v.Snapshot().Crop() }

func (v *Viewport) update(fn func(State) State) {
	v.mu.Lock()
	defer v.mu.Unlock()
	cur := v.state.Load()
	if !cur.Initialized() {
		return
	}
	next := fn(*cur)
	if next != *cur {
		v.state.Store(&next)
	}
}
