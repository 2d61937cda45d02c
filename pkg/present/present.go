// Package present pushes converted frames into a display surface
// and draws the surface into the views.
package present

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"github.com/ldelaprade/VideoZoomGPU/pkg/logger"
	"github.com/ldelaprade/VideoZoomGPU/pkg/viewport"
)

var (
	ErrNotReady = errors.New("present: surface is not ready")
	ErrMismatch = errors.New("present: frame size mismatch")
	ErrTarget   = errors.New("present: unknown target")
)

// Surface is a frame-sized display resource.
// Frames go into its CPU-writable staging memory first and then
// get copied into the render target the views are drawn from.
type Surface interface {
	// Resize (re)allocates the resource, zero size frees it.
	Resize(w, h int) error
	Ready() bool
	// Upload copies w x h BGRX pixels into the staging memory
	// and then into the render target.
	Upload(buf []byte, w, h int) error
	// Bind draws the render target into a target.
	Bind(t Target, v View) error
	// Flush shows everything bound since the last flush.
	Flush() error
	Release()
}

// Target is a place on the screen, its type depends on the surface.
type Target interface {
	Bounds() image.Rectangle
}

// View says what part of the frame goes where.
// Dst and Indicator are relative to the target origin.
type View struct {
	Src image.Rectangle // frame pixels
	Dst image.Rectangle // target pixels, the whole target when empty

	Indicator image.Rectangle // a frame drawn over Dst, none when empty
	Label     string
}

// Rect converts a crop rectangle.
func Rect(r viewport.Rect) image.Rectangle { return image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H) }

// Presenter is the only user of a surface.
// All the methods except OnDimensionsChanged should be called
// from the render loop.
type Presenter struct {
	surface Surface
	pending atomic.Pointer[image.Point]
	size    image.Point
	log     *logger.Logger

	mu sync.Mutex
}

func New(s Surface, log *logger.Logger) *Presenter {
	return &Presenter{surface: s, log: log.Extend(log.With().Str("m", "present"))}
}

// OnDimensionsChanged asks for a new surface size.
// It can be called from any goroutine, the render loop applies it.
func (p *Presenter) OnDimensionsChanged(w, h int) {
	p.pending.Store(&image.Point{X: max(w, 0), Y: max(h, 0)})
}

// Size returns the current surface size.
func (p *Presenter) Size() (w, h int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.size.X, p.size.Y
}

func (p *Presenter) sync() error {
	pt := p.pending.Swap(nil)
	if pt == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if *pt == p.size && p.surface.Ready() {
		return nil
	}
	if err := p.surface.Resize(pt.X, pt.Y); err != nil {
		p.size = image.Point{}
		return fmt.Errorf("resize %vx%v: %w", pt.X, pt.Y, err)
	}
	p.size = *pt
	p.log.Debug().Msgf("surface %vx%v", pt.X, pt.Y)
	return nil
}

// Present uploads a w x h BGRX frame.
// Nothing happens while the surface isn't ready.
// A frame of a different size is dropped with ErrMismatch.
func (p *Presenter) Present(buf []byte, w, h int) error {
	if err := p.sync(); err != nil {
		return err
	}
	if !p.surface.Ready() {
		return nil
	}
	if sw, sh := p.Size(); sw != w || sh != h {
		return fmt.Errorf("%w: %vx%v frame on %vx%v surface", ErrMismatch, w, h, sw, sh)
	}
	if len(buf) < w*h*4 {
		return fmt.Errorf("%w: %vb for %vx%v", ErrMismatch, len(buf), w, h)
	}
	return p.surface.Upload(buf, w, h)
}

// RenderToTarget draws the last uploaded frame into a target.
// It's called once for each view on every tick.
func (p *Presenter) RenderToTarget(t Target, v View) error {
	if err := p.sync(); err != nil {
		return err
	}
	if !p.surface.Ready() {
		return nil
	}
	return p.surface.Bind(t, v)
}

func (p *Presenter) Flush() error { return p.surface.Flush() }

// Ready tells if the surface can take frames.
func (p *Presenter) Ready() bool { return p.surface.Ready() }

func (p *Presenter) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.surface.Release()
	p.size = image.Point{}
}
