// Package viewport keeps the zoom and pan state of a video view
// and derives the visible crop rectangle from it.
package viewport

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidState = errors.New("viewport: invalid state")

// Limits is the allowed zoom range.
type Limits struct {
	Min, Max float64
}

var DefaultLimits = Limits{Min: 1, Max: 20}

func (l Limits) valid() bool {
	return l.Min >= 1 && l.Max >= l.Min && !math.IsInf(l.Max, 0) && !math.IsNaN(l.Max)
}

func (l Limits) clamp(z float64) float64 { return clamp(z, l.Min, l.Max) }

// Rect is a crop rectangle in source pixels.
type Rect struct {
	X, Y, W, H int
}

func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

func (r Rect) String() string { return fmt.Sprintf("%vx%v+%v+%v", r.W, r.H, r.X, r.Y) }

// RectF is a crop rectangle in the normalized [0, 1] space of a frame.
type RectF struct {
	X, Y, W, H float64
}

// State is an immutable zoom and pan state.
// The zero value is an uninitialized viewport that shows nothing.
type State struct {
	zoom   float64
	cx, cy float64
	w, h   int
	lim    Limits
}

// NewState makes a state for a w x h source centered at the frame
// midpoint with the minimal zoom.
func NewState(w, h int, lim Limits) (State, error) {
	if w <= 0 || h <= 0 {
		return State{}, fmt.Errorf("%w: source size %vx%v", ErrInvalidState, w, h)
	}
	if !lim.valid() {
		return State{}, fmt.Errorf("%w: zoom limits %v", ErrInvalidState, lim)
	}
	return State{zoom: lim.Min, cx: float64(w) / 2, cy: float64(h) / 2, w: w, h: h, lim: lim}, nil
}

func (s State) Initialized() bool        { return s.w > 0 && s.h > 0 }
func (s State) Zoom() float64            { return s.zoom }
func (s State) Center() (x, y float64)   { return s.cx, s.cy }
func (s State) Source() (w, h int)       { return s.w, s.h }
func (s State) Limits() Limits           { return s.lim }
func (s State) sameSource(w, h int) bool { return s.w == w && s.h == h }

// ZoomText is the zoom as a percent label, i.e. Zoom: 125%.
func (s State) ZoomText() string {
	z := s.zoom
	if !s.Initialized() {
		z = 1
	}
	return fmt.Sprintf("Zoom: %.0f%%", z*100)
}

// crop returns the crop window before rounding.
// Its origin is clamped so the window stays inside the frame.
func (s State) crop() (x, y, w, h float64) {
	w, h = float64(s.w)/s.zoom, float64(s.h)/s.zoom
	x = clamp(s.cx-w/2, 0, math.Max(0, float64(s.w)-w))
	y = clamp(s.cy-h/2, 0, math.Max(0, float64(s.h)-h))
	return
}

// Crop returns the visible part of the source in whole pixels.
// It is always inside the source frame and at least 1x1 once initialized.
func (s State) Crop() Rect {
	if !s.Initialized() {
		return Rect{}
	}
	x, y, w, h := s.crop()
	r := Rect{W: round(w), H: round(h)}
	r.W, r.H = min(max(r.W, 1), s.w), min(max(r.H, 1), s.h)
	r.X, r.Y = min(round(x), s.w-r.W), min(round(y), s.h-r.H)
	return r
}

// Normalized returns Crop divided by the source size.
func (s State) Normalized() RectF {
	if !s.Initialized() {
		return RectF{}
	}
	r := s.Crop()
	w, h := float64(s.w), float64(s.h)
	return RectF{X: float64(r.X) / w, Y: float64(r.Y) / h, W: float64(r.W) / w, H: float64(r.H) / h}
}

// WithZoomAt multiplies the zoom by factor keeping the source point (px, py)
// at the same relative position inside the crop window.
//
// The anchor uses the unrounded window so that repeated zooms
// around one point don't drift.
// Invalid factors and uninitialized states are ignored.
func (s State) WithZoomAt(factor, px, py float64) State {
	if !s.Initialized() || !finite(factor) || factor <= 0 || !finite(px) || !finite(py) {
		return s
	}
	z := s.lim.clamp(s.zoom * factor)
	if z == s.zoom {
		return s
	}
	ox, oy, ow, oh := s.crop()
	rx, ry := (px-ox)/ow, (py-oy)/oh
	nw, nh := float64(s.w)/z, float64(s.h)/z

	n := s
	n.zoom = z
	n.cx = clamp(px-rx*nw+nw/2, 0, float64(s.w))
	n.cy = clamp(py-ry*nh+nh/2, 0, float64(s.h))
	return n
}

// WithPan moves the center by a delta in source pixels.
// The center never leaves the frame.
func (s State) WithPan(dx, dy float64) State {
	if !s.Initialized() || !finite(dx) || !finite(dy) {
		return s
	}
	n := s
	n.cx = clamp(s.cx+dx, 0, float64(s.w))
	n.cy = clamp(s.cy+dy, 0, float64(s.h))
	return n
}

func (s State) String() string {
	return fmt.Sprintf("%vx%v zoom %.3f at (%.1f, %.1f)", s.w, s.h, s.zoom, s.cx, s.cy)
}

func clamp(v, lo, hi float64) float64 { return math.Max(lo, math.Min(v, hi)) }
func round(v float64) int             { return int(math.Round(v)) }
func finite(v float64) bool           { return !math.IsNaN(v) && !math.IsInf(v, 0) }
