package viewport

import "math"

// Mapper converts between screen space of the views and source pixels.
// The main view stretches the crop window over W x H screen pixels,
// the overview fits the whole frame into MiniW x MiniH keeping the aspect.
type Mapper struct {
	W, H         int
	MiniW, MiniH int
}

// ToSource maps a point of the main view to source pixels.
func (m Mapper) ToSource(s State, x, y float64) (sx, sy float64) {
	r := s.Crop()
	sx = float64(r.X) + x*float64(r.W)/float64(max(1, m.W))
	sy = float64(r.Y) + y*float64(r.H)/float64(max(1, m.H))
	return
}

// ScaleToSource returns how many source pixels one screen pixel
// of the main view is, for drag speed.
func (m Mapper) ScaleToSource(s State) (kx, ky float64) {
	r := s.Crop()
	return float64(r.W) / float64(max(1, m.W)), float64(r.H) / float64(max(1, m.H))
}

// DragToPan converts a mouse drag on the main view into a pan delta.
// Dragging the picture to the right moves the view to the left.
func (m Mapper) DragToPan(s State, dx, dy float64) (px, py float64) {
	kx, ky := m.ScaleToSource(s)
	return -dx * kx, -dy * ky
}

// MiniFit returns the area of the overview where the frame is drawn.
func (m Mapper) MiniFit(s State) (fit Rect, scale float64) {
	w, h := s.Source()
	if w == 0 || h == 0 || m.MiniW <= 0 || m.MiniH <= 0 {
		return Rect{}, 0
	}
	scale = math.Min(float64(m.MiniW)/float64(w), float64(m.MiniH)/float64(h))
	dw, dh := float64(w)*scale, float64(h)*scale
	return Rect{
		X: round((float64(m.MiniW) - dw) / 2),
		Y: round((float64(m.MiniH) - dh) / 2),
		W: round(dw),
		H: round(dh),
	}, scale
}

// MiniRect returns the crop window indicator in the overview.
func (m Mapper) MiniRect(s State) Rect {
	_, k := m.MiniFit(s)
	if k == 0 {
		return Rect{}
	}
	r := s.Crop()
	// the exact offset, MiniFit rounds it
	w, h := s.Source()
	ox := (float64(m.MiniW) - float64(w)*k) / 2
	oy := (float64(m.MiniH) - float64(h)*k) / 2
	return Rect{
		X: round(ox + float64(r.X)*k),
		Y: round(oy + float64(r.Y)*k),
		W: max(1, round(float64(r.W)*k)),
		H: max(1, round(float64(r.H)*k)),
	}
}
