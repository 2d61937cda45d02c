// Package sdl shows frames in an SDL2 window.
// The surface is a streaming texture, the views are parts of the window.
package sdl

import (
	"fmt"
	"image"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/ldelaprade/VideoZoomGPU/pkg/present"
	"github.com/ldelaprade/VideoZoomGPU/pkg/thread"
)

// ARGB8888 is stored as B, G, R, A bytes on little-endian machines,
// so BGRX frames go in without conversion.
const texFormat = uint32(sdl.PIXELFORMAT_ARGB8888)

// Surface is a streaming texture of a renderer.
// Locking the texture gives the staging memory,
// unlocking it makes the texture the render target.
type Surface struct {
	r    *sdl.Renderer
	tex  *sdl.Texture
	w, h int
}

func NewSurface(r *sdl.Renderer) *Surface { return &Surface{r: r} }

func (s *Surface) Resize(w, h int) (err error) {
	thread.MainMaybe(func() {
		s.release()
		if w <= 0 || h <= 0 {
			return
		}
		var tex *sdl.Texture
		tex, err = s.r.CreateTexture(texFormat, int(sdl.TEXTUREACCESS_STREAMING), int32(w), int32(h))
		if err != nil {
			err = fmt.Errorf("texture: %w", err)
			return
		}
		s.tex, s.w, s.h = tex, w, h
	})
	return
}

func (s *Surface) Ready() bool { return s.tex != nil }

func (s *Surface) Upload(buf []byte, w, h int) (err error) {
	if s.tex == nil {
		return present.ErrNotReady
	}
	if w != s.w || h != s.h {
		return fmt.Errorf("%w: %vx%v on %vx%v", present.ErrMismatch, w, h, s.w, s.h)
	}
	thread.MainMaybe(func() {
		var pix []byte
		var pitch int
		pix, pitch, err = s.tex.Lock(nil)
		if err != nil {
			return
		}
		row := w << 2
		for y := 0; y < h; y++ {
			copy(pix[y*pitch:y*pitch+row], buf[y*row:(y+1)*row])
		}
		s.tex.Unlock()
	})
	return
}

func (s *Surface) Bind(t present.Target, v present.View) (err error) {
	p, ok := t.(Pane)
	if !ok {
		return fmt.Errorf("%w: %T", present.ErrTarget, t)
	}
	if s.tex == nil {
		return present.ErrNotReady
	}
	src := v.Src.Intersect(image.Rect(0, 0, s.w, s.h))
	if src.Empty() {
		src = image.Rect(0, 0, s.w, s.h)
	}
	dst := p.Bounds()
	if !v.Dst.Empty() {
		dst = v.Dst.Add(dst.Min)
	}
	thread.MainMaybe(func() {
		sr, dr := rect(src), rect(dst)
		if err = s.r.Copy(s.tex, &sr, &dr); err != nil {
			return
		}
		if !v.Indicator.Empty() {
			ir := rect(v.Indicator.Add(p.Min))
			if err = s.r.SetDrawColor(255, 64, 64, 255); err != nil {
				return
			}
			err = s.r.DrawRect(&ir)
		}
	})
	return
}

// Flush shows the window and clears the back buffer.
func (s *Surface) Flush() (err error) {
	thread.MainMaybe(func() {
		s.r.Present()
		if err = s.r.SetDrawColor(0, 0, 0, 255); err != nil {
			return
		}
		err = s.r.Clear()
	})
	return
}

func (s *Surface) Release() { thread.MainMaybe(s.release) }

func (s *Surface) release() {
	if s.tex != nil {
		_ = s.tex.Destroy()
	}
	s.tex, s.w, s.h = nil, 0, 0
}

// Pane is a part of the window.
type Pane struct{ image.Rectangle }

func rect(r image.Rectangle) sdl.Rect {
	return sdl.Rect{X: int32(r.Min.X), Y: int32(r.Min.Y), W: int32(r.Dx()), H: int32(r.Dy())}
}
