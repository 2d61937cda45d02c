// Package soft is a surface in main memory.
// Its targets are plain RGBA images.
package soft

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ldelaprade/VideoZoomGPU/pkg/present"
)

var indicator = color.RGBA{R: 255, G: 64, B: 64, A: 255}

// Surface keeps the staging bytes as they come (BGRX)
// and the render target as RGBA.
type Surface struct {
	mu      sync.Mutex
	staging []byte
	target  *image.RGBA
	scaler  draw.Scaler
}

type Option func(*Surface)

// Scale sets the scaling of the views: nearest or bilinear.
func Scale(name string) Option {
	return func(s *Surface) {
		switch name {
		case "bilinear":
			s.scaler = draw.ApproxBiLinear
		default:
			s.scaler = draw.NearestNeighbor
		}
	}
}

func New(opts ...Option) *Surface {
	s := &Surface{scaler: draw.NearestNeighbor}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Canvas makes a target of the given size.
func Canvas(w, h int) *image.RGBA { return image.NewRGBA(image.Rect(0, 0, w, h)) }

func (s *Surface) Resize(w, h int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w <= 0 || h <= 0 {
		s.release()
		return nil
	}
	s.staging = make([]byte, w*h*4)
	s.target = image.NewRGBA(image.Rect(0, 0, w, h))
	return nil
}

func (s *Surface) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target != nil
}

func (s *Surface) Upload(buf []byte, w, h int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.target == nil {
		return present.ErrNotReady
	}
	if b := s.target.Bounds(); b.Dx() != w || b.Dy() != h {
		return fmt.Errorf("%w: %vx%v on %v", present.ErrMismatch, w, h, b)
	}
	copy(s.staging, buf)

	pix := s.target.Pix
	for i := 0; i+3 < len(s.staging); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = s.staging[i+2], s.staging[i+1], s.staging[i], 0xff
	}
	return nil
}

func (s *Surface) Bind(t present.Target, v present.View) error {
	dst, ok := t.(draw.Image)
	if !ok {
		return fmt.Errorf("%w: %T", present.ErrTarget, t)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.target == nil {
		return present.ErrNotReady
	}

	src := v.Src.Intersect(s.target.Bounds())
	if src.Empty() {
		src = s.target.Bounds()
	}
	area := dst.Bounds()
	if !v.Dst.Empty() {
		area = v.Dst.Add(area.Min)
	}
	s.scaler.Scale(dst, area, s.target, src, draw.Src, nil)

	if !v.Indicator.Empty() {
		frame(dst, v.Indicator.Add(dst.Bounds().Min), indicator)
	}
	if v.Label != "" {
		label(dst, area.Min.X+2, area.Min.Y+2, v.Label)
	}
	return nil
}

func (s *Surface) Flush() error { return nil }

func (s *Surface) Release() {
	s.mu.Lock()
	s.release()
	s.mu.Unlock()
}

func (s *Surface) release() {
	s.staging = nil
	s.target = nil
}

// Image returns a copy of the render target or nil.
func (s *Surface) Image() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.target == nil {
		return nil
	}
	b := s.target.Bounds()
	img := image.NewRGBA(b)
	draw.Draw(img, b, s.target, b.Min, draw.Src)
	return img
}

// Snapshot writes the render target into a PNG file.
func (s *Surface) Snapshot(path string) error {
	img := s.Image()
	if img == nil {
		return present.ErrNotReady
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err = png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("png: %w", err)
	}
	return f.Close()
}

// frame draws a 1px rectangle border.
func frame(dst draw.Image, r image.Rectangle, c color.Color) {
	r = r.Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	u := image.NewUniform(c)
	for _, edge := range []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1),
		image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y),
		image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y),
	} {
		draw.Draw(dst, edge, u, image.Point{}, draw.Src)
	}
}

func label(img draw.Image, x, y int, text string) {
	draw.Draw(img, image.Rect(x, y, x+len(text)*7+3, y+12), &image.Uniform{C: color.RGBA{}}, image.Point{}, draw.Src)
	(&font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{R: 255, G: 255, B: 255, A: 255}),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.Int26_6((x + 2) * 64), Y: fixed.Int26_6((y + 10) * 64)},
	}).DrawString(text)
}
