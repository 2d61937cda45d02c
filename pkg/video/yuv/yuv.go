// Package yuv converts planar I420 frames into packed BGRX pixels.
package yuv

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/ldelaprade/VideoZoomGPU/pkg/video"
)

// Converter keeps the output buffer between frames,
// a frame must be used before the next Convert call.
// It is not safe for concurrent use.
type Converter struct {
	dst     []byte
	threads int
	wg      sync.WaitGroup
}

func NewConverter(options ...Option) *Converter {
	opts := &Options{Threads: runtime.NumCPU()}
	opts.override(options...)

	c := &Converter{threads: 1}
	if opts.Threaded && opts.Threads > 1 {
		c.threads = opts.Threads
	}
	return c
}

// Convert returns BGRX bytes of the frame, 4 bytes per pixel, rows without padding.
// Packed frames are passed through as they are.
// The BT.601 limited range formula is used:
//
//	C = Y - 16, D = U - 128, E = V - 128
//	R = clamp((298C + 409E + 128) >> 8)
//	G = clamp((298C - 100D - 208E + 128) >> 8)
//	B = clamp((298C + 516D + 128) >> 8)
func (c *Converter) Convert(f *video.Frame) ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	w, h := f.Desc.W, f.Desc.H

	switch f.Desc.Layout {
	case video.Packed32:
		p := f.Planes[0]
		if p.Stride == w<<2 {
			return p.Data[:w*h<<2], nil
		}
		dst := c.buffer(w * h << 2)
		for y := 0; y < h; y++ {
			copy(dst[y*w<<2:], p.Row(y, w<<2))
		}
		return dst, nil
	case video.PlanarYUV420:
		dst := c.buffer(w * h << 2)
		c.planar(dst, f.Planes, w, h)
		return dst, nil
	}
	return nil, fmt.Errorf("%w: layout %v", video.ErrBadFrame, f.Desc.Layout)
}

func (c *Converter) buffer(n int) []byte {
	if cap(c.dst) < n {
		c.dst = make([]byte, n)
	}
	c.dst = c.dst[:n]
	return c.dst
}

// planar splits the frame into chunks of even rows,
// so that each chunk owns its chroma rows.
//
//	      8x4          threads (2)
//	x x x x x x x x  | 1
//	x x x x x x x x  | 1
//	x x x x x x x x  | 2
//	x x x x x x x x  | 2
func (c *Converter) planar(dst []byte, pl []video.Plane, w, h int) {
	threads := min(c.threads, h>>1)
	if threads <= 1 {
		i420(dst, pl[0], pl[1], pl[2], w, 0, h)
		return
	}
	chunk := (h / threads) &^ 1
	c.wg.Add(threads)
	for i := 0; i < threads; i++ {
		y0, y1 := i*chunk, (i+1)*chunk
		if i == threads-1 {
			y1 = h
		}
		go func() {
			i420(dst, pl[0], pl[1], pl[2], w, y0, y1)
			c.wg.Done()
		}()
	}
	c.wg.Wait()
}

// i420 converts rows [y0, y1) of the frame, w must be even.
func i420(dst []byte, yp, up, vp video.Plane, w, y0, y1 int) {
	cw := w >> 1
	for y := y0; y < y1; y++ {
		yr := yp.Row(y, w)
		ur, vr := up.Row(y>>1, cw), vp.Row(y>>1, cw)
		out := dst[y*w<<2 : (y+1)*w<<2]
		for x := 0; x < cw; x++ {
			d, e := int32(ur[x])-128, int32(vr[x])-128
			r := 409*e + 128
			g := -100*d - 208*e + 128
			b := 516*d + 128

			i := x << 3
			l := 298 * (int32(yr[x<<1]) - 16)
			out[i] = clamp8((l + b) >> 8)
			out[i+1] = clamp8((l + g) >> 8)
			out[i+2] = clamp8((l + r) >> 8)
			out[i+3] = 0

			l = 298 * (int32(yr[x<<1+1]) - 16)
			out[i+4] = clamp8((l + b) >> 8)
			out[i+5] = clamp8((l + g) >> 8)
			out[i+6] = clamp8((l + r) >> 8)
			out[i+7] = 0
		}
	}
}

func clamp8(v int32) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}
