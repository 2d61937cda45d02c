// Package video holds the pixel layouts and frame buffers shared between
// the decoder callbacks and the render loop.
package video

import (
	"errors"
	"fmt"
)

// Layout is the memory organization of a frame.
type Layout uint8

const (
	LayoutNone   Layout = iota
	Packed32            // Packed32 has B, G, R, X bytes per pixel in one plane
	PlanarYUV420        // PlanarYUV420 has full Y plane and quarter size U, V planes
)

func (l Layout) String() string {
	switch l {
	case Packed32:
		return "packed32"
	case PlanarYUV420:
		return "yuv420p"
	}
	return "none"
}

// Planes returns the number of buffers a frame of the layout has.
func (l Layout) Planes() int {
	switch l {
	case Packed32:
		return 1
	case PlanarYUV420:
		return 3
	}
	return 0
}

// Neutral chroma value, an unwritten planar frame shows up gray.
const chromaMid = 128

// MaxSide limits a frame side, bigger values are treated as a broken decoder.
const MaxSide = 16384

var (
	ErrBadFrame   = errors.New("video: bad frame")
	ErrBadFormat  = errors.New("video: unsupported format")
	ErrAllocation = errors.New("video: allocation failed")
)

// Plane is a view of one frame buffer.
// Stride is the length of a row in bytes, Lines is the number of rows.
type Plane struct {
	Data   []byte
	Stride int
	Lines  int
}

// Row returns the bytes of the row i limited to n bytes.
func (p Plane) Row(i, n int) []byte {
	off := i * p.Stride
	return p.Data[off : off+n : off+n]
}

// Descriptor is the immutable description of negotiated frames.
type Descriptor struct {
	W, H   int
	Layout Layout
	Tag    FourCC
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%vx%v %v(%v)", d.W, d.H, d.Tag, d.Layout)
}

// Pitches returns row sizes of each plane in bytes.
func (d Descriptor) Pitches() []int {
	switch d.Layout {
	case Packed32:
		return []int{d.W << 2}
	case PlanarYUV420:
		return []int{d.W, d.W >> 1, d.W >> 1}
	}
	return nil
}

// Lines returns the number of rows of each plane.
func (d Descriptor) Lines() []int {
	switch d.Layout {
	case Packed32:
		return []int{d.H}
	case PlanarYUV420:
		return []int{d.H, d.H >> 1, d.H >> 1}
	}
	return nil
}

// subsampled checks that 2x2 luma blocks share a chroma sample.
func (d Descriptor) subsampled() bool {
	return d.Layout != PlanarYUV420 || (d.W&1 == 0 && d.H&1 == 0)
}

// SameSize tells if both descriptors have equal frame dimensions.
func (d Descriptor) SameSize(o Descriptor) bool { return d.W == o.W && d.H == o.H }

// Frame is a set of planes described by Desc.
// Seq is the generation of the last complete picture written into it.
type Frame struct {
	Desc   *Descriptor
	Planes []Plane
	Seq    uint64
}

// Buffers returns plane bytes in the fixed Y, U, V (or packed) order.
func (f *Frame) Buffers() [][]byte {
	out := make([][]byte, len(f.Planes))
	for i := range f.Planes {
		out[i] = f.Planes[i].Data
	}
	return out
}

// NewFrame allocates zeroed planes for the descriptor.
// Chroma planes are filled with the neutral value.
func NewFrame(d *Descriptor) (f *Frame, err error) {
	if d == nil || d.W <= 0 || d.H <= 0 || d.W > MaxSide || d.H > MaxSide {
		return nil, fmt.Errorf("%w: %v", ErrAllocation, d)
	}
	if d.Layout.Planes() == 0 || !d.subsampled() {
		return nil, fmt.Errorf("%w: %v", ErrBadFormat, d)
	}
	defer func() {
		if r := recover(); r != nil {
			f, err = nil, fmt.Errorf("%w: %v, %v", ErrAllocation, d, r)
		}
	}()

	pitches, lines := d.Pitches(), d.Lines()
	f = &Frame{Desc: d, Planes: make([]Plane, len(pitches))}
	for i := range pitches {
		f.Planes[i] = Plane{Data: make([]byte, pitches[i]*lines[i]), Stride: pitches[i], Lines: lines[i]}
	}
	if d.Layout == PlanarYUV420 {
		for _, p := range f.Planes[1:] {
			fill(p.Data, chromaMid)
		}
	}
	return f, nil
}

// Validate checks that the frame planes are big enough for its descriptor.
func (f *Frame) Validate() error {
	if f == nil || f.Desc == nil {
		return ErrBadFrame
	}
	if !f.Desc.subsampled() {
		return fmt.Errorf("%w: odd size %v", ErrBadFrame, f.Desc)
	}
	pitches, lines := f.Desc.Pitches(), f.Desc.Lines()
	if len(f.Planes) != len(pitches) {
		return fmt.Errorf("%w: %v planes, want %v", ErrBadFrame, len(f.Planes), len(pitches))
	}
	for i, p := range f.Planes {
		if p.Stride < pitches[i] || p.Lines < lines[i] || len(p.Data) < (lines[i]-1)*p.Stride+pitches[i] {
			return fmt.Errorf("%w: plane %v is %vb, stride %v, want %vx%v", ErrBadFrame, i, len(p.Data), p.Stride, pitches[i], lines[i])
		}
	}
	return nil
}

func fill(b []byte, v byte) {
	if len(b) == 0 {
		return
	}
	b[0] = v
	for i := 1; i < len(b); i <<= 1 {
		copy(b[i:], b[:i])
	}
}

// Even rounds x up to the nearest even number.
func Even(x int) int { return (x + 1) &^ 1 }
