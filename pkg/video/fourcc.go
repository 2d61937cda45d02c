package video

import "fmt"

// FourCC is a four character pixel format tag used by decoders.
type FourCC [4]byte

var (
	RV32 = FourCC{'R', 'V', '3', '2'}
	BGRA = FourCC{'B', 'G', 'R', 'A'}
	BGRX = FourCC{'B', 'G', 'R', 'X'}
	I420 = FourCC{'I', '4', '2', '0'}
	IYUV = FourCC{'I', 'Y', 'U', 'V'}
	YV12 = FourCC{'Y', 'V', '1', '2'}
)

// ParseFourCC makes a tag from a 4 byte string.
func ParseFourCC(s string) (FourCC, error) {
	var f FourCC
	if len(s) != 4 {
		return f, fmt.Errorf("fourcc must be 4 characters: %q", s)
	}
	copy(f[:], s)
	return f, nil
}

func (f FourCC) String() string { return string(f[:]) }

// Layout returns the memory layout for the frames with the tag.
// YV12 stores V before U, so it's not treated as a known planar format.
func (f FourCC) Layout() Layout {
	switch f {
	case RV32, BGRA, BGRX:
		return Packed32
	case I420, IYUV:
		return PlanarYUV420
	}
	return LayoutNone
}

// IsPacked tells if the tag is a packed 32-bit format.
func (f FourCC) IsPacked() bool { return f.Layout() == Packed32 }
