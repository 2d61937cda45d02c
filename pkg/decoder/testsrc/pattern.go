package testsrc

import "github.com/ldelaprade/VideoZoomGPU/pkg/video"

// limited range YUV of white, yellow, cyan, green, magenta, red, blue, black
var bars = [8][3]byte{
	{235, 128, 128}, {210, 16, 146}, {170, 166, 16}, {145, 54, 34},
	{106, 202, 222}, {81, 90, 240}, {41, 240, 110}, {16, 128, 128},
}

// Bars draws color bars scrolling one pixel per picture
// with a moving white line to see the motion.
func Bars(planes [][]byte, d video.Descriptor, n int64) {
	if d.W <= 0 || d.H <= 0 {
		return
	}
	shift := int(n % int64(d.W))
	bar := func(x int) [3]byte { return bars[((x+shift)%d.W)*len(bars)/d.W] }
	line := int(n % int64(d.H))

	switch d.Layout {
	case video.PlanarYUV420:
		yp, up, vp := planes[0], planes[1], planes[2]
		cw := d.W >> 1
		for y := 0; y < d.H; y++ {
			row := yp[y*d.W : (y+1)*d.W]
			for x := range row {
				row[x] = bar(x)[0]
			}
			if y == line {
				for x := range row {
					row[x] = 235
				}
			}
		}
		for y := 0; y < d.H>>1; y++ {
			for x := 0; x < cw; x++ {
				c := bar(x << 1)
				up[y*cw+x], vp[y*cw+x] = c[1], c[2]
			}
		}
	case video.Packed32:
		p := planes[0]
		for y := 0; y < d.H; y++ {
			row := p[y*d.W<<2 : (y+1)*d.W<<2]
			for x := 0; x < d.W; x++ {
				b, g, r := bgr(bar(x))
				if y == line {
					b, g, r = 255, 255, 255
				}
				row[x<<2], row[x<<2+1], row[x<<2+2], row[x<<2+3] = b, g, r, 0
			}
		}
	}
}

// Stamp fills every byte of every plane with the picture number,
// a reader can check that a picture is whole.
func Stamp(planes [][]byte, _ video.Descriptor, n int64) {
	v := byte(n)
	for _, p := range planes {
		for i := range p {
			p[i] = v
		}
	}
}

func bgr(c [3]byte) (b, g, r byte) {
	yy, d, e := int32(c[0])-16, int32(c[1])-128, int32(c[2])-128
	return sat((298*yy + 516*d + 128) >> 8), sat((298*yy - 100*d - 208*e + 128) >> 8), sat((298*yy + 409*e + 128) >> 8)
}

func sat(v int32) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}
