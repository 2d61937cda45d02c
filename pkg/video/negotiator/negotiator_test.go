package negotiator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ldelaprade/VideoZoomGPU/pkg/logger"
	"github.com/ldelaprade/VideoZoomGPU/pkg/video"
	"github.com/ldelaprade/VideoZoomGPU/pkg/video/exchange"
)

type sizes struct{ got [][2]int }

func (s *sizes) OnDimensionsChanged(w, h int) { s.got = append(s.got, [2]int{w, h}) }

func newTest() (*Negotiator, *exchange.Exchange, *sizes) {
	ex := exchange.New(logger.Nop())
	l := &sizes{}
	return New(ex, l, logger.Nop()), ex, l
}

func TestFormatOverride(t *testing.T) {
	tests := []struct {
		tag    video.FourCC
		w, h   int
		want   video.FourCC
		ww, hh int
	}{
		{tag: video.RV32, w: 1920, h: 1080, want: video.RV32, ww: 1920, hh: 1080},
		{tag: video.BGRA, w: 640, h: 480, want: video.BGRA, ww: 640, hh: 480},
		{tag: video.BGRX, w: 3, h: 5, want: video.BGRX, ww: 4, hh: 6},
		{tag: video.I420, w: 1279, h: 719, want: video.RV32, ww: 1280, hh: 720},
		{tag: video.YV12, w: 2, h: 2, want: video.RV32, ww: 2, hh: 2},
		{tag: video.FourCC{'H', '2', '6', '4'}, w: 1, h: 1, want: video.RV32, ww: 2, hh: 2},
	}

	for _, test := range tests {
		t.Run(test.tag.String(), func(t *testing.T) {
			n, ex, _ := newTest()
			tag, w, h := test.tag, test.w, test.h
			pitches, lines, err := n.Format(&tag, &w, &h)
			require.NoError(t, err)
			assert.Equal(t, test.want, tag)
			assert.Equal(t, test.ww, w)
			assert.Equal(t, test.hh, h)
			assert.Equal(t, []int{test.ww * 4}, pitches)
			assert.Equal(t, []int{test.hh}, lines)

			planes, err := ex.Lock()
			require.NoError(t, err)
			require.Len(t, planes, 1)
			assert.Len(t, planes[0], test.ww*test.hh*4)
		})
	}
}

func TestConfirmPlanar(t *testing.T) {
	n, ex, l := newTest()
	tag, w, h := video.I420, 641, 361
	_, _, err := n.Format(&tag, &w, &h)
	require.NoError(t, err)

	pitches, lines, err := n.Confirm(video.I420)
	require.NoError(t, err)
	assert.Equal(t, []int{642, 321, 321}, pitches)
	assert.Equal(t, []int{362, 181, 181}, lines)
	assert.Equal(t, video.PlanarYUV420, n.Descriptor().Layout)
	assert.Equal(t, [][2]int{{642, 362}}, l.got, "layout change keeps the size")

	planes, err := ex.Lock()
	require.NoError(t, err)
	require.Len(t, planes, 3)
	assert.Len(t, planes[0], 642*362)
	for _, p := range planes[1:] {
		assert.Len(t, p, 321*181)
		for _, b := range p {
			if b != 128 {
				t.Fatalf("chroma is %v", b)
			}
		}
	}
	ex.Unlock()

	_, _, err = n.Confirm(video.I420)
	assert.NoError(t, err)
	_, _, err = n.Confirm(video.YV12)
	assert.ErrorIs(t, err, video.ErrBadFormat)
}

func TestConfirmBeforeFormat(t *testing.T) {
	n, _, _ := newTest()
	_, _, err := n.Confirm(video.RV32)
	assert.ErrorIs(t, err, video.ErrBadFormat)
}

func TestDimensionChanges(t *testing.T) {
	n, _, l := newTest()
	format := func(w, h int) {
		tag := video.RV32
		_, _, err := n.Format(&tag, &w, &h)
		require.NoError(t, err)
	}
	format(640, 480)
	format(640, 480)
	format(639, 479)
	format(1920, 1080)
	n.Cleanup()
	n.Cleanup()

	assert.Equal(t, [][2]int{{640, 480}, {1920, 1080}, {0, 0}}, l.got)
	assert.Nil(t, n.Descriptor())
}

func TestAllocationFailure(t *testing.T) {
	n, ex, l := newTest()
	tag, w, h := video.RV32, video.MaxSide+2, 2
	_, _, err := n.Format(&tag, &w, &h)
	assert.ErrorIs(t, err, video.ErrAllocation)
	assert.Empty(t, l.got)

	_, err = ex.Lock()
	assert.ErrorIs(t, err, exchange.ErrNoFormat)
}

type failing struct{}

func (failing) Reset(*video.Descriptor) error { return errors.New("boom") }
func (failing) Release()                      {}

func TestBuffersFail(t *testing.T) {
	n := New(failing{}, nil, logger.Nop())
	tag, w, h := video.RV32, 2, 2
	_, _, err := n.Format(&tag, &w, &h)
	assert.Error(t, err)
	assert.Nil(t, n.Descriptor())
}

func TestAcceptOption(t *testing.T) {
	ex := exchange.New(logger.Nop())
	n := New(ex, nil, logger.Nop(), Accept(video.BGRA), Accept(video.I420))
	tag, w, h := video.I420, 2, 2
	_, _, err := n.Format(&tag, &w, &h)
	require.NoError(t, err)
	assert.Equal(t, video.BGRA, tag)
}

func TestNilArguments(t *testing.T) {
	n, _, _ := newTest()
	w := 2
	_, _, err := n.Format(nil, &w, &w)
	assert.ErrorIs(t, err, video.ErrBadFormat)
}
