package present

import (
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ldelaprade/VideoZoomGPU/pkg/logger"
	"github.com/ldelaprade/VideoZoomGPU/pkg/viewport"
)

type fakeSurface struct {
	w, h      int
	resizes   []image.Point
	uploads   int
	binds     []View
	flushes   int
	resizeErr error
	released  bool
}

func (f *fakeSurface) Resize(w, h int) error {
	f.resizes = append(f.resizes, image.Pt(w, h))
	if f.resizeErr != nil {
		return f.resizeErr
	}
	f.w, f.h = w, h
	return nil
}
func (f *fakeSurface) Ready() bool                     { return f.w > 0 && f.h > 0 }
func (f *fakeSurface) Upload(_ []byte, _, _ int) error { f.uploads++; return nil }
func (f *fakeSurface) Bind(_ Target, v View) error     { f.binds = append(f.binds, v); return nil }
func (f *fakeSurface) Flush() error                    { f.flushes++; return nil }
func (f *fakeSurface) Release()                        { f.released = true; f.w, f.h = 0, 0 }

type pane image.Rectangle

func (p pane) Bounds() image.Rectangle { return image.Rectangle(p) }

func TestPresentNotReady(t *testing.T) {
	s := &fakeSurface{}
	p := New(s, logger.Nop())

	assert.NoError(t, p.Present(make([]byte, 16), 2, 2))
	assert.NoError(t, p.RenderToTarget(pane{}, View{}))
	assert.Zero(t, s.uploads)
	assert.Empty(t, s.binds)
}

func TestDimensionsAppliedOnRenderLoop(t *testing.T) {
	s := &fakeSurface{}
	p := New(s, logger.Nop())

	p.OnDimensionsChanged(4, 2)
	p.OnDimensionsChanged(8, 6)
	assert.Empty(t, s.resizes, "nothing happens until the next tick")

	require.NoError(t, p.Present(make([]byte, 8*6*4), 8, 6))
	assert.Equal(t, []image.Point{{8, 6}}, s.resizes, "only the last size counts")
	assert.Equal(t, 1, s.uploads)

	w, h := p.Size()
	assert.Equal(t, 8, w)
	assert.Equal(t, 6, h)

	p.OnDimensionsChanged(8, 6)
	require.NoError(t, p.Present(make([]byte, 8*6*4), 8, 6))
	assert.Len(t, s.resizes, 1, "same size is not reallocated")

	p.OnDimensionsChanged(0, 0)
	require.NoError(t, p.RenderToTarget(pane{}, View{}))
	assert.False(t, p.Ready())
}

func TestPresentMismatch(t *testing.T) {
	s := &fakeSurface{}
	p := New(s, logger.Nop())
	p.OnDimensionsChanged(4, 4)

	assert.ErrorIs(t, p.Present(make([]byte, 64), 2, 8), ErrMismatch)
	assert.ErrorIs(t, p.Present(make([]byte, 10), 4, 4), ErrMismatch)
	assert.Zero(t, s.uploads)
}

func TestResizeError(t *testing.T) {
	s := &fakeSurface{resizeErr: errors.New("no memory")}
	p := New(s, logger.Nop())
	p.OnDimensionsChanged(4, 4)
	assert.Error(t, p.Present(nil, 4, 4))
	w, h := p.Size()
	assert.Zero(t, w+h)
}

func TestRenderTwoViews(t *testing.T) {
	s := &fakeSurface{}
	p := New(s, logger.Nop())
	p.OnDimensionsChanged(1920, 1080)
	require.NoError(t, p.Present(make([]byte, 1920*1080*4), 1920, 1080))

	st, _ := viewport.NewState(1920, 1080, viewport.DefaultLimits)
	st = st.WithZoomAt(2, 960, 540)
	main := View{Src: Rect(st.Crop())}
	mini := View{Src: image.Rect(0, 0, 1920, 1080), Indicator: image.Rect(1, 2, 3, 4), Label: st.ZoomText()}

	require.NoError(t, p.RenderToTarget(pane(image.Rect(0, 0, 960, 540)), main))
	require.NoError(t, p.RenderToTarget(pane(image.Rect(0, 0, 320, 180)), mini))
	require.NoError(t, p.Flush())

	require.Len(t, s.binds, 2)
	assert.Equal(t, image.Rect(480, 270, 1440, 810), s.binds[0].Src)
	assert.Equal(t, "Zoom: 200%", s.binds[1].Label)
	assert.Equal(t, 1, s.uploads, "one upload for both views")
	assert.Equal(t, 1, s.flushes)

	p.Close()
	assert.True(t, s.released)
}
