package viewport

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hd(t *testing.T) *Viewport {
	t.Helper()
	v := New(DefaultLimits)
	require.NoError(t, v.Initialize(1920, 1080))
	return v
}

func TestInitialize(t *testing.T) {
	v := New(DefaultLimits)
	assert.ErrorIs(t, v.Initialize(0, 1080), ErrInvalidState)
	assert.ErrorIs(t, v.Initialize(1920, 0), ErrInvalidState)
	assert.Equal(t, Rect{}, v.CropRect(), "uninitialized viewport has no crop")

	require.NoError(t, v.Initialize(1920, 1080))
	s := v.Snapshot()
	cx, cy := s.Center()
	assert.Equal(t, 1.0, s.Zoom())
	assert.Equal(t, 960.0, cx)
	assert.Equal(t, 540.0, cy)
	assert.Equal(t, Rect{0, 0, 1920, 1080}, v.CropRect())

	v.ZoomAtPoint(2, 100, 100)
	zoomed := v.Snapshot()
	require.NoError(t, v.Initialize(1920, 1080))
	assert.Equal(t, zoomed, v.Snapshot(), "same size keeps the state")

	require.NoError(t, v.Initialize(1280, 720))
	assert.Equal(t, 1.0, v.Snapshot().Zoom(), "new size resets")
	assert.Equal(t, Rect{0, 0, 1280, 720}, v.CropRect())
}

func TestNoopBeforeInitialize(t *testing.T) {
	v := New(DefaultLimits)
	before := v.Snapshot()
	v.ZoomAtPoint(2, 10, 10)
	v.PanBy(100, 100)
	assert.Equal(t, before, v.Snapshot())
	assert.Equal(t, "Zoom: 100%", before.ZoomText())
}

func TestBadFactorsIgnored(t *testing.T) {
	v := hd(t)
	before := v.Snapshot()
	for _, f := range []float64{0, -2, math.NaN(), math.Inf(1), math.Inf(-1)} {
		v.ZoomAtPoint(f, 960, 540)
		assert.Equal(t, before, v.Snapshot(), "factor %v", f)
	}
	v.ZoomAtPoint(2, math.NaN(), 10)
	assert.Equal(t, before, v.Snapshot())
}

func TestZoomClamp(t *testing.T) {
	v := hd(t)
	v.ZoomAtPoint(1000, 960, 540)
	assert.Equal(t, 20.0, v.Snapshot().Zoom())
	v.ZoomAtPoint(0.0001, 960, 540)
	assert.Equal(t, 1.0, v.Snapshot().Zoom())

	custom := New(Limits{Min: 1, Max: 4})
	require.NoError(t, custom.Initialize(100, 100))
	custom.ZoomAtPoint(10, 50, 50)
	assert.Equal(t, 4.0, custom.Snapshot().Zoom())
}

func TestCropInside(t *testing.T) {
	sizes := [][2]int{{1920, 1080}, {7, 3}, {1, 1}, {641, 479}}
	points := [][2]float64{{0, 0}, {0.3, 0.7}, {0.5, 0.5}, {1, 1}, {1, 0}}

	for _, size := range sizes {
		v := New(DefaultLimits)
		require.NoError(t, v.Initialize(size[0], size[1]))
		w, h := float64(size[0]), float64(size[1])
		for z := 1.0; z <= 20; z *= 1.1 {
			for _, p := range points {
				s, _ := NewState(size[0], size[1], DefaultLimits)
				s = s.WithZoomAt(z, p[0]*w, p[1]*h)
				for _, pan := range []float64{-1e6, -13, 0, 17, 1e6} {
					s = s.WithPan(pan, -pan)
					r := s.Crop()
					assert.Positive(t, r.W)
					assert.Positive(t, r.H)
					assert.GreaterOrEqual(t, r.X, 0)
					assert.GreaterOrEqual(t, r.Y, 0)
					assert.LessOrEqual(t, r.X+r.W, size[0], "%v %v", s, r)
					assert.LessOrEqual(t, r.Y+r.H, size[1], "%v %v", s, r)

					n := s.Normalized()
					assert.True(t, n.X >= 0 && n.Y >= 0 && n.X+n.W <= 1+1e-9 && n.Y+n.H <= 1+1e-9, "%+v", n)
				}
			}
		}
	}
}

func TestZoomFactorOneIdempotent(t *testing.T) {
	states := []State{}
	s, _ := NewState(1920, 1080, DefaultLimits)
	states = append(states, s, s.WithZoomAt(3, 100, 900), s.WithZoomAt(5, 1900, 10).WithPan(1e5, -1e5))

	for _, s := range states {
		for _, p := range [][2]float64{{0, 0}, {960, 540}, {1920, 1080}, {123.4, 987.6}} {
			assert.Equal(t, s, s.WithZoomAt(1, p[0], p[1]))
		}
	}
}

func TestZoomKeepsAnchor(t *testing.T) {
	base, _ := NewState(1920, 1080, DefaultLimits)
	tests := []struct {
		name   string
		state  State
		factor float64
		px, py float64
	}{
		{name: "in at center", state: base, factor: 1.25, px: 960, py: 540},
		{name: "in at corner", state: base, factor: 2, px: 10, py: 10},
		{name: "in off center", state: base, factor: 1.25, px: 1500, py: 200},
		{name: "in twice", state: base.WithZoomAt(2, 400, 300), factor: 3, px: 500, py: 400},
		{name: "in at edge", state: base.WithPan(-1e4, -1e4).WithZoomAt(4, 0, 0), factor: 1.25, px: 100, py: 50},
		{name: "out inside", state: base.WithZoomAt(8, 960, 540), factor: 0.8, px: 950, py: 530},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			before := project(test.state, test.px, test.py)
			after := project(test.state.WithZoomAt(test.factor, test.px, test.py), test.px, test.py)

			// within a pixel of the new crop window
			r := test.state.WithZoomAt(test.factor, test.px, test.py).Crop()
			assert.InDelta(t, before[0], after[0], 1/float64(r.W))
			assert.InDelta(t, before[1], after[1], 1/float64(r.H))
		})
	}
}

// project returns the position of a source point in the view, in [0, 1].
func project(s State, px, py float64) [2]float64 {
	r := s.Crop()
	return [2]float64{(px - float64(r.X)) / float64(r.W), (py - float64(r.Y)) / float64(r.H)}
}

func TestZoomRoundTrip(t *testing.T) {
	v := hd(t)
	v.ZoomAtPoint(2, 960, 540)
	assert.Equal(t, 2.0, v.Snapshot().Zoom())
	v.ZoomAtPoint(0.5, 960, 540)
	s := v.Snapshot()
	cx, cy := s.Center()
	assert.InDelta(t, 1.0, s.Zoom(), 1e-12)
	assert.InDelta(t, 960, cx, 1e-9)
	assert.InDelta(t, 540, cy, 1e-9)
}

func TestZoomInAtCenter(t *testing.T) {
	v := hd(t)
	for i := 0; i < 10; i++ {
		v.ZoomAtPoint(1.25, 960, 540)
	}
	s := v.Snapshot()
	cx, cy := s.Center()
	assert.InDelta(t, math.Min(20, math.Pow(1.25, 10)), s.Zoom(), 1e-9)
	assert.InDelta(t, 9.31, s.Zoom(), 0.01)
	assert.InDelta(t, 960, cx, 1e-9)
	assert.InDelta(t, 540, cy, 1e-9)
	assert.Equal(t, "Zoom: 931%", s.ZoomText())

	r := s.Crop()
	assert.InDelta(t, 960, float64(r.X)+float64(r.W)/2, 1)
	assert.InDelta(t, 540, float64(r.Y)+float64(r.H)/2, 1)
}

func TestRepeatedZoomDoesNotDrift(t *testing.T) {
	v := hd(t)
	v.ZoomAtPoint(3, 700, 300)
	start := v.Snapshot()
	for i := 0; i < 50; i++ {
		v.ZoomAtPoint(1.25, 812, 333)
		v.ZoomAtPoint(1/1.25, 812, 333)
	}
	s := v.Snapshot()
	sx, sy := start.Center()
	cx, cy := s.Center()
	assert.InDelta(t, start.Zoom(), s.Zoom(), 1e-9)
	assert.InDelta(t, sx, cx, 1e-6)
	assert.InDelta(t, sy, cy, 1e-6)
}

func TestPanClamp(t *testing.T) {
	v := hd(t)
	v.ZoomAtPoint(4, 960, 540)

	v.PanBy(-5000, -5000)
	cx, cy := v.Snapshot().Center()
	assert.Equal(t, 0.0, cx)
	assert.Equal(t, 0.0, cy)
	assert.Equal(t, 0, v.CropRect().X)
	assert.Equal(t, 0, v.CropRect().Y)

	v.PanBy(1e9, 1e9)
	cx, cy = v.Snapshot().Center()
	assert.Equal(t, 1920.0, cx)
	assert.Equal(t, 1080.0, cy)
	r := v.CropRect()
	assert.Equal(t, 1920, r.X+r.W)
	assert.Equal(t, 1080, r.Y+r.H)

	v.PanBy(-10, 0)
	cx, _ = v.Snapshot().Center()
	assert.Equal(t, 1910.0, cx)
}

func TestNormalized(t *testing.T) {
	v := hd(t)
	assert.Equal(t, RectF{0, 0, 1, 1}, v.Snapshot().Normalized())

	v.ZoomAtPoint(2, 960, 540)
	n := v.Snapshot().Normalized()
	assert.InDelta(t, 0.25, n.X, 1e-9)
	assert.InDelta(t, 0.25, n.Y, 1e-9)
	assert.InDelta(t, 0.5, n.W, 1e-9)
	assert.InDelta(t, 0.5, n.H, 1e-9)
}

func TestSnapshotConsistent(t *testing.T) {
	v := hd(t)
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			// every published state has its center on the diagonal
			s := v.Snapshot()
			cx, cy := s.Center()
			if math.Abs(cx/1920-cy/1080) > 1e-9 {
				t.Errorf("torn state %v", s)
				return
			}
		}
	}()
	for i := 0; i < 1000; i++ {
		k := float64(i%100) / 100
		v.ZoomAtPoint(1.25, 1920*k, 1080*k)
		v.ZoomAtPoint(0.8, 1920*k, 1080*k)
	}
	close(done)
	wg.Wait()
}
