package viewport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapperToSource(t *testing.T) {
	s, _ := NewState(1920, 1080, DefaultLimits)
	m := Mapper{W: 960, H: 540, MiniW: 320, MiniH: 240}

	x, y := m.ToSource(s, 480, 270)
	assert.Equal(t, 960.0, x)
	assert.Equal(t, 540.0, y)

	s = s.WithZoomAt(2, 960, 540)
	x, y = m.ToSource(s, 0, 0)
	assert.Equal(t, 480.0, x)
	assert.Equal(t, 270.0, y)

	kx, ky := m.ScaleToSource(s)
	assert.Equal(t, 1.0, kx)
	assert.Equal(t, 1.0, ky)

	dx, dy := m.DragToPan(s, 10, -4)
	assert.Equal(t, -10.0, dx)
	assert.Equal(t, 4.0, dy)
}

func TestMapperEmptyView(t *testing.T) {
	s, _ := NewState(100, 100, DefaultLimits)
	m := Mapper{}
	kx, ky := m.ScaleToSource(s)
	assert.Equal(t, 100.0, kx)
	assert.Equal(t, 100.0, ky)
	assert.Equal(t, Rect{}, m.MiniRect(s))
	assert.Equal(t, Rect{}, Mapper{MiniW: 10, MiniH: 10}.MiniRect(State{}))
}

func TestMiniRect(t *testing.T) {
	tests := []struct {
		name  string
		state func(State) State
		mini  [2]int
		fit   Rect
		want  Rect
	}{
		{
			name:  "full frame letterbox",
			state: func(s State) State { return s },
			mini:  [2]int{320, 240},
			fit:   Rect{0, 30, 320, 180},
			want:  Rect{0, 30, 320, 180},
		},
		{
			name:  "zoom 2 at center",
			state: func(s State) State { return s.WithZoomAt(2, 960, 540) },
			mini:  [2]int{320, 240},
			fit:   Rect{0, 30, 320, 180},
			want:  Rect{80, 75, 160, 90},
		},
		{
			name:  "pillarbox at top left",
			state: func(s State) State { return s.WithZoomAt(4, 0, 0) },
			mini:  [2]int{400, 180},
			fit:   Rect{40, 0, 320, 180},
			want:  Rect{40, 0, 80, 45},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s, _ := NewState(1920, 1080, DefaultLimits)
			s = test.state(s)
			m := Mapper{MiniW: test.mini[0], MiniH: test.mini[1]}
			fit, _ := m.MiniFit(s)
			assert.Equal(t, test.fit, fit)
			assert.Equal(t, test.want, m.MiniRect(s))
		})
	}
}
