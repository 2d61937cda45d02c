package session

import (
	"errors"
	"time"

	"github.com/ldelaprade/VideoZoomGPU/pkg/os"
)

// seekStep is the media part skipped by the arrow keys.
const seekStep = 0.05

// Snapshotter is a surface that can save the shown frame.
type Snapshotter interface {
	Snapshot(path string) error
}

// Wheel zooms in or out keeping the point x, y of the main view in place.
func (s *Session) Wheel(x, y float64, in bool) {
	st := s.vp.Snapshot()
	if !st.Initialized() {
		return
	}
	m := s.views.Main.Bounds().Min
	x, y = x-float64(m.X), y-float64(m.Y)
	sx, sy := s.mapper.ToSource(st, x, y)
	factor := s.step
	if !in {
		factor = 1 / s.step
	}
	s.vp.ZoomAtPoint(factor, sx, sy)
}

// Drag pans by the mouse move in the main view pixels.
func (s *Session) Drag(dx, dy float64) {
	st := s.vp.Snapshot()
	if !st.Initialized() {
		return
	}
	px, py := s.mapper.DragToPan(st, dx, dy)
	s.vp.PanBy(px, py)
}

// Key handles the keyboard commands named as SDL does.
func (s *Session) Key(name string) {
	var err error
	switch name {
	case "Space":
		s.player.Pause()
	case "Right":
		err = s.player.Seek(min(s.player.Position()+seekStep, 1))
	case "Left":
		err = s.player.Seek(max(s.player.Position()-seekStep, 0))
	case "Home":
		err = s.player.Seek(0)
	case "0":
		s.ResetZoom()
	case "S":
		err = s.Snapshot()
	case "Q", "Escape":
		s.Quit()
	default:
		return
	}
	if err != nil {
		s.log.Warn().Err(err).Msgf("key %v", name)
	}
}

// ResetZoom shows the whole frame.
func (s *Session) ResetZoom() {
	st := s.vp.Snapshot()
	cx, cy := st.Center()
	s.vp.ZoomAtPoint(st.Limits().Min/st.Zoom(), cx, cy)
}

// Snapshot saves the shown frame into a PNG file if the surface can do it.
func (s *Session) Snapshot() error {
	sn, ok := s.surface.(Snapshotter)
	if !ok {
		return errors.New("the surface can't make snapshots")
	}
	if err := os.CheckCreateDir(s.snapshots); err != nil {
		return err
	}
	path := os.SnapshotPath(s.snapshots, s.File(), time.Now())
	if err := sn.Snapshot(path); err != nil {
		return err
	}
	s.log.Info().Msgf("snapshot %v", path)
	return nil
}

// Quit asks the render loop to stop.
func (s *Session) Quit() { s.quitOnce.Do(func() { close(s.quit) }) }
