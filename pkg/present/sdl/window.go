package sdl

import (
	"fmt"
	"image"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/ldelaprade/VideoZoomGPU/pkg/thread"
)

type Config struct {
	Title        string
	W, H         int
	MiniW, MiniH int
	VSync        bool
}

// Window has the main view on the left and the overview on the right.
type Window struct {
	w *sdl.Window
	r *sdl.Renderer

	main, mini Pane
	mouse      image.Point
	dragging   bool
}

// Input gets the user actions of a window.
// Positions are in the main view pixels.
type Input interface {
	Wheel(x, y float64, in bool)
	Drag(dx, dy float64)
	Key(name string)
	Quit()
}

func NewWindow(cfg Config) (win *Window, err error) {
	thread.MainMaybe(func() {
		if err = sdl.Init(sdl.INIT_VIDEO); err != nil {
			err = fmt.Errorf("sdl: %w", err)
			return
		}
		var w *sdl.Window
		w, err = sdl.CreateWindow(cfg.Title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
			int32(cfg.W+cfg.MiniW), int32(max(cfg.H, cfg.MiniH)), sdl.WINDOW_SHOWN)
		if err != nil {
			sdl.Quit()
			err = fmt.Errorf("window: %w", err)
			return
		}
		flags := uint32(sdl.RENDERER_ACCELERATED)
		if cfg.VSync {
			flags |= uint32(sdl.RENDERER_PRESENTVSYNC)
		}
		var r *sdl.Renderer
		r, err = sdl.CreateRenderer(w, -1, flags)
		if err != nil {
			err1 := w.Destroy()
			sdl.Quit()
			err = fmt.Errorf("renderer: %w, destroy err: %w", err, err1)
			return
		}
		win = &Window{
			w:    w,
			r:    r,
			main: Pane{image.Rect(0, 0, cfg.W, cfg.H)},
			mini: Pane{image.Rect(cfg.W, 0, cfg.W+cfg.MiniW, cfg.MiniH)},
		}
	})
	return
}

func (w *Window) Renderer() *sdl.Renderer { return w.r }
func (w *Window) Main() Pane              { return w.main }
func (w *Window) Mini() Pane              { return w.mini }

func (w *Window) SetTitle(title string) { thread.MainMaybe(func() { w.w.SetTitle(title) }) }

// Poll hands all the pending events over to in.
func (w *Window) Poll(in Input) {
	thread.MainMaybe(func() {
		for e := sdl.PollEvent(); e != nil; e = sdl.PollEvent() {
			w.handle(e, in)
		}
	})
}

func (w *Window) handle(e sdl.Event, in Input) {
	switch ev := e.(type) {
	case *sdl.QuitEvent:
		in.Quit()
	case *sdl.MouseWheelEvent:
		if ev.Y != 0 && w.mouse.In(w.main.Rectangle) {
			in.Wheel(float64(w.mouse.X), float64(w.mouse.Y), ev.Y > 0)
		}
	case *sdl.MouseButtonEvent:
		if ev.Button != sdl.BUTTON_LEFT {
			return
		}
		w.mouse = image.Pt(int(ev.X), int(ev.Y))
		w.dragging = ev.State == sdl.PRESSED && w.mouse.In(w.main.Rectangle)
	case *sdl.MouseMotionEvent:
		w.mouse = image.Pt(int(ev.X), int(ev.Y))
		if w.dragging {
			in.Drag(float64(ev.XRel), float64(ev.YRel))
		}
	case *sdl.KeyboardEvent:
		if ev.State == sdl.PRESSED && ev.Repeat == 0 {
			in.Key(sdl.GetKeyName(ev.Keysym.Sym))
		}
	}
}

func (w *Window) Close() error {
	var err error
	thread.MainMaybe(func() {
		err1 := w.r.Destroy()
		err2 := w.w.Destroy()
		sdl.Quit()
		if err1 != nil {
			err = err1
		} else {
			err = err2
		}
	})
	return err
}
