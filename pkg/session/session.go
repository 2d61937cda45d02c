// Package session runs one viewer: a decoder writing frames on its goroutine
// and the render loop showing them zoomed with an overview.
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/gofrs/uuid"

	"github.com/ldelaprade/VideoZoomGPU/pkg/config"
	"github.com/ldelaprade/VideoZoomGPU/pkg/decoder"
	"github.com/ldelaprade/VideoZoomGPU/pkg/logger"
	"github.com/ldelaprade/VideoZoomGPU/pkg/present"
	"github.com/ldelaprade/VideoZoomGPU/pkg/video"
	"github.com/ldelaprade/VideoZoomGPU/pkg/video/exchange"
	"github.com/ldelaprade/VideoZoomGPU/pkg/video/negotiator"
	"github.com/ldelaprade/VideoZoomGPU/pkg/video/yuv"
	"github.com/ldelaprade/VideoZoomGPU/pkg/viewport"
)

// Views are the render targets: the zoomed view and the overview.
type Views struct {
	Main, Mini present.Target
}

type Session struct {
	id string

	ex     *exchange.Exchange
	neg    *negotiator.Negotiator
	conv   *yuv.Converter
	pres   *present.Presenter
	vp     *viewport.Viewport
	player decoder.Player

	surface present.Surface
	views   Views
	mapper  viewport.Mapper

	step      float64
	fps       int
	snapshots string
	onTick    func(*Session)

	mu   sync.Mutex
	file string

	quit     chan struct{}
	quitOnce sync.Once
	closed   bool

	metrics *Metrics
	log     *logger.Logger
	drops   *logger.Logger
}

type Option func(*Session)

// OnTick sets a function called on the render loop after each frame,
// i.e. to poll window events.
func OnTick(fn func(*Session)) Option { return func(s *Session) { s.onTick = fn } }

func New(conf config.ViewerConfig, surface present.Surface, views Views, src Source, log *logger.Logger, opts ...Option) *Session {
	id := uuid.Must(uuid.NewV4()).String()
	log = log.Extend(log.With().Str("session", id[:8]))

	s := &Session{
		id:        id,
		surface:   surface,
		views:     views,
		step:      conf.Zoom.Step,
		fps:       conf.Video.Fps,
		snapshots: conf.Viewer.Snapshots,
		quit:      make(chan struct{}),
		log:       log,
		drops:     log.Sample(5, time.Second),
	}
	s.ex = exchange.New(log)
	s.neg = negotiator.New(s.ex, s, log)
	s.conv = yuv.NewConverter(yuv.WithOptions(yuv.Options{Threaded: conf.Video.Threaded, Threads: conf.Video.Threads}))
	s.pres = present.New(surface, log)
	s.vp = viewport.New(viewport.Limits{Min: conf.Zoom.Min, Max: conf.Zoom.Max})
	s.player = src(callbacks{Negotiator: s.neg, ex: s.ex})
	s.metrics = newMetrics(id, s.ex)

	main, mini := views.Main.Bounds(), views.Mini.Bounds()
	s.mapper = viewport.Mapper{W: main.Dx(), H: main.Dy(), MiniW: mini.Dx(), MiniH: mini.Dy()}

	if s.step <= 1 {
		s.step = 1.25
	}
	if s.fps <= 0 {
		s.fps = 60
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) ID() string                   { return s.id }
func (s *Session) Viewport() *viewport.Viewport { return s.vp }
func (s *Session) Player() decoder.Player       { return s.player }
func (s *Session) Metrics() *Metrics            { return s.metrics }
func (s *Session) Exchange() *exchange.Exchange { return s.ex }

// File returns the path of the opened media.
func (s *Session) File() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file
}

// Open starts playing a media file.
func (s *Session) Open(path string) error {
	if err := s.player.Open(path); err != nil {
		return fmt.Errorf("open %v: %w", path, err)
	}
	s.mu.Lock()
	s.file = path
	s.mu.Unlock()
	if err := s.player.Play(); err != nil {
		return fmt.Errorf("play %v: %w", path, err)
	}
	s.log.Info().Msgf("playing %v", path)
	return nil
}

// OnDimensionsChanged gets new frame sizes from the negotiator.
// Zero dimensions mean the media is gone.
func (s *Session) OnDimensionsChanged(w, h int) {
	s.pres.OnDimensionsChanged(w, h)
	if w == 0 || h == 0 {
		s.vp.Reset()
		return
	}
	if err := s.vp.Initialize(w, h); err != nil {
		s.log.Error().Err(err).Msgf("viewport %vx%v", w, h)
	}
}

// Tick shows the newest frame if there is one and draws both views.
func (s *Session) Tick() error {
	if f, ok := s.ex.ConsumeLatestFrame(); ok {
		if err := s.show(f); err != nil {
			if !errors.Is(err, present.ErrMismatch) && !errors.Is(err, video.ErrBadFrame) {
				return err
			}
			s.metrics.bad.Inc()
			s.drops.Debug().Err(err).Msgf("dropped frame %v", f.Seq)
		}
	}
	return s.render()
}

func (s *Session) show(f *video.Frame) error {
	start := time.Now()
	buf, err := s.conv.Convert(f)
	if err != nil {
		return err
	}
	s.metrics.convert.Observe(time.Since(start).Seconds())
	return s.pres.Present(buf, f.Desc.W, f.Desc.H)
}

func (s *Session) render() error {
	st := s.vp.Snapshot()
	s.metrics.zoom.Set(st.Zoom())
	if st.Initialized() {
		w, h := st.Source()
		fit, _ := s.mapper.MiniFit(st)
		main := present.View{Src: present.Rect(st.Crop())}
		mini := present.View{
			Src:       image.Rect(0, 0, w, h),
			Dst:       present.Rect(fit),
			Indicator: present.Rect(s.mapper.MiniRect(st)),
			Label:     st.ZoomText(),
		}
		if err := s.pres.RenderToTarget(s.views.Main, main); err != nil {
			return fmt.Errorf("main view: %w", err)
		}
		if err := s.pres.RenderToTarget(s.views.Mini, mini); err != nil {
			return fmt.Errorf("overview: %w", err)
		}
	}
	return s.pres.Flush()
}

// Run ticks the render loop until the context is done, the viewer quits
// or the decoder fails.
func (s *Session) Run(ctx context.Context) error {
	t := time.NewTicker(time.Second / time.Duration(s.fps))
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.quit:
			return nil
		case err := <-s.player.Err():
			return fmt.Errorf("decoder: %w", err)
		case <-t.C:
			if err := s.Tick(); err != nil {
				return err
			}
			if s.onTick != nil {
				s.onTick(s)
			}
		}
	}
}

// Done is closed when the viewer asks to quit.
func (s *Session) Done() <-chan struct{} { return s.quit }

// Close stops the decoder, waits for its last frame and frees the buffers.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.Quit()
	err := s.player.Close()
	ctx, cancel := context.WithTimeout(context.Background(), exchange.DefaultTeardownWait)
	defer cancel()
	err = errors.Join(err, s.ex.Close(ctx))
	s.pres.Close()
	s.log.Debug().Msg("closed")
	return err
}
