// Package testsrc is a decoder of synthetic pictures.
// It needs no media files and is used for tests and demos.
package testsrc

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ldelaprade/VideoZoomGPU/pkg/decoder"
	"github.com/ldelaprade/VideoZoomGPU/pkg/logger"
	"github.com/ldelaprade/VideoZoomGPU/pkg/video"
)

// Pattern draws the picture n into the planes of the layout.
type Pattern func(planes [][]byte, d video.Descriptor, n int64)

type Options struct {
	W, H int
	Fps  int
	// Frames is the media length, the picture number wraps around.
	Frames int64
	// Tag is the format proposed to the viewer.
	Tag video.FourCC
	// IgnoreOverride makes the source keep its own format
	// whatever the viewer asks for.
	IgnoreOverride bool
	Pattern        Pattern
}

type Source struct {
	*decoder.Runner

	opts Options
	cb   decoder.Callbacks
	path string
	pos  atomic.Int64
	log  *logger.Logger
}

func New(cb decoder.Callbacks, opts Options, log *logger.Logger) *Source {
	if opts.Fps <= 0 {
		opts.Fps = 30
	}
	if opts.Frames <= 0 {
		opts.Frames = int64(opts.Fps) * 60
	}
	if opts.Tag == (video.FourCC{}) {
		opts.Tag = video.I420
	}
	if opts.Pattern == nil {
		opts.Pattern = Bars
	}
	return &Source{
		Runner: decoder.NewRunner(),
		opts:   opts,
		cb:     cb,
		log:    log.Extend(log.With().Str("m", "testsrc")),
	}
}

// Open takes any name, there is nothing to read.
func (s *Source) Open(path string) error {
	s.Stop()
	s.path = path
	s.pos.Store(0)
	return nil
}

func (s *Source) Play() error {
	if s.path == "" {
		return decoder.ErrNotOpen
	}
	s.Runner.Pause(false)
	s.Start(s.run)
	return nil
}

func (s *Source) Pause() { s.Runner.Pause(!s.Paused()) }

func (s *Source) Stop() {
	if !s.Running() {
		s.Runner.Stop()
		return
	}
	s.Runner.Stop()
	s.cb.Cleanup()
	s.pos.Store(0)
}

func (s *Source) Seek(pos float64) error {
	if !decoder.ValidPosition(pos) {
		return decoder.ErrBadSeek
	}
	s.pos.Store(int64(pos * float64(s.opts.Frames-1)))
	return nil
}

func (s *Source) Position() float64 {
	if s.opts.Frames <= 1 {
		return 0
	}
	return float64(s.pos.Load()) / float64(s.opts.Frames-1)
}

func (s *Source) Close() error {
	s.Stop()
	return nil
}

func (s *Source) run(ctx context.Context) error {
	d, err := s.negotiate()
	if err != nil {
		return err
	}
	s.log.Info().Msgf("playing %v as %v", s.path, d)

	tick := time.NewTicker(time.Second / time.Duration(s.opts.Fps))
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
			if s.Paused() {
				continue
			}
			if err := s.frame(d); err != nil {
				return err
			}
		}
	}
}

func (s *Source) negotiate() (video.Descriptor, error) {
	tag, w, h := s.opts.Tag, s.opts.W, s.opts.H
	if _, _, err := s.cb.Format(&tag, &w, &h); err != nil {
		return video.Descriptor{}, fmt.Errorf("format: %w", err)
	}
	if s.opts.IgnoreOverride && tag != s.opts.Tag {
		tag = s.opts.Tag
		if _, _, err := s.cb.Confirm(tag); err != nil {
			return video.Descriptor{}, fmt.Errorf("confirm: %w", err)
		}
	}
	return video.Descriptor{W: w, H: h, Layout: tag.Layout(), Tag: tag}, nil
}

func (s *Source) frame(d video.Descriptor) error {
	planes, err := s.cb.Lock()
	if err != nil {
		return fmt.Errorf("lock: %w", err)
	}
	n := s.pos.Load()
	s.opts.Pattern(planes, d, n+1)
	s.cb.Unlock()
	s.cb.Display()
	s.pos.CompareAndSwap(n, (n+1)%s.opts.Frames)
	return nil
}
