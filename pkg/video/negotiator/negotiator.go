// Package negotiator answers decoder format requests and allocates
// the frame buffers for the agreed layout.
package negotiator

import (
	"fmt"
	"sync"

	"github.com/ldelaprade/VideoZoomGPU/pkg/logger"
	"github.com/ldelaprade/VideoZoomGPU/pkg/video"
)

// Buffers is where negotiated frames go.
type Buffers interface {
	Reset(desc *video.Descriptor) error
	Release()
}

// Listener is told when the frame size changes.
// Zero dimensions mean that there are no frames anymore.
type Listener interface {
	OnDimensionsChanged(w, h int)
}

type Negotiator struct {
	mu     sync.Mutex
	buf    Buffers
	listen Listener
	accept video.FourCC
	desc   *video.Descriptor
	log    *logger.Logger
}

type Option func(*Negotiator)

// Accept sets the packed tag sent back to the decoder in place of
// the formats that can't be displayed as is. RV32 by default.
func Accept(tag video.FourCC) Option {
	return func(n *Negotiator) {
		if tag.IsPacked() {
			n.accept = tag
		}
	}
}

func New(buf Buffers, listen Listener, log *logger.Logger, opts ...Option) *Negotiator {
	n := &Negotiator{
		buf:    buf,
		listen: listen,
		accept: video.RV32,
		log:    log.Extend(log.With().Str("m", "format")),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Format is called by the decoder with its proposed format.
// Anything but a packed 32-bit tag is overwritten with the accepted one,
// both dimensions are rounded up to even.
// It returns row sizes and row counts of each plane.
// An error means the buffers could not be made and the playback can't go on.
func (n *Negotiator) Format(tag *video.FourCC, w, h *int) (pitches, lines []int, err error) {
	if tag == nil || w == nil || h == nil {
		return nil, nil, fmt.Errorf("format: %w", video.ErrBadFormat)
	}
	proposed := *tag
	if !proposed.IsPacked() {
		*tag = n.accept
	}
	*w, *h = video.Even(*w), video.Even(*h)
	n.log.Info().Msgf("decoder proposes %v, accepted %v %vx%v", proposed, *tag, *w, *h)

	d, err := n.install(&video.Descriptor{W: *w, H: *h, Layout: tag.Layout(), Tag: *tag})
	if err != nil {
		return nil, nil, err
	}
	return d.Pitches(), d.Lines(), nil
}

// Confirm tells the layout the decoder is really going to deliver.
// Decoders that ignore the override call it with their own tag
// and the buffers are made again for that layout.
func (n *Negotiator) Confirm(tag video.FourCC) (pitches, lines []int, err error) {
	if tag.Layout() == video.LayoutNone {
		return nil, nil, fmt.Errorf("confirm %v: %w", tag, video.ErrBadFormat)
	}
	n.mu.Lock()
	cur := n.desc
	n.mu.Unlock()
	if cur == nil {
		return nil, nil, fmt.Errorf("confirm %v before format: %w", tag, video.ErrBadFormat)
	}
	if cur.Tag == tag {
		return cur.Pitches(), cur.Lines(), nil
	}
	n.log.Warn().Msgf("decoder ignored %v, delivers %v", cur.Tag, tag)
	d, err := n.install(&video.Descriptor{W: cur.W, H: cur.H, Layout: tag.Layout(), Tag: tag})
	if err != nil {
		return nil, nil, err
	}
	return d.Pitches(), d.Lines(), nil
}

// Cleanup is the decoder's "format is gone" callback.
func (n *Negotiator) Cleanup() {
	n.mu.Lock()
	had := n.desc != nil
	n.desc = nil
	n.mu.Unlock()

	n.buf.Release()
	if had && n.listen != nil {
		n.listen.OnDimensionsChanged(0, 0)
	}
	n.log.Debug().Msg("cleanup")
}

// Descriptor returns the current format or nil.
func (n *Negotiator) Descriptor() *video.Descriptor {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.desc
}

func (n *Negotiator) install(d *video.Descriptor) (*video.Descriptor, error) {
	if err := n.buf.Reset(d); err != nil {
		n.log.Error().Err(err).Msgf("no buffers for %v", d)
		return nil, fmt.Errorf("format %v: %w", d, err)
	}
	n.mu.Lock()
	prev := n.desc
	n.desc = d
	n.mu.Unlock()

	if n.listen != nil && (prev == nil || !prev.SameSize(*d)) {
		n.listen.OnDimensionsChanged(d.W, d.H)
	}
	return d, nil
}
