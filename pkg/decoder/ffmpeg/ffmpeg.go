// Package ffmpeg is a decoder of media files that runs an ffmpeg process
// and reads raw pictures from its output.
package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ldelaprade/VideoZoomGPU/pkg/decoder"
	"github.com/ldelaprade/VideoZoomGPU/pkg/logger"
	"github.com/ldelaprade/VideoZoomGPU/pkg/video"
)

var ErrNoTool = errors.New("ffmpeg: not found")

type Options struct {
	// FFmpeg and FFprobe are the binaries, looked up in PATH by default.
	FFmpeg  string
	FFprobe string
	// Tag is the format proposed to the viewer, I420 by default.
	Tag video.FourCC
	// IgnoreOverride keeps the proposed format whatever the viewer asks for.
	IgnoreOverride bool
	// Fps overrides the media frame rate when > 0.
	Fps float64
}

type Decoder struct {
	*decoder.Runner

	opts Options
	cb   decoder.Callbacks
	log  *logger.Logger

	mu   sync.Mutex
	path string
	info Info

	// playback time in seconds as float bits
	at   atomic.Uint64
	seek chan struct{}
}

func New(cb decoder.Callbacks, opts Options, log *logger.Logger) *Decoder {
	if opts.FFmpeg == "" {
		opts.FFmpeg = "ffmpeg"
	}
	if opts.FFprobe == "" {
		opts.FFprobe = "ffprobe"
	}
	if opts.Tag.Layout() == video.LayoutNone {
		opts.Tag = video.I420
	}
	return &Decoder{
		Runner: decoder.NewRunner(),
		opts:   opts,
		cb:     cb,
		log:    log.Extend(log.With().Str("m", "ffmpeg")),
		seek:   make(chan struct{}, 1),
	}
}

// Available checks that ffmpeg and ffprobe can be started.
func (d *Decoder) Available() error {
	for _, bin := range []string{d.opts.FFmpeg, d.opts.FFprobe} {
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("%w: %v", ErrNoTool, err)
		}
	}
	return nil
}

func (d *Decoder) Open(path string) error {
	d.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	info, err := Probe(ctx, d.opts.FFprobe, path)
	if err != nil {
		return err
	}
	if d.opts.Fps > 0 {
		info.Fps = d.opts.Fps
	}
	d.mu.Lock()
	d.path, d.info = path, info
	d.mu.Unlock()
	d.setTime(0)
	d.log.Info().Msgf("opened %v: %v", path, info)
	return nil
}

func (d *Decoder) media() (string, Info) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.path, d.info
}

func (d *Decoder) Play() error {
	if path, _ := d.media(); path == "" {
		return decoder.ErrNotOpen
	}
	d.Runner.Pause(false)
	d.Start(d.run)
	return nil
}

func (d *Decoder) Pause() { d.Runner.Pause(!d.Paused()) }

func (d *Decoder) Stop() {
	if !d.Running() {
		d.Runner.Stop()
		return
	}
	d.Runner.Stop()
	d.cb.Cleanup()
	d.setTime(0)
}

// Seek restarts the ffmpeg process at the new position.
func (d *Decoder) Seek(pos float64) error {
	if !decoder.ValidPosition(pos) {
		return decoder.ErrBadSeek
	}
	_, info := d.media()
	d.setTime(pos * info.Duration)
	select {
	case d.seek <- struct{}{}:
	default:
	}
	return nil
}

func (d *Decoder) Position() float64 {
	_, info := d.media()
	if info.Duration <= 0 {
		return 0
	}
	return min(d.time()/info.Duration, 1)
}

func (d *Decoder) Close() error {
	d.Stop()
	return nil
}

func (d *Decoder) time() float64     { return math.Float64frombits(d.at.Load()) }
func (d *Decoder) setTime(t float64) { d.at.Store(math.Float64bits(t)) }

func (d *Decoder) run(ctx context.Context) error {
	path, info := d.media()
	desc, err := d.negotiate(info)
	if err != nil {
		return err
	}
	d.log.Info().Msgf("playing %v as %v", path, desc)

	for {
		select {
		case <-d.seek:
		default:
		}
		err := d.segment(ctx, path, info, desc)
		switch {
		case errors.Is(err, errSeek):
			continue
		case errors.Is(err, io.EOF):
			d.log.Info().Msgf("end of %v", path)
			return nil
		default:
			return err
		}
	}
}

func (d *Decoder) negotiate(info Info) (video.Descriptor, error) {
	tag, w, h := d.opts.Tag, info.W, info.H
	if _, _, err := d.cb.Format(&tag, &w, &h); err != nil {
		return video.Descriptor{}, fmt.Errorf("format: %w", err)
	}
	if d.opts.IgnoreOverride && tag != d.opts.Tag {
		tag = d.opts.Tag
		if _, _, err := d.cb.Confirm(tag); err != nil {
			return video.Descriptor{}, fmt.Errorf("confirm: %w", err)
		}
	}
	return video.Descriptor{W: w, H: h, Layout: tag.Layout(), Tag: tag}, nil
}

var errSeek = errors.New("seek")

// segment plays from the current time until the end, a seek or cancellation.
func (d *Decoder) segment(ctx context.Context, path string, info Info, desc video.Descriptor) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	start := d.time()
	cmd := exec.CommandContext(ctx, d.opts.FFmpeg, Args(path, start, desc)...)
	out, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start: %w", err)
	}
	defer func() {
		cancel()
		_ = cmd.Wait()
	}()

	// a picture is read whole before it's written into the viewer buffers
	scratch := make([][]byte, 0, desc.Layout.Planes())
	pitches, lines := desc.Pitches(), desc.Lines()
	for i := range pitches {
		scratch = append(scratch, make([]byte, pitches[i]*lines[i]))
	}
	r := bufio.NewReaderSize(out, pitches[0]*lines[0])

	fps := info.Fps
	if fps <= 0 {
		fps = 25
	}
	tick := time.NewTicker(time.Duration(float64(time.Second) / fps))
	defer tick.Stop()

	var n int64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.seek:
			return errSeek
		case <-tick.C:
			if d.Paused() {
				continue
			}
			if err := readPicture(r, scratch); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
					return io.EOF
				}
				return fmt.Errorf("ffmpeg read: %w", err)
			}
			if err := d.publish(scratch); err != nil {
				return err
			}
			n++
			d.setTime(start + float64(n)/fps)
		}
	}
}

func readPicture(r io.Reader, planes [][]byte) error {
	for _, p := range planes {
		if _, err := io.ReadFull(r, p); err != nil {
			return err
		}
	}
	return nil
}

func (d *Decoder) publish(scratch [][]byte) error {
	planes, err := d.cb.Lock()
	if err != nil {
		return fmt.Errorf("lock: %w", err)
	}
	for i := range planes {
		if i < len(scratch) {
			copy(planes[i], scratch[i])
		}
	}
	d.cb.Unlock()
	d.cb.Display()
	return nil
}

// Args builds the ffmpeg command line that writes raw pictures of desc
// to the standard output starting from the time in seconds.
func Args(path string, start float64, desc video.Descriptor) []string {
	args := []string{"-nostdin", "-loglevel", "error"}
	if start > 0 {
		args = append(args, "-ss", strconv.FormatFloat(start, 'f', 3, 64))
	}
	return append(args,
		"-i", path,
		"-an", "-sn",
		"-vf", fmt.Sprintf("scale=%d:%d", desc.W, desc.H),
		"-f", "rawvideo",
		"-pix_fmt", PixFmt(desc.Layout),
		"-",
	)
}

// PixFmt is the ffmpeg name of a layout.
func PixFmt(l video.Layout) string {
	if l == video.Packed32 {
		return "bgr0"
	}
	return "yuv420p"
}
