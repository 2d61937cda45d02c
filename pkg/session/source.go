package session

import (
	"github.com/ldelaprade/VideoZoomGPU/pkg/config"
	"github.com/ldelaprade/VideoZoomGPU/pkg/decoder"
	"github.com/ldelaprade/VideoZoomGPU/pkg/decoder/ffmpeg"
	"github.com/ldelaprade/VideoZoomGPU/pkg/decoder/testsrc"
	"github.com/ldelaprade/VideoZoomGPU/pkg/logger"
	"github.com/ldelaprade/VideoZoomGPU/pkg/video"
	"github.com/ldelaprade/VideoZoomGPU/pkg/video/exchange"
	"github.com/ldelaprade/VideoZoomGPU/pkg/video/negotiator"
)

// Source makes a decoder that talks to the given callbacks.
type Source func(cb decoder.Callbacks) decoder.Player

// NewSource picks the configured decoder.
func NewSource(conf config.Decoder, name string, log *logger.Logger) Source {
	tag := video.BGRA
	if conf.Format == "yuv420p" {
		tag = video.I420
	}
	switch name {
	case "ffmpeg":
		return func(cb decoder.Callbacks) decoder.Player {
			return ffmpeg.New(cb, ffmpeg.Options{
				FFmpeg:         conf.Ffmpeg,
				FFprobe:        conf.Ffprobe,
				Tag:            tag,
				IgnoreOverride: conf.IgnoreOverride,
			}, log)
		}
	default:
		return func(cb decoder.Callbacks) decoder.Player {
			return testsrc.New(cb, testsrc.Options{
				W:              conf.Test.W,
				H:              conf.Test.H,
				Fps:            conf.Test.Fps,
				Tag:            tag,
				IgnoreOverride: conf.IgnoreOverride,
			}, log)
		}
	}
}

// callbacks joins the format part and the buffer part of the decoder contract.
type callbacks struct {
	*negotiator.Negotiator
	ex *exchange.Exchange
}

func (c callbacks) Lock() ([][]byte, error) { return c.ex.Lock() }
func (c callbacks) Unlock()                 { c.ex.Unlock() }
func (c callbacks) Display()                { c.ex.Display() }
