package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

type ViewerConfig struct {
	Viewer  Viewer
	Video   Video
	Zoom    Zoom
	Decoder Decoder
	Window  Window
}

type Viewer struct {
	Debug      bool
	NoColor    bool
	Monitoring Monitoring
	// Source is the decoder: ffmpeg or testsrc.
	Source string `default:"testsrc"`
	// Surface is the display: sdl or soft.
	Surface string `default:"sdl"`
	File    string
	// Snapshots is a dir for PNG snapshots of the soft surface.
	Snapshots string `default:"."`
}

type Monitoring struct {
	Port             int
	URLPrefix        string
	MetricEnabled    bool
	ProfilingEnabled bool
}

func (c *Monitoring) IsEnabled() bool { return c.MetricEnabled || c.ProfilingEnabled }

type Video struct {
	Threaded bool
	Threads  int
	// Fps is the render loop rate.
	Fps   int    `default:"60"`
	Scale string `default:"nearest"`
}

type Zoom struct {
	Step float64 `default:"1.25"`
	Min  float64 `default:"1"`
	Max  float64 `default:"20"`
}

type Decoder struct {
	Ffmpeg  string `default:"ffmpeg"`
	Ffprobe string `default:"ffprobe"`
	// Format is the ffmpeg output: bgra or yuv420p.
	Format         string `default:"bgra"`
	IgnoreOverride bool
	Test           struct {
		W   int `default:"1280"`
		H   int `default:"720"`
		Fps int `default:"30"`
	}
}

type Window struct {
	Width      int `default:"1280"`
	Height     int `default:"720"`
	MiniWidth  int `default:"320"`
	MiniHeight int `default:"180"`
	VSync      bool
}

// allows custom config path
var viewerConfigPath string

func NewViewerConfig(path string) (conf ViewerConfig, err error) {
	if path == "" {
		path = viewerConfigPath
	}
	if err = LoadConfig(&conf, path); err != nil {
		return conf, err
	}
	return conf, conf.Validate()
}

// WithFlags sets the flags with the config values as defaults.
// Don't forget to call Parse on fs.
func (c *ViewerConfig) WithFlags(fs *pflag.FlagSet) {
	fs.BoolVarP(&c.Viewer.Debug, "debug", "d", c.Viewer.Debug, "Debug logs")
	fs.StringVarP(&c.Viewer.File, "file", "f", c.Viewer.File, "Video file to open")
	fs.StringVar(&c.Viewer.Source, "source", c.Viewer.Source, "Frame source: [ffmpeg, testsrc]")
	fs.StringVar(&c.Viewer.Surface, "surface", c.Viewer.Surface, "Display surface: [sdl, soft]")
	fs.IntVar(&c.Video.Fps, "fps", c.Video.Fps, "Render rate")
	fs.BoolVar(&c.Video.Threaded, "threaded", c.Video.Threaded, "Convert frames with multiple goroutines")
	fs.IntVar(&c.Viewer.Monitoring.Port, "monitoring.port", c.Viewer.Monitoring.Port, "Monitoring server port")
	fs.BoolVar(&c.Decoder.IgnoreOverride, "ignore-override", c.Decoder.IgnoreOverride, "Keep the decoder's own pixel format")
}

func (c *ViewerConfig) Validate() error {
	switch c.Viewer.Source {
	case "ffmpeg", "testsrc":
	default:
		return fmt.Errorf("unknown source: %v", c.Viewer.Source)
	}
	switch c.Viewer.Surface {
	case "sdl", "soft":
	default:
		return fmt.Errorf("unknown surface: %v", c.Viewer.Surface)
	}
	switch c.Decoder.Format {
	case "bgra", "yuv420p":
	default:
		return fmt.Errorf("unknown decoder format: %v", c.Decoder.Format)
	}
	if c.Video.Fps <= 0 {
		return fmt.Errorf("bad fps: %v", c.Video.Fps)
	}
	if c.Zoom.Step <= 1 {
		return fmt.Errorf("zoom step should be > 1: %v", c.Zoom.Step)
	}
	if c.Zoom.Min < 1 || c.Zoom.Max < c.Zoom.Min {
		return fmt.Errorf("bad zoom range: [%v, %v]", c.Zoom.Min, c.Zoom.Max)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("bad window size: %vx%v", c.Window.Width, c.Window.Height)
	}
	return nil
}
