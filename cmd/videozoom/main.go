package main

import (
	"context"
	"fmt"
	"image"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	flag "github.com/spf13/pflag"

	"github.com/ldelaprade/VideoZoomGPU/pkg/config"
	"github.com/ldelaprade/VideoZoomGPU/pkg/logger"
	"github.com/ldelaprade/VideoZoomGPU/pkg/monitoring"
	"github.com/ldelaprade/VideoZoomGPU/pkg/os"
	"github.com/ldelaprade/VideoZoomGPU/pkg/present"
	window "github.com/ldelaprade/VideoZoomGPU/pkg/present/sdl"
	"github.com/ldelaprade/VideoZoomGPU/pkg/present/soft"
	"github.com/ldelaprade/VideoZoomGPU/pkg/service"
	"github.com/ldelaprade/VideoZoomGPU/pkg/session"
	"github.com/ldelaprade/VideoZoomGPU/pkg/thread"
)

var Version = "?"

func run() {
	conf, err := config.NewViewerConfig("")
	if err != nil {
		logger.Default().Fatal().Err(err).Msg("config")
	}
	conf.WithFlags(flag.CommandLine)
	flag.Parse()
	if flag.NArg() > 0 {
		conf.Viewer.File = flag.Arg(0)
	}

	log := logger.NewConsole(conf.Viewer.Debug, "v", conf.Viewer.NoColor)
	if err := conf.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	log.Info().Msgf("version %s", Version)
	if log.GetLevel() < logger.InfoLevel {
		log.Debug().Msgf("config: %+v", conf)
	}

	surface, views, onTick, closeWindow, err := display(conf, log)
	if err != nil {
		log.Fatal().Err(err).Msg("display")
	}
	defer closeWindow()

	sess := session.New(conf, surface, views,
		session.NewSource(conf.Decoder, conf.Viewer.Source, log), log, session.OnTick(onTick))

	var services service.Group
	if conf.Viewer.Monitoring.IsEnabled() {
		metrics := prometheus.Gatherers{prometheus.DefaultGatherer, sess.Metrics().Gatherer()}
		mon, err := monitoring.New(conf.Viewer.Monitoring, metrics, log)
		if err != nil {
			log.Error().Err(err).Msg("no monitoring")
		} else {
			services.Add(mon)
		}
	}
	services.Start()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-os.ExpectTermination()
		cancel()
	}()

	file := conf.Viewer.File
	if file == "" && conf.Viewer.Source == "testsrc" {
		file = "bars"
	}
	if file != "" {
		if err := sess.Open(file); err != nil {
			log.Error().Err(err).Msg("open")
		}
	}

	if err := sess.Run(ctx); err != nil {
		log.Error().Err(err).Msg("playback")
	}
	cancel()
	if err := sess.Close(); err != nil {
		log.Error().Err(err).Msg("session close")
	}
	if err := services.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Msg("service shutdown errors")
	}
}

// display makes the surface and the views for the configured output.
func display(conf config.ViewerConfig, log *logger.Logger) (
	present.Surface, session.Views, func(*session.Session), func(), error,
) {
	w := conf.Window
	if conf.Viewer.Surface == "soft" {
		canvas := soft.Canvas(w.Width+w.MiniWidth, max(w.Height, w.MiniHeight))
		views := session.Views{
			Main: canvas.SubImage(image.Rect(0, 0, w.Width, w.Height)).(*image.RGBA),
			Mini: canvas.SubImage(image.Rect(w.Width, 0, w.Width+w.MiniWidth, w.MiniHeight)).(*image.RGBA),
		}
		log.Info().Msg("no window, press Ctrl+C to stop")
		return soft.New(soft.Scale(conf.Video.Scale)), views, func(*session.Session) {}, func() {}, nil
	}

	win, err := window.NewWindow(window.Config{
		Title: "VideoZoom",
		W:     w.Width,
		H:     w.Height,
		MiniW: w.MiniWidth,
		MiniH: w.MiniHeight,
		VSync: w.VSync,
	})
	if err != nil {
		return nil, session.Views{}, nil, nil, err
	}
	title := ""
	onTick := func(s *session.Session) {
		win.Poll(s)
		t := s.Viewport().Snapshot().ZoomText()
		if f := s.File(); f != "" {
			t = fmt.Sprintf("%v - %v", filepath.Base(f), t)
		}
		if t != title {
			title = t
			win.SetTitle(title)
		}
	}
	closeWindow := func() {
		if err := win.Close(); err != nil {
			log.Error().Err(err).Msg("window close")
		}
	}
	views := session.Views{Main: win.Main(), Mini: win.Mini()}
	return window.NewSurface(win.Renderer()), views, onTick, closeWindow, nil
}

func main() {
	thread.MainWrapMaybe(run)
}
