package monitoring

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ldelaprade/VideoZoomGPU/pkg/config"
	"github.com/ldelaprade/VideoZoomGPU/pkg/logger"
)

type Monitoring struct {
	conf   config.Monitoring
	server *http.Server
	ln     net.Listener
	log    *logger.Logger
}

// New creates new monitoring service.
// Metrics are taken from the given gatherer.
func New(conf config.Monitoring, metrics prometheus.Gatherer, log *logger.Logger) (*Monitoring, error) {
	log = log.Extend(log.With().Str("m", "monitoring"))

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", conf.Port))
	if err != nil {
		return nil, fmt.Errorf("monitoring: %w", err)
	}
	addr := ln.Addr().String()

	h := http.NewServeMux()
	if conf.ProfilingEnabled {
		prefix := fmt.Sprintf("%s/debug/pprof", conf.URLPrefix)
		log.Info().Msgf("Profiling is enabled at %v", addr+prefix)
		h.HandleFunc(prefix+"/", pprof.Index)
		h.HandleFunc(prefix+"/cmdline", pprof.Cmdline)
		h.HandleFunc(prefix+"/profile", pprof.Profile)
		h.HandleFunc(prefix+"/symbol", pprof.Symbol)
		h.HandleFunc(prefix+"/trace", pprof.Trace)
		// custom pprof paths need explicit handlers
		for _, p := range []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"} {
			h.Handle(prefix+"/"+p, pprof.Handler(p))
		}
	}
	if conf.MetricEnabled {
		metricPath := fmt.Sprintf("%s/metrics", conf.URLPrefix)
		log.Info().Msgf("Prometheus metric is enabled at %v", addr+metricPath)
		h.Handle(metricPath, promhttp.HandlerFor(metrics, promhttp.HandlerOpts{}))
	}

	return &Monitoring{
		conf:   conf,
		server: &http.Server{Handler: h, ReadHeaderTimeout: 10 * time.Second},
		ln:     ln,
		log:    log,
	}, nil
}

// Addr returns the listen address, useful with the zero port.
func (m *Monitoring) Addr() string { return m.ln.Addr().String() }

func (m *Monitoring) Run() {
	m.log.Info().Msgf("Starting monitoring server at %v", m.Addr())
	go func() {
		if err := m.server.Serve(m.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.log.Error().Err(err).Msg("monitoring server")
		}
	}()
}

func (m *Monitoring) Shutdown(ctx context.Context) error {
	m.log.Info().Msg("Shutting down monitoring server")
	return m.server.Shutdown(ctx)
}

func (m *Monitoring) String() string {
	return fmt.Sprintf("monitoring::%s:%d", m.conf.URLPrefix, m.conf.Port)
}
