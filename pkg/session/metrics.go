package session

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ldelaprade/VideoZoomGPU/pkg/video/exchange"
)

const namespace = "videozoom"

// Metrics of a viewer session, on their own registry.
type Metrics struct {
	reg *prometheus.Registry

	bad     prometheus.Counter
	convert prometheus.Histogram
	zoom    prometheus.Gauge
}

func newMetrics(id string, ex *exchange.Exchange) *Metrics {
	labels := prometheus.Labels{"session": id}
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		bad: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "frames_bad_total",
			Help:        "Frames dropped by the render loop.",
			ConstLabels: labels,
		}),
		convert: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "convert_seconds",
			Help:        "Time to convert a frame into BGRX.",
			Buckets:     prometheus.ExponentialBuckets(0.0005, 2, 10),
			ConstLabels: labels,
		}),
		zoom: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "zoom_factor",
			Help:        "Current zoom.",
			ConstLabels: labels,
		}),
	}
	counter := func(name, help string, v func(exchange.Stats) uint64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		}, func() float64 { return float64(v(ex.Stats())) })
	}
	m.reg.MustRegister(
		m.bad, m.convert, m.zoom,
		counter("frames_published_total", "Frames written by the decoder.",
			func(s exchange.Stats) uint64 { return s.Published }),
		counter("frames_consumed_total", "Frames taken by the render loop.",
			func(s exchange.Stats) uint64 { return s.Consumed }),
		counter("frames_dropped_total", "Frames replaced before the render loop took them.",
			func(s exchange.Stats) uint64 { return s.Dropped }),
	)
	return m
}

func (m *Metrics) Gatherer() prometheus.Gatherer { return m.reg }
