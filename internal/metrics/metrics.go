// Package metrics exposes Prometheus collectors for the bot.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const namespace = "pixel"

// Result labels
const (
	ResultSuccess   = "success"
	ResultFailure   = "failure"
	ResultCancelled = "cancelled"
	ResultTooLarge  = "too_large"
)

// Metrics holds the bot's collectors on their own registry
type Metrics struct {
	registry *prometheus.Registry

	Requests         *prometheus.CounterVec
	Downloads        *prometheus.CounterVec
	Uploads          *prometheus.CounterVec
	DownloadDuration *prometheus.HistogramVec
	ActiveDownloads  prometheus.Gauge
}

// New creates and registers all collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Chat updates by route.",
		}, []string{"route"}),
		Downloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downloads_total",
			Help:      "Finished downloads by format and result.",
		}, []string{"format", "result"}),
		Uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Telegram uploads by format and result.",
		}, []string{"format", "result"}),
		DownloadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "download_duration_seconds",
			Help:      "Time spent in yt-dlp per download.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}, []string{"format"}),
		ActiveDownloads: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_downloads",
			Help:      "Downloads currently running.",
		}),
	}

	m.registry.MustRegister(
		m.Requests,
		m.Downloads,
		m.Uploads,
		m.DownloadDuration,
		m.ActiveDownloads,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRequest counts one routed update
func (m *Metrics) ObserveRequest(route string) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(route).Inc()
}

// DownloadStarted bumps the active gauge and returns the func that records the outcome
func (m *Metrics) DownloadStarted(format string) func(result string) {
	if m == nil {
		return func(string) {}
	}
	start := time.Now()
	m.ActiveDownloads.Inc()
	return func(result string) {
		m.ActiveDownloads.Dec()
		m.Downloads.WithLabelValues(format, result).Inc()
		m.DownloadDuration.WithLabelValues(format).Observe(time.Since(start).Seconds())
	}
}

// ObserveUpload counts one upload attempt
func (m *Metrics) ObserveUpload(format, result string) {
	if m == nil {
		return
	}
	m.Uploads.WithLabelValues(format, result).Inc()
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("Metrics server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
