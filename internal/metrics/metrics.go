// Package metrics exposes Prometheus counters for the swap monitor.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the monitor's collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	SwapEvents       *prometheus.CounterVec
	PriceRecords     *prometheus.CounterVec
	ConversionErrors *prometheus.CounterVec
	DeliveryErrors   *prometheus.CounterVec
	SinkErrors       *prometheus.CounterVec
	WatcherOutcomes  *prometheus.CounterVec
	ActiveWatchers   prometheus.Gauge
	EmitLatency      prometheus.Histogram
}

// New creates the collectors under namespace.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "swapscope"
	}
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		SwapEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "swap_events_total",
			Help:      "Swap events received per pool",
		}, []string{"pool"}),
		PriceRecords: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_records_total",
			Help:      "Price records emitted per pool",
		}, []string{"pool"}),
		ConversionErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversion_errors_total",
			Help:      "Swap events skipped because the price could not be converted",
		}, []string{"pool"}),
		DeliveryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_errors_total",
			Help:      "Per-item stream errors per pool",
		}, []string{"pool"}),
		SinkErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_errors_total",
			Help:      "Records a sink failed to accept",
		}, []string{"pool"}),
		WatcherOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "watcher_outcomes_total",
			Help:      "Terminal watcher outcomes by status",
		}, []string{"status"}),
		ActiveWatchers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_watchers",
			Help:      "Pool watchers currently streaming",
		}),
		EmitLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "emit_latency_seconds",
			Help:      "Time spent converting and emitting one swap",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) SwapObserved(pool string) {
	if m != nil {
		m.SwapEvents.WithLabelValues(pool).Inc()
	}
}

func (m *Metrics) RecordEmitted(pool string, took time.Duration) {
	if m != nil {
		m.PriceRecords.WithLabelValues(pool).Inc()
		m.EmitLatency.Observe(took.Seconds())
	}
}

func (m *Metrics) ConversionFailed(pool string) {
	if m != nil {
		m.ConversionErrors.WithLabelValues(pool).Inc()
	}
}

func (m *Metrics) DeliveryFailed(pool string) {
	if m != nil {
		m.DeliveryErrors.WithLabelValues(pool).Inc()
	}
}

func (m *Metrics) SinkFailed(pool string) {
	if m != nil {
		m.SinkErrors.WithLabelValues(pool).Inc()
	}
}

func (m *Metrics) WatcherStarted() {
	if m != nil {
		m.ActiveWatchers.Inc()
	}
}

func (m *Metrics) WatcherFinished(status string) {
	if m != nil {
		m.ActiveWatchers.Dec()
		m.WatcherOutcomes.WithLabelValues(status).Inc()
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string, m *Metrics) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
