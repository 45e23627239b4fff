// Package metrics exposes Prometheus collectors for the engine pipeline.
//
// All methods are safe on a nil *Metrics, so components can be built without
// instrumentation in tests.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "consortium"

// Line kinds used as the "kind" label of LinesTotal.
const (
	KindInfo     = "info"
	KindBound    = "bound"
	KindCurrMove = "currmove"
	KindOther    = "other"
)

// Metrics holds the collectors. Create it with New.
type Metrics struct {
	// LinesTotal counts lines read from engines.
	// Labels: engine, kind (info, bound, currmove, other)
	LinesTotal *prometheus.CounterVec

	// RowsEmittedTotal counts synchronized row blocks written.
	RowsEmittedTotal prometheus.Counter

	// BarrierViolationsTotal counts rows aborted for a missing report.
	// Labels: engine
	BarrierViolationsTotal *prometheus.CounterVec

	// HandshakeTimeoutsTotal counts handshake steps that timed out.
	// Labels: engine, step (uciok, readyok)
	HandshakeTimeoutsTotal *prometheus.CounterVec

	// HandshakeSeconds measures full handshake duration.
	// Labels: engine
	HandshakeSeconds *prometheus.HistogramVec

	// EnginesReapedTotal counts exited engines removed before a dispatch.
	// Labels: engine
	EnginesReapedTotal *prometheus.CounterVec

	// DispatchesTotal counts dispatched commands.
	// Labels: mode (immediate, synchronized)
	DispatchesTotal *prometheus.CounterVec

	// ReachedDepth is each engine's reached depth in the current epoch.
	// Labels: engine
	ReachedDepth *prometheus.GaugeVec
}

// New creates the collectors and registers them on reg. A nil reg leaves
// them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LinesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_total",
			Help:      "Lines read from engine stdout by kind",
		}, []string{"engine", "kind"}),
		RowsEmittedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_emitted_total",
			Help:      "Depth-synchronized row blocks written",
		}),
		BarrierViolationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "barrier_violations_total",
			Help:      "Rows aborted because an active engine had no report at the target depth",
		}, []string{"engine"}),
		HandshakeTimeoutsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handshake_timeouts_total",
			Help:      "Handshake steps that did not complete in time",
		}, []string{"engine", "step"}),
		HandshakeSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "handshake_duration_seconds",
			Help:      "Time to complete the startup handshake",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
		}, []string{"engine"}),
		EnginesReapedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engines_reaped_total",
			Help:      "Exited engines removed from the active set",
		}, []string{"engine"}),
		DispatchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatches_total",
			Help:      "Commands broadcast to engines by output mode",
		}, []string{"mode"}),
		ReachedDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reached_depth",
			Help:      "Deepest qualifying report per engine in the current epoch",
		}, []string{"engine"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.LinesTotal,
			m.RowsEmittedTotal,
			m.BarrierViolationsTotal,
			m.HandshakeTimeoutsTotal,
			m.HandshakeSeconds,
			m.EnginesReapedTotal,
			m.DispatchesTotal,
			m.ReachedDepth,
		)
	}
	return m
}

// ObserveLine counts one engine line.
func (m *Metrics) ObserveLine(engine, kind string) {
	if m == nil {
		return
	}
	m.LinesTotal.WithLabelValues(engine, kind).Inc()
}

// RowEmitted counts one synchronized row block.
func (m *Metrics) RowEmitted() {
	if m == nil {
		return
	}
	m.RowsEmittedTotal.Inc()
}

// BarrierViolation counts one aborted row.
func (m *Metrics) BarrierViolation(engine string) {
	if m == nil {
		return
	}
	m.BarrierViolationsTotal.WithLabelValues(engine).Inc()
}

// HandshakeTimeout counts one timed-out handshake step.
func (m *Metrics) HandshakeTimeout(engine, step string) {
	if m == nil {
		return
	}
	m.HandshakeTimeoutsTotal.WithLabelValues(engine, step).Inc()
}

// HandshakeDone records how long a handshake took.
func (m *Metrics) HandshakeDone(engine string, d time.Duration) {
	if m == nil {
		return
	}
	m.HandshakeSeconds.WithLabelValues(engine).Observe(d.Seconds())
}

// EngineReaped counts one engine removed after exiting.
func (m *Metrics) EngineReaped(engine string) {
	if m == nil {
		return
	}
	m.EnginesReapedTotal.WithLabelValues(engine).Inc()
}

// Dispatched counts one broadcast command.
func (m *Metrics) Dispatched(mode string) {
	if m == nil {
		return
	}
	m.DispatchesTotal.WithLabelValues(mode).Inc()
}

// SetReached records an engine's reached depth.
func (m *Metrics) SetReached(engine string, depth int) {
	if m == nil {
		return
	}
	m.ReachedDepth.WithLabelValues(engine).Set(float64(depth))
}

// ResetReached clears every reached-depth gauge.
func (m *Metrics) ResetReached() {
	if m == nil {
		return
	}
	m.ReachedDepth.Reset()
}

// Serve exposes gatherer on addr at /metrics until ctx is done.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
