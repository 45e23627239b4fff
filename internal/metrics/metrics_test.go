package metrics

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveLine("sf", KindInfo)
	m.ObserveLine("sf", KindInfo)
	m.ObserveLine("sf", KindBound)
	m.RowEmitted()
	m.BarrierViolation("lc0")
	m.HandshakeTimeout("lc0", "readyok")
	m.EngineReaped("lc0")
	m.Dispatched("synchronized")
	m.SetReached("sf", 12)

	if got := testutil.ToFloat64(m.LinesTotal.WithLabelValues("sf", KindInfo)); got != 2 {
		t.Errorf("lines_total{info} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.RowsEmittedTotal); got != 1 {
		t.Errorf("rows_emitted_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.BarrierViolationsTotal.WithLabelValues("lc0")); got != 1 {
		t.Errorf("barrier_violations_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ReachedDepth.WithLabelValues("sf")); got != 12 {
		t.Errorf("reached_depth = %v, want 12", got)
	}

	m.ResetReached()
	if got := testutil.CollectAndCount(m.ReachedDepth); got != 0 {
		t.Errorf("reached_depth series after reset = %d, want 0", got)
	}

	count, err := testutil.GatherAndCount(reg, "consortium_handshake_timeouts_total")
	if err != nil {
		t.Fatalf("GatherAndCount: %v", err)
	}
	if count != 1 {
		t.Errorf("handshake_timeouts_total series = %d, want 1", count)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveLine("sf", KindInfo)
	m.RowEmitted()
	m.BarrierViolation("sf")
	m.HandshakeTimeout("sf", "uciok")
	m.HandshakeDone("sf", time.Millisecond)
	m.EngineReaped("sf")
	m.Dispatched("immediate")
	m.SetReached("sf", 1)
	m.ResetReached()
}

func TestServe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.RowEmitted()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, addr, reg) }()

	var body string
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get("http://" + addr + "/metrics")
		if err != nil {
			time.Sleep(20 * time.Millisecond)
			continue
		}
		b, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		body = string(b)
		break
	}
	if !strings.Contains(body, "consortium_rows_emitted_total 1") {
		t.Errorf("metrics body missing rows counter:\n%s", body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not stop after cancel")
	}
}
