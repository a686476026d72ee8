package onboard

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, AuditEvent) {
	s.count.Add(1)
}

type gateSink struct {
	gate chan struct{}
}

func (s *gateSink) Emit(context.Context, AuditEvent) {
	<-s.gate
}

func buildAuditTestEngine(t *testing.T, cfg Config, sink AuditSink) *Engine {
	t.Helper()

	_, rdb := newTestRedis(t)
	cfg.Backend.BaseURL = newDevBackend(t).URL

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine
}

func TestAuditDisabledNoSinkCalls(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Audit.Enabled = false

	sink := &countingSink{}
	engine := buildAuditTestEngine(t, cfg, sink)

	if _, err := engine.StartWizard(context.Background(), UserIndividual); err != nil {
		t.Fatalf("StartWizard failed: %v", err)
	}
	time.Sleep(30 * time.Millisecond)

	if sink.count.Load() != 0 {
		t.Fatalf("expected no audit sink calls when disabled, got %d", sink.count.Load())
	}
}

func TestAuditEventsFlowThroughDispatcher(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Audit.Enabled = true

	sink := NewChannelSink(16)
	engine := buildAuditTestEngine(t, cfg, sink)

	ctx := context.Background()
	w, err := engine.StartWizard(ctx, UserIndividual)
	if err != nil {
		t.Fatalf("StartWizard failed: %v", err)
	}
	fillIndividual(t, w)
	if _, err := w.Submit(ctx); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	seen := map[string]bool{}
	deadline := time.After(2 * time.Second)
	for !(seen["wizard.started"] && seen["wizard.step_advanced"] && seen["registration.succeeded"]) {
		select {
		case ev := <-sink.Events():
			seen[ev.EventType] = true
			if ev.Timestamp.IsZero() {
				t.Fatal("expected stamped timestamp")
			}
		case <-deadline:
			t.Fatalf("missing audit events, saw %v", seen)
		}
	}
}

func TestAuditDropIfFull(t *testing.T) {
	gate := &gateSink{gate: make(chan struct{})}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, gate)

	ctx := context.Background()
	// First event occupies the worker, second fills the buffer, the rest drop.
	for i := 0; i < 5; i++ {
		d.Emit(ctx, AuditEvent{EventType: "x"})
	}

	deadline := time.After(time.Second)
	for d.Dropped() == 0 {
		select {
		case <-deadline:
			t.Fatalf("expected drops on full buffer, got %d", d.Dropped())
		case <-time.After(5 * time.Millisecond):
		}
	}

	close(gate.gate)
	d.Close()
}

func TestAuditCloseDrains(t *testing.T) {
	sink := &countingSink{}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 64, DropIfFull: false}, sink)

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		d.Emit(ctx, AuditEvent{EventType: "x"})
	}
	d.Close()

	if got := sink.count.Load(); got != 10 {
		t.Fatalf("expected all 10 events delivered before Close returned, got %d", got)
	}

	// Emit after Close is a no-op.
	d.Emit(ctx, AuditEvent{EventType: "late"})
	if got := sink.count.Load(); got != 10 {
		t.Fatalf("expected no delivery after Close, got %d", got)
	}
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: "wizard.started",
		DraftID:   "d1",
		Success:   true,
	})

	line := strings.TrimSpace(buf.String())
	var decoded AuditEvent
	if err := json.Unmarshal([]byte(line), &decoded); err != nil {
		t.Fatalf("sink output not JSON: %v (%q)", err, line)
	}
	if decoded.EventType != "wizard.started" || decoded.DraftID != "d1" || !decoded.Success {
		t.Fatalf("event fields lost: %+v", decoded)
	}
}

func TestNilDispatcherIsSafe(t *testing.T) {
	var d *auditDispatcher
	d.Emit(context.Background(), AuditEvent{})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher must report zero drops")
	}
}
