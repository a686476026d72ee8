package onboard

import (
	"context"
	"time"

	"github.com/safirihq/onboard/backend"
	"github.com/safirihq/onboard/draft"
	"github.com/safirihq/onboard/risk"
	"github.com/safirihq/onboard/session"
)

// Engine is the root handle for the onboarding core. Construct it with
// [Builder]; an Engine is immutable after Build and safe for concurrent use.
type Engine struct {
	config   Config
	drafts   *draft.Store
	sessions *session.Store
	backend  *backend.Client
	quest    risk.Questionnaire
	audit    *auditDispatcher
	metrics  *Metrics
}

// Close drains and stops the audit dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were dropped on a full buffer.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of all counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Questionnaire returns the configured questionnaire version, for callers
// that render question text.
func (e *Engine) Questionnaire() risk.Questionnaire {
	if e == nil {
		return risk.Questionnaire{}
	}
	return e.quest
}

// Ping verifies the draft store connection.
func (e *Engine) Ping(ctx context.Context) error {
	if e == nil || e.drafts == nil {
		return ErrEngineNotReady
	}
	return e.drafts.Ping(ctx)
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) metricObserve(id MetricID, d time.Duration) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Observe(id, d)
}

func (e *Engine) emitAudit(ctx context.Context, event AuditEvent) {
	if e == nil || e.audit == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	e.audit.Emit(ctx, event)
}

func auditError(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
