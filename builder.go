package onboard

import (
	"errors"
	"net/http"

	"github.com/safirihq/onboard/backend"
	"github.com/safirihq/onboard/draft"
	"github.com/safirihq/onboard/risk"
	"github.com/safirihq/onboard/session"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine]. Configure it once, call Build, and discard
// it; a Builder is single-use.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	httpClient *http.Client
	auditSink  AuditSink

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the builder's configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the client backing the draft and session stores.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithHTTPClient overrides the backend transport. Nil keeps the default
// client with the configured request timeout.
func (b *Builder) WithHTTPClient(hc *http.Client) *Builder {
	b.httpClient = hc
	return b
}

// WithAuditSink sets the destination for audit events. Has no effect unless
// Audit.Enabled is set.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the submit-latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	quest, err := risk.ByVersion(cfg.Risk.QuestionnaireVersion)
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:   cfg,
		drafts:   draft.NewStore(b.redis, cfg.Draft.RedisPrefix, cfg.Draft.TTL),
		sessions: session.NewStore(b.redis, cfg.Session.RedisPrefix, cfg.Session.TTL),
		backend:  backend.NewClient(cfg.Backend.BaseURL, b.httpClient, cfg.Backend.RequestTimeout),
		quest:    quest,
	}

	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	b.built = true

	return engine, nil
}
