package onboard

import (
	"errors"
	"strings"
	"time"
)

// Config defines engine-wide settings. Configure once before Build; the
// engine clones the config and treats it as immutable afterwards.
type Config struct {
	Draft   DraftConfig
	Session SessionConfig
	Backend BackendConfig
	Risk    RiskConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

// DraftConfig controls draft persistence.
type DraftConfig struct {
	RedisPrefix string
	// TTL bounds how long an abandoned draft survives a reload.
	TTL time.Duration
}

// SessionConfig controls session persistence.
type SessionConfig struct {
	RedisPrefix string
	// TTL is the fallback session lifetime when the token carries no expiry.
	TTL time.Duration
}

// BackendConfig locates the planning backend.
type BackendConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
}

// RiskConfig pins the questionnaire version. The answer-to-weight mapping is
// fixed per version and never varies at runtime.
type RiskConfig struct {
	QuestionnaireVersion string
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process metrics counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the baseline configuration. Callers override fields
// and pass the result to [Builder.WithConfig].
func DefaultConfig() Config {
	return Config{
		Draft: DraftConfig{
			RedisPrefix: "ob:draft",
			TTL:         30 * 24 * time.Hour,
		},
		Session: SessionConfig{
			RedisPrefix: "ob:session",
			TTL:         24 * time.Hour,
		},
		Backend: BackendConfig{
			RequestTimeout: 15 * time.Second,
		},
		Risk: RiskConfig{
			QuestionnaireVersion: "v1",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate reports the first configuration problem found.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Backend.BaseURL) == "" {
		return errors.New("Backend.BaseURL is required")
	}
	if c.Backend.RequestTimeout <= 0 {
		return errors.New("Backend.RequestTimeout must be positive")
	}
	if c.Draft.RedisPrefix == "" {
		return errors.New("Draft.RedisPrefix is required")
	}
	if c.Session.RedisPrefix == "" {
		return errors.New("Session.RedisPrefix is required")
	}
	if c.Draft.RedisPrefix == c.Session.RedisPrefix {
		return errors.New("draft and session key namespaces must differ")
	}
	if c.Draft.TTL <= 0 || c.Session.TTL <= 0 {
		return errors.New("store TTLs must be positive")
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit.BufferSize must be positive when audit is enabled")
	}
	return nil
}

func cloneConfig(c Config) Config {
	// All fields are value types; a shallow copy is a full copy.
	return c
}
