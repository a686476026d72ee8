//go:build integration
// +build integration

package test

import (
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/safirihq/onboard"
	"github.com/safirihq/onboard/devbackend"
)

// newIntegrationEngine builds an engine against the Redis named by REDIS_ADDR
// and an in-memory dev backend. Each call gets its own key namespaces so
// parallel tests cannot collide.
func newIntegrationEngine(t *testing.T) *onboard.Engine {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping integration test")
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	srv := httptest.NewServer(devbackend.New("integration-secret").Router())
	t.Cleanup(srv.Close)

	ns := fmt.Sprintf("it:%d", time.Now().UnixNano())

	cfg := onboard.DefaultConfig()
	cfg.Backend.BaseURL = srv.URL
	cfg.Draft.RedisPrefix = ns + ":draft"
	cfg.Session.RedisPrefix = ns + ":session"

	engine, err := onboard.New().
		WithConfig(cfg).
		WithRedis(rdb).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	t.Cleanup(func() {
		_ = engine.Teardown(context.Background())
	})

	return engine
}
