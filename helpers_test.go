package onboard

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"github.com/safirihq/onboard/devbackend"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return mr, rdb
}

// newDevBackend runs the in-memory backend behind an httptest server.
func newDevBackend(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(devbackend.New("test-secret").Router())
	t.Cleanup(srv.Close)
	return srv
}

// newTestEngine builds an engine over miniredis pointed at the given backend
// base URL.
func newTestEngine(t *testing.T, baseURL string) *Engine {
	t.Helper()

	_, rdb := newTestRedis(t)

	cfg := DefaultConfig()
	cfg.Backend.BaseURL = baseURL

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine
}

// testToken issues a signed token with a one-hour expiry, shaped like what
// the backend returns.
func testToken(t *testing.T) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub": "amina@example.com",
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func validPersonal() PersonalDetailsInput {
	return PersonalDetailsInput{
		FirstName:  "Amina",
		LastName:   "Otieno",
		Email:      "amina@example.com",
		Password:   "correct-horse",
		DOB:        "1990-04-12",
		NationalID: "12345678",
		KRAPin:     "A123456789Z",
	}
}

func validCashFlow() CashFlowInput {
	return CashFlowInput{
		AnnualIncome:     1200000,
		EmploymentStatus: "employed",
		Dependents:       2,
		Goals: []GoalInput{
			{Name: "Emergency fund", TargetAmount: 300000, TimeHorizonYears: 2},
		},
	}
}

// fillIndividual advances a fresh individual wizard through every data step.
func fillIndividual(t *testing.T, w *Wizard) {
	t.Helper()

	inputs := []StepInput{
		validPersonal(),
		QuestionnaireInput{Answers: []int{3, 3, 3, 1, 1}},
		DataConnectionInput{Mode: ConnectionManual},
		validCashFlow(),
	}
	for _, input := range inputs {
		if err := w.Advance(context.Background(), input); err != nil {
			t.Fatalf("Advance(%s) failed: %v", input.Step(), err)
		}
	}
}
