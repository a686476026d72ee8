package onboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/safirihq/onboard/backend"
)

func TestSubmitRegistersAndEstablishesSession(t *testing.T) {
	engine := newTestEngine(t, newDevBackend(t).URL)
	ctx := context.Background()

	w, err := engine.StartWizard(ctx, UserIndividual)
	if err != nil {
		t.Fatalf("StartWizard failed: %v", err)
	}
	fillIndividual(t, w)

	sess, err := w.Submit(ctx)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if sess.Token == "" {
		t.Fatal("expected session token")
	}
	if !sess.ProfileComplete {
		t.Fatal("registration establishes a complete profile")
	}

	if w.CurrentStep() != StepComplete {
		t.Fatalf("expected wizard complete, got %s", w.CurrentStep())
	}

	// Draft destroyed: nothing is resumable afterwards.
	if _, err := engine.ResumeWizard(ctx); !errors.Is(err, ErrDraftNotFound) {
		t.Fatalf("expected no resumable draft after registration, got %v", err)
	}

	// The issued token actually works against the backend.
	me, err := engine.Me(ctx)
	if err != nil {
		t.Fatalf("Me failed: %v", err)
	}
	if me.Email != "amina@example.com" {
		t.Fatalf("unexpected profile: %+v", me)
	}
	if me.Profile == nil || me.Profile.RiskScore != 50 || me.Profile.RiskLevel != "Medium" {
		t.Fatalf("expected server-side score 50 Medium, got %+v", me.Profile)
	}

	route, err := engine.RouteAfterAuth(ctx)
	if err != nil {
		t.Fatalf("RouteAfterAuth failed: %v", err)
	}
	if route != RouteDashboard {
		t.Fatalf("expected dashboard route, got %s", route)
	}

	snap := engine.MetricsSnapshot()
	if snap.Counters[MetricRegistrationSuccess] != 1 {
		t.Fatalf("expected 1 registration success, got %d", snap.Counters[MetricRegistrationSuccess])
	}
}

func TestSubmitAdvisorFlow(t *testing.T) {
	engine := newTestEngine(t, newDevBackend(t).URL)
	ctx := context.Background()

	w, err := engine.StartWizard(ctx, UserAdvisor)
	if err != nil {
		t.Fatalf("StartWizard failed: %v", err)
	}
	if err := w.Advance(ctx, ProfessionalDetailsInput{
		FirmName:      "Safiri Wealth",
		LicenseNumber: "CMA-1234",
	}); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	fillIndividual(t, w)

	sess, err := w.Submit(ctx)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if sess.UserType != UserAdvisor {
		t.Fatalf("expected advisor session, got %s", sess.UserType)
	}

	me, err := engine.Me(ctx)
	if err != nil {
		t.Fatalf("Me failed: %v", err)
	}
	if me.Role != "advisor" {
		t.Fatalf("expected advisor role registered, got %q", me.Role)
	}
}

func TestSubmitRequiresAllSteps(t *testing.T) {
	engine := newTestEngine(t, newDevBackend(t).URL)
	ctx := context.Background()

	w, _ := engine.StartWizard(ctx, UserIndividual)
	if err := w.Advance(ctx, validPersonal()); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}

	if _, err := w.Submit(ctx); !errors.Is(err, ErrStepIncomplete) {
		t.Fatalf("expected ErrStepIncomplete, got %v", err)
	}
}

func TestSubmitRejectionLeavesDraftIntact(t *testing.T) {
	srv := newDevBackend(t)
	engine := newTestEngine(t, srv.URL)
	ctx := context.Background()

	// First registration takes the email.
	w1, _ := engine.StartWizard(ctx, UserIndividual)
	fillIndividual(t, w1)
	if _, err := w1.Submit(ctx); err != nil {
		t.Fatalf("first Submit failed: %v", err)
	}

	// Second registration with the same email is rejected atomically.
	w2, _ := engine.StartWizard(ctx, UserIndividual)
	fillIndividual(t, w2)

	_, err := w2.Submit(ctx)
	if !errors.Is(err, ErrRegistrationRejected) {
		t.Fatalf("expected ErrRegistrationRejected, got %v", err)
	}
	var apiErr *backend.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusConflict {
		t.Fatalf("expected conflict APIError in chain, got %v", err)
	}

	// Draft and position are untouched; the user can edit and retry.
	if w2.Completed() {
		t.Fatal("rejected submit must not complete the wizard")
	}
	if w2.Draft().Personal == nil {
		t.Fatal("rejected submit must not destroy the draft")
	}
	if !w2.ReadyToSubmit() {
		t.Fatal("wizard must remain submittable after rejection")
	}
}

func TestSubmitBackendDownIsRetryable(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	dead.Close()

	engine := newTestEngine(t, dead.URL)
	ctx := context.Background()

	w, _ := engine.StartWizard(ctx, UserIndividual)
	fillIndividual(t, w)

	if _, err := w.Submit(ctx); !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
	if w.Completed() {
		t.Fatal("failed submit must not complete the wizard")
	}
	if !w.ReadyToSubmit() {
		t.Fatal("wizard must remain submittable after transport failure")
	}
}

func TestDuplicateSubmitSuppressedLocally(t *testing.T) {
	var requests atomic.Int64
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		<-release
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": testToken(t)})
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	engine := newTestEngine(t, srv.URL)
	ctx := context.Background()

	w, _ := engine.StartWizard(ctx, UserIndividual)
	fillIndividual(t, w)

	first := make(chan error, 1)
	go func() {
		_, err := w.Submit(ctx)
		first <- err
	}()

	// Wait until the first request is actually in flight.
	deadline := time.After(2 * time.Second)
	for requests.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("first submit never reached the backend")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if _, err := w.Submit(ctx); !errors.Is(err, ErrSubmissionInFlight) {
		t.Fatalf("expected ErrSubmissionInFlight, got %v", err)
	}

	release <- struct{}{}
	if err := <-first; err != nil {
		t.Fatalf("first Submit failed: %v", err)
	}

	if got := requests.Load(); got != 1 {
		t.Fatalf("duplicate submit must not reach the network, saw %d requests", got)
	}
	snap := engine.MetricsSnapshot()
	if snap.Counters[MetricDuplicateSubmitSuppressed] != 1 {
		t.Fatalf("expected 1 suppressed duplicate, got %d", snap.Counters[MetricDuplicateSubmitSuppressed])
	}
}

func TestStaleResponseDiscardedAfterReset(t *testing.T) {
	inFlight := make(chan struct{}, 1)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inFlight <- struct{}{}
		<-release
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": testToken(t)})
	}))
	t.Cleanup(srv.Close)

	engine := newTestEngine(t, srv.URL)
	ctx := context.Background()

	w, _ := engine.StartWizard(ctx, UserIndividual)
	fillIndividual(t, w)

	result := make(chan error, 1)
	go func() {
		_, err := w.Submit(ctx)
		result <- err
	}()

	<-inFlight

	// The user resets while the registration response is still in flight.
	if err := w.Reset(ctx); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	close(release)

	if err := <-result; !errors.Is(err, ErrStaleDraft) {
		t.Fatalf("expected ErrStaleDraft, got %v", err)
	}

	// The late response must not establish a session or complete the wizard.
	if _, err := engine.CurrentSession(ctx); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("stale response must not establish a session, got %v", err)
	}
	if w.Completed() {
		t.Fatal("stale response must not complete the wizard")
	}

	snap := engine.MetricsSnapshot()
	if snap.Counters[MetricStaleResponseDiscarded] != 1 {
		t.Fatalf("expected 1 discarded response, got %d", snap.Counters[MetricStaleResponseDiscarded])
	}
}

func TestSubmitAfterCompleteRejected(t *testing.T) {
	engine := newTestEngine(t, newDevBackend(t).URL)
	ctx := context.Background()

	w, _ := engine.StartWizard(ctx, UserIndividual)
	fillIndividual(t, w)
	if _, err := w.Submit(ctx); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if _, err := w.Submit(ctx); !errors.Is(err, ErrWizardComplete) {
		t.Fatalf("expected ErrWizardComplete, got %v", err)
	}
	if err := w.Advance(ctx, validCashFlow()); !errors.Is(err, ErrWizardComplete) {
		t.Fatalf("expected ErrWizardComplete from Advance, got %v", err)
	}
}
