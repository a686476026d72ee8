package onboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/safirihq/onboard/backend"
	"github.com/safirihq/onboard/draft"
)

// Submit performs the single atomic registration transaction for a fully
// completed wizard. On success the draft is destroyed, a session is
// established, and the wizard enters its terminal step.
//
// Exactly one Submit may be in flight per wizard: a duplicate call returns
// ErrSubmissionInFlight without touching the network. On failure the draft
// and wizard position are untouched; a rejection unwraps to the backend's
// [*backend.APIError] for field messages, and transport failures unwrap to
// ErrBackendUnavailable and may be retried. A response that resolves after
// the draft was reset or cleared is discarded with ErrStaleDraft.
func (w *Wizard) Submit(ctx context.Context) (*Session, error) {
	w.mu.Lock()
	if w.complete {
		w.mu.Unlock()
		return nil, ErrWizardComplete
	}
	if w.submitting {
		w.engine.metricInc(MetricDuplicateSubmitSuppressed)
		w.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	if err := w.readyLocked(); err != nil {
		w.mu.Unlock()
		return nil, err
	}
	snapshot := w.draft.Clone()
	w.submitting = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.submitting = false
		w.mu.Unlock()
	}()

	// Capture the draft generation before the network call; a reset or clear
	// while the request is in flight bumps it.
	gen, err := w.engine.drafts.Generation(ctx, snapshot.ID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	tok, err := w.engine.backend.Register(ctx, buildRegistration(snapshot))
	w.engine.metricObserve(MetricSubmitLatency, time.Since(start))

	if err != nil {
		w.engine.metricInc(MetricRegistrationFailure)
		w.engine.emitAudit(ctx, AuditEvent{
			EventType: "registration.failed",
			DraftID:   snapshot.ID,
			UserType:  string(snapshot.UserType),
			Error:     auditError(err),
		})

		var apiErr *backend.APIError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("%w: %w", ErrRegistrationRejected, apiErr)
		}
		return nil, err
	}

	cur, err := w.engine.drafts.Generation(ctx, snapshot.ID)
	if err != nil {
		return nil, err
	}
	if cur != gen {
		w.engine.metricInc(MetricStaleResponseDiscarded)
		w.engine.emitAudit(ctx, AuditEvent{
			EventType: "registration.discarded",
			DraftID:   snapshot.ID,
			UserType:  string(snapshot.UserType),
			Error:     ErrStaleDraft.Error(),
		})
		return nil, ErrStaleDraft
	}

	sess, err := w.engine.establishSession(ctx, tok.AccessToken, snapshot.UserType, true)
	if err != nil {
		return nil, err
	}

	if err := w.engine.drafts.Clear(ctx, snapshot.ID); err != nil {
		return nil, err
	}

	w.mu.Lock()
	w.complete = true
	w.index = len(w.steps) - 1
	w.mu.Unlock()

	w.engine.metricInc(MetricRegistrationSuccess)
	w.engine.emitAudit(ctx, AuditEvent{
		EventType: "registration.succeeded",
		DraftID:   snapshot.ID,
		UserType:  string(snapshot.UserType),
		Success:   true,
	})

	return sess, nil
}

// buildRegistration maps a completed draft onto the backend's registration
// contract. The first goal is the primary goal the contract carries.
func buildRegistration(d *draft.Draft) backend.RegistrationRequest {
	req := backend.RegistrationRequest{
		Questionnaire: append([]int(nil), d.Answers...),
	}

	if d.Personal != nil {
		req.Email = d.Personal.Email
		req.Password = d.Personal.Password
		req.DOB = d.Personal.DOB
		req.NationalID = d.Personal.NationalID
		req.KRAPin = d.Personal.KRAPin
	}
	if d.Financial != nil {
		req.AnnualIncome = d.Financial.AnnualIncome
		req.Dependents = d.Financial.Dependents
	}
	if len(d.Goals) > 0 {
		req.Goals = backend.GoalPayload{
			Name:         d.Goals[0].Name,
			TargetAmount: d.Goals[0].TargetAmount,
			TimeHorizon:  d.Goals[0].TimeHorizonYears,
		}
	}
	if d.UserType == draft.UserAdvisor {
		req.Role = string(draft.UserAdvisor)
	}

	return req
}
