package onboard

import (
	"errors"

	"github.com/safirihq/onboard/backend"
	"github.com/safirihq/onboard/risk"
)

var (
	// ErrEngineNotReady is returned when an Engine method runs before Build.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrWizardComplete is returned when operating on a finished wizard.
	ErrWizardComplete = errors.New("wizard already complete")
	// ErrAtFirstStep is returned when retreating from the initial step.
	ErrAtFirstStep = errors.New("already at first step")
	// ErrStepMismatch is returned when a step input targets a step other than the current one.
	ErrStepMismatch = errors.New("input does not match current step")
	// ErrStepIncomplete is returned when submitting before every required step is complete.
	ErrStepIncomplete = errors.New("required step incomplete")
	// ErrSubmissionInFlight suppresses a duplicate submit while one is outstanding.
	ErrSubmissionInFlight = errors.New("registration already in flight")
	// ErrStaleDraft discards a response that resolved after the draft was cleared or reset.
	ErrStaleDraft = errors.New("draft changed while request was in flight")
	// ErrRegistrationRejected is returned when the backend refuses the registration.
	ErrRegistrationRejected = errors.New("registration rejected")
	// ErrInvalidCredentials is returned when the backend rejects a login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSessionNotFound is returned when no authenticated session exists.
	ErrSessionNotFound = errors.New("session not found")
	// ErrDraftNotFound is returned when no resumable draft exists.
	ErrDraftNotFound = errors.New("draft not found")

	// ErrBackendUnavailable marks retryable transport failures and timeouts.
	// The draft and wizard position remain intact when it is returned.
	ErrBackendUnavailable = backend.ErrUnavailable
	// ErrMissingAnswer is the risk engine's fatal incomplete-questionnaire error.
	ErrMissingAnswer = risk.ErrMissingAnswer
	// ErrAnswerOutOfRange is the risk engine's answer-scale violation error.
	ErrAnswerOutOfRange = risk.ErrAnswerOutOfRange
)
