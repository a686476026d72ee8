package onboard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/safirihq/onboard/draft"
)

// stepGraphs fixes the ordered step list per user type. The graph is chosen
// once at wizard start; switching user type requires a reset.
var stepGraphs = map[UserType][]StepID{
	UserIndividual: {
		StepPersonalDetails,
		StepRiskQuestionnaire,
		StepDataConnection,
		StepCashFlowSetup,
		StepComplete,
	},
	UserAdvisor: {
		StepProfessionalDetails,
		StepPersonalDetails,
		StepRiskQuestionnaire,
		StepDataConnection,
		StepCashFlowSetup,
		StepComplete,
	},
}

// Wizard is one onboarding session walking a step graph over a persistent
// draft. All methods are safe for concurrent use, though the flow is designed
// around a single logical user.
//
// The terminal Complete step is never entered by Advance; only a successful
// Submit moves the wizard there.
type Wizard struct {
	engine *Engine

	mu         sync.Mutex
	draft      *draft.Draft
	steps      []StepID
	index      int
	submitting bool
	complete   bool
}

// StartWizard begins a fresh onboarding session for the given user type and
// persists its empty draft. Any previously active draft stays stored but is
// no longer the active one.
func (e *Engine) StartWizard(ctx context.Context, userType UserType) (*Wizard, error) {
	if e == nil || e.drafts == nil {
		return nil, ErrEngineNotReady
	}
	steps, ok := stepGraphs[userType]
	if !ok {
		return nil, fmt.Errorf("unknown user type %q", userType)
	}

	d := draft.Empty(uuid.NewString(), userType)
	if err := e.drafts.Save(ctx, d); err != nil {
		return nil, err
	}

	e.metricInc(MetricWizardStarted)
	e.emitAudit(ctx, AuditEvent{
		EventType: "wizard.started",
		DraftID:   d.ID,
		UserType:  string(userType),
		Success:   true,
	})

	return &Wizard{
		engine: e,
		draft:  d,
		steps:  steps,
	}, nil
}

// ResumeWizard restores the active draft after a reload. The wizard resumes
// at the first step the draft has not completed; all previously entered data
// is intact. Returns ErrDraftNotFound when nothing is resumable.
func (e *Engine) ResumeWizard(ctx context.Context) (*Wizard, error) {
	if e == nil || e.drafts == nil {
		return nil, ErrEngineNotReady
	}

	id, err := e.drafts.ActiveID(ctx)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrDraftNotFound
		}
		return nil, err
	}

	d, err := e.drafts.Get(ctx, id)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrDraftNotFound
		}
		return nil, err
	}

	steps, ok := stepGraphs[d.UserType]
	if !ok {
		return nil, fmt.Errorf("draft %s has unknown user type %q", d.ID, d.UserType)
	}

	w := &Wizard{
		engine: e,
		draft:  d,
		steps:  steps,
		index:  resumeIndex(steps, d),
	}

	e.metricInc(MetricDraftResumed)
	e.emitAudit(ctx, AuditEvent{
		EventType: "wizard.resumed",
		DraftID:   d.ID,
		UserType:  string(d.UserType),
		Step:      string(w.steps[w.index]),
		Success:   true,
	})

	return w, nil
}

// resumeIndex finds the first incomplete data step, clamped to the last data
// step so a fully filled draft resumes at review position rather than inside
// Complete.
func resumeIndex(steps []StepID, d *draft.Draft) int {
	last := len(steps) - 1 // StepComplete
	for i, step := range steps[:last] {
		if !d.StepCompleted(step) {
			return i
		}
	}
	return last - 1
}

// CurrentStep returns the step the wizard is positioned on.
func (w *Wizard) CurrentStep() StepID {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.complete {
		return StepComplete
	}
	return w.steps[w.index]
}

// Position returns the zero-based index of the current step and the number of
// data steps in this flow (Complete excluded).
func (w *Wizard) Position() (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.index, len(w.steps) - 1
}

// Draft returns a deep copy of the working draft.
func (w *Wizard) Draft() *Draft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft.Clone()
}

// Completed reports whether registration has succeeded for this session.
func (w *Wizard) Completed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.complete
}

// Advance validates the input for the current step, writes its slice of the
// draft, persists, and moves forward. A [*ValidationError] leaves the draft
// untouched. ErrStepMismatch is returned when input targets another step.
// Advance never enters the Complete step; on the last data step it marks the
// step complete and stays in place until Submit succeeds.
func (w *Wizard) Advance(ctx context.Context, input StepInput) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.complete {
		return ErrWizardComplete
	}

	current := w.steps[w.index]
	if input.Step() != current {
		return fmt.Errorf("%w: got %s, at %s", ErrStepMismatch, input.Step(), current)
	}

	if err := w.applyLocked(input); err != nil {
		return err
	}

	w.draft.MarkCompleted(current)
	if err := w.engine.drafts.Save(ctx, w.draft); err != nil {
		return err
	}

	// Stop on the last data step; Complete is reached only through Submit.
	if w.index < len(w.steps)-2 {
		w.index++
	}

	w.engine.metricInc(MetricStepAdvanced)
	w.engine.emitAudit(ctx, AuditEvent{
		EventType: "wizard.step_advanced",
		DraftID:   w.draft.ID,
		UserType:  string(w.draft.UserType),
		Step:      string(current),
		Success:   true,
	})

	return nil
}

// applyLocked validates and applies one step input to the working draft.
// Caller holds w.mu.
func (w *Wizard) applyLocked(input StepInput) error {
	switch in := input.(type) {
	case ProfessionalDetailsInput:
		if err := validateProfessionalDetails(in); err != nil {
			w.engine.metricInc(MetricStepValidationFailed)
			return err
		}
		w.draft.Professional = &draft.ProfessionalDetails{
			FirmName:      in.FirmName,
			LicenseNumber: in.LicenseNumber,
			ServiceModel:  in.ServiceModel,
		}

	case PersonalDetailsInput:
		if err := validatePersonalDetails(in); err != nil {
			w.engine.metricInc(MetricStepValidationFailed)
			return err
		}
		w.draft.Personal = &draft.PersonalDetails{
			FirstName:  in.FirstName,
			LastName:   in.LastName,
			Email:      in.Email,
			Password:   in.Password,
			DOB:        in.DOB,
			NationalID: in.NationalID,
			KRAPin:     in.KRAPin,
		}

	case QuestionnaireInput:
		result, err := w.engine.quest.Score(in.Answers)
		if err != nil {
			w.engine.metricInc(MetricScoreRejected)
			return err
		}
		// A retake overwrites the previous answers and result wholesale.
		w.draft.Answers = append([]int(nil), in.Answers...)
		w.draft.Risk = &result
		w.engine.metricInc(MetricScoreComputed)

	case DataConnectionInput:
		if err := validateDataConnection(in); err != nil {
			w.engine.metricInc(MetricStepValidationFailed)
			return err
		}
		w.draft.Connection = &draft.DataConnection{
			Mode:     in.Mode,
			Provider: in.Provider,
		}

	case CashFlowInput:
		if err := validateCashFlow(in); err != nil {
			w.engine.metricInc(MetricStepValidationFailed)
			return err
		}
		w.draft.Financial = &draft.FinancialDetails{
			AnnualIncome:     in.AnnualIncome,
			EmploymentStatus: in.EmploymentStatus,
			Dependents:       in.Dependents,
		}
		goals := make([]draft.Goal, 0, len(in.Goals))
		for _, g := range in.Goals {
			goals = append(goals, draft.Goal{
				Name:             g.Name,
				TargetAmount:     g.TargetAmount,
				TimeHorizonYears: g.TimeHorizonYears,
			})
		}
		w.draft.Goals = goals

	default:
		return fmt.Errorf("%w: unsupported input %T", ErrStepMismatch, input)
	}

	return nil
}

// Retreat moves one step back without losing any entered data.
func (w *Wizard) Retreat(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.complete {
		return ErrWizardComplete
	}
	if w.index == 0 {
		return ErrAtFirstStep
	}

	w.index--
	w.engine.metricInc(MetricStepRetreated)
	w.engine.emitAudit(ctx, AuditEvent{
		EventType: "wizard.step_retreated",
		DraftID:   w.draft.ID,
		UserType:  string(w.draft.UserType),
		Step:      string(w.steps[w.index]),
		Success:   true,
	})

	return nil
}

// Reset discards all entered data and returns the wizard to its first step.
// The stored draft is cleared first, which bumps the generation counter so
// any registration response still in flight is discarded on arrival.
func (w *Wizard) Reset(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.complete {
		return ErrWizardComplete
	}

	if err := w.engine.drafts.Clear(ctx, w.draft.ID); err != nil {
		return err
	}

	fresh := draft.Empty(w.draft.ID, w.draft.UserType)
	if err := w.engine.drafts.Save(ctx, fresh); err != nil {
		return err
	}

	w.draft = fresh
	w.index = 0

	w.engine.metricInc(MetricWizardReset)
	w.engine.emitAudit(ctx, AuditEvent{
		EventType: "wizard.reset",
		DraftID:   w.draft.ID,
		UserType:  string(w.draft.UserType),
		Success:   true,
	})

	return nil
}

// Abandon clears the stored draft entirely and invalidates this wizard.
func (w *Wizard) Abandon(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.engine.drafts.Clear(ctx, w.draft.ID); err != nil {
		return err
	}
	w.complete = true

	w.engine.emitAudit(ctx, AuditEvent{
		EventType: "wizard.abandoned",
		DraftID:   w.draft.ID,
		UserType:  string(w.draft.UserType),
		Success:   true,
	})

	return nil
}

// ReadyToSubmit reports whether every data step in this flow has been
// completed.
func (w *Wizard) ReadyToSubmit() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.readyLocked() == nil
}

// readyLocked returns the first incomplete step as an error. Caller holds
// w.mu.
func (w *Wizard) readyLocked() error {
	for _, step := range w.steps[:len(w.steps)-1] {
		if !w.draft.StepCompleted(step) {
			return fmt.Errorf("%w: %s", ErrStepIncomplete, step)
		}
	}
	return nil
}
