package draft

import (
	"time"

	"github.com/safirihq/onboard/risk"
)

// UserType selects the onboarding step graph.
type UserType string

const (
	// UserIndividual is the default retail onboarding flow.
	UserIndividual UserType = "individual"
	// UserAdvisor is the extended flow with professional details.
	UserAdvisor UserType = "advisor"
)

// StepID identifies a wizard step. Step graphs are ordered lists of StepIDs.
type StepID string

const (
	// StepProfessionalDetails collects firm and license details (advisor only).
	StepProfessionalDetails StepID = "professional_details"
	// StepPersonalDetails collects identity and credential fields.
	StepPersonalDetails StepID = "personal_details"
	// StepRiskQuestionnaire collects ordered questionnaire answers.
	StepRiskQuestionnaire StepID = "risk_questionnaire"
	// StepDataConnection records how account data will be sourced.
	StepDataConnection StepID = "data_connection"
	// StepCashFlowSetup collects income, dependents, and goals.
	StepCashFlowSetup StepID = "cash_flow_setup"
	// StepComplete is terminal and only entered after registration succeeds.
	StepComplete StepID = "complete"
)

// PersonalDetails is the personal-details step slice of the draft.
type PersonalDetails struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	DOB        string `json:"dob"` // ISO date, validated before write
	NationalID string `json:"national_id"`
	KRAPin     string `json:"kra_pin,omitempty"`
}

// ProfessionalDetails is the advisor-only step slice of the draft.
type ProfessionalDetails struct {
	FirmName      string `json:"firm_name"`
	LicenseNumber string `json:"license_number"`
	ServiceModel  string `json:"service_model,omitempty"`
}

// DataConnection records the chosen account-data source.
type DataConnection struct {
	Mode     string `json:"mode"` // "manual" or "linked"
	Provider string `json:"provider,omitempty"`
}

// FinancialDetails is the cash-flow step slice of the draft.
type FinancialDetails struct {
	AnnualIncome     float64 `json:"annual_income"`
	EmploymentStatus string  `json:"employment_status"`
	Dependents       int     `json:"dependents"`
}

// Goal is a single savings goal captured during cash-flow setup.
type Goal struct {
	Name             string  `json:"name"`
	TargetAmount     float64 `json:"target_amount"`
	TimeHorizonYears int     `json:"time_horizon_years"`
}

// Draft is the accumulated, partial onboarding record. Each step owns exactly
// one optional sub-record; steps never write outside their own slice. A draft
// survives process restarts through the [Store] and is destroyed on successful
// registration or explicit abandonment.
type Draft struct {
	ID       string   `json:"id"`
	UserType UserType `json:"user_type"`

	Professional *ProfessionalDetails `json:"professional,omitempty"`
	Personal     *PersonalDetails     `json:"personal,omitempty"`
	Answers      []int                `json:"answers,omitempty"`
	Risk         *risk.Result         `json:"risk,omitempty"`
	Connection   *DataConnection      `json:"connection,omitempty"`
	Financial    *FinancialDetails    `json:"financial,omitempty"`
	Goals        []Goal               `json:"goals,omitempty"`

	CompletedSteps []StepID `json:"completed_steps,omitempty"`

	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// Empty returns the well-defined empty draft for a new wizard session.
func Empty(id string, userType UserType) *Draft {
	now := time.Now().Unix()
	return &Draft{
		ID:        id,
		UserType:  userType,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// StepCompleted reports whether the given step has been marked complete.
func (d *Draft) StepCompleted(step StepID) bool {
	for _, s := range d.CompletedSteps {
		if s == step {
			return true
		}
	}
	return false
}

// MarkCompleted records step completion exactly once, preserving order.
func (d *Draft) MarkCompleted(step StepID) {
	if !d.StepCompleted(step) {
		d.CompletedSteps = append(d.CompletedSteps, step)
	}
}

// Clone returns a deep copy so callers can mutate without aliasing the
// wizard's working draft.
func (d *Draft) Clone() *Draft {
	if d == nil {
		return nil
	}
	out := *d
	if d.Professional != nil {
		p := *d.Professional
		out.Professional = &p
	}
	if d.Personal != nil {
		p := *d.Personal
		out.Personal = &p
	}
	if d.Answers != nil {
		out.Answers = append([]int(nil), d.Answers...)
	}
	if d.Risk != nil {
		r := *d.Risk
		out.Risk = &r
	}
	if d.Connection != nil {
		c := *d.Connection
		out.Connection = &c
	}
	if d.Financial != nil {
		f := *d.Financial
		out.Financial = &f
	}
	if d.Goals != nil {
		out.Goals = append([]Goal(nil), d.Goals...)
	}
	if d.CompletedSteps != nil {
		out.CompletedSteps = append([]StepID(nil), d.CompletedSteps...)
	}
	return &out
}
