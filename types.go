package onboard

import (
	"github.com/safirihq/onboard/draft"
	"github.com/safirihq/onboard/risk"
)

// UserType selects the onboarding step graph.
type UserType = draft.UserType

const (
	// UserIndividual is the default retail onboarding flow.
	UserIndividual = draft.UserIndividual
	// UserAdvisor is the extended flow with professional details first.
	UserAdvisor = draft.UserAdvisor
)

// StepID identifies a wizard step.
type StepID = draft.StepID

const (
	// StepProfessionalDetails collects firm and license details (advisor only).
	StepProfessionalDetails = draft.StepProfessionalDetails
	// StepPersonalDetails collects identity and credential fields.
	StepPersonalDetails = draft.StepPersonalDetails
	// StepRiskQuestionnaire collects ordered questionnaire answers.
	StepRiskQuestionnaire = draft.StepRiskQuestionnaire
	// StepDataConnection records how account data will be sourced.
	StepDataConnection = draft.StepDataConnection
	// StepCashFlowSetup collects income, dependents, and goals.
	StepCashFlowSetup = draft.StepCashFlowSetup
	// StepComplete is terminal and entered only after registration succeeds.
	StepComplete = draft.StepComplete
)

// Draft is the accumulated partial onboarding record.
type Draft = draft.Draft

// RiskResult is the derived score and level for a questionnaire.
type RiskResult = risk.Result

// Session is the established authenticated session.
type Session struct {
	Token           string
	UserType        UserType
	ProfileComplete bool
}

// Route is a post-auth landing destination.
type Route int

const (
	// RouteLogin is returned when no session exists.
	RouteLogin Route = iota
	// RouteOnboardingPersonal is the individual onboarding entry step.
	RouteOnboardingPersonal
	// RouteOnboardingProfessional is the advisor onboarding entry step.
	RouteOnboardingProfessional
	// RouteDashboard is the main dashboard for completed profiles.
	RouteDashboard
)

func (r Route) String() string {
	switch r {
	case RouteLogin:
		return "login"
	case RouteOnboardingPersonal:
		return "onboarding/personal-details"
	case RouteOnboardingProfessional:
		return "onboarding/professional-details"
	case RouteDashboard:
		return "dashboard"
	default:
		return "unknown"
	}
}

// StepInput is implemented by exactly one input type per wizard step. Step
// inputs carry only their own step's slice of the draft; the wizard rejects
// an input whose Step does not match the current position.
type StepInput interface {
	Step() StepID
}

// ProfessionalDetailsInput is the advisor-only first step.
type ProfessionalDetailsInput struct {
	FirmName      string
	LicenseNumber string
	ServiceModel  string
}

// Step implements [StepInput].
func (ProfessionalDetailsInput) Step() StepID { return StepProfessionalDetails }

// PersonalDetailsInput carries identity and credential fields.
type PersonalDetailsInput struct {
	FirstName  string
	LastName   string
	Email      string
	Password   string
	DOB        string // ISO date, e.g. "1990-01-01"
	NationalID string
	KRAPin     string // optional, format A123456789Z
}

// Step implements [StepInput].
func (PersonalDetailsInput) Step() StepID { return StepPersonalDetails }

// QuestionnaireInput carries the ordered answer list. Advancing this step
// recomputes the draft's risk result; a retaken questionnaire overwrites the
// previous one.
type QuestionnaireInput struct {
	Answers []int
}

// Step implements [StepInput].
func (QuestionnaireInput) Step() StepID { return StepRiskQuestionnaire }

// Data connection modes.
const (
	// ConnectionManual means the user will enter account data by hand.
	ConnectionManual = "manual"
	// ConnectionLinked means account data will come from a provider link.
	ConnectionLinked = "linked"
)

// DataConnectionInput records the chosen account-data source.
type DataConnectionInput struct {
	Mode     string
	Provider string
}

// Step implements [StepInput].
func (DataConnectionInput) Step() StepID { return StepDataConnection }

// GoalInput is a single savings goal.
type GoalInput struct {
	Name             string
	TargetAmount     float64
	TimeHorizonYears int
}

// CashFlowInput carries income, employment, dependents, and goals.
type CashFlowInput struct {
	AnnualIncome     float64
	EmploymentStatus string
	Dependents       int
	Goals            []GoalInput
}

// Step implements [StepInput].
func (CashFlowInput) Step() StepID { return StepCashFlowSetup }
