package onboard

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	// KRA PIN format: letter, nine digits, letter. Example: A123456789Z.
	kraPinRe     = regexp.MustCompile(`^[A-Z]\d{9}[A-Z]$`)
	nationalIDRe = regexp.MustCompile(`^\d{7,8}$`)
	emailRe      = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

const minRegistrationAge = 18

// FieldError names one invalid field and why it was rejected.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates every field failure for one step. The wizard
// returns it from Advance instead of persisting anything; it reports all
// failures at once rather than stopping at the first.
type ValidationError struct {
	Step   StepID
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation failed"
	}
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return fmt.Sprintf("step %s validation failed: %s", e.Step, strings.Join(names, ", "))
}

type fieldCollector struct {
	step   StepID
	fields []FieldError
}

func (c *fieldCollector) add(field, message string) {
	c.fields = append(c.fields, FieldError{Field: field, Message: message})
}

func (c *fieldCollector) err() error {
	if len(c.fields) == 0 {
		return nil
	}
	return &ValidationError{Step: c.step, Fields: c.fields}
}

func validatePersonalDetails(in PersonalDetailsInput) error {
	c := &fieldCollector{step: StepPersonalDetails}

	if strings.TrimSpace(in.FirstName) == "" {
		c.add("first_name", "first name is required")
	}
	if strings.TrimSpace(in.LastName) == "" {
		c.add("last_name", "last name is required")
	}
	if !emailRe.MatchString(in.Email) {
		c.add("email", "valid email is required")
	}
	if len(in.Password) < 8 {
		c.add("password", "password must be at least 8 characters")
	}
	validateDOB(c, in.DOB)
	if !nationalIDRe.MatchString(in.NationalID) {
		c.add("national_id", "national ID must be 7 or 8 digits")
	}
	if in.KRAPin != "" && !kraPinRe.MatchString(in.KRAPin) {
		c.add("kra_pin", "KRA PIN must match format A123456789Z")
	}

	return c.err()
}

func validateDOB(c *fieldCollector, dob string) {
	if strings.TrimSpace(dob) == "" {
		c.add("dob", "date of birth is required")
		return
	}
	t, err := time.Parse("2006-01-02", dob)
	if err != nil {
		c.add("dob", "date of birth must be an ISO date (YYYY-MM-DD)")
		return
	}
	if age(t, time.Now()) < minRegistrationAge {
		c.add("dob", fmt.Sprintf("must be at least %d years old", minRegistrationAge))
	}
}

func age(dob, now time.Time) int {
	years := now.Year() - dob.Year()
	anniversary := dob.AddDate(years, 0, 0)
	if anniversary.After(now) {
		years--
	}
	return years
}

func validateProfessionalDetails(in ProfessionalDetailsInput) error {
	c := &fieldCollector{step: StepProfessionalDetails}

	if strings.TrimSpace(in.FirmName) == "" {
		c.add("firm_name", "firm name is required")
	}
	if strings.TrimSpace(in.LicenseNumber) == "" {
		c.add("license_number", "license number is required")
	}

	return c.err()
}

func validateDataConnection(in DataConnectionInput) error {
	c := &fieldCollector{step: StepDataConnection}

	switch in.Mode {
	case ConnectionManual:
	case ConnectionLinked:
		if strings.TrimSpace(in.Provider) == "" {
			c.add("provider", "provider is required for a linked connection")
		}
	default:
		c.add("mode", `mode must be "manual" or "linked"`)
	}

	return c.err()
}

func validateCashFlow(in CashFlowInput) error {
	c := &fieldCollector{step: StepCashFlowSetup}

	if in.AnnualIncome < 0 {
		c.add("annual_income", "annual income cannot be negative")
	}
	if in.Dependents < 0 {
		c.add("dependents", "dependents cannot be negative")
	}
	for i, g := range in.Goals {
		if strings.TrimSpace(g.Name) == "" {
			c.add(fmt.Sprintf("goals[%d].name", i), "goal name is required")
		}
		if g.TargetAmount <= 0 {
			c.add(fmt.Sprintf("goals[%d].target_amount", i), "target amount must be positive")
		}
		if g.TimeHorizonYears <= 0 {
			c.add(fmt.Sprintf("goals[%d].time_horizon_years", i), "time horizon must be positive")
		}
	}

	return c.err()
}
