package food

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// BudgetPeriod is the span a budget amount covers.
type BudgetPeriod string

const (
	BudgetWeekly  BudgetPeriod = "weekly"
	BudgetMonthly BudgetPeriod = "monthly"
)

// Budget is the user's grocery spending limit.
type Budget struct {
	Amount float64      `validate:"gte=0"`
	Period BudgetPeriod `validate:"omitempty,oneof=weekly monthly"`
}

// Monthly expresses the budget per month; weekly budgets count four weeks.
func (b Budget) Monthly() float64 {
	if b.Period == BudgetWeekly {
		return b.Amount * 4
	}
	return b.Amount
}

// ForHorizon returns the spend available over a weekly or monthly plan.
func (b Budget) ForHorizon(horizon BudgetPeriod) (float64, error) {
	switch horizon {
	case BudgetMonthly, "":
		return b.Monthly(), nil
	case BudgetWeekly:
		return b.Monthly() / 4, nil
	default:
		return 0, ErrInvalidBudgetSpan
	}
}

// Location drives seasonal inference. A negative latitude places the user in
// the southern hemisphere.
type Location struct {
	City     string
	Country  string
	Latitude *float64 `validate:"omitempty,gte=-90,lte=90"`
}

// SouthernHemisphere reports whether seasons should be flipped.
func (l Location) SouthernHemisphere() bool {
	return l.Latitude != nil && *l.Latitude < 0
}

// UserProfile holds nutrition targets, household and budget settings.
type UserProfile struct {
	UserID              uuid.UUID
	CalorieTarget       float64 `validate:"gte=0"`
	ProteinPct          float64 `validate:"gte=0,lte=100"`
	CarbsPct            float64 `validate:"gte=0,lte=100"`
	FatPct              float64 `validate:"gte=0,lte=100"`
	HouseholdSize       int     `validate:"gte=1"`
	Budget              Budget
	DietaryRestrictions []string
	AvoidedIngredients  []string
	Location            Location
}

// Default nutrition targets used when the profile leaves them unset.
const (
	DefaultCalorieTarget = 2000.0
	DefaultProteinPct    = 25.0
	DefaultCarbsPct      = 50.0
	DefaultFatPct        = 25.0
)

// Validate checks field ranges.
func (p UserProfile) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	return nil
}

// WithDefaults fills unset targets so downstream math never divides by zero.
func (p UserProfile) WithDefaults() UserProfile {
	if p.CalorieTarget <= 0 {
		p.CalorieTarget = DefaultCalorieTarget
	}
	if p.ProteinPct == 0 && p.CarbsPct == 0 && p.FatPct == 0 {
		p.ProteinPct, p.CarbsPct, p.FatPct = DefaultProteinPct, DefaultCarbsPct, DefaultFatPct
	}
	if p.HouseholdSize < 1 {
		p.HouseholdSize = 1
	}
	if p.Budget.Period == "" {
		p.Budget.Period = BudgetMonthly
	}
	return p
}
