package insight

import (
	"time"

	"github.com/alchemorsel/pantry/internal/domain/food"
	"github.com/google/uuid"
)

// Source tells the caller which path produced the judgement.
type Source string

const (
	SourceAdvisory Source = "advisory"
	SourceFallback Source = "fallback"
)

// Meta is common to every report.
type Meta struct {
	Kind        Kind      `json:"kind"`
	UserID      uuid.UUID `json:"user_id"`
	WindowDays  int       `json:"window_days"`
	Source      Source    `json:"source"`
	GeneratedAt time.Time `json:"generated_at"`
}

// ExpirationReport lists at-risk inventory, most urgent first.
type ExpirationReport struct {
	Meta
	Season      SeasonalContext  `json:"season"`
	Items       []RiskAssessment `json:"items"`
	Summary     string           `json:"summary"`
	TierCounts  map[RiskTier]int `json:"tier_counts"`
	ValueAtRisk float64          `json:"value_at_risk"`
	TopRisks    []RiskAssessment `json:"top_risks"`
}

// NutrientReport lists nutrient gaps and foods that close them.
type NutrientReport struct {
	Meta
	DaysLogged      int                 `json:"days_logged"`
	Gaps            []GapAssessment     `json:"gaps"`
	Recommendations []FoodSuggestion    `json:"recommendations"`
	SeverityCounts  map[Severity]int    `json:"severity_counts"`
	Score           float64             `json:"score"`
	Targets         food.NutrientValues `json:"targets"`
	Averages        food.NutrientValues `json:"averages"`
}

// PatternReport describes eating habits over the window.
type PatternReport struct {
	Meta
	DaysLogged           int                       `json:"days_logged"`
	Categories           []ImbalanceAssessment     `json:"categories"`
	Imbalances           []ImbalanceAssessment     `json:"imbalances"`
	Insights             []string                  `json:"insights"`
	DiversityScore       float64                   `json:"diversity_score"`
	MealSlotDistribution map[food.MealSlot]float64 `json:"meal_slot_distribution"`
	SkippedBreakfastRate float64                   `json:"skipped_breakfast_rate"`
	SeverityCounts       map[Severity]int          `json:"severity_counts"`
}

// ImpactReport scores the household's waste and sustainability.
type ImpactReport struct {
	Meta
	WasteRate     float64         `json:"waste_rate"`
	ReductionRate float64         `json:"reduction_rate"`
	Scores        ImpactScores    `json:"scores"`
	CarbonKg      float64         `json:"carbon_kg"`
	CostAtRisk    float64         `json:"cost_at_risk"`
	Items         []WasteEstimate `json:"items"`
	Tips          []string        `json:"tips"`
}

// ShoppingReport is the budget-constrained shopping plan.
type ShoppingReport struct {
	Meta
	Horizon           food.BudgetPeriod `json:"horizon"`
	Budget            float64           `json:"budget"`
	Allocations       []Allocation      `json:"allocations"`
	TotalCost         float64           `json:"total_cost"`
	RemainingBudget   float64           `json:"remaining_budget"`
	SkippedCandidates int               `json:"skipped_candidates"`
	AlreadyHeld       []string          `json:"already_held"`
	UrgencyCounts     map[Urgency]int   `json:"urgency_counts"`
	PotentialSavings  float64           `json:"potential_savings"`
}
