package insight

import (
	"github.com/alchemorsel/pantry/internal/domain/food"
	"github.com/google/uuid"
)

// RiskAssessment scores the expiration risk of one inventory item.
type RiskAssessment struct {
	ItemID              uuid.UUID     `json:"item_id"`
	Name                string        `json:"name"`
	Category            food.Category `json:"category"`
	Quantity            float64       `json:"quantity"`
	Unit                string        `json:"unit"`
	DisplayQuantity     string        `json:"display_quantity"`
	DaysUntilExpiration int           `json:"days_until_expiration"`
	AgeDays             int           `json:"age_days"`
	SeasonalMultiplier  float64       `json:"seasonal_multiplier"`
	Score               float64       `json:"score"`
	Tier                RiskTier      `json:"tier"`
	Urgency             Urgency       `json:"urgency"`
	Value               float64       `json:"value"`
	StorageTip          string        `json:"storage_tip"`
	Action              string        `json:"action"`
	Rationale           []string      `json:"rationale"`
}

// GapAssessment compares the daily average intake of a nutrient to target.
type GapAssessment struct {
	Nutrient      food.Nutrient   `json:"nutrient"`
	Target        float64         `json:"target"`
	Actual        float64         `json:"actual"`
	DeficiencyPct float64         `json:"deficiency_pct"`
	Severity      Severity        `json:"severity"`
	Sources       []food.Category `json:"sources"`
	Rationale     []string        `json:"rationale"`
}

// Direction says whether a category is under- or over-consumed.
type Direction string

const (
	DirectionUnder    Direction = "under"
	DirectionOver     Direction = "over"
	DirectionBalanced Direction = "balanced"
)

// ImbalanceAssessment compares how often a category is eaten with the
// recommended frequency.
type ImbalanceAssessment struct {
	Category             food.Category `json:"category"`
	EntriesPerDay        float64       `json:"entries_per_day"`
	DailyAverage         []string      `json:"daily_average"`
	Frequency            float64       `json:"frequency"`
	RecommendedFrequency float64       `json:"recommended_frequency"`
	DeviationPct         float64       `json:"deviation_pct"`
	Severity             Severity      `json:"severity"`
	Direction            Direction     `json:"direction"`
	Rationale            []string      `json:"rationale"`
}

// WasteEstimate projects how much of an item will be thrown away.
type WasteEstimate struct {
	ItemID        uuid.UUID     `json:"item_id"`
	Name          string        `json:"name"`
	Category      food.Category `json:"category"`
	DaysLeft      int           `json:"days_left"`
	DailyUse      float64       `json:"daily_use"`
	WasteFraction float64       `json:"waste_fraction"`
	CostAtRisk    float64       `json:"cost_at_risk"`
	CarbonKg      float64       `json:"carbon_kg"`
	Basis         string        `json:"basis"`
}

// PriceStatus reports the outcome of a price lookup.
type PriceStatus string

const (
	PriceAvailable   PriceStatus = "available"
	PriceUnavailable PriceStatus = "unavailable"
)

// PriceComparison is the secondary price lookup attached to a purchase.
type PriceComparison struct {
	Status      PriceStatus `json:"status"`
	Store       string      `json:"store,omitempty"`
	MarketPrice float64     `json:"market_price,omitempty"`
	Savings     float64     `json:"savings,omitempty"`
	Error       string      `json:"error,omitempty"`
}

// Recommendation is a candidate purchase.
type Recommendation struct {
	Name      string           `json:"name"`
	Category  food.Category    `json:"category"`
	Quantity  float64          `json:"quantity"`
	Unit      string           `json:"unit"`
	UnitCost  float64          `json:"unit_cost"`
	TotalCost float64          `json:"total_cost"`
	Priority  int              `json:"priority"`
	Urgency   Urgency          `json:"urgency"`
	Reason    string           `json:"reason"`
	Price     *PriceComparison `json:"price,omitempty"`
}

// CostPerUnit is the cost-effectiveness tie-break used by the allocator.
func (r Recommendation) CostPerUnit() float64 {
	if r.Quantity <= 0 {
		return r.TotalCost
	}
	return r.TotalCost / r.Quantity
}

// PurchasePlan is the allocated, priced purchase list a shopping report is
// assembled from.
type PurchasePlan struct {
	Allocations []Allocation
	Budget      float64
	TotalCost   float64
	Remaining   float64
	Skipped     int
	AlreadyHeld []string
}

// Allocation is a recommendation accepted by the budget allocator.
type Allocation struct {
	Recommendation
	FinalQuantity   float64 `json:"final_quantity"`
	FinalCost       float64 `json:"final_cost"`
	RemainingBudget float64 `json:"remaining_budget"`
	BudgetPct       float64 `json:"budget_pct"`
	Partial         bool    `json:"partial"`
}
