package insight

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Kind names one of the five analysis pipelines.
type Kind string

const (
	KindExpiration Kind = "expiration"
	KindNutrients  Kind = "nutrients"
	KindPatterns   Kind = "patterns"
	KindImpact     Kind = "impact"
	KindShopping   Kind = "shopping"
)

// Kinds lists every pipeline.
var Kinds = []Kind{KindExpiration, KindNutrients, KindPatterns, KindImpact, KindShopping}

var requiredKeys = map[Kind][]string{
	KindExpiration: {"predictions", "summary"},
	KindNutrients:  {"gaps", "recommendations"},
	KindPatterns:   {"insights", "imbalances"},
	KindImpact:     {"scores", "tips"},
	KindShopping:   {"recommendations"},
}

// RequiredKeys returns the top-level keys a payload of kind must carry.
func RequiredKeys(kind Kind) []string {
	keys := requiredKeys[kind]
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}

// SchemaError describes a payload that does not match its schema.
type SchemaError struct {
	Kind        Kind
	MissingKeys []string
	Cause       error
}

func (e *SchemaError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s payload is not a JSON object: %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("%s payload is missing keys %v", e.Kind, e.MissingKeys)
}

func (e *SchemaError) Unwrap() error { return e.Cause }

// CheckSchema verifies raw is a JSON object holding every required key of
// kind with a non-null value.
func CheckSchema(kind Kind, raw []byte) error {
	keys, ok := requiredKeys[kind]
	if !ok {
		return &SchemaError{Kind: kind, Cause: fmt.Errorf("unknown payload kind %q", kind)}
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return &SchemaError{Kind: kind, Cause: err}
	}
	if obj == nil {
		return &SchemaError{Kind: kind, Cause: fmt.Errorf("payload is null")}
	}

	var missing []string
	for _, k := range keys {
		v, ok := obj[k]
		if !ok || string(v) == "null" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &SchemaError{Kind: kind, MissingKeys: missing}
	}
	return nil
}

// ExpirationAdvice is the expiration-risk payload.
type ExpirationAdvice struct {
	Predictions []RiskPrediction `json:"predictions"`
	Summary     string           `json:"summary"`
}

// RiskPrediction is the advisory judgement on one item.
type RiskPrediction struct {
	ItemName       string  `json:"item_name"`
	RiskScore      float64 `json:"risk_score"`
	RiskTier       string  `json:"risk_tier"`
	Urgency        string  `json:"urgency"`
	Recommendation string  `json:"recommendation"`
}

// NutrientAdvice is the nutrient-analysis payload.
type NutrientAdvice struct {
	Gaps            []GapAdvice      `json:"gaps"`
	Recommendations []FoodSuggestion `json:"recommendations"`
}

// GapAdvice is the advisory judgement on one nutrient.
type GapAdvice struct {
	Nutrient      string  `json:"nutrient"`
	DeficiencyPct float64 `json:"deficiency_pct"`
	Severity      string  `json:"severity"`
	Note          string  `json:"note"`
}

// FoodSuggestion is a food to eat more of.
type FoodSuggestion struct {
	Name      string   `json:"name"`
	Category  string   `json:"category"`
	Nutrients []string `json:"nutrients"`
	Reason    string   `json:"reason"`
}

// PatternAdvice is the pattern-analysis payload.
type PatternAdvice struct {
	Insights   []string          `json:"insights"`
	Imbalances []ImbalanceAdvice `json:"imbalances"`
}

// ImbalanceAdvice is the advisory judgement on one category.
type ImbalanceAdvice struct {
	Category string `json:"category"`
	Severity string `json:"severity"`
	Note     string `json:"note"`
}

// ImpactAdvice is the SDG-style scoring payload.
type ImpactAdvice struct {
	Scores ImpactScores `json:"scores"`
	Tips   []string     `json:"tips"`
}

// ImpactScores are all in [0, 100].
type ImpactScores struct {
	Sustainability float64 `json:"sustainability"`
	ZeroHunger     float64 `json:"sdg2_zero_hunger"`
	Responsible    float64 `json:"sdg12_responsible_consumption"`
	Climate        float64 `json:"sdg13_climate_action"`
}

// ShoppingAdvice is the shopping-recommendation payload. Plan is attached by
// the pipeline once the recommendations are allocated and is never part of
// the advisory payload.
type ShoppingAdvice struct {
	Recommendations []PurchaseAdvice `json:"recommendations"`
	Plan            *PurchasePlan    `json:"-"`
}

// PurchaseAdvice is one suggested purchase.
type PurchaseAdvice struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	UnitCost float64 `json:"unit_cost"`
	Urgency  string  `json:"urgency"`
	Reason   string  `json:"reason"`
}
