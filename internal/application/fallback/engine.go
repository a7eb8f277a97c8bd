// Package fallback reproduces the advisory payloads deterministically from
// derived features. Its output satisfies the same schemas and bounds as the
// advisory path and it never fails: missing data yields an empty payload.
package fallback

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alchemorsel/pantry/internal/application/features"
	"github.com/alchemorsel/pantry/internal/domain/food"
	"github.com/alchemorsel/pantry/internal/domain/insight"
	"github.com/alchemorsel/pantry/internal/domain/measure"
)

// riskHorizonDays is the span over which risk decays linearly to zero.
const riskHorizonDays = 30.0

// Engine holds the category table the heuristics read from.
type Engine struct {
	table food.CategoryTable
}

// NewEngine creates a fallback engine over table.
func NewEngine(table food.CategoryTable) *Engine {
	if table == nil {
		table = food.DefaultCategoryTable()
	}
	return &Engine{table: table}
}

// Table returns the engine's category table.
func (e *Engine) Table() food.CategoryTable {
	return e.table
}

// RiskScore is linear in days left, scaled by the seasonal multiplier and
// clamped to [0, 100]. Expired items score 100.
func RiskScore(daysUntilExpiration int, multiplier float64) float64 {
	if daysUntilExpiration <= 0 {
		return 100
	}
	if multiplier <= 0 {
		multiplier = 1
	}
	raw := (1 - float64(daysUntilExpiration)/riskHorizonDays) * 100 * multiplier
	return measure.Round(insight.ClampScore(raw), 1)
}

var tierActions = map[insight.RiskTier]string{
	insight.TierCritical: "Use today or freeze it.",
	insight.TierHigh:     "Plan it into meals this week.",
	insight.TierMedium:   "Keep an eye on it and use it next week.",
	insight.TierLow:      "No action needed yet.",
}

// TierAction is the suggested action for a tier.
func TierAction(t insight.RiskTier) string {
	return tierActions[t]
}

// Expiration scores every dated item.
func (e *Engine) Expiration(f features.ExpirationFeatures) insight.ExpirationAdvice {
	out := insight.ExpirationAdvice{Predictions: make([]insight.RiskPrediction, 0, len(f.Items))}

	urgent := 0
	for _, it := range f.Items {
		if it.Tier == insight.TierCritical || it.Tier == insight.TierHigh {
			urgent++
		}
		out.Predictions = append(out.Predictions, insight.RiskPrediction{
			ItemName:       it.Name,
			RiskScore:      RiskScore(it.DaysUntilExpiration, it.Multiplier),
			RiskTier:       string(it.Tier),
			Urgency:        string(it.Tier.Urgency()),
			Recommendation: TierAction(it.Tier),
		})
	}

	switch {
	case len(f.Items) == 0:
		out.Summary = "No tracked items have an expiration date."
	case urgent == 0:
		out.Summary = fmt.Sprintf("None of %d tracked items expire within a week.", len(f.Items))
	default:
		out.Summary = fmt.Sprintf("%d of %d tracked items expire within a week; it is %s, so use them first.",
			urgent, len(f.Items), f.Season.Season)
	}
	return out
}

// Nutrients reports deficient nutrients and suggests catalog foods from the
// categories that supply them.
func (e *Engine) Nutrients(f features.NutrientFeatures, catalog []food.CatalogOption) insight.NutrientAdvice {
	out := insight.NutrientAdvice{
		Gaps:            []insight.GapAdvice{},
		Recommendations: []insight.FoodSuggestion{},
	}

	seen := map[string]int{}
	for _, g := range f.Deficient() {
		out.Gaps = append(out.Gaps, insight.GapAdvice{
			Nutrient:      string(g.Nutrient),
			DeficiencyPct: measure.Round(g.DeficiencyPct, 1),
			Severity:      string(g.Severity),
			Note:          fmt.Sprintf("Averaging %.0f%% below the daily target.", g.DeficiencyPct),
		})

		for _, opt := range firstN(e.suppliers(g, catalog), 2) {
			if i, ok := seen[strings.ToLower(opt.Name)]; ok {
				out.Recommendations[i].Nutrients = append(out.Recommendations[i].Nutrients, string(g.Nutrient))
				continue
			}
			seen[strings.ToLower(opt.Name)] = len(out.Recommendations)
			out.Recommendations = append(out.Recommendations, insight.FoodSuggestion{
				Name:      opt.Name,
				Category:  string(opt.Category),
				Nutrients: []string{string(g.Nutrient)},
				Reason:    fmt.Sprintf("A %s source of %s.", opt.Category, g.Nutrient),
			})
		}
	}
	return out
}

// suppliers returns the catalog options from the categories that supply g,
// cheapest first.
func (e *Engine) suppliers(g insight.GapAssessment, catalog []food.CatalogOption) []food.CatalogOption {
	sources := g.Sources
	if len(sources) == 0 {
		sources = []food.Category{food.CategoryGrains, food.CategoryProtein}
	}
	var out []food.CatalogOption
	for _, opt := range catalog {
		for _, c := range sources {
			if opt.Category == c {
				out = append(out, opt)
				break
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UnitCost < out[j].UnitCost })
	return out
}

func firstN(opts []food.CatalogOption, n int) []food.CatalogOption {
	if len(opts) > n {
		return opts[:n]
	}
	return opts
}

// Patterns describes habits and lists imbalanced categories.
func (e *Engine) Patterns(f features.PatternFeatures) insight.PatternAdvice {
	out := insight.PatternAdvice{
		Insights:   []string{},
		Imbalances: []insight.ImbalanceAdvice{},
	}
	if f.DaysLogged == 0 {
		return out
	}

	out.Insights = append(out.Insights,
		fmt.Sprintf("You ate from %.1f food categories per day across %d logged days.", f.Diversity, f.DaysLogged))
	if f.SkippedBreakfastRate >= 0.3 {
		out.Insights = append(out.Insights,
			fmt.Sprintf("Breakfast was skipped on %.0f%% of logged days.", f.SkippedBreakfastRate*100))
	}

	for _, c := range f.Imbalanced() {
		note := fmt.Sprintf("Eaten on %.0f%% of days; aim for about %.0f%%.", c.Frequency*100, c.RecommendedFrequency*100)
		out.Imbalances = append(out.Imbalances, insight.ImbalanceAdvice{
			Category: string(c.Category),
			Severity: string(c.Severity),
			Note:     note,
		})
		if c.Severity == insight.SeveritySevere {
			where := "below"
			if c.Direction == insight.DirectionOver {
				where = "above"
			}
			out.Insights = append(out.Insights, fmt.Sprintf("Intake of %s is well %s the recommended frequency.", c.Category, where))
		}
	}
	return out
}

// Impact passes the deterministic scores through and picks storage tips for
// the categories with the most cost at risk.
func (e *Engine) Impact(f features.ImpactFeatures) insight.ImpactAdvice {
	out := insight.ImpactAdvice{Scores: f.Scores, Tips: []string{}}
	if f.Empty() {
		return out
	}

	seen := map[food.Category]bool{}
	for _, it := range f.Items {
		if it.WasteFraction <= 0 || seen[it.Category] {
			continue
		}
		seen[it.Category] = true
		out.Tips = append(out.Tips, e.table.Profile(it.Category).StorageTip)
		if len(out.Tips) == 3 {
			break
		}
	}
	if f.WasteRate > features.BaselineWasteRate {
		out.Tips = append(out.Tips, "Buy smaller quantities of fresh food more often.")
	}
	return out
}

// Shopping proposes catalog purchases for nutrient gaps and under-eaten
// categories. Quantities scale with household size. Each gap fills up to two
// slots with buyable options: avoided items are passed over, and items the
// pantry already covers are listed without taking a slot.
func (e *Engine) Shopping(f features.ShoppingFeatures) insight.ShoppingAdvice {
	out := insight.ShoppingAdvice{Recommendations: []insight.PurchaseAdvice{}}
	if len(f.Catalog) == 0 {
		return out
	}

	qty := float64(f.HouseholdSize)
	if qty < 1 {
		qty = 1
	}
	seen := map[string]bool{}
	add := func(opt food.CatalogOption, urgency insight.Urgency, reason string) {
		key := strings.ToLower(opt.Name)
		if seen[key] {
			return
		}
		seen[key] = true
		out.Recommendations = append(out.Recommendations, insight.PurchaseAdvice{
			Name:     opt.Name,
			Category: string(opt.Category),
			Quantity: qty,
			Unit:     opt.Unit,
			UnitCost: opt.UnitCost,
			Urgency:  string(urgency),
			Reason:   reason,
		})
	}
	fill := func(opts []food.CatalogOption, slots int, urgency insight.Urgency, reason string) {
		for _, opt := range opts {
			if slots == 0 {
				return
			}
			if features.Avoids(opt.Name, f.Avoided) {
				continue
			}
			add(opt, urgency, reason)
			if !features.HeldEnough(opt.Name, qty, opt.Unit, f.Held) {
				slots--
			}
		}
	}

	for _, g := range f.Gaps {
		fill(e.suppliers(g, f.Catalog), 2, g.Severity.Urgency(), fmt.Sprintf("Closes a %s %s gap.", g.Severity, g.Nutrient))
	}
	for _, c := range f.Underused {
		opts := e.suppliers(insight.GapAssessment{Sources: []food.Category{c}}, f.Catalog)
		fill(opts, 1, insight.UrgencyMedium, fmt.Sprintf("You rarely eat %s.", c))
	}
	return out
}
