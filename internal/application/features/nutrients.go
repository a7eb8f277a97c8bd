package features

import (
	"fmt"

	"github.com/alchemorsel/pantry/internal/domain/food"
	"github.com/alchemorsel/pantry/internal/domain/insight"
)

// FiberFloor is the fixed daily fiber target in grams.
const FiberFloor = 20.0

// TrackedNutrients are the nutrients with a daily target, in report order.
var TrackedNutrients = []food.Nutrient{
	food.NutrientCalories,
	food.NutrientProtein,
	food.NutrientCarbs,
	food.NutrientFat,
	food.NutrientFiber,
}

// Targets derives daily gram targets from the calorie goal and macro split.
// Protein and carbs carry 4 kcal per gram, fat 9.
func Targets(profile food.UserProfile) food.NutrientValues {
	p := profile.WithDefaults()
	return food.NutrientValues{
		food.NutrientCalories: p.CalorieTarget,
		food.NutrientProtein:  p.CalorieTarget * p.ProteinPct / 100 / 4,
		food.NutrientCarbs:    p.CalorieTarget * p.CarbsPct / 100 / 4,
		food.NutrientFat:      p.CalorieTarget * p.FatPct / 100 / 9,
		food.NutrientFiber:    FiberFloor,
	}
}

// DeficiencyPct is the shortfall of actual against target, in [0, 100].
func DeficiencyPct(target, actual float64) float64 {
	if target <= 0 {
		return 0
	}
	return insight.ClampScore((target - actual) / target * 100)
}

// NutrientFeatures feeds the nutrient-gap pipeline.
type NutrientFeatures struct {
	DaysLogged int                     `json:"days_logged"`
	Targets    food.NutrientValues     `json:"targets"`
	Averages   food.NutrientValues     `json:"averages"`
	Gaps       []insight.GapAssessment `json:"gaps"`
}

// DeriveNutrients averages each tracked nutrient over the distinct days that
// recorded it. A nutrient no day recorded gets no average and no gap. With no
// entries it returns no gaps.
func DeriveNutrients(profile food.UserProfile, entries []food.ConsumptionEntry, table food.CategoryTable) NutrientFeatures {
	out := NutrientFeatures{
		Targets:  Targets(profile),
		Averages: food.NutrientValues{},
		Gaps:     []insight.GapAssessment{},
	}

	days := food.DailyTotals(entries)
	out.DaysLogged = len(days)
	if out.DaysLogged == 0 {
		return out
	}

	totals := food.NutrientValues{}
	recorded := map[food.Nutrient]int{}
	for _, d := range days {
		totals.Add(d.Totals)
		for n := range d.Totals {
			recorded[n]++
		}
	}

	for _, n := range TrackedNutrients {
		if recorded[n] == 0 {
			continue
		}
		target := out.Targets[n]
		actual := totals[n] / float64(recorded[n])
		out.Averages[n] = actual

		pct := DeficiencyPct(target, actual)
		out.Gaps = append(out.Gaps, insight.GapAssessment{
			Nutrient:      n,
			Target:        target,
			Actual:        actual,
			DeficiencyPct: pct,
			Severity:      insight.SeverityFor(pct),
			Sources:       table.SourcesOf(n),
			Rationale: []string{
				fmt.Sprintf("averaged %.1f against a target of %.1f over %d logged days", actual, target, recorded[n]),
			},
		})
	}
	return out
}

// Deficient returns gaps worse than optimal.
func (f NutrientFeatures) Deficient() []insight.GapAssessment {
	var out []insight.GapAssessment
	for _, g := range f.Gaps {
		if g.Severity != insight.SeverityOptimal {
			out = append(out, g)
		}
	}
	return out
}
