package features

import (
	"sort"
	"time"

	"github.com/alchemorsel/pantry/internal/domain/food"
	"github.com/alchemorsel/pantry/internal/domain/insight"
	"github.com/alchemorsel/pantry/internal/domain/measure"
)

const (
	// BaselineWasteRate is the household waste rate a score of 50 corresponds to.
	BaselineWasteRate = 0.30
	// countMassKg approximates one counted piece as 100 g for carbon estimates.
	countMassKg = 0.1
	// carbonPenalty is climate score points lost per kg CO2e wasted.
	carbonPenalty = 5.0
)

// ConsumptionRates is base quantity eaten per day, by category and dimension.
type ConsumptionRates map[food.Category]map[measure.Dimension]float64

// DailyRates spreads the window's consumption evenly over windowDays.
func DailyRates(entries []food.ConsumptionEntry, windowDays int) (ConsumptionRates, error) {
	rates := ConsumptionRates{}
	if windowDays <= 0 {
		return rates, nil
	}
	for _, e := range entries {
		base, dim, err := e.BaseQuantity()
		if err != nil {
			return nil, err
		}
		if rates[e.Category] == nil {
			rates[e.Category] = map[measure.Dimension]float64{}
		}
		rates[e.Category][dim] += base / float64(windowDays)
	}
	return rates, nil
}

// ImpactFeatures feeds the sustainability pipeline.
type ImpactFeatures struct {
	Items              []insight.WasteEstimate `json:"items"`
	WasteRate          float64                 `json:"waste_rate"`
	ReductionRate      float64                 `json:"reduction_rate"`
	CostAtRisk         float64                 `json:"cost_at_risk"`
	CarbonKg           float64                 `json:"carbon_kg"`
	CategoriesConsumed int                     `json:"categories_consumed"`
	Scores             insight.ImpactScores    `json:"scores"`
}

// Empty reports whether there was nothing to score.
func (f ImpactFeatures) Empty() bool {
	return len(f.Items) == 0 && f.CategoriesConsumed == 0
}

// DeriveImpact projects waste per item from consumption rates and shelf life
// and turns the cost-weighted waste rate into bounded scores.
func DeriveImpact(now time.Time, inventory []food.InventoryRecord, entries []food.ConsumptionEntry, windowDays int, table food.CategoryTable) (ImpactFeatures, error) {
	out := ImpactFeatures{Items: []insight.WasteEstimate{}}

	rates, err := DailyRates(entries, windowDays)
	if err != nil {
		return ImpactFeatures{}, err
	}
	for c := range rates {
		if c != food.CategoryOther {
			out.CategoriesConsumed++
		}
	}

	var totalCost, weighted, plainSum float64
	for _, rec := range inventory {
		base, dim := rec.BaseQuantity, rec.BaseUnit
		if dim == "" {
			base, dim, err = measure.ToBase(rec.Quantity, rec.Unit)
			if err != nil {
				return ImpactFeatures{}, err
			}
		}
		if base <= 0 {
			continue
		}

		prof := table.Profile(rec.Category)
		daysLeft, ok := rec.DaysUntilExpiration(now)
		if !ok {
			daysLeft = prof.ShelfLifeDays - rec.AgeDays(now)
		}

		est := insight.WasteEstimate{
			ItemID:   rec.ID,
			Name:     rec.Name,
			Category: rec.Category,
			DaysLeft: daysLeft,
		}
		rate := rates[rec.Category][dim]
		switch {
		case daysLeft <= 0:
			est.WasteFraction = 1
			est.Basis = "expired"
		case rate > 0:
			est.DailyUse = rate
			est.WasteFraction = insight.Clamp(1-rate*float64(daysLeft)/base, 0, 1)
			est.Basis = "consumption rate"
		default:
			est.WasteFraction = prof.TypicalWasteFraction
			est.Basis = "category typical waste"
		}

		cost := rec.TotalCost()
		est.CostAtRisk = measure.Round(est.WasteFraction*cost, 2)
		est.CarbonKg = measure.Round(est.WasteFraction*massKg(base, dim)*prof.CarbonKgPerKg, 3)
		est.WasteFraction = measure.Round(est.WasteFraction, 3)

		totalCost += cost
		weighted += est.WasteFraction * cost
		plainSum += est.WasteFraction
		out.CostAtRisk += est.CostAtRisk
		out.CarbonKg += est.CarbonKg
		out.Items = append(out.Items, est)
	}

	sort.SliceStable(out.Items, func(i, j int) bool {
		return out.Items[i].CostAtRisk > out.Items[j].CostAtRisk
	})

	if out.Empty() {
		return out, nil
	}

	switch {
	case totalCost > 0:
		out.WasteRate = weighted / totalCost
	case len(out.Items) > 0:
		out.WasteRate = plainSum / float64(len(out.Items))
	}
	out.WasteRate = measure.Round(insight.Clamp(out.WasteRate, 0, 1), 3)
	out.ReductionRate = measure.Round((BaselineWasteRate-out.WasteRate)/BaselineWasteRate, 3)
	out.CostAtRisk = measure.Round(out.CostAtRisk, 2)
	out.CarbonKg = measure.Round(out.CarbonKg, 3)
	out.Scores = ScoreImpact(out.WasteRate, out.CarbonKg, out.CategoriesConsumed)
	return out, nil
}

// ScoreImpact turns waste, carbon and diversity into SDG-style scores.
func ScoreImpact(wasteRate, carbonKg float64, categoriesConsumed int) insight.ImpactScores {
	reduction := (BaselineWasteRate - wasteRate) / BaselineWasteRate
	return insight.ImpactScores{
		Sustainability: measure.Round(insight.ClampScore(50+50*reduction), 1),
		ZeroHunger:     measure.Round(insight.ClampScore(float64(categoriesConsumed)/float64(len(food.Categories)-1)*100), 1),
		Responsible:    measure.Round(insight.ClampScore(100*(1-wasteRate)), 1),
		Climate:        measure.Round(insight.ClampScore(100-carbonKg*carbonPenalty), 1),
	}
}

func massKg(base float64, dim measure.Dimension) float64 {
	switch dim {
	case measure.DimensionMass, measure.DimensionVolume:
		return base / 1000
	default:
		return base * countMassKg
	}
}
