package features

import (
	"fmt"
	"math"
	"sort"

	"github.com/alchemorsel/pantry/internal/domain/food"
	"github.com/alchemorsel/pantry/internal/domain/insight"
	"github.com/alchemorsel/pantry/internal/domain/measure"
)

// PatternFeatures feeds the consumption-pattern pipeline.
type PatternFeatures struct {
	DaysLogged           int                           `json:"days_logged"`
	Categories           []insight.ImbalanceAssessment `json:"categories"`
	Diversity            float64                       `json:"diversity"`
	MealSlots            map[food.MealSlot]float64     `json:"meal_slots"`
	SkippedBreakfastRate float64                       `json:"skipped_breakfast_rate"`
}

type categoryUsage struct {
	entries int
	days    map[string]struct{}
	base    map[measure.Dimension]float64
}

// DerivePatterns computes per-category daily averages, frequency against the
// table's recommended frequency, dietary diversity and meal-slot habits.
// An unknown unit on any entry is returned as an error.
func DerivePatterns(entries []food.ConsumptionEntry, table food.CategoryTable) (PatternFeatures, error) {
	out := PatternFeatures{
		Categories: []insight.ImbalanceAssessment{},
		MealSlots:  make(map[food.MealSlot]float64, len(food.MealSlots)),
	}
	for _, slot := range food.MealSlots {
		out.MealSlots[slot] = 0
	}
	if len(entries) == 0 {
		return out, nil
	}

	usage := make(map[food.Category]*categoryUsage)
	perDay := make(map[string]map[food.Category]struct{})
	breakfastDays := make(map[string]struct{})
	slotCounts := make(map[food.MealSlot]int)

	for _, e := range entries {
		base, dim, err := e.BaseQuantity()
		if err != nil {
			return PatternFeatures{}, err
		}
		day := e.DayKey()
		cat := e.Category
		if !cat.Valid() {
			cat = food.CategoryOther
		}

		u, ok := usage[cat]
		if !ok {
			u = &categoryUsage{days: map[string]struct{}{}, base: map[measure.Dimension]float64{}}
			usage[cat] = u
		}
		u.entries++
		u.days[day] = struct{}{}
		u.base[dim] += base

		if perDay[day] == nil {
			perDay[day] = map[food.Category]struct{}{}
		}
		perDay[day][cat] = struct{}{}

		slot := food.ParseMealSlot(string(e.MealSlot))
		slotCounts[slot]++
		if slot == food.MealBreakfast {
			breakfastDays[day] = struct{}{}
		}
	}

	out.DaysLogged = len(perDay)
	days := float64(out.DaysLogged)

	var distinct int
	for _, cats := range perDay {
		distinct += len(cats)
	}
	out.Diversity = measure.Round(float64(distinct)/days, 2)

	for slot, n := range slotCounts {
		out.MealSlots[slot] = measure.Round(float64(n)/float64(len(entries)), 3)
	}
	out.SkippedBreakfastRate = measure.Round(1-float64(len(breakfastDays))/days, 3)

	for _, c := range food.Categories {
		rec := table.Profile(c).RecommendedFrequency
		u := usage[c]
		if u == nil && rec <= 0 {
			continue
		}

		var freq, perDayEntries float64
		var averages []string
		if u != nil {
			freq = float64(len(u.days)) / days
			perDayEntries = float64(u.entries) / days
			averages = formatDaily(u.base, days)
		}

		deviation := 0.0
		if rec > 0 {
			deviation = insight.ClampScore(math.Abs(freq-rec) / rec * 100)
		}
		severity := insight.SeverityFor(deviation)
		direction := insight.DirectionBalanced
		if severity != insight.SeverityOptimal {
			if freq < rec {
				direction = insight.DirectionUnder
			} else {
				direction = insight.DirectionOver
			}
		}

		out.Categories = append(out.Categories, insight.ImbalanceAssessment{
			Category:             c,
			EntriesPerDay:        measure.Round(perDayEntries, 2),
			DailyAverage:         averages,
			Frequency:            measure.Round(freq, 3),
			RecommendedFrequency: rec,
			DeviationPct:         measure.Round(deviation, 1),
			Severity:             severity,
			Direction:            direction,
			Rationale: []string{
				fmt.Sprintf("eaten on %.0f%% of logged days against a recommended %.0f%%", freq*100, rec*100),
			},
		})
	}
	return out, nil
}

// Imbalanced returns categories worse than optimal.
func (f PatternFeatures) Imbalanced() []insight.ImbalanceAssessment {
	var out []insight.ImbalanceAssessment
	for _, c := range f.Categories {
		if c.Severity != insight.SeverityOptimal {
			out = append(out, c)
		}
	}
	return out
}

// Underused returns categories eaten less often than recommended.
func (f PatternFeatures) Underused() []food.Category {
	var out []food.Category
	for _, c := range f.Categories {
		if c.Direction == insight.DirectionUnder {
			out = append(out, c.Category)
		}
	}
	return out
}

func formatDaily(base map[measure.Dimension]float64, days float64) []string {
	dims := make([]string, 0, len(base))
	for d := range base {
		dims = append(dims, string(d))
	}
	sort.Strings(dims)

	out := make([]string, 0, len(dims))
	for _, d := range dims {
		dim := measure.Dimension(d)
		s, err := measure.Format(base[dim]/days, dim.BaseUnit())
		if err != nil {
			continue
		}
		out = append(out, s)
	}
	return out
}
