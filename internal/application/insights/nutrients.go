package insights

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alchemorsel/pantry/internal/application/fallback"
	"github.com/alchemorsel/pantry/internal/application/features"
	"github.com/alchemorsel/pantry/internal/domain/food"
	"github.com/alchemorsel/pantry/internal/domain/insight"
	"github.com/alchemorsel/pantry/internal/domain/measure"
)

type nutrientStrategy struct{}

func newNutrientStrategy() Strategy[features.NutrientFeatures, insight.NutrientAdvice, *insight.NutrientReport] {
	return nutrientStrategy{}
}

func (nutrientStrategy) Kind() insight.Kind { return insight.KindNutrients }

func (nutrientStrategy) Bounds() Bounds { return Bounds{Min: 7, Max: 90, Default: 30} }

func (nutrientStrategy) Scope() Scope { return Scope{Catalog: true, Consumption: true} }

func (nutrientStrategy) Derive(snap *Snapshot) (features.NutrientFeatures, error) {
	return features.DeriveNutrients(snap.Profile, snap.Consumption, snap.Table), nil
}

func (nutrientStrategy) Summarize(snap *Snapshot, f features.NutrientFeatures) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d consumption entries over %d logged days in a %d-day window.\n",
		len(snap.Consumption), f.DaysLogged, snap.WindowDays)
	if len(snap.Profile.DietaryRestrictions) > 0 {
		fmt.Fprintf(&b, "Dietary restrictions: %s.\n", strings.Join(snap.Profile.DietaryRestrictions, ", "))
	}
	for _, g := range f.Gaps {
		fmt.Fprintf(&b, "- %s: %.1f of %.1f per day (%.0f%% short, %s)\n", g.Nutrient, g.Actual, g.Target, g.DeficiencyPct, g.Severity)
	}
	names := make([]string, 0, len(snap.Catalog))
	for _, c := range snap.Catalog {
		names = append(names, c.Name)
	}
	if len(names) > 0 {
		fmt.Fprintf(&b, "Available foods: %s.\n", strings.Join(names, ", "))
	}
	return b.String()
}

func (nutrientStrategy) Fallback(snap *Snapshot, f features.NutrientFeatures) insight.NutrientAdvice {
	return fallback.NewEngine(snap.Table).Nutrients(f, snap.Catalog)
}

// Reconcile keeps the advisory notes and suggestions but takes deficiency
// and severity from the features. Gaps for untracked or non-deficient
// nutrients are dropped; deficient nutrients the advisory missed are filled
// from the fallback.
func (nutrientStrategy) Reconcile(snap *Snapshot, f features.NutrientFeatures, advice insight.NutrientAdvice) insight.NutrientAdvice {
	heuristic := fallback.NewEngine(snap.Table).Nutrients(f, snap.Catalog)

	notes := make(map[string]string, len(advice.Gaps))
	for _, g := range advice.Gaps {
		notes[strings.ToLower(strings.TrimSpace(g.Nutrient))] = strings.TrimSpace(g.Note)
	}
	fallbackNotes := make(map[string]string, len(heuristic.Gaps))
	for _, g := range heuristic.Gaps {
		fallbackNotes[g.Nutrient] = g.Note
	}

	out := insight.NutrientAdvice{
		Gaps:            []insight.GapAdvice{},
		Recommendations: []insight.FoodSuggestion{},
	}
	for _, g := range f.Deficient() {
		note := notes[string(g.Nutrient)]
		if note == "" {
			note = fallbackNotes[string(g.Nutrient)]
		}
		out.Gaps = append(out.Gaps, insight.GapAdvice{
			Nutrient:      string(g.Nutrient),
			DeficiencyPct: measure.Round(g.DeficiencyPct, 1),
			Severity:      string(g.Severity),
			Note:          note,
		})
	}

	for _, s := range advice.Recommendations {
		if strings.TrimSpace(s.Name) == "" {
			continue
		}
		cat, _ := food.ParseCategory(s.Category)
		s.Category = string(cat)
		if s.Nutrients == nil {
			s.Nutrients = []string{}
		}
		out.Recommendations = append(out.Recommendations, s)
	}
	if len(out.Recommendations) == 0 && len(out.Gaps) > 0 {
		out.Recommendations = heuristic.Recommendations
	}
	return out
}

func (nutrientStrategy) Assemble(snap *Snapshot, f features.NutrientFeatures, advice insight.NutrientAdvice, meta insight.Meta) (*insight.NutrientReport, error) {
	report := &insight.NutrientReport{
		Meta:            meta,
		DaysLogged:      f.DaysLogged,
		Gaps:            make([]insight.GapAssessment, 0, len(f.Gaps)),
		Recommendations: advice.Recommendations,
		SeverityCounts:  make(map[insight.Severity]int, len(insight.Severities)),
		Targets:         f.Targets,
		Averages:        f.Averages,
	}
	for _, s := range insight.Severities {
		report.SeverityCounts[s] = 0
	}
	if report.Recommendations == nil {
		report.Recommendations = []insight.FoodSuggestion{}
	}

	notes := make(map[string]string, len(advice.Gaps))
	for _, g := range advice.Gaps {
		notes[g.Nutrient] = g.Note
	}

	var deficiencySum float64
	for _, g := range f.Gaps {
		if note := notes[string(g.Nutrient)]; note != "" {
			g.Rationale = append(append([]string{}, g.Rationale...), note)
		}
		report.Gaps = append(report.Gaps, g)
		report.SeverityCounts[g.Severity]++
		deficiencySum += g.DeficiencyPct
	}
	sort.SliceStable(report.Gaps, func(i, j int) bool {
		return report.Gaps[i].DeficiencyPct > report.Gaps[j].DeficiencyPct
	})

	if len(f.Gaps) > 0 {
		report.Score = measure.Round(insight.ClampScore(100-deficiencySum/float64(len(f.Gaps))), 1)
	}
	return report, nil
}
