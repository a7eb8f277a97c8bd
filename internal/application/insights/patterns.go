package insights

import (
	"fmt"
	"strings"

	"github.com/alchemorsel/pantry/internal/application/fallback"
	"github.com/alchemorsel/pantry/internal/application/features"
	"github.com/alchemorsel/pantry/internal/domain/food"
	"github.com/alchemorsel/pantry/internal/domain/insight"
)

type patternStrategy struct{}

func newPatternStrategy() Strategy[features.PatternFeatures, insight.PatternAdvice, *insight.PatternReport] {
	return patternStrategy{}
}

func (patternStrategy) Kind() insight.Kind { return insight.KindPatterns }

func (patternStrategy) Bounds() Bounds { return Bounds{Min: 7, Max: 365, Default: 30} }

func (patternStrategy) Scope() Scope { return Scope{Consumption: true} }

func (patternStrategy) Derive(snap *Snapshot) (features.PatternFeatures, error) {
	return features.DerivePatterns(snap.Consumption, snap.Table)
}

func (patternStrategy) Summarize(snap *Snapshot, f features.PatternFeatures) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d entries over %d logged days; %.1f categories per day; breakfast skipped on %.0f%% of days.\n",
		len(snap.Consumption), f.DaysLogged, f.Diversity, f.SkippedBreakfastRate*100)
	for _, c := range f.Categories {
		fmt.Fprintf(&b, "- %s: on %.0f%% of days (recommended %.0f%%), %s\n",
			c.Category, c.Frequency*100, c.RecommendedFrequency*100, strings.Join(c.DailyAverage, " + "))
	}
	return b.String()
}

func (patternStrategy) Fallback(snap *Snapshot, f features.PatternFeatures) insight.PatternAdvice {
	return fallback.NewEngine(snap.Table).Patterns(f)
}

// Reconcile keeps advisory insights and notes but only for categories the
// features mark as imbalanced, with severity taken from the features.
func (patternStrategy) Reconcile(snap *Snapshot, f features.PatternFeatures, advice insight.PatternAdvice) insight.PatternAdvice {
	heuristic := fallback.NewEngine(snap.Table).Patterns(f)

	notes := make(map[food.Category]string, len(advice.Imbalances))
	for _, im := range advice.Imbalances {
		cat, ok := food.ParseCategory(im.Category)
		if !ok {
			continue
		}
		notes[cat] = strings.TrimSpace(im.Note)
	}
	fallbackNotes := make(map[string]string, len(heuristic.Imbalances))
	for _, im := range heuristic.Imbalances {
		fallbackNotes[im.Category] = im.Note
	}

	out := insight.PatternAdvice{
		Insights:   []string{},
		Imbalances: []insight.ImbalanceAdvice{},
	}
	for _, s := range advice.Insights {
		if s = strings.TrimSpace(s); s != "" {
			out.Insights = append(out.Insights, s)
		}
	}
	if len(out.Insights) == 0 {
		out.Insights = heuristic.Insights
	}

	for _, c := range f.Imbalanced() {
		note := notes[c.Category]
		if note == "" {
			note = fallbackNotes[string(c.Category)]
		}
		out.Imbalances = append(out.Imbalances, insight.ImbalanceAdvice{
			Category: string(c.Category),
			Severity: string(c.Severity),
			Note:     note,
		})
	}
	return out
}

func (patternStrategy) Assemble(_ *Snapshot, f features.PatternFeatures, advice insight.PatternAdvice, meta insight.Meta) (*insight.PatternReport, error) {
	report := &insight.PatternReport{
		Meta:                 meta,
		DaysLogged:           f.DaysLogged,
		Categories:           f.Categories,
		Imbalances:           []insight.ImbalanceAssessment{},
		Insights:             advice.Insights,
		DiversityScore:       f.Diversity,
		MealSlotDistribution: f.MealSlots,
		SkippedBreakfastRate: f.SkippedBreakfastRate,
		SeverityCounts:       make(map[insight.Severity]int, len(insight.Severities)),
	}
	for _, s := range insight.Severities {
		report.SeverityCounts[s] = 0
	}
	if report.Insights == nil {
		report.Insights = []string{}
	}

	notes := make(map[string]string, len(advice.Imbalances))
	for _, im := range advice.Imbalances {
		notes[im.Category] = im.Note
	}
	for _, c := range f.Categories {
		report.SeverityCounts[c.Severity]++
		if c.Severity == insight.SeverityOptimal {
			continue
		}
		if note := notes[string(c.Category)]; note != "" {
			c.Rationale = append(append([]string{}, c.Rationale...), note)
		}
		report.Imbalances = append(report.Imbalances, c)
	}
	return report, nil
}
