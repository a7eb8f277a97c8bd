package insights

import (
	"fmt"
	"strings"

	"github.com/alchemorsel/pantry/internal/application/fallback"
	"github.com/alchemorsel/pantry/internal/application/features"
	"github.com/alchemorsel/pantry/internal/domain/insight"
	"github.com/alchemorsel/pantry/internal/domain/measure"
)

type impactStrategy struct{}

func newImpactStrategy() Strategy[features.ImpactFeatures, insight.ImpactAdvice, *insight.ImpactReport] {
	return impactStrategy{}
}

func (impactStrategy) Kind() insight.Kind { return insight.KindImpact }

func (impactStrategy) Bounds() Bounds { return Bounds{Min: 7, Max: 365, Default: 30} }

func (impactStrategy) Scope() Scope { return Scope{Inventory: true, Consumption: true} }

func (impactStrategy) Derive(snap *Snapshot) (features.ImpactFeatures, error) {
	return features.DeriveImpact(snap.Now, snap.Inventory, snap.Consumption, snap.WindowDays, snap.Table)
}

func (impactStrategy) Summarize(snap *Snapshot, f features.ImpactFeatures) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Household of %d. Projected waste rate %.0f%% (baseline %.0f%%), %.2f kg CO2e and %.2f at risk.\n",
		snap.Profile.HouseholdSize, f.WasteRate*100, features.BaselineWasteRate*100, f.CarbonKg, f.CostAtRisk)
	for _, it := range f.Items {
		fmt.Fprintf(&b, "- %s (%s): %d days left, %.0f%% likely wasted (%s)\n",
			it.Name, it.Category, it.DaysLeft, it.WasteFraction*100, it.Basis)
	}
	return b.String()
}

func (impactStrategy) Fallback(snap *Snapshot, f features.ImpactFeatures) insight.ImpactAdvice {
	return fallback.NewEngine(snap.Table).Impact(f)
}

// Reconcile clamps every advisory score. With nothing to score it returns the
// fallback's zero result.
func (impactStrategy) Reconcile(snap *Snapshot, f features.ImpactFeatures, advice insight.ImpactAdvice) insight.ImpactAdvice {
	heuristic := fallback.NewEngine(snap.Table).Impact(f)
	if f.Empty() {
		return heuristic
	}

	out := insight.ImpactAdvice{
		Scores: insight.ImpactScores{
			Sustainability: measure.Round(insight.ClampScore(advice.Scores.Sustainability), 1),
			ZeroHunger:     measure.Round(insight.ClampScore(advice.Scores.ZeroHunger), 1),
			Responsible:    measure.Round(insight.ClampScore(advice.Scores.Responsible), 1),
			Climate:        measure.Round(insight.ClampScore(advice.Scores.Climate), 1),
		},
		Tips: []string{},
	}
	for _, t := range advice.Tips {
		if t = strings.TrimSpace(t); t != "" {
			out.Tips = append(out.Tips, t)
		}
	}
	if len(out.Tips) == 0 {
		out.Tips = heuristic.Tips
	}
	return out
}

func (impactStrategy) Assemble(_ *Snapshot, f features.ImpactFeatures, advice insight.ImpactAdvice, meta insight.Meta) (*insight.ImpactReport, error) {
	report := &insight.ImpactReport{
		Meta:          meta,
		WasteRate:     f.WasteRate,
		ReductionRate: f.ReductionRate,
		Scores:        advice.Scores,
		CarbonKg:      f.CarbonKg,
		CostAtRisk:    f.CostAtRisk,
		Items:         f.Items,
		Tips:          advice.Tips,
	}
	if report.Tips == nil {
		report.Tips = []string{}
	}
	return report, nil
}
