package insights

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alchemorsel/pantry/internal/application/fallback"
	"github.com/alchemorsel/pantry/internal/application/features"
	"github.com/alchemorsel/pantry/internal/domain/insight"
	"github.com/alchemorsel/pantry/internal/domain/measure"
)

// topRisks is how many items the expiration report highlights.
const topRisks = 5

type expirationStrategy struct{}

func newExpirationStrategy() Strategy[features.ExpirationFeatures, insight.ExpirationAdvice, *insight.ExpirationReport] {
	return expirationStrategy{}
}

func (expirationStrategy) Kind() insight.Kind { return insight.KindExpiration }

func (expirationStrategy) Bounds() Bounds { return Bounds{Min: 7, Max: 90, Default: 14} }

func (expirationStrategy) Scope() Scope { return Scope{Inventory: true, ExpirableOnly: true} }

func (expirationStrategy) Derive(snap *Snapshot) (features.ExpirationFeatures, error) {
	return features.DeriveExpiration(snap.Now, snap.Profile, snap.Inventory, snap.Table), nil
}

func (expirationStrategy) Summarize(snap *Snapshot, f features.ExpirationFeatures) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Season: %s (%s). %d items with expiration dates.\n", f.Season.Season, f.Season.Band, len(f.Items))
	for _, it := range f.Items {
		b.WriteString("- ")
		b.WriteString(it.Describe())
		b.WriteByte('\n')
	}
	return b.String()
}

func (expirationStrategy) Fallback(snap *Snapshot, f features.ExpirationFeatures) insight.ExpirationAdvice {
	return fallback.NewEngine(snap.Table).Expiration(f)
}

// Reconcile keeps one prediction per known item in feature order. Scores are
// clamped, tiers and urgency come from days left, unknown items are dropped
// and items the advisory skipped are filled from the fallback.
func (expirationStrategy) Reconcile(snap *Snapshot, f features.ExpirationFeatures, advice insight.ExpirationAdvice) insight.ExpirationAdvice {
	heuristic := fallback.NewEngine(snap.Table).Expiration(f)

	byName := make(map[string]insight.RiskPrediction, len(advice.Predictions))
	for _, p := range advice.Predictions {
		key := strings.ToLower(strings.TrimSpace(p.ItemName))
		if _, dup := byName[key]; !dup {
			byName[key] = p
		}
	}

	out := insight.ExpirationAdvice{
		Predictions: make([]insight.RiskPrediction, 0, len(f.Items)),
		Summary:     strings.TrimSpace(advice.Summary),
	}
	for i, it := range f.Items {
		p, ok := byName[strings.ToLower(strings.TrimSpace(it.Name))]
		if !ok {
			out.Predictions = append(out.Predictions, heuristic.Predictions[i])
			continue
		}
		p.ItemName = it.Name
		p.RiskScore = measure.Round(insight.ClampScore(p.RiskScore), 1)
		p.RiskTier = string(it.Tier)
		p.Urgency = string(it.Tier.Urgency())
		if strings.TrimSpace(p.Recommendation) == "" {
			p.Recommendation = fallback.TierAction(it.Tier)
		}
		out.Predictions = append(out.Predictions, p)
	}
	if out.Summary == "" {
		out.Summary = heuristic.Summary
	}
	return out
}

func (expirationStrategy) Assemble(snap *Snapshot, f features.ExpirationFeatures, advice insight.ExpirationAdvice, meta insight.Meta) (*insight.ExpirationReport, error) {
	report := &insight.ExpirationReport{
		Meta:       meta,
		Season:     f.Season,
		Items:      make([]insight.RiskAssessment, 0, len(f.Items)),
		Summary:    advice.Summary,
		TierCounts: make(map[insight.RiskTier]int, len(insight.RiskTiers)),
		TopRisks:   []insight.RiskAssessment{},
	}
	for _, t := range insight.RiskTiers {
		report.TierCounts[t] = 0
	}

	byName := make(map[string]insight.RiskPrediction, len(advice.Predictions))
	for _, p := range advice.Predictions {
		byName[strings.ToLower(p.ItemName)] = p
	}

	for i, it := range f.Items {
		p := byName[strings.ToLower(it.Name)]
		if i < len(advice.Predictions) && strings.EqualFold(advice.Predictions[i].ItemName, it.Name) {
			p = advice.Predictions[i]
		}
		display, err := measure.Format(it.Record.Quantity, it.Record.Unit)
		if err != nil {
			display = fmt.Sprintf("%g %s", it.Record.Quantity, it.Record.Unit)
		}

		rationale := []string{daysLeftText(it.DaysUntilExpiration)}
		if it.Rationale != "" {
			rationale = append(rationale, fmt.Sprintf("%s x%.2f: %s", f.Season.Season, it.Multiplier, it.Rationale))
		}

		a := insight.RiskAssessment{
			ItemID:              it.Record.ID,
			Name:                it.Name,
			Category:            it.Category,
			Quantity:            it.Record.Quantity,
			Unit:                it.Record.Unit,
			DisplayQuantity:     display,
			DaysUntilExpiration: it.DaysUntilExpiration,
			AgeDays:             it.AgeDays,
			SeasonalMultiplier:  it.Multiplier,
			Score:               insight.ClampScore(p.RiskScore),
			Tier:                it.Tier,
			Urgency:             it.Tier.Urgency(),
			Value:               measure.Round(it.Record.TotalCost(), 2),
			StorageTip:          it.StorageTip,
			Action:              p.Recommendation,
			Rationale:           rationale,
		}
		report.Items = append(report.Items, a)
		report.TierCounts[a.Tier]++
		if a.Urgency == insight.UrgencyHigh {
			report.ValueAtRisk += a.Value
		}
	}
	report.ValueAtRisk = measure.Round(report.ValueAtRisk, 2)

	ranked := make([]insight.RiskAssessment, len(report.Items))
	copy(ranked, report.Items)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	if len(ranked) > topRisks {
		ranked = ranked[:topRisks]
	}
	report.TopRisks = append(report.TopRisks, ranked...)
	return report, nil
}

func daysLeftText(days int) string {
	switch {
	case days < 0:
		return fmt.Sprintf("expired %d days ago", -days)
	case days == 0:
		return "expires today"
	case days == 1:
		return "expires tomorrow"
	default:
		return fmt.Sprintf("expires in %d days", days)
	}
}
