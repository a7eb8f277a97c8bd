package insights

import (
	"context"
	"fmt"
	"strings"

	"github.com/alchemorsel/pantry/internal/application/allocator"
	"github.com/alchemorsel/pantry/internal/application/fallback"
	"github.com/alchemorsel/pantry/internal/application/features"
	"github.com/alchemorsel/pantry/internal/domain/food"
	"github.com/alchemorsel/pantry/internal/domain/insight"
	"github.com/alchemorsel/pantry/internal/domain/measure"
	"github.com/alchemorsel/pantry/internal/infrastructure/monitoring"
)

type shoppingStrategy struct {
	horizon  food.BudgetPeriod
	enricher *Enricher
	metrics  *monitoring.MetricsCollector
}

func newShoppingStrategy(horizon food.BudgetPeriod, enricher *Enricher, metrics *monitoring.MetricsCollector) Strategy[features.ShoppingFeatures, insight.ShoppingAdvice, *insight.ShoppingReport] {
	return shoppingStrategy{horizon: horizon, enricher: enricher, metrics: metrics}
}

func (shoppingStrategy) Kind() insight.Kind { return insight.KindShopping }

func (shoppingStrategy) Bounds() Bounds { return Bounds{Min: 7, Max: 90, Default: 30} }

func (shoppingStrategy) Scope() Scope {
	return Scope{Inventory: true, Catalog: true, Consumption: true}
}

func (s shoppingStrategy) Derive(snap *Snapshot) (features.ShoppingFeatures, error) {
	budget, err := snap.Profile.Budget.ForHorizon(s.horizon)
	if err != nil {
		return features.ShoppingFeatures{}, err
	}
	horizon := s.horizon
	if horizon == "" {
		horizon = food.BudgetMonthly
	}

	patterns, err := features.DerivePatterns(snap.Consumption, snap.Table)
	if err != nil {
		return features.ShoppingFeatures{}, err
	}
	nutrients := features.DeriveNutrients(snap.Profile, snap.Consumption, snap.Table)
	expiration := features.DeriveExpiration(snap.Now, snap.Profile, snap.Inventory, snap.Table)

	expiring := make([]features.ItemRisk, 0, len(expiration.Items))
	for _, it := range expiration.Items {
		if it.Tier == insight.TierCritical || it.Tier == insight.TierHigh {
			expiring = append(expiring, it)
		}
	}

	avoided := snap.Profile.AvoidedIngredients
	if avoided == nil {
		avoided = []string{}
	}
	return features.ShoppingFeatures{
		Horizon:       horizon,
		Budget:        budget,
		HouseholdSize: snap.Profile.HouseholdSize,
		Expiring:      expiring,
		Gaps:          nutrients.Deficient(),
		Underused:     patterns.Underused(),
		Catalog:       snap.Catalog,
		Held:          snap.Inventory,
		Avoided:       avoided,
	}, nil
}

func (shoppingStrategy) Summarize(snap *Snapshot, f features.ShoppingFeatures) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Budget %.2f for a %s plan, household of %d.\n", f.Budget, f.Horizon, f.HouseholdSize)
	if held := f.HeldNames(); len(held) > 0 {
		fmt.Fprintf(&b, "Already in the pantry: %s.\n", strings.Join(held, ", "))
	}
	for _, it := range f.Expiring {
		fmt.Fprintf(&b, "Use soon: %s\n", it.Describe())
	}
	for _, g := range f.Gaps {
		fmt.Fprintf(&b, "Gap: %s %.0f%% short (%s)\n", g.Nutrient, g.DeficiencyPct, g.Severity)
	}
	if len(f.Underused) > 0 {
		cats := make([]string, len(f.Underused))
		for i, c := range f.Underused {
			cats[i] = string(c)
		}
		fmt.Fprintf(&b, "Rarely eaten: %s.\n", strings.Join(cats, ", "))
	}
	if len(f.Avoided) > 0 {
		fmt.Fprintf(&b, "Never suggest: %s.\n", strings.Join(f.Avoided, ", "))
	}
	for _, c := range f.Catalog {
		fmt.Fprintf(&b, "- %s (%s) %.2f per %s\n", c.Name, c.Category, c.UnitCost, c.Unit)
	}
	return b.String()
}

func (shoppingStrategy) Fallback(snap *Snapshot, f features.ShoppingFeatures) insight.ShoppingAdvice {
	return fallback.NewEngine(snap.Table).Shopping(f)
}

// Reconcile drops advisory suggestions that cannot be priced or measured and
// normalizes category and urgency. If nothing usable remains the fallback
// list is used.
func (shoppingStrategy) Reconcile(snap *Snapshot, f features.ShoppingFeatures, advice insight.ShoppingAdvice) insight.ShoppingAdvice {
	out := insight.ShoppingAdvice{Recommendations: []insight.PurchaseAdvice{}}
	for _, r := range advice.Recommendations {
		r.Name = strings.TrimSpace(r.Name)
		if r.Name == "" || r.Quantity <= 0 || r.UnitCost < 0 {
			continue
		}
		if _, err := measure.Lookup(r.Unit); err != nil {
			continue
		}
		cat, _ := food.ParseCategory(r.Category)
		r.Category = string(cat)
		r.Urgency = string(insight.ParseUrgency(r.Urgency))
		out.Recommendations = append(out.Recommendations, r)
	}
	if len(out.Recommendations) == 0 {
		return fallback.NewEngine(snap.Table).Shopping(f)
	}
	return out
}

// Plan filters and allocates the advised purchases, then prices the
// accepted ones.
func (s shoppingStrategy) Plan(ctx context.Context, _ *Snapshot, f features.ShoppingFeatures, advice insight.ShoppingAdvice) insight.ShoppingAdvice {
	plan := allocate(f, advice)
	s.metrics.SkippedCandidates(plan.Skipped)
	s.enricher.Enrich(ctx, plan.Allocations)
	advice.Plan = plan
	return advice
}

// allocate turns advice into candidates, drops avoided and already held
// items and fits the rest into the budget.
func allocate(f features.ShoppingFeatures, advice insight.ShoppingAdvice) *insight.PurchasePlan {
	candidates := make([]insight.Recommendation, 0, len(advice.Recommendations))
	for _, r := range advice.Recommendations {
		cat, _ := food.ParseCategory(r.Category)
		candidates = append(candidates, insight.Recommendation{
			Name:      r.Name,
			Category:  cat,
			Quantity:  r.Quantity,
			Unit:      r.Unit,
			UnitCost:  r.UnitCost,
			TotalCost: measure.Round(r.Quantity*r.UnitCost, 2),
			Urgency:   insight.ParseUrgency(r.Urgency),
			Reason:    r.Reason,
		})
	}

	candidates = features.FilterAvoided(candidates, f.Avoided)
	candidates, held := features.FilterHeld(candidates, f.Held)
	if held == nil {
		held = []string{}
	}

	res := allocator.Allocate(candidates, f.Budget)
	return &insight.PurchasePlan{
		Allocations: res.Allocations,
		Budget:      res.Budget,
		TotalCost:   res.TotalCost,
		Remaining:   res.Remaining,
		Skipped:     res.Skipped,
		AlreadyHeld: held,
	}
}

// Assemble builds the report from the plan. Without a plan the advice is
// allocated here, unpriced.
func (shoppingStrategy) Assemble(_ *Snapshot, f features.ShoppingFeatures, advice insight.ShoppingAdvice, meta insight.Meta) (*insight.ShoppingReport, error) {
	plan := advice.Plan
	if plan == nil {
		plan = allocate(f, advice)
	}

	report := &insight.ShoppingReport{
		Meta:              meta,
		Horizon:           f.Horizon,
		Budget:            measure.Round(plan.Budget, 2),
		Allocations:       plan.Allocations,
		TotalCost:         plan.TotalCost,
		RemainingBudget:   plan.Remaining,
		SkippedCandidates: plan.Skipped,
		AlreadyHeld:       plan.AlreadyHeld,
		UrgencyCounts:     make(map[insight.Urgency]int, len(insight.Urgencies)),
	}
	for _, u := range insight.Urgencies {
		report.UrgencyCounts[u] = 0
	}
	for _, a := range plan.Allocations {
		report.UrgencyCounts[a.Urgency]++
		if a.Price != nil {
			report.PotentialSavings += a.Price.Savings
		}
	}
	report.PotentialSavings = measure.Round(report.PotentialSavings, 2)
	return report, nil
}
