// Package allocator fits prioritized purchase candidates into a fixed budget.
package allocator

import (
	"sort"

	"github.com/alchemorsel/pantry/internal/domain/insight"
	"github.com/shopspring/decimal"
)

// MinPurchaseQuantity is the smallest partial quantity worth buying.
const MinPurchaseQuantity = 0.5

var (
	minQty  = decimal.NewFromFloat(MinPurchaseQuantity)
	ten     = decimal.NewFromInt(10)
	hundred = decimal.NewFromInt(100)
)

// Result is the outcome of one allocation run.
type Result struct {
	Allocations []insight.Allocation
	Budget      float64
	TotalCost   float64
	Remaining   float64
	// Skipped counts candidates that were not accepted, whether passed over
	// for being unaffordable or never reached.
	Skipped int
}

// Sort orders candidates by urgency descending, then by cost per unit
// ascending. The input slice is not modified.
func Sort(candidates []insight.Recommendation) []insight.Recommendation {
	out := make([]insight.Recommendation, len(candidates))
	copy(out, candidates)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].Urgency.Rank(), out[j].Urgency.Rank()
		if ri != rj {
			return ri > rj
		}
		return out[i].CostPerUnit() < out[j].CostPerUnit()
	})
	for i := range out {
		out[i].Priority = i + 1
	}
	return out
}

// Allocate walks the sorted candidates, accepting each at full quantity while
// the budget covers it. The first unaffordable candidate is right-sized to the
// largest quantity, floored to one decimal, that fits; if that quantity is at
// least MinPurchaseQuantity it is accepted and allocation stops, otherwise
// the candidate is skipped and the walk continues. The sum of accepted costs
// never exceeds budget.
func Allocate(candidates []insight.Recommendation, budget float64) Result {
	if budget < 0 {
		budget = 0
	}
	total := decimal.NewFromFloat(budget)
	remaining := total
	spent := decimal.Zero

	res := Result{Allocations: []insight.Allocation{}, Budget: budget}
	sorted := Sort(candidates)

	for i, c := range sorted {
		if !remaining.IsPositive() {
			res.Skipped += len(sorted) - i
			break
		}

		qty := decimal.NewFromFloat(c.Quantity)
		unitCost := unitCostOf(c)
		if !qty.IsPositive() || unitCost.IsNegative() {
			res.Skipped++
			continue
		}
		cost := unitCost.Mul(qty)

		if remaining.GreaterThanOrEqual(cost) {
			remaining = remaining.Sub(cost)
			spent = spent.Add(cost)
			res.Allocations = append(res.Allocations, allocation(c, qty, cost, remaining, total, false))
			continue
		}

		reduced := remaining.Div(unitCost).Mul(ten).Floor().Div(ten)
		if reduced.LessThan(minQty) {
			res.Skipped++
			continue
		}

		cost = reduced.Mul(unitCost)
		remaining = remaining.Sub(cost)
		spent = spent.Add(cost)
		res.Allocations = append(res.Allocations, allocation(c, reduced, cost, remaining, total, true))
		res.Skipped += len(sorted) - i - 1
		break
	}

	res.TotalCost = toFloat(spent)
	res.Remaining = toFloat(remaining)
	return res
}

func unitCostOf(c insight.Recommendation) decimal.Decimal {
	if c.UnitCost > 0 {
		return decimal.NewFromFloat(c.UnitCost)
	}
	if c.Quantity > 0 && c.TotalCost > 0 {
		return decimal.NewFromFloat(c.TotalCost).Div(decimal.NewFromFloat(c.Quantity))
	}
	return decimal.NewFromFloat(c.UnitCost)
}

func allocation(c insight.Recommendation, qty, cost, remaining, total decimal.Decimal, partial bool) insight.Allocation {
	pct := decimal.Zero
	if total.IsPositive() {
		pct = cost.Div(total).Mul(hundred).Round(1)
	}
	c.TotalCost = toFloat(unitCostOf(c).Mul(decimal.NewFromFloat(c.Quantity)).Round(2))
	return insight.Allocation{
		Recommendation:  c,
		FinalQuantity:   toFloat(qty),
		FinalCost:       toFloat(cost),
		RemainingBudget: toFloat(remaining),
		BudgetPct:       toFloat(pct),
		Partial:         partial,
	}
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
