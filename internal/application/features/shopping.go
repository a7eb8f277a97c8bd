package features

import (
	"strings"

	"github.com/alchemorsel/pantry/internal/domain/food"
	"github.com/alchemorsel/pantry/internal/domain/insight"
	"github.com/alchemorsel/pantry/internal/domain/measure"
)

// ShoppingFeatures feeds the shopping optimizer.
type ShoppingFeatures struct {
	Horizon       food.BudgetPeriod       `json:"horizon"`
	Budget        float64                 `json:"budget"`
	HouseholdSize int                     `json:"household_size"`
	Expiring      []ItemRisk              `json:"expiring"`
	Gaps          []insight.GapAssessment `json:"gaps"`
	Underused     []food.Category         `json:"underused"`
	Catalog       []food.CatalogOption    `json:"catalog"`
	Held          []food.InventoryRecord  `json:"-"`
	Avoided       []string                `json:"avoided"`
}

// HeldNames lists inventory names for the advisory summary.
func (f ShoppingFeatures) HeldNames() []string {
	out := make([]string, 0, len(f.Held))
	for _, r := range f.Held {
		out = append(out, r.Name)
	}
	return out
}

// NameMatches is the case-insensitive substring match used for dedup and
// avoided ingredients.
func NameMatches(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// FilterHeld drops candidates already held in sufficient quantity and
// returns the names it dropped.
func FilterHeld(candidates []insight.Recommendation, held []food.InventoryRecord) ([]insight.Recommendation, []string) {
	kept := make([]insight.Recommendation, 0, len(candidates))
	var excluded []string
	for _, c := range candidates {
		if HeldEnough(c.Name, c.Quantity, c.Unit, held) {
			excluded = append(excluded, c.Name)
			continue
		}
		kept = append(kept, c)
	}
	return kept, excluded
}

// HeldEnough reports whether held covers qty of name. A held record counts
// only when its name matches and its unit is compatible; the matching
// holdings are summed in base units. An unknown unit is never covered.
func HeldEnough(name string, qty float64, unit string, held []food.InventoryRecord) bool {
	need, dim, err := measure.ToBase(qty, unit)
	if err != nil {
		return false
	}

	var have float64
	for _, h := range held {
		if !NameMatches(h.Name, name) || !measure.AreCompatible(h.Unit, unit) {
			continue
		}
		base := h.BaseQuantity
		if h.BaseUnit != dim {
			if base, _, err = measure.ToBase(h.Quantity, h.Unit); err != nil {
				continue
			}
		}
		have += base
	}
	return have > 0 && have >= need
}

// Avoids reports whether name contains an avoided ingredient.
func Avoids(name string, avoided []string) bool {
	for _, a := range avoided {
		if NameMatches(name, a) {
			return true
		}
	}
	return false
}

// FilterAvoided drops candidates naming an ingredient the user avoids.
func FilterAvoided(candidates []insight.Recommendation, avoided []string) []insight.Recommendation {
	if len(avoided) == 0 {
		return candidates
	}
	out := make([]insight.Recommendation, 0, len(candidates))
	for _, c := range candidates {
		if !Avoids(c.Name, avoided) {
			out = append(out, c)
		}
	}
	return out
}
