// Package features computes the deterministic signals every analysis
// pipeline starts from. Everything here is pure: same records in, same
// features out.
package features

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/alchemorsel/pantry/internal/domain/food"
	"github.com/alchemorsel/pantry/internal/domain/insight"
)

// ItemRisk is the deterministic expiration signal for one record.
type ItemRisk struct {
	Record              food.InventoryRecord `json:"-"`
	Name                string               `json:"name"`
	Category            food.Category        `json:"category"`
	DaysUntilExpiration int                  `json:"days_until_expiration"`
	AgeDays             int                  `json:"age_days"`
	Multiplier          float64              `json:"seasonal_multiplier"`
	Rationale           string               `json:"-"`
	Tier                insight.RiskTier     `json:"tier"`
	StorageTip          string               `json:"-"`
}

// ExpirationFeatures feeds the expiration pipeline.
type ExpirationFeatures struct {
	Season insight.SeasonalContext `json:"season"`
	Items  []ItemRisk              `json:"items"`
}

// DeriveExpiration computes days left, age, seasonal multiplier and tier for
// every record that carries an expiration date. Items come back most urgent
// first.
func DeriveExpiration(now time.Time, profile food.UserProfile, inventory []food.InventoryRecord, table food.CategoryTable) ExpirationFeatures {
	season := insight.NewSeasonalContext(now, profile.Location, table)
	out := ExpirationFeatures{Season: season, Items: make([]ItemRisk, 0, len(inventory))}

	for _, rec := range inventory {
		days, ok := rec.DaysUntilExpiration(now)
		if !ok {
			continue
		}
		m := season.Multiplier(rec.Category)
		out.Items = append(out.Items, ItemRisk{
			Record:              rec,
			Name:                rec.Name,
			Category:            rec.Category,
			DaysUntilExpiration: days,
			AgeDays:             rec.AgeDays(now),
			Multiplier:          m.Multiplier,
			Rationale:           m.Rationale,
			Tier:                insight.TierFor(days),
			StorageTip:          table.Profile(rec.Category).StorageTip,
		})
	}

	sort.SliceStable(out.Items, func(i, j int) bool {
		a, b := out.Items[i], out.Items[j]
		if a.DaysUntilExpiration != b.DaysUntilExpiration {
			return a.DaysUntilExpiration < b.DaysUntilExpiration
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
	return out
}

// ByName indexes items by lower-cased name.
func (f ExpirationFeatures) ByName() map[string]ItemRisk {
	idx := make(map[string]ItemRisk, len(f.Items))
	for _, it := range f.Items {
		idx[strings.ToLower(strings.TrimSpace(it.Name))] = it
	}
	return idx
}

// Describe is a one-line human summary used in advisory requests.
func (it ItemRisk) Describe() string {
	return fmt.Sprintf("%s (%s): %g %s, %d days left, age %d days, seasonal x%.2f",
		it.Name, it.Category, it.Record.Quantity, it.Record.Unit, it.DaysUntilExpiration, it.AgeDays, it.Multiplier)
}
