// Package insight holds the derived, per-request records the analysis
// pipelines produce: seasonal context, assessments, recommendations, the
// advisory payload schemas and the assembled reports. Nothing here is
// persisted.
package insight

import (
	"math"
	"time"

	"github.com/alchemorsel/pantry/internal/domain/food"
)

// Season is a calendar season at the user's location.
type Season string

const (
	SeasonWinter Season = "winter"
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonAutumn Season = "autumn"
)

var northernSeasons = map[time.Month]Season{
	time.December:  SeasonWinter,
	time.January:   SeasonWinter,
	time.February:  SeasonWinter,
	time.March:     SeasonSpring,
	time.April:     SeasonSpring,
	time.May:       SeasonSpring,
	time.June:      SeasonSummer,
	time.July:      SeasonSummer,
	time.August:    SeasonSummer,
	time.September: SeasonAutumn,
	time.October:   SeasonAutumn,
	time.November:  SeasonAutumn,
}

var opposite = map[Season]Season{
	SeasonWinter: SeasonSummer,
	SeasonSummer: SeasonWinter,
	SeasonSpring: SeasonAutumn,
	SeasonAutumn: SeasonSpring,
}

// SeasonAt returns the season for t, flipped for the southern hemisphere.
func SeasonAt(t time.Time, southern bool) Season {
	s := northernSeasons[t.Month()]
	if southern {
		return opposite[s]
	}
	return s
}

// Band maps a season onto its temperature band.
func (s Season) Band() food.TemperatureBand {
	switch s {
	case SeasonSummer:
		return food.BandWarm
	case SeasonWinter:
		return food.BandCold
	default:
		return food.BandModerate
	}
}

// CategoryMultiplier is the seasonal risk multiplier for one category.
type CategoryMultiplier struct {
	Multiplier float64 `json:"multiplier"`
	Rationale  string  `json:"rationale"`
}

// SeasonalContext is recomputed per request from the date and location.
type SeasonalContext struct {
	Season      Season                               `json:"season"`
	Band        food.TemperatureBand                 `json:"temperature_band"`
	Multipliers map[food.Category]CategoryMultiplier `json:"multipliers"`
}

// NewSeasonalContext builds the context for every category in the table.
func NewSeasonalContext(now time.Time, loc food.Location, table food.CategoryTable) SeasonalContext {
	season := SeasonAt(now, loc.SouthernHemisphere())
	ctx := SeasonalContext{
		Season:      season,
		Band:        season.Band(),
		Multipliers: make(map[food.Category]CategoryMultiplier, len(food.Categories)),
	}
	for _, c := range food.Categories {
		m, why := table.SeasonalMultiplier(c, ctx.Band)
		ctx.Multipliers[c] = CategoryMultiplier{Multiplier: m, Rationale: why}
	}
	return ctx
}

// Multiplier returns the multiplier for c, or 1 when none is known.
func (s SeasonalContext) Multiplier(c food.Category) CategoryMultiplier {
	if m, ok := s.Multipliers[c]; ok && m.Multiplier > 0 {
		return m
	}
	return CategoryMultiplier{Multiplier: 1.0}
}

// RiskTier is the expiration urgency of an item.
type RiskTier string

const (
	TierCritical RiskTier = "critical"
	TierHigh     RiskTier = "high"
	TierMedium   RiskTier = "medium"
	TierLow      RiskTier = "low"
)

// RiskTiers lists tiers from most to least urgent.
var RiskTiers = []RiskTier{TierCritical, TierHigh, TierMedium, TierLow}

// TierFor applies the fixed boundary table. It ignores category.
func TierFor(daysUntilExpiration int) RiskTier {
	switch {
	case daysUntilExpiration <= 3:
		return TierCritical
	case daysUntilExpiration <= 7:
		return TierHigh
	case daysUntilExpiration <= 14:
		return TierMedium
	default:
		return TierLow
	}
}

// Urgency is the three-level priority used for ordering purchases.
type Urgency string

const (
	UrgencyHigh   Urgency = "high"
	UrgencyMedium Urgency = "medium"
	UrgencyLow    Urgency = "low"
)

// Urgencies lists urgencies from most to least urgent.
var Urgencies = []Urgency{UrgencyHigh, UrgencyMedium, UrgencyLow}

// Urgency maps a risk tier onto consumption urgency.
func (t RiskTier) Urgency() Urgency {
	switch t {
	case TierCritical, TierHigh:
		return UrgencyHigh
	case TierMedium:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}

// Rank orders urgencies; higher is more urgent. Unknown values rank lowest.
func (u Urgency) Rank() int {
	switch u {
	case UrgencyHigh:
		return 3
	case UrgencyMedium:
		return 2
	case UrgencyLow:
		return 1
	default:
		return 0
	}
}

// ParseUrgency accepts advisory strings and falls back to low.
func ParseUrgency(s string) Urgency {
	switch Urgency(s) {
	case UrgencyHigh, UrgencyMedium, UrgencyLow:
		return Urgency(s)
	case "critical", "urgent":
		return UrgencyHigh
	default:
		return UrgencyLow
	}
}

// Severity grades a percentage shortfall or deviation.
type Severity string

const (
	SeverityOptimal  Severity = "optimal"
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// Severities lists severities from best to worst.
var Severities = []Severity{SeverityOptimal, SeverityMild, SeverityModerate, SeveritySevere}

// SeverityFor grades pct: optimal below 20, mild up to 40, moderate up to 60,
// severe above.
func SeverityFor(pct float64) Severity {
	switch {
	case pct < 20:
		return SeverityOptimal
	case pct <= 40:
		return SeverityMild
	case pct <= 60:
		return SeverityModerate
	default:
		return SeveritySevere
	}
}

// Urgency maps severity onto purchase urgency.
func (s Severity) Urgency() Urgency {
	switch s {
	case SeveritySevere:
		return UrgencyHigh
	case SeverityModerate:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}

// Clamp bounds v to [lo, hi]. NaN clamps to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampScore bounds a score to [0, 100].
func ClampScore(v float64) float64 {
	return Clamp(v, 0, 100)
}
