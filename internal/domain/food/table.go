package food

// TemperatureBand groups seasons by how hard they are on perishables.
type TemperatureBand string

const (
	BandWarm     TemperatureBand = "warm"
	BandModerate TemperatureBand = "moderate"
	BandCold     TemperatureBand = "cold"
)

// SeasonalAdjustment scales expiration risk for a category in a band.
type SeasonalAdjustment struct {
	Multiplier float64 `mapstructure:"multiplier" json:"multiplier"`
	Rationale  string  `mapstructure:"rationale" json:"rationale"`
}

// CategoryProfile is every category-keyed constant the heuristics use.
type CategoryProfile struct {
	ShelfLifeDays        int                                    `mapstructure:"shelf_life_days" json:"shelf_life_days"`
	StorageTip           string                                 `mapstructure:"storage_tip" json:"storage_tip"`
	TypicalWasteFraction float64                                `mapstructure:"typical_waste_fraction" json:"typical_waste_fraction"`
	CarbonKgPerKg        float64                                `mapstructure:"carbon_kg_per_kg" json:"carbon_kg_per_kg"`
	RecommendedFrequency float64                                `mapstructure:"recommended_frequency" json:"recommended_frequency"`
	Supplies             []Nutrient                             `mapstructure:"supplies" json:"supplies"`
	Seasonal             map[TemperatureBand]SeasonalAdjustment `mapstructure:"seasonal" json:"seasonal"`
}

// CategoryTable is the single lookup table keyed by category.
type CategoryTable map[Category]CategoryProfile

// DefaultCategoryTable returns the built-in heuristics table.
func DefaultCategoryTable() CategoryTable {
	neutral := func(reason string) SeasonalAdjustment {
		return SeasonalAdjustment{Multiplier: 1.0, Rationale: reason}
	}

	return CategoryTable{
		CategoryFruits: {
			ShelfLifeDays:        7,
			StorageTip:           "Keep ripe fruit refrigerated and away from ethylene producers like bananas.",
			TypicalWasteFraction: 0.35,
			CarbonKgPerKg:        0.7,
			RecommendedFrequency: 0.8,
			Supplies:             []Nutrient{NutrientFiber, NutrientVitaminC, NutrientCarbs},
			Seasonal: map[TemperatureBand]SeasonalAdjustment{
				BandWarm:     {Multiplier: 1.3, Rationale: "Heat speeds up ripening and mould growth."},
				BandModerate: neutral("Mild temperatures keep ripening at its usual pace."),
				BandCold:     {Multiplier: 0.9, Rationale: "Cool kitchens slow ripening."},
			},
		},
		CategoryVegetables: {
			ShelfLifeDays:        10,
			StorageTip:           "Store leafy greens wrapped in a damp towel in the crisper drawer.",
			TypicalWasteFraction: 0.35,
			CarbonKgPerKg:        0.5,
			RecommendedFrequency: 1.0,
			Supplies:             []Nutrient{NutrientFiber, NutrientVitaminC, NutrientIron},
			Seasonal: map[TemperatureBand]SeasonalAdjustment{
				BandWarm:     {Multiplier: 1.2, Rationale: "Greens wilt faster in warm weather."},
				BandModerate: neutral("Moderate weather has little effect on produce."),
				BandCold:     {Multiplier: 0.95, Rationale: "Cold weather slightly extends produce life."},
			},
		},
		CategoryDairy: {
			ShelfLifeDays:        10,
			StorageTip:           "Keep dairy on an inner fridge shelf, not in the door.",
			TypicalWasteFraction: 0.2,
			CarbonKgPerKg:        3.2,
			RecommendedFrequency: 0.6,
			Supplies:             []Nutrient{NutrientCalcium, NutrientProtein, NutrientFat},
			Seasonal: map[TemperatureBand]SeasonalAdjustment{
				BandWarm:     {Multiplier: 1.4, Rationale: "Dairy spoils quickly when the cold chain is stressed by heat."},
				BandModerate: neutral("Dairy risk follows the printed date."),
				BandCold:     {Multiplier: 0.9, Rationale: "Cold weather reduces temperature abuse between store and fridge."},
			},
		},
		CategoryGrains: {
			ShelfLifeDays:        180,
			StorageTip:           "Keep grains in airtight containers; freeze bread you will not finish.",
			TypicalWasteFraction: 0.15,
			CarbonKgPerKg:        1.4,
			RecommendedFrequency: 0.9,
			Supplies:             []Nutrient{NutrientCarbs, NutrientFiber, NutrientIron},
			Seasonal: map[TemperatureBand]SeasonalAdjustment{
				BandWarm:     {Multiplier: 1.1, Rationale: "Humidity invites mould on bread."},
				BandModerate: neutral("Grains are stable in moderate weather."),
				BandCold:     neutral("Grains are stable in cold weather."),
			},
		},
		CategoryProtein: {
			ShelfLifeDays:        4,
			StorageTip:           "Store raw meat and fish on the lowest shelf; freeze what you will not cook within two days.",
			TypicalWasteFraction: 0.15,
			CarbonKgPerKg:        12.0,
			RecommendedFrequency: 0.9,
			Supplies:             []Nutrient{NutrientProtein, NutrientIron, NutrientFat},
			Seasonal: map[TemperatureBand]SeasonalAdjustment{
				BandWarm:     {Multiplier: 1.5, Rationale: "Bacterial growth on fresh protein accelerates sharply in heat."},
				BandModerate: neutral("Protein risk follows the printed date."),
				BandCold:     {Multiplier: 0.8, Rationale: "Cold weather keeps fresh protein safer in transit and storage."},
			},
		},
		CategoryBeverages: {
			ShelfLifeDays:        30,
			StorageTip:           "Refrigerate opened juices and finish them within a week.",
			TypicalWasteFraction: 0.1,
			CarbonKgPerKg:        0.6,
			RecommendedFrequency: 0.5,
			Supplies:             []Nutrient{NutrientVitaminC, NutrientSugar},
			Seasonal: map[TemperatureBand]SeasonalAdjustment{
				BandWarm:     {Multiplier: 1.1, Rationale: "Opened drinks ferment faster in heat."},
				BandModerate: neutral("Beverages are stable in moderate weather."),
				BandCold:     neutral("Beverages are stable in cold weather."),
			},
		},
		CategorySnacks: {
			ShelfLifeDays:        60,
			StorageTip:           "Reseal snack packs to keep them crisp.",
			TypicalWasteFraction: 0.05,
			CarbonKgPerKg:        2.0,
			RecommendedFrequency: 0.3,
			Supplies:             []Nutrient{NutrientSugar, NutrientSodium, NutrientFat},
			Seasonal: map[TemperatureBand]SeasonalAdjustment{
				BandWarm:     {Multiplier: 1.05, Rationale: "Chocolate and oily snacks degrade in heat."},
				BandModerate: neutral("Snacks are stable in moderate weather."),
				BandCold:     neutral("Snacks are stable in cold weather."),
			},
		},
		CategoryOther: {
			ShelfLifeDays:        90,
			StorageTip:           "Store in a cool, dry cupboard.",
			TypicalWasteFraction: 0.1,
			CarbonKgPerKg:        1.0,
			RecommendedFrequency: 0.2,
			Supplies:             nil,
			Seasonal: map[TemperatureBand]SeasonalAdjustment{
				BandWarm:     neutral("No seasonal adjustment for this category."),
				BandModerate: neutral("No seasonal adjustment for this category."),
				BandCold:     neutral("No seasonal adjustment for this category."),
			},
		},
	}
}

// Profile returns the entry for c, falling back to the "other" entry and
// finally to the built-in defaults.
func (t CategoryTable) Profile(c Category) CategoryProfile {
	if p, ok := t[c]; ok {
		return p
	}
	if p, ok := t[CategoryOther]; ok {
		return p
	}
	return DefaultCategoryTable()[CategoryOther]
}

// SeasonalMultiplier returns the risk multiplier and rationale for c in band.
func (t CategoryTable) SeasonalMultiplier(c Category, band TemperatureBand) (float64, string) {
	adj, ok := t.Profile(c).Seasonal[band]
	if !ok || adj.Multiplier <= 0 {
		return 1.0, "No seasonal adjustment for this category."
	}
	return adj.Multiplier, adj.Rationale
}

// SourcesOf lists the categories that supply a nutrient, in table order.
func (t CategoryTable) SourcesOf(n Nutrient) []Category {
	var out []Category
	for _, c := range Categories {
		for _, supplied := range t.Profile(c).Supplies {
			if supplied == n {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// Merge overlays non-zero fields of overrides onto a copy of t.
func (t CategoryTable) Merge(overrides CategoryTable) CategoryTable {
	out := make(CategoryTable, len(t))
	for c, p := range t {
		out[c] = p
	}
	for c, o := range overrides {
		base := out.Profile(c)
		if o.ShelfLifeDays > 0 {
			base.ShelfLifeDays = o.ShelfLifeDays
		}
		if o.StorageTip != "" {
			base.StorageTip = o.StorageTip
		}
		if o.TypicalWasteFraction > 0 {
			base.TypicalWasteFraction = o.TypicalWasteFraction
		}
		if o.CarbonKgPerKg > 0 {
			base.CarbonKgPerKg = o.CarbonKgPerKg
		}
		if o.RecommendedFrequency > 0 {
			base.RecommendedFrequency = o.RecommendedFrequency
		}
		if len(o.Supplies) > 0 {
			base.Supplies = o.Supplies
		}
		if len(o.Seasonal) > 0 {
			seasonal := make(map[TemperatureBand]SeasonalAdjustment, len(base.Seasonal))
			for band, adj := range base.Seasonal {
				seasonal[band] = adj
			}
			for band, adj := range o.Seasonal {
				seasonal[band] = adj
			}
			base.Seasonal = seasonal
		}
		out[c] = base
	}
	return out
}
