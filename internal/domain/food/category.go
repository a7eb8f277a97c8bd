// Package food contains the pantry domain: inventory, reference catalog,
// consumption history and the user's nutrition and budget profile.
package food

import "strings"

// Category is the closed set of food categories shared by every analysis.
type Category string

const (
	CategoryFruits     Category = "fruits"
	CategoryVegetables Category = "vegetables"
	CategoryDairy      Category = "dairy"
	CategoryGrains     Category = "grains"
	CategoryProtein    Category = "protein"
	CategoryBeverages  Category = "beverages"
	CategorySnacks     Category = "snacks"
	CategoryOther      Category = "other"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryFruits,
	CategoryVegetables,
	CategoryDairy,
	CategoryGrains,
	CategoryProtein,
	CategoryBeverages,
	CategorySnacks,
	CategoryOther,
}

var categoryAliases = map[string]Category{
	"fruit":      CategoryFruits,
	"vegetable":  CategoryVegetables,
	"veg":        CategoryVegetables,
	"veggies":    CategoryVegetables,
	"produce":    CategoryVegetables,
	"milk":       CategoryDairy,
	"cheese":     CategoryDairy,
	"grain":      CategoryGrains,
	"bread":      CategoryGrains,
	"bakery":     CategoryGrains,
	"cereal":     CategoryGrains,
	"meat":       CategoryProtein,
	"fish":       CategoryProtein,
	"seafood":    CategoryProtein,
	"poultry":    CategoryProtein,
	"eggs":       CategoryProtein,
	"legumes":    CategoryProtein,
	"proteins":   CategoryProtein,
	"beverage":   CategoryBeverages,
	"drink":      CategoryBeverages,
	"drinks":     CategoryBeverages,
	"snack":      CategorySnacks,
	"sweets":     CategorySnacks,
	"condiments": CategoryOther,
	"pantry":     CategoryOther,
}

// ParseCategory normalises a free-form category string. Unrecognised input
// maps to CategoryOther with ok=false.
func ParseCategory(s string) (Category, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, c := range Categories {
		if string(c) == key {
			return c, true
		}
	}
	if c, found := categoryAliases[key]; found {
		return c, true
	}
	return CategoryOther, false
}

// Valid reports whether c is one of the closed set.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// MealSlot is the meal a consumption entry was logged against.
type MealSlot string

const (
	MealBreakfast MealSlot = "breakfast"
	MealLunch     MealSlot = "lunch"
	MealDinner    MealSlot = "dinner"
	MealSnack     MealSlot = "snack"
	MealBeverage  MealSlot = "beverage"
)

// MealSlots lists every meal slot in day order.
var MealSlots = []MealSlot{MealBreakfast, MealLunch, MealDinner, MealSnack, MealBeverage}

// ParseMealSlot normalises a meal slot, defaulting to snack.
func ParseMealSlot(s string) MealSlot {
	key := MealSlot(strings.ToLower(strings.TrimSpace(s)))
	for _, slot := range MealSlots {
		if slot == key {
			return slot
		}
	}
	return MealSnack
}
