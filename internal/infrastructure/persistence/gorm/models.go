// Package gorm provides GORM model definitions and the relational food store
package gorm

import (
	"strings"
	"time"

	"github.com/alchemorsel/pantry/internal/domain/measure"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProfileModel represents the GORM model for user profiles
type ProfileModel struct {
	UserID              uuid.UUID      `gorm:"type:char(36);primaryKey"`
	CalorieTarget       float64        `gorm:"default:0"`
	ProteinPct          float64        `gorm:"default:0"`
	CarbsPct            float64        `gorm:"default:0"`
	FatPct              float64        `gorm:"default:0"`
	HouseholdSize       int            `gorm:"default:1"`
	BudgetAmount        float64        `gorm:"default:0"`
	BudgetPeriod        string         `gorm:"type:varchar(16);default:'monthly'"`
	DietaryRestrictions datatypes.JSON `gorm:"type:json"`
	AvoidedIngredients  datatypes.JSON `gorm:"type:json"`
	City                string         `gorm:"type:varchar(255)"`
	Country             string         `gorm:"type:varchar(255)"`
	Latitude            *float64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// InventoryItemModel represents one pantry item
type InventoryItemModel struct {
	ID             uuid.UUID  `gorm:"type:char(36);primaryKey"`
	UserID         uuid.UUID  `gorm:"type:char(36);not null;index"`
	Name           string     `gorm:"type:varchar(255);not null"`
	Category       string     `gorm:"type:varchar(32);not null;index"`
	Quantity       float64    `gorm:"not null"`
	Unit           string     `gorm:"type:varchar(32);not null"`
	BaseQuantity   float64    `gorm:"not null"`
	BaseUnit       string     `gorm:"type:varchar(16);not null"`
	UnitCost       float64    `gorm:"default:0"`
	ExpirationDate *time.Time `gorm:"index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CatalogItemModel represents a reference shopping option
type CatalogItemModel struct {
	ID            uint    `gorm:"primaryKey;autoIncrement"`
	NameKey       string  `gorm:"type:varchar(255);uniqueIndex;not null"`
	Name          string  `gorm:"type:varchar(255);not null"`
	Category      string  `gorm:"type:varchar(32);not null;index"`
	Unit          string  `gorm:"type:varchar(32);not null"`
	UnitCost      float64 `gorm:"not null"`
	ShelfLifeDays int     `gorm:"default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ConsumptionModel represents one consumption log entry
type ConsumptionModel struct {
	ID         uuid.UUID      `gorm:"type:char(36);primaryKey"`
	UserID     uuid.UUID      `gorm:"type:char(36);not null;index:idx_consumption_user_time,priority:1"`
	ConsumedAt time.Time      `gorm:"not null;index:idx_consumption_user_time,priority:2"`
	Day        string         `gorm:"type:char(10);not null;index"`
	ItemName   string         `gorm:"type:varchar(255);not null"`
	Category   string         `gorm:"type:varchar(32);not null"`
	Quantity   float64        `gorm:"not null"`
	Unit       string         `gorm:"type:varchar(32);not null"`
	MealSlot   string         `gorm:"type:varchar(16)"`
	Nutrients  datatypes.JSON `gorm:"type:json"`
	CreatedAt  time.Time
}

// DailyNutrientTotalModel holds the per-day nutrient sums for a user
type DailyNutrientTotalModel struct {
	UserID    uuid.UUID      `gorm:"type:char(36);primaryKey"`
	Day       string         `gorm:"type:char(10);primaryKey"`
	Entries   int            `gorm:"not null"`
	Totals    datatypes.JSON `gorm:"type:json"`
	UpdatedAt time.Time
}

// BeforeSave recomputes the base quantity so stored values never drift
// from the unit table.
func (m *InventoryItemModel) BeforeSave(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	base, dim, err := measure.ToBase(m.Quantity, m.Unit)
	if err != nil {
		return err
	}
	m.BaseQuantity = base
	m.BaseUnit = string(dim)
	return nil
}

// BeforeSave hook for ConsumptionModel
func (m *ConsumptionModel) BeforeSave(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.ConsumedAt = m.ConsumedAt.UTC()
	m.Day = m.ConsumedAt.Format(dayLayout)
	return nil
}

// BeforeSave hook for CatalogItemModel
func (m *CatalogItemModel) BeforeSave(tx *gorm.DB) error {
	m.NameKey = strings.ToLower(strings.TrimSpace(m.Name))
	return nil
}

// TableName methods for custom table names
func (ProfileModel) TableName() string {
	return "user_profiles"
}

func (InventoryItemModel) TableName() string {
	return "inventory_items"
}

func (CatalogItemModel) TableName() string {
	return "catalog_items"
}

func (ConsumptionModel) TableName() string {
	return "consumption_entries"
}

func (DailyNutrientTotalModel) TableName() string {
	return "daily_nutrient_totals"
}

// AutoMigrate creates or updates every table the food store uses
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&ProfileModel{},
		&InventoryItemModel{},
		&CatalogItemModel{},
		&ConsumptionModel{},
		&DailyNutrientTotalModel{},
	)
}

const dayLayout = "2006-01-02"
