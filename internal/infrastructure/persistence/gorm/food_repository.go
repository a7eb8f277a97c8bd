package gorm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alchemorsel/pantry/internal/domain/food"
	"github.com/alchemorsel/pantry/internal/ports/outbound"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FoodRepository implements the food store using GORM. It runs unchanged on
// SQLite and PostgreSQL; with dbresolver registered, plain reads go to
// replicas and transactions stay on the primary.
type FoodRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewFoodRepository creates a new food repository
func NewFoodRepository(db *gorm.DB, logger *zap.Logger) *FoodRepository {
	return &FoodRepository{db: db, logger: logger.Named("food-repository")}
}

var _ outbound.FoodRepository = (*FoodRepository)(nil)

// FindProfile finds a profile by user ID
func (r *FoodRepository) FindProfile(ctx context.Context, userID uuid.UUID) (*food.UserProfile, error) {
	var model ProfileModel

	result := r.db.WithContext(ctx).Where("user_id = ?", userID).Limit(1).Find(&model)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find profile: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, food.ErrUserNotFound
	}

	return ModelToProfile(&model)
}

// ListInventory lists a user's items ordered by name
func (r *FoodRepository) ListInventory(ctx context.Context, userID uuid.UUID, filter outbound.InventoryFilter) ([]food.InventoryRecord, error) {
	var models []InventoryItemModel

	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if filter.ExpirableOnly {
		query = query.Where("expiration_date IS NOT NULL")
	}
	if err := query.Order("name ASC, id ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}

	out := make([]food.InventoryRecord, 0, len(models))
	for i := range models {
		out = append(out, ModelToInventory(&models[i]))
	}
	return out, nil
}

// SampleCatalog returns up to limit catalog options in insertion order
func (r *FoodRepository) SampleCatalog(ctx context.Context, limit int) ([]food.CatalogOption, error) {
	var models []CatalogItemModel

	query := r.db.WithContext(ctx).Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to sample catalog: %w", err)
	}

	out := make([]food.CatalogOption, 0, len(models))
	for i := range models {
		out = append(out, ModelToCatalog(&models[i]))
	}
	return out, nil
}

// ListConsumption returns entries with from <= consumed_at < to, oldest first
func (r *FoodRepository) ListConsumption(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]food.ConsumptionEntry, error) {
	var models []ConsumptionModel

	err := r.db.WithContext(ctx).
		Where("user_id = ? AND consumed_at >= ? AND consumed_at < ?", userID, from.UTC(), to.UTC()).
		Order("consumed_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list consumption: %w", err)
	}

	return modelsToEntries(models)
}

// ListDailyTotals returns the stored per-day sums for days in [from, to]
func (r *FoodRepository) ListDailyTotals(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]food.DayTotals, error) {
	var models []DailyNutrientTotalModel

	err := r.db.WithContext(ctx).
		Where("user_id = ? AND day >= ? AND day <= ?", userID, from.UTC().Format(dayLayout), to.UTC().Format(dayLayout)).
		Order("day ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list daily totals: %w", err)
	}

	out := make([]food.DayTotals, 0, len(models))
	for i := range models {
		t, err := ModelToDayTotals(&models[i])
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// SaveProfile validates and upserts a profile
func (r *FoodRepository) SaveProfile(ctx context.Context, profile *food.UserProfile) error {
	if err := profile.Validate(); err != nil {
		return err
	}
	model := ProfileToModel(profile)
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// SaveInventory validates, normalizes and upserts an inventory record
func (r *FoodRepository) SaveInventory(ctx context.Context, record *food.InventoryRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	if err := record.Normalize(); err != nil {
		return err
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	model := InventoryToModel(record)
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save inventory item: %w", err)
	}
	return nil
}

// DeleteInventory deletes an item owned by userID
func (r *FoodRepository) DeleteInventory(ctx context.Context, userID, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Delete(&InventoryItemModel{}, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		return fmt.Errorf("failed to delete inventory item: %w", err)
	}
	return nil
}

// SaveCatalog upserts catalog options by case-insensitive name
func (r *FoodRepository) SaveCatalog(ctx context.Context, options []food.CatalogOption) error {
	if len(options) == 0 {
		return nil
	}
	// A batch may repeat a name; the last occurrence wins.
	index := make(map[string]int, len(options))
	models := make([]*CatalogItemModel, 0, len(options))
	for _, opt := range options {
		if !opt.Category.Valid() {
			return food.ErrInvalidCategory
		}
		key := strings.ToLower(strings.TrimSpace(opt.Name))
		if i, ok := index[key]; ok {
			models[i] = CatalogToModel(opt)
			continue
		}
		index[key] = len(models)
		models = append(models, CatalogToModel(opt))
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "category", "unit", "unit_cost", "shelf_life_days", "updated_at"}),
	}).Create(&models).Error
	if err != nil {
		return fmt.Errorf("failed to save catalog: %w", err)
	}
	return nil
}

// LogConsumption upserts an entry and recomputes the affected days' totals
func (r *FoodRepository) LogConsumption(ctx context.Context, entry *food.ConsumptionEntry) error {
	if _, _, err := entry.BaseQuantity(); err != nil {
		return err
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	model := ConsumptionToModel(entry)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prev ConsumptionModel
		found := tx.Select("day").Where("id = ? AND user_id = ?", model.ID, model.UserID).Limit(1).Find(&prev)
		if found.Error != nil {
			return fmt.Errorf("failed to load previous entry: %w", found.Error)
		}

		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(model).Error; err != nil {
			return fmt.Errorf("failed to log consumption: %w", err)
		}

		if err := recomputeDay(tx, model.UserID, model.Day); err != nil {
			return err
		}
		if found.RowsAffected > 0 && prev.Day != model.Day {
			return recomputeDay(tx, model.UserID, prev.Day)
		}
		return nil
	})
}

// DeleteConsumption removes an entry and recomputes that day's totals
func (r *FoodRepository) DeleteConsumption(ctx context.Context, userID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model ConsumptionModel
		found := tx.Where("id = ? AND user_id = ?", id, userID).Limit(1).Find(&model)
		if found.Error != nil {
			return fmt.Errorf("failed to load entry: %w", found.Error)
		}
		if found.RowsAffected == 0 {
			return nil
		}

		if err := tx.Delete(&ConsumptionModel{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete consumption: %w", err)
		}
		r.logger.Debug("Consumption entry deleted",
			zap.String("user_id", userID.String()),
			zap.String("day", model.Day))
		return recomputeDay(tx, userID, model.Day)
	})
}

func recomputeDay(tx *gorm.DB, userID uuid.UUID, day string) error {
	var models []ConsumptionModel
	if err := tx.Where("user_id = ? AND day = ?", userID, day).Find(&models).Error; err != nil {
		return fmt.Errorf("failed to load day %s: %w", day, err)
	}
	entries, err := modelsToEntries(models)
	if err != nil {
		return err
	}

	totals := food.DailyTotals(entries)
	if len(totals) == 0 {
		err := tx.Delete(&DailyNutrientTotalModel{}, "user_id = ? AND day = ?", userID, day).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to clear daily totals: %w", err)
		}
		return nil
	}

	row := DailyNutrientTotalModel{
		UserID:  userID,
		Day:     day,
		Entries: totals[0].Entries,
		Totals:  toJSON(totals[0].Totals),
	}
	if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to store daily totals: %w", err)
	}
	return nil
}

func modelsToEntries(models []ConsumptionModel) ([]food.ConsumptionEntry, error) {
	out := make([]food.ConsumptionEntry, 0, len(models))
	for i := range models {
		e, err := ModelToConsumption(&models[i])
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
