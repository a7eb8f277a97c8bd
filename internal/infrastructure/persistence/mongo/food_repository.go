// Package mongo implements the food store on MongoDB, the document store the
// insight pipelines were first designed against.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alchemorsel/pantry/internal/domain/food"
	"github.com/alchemorsel/pantry/internal/ports/outbound"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Connect dials uri and pings the primary.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return client, nil
}

// FoodRepository stores pantry data in one collection per record kind.
// Daily totals are recomputed after each consumption write; without a replica
// set there is no transaction around the pair.
type FoodRepository struct {
	db     *mongo.Database
	logger *zap.Logger
	now    func() time.Time
}

// NewFoodRepository creates a repository on db.
func NewFoodRepository(db *mongo.Database, logger *zap.Logger) *FoodRepository {
	return &FoodRepository{db: db, logger: logger.Named("mongo-food-repository"), now: time.Now}
}

var _ outbound.FoodRepository = (*FoodRepository)(nil)

// EnsureIndexes creates the secondary indexes the queries rely on.
func (r *FoodRepository) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		inventoryCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "name", Value: 1}}},
		},
		catalogCollection: {
			{Keys: bson.D{{Key: "inserted_at", Value: 1}}},
		},
		consumptionCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "consumed_at", Value: 1}}},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "day", Value: 1}}},
		},
		totalsCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "day", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
	for name, models := range indexes {
		if _, err := r.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}

// HealthCheck pings the server.
func (r *FoodRepository) HealthCheck(ctx context.Context) error {
	return r.db.Client().Ping(ctx, nil)
}

// FindProfile finds a profile by user ID
func (r *FoodRepository) FindProfile(ctx context.Context, userID uuid.UUID) (*food.UserProfile, error) {
	var doc profileDoc
	err := r.db.Collection(profilesCollection).FindOne(ctx, bson.M{"_id": userID.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, food.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}
	return doc.toDomain()
}

// ListInventory lists a user's items ordered by name
func (r *FoodRepository) ListInventory(ctx context.Context, userID uuid.UUID, filter outbound.InventoryFilter) ([]food.InventoryRecord, error) {
	query := bson.M{"user_id": userID.String()}
	if filter.ExpirableOnly {
		query["expiration_date"] = bson.M{"$exists": true, "$ne": nil}
	}
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})

	var docs []inventoryDoc
	if err := r.findAll(ctx, inventoryCollection, query, opts, &docs); err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}

	out := make([]food.InventoryRecord, 0, len(docs))
	for _, d := range docs {
		rec, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// SampleCatalog returns up to limit catalog options in insertion order
func (r *FoodRepository) SampleCatalog(ctx context.Context, limit int) ([]food.CatalogOption, error) {
	opts := options.Find().SetSort(bson.D{{Key: "inserted_at", Value: 1}, {Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	var docs []catalogDoc
	if err := r.findAll(ctx, catalogCollection, bson.M{}, opts, &docs); err != nil {
		return nil, fmt.Errorf("failed to sample catalog: %w", err)
	}

	out := make([]food.CatalogOption, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

// ListConsumption returns entries with from <= consumed_at < to, oldest first
func (r *FoodRepository) ListConsumption(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]food.ConsumptionEntry, error) {
	query := bson.M{
		"user_id":     userID.String(),
		"consumed_at": bson.M{"$gte": from.UTC(), "$lt": to.UTC()},
	}
	opts := options.Find().SetSort(bson.D{{Key: "consumed_at", Value: 1}})

	var docs []consumptionDoc
	if err := r.findAll(ctx, consumptionCollection, query, opts, &docs); err != nil {
		return nil, fmt.Errorf("failed to list consumption: %w", err)
	}
	return docsToEntries(docs)
}

// ListDailyTotals returns the stored per-day sums for days in [from, to]
func (r *FoodRepository) ListDailyTotals(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]food.DayTotals, error) {
	query := bson.M{
		"user_id": userID.String(),
		"day":     bson.M{"$gte": from.UTC().Format(dayLayout), "$lte": to.UTC().Format(dayLayout)},
	}
	opts := options.Find().SetSort(bson.D{{Key: "day", Value: 1}})

	var docs []totalsDoc
	if err := r.findAll(ctx, totalsCollection, query, opts, &docs); err != nil {
		return nil, fmt.Errorf("failed to list daily totals: %w", err)
	}

	out := make([]food.DayTotals, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

// SaveProfile validates and upserts a profile
func (r *FoodRepository) SaveProfile(ctx context.Context, profile *food.UserProfile) error {
	if err := profile.Validate(); err != nil {
		return err
	}
	doc := toProfileDoc(profile)
	if err := r.replace(ctx, profilesCollection, doc.UserID, doc); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// SaveInventory normalizes and upserts an inventory record
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
		record.CreatedAt = r.now()
	}

	doc := toInventoryDoc(record)
	if err := r.replace(ctx, inventoryCollection, doc.ID, doc); err != nil {
		return fmt.Errorf("failed to save inventory item: %w", err)
	}
	return nil
}

// DeleteInventory removes an item; deleting a missing item is not an error
func (r *FoodRepository) DeleteInventory(ctx context.Context, userID, id uuid.UUID) error {
	_, err := r.db.Collection(inventoryCollection).DeleteOne(ctx, bson.M{"_id": id.String(), "user_id": userID.String()})
	if err != nil {
		return fmt.Errorf("failed to delete inventory item: %w", err)
	}
	return nil
}

// SaveCatalog upserts catalog options keyed by lowercased name. An upsert
// keeps the option's original position.
func (r *FoodRepository) SaveCatalog(ctx context.Context, opts []food.CatalogOption) error {
	if len(opts) == 0 {
		return nil
	}

	now := r.now().UTC()
	writes := make([]mongo.WriteModel, 0, len(opts))
	for i, opt := range opts {
		if !opt.Category.Valid() {
			return food.ErrInvalidCategory
		}
		key := strings.ToLower(strings.TrimSpace(opt.Name))
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": key}).
			SetUpdate(bson.M{
				"$set": bson.M{
					"name":            opt.Name,
					"category":        string(opt.Category),
					"unit":            opt.Unit,
					"unit_cost":       opt.UnitCost,
					"shelf_life_days": opt.ShelfLifeDays,
				},
				// Offsetting by index keeps batch order stable under equal clocks.
				"$setOnInsert": bson.M{"inserted_at": now.Add(time.Duration(i) * time.Millisecond)},
			}).
			SetUpsert(true))
	}

	_, err := r.db.Collection(catalogCollection).BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(true))
	if err != nil {
		return fmt.Errorf("failed to save catalog: %w", err)
	}
	return nil
}

// LogConsumption upserts an entry and recomputes the affected days
func (r *FoodRepository) LogConsumption(ctx context.Context, entry *food.ConsumptionEntry) error {
	if _, _, err := entry.BaseQuantity(); err != nil {
		return err
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	coll := r.db.Collection(consumptionCollection)
	var prev consumptionDoc
	prevErr := coll.FindOne(ctx, bson.M{"_id": entry.ID.String()}).Decode(&prev)
	if prevErr != nil && !errors.Is(prevErr, mongo.ErrNoDocuments) {
		return fmt.Errorf("failed to load consumption entry: %w", prevErr)
	}

	doc := toConsumptionDoc(entry)
	if err := r.replace(ctx, consumptionCollection, doc.ID, doc); err != nil {
		return fmt.Errorf("failed to log consumption: %w", err)
	}

	if err := r.recomputeDay(ctx, entry.UserID, doc.Day); err != nil {
		return err
	}
	if prevErr == nil && prev.Day != doc.Day {
		return r.recomputeDay(ctx, entry.UserID, prev.Day)
	}
	return nil
}

// DeleteConsumption removes an entry and recomputes its day
func (r *FoodRepository) DeleteConsumption(ctx context.Context, userID, id uuid.UUID) error {
	var doc consumptionDoc
	err := r.db.Collection(consumptionCollection).
		FindOneAndDelete(ctx, bson.M{"_id": id.String(), "user_id": userID.String()}).
		Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete consumption entry: %w", err)
	}
	return r.recomputeDay(ctx, userID, doc.Day)
}

func (r *FoodRepository) recomputeDay(ctx context.Context, userID uuid.UUID, day string) error {
	var docs []consumptionDoc
	if err := r.findAll(ctx, consumptionCollection, bson.M{"user_id": userID.String(), "day": day}, options.Find(), &docs); err != nil {
		return fmt.Errorf("failed to load day %s: %w", day, err)
	}

	entries, err := docsToEntries(docs)
	if err != nil {
		return err
	}

	id := totalsID(userID, day)
	totals := food.DailyTotals(entries)
	if len(totals) == 0 {
		if _, err := r.db.Collection(totalsCollection).DeleteOne(ctx, bson.M{"_id": id}); err != nil {
			return fmt.Errorf("failed to clear totals for %s: %w", day, err)
		}
		return nil
	}

	doc := totalsDoc{
		ID:      id,
		UserID:  userID.String(),
		Day:     day,
		Entries: totals[0].Entries,
		Totals:  fromNutrients(totals[0].Totals),
	}
	if err := r.replace(ctx, totalsCollection, id, doc); err != nil {
		return fmt.Errorf("failed to store totals for %s: %w", day, err)
	}
	r.logger.Debug("Recomputed daily totals",
		zap.String("user_id", userID.String()),
		zap.String("day", day),
		zap.Int("entries", doc.Entries),
	)
	return nil
}

func (r *FoodRepository) replace(ctx context.Context, collection, id string, doc interface{}) error {
	_, err := r.db.Collection(collection).ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	return err
}

func (r *FoodRepository) findAll(ctx context.Context, collection string, filter interface{}, opts *options.FindOptions, out interface{}) error {
	cursor, err := r.db.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return err
	}
	return cursor.All(ctx, out)
}

func docsToEntries(docs []consumptionDoc) ([]food.ConsumptionEntry, error) {
	out := make([]food.ConsumptionEntry, 0, len(docs))
	for _, d := range docs {
		e, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
