package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	vehicleserrors "autolease/internal/vehicles/errors"
	"autolease/pkg/config"
	mongotx "autolease/pkg/db/mongo"
	"autolease/pkg/model"
)

const (
	CollectionName = "vehicles"

	cacheKeyPrefix = "vehicle:"
)

type VehicleRepository interface {
	Create(ctx context.Context, vehicle *model.Vehicle) error
	FindByID(ctx context.Context, id string) (*model.Vehicle, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Vehicle, error)
	Count(ctx context.Context) (int64, error)
	GetStatus(ctx context.Context, id string) (model.VehicleStatus, error)
	SetStatus(ctx context.Context, id string, status model.VehicleStatus) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoVehicleRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoVehicleRepository(cfg *config.Config) VehicleRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoVehicleRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// When inside a transaction (SessionContext), returns the original context unchanged
// with a no-op cancel function, as we cannot wrap SessionContext without breaking
// transaction semantics.
func (r *mongoVehicleRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoVehicleRepository) Create(ctx context.Context, vehicle *model.Vehicle) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if vehicle.Status == "" {
		vehicle.Status = model.VehicleAvailable
	}

	result, err := r.collection.InsertOne(ctx, vehicle)
	if err != nil {
		return fmt.Errorf("failed to create vehicle: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		vehicle.ID = oid.Hex()
	}
	return nil
}

func (r *mongoVehicleRepository) FindByID(ctx context.Context, id string) (*model.Vehicle, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", vehicleserrors.ErrInvalidID, id)
	}

	if cached := r.cacheGet(ctx, id); cached != nil {
		return cached, nil
	}

	filter := bson.M{"_id": objectID}

	var vehicle model.Vehicle
	err = r.collection.FindOne(ctx, filter).Decode(&vehicle)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, vehicleserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find vehicle: %w", err)
	}

	r.cacheSet(ctx, &vehicle)
	return &vehicle, nil
}

func (r *mongoVehicleRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Vehicle, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "brand", Value: 1}, {Key: "model", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find vehicles: %w", err)
	}
	defer cursor.Close(ctx)

	var vehicles []*model.Vehicle
	if err = cursor.All(ctx, &vehicles); err != nil {
		return nil, fmt.Errorf("failed to decode vehicles: %w", err)
	}

	return vehicles, nil
}

func (r *mongoVehicleRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count vehicles: %w", err)
	}

	return count, nil
}

func (r *mongoVehicleRepository) GetStatus(ctx context.Context, id string) (model.VehicleStatus, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return "", fmt.Errorf("%w: %s", vehicleserrors.ErrInvalidID, id)
	}

	opts := options.FindOne().SetProjection(bson.M{"status": 1})

	var vehicle model.Vehicle
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}, opts).Decode(&vehicle)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", vehicleserrors.ErrNotFound
		}
		return "", fmt.Errorf("failed to read vehicle status: %w", err)
	}

	return vehicle.Status, nil
}

func (r *mongoVehicleRepository) SetStatus(ctx context.Context, id string, status model.VehicleStatus) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", vehicleserrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{"status": status}},
	)
	if err != nil {
		return fmt.Errorf("failed to update vehicle status: %w", err)
	}

	if result.MatchedCount == 0 {
		return vehicleserrors.ErrNotFound
	}

	r.cacheInvalidate(ctx, id)
	return nil
}

func (r *mongoVehicleRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

// --- Redis read cache ---
//
// Cache misses and failures fall through to Mongo silently. Entries are
// invalidated on status writes so browse reads never show a stale status for
// longer than a single in-flight request.

func (r *mongoVehicleRepository) cacheGet(ctx context.Context, id string) *model.Vehicle {
	if r.cfg.Client.Redis == nil {
		return nil
	}
	if _, ok := ctx.(mongo.SessionContext); ok {
		// Transactional reads must see transactional state, never the cache.
		return nil
	}

	data, err := r.cfg.Client.Redis.Get(ctx, cacheKeyPrefix+id).Bytes()
	if err != nil {
		return nil
	}

	var vehicle model.Vehicle
	if err := json.Unmarshal(data, &vehicle); err != nil {
		return nil
	}
	return &vehicle
}

func (r *mongoVehicleRepository) cacheSet(ctx context.Context, vehicle *model.Vehicle) {
	if r.cfg.Client.Redis == nil {
		return
	}
	if _, ok := ctx.(mongo.SessionContext); ok {
		return
	}

	data, err := json.Marshal(vehicle)
	if err != nil {
		return
	}
	r.cfg.Client.Redis.Set(ctx, cacheKeyPrefix+vehicle.ID, data, r.cfg.VehicleCacheTTL)
}

func (r *mongoVehicleRepository) cacheInvalidate(ctx context.Context, id string) {
	if r.cfg.Client.Redis == nil {
		return
	}
	r.cfg.Client.Redis.Del(context.WithoutCancel(ctx), cacheKeyPrefix+id)
}
