package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	leaseserrors "autolease/internal/leases/errors"
	"autolease/pkg/config"
	"autolease/pkg/model"
)

const (
	CollectionName = "lease_contracts"
)

type LeaseRepository interface {
	Create(ctx context.Context, contract *model.LeaseContract) error
	FindByID(ctx context.Context, id string) (*model.LeaseContract, error)
	FindByHolder(ctx context.Context, holderID string, limit int, offset int64) ([]*model.LeaseContract, error)
	CountByHolder(ctx context.Context, holderID string) (int64, error)
}

type mongoLeaseRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoLeaseRepository(cfg *config.Config) LeaseRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoLeaseRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// When inside a transaction (SessionContext), returns the original context unchanged
// with a no-op cancel function, as we cannot wrap SessionContext without breaking
// transaction semantics.
func (r *mongoLeaseRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func (r *mongoLeaseRepository) Create(ctx context.Context, contract *model.LeaseContract) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	contract.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, contract)
	if err != nil {
		return fmt.Errorf("failed to create lease contract: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		contract.ID = oid.Hex()
	}
	return nil
}

func (r *mongoLeaseRepository) FindByID(ctx context.Context, id string) (*model.LeaseContract, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", leaseserrors.ErrInvalidID, id)
	}

	var contract model.LeaseContract
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&contract)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, leaseserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find lease contract: %w", err)
	}

	return &contract, nil
}

func (r *mongoLeaseRepository) FindByHolder(ctx context.Context, holderID string, limit int, offset int64) ([]*model.LeaseContract, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "lease_start", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{"holder_id": holderID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find lease contracts: %w", err)
	}
	defer cursor.Close(ctx)

	var contracts []*model.LeaseContract
	if err = cursor.All(ctx, &contracts); err != nil {
		return nil, fmt.Errorf("failed to decode lease contracts: %w", err)
	}

	return contracts, nil
}

func (r *mongoLeaseRepository) CountByHolder(ctx context.Context, holderID string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"holder_id": holderID})
	if err != nil {
		return 0, fmt.Errorf("failed to count lease contracts: %w", err)
	}
	return count, nil
}
