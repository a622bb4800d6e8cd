package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/subchain"
	"github.com/xraph/subchain/address"
	"github.com/xraph/subchain/creator"
	subchainstore "github.com/xraph/subchain/store"
	"github.com/xraph/subchain/subscription"
)

// Collection name constants.
const (
	colConfigs       = "subchain_creator_configs"
	colSubscriptions = "subchain_subscriptions"
)

// compile-time interface check
var _ subchainstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all subchain collections.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("subchain/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Creator config ====================

func (s *Store) CreateConfig(ctx context.Context, c *creator.Config) error {
	_, err := s.mdb.NewInsert(toConfigModel(c)).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return subchain.ErrConfigAlreadyInitialized
		}
		return fmt.Errorf("subchain/mongo: create config: %w", err)
	}
	return nil
}

func (s *Store) GetConfig(ctx context.Context, addr address.Address) (*creator.Config, error) {
	var m configModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": addr.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, subchain.ErrConfigNotFound
		}
		return nil, fmt.Errorf("subchain/mongo: get config: %w", err)
	}
	return fromConfigModel(&m)
}

func (s *Store) UpdateConfig(ctx context.Context, c *creator.Config) error {
	m := toConfigModel(c)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.Address}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("subchain/mongo: update config: %w", err)
	}
	if res.MatchedCount() == 0 {
		return subchain.ErrConfigNotFound
	}
	return nil
}

func (s *Store) DeleteConfig(ctx context.Context, addr address.Address) error {
	res, err := s.mdb.NewDelete((*configModel)(nil)).
		Filter(bson.M{"_id": addr.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("subchain/mongo: delete config: %w", err)
	}
	if res.DeletedCount() == 0 {
		return subchain.ErrConfigNotFound
	}
	return nil
}

// ==================== Subscriptions ====================

func (s *Store) CreateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	_, err := s.mdb.NewInsert(toSubscriptionModel(sub)).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return subchain.ErrSubscriptionExists
		}
		return fmt.Errorf("subchain/mongo: create subscription: %w", err)
	}
	return nil
}

func (s *Store) GetSubscription(ctx context.Context, addr address.Address) (*subscription.Subscription, error) {
	var m subscriptionModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": addr.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, subchain.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("subchain/mongo: get subscription: %w", err)
	}
	return fromSubscriptionModel(&m)
}

func (s *Store) UpdateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	res, err := s.mdb.NewUpdate((*subscriptionModel)(nil)).
		Filter(bson.M{"_id": sub.Address.String()}).
		Set("tier", int32(sub.Tier)).
		Set("end_timestamp", sub.EndTimestamp).
		Set("paused_at", sub.PausedAt).
		Set("updated_at", sub.UpdatedAt).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("subchain/mongo: update subscription: %w", err)
	}
	if res.MatchedCount() == 0 {
		return subchain.ErrSubscriptionNotFound
	}
	return nil
}

func (s *Store) DeleteSubscription(ctx context.Context, addr address.Address) error {
	res, err := s.mdb.NewDelete((*subscriptionModel)(nil)).
		Filter(bson.M{"_id": addr.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("subchain/mongo: delete subscription: %w", err)
	}
	if res.DeletedCount() == 0 {
		return subchain.ErrSubscriptionNotFound
	}
	return nil
}

// CountActive returns how many subscriptions are unpaused and unexpired at now.
func (s *Store) CountActive(ctx context.Context, now int64) (int64, error) {
	n, err := s.mdb.Collection(colSubscriptions).CountDocuments(ctx, bson.M{
		"paused_at":     0,
		"end_timestamp": bson.M{"$gt": now},
	})
	if err != nil {
		return 0, fmt.Errorf("subchain/mongo: count active: %w", err)
	}
	return n, nil
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all subchain collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colConfigs: {
			{Keys: bson.D{{Key: "creator", Value: 1}}},
		},
		colSubscriptions: {
			{
				Keys:    bson.D{{Key: "subscriber", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "end_timestamp", Value: 1}}},
			{Keys: bson.D{{Key: "paused_at", Value: 1}, {Key: "end_timestamp", Value: 1}}},
		},
	}
}
