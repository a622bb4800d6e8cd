package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/subchain"
	"github.com/xraph/subchain/address"
	"github.com/xraph/subchain/creator"
	subchainstore "github.com/xraph/subchain/store"
	"github.com/xraph/subchain/subscription"
)

// compile-time interface check
var _ subchainstore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("subchain/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("subchain/sqlite: migration failed: %w", err)
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
	res, err := s.sdb.NewInsert(toConfigModel(c)).
		OnConflict("(address) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return subchain.ErrConfigAlreadyInitialized
	}
	return nil
}

func (s *Store) GetConfig(ctx context.Context, addr address.Address) (*creator.Config, error) {
	m := new(configModel)
	err := s.sdb.NewSelect(m).
		Where("address = ?", addr.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, subchain.ErrConfigNotFound
		}
		return nil, err
	}
	return fromConfigModel(m)
}

func (s *Store) UpdateConfig(ctx context.Context, c *creator.Config) error {
	res, err := s.sdb.NewUpdate(toConfigModel(c)).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	return expectOne(res, subchain.ErrConfigNotFound)
}

func (s *Store) DeleteConfig(ctx context.Context, addr address.Address) error {
	res, err := s.sdb.NewDelete((*configModel)(nil)).
		Where("address = ?", addr.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	return expectOne(res, subchain.ErrConfigNotFound)
}

// ==================== Subscriptions ====================

func (s *Store) CreateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	res, err := s.sdb.NewInsert(toSubscriptionModel(sub)).
		OnConflict("(address) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return subchain.ErrSubscriptionExists
	}
	return nil
}

func (s *Store) GetSubscription(ctx context.Context, addr address.Address) (*subscription.Subscription, error) {
	m := new(subscriptionModel)
	err := s.sdb.NewSelect(m).
		Where("address = ?", addr.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, subchain.ErrSubscriptionNotFound
		}
		return nil, err
	}
	return fromSubscriptionModel(m)
}

func (s *Store) UpdateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	res, err := s.sdb.NewUpdate(toSubscriptionModel(sub)).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	return expectOne(res, subchain.ErrSubscriptionNotFound)
}

func (s *Store) DeleteSubscription(ctx context.Context, addr address.Address) error {
	res, err := s.sdb.NewDelete((*subscriptionModel)(nil)).
		Where("address = ?", addr.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	return expectOne(res, subchain.ErrSubscriptionNotFound)
}

// CountActive returns how many subscriptions are unpaused and unexpired at now.
func (s *Store) CountActive(ctx context.Context, now int64) (int64, error) {
	var n int64
	err := s.sdb.NewRaw(`
		SELECT COUNT(*) FROM subchain_subscriptions
		WHERE paused_at = 0 AND end_timestamp > ?
	`, now).Scan(ctx, &n)
	return n, err
}

// rowsResult is the part of a grove exec result the store inspects.
type rowsResult interface {
	RowsAffected() (int64, error)
}

func expectOne(res rowsResult, notFound error) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound
	}
	return nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
