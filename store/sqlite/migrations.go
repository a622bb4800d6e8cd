package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the subchain store (SQLite).
var Migrations = migrate.NewGroup("subchain")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_subchain_creator_configs",
			Version: "20250101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS subchain_creator_configs (
    address       TEXT PRIMARY KEY,
    creator       TEXT NOT NULL,
    monthly_price INTEGER NOT NULL CHECK (monthly_price > 0),
    quartal_price INTEGER NOT NULL CHECK (quartal_price > 0),
    annual_price  INTEGER NOT NULL CHECK (annual_price > 0),
    bump          INTEGER NOT NULL,
    deposit       INTEGER NOT NULL DEFAULT 0,
    created_at    TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at    TEXT NOT NULL DEFAULT (datetime('now'))
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS subchain_creator_configs`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_subchain_subscriptions",
			Version: "20250101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS subchain_subscriptions (
    address       TEXT PRIMARY KEY,
    subscriber    TEXT NOT NULL,
    tier          INTEGER NOT NULL CHECK (tier BETWEEN 0 AND 2),
    end_timestamp INTEGER NOT NULL,
    paused_at     INTEGER NOT NULL DEFAULT 0,
    bump          INTEGER NOT NULL,
    deposit       INTEGER NOT NULL DEFAULT 0,
    created_at    TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at    TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_subchain_subs_subscriber ON subchain_subscriptions (subscriber);
CREATE INDEX IF NOT EXISTS idx_subchain_subs_end ON subchain_subscriptions (end_timestamp);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS subchain_subscriptions`)
				return err
			},
		},
	)
}
