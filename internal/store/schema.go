package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		order_id           TEXT PRIMARY KEY,
		outlet_id          TEXT NOT NULL,
		session_id         TEXT NOT NULL,
		total_amount       DOUBLE PRECISION NOT NULL,
		order_status       TEXT NOT NULL,
		payment_status     TEXT NOT NULL,
		comments           TEXT NOT NULL DEFAULT '',
		customer_name      TEXT NOT NULL DEFAULT '',
		table_number       TEXT NOT NULL DEFAULT '',
		created_at         TIMESTAMPTZ NOT NULL,
		updated_at         TIMESTAMPTZ NOT NULL,
		last_item_added_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		order_id             TEXT NOT NULL REFERENCES orders(order_id) ON DELETE CASCADE,
		item_id              TEXT NOT NULL,
		name                 TEXT NOT NULL,
		quantity             INTEGER NOT NULL,
		price                DOUBLE PRECISION NOT NULL,
		quantity_id          TEXT NOT NULL DEFAULT '',
		quantity_description TEXT NOT NULL DEFAULT '',
		added_at             TIMESTAMPTZ,
		is_newly_added       BOOLEAN NOT NULL DEFAULT FALSE,
		position             INTEGER NOT NULL,
		PRIMARY KEY (order_id, item_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_outlet_session
		ON orders (outlet_id, session_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_updated_at
		ON orders (updated_at)`,
}

// Migrate creates the order tables if they do not exist yet.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		for _, stmt := range schema {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("applying schema: %w", err)
			}
		}
		return nil
	})
}
