package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/seatserve/seatserve/internal/model"
)

// PG is the PostgreSQL-backed Store.
type PG struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPG creates a PostgreSQL-backed store.
func NewPG(pool *pgxpool.Pool, logger *slog.Logger) *PG {
	if logger == nil {
		logger = slog.Default()
	}
	return &PG{pool: pool, logger: logger}
}

const orderColumns = `order_id, outlet_id, session_id, total_amount, order_status,
	payment_status, comments, customer_name, table_number, created_at, updated_at,
	last_item_added_at`

// Create validates and persists a new order.
func (s *PG) Create(ctx context.Context, in CreateOrderInput) (*model.Order, error) {
	if err := validateCreate(in); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	order := &model.Order{
		OrderID:         model.NewOrderID(now),
		OutletID:        in.OutletID,
		SessionID:       in.SessionID,
		Items:           model.MergeItems(nil, in.Items, now),
		TotalAmount:     model.ItemTotal(in.Items),
		OrderStatus:     model.StatusTaken,
		PaymentStatus:   model.PaymentUnpaid,
		Comments:        in.Comments,
		CustomerName:    in.CustomerName,
		TableNumber:     in.TableNumber,
		CreatedAt:       now,
		UpdatedAt:       now,
		LastItemAddedAt: &now,
	}

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO orders (`+orderColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			order.OrderID, order.OutletID, order.SessionID, order.TotalAmount,
			order.OrderStatus, order.PaymentStatus, order.Comments,
			order.CustomerName, order.TableNumber, order.CreatedAt,
			order.UpdatedAt, order.LastItemAddedAt,
		)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		return insertItems(ctx, tx, order.OrderID, order.Items)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order created",
		"order_id", order.OrderID,
		"outlet_id", order.OutletID,
		"total", order.TotalAmount,
		"items", len(order.Items),
	)

	return order, nil
}

// Get fetches one order, session-scoped unless sessionID is empty.
func (s *PG) Get(ctx context.Context, orderID, sessionID string) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_id = $1`
	args := []any{orderID}
	if sessionID != "" {
		query += ` AND session_id = $2`
		args = append(args, sessionID)
	}

	order, err := scanOrder(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select order: %w", err)
	}

	if err := s.loadItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// List returns the session's orders for an outlet, newest first.
func (s *PG) List(ctx context.Context, outletID, sessionID string) ([]model.Order, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE outlet_id = $1 AND session_id = $2
		ORDER BY created_at DESC
		LIMIT $3`,
		outletID, sessionID, ListLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	for i := range orders {
		if err := s.loadItems(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// AddItems merges an item batch into an unpaid order owned by the session.
func (s *PG) AddItems(ctx context.Context, orderID, sessionID string, items []model.OrderItem) (*model.Order, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: sessionId is required", ErrInvalid)
	}
	if err := model.ValidateItems(items); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalid, err)
	}

	var order *model.Order
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		order, err = lockOrder(ctx, tx, orderID, sessionID)
		if err != nil {
			return err
		}
		if order.PaymentStatus != model.PaymentUnpaid {
			return ErrNotModifiable
		}

		now := time.Now().UTC()
		order.Items = model.MergeItems(order.Items, items, now)
		order.TotalAmount = model.ItemTotal(order.Items)
		order.UpdatedAt = now
		order.LastItemAddedAt = &now

		if err := replaceItems(ctx, tx, order.OrderID, order.Items); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			UPDATE orders
			SET total_amount = $2, updated_at = $3, last_item_added_at = $3
			WHERE order_id = $1`,
			order.OrderID, order.TotalAmount, now,
		)
		if err != nil {
			return fmt.Errorf("update order totals: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("items added",
		"order_id", order.OrderID,
		"batch", len(items),
		"total", order.TotalAmount,
	)

	return order, nil
}

// Update applies an admin partial update without a session check.
func (s *PG) Update(ctx context.Context, orderID string, patch model.OrderPatch) (*model.Order, error) {
	if patch.OrderStatus != nil && !patch.OrderStatus.Valid() {
		return nil, fmt.Errorf("%w: unknown order status %q", ErrInvalid, *patch.OrderStatus)
	}
	if patch.PaymentStatus != nil && !patch.PaymentStatus.Valid() {
		return nil, fmt.Errorf("%w: unknown payment status %q", ErrInvalid, *patch.PaymentStatus)
	}

	var order *model.Order
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		order, err = lockOrder(ctx, tx, orderID, "")
		if err != nil {
			return err
		}

		if patch.OrderStatus != nil {
			order.OrderStatus = *patch.OrderStatus
		}
		if patch.PaymentStatus != nil {
			order.PaymentStatus = *patch.PaymentStatus
		}
		if patch.Comments != nil {
			order.Comments = *patch.Comments
		}
		if patch.Items != nil {
			order.Items = patch.Items
			order.TotalAmount = model.ItemTotal(order.Items)
			if err := replaceItems(ctx, tx, order.OrderID, order.Items); err != nil {
				return err
			}
		}
		if patch.TotalAmount != nil {
			order.TotalAmount = *patch.TotalAmount
		}
		order.UpdatedAt = time.Now().UTC()

		_, err = tx.Exec(ctx, `
			UPDATE orders
			SET order_status = $2, payment_status = $3, comments = $4,
			    total_amount = $5, updated_at = $6
			WHERE order_id = $1`,
			order.OrderID, order.OrderStatus, order.PaymentStatus,
			order.Comments, order.TotalAmount, order.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order updated",
		"order_id", order.OrderID,
		"order_status", order.OrderStatus,
		"payment_status", order.PaymentStatus,
	)

	return order, nil
}

// lockOrder selects an order FOR UPDATE, with items, optionally session-scoped.
func lockOrder(ctx context.Context, tx pgx.Tx, orderID, sessionID string) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_id = $1`
	args := []any{orderID}
	if sessionID != "" {
		query += ` AND session_id = $2`
		args = append(args, sessionID)
	}
	query += ` FOR UPDATE`

	order, err := scanOrder(tx.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock order: %w", err)
	}

	order.Items, err = queryItems(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *PG) loadItems(ctx context.Context, order *model.Order) error {
	items, err := queryItems(ctx, s.pool, order.OrderID)
	if err != nil {
		return err
	}
	order.Items = items
	return nil
}

// querier is the subset of pgx shared by pools and transactions.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryItems(ctx context.Context, q querier, orderID string) ([]model.OrderItem, error) {
	rows, err := q.Query(ctx, `
		SELECT item_id, name, quantity, price, quantity_id, quantity_description,
		       added_at, is_newly_added
		FROM order_items
		WHERE order_id = $1
		ORDER BY position`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("select items: %w", err)
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ID, &it.Name, &it.Quantity, &it.Price,
			&it.QuantityID, &it.QuantityDescription, &it.AddedAt, &it.IsNewlyAdded); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func insertItems(ctx context.Context, tx pgx.Tx, orderID string, items []model.OrderItem) error {
	for i, it := range items {
		_, err := tx.Exec(ctx, `
			INSERT INTO order_items
				(order_id, item_id, name, quantity, price, quantity_id,
				 quantity_description, added_at, is_newly_added, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			orderID, it.ID, it.Name, it.Quantity, it.Price, it.QuantityID,
			it.QuantityDescription, it.AddedAt, it.IsNewlyAdded, i,
		)
		if err != nil {
			return fmt.Errorf("insert item %s: %w", it.ID, err)
		}
	}
	return nil
}

// replaceItems rewrites an order's item lines. Line counts are small enough
// that delete-and-reinsert beats diffing.
func replaceItems(ctx context.Context, tx pgx.Tx, orderID string, items []model.OrderItem) error {
	if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID); err != nil {
		return fmt.Errorf("clear items: %w", err)
	}
	return insertItems(ctx, tx, orderID, items)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*model.Order, error) {
	var o model.Order
	err := row.Scan(&o.OrderID, &o.OutletID, &o.SessionID, &o.TotalAmount,
		&o.OrderStatus, &o.PaymentStatus, &o.Comments, &o.CustomerName,
		&o.TableNumber, &o.CreatedAt, &o.UpdatedAt, &o.LastItemAddedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
