package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var ErrOrderNotFound = errors.New("order not found")

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (Conf, error) {
	if db == nil {
		return Conf{}, fmt.Errorf("db is nil")
	}
	return Conf{db: db}, nil
}

// ListVendorOrders returns orders across the vendor's stalls, newest first by
// default, together with the unpaged total count.
func (c *Conf) ListVendorOrders(ctx context.Context, vendorID int, filter ListFilter) ([]Order, int, error) {
	orderBy := "o.created_at DESC"
	switch filter.SortBy {
	case "oldest":
		orderBy = "o.created_at ASC"
	case "date-updated":
		orderBy = "o.updated_at DESC"
	}

	query := fmt.Sprintf(`
		SELECT o.order_id, o.buyer_id, o.stall_id, s.stall_name, o.status, o.total_amount,
		       o.delivery_address, o.created_at, o.updated_at
		FROM orders o
		JOIN stalls s ON o.stall_id = s.stall_id
		WHERE s.user_id = $1 AND ($2 = 0 OR o.stall_id = $2)
		ORDER BY %s
		LIMIT $3 OFFSET $4
	`, orderBy)

	rows, err := c.db.QueryContext(ctx, query, vendorID, filter.StallID, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query vendor orders: %w", err)
	}
	defer rows.Close()

	result, err := scanOrders(rows)
	if err != nil {
		return nil, 0, err
	}

	var total int
	queryCount := `
		SELECT COUNT(*)
		FROM orders o
		JOIN stalls s ON o.stall_id = s.stall_id
		WHERE s.user_id = $1 AND ($2 = 0 OR o.stall_id = $2)
	`
	if err := c.db.QueryRowContext(ctx, queryCount, vendorID, filter.StallID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count vendor orders: %w", err)
	}

	return result, total, nil
}

// ListBuyerOrders returns the buyer's own orders, newest first.
func (c *Conf) ListBuyerOrders(ctx context.Context, buyerID int, limit, offset int) ([]Order, error) {
	query := `
		SELECT o.order_id, o.buyer_id, o.stall_id, s.stall_name, o.status, o.total_amount,
		       o.delivery_address, o.created_at, o.updated_at
		FROM orders o
		JOIN stalls s ON o.stall_id = s.stall_id
		WHERE o.buyer_id = $1
		ORDER BY o.created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := c.db.QueryContext(ctx, query, buyerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query buyer orders: %w", err)
	}
	defer rows.Close()

	return scanOrders(rows)
}

// MarkPaid transitions a pending order to confirmed and its payment to paid,
// recording the external payment provider reference. Used by the payment
// webhook.
func (c *Conf) MarkPaid(ctx context.Context, orderID int, externalRef string) error {
	return c.withTx(ctx, func(tx *sql.Tx) error {
		queryOrder := `
			UPDATE orders
			SET status = 'confirmed', updated_at = NOW()
			WHERE order_id = $1 AND status = 'pending'
		`
		result, err := tx.ExecContext(ctx, queryOrder, orderID)
		if err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read rows affected: %w", err)
		}
		if affected == 0 {
			return ErrOrderNotFound
		}

		queryPayment := `
			UPDATE payments
			SET status = 'paid', external_ref = $1
			WHERE order_id = $2
		`
		if _, err := tx.ExecContext(ctx, queryPayment, externalRef, orderID); err != nil {
			return fmt.Errorf("failed to update payment: %w", err)
		}
		return nil
	})
}

func scanOrders(rows *sql.Rows) ([]Order, error) {
	var result []Order
	for rows.Next() {
		var order Order
		if err := rows.Scan(&order.ID, &order.BuyerID, &order.StallID, &order.StallName,
			&order.Status, &order.TotalAmount, &order.DeliveryAddress,
			&order.CreatedAt, &order.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		result = append(result, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}
	return result, nil
}

func (c *Conf) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		er := tx.Rollback()
		if er != nil && !errors.Is(er, sql.ErrTxDone) {
			return fmt.Errorf("failed to rollback withTx: %w", err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit withTx: %w", err)
	}
	return nil
}
