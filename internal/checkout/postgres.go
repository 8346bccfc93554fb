package checkout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresStore implements Store on the relational schema. Each
// PlaceStallOrder call runs in one transaction so a stall group commits or
// rolls back as a unit; row locks taken by the conditional stock update
// serialize concurrent checkouts over the same items.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) BuyerExists(ctx context.Context, buyerID int) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (SELECT 1 FROM buyers WHERE user_id = $1)
	`
	if err := s.db.QueryRowContext(ctx, query, buyerID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to query buyer: %w", err)
	}
	return exists, nil
}

// CartLines loads every line of the buyer's cart left-joined to its product
// and stall. Lines whose product or stall rows are gone come back with
// Resolved false so the engine can report them instead of dropping them
// silently. A missing cart reads as an empty one.
func (s *PostgresStore) CartLines(ctx context.Context, buyerID int) ([]CartLine, error) {
	query := `
		SELECT li.line_item_id, li.item_id, li.quantity, li.unit_price,
		       si.item_name, s.stall_id, s.stall_name
		FROM shopping_carts sc
		JOIN line_items li ON li.cart_id = sc.cart_id
		LEFT JOIN stall_items si ON li.item_id = si.item_id
		LEFT JOIN stalls s ON si.stall_id = s.stall_id
		WHERE sc.buyer_id = $1
		ORDER BY li.line_item_id
	`
	rows, err := s.db.QueryContext(ctx, query, buyerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart lines: %w", err)
	}
	defer rows.Close()

	var lines []CartLine
	for rows.Next() {
		var line CartLine
		var itemName sql.NullString
		var stallID sql.NullInt64
		var stallName sql.NullString
		if err := rows.Scan(&line.LineItemID, &line.ItemID, &line.Quantity, &line.UnitPrice,
			&itemName, &stallID, &stallName); err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		if itemName.Valid && stallID.Valid {
			line.ItemName = itemName.String
			line.StallID = int(stallID.Int64)
			line.StallName = stallName.String
			line.Resolved = true
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart lines: %w", err)
	}
	return lines, nil
}

// PlaceStallOrder creates the order and payment rows for one stall group,
// decrements stock with a conditional update and re-points the lines from the
// cart to the new order. Returning InsufficientStockError rolls the whole
// group back.
func (s *PostgresStore) PlaceStallOrder(ctx context.Context, params PlaceOrderParams) (OrderSummary, error) {
	var summary OrderSummary

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		queryOrder := `
			INSERT INTO orders (buyer_id, stall_id, status, total_amount, delivery_address, created_at, updated_at)
			VALUES ($1, $2, 'pending', $3, $4, NOW(), NOW())
			RETURNING order_id, status, created_at
		`
		err := tx.QueryRowContext(ctx, queryOrder, params.BuyerID, params.StallID,
			params.TotalAmount, params.DeliveryAddress).
			Scan(&summary.OrderID, &summary.Status, &summary.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		queryPayment := `
			INSERT INTO payments (order_id, payer_buyer_id, stall_id, amount, method, status, created_at)
			VALUES ($1, $2, $3, $4, $5, 'pending', NOW())
			RETURNING payment_id, status
		`
		err = tx.QueryRowContext(ctx, queryPayment, summary.OrderID, params.BuyerID,
			params.StallID, params.TotalAmount, params.PaymentMethod).
			Scan(&summary.PaymentID, &summary.PaymentStatus)
		if err != nil {
			return fmt.Errorf("failed to insert payment: %w", err)
		}

		for _, line := range params.Lines {
			// verify and decrement in one statement; the in_stock flag is
			// recomputed in the same write so it always equals stock > 0
			queryDecrement := `
				UPDATE stall_items
				SET item_stocks = item_stocks - $1,
				    in_stock = (item_stocks - $1) > 0,
				    updated_at = NOW()
				WHERE item_id = $2 AND item_stocks >= $1
			`
			result, err := tx.ExecContext(ctx, queryDecrement, line.Quantity, line.ItemID)
			if err != nil {
				return fmt.Errorf("failed to decrement stock for item %d: %w", line.ItemID, err)
			}
			affected, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to read rows affected: %w", err)
			}
			if affected == 0 {
				var available int
				queryAvailable := `
					SELECT item_stocks FROM stall_items WHERE item_id = $1
				`
				if err := tx.QueryRowContext(ctx, queryAvailable, line.ItemID).Scan(&available); err != nil {
					if !errors.Is(err, sql.ErrNoRows) {
						return fmt.Errorf("failed to query stock for item %d: %w", line.ItemID, err)
					}
					available = 0
				}
				return &InsufficientStockError{
					ItemID:    line.ItemID,
					ItemName:  line.ItemName,
					Requested: line.Quantity,
					Available: available,
				}
			}

			queryRepoint := `
				UPDATE line_items
				SET order_id = $1, cart_id = NULL
				WHERE line_item_id = $2
			`
			if _, err := tx.ExecContext(ctx, queryRepoint, summary.OrderID, line.LineItemID); err != nil {
				return fmt.Errorf("failed to attach line item %d to order: %w", line.LineItemID, err)
			}

			summary.Items = append(summary.Items, OrderedItem{
				ItemID:    line.ItemID,
				ItemName:  line.ItemName,
				Quantity:  line.Quantity,
				UnitPrice: line.UnitPrice,
			})
		}

		return nil
	})
	if err != nil {
		return OrderSummary{}, err
	}

	summary.StallID = params.StallID
	summary.StallName = params.Lines[0].StallName
	summary.TotalAmount = params.TotalAmount
	return summary, nil
}

func (s *PostgresStore) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
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
