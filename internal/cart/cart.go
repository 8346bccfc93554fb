package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var (
	ErrItemNotFound     = errors.New("stall item not found")
	ErrOutOfStock       = errors.New("stall item is out of stock")
	ErrLineItemNotFound = errors.New("cart line item not found")
)

// InsufficientStockError reports a quantity that exceeds the available stock.
type InsufficientStockError struct {
	ItemID    int
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %d: requested %d, available %d",
		e.ItemID, e.Requested, e.Available)
}

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (Conf, error) {
	if db == nil {
		return Conf{}, fmt.Errorf("db is nil")
	}
	return Conf{db: db}, nil
}

// getOrCreateCart finds the buyer's cart, creating it lazily on first access.
func getOrCreateCart(ctx context.Context, tx *sql.Tx, buyerID int) (Cart, error) {
	var cart Cart
	querySelect := `
		SELECT cart_id, buyer_id, created_at, updated_at
		FROM shopping_carts
		WHERE buyer_id = $1
		FOR UPDATE
	`
	err := tx.QueryRowContext(ctx, querySelect, buyerID).
		Scan(&cart.ID, &cart.BuyerID, &cart.CreatedAt, &cart.UpdatedAt)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Cart{}, fmt.Errorf("failed to query shopping cart: %w", err)
	}

	queryInsert := `
		INSERT INTO shopping_carts (buyer_id, created_at, updated_at)
		VALUES ($1, NOW(), NOW())
		RETURNING cart_id, buyer_id, created_at, updated_at
	`
	err = tx.QueryRowContext(ctx, queryInsert, buyerID).
		Scan(&cart.ID, &cart.BuyerID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		return Cart{}, fmt.Errorf("failed to create shopping cart: %w", err)
	}
	return cart, nil
}

// GetCart returns the buyer's cart with its lines joined to current product
// and stall details.
func (c *Conf) GetCart(ctx context.Context, buyerID int) (*CartResponse, error) {
	var response CartResponse

	err := c.withTx(ctx, func(tx *sql.Tx) error {
		cart, err := getOrCreateCart(ctx, tx, buyerID)
		if err != nil {
			return err
		}
		response.Cart = cart

		queryItems := `
			SELECT li.line_item_id, li.item_id, si.item_name, li.quantity, li.unit_price,
			       si.price, si.item_stocks, si.in_stock, s.stall_id, s.stall_name
			FROM line_items li
			JOIN stall_items si ON li.item_id = si.item_id
			JOIN stalls s ON si.stall_id = s.stall_id
			WHERE li.cart_id = $1
			ORDER BY li.created_at DESC
		`
		rows, err := tx.QueryContext(ctx, queryItems, cart.ID)
		if err != nil {
			return fmt.Errorf("failed to query cart items: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var item CartItem
			if err := rows.Scan(&item.LineItemID, &item.ItemID, &item.ItemName, &item.Quantity,
				&item.UnitPrice, &item.Price, &item.Stock, &item.InStock, &item.StallID, &item.StallName); err != nil {
				return fmt.Errorf("failed to scan cart item: %w", err)
			}
			response.Items = append(response.Items, item)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("error iterating cart items: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// AddToCart puts quantity units of an item into the buyer's cart, merging
// with an existing line for the same item. The snapshot unit_price is
// captured from the current product price and stays frozen afterwards.
func (c *Conf) AddToCart(ctx context.Context, buyerID, itemID, quantity int) error {
	return c.withTx(ctx, func(tx *sql.Tx) error {
		cart, err := getOrCreateCart(ctx, tx, buyerID)
		if err != nil {
			return err
		}

		var stock int
		var inStock bool
		var price string
		queryItem := `
			SELECT price, item_stocks, in_stock
			FROM stall_items
			WHERE item_id = $1
			FOR UPDATE
		`
		err = tx.QueryRowContext(ctx, queryItem, itemID).Scan(&price, &stock, &inStock)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrItemNotFound
			}
			return fmt.Errorf("failed to query stall item: %w", err)
		}
		if !inStock {
			return ErrOutOfStock
		}

		var lineItemID, existingQuantity int
		queryLine := `
			SELECT line_item_id, quantity
			FROM line_items
			WHERE cart_id = $1 AND item_id = $2
		`
		err = tx.QueryRowContext(ctx, queryLine, cart.ID, itemID).Scan(&lineItemID, &existingQuantity)
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("failed to query line items: %w", err)
			}
			if quantity > stock {
				return &InsufficientStockError{ItemID: itemID, Requested: quantity, Available: stock}
			}
			queryInsert := `
				INSERT INTO line_items (cart_id, item_id, quantity, unit_price, created_at)
				VALUES ($1, $2, $3, $4, NOW())
			`
			if _, err := tx.ExecContext(ctx, queryInsert, cart.ID, itemID, quantity, price); err != nil {
				return fmt.Errorf("failed to insert line item: %w", err)
			}
			return nil
		}

		newQuantity := existingQuantity + quantity
		if newQuantity > stock {
			return &InsufficientStockError{ItemID: itemID, Requested: newQuantity, Available: stock}
		}
		// unit_price stays as snapshotted at first add
		queryUpdate := `
			UPDATE line_items
			SET quantity = $1
			WHERE line_item_id = $2
		`
		if _, err := tx.ExecContext(ctx, queryUpdate, newQuantity, lineItemID); err != nil {
			return fmt.Errorf("failed to update line item quantity: %w", err)
		}
		return nil
	})
}

// UpdateCartItem sets the quantity of one cart line. Quantity zero removes
// the line.
func (c *Conf) UpdateCartItem(ctx context.Context, buyerID, lineItemID, quantity int) error {
	return c.withTx(ctx, func(tx *sql.Tx) error {
		var itemID, stock int
		queryLine := `
			SELECT li.item_id, si.item_stocks
			FROM line_items li
			JOIN shopping_carts sc ON li.cart_id = sc.cart_id
			JOIN stall_items si ON li.item_id = si.item_id
			WHERE li.line_item_id = $1 AND sc.buyer_id = $2
			FOR UPDATE OF li
		`
		err := tx.QueryRowContext(ctx, queryLine, lineItemID, buyerID).Scan(&itemID, &stock)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrLineItemNotFound
			}
			return fmt.Errorf("failed to query line item: %w", err)
		}

		if quantity == 0 {
			queryDelete := `
				DELETE FROM line_items
				WHERE line_item_id = $1
			`
			if _, err := tx.ExecContext(ctx, queryDelete, lineItemID); err != nil {
				return fmt.Errorf("failed to delete line item: %w", err)
			}
			return nil
		}

		if quantity > stock {
			return &InsufficientStockError{ItemID: itemID, Requested: quantity, Available: stock}
		}
		queryUpdate := `
			UPDATE line_items
			SET quantity = $1
			WHERE line_item_id = $2
		`
		if _, err := tx.ExecContext(ctx, queryUpdate, quantity, lineItemID); err != nil {
			return fmt.Errorf("failed to update line item: %w", err)
		}
		return nil
	})
}

// RemoveFromCart deletes one cart line owned by the buyer.
func (c *Conf) RemoveFromCart(ctx context.Context, buyerID, lineItemID int) error {
	query := `
		DELETE FROM line_items li
		USING shopping_carts sc
		WHERE li.line_item_id = $1 AND li.cart_id = sc.cart_id AND sc.buyer_id = $2
	`
	result, err := c.db.ExecContext(ctx, query, lineItemID, buyerID)
	if err != nil {
		return fmt.Errorf("failed to delete line item: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return ErrLineItemNotFound
	}
	return nil
}

// ClearCart removes every line from the buyer's cart. The cart row itself
// persists for reuse.
func (c *Conf) ClearCart(ctx context.Context, buyerID int) error {
	query := `
		DELETE FROM line_items li
		USING shopping_carts sc
		WHERE li.cart_id = sc.cart_id AND sc.buyer_id = $1
	`
	if _, err := c.db.ExecContext(ctx, query, buyerID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
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
