package products

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var ErrNotOwner = errors.New("stall item does not belong to this vendor")

// Allowed sort columns for listing, anything else falls back to item_name.
var sortColumns = map[string]string{
	"name":       "item_name",
	"price":      "price",
	"created_at": "created_at",
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

// InsertProduct creates a stall item after verifying the stall belongs to the
// vendor. in_stock is derived from the initial stock count.
func (c *Conf) InsertProduct(ctx context.Context, vendorID int, np NewProduct) (Product, error) {
	var product Product
	err := c.withTx(ctx, func(tx *sql.Tx) error {
		var ownerID int
		queryOwner := `
			SELECT user_id
			FROM stalls
			WHERE stall_id = $1
		`
		err := tx.QueryRowContext(ctx, queryOwner, np.StallID).Scan(&ownerID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("stall %d not found", np.StallID)
			}
			return fmt.Errorf("failed to query stall owner: %w", err)
		}
		if ownerID != vendorID {
			return ErrNotOwner
		}

		queryInsert := `
			INSERT INTO stall_items (stall_id, item_name, item_description, price, item_stocks, in_stock, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $5 > 0, NOW(), NOW())
			RETURNING item_id, stall_id, item_name, item_description, price, item_stocks, in_stock, created_at, updated_at
		`
		err = tx.QueryRowContext(ctx, queryInsert, np.StallID, np.Name, np.Description, np.Price, np.Stock).
			Scan(&product.ID, &product.StallID, &product.Name, &product.Description,
				&product.Price, &product.Stock, &product.InStock, &product.CreatedAt, &product.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert stall item: %w", err)
		}
		return nil
	})
	if err != nil {
		return Product{}, err
	}
	return product, nil
}

func (c *Conf) GetProductByID(ctx context.Context, productID int) (Product, error) {
	var product Product
	query := `
		SELECT item_id, stall_id, item_name, item_description, price, item_stocks, in_stock, created_at, updated_at
		FROM stall_items
		WHERE item_id = $1
	`
	err := c.db.QueryRowContext(ctx, query, productID).
		Scan(&product.ID, &product.StallID, &product.Name, &product.Description,
			&product.Price, &product.Stock, &product.InStock, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return Product{}, err
	}
	return product, nil
}

// UpdateProductInDB rewrites the mutable fields of a stall item keeping the
// in_stock flag consistent with the new stock count. Ownership is checked
// through the stall join.
func (c *Conf) UpdateProductInDB(ctx context.Context, productID, vendorID int, np NewProduct) (Product, error) {
	var product Product
	query := `
		UPDATE stall_items si
		SET item_name = $1, item_description = $2, price = $3, item_stocks = $4, in_stock = $4 > 0, updated_at = NOW()
		FROM stalls s
		WHERE si.item_id = $5 AND si.stall_id = s.stall_id AND s.user_id = $6
		RETURNING si.item_id, si.stall_id, si.item_name, si.item_description, si.price, si.item_stocks, si.in_stock, si.created_at, si.updated_at
	`
	err := c.db.QueryRowContext(ctx, query, np.Name, np.Description, np.Price, np.Stock, productID, vendorID).
		Scan(&product.ID, &product.StallID, &product.Name, &product.Description,
			&product.Price, &product.Stock, &product.InStock, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, ErrNotOwner
		}
		return Product{}, fmt.Errorf("failed to update stall item: %w", err)
	}
	return product, nil
}

func (c *Conf) DeleteProductFromDB(ctx context.Context, productID, vendorID int) error {
	query := `
		DELETE FROM stall_items si
		USING stalls s
		WHERE si.item_id = $1 AND si.stall_id = s.stall_id AND s.user_id = $2
	`
	result, err := c.db.ExecContext(ctx, query, productID, vendorID)
	if err != nil {
		return fmt.Errorf("failed to delete stall item: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotOwner
	}
	return nil
}

// ListProductsFromDB supports name substring and stall filters with
// pagination. Sort column is whitelisted to avoid SQL injection.
func (c *Conf) ListProductsFromDB(ctx context.Context, nameFilter string, stallID, limit, offset int, sort, order string) ([]Product, error) {
	column, ok := sortColumns[sort]
	if !ok {
		column = "item_name"
	}
	direction := "ASC"
	if order == "desc" {
		direction = "DESC"
	}

	query := fmt.Sprintf(`
		SELECT item_id, stall_id, item_name, item_description, price, item_stocks, in_stock, created_at, updated_at
		FROM stall_items
		WHERE ($1 = '' OR item_name ILIKE '%%' || $1 || '%%')
		  AND ($2 = 0 OR stall_id = $2)
		ORDER BY %s %s
		LIMIT $3 OFFSET $4
	`, column, direction)

	rows, err := c.db.QueryContext(ctx, query, nameFilter, stallID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query stall items: %w", err)
	}
	defer rows.Close()

	var result []Product
	for rows.Next() {
		var product Product
		if err := rows.Scan(&product.ID, &product.StallID, &product.Name, &product.Description,
			&product.Price, &product.Stock, &product.InStock, &product.CreatedAt, &product.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stall item: %w", err)
		}
		result = append(result, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stall items: %w", err)
	}
	return result, nil
}

// SearchProducts matches the term against item names and descriptions.
func (c *Conf) SearchProducts(ctx context.Context, term string, limit int) ([]Product, error) {
	query := `
		SELECT item_id, stall_id, item_name, item_description, price, item_stocks, in_stock, created_at, updated_at
		FROM stall_items
		WHERE item_name ILIKE '%' || $1 || '%' OR item_description ILIKE '%' || $1 || '%'
		ORDER BY item_name ASC
		LIMIT $2
	`
	rows, err := c.db.QueryContext(ctx, query, term, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search stall items: %w", err)
	}
	defer rows.Close()

	var result []Product
	for rows.Next() {
		var product Product
		if err := rows.Scan(&product.ID, &product.StallID, &product.Name, &product.Description,
			&product.Price, &product.Stock, &product.InStock, &product.CreatedAt, &product.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stall item: %w", err)
		}
		result = append(result, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stall items: %w", err)
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
