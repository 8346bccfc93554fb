package stalls

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var ErrNotOwner = errors.New("stall does not belong to this vendor")

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (Conf, error) {
	if db == nil {
		return Conf{}, fmt.Errorf("db is nil")
	}
	return Conf{db: db}, nil
}

func (c *Conf) InsertStall(ctx context.Context, vendorID int, ns NewStall) (Stall, error) {
	var stall Stall
	query := `
		INSERT INTO stalls (user_id, stall_name, stall_description, category, stall_address, stall_city, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending', NOW(), NOW())
		RETURNING stall_id, user_id, stall_name, stall_description, category, stall_address, stall_city, status, created_at, updated_at
	`
	err := c.db.QueryRowContext(ctx, query, vendorID, ns.Name, ns.Description, ns.Category, ns.Address, ns.City).
		Scan(&stall.ID, &stall.VendorID, &stall.Name, &stall.Description, &stall.Category,
			&stall.Address, &stall.City, &stall.Status, &stall.CreatedAt, &stall.UpdatedAt)
	if err != nil {
		return Stall{}, fmt.Errorf("failed to insert stall: %w", err)
	}
	return stall, nil
}

func (c *Conf) GetStallByID(ctx context.Context, stallID int) (Stall, error) {
	var stall Stall
	query := `
		SELECT stall_id, user_id, stall_name, stall_description, category, stall_address, stall_city, status, created_at, updated_at
		FROM stalls
		WHERE stall_id = $1
	`
	err := c.db.QueryRowContext(ctx, query, stallID).
		Scan(&stall.ID, &stall.VendorID, &stall.Name, &stall.Description, &stall.Category,
			&stall.Address, &stall.City, &stall.Status, &stall.CreatedAt, &stall.UpdatedAt)
	if err != nil {
		return Stall{}, err
	}
	return stall, nil
}

func (c *Conf) ListStalls(ctx context.Context, category string, limit, offset int) ([]Stall, error) {
	query := `
		SELECT stall_id, user_id, stall_name, stall_description, category, stall_address, stall_city, status, created_at, updated_at
		FROM stalls
		WHERE ($1 = '' OR category = $1)
		ORDER BY stall_name ASC
		LIMIT $2 OFFSET $3
	`
	rows, err := c.db.QueryContext(ctx, query, category, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query stalls: %w", err)
	}
	defer rows.Close()

	var result []Stall
	for rows.Next() {
		var stall Stall
		if err := rows.Scan(&stall.ID, &stall.VendorID, &stall.Name, &stall.Description, &stall.Category,
			&stall.Address, &stall.City, &stall.Status, &stall.CreatedAt, &stall.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stall: %w", err)
		}
		result = append(result, stall)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stalls: %w", err)
	}
	return result, nil
}

// SearchStalls matches the term against stall names and categories.
func (c *Conf) SearchStalls(ctx context.Context, term string, limit int) ([]Stall, error) {
	query := `
		SELECT stall_id, user_id, stall_name, stall_description, category, stall_address, stall_city, status, created_at, updated_at
		FROM stalls
		WHERE stall_name ILIKE '%' || $1 || '%' OR category ILIKE '%' || $1 || '%'
		ORDER BY stall_name ASC
		LIMIT $2
	`
	rows, err := c.db.QueryContext(ctx, query, term, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search stalls: %w", err)
	}
	defer rows.Close()

	var result []Stall
	for rows.Next() {
		var stall Stall
		if err := rows.Scan(&stall.ID, &stall.VendorID, &stall.Name, &stall.Description, &stall.Category,
			&stall.Address, &stall.City, &stall.Status, &stall.CreatedAt, &stall.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stall: %w", err)
		}
		result = append(result, stall)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stalls: %w", err)
	}
	return result, nil
}

// UpdateStall modifies a stall owned by vendorID. Ownership is enforced in
// the WHERE clause so a vendor cannot edit another vendor's stall.
func (c *Conf) UpdateStall(ctx context.Context, stallID, vendorID int, ns NewStall) (Stall, error) {
	var stall Stall
	query := `
		UPDATE stalls
		SET stall_name = $1, stall_description = $2, category = $3, stall_address = $4, stall_city = $5, updated_at = NOW()
		WHERE stall_id = $6 AND user_id = $7
		RETURNING stall_id, user_id, stall_name, stall_description, category, stall_address, stall_city, status, created_at, updated_at
	`
	err := c.db.QueryRowContext(ctx, query, ns.Name, ns.Description, ns.Category, ns.Address, ns.City, stallID, vendorID).
		Scan(&stall.ID, &stall.VendorID, &stall.Name, &stall.Description, &stall.Category,
			&stall.Address, &stall.City, &stall.Status, &stall.CreatedAt, &stall.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Stall{}, ErrNotOwner
		}
		return Stall{}, fmt.Errorf("failed to update stall: %w", err)
	}
	return stall, nil
}
