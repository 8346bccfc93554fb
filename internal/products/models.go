package products

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          int             `json:"item_id"`
	StallID     int             `json:"stall_id"`
	Name        string          `json:"item_name"`
	Description string          `json:"item_description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"item_stocks"`
	InStock     bool            `json:"in_stock"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// NewProduct is the create/update payload for a stall item.
type NewProduct struct {
	StallID     int             `json:"stall_id" validate:"required,min=1"`
	Name        string          `json:"item_name" validate:"required,max=250"`
	Description string          `json:"item_description"`
	Price       decimal.Decimal `json:"price" validate:"required"`
	Stock       int             `json:"item_stocks" validate:"min=0"`
}
