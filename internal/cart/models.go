package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

type Cart struct {
	ID        int       `json:"cart_id"`
	BuyerID   int       `json:"buyer_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CartItem is one line of the cart joined with its current product and stall.
// UnitPrice is the snapshot taken at add-to-cart time; Price is the live
// product price and may differ.
type CartItem struct {
	LineItemID int             `json:"line_item_id"`
	ItemID     int             `json:"item_id"`
	ItemName   string          `json:"item_name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Price      decimal.Decimal `json:"price"`
	Stock      int             `json:"item_stocks"`
	InStock    bool            `json:"in_stock"`
	StallID    int             `json:"stall_id"`
	StallName  string          `json:"stall_name"`
}

type CartResponse struct {
	Cart  Cart       `json:"cart"`
	Items []CartItem `json:"items"`
}
