package checkout

import (
	"time"

	"github.com/shopspring/decimal"
)

// Request is one checkout attempt for an authenticated buyer.
type Request struct {
	BuyerID         int
	DeliveryAddress string
	PaymentMethod   string
}

// CartLine is a cart line joined with its current product and stall at the
// moment checkout begins. UnitPrice is the snapshot captured at add-to-cart
// time and is the only price checkout uses. A line whose product or stall can
// no longer be resolved has Resolved false and is skipped, not ordered.
type CartLine struct {
	LineItemID int
	ItemID     int
	ItemName   string
	Quantity   int
	UnitPrice  decimal.Decimal
	StallID    int
	StallName  string
	Resolved   bool
}

// OrderedItem is one line of a created order as reported to the caller.
type OrderedItem struct {
	ItemID    int             `json:"item_id"`
	ItemName  string          `json:"item_name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// OrderSummary describes one order created for a stall group.
type OrderSummary struct {
	OrderID       int             `json:"order_id"`
	StallID       int             `json:"stall_id"`
	StallName     string          `json:"stall_name"`
	Status        string          `json:"status"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaymentID     int             `json:"payment_id"`
	PaymentStatus string          `json:"payment_status"`
	Items         []OrderedItem   `json:"items"`
	CreatedAt     time.Time       `json:"created_at"`
}

// GroupFailure reports a stall group whose order could not be placed. Other
// groups of the same checkout are unaffected.
type GroupFailure struct {
	StallID   int    `json:"stall_id"`
	StallName string `json:"stall_name"`
	ItemID    int    `json:"item_id"`
	ItemName  string `json:"item_name"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
	Reason    string `json:"reason"`
}

// SkippedLine reports a cart line dropped from the checkout because its
// product or stall no longer resolves. The line stays in the cart.
type SkippedLine struct {
	LineItemID int    `json:"line_item_id"`
	ItemID     int    `json:"item_id"`
	Reason     string `json:"reason"`
}

// Result aggregates the independent per-stall outcomes of one checkout call.
type Result struct {
	Orders  []OrderSummary `json:"orders"`
	Failed  []GroupFailure `json:"failed_stalls,omitempty"`
	Skipped []SkippedLine  `json:"skipped_items,omitempty"`
}

// PlaceOrderParams is the unit of work handed to the store for one stall
// group: create the order and payment, decrement stock and re-point the
// lines, all or nothing.
type PlaceOrderParams struct {
	BuyerID         int
	StallID         int
	DeliveryAddress string
	PaymentMethod   string
	TotalAmount     decimal.Decimal
	Lines           []CartLine
}
