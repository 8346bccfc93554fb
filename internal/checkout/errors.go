package checkout

import (
	"errors"
	"fmt"
)

var (
	// ErrNotABuyer means the authenticated user has no buyer account.
	ErrNotABuyer = errors.New("only buyers can checkout")
	// ErrMissingAddress means the delivery address was empty.
	ErrMissingAddress = errors.New("delivery address is required")
	// ErrEmptyCart means the buyer has no cart lines to check out.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrNoValidItems means every cart line was skipped during resolution.
	ErrNoValidItems = errors.New("no cart items with valid stall information")
)

// InsufficientStockError aborts a single stall group when the atomic
// verify-and-decrement finds less stock than the line requests.
type InsufficientStockError struct {
	ItemID    int
	ItemName  string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %d (%s): requested %d, available %d",
		e.ItemID, e.ItemName, e.Requested, e.Available)
}
