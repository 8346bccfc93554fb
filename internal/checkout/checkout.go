package checkout

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Store is the narrow persistence port the engine depends on. PlaceStallOrder
// must be atomic: either all of the group's effects become visible (order,
// payment, stock decrements, line re-pointing) or none do, and the stock
// check-and-decrement must be a single conditional write so concurrent
// checkouts cannot jointly oversell.
type Store interface {
	BuyerExists(ctx context.Context, buyerID int) (bool, error)
	CartLines(ctx context.Context, buyerID int) ([]CartLine, error)
	PlaceStallOrder(ctx context.Context, params PlaceOrderParams) (OrderSummary, error)
}

// Service converts a buyer's cart into per-stall orders.
type Service interface {
	Checkout(ctx context.Context, req Request) (Result, error)
}

type Engine struct {
	store Store
}

func NewEngine(store Store) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("store is nil")
	}
	return &Engine{store: store}, nil
}

// Checkout loads the buyer's cart, partitions its lines by stall and places
// one order plus one payment per stall. Stall groups are independent units:
// an InsufficientStock failure in one group rolls back only that group and is
// reported alongside the orders that did succeed. Any other persistence error
// aborts the whole call; cart state for untouched groups is unchanged, so the
// caller may simply retry.
func (e *Engine) Checkout(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.DeliveryAddress) == "" {
		return Result{}, ErrMissingAddress
	}

	isBuyer, err := e.store.BuyerExists(ctx, req.BuyerID)
	if err != nil {
		return Result{}, fmt.Errorf("resolving buyer %d: %w", req.BuyerID, err)
	}
	if !isBuyer {
		return Result{}, ErrNotABuyer
	}

	lines, err := e.store.CartLines(ctx, req.BuyerID)
	if err != nil {
		return Result{}, fmt.Errorf("loading cart lines: %w", err)
	}
	if len(lines) == 0 {
		return Result{}, ErrEmptyCart
	}

	var result Result
	groups := make(map[int][]CartLine)
	for _, line := range lines {
		if !line.Resolved {
			result.Skipped = append(result.Skipped, SkippedLine{
				LineItemID: line.LineItemID,
				ItemID:     line.ItemID,
				Reason:     "product or stall no longer exists",
			})
			continue
		}
		groups[line.StallID] = append(groups[line.StallID], line)
	}
	if len(groups) == 0 {
		return Result{}, ErrNoValidItems
	}

	// ascending stall id keeps responses deterministic
	stallIDs := make([]int, 0, len(groups))
	for stallID := range groups {
		stallIDs = append(stallIDs, stallID)
	}
	sort.Ints(stallIDs)

	for _, stallID := range stallIDs {
		group := groups[stallID]
		summary, err := e.store.PlaceStallOrder(ctx, PlaceOrderParams{
			BuyerID:         req.BuyerID,
			StallID:         stallID,
			DeliveryAddress: req.DeliveryAddress,
			PaymentMethod:   req.PaymentMethod,
			TotalAmount:     groupTotal(group),
			Lines:           group,
		})
		if err != nil {
			var stockErr *InsufficientStockError
			if errors.As(err, &stockErr) {
				result.Failed = append(result.Failed, GroupFailure{
					StallID:   stallID,
					StallName: group[0].StallName,
					ItemID:    stockErr.ItemID,
					ItemName:  stockErr.ItemName,
					Requested: stockErr.Requested,
					Available: stockErr.Available,
					Reason:    "insufficient stock",
				})
				continue
			}
			return Result{}, fmt.Errorf("placing order for stall %d: %w", stallID, err)
		}
		result.Orders = append(result.Orders, summary)
	}

	return result, nil
}

// groupTotal sums snapshot unit prices times quantities. Live product prices
// never participate: the snapshot is the price promised to the buyer.
func groupTotal(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}
