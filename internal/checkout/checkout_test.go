package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeItem struct {
	name      string
	stock     int
	inStock   bool
	stallID   int
	stallName string
}

// fakeStore mirrors the transactional contract of the postgres store: one
// PlaceStallOrder call either applies every effect of its group or none.
type fakeStore struct {
	mu       sync.Mutex
	buyers   map[int]bool
	items    map[int]*fakeItem
	carts    map[int][]CartLine
	nextID   int
	storeErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		buyers: make(map[int]bool),
		items:  make(map[int]*fakeItem),
		carts:  make(map[int][]CartLine),
		nextID: 1,
	}
}

func (f *fakeStore) BuyerExists(_ context.Context, buyerID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.buyers[buyerID], nil
}

func (f *fakeStore) CartLines(_ context.Context, buyerID int) ([]CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lines := make([]CartLine, len(f.carts[buyerID]))
	copy(lines, f.carts[buyerID])
	return lines, nil
}

func (f *fakeStore) PlaceStallOrder(_ context.Context, params PlaceOrderParams) (OrderSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.storeErr != nil {
		return OrderSummary{}, f.storeErr
	}

	// verify first so a failing group leaves stock untouched
	for _, line := range params.Lines {
		item := f.items[line.ItemID]
		if item == nil || item.stock < line.Quantity {
			available := 0
			name := line.ItemName
			if item != nil {
				available = item.stock
				name = item.name
			}
			return OrderSummary{}, &InsufficientStockError{
				ItemID:    line.ItemID,
				ItemName:  name,
				Requested: line.Quantity,
				Available: available,
			}
		}
	}

	summary := OrderSummary{
		OrderID:       f.nextID,
		PaymentID:     f.nextID,
		StallID:       params.StallID,
		StallName:     params.Lines[0].StallName,
		Status:        "pending",
		PaymentStatus: "pending",
		TotalAmount:   params.TotalAmount,
	}
	f.nextID++

	for _, line := range params.Lines {
		item := f.items[line.ItemID]
		item.stock -= line.Quantity
		item.inStock = item.stock > 0
		summary.Items = append(summary.Items, OrderedItem{
			ItemID:    line.ItemID,
			ItemName:  line.ItemName,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})

		remaining := f.carts[params.BuyerID][:0]
		for _, cl := range f.carts[params.BuyerID] {
			if cl.LineItemID != line.LineItemID {
				remaining = append(remaining, cl)
			}
		}
		f.carts[params.BuyerID] = remaining
	}

	return summary, nil
}

func (f *fakeStore) addItem(itemID, stallID int, name, stallName string, stock int) {
	f.items[itemID] = &fakeItem{
		name:      name,
		stock:     stock,
		inStock:   stock > 0,
		stallID:   stallID,
		stallName: stallName,
	}
}

func (f *fakeStore) addLine(buyerID, lineItemID, itemID, quantity int, unitPrice string) {
	item := f.items[itemID]
	line := CartLine{
		LineItemID: lineItemID,
		ItemID:     itemID,
		Quantity:   quantity,
		UnitPrice:  decimal.RequireFromString(unitPrice),
	}
	if item != nil {
		line.ItemName = item.name
		line.StallID = item.stallID
		line.StallName = item.stallName
		line.Resolved = true
	}
	f.carts[buyerID] = append(f.carts[buyerID], line)
}

func newTestEngine(t *testing.T, store *fakeStore) *Engine {
	t.Helper()
	engine, err := NewEngine(store)
	require.NoError(t, err)
	return engine
}

func TestCheckoutMissingAddress(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(t, store)

	_, err := engine.Checkout(context.Background(), Request{BuyerID: 1, DeliveryAddress: "   "})
	assert.ErrorIs(t, err, ErrMissingAddress)
}

func TestCheckoutNotABuyer(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(t, store)

	_, err := engine.Checkout(context.Background(), Request{BuyerID: 99, DeliveryAddress: "123 Rizal St"})
	assert.ErrorIs(t, err, ErrNotABuyer)
}

func TestCheckoutEmptyCart(t *testing.T) {
	store := newFakeStore()
	store.buyers[1] = true
	engine := newTestEngine(t, store)

	_, err := engine.Checkout(context.Background(), Request{BuyerID: 1, DeliveryAddress: "123 Rizal St"})
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCheckoutSingleStall(t *testing.T) {
	store := newFakeStore()
	store.buyers[1] = true
	store.addItem(10, 5, "bangus", "Aling Nena's", 8)
	store.addItem(11, 5, "tilapia", "Aling Nena's", 4)
	store.addLine(1, 100, 10, 3, "180.00")
	store.addLine(1, 101, 11, 2, "120.50")
	engine := newTestEngine(t, store)

	result, err := engine.Checkout(context.Background(), Request{BuyerID: 1, DeliveryAddress: "123 Rizal St"})
	require.NoError(t, err)

	require.Len(t, result.Orders, 1)
	assert.Empty(t, result.Failed)
	assert.Empty(t, result.Skipped)

	order := result.Orders[0]
	assert.Equal(t, 5, order.StallID)
	assert.Equal(t, "Aling Nena's", order.StallName)
	assert.Equal(t, "pending", order.Status)
	assert.Equal(t, "pending", order.PaymentStatus)
	assert.Len(t, order.Items, 2)

	// total is snapshot price times quantity: 3*180.00 + 2*120.50
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("781.00")),
		"got total %s", order.TotalAmount)

	assert.Equal(t, 5, store.items[10].stock)
	assert.Equal(t, 2, store.items[11].stock)
	assert.True(t, store.items[10].inStock)
	assert.Empty(t, store.carts[1], "cart should be emptied")
}

func TestCheckoutDecrementToZeroClearsInStock(t *testing.T) {
	store := newFakeStore()
	store.buyers[1] = true
	store.addItem(10, 5, "bangus", "Aling Nena's", 3)
	store.addLine(1, 100, 10, 3, "180.00")
	engine := newTestEngine(t, store)

	_, err := engine.Checkout(context.Background(), Request{BuyerID: 1, DeliveryAddress: "123 Rizal St"})
	require.NoError(t, err)

	assert.Equal(t, 0, store.items[10].stock)
	assert.False(t, store.items[10].inStock)
}

func TestCheckoutPartialFailure(t *testing.T) {
	store := newFakeStore()
	store.buyers[1] = true
	store.addItem(10, 5, "bangus", "Aling Nena's", 10)
	store.addItem(20, 7, "kalamansi", "Mang Ben's", 1)
	store.addLine(1, 100, 10, 2, "180.00")
	store.addLine(1, 101, 20, 5, "15.00")
	engine := newTestEngine(t, store)

	result, err := engine.Checkout(context.Background(), Request{BuyerID: 1, DeliveryAddress: "123 Rizal St"})
	require.NoError(t, err)

	require.Len(t, result.Orders, 1)
	assert.Equal(t, 5, result.Orders[0].StallID)

	require.Len(t, result.Failed, 1)
	failure := result.Failed[0]
	assert.Equal(t, 7, failure.StallID)
	assert.Equal(t, "Mang Ben's", failure.StallName)
	assert.Equal(t, 20, failure.ItemID)
	assert.Equal(t, 5, failure.Requested)
	assert.Equal(t, 1, failure.Available)

	// the failed group's stock and cart line are untouched
	assert.Equal(t, 1, store.items[20].stock)
	require.Len(t, store.carts[1], 1)
	assert.Equal(t, 101, store.carts[1][0].LineItemID)

	// the successful group did commit
	assert.Equal(t, 8, store.items[10].stock)
}

func TestCheckoutOrdersAscendingByStall(t *testing.T) {
	store := newFakeStore()
	store.buyers[1] = true
	store.addItem(30, 9, "sitaw", "Veggie Corner", 10)
	store.addItem(10, 3, "bangus", "Aling Nena's", 10)
	store.addItem(20, 6, "kalamansi", "Mang Ben's", 10)
	store.addLine(1, 100, 30, 1, "40.00")
	store.addLine(1, 101, 10, 1, "180.00")
	store.addLine(1, 102, 20, 1, "15.00")
	engine := newTestEngine(t, store)

	result, err := engine.Checkout(context.Background(), Request{BuyerID: 1, DeliveryAddress: "123 Rizal St"})
	require.NoError(t, err)

	require.Len(t, result.Orders, 3)
	assert.Equal(t, []int{3, 6, 9}, []int{
		result.Orders[0].StallID, result.Orders[1].StallID, result.Orders[2].StallID,
	})
}

func TestCheckoutSkipsUnresolvedLines(t *testing.T) {
	store := newFakeStore()
	store.buyers[1] = true
	store.addItem(10, 5, "bangus", "Aling Nena's", 10)
	store.addLine(1, 100, 10, 1, "180.00")
	store.addLine(1, 101, 999, 2, "50.00") // product gone
	engine := newTestEngine(t, store)

	result, err := engine.Checkout(context.Background(), Request{BuyerID: 1, DeliveryAddress: "123 Rizal St"})
	require.NoError(t, err)

	require.Len(t, result.Orders, 1)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, 101, result.Skipped[0].LineItemID)
	assert.Equal(t, 999, result.Skipped[0].ItemID)
}

func TestCheckoutAllLinesUnresolved(t *testing.T) {
	store := newFakeStore()
	store.buyers[1] = true
	store.addLine(1, 100, 999, 2, "50.00")
	engine := newTestEngine(t, store)

	_, err := engine.Checkout(context.Background(), Request{BuyerID: 1, DeliveryAddress: "123 Rizal St"})
	assert.ErrorIs(t, err, ErrNoValidItems)
}

func TestCheckoutRerunOnEmptiedCart(t *testing.T) {
	store := newFakeStore()
	store.buyers[1] = true
	store.addItem(10, 5, "bangus", "Aling Nena's", 10)
	store.addLine(1, 100, 10, 1, "180.00")
	engine := newTestEngine(t, store)

	_, err := engine.Checkout(context.Background(), Request{BuyerID: 1, DeliveryAddress: "123 Rizal St"})
	require.NoError(t, err)

	_, err = engine.Checkout(context.Background(), Request{BuyerID: 1, DeliveryAddress: "123 Rizal St"})
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCheckoutStoreErrorAborts(t *testing.T) {
	store := newFakeStore()
	store.buyers[1] = true
	store.addItem(10, 5, "bangus", "Aling Nena's", 10)
	store.addLine(1, 100, 10, 1, "180.00")
	store.storeErr = errors.New("connection reset")
	engine := newTestEngine(t, store)

	result, err := engine.Checkout(context.Background(), Request{BuyerID: 1, DeliveryAddress: "123 Rizal St"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, result.Orders)
}

func TestCheckoutConcurrentOversell(t *testing.T) {
	store := newFakeStore()
	store.buyers[1] = true
	store.buyers[2] = true
	store.addItem(10, 5, "bangus", "Aling Nena's", 1)
	store.addLine(1, 100, 10, 1, "180.00")
	store.addLine(2, 200, 10, 1, "180.00")
	engine := newTestEngine(t, store)

	results := make([]Result, 2)
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, buyerID := range []int{1, 2} {
		wg.Add(1)
		go func(i, buyerID int) {
			defer wg.Done()
			results[i], errs[i] = engine.Checkout(context.Background(),
				Request{BuyerID: buyerID, DeliveryAddress: "123 Rizal St"})
		}(i, buyerID)
	}
	wg.Wait()

	won := 0
	for i := range results {
		require.NoError(t, errs[i])
		if len(results[i].Orders) == 1 {
			won++
		} else {
			require.Len(t, results[i].Failed, 1)
			assert.Equal(t, 0, results[i].Failed[0].Available)
		}
	}
	assert.Equal(t, 1, won, "exactly one buyer should get the last unit")
	assert.Equal(t, 0, store.items[10].stock)
}

func TestNewEngineNilStore(t *testing.T) {
	_, err := NewEngine(nil)
	assert.Error(t, err)
}
