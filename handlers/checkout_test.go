package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"palengke-backend/internal/auth"
	"palengke-backend/internal/checkout"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCheckout struct {
	gotReq checkout.Request
	result checkout.Result
	err    error
}

func (s *stubCheckout) Checkout(_ context.Context, req checkout.Request) (checkout.Result, error) {
	s.gotReq = req
	return s.result, s.err
}

func performCheckout(t *testing.T, svc checkout.Service, body string, asBuyer bool) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := &Handler{co: svc}
	router := gin.New()
	router.POST("/checkout", func(c *gin.Context) {
		if asBuyer {
			claims := auth.Claims{
				RegisteredClaims: jwt.RegisteredClaims{Subject: "7"},
				Roles:            []string{auth.RoleBuyer},
			}
			ctx := context.WithValue(c.Request.Context(), auth.ClaimsKey, claims)
			c.Request = c.Request.WithContext(ctx)
		}
		h.Checkout(c)
	})

	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCheckoutHandlerSuccess(t *testing.T) {
	svc := &stubCheckout{
		result: checkout.Result{
			Orders: []checkout.OrderSummary{
				{OrderID: 1, StallID: 5, StallName: "Aling Nena's", Status: "pending",
					TotalAmount: decimal.RequireFromString("781.00")},
			},
		},
	}

	rec := performCheckout(t, svc, `{"delivery_address":"123 Rizal St"}`, true)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 7, svc.gotReq.BuyerID)
	assert.Equal(t, "123 Rizal St", svc.gotReq.DeliveryAddress)
	assert.Equal(t, PaymentMethodCOD, svc.gotReq.PaymentMethod, "payment method defaults to cod")

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "orders")
	assert.NotContains(t, body, "failed_stalls")
	assert.NotContains(t, body, "skipped_items")
}

func TestCheckoutHandlerPartialFailure(t *testing.T) {
	svc := &stubCheckout{
		result: checkout.Result{
			Orders: []checkout.OrderSummary{{OrderID: 1, StallID: 5}},
			Failed: []checkout.GroupFailure{
				{StallID: 7, ItemID: 20, Requested: 5, Available: 1, Reason: "insufficient stock"},
			},
		},
	}

	rec := performCheckout(t, svc, `{"delivery_address":"123 Rizal St"}`, true)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "failed_stalls")
}

func TestCheckoutHandlerUnauthorized(t *testing.T) {
	rec := performCheckout(t, &stubCheckout{}, `{"delivery_address":"123 Rizal St"}`, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCheckoutHandlerUnsupportedPaymentMethod(t *testing.T) {
	rec := performCheckout(t, &stubCheckout{}, `{"delivery_address":"123 Rizal St","payment_method":"gcash"}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckoutHandlerErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"missing address", checkout.ErrMissingAddress, http.StatusBadRequest},
		{"not a buyer", checkout.ErrNotABuyer, http.StatusForbidden},
		{"empty cart", checkout.ErrEmptyCart, http.StatusBadRequest},
		{"no valid items", checkout.ErrNoValidItems, http.StatusBadRequest},
		{"store failure", context.DeadlineExceeded, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := performCheckout(t, &stubCheckout{err: tt.err}, `{"delivery_address":"123 Rizal St"}`, true)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
