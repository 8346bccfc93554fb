package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"palengke-backend/internal/checkout"
	"palengke-backend/internal/stores/kafka"
	"palengke-backend/pkg/ctxmanage"
	"palengke-backend/pkg/logkey"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/checkout/session"
)

// Payment methods accepted at checkout.
const (
	PaymentMethodCOD  = "cod"
	PaymentMethodCard = "card"
)

func (h *Handler) Checkout(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	buyerID, ok := currentUserID(c)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var request struct {
		DeliveryAddress string `json:"delivery_address"`
		PaymentMethod   string `json:"payment_method"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if request.PaymentMethod == "" {
		request.PaymentMethod = PaymentMethodCOD
	}
	if request.PaymentMethod != PaymentMethodCOD && request.PaymentMethod != PaymentMethodCard {
		slog.Error("unsupported payment method", slog.String(logkey.TraceID, traceId), slog.String("Method", request.PaymentMethod))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Unsupported payment method"})
		return
	}

	result, err := h.co.Checkout(c.Request.Context(), checkout.Request{
		BuyerID:         buyerID,
		DeliveryAddress: request.DeliveryAddress,
		PaymentMethod:   request.PaymentMethod,
	})
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrMissingAddress):
			slog.Error("missing delivery address", slog.String(logkey.TraceID, traceId))
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Delivery address is required"})
		case errors.Is(err, checkout.ErrNotABuyer):
			slog.Error("user is not a buyer", slog.String(logkey.TraceID, traceId), slog.Int("UserID", buyerID))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Only buyers can checkout"})
		case errors.Is(err, checkout.ErrEmptyCart):
			slog.Error("cart is empty", slog.String(logkey.TraceID, traceId), slog.Int("BuyerID", buyerID))
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Cart is empty"})
		case errors.Is(err, checkout.ErrNoValidItems):
			slog.Error("no valid items in cart", slog.String(logkey.TraceID, traceId), slog.Int("BuyerID", buyerID))
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "No items with valid stall information"})
		default:
			slog.Error("checkout failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
		}
		return
	}

	if h.k != nil {
		go h.produceOrderCreatedEvents(buyerID, result.Orders)
	}

	response := gin.H{
		"message":      "Order created successfully",
		"orders":       result.Orders,
		"total_orders": len(result.Orders),
	}
	if len(result.Failed) > 0 {
		response["failed_stalls"] = result.Failed
	}
	if len(result.Skipped) > 0 {
		response["skipped_items"] = result.Skipped
	}

	if request.PaymentMethod == PaymentMethodCard && len(result.Orders) > 0 {
		sessions, err := createStripeSessions(result.Orders, traceId)
		if err != nil {
			// orders are already placed; surface the payment setup failure
			slog.Error("error creating Stripe checkout sessions", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			response["payment_error"] = "Failed to create Stripe checkout session, pay on delivery or retry payment"
		} else {
			response["checkout_sessions"] = sessions
		}
	}

	slog.Info("checkout completed", slog.String(logkey.TraceID, traceId), slog.Int("BuyerID", buyerID),
		slog.Int("Orders", len(result.Orders)), slog.Int("FailedStalls", len(result.Failed)))
	c.JSON(http.StatusOK, response)
}

// createStripeSessions opens one Stripe checkout session per created order.
// The order id travels in the payment intent metadata so the webhook can
// resolve it later.
func createStripeSessions(orders []checkout.OrderSummary, traceId string) ([]gin.H, error) {
	sKey := os.Getenv("STRIPE_TEST_KEY")
	if sKey == "" {
		return nil, fmt.Errorf("STRIPE_TEST_KEY is not set")
	}
	stripe.Key = sKey

	successURL := os.Getenv("STRIPE_SUCCESS_URL")
	if successURL == "" {
		successURL = "https://example.com/success"
	}
	cancelURL := os.Getenv("STRIPE_CANCEL_URL")
	if cancelURL == "" {
		cancelURL = "https://example.com/cancel"
	}

	var sessions []gin.H
	for _, order := range orders {
		amount := order.TotalAmount.Mul(decimal.NewFromInt(100)).IntPart()
		params := &stripe.CheckoutSessionParams{
			SubmitType: stripe.String("pay"),
			Currency:   stripe.String(string(stripe.CurrencyPHP)),
			Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
			LineItems: []*stripe.CheckoutSessionLineItemParams{
				{
					PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
						Currency:   stripe.String(string(stripe.CurrencyPHP)),
						UnitAmount: stripe.Int64(amount),
						ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
							Name: stripe.String(fmt.Sprintf("Order #%d - %s", order.OrderID, order.StallName)),
						},
					},
					Quantity: stripe.Int64(1),
				},
			},
			SuccessURL: stripe.String(successURL),
			CancelURL:  stripe.String(cancelURL),
			PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
				Metadata: map[string]string{
					"order_id": strconv.Itoa(order.OrderID),
				},
			},
		}
		sessionStripe, err := session.New(params)
		if err != nil {
			return nil, fmt.Errorf("creating session for order %d: %w", order.OrderID, err)
		}
		slog.Info("Stripe checkout session created", slog.String(logkey.TraceID, traceId),
			slog.Int("OrderID", order.OrderID), slog.String("SessionID", sessionStripe.ID))
		sessions = append(sessions, gin.H{
			"order_id":             order.OrderID,
			"checkout_session_url": sessionStripe.URL,
		})
	}
	return sessions, nil
}

func (h *Handler) produceOrderCreatedEvents(buyerID int, orders []checkout.OrderSummary) {
	for _, order := range orders {
		event := kafka.OrderCreatedEvent{
			OrderID:     order.OrderID,
			BuyerID:     buyerID,
			StallID:     order.StallID,
			TotalAmount: order.TotalAmount.StringFixed(2),
			CreatedAt:   time.Now().UTC(),
		}
		jsonData, err := json.Marshal(event)
		if err != nil {
			slog.Error("failed to marshal order created event", slog.String(logkey.ERROR, err.Error()))
			continue
		}
		key := []byte(strconv.Itoa(order.OrderID))
		if err := h.k.ProduceMessage(kafka.TopicOrderCreated, key, jsonData); err != nil {
			slog.Error("failed to produce order created event", slog.String(logkey.ERROR, err.Error()))
		}
	}
}
