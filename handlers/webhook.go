package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"palengke-backend/internal/orders"
	"palengke-backend/internal/stores/kafka"
	"palengke-backend/pkg/logkey"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v81"
)

// Webhook handles Stripe events. payment_intent.succeeded settles the
// order referenced by the intent's metadata.
func (h *Handler) Webhook(c *gin.Context) {
	traceId := uuid.NewString()
	const MaxBodyBytes = int64(65536)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)

	var event stripe.Event
	if err := c.ShouldBindJSON(&event); err != nil {
		slog.Error("failed to bind webhook event", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch event.Type {
	case "payment_intent.succeeded":
		var paymentIntent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &paymentIntent); err != nil {
			slog.Error("failed to unmarshal payment intent", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		orderID, err := strconv.Atoi(paymentIntent.Metadata["order_id"])
		if err != nil {
			slog.Error("payment intent without order_id metadata", slog.String(logkey.TraceID, traceId), slog.String("PaymentIntentID", paymentIntent.ID))
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing order_id metadata"})
			return
		}
		slog.Info("payment intent succeeded", slog.String(logkey.TraceID, traceId),
			slog.Int("OrderID", orderID), slog.String("PaymentIntentID", paymentIntent.ID))

		if err := h.o.MarkPaid(c.Request.Context(), orderID, paymentIntent.ID); err != nil {
			if errors.Is(err, orders.ErrOrderNotFound) {
				slog.Error("order not found or already settled", slog.String(logkey.TraceID, traceId), slog.Int("OrderID", orderID))
				// acknowledge so Stripe stops retrying a stale event
				c.Status(http.StatusOK)
				return
			}
			slog.Error("failed to mark order paid", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to update order"})
			return
		}

		if h.k != nil {
			go func() {
				event := kafka.OrderPaidEvent{
					OrderID:    orderID,
					PaymentRef: paymentIntent.ID,
					CreatedAt:  time.Now().UTC(),
				}
				jsonData, err := json.Marshal(event)
				if err != nil {
					slog.Error("failed to marshal order paid event", slog.String(logkey.ERROR, err.Error()))
					return
				}
				key := []byte(strconv.Itoa(orderID))
				if err := h.k.ProduceMessage(kafka.TopicOrderPaid, key, jsonData); err != nil {
					slog.Error("failed to produce order paid event", slog.String(logkey.ERROR, err.Error()))
				}
			}()
		}

		c.Status(http.StatusOK)

	default:
		slog.Info("unhandled event type", slog.String(logkey.TraceID, traceId), slog.String("event_type", string(event.Type)))
		c.JSON(http.StatusOK, gin.H{"message": "Event type not handled", "event": event.Type})
	}
}
