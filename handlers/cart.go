package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"palengke-backend/internal/cart"
	"palengke-backend/pkg/ctxmanage"
	"palengke-backend/pkg/logkey"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetCart(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	buyerID, ok := currentUserID(c)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	cartResponse, err := h.cConf.GetCart(c.Request.Context(), buyerID)
	if err != nil {
		slog.Error("error fetching cart", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()), slog.Int("BuyerID", buyerID))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch cart"})
		return
	}

	c.JSON(http.StatusOK, cartResponse)
}

func (h *Handler) AddToCart(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	buyerID, ok := currentUserID(c)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var request struct {
		ItemID   int `json:"item_id"`
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	if request.Quantity == 0 {
		request.Quantity = 1
	}
	if request.ItemID <= 0 || request.Quantity < 0 {
		slog.Error("invalid item ID or quantity", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Item ID and quantity must be valid"})
		return
	}

	err := h.cConf.AddToCart(c.Request.Context(), buyerID, request.ItemID, request.Quantity)
	if err != nil {
		var stockErr *cart.InsufficientStockError
		switch {
		case errors.Is(err, cart.ErrItemNotFound):
			slog.Error("item not found", slog.String(logkey.TraceID, traceId), slog.Int("ItemID", request.ItemID))
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Item not found"})
		case errors.Is(err, cart.ErrOutOfStock):
			slog.Error("item out of stock", slog.String(logkey.TraceID, traceId), slog.Int("ItemID", request.ItemID))
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Item is out of stock"})
		case errors.As(err, &stockErr):
			slog.Error("insufficient stock", slog.String(logkey.TraceID, traceId),
				slog.Int("ItemID", stockErr.ItemID), slog.Int("Requested", stockErr.Requested), slog.Int("Available", stockErr.Available))
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"message": "Insufficient stock available",
				"requested": stockErr.Requested, "available": stockErr.Available})
		default:
			slog.Error("error adding item to cart", slog.String(logkey.TraceID, traceId),
				slog.String(logkey.ERROR, err.Error()), slog.Int("ItemID", request.ItemID), slog.Int("Quantity", request.Quantity))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to add item to cart"})
		}
		return
	}

	slog.Info("item added to cart", slog.String(logkey.TraceID, traceId),
		slog.Int("ItemID", request.ItemID), slog.Int("Quantity", request.Quantity), slog.Int("BuyerID", buyerID))
	c.JSON(http.StatusOK, gin.H{"message": "Item added to cart successfully"})
}

func (h *Handler) UpdateCartItem(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	buyerID, ok := currentUserID(c)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	lineItemID, err := strconv.Atoi(c.Param("lineItemID"))
	if err != nil {
		slog.Error("invalid line item id", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid line item ID"})
		return
	}

	var request struct {
		Quantity *int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&request); err != nil || request.Quantity == nil || *request.Quantity < 0 {
		slog.Error("invalid quantity", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Valid quantity is required"})
		return
	}

	err = h.cConf.UpdateCartItem(c.Request.Context(), buyerID, lineItemID, *request.Quantity)
	if err != nil {
		var stockErr *cart.InsufficientStockError
		switch {
		case errors.Is(err, cart.ErrLineItemNotFound):
			slog.Error("cart item not found", slog.String(logkey.TraceID, traceId), slog.Int("LineItemID", lineItemID))
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Cart item not found"})
		case errors.As(err, &stockErr):
			slog.Error("insufficient stock", slog.String(logkey.TraceID, traceId),
				slog.Int("ItemID", stockErr.ItemID), slog.Int("Requested", stockErr.Requested), slog.Int("Available", stockErr.Available))
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"message": "Insufficient stock available",
				"requested": stockErr.Requested, "available": stockErr.Available})
		default:
			slog.Error("error updating cart item", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to update cart item"})
		}
		return
	}

	if *request.Quantity == 0 {
		c.JSON(http.StatusOK, gin.H{"message": "Item removed from cart"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart item updated"})
}

func (h *Handler) RemoveFromCart(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	buyerID, ok := currentUserID(c)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	lineItemID, err := strconv.Atoi(c.Param("lineItemID"))
	if err != nil {
		slog.Error("invalid line item id", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid line item ID"})
		return
	}

	if err := h.cConf.RemoveFromCart(c.Request.Context(), buyerID, lineItemID); err != nil {
		if errors.Is(err, cart.ErrLineItemNotFound) {
			slog.Error("cart item not found", slog.String(logkey.TraceID, traceId), slog.Int("LineItemID", lineItemID))
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Cart item not found"})
			return
		}
		slog.Error("error removing cart item", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to remove item from cart"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Item removed from cart"})
}

func (h *Handler) ClearCart(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	buyerID, ok := currentUserID(c)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.cConf.ClearCart(c.Request.Context(), buyerID); err != nil {
		slog.Error("error clearing cart", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to clear cart"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}
