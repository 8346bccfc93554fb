package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"palengke-backend/internal/orders"
	"palengke-backend/pkg/ctxmanage"
	"palengke-backend/pkg/logkey"

	"github.com/gin-gonic/gin"
)

func (h *Handler) VendorOrders(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	vendorID, ok := currentUserID(c)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	stallID, _ := strconv.Atoi(c.DefaultQuery("stall_id", "0"))
	sortBy := c.DefaultQuery("sort", "newest")

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit <= 0 {
		slog.Error("invalid limit parameter", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
		return
	}
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page <= 0 {
		slog.Error("invalid page parameter", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid page parameter"})
		return
	}

	filter := orders.ListFilter{
		StallID: stallID,
		SortBy:  sortBy,
		Limit:   limit,
		Offset:  (page - 1) * limit,
	}
	result, total, err := h.o.ListVendorOrders(c.Request.Context(), vendorID, filter)
	if err != nil {
		slog.Error("error fetching vendor orders", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": result, "totalCount": total})
}

func (h *Handler) BuyerOrders(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	buyerID, ok := currentUserID(c)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit <= 0 {
		slog.Error("invalid limit parameter", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		slog.Error("invalid offset parameter", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid offset parameter"})
		return
	}

	result, err := h.o.ListBuyerOrders(c.Request.Context(), buyerID, limit, offset)
	if err != nil {
		slog.Error("error fetching buyer orders", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": result})
}
