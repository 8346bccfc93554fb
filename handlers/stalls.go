package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"palengke-backend/internal/stalls"
	"palengke-backend/pkg/ctxmanage"
	"palengke-backend/pkg/logkey"

	"github.com/gin-gonic/gin"
)

func (h *Handler) CreateStall(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	vendorID, ok := currentUserID(c)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var newStall stalls.NewStall
	if err := c.ShouldBindJSON(&newStall); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := h.validate.Struct(newStall); err != nil {
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stall, err := h.st.InsertStall(c.Request.Context(), vendorID, newStall)
	if err != nil {
		slog.Error("error creating stall", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Stall creation failed"})
		return
	}

	slog.Info("stall created", slog.String(logkey.TraceID, traceId), slog.Int("StallID", stall.ID), slog.Int("VendorID", vendorID))
	c.JSON(http.StatusCreated, gin.H{"message": "Stall created successfully", "stall": stall})
}

func (h *Handler) GetStall(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	stallID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		slog.Error("invalid stall id", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid stall ID"})
		return
	}

	stall, err := h.st.GetStallByID(c.Request.Context(), stallID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			slog.Error("stall not found", slog.String(logkey.TraceID, traceId), slog.Int("StallID", stallID))
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Stall not found"})
			return
		}
		slog.Error("error fetching stall", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stall"})
		return
	}

	c.JSON(http.StatusOK, stall)
}

func (h *Handler) ListStalls(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	category := c.Query("category")
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
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

	result, err := h.st.ListStalls(c.Request.Context(), category, limit, offset)
	if err != nil {
		slog.Error("error listing stalls", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stalls"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"stalls": result})
}

func (h *Handler) UpdateStall(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	vendorID, ok := currentUserID(c)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	stallID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		slog.Error("invalid stall id", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid stall ID"})
		return
	}

	var update stalls.NewStall
	if err := c.ShouldBindJSON(&update); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := h.validate.Struct(update); err != nil {
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stall, err := h.st.UpdateStall(c.Request.Context(), stallID, vendorID, update)
	if err != nil {
		if errors.Is(err, stalls.ErrNotOwner) {
			slog.Error("stall not found or not owned", slog.String(logkey.TraceID, traceId), slog.Int("StallID", stallID), slog.Int("VendorID", vendorID))
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Stall not found"})
			return
		}
		slog.Error("error updating stall", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Stall update failed"})
		return
	}

	slog.Info("stall updated", slog.String(logkey.TraceID, traceId), slog.Int("StallID", stall.ID))
	c.JSON(http.StatusOK, gin.H{"message": "Stall updated successfully", "stall": stall})
}
