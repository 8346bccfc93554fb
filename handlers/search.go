package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"palengke-backend/pkg/ctxmanage"
	"palengke-backend/pkg/logkey"

	"github.com/gin-gonic/gin"
)

const suggestLimit = 10

// Suggest serves typeahead search over stalls and stall items.
func (h *Handler) Suggest(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	query := strings.TrimSpace(c.Query("q"))
	if len(query) < 2 {
		c.JSON(http.StatusOK, gin.H{"results": []gin.H{}, "query": query, "count": 0})
		return
	}

	stallResults, err := h.st.SearchStalls(c.Request.Context(), query, suggestLimit)
	if err != nil {
		slog.Error("error searching stalls", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
		return
	}
	productResults, err := h.p.SearchProducts(c.Request.Context(), query, suggestLimit)
	if err != nil {
		slog.Error("error searching products", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
		return
	}

	results := make([]gin.H, 0, len(stallResults)+len(productResults))
	for _, s := range stallResults {
		results = append(results, gin.H{
			"id":       s.ID,
			"name":     s.Name,
			"type":     "stall",
			"category": s.Category,
		})
	}
	for _, p := range productResults {
		results = append(results, gin.H{
			"id":       p.ID,
			"name":     p.Name,
			"type":     "item",
			"price":    p.Price,
			"in_stock": p.InStock,
			"stall_id": p.StallID,
		})
	}

	c.JSON(http.StatusOK, gin.H{"results": results, "query": query, "count": len(results)})
}
