package middleware

import (
	"log/slog"
	"time"

	"palengke-backend/pkg/ctxmanage"
	"palengke-backend/pkg/logkey"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Logger attaches a trace id to every request context and logs the request
// once it completes.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceId := uuid.NewString()
		ctx := ctxmanage.WithTraceId(c.Request.Context(), traceId)
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		slog.Info("request started", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.Method, c.Request.Method), slog.String(logkey.URL, c.Request.URL.Path))

		c.Next()

		slog.Info("request completed", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.Method, c.Request.Method), slog.String(logkey.URL, c.Request.URL.Path),
			slog.Int(logkey.Status, c.Writer.Status()),
			slog.String("DURATION", time.Since(start).String()))
	}
}
