package middlewares

import (
	"Studio/pkg/log"
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/xid"
)

// Header carrying the correlation id back to the caller.
const CorrelationHeader = "X-Correlation-ID"

// This middleware will be used to populate every incoming request's context with an Unique CorrelationID.
// An id supplied by an upstream proxy is reused so a chain of services logs the same value.
func CorrelationMiddleware() gin.HandlerFunc {
	return func(gctx *gin.Context) {
		correlationID := gctx.GetHeader(CorrelationHeader)
		if _, err := xid.FromString(correlationID); err != nil {
			correlationID = xid.New().String()
		}
		// Setting the correlationID in gin's and the request's context, read back by log.WithCtx
		gctx.Set(log.CorrelationKey, correlationID)
		gctx.Request = gctx.Request.WithContext(context.WithValue(gctx.Request.Context(), log.CorrelationKey, correlationID)) //nolint:staticcheck

		// Setting the correlationID to response header
		gctx.Writer.Header().Set(CorrelationHeader, correlationID)
		gctx.Next()
	}
}
