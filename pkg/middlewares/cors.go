package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// This middleware handles CORS policy for the command centre.
func CORSMiddleware(addr string) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		gctx.Writer.Header().Set("Access-Control-Allow-Origin", addr)
		gctx.Writer.Header().Set("Vary", "Origin")
		gctx.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		gctx.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Correlation-ID")
		gctx.Writer.Header().Set("Access-Control-Expose-Headers", "X-Correlation-ID")
		gctx.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if gctx.Request.Method == http.MethodOptions {
			gctx.AbortWithStatus(http.StatusNoContent)
			return
		}

		gctx.Next()
	}
}
