// Auth middleware is used to validate the bearer token sent with every command centre request.

package auth

import (
	"Studio/internal/entity"
	"Studio/internal/errors"
	"Studio/pkg/log"
	"strings"

	"github.com/gin-gonic/gin"
)

// Context key under which the admitted Principal is stored.
const PrincipalKey = "Principal"

// This middleware admits the request only when the credential passes the gate.
// Blocks the request with 401 for missing or invalid credentials and 403 for disallowed roles.
func AuthMiddleware(gate Authenticator, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		principal, err := gate.Authenticate(gctx, BearerToken(gctx))
		if err != nil {
			resp := errors.AsResponse(err)
			logger.WithCtx(gctx).Warn().Str("error", resp.Code).Msg("Request rejected by access gate")
			gctx.AbortWithStatusJSON(resp.Status, resp)
			return
		}
		// Set Principal in request's context
		// This will be used further down in the handler chain
		gctx.Set(PrincipalKey, principal)
		gctx.Next()
	}
}

// PrincipalFrom returns the Principal stored by AuthMiddleware.
func PrincipalFrom(gctx *gin.Context) (entity.Principal, bool) {
	v, ok := gctx.Get(PrincipalKey)
	if !ok {
		return entity.Principal{}, false
	}
	principal, ok := v.(entity.Principal)
	return principal, ok
}

// BearerToken extracts the credential from the Authorization header. Browsers cannot set headers
// on a websocket handshake, so the "token" query parameter is accepted as well.
func BearerToken(gctx *gin.Context) string {
	header := gctx.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return gctx.Query("token")
}
