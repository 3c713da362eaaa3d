// AccessGate verifies credentials and admits only privileged principals.

package auth

import (
	"Studio/internal/entity"
	"Studio/internal/errors"
	"Studio/pkg/log"
	"context"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

// Roles admitted onto the control channel and the REST surface.
var AllowedRoles = map[string]struct{}{
	entity.RoleSuperAdmin: {},
	entity.RoleOrgOwner:   {},
	entity.RoleOrgAdmin:   {},
	entity.RoleController: {},
}

// Upstream issuers disagree on claim names, so each field is looked up in order.
var (
	idClaims   = []string{"id", "userId", "user_id", "uid", "sub"}
	nameClaims = []string{"displayName", "display_name", "name", "username", "email"}
)

// Authenticator maps an opaque credential to a Principal.
type Authenticator interface {
	Authenticate(ctx context.Context, credential string) (entity.Principal, error)
}

// Gate is the HS256 Authenticator.
type Gate struct {
	secret []byte
	logger log.Logger
}

// NewGate returns a Gate verifying tokens signed with secret.
func NewGate(secret string, logger log.Logger) *Gate {
	return &Gate{secret: []byte(secret), logger: logger}
}

// Authenticate fails with errors.Unauthorized (invalid_credential) when the token is malformed,
// badly signed or expired, and with errors.Forbidden when its role is absent or not allowed.
func (g *Gate) Authenticate(ctx context.Context, credential string) (entity.Principal, error) {
	if credential == "" {
		return entity.Principal{}, errors.Unauthorized("Missing credential.")
	}
	token, err := jwt.Parse(credential, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method found: %v", t.Header["alg"])
		}
		return g.secret, nil
	})
	if err != nil || !token.Valid {
		g.logger.WithCtx(ctx).Debug().Err(err).Msg("Rejected credential")
		return entity.Principal{}, errors.Unauthorized("Invalid or expired credential.")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return entity.Principal{}, errors.Unauthorized("Invalid credential claims.")
	}

	role := roleOf(claims)
	if _, allowed := AllowedRoles[role]; !allowed {
		g.logger.WithCtx(ctx).Info().Str("role", role).Msg("Rejected principal with disallowed role")
		return entity.Principal{}, errors.Forbidden(fmt.Sprintf("Role %q may not access the command centre.", role))
	}

	principal := entity.Principal{
		ID:          firstClaim(claims, idClaims),
		DisplayName: firstClaim(claims, nameClaims),
		Role:        role,
	}
	if principal.ID == "" {
		principal.ID = "anonymous"
	}
	if principal.DisplayName == "" {
		principal.DisplayName = principal.ID
	}
	return principal, nil
}

// Authorize re-checks a principal already admitted, commands call it before dispatch.
func Authorize(principal entity.Principal) error {
	if _, allowed := AllowedRoles[principal.Role]; !allowed {
		return errors.Forbidden(fmt.Sprintf("Role %q may not issue commands.", principal.Role))
	}
	return nil
}

// roleOf reads "role", falling back to the first allowed entry of a "roles" list.
func roleOf(claims jwt.MapClaims) string {
	if role, ok := claims["role"].(string); ok && role != "" {
		return strings.ToLower(strings.TrimSpace(role))
	}
	if roles, ok := claims["roles"].([]interface{}); ok {
		first := ""
		for _, r := range roles {
			s, ok := r.(string)
			if !ok {
				continue
			}
			s = strings.ToLower(strings.TrimSpace(s))
			if _, allowed := AllowedRoles[s]; allowed {
				return s
			}
			if first == "" {
				first = s
			}
		}
		return first
	}
	return ""
}

func firstClaim(claims jwt.MapClaims, names []string) string {
	for _, name := range names {
		switch v := claims[name].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			// numeric ids arrive as float64 from encoding/json
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}
