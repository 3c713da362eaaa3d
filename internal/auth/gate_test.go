package auth

import (
	"context"
	stderrors "errors"
	"net/http"
	"testing"
	"time"

	"Studio/internal/entity"
	"Studio/internal/errors"
	"Studio/internal/test"
	"Studio/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = context.Background()

func newGate() *Gate {
	return NewGate(test.MockAccessSecret, log.Nop())
}

func TestAuthenticateAllowedRoles(t *testing.T) {
	gate := newGate()
	for _, role := range []string{"super_admin", "org_owner", "org_admin", "controller"} {
		principal, err := gate.Authenticate(ctx, test.RoleToken("u-1", role))
		require.NoError(t, err, role)
		assert.Equal(t, role, principal.Role)
		assert.Equal(t, "u-1", principal.ID)
	}
}

func TestAuthenticateViewerIsForbidden(t *testing.T) {
	_, err := newGate().Authenticate(ctx, test.RoleToken("u-2", "viewer"))
	assert.True(t, stderrors.Is(err, errors.Forbidden("")))
	assert.False(t, stderrors.Is(err, errors.Unauthorized("")))
}

func TestAuthenticateMissingRoleIsForbidden(t *testing.T) {
	token := test.MintToken(test.MockAccessSecret, jwt.MapClaims{"id": "u-3"})
	_, err := newGate().Authenticate(ctx, token)
	assert.True(t, stderrors.Is(err, errors.Forbidden("")))
}

func TestAuthenticateInvalidCredentials(t *testing.T) {
	cases := map[string]string{
		"empty":      "",
		"garbage":    "not-a-jwt",
		"bad secret": test.MintToken("SomeOtherSecret", jwt.MapClaims{"id": "u", "role": "org_admin"}),
		"expired":    test.MintToken(test.MockAccessSecret, jwt.MapClaims{"id": "u", "role": "org_admin", "exp": time.Now().Add(-time.Minute).Unix()}),
	}
	gate := newGate()
	for name, token := range cases {
		_, err := gate.Authenticate(ctx, token)
		assert.True(t, stderrors.Is(err, errors.Unauthorized("")), name)
	}
}

func TestAuthenticateRejectsNonHMAC(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"id": "u", "role": "org_admin"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = newGate().Authenticate(ctx, token)
	assert.True(t, stderrors.Is(err, errors.Unauthorized("")))
}

func TestAuthenticateClaimFallbacks(t *testing.T) {
	gate := newGate()

	token := test.MintToken(test.MockAccessSecret, jwt.MapClaims{"sub": "sub-7", "username": "ops", "roles": []string{"viewer", "Controller"}})
	principal, err := gate.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, entity.Principal{ID: "sub-7", DisplayName: "ops", Role: "controller"}, principal)

	token = test.MintToken(test.MockAccessSecret, jwt.MapClaims{"user_id": 42, "role": "org_owner"})
	principal, err = gate.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "42", principal.ID)
	assert.Equal(t, "42", principal.DisplayName)
}

func TestAuthorize(t *testing.T) {
	assert.NoError(t, Authorize(entity.Principal{Role: "org_admin"}))
	assert.True(t, stderrors.Is(Authorize(entity.Principal{Role: "viewer"}), errors.Forbidden("")))
}

func TestAuthMiddleware(t *testing.T) {
	router := test.MockRouter()
	router.GET("/whoami", AuthMiddleware(newGate(), log.Nop()), func(gctx *gin.Context) {
		principal, ok := PrincipalFrom(gctx)
		require.True(t, ok)
		gctx.JSON(http.StatusOK, principal)
	})

	test.ExecuteAPITest(t, router, test.RequestAPITest{Method: http.MethodGet, Path: "/whoami", WantResponse: []int{http.StatusUnauthorized}})
	test.ExecuteAPITest(t, router, test.RequestAPITest{
		Method: http.MethodGet, Path: "/whoami",
		Headers:      map[string]string{"Authorization": "Basic Zm9vOmJhcg=="},
		WantResponse: []int{http.StatusUnauthorized},
	})
	test.ExecuteAPITest(t, router, test.RequestAPITest{
		Method: http.MethodGet, Path: "/whoami",
		Headers:      test.Bearer(test.RoleToken("u-9", "viewer")),
		WantResponse: []int{http.StatusForbidden},
	})
	w := test.ExecuteAPITest(t, router, test.RequestAPITest{
		Method: http.MethodGet, Path: "/whoami",
		Headers:      test.Bearer(test.RoleToken("u-9", "org_admin")),
		WantResponse: []int{http.StatusOK},
	})
	assert.Contains(t, w.Body.String(), `"role":"org_admin"`)
	test.ExecuteAPITest(t, router, test.RequestAPITest{
		Method: http.MethodGet, Path: "/whoami?token=" + test.RoleToken("u-9", "controller"),
		WantResponse: []int{http.StatusOK},
	})
}
