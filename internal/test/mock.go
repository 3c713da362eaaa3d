// Mock methods required in the command centre tests are all here.

package test

import (
	"time"

	"Studio/pkg/middlewares"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

// Secret shared by MintToken and the gates built in tests.
const MockAccessSecret = "MockAccessSecret"

// MockRouter returns a fresh gin engine in test mode with the shared middlewares applied.
func MockRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middlewares.CORSMiddleware("*"), middlewares.CorrelationMiddleware())
	return router
}

// MintToken signs claims with secret using HS256. An "exp" one hour ahead is added unless present.
func MintToken(secret string, claims jwt.MapClaims) string {
	if _, ok := claims["exp"]; !ok {
		claims["exp"] = time.Now().Add(time.Hour).Unix()
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		panic(err)
	}
	return token
}

// RoleToken mints a token for id with role, signed with MockAccessSecret.
func RoleToken(id, role string) string {
	return MintToken(MockAccessSecret, jwt.MapClaims{"id": id, "name": id, "role": role})
}
