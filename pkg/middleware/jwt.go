package middleware

import (
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var (
	jwtKey     []byte
	jwtKeyOnce sync.Once
)

// GetJWTKey returns the shared signing key. Read lazily so the .env file has
// been loaded by the time the key is needed.
func GetJWTKey() []byte {
	jwtKeyOnce.Do(func() {
		jwtKey = []byte(os.Getenv("JWT_KEY"))
	})
	return jwtKey
}

// JWTClaims carries the authenticated identity issued by the campus SSO.
// Token issuance lives outside this service; only validation happens here.
type JWTClaims struct {
	Name  string `json:"name"`
	Email string `json:"email"` // Matched against the directory for the acting user
	Role  string `json:"role"`  // Needed for RBAC on protected endpoints
	jwt.RegisteredClaims
}

func JWTMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Missing Token"})
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		tokenString = strings.TrimSpace(tokenString)

		claims := &JWTClaims{}

		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return GetJWTKey(), nil
		})
		if err != nil || !token.Valid {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid Token"})
		}
		c.Set("user", claims)
		return next(c)
	}
}
