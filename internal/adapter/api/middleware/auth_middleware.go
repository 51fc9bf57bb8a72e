package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"campusmarket/internal/infrastructure/auth"
	"campusmarket/pkg/errors"
	"campusmarket/pkg/response"
)

type AuthMiddleware struct {
	jwtClient *auth.JWTClient
}

func NewAuthMiddleware(jwtClient *auth.JWTClient) *AuthMiddleware {
	return &AuthMiddleware{jwtClient: jwtClient}
}

// Authenticate verifies the bearer token and stores the caller's identity in
// the request context under "uid" and "role". Browsers cannot set headers on
// websocket upgrades, so a "token" query parameter is accepted as a fallback.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := extractToken(c)
		if token == "" {
			return response.Error(c, errors.Unauthorized("Authentication required", nil))
		}

		claims, err := m.jwtClient.VerifyToken(token)
		if err != nil {
			return response.Error(c, errors.Unauthorized("Invalid or expired token", err))
		}

		c.Set("uid", claims.UserID)
		c.Set("role", claims.Role)
		return next(c)
	}
}

func extractToken(c echo.Context) string {
	header := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.QueryParam("token")
}
