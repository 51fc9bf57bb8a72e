package middleware

import (
	"github.com/labstack/echo/v4"

	"campusmarket/pkg/errors"
	"campusmarket/pkg/response"
)

// AdminOnly gates a route to callers whose token carries the admin role.
// Must run after Authenticate.
func AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		role, _ := c.Get("role").(string)
		if role != "admin" {
			return response.Error(c, errors.Forbidden("Admin access required", nil))
		}
		return next(c)
	}
}
