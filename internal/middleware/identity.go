package middleware

// identity.go exposes helpers for reading the authenticated identity that
// JWTAuth stored on the Echo context. Handlers resolve the acting user from
// the request itself instead of trusting identifiers in the payload.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// CurrentUserID returns the authenticated user's ID from the request
// context. The second return is false when no valid identity is present.
func CurrentUserID(c echo.Context) (uint64, bool) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case string:
		id, err := strconv.ParseUint(t, 10, 64)
		if err != nil || id == 0 {
			return 0, false
		}
		return id, true
	case float64: // JWT numeric claims decode as float64
		if t <= 0 {
			return 0, false
		}
		return uint64(t), true
	default:
		return 0, false
	}
}

// CurrentRole returns the authenticated user's role claim, or "" when
// the request carries no valid role.
func CurrentRole(c echo.Context) string {
	if r, ok := c.Get("role").(string); ok {
		return r
	}
	return ""
}
