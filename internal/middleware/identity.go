package middleware

// identity.go holds the user extraction helper shared by the cache and
// rate-limit key builders. The value comes from the claims JWTAuth puts
// into the context; unauthenticated requests key as "anon".

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

func currentUserID(c echo.Context) string {
	switch v := c.Get("user_id").(type) {
	case nil:
		return "anon"
	case string:
		if v != "" {
			return v
		}
		return "anon"
	case float64:
		// MapClaims decode numeric subjects as float64.
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprint(v)
	}
}
