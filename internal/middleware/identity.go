package middleware

import "github.com/labstack/echo/v4"

// Context keys set by JWTAuth.
const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

// CurrentUserID returns the authenticated user's key, or "" when the request
// carried no valid token.
func CurrentUserID(c echo.Context) string {
	s, _ := c.Get(ContextUserID).(string)
	return s
}

// CurrentRole returns the role claim of the authenticated user.
func CurrentRole(c echo.Context) string {
	s, _ := c.Get(ContextRole).(string)
	return s
}

// requester identifies the caller for rate limiting: the user key when
// authenticated, "anon" otherwise.
func requester(c echo.Context) string {
	if id := CurrentUserID(c); id != "" {
		return id
	}
	return "anon"
}
