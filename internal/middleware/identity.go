package middleware

// identity.go defines helper functions shared across middleware files.
// currentUserID pulls the caller identity stored by JWTAuth so the rate
// limiter can partition buckets per user; unauthenticated requests fall
// back to "anon".

import "github.com/labstack/echo/v4"

// currentUserID extracts the user identifier stored in context by
// JWTAuth. It returns "anon" when no user is authenticated.
func currentUserID(c echo.Context) string {
    if v := c.Get("user_id"); v != nil {
        if s, ok := v.(string); ok && s != "" {
            return s
        }
    }
    return "anon"
}
