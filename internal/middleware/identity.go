package middleware

// identity.go provides OptionalJWT, used on endpoints that serve both
// anonymous and authenticated viewers (like-state reads).  A missing or
// invalid bearer token is not an error: the request simply proceeds
// without a principal and handlers see no "user_id" in the context.

import (
    "strings"

    "github.com/labstack/echo/v4"
)

// OptionalJWT parses a Bearer token when one is present and, if it is
// valid, stores user_id and role in the context exactly as JWTAuth does.
// Unlike JWTAuth it never rejects the request.
func OptionalJWT(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if strings.HasPrefix(auth, "Bearer ") {
                raw := strings.TrimPrefix(auth, "Bearer ")
                if uid, role, ok := parseAccessToken(secret, raw); ok {
                    c.Set("user_id", uid)
                    c.Set("role", role)
                }
            }
            return next(c)
        }
    }
}
