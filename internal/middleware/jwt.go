package middleware // middleware contains reusable HTTP middleware functions

import (
    "net/http"
    "strconv"
    "strings"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the token's subject and role claims into the request context.
// The provided secret must match the one used when issuing tokens.  This
// middleware wraps protected routes so that handlers can read the
// authenticated user via c.Get("user_id") (uint64) and c.Get("role")
// (string).
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            uid, role, ok := parseAccessToken(secret, raw)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }
            c.Set("user_id", uid)
            c.Set("role", role)
            return next(c)
        }
    }
}

// parseAccessToken validates an HS256 access token and extracts the
// subject (user ID) and role claims.  Tokens signed with any other method
// are rejected.
func parseAccessToken(secret, raw string) (uint64, string, bool) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, echo.ErrUnauthorized
        }
        return []byte(secret), nil
    })
    if err != nil || !tok.Valid {
        return 0, "", false
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return 0, "", false
    }
    var uid uint64
    switch sub := claims["sub"].(type) {
    case float64: // JSON numbers decode to float64
        uid = uint64(sub)
    case string:
        if n, err := strconv.ParseUint(sub, 10, 64); err == nil {
            uid = n
        }
    }
    role, _ := claims["role"].(string)
    if uid == 0 || role == "" {
        return 0, "", false
    }
    return uid, role, true
}
