package handler // handler defines http handlers

import (
    "errors"
    "strconv"

    "github.com/labstack/echo/v4"
)

// getUserID extracts the authenticated user's ID from the context, where
// the JWT middleware stored it.  It fails when no principal is present.
func getUserID(c echo.Context) (uint64, error) {
    switch t := c.Get("user_id").(type) {
    case uint64:
        if t != 0 {
            return t, nil
        }
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// optionalUserID is the anonymous-tolerant variant used with OptionalJWT:
// it returns zero when no principal is present instead of an error.
func optionalUserID(c echo.Context) uint64 {
    uid, err := getUserID(c)
    if err != nil {
        return 0
    }
    return uid
}

// pathID parses the named path parameter as a positive integer ID.
func pathID(c echo.Context, name string) (uint64, error) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || id == 0 {
        return 0, errors.New("invalid id")
    }
    return id, nil
}
