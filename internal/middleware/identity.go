package middleware

// identity.go holds the request-scoped session slot shared by the session,
// rate limit and request log middleware.

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/pickflix/internal/session"
)

const sessionKey = "pickflix.session"

// sessionSlot lets a handler swap the request's session (sign-out) so the
// wrapper persists the replacement, not the torn-down session.
type sessionSlot struct {
    s *session.Session
}

// CurrentSession returns the session loaded for this request, or nil when
// the route is not session-aware.
func CurrentSession(c echo.Context) *session.Session {
    if slot, ok := c.Get(sessionKey).(*sessionSlot); ok {
        return slot.s
    }
    return nil
}

// currentUser returns the signed-in username, or "anon".
func currentUser(c echo.Context) string {
    if s := CurrentSession(c); s != nil && s.LoggedIn && s.Username != "" {
        return s.Username
    }
    return "anon"
}
