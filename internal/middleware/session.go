package middleware

import (
    "context"
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/pickflix/internal/logging"
    "github.com/iliyamo/pickflix/internal/session"
    "github.com/iliyamo/pickflix/internal/utils"
)

// SessionCookie carries the signed session token in browsers.
const SessionCookie = "pickflix_session"

// SessionHeader echoes the current token for clients using Bearer auth.
const SessionHeader = "X-Session-Token"

// DefaultStoreTimeout bounds each session store round trip when
// Sessions.StoreTimeout is zero.
const DefaultStoreTimeout = 5 * time.Second

// LoginRequiredMessage is returned to signed-out visitors on guarded routes.
const LoginRequiredMessage = "Please register or sign in to use the recommendation system"

// SessionHandlerFunc is a handler that receives the request's session.
type SessionHandlerFunc func(c echo.Context, s *session.Session) error

// Sessions binds HTTP requests to server-side sessions.  The session id
// travels as an HS256 token in the pickflix_session cookie or an
// "Authorization: Bearer" header.
type Sessions struct {
    Manager *session.Manager
    Secret  string
    Secure  bool // mark the cookie Secure (production)

    // StoreTimeout bounds the load and the save separately.
    StoreTimeout time.Duration
}

func (m *Sessions) storeTimeout() time.Duration {
    if m.StoreTimeout <= 0 {
        return DefaultStoreTimeout
    }
    return m.StoreTimeout
}

// Handle adapts fn into an echo handler.  The session is loaded (or created
// on first contact) before fn runs and saved afterwards, which slides its
// expiry.  A fresh token is written on every response.  The save runs on
// its own deadline and survives the client disconnecting.
func (m *Sessions) Handle(fn SessionHandlerFunc) echo.HandlerFunc {
    return func(c echo.Context) error {
        log := logging.WithComponent("session")
        ctx, cancel := context.WithTimeout(c.Request().Context(), m.storeTimeout())
        s, created, err := m.Manager.Start(ctx, m.sessionID(c))
        cancel()
        if err != nil {
            log.Error().Err(err).Msg("start session")
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session unavailable"})
        }
        if created {
            log.Debug().Str("sid", s.ID).Msg("session created")
        }
        slot := &sessionSlot{s: s}
        c.Set(sessionKey, slot)
        if err := m.issue(c, s); err != nil {
            log.Error().Err(err).Msg("sign session token")
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session unavailable"})
        }

        herr := fn(c, s)

        saveCtx, cancelSave := context.WithTimeout(context.WithoutCancel(c.Request().Context()), m.storeTimeout())
        defer cancelSave()
        switch err := m.Manager.Save(saveCtx, slot.s); {
        case errors.Is(err, session.ErrNotFound):
            // Ended by a concurrent request (logout, login); it stays gone.
            log.Debug().Str("sid", slot.s.ID).Msg("session ended during request")
        case err != nil:
            log.Error().Err(err).Str("sid", slot.s.ID).Msg("save session")
        }
        return herr
    }
}

// Replace makes fresh the request's session and hands its token to the
// client.  It must be called before the response body is written.
func (m *Sessions) Replace(c echo.Context, fresh *session.Session) error {
    if slot, ok := c.Get(sessionKey).(*sessionSlot); ok {
        slot.s = fresh
    } else {
        c.Set(sessionKey, &sessionSlot{s: fresh})
    }
    c.Response().Header().Del(echo.HeaderSetCookie)
    return m.issue(c, fresh)
}

// RequireLogin rejects signed-out sessions with 401 before fn runs.
func RequireLogin(fn SessionHandlerFunc) SessionHandlerFunc {
    return func(c echo.Context, s *session.Session) error {
        if !s.LoggedIn {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": LoginRequiredMessage})
        }
        return fn(c, s)
    }
}

// sessionID extracts the id from the cookie, falling back to the bearer
// header.  Invalid tokens yield "" so a new session is started.
func (m *Sessions) sessionID(c echo.Context) string {
    raw := ""
    if ck, err := c.Cookie(SessionCookie); err == nil {
        raw = ck.Value
    }
    if raw == "" {
        if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
            raw = strings.TrimPrefix(auth, "Bearer ")
        }
    }
    if raw == "" {
        return ""
    }
    sid, err := utils.ParseSessionToken(m.Secret, raw)
    if err != nil {
        return ""
    }
    return sid
}

func (m *Sessions) issue(c echo.Context, s *session.Session) error {
    tok, err := utils.NewSessionToken(m.Secret, s.ID, m.Manager.TTL())
    if err != nil {
        return err
    }
    c.SetCookie(&http.Cookie{
        Name:     SessionCookie,
        Value:    tok.Token,
        Path:     "/",
        Expires:  tok.Exp,
        HttpOnly: true,
        Secure:   m.Secure,
        SameSite: http.SameSiteLaxMode,
    })
    c.Response().Header().Set(SessionHeader, tok.Token)
    return nil
}
