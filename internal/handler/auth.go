package handler

import (
    "context"
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/pickflix/internal/logging"
    "github.com/iliyamo/pickflix/internal/metrics"
    "github.com/iliyamo/pickflix/internal/middleware"
    "github.com/iliyamo/pickflix/internal/queue"
    "github.com/iliyamo/pickflix/internal/repository"
    "github.com/iliyamo/pickflix/internal/service"
    "github.com/iliyamo/pickflix/internal/session"
    "github.com/iliyamo/pickflix/internal/utils"
)

// Messages shown by the credential forms.
const (
    MsgAccountCreated     = "Account created! You can now login."
    MsgUsernameTaken      = "Username already exists!"
    MsgInvalidCredentials = "Invalid credentials"
)

// Credentials is the credential store used by AuthHandler.
// *repository.UserRepo implements it.
type Credentials interface {
    Register(ctx context.Context, username, password string) (bool, error)
    Authenticate(ctx context.Context, username, password string) (bool, error)
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
    Users    Credentials
    Sessions *middleware.Sessions
    Events   service.EventPublisher
}

func NewAuthHandler(u Credentials, s *middleware.Sessions, ev service.EventPublisher) *AuthHandler {
    return &AuthHandler{Users: u, Sessions: s, Events: ev}
}

type credentialsReq struct {
    Username string `json:"username" validate:"required,max=64"`
    Password string `json:"password" validate:"required,max=72"`
}

// Register creates an account.  On success the register form closes and the
// login form opens; the visitor still has to sign in.
func (h *AuthHandler) Register(c echo.Context, s *session.Session) error {
    var req credentialsReq
    if msg := bindValid(c, &req); msg != "" {
        return badRequest(c, msg)
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    created, err := h.Users.Register(ctx, req.Username, req.Password)
    switch {
    case errors.Is(err, repository.ErrEmptyUsername),
        errors.Is(err, repository.ErrUsernameTooLong),
        errors.Is(err, repository.ErrEmptyPassword),
        errors.Is(err, utils.ErrPasswordTooLong):
        return badRequest(c, err.Error())
    case err != nil:
        log := logging.WithComponent("auth")
        log.Error().Err(err).Msg("register")
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
    }
    metrics.RecordAuthAttempt("register", created)
    if !created {
        return c.JSON(http.StatusConflict, echo.Map{"error": MsgUsernameTaken})
    }

    s.ShowAuthForm(session.FormLogin)
    publish(h.Events, queue.WatchlistEvent{Action: queue.ActionRegistered, Username: strings.TrimSpace(req.Username)})
    return c.JSON(http.StatusCreated, echo.Map{"message": MsgAccountCreated})
}

// Login replaces the session with a fresh signed-in one under a new id.
// The response never says which of username or password was wrong.
func (h *AuthHandler) Login(c echo.Context, s *session.Session) error {
    var req credentialsReq
    if msg := bindValid(c, &req); msg != "" {
        return badRequest(c, msg)
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    ok, err := h.Users.Authenticate(ctx, req.Username, req.Password)
    if err != nil {
        log := logging.WithComponent("auth")
        log.Error().Err(err).Msg("authenticate")
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    metrics.RecordAuthAttempt("login", ok)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": MsgInvalidCredentials})
    }

    // Sign in on a new id so nothing from the previous visitor carries over.
    fresh, err := h.Sessions.Manager.End(ctx, s)
    if err != nil {
        log := logging.WithComponent("auth")
        log.Error().Err(err).Msg("rotate session")
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "sign in failed"})
    }
    fresh.SignIn(strings.TrimSpace(req.Username))
    if err := h.Sessions.Replace(c, fresh); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "sign in failed"})
    }
    return c.JSON(http.StatusOK, viewResponse(fresh))
}

// Logout tears the session down and hands the client a new signed-out one.
func (h *AuthHandler) Logout(c echo.Context, s *session.Session) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    fresh, err := h.Sessions.Manager.End(ctx, s)
    if err != nil {
        log := logging.WithComponent("auth")
        log.Error().Err(err).Msg("end session")
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "sign out failed"})
    }
    if err := h.Sessions.Replace(c, fresh); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "sign out failed"})
    }
    return c.JSON(http.StatusOK, viewResponse(fresh))
}
