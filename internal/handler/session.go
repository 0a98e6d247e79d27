package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/pickflix/internal/middleware"
    "github.com/iliyamo/pickflix/internal/session"
)

type sessionResp struct {
    session.View
    Greeting string `json:"greeting,omitempty"`
    Notice   string `json:"notice,omitempty"`
}

func viewResponse(s *session.Session) sessionResp {
    v := s.View()
    resp := sessionResp{View: v}
    if v.LoggedIn {
        resp.Greeting = "Hoady " + v.Username + "!"
    } else {
        resp.Notice = middleware.LoginRequiredMessage
    }
    return resp
}

// GetSession returns what the client should render.
func GetSession(c echo.Context, s *session.Session) error {
    return c.JSON(http.StatusOK, viewResponse(s))
}

type formReq struct {
    Form string `json:"form" validate:"required,oneof=login register"`
}

// ChooseForm opens the login or register form.  Signed-in sessions have no
// credential form, so the request is a no-op for them.
func ChooseForm(c echo.Context, s *session.Session) error {
    var req formReq
    if msg := bindValid(c, &req); msg != "" {
        return badRequest(c, msg)
    }
    if !s.LoggedIn {
        s.ShowAuthForm(session.AuthForm(req.Form))
    }
    return c.JSON(http.StatusOK, viewResponse(s))
}
