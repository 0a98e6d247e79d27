package handler

import (
    "errors"
    "net/http"
    "reflect"
    "strings"

    "github.com/go-playground/validator/v10"
    "github.com/labstack/echo/v4"
)

// Validator plugs go-playground/validator into echo's c.Validate.  Field
// names in messages are the JSON names clients send.
type Validator struct {
    v *validator.Validate
}

var _ echo.Validator = (*Validator)(nil)

func NewValidator() *Validator {
    v := validator.New(validator.WithRequiredStructEnabled())
    v.RegisterTagNameFunc(func(f reflect.StructField) string {
        name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
        if name == "-" {
            return ""
        }
        return name
    })
    return &Validator{v: v}
}

func (cv *Validator) Validate(i interface{}) error {
    return cv.v.Struct(i)
}

// bindValid binds the body into req and validates it.  A non-empty result
// is the client-facing reason the request was rejected.
func bindValid(c echo.Context, req interface{}) string {
    if err := c.Bind(req); err != nil {
        return "invalid body"
    }
    if err := c.Validate(req); err != nil {
        return validationMessage(err)
    }
    return ""
}

func validationMessage(err error) string {
    var ves validator.ValidationErrors
    if !errors.As(err, &ves) || len(ves) == 0 {
        return "invalid body"
    }
    fe := ves[0]
    switch fe.Tag() {
    case "required":
        return fe.Field() + " is required"
    case "max":
        return fe.Field() + " must be at most " + fe.Param() + " characters"
    case "gt":
        return fe.Field() + " must be greater than " + fe.Param()
    case "oneof":
        return fe.Field() + " must be one of: " + fe.Param()
    case "url":
        return fe.Field() + " must be a URL"
    default:
        return fe.Field() + " is invalid"
    }
}

func badRequest(c echo.Context, msg string) error {
    return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}
