package middleware

import (
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/pickflix/internal/logging"
    "github.com/iliyamo/pickflix/internal/metrics"
)

// RequestLog tags each request with an X-Request-ID (kept when the client
// sends one) and emits one structured line plus Prometheus samples once the
// handler returns.
func RequestLog() echo.MiddlewareFunc {
    log := logging.WithComponent("http")
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            req := c.Request()

            rid := req.Header.Get(echo.HeaderXRequestID)
            if rid == "" {
                rid = uuid.NewString()
            }
            c.Response().Header().Set(echo.HeaderXRequestID, rid)

            err := next(c)
            if err != nil {
                c.Error(err) // let echo write the response so the status is final
            }

            status := c.Response().Status
            route := c.Path()
            if route == "" {
                route = "unmatched"
            }
            elapsed := time.Since(start)
            metrics.RecordHTTPRequest(req.Method, route, status, elapsed)

            ev := log.Info()
            if status >= 500 {
                ev = log.Error().Err(err)
            }
            ev.Str("request_id", rid).
                Str("method", req.Method).
                Str("route", route).
                Int("status", status).
                Dur("latency", elapsed).
                Str("user", currentUser(c)).
                Msg("request")
            return nil
        }
    }
}
