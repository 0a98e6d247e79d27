package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/pickflix/internal/handler"
	"github.com/iliyamo/pickflix/internal/middleware"
	"github.com/iliyamo/pickflix/internal/session"
)

type okPinger struct{}

func (okPinger) PingContext(context.Context) error { return nil }

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = handler.NewValidator()
	s := &middleware.Sessions{
		Manager: session.NewManager(session.NewMemoryStore(), time.Hour),
		Secret:  "router-secret",
	}
	noLimit := func(next echo.HandlerFunc) echo.HandlerFunc { return next }

	RegisterRoutes(e, okPinger{})
	RegisterAuth(e, handler.NewAuthHandler(nil, s, nil), s, noLimit)
	RegisterMovies(e, handler.NewMovieHandler(nil), s)
	RegisterWatchlist(e, handler.NewWatchlistHandler(nil, nil, nil), s)
	return e
}

func TestRoutesRegistered(t *testing.T) {
	e := newTestEcho()
	got := map[string]bool{}
	for _, r := range e.Routes() {
		got[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /healthz",
		"GET /readyz",
		"GET /metrics",
		"GET /v1/session",
		"POST /v1/session/form",
		"POST /v1/auth/register",
		"POST /v1/auth/login",
		"POST /v1/auth/logout",
		"GET /v1/movies/search",
		"POST /v1/recommendations",
		"GET /v1/recommendations",
		"GET /v1/watchlist",
		"POST /v1/watchlist",
		"POST /v1/watchlist/toggle",
		"DELETE /v1/watchlist/:movie_id",
	} {
		assert.True(t, got[want], want)
	}
}

func TestGuardedRoutesRequireLogin(t *testing.T) {
	e := newTestEcho()
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/v1/movies/search?q=dune"},
		{http.MethodPost, "/v1/recommendations"},
		{http.MethodGet, "/v1/recommendations"},
		{http.MethodGet, "/v1/watchlist"},
		{http.MethodPost, "/v1/watchlist"},
		{http.MethodPost, "/v1/watchlist/toggle"},
		{http.MethodDelete, "/v1/watchlist/603"},
	} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.method+" "+tc.path)
		assert.Contains(t, rec.Body.String(), middleware.LoginRequiredMessage)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	e := newTestEcho()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
