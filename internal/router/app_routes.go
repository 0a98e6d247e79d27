package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pickflix/internal/handler"
	"github.com/iliyamo/pickflix/internal/middleware"
)

// RegisterMovies registers search and recommendation endpoints under /v1.
// All of them require a signed-in session.
func RegisterMovies(e *echo.Echo, h *handler.MovieHandler, s *middleware.Sessions) {
	g := e.Group("/v1")
	g.GET("/movies/search", s.Handle(middleware.RequireLogin(h.Search)))
	g.POST("/recommendations", s.Handle(middleware.RequireLogin(h.Recommend)))
	g.GET("/recommendations", s.Handle(middleware.RequireLogin(h.Recommendations)))
}

// RegisterWatchlist registers the signed-in user's watchlist endpoints.
// Entries are always scoped to the session's username.
func RegisterWatchlist(e *echo.Echo, h *handler.WatchlistHandler, s *middleware.Sessions) {
	g := e.Group("/v1/watchlist")
	g.GET("", s.Handle(middleware.RequireLogin(h.List)))
	g.POST("", s.Handle(middleware.RequireLogin(h.Add)))
	g.POST("/toggle", s.Handle(middleware.RequireLogin(h.Toggle)))
	g.DELETE("/:movie_id", s.Handle(middleware.RequireLogin(h.Remove)))
}
