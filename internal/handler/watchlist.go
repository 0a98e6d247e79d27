package handler

import (
    "context"
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/pickflix/internal/logging"
    "github.com/iliyamo/pickflix/internal/metrics"
    "github.com/iliyamo/pickflix/internal/model"
    "github.com/iliyamo/pickflix/internal/queue"
    "github.com/iliyamo/pickflix/internal/repository"
    "github.com/iliyamo/pickflix/internal/service"
    "github.com/iliyamo/pickflix/internal/session"
)

const (
    MsgAdded          = "Added to watchlist!"
    MsgAlreadyListed  = "Movie already in watchlist!"
    MsgRemoveFailed   = "Failed to remove movie"
    MsgUnknownUser    = "unknown user"
    MsgWatchlistEmpty = "Your watchlist is empty. Add movies from recommendations!"
)

// Watchlists is the watchlist store used by WatchlistHandler.
// *repository.WatchlistRepo implements it.
type Watchlists interface {
    Add(ctx context.Context, e model.WatchlistEntry) (bool, error)
    Remove(ctx context.Context, username string, movieID int64) (bool, error)
    List(ctx context.Context, username string) ([]model.WatchlistEntry, error)
    Find(ctx context.Context, username string, movieID int64) (model.WatchlistEntry, error)
}

// Accounts answers whether a username still has an account.
// *repository.UserRepo implements it.
type Accounts interface {
    Exists(ctx context.Context, username string) (bool, error)
}

// WatchlistHandler serves the signed-in user's watchlist.
type WatchlistHandler struct {
    Entries Watchlists
    Users   Accounts
    Events  service.EventPublisher
}

func NewWatchlistHandler(w Watchlists, users Accounts, ev service.EventPublisher) *WatchlistHandler {
    return &WatchlistHandler{Entries: w, Users: users, Events: ev}
}

// Toggle flips the watchlist view.
func (h *WatchlistHandler) Toggle(c echo.Context, s *session.Session) error {
    return c.JSON(http.StatusOK, echo.Map{"show_watchlist": s.ToggleWatchlist()})
}

// List returns entries newest first.
func (h *WatchlistHandler) List(c echo.Context, s *session.Session) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    entries, err := h.Entries.List(ctx, s.Username)
    if err != nil {
        log := logging.WithComponent("watchlist")
        log.Error().Err(err).Str("user", s.Username).Msg("list")
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list watchlist failed"})
    }
    resp := echo.Map{"entries": entries}
    if len(entries) == 0 {
        resp["message"] = MsgWatchlistEmpty
    }
    return c.JSON(http.StatusOK, resp)
}

type addReq struct {
    MovieID   int64  `json:"movie_id" validate:"required,gt=0"`
    Title     string `json:"title" validate:"max=255"`
    Year      string `json:"year" validate:"max=16"`
    PosterURL string `json:"poster_url" validate:"omitempty,url,max=512"`
}

// Add saves a movie.  Fields the client leaves out are taken from the
// session's recommendation batch when the movie is in it.
func (h *WatchlistHandler) Add(c echo.Context, s *session.Session) error {
    var req addReq
    if msg := bindValid(c, &req); msg != "" {
        return badRequest(c, msg)
    }
    e := model.WatchlistEntry{
        Username:  s.Username,
        MovieID:   req.MovieID,
        Title:     req.Title,
        Year:      req.Year,
        PosterURL: req.PosterURL,
    }
    if r, ok := s.Recommendation(req.MovieID); ok {
        if e.Title == "" {
            e.Title = r.Name
        }
        if e.Year == "" {
            e.Year = r.Movie.Year()
        }
        if e.PosterURL == "" {
            e.PosterURL = r.PosterURL
        }
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    known, err := h.Users.Exists(ctx, s.Username)
    if err != nil {
        metrics.RecordWatchlistOp("add", "error")
        log := logging.WithComponent("watchlist")
        log.Error().Err(err).Str("user", s.Username).Msg("check user")
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "add to watchlist failed"})
    }
    if !known {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": MsgUnknownUser})
    }

    added, err := h.Entries.Add(ctx, e)
    switch {
    case errors.Is(err, repository.ErrInvalidEntry):
        return badRequest(c, "title is required for movies outside the current recommendations")
    case errors.Is(err, repository.ErrUnknownUser):
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": MsgUnknownUser})
    case err != nil:
        metrics.RecordWatchlistOp("add", "error")
        log := logging.WithComponent("watchlist")
        log.Error().Err(err).Str("user", s.Username).Msg("add")
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "add to watchlist failed"})
    }
    if !added {
        metrics.RecordWatchlistOp("add", "duplicate")
        return c.JSON(http.StatusConflict, echo.Map{"error": MsgAlreadyListed})
    }
    metrics.RecordWatchlistOp("add", "ok")
    publish(h.Events, queue.WatchlistEvent{
        Action: queue.ActionAdded, Username: s.Username, MovieID: e.MovieID, Title: e.Title, Year: e.Year,
    })
    return c.JSON(http.StatusCreated, echo.Map{"message": MsgAdded})
}

// Remove deletes a movie and names it in the confirmation.
func (h *WatchlistHandler) Remove(c echo.Context, s *session.Session) error {
    movieID, err := strconv.ParseInt(c.Param("movie_id"), 10, 64)
    if err != nil || movieID <= 0 {
        return badRequest(c, "invalid movie_id")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    log := logging.WithComponent("watchlist")
    entry, err := h.Entries.Find(ctx, s.Username, movieID)
    if errors.Is(err, repository.ErrEntryNotFound) {
        metrics.RecordWatchlistOp("remove", "not_found")
        return c.JSON(http.StatusNotFound, echo.Map{"error": MsgRemoveFailed})
    }
    if err != nil {
        log.Error().Err(err).Str("user", s.Username).Msg("find")
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": MsgRemoveFailed})
    }

    removed, err := h.Entries.Remove(ctx, s.Username, movieID)
    if err != nil {
        metrics.RecordWatchlistOp("remove", "error")
        log.Error().Err(err).Str("user", s.Username).Msg("remove")
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": MsgRemoveFailed})
    }
    if !removed {
        metrics.RecordWatchlistOp("remove", "not_found")
        return c.JSON(http.StatusNotFound, echo.Map{"error": MsgRemoveFailed})
    }
    metrics.RecordWatchlistOp("remove", "ok")
    publish(h.Events, queue.WatchlistEvent{
        Action: queue.ActionRemoved, Username: s.Username, MovieID: movieID, Title: entry.Title, Year: entry.Year,
    })
    return c.JSON(http.StatusOK, echo.Map{"message": "Removed " + entry.Title + " from watchlist!"})
}
