package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/pickflix/internal/catalog"
    "github.com/iliyamo/pickflix/internal/model"
    "github.com/iliyamo/pickflix/internal/session"
)

// MovieHandler serves catalog search and recommendations.
type MovieHandler struct {
    Catalog catalog.Catalog
}

func NewMovieHandler(cat catalog.Catalog) *MovieHandler {
    return &MovieHandler{Catalog: cat}
}

type movieOption struct {
    Index int    `json:"index"`
    ID    int64  `json:"id"`
    Title string `json:"title"`
    Year  string `json:"year,omitempty"`
    Label string `json:"label"`
}

// Search lists picker options for q, most popular first.  Labels carry the
// release year so same-title movies can be told apart.
func (h *MovieHandler) Search(c echo.Context, _ *session.Session) error {
    q := strings.TrimSpace(c.QueryParam("q"))
    if q == "" {
        return badRequest(c, "q is required")
    }
    movies := h.Catalog.Search(c.Request().Context(), q)
    opts := make([]movieOption, len(movies))
    for i, m := range movies {
        opts[i] = movieOption{Index: i, ID: m.ID, Title: m.Title, Year: m.Year(), Label: m.Label()}
    }
    return c.JSON(http.StatusOK, echo.Map{"results": opts})
}

type recommendReq struct {
    MovieID int64 `json:"movie_id" validate:"required,gt=0"`
}

type recommendationResp struct {
    MovieID     int64  `json:"movie_id"`
    Name        string `json:"name"`
    Year        string `json:"year,omitempty"`
    PosterURL   string `json:"poster_url,omitempty"`
    Description string `json:"description"`
    CatalogURL  string `json:"catalog_url"`
}

func toRecommendationResp(batch []model.Recommendation) []recommendationResp {
    out := make([]recommendationResp, len(batch))
    for i, r := range batch {
        out[i] = recommendationResp{
            MovieID:     r.Movie.ID,
            Name:        r.Name,
            Year:        r.Movie.Year(),
            PosterURL:   r.PosterURL,
            Description: r.Description,
            CatalogURL:  r.CatalogURL(),
        }
    }
    return out
}

// Recommend fetches movies similar to the chosen one and caches the batch in
// the session, replacing any previous batch.
func (h *MovieHandler) Recommend(c echo.Context, s *session.Session) error {
    var req recommendReq
    if msg := bindValid(c, &req); msg != "" {
        return badRequest(c, msg)
    }
    batch := catalog.Recommend(c.Request().Context(), h.Catalog, req.MovieID)
    s.SetRecommendations(batch)
    return c.JSON(http.StatusOK, echo.Map{"recommendations": toRecommendationResp(batch)})
}

// Recommendations returns the cached batch.
func (h *MovieHandler) Recommendations(c echo.Context, s *session.Session) error {
    return c.JSON(http.StatusOK, echo.Map{"recommendations": toRecommendationResp(s.Recommendations())})
}
