package model

import "strconv"

// Movie is a catalog search or similarity result.  Only the fields the
// application displays are kept.
type Movie struct {
    ID          int64   `json:"id"`
    Title       string  `json:"title"`
    ReleaseDate string  `json:"release_date"`
    Popularity  float64 `json:"popularity"`
    Overview    string  `json:"overview"`
    PosterPath  string  `json:"poster_path,omitempty"`
}

// UnknownYear is shown in place of a missing release year.
const UnknownYear = "Year unknown"

// Year returns the four-digit release year, or "" when the catalog has no
// usable release date.
func (m Movie) Year() string {
    if len(m.ReleaseDate) < 4 {
        return ""
    }
    return m.ReleaseDate[:4]
}

// Label is the picker text used to tell same-title movies apart, e.g.
// "Dune (2021)" or "Dune (Year unknown)".
func (m Movie) Label() string {
    year := m.Year()
    if year == "" {
        year = UnknownYear
    }
    return m.Title + " (" + year + ")"
}

// Recommendation is one entry of a recommendation batch: a similar movie
// along with what was fetched for it.  Keeping the four values together
// guarantees they stay index-aligned.
type Recommendation struct {
    Movie       Movie  `json:"movie"`
    Name        string `json:"name"`
    PosterURL   string `json:"poster_url,omitempty"`
    Description string `json:"description"`
}

// CatalogURL links to the movie's public catalog page.
func (r Recommendation) CatalogURL() string {
    return "https://www.themoviedb.org/movie/" + strconv.FormatInt(r.Movie.ID, 10)
}
