// Package catalog talks to the TMDB movie catalog.
//
// Every lookup degrades to an empty or absent result on failure; callers
// never see transport errors.  Failures are logged and counted here.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/iliyamo/pickflix/internal/config"
	"github.com/iliyamo/pickflix/internal/logging"
	"github.com/iliyamo/pickflix/internal/metrics"
	"github.com/iliyamo/pickflix/internal/model"
)

// SimilarLimit caps how many similar movies a lookup returns.
const SimilarLimit = 5

// maxBody bounds how much of a catalog response is read.
const maxBody = 4 << 20

// Catalog is the read-only view of the movie catalog used by handlers.
type Catalog interface {
	Search(ctx context.Context, query string) []model.Movie
	PosterURL(ctx context.Context, movieID int64) (string, bool)
	Similar(ctx context.Context, movieID int64) []model.Movie
}

var _ Catalog = (*Client)(nil)

// Client is the TMDB API client.
type Client struct {
	apiKey    string
	baseURL   string
	imageBase string
	http      *http.Client
	cb        *gobreaker.CircuitBreaker[[]byte]
	log       zerolog.Logger
}

// statusError is a non-200 catalog reply.
type statusError struct {
	code int
}

func (e statusError) Error() string {
	return fmt.Sprintf("catalog returned status %d", e.code)
}

type listResponse struct {
	Results []model.Movie `json:"results"`
}

// NewClient builds a client from cfg.  The breaker opens after five
// consecutive failures and lets a trial request through after thirty seconds.
func NewClient(cfg config.TMDBConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		apiKey:    cfg.APIKey,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		imageBase: strings.TrimRight(cfg.ImageBaseURL, "/"),
		http:      &http.Client{Timeout: timeout},
		log:       logging.WithComponent("catalog"),
	}

	const name = "tmdb"
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	c.cb = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A 4xx is an answer from a healthy catalog, and a caller giving up
		// says nothing about the catalog at all.
		IsSuccessful: func(err error) bool {
			if errors.Is(err, context.Canceled) {
				return true
			}
			var se statusError
			if errors.As(err, &se) {
				return se.code < http.StatusInternalServerError
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn().Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})
	return c
}

// Search returns the movies matching query, most popular first.  Ties keep
// the catalog's order.
func (c *Client) Search(ctx context.Context, query string) []model.Movie {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	var resp listResponse
	if err := c.getJSON(ctx, "search", "/search/movie", url.Values{"query": {query}}, &resp); err != nil {
		c.log.Warn().Err(err).Str("query", query).Msg("search failed")
		return nil
	}
	sort.SliceStable(resp.Results, func(i, j int) bool {
		return resp.Results[i].Popularity > resp.Results[j].Popularity
	})
	return resp.Results
}

// PosterURL returns the full poster image address for a movie.  The second
// result is false when the movie has no poster or the lookup failed.
func (c *Client) PosterURL(ctx context.Context, movieID int64) (string, bool) {
	var m model.Movie
	if err := c.getJSON(ctx, "movie", "/movie/"+strconv.FormatInt(movieID, 10), nil, &m); err != nil {
		c.log.Warn().Err(err).Int64("movie_id", movieID).Msg("poster lookup failed")
		return "", false
	}
	if m.PosterPath == "" {
		return "", false
	}
	return c.imageBase + "/" + strings.TrimLeft(m.PosterPath, "/"), true
}

// Similar returns up to SimilarLimit movies the catalog considers similar.
func (c *Client) Similar(ctx context.Context, movieID int64) []model.Movie {
	var resp listResponse
	path := "/movie/" + strconv.FormatInt(movieID, 10) + "/similar"
	if err := c.getJSON(ctx, "similar", path, nil, &resp); err != nil {
		c.log.Warn().Err(err).Int64("movie_id", movieID).Msg("similar lookup failed")
		return nil
	}
	if len(resp.Results) > SimilarLimit {
		resp.Results = resp.Results[:SimilarLimit]
	}
	return resp.Results
}

func (c *Client) getJSON(ctx context.Context, endpoint, path string, params url.Values, dst any) error {
	start := time.Now()
	body, err := c.cb.Execute(func() ([]byte, error) {
		return c.doGet(ctx, path, params)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordCatalogRequest(endpoint, "rejected", time.Since(start))
		return err
	case err != nil:
		metrics.RecordCatalogRequest(endpoint, "error", time.Since(start))
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		metrics.RecordCatalogRequest(endpoint, "error", time.Since(start))
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	metrics.RecordCatalogRequest(endpoint, "success", time.Since(start))
	return nil
}

func (c *Client) doGet(ctx context.Context, path string, params url.Values) ([]byte, error) {
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		return nil, statusError{code: resp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
