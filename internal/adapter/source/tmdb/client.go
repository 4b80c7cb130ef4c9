package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/mmcdole/backlog/internal/adapter"
	"github.com/mmcdole/backlog/internal/domain"
	"github.com/tidwall/gjson"
)

const (
	// SearchLimit caps search results (one TMDB page)
	SearchLimit = 20
	// ListLimit caps the popular and top rated lists
	ListLimit = 10
	// MinTopRatedVotes excludes titles rated by too few users
	MinTopRatedVotes = 200
)

// Client implements domain.CatalogClient for TMDB
type Client struct {
	baseURL    string
	httpClient *retryablehttp.Client
	logger     *slog.Logger
}

// NewClient creates a new TMDB API client
func NewClient(baseURL string, httpClient *retryablehttp.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if httpClient == nil {
		httpClient = retryablehttp.NewClient()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// Search finds movies whose title matches term
func (c *Client) Search(ctx context.Context, token, term string) ([]Movie, error) {
	if strings.TrimSpace(term) == "" {
		return nil, fmt.Errorf("search term is empty")
	}
	query := url.Values{}
	query.Set("query", term)
	query.Set("include_adult", "false")
	query.Set("page", "1")
	return c.page(ctx, token, "/search/movie", query, SearchLimit)
}

// Popular returns TMDB's popular movies
func (c *Client) Popular(ctx context.Context, token string) ([]Movie, error) {
	query := url.Values{}
	query.Set("page", "1")
	return c.page(ctx, token, "/movie/popular", query, ListLimit)
}

// TopRated returns the best rated movies with at least MinTopRatedVotes votes
func (c *Client) TopRated(ctx context.Context, token string) ([]Movie, error) {
	query := url.Values{}
	query.Set("sort_by", "vote_average.desc")
	query.Set("vote_count.gte", strconv.Itoa(MinTopRatedVotes))
	query.Set("include_adult", "false")
	query.Set("page", "1")
	return c.page(ctx, token, "/discover/movie", query, ListLimit)
}

// Details looks up one movie with genres and credits. An unknown id yields no records.
func (c *Client) Details(ctx context.Context, token string, externalID int64) ([]Movie, error) {
	query := url.Values{}
	query.Set("append_to_response", "credits")

	body, err := c.get(ctx, token, fmt.Sprintf("/movie/%d", externalID), query)
	if err != nil {
		var statusErr *domain.StatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}

	var movie Movie
	if err := json.Unmarshal(body, &movie); err != nil {
		c.logger.Error("JSON parse error", "error", err, "bodyLen", len(body))
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedResponse, err)
	}
	return []Movie{movie}, nil
}

// page fetches an enveloped list and returns at most limit results
func (c *Client) page(ctx context.Context, token, path string, query url.Values, limit int) ([]Movie, error) {
	body, err := c.get(ctx, token, path, query)
	if err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(body) {
		return nil, domain.ErrMalformedResponse
	}
	if !gjson.GetBytes(body, "results").IsArray() {
		c.logger.Error("tmdb response has no results array", "path", path)
		return nil, domain.ErrMalformedResponse
	}

	var p Page
	if err := json.Unmarshal(body, &p); err != nil {
		c.logger.Error("JSON parse error", "error", err, "bodyLen", len(body))
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedResponse, err)
	}
	c.logger.Debug("tmdb page", "path", path, "page", p.Page, "totalPages", p.TotalPages, "totalResults", p.TotalResults)

	movies := p.Results

	if len(movies) > limit {
		movies = movies[:limit]
	}
	return movies, nil
}

// get performs an authenticated GET request
func (c *Client) get(ctx context.Context, token, path string, query url.Values) ([]byte, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL = reqURL + "?" + query.Encode()
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	return adapter.Do(c.httpClient, req, c.logger)
}
