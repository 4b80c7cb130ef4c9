package igdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/mmcdole/backlog/internal/adapter"
	"github.com/mmcdole/backlog/internal/domain"
	"github.com/tidwall/gjson"
)

const (
	// SearchLimit caps search results
	SearchLimit = 20
	// ListLimit caps the popular and top rated lists
	ListLimit = 10
	// MinTopRatedVotes excludes titles rated by too few users
	MinTopRatedVotes = 50
)

// listFields are projected by search and list queries
var listFields = []string{
	"id", "name", "summary", "first_release_date",
	"rating", "rating_count", "cover.url", "cover.image_id",
}

// detailFields add the denormalized platform and company data
var detailFields = append(append([]string{}, listFields...),
	"platforms.name",
	"involved_companies.company.name",
	"involved_companies.developer",
	"involved_companies.publisher",
)

// Client implements domain.CatalogClient for IGDB
type Client struct {
	baseURL    string
	clientID   string
	httpClient *retryablehttp.Client
	logger     *slog.Logger
}

// NewClient creates a new IGDB API client
func NewClient(baseURL, clientID string, httpClient *retryablehttp.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if httpClient == nil {
		httpClient = retryablehttp.NewClient()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		clientID:   clientID,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Search finds games whose name matches term, skipping edition/version variants
func (c *Client) Search(ctx context.Context, token, term string) ([]Game, error) {
	if strings.TrimSpace(term) == "" {
		return nil, fmt.Errorf("search term is empty")
	}
	q := NewQuery(listFields...).
		Search(term).
		Where("version_parent = null").
		Limit(SearchLimit)
	return c.games(ctx, token, q)
}

// Popular returns the most rated games
func (c *Client) Popular(ctx context.Context, token string) ([]Game, error) {
	q := NewQuery(listFields...).
		Where("rating_count > 0").
		Where("version_parent = null").
		SortDesc("rating_count").
		Limit(ListLimit)
	return c.games(ctx, token, q)
}

// TopRated returns the best rated games with at least MinTopRatedVotes ratings
func (c *Client) TopRated(ctx context.Context, token string) ([]Game, error) {
	q := NewQuery(listFields...).
		Where(fmt.Sprintf("rating_count >= %d", MinTopRatedVotes)).
		Where("version_parent = null").
		SortDesc("rating").
		Limit(ListLimit)
	return c.games(ctx, token, q)
}

// Details looks up one game by IGDB id, including platforms and companies
func (c *Client) Details(ctx context.Context, token string, externalID int64) ([]Game, error) {
	q := NewQuery(detailFields...).
		Where(fmt.Sprintf("id = %d", externalID)).
		Limit(1)
	return c.games(ctx, token, q)
}

// games posts a query to /games and decodes the record array
func (c *Client) games(ctx context.Context, token string, q *Query) ([]Game, error) {
	body, err := c.post(ctx, token, "/games", q.String())
	if err != nil {
		return nil, err
	}

	// IGDB answers with a bare array, never an envelope
	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsArray() {
		c.logger.Error("igdb response is not an array", "bodyLen", len(body))
		return nil, domain.ErrMalformedResponse
	}

	var games []Game
	if err := json.Unmarshal(body, &games); err != nil {
		c.logger.Error("JSON parse error", "error", err, "bodyLen", len(body))
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedResponse, err)
	}
	return games, nil
}

// post sends an Apicalypse body with the IGDB auth headers
func (c *Client) post(ctx context.Context, token, path, query string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBufferString(query))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Client-ID", c.clientID)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "text/plain")

	c.logger.Debug("igdb query", "path", path, "body", query)
	return adapter.Do(c.httpClient, req, c.logger)
}
