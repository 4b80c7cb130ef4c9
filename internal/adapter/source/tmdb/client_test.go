package tmdb

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/backlog/internal/adapter"
	"github.com/mmcdole/backlog/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seen struct {
	path  string
	query url.Values
	auth  string
}

func newTestClient(t *testing.T, status int, response string) (*Client, *seen) {
	t.Helper()
	s := &seen{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.path = r.URL.Path
		s.query = r.URL.Query()
		s.auth = r.Header.Get("Authorization")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)

	httpClient := adapter.NewHTTPClient(time.Second, 0, adapter.NullLogger())
	return NewClient(srv.URL, httpClient, adapter.NullLogger()), s
}

func TestSearchUnwrapsEnvelope(t *testing.T) {
	client, s := newTestClient(t, http.StatusOK, `{
		"page": 1,
		"results": [
			{"id": 27205, "title": "Inception", "release_date": "2010-07-15", "vote_average": 8.4, "vote_count": 35000, "poster_path": "/inception.jpg"},
			{"id": 1, "title": null}
		],
		"total_pages": 1,
		"total_results": 2
	}`)

	movies, err := client.Search(context.Background(), "read-token", "inception")
	require.NoError(t, err)

	assert.Equal(t, "/search/movie", s.path)
	assert.Equal(t, "inception", s.query.Get("query"))
	assert.Equal(t, "Bearer read-token", s.auth)

	require.Len(t, movies, 2)
	assert.EqualValues(t, 27205, movies[0].ID)
	assert.Nil(t, movies[1].Title)
}

func TestPopularIsCapped(t *testing.T) {
	items := make([]string, 0, 20)
	for i := 1; i <= 20; i++ {
		items = append(items, fmt.Sprintf(`{"id":%d,"title":"Movie %d"}`, i, i))
	}
	body := fmt.Sprintf(`{"page":1,"results":[%s],"total_pages":5,"total_results":100}`, strings.Join(items, ","))
	client, s := newTestClient(t, http.StatusOK, body)

	movies, err := client.Popular(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "/movie/popular", s.path)
	assert.Len(t, movies, ListLimit)
}

func TestTopRatedFiltersSmallSamples(t *testing.T) {
	client, s := newTestClient(t, http.StatusOK, `{"page":1,"results":[],"total_pages":0,"total_results":0}`)

	_, err := client.TopRated(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "/discover/movie", s.path)
	assert.Equal(t, "vote_average.desc", s.query.Get("sort_by"))
	assert.Equal(t, "200", s.query.Get("vote_count.gte"))
}

func TestDetailsAppendsCredits(t *testing.T) {
	client, s := newTestClient(t, http.StatusOK, `{
		"id": 603, "title": "The Matrix",
		"genres": [{"id": 28, "name": "Action"}],
		"credits": {"cast": [{"name": "Keanu Reeves", "order": 0}], "crew": [{"name": "Lana Wachowski", "job": "Director"}]}
	}`)

	movies, err := client.Details(context.Background(), "tok", 603)
	require.NoError(t, err)
	assert.Equal(t, "/movie/603", s.path)
	assert.Equal(t, "credits", s.query.Get("append_to_response"))
	require.Len(t, movies, 1)
	require.NotNil(t, movies[0].Credits)
	assert.Equal(t, "Keanu Reeves", movies[0].Credits.Cast[0].Name)
}

func TestDetailsNotFoundIsEmpty(t *testing.T) {
	client, _ := newTestClient(t, http.StatusNotFound, `{"status_code":34,"status_message":"not found"}`)
	movies, err := client.Details(context.Background(), "tok", 999999)
	require.NoError(t, err)
	assert.Empty(t, movies)
}

func TestUnauthorized(t *testing.T) {
	client, _ := newTestClient(t, http.StatusUnauthorized, `{"status_code":7,"status_message":"Invalid API key"}`)
	_, err := client.Popular(context.Background(), "bad")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestMissingResultsIsMalformed(t *testing.T) {
	client, _ := newTestClient(t, http.StatusOK, `[{"id":1}]`)
	_, err := client.Popular(context.Background(), "tok")
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}
