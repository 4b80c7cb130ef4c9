package adapter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/mmcdole/backlog/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, client *retryablehttp.Client, url string) ([]byte, error) {
	t.Helper()
	req, err := retryablehttp.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	require.NoError(t, err)
	return Do(client, req, NullLogger())
}

func TestDoReturnsBodyOnSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`[{"id":1}]`))
	}))
	defer srv.Close()

	body, err := get(t, NewHTTPClient(time.Second, 0, NullLogger()), srv.URL)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1}]`, string(body))
}

func TestDoMapsUnauthorized(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := get(t, NewHTTPClient(time.Second, 3, NullLogger()), srv.URL)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.EqualValues(t, 1, hits.Load(), "401 must not be retried by the transport")
}

func TestDoMapsStatusErrorWithMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status_code":34,"status_message":"The resource you requested could not be found."}`))
	}))
	defer srv.Close()

	_, err := get(t, NewHTTPClient(time.Second, 0, NullLogger()), srv.URL)
	var statusErr *domain.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.Equal(t, "The resource you requested could not be found.", statusErr.Message)
}

func TestDoRetriesRateLimit(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := NewHTTPClient(time.Second, 2, NullLogger())
	client.RetryWaitMin = time.Millisecond
	client.RetryWaitMax = time.Millisecond

	body, err := get(t, client, srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(body))
	assert.EqualValues(t, 2, hits.Load())
}

func TestDoMapsTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := get(t, NewHTTPClient(time.Second, 3, NullLogger()), url)
	assert.ErrorIs(t, err, domain.ErrServerOffline)
}

func TestNormalizeImageURL(t *testing.T) {
	const tmpl = "https://images.igdb.com/igdb/image/upload/t_cover_big/%s.jpg"

	got := NormalizeImageURL("//img.example/x.jpg", "", tmpl)
	require.NotNil(t, got)
	assert.Equal(t, "https://img.example/x.jpg", *got)

	got = NormalizeImageURL("", "co1wyy", tmpl)
	require.NotNil(t, got)
	assert.Equal(t, "https://images.igdb.com/igdb/image/upload/t_cover_big/co1wyy.jpg", *got)

	got = NormalizeImageURL("https://cdn.example/y.png", "ignored", tmpl)
	require.NotNil(t, got)
	assert.Equal(t, "https://cdn.example/y.png", *got)

	assert.Nil(t, NormalizeImageURL("", "", tmpl))
	assert.Nil(t, NormalizeImageURL("  ", "", tmpl))
}
