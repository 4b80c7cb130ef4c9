package adapter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/mmcdole/backlog/internal/domain"
	"github.com/tidwall/gjson"
)

const (
	userAgent       = "Backlog/1.0"
	maxErrorBodyLen = 512
)

// NewHTTPClient creates the transport shared by the catalog clients.
// Only 429 responses are retried: 401 handling and fallback live in the
// repository layer, and transport failures should fall back quickly.
func NewHTTPClient(timeout time.Duration, retryMax int, logger *slog.Logger) *retryablehttp.Client {
	if logger == nil {
		logger = slog.Default()
	}

	client := retryablehttp.NewClient()
	client.HTTPClient = &http.Client{Timeout: timeout}
	client.RetryMax = retryMax
	client.RetryWaitMin = 250 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.Logger = logger
	client.CheckRetry = retryOnRateLimit
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return client
}

func retryOnRateLimit(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return false, nil
	}
	return resp.StatusCode == http.StatusTooManyRequests, nil
}

// Do sends req and returns the body of a 2xx response.
// 401 maps to domain.ErrUnauthorized, other statuses to *domain.StatusError,
// and transport failures to domain.ErrServerOffline.
func Do(client *retryablehttp.Client, req *retryablehttp.Request, logger *slog.Logger) ([]byte, error) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	logger.Debug("catalog request", "method", req.Method, "url", req.URL.Redacted())

	resp, err := client.Do(req)
	if err != nil {
		logger.Error("catalog request failed", "error", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrServerOffline, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", domain.ErrServerOffline, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, domain.ErrUnauthorized
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Error("catalog request error", "status", resp.StatusCode, "body", truncate(body))
		return nil, &domain.StatusError{Code: resp.StatusCode, Message: errorMessage(body)}
	}

	return body, nil
}

// errorMessage pulls the human-readable message out of a provider error body
func errorMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	for _, path := range []string{"message", "status_message", "title", "0.title"} {
		if v := gjson.GetBytes(body, path); v.Exists() && v.Type == gjson.String {
			return v.Str
		}
	}
	return ""
}

func truncate(body []byte) string {
	if len(body) > maxErrorBodyLen {
		return string(body[:maxErrorBodyLen])
	}
	return string(body)
}
