// Package credential caches bearer tokens for catalog providers.
//
// A Store holds one token and its absolute expiry. Concurrent callers that
// find no usable token share a single exchange through singleflight, so N
// simultaneous requests at startup cost one round trip to the auth endpoint.
package credential

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mmcdole/backlog/internal/domain"
	"golang.org/x/sync/singleflight"
)

// DefaultFallbackTTL applies when the provider omits expires_in
const DefaultFallbackTTL = 30 * 24 * time.Hour

const exchangeKey = "exchange"

// Grant is the result of one credential exchange
type Grant struct {
	AccessToken string
	TTL         time.Duration // 0 when the provider did not declare one
}

// Exchanger trades static client credentials for a token
type Exchanger interface {
	Exchange(ctx context.Context) (Grant, error)
}

// cachedCredential is replaced wholesale on every refresh
type cachedCredential struct {
	token     string
	expiresAt time.Time
}

// Store implements domain.Credentials with a lazily refreshed token
type Store struct {
	exchanger   Exchanger
	fallbackTTL time.Duration
	logger      *slog.Logger
	now         func() time.Time

	mu   sync.RWMutex
	cred cachedCredential

	group singleflight.Group
}

// NewStore creates a credential store. A non-positive fallbackTTL uses DefaultFallbackTTL.
func NewStore(exchanger Exchanger, fallbackTTL time.Duration, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if fallbackTTL <= 0 {
		fallbackTTL = DefaultFallbackTTL
	}
	return &Store{
		exchanger:   exchanger,
		fallbackTTL: fallbackTTL,
		logger:      logger,
		now:         time.Now,
	}
}

// Token returns the cached token while it is valid, otherwise exchanges for a new one
func (s *Store) Token(ctx context.Context) (string, error) {
	if token, ok := s.current(); ok {
		return token, nil
	}
	return s.refresh(ctx)
}

// InvalidateAndRefresh discards rejected and exchanges for a fresh token.
// When the cached token has already moved on, it is returned as is.
func (s *Store) InvalidateAndRefresh(ctx context.Context, rejected string) (string, error) {
	s.mu.Lock()
	cleared := s.cred.token == rejected
	if cleared {
		s.cred = cachedCredential{}
	}
	s.mu.Unlock()

	if cleared {
		s.logger.Info("credential invalidated")
	}
	return s.Token(ctx)
}

// ExpiresAt returns the expiry of the cached token (zero if none)
func (s *Store) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred.expiresAt
}

// current returns the cached token if it is usable at this instant
func (s *Store) current() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.cred.token == "" || !s.now().Before(s.cred.expiresAt) {
		return "", false
	}
	return s.cred.token, true
}

// refresh joins or starts the shared exchange
func (s *Store) refresh(ctx context.Context) (string, error) {
	ch := s.group.DoChan(exchangeKey, func() (interface{}, error) {
		// Another flight may have finished between our check and this one starting
		if token, ok := s.current(); ok {
			return token, nil
		}
		return s.exchange(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %w", domain.ErrCredentialUnavailable, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (s *Store) exchange(ctx context.Context) (string, error) {
	issuedAt := s.now()

	grant, err := s.exchanger.Exchange(ctx)
	if err != nil {
		s.logger.Error("credential exchange failed", "error", err)
		return "", fmt.Errorf("%w: %w", domain.ErrCredentialUnavailable, err)
	}
	if grant.AccessToken == "" {
		s.logger.Error("credential exchange returned empty token")
		return "", fmt.Errorf("%w: empty access token", domain.ErrCredentialUnavailable)
	}

	ttl := grant.TTL
	if ttl <= 0 {
		ttl = s.fallbackTTL
	}

	cred := cachedCredential{
		token:     grant.AccessToken,
		expiresAt: issuedAt.Add(ttl),
	}

	s.mu.Lock()
	s.cred = cred
	s.mu.Unlock()

	s.logger.Info("credential refreshed", "expiresAt", cred.expiresAt)
	return cred.token, nil
}
