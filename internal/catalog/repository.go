// Package catalog keeps a local copy of a remote catalog in sync.
//
// A Repository fetches from the provider, normalizes and upserts what it
// gets, and falls back to the local store when the provider cannot answer.
// Fetch operations never fail: the Result says whether the items are fresh,
// cached or missing.
package catalog

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/mmcdole/backlog/internal/domain"
	"github.com/sahilm/fuzzy"
)

// maxAttempts bounds calls per fetch: the first try plus one retry after a 401
const maxAttempts = 2

// Normalizer converts a raw provider record into an entity.
// It returns false for records that cannot be stored (no display name).
type Normalizer[R any, E domain.Entity] func(R) (E, bool)

// Repository orchestrates one catalog kind.
// R is the provider's raw record type and E the stored entity.
type Repository[R any, E domain.Entity] struct {
	kind      domain.Kind
	client    domain.CatalogClient[R]
	creds     domain.Credentials
	store     domain.CatalogStore[E]
	normalize Normalizer[R, E]
	logger    *slog.Logger
}

// NewRepository creates a repository for kind
func NewRepository[R any, E domain.Entity](
	kind domain.Kind,
	client domain.CatalogClient[R],
	creds domain.Credentials,
	store domain.CatalogStore[E],
	normalize Normalizer[R, E],
	logger *slog.Logger,
) *Repository[R, E] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository[R, E]{
		kind:      kind,
		client:    client,
		creds:     creds,
		store:     store,
		normalize: normalize,
		logger:    logger.With("kind", string(kind)),
	}
}

// Kind returns the catalog kind this repository serves
func (r *Repository[R, E]) Kind() domain.Kind {
	return r.kind
}

// =============================================================================
// Network-backed operations
// =============================================================================

// Search queries the provider for term. A blank term never reaches the
// network and is answered from the local store.
func (r *Repository[R, E]) Search(ctx context.Context, term string) domain.Result[E] {
	term = strings.TrimSpace(term)
	if term == "" {
		return r.Cached(ctx, term)
	}

	items, err := r.fetch(ctx, "search", func(ctx context.Context, token string) ([]R, error) {
		return r.client.Search(ctx, token, term)
	})
	if err == nil && len(items) > 0 {
		return domain.Result[E]{Items: orderByMatch(term, items), Source: domain.SourceRemote}
	}

	return r.fallback(ctx, "search", err, func(ctx context.Context) ([]E, error) {
		return r.store.Search(ctx, term)
	})
}

// Popular returns the provider's most popular entries
func (r *Repository[R, E]) Popular(ctx context.Context) domain.Result[E] {
	items, err := r.fetch(ctx, "popular", r.client.Popular)
	if err == nil && len(items) > 0 {
		return domain.Result[E]{Items: items, Source: domain.SourceRemote}
	}
	return r.fallback(ctx, "popular", err, r.store.ListAllOrderedByRank)
}

// TopRated returns the provider's best rated entries
func (r *Repository[R, E]) TopRated(ctx context.Context) domain.Result[E] {
	items, err := r.fetch(ctx, "top_rated", r.client.TopRated)
	if err == nil && len(items) > 0 {
		return domain.Result[E]{Items: items, Source: domain.SourceRemote}
	}
	return r.fallback(ctx, "top_rated", err, r.store.ListAllOrderedByRank)
}

// Details looks up one entry by its provider ID. The fallback is the cached
// row with that ID; an empty result means not found.
func (r *Repository[R, E]) Details(ctx context.Context, externalID int64) domain.Result[E] {
	items, err := r.fetch(ctx, "details", func(ctx context.Context, token string) ([]R, error) {
		return r.client.Details(ctx, token, externalID)
	})
	if err == nil && len(items) > 0 {
		return domain.Result[E]{Items: items[:1], Source: domain.SourceRemote}
	}

	return r.fallback(ctx, "details", err, func(ctx context.Context) ([]E, error) {
		e, ok, err := r.store.GetByExternalID(ctx, externalID)
		if err != nil || !ok {
			return nil, err
		}
		return []E{e}, nil
	})
}

// fetch runs call with a valid token. A 401 invalidates the credential and
// retries once; any other failure ends the attempt.
func (r *Repository[R, E]) fetch(ctx context.Context, op string, call func(context.Context, string) ([]R, error)) ([]E, error) {
	var (
		lastErr error
		token   string
	)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		var err error
		if attempt == 0 {
			token, err = r.creds.Token(ctx)
		} else {
			token, err = r.creds.InvalidateAndRefresh(ctx, token)
		}
		if err != nil {
			return nil, err
		}

		records, err := call(ctx, token)
		if errors.Is(err, domain.ErrUnauthorized) {
			r.logger.Warn("provider rejected token", "op", op, "attempt", attempt+1)
			lastErr = err
			continue
		}
		if err != nil {
			return nil, err
		}

		return r.persist(ctx, records), nil
	}

	return nil, lastErr
}

// persist normalizes and upserts each record, returning what was stored.
// A fetched batch is written even if the caller stops waiting.
func (r *Repository[R, E]) persist(ctx context.Context, records []R) []E {
	ctx = context.WithoutCancel(ctx)

	items := make([]E, 0, len(records))
	for _, rec := range records {
		e, ok := r.normalize(rec)
		if !ok {
			r.logger.Warn("dropping record without a name")
			continue
		}
		if _, err := r.store.Upsert(ctx, e); err != nil {
			r.logger.Error("failed to cache record", "externalID", e.GetExternalID(), "error", err)
			continue
		}
		items = append(items, e)
	}
	return items
}

// fallback serves whatever the local store has for the failed operation
func (r *Repository[R, E]) fallback(ctx context.Context, op string, cause error, local func(context.Context) ([]E, error)) domain.Result[E] {
	if cause != nil {
		r.logger.Warn("serving from cache", "op", op, "error", cause)
	} else {
		r.logger.Debug("provider returned nothing, serving from cache", "op", op)
	}

	items, err := local(context.WithoutCancel(ctx))
	if err != nil {
		r.logger.Error("cache read failed", "op", op, "error", err)
		return domain.Result[E]{Source: domain.SourceNone, Err: errors.Join(cause, err)}
	}
	if len(items) == 0 {
		return domain.Result[E]{Source: domain.SourceNone, Err: cause}
	}
	return domain.Result[E]{Items: items, Source: domain.SourceCache, Err: cause}
}

// =============================================================================
// Local operations
// =============================================================================

// Get returns the cached entry with the given local ID
func (r *Repository[R, E]) Get(ctx context.Context, localID int64) (E, bool, error) {
	return r.store.GetByLocalID(ctx, localID)
}

// Cached searches the local store only. A blank term lists everything.
func (r *Repository[R, E]) Cached(ctx context.Context, term string) domain.Result[E] {
	term = strings.TrimSpace(term)

	var (
		items []E
		err   error
	)
	if term == "" {
		items, err = r.store.ListAllOrderedByRank(ctx)
	} else {
		items, err = r.store.Search(ctx, term)
	}
	return localResult(items, err)
}

// Ranked lists the whole local store, highest rank first
func (r *Repository[R, E]) Ranked(ctx context.Context) domain.Result[E] {
	items, err := r.store.ListAllOrderedByRank(ctx)
	return localResult(items, err)
}

// SaveLocal stores an entry without contacting the provider.
// It goes through the same upsert rule as synced entries.
func (r *Repository[R, E]) SaveLocal(ctx context.Context, e E) (int64, error) {
	return r.store.Upsert(ctx, e)
}

// Wipe deletes every cached entry of this kind
func (r *Repository[R, E]) Wipe(ctx context.Context) error {
	r.logger.Info("wiping local catalog")
	return r.store.DeleteAll(ctx)
}

func localResult[E domain.Entity](items []E, err error) domain.Result[E] {
	if err != nil || len(items) == 0 {
		return domain.Result[E]{Source: domain.SourceNone, Err: err}
	}
	return domain.Result[E]{Items: items, Source: domain.SourceCache}
}

// =============================================================================
// Fresh search ordering
// =============================================================================

// nameIndex implements sahilm/fuzzy.Source over entity names
type nameIndex[E domain.Entity] []E

func (n nameIndex[E]) String(i int) string { return strings.ToLower(n[i].GetName()) }
func (n nameIndex[E]) Len() int            { return len(n) }

// orderByMatch puts the closest name matches first. Entries the provider
// matched on other fields keep their provider order after them.
func orderByMatch[E domain.Entity](term string, items []E) []E {
	matches := fuzzy.FindFrom(strings.ToLower(term), nameIndex[E](items))

	ordered := make([]E, 0, len(items))
	seen := make([]bool, len(items))
	for _, m := range matches {
		ordered = append(ordered, items[m.Index])
		seen[m.Index] = true
	}
	for i, e := range items {
		if !seen[i] {
			ordered = append(ordered, e)
		}
	}
	return ordered
}
