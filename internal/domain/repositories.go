package domain

import (
	"context"
)

// Credentials provides bearer tokens for catalog providers
type Credentials interface {
	// Token returns a currently valid token, exchanging for a new one if needed
	Token(ctx context.Context) (string, error)

	// InvalidateAndRefresh discards rejected if it is still the cached token and
	// returns a fresh one. Used after a provider answers 401 to rule out staleness.
	InvalidateAndRefresh(ctx context.Context, rejected string) (string, error)
}

// CatalogClient issues catalog queries against a provider (implemented by source clients).
// R is the provider's raw record type. A 401 surfaces as ErrUnauthorized and is never retried here.
type CatalogClient[R any] interface {
	// Search returns up to 20 records whose name matches term
	Search(ctx context.Context, token, term string) ([]R, error)

	// Popular returns the provider's most popular records
	Popular(ctx context.Context, token string) ([]R, error)

	// TopRated returns the best rated records with a minimum vote sample
	TopRated(ctx context.Context, token string) ([]R, error)

	// Details returns zero or one record for the external ID
	Details(ctx context.Context, token string, externalID int64) ([]R, error)
}

// CatalogStore persists normalized entities of one kind.
// Lookups return (zero, false, nil) when nothing matches.
type CatalogStore[E Entity] interface {
	GetByLocalID(ctx context.Context, id int64) (E, bool, error)
	GetByExternalID(ctx context.Context, externalID int64) (E, bool, error)

	// Search matches term as a case-insensitive substring of the name
	Search(ctx context.Context, term string) ([]E, error)

	// ListAllOrderedByRank returns every row, highest rank first
	ListAllOrderedByRank(ctx context.Context) ([]E, error)

	// Upsert inserts or updates by external ID and returns the local ID.
	// The local ID and creation time of an existing row are preserved.
	Upsert(ctx context.Context, e E) (int64, error)

	// DeleteAll wipes every row of this kind
	DeleteAll(ctx context.Context) error
}
