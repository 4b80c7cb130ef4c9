package domain

// Source records where a fetch result came from
type Source int

const (
	// SourceNone means no network path succeeded and nothing was cached
	SourceNone Source = iota
	// SourceCache means the network path failed and cached rows were served
	SourceCache
	// SourceRemote means the provider answered and the rows were freshly upserted
	SourceRemote
)

// String returns a human-readable representation of the source
func (s Source) String() string {
	switch s {
	case SourceRemote:
		return "fresh"
	case SourceCache:
		return "cached"
	default:
		return "empty"
	}
}

// Result is the outcome of a fetch. Fetches never fail; Err keeps the cause
// of a degraded result for logging and display.
type Result[E Entity] struct {
	Items  []E
	Source Source
	Err    error
}

// Stale reports whether the items were served from the local cache
func (r Result[E]) Stale() bool { return r.Source == SourceCache }

// Empty reports whether there is nothing to show
func (r Result[E]) Empty() bool { return len(r.Items) == 0 }

// First returns the first item, for single-record lookups
func (r Result[E]) First() (E, bool) {
	if len(r.Items) == 0 {
		var zero E
		return zero, false
	}
	return r.Items[0], true
}
