package venues

import "context"

// MasterStore is the read-only source-of-truth database holding venue master
// data. The cache bulk-imports from it and resolves display metadata through
// it; it never writes back.
type MasterStore interface {
	// ListVenues returns every venue with its position and optional geometry.
	ListVenues(ctx context.Context) ([]Venue, error)

	// CountVenues returns the number of venues in the master database.
	CountVenues(ctx context.Context) (int64, error)

	// ResolveVenues returns display metadata for the given ids. Ids that do
	// not resolve are simply missing from the result, never an error.
	ResolveVenues(ctx context.Context, ids []string) (map[string]Info, error)
}
