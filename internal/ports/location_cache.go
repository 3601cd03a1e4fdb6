package ports

import (
	"context"
	"postcode-tracker/internal/domain"
)

// Key-value store of resolved locations keyed by normalized postcode.
// Writes are idempotent upserts so concurrent resolvers never conflict.
type LocationCache interface {
	// Return the cached entry, or found=false on a miss.
	Get(ctx context.Context, postcode string) (entry domain.CacheEntry, found bool, err error)
	// Insert or overwrite the entry and bump its access time.
	Upsert(ctx context.Context, loc domain.ResolvedLocation) error
	// Bump the access time of an existing entry.
	Touch(ctx context.Context, postcode string) error
}
