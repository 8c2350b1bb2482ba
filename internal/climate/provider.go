package climate

import (
	"context"

	"github.com/tonylquintanilla/palomas-orrery-sub004/internal/cache"
)

// Provider abstracts one public climate data source (e.g. NOAA GML, NASA
// GISTEMP, NSIDC). A fetch always returns the full dataset as published, not
// a delta, ordered by time.
type Provider interface {
	Name() string
	Dataset() Dataset
	Fetch(ctx context.Context) ([]cache.Record, error)

	// Metadata returns the builder used to derive the metadata block stored
	// alongside this provider's records.
	Metadata() cache.MetadataBuilder
}

// Store caches parsed documents in memory so API reads don't re-parse the
// JSON file on every request.
type Store interface {
	Get(key string) (*cache.Document, bool)
	Put(key string, doc *cache.Document)
	Invalidate(key string)
}
