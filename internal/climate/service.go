package climate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/tonylquintanilla/palomas-orrery-sub004/internal/cache"
)

var (
	// ErrNotCached is returned when no cache document exists for a dataset.
	ErrNotCached = errors.New("dataset not cached")

	// ErrSaveRejected is returned when the cache writer refused an update
	// (empty fetch or dangerous shrinkage). The previous document is intact.
	ErrSaveRejected = errors.New("cache save rejected")
)

// Service orchestrates fetching datasets from their providers and persisting
// them through the guarded cache writer.
type Service struct {
	dataDir   string
	writer    *cache.Writer
	store     Store
	providers map[Dataset]Provider
}

// NewService creates a Service writing cache documents under dataDir.
func NewService(dataDir string, writer *cache.Writer, store Store, providers []Provider) *Service {
	byDataset := make(map[Dataset]Provider, len(providers))
	for _, p := range providers {
		byDataset[p.Dataset()] = p
	}
	return &Service{
		dataDir:   dataDir,
		writer:    writer,
		store:     store,
		providers: byDataset,
	}
}

// CachePath returns the cache document location for a dataset family.
func (s *Service) CachePath(d Dataset) string {
	return filepath.Join(s.dataDir, string(d)+".json")
}

// RefreshDataset fetches the full dataset from its provider and saves it
// through the guarded writer. The previous cache document survives any
// failure.
func (s *Service) RefreshDataset(ctx context.Context, d Dataset) error {
	p, ok := s.providers[d]
	if !ok {
		return fmt.Errorf("no provider configured for dataset %s", d)
	}

	records, err := p.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetching %s from %s: %w", d, p.Name(), err)
	}
	log.Printf("INFO: fetched %d records for %s from %s", len(records), d, p.Name())

	if ok := s.writer.Save(s.CachePath(d), records, p.Metadata()); !ok {
		return fmt.Errorf("%w: %s", ErrSaveRejected, d)
	}

	s.store.Invalidate(string(d))
	return nil
}

// RefreshAll refreshes every configured dataset, one after another. A
// failure in one family never stops the others; the last error is returned
// so callers can report partial failure.
func (s *Service) RefreshAll(ctx context.Context) error {
	var lastErr error
	for _, d := range AllDatasets() {
		if _, ok := s.providers[d]; !ok {
			continue
		}
		if err := s.RefreshDataset(ctx, d); err != nil {
			log.Printf("ERROR: refresh failed for %s: %v", d, err)
			lastErr = err
		}
	}
	return lastErr
}

// LoadDataset returns the cached document for a dataset family, reading from
// the in-memory store when possible.
func (s *Service) LoadDataset(d Dataset) (*cache.Document, error) {
	if doc, ok := s.store.Get(string(d)); ok {
		return doc, nil
	}

	doc, err := s.writer.Load(s.CachePath(d))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotCached, d)
		}
		return nil, err
	}

	s.store.Put(string(d), doc)
	return doc, nil
}

// ListDatasets reports cache status for every configured dataset family.
func (s *Service) ListDatasets() []DatasetStatus {
	var statuses []DatasetStatus
	for _, d := range AllDatasets() {
		if _, ok := s.providers[d]; !ok {
			continue
		}

		status := DatasetStatus{
			Dataset: d,
			Title:   d.Title(),
		}

		path := s.CachePath(d)
		if info, err := os.Stat(path); err == nil {
			status.SizeBytes = info.Size()
			status.UpdatedAt = info.ModTime().UTC()

			if doc, err := s.LoadDataset(d); err == nil {
				status.Cached = true
				status.RecordCount = len(doc.Records)
				if sum := Summarize(doc.Records, d.ValueField()); sum.Count > 0 {
					v := sum.Latest
					status.LatestValue = &v
				}
			}
		}

		statuses = append(statuses, status)
	}
	return statuses
}
