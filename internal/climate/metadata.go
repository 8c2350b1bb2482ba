package climate

import (
	"time"

	"github.com/tonylquintanilla/palomas-orrery-sub004/internal/cache"
)

// StandardMetadata builds the metadata document persisted next to a
// dataset's records: provenance, units, covered time range and record count.
// It is rebuilt from scratch on every save so the stored metadata always
// reflects the records actually written.
type StandardMetadata struct {
	Dataset     Dataset
	Source      string
	SourceURL   string
	Units       string
	Description string
}

func (m StandardMetadata) Build(records []cache.Record) cache.Metadata {
	meta := cache.Metadata{
		"dataset":      string(m.Dataset),
		"source":       m.Source,
		"source_url":   m.SourceURL,
		"units":        m.Units,
		"description":  m.Description,
		"record_count": len(records),
		"fetched_at":   time.Now().UTC().Format(time.RFC3339),
	}

	if len(records) > 0 {
		if start, ok := RecordTime(records[0]); ok {
			meta["start_year"] = start
		}
		if end, ok := RecordTime(records[len(records)-1]); ok {
			meta["end_year"] = end
		}
	}

	return meta
}

// RecordTime extracts a record's position on the time axis as a decimal
// year. Records carry either a "decimal_date" field or at least a "year".
func RecordTime(r cache.Record) (float64, bool) {
	if v, ok := NumericField(r, "decimal_date"); ok {
		return v, true
	}
	if v, ok := NumericField(r, "year"); ok {
		return v, true
	}
	return 0, false
}

// NumericField reads a numeric record field regardless of whether the record
// came straight from a provider (float64/int) or through a JSON round trip
// (always float64).
func NumericField(r cache.Record, key string) (float64, bool) {
	switch v := r[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
