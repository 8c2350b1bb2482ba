package cache

// Record is one row of a dataset. The cache layer never interprets
// individual fields; it only counts records and measures serialized size.
type Record map[string]any

// Metadata describes provenance, units, time range and record count for a
// dataset. It is rebuilt from scratch on every save.
type Metadata map[string]any

// Document is the persisted unit for one dataset family: metadata plus the
// full ordered record sequence.
type Document struct {
	Metadata Metadata `json:"metadata"`
	Records  []Record `json:"records"`
}

// MetadataBuilder derives fresh metadata from a record sequence.
type MetadataBuilder interface {
	Build(records []Record) Metadata
}

// MetadataBuilderFunc adapts a plain function to the MetadataBuilder interface.
type MetadataBuilderFunc func(records []Record) Metadata

func (f MetadataBuilderFunc) Build(records []Record) Metadata {
	return f(records)
}
