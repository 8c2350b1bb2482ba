package climate

import (
	"fmt"
	"time"
)

// Dataset identifies one independently cached climate dataset family.
type Dataset string

const (
	DatasetCO2         Dataset = "co2"
	DatasetTemperature Dataset = "temperature"
	DatasetSeaIce      Dataset = "seaice"
	DatasetSeaLevel    Dataset = "sealevel"
	DatasetOceanPH     Dataset = "oceanph"
)

// AllDatasets lists every known dataset family in display order.
func AllDatasets() []Dataset {
	return []Dataset{
		DatasetCO2,
		DatasetTemperature,
		DatasetSeaIce,
		DatasetSeaLevel,
		DatasetOceanPH,
	}
}

// ParseDataset validates a dataset name coming from config or the API.
func ParseDataset(name string) (Dataset, error) {
	d := Dataset(name)
	for _, known := range AllDatasets() {
		if d == known {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown dataset %q", name)
}

// Title returns a human-readable name for the dataset family.
func (d Dataset) Title() string {
	switch d {
	case DatasetCO2:
		return "Atmospheric CO2 (Mauna Loa)"
	case DatasetTemperature:
		return "Global Temperature Anomaly"
	case DatasetSeaIce:
		return "Arctic Sea Ice Extent"
	case DatasetSeaLevel:
		return "Global Mean Sea Level"
	case DatasetOceanPH:
		return "Ocean Surface pH"
	default:
		return string(d)
	}
}

// ValueField names the record field holding the dataset's primary measured
// value. Chart builders and summaries read this field.
func (d Dataset) ValueField() string {
	switch d {
	case DatasetCO2:
		return "co2_ppm"
	case DatasetTemperature:
		return "anomaly_c"
	case DatasetSeaIce:
		return "extent_mkm2"
	case DatasetSeaLevel:
		return "gmsl_mm"
	case DatasetOceanPH:
		return "ph"
	default:
		return "value"
	}
}

// DatasetStatus describes the cache state of one dataset family.
type DatasetStatus struct {
	Dataset     Dataset   `json:"dataset"`
	Title       string    `json:"title"`
	Cached      bool      `json:"cached"`
	RecordCount int       `json:"recordCount,omitempty"`
	SizeBytes   int64     `json:"sizeBytes,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
	LatestValue *float64  `json:"latestValue,omitempty"`
}
