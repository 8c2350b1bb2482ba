package providers

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/tonylquintanilla/palomas-orrery-sub004/internal/cache"
	"github.com/tonylquintanilla/palomas-orrery-sub004/internal/climate"
	"github.com/tonylquintanilla/palomas-orrery-sub004/internal/common"
)

// SeaIceProvider fetches the NSIDC Sea Ice Index daily Arctic extent CSV.
//
// Layout: a header row "Year, Month, Day, Extent, Missing, Source Data",
// a units row, then one row per day. Extent is in millions of km^2.
type SeaIceProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewSeaIceProvider(client *http.Client) *SeaIceProvider {
	return &SeaIceProvider{
		name:    "nsidc",
		baseURL: "https://noaadata.apps.nsidc.org/NOAA/G02135/north/daily/data/N_seaice_extent_daily_v3.0.csv",
		httpCfg: newHTTPConfig(client),
		circuit: newCircuit("seaice"),
	}
}

func (p *SeaIceProvider) Name() string {
	return p.name
}

func (p *SeaIceProvider) Dataset() climate.Dataset {
	return climate.DatasetSeaIce
}

func (p *SeaIceProvider) Metadata() cache.MetadataBuilder {
	return climate.StandardMetadata{
		Dataset:     climate.DatasetSeaIce,
		Source:      "NSIDC Sea Ice Index v3",
		SourceURL:   p.baseURL,
		Units:       "million km^2",
		Description: "Daily Arctic sea ice extent",
	}
}

func (p *SeaIceProvider) Fetch(ctx context.Context) ([]cache.Record, error) {
	body, err := fetchBody(ctx, p.httpCfg, p.circuit, p.baseURL)
	if err != nil {
		return nil, err
	}
	return parseSeaIce(body)
}

func parseSeaIce(body []byte) ([]cache.Record, error) {
	reader := csv.NewReader(bytes.NewReader(body))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing sea ice csv: %w", err)
	}

	var records []cache.Record
	for _, row := range rows {
		if len(row) < 4 {
			continue
		}

		// Header and units rows fail the year parse and are skipped.
		year, err := strconv.Atoi(strings.TrimSpace(row[0]))
		if err != nil {
			continue
		}
		month, err := strconv.Atoi(strings.TrimSpace(row[1]))
		if err != nil {
			continue
		}
		day, err := strconv.Atoi(strings.TrimSpace(row[2]))
		if err != nil {
			continue
		}
		extent, err := strconv.ParseFloat(strings.TrimSpace(row[3]), 64)
		if err != nil || common.IsMissing(extent, -9999) {
			continue
		}

		records = append(records, cache.Record{
			"year":         year,
			"month":        month,
			"day":          day,
			"decimal_date": common.DecimalYear(year, month, day),
			"extent_mkm2":  extent,
		})
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("no sea ice records parsed from response")
	}
	return records, nil
}
