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

// TemperatureProvider fetches the NASA GISTEMP v4 global-mean surface
// temperature anomaly table (GLB.Ts+dSST.csv).
//
// The CSV opens with a title line, then a header row "Year,Jan,...,Dec,...",
// then one row per year with monthly anomalies in degrees Celsius relative
// to the 1951-1980 mean. Months not yet reported are "***".
type TemperatureProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewTemperatureProvider(client *http.Client) *TemperatureProvider {
	return &TemperatureProvider{
		name:    "nasa-gistemp",
		baseURL: "https://data.giss.nasa.gov/gistemp/tabledata_v4/GLB.Ts+dSST.csv",
		httpCfg: newHTTPConfig(client),
		circuit: newCircuit("temperature"),
	}
}

func (p *TemperatureProvider) Name() string {
	return p.name
}

func (p *TemperatureProvider) Dataset() climate.Dataset {
	return climate.DatasetTemperature
}

func (p *TemperatureProvider) Metadata() cache.MetadataBuilder {
	return climate.StandardMetadata{
		Dataset:     climate.DatasetTemperature,
		Source:      "NASA GISS Surface Temperature Analysis (GISTEMP v4)",
		SourceURL:   p.baseURL,
		Units:       "degrees C anomaly vs 1951-1980",
		Description: "Global-mean monthly surface temperature anomaly (land + ocean)",
	}
}

func (p *TemperatureProvider) Fetch(ctx context.Context) ([]cache.Record, error) {
	body, err := fetchBody(ctx, p.httpCfg, p.circuit, p.baseURL)
	if err != nil {
		return nil, err
	}
	return parseGISTEMP(body)
}

func parseGISTEMP(body []byte) ([]cache.Record, error) {
	reader := csv.NewReader(bytes.NewReader(body))
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing gistemp csv: %w", err)
	}

	var records []cache.Record
	for _, row := range rows {
		// Skip the title line, the header row and anything too short to
		// hold a year plus twelve months.
		if len(row) < 13 {
			continue
		}
		year, err := strconv.Atoi(strings.TrimSpace(row[0]))
		if err != nil {
			continue
		}

		for month := 1; month <= 12; month++ {
			cell := strings.TrimSpace(row[month])
			anomaly, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				// "***" marks months not yet reported.
				continue
			}

			records = append(records, cache.Record{
				"year":         year,
				"month":        month,
				"decimal_date": common.DecimalYear(year, month, 0),
				"anomaly_c":    anomaly,
			})
		}
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("no temperature records parsed from response")
	}
	return records, nil
}
