package providers

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/tonylquintanilla/palomas-orrery-sub004/internal/cache"
	"github.com/tonylquintanilla/palomas-orrery-sub004/internal/climate"
	"github.com/tonylquintanilla/palomas-orrery-sub004/internal/common"
)

// OceanPHProvider fetches surface ocean pH from the Hawaii Ocean
// Time-series (Station ALOHA) surface CO2 system product.
//
// Data lines are whitespace separated: cruise date, decimal year, then the
// carbonate system columns with calculated pH among them. Missing values
// are -999.
type OceanPHProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker

	// phColumn is the zero-based index of the calculated pH column.
	phColumn int
}

func NewOceanPHProvider(client *http.Client) *OceanPHProvider {
	return &OceanPHProvider{
		name:     "hot-aloha",
		baseURL:  "https://hahana.soest.hawaii.edu/hot/products/HOT_surface_CO2.txt",
		httpCfg:  newHTTPConfig(client),
		circuit:  newCircuit("oceanph"),
		phColumn: 8,
	}
}

func (p *OceanPHProvider) Name() string {
	return p.name
}

func (p *OceanPHProvider) Dataset() climate.Dataset {
	return climate.DatasetOceanPH
}

func (p *OceanPHProvider) Metadata() cache.MetadataBuilder {
	return climate.StandardMetadata{
		Dataset:     climate.DatasetOceanPH,
		Source:      "Hawaii Ocean Time-series (Station ALOHA)",
		SourceURL:   p.baseURL,
		Units:       "pH (total scale)",
		Description: "Calculated surface ocean pH at Station ALOHA",
	}
}

func (p *OceanPHProvider) Fetch(ctx context.Context) ([]cache.Record, error) {
	body, err := fetchBody(ctx, p.httpCfg, p.circuit, p.baseURL)
	if err != nil {
		return nil, err
	}
	return parseOceanPH(body, p.phColumn)
}

func parseOceanPH(body []byte, phColumn int) ([]cache.Record, error) {
	var records []cache.Record

	scanner := bufio.NewScanner(bytes.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		if common.IsComment(line, "#", "cruise") || strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) <= phColumn {
			continue
		}

		// The decimal year is the first column that parses as a plausible
		// fractional year; the cruise label and calendar date before it
		// don't.
		decimalDate, ok := findDecimalYear(fields)
		if !ok {
			continue
		}
		ph, err := strconv.ParseFloat(fields[phColumn], 64)
		if err != nil || common.IsMissing(ph, -999) || ph <= 0 {
			continue
		}

		records = append(records, cache.Record{
			"decimal_date": decimalDate,
			"ph":           ph,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning ocean ph data: %w", err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("no ocean ph records parsed from response")
	}
	return records, nil
}

func findDecimalYear(fields []string) (float64, bool) {
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			continue
		}
		if v > 1900 && v < 2200 {
			return v, true
		}
	}
	return 0, false
}
