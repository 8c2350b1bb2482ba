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

// SeaLevelProvider fetches the NOAA/NESDIS Laboratory for Satellite
// Altimetry global mean sea level time series (TOPEX through Jason-3).
//
// The text file uses "HDR" comment lines; data lines are whitespace
// separated with the decimal year in the first column and the smoothed
// GMSL anomaly (mm) in the last.
type SeaLevelProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewSeaLevelProvider(client *http.Client) *SeaLevelProvider {
	return &SeaLevelProvider{
		name:    "noaa-lsa",
		baseURL: "https://www.star.nesdis.noaa.gov/socd/lsa/SeaLevelRise/slr/slr_sla_gbl_free_txj1j2_90.csv",
		httpCfg: newHTTPConfig(client),
		circuit: newCircuit("sealevel"),
	}
}

func (p *SeaLevelProvider) Name() string {
	return p.name
}

func (p *SeaLevelProvider) Dataset() climate.Dataset {
	return climate.DatasetSeaLevel
}

func (p *SeaLevelProvider) Metadata() cache.MetadataBuilder {
	return climate.StandardMetadata{
		Dataset:     climate.DatasetSeaLevel,
		Source:      "NOAA Laboratory for Satellite Altimetry",
		SourceURL:   p.baseURL,
		Units:       "mm",
		Description: "Global mean sea level anomaly from satellite altimetry",
	}
}

func (p *SeaLevelProvider) Fetch(ctx context.Context) ([]cache.Record, error) {
	body, err := fetchBody(ctx, p.httpCfg, p.circuit, p.baseURL)
	if err != nil {
		return nil, err
	}
	return parseSeaLevel(body)
}

func parseSeaLevel(body []byte) ([]cache.Record, error) {
	var records []cache.Record

	scanner := bufio.NewScanner(bytes.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		if common.IsComment(line, "HDR", "#") || strings.TrimSpace(line) == "" {
			continue
		}

		// Some variants of the file are comma separated.
		line = strings.ReplaceAll(line, ",", " ")
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		decimalDate, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			continue
		}
		gmsl, err := strconv.ParseFloat(fields[len(fields)-1], 64)
		if err != nil || common.IsMissing(gmsl, 99900.0) {
			continue
		}

		records = append(records, cache.Record{
			"decimal_date": decimalDate,
			"gmsl_mm":      gmsl,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning sea level data: %w", err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("no sea level records parsed from response")
	}
	return records, nil
}
