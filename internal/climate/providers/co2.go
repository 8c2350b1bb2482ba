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

// CO2Provider fetches the NOAA GML Mauna Loa monthly mean CO2 record.
//
// The published text file carries '#' comment lines followed by whitespace
// separated columns:
//
//	year month decimal-date average deseasonalized ndays sdev unc
//
// Missing monthly averages are encoded as -99.99.
type CO2Provider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewCO2Provider(client *http.Client) *CO2Provider {
	return &CO2Provider{
		name:    "noaa-gml",
		baseURL: "https://gml.noaa.gov/webdata/ccgg/trends/co2/co2_mm_mlo.txt",
		httpCfg: newHTTPConfig(client),
		circuit: newCircuit("co2"),
	}
}

func (p *CO2Provider) Name() string {
	return p.name
}

func (p *CO2Provider) Dataset() climate.Dataset {
	return climate.DatasetCO2
}

func (p *CO2Provider) Metadata() cache.MetadataBuilder {
	return climate.StandardMetadata{
		Dataset:     climate.DatasetCO2,
		Source:      "NOAA Global Monitoring Laboratory",
		SourceURL:   p.baseURL,
		Units:       "ppm",
		Description: "Monthly mean atmospheric CO2 at Mauna Loa Observatory",
	}
}

func (p *CO2Provider) Fetch(ctx context.Context) ([]cache.Record, error) {
	body, err := fetchBody(ctx, p.httpCfg, p.circuit, p.baseURL)
	if err != nil {
		return nil, err
	}
	return parseCO2(body)
}

func parseCO2(body []byte) ([]cache.Record, error) {
	var records []cache.Record

	scanner := bufio.NewScanner(bytes.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		if common.IsComment(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 5 {
			continue
		}

		year, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		month, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}
		decimalDate, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			continue
		}
		average, err := strconv.ParseFloat(fields[3], 64)
		if err != nil || common.IsMissing(average, -99.99, -999.99) {
			continue
		}
		trend, err := strconv.ParseFloat(fields[4], 64)
		if err != nil {
			trend = average
		}

		records = append(records, cache.Record{
			"year":         year,
			"month":        month,
			"decimal_date": decimalDate,
			"co2_ppm":      average,
			"trend_ppm":    trend,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning co2 data: %w", err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("no co2 records parsed from response")
	}
	return records, nil
}
