package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const co2Fixture = `# --------------------------------------------------------------------
# USE OF NOAA GML DATA
#
# CO2 expressed as a mole fraction in dry air, micromol/mol, abbreviated as ppm
#
# year month decimal     average  deseasonalized  ndays  stdev  unc
  1958   3    1958.2027    315.71      314.44       -1   -9.99  -0.99
  1958   4    1958.2877    317.45      315.16       -1   -9.99  -0.99
  1958   5    1958.3699    317.51      314.71       -1   -9.99  -0.99
  1958   6    1958.4548    -99.99      315.19       -1   -9.99  -0.99
  1958   7    1958.5370    315.86      315.19       -1   -9.99  -0.99
`

func TestCO2ProviderFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(co2Fixture))
	}))
	defer server.Close()

	p := NewCO2Provider(server.Client())
	p.baseURL = server.URL

	records, err := p.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	// The -99.99 month must be dropped.
	if len(records) != 4 {
		t.Fatalf("expected 4 records, got %d", len(records))
	}

	first := records[0]
	if first["year"] != 1958 || first["month"] != 3 {
		t.Errorf("unexpected first record date: %v-%v", first["year"], first["month"])
	}
	if first["co2_ppm"] != 315.71 {
		t.Errorf("expected co2_ppm 315.71, got %v", first["co2_ppm"])
	}
	if first["decimal_date"] != 1958.2027 {
		t.Errorf("expected decimal_date 1958.2027, got %v", first["decimal_date"])
	}
}

func TestCO2ProviderServerError(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	p := NewCO2Provider(server.Client())
	p.baseURL = server.URL
	p.httpCfg.Backoff.MaxRetries = 1

	if _, err := p.Fetch(context.Background()); err == nil {
		t.Fatal("expected error from persistent 500s")
	}
	if calls < 2 {
		t.Errorf("expected at least one retry, got %d calls", calls)
	}
}

func TestParseCO2Empty(t *testing.T) {
	if _, err := parseCO2([]byte("# only comments\n")); err == nil {
		t.Fatal("expected error when no data lines are present")
	}
}

func TestCO2ProviderMetadata(t *testing.T) {
	p := NewCO2Provider(http.DefaultClient)

	meta := p.Metadata().Build(nil)
	if meta["dataset"] != "co2" {
		t.Errorf("expected dataset co2, got %v", meta["dataset"])
	}
	if meta["units"] != "ppm" {
		t.Errorf("expected units ppm, got %v", meta["units"])
	}
}
