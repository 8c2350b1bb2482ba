package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/tonylquintanilla/palomas-orrery-sub004/internal/cache"
	"github.com/tonylquintanilla/palomas-orrery-sub004/internal/climate"
)

type AppConfig struct {
	// DataDir is where cache documents (and their backups and emergency
	// snapshots) live, one JSON file per dataset family.
	DataDir string

	// Datasets to fetch and serve.
	Datasets []climate.Dataset

	// FetchInterval controls how often the scheduler refreshes all datasets.
	FetchInterval time.Duration

	// HTTPTimeout applies to outbound fetches of upstream data files.
	HTTPTimeout time.Duration

	// Safety holds the guarded-save thresholds shared by all families.
	Safety cache.SafetyConfig

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.DataDir = getenvDefault("CLIMATE_DATA_DIR", "data")

	// Upstream climate series update at most daily; default 12 hours.
	intervalStr := getenvDefault("FETCH_INTERVAL", "12h")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_INTERVAL: %w", err)
	}
	cfg.FetchInterval = interval

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "60s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	cfg.Safety = cache.DefaultSafetyConfig()
	cfg.Safety.MinSizeRatio = getenvFloat("CACHE_MIN_SIZE_RATIO", cfg.Safety.MinSizeRatio)
	cfg.Safety.MaxRecordLoss = getenvInt("CACHE_MAX_RECORD_LOSS", cfg.Safety.MaxRecordLoss)
	if cfg.Safety.MinSizeRatio <= 0 || cfg.Safety.MinSizeRatio > 1 {
		return nil, fmt.Errorf("CACHE_MIN_SIZE_RATIO must be in (0, 1], got %v", cfg.Safety.MinSizeRatio)
	}

	cfg.Port = getenvDefault("PORT", "8080")

	datasets, err := loadDatasets()
	if err != nil {
		return nil, err
	}
	cfg.Datasets = datasets

	return cfg, nil
}

// loadDatasets reads the comma-separated DATASETS variable; all known
// families are enabled when it is unset.
func loadDatasets() ([]climate.Dataset, error) {
	raw := os.Getenv("DATASETS")
	if raw == "" {
		return climate.AllDatasets(), nil
	}

	var datasets []climate.Dataset
	for _, name := range strings.Split(raw, ",") {
		d, err := climate.ParseDataset(strings.TrimSpace(name))
		if err != nil {
			return nil, fmt.Errorf("invalid DATASETS entry: %w", err)
		}
		datasets = append(datasets, d)
	}
	return datasets, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}
