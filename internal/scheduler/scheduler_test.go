package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tonylquintanilla/palomas-orrery-sub004/internal/cache"
	"github.com/tonylquintanilla/palomas-orrery-sub004/internal/climate"
	"github.com/tonylquintanilla/palomas-orrery-sub004/internal/store"
)

type countingProvider struct {
	fetches atomic.Int64
}

func (p *countingProvider) Name() string             { return "counting" }
func (p *countingProvider) Dataset() climate.Dataset { return climate.DatasetCO2 }

func (p *countingProvider) Fetch(ctx context.Context) ([]cache.Record, error) {
	p.fetches.Add(1)
	return []cache.Record{
		{"decimal_date": 1958.2, "co2_ppm": 315.7},
	}, nil
}

func (p *countingProvider) Metadata() cache.MetadataBuilder {
	return climate.StandardMetadata{Dataset: climate.DatasetCO2, Source: "counting", Units: "ppm"}
}

// TestSchedulerSubHourInterval verifies that a configured interval below one
// hour is honored as-is rather than being rounded away.
func TestSchedulerSubHourInterval(t *testing.T) {
	p := &countingProvider{}
	svc := climate.NewService(t.TempDir(), cache.NewWriter(cache.DefaultSafetyConfig()),
		store.NewMemoryStore(), []climate.Provider{p})

	sched := New(150*time.Millisecond, svc)
	if err := sched.Start(); err != nil {
		t.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		// The immediate run plus at least one interval-driven repeat proves
		// the interval wasn't truncated to whole hours.
		if p.fetches.Load() >= 2 {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("expected at least 2 fetches within the deadline, got %d", p.fetches.Load())
}
