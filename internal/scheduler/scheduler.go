package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/tonylquintanilla/palomas-orrery-sub004/internal/climate"
)

// Scheduler periodically refreshes every configured climate dataset so the
// on-disk caches track the upstream publications without manual triggers.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   *climate.Service
	interval  time.Duration
}

// New creates a new Scheduler.
func New(interval time.Duration, service *climate.Service) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		service:   service,
		interval:  interval,
	}
}

// Start schedules the periodic refresh job and starts the underlying
// scheduler. The first refresh runs immediately so a fresh deployment has
// data before the first interval elapses.
func (s *Scheduler) Start() error {
	interval := s.interval
	if interval <= 0 {
		interval = 12 * time.Hour
	}

	_, err := s.scheduler.Every(interval).StartImmediately().Do(func() {
		log.Println("scheduler: running climate dataset refresh")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		if err := s.service.RefreshAll(ctx); err != nil {
			log.Printf("scheduler: refresh completed with errors: %v", err)
			return
		}
		log.Println("scheduler: completed climate dataset refresh")
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
