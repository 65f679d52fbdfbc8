// Package scheduler runs the periodic price refresh job.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"svtk/internal/config"
	"svtk/internal/tracker"
)

// Scheduler owns the cron instance driving the daily price refresh.
// It shares the server's tracker, so the same mutex must guard both.
type Scheduler struct {
	cfg  *config.Config
	log  zerolog.Logger
	cron *cron.Cron

	mu      *sync.Mutex
	tracker *tracker.Tracker
}

// New creates a scheduler for the tracker. mu is the mutex the HTTP
// server uses for the same tracker instance.
func New(cfg *config.Config, t *tracker.Tracker, mu *sync.Mutex, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cfg:     cfg,
		log:     log.With().Str("service", "scheduler").Logger(),
		cron:    cron.New(),
		mu:      mu,
		tracker: t,
	}
}

// Start registers the refresh job and starts the cron loop.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.cfg.RefreshSchedule, s.refreshJob)
	if err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info().Str("schedule", s.cfg.RefreshSchedule).Msg("Price refresh scheduled")
	return nil
}

// Stop stops the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) refreshJob() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Info().Msg("Refreshing prices for held assets")
	if err := s.tracker.RefreshPrices(ctx); err != nil {
		s.log.Error().Err(err).Msg("Scheduled price refresh failed")
		return
	}

	if s.cfg.AutoSave {
		if err := s.tracker.SaveToFile(s.cfg.FilePath, s.cfg.Password); err != nil {
			s.log.Error().Err(err).Msg("Failed to save portfolio after refresh")
			return
		}
	}
	s.log.Info().Msg("Price refresh complete")
}
