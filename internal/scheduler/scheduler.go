// Package scheduler periodically tells displays to reload their content.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/bilgisen/signage/internal/display"
)

type Scheduler struct {
	cron     *cron.Cron
	notifier display.Notifier
	timeout  time.Duration
	log      zerolog.Logger
}

// New schedules a refresh broadcast on schedule, a standard five field cron
// expression or a descriptor such as "@every 30m".
func New(schedule string, notifier display.Notifier, log zerolog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:     cron.New(),
		notifier: notifier,
		timeout:  10 * time.Second,
		log:      log.With().Str("component", "scheduler").Logger(),
	}

	if _, err := s.cron.AddFunc(schedule, s.refresh); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Scheduler) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.notifier.ContentChanged(ctx); err != nil {
		s.log.Error().Err(err).Msg("Scheduled refresh failed")
		return
	}
	s.log.Debug().Msg("Scheduled refresh sent")
}

func (s *Scheduler) Start() {
	s.cron.Start()
	for _, e := range s.cron.Entries() {
		s.log.Info().Time("next_run", e.Next).Msg("Refresh scheduler started")
	}
}

// Stop stops the scheduler and waits for a running refresh to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
