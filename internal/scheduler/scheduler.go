package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/farmrisk/internal/domain"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const (
	DefaultSpec    = "0 6 * * *"
	refreshTimeout = 5 * time.Minute
)

// AlertRefresher is the part of the alert service the scheduler drives.
type AlertRefresher interface {
	RefreshAlerts(ctx context.Context, windowDays *int) ([]domain.Alert, error)
}

// Scheduler triggers alert refreshes on a cron schedule.
type Scheduler struct {
	cron       *cron.Cron
	refresher  AlertRefresher
	spec       string
	windowDays *int
}

// NewScheduler creates a scheduler in loc. A nil windowDays uses the service default.
func NewScheduler(refresher AlertRefresher, spec string, windowDays *int, loc *time.Location) *Scheduler {
	if spec == "" {
		spec = DefaultSpec
	}
	if loc == nil {
		loc = time.UTC
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(loc)),
		refresher:  refresher,
		spec:       spec,
		windowDays: windowDays,
	}
}

// Start registers the refresh job and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.runRefresh); err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", s.spec, err)
	}

	log.Info().Str("spec", s.spec).Msg("scheduler: starting")
	s.cron.Start()
	return nil
}

// Stop stops the cron loop and waits for a running refresh to finish.
func (s *Scheduler) Stop() {
	log.Info().Msg("scheduler: stopping")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runRefresh() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	if _, err := s.RunOnce(ctx); err != nil {
		log.Error().Err(err).Msg("scheduler: alert refresh failed")
	}
}

// RunOnce refreshes alerts immediately.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	alerts, err := s.refresher.RefreshAlerts(ctx, s.windowDays)
	if err != nil {
		return 0, err
	}
	log.Info().Int("alerts", len(alerts)).Msg("scheduler: alert refresh finished")
	return len(alerts), nil
}
