package services

import (
	"context"
	"fmt"
	"time"

	"auction-marketplace/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Sweeper is the slice of the orchestrator the scheduler consumes.
type Sweeper interface {
	SweepExpiredListings(ctx context.Context, now time.Time) (int, error)
}

// SweepScheduler triggers the expiry sweep on a fixed interval. The sweep
// itself is stateless and idempotent, so every instance can run one.
type SweepScheduler struct {
	cron     *cron.Cron
	sweeper  Sweeper
	interval time.Duration
	log      logger.Logger
}

func NewSweepScheduler(sweeper Sweeper, interval time.Duration, log logger.Logger) *SweepScheduler {
	return &SweepScheduler{
		cron:     cron.New(cron.WithSeconds()),
		sweeper:  sweeper,
		interval: interval,
		log:      log,
	}
}

func (s *SweepScheduler) Start(ctx context.Context) error {
	s.log.Info("Starting sweep scheduler", "interval", s.interval)

	_, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), func() {
		s.runSweep(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

func (s *SweepScheduler) Stop() error {
	s.log.Info("Stopping sweep scheduler")
	s.cron.Stop()
	return nil
}

func (s *SweepScheduler) runSweep(ctx context.Context) {
	now := time.Now().UTC()

	count, err := s.sweeper.SweepExpiredListings(ctx, now)
	if err != nil {
		s.log.Error("Sweep failed", "error", err)
		return
	}

	if count > 0 {
		s.log.Info("Sweep complete", "transitioned", count, "now", now)
	}
}
