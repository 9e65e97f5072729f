package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/fekuna/omnipos-replenishment-service/internal/logger"
	"github.com/fekuna/omnipos-replenishment-service/internal/replenishment"
	"github.com/fekuna/omnipos-replenishment-service/internal/replenishment/dto"
	"go.uber.org/zap"
)

type Config struct {
	Interval   time.Duration
	RunTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = 24 * time.Hour
	}
	if c.RunTimeout <= 0 {
		c.RunTimeout = 30 * time.Minute
	}
	return c
}

// Scheduler triggers a run for the current business day on a fixed interval.
type Scheduler struct {
	uc     replenishment.UseCase
	cfg    Config
	logger logger.ZapLogger
}

func NewScheduler(uc replenishment.UseCase, cfg Config, logger logger.ZapLogger) *Scheduler {
	return &Scheduler{
		uc:     uc,
		cfg:    cfg.withDefaults(),
		logger: logger,
	}
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.logger.Info("Starting replenishment scheduler", zap.Duration("interval", s.cfg.Interval))
	for {
		if err := s.RunOnce(ctx); err != nil {
			s.logger.Warn("Scheduled replenishment run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			s.logger.Info("Stopping replenishment scheduler")
			return
		case <-ticker.C:
		}
	}
}

// RunOnce triggers one run. A run already holding the date counts as
// success.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RunTimeout)
	defer cancel()

	summary, err := s.uc.TriggerRun(ctx, &dto.TriggerRunInput{RequestedBy: "scheduler"})
	if err != nil {
		if errors.Is(err, replenishment.ErrRunInProgress) {
			s.logger.Info("Scheduled run skipped, run already in progress")
			return nil
		}
		return err
	}

	s.logger.Info("Scheduled replenishment run completed",
		zap.String("run_id", summary.RunID),
		zap.String("run_date", summary.RunDate),
		zap.Int("total_items", summary.TotalItems),
	)
	return nil
}
