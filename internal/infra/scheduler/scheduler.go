package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DialogSweeper cancels registration dialogs that have been idle for too long.
type DialogSweeper interface {
	ExpireIdle(ctx context.Context, ttl time.Duration) int
}

// StatsWarmer precomputes manager stats.
type StatsWarmer interface {
	WarmUp(ctx context.Context) error
}

const (
	sweepTimeout  = 30 * time.Second
	warmupTimeout = 2 * time.Minute
)

type MaintenanceScheduler struct {
	cronEngine *cron.Cron
	sweeper    DialogSweeper
	warmer     StatsWarmer
	dialogTTL  time.Duration
	logger     *logrus.Entry

	cronSpecDialogSweep string
	cronSpecStatsWarmup string
}

func NewMaintenanceScheduler(
	sweeper DialogSweeper,
	warmer StatsWarmer,
	dialogTTL time.Duration,
	logger *logrus.Entry,
	cronSpecDialogSweep string, // e.g. "@every 1m"
	cronSpecStatsWarmup string, // e.g. "*/5 8-22 * * *", empty disables the job
) *MaintenanceScheduler {
	return &MaintenanceScheduler{
		cronEngine:          cron.New(cron.WithLocation(time.Local)),
		sweeper:             sweeper,
		warmer:              warmer,
		dialogTTL:           dialogTTL,
		logger:              logger.WithField("component", "scheduler"),
		cronSpecDialogSweep: cronSpecDialogSweep,
		cronSpecStatsWarmup: cronSpecStatsWarmup,
	}
}

// Start registers the jobs and starts the cron engine. Jobs are not started on error.
func (s *MaintenanceScheduler) Start() error {
	s.logger.Info("Starting maintenance scheduler...")

	if _, err := s.cronEngine.AddFunc(s.cronSpecDialogSweep, s.sweepDialogs); err != nil {
		return fmt.Errorf("could not add dialog sweep job: %w", err)
	}

	if s.warmer != nil && s.cronSpecStatsWarmup != "" {
		if _, err := s.cronEngine.AddFunc(s.cronSpecStatsWarmup, s.warmUpStats); err != nil {
			return fmt.Errorf("could not add stats warmup job: %w", err)
		}
	}

	s.cronEngine.Start()
	s.logger.WithField("jobs", len(s.cronEngine.Entries())).Info("Maintenance scheduler started")
	return nil
}

func (s *MaintenanceScheduler) sweepDialogs() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	expired := s.sweeper.ExpireIdle(ctx, s.dialogTTL)
	s.logger.WithFields(logrus.Fields{
		"job":     "dialog_sweep",
		"expired": expired,
	}).Debug("Dialog sweep finished")
}

func (s *MaintenanceScheduler) warmUpStats() {
	ctx, cancel := context.WithTimeout(context.Background(), warmupTimeout)
	defer cancel()

	if err := s.warmer.WarmUp(ctx); err != nil {
		s.logger.WithError(err).WithField("job", "stats_warmup").Error("Stats warmup failed")
	}
}

func (s *MaintenanceScheduler) Stop() {
	s.logger.Info("Stopping maintenance scheduler...")
	<-s.cronEngine.Stop().Done() // waits for running jobs
	s.logger.Info("Maintenance scheduler gracefully stopped")
}
