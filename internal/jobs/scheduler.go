package jobs

import (
	"context"
	"log/slog"

	"gymdesk/internal/logger"

	"github.com/robfig/cron/v3"
)

const (
	GaugeSchedule    = "@hourly"
	ReminderSchedule = "0 8 * * *"
)

type Scheduler struct {
	cron *cron.Cron
	jobs *Jobs
}

func NewScheduler(jobs *Jobs) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.L().Handler(), slog.LevelInfo))
	return &Scheduler{
		cron: cron.New(cron.WithChain(cron.Recover(cronLogger))),
		jobs: jobs,
	}
}

// Start registers the jobs, refreshes the gauges once, and runs the cron
// loop until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(GaugeSchedule, func() { _ = s.jobs.RefreshGauges(ctx) }); err != nil {
		return err
	}
	logger.Info("scheduled status gauge job", "schedule", GaugeSchedule)

	if _, err := s.cron.AddFunc(ReminderSchedule, func() { _, _ = s.jobs.RemindExpiring(ctx) }); err != nil {
		return err
	}
	logger.Info("scheduled expiry reminder job", "schedule", ReminderSchedule)

	_ = s.jobs.RefreshGauges(ctx)
	s.cron.Start()

	<-ctx.Done()
	<-s.cron.Stop().Done()
	logger.Info("scheduler stopped")
	return nil
}

// Entries reports how many jobs are registered.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}
