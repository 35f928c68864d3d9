package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/flockcare/internal/config"
	"github.com/mamadbah2/flockcare/internal/domain/models"
	"github.com/mamadbah2/flockcare/internal/observability/metrics"
	"github.com/mamadbah2/flockcare/internal/service/commands"
	"github.com/mamadbah2/flockcare/internal/service/finance"
	"github.com/mamadbah2/flockcare/internal/service/scheduling"
)

const (
	jobMaterialize = "materialize_tasks"
	jobRepair      = "finance_repair"
	jobDigest      = "task_digest"
	jobTimeout     = 5 * time.Minute
)

// TaskPlanner materializes the tasks due across active batches.
type TaskPlanner interface {
	MaterializeDue(ctx context.Context, on time.Time) (scheduling.DueSummary, error)
	MaterializeTasks(ctx context.Context, batchID string, dayAge int) (scheduling.MaterializeResult, error)
	CurrentDayAge(batch models.Batch) int
}

// BatchLister lists the batches a digest covers.
type BatchLister interface {
	ListActiveBatches(ctx context.Context) ([]models.Batch, error)
}

// FinanceRepairer backfills missing finance ledger entries.
type FinanceRepairer interface {
	RepairFinance(ctx context.Context) (finance.RepairSummary, error)
}

// Notifier posts a message to the farm group.
type Notifier interface {
	NotifyGroup(ctx context.Context, message string) error
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	cfg      config.SchedulerConfig
	planner  TaskPlanner
	batches  BatchLister
	repairer FinanceRepairer
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewScheduler creates a new scheduler instance. notifier may be nil, which disables the digest.
func NewScheduler(cfg config.SchedulerConfig, loc *time.Location, planner TaskPlanner, batches BatchLister, repairer FinanceRepairer, notifier Notifier, m *metrics.Metrics, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}

	// Standard 5-field cron expressions evaluated in the farm's timezone.
	c := cron.New(cron.WithLocation(loc))

	return &Scheduler{
		cron:     c,
		cfg:      cfg,
		planner:  planner,
		batches:  batches,
		repairer: repairer,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler")

	if _, err := s.cron.AddFunc(s.cfg.TaskCronSchedule, s.wrap(jobMaterialize, s.MaterializeToday)); err != nil {
		return fmt.Errorf("schedule %s: %w", jobMaterialize, err)
	}
	if _, err := s.cron.AddFunc(s.cfg.RepairCronSchedule, s.wrap(jobRepair, s.RepairFinance)); err != nil {
		return fmt.Errorf("schedule %s: %w", jobRepair, err)
	}
	if s.notifier != nil && s.cfg.DigestCronSchedule != "" {
		if _, err := s.cron.AddFunc(s.cfg.DigestCronSchedule, s.wrap(jobDigest, s.SendDigest)); err != nil {
			return fmt.Errorf("schedule %s: %w", jobDigest, err)
		}
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) wrap(job string, fn func(ctx context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		start := time.Now()
		err := fn(ctx)
		s.metrics.JobFinished(job, time.Since(start).Seconds(), err)
		if err != nil {
			s.logger.Error("scheduled job failed", zap.String("job", job), zap.Error(err))
			return
		}
		s.logger.Info("scheduled job finished", zap.String("job", job), zap.Duration("duration", time.Since(start)))
	}
}

// MaterializeToday creates today's care tasks for every active batch.
func (s *Scheduler) MaterializeToday(ctx context.Context) error {
	summary, err := s.planner.MaterializeDue(ctx, s.now())
	if err != nil {
		return err
	}
	s.logger.Info("daily tasks materialized",
		zap.String("date", summary.Date),
		zap.Int("batches", summary.Batches),
		zap.Int("created", summary.Created),
		zap.Int("errors", len(summary.Errors)))
	if len(summary.Errors) > 0 {
		return fmt.Errorf("%d of %d batches failed", len(summary.Errors), summary.Batches)
	}
	return nil
}

// RepairFinance runs the finance backfill pass.
func (s *Scheduler) RepairFinance(ctx context.Context) error {
	summary, err := s.repairer.RepairFinance(ctx)
	if err != nil {
		return err
	}
	if len(summary.Errors) > 0 {
		return fmt.Errorf("%d of %d records could not be repaired", len(summary.Errors), summary.Scanned)
	}
	return nil
}

// SendDigest posts the pending tasks of every active batch to the group.
func (s *Scheduler) SendDigest(ctx context.Context) error {
	if s.notifier == nil {
		return errors.New("no notifier configured")
	}

	batches, err := s.batches.ListActiveBatches(ctx)
	if err != nil {
		return err
	}

	var sections []string
	for _, batch := range batches {
		dayAge := s.planner.CurrentDayAge(batch)
		if dayAge < 0 {
			continue
		}
		res, err := s.planner.MaterializeTasks(ctx, batch.ID, dayAge)
		if err != nil {
			s.logger.Warn("digest skipped batch", zap.String("batch_id", batch.ID), zap.Error(err))
			continue
		}
		if len(res.Tasks) == 0 {
			continue
		}
		sections = append(sections, commands.FormatTaskList(batch, dayAge, res.Tasks))
	}

	if len(sections) == 0 {
		s.logger.Debug("no tasks due, digest not sent")
		return nil
	}
	return s.notifier.NotifyGroup(ctx, strings.Join(sections, "\n\n"))
}
