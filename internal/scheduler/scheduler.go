package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/fieldpay/internal/config"
	"github.com/mamadbah2/fieldpay/internal/service/payroll"
	"github.com/mamadbah2/fieldpay/internal/service/reporting"
)

// Finalizer closes payroll windows.
type Finalizer interface {
	FinalizeDays(ctx context.Context, end time.Time, days int) (reporting.FinalizeOutcome, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron      *cron.Cron
	finalizer Finalizer
	cfg       config.PayrollConfig
	now       func() time.Time
	logger    *zap.Logger
}

// NewScheduler creates a new scheduler instance. Cron expressions are
// evaluated in the payroll time zone.
func NewScheduler(cfg config.PayrollConfig, finalizer Finalizer, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	// robfig/cron/v3 default parser is standard cron (5 fields: min, hour, dom, month, dow).
	c := cron.New(cron.WithLocation(loc))

	return &Scheduler{
		cron:      c,
		finalizer: finalizer,
		cfg:       cfg,
		now:       time.Now,
		logger:    logger,
	}, nil
}

// Start registers the payroll job and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("schedule", s.cfg.CronSchedule), zap.String("timezone", s.cfg.Timezone))

	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.finalizePayroll); err != nil {
		return fmt.Errorf("schedule payroll finalize %q: %w", s.cfg.CronSchedule, err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) finalizePayroll() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	_ = s.runFinalize(ctx)
}

func (s *Scheduler) runFinalize(ctx context.Context) error {
	s.logger.Info("finalizing scheduled payroll window", zap.Int("days", s.cfg.WindowDays))

	out, err := s.finalizer.FinalizeDays(ctx, s.now(), s.cfg.WindowDays)
	switch {
	case errors.Is(err, payroll.ErrEmptyWindow):
		s.logger.Info("nothing to finalize this period")
		return nil
	case err != nil:
		s.logger.Error("failed to finalize payroll", zap.Error(err))
		return err
	case out.AlreadyFinalized:
		s.logger.Info("payroll window was already finalized", zap.String("report_id", out.Report.ID))
	default:
		s.logger.Info("payroll finalized",
			zap.String("report_id", out.Report.ID),
			zap.Int("payment_id", out.Report.PaymentID),
			zap.Int("technicians", len(out.Report.Technicians)),
			zap.Int("warnings", len(out.Warnings)))
	}
	return nil
}
