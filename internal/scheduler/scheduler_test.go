package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mamadbah2/fieldpay/internal/config"
	"github.com/mamadbah2/fieldpay/internal/domain/models"
	"github.com/mamadbah2/fieldpay/internal/service/payroll"
	"github.com/mamadbah2/fieldpay/internal/service/reporting"
)

type fakeFinalizer struct {
	end  time.Time
	days int
	err  error
}

func (f *fakeFinalizer) FinalizeDays(_ context.Context, end time.Time, days int) (reporting.FinalizeOutcome, error) {
	f.end, f.days = end, days
	return reporting.FinalizeOutcome{Report: models.Report{ID: "r"}}, f.err
}

func cfg() config.PayrollConfig {
	return config.PayrollConfig{CronSchedule: "0 20 * * 5", Timezone: "UTC", WindowDays: 7}
}

func TestRunFinalize(t *testing.T) {
	now := time.Date(2024, 5, 10, 20, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{"ok", nil, false},
		{"empty window is not a failure", payroll.ErrEmptyWindow, false},
		{"store failure", errors.New("boom"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeFinalizer{err: tt.err}
			s, err := NewScheduler(cfg(), f, nil)
			if err != nil {
				t.Fatalf("new scheduler: %v", err)
			}
			s.now = func() time.Time { return now }

			err = s.runFinalize(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !f.end.Equal(now) || f.days != 7 {
				t.Fatalf("finalizer called with %s / %d", f.end, f.days)
			}
		})
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	c := cfg()
	c.CronSchedule = "every friday"
	s, err := NewScheduler(c, &fakeFinalizer{}, nil)
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	if err := s.Start(); err == nil {
		s.Stop()
		t.Fatalf("expected invalid schedule error")
	}
}

func TestNewSchedulerRejectsBadTimezone(t *testing.T) {
	c := cfg()
	c.Timezone = "Nowhere/Land"
	if _, err := NewScheduler(c, &fakeFinalizer{}, nil); err == nil {
		t.Fatalf("expected timezone error")
	}
}
