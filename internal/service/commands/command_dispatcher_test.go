package commands

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mamadbah2/fieldpay/internal/domain/models"
	"github.com/mamadbah2/fieldpay/internal/repository/memory"
	"github.com/mamadbah2/fieldpay/internal/service/reporting"
)

func newDispatcher(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore(models.Snapshot{
		Categories: []models.RateCategory{{ID: "std", Rates: []models.TaskRate{{TaskCode: "INSTALL", Rate: 6000}}}},
		Users:      []models.User{{ID: "t1", Name: "Amy", Phone: "15550100001", RateCategoryID: "std"}},
		Jobs: []models.Job{
			{ID: "j1", TechnicianID: "t1", WorkOrder: "WO-1", TaskCode: "INSTALL", Quantity: 1, Date: time.Date(2024, 5, 7, 10, 0, 0, 0, time.UTC)},
			{ID: "j2", TechnicianID: "t1", WorkOrder: "WO-2", TaskCode: "INSTALL", Quantity: 1, Date: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		},
		Adjustments: []models.Adjustment{
			{ID: "a1", TechnicianID: "t1", Amount: -1500, Kind: models.AdjustmentVehicle, Description: "Truck", Date: time.Date(2024, 5, 8, 0, 0, 0, 0, time.UTC)},
		},
	})
	now := func() time.Time { return time.Date(2024, 5, 9, 12, 0, 0, 0, time.UTC) }
	svc := NewService(reporting.NewService(store, reporting.Options{Now: now}, nil), nil)
	svc.now = now
	return svc, store
}

func TestHandleCommand(t *testing.T) {
	svc, store := newDispatcher(t)
	store.PutReport(models.Report{
		ID:          "r1",
		WindowEnd:   time.Date(2024, 2, 4, 0, 0, 0, 0, time.UTC),
		Technicians: []models.ProcessedTechnician{{TechnicianID: "t1", TotalEarnings: 25000}},
	})

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"pay", "/pay", []string{"unpaid jobs: 2", "$120.00", "$60.00"}},
		{"week", "/WEEK", []string{"Week of May 6: 1 jobs, $60.00", "Truck: -$15.00", "Total: $45.00"}},
		{"ytd", "/ytd", []string{"2024 year-to-date: $250.00 across 1 pay periods."}},
		{"help", "help", []string{"/pay"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.HandleCommand(context.Background(), models.ParseCommand(tt.text), "+1 555 010 0001")
			if err != nil {
				t.Fatalf("handle: %v", err)
			}
			for _, part := range tt.want {
				if !strings.Contains(got, part) {
					t.Fatalf("reply %q does not contain %q", got, part)
				}
			}
		})
	}
}

func TestHandleCommandErrors(t *testing.T) {
	svc, _ := newDispatcher(t)
	ctx := context.Background()

	if _, err := svc.HandleCommand(ctx, models.ParseCommand("/pay"), "000"); !errors.Is(err, ErrUnknownSender) {
		t.Fatalf("expected ErrUnknownSender, got %v", err)
	}
	if _, err := svc.HandleCommand(ctx, models.ParseCommand("/ytd soon"), "15550100001"); !errors.Is(err, ErrInvalidArguments) {
		t.Fatalf("expected ErrInvalidArguments, got %v", err)
	}
	if _, err := svc.HandleCommand(ctx, models.ParseCommand("/refund 12"), "15550100001"); !errors.Is(err, ErrUnsupportedCommand) {
		t.Fatalf("expected ErrUnsupportedCommand, got %v", err)
	}
}
