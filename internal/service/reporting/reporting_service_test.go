package reporting

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mamadbah2/fieldpay/internal/domain/models"
	"github.com/mamadbah2/fieldpay/internal/domain/money"
	"github.com/mamadbah2/fieldpay/internal/repository/memory"
	"github.com/mamadbah2/fieldpay/internal/service/jobs"
	"github.com/mamadbah2/fieldpay/internal/service/payroll"
	"github.com/mamadbah2/fieldpay/internal/service/rates"
)

type recorder struct {
	reports []models.Report
	err     error
}

func (r *recorder) AppendPayrollSummary(_ context.Context, report models.Report) error {
	r.reports = append(r.reports, report)
	return r.err
}

func (r *recorder) NotifyFinalized(_ context.Context, report models.Report) error {
	r.reports = append(r.reports, report)
	return r.err
}

var fixedNow = time.Date(2024, 5, 10, 18, 0, 0, 0, time.UTC)

func seed() models.Snapshot {
	return models.Snapshot{
		Categories: []models.RateCategory{
			{ID: "std", Name: "Standard", Rates: []models.TaskRate{{TaskCode: "INSTALL", Rate: 6000}}},
			{ID: "unused", Name: "Unused"},
		},
		Users: []models.User{
			{ID: "t1", Name: "Amy", Phone: "+1 (555) 010-0001", RateCategoryID: "std"},
			{ID: "t2", Name: "Bob", RateCategoryID: "std"},
		},
		Jobs: []models.Job{
			{ID: "j1", TechnicianID: "t1", WorkOrder: "WO-1", TaskCode: "INSTALL", Quantity: 1, Revenue: 10000, Date: time.Date(2024, 5, 7, 0, 0, 0, 0, time.UTC)},
			{ID: "j2", TechnicianID: "t2", WorkOrder: "WO-2", TaskCode: "INSTALL", Quantity: 2, Revenue: 20000, Date: time.Date(2024, 5, 8, 0, 0, 0, 0, time.UTC), RateOverride: money.Ptr(7000)},
		},
		Adjustments: []models.Adjustment{
			{ID: "a1", TechnicianID: "t1", Amount: 1000, Kind: models.AdjustmentBonus, Date: time.Date(2024, 5, 9, 0, 0, 0, 0, time.UTC)},
		},
		Loans: []models.Loan{
			{ID: "l1", TechnicianID: "t1", Amount: 50000, Remaining: 50000, Installment: 2500, Active: true, Taxable: true, Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		},
	}
}

func newService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore(seed())
	svc := NewService(store, Options{Now: func() time.Time { return fixedNow }}, nil)
	return svc, store
}

func week(t *testing.T) models.Window {
	t.Helper()
	w, err := models.NewWindow(time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC), time.Date(2024, 5, 12, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	return w
}

func TestFinalizeConsumesAndPublishes(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)
	rec := &recorder{}
	svc.SetSummaryWriter(rec)
	svc.SetNotifier(rec)

	out, err := svc.Finalize(ctx, week(t))
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if out.AlreadyFinalized || len(out.Report.Technicians) != 2 {
		t.Fatalf("unexpected outcome %+v", out)
	}
	// t1: 60 + 10 bonus - 25 installment; t2: 2 x 70
	if got := out.Report.TotalEarnings().String(); got != "185.00" {
		t.Fatalf("report total = %s, want 185.00", got)
	}
	if len(rec.reports) != 2 {
		t.Fatalf("summary and notification expected, got %d", len(rec.reports))
	}

	snap, _ := store.LoadSnapshot(ctx)
	if len(snap.Jobs) != 0 || len(snap.Adjustments) != 0 {
		t.Fatalf("finalize must consume jobs and adjustments: %+v", snap)
	}
	if snap.Loans[0].Remaining != 47500 {
		t.Fatalf("loan remaining = %d, want 47500", snap.Loans[0].Remaining)
	}

	again, err := svc.Finalize(ctx, week(t))
	if err != nil {
		t.Fatalf("second finalize: %v", err)
	}
	if !again.AlreadyFinalized || again.Report.ID != out.Report.ID {
		t.Fatalf("second finalize must report the stored window: %+v", again)
	}
	snap, _ = store.LoadSnapshot(ctx)
	if snap.Loans[0].Remaining != 47500 {
		t.Fatalf("loan must not be charged twice")
	}

	y, err := svc.YTD(ctx, "t1", 2024)
	if err != nil {
		t.Fatalf("ytd: %v", err)
	}
	// 45.00 earnings + 500.00 taxable loan
	if y.Total.String() != "545.00" {
		t.Fatalf("ytd = %s, want 545.00", y.Total)
	}
}

func TestFinalizePublishFailureIsNotFatal(t *testing.T) {
	svc, _ := newService(t)
	svc.SetSummaryWriter(&recorder{err: errors.New("sheets down")})

	if _, err := svc.Finalize(context.Background(), week(t)); err != nil {
		t.Fatalf("finalize must succeed when publishing fails: %v", err)
	}
}

func TestFinalizeEmptyWindow(t *testing.T) {
	svc, _ := newService(t)
	w, _ := models.NewWindow(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC))

	_, err := svc.Finalize(context.Background(), w)
	if !errors.Is(err, payroll.ErrEmptyWindow) {
		t.Fatalf("expected ErrEmptyWindow, got %v", err)
	}
}

func TestFinalizeDaysUsesLocation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	out, err := svc.FinalizeDays(ctx, time.Date(2024, 5, 12, 20, 0, 0, 0, time.UTC), 7)
	if err != nil {
		t.Fatalf("finalize days: %v", err)
	}
	if out.Report.WindowStart.Format(models.DateLayout) != "2024-05-06" || out.Report.PaymentID != 19 {
		t.Fatalf("unexpected report window %+v", out.Report)
	}
}

func TestUploadRecords(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	out, err := svc.UploadRecords(ctx, [][]string{
		{"technician", "work order", "task code", "qty", "total", "date"},
		{"t1", "WO-1", "install", "1", "100", "2024-05-07"},
		{"t2", "WO-9", "INSTALL", "1", "100", "2024-05-08"},
		{"t2", "WO-9", "install ", "1", "100", "2024-05-08"},
		{"t2", "WO-10", "INSTALL", "1", "100", "not a date"},
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if out.Inserted != 1 || len(out.Skipped) != 2 {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if len(out.Preview) != 1 || out.Preview[0].JobEarnings != 6000 {
		t.Fatalf("preview must cover uploaded jobs only: %+v", out.Preview)
	}
	snap, _ := store.LoadSnapshot(ctx)
	if len(snap.Jobs) != 3 {
		t.Fatalf("store jobs = %d, want 3", len(snap.Jobs))
	}
}

func TestBulkEditClearsOverride(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	out, err := svc.BulkEdit(ctx, []string{"j2", "missing"}, models.JobPatch{RateOverride: &models.OverridePatch{Clear: true}})
	if err != nil {
		t.Fatalf("bulk edit: %v", err)
	}
	if out.Applied != 1 || len(out.Missing) != 1 {
		t.Fatalf("unexpected outcome %+v", out)
	}
	snap, _ := store.LoadSnapshot(ctx)
	if j, _ := snap.JobByID("j2"); j.RateOverride != nil {
		t.Fatalf("override must be removed")
	}
}

func TestToggleSurchargeWithoutSurchargeRate(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	_, err := svc.ToggleSurcharge(ctx, "j1", true)
	if !errors.Is(err, jobs.ErrSurchargeCodeMissing) {
		t.Fatalf("expected ErrSurchargeCodeMissing, got %v", err)
	}
	snap, _ := store.LoadSnapshot(ctx)
	if j, _ := snap.JobByID("j1"); j.AerialDrop || j.RateOverride != nil {
		t.Fatalf("job must be unchanged: %+v", j)
	}

	if _, err := svc.ToggleSurcharge(ctx, "nope", true); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTransferAndDeleteCategory(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	if _, err := svc.Transfer(ctx, []string{"j1"}, "t2"); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	snap, _ := store.LoadSnapshot(ctx)
	if j, _ := snap.JobByID("j1"); j.TechnicianID != "t2" {
		t.Fatalf("job not transferred")
	}

	if err := svc.DeleteRateCategory(ctx, "std"); !errors.Is(err, rates.ErrCategoryInUse) {
		t.Fatalf("expected ErrCategoryInUse, got %v", err)
	}
	if err := svc.DeleteRateCategory(ctx, "unused"); err != nil {
		t.Fatalf("delete unused: %v", err)
	}
}

func TestUserByPhoneAndLiveSummary(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	user, err := svc.UserByPhone(ctx, "15550100001")
	if err != nil || user.ID != "t1" {
		t.Fatalf("user by phone = %+v, %v", user, err)
	}
	if _, err := svc.UserByPhone(ctx, "999"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	live, ok, err := svc.LiveSummary(ctx, "t1")
	if err != nil || !ok {
		t.Fatalf("live summary: %v %v", ok, err)
	}
	if live.TotalEarnings != 6000 || len(live.Adjustments) != 0 {
		t.Fatalf("live summary must ignore adjustments: %+v", live)
	}
}

func TestUploadMatchesTechnicianCaseInsensitively(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	out, err := svc.Upload(ctx, []models.UploadRow{
		{Row: 2, TechnicianID: "T1", WorkOrder: "WO-77", TaskCode: "INSTALL", Quantity: 1, Date: time.Date(2024, 5, 9, 0, 0, 0, 0, time.UTC)},
		{Row: 3, TechnicianID: "nobody", WorkOrder: "WO-78", TaskCode: "INSTALL", Quantity: 1, Date: time.Date(2024, 5, 9, 0, 0, 0, 0, time.UTC)},
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if out.Inserted != 1 || len(out.Skipped) != 1 || out.Skipped[0].Reason != jobs.ReasonUnknownTechnician {
		t.Fatalf("unexpected outcome %+v", out)
	}

	w := week(t)
	res, err := svc.Preview(ctx, &w)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	for _, entry := range res.Technicians {
		if entry.TechnicianID == "t1" && entry.JobCount != 2 {
			t.Fatalf("t1 jobs = %d, want 2", entry.JobCount)
		}
	}
	for _, warning := range res.Warnings {
		if warning.Kind == models.WarningUnknownTechnician {
			t.Fatalf("uploaded job must not be orphaned: %+v", warning)
		}
	}
}

func TestBulkEditAerialDropKeepsSurchargeRule(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)
	on, off := true, false

	out, err := svc.BulkEdit(ctx, []string{"j1"}, models.JobPatch{AerialDrop: &on})
	if err != nil {
		t.Fatalf("bulk edit on: %v", err)
	}
	if out.Applied != 0 || len(out.Failed) != 1 || !strings.Contains(out.Failed[0].Reason, jobs.ErrSurchargeCodeMissing.Error()) {
		t.Fatalf("unexpected outcome %+v", out)
	}
	snap, _ := store.LoadSnapshot(ctx)
	if j, _ := snap.JobByID("j1"); j.AerialDrop || j.RateOverride != nil {
		t.Fatalf("job without a surcharge rate must stay unchanged: %+v", j)
	}

	out, err = svc.BulkEdit(ctx, []string{"j2"}, models.JobPatch{AerialDrop: &off})
	if err != nil {
		t.Fatalf("bulk edit off: %v", err)
	}
	if out.Applied != 1 {
		t.Fatalf("unexpected outcome %+v", out)
	}
	snap, _ = store.LoadSnapshot(ctx)
	if j, _ := snap.JobByID("j2"); j.AerialDrop || j.RateOverride != nil {
		t.Fatalf("flag off must clear the override: %+v", j)
	}
}

func TestBulkEditAerialDropPinsOverride(t *testing.T) {
	ctx := context.Background()
	snap := seed()
	snap.Categories[0].Rates = append(snap.Categories[0].Rates, models.TaskRate{TaskCode: "AERIAL DROP", Rate: 1500})
	store := memory.NewStore(snap)
	svc := NewService(store, Options{Now: func() time.Time { return fixedNow }}, nil)
	on := true

	out, err := svc.BulkEdit(ctx, []string{"j1", "j2"}, models.JobPatch{AerialDrop: &on})
	if err != nil {
		t.Fatalf("bulk edit: %v", err)
	}
	if out.Applied != 2 {
		t.Fatalf("unexpected outcome %+v", out)
	}
	stored, _ := store.LoadSnapshot(ctx)
	for _, id := range []string{"j1", "j2"} {
		j, _ := stored.JobByID(id)
		if !j.AerialDrop || j.RateOverride == nil || *j.RateOverride != 7500 {
			t.Fatalf("job %s: expected flag with 75.00 override, got %+v", id, j)
		}
	}
}
