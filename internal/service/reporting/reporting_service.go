package reporting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/fieldpay/internal/domain/models"
	"github.com/mamadbah2/fieldpay/internal/service/jobs"
	"github.com/mamadbah2/fieldpay/internal/service/payroll"
	"github.com/mamadbah2/fieldpay/internal/service/rates"
	"github.com/mamadbah2/fieldpay/internal/service/ytd"
)

// Store is the data source and persistence sink behind the payroll engine.
type Store interface {
	LoadSnapshot(ctx context.Context) (models.Snapshot, error)
	InsertJobs(ctx context.Context, jobs []models.Job) error
	PatchJobs(ctx context.Context, ids []string, patch models.JobPatch) (int64, error)
	ReassignJobs(ctx context.Context, ids []string, technicianID string) (int64, error)
	DeleteRateCategory(ctx context.Context, id string) error
	ApplyFinalize(ctx context.Context, req models.FinalizeRequest) error
	ListReports(ctx context.Context, year int) ([]models.Report, error)
	GetReport(ctx context.Context, id string) (models.Report, error)
}

// SummaryWriter publishes a finalized report, e.g. to a shared spreadsheet.
type SummaryWriter interface {
	AppendPayrollSummary(ctx context.Context, report models.Report) error
}

// Notifier tells someone a report was finalized.
type Notifier interface {
	NotifyFinalized(ctx context.Context, report models.Report) error
}

// Options configure the service.
type Options struct {
	Location           *time.Location
	SurchargeTaskCode  string
	DefaultProfitShare float64
	Now                func() time.Time
}

// Service runs the payroll engine against a store. Every call loads a fresh
// snapshot; calls are serialized so a mutation never interleaves with an
// aggregation over the same data.
type Service struct {
	store      Store
	aggregator *payroll.Aggregator
	summary    SummaryWriter
	notifier   Notifier
	opts       Options
	logger     *zap.Logger

	mu sync.Mutex
}

// NewService wires a new reporting service instance.
func NewService(store Store, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.SurchargeTaskCode == "" {
		opts.SurchargeTaskCode = jobs.DefaultSurchargeTaskCode
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		store:      store,
		aggregator: payroll.NewAggregator(payroll.Options{DefaultProfitShare: opts.DefaultProfitShare}, logger.Named("aggregator")),
		opts:       opts,
		logger:     logger,
	}
}

// SetSummaryWriter enables publishing finalized reports.
func (s *Service) SetSummaryWriter(w SummaryWriter) {
	s.summary = w
}

// SetNotifier enables finalize notifications.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// Location is the zone payroll windows are cut in.
func (s *Service) Location() *time.Location {
	return s.opts.Location
}

// Now returns the current time in the payroll zone.
func (s *Service) Now() time.Time {
	return s.opts.Now().In(s.opts.Location)
}

func (s *Service) snapshot(ctx context.Context) (models.Snapshot, error) {
	snap, err := s.store.LoadSnapshot(ctx)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	return snap, nil
}

// Preview aggregates without persisting. A nil window is the live summary.
func (s *Service) Preview(ctx context.Context, window *models.Window) (payroll.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.snapshot(ctx)
	if err != nil {
		return payroll.Result{}, err
	}
	return s.aggregator.Aggregate(snap, window), nil
}

// FinalizeOutcome describes a finalize call.
type FinalizeOutcome struct {
	Report           models.Report    `json:"report"`
	Warnings         []models.Warning `json:"warnings"`
	AlreadyFinalized bool             `json:"already_finalized"`
}

// Finalize freezes the window into a report and consumes its jobs and
// adjustments. Finalizing a window that was already stored returns the stored
// report with AlreadyFinalized set instead of an error.
func (s *Service) Finalize(ctx context.Context, window models.Window) (FinalizeOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, err := s.store.GetReport(ctx, payroll.ReportID(window)); err == nil {
		return FinalizeOutcome{Report: s.localize(existing), AlreadyFinalized: true}, nil
	} else if !errors.Is(err, models.ErrNotFound) {
		return FinalizeOutcome{}, err
	}

	snap, err := s.snapshot(ctx)
	if err != nil {
		return FinalizeOutcome{}, err
	}

	req, warnings, err := s.aggregator.Finalize(snap, window, s.Now())
	if err != nil {
		return FinalizeOutcome{Warnings: warnings}, err
	}

	if err := s.store.ApplyFinalize(ctx, req); err != nil {
		if errors.Is(err, models.ErrAlreadyFinalized) {
			return FinalizeOutcome{Report: req.Report, Warnings: warnings, AlreadyFinalized: true}, nil
		}
		return FinalizeOutcome{}, fmt.Errorf("persist report %s: %w", req.Report.ID, err)
	}

	s.publish(ctx, req.Report)
	return FinalizeOutcome{Report: req.Report, Warnings: warnings}, nil
}

// FinalizeDays finalizes the days-long window ending on the day of end.
func (s *Service) FinalizeDays(ctx context.Context, end time.Time, days int) (FinalizeOutcome, error) {
	if days < 1 {
		days = 1
	}
	end = end.In(s.opts.Location)
	window, err := models.NewWindow(end.AddDate(0, 0, -(days - 1)), end)
	if err != nil {
		return FinalizeOutcome{}, err
	}
	return s.Finalize(ctx, window)
}

func (s *Service) publish(ctx context.Context, report models.Report) {
	if s.summary != nil {
		if err := s.summary.AppendPayrollSummary(ctx, report); err != nil {
			s.logger.Error("append payroll summary", zap.String("report_id", report.ID), zap.Error(err))
		}
	}
	if s.notifier != nil {
		if err := s.notifier.NotifyFinalized(ctx, report); err != nil {
			s.logger.Error("notify payroll finalized", zap.String("report_id", report.ID), zap.Error(err))
		}
	}
}

// Report loads a finalized report.
func (s *Service) Report(ctx context.Context, id string) (models.Report, error) {
	report, err := s.store.GetReport(ctx, id)
	if err != nil {
		return models.Report{}, err
	}
	return s.localize(report), nil
}

// UploadOutcome is the result of ingesting an upload.
type UploadOutcome struct {
	Inserted int                          `json:"inserted"`
	Skipped  []jobs.Skip                  `json:"skipped"`
	Warnings []models.Warning             `json:"warnings"`
	Preview  []models.ProcessedTechnician `json:"preview"`
}

// Upload ingests already parsed rows. Duplicates are skipped, never fatal.
// The outcome carries a live summary of the uploaded jobs.
func (s *Service) Upload(ctx context.Context, rows []models.UploadRow) (UploadOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.snapshot(ctx)
	if err != nil {
		return UploadOutcome{}, err
	}

	res := jobs.Ingest(snap.Jobs, rows, snap.Users)
	if err := s.store.InsertJobs(ctx, res.Jobs); err != nil {
		return UploadOutcome{}, err
	}

	preview := s.aggregator.Aggregate(models.Snapshot{Jobs: res.Jobs, Users: snap.Users, Categories: snap.Categories}, nil)
	s.logger.Info("jobs uploaded", zap.Int("inserted", len(res.Jobs)), zap.Int("skipped", len(res.Skipped)))

	return UploadOutcome{
		Inserted: len(res.Jobs),
		Skipped:  res.Skipped,
		Warnings: append(res.Warnings, preview.Warnings...),
		Preview:  preview.Technicians,
	}, nil
}

// UploadRecords parses a tabular upload with a header row and ingests it.
func (s *Service) UploadRecords(ctx context.Context, records [][]string) (UploadOutcome, error) {
	rows, warnings := jobs.ParseRows(records, s.opts.Location)
	outcome, err := s.Upload(ctx, rows)
	if err != nil {
		return UploadOutcome{}, err
	}
	outcome.Warnings = append(warnings, outcome.Warnings...)
	return outcome, nil
}

// BulkEdit applies a sparse patch to the selected jobs. Jobs failing the
// surcharge rule are listed in the outcome and left untouched in the store.
func (s *Service) BulkEdit(ctx context.Context, ids []string, patch models.JobPatch) (jobs.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.snapshot(ctx)
	if err != nil {
		return jobs.Outcome{}, err
	}
	resolver := rates.NewResolver(snap.Users, snap.Categories)
	updated, outcome, err := jobs.BulkEdit(snap.Jobs, ids, patch, resolver, s.opts.SurchargeTaskCode)
	if err != nil {
		return jobs.Outcome{}, err
	}
	if outcome.Applied == 0 {
		return outcome, nil
	}

	if patch.AerialDrop == nil {
		if _, err := s.store.PatchJobs(ctx, outcome.Updated, patch); err != nil {
			return jobs.Outcome{}, err
		}
		return outcome, nil
	}

	edited := make(map[string]models.Job, len(updated))
	for _, job := range updated {
		edited[job.ID] = job
	}
	for _, id := range outcome.Updated {
		if _, err := s.store.PatchJobs(ctx, []string{id}, jobs.StoredPatch(edited[id], patch)); err != nil {
			return jobs.Outcome{}, fmt.Errorf("patch job %s: %w", id, err)
		}
	}
	return outcome, nil
}

// ToggleSurcharge switches the aerial drop surcharge of one job.
func (s *Service) ToggleSurcharge(ctx context.Context, jobID string, on bool) (models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.snapshot(ctx)
	if err != nil {
		return models.Job{}, err
	}
	job, ok := snap.JobByID(jobID)
	if !ok {
		return models.Job{}, fmt.Errorf("job %s: %w", jobID, models.ErrNotFound)
	}

	updated, err := jobs.ToggleSurcharge(job, on, rates.NewResolver(snap.Users, snap.Categories), s.opts.SurchargeTaskCode)
	if err != nil {
		return job, err
	}
	if _, err := s.store.PatchJobs(ctx, []string{jobID}, jobs.SurchargePatch(updated)); err != nil {
		return job, err
	}
	return updated, nil
}

// Transfer reassigns jobs to another technician.
func (s *Service) Transfer(ctx context.Context, ids []string, technicianID string) (jobs.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.snapshot(ctx)
	if err != nil {
		return jobs.Outcome{}, err
	}
	_, outcome, err := jobs.Transfer(snap.Jobs, ids, technicianID, snap.Users)
	if err != nil {
		return jobs.Outcome{}, err
	}
	if outcome.Applied == 0 {
		return outcome, nil
	}
	if _, err := s.store.ReassignJobs(ctx, ids, technicianID); err != nil {
		return jobs.Outcome{}, err
	}
	return outcome, nil
}

// DeleteRateCategory removes a category no user is assigned to.
func (s *Service) DeleteRateCategory(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.snapshot(ctx)
	if err != nil {
		return err
	}
	if _, err := rates.DeleteCategory(snap.Categories, snap.Users, id); err != nil {
		return err
	}
	return s.store.DeleteRateCategory(ctx, id)
}

// YTD returns a technician's year-to-date summary.
func (s *Service) YTD(ctx context.Context, userID string, year int) (ytd.Summary, error) {
	snap, reports, err := s.ytdInputs(ctx, year)
	if err != nil {
		return ytd.Summary{}, err
	}
	if _, ok := snap.UserByID(userID); !ok {
		return ytd.Summary{}, fmt.Errorf("user %s: %w", userID, models.ErrNotFound)
	}
	return ytd.Compute(userID, year, reports, snap.Loans), nil
}

// CompanyYTD returns a team-lead's year-to-date rollup over the current team.
func (s *Service) CompanyYTD(ctx context.Context, leadID string, year int) (ytd.CompanySummary, error) {
	snap, reports, err := s.ytdInputs(ctx, year)
	if err != nil {
		return ytd.CompanySummary{}, err
	}
	if _, ok := snap.UserByID(leadID); !ok {
		return ytd.CompanySummary{}, fmt.Errorf("user %s: %w", leadID, models.ErrNotFound)
	}
	return ytd.ComputeCompany(leadID, year, snap.Users, reports, snap.Loans), nil
}

func (s *Service) ytdInputs(ctx context.Context, year int) (models.Snapshot, []models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.snapshot(ctx)
	if err != nil {
		return models.Snapshot{}, nil, err
	}
	reports, err := s.store.ListReports(ctx, year)
	if err != nil {
		return models.Snapshot{}, nil, fmt.Errorf("list reports for %d: %w", year, err)
	}
	for i := range reports {
		reports[i] = s.localize(reports[i])
	}
	for i := range snap.Loans {
		snap.Loans[i].Date = snap.Loans[i].Date.In(s.opts.Location)
	}
	return snap, reports, nil
}

// localize moves report timestamps into the payroll zone; stores hand them back in UTC.
func (s *Service) localize(report models.Report) models.Report {
	report.WindowStart = report.WindowStart.In(s.opts.Location)
	report.WindowEnd = report.WindowEnd.In(s.opts.Location)
	report.CreatedAt = report.CreatedAt.In(s.opts.Location)
	return report
}

// UserByPhone finds the user registered with the phone number. Only digits
// are compared.
func (s *Service) UserByPhone(ctx context.Context, phone string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.snapshot(ctx)
	if err != nil {
		return models.User{}, err
	}
	want := digits(phone)
	if want == "" {
		return models.User{}, fmt.Errorf("phone %q: %w", phone, models.ErrNotFound)
	}
	for _, u := range snap.Users {
		if digits(u.Phone) == want {
			return u, nil
		}
	}
	return models.User{}, fmt.Errorf("phone %s: %w", phone, models.ErrNotFound)
}

// LiveSummary returns the technician's live (unfinalized) job totals. The
// second value is false when the technician has no live jobs.
func (s *Service) LiveSummary(ctx context.Context, userID string) (models.ProcessedTechnician, bool, error) {
	res, err := s.Preview(ctx, nil)
	if err != nil {
		return models.ProcessedTechnician{}, false, err
	}
	for _, tech := range res.Technicians {
		if tech.TechnicianID == userID {
			return tech, true, nil
		}
	}
	return models.ProcessedTechnician{}, false, nil
}

func digits(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
