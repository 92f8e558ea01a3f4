// Package memory is an in-process Store used for tests and local runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mamadbah2/fieldpay/internal/domain/models"
)

// Store keeps every collection in memory. It honours the same contract as
// the MongoDB repository, including idempotent finalize.
type Store struct {
	mu      sync.Mutex
	snap    models.Snapshot
	reports map[string]models.Report

	// FailFinalize, when set, is returned by ApplyFinalize before any change.
	FailFinalize error
}

// NewStore seeds a store with a snapshot.
func NewStore(seed models.Snapshot) *Store {
	return &Store{snap: copySnapshot(seed), reports: make(map[string]models.Report)}
}

// LoadSnapshot returns a deep enough copy that callers cannot alter the store.
func (s *Store) LoadSnapshot(context.Context) (models.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copySnapshot(s.snap), nil
}

func (s *Store) InsertJobs(_ context.Context, jobs []models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, job := range jobs {
		if _, ok := s.snap.JobByID(job.ID); ok {
			return fmt.Errorf("job %s already exists", job.ID)
		}
	}
	for _, job := range jobs {
		s.snap.Jobs = append(s.snap.Jobs, job.Clone())
	}
	return nil
}

func (s *Store) PatchJobs(_ context.Context, ids []string, patch models.JobPatch) (int64, error) {
	return s.updateJobs(ids, patch.Apply), nil
}

func (s *Store) ReassignJobs(_ context.Context, ids []string, technicianID string) (int64, error) {
	return s.updateJobs(ids, func(job models.Job) models.Job {
		job.TechnicianID = technicianID
		return job
	}), nil
}

func (s *Store) updateJobs(ids []string, fn func(models.Job) models.Job) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var n int64
	for i, job := range s.snap.Jobs {
		if want[job.ID] {
			s.snap.Jobs[i] = fn(job)
			n++
		}
	}
	return n
}

func (s *Store) DeleteRateCategory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.snap.Users {
		if u.RateCategoryID == id {
			return fmt.Errorf("delete category %s: %w", id, models.ErrCategoryInUse)
		}
	}
	for i, c := range s.snap.Categories {
		if c.ID == id {
			s.snap.Categories = append(s.snap.Categories[:i:i], s.snap.Categories[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("category %s: %w", id, models.ErrCategoryNotFound)
}

// ApplyFinalize stores the report and consumes the request's records as one step.
func (s *Store) ApplyFinalize(_ context.Context, req models.FinalizeRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailFinalize != nil {
		return s.FailFinalize
	}
	if _, ok := s.reports[req.Report.ID]; ok {
		return fmt.Errorf("report %s: %w", req.Report.ID, models.ErrAlreadyFinalized)
	}
	s.reports[req.Report.ID] = req.Report

	consumed := make(map[string]bool, len(req.ConsumedJobIDs)+len(req.ConsumedAdjustmentIDs))
	for _, id := range req.ConsumedJobIDs {
		consumed[id] = true
	}
	jobs := s.snap.Jobs[:0:0]
	for _, job := range s.snap.Jobs {
		if !consumed[job.ID] {
			jobs = append(jobs, job)
		}
	}
	s.snap.Jobs = jobs

	for _, id := range req.ConsumedAdjustmentIDs {
		consumed[id] = true
	}
	adjs := s.snap.Adjustments[:0:0]
	for _, adj := range s.snap.Adjustments {
		if !consumed[adj.ID] {
			adjs = append(adjs, adj)
		}
	}
	s.snap.Adjustments = adjs

	for _, p := range req.LoanPayments {
		for i := range s.snap.Loans {
			loan := &s.snap.Loans[i]
			if loan.ID != p.LoanID {
				continue
			}
			loan.Remaining -= p.Amount
			if loan.Remaining <= 0 {
				loan.Remaining = 0
				loan.Active = false
			}
		}
	}
	return nil
}

func (s *Store) ListReports(_ context.Context, year int) ([]models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	to := time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)

	var out []models.Report
	for _, r := range s.reports {
		if !r.WindowEnd.Before(from) && r.WindowEnd.Before(to) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WindowEnd.Before(out[j].WindowEnd) })
	return out, nil
}

func (s *Store) GetReport(_ context.Context, id string) (models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok {
		return models.Report{}, fmt.Errorf("report %s: %w", id, models.ErrNotFound)
	}
	return r, nil
}

// PutReport stores a report directly, bypassing finalize.
func (s *Store) PutReport(report models.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[report.ID] = report
}

func copySnapshot(in models.Snapshot) models.Snapshot {
	out := models.Snapshot{
		Adjustments: append([]models.Adjustment(nil), in.Adjustments...),
		Recurring:   append([]models.RecurringAdjustment(nil), in.Recurring...),
		Loans:       append([]models.Loan(nil), in.Loans...),
		Categories:  append([]models.RateCategory(nil), in.Categories...),
		Users:       append([]models.User(nil), in.Users...),
	}
	for _, job := range in.Jobs {
		out.Jobs = append(out.Jobs, job.Clone())
	}
	return out
}
