package jobs

import (
	"errors"
	"fmt"

	"github.com/mamadbah2/fieldpay/internal/domain/models"
	"github.com/mamadbah2/fieldpay/internal/service/rates"
)

var (
	// ErrEmptyPatch is returned when a bulk edit carries no field to change.
	ErrEmptyPatch = errors.New("patch changes nothing")
	// ErrNoJobsSelected is returned when a batch operation names no job.
	ErrNoJobsSelected = errors.New("no jobs selected")
	// ErrUnknownTechnician is returned when a job or target references a user that does not exist.
	ErrUnknownTechnician = errors.New("unknown technician")
	// ErrNegativeRate is returned when a rate override is below zero.
	ErrNegativeRate = errors.New("rate override must not be negative")
	// ErrConflictingPatch is returned when a patch sets both the aerial drop
	// flag and the rate override; the flag owns the override.
	ErrConflictingPatch = errors.New("aerial drop and rate override cannot be patched together")
)

// Failure is a selected job a batch operation left unchanged.
type Failure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// Outcome counts what a batch operation did.
type Outcome struct {
	Applied int       `json:"applied"`
	Skipped int       `json:"skipped"`
	Updated []string  `json:"updated,omitempty"`
	Missing []string  `json:"missing,omitempty"`
	Failed  []Failure `json:"failed,omitempty"`
}

// BulkEdit applies patch to every job named in ids and returns the new job
// collection. The input slice is not modified. Ids that match no job are
// reported as missing; repeated ids are skipped.
//
// An aerial drop change goes through ToggleSurcharge for each job, so the
// flag and its override always move together. Jobs whose category cannot
// price the surcharge are reported in Failed and keep every field as it was.
func BulkEdit(jobs []models.Job, ids []string, patch models.JobPatch, resolver *rates.Resolver, surchargeCode string) ([]models.Job, Outcome, error) {
	if len(ids) == 0 {
		return nil, Outcome{}, ErrNoJobsSelected
	}
	if patch.IsEmpty() {
		return nil, Outcome{}, ErrEmptyPatch
	}
	if patch.AerialDrop != nil && patch.RateOverride != nil {
		return nil, Outcome{}, ErrConflictingPatch
	}
	if patch.RateOverride != nil && !patch.RateOverride.Clear && patch.RateOverride.Rate < 0 {
		return nil, Outcome{}, fmt.Errorf("%w: %s", ErrNegativeRate, patch.RateOverride.Rate)
	}
	if resolver == nil {
		resolver = rates.NewResolver(nil, nil)
	}

	plain := models.JobPatch{Date: patch.Date, RateOverride: patch.RateOverride}
	return mutate(jobs, ids, func(job models.Job) (models.Job, error) {
		edited := plain.Apply(job)
		if patch.AerialDrop == nil {
			return edited, nil
		}
		return ToggleSurcharge(edited, *patch.AerialDrop, resolver, surchargeCode)
	})
}

// StoredPatch is the patch that persists one bulk-edited job. Aerial drop
// edits resolve to a per-job override, so they are taken from the edited job.
func StoredPatch(edited models.Job, patch models.JobPatch) models.JobPatch {
	if patch.AerialDrop == nil {
		return patch
	}
	out := SurchargePatch(edited)
	out.Date = patch.Date
	return out
}

// Transfer reassigns the selected jobs to technicianID. Rates are not
// recomputed here; the next aggregation resolves them for the new owner.
func Transfer(jobs []models.Job, ids []string, technicianID string, users []models.User) ([]models.Job, Outcome, error) {
	if len(ids) == 0 {
		return nil, Outcome{}, ErrNoJobsSelected
	}
	known := false
	for _, u := range users {
		if u.ID == technicianID {
			known = true
			break
		}
	}
	if !known {
		return nil, Outcome{}, fmt.Errorf("transfer to %q: %w", technicianID, ErrUnknownTechnician)
	}

	return mutate(jobs, ids, func(job models.Job) (models.Job, error) {
		out := job.Clone()
		out.TechnicianID = technicianID
		return out, nil
	})
}

func mutate(jobs []models.Job, ids []string, fn func(models.Job) (models.Job, error)) ([]models.Job, Outcome, error) {
	index := make(map[string]int, len(jobs))
	out := make([]models.Job, len(jobs))
	for i, job := range jobs {
		out[i] = job.Clone()
		index[job.ID] = i
	}

	var outcome Outcome
	done := make(map[string]bool, len(ids))
	for _, id := range ids {
		if done[id] {
			outcome.Skipped++
			continue
		}
		done[id] = true
		i, ok := index[id]
		if !ok {
			outcome.Missing = append(outcome.Missing, id)
			continue
		}
		changed, err := fn(out[i])
		if err != nil {
			outcome.Failed = append(outcome.Failed, Failure{ID: id, Reason: err.Error()})
			continue
		}
		out[i] = changed
		outcome.Applied++
		outcome.Updated = append(outcome.Updated, id)
	}
	return out, outcome, nil
}
