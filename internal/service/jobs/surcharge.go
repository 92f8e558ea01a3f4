package jobs

import (
	"errors"
	"fmt"

	"github.com/mamadbah2/fieldpay/internal/domain/models"
	"github.com/mamadbah2/fieldpay/internal/domain/money"
	"github.com/mamadbah2/fieldpay/internal/service/rates"
)

// DefaultSurchargeTaskCode names the category entry holding the aerial drop surcharge.
const DefaultSurchargeTaskCode = "AERIAL DROP"

var (
	ErrNoRateCategory       = errors.New("technician has no rate category")
	ErrNoStandardRate       = errors.New("category has no rate for the job's task code")
	ErrSurchargeCodeMissing = errors.New("category has no surcharge rate")
)

// ToggleSurcharge turns the aerial drop surcharge on or off for job and
// returns the updated copy. Turning it on pins the rate override to the
// category's standard rate plus the surcharge rate; any missing piece fails
// the call and the job comes back unchanged. Turning it off clears both the
// flag and the override.
func ToggleSurcharge(job models.Job, on bool, resolver *rates.Resolver, surchargeCode string) (models.Job, error) {
	if !on {
		out := job.Clone()
		out.AerialDrop = false
		out.RateOverride = nil
		return out, nil
	}
	if surchargeCode == "" {
		surchargeCode = DefaultSurchargeTaskCode
	}

	user, ok := resolver.User(job.TechnicianID)
	if !ok {
		return job, fmt.Errorf("job %s: %w %q", job.ID, ErrUnknownTechnician, job.TechnicianID)
	}
	category, _, ok := resolver.EffectiveCategory(user)
	if !ok {
		return job, fmt.Errorf("job %s: %w", job.ID, ErrNoRateCategory)
	}
	standard, ok := category.Rate(job.TaskCode)
	if !ok {
		return job, fmt.Errorf("job %s: %w (%s in %s)", job.ID, ErrNoStandardRate, job.TaskCode, category.Name)
	}
	surcharge, ok := category.Rate(surchargeCode)
	if !ok {
		return job, fmt.Errorf("job %s: %w (%s in %s)", job.ID, ErrSurchargeCodeMissing, surchargeCode, category.Name)
	}

	out := job.Clone()
	out.AerialDrop = true
	out.RateOverride = money.Ptr(standard + surcharge)
	return out, nil
}

// SurchargePatch expresses the toggled state of job as a sparse patch for the
// persistence layer.
func SurchargePatch(job models.Job) models.JobPatch {
	flag := job.AerialDrop
	patch := models.JobPatch{AerialDrop: &flag}
	if job.AerialDrop && job.RateOverride != nil {
		patch.RateOverride = &models.OverridePatch{Rate: *job.RateOverride}
	} else {
		patch.RateOverride = &models.OverridePatch{Clear: true}
	}
	return patch
}
