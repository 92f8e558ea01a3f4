package models

import (
	"strings"
	"time"

	"github.com/mamadbah2/fieldpay/internal/domain/money"
)

// Job captures one billable unit of field work uploaded or entered manually.
type Job struct {
	ID           string       `bson:"_id" json:"id"`
	WorkOrder    string       `bson:"work_order" json:"work_order"`
	TechnicianID string       `bson:"technician_id" json:"technician_id"`
	TaskCode     string       `bson:"task_code" json:"task_code"`
	Quantity     float64      `bson:"quantity" json:"quantity"`
	Revenue      money.Cents  `bson:"revenue" json:"revenue"` // billed to the client
	Date         time.Time    `bson:"date" json:"date"`
	RateOverride *money.Cents `bson:"rate_override,omitempty" json:"rate_override,omitempty"`
	AerialDrop   bool         `bson:"aerial_drop,omitempty" json:"aerial_drop,omitempty"`
}

// Key returns the duplicate-detection key of the job.
func (j Job) Key() string {
	return DuplicateKey(j.WorkOrder, j.TaskCode, j.TechnicianID)
}

// Clone returns a copy that does not share the override pointer.
func (j Job) Clone() Job {
	if j.RateOverride != nil {
		j.RateOverride = money.Ptr(*j.RateOverride)
	}
	return j
}

// DuplicateKey builds the case and whitespace insensitive (work order, task
// code, technician) triple used to reject duplicate uploads.
func DuplicateKey(workOrder, taskCode, technicianID string) string {
	return strings.Join([]string{
		normalizeKeyPart(workOrder),
		normalizeKeyPart(taskCode),
		normalizeKeyPart(technicianID),
	}, "|")
}

// IDKey normalizes an identifier the way duplicate keys compare it.
func IDKey(id string) string {
	return normalizeKeyPart(id)
}

func normalizeKeyPart(value string) string {
	return strings.ToLower(strings.Join(strings.Fields(value), " "))
}

// ProcessedJob is the frozen snapshot of a job inside a report. It is never
// recalculated once written.
type ProcessedJob struct {
	JobID        string       `bson:"job_id" json:"job_id"`
	WorkOrder    string       `bson:"work_order" json:"work_order"`
	TechnicianID string       `bson:"technician_id" json:"technician_id"`
	TaskCode     string       `bson:"task_code" json:"task_code"`
	Quantity     float64      `bson:"quantity" json:"quantity"`
	Revenue      money.Cents  `bson:"revenue" json:"revenue"`
	Date         time.Time    `bson:"date" json:"date"`
	RateOverride *money.Cents `bson:"rate_override,omitempty" json:"rate_override,omitempty"`
	AerialDrop   bool         `bson:"aerial_drop,omitempty" json:"aerial_drop,omitempty"`
	AppliedRate  money.Cents  `bson:"applied_rate" json:"applied_rate"`
	RateSource   RateSource   `bson:"rate_source" json:"rate_source"`
	Earning      money.Cents  `bson:"earning" json:"earning"`
}

// OverridePatch either sets the per-job rate override or removes it. Clearing
// is distinct from setting zero: zero pins the rate, absence falls through.
type OverridePatch struct {
	Clear bool        `json:"clear,omitempty"`
	Rate  money.Cents `json:"rate"`
}

// JobPatch is a sparse update. Nil fields are left untouched.
type JobPatch struct {
	Date         *time.Time     `json:"date,omitempty"`
	RateOverride *OverridePatch `json:"rate_override,omitempty"`
	AerialDrop   *bool          `json:"aerial_drop,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p JobPatch) IsEmpty() bool {
	return p.Date == nil && p.RateOverride == nil && p.AerialDrop == nil
}

// Apply returns a copy of job with the patch applied.
func (p JobPatch) Apply(job Job) Job {
	out := job.Clone()
	if p.Date != nil {
		out.Date = *p.Date
	}
	if p.RateOverride != nil {
		if p.RateOverride.Clear {
			out.RateOverride = nil
		} else {
			out.RateOverride = money.Ptr(p.RateOverride.Rate)
		}
	}
	if p.AerialDrop != nil {
		out.AerialDrop = *p.AerialDrop
	}
	return out
}

// UploadRow is one already-tabular row handed over by an upload parser.
type UploadRow struct {
	Row          int          `json:"row"`
	TechnicianID string       `json:"technician_id"`
	TaskCode     string       `json:"task_code"`
	WorkOrder    string       `json:"work_order"`
	Quantity     float64      `json:"quantity"`
	Revenue      *money.Cents `json:"revenue,omitempty"`      // total for the row
	UnitRevenue  *money.Cents `json:"unit_revenue,omitempty"` // per unit, used when Revenue is absent
	Date         time.Time    `json:"date"`
	RateOverride *money.Cents `json:"rate_override,omitempty"`
}
