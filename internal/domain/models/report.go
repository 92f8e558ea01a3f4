package models

import (
	"errors"
	"time"

	"github.com/mamadbah2/fieldpay/internal/domain/money"
)

var (
	// ErrAlreadyFinalized is returned by a sink that has already stored the report.
	ErrAlreadyFinalized = errors.New("window already finalized")
	// ErrNotFound is returned when a stored record does not exist.
	ErrNotFound = errors.New("not found")
)

// ProcessedTechnician is one user's earnings for one window.
type ProcessedTechnician struct {
	TechnicianID    string         `bson:"technician_id" json:"technician_id"`
	Name            string         `bson:"name" json:"name"`
	Role            Role           `bson:"role" json:"role"`
	JobCount        int            `bson:"job_count" json:"job_count"`
	TotalRevenue    money.Cents    `bson:"total_revenue" json:"total_revenue"`
	JobEarnings     money.Cents    `bson:"job_earnings" json:"job_earnings"`
	AdjustmentTotal money.Cents    `bson:"adjustment_total" json:"adjustment_total"`
	TotalEarnings   money.Cents    `bson:"total_earnings" json:"total_earnings"`
	CompanyMargin   money.Cents    `bson:"company_margin" json:"company_margin"`
	AveragePerJob   money.Cents    `bson:"average_per_job" json:"average_per_job"`
	Adjustments     []Adjustment   `bson:"adjustments" json:"adjustments"`
	Jobs            []ProcessedJob `bson:"jobs" json:"jobs"`
}

// Report is a finalized payroll run.
type Report struct {
	ID          string                `bson:"_id" json:"id"`
	PaymentID   int                   `bson:"payment_id" json:"payment_id"` // frozen at finalize time
	WindowStart time.Time             `bson:"window_start" json:"window_start"`
	WindowEnd   time.Time             `bson:"window_end" json:"window_end"`
	Technicians []ProcessedTechnician `bson:"technicians" json:"technicians"`
	CreatedAt   time.Time             `bson:"created_at" json:"created_at"`
}

// Technician returns the entry for a technician in the report.
func (r Report) Technician(id string) (ProcessedTechnician, bool) {
	for _, t := range r.Technicians {
		if t.TechnicianID == id {
			return t, true
		}
	}
	return ProcessedTechnician{}, false
}

// TotalEarnings sums every technician's earnings.
func (r Report) TotalEarnings() money.Cents {
	var total money.Cents
	for _, t := range r.Technicians {
		total += t.TotalEarnings
	}
	return total
}

// FinalizeRequest is handed to the persistence sink, which must write the
// report, remove consumed records and apply loan payments as one unit. Every
// removal is keyed by id so re-applying the request is harmless.
type FinalizeRequest struct {
	Report                Report        `json:"report"`
	ConsumedJobIDs        []string      `json:"consumed_job_ids"`
	ConsumedAdjustmentIDs []string      `json:"consumed_adjustment_ids"`
	LoanPayments          []LoanPayment `json:"loan_payments"`
	WindowStart           time.Time     `json:"window_start"`
	WindowEnd             time.Time     `json:"window_end"`
}
