package payroll

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/fieldpay/internal/domain/models"
	"github.com/mamadbah2/fieldpay/internal/domain/money"
	"github.com/mamadbah2/fieldpay/internal/service/ytd"
)

// ErrEmptyWindow indicates there is nothing to finalize in the window.
var ErrEmptyWindow = errors.New("no jobs or adjustments in window")

var reportNamespace = uuid.MustParse("6f1c1f0e-3b61-4f55-9d0e-7b7a8a3f2c11")

// ReportID derives a stable report id from the window so a retried finalize
// maps onto the same report.
func ReportID(window models.Window) string {
	key := window.Start.UTC().Format(time.RFC3339) + "/" + window.End.UTC().Format(time.RFC3339Nano)
	return uuid.NewSHA1(reportNamespace, []byte(key)).String()
}

// Finalize aggregates the window and builds the request the persistence sink
// applies atomically: the frozen report, the ids of consumed jobs and
// one-time adjustments, and the loan payments to book.
func (a *Aggregator) Finalize(snap models.Snapshot, window models.Window, now time.Time) (models.FinalizeRequest, []models.Warning, error) {
	result := a.Aggregate(snap, &window)
	if len(result.Technicians) == 0 {
		return models.FinalizeRequest{}, result.Warnings, ErrEmptyWindow
	}

	req := models.FinalizeRequest{
		Report: models.Report{
			ID:          ReportID(window),
			PaymentID:   ytd.PaymentID(window.End),
			WindowStart: window.Start,
			WindowEnd:   window.End,
			Technicians: result.Technicians,
			CreatedAt:   now,
		},
		WindowStart: window.Start,
		WindowEnd:   window.End,
	}

	loanTotals := make(map[string]money.Cents)
	for _, tech := range result.Technicians {
		for _, job := range tech.Jobs {
			req.ConsumedJobIDs = append(req.ConsumedJobIDs, job.JobID)
		}
		for _, adj := range tech.Adjustments {
			if !adj.Synthetic {
				req.ConsumedAdjustmentIDs = append(req.ConsumedAdjustmentIDs, adj.ID)
			}
			if adj.Kind == models.AdjustmentLoanPayment && adj.LoanID != "" {
				loanTotals[adj.LoanID] -= adj.Amount
			}
		}
	}

	for loanID, amount := range loanTotals {
		if amount == 0 {
			continue
		}
		req.LoanPayments = append(req.LoanPayments, models.LoanPayment{LoanID: loanID, Amount: amount})
	}
	sort.Slice(req.LoanPayments, func(i, j int) bool { return req.LoanPayments[i].LoanID < req.LoanPayments[j].LoanID })
	sort.Strings(req.ConsumedJobIDs)
	sort.Strings(req.ConsumedAdjustmentIDs)

	a.logger.Info("payroll window finalized",
		zap.String("window", window.String()),
		zap.String("report_id", req.Report.ID),
		zap.Int("payment_id", req.Report.PaymentID),
		zap.Int("technicians", len(result.Technicians)),
		zap.Int("jobs", len(req.ConsumedJobIDs)),
		zap.Int("adjustments", len(req.ConsumedAdjustmentIDs)),
		zap.Int("loan_payments", len(req.LoanPayments)))

	return req, result.Warnings, nil
}
