package adjustments

import (
	"fmt"
	"sort"
	"time"

	"github.com/mamadbah2/fieldpay/internal/domain/models"
	"github.com/mamadbah2/fieldpay/internal/domain/money"
)

// Collect gathers the adjustments that apply to technicianID within window:
// every live adjustment dated inside the window plus one instance per active
// recurring adjustment, dated at the window end and never pro-rated.
func Collect(technicianID string, window models.Window, live []models.Adjustment, recurring []models.RecurringAdjustment) []models.Adjustment {
	var out []models.Adjustment

	for _, adj := range live {
		if adj.TechnicianID != technicianID || !window.Contains(adj.Date) {
			continue
		}
		out = append(out, adj)
	}

	for _, rec := range recurring {
		if !rec.Active || rec.TechnicianID != technicianID || rec.Amount == 0 {
			continue
		}
		kind := rec.Kind
		if kind == "" {
			kind = models.AdjustmentRecurring
		}
		out = append(out, models.Adjustment{
			ID:           syntheticID("recurring", rec.ID, window.End),
			TechnicianID: technicianID,
			Date:         window.End,
			Amount:       rec.Amount,
			Kind:         kind,
			Description:  rec.Description,
			RecurringID:  rec.ID,
			Synthetic:    true,
		})
	}

	SortByDate(out)
	return out
}

// CollectAdjustments is Collect with the window given as two dates.
func CollectAdjustments(technicianID string, start, end time.Time, live []models.Adjustment, recurring []models.RecurringAdjustment) ([]models.Adjustment, error) {
	window, err := models.NewWindow(start, end)
	if err != nil {
		return nil, err
	}
	return Collect(technicianID, window, live, recurring), nil
}

// Amortize schedules the period's installment for each active loan of the
// technician that has none scheduled yet in collected. The withheld amount
// never exceeds the remaining balance.
func Amortize(technicianID string, window models.Window, loans []models.Loan, collected []models.Adjustment) []models.Adjustment {
	scheduled := make(map[string]bool)
	for _, adj := range collected {
		if adj.Kind == models.AdjustmentLoanPayment && adj.LoanID != "" {
			scheduled[adj.LoanID] = true
		}
	}

	var out []models.Adjustment
	for _, loan := range loans {
		if loan.TechnicianID != technicianID || !loan.Active || loan.Installment <= 0 || loan.Remaining <= 0 {
			continue
		}
		if scheduled[loan.ID] || loan.Date.After(window.End) {
			continue
		}
		amount := money.Min(loan.Installment, loan.Remaining)
		out = append(out, models.Adjustment{
			ID:           syntheticID("loan", loan.ID, window.End),
			TechnicianID: technicianID,
			Date:         window.End,
			Amount:       -amount,
			Kind:         models.AdjustmentLoanPayment,
			Description:  fmt.Sprintf("Loan installment (%s remaining)", (loan.Remaining - amount).String()),
			LoanID:       loan.ID,
			Synthetic:    true,
		})
	}
	return out
}

// SortByDate orders adjustments by date, then id, in place.
func SortByDate(list []models.Adjustment) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].Date.Equal(list[j].Date) {
			return list[i].Date.Before(list[j].Date)
		}
		return list[i].ID < list[j].ID
	})
}

func syntheticID(prefix, parentID string, at time.Time) string {
	return fmt.Sprintf("%s:%s:%s", prefix, parentID, at.Format(models.DateLayout))
}
