package profitshare

import (
	"fmt"
	"strconv"

	"github.com/mamadbah2/fieldpay/internal/domain/models"
	"github.com/mamadbah2/fieldpay/internal/service/rates"
)

// Calculate derives the lead's profit-share adjustments for team jobs dated
// inside window. For each job the margin per unit is the lead category's
// rate minus the member's resolved payout, in cents; the share is
// margin x quantity x percent / 100 rounded once. Zero shares are dropped.
//
// A lead without a usable rate category has no margin to share and yields
// nothing. Team jobs whose task code the lead's category does not price are
// skipped with a warning.
func Calculate(lead models.User, window models.Window, jobs []models.Job, resolver *rates.Resolver, defaultPercent float64) ([]models.Adjustment, []models.Warning) {
	if !lead.IsTeamLead() {
		return nil, nil
	}
	category, ok := resolver.Category(lead.RateCategoryID)
	if !ok {
		return nil, nil
	}
	percent := lead.ProfitShare(defaultPercent)

	var (
		out      []models.Adjustment
		warnings []models.Warning
	)
	for _, job := range jobs {
		if !window.Contains(job.Date) {
			continue
		}
		member, ok := resolver.User(job.TechnicianID)
		if !ok || member.ID == lead.ID || member.ManagedBy != lead.ID {
			continue
		}

		companyRate, ok := category.Rate(job.TaskCode)
		if !ok {
			warnings = append(warnings, models.Warning{
				Kind:     models.WarningMissingRate,
				Message:  fmt.Sprintf("lead category %q has no rate for task %q; no profit share", category.Name, job.TaskCode),
				JobID:    job.ID,
				UserID:   lead.ID,
				TaskCode: job.TaskCode,
			})
			continue
		}

		payout := resolver.Resolve(job, member)
		margin := companyRate - payout.Rate
		amount := margin.Share(job.Quantity, percent)
		if amount == 0 {
			continue
		}

		out = append(out, models.Adjustment{
			ID:           "profit-share:" + job.ID,
			TechnicianID: lead.ID,
			Date:         job.Date,
			Amount:       amount,
			Kind:         models.AdjustmentProfitShare,
			Description: fmt.Sprintf("Profit share %s%%: %s %s x%s (WO %s)",
				strconv.FormatFloat(percent, 'f', -1, 64), member.DisplayName(), job.TaskCode,
				strconv.FormatFloat(job.Quantity, 'f', -1, 64), job.WorkOrder),
			Synthetic: true,
		})
	}
	return out, warnings
}
