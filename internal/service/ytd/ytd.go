package ytd

import (
	"time"

	"github.com/mamadbah2/fieldpay/internal/domain/models"
	"github.com/mamadbah2/fieldpay/internal/domain/money"
)

// PaymentID numbers 7-day blocks from January 1: days 1-7 are block 1,
// days 8-14 block 2, and so on. It is not an ISO week; identifiers already
// issued depend on this definition.
func PaymentID(t time.Time) int {
	return (t.YearDay() + 6) / 7
}

// Summary breaks a year-to-date total into its parts.
type Summary struct {
	UserID       string      `json:"user_id"`
	Year         int         `json:"year"`
	Earnings     money.Cents `json:"earnings"`
	TaxableLoans money.Cents `json:"taxable_loans"`
	Total        money.Cents `json:"total"`
	Reports      int         `json:"reports"`
}

// Compute returns the technician's year-to-date total: earnings from every
// finalized report ending in year, plus taxable loans drawn in year. Loan
// draws count at disbursement, repayments do not reduce the total.
func Compute(technicianID string, year int, reports []models.Report, loans []models.Loan) Summary {
	s := Summary{UserID: technicianID, Year: year}
	for _, r := range reports {
		if r.WindowEnd.Year() != year {
			continue
		}
		if entry, ok := r.Technician(technicianID); ok {
			s.Earnings += entry.TotalEarnings
			s.Reports++
		}
	}
	for _, l := range loans {
		if l.TechnicianID == technicianID && l.Taxable && l.Date.Year() == year {
			s.TaxableLoans += l.Amount
		}
	}
	s.Total = s.Earnings + s.TaxableLoans
	return s
}

// ComputeYTD is the bare total of Compute.
func ComputeYTD(technicianID string, year int, reports []models.Report, loans []models.Loan) money.Cents {
	return Compute(technicianID, year, reports, loans).Total
}

// CompanySummary is a team-lead's year-to-date rollup.
type CompanySummary struct {
	LeadID  string      `json:"lead_id"`
	Year    int         `json:"year"`
	Lead    Summary     `json:"lead"`
	Members []Summary   `json:"members"`
	Total   money.Cents `json:"total"`
}

// ComputeCompany adds the lead's YTD to the YTD of every user currently
// managed by the lead. Membership is read live from users.
func ComputeCompany(leadID string, year int, users []models.User, reports []models.Report, loans []models.Loan) CompanySummary {
	c := CompanySummary{LeadID: leadID, Year: year}
	c.Lead = Compute(leadID, year, reports, loans)
	c.Total = c.Lead.Total
	for _, u := range users {
		if u.ManagedBy != leadID || u.ID == leadID {
			continue
		}
		member := Compute(u.ID, year, reports, loans)
		c.Members = append(c.Members, member)
		c.Total += member.Total
	}
	return c
}
