package models

import "github.com/mamadbah2/fieldpay/internal/domain/money"

// Role enumerates the user roles known to payroll.
type Role string

const (
	RoleWorker        Role = "worker"
	RoleTeamLead      Role = "team-lead"
	RoleSupervisor    Role = "supervisor"
	RoleAdministrator Role = "administrator"
)

// DefaultProfitSharePercent applies to team-leads without an explicit share.
const DefaultProfitSharePercent = 50

// User is an employee as seen by payroll.
type User struct {
	ID                 string     `bson:"_id" json:"id"`
	Name               string     `bson:"name" json:"name"`
	Role               Role       `bson:"role" json:"role"`
	Phone              string     `bson:"phone,omitempty" json:"phone,omitempty"`
	RateCategoryID     string     `bson:"rate_category_id,omitempty" json:"rate_category_id,omitempty"`
	ManagedBy          string     `bson:"managed_by,omitempty" json:"managed_by,omitempty"`
	PayoutOverrides    []TaskRate `bson:"payout_overrides,omitempty" json:"payout_overrides,omitempty"`
	ProfitSharePercent *float64   `bson:"profit_share_percent,omitempty" json:"profit_share_percent,omitempty"`
}

// IsTeamLead reports whether the user earns profit share on a team.
func (u User) IsTeamLead() bool {
	return u.Role == RoleTeamLead
}

// PayoutOverride returns the persistent per-task override, if any.
func (u User) PayoutOverride(taskCode string) (money.Cents, bool) {
	return lookupRate(u.PayoutOverrides, taskCode)
}

// ProfitShare returns the user's share percentage, falling back to def when unset.
func (u User) ProfitShare(def float64) float64 {
	if u.ProfitSharePercent != nil {
		return *u.ProfitSharePercent
	}
	return def
}

// DisplayName falls back to the id for users without a name.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.ID
}
