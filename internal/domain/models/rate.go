package models

import (
	"errors"
	"strings"

	"github.com/mamadbah2/fieldpay/internal/domain/money"
)

var (
	// ErrCategoryInUse blocks deleting a category still assigned to a user.
	ErrCategoryInUse = errors.New("rate category is still assigned")
	// ErrCategoryNotFound indicates the category id is unknown.
	ErrCategoryNotFound = errors.New("rate category not found")
)

// RateSource tags which link of the precedence chain produced a rate.
type RateSource string

const (
	RateSourceJobOverride    RateSource = "job-override"
	RateSourcePayoutOverride RateSource = "payout-override"
	RateSourceCategory       RateSource = "category"
	RateSourceLeadCategory   RateSource = "lead-category"
	RateSourceNone           RateSource = "none"
)

// TaskRate pairs a task code with a pay rate.
type TaskRate struct {
	TaskCode string      `bson:"task_code" json:"task_code"`
	Rate     money.Cents `bson:"rate" json:"rate"`
}

// RateCategory is a named price list assignable to users.
type RateCategory struct {
	ID    string     `bson:"_id" json:"id"`
	Name  string     `bson:"name" json:"name"`
	Rates []TaskRate `bson:"rates" json:"rates"`
}

// Rate looks up the rate for a task code.
func (c RateCategory) Rate(taskCode string) (money.Cents, bool) {
	return lookupRate(c.Rates, taskCode)
}

// NormalizeTaskCode is the canonical form used to compare task codes.
func NormalizeTaskCode(code string) string {
	return strings.ToUpper(strings.Join(strings.Fields(code), " "))
}

func lookupRate(rates []TaskRate, taskCode string) (money.Cents, bool) {
	want := NormalizeTaskCode(taskCode)
	if want == "" {
		return 0, false
	}
	for _, r := range rates {
		if NormalizeTaskCode(r.TaskCode) == want {
			return r.Rate, true
		}
	}
	return 0, false
}
