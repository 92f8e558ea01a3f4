package rates

import (
	"fmt"

	"github.com/mamadbah2/fieldpay/internal/domain/models"
	"github.com/mamadbah2/fieldpay/internal/domain/money"
)

// Resolution is the outcome of resolving one job's rate.
type Resolution struct {
	Rate    money.Cents
	Source  models.RateSource
	Warning *models.Warning
}

// Resolver evaluates the rate precedence chain over a snapshot of users and
// rate categories. It holds no mutable state after construction.
type Resolver struct {
	users      map[string]models.User
	categories map[string]models.RateCategory
}

// NewResolver indexes the supplied collections.
func NewResolver(users []models.User, categories []models.RateCategory) *Resolver {
	r := &Resolver{
		users:      make(map[string]models.User, len(users)),
		categories: make(map[string]models.RateCategory, len(categories)),
	}
	for _, u := range users {
		r.users[u.ID] = u
	}
	for _, c := range categories {
		r.categories[c.ID] = c
	}
	return r
}

// ResolveRate is the stateless form of Resolver.Resolve.
func ResolveRate(job models.Job, user models.User, users []models.User, categories []models.RateCategory) money.Cents {
	return NewResolver(users, categories).Resolve(job, user).Rate
}

// User looks up a user by id.
func (r *Resolver) User(id string) (models.User, bool) {
	u, ok := r.users[id]
	return u, ok
}

// Category looks up a rate category by id.
func (r *Resolver) Category(id string) (models.RateCategory, bool) {
	if id == "" {
		return models.RateCategory{}, false
	}
	c, ok := r.categories[id]
	return c, ok
}

// CategoryRate returns the rate of taskCode in the given category.
func (r *Resolver) CategoryRate(categoryID, taskCode string) (money.Cents, bool) {
	c, ok := r.Category(categoryID)
	if !ok {
		return 0, false
	}
	return c.Rate(taskCode)
}

// EffectiveCategory returns the category that prices the user's work: their
// own when assigned, otherwise their team-lead's.
func (r *Resolver) EffectiveCategory(user models.User) (models.RateCategory, models.RateSource, bool) {
	if user.RateCategoryID != "" {
		c, ok := r.Category(user.RateCategoryID)
		return c, models.RateSourceCategory, ok
	}
	if lead, ok := r.users[user.ManagedBy]; ok && user.ManagedBy != "" {
		if c, ok := r.Category(lead.RateCategoryID); ok {
			return c, models.RateSourceLeadCategory, true
		}
	}
	return models.RateCategory{}, models.RateSourceNone, false
}

// Resolve returns the single effective rate for a job performed by user:
//  1. the job's own override
//  2. the user's persistent payout override for the task code
//  3. the user's rate category
//  4. the team-lead's rate category when the user has none
//  5. zero, with a warning
func (r *Resolver) Resolve(job models.Job, user models.User) Resolution {
	if job.RateOverride != nil {
		return Resolution{Rate: *job.RateOverride, Source: models.RateSourceJobOverride}
	}
	if rate, ok := user.PayoutOverride(job.TaskCode); ok {
		return Resolution{Rate: rate, Source: models.RateSourcePayoutOverride}
	}

	category, source, ok := r.EffectiveCategory(user)
	if !ok {
		return Resolution{Source: models.RateSourceNone, Warning: &models.Warning{
			Kind:     models.WarningMissingCategory,
			Message:  missingCategoryMessage(user),
			JobID:    job.ID,
			UserID:   user.ID,
			TaskCode: job.TaskCode,
		}}
	}

	if rate, ok := category.Rate(job.TaskCode); ok {
		return Resolution{Rate: rate, Source: source}
	}

	return Resolution{Source: models.RateSourceNone, Warning: &models.Warning{
		Kind:     models.WarningMissingRate,
		Message:  fmt.Sprintf("rate category %q has no rate for task %q", category.Name, job.TaskCode),
		JobID:    job.ID,
		UserID:   user.ID,
		TaskCode: job.TaskCode,
	}}
}

func missingCategoryMessage(user models.User) string {
	if user.RateCategoryID != "" {
		return fmt.Sprintf("%s references unknown rate category %q", user.DisplayName(), user.RateCategoryID)
	}
	return fmt.Sprintf("%s has no rate category assigned", user.DisplayName())
}
