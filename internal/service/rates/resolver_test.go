package rates

import (
	"errors"
	"testing"

	"github.com/mamadbah2/fieldpay/internal/domain/models"
	"github.com/mamadbah2/fieldpay/internal/domain/money"
)

func fixture() ([]models.User, []models.RateCategory) {
	categories := []models.RateCategory{
		{ID: "standard", Name: "Standard", Rates: []models.TaskRate{{TaskCode: "INSTALL", Rate: 6000}, {TaskCode: "REPAIR", Rate: 3500}}},
		{ID: "lead", Name: "Lead", Rates: []models.TaskRate{{TaskCode: "INSTALL", Rate: 10000}, {TaskCode: "SURVEY", Rate: 2000}}},
	}
	users := []models.User{
		{ID: "lead-1", Name: "Lena", Role: models.RoleTeamLead, RateCategoryID: "lead"},
		{ID: "tech-1", Name: "Tom", Role: models.RoleWorker, RateCategoryID: "standard", ManagedBy: "lead-1"},
		{ID: "tech-2", Name: "Tia", Role: models.RoleWorker, ManagedBy: "lead-1"},
		{ID: "tech-3", Name: "Theo", Role: models.RoleWorker},
		{ID: "tech-4", Name: "Tess", Role: models.RoleWorker, RateCategoryID: "ghost"},
		{ID: "tech-5", Name: "Toby", Role: models.RoleWorker, RateCategoryID: "standard",
			PayoutOverrides: []models.TaskRate{{TaskCode: "install", Rate: 7000}}},
	}
	return users, categories
}

func TestResolvePrecedence(t *testing.T) {
	users, categories := fixture()
	r := NewResolver(users, categories)

	tests := []struct {
		name       string
		job        models.Job
		userID     string
		wantRate   money.Cents
		wantSource models.RateSource
		wantWarn   models.WarningKind
	}{
		{"category rate", models.Job{TaskCode: "INSTALL"}, "tech-1", 6000, models.RateSourceCategory, ""},
		{"job override beats everything", models.Job{TaskCode: "INSTALL", RateOverride: money.Ptr(1234)}, "tech-5", 1234, models.RateSourceJobOverride, ""},
		{"explicit zero override pins zero", models.Job{TaskCode: "INSTALL", RateOverride: money.Ptr(0)}, "tech-1", 0, models.RateSourceJobOverride, ""},
		{"payout override beats category", models.Job{TaskCode: "INSTALL"}, "tech-5", 7000, models.RateSourcePayoutOverride, ""},
		{"payout override only for its task", models.Job{TaskCode: "REPAIR"}, "tech-5", 3500, models.RateSourceCategory, ""},
		{"lead category fallback", models.Job{TaskCode: "SURVEY"}, "tech-2", 2000, models.RateSourceLeadCategory, ""},
		{"no category no lead", models.Job{TaskCode: "INSTALL"}, "tech-3", 0, models.RateSourceNone, models.WarningMissingCategory},
		{"unknown category reference", models.Job{TaskCode: "INSTALL"}, "tech-4", 0, models.RateSourceNone, models.WarningMissingCategory},
		{"own category without task does not fall back to lead", models.Job{TaskCode: "SURVEY"}, "tech-1", 0, models.RateSourceNone, models.WarningMissingRate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, ok := r.User(tt.userID)
			if !ok {
				t.Fatalf("fixture user %s missing", tt.userID)
			}
			got := r.Resolve(tt.job, user)
			if got.Rate != tt.wantRate {
				t.Fatalf("rate = %d, want %d", got.Rate, tt.wantRate)
			}
			if got.Source != tt.wantSource {
				t.Fatalf("source = %s, want %s", got.Source, tt.wantSource)
			}
			switch {
			case tt.wantWarn == "" && got.Warning != nil:
				t.Fatalf("unexpected warning %+v", got.Warning)
			case tt.wantWarn != "" && (got.Warning == nil || got.Warning.Kind != tt.wantWarn):
				t.Fatalf("warning = %+v, want kind %s", got.Warning, tt.wantWarn)
			}
		})
	}
}

func TestResolveRateMatchesCategoryForEveryTask(t *testing.T) {
	users, categories := fixture()
	tech := users[1]
	for _, rate := range categories[0].Rates {
		got := ResolveRate(models.Job{TaskCode: rate.TaskCode}, tech, users, categories)
		if got != rate.Rate {
			t.Fatalf("task %s: rate = %d, want %d", rate.TaskCode, got, rate.Rate)
		}
	}
}

func TestDeleteCategory(t *testing.T) {
	users, categories := fixture()

	if _, err := DeleteCategory(categories, users, "standard"); !errors.Is(err, ErrCategoryInUse) {
		t.Fatalf("expected ErrCategoryInUse, got %v", err)
	}
	if len(categories) != 2 {
		t.Fatalf("input must not be mutated")
	}

	if _, err := DeleteCategory(categories, users, "missing"); !errors.Is(err, ErrCategoryNotFound) {
		t.Fatalf("expected ErrCategoryNotFound, got %v", err)
	}

	free := append([]models.RateCategory{}, categories...)
	free = append(free, models.RateCategory{ID: "unused", Name: "Unused"})
	out, err := DeleteCategory(free, users, "unused")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 categories left, got %d", len(out))
	}
}
