package rates

import (
	"fmt"

	"github.com/mamadbah2/fieldpay/internal/domain/models"
)

// Category sentinels live in models so the stores can return them too.
var (
	ErrCategoryInUse    = models.ErrCategoryInUse
	ErrCategoryNotFound = models.ErrCategoryNotFound
)

// DeleteCategory returns categories without the one identified by id. The
// input is never modified.
func DeleteCategory(categories []models.RateCategory, users []models.User, id string) ([]models.RateCategory, error) {
	var assigned []string
	for _, u := range users {
		if u.RateCategoryID == id {
			assigned = append(assigned, u.DisplayName())
		}
	}
	if len(assigned) > 0 {
		return nil, fmt.Errorf("%w: %d user(s) including %s", ErrCategoryInUse, len(assigned), assigned[0])
	}

	out := make([]models.RateCategory, 0, len(categories))
	found := false
	for _, c := range categories {
		if c.ID == id {
			found = true
			continue
		}
		out = append(out, c)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrCategoryNotFound, id)
	}
	return out, nil
}
