package dish

import (
	"context"

	"github.com/fekuna/omnipos-menu-service/internal/model"
)

// Repository is the dishes collection of the backend. Create assigns ID
// and timestamps on d.
type Repository interface {
	FindAll(ctx context.Context) ([]model.Dish, error)
	Create(ctx context.Context, d *model.Dish) error
	Update(ctx context.Context, d *model.Dish) error
	SetVisibility(ctx context.Context, id string, visible bool) error
	SetImageURL(ctx context.Context, id string, url string) error
	Delete(ctx context.Context, id string) error
}
