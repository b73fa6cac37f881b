package category

import (
	"context"

	"github.com/fekuna/omnipos-menu-service/internal/model"
)

// Repository is the categories collection of the backend. Create assigns
// ID and timestamps on c. Writes against a missing id report apperr.ErrNotFound.
type Repository interface {
	FindAll(ctx context.Context) ([]model.Category, error)
	Create(ctx context.Context, c *model.Category) error
	Update(ctx context.Context, c *model.Category) error
	SetVisibility(ctx context.Context, id string, visible bool) error
	SetImageURL(ctx context.Context, id string, url string) error
	Delete(ctx context.Context, id string) error
}
