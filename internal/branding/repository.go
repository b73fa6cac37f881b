package branding

import (
	"context"

	"github.com/fekuna/omnipos-menu-service/internal/model"
)

// Column names accepted in an Update patch.
const (
	ColumnRestaurantName = "restaurant_name"
	ColumnShowName       = "show_name"
	ColumnLogoURL        = "logo_url"
	ColumnThemeID        = "theme_id"
	ColumnSubtitle       = "subtitle"
)

// Repository is the singleton config collection. Get reports
// apperr.ErrNotFound while no row exists.
type Repository interface {
	Get(ctx context.Context) (*model.BrandingConfig, error)
	Insert(ctx context.Context, cfg *model.BrandingConfig) (string, error)
	Update(ctx context.Context, id string, patch map[string]any) error
}
