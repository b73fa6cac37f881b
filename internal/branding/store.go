package branding

import (
	"context"
	"fmt"

	"github.com/fekuna/omnipos-menu-service/internal/apperr"
	"github.com/fekuna/omnipos-menu-service/internal/model"
	"github.com/fekuna/omnipos-menu-service/internal/storage"
	"github.com/fekuna/omnipos-menu-service/internal/theme"
)

// Field names one editable branding attribute.
type Field string

const (
	FieldRestaurantName Field = "restaurantName"
	FieldShowName       Field = "showName"
	FieldLogoURL        Field = "logoUrl"
	FieldThemeID        Field = "themeId"
	FieldSubtitle       Field = "subtitle"
)

var fieldColumns = map[Field]string{
	FieldRestaurantName: ColumnRestaurantName,
	FieldShowName:       ColumnShowName,
	FieldLogoURL:        ColumnLogoURL,
	FieldThemeID:        ColumnThemeID,
	FieldSubtitle:       ColumnSubtitle,
}

// Fields lists every editable field in display order.
func Fields() []Field {
	return []Field{FieldRestaurantName, FieldShowName, FieldLogoURL, FieldThemeID, FieldSubtitle}
}

func ParseField(s string) (Field, error) {
	f := Field(s)
	if _, ok := fieldColumns[f]; !ok {
		return "", fmt.Errorf("%w: unknown branding field %q", apperr.ErrInvalidInput, s)
	}
	return f, nil
}

func (f Field) Column() string {
	return fieldColumns[f]
}

// FieldState tracks an optimistic edit of one field.
type FieldState string

const (
	FieldConfirmed   FieldState = "confirmed"
	FieldPending     FieldState = "pending-write"
	FieldWriteFailed FieldState = "write-failed"
)

type Snapshot struct {
	Config    model.BrandingConfig `json:"config"`
	Theme     theme.Theme          `json:"theme"`
	IsLoading bool                 `json:"isLoading"`
	Fields    map[Field]FieldState `json:"fields"`
}

// Title is the document title for the current branding.
func (s Snapshot) Title() string {
	return s.Config.RestaurantName
}

func DefaultConfig() model.BrandingConfig {
	return model.BrandingConfig{
		RestaurantName: "A Chabola",
		ShowName:       true,
		LogoURL:        model.StringPtr("/achabola.png"),
		ThemeID:        theme.Default().ID,
		Subtitle:       "",
	}
}

// Store is the branding state owner seen by the transport layer.
type Store interface {
	Init(ctx context.Context) error
	Dispose()
	Snapshot() Snapshot
	Load(ctx context.Context) error
	SubscribeToChanges(ctx context.Context) error
	Update(ctx context.Context, field Field, value any) error
	UploadLogo(ctx context.Context, file storage.File) (string, error)
	ResetToDefaults(ctx context.Context) error
	OnChange(fn func(Snapshot)) (unregister func())
}
