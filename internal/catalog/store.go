package catalog

import (
	"context"
	"fmt"

	"github.com/fekuna/omnipos-menu-service/internal/apperr"
	categorydto "github.com/fekuna/omnipos-menu-service/internal/category/dto"
	dishdto "github.com/fekuna/omnipos-menu-service/internal/dish/dto"
	"github.com/fekuna/omnipos-menu-service/internal/model"
	"github.com/fekuna/omnipos-menu-service/internal/storage"
)

// DeletePolicy decides what deleting a category does to its dependants.
type DeletePolicy string

const (
	// DeleteOrphan removes the category and leaves dishes pointing at it.
	DeleteOrphan DeletePolicy = "orphan"
	// DeleteBlockWhenReferenced refuses while dishes or subcategories
	// reference the category.
	DeleteBlockWhenReferenced DeletePolicy = "block"
)

func ParseDeletePolicy(s string) (DeletePolicy, error) {
	switch p := DeletePolicy(s); p {
	case DeleteOrphan, DeleteBlockWhenReferenced:
		return p, nil
	case "":
		return DeleteOrphan, nil
	}
	return "", fmt.Errorf("%w: unknown delete policy %q", apperr.ErrInvalidInput, s)
}

type Snapshot struct {
	Categories []model.Category `json:"categories"`
	Dishes     []model.Dish     `json:"dishes"`
	IsLoading  bool             `json:"isLoading"`
}

// Store is the catalog state owner seen by the transport layer.
type Store interface {
	Init(ctx context.Context) error
	Dispose()
	Load(ctx context.Context) error
	SubscribeToChanges(ctx context.Context) error

	Snapshot() Snapshot
	Categories() []model.Category
	Dishes() []model.Dish
	IsLoading() bool
	Category(id string) (model.Category, bool)
	Dish(id string) (model.Dish, bool)
	VisibleCategories(parentID *string) []model.Category
	VisibleDishes(categoryID string) []model.Dish
	OnChange(fn func(Snapshot)) (unregister func())

	ToggleDishVisibility(ctx context.Context, id string) error
	ToggleCategoryVisibility(ctx context.Context, id string) error
	CreateDish(ctx context.Context, in dishdto.DishInput, image *storage.File) (*model.Dish, error)
	UpdateDish(ctx context.Context, id string, in dishdto.DishInput, image *storage.File) error
	DeleteDish(ctx context.Context, id string) error
	CreateCategory(ctx context.Context, in categorydto.CategoryInput, image *storage.File) (*model.Category, error)
	UpdateCategory(ctx context.Context, id string, in categorydto.CategoryInput, image *storage.File) error
	DeleteCategory(ctx context.Context, id string) error
}
