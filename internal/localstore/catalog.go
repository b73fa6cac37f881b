package localstore

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/fekuna/omnipos-menu-service/internal/apperr"
	"github.com/fekuna/omnipos-menu-service/internal/category"
	"github.com/fekuna/omnipos-menu-service/internal/dish"
	"github.com/fekuna/omnipos-menu-service/internal/model"
	"github.com/fekuna/omnipos-menu-service/internal/textutil"
)

type seedCategory struct {
	id, name, image string
}

var defaultCategories = []seedCategory{
	{"entrantes", "Entrantes", "https://images.unsplash.com/photo-1541529086526-db283c563270?q=80&w=800&auto=format&fit=crop"},
	{"arroces", "Arroces", "https://images.unsplash.com/photo-1596797038530-2c107229654b?q=80&w=800&auto=format&fit=crop"},
	{"pescados", "Pescados", "https://images.unsplash.com/photo-1519708227418-81988761aa1a?q=80&w=800&auto=format&fit=crop"},
	{"carnes", "Carnes", "https://images.unsplash.com/photo-1600891964092-4316c288032e?q=80&w=800&auto=format&fit=crop"},
	{"fuera_de_carta", "Fuera de Carta", "https://images.unsplash.com/photo-1559339352-11d035aa65de?q=80&w=800&auto=format&fit=crop"},
}

// DefaultCategories is the starter menu written on first open.
func DefaultCategories() []model.Category {
	out := make([]model.Category, 0, len(defaultCategories))
	for _, s := range defaultCategories {
		out = append(out, model.Category{
			BaseModel: model.BaseModel{ID: s.id},
			Name:      s.name,
			Slug:      textutil.Slugify(s.name),
			ImageURL:  model.StringPtr(s.image),
			IsVisible: true,
		})
	}
	return out
}

// CategoryRepository keeps every category in memory and rewrites the
// whole blob after each write. A failed rewrite leaves memory unchanged.
type CategoryRepository struct {
	mu    sync.Mutex
	blobs BlobStore
	node  *snowflake.Node
	now   func() time.Time
	rows  []model.Category
}

var _ category.Repository = (*CategoryRepository)(nil)

func OpenCategoryRepository(ctx context.Context, blobs BlobStore, node *snowflake.Node) (*CategoryRepository, error) {
	r := &CategoryRepository{blobs: blobs, node: node, now: time.Now}

	var stored []storedCategory
	found, err := readBlob(ctx, blobs, KeyCategories, &stored)
	if err != nil {
		return nil, err
	}
	if !found {
		r.rows = DefaultCategories()
		if err := r.save(ctx, r.rows); err != nil {
			return nil, err
		}
		return r, nil
	}
	for _, s := range stored {
		c := s.model()
		if c.Slug == "" {
			c.Slug = textutil.Slugify(c.Name)
		}
		r.rows = append(r.rows, c)
	}
	return r, nil
}

func (r *CategoryRepository) FindAll(context.Context) ([]model.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Category, len(r.rows))
	for i, c := range r.rows {
		out[i] = c.Clone()
	}
	textutil.SortByName(out, func(c model.Category) string { return c.Name })
	return out, nil
}

func (r *CategoryRepository) Create(ctx context.Context, c *model.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	c.ID = r.node.Generate().String()
	c.CreatedAt = now
	c.UpdatedAt = now
	return r.commit(ctx, append(slices.Clone(r.rows), c.Clone()))
}

func (r *CategoryRepository) Update(ctx context.Context, c *model.Category) error {
	return r.modify(ctx, c.ID, func(row *model.Category) {
		created := row.CreatedAt
		*row = c.Clone()
		row.CreatedAt = created
	})
}

func (r *CategoryRepository) SetVisibility(ctx context.Context, id string, visible bool) error {
	return r.modify(ctx, id, func(row *model.Category) { row.IsVisible = visible })
}

func (r *CategoryRepository) SetImageURL(ctx context.Context, id string, url string) error {
	return r.modify(ctx, id, func(row *model.Category) { row.ImageURL = model.StringPtr(url) })
}

func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := slices.DeleteFunc(slices.Clone(r.rows), func(c model.Category) bool { return c.ID == id })
	return r.commit(ctx, rows)
}

func (r *CategoryRepository) modify(ctx context.Context, id string, fn func(*model.Category)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := slices.IndexFunc(r.rows, func(c model.Category) bool { return c.ID == id })
	if i < 0 {
		return apperr.ErrNotFound
	}
	rows := slices.Clone(r.rows)
	row := rows[i].Clone()
	fn(&row)
	row.UpdatedAt = r.now()
	rows[i] = row
	return r.commit(ctx, rows)
}

func (r *CategoryRepository) commit(ctx context.Context, rows []model.Category) error {
	if err := r.save(ctx, rows); err != nil {
		return err
	}
	r.rows = rows
	return nil
}

func (r *CategoryRepository) save(ctx context.Context, rows []model.Category) error {
	stored := make([]storedCategory, len(rows))
	for i, c := range rows {
		stored[i] = fromCategory(c)
	}
	return writeBlob(ctx, r.blobs, KeyCategories, stored)
}

// DishRepository is the dish counterpart of CategoryRepository. A missing
// blob starts an empty menu.
type DishRepository struct {
	mu    sync.Mutex
	blobs BlobStore
	node  *snowflake.Node
	now   func() time.Time
	rows  []model.Dish
}

var _ dish.Repository = (*DishRepository)(nil)

func OpenDishRepository(ctx context.Context, blobs BlobStore, node *snowflake.Node) (*DishRepository, error) {
	r := &DishRepository{blobs: blobs, node: node, now: time.Now}

	var stored []storedDish
	found, err := readBlob(ctx, blobs, KeyMenu, &stored)
	if err != nil {
		return nil, err
	}
	if !found {
		r.rows = []model.Dish{}
		if err := r.save(ctx, r.rows); err != nil {
			return nil, err
		}
		return r, nil
	}
	for _, s := range stored {
		r.rows = append(r.rows, s.model())
	}
	return r, nil
}

func (r *DishRepository) FindAll(context.Context) ([]model.Dish, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Dish, len(r.rows))
	for i, d := range r.rows {
		out[i] = d.Clone()
	}
	textutil.SortByName(out, func(d model.Dish) string { return d.Name })
	return out, nil
}

func (r *DishRepository) Create(ctx context.Context, d *model.Dish) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	d.ID = r.node.Generate().String()
	d.CreatedAt = now
	d.UpdatedAt = now
	return r.commit(ctx, append(slices.Clone(r.rows), d.Clone()))
}

func (r *DishRepository) Update(ctx context.Context, d *model.Dish) error {
	return r.modify(ctx, d.ID, func(row *model.Dish) {
		created := row.CreatedAt
		*row = d.Clone()
		row.CreatedAt = created
	})
}

func (r *DishRepository) SetVisibility(ctx context.Context, id string, visible bool) error {
	return r.modify(ctx, id, func(row *model.Dish) { row.IsVisible = visible })
}

func (r *DishRepository) SetImageURL(ctx context.Context, id string, url string) error {
	return r.modify(ctx, id, func(row *model.Dish) { row.ImageURL = model.StringPtr(url) })
}

func (r *DishRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := slices.DeleteFunc(slices.Clone(r.rows), func(d model.Dish) bool { return d.ID == id })
	return r.commit(ctx, rows)
}

func (r *DishRepository) modify(ctx context.Context, id string, fn func(*model.Dish)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := slices.IndexFunc(r.rows, func(d model.Dish) bool { return d.ID == id })
	if i < 0 {
		return apperr.ErrNotFound
	}
	rows := slices.Clone(r.rows)
	row := rows[i].Clone()
	fn(&row)
	row.UpdatedAt = r.now()
	rows[i] = row
	return r.commit(ctx, rows)
}

func (r *DishRepository) commit(ctx context.Context, rows []model.Dish) error {
	if err := r.save(ctx, rows); err != nil {
		return err
	}
	r.rows = rows
	return nil
}

func (r *DishRepository) save(ctx context.Context, rows []model.Dish) error {
	stored := make([]storedDish, len(rows))
	for i, d := range rows {
		stored[i] = fromDish(d)
	}
	return writeBlob(ctx, r.blobs, KeyMenu, stored)
}
