package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/fekuna/omnipos-menu-service/internal/apperr"
	"github.com/fekuna/omnipos-menu-service/internal/auth"
	"github.com/fekuna/omnipos-menu-service/internal/catalog"
	categorydto "github.com/fekuna/omnipos-menu-service/internal/category/dto"
	dishdto "github.com/fekuna/omnipos-menu-service/internal/dish/dto"
	"github.com/fekuna/omnipos-menu-service/internal/model"
	"github.com/fekuna/omnipos-menu-service/internal/notice"
	"github.com/fekuna/omnipos-menu-service/internal/realtime"
	"github.com/fekuna/omnipos-menu-service/internal/storage"
	"github.com/fekuna/omnipos-menu-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCategories struct {
	mu       sync.Mutex
	rows     map[string]model.Category
	seq      int
	findErr  error
	writeErr error
}

func newFakeCategories(rows ...model.Category) *fakeCategories {
	f := &fakeCategories{rows: map[string]model.Category{}}
	for _, c := range rows {
		f.rows[c.ID] = c
	}
	return f
}

func (f *fakeCategories) FindAll(context.Context) ([]model.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	out := make([]model.Category, 0, len(f.rows))
	for _, c := range f.rows {
		out = append(out, c.Clone())
	}
	return out, nil
}

func (f *fakeCategories) Create(_ context.Context, c *model.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.seq++
	c.ID = fmt.Sprintf("cat-%d", f.seq)
	f.rows[c.ID] = c.Clone()
	return nil
}

func (f *fakeCategories) Update(_ context.Context, c *model.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	if _, ok := f.rows[c.ID]; !ok {
		return apperr.ErrNotFound
	}
	f.rows[c.ID] = c.Clone()
	return nil
}

func (f *fakeCategories) SetVisibility(_ context.Context, id string, visible bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	c, ok := f.rows[id]
	if !ok {
		return apperr.ErrNotFound
	}
	c.IsVisible = visible
	f.rows[id] = c
	return nil
}

func (f *fakeCategories) SetImageURL(_ context.Context, id string, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.rows[id]
	if !ok {
		return apperr.ErrNotFound
	}
	c.ImageURL = model.StringPtr(url)
	f.rows[id] = c
	return nil
}

func (f *fakeCategories) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	delete(f.rows, id)
	return nil
}

type fakeDishes struct {
	mu       sync.Mutex
	rows     map[string]model.Dish
	seq      int
	findErr  error
	writeErr error
	updates  int
}

func newFakeDishes(rows ...model.Dish) *fakeDishes {
	f := &fakeDishes{rows: map[string]model.Dish{}}
	for _, d := range rows {
		f.rows[d.ID] = d
	}
	return f
}

func (f *fakeDishes) FindAll(context.Context) ([]model.Dish, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	out := make([]model.Dish, 0, len(f.rows))
	for _, d := range f.rows {
		out = append(out, d.Clone())
	}
	return out, nil
}

func (f *fakeDishes) Create(_ context.Context, d *model.Dish) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.seq++
	d.ID = fmt.Sprintf("dish-%d", f.seq)
	f.rows[d.ID] = d.Clone()
	return nil
}

func (f *fakeDishes) Update(_ context.Context, d *model.Dish) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	if _, ok := f.rows[d.ID]; !ok {
		return apperr.ErrNotFound
	}
	f.updates++
	f.rows[d.ID] = d.Clone()
	return nil
}

func (f *fakeDishes) SetVisibility(_ context.Context, id string, visible bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	d, ok := f.rows[id]
	if !ok {
		return apperr.ErrNotFound
	}
	d.IsVisible = visible
	f.rows[id] = d
	return nil
}

func (f *fakeDishes) SetImageURL(_ context.Context, id string, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.rows[id]
	if !ok {
		return apperr.ErrNotFound
	}
	d.ImageURL = model.StringPtr(url)
	f.rows[id] = d
	return nil
}

func (f *fakeDishes) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	delete(f.rows, id)
	return nil
}

type fakeUploader struct {
	paths []string
	err   error
}

func (u *fakeUploader) Upload(_ context.Context, _ storage.File, logicalPath, bucket string) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	u.paths = append(u.paths, logicalPath)
	return "https://cdn.test/" + bucket + "/" + logicalPath, nil
}

type fixture struct {
	store *CatalogStore
	cats  *fakeCategories
	dish  *fakeDishes
	up    *fakeUploader
	hub   *realtime.Hub
	rec   *notice.Recorder
}

func newFixture(t *testing.T, cats *fakeCategories, dishes *fakeDishes, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		cats: cats,
		dish: dishes,
		up:   &fakeUploader{},
		hub:  realtime.NewHub(),
		rec:  notice.NewRecorder(20),
	}
	f.store = NewCatalogStore(cats, dishes, f.hub, f.up, f.rec, logger.NewNop(), opts...)
	require.NoError(t, f.store.Init(context.Background()))
	t.Cleanup(f.store.Dispose)
	return f
}

func adminCtx() context.Context {
	return auth.WithWriteAuthorized(context.Background())
}

func seededCategories() *fakeCategories {
	return newFakeCategories(
		model.Category{BaseModel: model.BaseModel{ID: "c-arroces"}, Name: "Arroces", Slug: "arroces", IsVisible: true},
		model.Category{BaseModel: model.BaseModel{ID: "c-entrantes"}, Name: "Entrantes", Slug: "entrantes", IsVisible: true},
		model.Category{BaseModel: model.BaseModel{ID: "c-hidden"}, Name: "Fuera de Carta", Slug: "fuera-de-carta", IsVisible: false},
	)
}

func seededDishes() *fakeDishes {
	return newFakeDishes(
		model.Dish{BaseModel: model.BaseModel{ID: "d-pulpo"}, Name: "Pulpo", CategoryID: "c-entrantes", Price: 16, IsVisible: true, ImageURL: model.StringPtr("https://cdn.test/old.jpg")},
		model.Dish{BaseModel: model.BaseModel{ID: "d-croquetas"}, Name: "Croquetas", CategoryID: "c-entrantes", Price: 9, IsVisible: true},
		model.Dish{BaseModel: model.BaseModel{ID: "d-secret"}, Name: "Secreto", CategoryID: "c-hidden", Price: 20, IsVisible: true},
	)
}

func TestLoadOrdersByName(t *testing.T) {
	f := newFixture(t, seededCategories(), seededDishes())

	snap := f.store.Snapshot()
	assert.False(t, snap.IsLoading)
	require.Len(t, snap.Categories, 3)
	assert.Equal(t, []string{"Arroces", "Entrantes", "Fuera de Carta"},
		[]string{snap.Categories[0].Name, snap.Categories[1].Name, snap.Categories[2].Name})
	assert.Equal(t, "Croquetas", snap.Dishes[0].Name)
}

func TestLoadIsIdempotent(t *testing.T) {
	f := newFixture(t, seededCategories(), seededDishes())

	require.NoError(t, f.store.Load(context.Background()))
	first := f.store.Snapshot()
	require.NoError(t, f.store.Load(context.Background()))

	assert.Equal(t, first, f.store.Snapshot())
}

func TestLoadPartialFailureKeepsCache(t *testing.T) {
	f := newFixture(t, seededCategories(), seededDishes())
	before := f.store.Snapshot()

	f.cats.mu.Lock()
	f.cats.rows["c-new"] = model.Category{BaseModel: model.BaseModel{ID: "c-new"}, Name: "Nueva", IsVisible: true}
	f.cats.mu.Unlock()
	f.dish.findErr = errors.New("timeout")

	err := f.store.Load(context.Background())

	var fetchErr *apperr.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, realtime.CollectionDishes, fetchErr.Collection)
	assert.Equal(t, before, f.store.Snapshot())
}

func TestReadsReturnCopies(t *testing.T) {
	f := newFixture(t, seededCategories(), seededDishes())

	dishes := f.store.Dishes()
	dishes[0].Name = "mutated"
	*dishes[1].ImageURL = "mutated"

	d, ok := f.store.Dish("d-pulpo")
	require.True(t, ok)
	assert.Equal(t, "https://cdn.test/old.jpg", *d.ImageURL)
	assert.Equal(t, "Croquetas", f.store.Dishes()[0].Name)
}

func TestVisibleBrowsePath(t *testing.T) {
	cats := seededCategories()
	cats.rows["c-sub"] = model.Category{BaseModel: model.BaseModel{ID: "c-sub"}, Name: "Mariscos", ParentID: model.StringPtr("c-hidden"), IsVisible: true}
	dishes := seededDishes()
	dishes.rows["d-gamba"] = model.Dish{BaseModel: model.BaseModel{ID: "d-gamba"}, Name: "Gambas", CategoryID: "c-sub", IsVisible: true}
	dishes.rows["d-off"] = model.Dish{BaseModel: model.BaseModel{ID: "d-off"}, Name: "Oculto", CategoryID: "c-entrantes", IsVisible: false}
	f := newFixture(t, cats, dishes)

	top := f.store.VisibleCategories(nil)
	require.Len(t, top, 2)
	assert.Equal(t, "Arroces", top[0].Name)

	entrantes := f.store.VisibleDishes("c-entrantes")
	require.Len(t, entrantes, 2)
	assert.Equal(t, "Croquetas", entrantes[0].Name)

	assert.Empty(t, f.store.VisibleDishes("c-hidden"))
	assert.Empty(t, f.store.VisibleDishes("c-sub"), "hidden ancestor hides subcategory dishes")
	assert.Empty(t, f.store.VisibleCategories(model.StringPtr("c-hidden")))
}

func TestToggleDishVisibilityTwiceRestores(t *testing.T) {
	f := newFixture(t, seededCategories(), seededDishes())

	require.NoError(t, f.store.ToggleDishVisibility(adminCtx(), "d-pulpo"))
	d, _ := f.store.Dish("d-pulpo")
	assert.False(t, d.IsVisible)

	require.NoError(t, f.store.ToggleDishVisibility(adminCtx(), "d-pulpo"))
	d, _ = f.store.Dish("d-pulpo")
	assert.True(t, d.IsVisible)
}

func TestToggleCategoryVisibility(t *testing.T) {
	f := newFixture(t, seededCategories(), seededDishes())

	require.NoError(t, f.store.ToggleCategoryVisibility(adminCtx(), "c-hidden"))

	c, _ := f.store.Category("c-hidden")
	assert.True(t, c.IsVisible)
	assert.Len(t, f.store.VisibleDishes("c-hidden"), 1)
}

func TestToggleUnknownIDIsNoop(t *testing.T) {
	f := newFixture(t, seededCategories(), seededDishes())
	before := f.store.Snapshot()

	err := f.store.ToggleDishVisibility(adminCtx(), "missing")

	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, before, f.store.Snapshot())
	assert.Empty(t, f.rec.Recent(0))
}

func TestCreateDishCoercesFormInput(t *testing.T) {
	f := newFixture(t, seededCategories(), seededDishes())

	d, err := f.store.CreateDish(adminCtx(), dishdto.DishInput{
		Name:       "Paella",
		CategoryID: "c-arroces",
		Price:      "18.50",
		Allergens:  "Gluten, Marisco",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 18.5, d.Price)
	assert.Equal(t, []string{"Gluten", "Marisco"}, []string(d.Allergens))
	assert.True(t, d.IsVisible)
	assert.Nil(t, d.ImageURL)

	cached, ok := f.store.Dish(d.ID)
	require.True(t, ok)
	assert.Equal(t, "Paella", cached.Name)
}

func TestCreateDishWithImage(t *testing.T) {
	f := newFixture(t, seededCategories(), seededDishes())

	d, err := f.store.CreateDish(adminCtx(), dishdto.DishInput{
		Name: "Arroz negro", CategoryID: "c-arroces", Price: "17", ImagePosition: "30% 120%",
	}, &storage.File{Name: "negro.jpg", Data: []byte("jpg")})
	require.NoError(t, err)

	assert.Equal(t, []string{"dishes/" + d.ID + "/negro.jpg"}, f.up.paths)
	require.NotNil(t, d.ImageURL)
	assert.Equal(t, "https://cdn.test/menu-assets/dishes/"+d.ID+"/negro.jpg", *d.ImageURL)
	require.NotNil(t, d.ImagePosition)
	assert.Equal(t, "30% 100%", *d.ImagePosition)
}

func TestCreateDishUploadFailureKeepsRecord(t *testing.T) {
	f := newFixture(t, seededCategories(), seededDishes())
	f.up.err = &apperr.UploadError{Path: "dishes/x", Detail: "bucket not found"}

	d, err := f.store.CreateDish(adminCtx(), dishdto.DishInput{Name: "Fideuá", CategoryID: "c-arroces", Price: "15"},
		&storage.File{Name: "f.jpg"})

	var upErr *apperr.UploadError
	require.True(t, errors.As(err, &upErr))
	require.NotNil(t, d)
	cached, ok := f.store.Dish(d.ID)
	require.True(t, ok, "insert is not rolled back")
	assert.Nil(t, cached.ImageURL)
	require.Len(t, f.rec.Recent(0), 1)
	assert.Equal(t, "bucket not found", f.rec.Recent(0)[0].Detail)
}

func TestCreateDishRejectsBadInput(t *testing.T) {
	f := newFixture(t, seededCategories(), seededDishes())

	cases := map[string]dishdto.DishInput{
		"missing name":   {CategoryID: "c-arroces", Price: "1"},
		"price text":     {Name: "x", CategoryID: "c-arroces", Price: "cheap"},
		"negative price": {Name: "x", CategoryID: "c-arroces", Price: "-1"},
		"hex price":      {Name: "x", CategoryID: "c-arroces", Price: "0x1p4"},
		"exponent price": {Name: "x", CategoryID: "c-arroces", Price: "1e3"},
		"bad focal":      {Name: "x", CategoryID: "c-arroces", Price: "1", ImagePosition: "left"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.store.CreateDish(adminCtx(), in, nil)
			assert.ErrorIs(t, err, apperr.ErrInvalidInput)
		})
	}
	assert.Empty(t, f.dish.seq)
}

func TestCreateDishInsertFailure(t *testing.T) {
	f := newFixture(t, seededCategories(), seededDishes())
	f.dish.writeErr = errors.New("insert rejected")

	d, err := f.store.CreateDish(adminCtx(), dishdto.DishInput{Name: "x", CategoryID: "c-arroces", Price: "1"}, &storage.File{Name: "x.jpg"})

	assert.Nil(t, d)
	var writeErr *apperr.WriteError
	require.True(t, errors.As(err, &writeErr))
	assert.Equal(t, "create_dish", writeErr.Op)
	assert.Empty(t, f.up.paths, "no upload without a record")
}

func TestUpdateDishConvergesAfterRemoteReload(t *testing.T) {
	f := newFixture(t, seededCategories(), seededDishes())

	require.NoError(t, f.store.UpdateDish(adminCtx(), "d-croquetas", dishdto.DishInput{
		Name: "Croquetas", CategoryID: "c-entrantes", Price: "12.5",
	}, nil))
	require.NoError(t, f.hub.Publish(context.Background(), realtime.Event{Collection: realtime.CollectionDishes, Type: realtime.EventUpdate}))

	d, _ := f.store.Dish("d-croquetas")
	assert.Equal(t, 12.5, d.Price)
}

func TestUpdateDishKeepsImageWhenNoneGiven(t *testing.T) {
	f := newFixture(t, seededCategories(), seededDishes())

	require.NoError(t, f.store.UpdateDish(adminCtx(), "d-pulpo", dishdto.DishInput{
		Name: "Pulpo á feira", CategoryID: "c-entrantes", Price: "18",
	}, nil))

	d, _ := f.store.Dish("d-pulpo")
	assert.Equal(t, "Pulpo á feira", d.Name)
	assert.Equal(t, "https://cdn.test/old.jpg", *d.ImageURL)
}

func TestUpdateDishKeepsFocalPointWhenNoneGiven(t *testing.T) {
	f := newFixture(t, seededCategories(), seededDishes())
	require.NoError(t, f.store.UpdateDish(adminCtx(), "d-pulpo", dishdto.DishInput{
		Name: "Pulpo", CategoryID: "c-entrantes", Price: "16", ImagePosition: "30% 70%",
	}, nil))

	require.NoError(t, f.store.UpdateDish(adminCtx(), "d-pulpo", dishdto.DishInput{
		Name: "Pulpo", CategoryID: "c-entrantes", Price: "17",
	}, nil))

	d, _ := f.store.Dish("d-pulpo")
	require.NotNil(t, d.ImagePosition)
	assert.Equal(t, "30% 70%", *d.ImagePosition)
	assert.Equal(t, 17.0, d.Price)
}

func TestUpdateDishUploadFailureLeavesImage(t *testing.T) {
	f := newFixture(t, seededCategories(), seededDishes())
	f.up.err = &apperr.UploadError{Path: "dishes/d-pulpo/new.jpg", Detail: "quota exceeded"}

	err := f.store.UpdateDish(adminCtx(), "d-pulpo", dishdto.DishInput{
		Name: "Pulpo", CategoryID: "c-entrantes", Price: "99",
	}, &storage.File{Name: "new.jpg"})

	require.Error(t, err)
	d, _ := f.store.Dish("d-pulpo")
	assert.Equal(t, "https://cdn.test/old.jpg", *d.ImageURL)
	assert.Equal(t, 16.0, d.Price, "the whole update is aborted")
	assert.Equal(t, 0, f.dish.updates)
}

func TestUpdateDishWithImageUsesExistingID(t *testing.T) {
	f := newFixture(t, seededCategories(), seededDishes())

	require.NoError(t, f.store.UpdateDish(adminCtx(), "d-pulpo", dishdto.DishInput{
		Name: "Pulpo", CategoryID: "c-entrantes", Price: "16",
	}, &storage.File{Name: "pulpo.png"}))

	assert.Equal(t, []string{"dishes/d-pulpo/pulpo.png"}, f.up.paths)
	d, _ := f.store.Dish("d-pulpo")
	assert.Equal(t, "https://cdn.test/menu-assets/dishes/d-pulpo/pulpo.png", *d.ImageURL)
}

func TestWriteFailureNotifiesAndKeepsCache(t *testing.T) {
	f := newFixture(t, seededCategories(), seededDishes())
	before := f.store.Snapshot()
	f.dish.writeErr = errors.New("row level security")

	err := f.store.DeleteDish(adminCtx(), "d-pulpo")

	var writeErr *apperr.WriteError
	require.True(t, errors.As(err, &writeErr))
	assert.Equal(t, "d-pulpo", writeErr.EntityID)
	assert.Equal(t, before, f.store.Snapshot())
	notices := f.rec.Recent(0)
	require.Len(t, notices, 1)
	assert.Equal(t, "delete_dish", notices[0].Action)
	assert.Equal(t, "row level security", notices[0].Detail)
}

func TestDeleteDish(t *testing.T) {
	f := newFixture(t, seededCategories(), seededDishes())

	require.NoError(t, f.store.DeleteDish(adminCtx(), "d-pulpo"))

	_, ok := f.store.Dish("d-pulpo")
	assert.False(t, ok)
}

func TestWritesRequireAuthorization(t *testing.T) {
	f := newFixture(t, seededCategories(), seededDishes())
	ctx := context.Background()

	assert.ErrorIs(t, f.store.ToggleDishVisibility(ctx, "d-pulpo"), apperr.ErrUnauthorized)
	assert.ErrorIs(t, f.store.DeleteCategory(ctx, "c-arroces"), apperr.ErrUnauthorized)
	_, err := f.store.CreateCategory(ctx, categorydto.CategoryInput{Name: "x"}, nil)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	assert.Len(t, f.store.Categories(), 3)
	assert.Len(t, f.rec.Recent(0), 3)
}

func TestCreateCategory(t *testing.T) {
	f := newFixture(t, seededCategories(), seededDishes())

	c, err := f.store.CreateCategory(adminCtx(), categorydto.CategoryInput{Name: "Entrantes Fríos"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "entrantes-frios", c.Slug)
	assert.True(t, c.IsVisible)
	assert.Nil(t, c.ImageURL)
	assert.Len(t, f.store.Categories(), 4)
}

func TestCreateCategoryImagePathUsesID(t *testing.T) {
	f := newFixture(t, seededCategories(), seededDishes())

	c, err := f.store.CreateCategory(adminCtx(), categorydto.CategoryInput{Name: "Postres Caseros"}, &storage.File{Name: "tarta.jpg"})
	require.NoError(t, err)

	assert.Equal(t, []string{"categories/" + c.ID + "/tarta.jpg"}, f.up.paths)
	require.NotNil(t, c.ImageURL)
}

func TestUpdateCategory(t *testing.T) {
	f := newFixture(t, seededCategories(), seededDishes())

	hidden := false
	require.NoError(t, f.store.UpdateCategory(adminCtx(), "c-arroces", categorydto.CategoryInput{
		Name: "Arroces y Fideos", ParentID: model.StringPtr("c-entrantes"), IsVisible: &hidden,
	}, nil))

	c, _ := f.store.Category("c-arroces")
	assert.Equal(t, "arroces-y-fideos", c.Slug)
	assert.Equal(t, "c-entrantes", *c.ParentID)
	assert.False(t, c.IsVisible)

	err := f.store.UpdateCategory(adminCtx(), "c-arroces", categorydto.CategoryInput{Name: "x", ParentID: model.StringPtr("c-arroces")}, nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestUpdateCategoryRejectsCycles(t *testing.T) {
	f := newFixture(t, seededCategories(), seededDishes())

	require.NoError(t, f.store.UpdateCategory(adminCtx(), "c-arroces", categorydto.CategoryInput{
		Name: "Arroces", ParentID: model.StringPtr("c-entrantes"),
	}, nil))

	err := f.store.UpdateCategory(adminCtx(), "c-entrantes", categorydto.CategoryInput{
		Name: "Entrantes", ParentID: model.StringPtr("c-arroces"),
	}, nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	c, _ := f.store.Category("c-entrantes")
	assert.Nil(t, c.ParentID)
	roots := f.store.VisibleCategories(nil)
	require.Len(t, roots, 1)
	assert.Equal(t, "c-entrantes", roots[0].ID)
	assert.Len(t, f.store.VisibleCategories(model.StringPtr("c-entrantes")), 1)
}

func TestCategoryParentMustExist(t *testing.T) {
	f := newFixture(t, seededCategories(), seededDishes())

	err := f.store.UpdateCategory(adminCtx(), "c-arroces", categorydto.CategoryInput{
		Name: "Arroces", ParentID: model.StringPtr("no-such-category"),
	}, nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	c, _ := f.store.Category("c-arroces")
	assert.Nil(t, c.ParentID)

	_, err = f.store.CreateCategory(adminCtx(), categorydto.CategoryInput{
		Name: "Mariscos", ParentID: model.StringPtr("no-such-category"),
	}, nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	assert.Len(t, f.store.Categories(), 3)
	assert.Equal(t, 0, f.cats.seq)

	notices := f.rec.Recent(0)
	require.Len(t, notices, 2)
	assert.Equal(t, "update_category", notices[0].Action)
	assert.Equal(t, "create_category", notices[1].Action)
}

func TestCategoryParentCreatedElsewhereIsAccepted(t *testing.T) {
	f := newFixture(t, seededCategories(), seededDishes())
	f.cats.mu.Lock()
	f.cats.rows["c-postres"] = model.Category{BaseModel: model.BaseModel{ID: "c-postres"}, Name: "Postres", Slug: "postres", IsVisible: true}
	f.cats.mu.Unlock()

	c, err := f.store.CreateCategory(adminCtx(), categorydto.CategoryInput{
		Name: "Tartas", ParentID: model.StringPtr("c-postres"),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "c-postres", *c.ParentID)
}

func TestDeleteCategoryOrphansDishes(t *testing.T) {
	f := newFixture(t, seededCategories(), seededDishes())

	require.NoError(t, f.store.DeleteCategory(adminCtx(), "c-entrantes"))

	_, ok := f.store.Category("c-entrantes")
	assert.False(t, ok)
	d, ok := f.store.Dish("d-pulpo")
	require.True(t, ok)
	assert.Equal(t, "c-entrantes", d.CategoryID)
}

func TestDeleteCategoryBlockedWhenReferenced(t *testing.T) {
	f := newFixture(t, seededCategories(), seededDishes(), WithDeletePolicy(catalog.DeleteBlockWhenReferenced))

	err := f.store.DeleteCategory(adminCtx(), "c-entrantes")
	assert.ErrorIs(t, err, apperr.ErrReferenced)
	_, ok := f.store.Category("c-entrantes")
	assert.True(t, ok)

	require.NoError(t, f.store.DeleteCategory(adminCtx(), "c-arroces"))
}

func TestPublisherAnnouncesWrites(t *testing.T) {
	pub := realtime.NewHub()
	var events []realtime.Event
	_, _ = pub.Subscribe(context.Background(), realtime.CollectionDishes, func(_ context.Context, ev realtime.Event) {
		events = append(events, ev)
	})
	f := newFixture(t, seededCategories(), seededDishes(), WithPublisher(pub))

	require.NoError(t, f.store.DeleteDish(adminCtx(), "d-pulpo"))

	require.Len(t, events, 1)
	assert.Equal(t, realtime.Event{Collection: realtime.CollectionDishes, Type: realtime.EventDelete, RecordID: "d-pulpo"}, events[0])
}

func TestOnChangeAndDispose(t *testing.T) {
	f := newFixture(t, seededCategories(), seededDishes())
	var counts []int
	f.store.OnChange(func(s catalog.Snapshot) { counts = append(counts, len(s.Dishes)) })

	require.NoError(t, f.store.DeleteDish(adminCtx(), "d-pulpo"))
	require.NotEmpty(t, counts)
	assert.Equal(t, 2, counts[len(counts)-1])

	f.store.Dispose()
	f.dish.rows["d-late"] = model.Dish{BaseModel: model.BaseModel{ID: "d-late"}, Name: "Tarde", CategoryID: "c-arroces", IsVisible: true}
	require.NoError(t, f.hub.Publish(context.Background(), realtime.Event{Collection: realtime.CollectionDishes}))
	_, ok := f.store.Dish("d-late")
	assert.False(t, ok, "disposed store ignores remote changes")
}

func TestParseDeletePolicy(t *testing.T) {
	p, err := catalog.ParseDeletePolicy("")
	require.NoError(t, err)
	assert.Equal(t, catalog.DeleteOrphan, p)

	p, err = catalog.ParseDeletePolicy("block")
	require.NoError(t, err)
	assert.Equal(t, catalog.DeleteBlockWhenReferenced, p)

	_, err = catalog.ParseDeletePolicy("cascade")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}
