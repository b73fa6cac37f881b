package usecase

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/fekuna/omnipos-menu-service/internal/apperr"
	"github.com/fekuna/omnipos-menu-service/internal/auth"
	"github.com/fekuna/omnipos-menu-service/internal/catalog"
	"github.com/fekuna/omnipos-menu-service/internal/category"
	categorydto "github.com/fekuna/omnipos-menu-service/internal/category/dto"
	"github.com/fekuna/omnipos-menu-service/internal/dish"
	dishdto "github.com/fekuna/omnipos-menu-service/internal/dish/dto"
	"github.com/fekuna/omnipos-menu-service/internal/metrics"
	"github.com/fekuna/omnipos-menu-service/internal/model"
	"github.com/fekuna/omnipos-menu-service/internal/notice"
	"github.com/fekuna/omnipos-menu-service/internal/realtime"
	"github.com/fekuna/omnipos-menu-service/internal/storage"
	"github.com/fekuna/omnipos-menu-service/internal/textutil"
	"github.com/fekuna/omnipos-menu-service/pkg/logger"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/fekuna/omnipos-menu-service/internal/catalog")

const storeName = "catalog"

// decimalPrice accepts plain decimals such as "18", "18.5" or ".50".
var decimalPrice = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

type Option func(*CatalogStore)

// WithPublisher announces successful writes to other sessions.
func WithPublisher(p realtime.Publisher) Option {
	return func(s *CatalogStore) { s.publisher = p }
}

func WithBucket(bucket string) Option {
	return func(s *CatalogStore) { s.bucket = bucket }
}

func WithDeletePolicy(p catalog.DeletePolicy) Option {
	return func(s *CatalogStore) { s.deletePolicy = p }
}

// CatalogStore caches the categories and dishes collections. Every write
// ends with a full refetch of both; local state is never patched by hand.
type CatalogStore struct {
	categoryRepo category.Repository
	dishRepo     dish.Repository
	notifier     realtime.Notifier
	publisher    realtime.Publisher
	uploader     storage.AssetUploader
	notices      notice.Sink
	logger       logger.ZapLogger
	validate     *validator.Validate
	bucket       string
	deletePolicy catalog.DeletePolicy

	mu         sync.RWMutex
	categories []model.Category
	dishes     []model.Dish
	isLoading  bool
	subs       []realtime.Subscription

	emitMu       sync.Mutex
	listenerMu   sync.Mutex
	listeners    map[uint64]func(catalog.Snapshot)
	nextListener uint64
}

var _ catalog.Store = (*CatalogStore)(nil)

func NewCatalogStore(categoryRepo category.Repository, dishRepo dish.Repository, notifier realtime.Notifier, uploader storage.AssetUploader, sink notice.Sink, log logger.ZapLogger, opts ...Option) *CatalogStore {
	s := &CatalogStore{
		categoryRepo: categoryRepo,
		dishRepo:     dishRepo,
		notifier:     notifier,
		publisher:    realtime.Nop,
		uploader:     uploader,
		notices:      sink,
		logger:       log,
		validate:     validator.New(),
		bucket:       "menu-assets",
		deletePolicy: catalog.DeleteOrphan,
		categories:   []model.Category{},
		dishes:       []model.Dish{},
		isLoading:    true,
		listeners:    map[uint64]func(catalog.Snapshot){},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.notifier == nil {
		s.notifier = realtime.Nop
	}
	if s.notices == nil {
		s.notices = notice.Discard
	}
	return s
}

func (s *CatalogStore) Init(ctx context.Context) error {
	_ = s.Load(ctx)
	return s.SubscribeToChanges(ctx)
}

func (s *CatalogStore) Dispose() {
	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()
	for _, sub := range subs {
		_ = sub.Close()
	}

	s.listenerMu.Lock()
	s.listeners = map[uint64]func(catalog.Snapshot){}
	s.listenerMu.Unlock()
}

// Load refetches both collections. When either read fails the cached
// collections are left untouched.
func (s *CatalogStore) Load(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "catalog.Load")
	defer span.End()

	categories, err := s.categoryRepo.FindAll(ctx)
	if err != nil {
		return s.loadFailed(span, realtime.CollectionCategories, err)
	}
	dishes, err := s.dishRepo.FindAll(ctx)
	if err != nil {
		return s.loadFailed(span, realtime.CollectionDishes, err)
	}
	metrics.RefetchTotal.WithLabelValues(storeName, metrics.Result(nil)).Inc()

	textutil.SortByName(categories, func(c model.Category) string { return c.Name })
	textutil.SortByName(dishes, func(d model.Dish) string { return d.Name })

	s.settle(func() {
		s.categories = categories
		s.dishes = dishes
		s.isLoading = false
	})
	return nil
}

func (s *CatalogStore) loadFailed(span trace.Span, collection string, err error) error {
	span.RecordError(err)
	metrics.RefetchTotal.WithLabelValues(storeName, metrics.Result(err)).Inc()
	s.logger.Error("failed to load catalog", zap.String("collection", collection), zap.Error(err))
	s.settle(func() { s.isLoading = false })
	return &apperr.FetchError{Collection: collection, Err: err}
}

func (s *CatalogStore) SubscribeToChanges(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.subs) > 0 {
		return nil
	}

	reload := func(ctx context.Context, ev realtime.Event) {
		s.logger.Debug("catalog change received",
			zap.String("collection", ev.Collection),
			zap.String("type", string(ev.Type)),
			zap.String("record_id", ev.RecordID),
		)
		_ = s.Load(ctx)
	}

	var subs []realtime.Subscription
	for _, collection := range []string{realtime.CollectionCategories, realtime.CollectionDishes} {
		sub, err := s.notifier.Subscribe(ctx, collection, reload)
		if err != nil {
			for _, open := range subs {
				_ = open.Close()
			}
			s.logger.Error("failed to subscribe to catalog changes", zap.String("collection", collection), zap.Error(err))
			return err
		}
		subs = append(subs, sub)
	}
	s.subs = subs
	return nil
}

func (s *CatalogStore) Snapshot() catalog.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *CatalogStore) snapshotLocked() catalog.Snapshot {
	return catalog.Snapshot{
		Categories: cloneCategories(s.categories),
		Dishes:     cloneDishes(s.dishes),
		IsLoading:  s.isLoading,
	}
}

func (s *CatalogStore) Categories() []model.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneCategories(s.categories)
}

func (s *CatalogStore) Dishes() []model.Dish {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneDishes(s.dishes)
}

func (s *CatalogStore) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isLoading
}

func (s *CatalogStore) Category(id string) (model.Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.findCategory(id); ok {
		return c.Clone(), true
	}
	return model.Category{}, false
}

func (s *CatalogStore) Dish(id string) (model.Dish, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d, ok := s.findDish(id); ok {
		return d.Clone(), true
	}
	return model.Dish{}, false
}

// VisibleCategories lists the publicly reachable children of parentID, or
// the top level when parentID is nil.
func (s *CatalogStore) VisibleCategories(parentID *string) []model.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if parentID != nil && !s.reachableLocked(*parentID) {
		return []model.Category{}
	}
	out := []model.Category{}
	for _, c := range s.categories {
		if !c.IsVisible || !sameParent(c.ParentID, parentID) {
			continue
		}
		out = append(out, c.Clone())
	}
	return out
}

// VisibleDishes lists the visible dishes of categoryID. A hidden category,
// or one below a hidden ancestor, hides all of its dishes.
func (s *CatalogStore) VisibleDishes(categoryID string) []model.Dish {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.Dish{}
	if !s.reachableLocked(categoryID) {
		return out
	}
	for _, d := range s.dishes {
		if d.IsVisible && d.CategoryID == categoryID {
			out = append(out, d.Clone())
		}
	}
	return out
}

func (s *CatalogStore) reachableLocked(id string) bool {
	seen := map[string]bool{}
	for {
		if seen[id] {
			return false
		}
		seen[id] = true
		c, ok := s.findCategory(id)
		if !ok || !c.IsVisible {
			return false
		}
		if c.ParentID == nil {
			return true
		}
		id = *c.ParentID
	}
}

func (s *CatalogStore) OnChange(fn func(catalog.Snapshot)) func() {
	s.listenerMu.Lock()
	s.nextListener++
	id := s.nextListener
	s.listeners[id] = fn
	s.listenerMu.Unlock()

	return func() {
		s.listenerMu.Lock()
		delete(s.listeners, id)
		s.listenerMu.Unlock()
	}
}

func (s *CatalogStore) settle(mutate func()) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	mutate()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.listenerMu.Lock()
	ids := make([]uint64, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(catalog.Snapshot), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.listeners[id])
	}
	s.listenerMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func (s *CatalogStore) ToggleDishVisibility(ctx context.Context, id string) error {
	op := "toggle_dish_visibility"
	if !auth.CanWrite(ctx) {
		return s.fail(op, id, apperr.ErrUnauthorized)
	}
	d, ok := s.Dish(id)
	if !ok {
		s.logger.Warn("dish not in local cache", zap.String("op", op), zap.String("entity_id", id))
		return fmt.Errorf("%w: dish %s", apperr.ErrNotFound, id)
	}

	ctx, span := s.startWrite(ctx, op, id)
	defer span.End()

	err := s.dishRepo.SetVisibility(ctx, id, !d.IsVisible)
	return s.finish(ctx, op, realtime.CollectionDishes, realtime.EventUpdate, id, err)
}

func (s *CatalogStore) ToggleCategoryVisibility(ctx context.Context, id string) error {
	op := "toggle_category_visibility"
	if !auth.CanWrite(ctx) {
		return s.fail(op, id, apperr.ErrUnauthorized)
	}
	c, ok := s.Category(id)
	if !ok {
		s.logger.Warn("category not in local cache", zap.String("op", op), zap.String("entity_id", id))
		return fmt.Errorf("%w: category %s", apperr.ErrNotFound, id)
	}

	ctx, span := s.startWrite(ctx, op, id)
	defer span.End()

	err := s.categoryRepo.SetVisibility(ctx, id, !c.IsVisible)
	return s.finish(ctx, op, realtime.CollectionCategories, realtime.EventUpdate, id, err)
}

// CreateDish inserts the dish, then attaches the image. A failed upload
// keeps the inserted dish without an image; the dish is returned along
// with the upload error.
func (s *CatalogStore) CreateDish(ctx context.Context, in dishdto.DishInput, image *storage.File) (*model.Dish, error) {
	op := "create_dish"
	if !auth.CanWrite(ctx) {
		return nil, s.fail(op, "", apperr.ErrUnauthorized)
	}
	d, err := s.coerceDish(in)
	if err != nil {
		return nil, s.fail(op, "", err)
	}
	if image != nil {
		d.ImageURL = nil
	}

	ctx, span := s.startWrite(ctx, op, "")
	defer span.End()

	err = s.dishRepo.Create(ctx, &d)
	metrics.WriteTotal.WithLabelValues(storeName, op, metrics.Result(err)).Inc()
	if err != nil {
		span.RecordError(err)
		err = s.fail(op, "", err)
		_ = s.Load(ctx)
		return nil, err
	}
	span.SetAttributes(attribute.String("entity_id", d.ID))
	s.publish(ctx, realtime.CollectionDishes, realtime.EventInsert, d.ID)

	var attachErr error
	if image != nil {
		url, err := s.upload(ctx, op, d.ID, *image, dishImagePath(d.ID, *image))
		if err != nil {
			attachErr = err
		} else if err := s.dishRepo.SetImageURL(ctx, d.ID, url); err != nil {
			attachErr = s.fail(op, d.ID, err)
		} else {
			d.ImageURL = model.StringPtr(url)
			s.publish(ctx, realtime.CollectionDishes, realtime.EventUpdate, d.ID)
		}
	}

	_ = s.Load(ctx)
	if cached, ok := s.Dish(d.ID); ok {
		d = cached
	}
	return &d, attachErr
}

// UpdateDish uploads the image first and aborts the update when the
// upload fails, so the dish keeps its previous image.
func (s *CatalogStore) UpdateDish(ctx context.Context, id string, in dishdto.DishInput, image *storage.File) error {
	op := "update_dish"
	if !auth.CanWrite(ctx) {
		return s.fail(op, id, apperr.ErrUnauthorized)
	}
	d, err := s.coerceDish(in)
	if err != nil {
		return s.fail(op, id, err)
	}
	d.ID = id
	if cached, ok := s.Dish(id); ok {
		d.CreatedAt = cached.CreatedAt
		if d.ImageURL == nil {
			d.ImageURL = cached.ImageURL
		}
		if d.ImagePosition == nil {
			d.ImagePosition = cached.ImagePosition
		}
		if in.IsVisible == nil {
			d.IsVisible = cached.IsVisible
		}
	}

	ctx, span := s.startWrite(ctx, op, id)
	defer span.End()

	if image != nil {
		url, err := s.upload(ctx, op, id, *image, dishImagePath(id, *image))
		if err != nil {
			_ = s.Load(ctx)
			return err
		}
		d.ImageURL = model.StringPtr(url)
	}

	err = s.dishRepo.Update(ctx, &d)
	return s.finish(ctx, op, realtime.CollectionDishes, realtime.EventUpdate, id, err)
}

// DeleteDish removes the record only; uploaded images stay in storage.
func (s *CatalogStore) DeleteDish(ctx context.Context, id string) error {
	op := "delete_dish"
	if !auth.CanWrite(ctx) {
		return s.fail(op, id, apperr.ErrUnauthorized)
	}

	ctx, span := s.startWrite(ctx, op, id)
	defer span.End()

	err := s.dishRepo.Delete(ctx, id)
	return s.finish(ctx, op, realtime.CollectionDishes, realtime.EventDelete, id, err)
}

func (s *CatalogStore) CreateCategory(ctx context.Context, in categorydto.CategoryInput, image *storage.File) (*model.Category, error) {
	op := "create_category"
	if !auth.CanWrite(ctx) {
		return nil, s.fail(op, "", apperr.ErrUnauthorized)
	}
	c, err := s.coerceCategory(in)
	if err != nil {
		return nil, s.fail(op, "", err)
	}
	c.IsVisible = true
	if err := s.checkParent(ctx, "", c.ParentID); err != nil {
		return nil, s.fail(op, "", err)
	}

	ctx, span := s.startWrite(ctx, op, "")
	defer span.End()

	err = s.categoryRepo.Create(ctx, &c)
	metrics.WriteTotal.WithLabelValues(storeName, op, metrics.Result(err)).Inc()
	if err != nil {
		span.RecordError(err)
		err = s.fail(op, "", err)
		_ = s.Load(ctx)
		return nil, err
	}
	span.SetAttributes(attribute.String("entity_id", c.ID))
	s.publish(ctx, realtime.CollectionCategories, realtime.EventInsert, c.ID)

	var attachErr error
	if image != nil {
		url, err := s.upload(ctx, op, c.ID, *image, categoryImagePath(c.ID, *image))
		if err != nil {
			attachErr = err
		} else if err := s.categoryRepo.SetImageURL(ctx, c.ID, url); err != nil {
			attachErr = s.fail(op, c.ID, err)
		} else {
			c.ImageURL = model.StringPtr(url)
			s.publish(ctx, realtime.CollectionCategories, realtime.EventUpdate, c.ID)
		}
	}

	_ = s.Load(ctx)
	if cached, ok := s.Category(c.ID); ok {
		c = cached
	}
	return &c, attachErr
}

func (s *CatalogStore) UpdateCategory(ctx context.Context, id string, in categorydto.CategoryInput, image *storage.File) error {
	op := "update_category"
	if !auth.CanWrite(ctx) {
		return s.fail(op, id, apperr.ErrUnauthorized)
	}
	c, err := s.coerceCategory(in)
	if err != nil {
		return s.fail(op, id, err)
	}
	if err := s.checkParent(ctx, id, c.ParentID); err != nil {
		return s.fail(op, id, err)
	}
	c.ID = id
	c.IsVisible = true
	if cached, ok := s.Category(id); ok {
		c.CreatedAt = cached.CreatedAt
		c.ImageURL = cached.ImageURL
		c.IsVisible = cached.IsVisible
	}
	if in.IsVisible != nil {
		c.IsVisible = *in.IsVisible
	}

	ctx, span := s.startWrite(ctx, op, id)
	defer span.End()

	if image != nil {
		url, err := s.upload(ctx, op, id, *image, categoryImagePath(id, *image))
		if err != nil {
			_ = s.Load(ctx)
			return err
		}
		c.ImageURL = model.StringPtr(url)
	}

	err = s.categoryRepo.Update(ctx, &c)
	return s.finish(ctx, op, realtime.CollectionCategories, realtime.EventUpdate, id, err)
}

// DeleteCategory removes the record. Under DeleteBlockWhenReferenced it
// first refetches and refuses while anything points at the category.
func (s *CatalogStore) DeleteCategory(ctx context.Context, id string) error {
	op := "delete_category"
	if !auth.CanWrite(ctx) {
		return s.fail(op, id, apperr.ErrUnauthorized)
	}

	ctx, span := s.startWrite(ctx, op, id)
	defer span.End()

	if s.deletePolicy == catalog.DeleteBlockWhenReferenced {
		if err := s.Load(ctx); err != nil {
			return s.fail(op, id, err)
		}
		if dishes, children := s.references(id); dishes > 0 || children > 0 {
			return s.fail(op, id, fmt.Errorf("%w: %d dishes and %d subcategories", apperr.ErrReferenced, dishes, children))
		}
	}

	err := s.categoryRepo.Delete(ctx, id)
	return s.finish(ctx, op, realtime.CollectionCategories, realtime.EventDelete, id, err)
}

func (s *CatalogStore) references(id string) (dishes, children int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.dishes {
		if d.CategoryID == id {
			dishes++
		}
	}
	for _, c := range s.categories {
		if c.ParentID != nil && *c.ParentID == id {
			children++
		}
	}
	return dishes, children
}

func (s *CatalogStore) startWrite(ctx context.Context, op, id string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "catalog."+op, trace.WithAttributes(
		attribute.String("op", op),
		attribute.String("entity_id", id),
	))
}

// finish records the outcome of a single write, announces it on success
// and always refetches.
func (s *CatalogStore) finish(ctx context.Context, op, collection string, evType realtime.EventType, id string, err error) error {
	metrics.WriteTotal.WithLabelValues(storeName, op, metrics.Result(err)).Inc()
	if err != nil {
		trace.SpanFromContext(ctx).RecordError(err)
		err = s.fail(op, id, err)
	} else {
		s.publish(ctx, collection, evType, id)
	}
	_ = s.Load(ctx)
	return err
}

func (s *CatalogStore) upload(ctx context.Context, op, id string, file storage.File, path string) (string, error) {
	url, err := s.uploader.Upload(ctx, file, path, s.bucket)
	if err != nil {
		s.logger.Error("failed to upload catalog image",
			zap.String("op", op),
			zap.String("entity_id", id),
			zap.String("path", path),
			zap.Error(err),
		)
		s.notices.Notify(notice.Notice{Action: op, EntityID: id, Detail: apperr.Detail(err), Level: notice.LevelError})
		return "", err
	}
	return url, nil
}

func (s *CatalogStore) publish(ctx context.Context, collection string, evType realtime.EventType, id string) {
	ev := realtime.Event{Collection: collection, Type: evType, RecordID: id}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("failed to publish catalog change", zap.String("collection", collection), zap.String("record_id", id), zap.Error(err))
	}
}

func (s *CatalogStore) fail(op, entityID string, err error) error {
	s.logger.Error("catalog write failed",
		zap.String("op", op),
		zap.String("entity_id", entityID),
		zap.Error(err),
	)
	s.notices.Notify(notice.Notice{Action: op, EntityID: entityID, Detail: apperr.Detail(err), Level: notice.LevelError})
	return &apperr.WriteError{Op: op, EntityID: entityID, Err: err}
}

func (s *CatalogStore) coerceDish(in dishdto.DishInput) (model.Dish, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Price = strings.TrimSpace(in.Price)
	if err := s.validate.Struct(in); err != nil {
		return model.Dish{}, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}

	raw := strings.Replace(in.Price, ",", ".", 1)
	if !decimalPrice.MatchString(raw) {
		return model.Dish{}, fmt.Errorf("%w: price %q is not a number", apperr.ErrInvalidInput, in.Price)
	}
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
		return model.Dish{}, fmt.Errorf("%w: price %q is not a number", apperr.ErrInvalidInput, in.Price)
	}
	if price < 0 {
		return model.Dish{}, fmt.Errorf("%w: price must not be negative", apperr.ErrInvalidInput)
	}

	position, err := textutil.NormalizeFocalPoint(in.ImagePosition)
	if err != nil {
		return model.Dish{}, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}

	d := model.Dish{
		Name:        in.Name,
		CategoryID:  in.CategoryID,
		Price:       price,
		Description: strings.TrimSpace(in.Description),
		Allergens:   textutil.ParseAllergens(in.Allergens),
		PortionSize: strings.TrimSpace(in.PortionSize),
		IsVisible:   true,
	}
	if position != "" {
		d.ImagePosition = model.StringPtr(position)
	}
	if url := strings.TrimSpace(in.ImageURL); url != "" {
		d.ImageURL = model.StringPtr(url)
	}
	if in.IsVisible != nil {
		d.IsVisible = *in.IsVisible
	}
	return d, nil
}

func (s *CatalogStore) coerceCategory(in categorydto.CategoryInput) (model.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := s.validate.Struct(in); err != nil {
		return model.Category{}, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}
	slug := textutil.Slugify(in.Name)
	if slug == "" {
		return model.Category{}, fmt.Errorf("%w: name %q has no usable characters", apperr.ErrInvalidInput, in.Name)
	}

	c := model.Category{Name: in.Name, Slug: slug}
	if in.ParentID != nil && *in.ParentID != "" {
		c.ParentID = model.StringPtr(*in.ParentID)
	}
	return c, nil
}

// checkParent rejects a parent that is unknown, or whose ancestor chain
// leads back to id. An unknown parent triggers one refetch before failing,
// since another session may have just created it.
func (s *CatalogStore) checkParent(ctx context.Context, id string, parentID *string) error {
	if parentID == nil {
		return nil
	}
	if *parentID == id {
		return fmt.Errorf("%w: category cannot be its own parent", apperr.ErrInvalidInput)
	}
	if _, ok := s.Category(*parentID); !ok {
		_ = s.Load(ctx)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.findCategory(*parentID)
	if !ok {
		return fmt.Errorf("%w: parent category %q does not exist", apperr.ErrInvalidInput, *parentID)
	}
	if id == "" {
		return nil
	}
	seen := map[string]bool{}
	for !seen[p.ID] {
		if p.ID == id {
			return fmt.Errorf("%w: category %q cannot be placed below its own descendant %q", apperr.ErrInvalidInput, id, *parentID)
		}
		seen[p.ID] = true
		if p.ParentID == nil {
			return nil
		}
		if p, ok = s.findCategory(*p.ParentID); !ok {
			return nil
		}
	}
	return nil
}

func (s *CatalogStore) findCategory(id string) (model.Category, bool) {
	for _, c := range s.categories {
		if c.ID == id {
			return c, true
		}
	}
	return model.Category{}, false
}

func (s *CatalogStore) findDish(id string) (model.Dish, bool) {
	for _, d := range s.dishes {
		if d.ID == id {
			return d, true
		}
	}
	return model.Dish{}, false
}

func dishImagePath(id string, file storage.File) string {
	return "dishes/" + id + "/" + file.Name
}

func categoryImagePath(id string, file storage.File) string {
	return "categories/" + id + "/" + file.Name
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func cloneCategories(in []model.Category) []model.Category {
	out := make([]model.Category, len(in))
	for i, c := range in {
		out[i] = c.Clone()
	}
	return out
}

func cloneDishes(in []model.Dish) []model.Dish {
	out := make([]model.Dish, len(in))
	for i, d := range in {
		out[i] = d.Clone()
	}
	return out
}
