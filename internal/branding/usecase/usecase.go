package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/fekuna/omnipos-menu-service/internal/apperr"
	"github.com/fekuna/omnipos-menu-service/internal/auth"
	"github.com/fekuna/omnipos-menu-service/internal/branding"
	"github.com/fekuna/omnipos-menu-service/internal/metrics"
	"github.com/fekuna/omnipos-menu-service/internal/model"
	"github.com/fekuna/omnipos-menu-service/internal/notice"
	"github.com/fekuna/omnipos-menu-service/internal/realtime"
	"github.com/fekuna/omnipos-menu-service/internal/storage"
	"github.com/fekuna/omnipos-menu-service/internal/theme"
	"github.com/fekuna/omnipos-menu-service/pkg/logger"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/fekuna/omnipos-menu-service/internal/branding")

const storeName = "branding"

type Option func(*BrandingStore)

// WithPublisher announces successful writes to other sessions. Not needed
// with the Postgres driver, whose triggers already notify.
func WithPublisher(p realtime.Publisher) Option {
	return func(s *BrandingStore) { s.publisher = p }
}

func WithBucket(bucket string) Option {
	return func(s *BrandingStore) { s.bucket = bucket }
}

func WithClock(now func() time.Time) Option {
	return func(s *BrandingStore) { s.now = now }
}

// BrandingStore owns the singleton branding config. Change listeners run
// synchronously, in state order, every time the config settles; they must
// not call mutating store methods.
type BrandingStore struct {
	repo      branding.Repository
	notifier  realtime.Notifier
	publisher realtime.Publisher
	uploader  storage.AssetUploader
	notices   notice.Sink
	logger    logger.ZapLogger
	bucket    string
	now       func() time.Time

	mu        sync.RWMutex
	config    model.BrandingConfig
	isLoading bool
	fields    map[branding.Field]branding.FieldState
	sub       realtime.Subscription

	// emitMu orders state changes with their notifications.
	emitMu       sync.Mutex
	listenerMu   sync.Mutex
	listeners    map[uint64]func(branding.Snapshot)
	nextListener uint64

	// writeMu serializes persistence so the record id learned by the
	// first insert is seen by every later write.
	writeMu sync.Mutex
}

var _ branding.Store = (*BrandingStore)(nil)

func NewBrandingStore(repo branding.Repository, notifier realtime.Notifier, uploader storage.AssetUploader, sink notice.Sink, log logger.ZapLogger, opts ...Option) *BrandingStore {
	s := &BrandingStore{
		repo:      repo,
		notifier:  notifier,
		publisher: realtime.Nop,
		uploader:  uploader,
		notices:   sink,
		logger:    log,
		bucket:    "menu-assets",
		now:       time.Now,
		config:    branding.DefaultConfig(),
		isLoading: true,
		fields:    map[branding.Field]branding.FieldState{},
		listeners: map[uint64]func(branding.Snapshot){},
	}
	for _, f := range branding.Fields() {
		s.fields[f] = branding.FieldConfirmed
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

// Init loads the config and starts listening for remote changes. A failed
// load is not fatal: the store keeps its defaults.
func (s *BrandingStore) Init(ctx context.Context) error {
	_ = s.Load(ctx)
	return s.SubscribeToChanges(ctx)
}

func (s *BrandingStore) Dispose() {
	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()
	if sub != nil {
		_ = sub.Close()
	}

	s.listenerMu.Lock()
	s.listeners = map[uint64]func(branding.Snapshot){}
	s.listenerMu.Unlock()
}

func (s *BrandingStore) Snapshot() branding.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *BrandingStore) snapshotLocked() branding.Snapshot {
	fields := make(map[branding.Field]branding.FieldState, len(s.fields))
	for k, v := range s.fields {
		fields[k] = v
	}
	return branding.Snapshot{
		Config:    s.config.Clone(),
		Theme:     theme.GetThemeByID(s.config.ThemeID),
		IsLoading: s.isLoading,
		Fields:    fields,
	}
}

func (s *BrandingStore) OnChange(fn func(branding.Snapshot)) func() {
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

// settle applies mutate under the state lock and then notifies every
// listener with the resulting snapshot before returning.
func (s *BrandingStore) settle(mutate func()) {
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
	fns := make([]func(branding.Snapshot), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.listeners[id])
	}
	s.listenerMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func (s *BrandingStore) Load(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "branding.Load")
	defer span.End()

	cfg, err := s.repo.Get(ctx)
	if errors.Is(err, apperr.ErrNotFound) {
		metrics.RefetchTotal.WithLabelValues(storeName, "empty").Inc()
		// A learned record id is kept: this read may predate the first
		// insert. persist re-inserts if the row was really deleted.
		s.settle(func() { s.isLoading = false })
		return nil
	}
	metrics.RefetchTotal.WithLabelValues(storeName, metrics.Result(err)).Inc()
	if err != nil {
		span.RecordError(err)
		s.logger.Error("failed to load branding config", zap.Error(err))
		s.settle(func() { s.isLoading = false })
		return &apperr.FetchError{Collection: realtime.CollectionConfig, Err: err}
	}

	loaded := cfg.Clone()
	if !theme.Exists(loaded.ThemeID) {
		loaded.ThemeID = theme.Default().ID
	}
	s.settle(func() {
		s.config = loaded
		s.isLoading = false
		for f, st := range s.fields {
			if st != branding.FieldPending {
				s.fields[f] = branding.FieldConfirmed
			}
		}
	})
	return nil
}

func (s *BrandingStore) SubscribeToChanges(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub != nil {
		return nil
	}
	sub, err := s.notifier.Subscribe(ctx, realtime.CollectionConfig, func(ctx context.Context, ev realtime.Event) {
		s.logger.Debug("branding change received", zap.String("type", string(ev.Type)), zap.String("record_id", ev.RecordID))
		_ = s.Load(ctx)
	})
	if err != nil {
		s.logger.Error("failed to subscribe to branding changes", zap.Error(err))
		return err
	}
	s.sub = sub
	return nil
}

// Update applies value to field locally, then persists it. On failure the
// local value is kept and the field is marked write-failed.
func (s *BrandingStore) Update(ctx context.Context, field branding.Field, value any) error {
	op := "update_branding"
	if !auth.CanWrite(ctx) {
		return s.fail(op, string(field), apperr.ErrUnauthorized)
	}
	coerced, err := coerce(field, value)
	if err != nil {
		return s.fail(op, string(field), err)
	}

	ctx, span := tracer.Start(ctx, "branding.Update")
	defer span.End()

	s.settle(func() {
		apply(&s.config, field, coerced)
		s.fields[field] = branding.FieldPending
	})

	return s.persist(ctx, op, []branding.Field{field}, map[string]any{field.Column(): coerced})
}

// persist writes patch to the known record, or inserts the whole local
// config when no record id has been learned yet.
func (s *BrandingStore) persist(ctx context.Context, op string, fields []branding.Field, patch map[string]any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	full := s.config.Clone()
	s.mu.RUnlock()

	var (
		err      error
		recordID string
		inserted bool
	)
	if full.RecordID != nil {
		recordID = *full.RecordID
		err = s.repo.Update(ctx, recordID, patch)
		if errors.Is(err, apperr.ErrNotFound) {
			s.logger.Warn("branding record vanished, inserting a new one", zap.String("record_id", recordID))
			full.RecordID = nil
			recordID, err = s.repo.Insert(ctx, &full)
			inserted = err == nil
		}
	} else {
		recordID, err = s.repo.Insert(ctx, &full)
		inserted = err == nil
	}
	metrics.WriteTotal.WithLabelValues(storeName, op, metrics.Result(err)).Inc()

	if err != nil {
		s.settle(func() {
			for _, f := range fields {
				s.fields[f] = branding.FieldWriteFailed
			}
		})
		return s.fail(op, recordID, err)
	}

	s.settle(func() {
		if inserted {
			s.config.RecordID = model.StringPtr(recordID)
		}
		for _, f := range fields {
			s.fields[f] = branding.FieldConfirmed
		}
	})

	evType := realtime.EventUpdate
	if inserted {
		evType = realtime.EventInsert
	}
	if err := s.publisher.Publish(ctx, realtime.Event{Collection: realtime.CollectionConfig, Type: evType, RecordID: recordID}); err != nil {
		s.logger.Warn("failed to publish branding change", zap.String("record_id", recordID), zap.Error(err))
	}
	return nil
}

func (s *BrandingStore) UploadLogo(ctx context.Context, file storage.File) (string, error) {
	op := "upload_logo"
	if !auth.CanWrite(ctx) {
		return "", s.fail(op, "", apperr.ErrUnauthorized)
	}

	path := fmt.Sprintf("branding/logo-%d%s", s.now().UnixNano(), file.Ext())
	url, err := s.uploader.Upload(ctx, file, path, s.bucket)
	if err != nil {
		s.logger.Error("failed to upload logo", zap.String("path", path), zap.Error(err))
		s.notices.Notify(notice.Notice{Action: op, Detail: apperr.Detail(err), Level: notice.LevelError})
		return "", err
	}
	if err := s.Update(ctx, branding.FieldLogoURL, url); err != nil {
		return url, err
	}
	return url, nil
}

// ResetToDefaults restores the built-in branding and persists every field.
func (s *BrandingStore) ResetToDefaults(ctx context.Context) error {
	op := "reset_branding"
	if !auth.CanWrite(ctx) {
		return s.fail(op, "", apperr.ErrUnauthorized)
	}

	defaults := branding.DefaultConfig()
	fields := branding.Fields()
	patch := map[string]any{
		branding.ColumnRestaurantName: defaults.RestaurantName,
		branding.ColumnShowName:       defaults.ShowName,
		branding.ColumnLogoURL:        defaults.LogoURL,
		branding.ColumnThemeID:        defaults.ThemeID,
		branding.ColumnSubtitle:       defaults.Subtitle,
	}

	s.settle(func() {
		recordID := s.config.RecordID
		s.config = defaults
		s.config.RecordID = recordID
		for _, f := range fields {
			s.fields[f] = branding.FieldPending
		}
	})
	return s.persist(ctx, op, fields, patch)
}

func (s *BrandingStore) fail(op, entityID string, err error) error {
	s.logger.Error("branding write failed",
		zap.String("op", op),
		zap.String("entity_id", entityID),
		zap.Error(err),
	)
	s.notices.Notify(notice.Notice{Action: op, EntityID: entityID, Detail: apperr.Detail(err), Level: notice.LevelError})
	return &apperr.WriteError{Op: op, EntityID: entityID, Err: err}
}

// coerce converts value to the Go type stored for field.
func coerce(field branding.Field, value any) (any, error) {
	switch field {
	case branding.FieldShowName:
		switch v := value.(type) {
		case bool:
			return v, nil
		case string:
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("%w: %s must be a boolean", apperr.ErrInvalidInput, field)
			}
			return b, nil
		}
		return nil, fmt.Errorf("%w: %s must be a boolean", apperr.ErrInvalidInput, field)
	case branding.FieldLogoURL:
		switch v := value.(type) {
		case nil:
			return (*string)(nil), nil
		case string:
			if v == "" {
				return (*string)(nil), nil
			}
			return model.StringPtr(v), nil
		case *string:
			if v == nil {
				return (*string)(nil), nil
			}
			return model.StringPtr(*v), nil
		}
		return nil, fmt.Errorf("%w: %s must be a string", apperr.ErrInvalidInput, field)
	case branding.FieldThemeID:
		v, ok := value.(string)
		if !ok || !theme.Exists(v) {
			return nil, fmt.Errorf("%w: unknown theme %v", apperr.ErrInvalidInput, value)
		}
		return v, nil
	case branding.FieldRestaurantName, branding.FieldSubtitle:
		v, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s must be a string", apperr.ErrInvalidInput, field)
		}
		return v, nil
	}
	return nil, fmt.Errorf("%w: unknown branding field %q", apperr.ErrInvalidInput, field)
}

func apply(cfg *model.BrandingConfig, field branding.Field, value any) {
	switch field {
	case branding.FieldRestaurantName:
		cfg.RestaurantName = value.(string)
	case branding.FieldShowName:
		cfg.ShowName = value.(bool)
	case branding.FieldLogoURL:
		cfg.LogoURL = value.(*string)
	case branding.FieldThemeID:
		cfg.ThemeID = value.(string)
	case branding.FieldSubtitle:
		cfg.Subtitle = value.(string)
	}
}
