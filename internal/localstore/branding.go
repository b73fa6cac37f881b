package localstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/fekuna/omnipos-menu-service/internal/apperr"
	"github.com/fekuna/omnipos-menu-service/internal/branding"
	"github.com/fekuna/omnipos-menu-service/internal/model"
)

// BrandingRepository stores the config under KeyConfig. Fields missing
// from the blob take the built-in defaults.
type BrandingRepository struct {
	mu    sync.Mutex
	blobs BlobStore
	node  *snowflake.Node
}

var _ branding.Repository = (*BrandingRepository)(nil)

func NewBrandingRepository(blobs BlobStore, node *snowflake.Node) *BrandingRepository {
	return &BrandingRepository{blobs: blobs, node: node}
}

func (r *BrandingRepository) Get(ctx context.Context) (*model.BrandingConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.read(ctx)
}

func (r *BrandingRepository) Insert(ctx context.Context, cfg *model.BrandingConfig) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row := cfg.Clone()
	row.RecordID = model.StringPtr(r.node.Generate().String())
	if err := r.write(ctx, row); err != nil {
		return "", err
	}
	return *row.RecordID, nil
}

func (r *BrandingRepository) Update(ctx context.Context, id string, patch map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg, err := r.read(ctx)
	if err != nil {
		return err
	}
	if cfg.RecordID == nil || *cfg.RecordID != id {
		return apperr.ErrNotFound
	}
	for col, v := range patch {
		if err := applyColumn(cfg, col, v); err != nil {
			return err
		}
	}
	return r.write(ctx, *cfg)
}

func (r *BrandingRepository) read(ctx context.Context) (*model.BrandingConfig, error) {
	var stored storedConfig
	found, err := readBlob(ctx, r.blobs, KeyConfig, &stored)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperr.ErrNotFound
	}

	cfg := branding.DefaultConfig()
	cfg.RecordID = stored.ID
	if stored.RestaurantName != nil {
		cfg.RestaurantName = *stored.RestaurantName
	}
	if stored.ShowName != nil {
		cfg.ShowName = *stored.ShowName
	}
	switch {
	case stored.LogoURL.Set:
		cfg.LogoURL = stored.LogoURL.Value
	case stored.Icon != nil:
		cfg.LogoURL = stored.Icon
	}
	if stored.ThemeID != "" {
		cfg.ThemeID = stored.ThemeID
	}
	cfg.Subtitle = stored.Subtitle
	return &cfg, nil
}

func (r *BrandingRepository) write(ctx context.Context, cfg model.BrandingConfig) error {
	name, show := cfg.RestaurantName, cfg.ShowName
	return writeBlob(ctx, r.blobs, KeyConfig, storedConfig{
		ID:             cfg.RecordID,
		RestaurantName: &name,
		ShowName:       &show,
		LogoURL:        nullableString{Set: true, Value: cfg.LogoURL},
		ThemeID:        cfg.ThemeID,
		Subtitle:       cfg.Subtitle,
	})
}

func applyColumn(cfg *model.BrandingConfig, col string, v any) error {
	var ok bool
	switch col {
	case branding.ColumnRestaurantName:
		cfg.RestaurantName, ok = v.(string)
	case branding.ColumnShowName:
		cfg.ShowName, ok = v.(bool)
	case branding.ColumnLogoURL:
		cfg.LogoURL, ok = v.(*string)
	case branding.ColumnThemeID:
		cfg.ThemeID, ok = v.(string)
	case branding.ColumnSubtitle:
		cfg.Subtitle, ok = v.(string)
	default:
		return fmt.Errorf("%w: unknown config column %q", apperr.ErrInvalidInput, col)
	}
	if !ok {
		return fmt.Errorf("%w: config column %s has type %T", apperr.ErrInvalidInput, col, v)
	}
	return nil
}
