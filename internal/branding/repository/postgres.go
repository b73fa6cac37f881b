package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/fekuna/omnipos-menu-service/internal/apperr"
	"github.com/fekuna/omnipos-menu-service/internal/branding"
	"github.com/fekuna/omnipos-menu-service/internal/model"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var patchableColumns = map[string]bool{
	branding.ColumnRestaurantName: true,
	branding.ColumnShowName:       true,
	branding.ColumnLogoURL:        true,
	branding.ColumnThemeID:        true,
	branding.ColumnSubtitle:       true,
}

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Get(ctx context.Context) (*model.BrandingConfig, error) {
	var cfg model.BrandingConfig
	query := `
        SELECT id, restaurant_name, show_name, logo_url, theme_id, subtitle
        FROM menu_config
        ORDER BY created_at ASC
        LIMIT 1
    `
	err := r.DB.GetContext(ctx, &cfg, query)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &cfg, nil
}

func (r *PGRepository) Insert(ctx context.Context, cfg *model.BrandingConfig) (string, error) {
	row := *cfg
	row.RecordID = model.StringPtr(uuid.New().String())

	query := `
        INSERT INTO menu_config (id, restaurant_name, show_name, logo_url, theme_id, subtitle, created_at, updated_at)
        VALUES (:id, :restaurant_name, :show_name, :logo_url, :theme_id, :subtitle, NOW(), NOW())
    `
	if _, err := r.DB.NamedExecContext(ctx, query, row); err != nil {
		return "", err
	}
	return *row.RecordID, nil
}

func (r *PGRepository) Update(ctx context.Context, id string, patch map[string]any) error {
	if len(patch) == 0 {
		return nil
	}

	columns := make([]string, 0, len(patch))
	for col := range patch {
		if !patchableColumns[col] {
			return fmt.Errorf("%w: unknown config column %q", apperr.ErrInvalidInput, col)
		}
		columns = append(columns, col)
	}
	sort.Strings(columns)

	sets := make([]string, 0, len(columns)+1)
	args := map[string]interface{}{"id": id}
	for _, col := range columns {
		sets = append(sets, fmt.Sprintf("%s = :%s", col, col))
		args[col] = patch[col]
	}
	sets = append(sets, "updated_at = NOW()")

	query := "UPDATE menu_config SET " + strings.Join(sets, ", ") + " WHERE id = :id"
	res, err := r.DB.NamedExecContext(ctx, query, args)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
