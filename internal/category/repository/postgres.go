package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/fekuna/omnipos-menu-service/internal/apperr"
	"github.com/fekuna/omnipos-menu-service/internal/model"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) FindAll(ctx context.Context) ([]model.Category, error) {
	categories := []model.Category{}
	query := `
        SELECT id, name, slug, image_url, parent_id, is_visible, created_at, updated_at
        FROM categories
        ORDER BY name ASC
    `
	if err := r.DB.SelectContext(ctx, &categories, query); err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *PGRepository) Create(ctx context.Context, c *model.Category) error {
	now := time.Now()
	c.ID = uuid.New().String()
	c.CreatedAt = now
	c.UpdatedAt = now

	query := `
        INSERT INTO categories (id, name, slug, image_url, parent_id, is_visible, created_at, updated_at)
        VALUES (:id, :name, :slug, :image_url, :parent_id, :is_visible, :created_at, :updated_at)
    `
	_, err := r.DB.NamedExecContext(ctx, query, c)
	return err
}

func (r *PGRepository) Update(ctx context.Context, c *model.Category) error {
	c.UpdatedAt = time.Now()
	query := `
        UPDATE categories
        SET name = :name,
            slug = :slug,
            image_url = :image_url,
            parent_id = :parent_id,
            is_visible = :is_visible,
            updated_at = :updated_at
        WHERE id = :id
    `
	res, err := r.DB.NamedExecContext(ctx, query, c)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (r *PGRepository) SetVisibility(ctx context.Context, id string, visible bool) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE categories SET is_visible = $1, updated_at = NOW() WHERE id = $2", visible, id)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (r *PGRepository) SetImageURL(ctx context.Context, id string, url string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE categories SET image_url = $1, updated_at = NOW() WHERE id = $2", url, id)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (r *PGRepository) Delete(ctx context.Context, id string) error {
	// Dishes keep their category_id; there is no foreign key on purpose.
	_, err := r.DB.ExecContext(ctx, "DELETE FROM categories WHERE id = $1", id)
	return err
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
