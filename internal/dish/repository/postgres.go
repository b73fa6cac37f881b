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

func (r *PGRepository) FindAll(ctx context.Context) ([]model.Dish, error) {
	dishes := []model.Dish{}
	query := `
        SELECT id, name, category_id, price, description, allergens, portion_size,
               image_url, image_position, is_visible, created_at, updated_at
        FROM dishes
        ORDER BY name ASC
    `
	if err := r.DB.SelectContext(ctx, &dishes, query); err != nil {
		return nil, err
	}
	return dishes, nil
}

func (r *PGRepository) Create(ctx context.Context, d *model.Dish) error {
	now := time.Now()
	d.ID = uuid.New().String()
	d.CreatedAt = now
	d.UpdatedAt = now

	query := `
        INSERT INTO dishes (
            id, name, category_id, price, description, allergens, portion_size,
            image_url, image_position, is_visible, created_at, updated_at
        )
        VALUES (
            :id, :name, :category_id, :price, :description, :allergens, :portion_size,
            :image_url, :image_position, :is_visible, :created_at, :updated_at
        )
    `
	_, err := r.DB.NamedExecContext(ctx, query, d)
	return err
}

func (r *PGRepository) Update(ctx context.Context, d *model.Dish) error {
	d.UpdatedAt = time.Now()
	query := `
        UPDATE dishes
        SET name = :name,
            category_id = :category_id,
            price = :price,
            description = :description,
            allergens = :allergens,
            portion_size = :portion_size,
            image_url = :image_url,
            image_position = :image_position,
            is_visible = :is_visible,
            updated_at = :updated_at
        WHERE id = :id
    `
	res, err := r.DB.NamedExecContext(ctx, query, d)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (r *PGRepository) SetVisibility(ctx context.Context, id string, visible bool) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE dishes SET is_visible = $1, updated_at = NOW() WHERE id = $2", visible, id)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (r *PGRepository) SetImageURL(ctx context.Context, id string, url string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE dishes SET image_url = $1, updated_at = NOW() WHERE id = $2", url, id)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (r *PGRepository) Delete(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM dishes WHERE id = $1", id)
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
