package localstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/fekuna/omnipos-menu-service/internal/apperr"
	"github.com/fekuna/omnipos-menu-service/internal/model"
	"github.com/lib/pq"
)

// Blobs written by older builds use image, category, image_position and
// icon instead of the current field names. Both shapes are accepted.

type storedCategory struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug,omitempty"`
	ImageURL  *string   `json:"imageUrl,omitempty"`
	Image     *string   `json:"image,omitempty"`
	ParentID  *string   `json:"parentId,omitempty"`
	IsVisible *bool     `json:"isVisible,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s storedCategory) model() model.Category {
	return model.Category{
		BaseModel: model.BaseModel{ID: s.ID, CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt},
		Name:      s.Name,
		Slug:      s.Slug,
		ImageURL:  firstNonEmpty(s.ImageURL, s.Image),
		ParentID:  s.ParentID,
		IsVisible: s.IsVisible == nil || *s.IsVisible,
	}
}

func fromCategory(c model.Category) storedCategory {
	visible := c.IsVisible
	return storedCategory{
		ID:        c.ID,
		Name:      c.Name,
		Slug:      c.Slug,
		ImageURL:  c.ImageURL,
		ParentID:  c.ParentID,
		IsVisible: &visible,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

type storedDish struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	CategoryID    string    `json:"categoryId,omitempty"`
	Category      string    `json:"category,omitempty"`
	Price         flexFloat `json:"price"`
	Description   string    `json:"description"`
	Allergens     []string  `json:"allergens"`
	PortionSize   string    `json:"portionSize"`
	ImageURL      *string   `json:"imageUrl,omitempty"`
	Image         *string   `json:"image,omitempty"`
	ImagePosition *string   `json:"imagePosition,omitempty"`
	LegacyPos     *string   `json:"image_position,omitempty"`
	IsVisible     *bool     `json:"isVisible,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (s storedDish) model() model.Dish {
	categoryID := s.CategoryID
	if categoryID == "" {
		categoryID = s.Category
	}
	allergens := pq.StringArray{}
	allergens = append(allergens, s.Allergens...)
	return model.Dish{
		BaseModel:     model.BaseModel{ID: s.ID, CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt},
		Name:          s.Name,
		CategoryID:    categoryID,
		Price:         float64(s.Price),
		Description:   s.Description,
		Allergens:     allergens,
		PortionSize:   s.PortionSize,
		ImageURL:      firstNonEmpty(s.ImageURL, s.Image),
		ImagePosition: firstNonEmpty(s.ImagePosition, s.LegacyPos),
		IsVisible:     s.IsVisible == nil || *s.IsVisible,
	}
}

func fromDish(d model.Dish) storedDish {
	visible := d.IsVisible
	allergens := []string(d.Allergens)
	if allergens == nil {
		allergens = []string{}
	}
	return storedDish{
		ID:            d.ID,
		Name:          d.Name,
		CategoryID:    d.CategoryID,
		Price:         flexFloat(d.Price),
		Description:   d.Description,
		Allergens:     allergens,
		PortionSize:   d.PortionSize,
		ImageURL:      d.ImageURL,
		ImagePosition: d.ImagePosition,
		IsVisible:     &visible,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

type storedConfig struct {
	ID             *string        `json:"id,omitempty"`
	RestaurantName *string        `json:"restaurantName,omitempty"`
	ShowName       *bool          `json:"showName,omitempty"`
	LogoURL        nullableString `json:"logoUrl"`
	Icon           *string        `json:"icon,omitempty"`
	ThemeID        string         `json:"themeId,omitempty"`
	Subtitle       string         `json:"subtitle"`
}

// nullableString tells an explicit null apart from an absent key.
type nullableString struct {
	Set   bool
	Value *string
}

func (n *nullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n.Value = &s
	return nil
}

func (n nullableString) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.Value)
}

// flexFloat decodes a JSON number or a numeric string.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("price %q: %w", s, err)
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

func firstNonEmpty(ptrs ...*string) *string {
	for _, p := range ptrs {
		if p != nil && *p != "" {
			return model.StringPtr(*p)
		}
	}
	return nil
}

// readBlob decodes key into v. It reports false when the key is absent.
func readBlob(ctx context.Context, blobs BlobStore, key string, v any) (bool, error) {
	data, err := blobs.Get(ctx, key)
	if errors.Is(err, apperr.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func writeBlob(ctx context.Context, blobs BlobStore, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return blobs.Set(ctx, key, data)
}
