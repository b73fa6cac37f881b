package model

import "github.com/lib/pq"

type Dish struct {
	BaseModel
	Name          string         `db:"name" json:"name"`
	CategoryID    string         `db:"category_id" json:"categoryId"`
	Price         float64        `db:"price" json:"price"`
	Description   string         `db:"description" json:"description"`
	Allergens     pq.StringArray `db:"allergens" json:"allergens"`
	PortionSize   string         `db:"portion_size" json:"portionSize"`
	ImageURL      *string        `db:"image_url" json:"imageUrl,omitempty"`
	ImagePosition *string        `db:"image_position" json:"imagePosition,omitempty"` // "X% Y%" focal point
	IsVisible     bool           `db:"is_visible" json:"isVisible"`
}

func (d Dish) Clone() Dish {
	out := d
	if d.Allergens != nil {
		out.Allergens = append(pq.StringArray{}, d.Allergens...)
	}
	if d.ImageURL != nil {
		out.ImageURL = StringPtr(*d.ImageURL)
	}
	if d.ImagePosition != nil {
		out.ImagePosition = StringPtr(*d.ImagePosition)
	}
	return out
}
