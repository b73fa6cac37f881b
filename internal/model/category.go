package model

type Category struct {
	BaseModel
	Name      string  `db:"name" json:"name"`
	Slug      string  `db:"slug" json:"slug"`
	ImageURL  *string `db:"image_url" json:"imageUrl,omitempty"`
	ParentID  *string `db:"parent_id" json:"parentId,omitempty"` // Nullable, enables subcategories
	IsVisible bool    `db:"is_visible" json:"isVisible"`
}

func (c Category) Clone() Category {
	out := c
	if c.ImageURL != nil {
		out.ImageURL = StringPtr(*c.ImageURL)
	}
	if c.ParentID != nil {
		out.ParentID = StringPtr(*c.ParentID)
	}
	return out
}
