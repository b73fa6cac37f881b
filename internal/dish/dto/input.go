package dto

// DishInput mirrors the admin dish form: numeric and list fields arrive as
// text and are coerced by the catalog store.
type DishInput struct {
	Name          string `json:"name" form:"name" validate:"required,max=160"`
	CategoryID    string `json:"categoryId" form:"categoryId" validate:"required"`
	Price         string `json:"price" form:"price" validate:"required"`
	Description   string `json:"description" form:"description" validate:"max=2000"`
	Allergens     string `json:"allergens" form:"allergens"` // comma separated
	PortionSize   string `json:"portionSize" form:"portionSize" validate:"max=80"`
	ImagePosition string `json:"imagePosition" form:"imagePosition"` // "X% Y%", optional
	// ImageURL keeps an externally hosted image when no file is uploaded.
	ImageURL  string `json:"imageUrl" form:"imageUrl" validate:"max=2048"`
	IsVisible *bool  `json:"isVisible" form:"isVisible"`
}
