package dto

// CategoryInput is the admin form for a category. The slug is always
// derived from Name.
type CategoryInput struct {
	Name     string  `json:"name" form:"name" validate:"required,max=120"`
	ParentID *string `json:"parentId" form:"parentId"`
	// IsVisible is only honoured on update; new categories start visible.
	IsVisible *bool `json:"isVisible" form:"isVisible"`
}
