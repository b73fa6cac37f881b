package model

// BrandingConfig is the singleton row of the config collection. RecordID
// stays nil until the first successful insert.
type BrandingConfig struct {
	RecordID       *string `db:"id" json:"id,omitempty"`
	RestaurantName string  `db:"restaurant_name" json:"restaurantName"`
	ShowName       bool    `db:"show_name" json:"showName"`
	LogoURL        *string `db:"logo_url" json:"logoUrl,omitempty"`
	ThemeID        string  `db:"theme_id" json:"themeId"`
	Subtitle       string  `db:"subtitle" json:"subtitle"`
}

// Clone copies pointer fields so callers never share them with the store.
func (c BrandingConfig) Clone() BrandingConfig {
	out := c
	if c.RecordID != nil {
		out.RecordID = StringPtr(*c.RecordID)
	}
	if c.LogoURL != nil {
		out.LogoURL = StringPtr(*c.LogoURL)
	}
	return out
}
