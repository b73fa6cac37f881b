// Package theme is the static registry of named color themes. Each theme
// carries a light and a dark palette; the first entry is the default.
package theme

type PaletteSet struct {
	Primary    string `json:"primary"`
	Secondary  string `json:"secondary"`
	Background string `json:"background"`
	Surface    string `json:"surface"`
	Text       string `json:"text"`
}

type Theme struct {
	ID          string     `json:"id"`
	DisplayName string     `json:"name"`
	Light       PaletteSet `json:"light"`
	Dark        PaletteSet `json:"dark"`
}

var themes = []Theme{
	{
		ID:          "classic",
		DisplayName: "Clásico (Oro y Café)",
		Light:       PaletteSet{Primary: "#492113", Secondary: "#C7A17A", Background: "#F6ECD3", Surface: "#FFFDF5", Text: "#492113"},
		Dark:        PaletteSet{Primary: "#F6ECD3", Secondary: "#C7A17A", Background: "#1A0F05", Surface: "#2E1B0E", Text: "#F6ECD3"},
	},
	{
		ID:          "modern_slate",
		DisplayName: "Modern Slate (Gris Azulado)",
		Light:       PaletteSet{Primary: "#1E293B", Secondary: "#64748B", Background: "#F1F5F9", Surface: "#FFFFFF", Text: "#0F172A"},
		Dark:        PaletteSet{Primary: "#E2E8F0", Secondary: "#94A3B8", Background: "#0F172A", Surface: "#1E293B", Text: "#F8FAFC"},
	},
	{
		ID:          "ocean",
		DisplayName: "Ocean Breeze (Azul)",
		Light:       PaletteSet{Primary: "#0C4A6E", Secondary: "#0EA5E9", Background: "#F0F9FF", Surface: "#FFFFFF", Text: "#0C4A6E"},
		Dark:        PaletteSet{Primary: "#38BDF8", Secondary: "#0EA5E9", Background: "#0B1120", Surface: "#162032", Text: "#E0F2FE"},
	},
	{
		ID:          "forest",
		DisplayName: "Forest (Verde)",
		Light:       PaletteSet{Primary: "#14532D", Secondary: "#22C55E", Background: "#F0FDF4", Surface: "#FFFFFF", Text: "#14532D"},
		Dark:        PaletteSet{Primary: "#4ADE80", Secondary: "#22C55E", Background: "#052E16", Surface: "#14532D", Text: "#DCFCE7"},
	},
	{
		ID:          "sunset",
		DisplayName: "Sunset (Naranja/Rojo)",
		Light:       PaletteSet{Primary: "#7C2D12", Secondary: "#F97316", Background: "#FFF7ED", Surface: "#FFFFFF", Text: "#431407"},
		Dark:        PaletteSet{Primary: "#FB923C", Secondary: "#EA580C", Background: "#431407", Surface: "#7C2D12", Text: "#FFEDD5"},
	},
}

// All returns the registry in display order.
func All() []Theme {
	out := make([]Theme, len(themes))
	copy(out, themes)
	return out
}

func Default() Theme {
	return themes[0]
}

// GetThemeByID returns the first theme with the given id, or the default
// theme when nothing matches.
func GetThemeByID(id string) Theme {
	for _, t := range themes {
		if t.ID == id {
			return t
		}
	}
	return Default()
}

func Exists(id string) bool {
	for _, t := range themes {
		if t.ID == id {
			return true
		}
	}
	return false
}
